package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("service")

// expirySkew treats tokens about to expire as already expired.
const expirySkew = 30 * time.Second

// CredentialService holds the bearer token of the signed-in user.
// Tokens are opaque to the engine except for the exp claim of JWTs,
// which is read without verification.
type CredentialService struct {
	mu      sync.RWMutex
	token   string
	expires time.Time
	now     func() time.Time
}

func NewCredentialService() *CredentialService {
	return &CredentialService{now: time.Now}
}

func (s *CredentialService) SetToken(ctx context.Context, token string) {
	_, span := tracer.Start(ctx, "Credential.Service.SetToken")
	defer span.End()

	expires := tokenExpiry(token)

	s.mu.Lock()
	s.token = token
	s.expires = expires
	s.mu.Unlock()

	slog.InfoContext(
		ctx, "Credential updated",
		slog.Bool("hasExpiry", !expires.IsZero()),
		slog.String("module", "auth"),
	)
}

func (s *CredentialService) Clear(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.expires = time.Time{}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Credential cleared", slog.String("module", "auth"))
}

func (s *CredentialService) IsAuthenticated() bool {
	_, ok := s.GetValidToken()
	return ok
}

// GetValidToken returns the current token unless it is missing or expired.
func (s *CredentialService) GetValidToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", false
	}
	if !s.expires.IsZero() && !s.now().Add(expirySkew).Before(s.expires) {
		return "", false
	}
	return s.token, true
}

func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
