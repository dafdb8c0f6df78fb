package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sacavia/feedengine/internal/domain"
)

type failingRelay struct {
	events []domain.Event
}

func (f *failingRelay) Relay(ctx context.Context, e domain.Event) error {
	f.events = append(f.events, e)
	return errors.New("offline")
}

func TestBusDispatchesByType(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var deleted []string
	var created []bool
	unsubscribe := bus.OnPostDeleted(func(ctx context.Context, e domain.PostDeleted) {
		deleted = append(deleted, e.PostID)
	})
	bus.OnPostCreated(func(ctx context.Context, e domain.PostCreated) {
		created = append(created, e.Success)
	})

	bus.Dispatch(ctx, domain.PostDeleted{PostID: "p1"})
	bus.Dispatch(ctx, domain.PostCreated{Success: true})
	unsubscribe()
	bus.Dispatch(ctx, domain.PostDeleted{PostID: "p2"})

	if len(deleted) != 1 || deleted[0] != "p1" {
		t.Fatalf("unexpected deletions %v", deleted)
	}
	if len(created) != 1 || !created[0] {
		t.Fatalf("unexpected creations %v", created)
	}
}

func TestBusPublishRelays(t *testing.T) {
	bus := NewBus()
	relay := &failingRelay{}
	bus.AddRelay(relay)

	var local int
	bus.OnPostDeleted(func(ctx context.Context, e domain.PostDeleted) { local++ })

	err := bus.Publish(context.Background(), domain.PostDeleted{PostID: "p1"})
	if err == nil {
		t.Fatalf("expected relay error")
	}
	if local != 1 || len(relay.events) != 1 {
		t.Fatalf("expected local and relayed delivery, got %d/%d", local, len(relay.events))
	}
}

func TestSignalSkipsOwnOrigin(t *testing.T) {
	s := &SignalService{origin: "me"}
	bus := NewBus()
	var got []string
	bus.OnPostDeleted(func(ctx context.Context, e domain.PostDeleted) { got = append(got, e.PostID) })
	ctx := context.Background()

	own, _ := json.Marshal(domain.EncodeEvent(domain.PostDeleted{PostID: "p1"}, "me"))
	other, _ := json.Marshal(domain.EncodeEvent(domain.PostDeleted{PostID: "p2"}, "them"))
	s.handle(ctx, bus, own)
	s.handle(ctx, bus, other)
	s.handle(ctx, bus, []byte(`{"type":"post_deleted"}`))

	if len(got) != 1 || got[0] != "p2" {
		t.Fatalf("unexpected dispatch %v", got)
	}
}

func TestEnvelopeKeepsFailedCreation(t *testing.T) {
	env := domain.EncodeEvent(domain.PostCreated{Success: false}, "")
	b, _ := json.Marshal(env)
	if string(b) != `{"type":"post_created","success":false}` {
		t.Fatalf("unexpected envelope %s", b)
	}
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return s
}

func TestCredentialService(t *testing.T) {
	ctx := context.Background()
	s := NewCredentialService()

	if s.IsAuthenticated() {
		t.Fatalf("expected no credential")
	}

	s.SetToken(ctx, "opaque-token")
	if tok, ok := s.GetValidToken(); !ok || tok != "opaque-token" {
		t.Fatalf("opaque tokens are accepted as is")
	}

	s.SetToken(ctx, signed(t, time.Now().Add(time.Hour)))
	if !s.IsAuthenticated() {
		t.Fatalf("expected valid jwt")
	}

	s.SetToken(ctx, signed(t, time.Now().Add(-time.Minute)))
	if s.IsAuthenticated() {
		t.Fatalf("expired jwt must be rejected")
	}

	s.SetToken(ctx, signed(t, time.Now().Add(10*time.Second)))
	if s.IsAuthenticated() {
		t.Fatalf("jwt about to expire must be rejected")
	}

	s.Clear(ctx)
	if _, ok := s.GetValidToken(); ok {
		t.Fatalf("expected cleared credential")
	}
}
