package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sacavia/feedengine/internal/domain"
)

var _ Relay = (*SignalService)(nil)

// SignalService relays invalidation events between engine instances over
// redis pub/sub.
type SignalService struct {
	rdb     *redis.Client
	channel string
	origin  string
}

// origin identifies this instance; messages carrying it are not re-dispatched.
func NewSignalService(redisClient *redis.Client, channel, origin string) *SignalService {
	return &SignalService{
		rdb:     redisClient,
		channel: channel,
		origin:  origin,
	}
}

func (s *SignalService) Relay(ctx context.Context, event domain.Event) error {
	return s.Publish(ctx, domain.EncodeEvent(event, s.origin))
}

func (s *SignalService) Publish(ctx context.Context, env domain.Envelope) error {

	jsonstr, err := json.Marshal(env)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, s.channel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Listen dispatches events published by other instances until ctx ends.
func (s *SignalService) Listen(ctx context.Context, bus *Bus) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	slog.InfoContext(
		ctx, "Listening for signals",
		slog.String("channel", s.channel),
		slog.String("module", "signal"),
	)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(ctx, bus, []byte(msg.Payload))
		}
	}
}

func (s *SignalService) handle(ctx context.Context, bus *Bus, payload []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		slog.WarnContext(ctx, "Bad signal payload", slog.String("error", err.Error()), slog.String("module", "signal"))
		return
	}
	if env.Origin == s.origin {
		return
	}
	event, err := domain.DecodeEvent(env)
	if err != nil {
		slog.WarnContext(ctx, "Unknown signal", slog.String("error", err.Error()), slog.String("module", "signal"))
		return
	}
	bus.Dispatch(ctx, event)
}
