package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	kf "github.com/segmentio/kafka-go"

	"github.com/sacavia/feedengine/internal/domain"
)

// EventHandler receives decoded invalidation events.
type EventHandler func(ctx context.Context, event domain.Event)

type Consumer struct {
	reader *kf.Reader
	origin string
	handle EventHandler
}

// NewConsumer reads invalidation envelopes from topic. Messages carrying
// origin are skipped, they were already dispatched when produced.
func NewConsumer(brokers, topic, groupID, origin string, handle EventHandler) *Consumer {
	r := kf.NewReader(kf.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  2 * time.Second,
	})
	return &Consumer{reader: r, origin: origin, handle: handle}
}

// Run blocks until ctx ends or the reader fails.
func (c *Consumer) Run(ctx context.Context) error {
	cfg := c.reader.Config()
	slog.InfoContext(
		ctx, "Stream consumer started",
		slog.String("topic", cfg.Topic),
		slog.String("group", cfg.GroupID),
		slog.String("module", "stream"),
	)

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.dispatch(ctx, m.Value)
	}
}

func (c *Consumer) dispatch(ctx context.Context, payload []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		slog.WarnContext(ctx, "Bad stream payload", slog.String("error", err.Error()), slog.String("module", "stream"))
		return
	}
	if c.origin != "" && env.Origin == c.origin {
		return
	}
	event, err := domain.DecodeEvent(env)
	if err != nil {
		slog.WarnContext(ctx, "Unknown stream event", slog.String("error", err.Error()), slog.String("module", "stream"))
		return
	}
	c.handle(ctx, event)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
