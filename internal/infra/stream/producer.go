package stream

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	kf "github.com/segmentio/kafka-go"

	"github.com/sacavia/feedengine/internal/domain"
)

// Producer writes invalidation envelopes to a topic.
type Producer struct {
	w      *kf.Writer
	origin string
}

func NewProducer(brokers, topic, origin string) *Producer {
	w := &kf.Writer{
		Addr:         kf.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kf.LeastBytes{},
		RequiredAcks: kf.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{w: w, origin: origin}
}

func (p *Producer) Relay(ctx context.Context, event domain.Event) error {
	b, err := json.Marshal(domain.EncodeEvent(event, p.origin))
	if err != nil {
		return err
	}
	msg := kf.Message{Value: b, Time: time.Now()}
	if deleted, ok := event.(domain.PostDeleted); ok {
		msg.Key = []byte(deleted.PostID)
	}
	return p.w.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error { return p.w.Close() }
