package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/usecase"
)

var _ usecase.EventPublisher = (*Bus)(nil)

// Relay forwards published events outside the process.
type Relay interface {
	Relay(ctx context.Context, event domain.Event) error
}

type subscription[T domain.Event] struct {
	id int
	fn func(context.Context, T)
}

// Bus delivers invalidation events to typed subscribers. Handlers run on the
// publishing goroutine, in subscription order.
type Bus struct {
	mu      sync.RWMutex
	nextID  int
	deleted []subscription[domain.PostDeleted]
	created []subscription[domain.PostCreated]
	relays  []Relay
}

func NewBus() *Bus {
	return &Bus{}
}

// OnPostDeleted registers fn and returns a function that removes it.
func (b *Bus) OnPostDeleted(fn func(context.Context, domain.PostDeleted)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.deleted = append(b.deleted, subscription[domain.PostDeleted]{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.deleted = without(b.deleted, id)
	}
}

// OnPostCreated registers fn and returns a function that removes it.
func (b *Bus) OnPostCreated(fn func(context.Context, domain.PostCreated)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.created = append(b.created, subscription[domain.PostCreated]{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.created = without(b.created, id)
	}
}

func without[T domain.Event](subs []subscription[T], id int) []subscription[T] {
	out := make([]subscription[T], 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

func (b *Bus) AddRelay(r Relay) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.relays = append(b.relays, r)
}

// Publish dispatches locally and then hands the event to every relay.
// Relay failures are returned joined; local delivery has already happened.
func (b *Bus) Publish(ctx context.Context, event domain.Event) error {
	b.Dispatch(ctx, event)

	b.mu.RLock()
	relays := append([]Relay(nil), b.relays...)
	b.mu.RUnlock()

	var errs []error
	for _, r := range relays {
		if err := r.Relay(ctx, event); err != nil {
			slog.WarnContext(
				ctx, "Failed to relay event",
				slog.String("type", event.EventType()),
				slog.String("error", err.Error()),
				slog.String("module", "bus"),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch delivers event to local subscribers only. Remote transports use
// it so that events are not relayed back out.
func (b *Bus) Dispatch(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	deleted := append([]subscription[domain.PostDeleted](nil), b.deleted...)
	created := append([]subscription[domain.PostCreated](nil), b.created...)
	b.mu.RUnlock()

	switch ev := event.(type) {
	case domain.PostDeleted:
		for _, s := range deleted {
			s.fn(ctx, ev)
		}
	case domain.PostCreated:
		for _, s := range created {
			s.fn(ctx, ev)
		}
	}
}
