package utils

import (
	"context"
	"errors"
	"sync"
)

var ErrSequenceClosed = errors.New("sequence closed")

// Sequence runs submitted functions one at a time, in submission order, on a
// single goroutine. State confined to a sequence needs no locking as long as
// it is only touched from functions passed to Do.
//
// Functions run by the sequence must not call Do on the same sequence.
type Sequence struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewSequence() *Sequence {
	s := &Sequence{
		tasks: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sequence) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case task := <-s.tasks:
			task()
		}
	}
}

// Do runs fn on the sequence and waits for it to return.
func (s *Sequence) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case s.tasks <- task:
	case <-s.quit:
		return ErrSequenceClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	<-finished
	return nil
}

// Close stops the sequence after the running function, if any, returns.
func (s *Sequence) Close() {
	s.once.Do(func() {
		close(s.quit)
	})
	<-s.done
}
