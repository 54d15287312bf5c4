package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
	"github.com/y-pakorn/friendwithbets/pkg/models"
)

type EventKind string

const (
	PlanningThought  EventKind = "planning-thought"
	ExecutionThought EventKind = "execution-thought"
	Text             EventKind = "text"
	Final            EventKind = "final"
	Failure          EventKind = "failure"
	Done             EventKind = "done"
)

type Event[F any] struct {
	Kind        EventKind
	Status      string
	Description string
	Text        string
	Final       *F
	Err         error
}

// Emitter receives progress events. Returning an error ends the run as cancelled.
type Emitter[F any] func(ctx context.Context, ev Event[F]) error

func send[F any](ctx context.Context, emit Emitter[F], ev Event[F]) error {
	if emit == nil {
		return nil
	}
	if err := emit(ctx, ev); err != nil {
		if errors.Is(err, models.ErrCancelled) {
			return err
		}
		return fmt.Errorf("%w: emit: %w", models.ErrCancelled, err)
	}
	return nil
}

// TerminalGrace is how long a consumer has to take the closing events of a run
// that ran out of time.
var TerminalGrace = 5 * time.Second

// DeliveryContext bounds sends to a stream consumer. It ends with ctx, except when
// ctx ends by its deadline: the consumer is still reading then, so delivery stays
// open for TerminalGrace to let the failure and done events through.
func DeliveryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var grace *time.Timer
	var mu sync.Mutex
	stop := context.AfterFunc(ctx, func() {
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			cancel()
			return
		}
		mu.Lock()
		grace = time.AfterFunc(TerminalGrace, cancel)
		mu.Unlock()
	})
	return dctx, func() {
		stop()
		mu.Lock()
		if grace != nil {
			grace.Stop()
		}
		mu.Unlock()
		cancel()
	}
}

// Stream is the streaming delivery mode: one producer goroutine, one consumer,
// an unbuffered channel for back-pressure. The channel carries progress events,
// then text, final or failure, then done, and is closed. A run that hits its
// deadline ends with a cancelled failure and done; when the consumer cancels the
// channel is closed without further events.
type Stream[F any] struct {
	events  chan Event[F]
	done    chan struct{}
	deliver context.Context
	result  Result[F]
	err     error
}

func (k *Kernel[F]) Stream(ctx context.Context, transcript buffer.Transcript) *Stream[F] {
	deliver, cancel := DeliveryContext(ctx)
	s := &Stream[F]{
		events:  make(chan Event[F]),
		done:    make(chan struct{}),
		deliver: deliver,
	}
	go func() {
		defer close(s.done)
		defer close(s.events)
		defer cancel()

		s.result, s.err = k.Run(ctx, transcript, s.emit)
		if s.err != nil && (!errors.Is(s.err, models.ErrCancelled) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
			if s.emit(ctx, Event[F]{Kind: Failure, Err: s.err}) != nil {
				return
			}
		}
		_ = s.emit(ctx, Event[F]{Kind: Done})
	}()
	return s
}

func (s *Stream[F]) emit(_ context.Context, ev Event[F]) error {
	if err := s.deliver.Err(); err != nil {
		return cancelled(err)
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.deliver.Done():
		return cancelled(s.deliver.Err())
	}
}

func (s *Stream[F]) Events() <-chan Event[F] {
	return s.events
}

// Wait blocks until the producer is finished and returns the run's outcome.
func (s *Stream[F]) Wait() (Result[F], error) {
	<-s.done
	return s.result, s.err
}
