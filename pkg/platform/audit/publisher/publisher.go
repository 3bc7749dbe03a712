// Package publisher delivers audit events to a store, synchronously by
// default or through a buffered worker when emission must not sit on the
// request path.
package publisher

import (
	"context"
	"sync"
	"time"

	audit "agora/pkg/platform/audit"
)

// Store is the sink events land in.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
	ListByParticipant(ctx context.Context, anonymousID string) ([]audit.Event, error)
}

// Publisher emits audit events. In async mode a full buffer drops the event
// rather than blocking the caller. Audit delivery is best-effort for the
// operations category.
type Publisher struct {
	store Store

	buffer chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to a background worker draining a
// channel of the given capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan audit.Event, size)
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event, stamping the timestamp if unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.buffer <- event:
	default:
		// Buffer full: drop rather than stall the request path.
	}
	return nil
}

// List returns the events recorded for a participant.
func (p *Publisher) List(ctx context.Context, anonymousID string) ([]audit.Event, error) {
	return p.store.ListByParticipant(ctx, anonymousID)
}

// Close stops the async worker after draining buffered events. Safe to call
// in sync mode and safe to call twice.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		_ = p.store.Append(context.Background(), event)
	}
}
