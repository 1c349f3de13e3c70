// Package event provides buffered publishing of run events to a store.
package event

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/maze-agent/domain/event"
)

// Publisher publishes events to an event store, optionally in batches.
type Publisher struct {
	store   event.Store
	buffer  []event.Event
	bufSize int
	mu      sync.Mutex
}

// PublisherOption configures the publisher.
type PublisherOption func(*Publisher)

// WithBufferSize holds events until size of them are pending. Sizes below
// two publish every call immediately.
func WithBufferSize(size int) PublisherOption {
	return func(p *Publisher) {
		p.bufSize = size
	}
}

// NewPublisher creates a new event publisher.
func NewPublisher(store event.Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store: store,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize < 2 {
		p.bufSize = 0
	}
	if p.bufSize > 0 {
		p.buffer = make([]event.Event, 0, p.bufSize)
	}
	return p
}

// Publish sends events to the store, or buffers them. A buffered batch is
// written once it is full; a failed write keeps the batch for the next
// flush.
func (p *Publisher) Publish(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// If no buffering, publish immediately
	if p.bufSize == 0 {
		return p.store.Append(ctx, events...)
	}

	p.buffer = append(p.buffer, events...)

	if len(p.buffer) >= p.bufSize {
		return p.flush(ctx)
	}

	return nil
}

// Flush writes all buffered events to the store.
func (p *Publisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flush(ctx)
}

// flush writes buffered events to the store (must hold lock).
func (p *Publisher) flush(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}

	if err := p.store.Append(ctx, p.buffer...); err != nil {
		return err
	}

	p.buffer = p.buffer[:0]
	return nil
}

// Pending returns the number of buffered events.
func (p *Publisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

// Close flushes remaining events.
func (p *Publisher) Close() error {
	return p.Flush(context.Background())
}
