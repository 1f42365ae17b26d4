// Package eventbus fans simulation events out to in-process subscribers.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the channel capacity of a subscriber.
const DefaultBuffer = 64

type subscriber[T any] struct {
	ch   chan T
	gone chan struct{}
	once sync.Once
}

func (s *subscriber[T]) leave() { s.once.Do(func() { close(s.gone) }) }

// TypedBus is a type-safe publish/subscribe bus for events of type T.
type TypedBus[T any] struct {
	mu      sync.RWMutex
	subs    []*subscriber[T]
	closed  bool
	buffer  int
	dropped atomic.Int64

	// index lets Unsubscribe release a blocked PublishWait before it takes mu.
	imu   sync.Mutex
	index map[<-chan T]*subscriber[T]

	quit     chan struct{}
	quitOnce sync.Once
}

// Option configures a TypedBus.
type Option func(*options)

type options struct{ buffer int }

// WithBuffer sets the channel capacity of every subscriber.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// NewTyped creates a new TypedBus.
func NewTyped[T any](opts ...Option) *TypedBus[T] {
	o := options{buffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	return &TypedBus[T]{
		buffer: o.buffer,
		index:  make(map[<-chan T]*subscriber[T]),
		quit:   make(chan struct{}),
	}
}

// Publish sends the event to all subscribers. Delivery is non-blocking; an
// event for a full subscriber is dropped and counted.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// PublishWait delivers the event to every subscriber, waiting for room in
// each channel. A subscriber that unsubscribes or a bus that closes while
// the event is pending is skipped. It returns ctx.Err() if ctx ends first.
func (b *TypedBus[T]) PublishWait(ctx context.Context, e T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, s := range b.subs {
		select {
		case s.ch <- e:
		case <-s.gone:
		case <-b.quit:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Dropped returns the number of deliveries skipped because a subscriber was
// full.
func (b *TypedBus[T]) Dropped() int64 { return b.dropped.Load() }

// Subscribe registers a subscriber and returns its channel.
func (b *TypedBus[T]) Subscribe() <-chan T {
	s := &subscriber[T]{ch: make(chan T, b.buffer), gone: make(chan struct{})}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s.ch
	}
	b.subs = append(b.subs, s)
	b.imu.Lock()
	b.index[s.ch] = s
	b.imu.Unlock()
	return s.ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.imu.Lock()
	s := b.index[sub]
	delete(b.index, sub)
	b.imu.Unlock()
	if s == nil {
		return
	}
	s.leave()

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, cur := range b.subs {
		if cur == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.quitOnce.Do(func() { close(b.quit) })
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	b.imu.Lock()
	clear(b.index)
	b.imu.Unlock()
}

// Subscribers returns the number of active subscribers.
func (b *TypedBus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
