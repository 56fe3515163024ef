package channel

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Channel is the thread-safe, inline/single-owner variant: its Core
// is guarded by a real *sync.Mutex, so any number of goroutines may
// hold the same *Channel[T] and call its methods concurrently. Unlike
// Sender/Receiver below, there is no reference counting -- the owner
// decides when to call Close.
type Channel[T any] struct {
	*Core[T]
}

// Option configures a Channel or a shared pair at construction.
type Option func(*config)

type config struct {
	logger *zap.Logger
}

// WithLogger installs a *zap.Logger for lifecycle diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// New allocates a thread-safe Channel with the given capacity.
func New[T any](capacity int, opts ...Option) *Channel[T] {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	return &Channel[T]{Core: NewCore[T](capacity, &sync.Mutex{}, cfg.logger)}
}

// refcount is the shared-handle bookkeeping for one direction
// (producer or consumer). Dropping the last clone of a direction
// closes the channel from that side.
//
// Go has no destructor, so "drop" here means an explicit Close call;
// callers that forget to call it simply never trigger the
// last-handle-drop transition, the same as any handle type that leaks
// instead of being closed.
type refcount struct {
	n *int64
}

func newRefcount() refcount {
	n := int64(1)
	return refcount{n: &n}
}

func (r refcount) clone() refcount {
	atomic.AddInt64(r.n, 1)
	return r
}

// release decrements the count and reports whether it reached zero.
func (r refcount) release() bool {
	return atomic.AddInt64(r.n, -1) == 0
}

// Sender is a clonable, shared producer handle. Dropping (Close-ing)
// the last Sender closes the channel exactly as an explicit Close
// call would: receivers drain whatever is buffered, then observe
// end-of-stream.
type Sender[T any] struct {
	core *Core[T]
	rc   refcount
}

// Receiver is a clonable, shared consumer handle. Dropping the last
// Receiver closes the channel: any pending or future send fails,
// returning its value.
type Receiver[T any] struct {
	core *Core[T]
	rc   refcount
}

// NewPair allocates a thread-safe Core and returns one Sender and one
// Receiver handle sharing it, each starting with a reference count of
// one: the make_pair(capacity) constructor for the shared variant.
func NewPair[T any](capacity int, opts ...Option) (*Sender[T], *Receiver[T]) {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	core := NewCore[T](capacity, &sync.Mutex{}, cfg.logger)
	return &Sender[T]{core: core, rc: newRefcount()}, &Receiver[T]{core: core, rc: newRefcount()}
}

// Clone returns a new Sender handle sharing the same channel,
// incrementing the producer reference count.
func (s *Sender[T]) Clone() *Sender[T] {
	return &Sender[T]{core: s.core, rc: s.rc.clone()}
}

// Send is the shared-handle equivalent of Core.Send.
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	return s.core.Send(ctx, v)
}

// TrySend is the shared-handle equivalent of Core.TrySend.
func (s *Sender[T]) TrySend(v T) (SendOutcome, T) {
	return s.core.TrySend(v)
}

// Close releases this Sender handle. Once every Sender handle has
// been closed, the channel closes from the producer side.
func (s *Sender[T]) Close() {
	if s.rc.release() {
		s.core.Close()
	}
}

// Clone returns a new Receiver handle sharing the same channel,
// incrementing the consumer reference count.
func (r *Receiver[T]) Clone() *Receiver[T] {
	return &Receiver[T]{core: r.core, rc: r.rc.clone()}
}

// Receive is the shared-handle equivalent of Core.Receive.
func (r *Receiver[T]) Receive(ctx context.Context) (T, bool, error) {
	return r.core.Receive(ctx)
}

// TryReceive is the shared-handle equivalent of Core.TryReceive.
func (r *Receiver[T]) TryReceive() (T, RecvOutcome) {
	return r.core.TryReceive()
}

// Close releases this Receiver handle. Once every Receiver handle has
// been closed, the channel closes from the consumer side: pending and
// future sends fail.
func (r *Receiver[T]) Close() {
	if r.rc.release() {
		r.core.Close()
	}
}
