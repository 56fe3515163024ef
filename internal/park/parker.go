package park

import "sync"

// Parker is a single-shot wakeup signal: the Go stand-in for the
// spec's "waker", a handle used to schedule the owning task when
// progress is made.
//
// It is adapted from sema_spsc's per-slot `ch chan struct{}`
// rendezvous channel, which that package used to park and wake a
// single producer/consumer pair around one ring-buffer slot. Here the
// same "unbuffered channel, closed exactly once" idiom backs one
// suspended future instead of one buffer slot, and NewParker is
// called once per poll instead of once per slot, since a future's
// waiter may be re-parked on a fresh Parker every time it is polled.
type Parker struct {
	once   sync.Once
	ch     chan struct{}
	onWake func()
}

// NewParker returns a Parker ready to be waited on.
func NewParker() *Parker {
	return &Parker{ch: make(chan struct{})}
}

// NewParkerWithCallback returns a Parker that also invokes onWake the
// first time it fires, in addition to closing its Done channel. This
// is how a scheduler (or a test harness driving polls by hand, the Go
// analogue of futures_test::task::new_count_waker) can observe wakeup
// events without polling Done in a select loop.
func NewParkerWithCallback(onWake func()) *Parker {
	return &Parker{ch: make(chan struct{}), onWake: onWake}
}

// Wake fires the signal. Safe to call more than once or concurrently;
// only the first call has any effect. Must be called without the
// ChannelCore lock held.
func (p *Parker) Wake() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		close(p.ch)
		if p.onWake != nil {
			p.onWake()
		}
	})
}

// Done returns the channel that becomes readable once Wake has been
// called, for use in a select alongside ctx.Done().
func (p *Parker) Done() <-chan struct{} {
	return p.ch
}
