package channel

import (
	"context"

	"github.com/ccnlui/asyncchan/internal/park"
)

// SendFuture is the per-call suspendable send operation. It registers
// with its Core on first poll and deregisters
// on cancellation; polling a terminated SendFuture is a contract
// violation.
type SendFuture[T any] struct {
	core       *Core[T]
	waiter     *park.Waiter[T]
	started    bool
	terminated bool
}

func newSendFuture[T any](core *Core[T], v T) *SendFuture[T] {
	w := park.NewWaiter[T](park.KindSend)
	w.Payload = park.Some(v)
	return &SendFuture[T]{core: core, waiter: w}
}

// IsTerminated reports whether this future has already produced its
// result.
func (f *SendFuture[T]) IsTerminated() bool { return f.terminated }

// Poll advances the state machine once. p is the waker to (re)register
// if the operation must suspend; Poll returns (true, err) once the
// operation is resolved, and (false, nil) if the caller must suspend
// until p fires.
func (f *SendFuture[T]) Poll(p *park.Parker) (bool, error) {
	if f.terminated {
		panic(`channel: poll called on a terminated send future`)
	}
	if !f.started {
		f.started = true
		v, _ := f.waiter.Payload.Get()
		outcome, bounced := f.core.TrySend(v)
		switch outcome {
		case SendDelivered, SendBuffered:
			f.terminated = true
			return true, nil
		case SendClosed:
			f.terminated = true
			return true, &SendError[T]{Value: bounced}
		default: // SendWouldBlock
			f.waiter.SetPoller(p)
			if f.core.RegisterSendWaiter(f.waiter) {
				return f.finish()
			}
			return false, nil
		}
	}
	if f.core.RefreshWaiterPoller(f.waiter, p) {
		return f.finish()
	}
	return false, nil
}

func (f *SendFuture[T]) finish() (bool, error) {
	f.terminated = true
	payload := f.core.WaiterResult(f.waiter)
	if v, ok := payload.Get(); ok {
		return true, &SendError[T]{Value: v}
	}
	return true, nil
}

// Cancel deregisters this future's waiter if it is still suspended.
// Safe to call on an already-terminated future (no-op). Must be
// called if the future is abandoned before completion, or the
// intrusive wait-queue would retain a pointer into storage the caller
// is about to drop.
func (f *SendFuture[T]) Cancel() {
	if f.terminated || !f.started {
		return
	}
	f.core.CancelSendWaiter(f.waiter)
}

// Run drives the future to completion, suspending the calling
// goroutine (not spinning) until the result is available or ctx is
// done. This is the idiomatic Go entry point most callers want;
// Poll/Cancel above exist for callers that need to drive several
// futures themselves (e.g. to implement a select over channels).
func (f *SendFuture[T]) Run(ctx context.Context) error {
	for {
		p := park.NewParker()
		done, err := f.Poll(p)
		if done {
			return err
		}
		select {
		case <-p.Done():
		case <-ctx.Done():
			f.Cancel()
			if f.core.RefreshWaiterPoller(f.waiter, nil) {
				_, err := f.finish()
				return err
			}
			return ctx.Err()
		}
	}
}

// RecvFuture is the per-call suspendable receive operation (RecvOp).
type RecvFuture[T any] struct {
	core       *Core[T]
	waiter     *park.Waiter[T]
	started    bool
	terminated bool
}

func newRecvFuture[T any](core *Core[T]) *RecvFuture[T] {
	return &RecvFuture[T]{core: core, waiter: park.NewWaiter[T](park.KindReceive)}
}

// IsTerminated reports whether this future has already produced its
// result.
func (f *RecvFuture[T]) IsTerminated() bool { return f.terminated }

// Poll advances the state machine once, matching SendFuture.Poll's
// contract. The returned value is valid only when ok is true. While
// the operation is pending (done is false) ok is false; once done is
// true, ok is false exactly when the channel is closed and empty.
func (f *RecvFuture[T]) Poll(p *park.Parker) (v T, ok bool, done bool) {
	if f.terminated {
		panic(`channel: poll called on a terminated receive future`)
	}
	if !f.started {
		f.started = true
		val, outcome := f.core.TryReceive()
		switch outcome {
		case RecvValue:
			f.terminated = true
			return val, true, true
		case RecvClosed:
			f.terminated = true
			return zeroOf[T](), false, true
		default: // RecvWouldBlock
			f.waiter.SetPoller(p)
			if f.core.RegisterRecvWaiter(f.waiter) {
				return f.finish()
			}
			return zeroOf[T](), false, false
		}
	}
	if f.core.RefreshWaiterPoller(f.waiter, p) {
		return f.finish()
	}
	return zeroOf[T](), false, false
}

func (f *RecvFuture[T]) finish() (T, bool, bool) {
	f.terminated = true
	payload := f.core.WaiterResult(f.waiter)
	v, ok := payload.Get()
	return v, ok, true
}

// Cancel is the receive-side twin of SendFuture.Cancel.
func (f *RecvFuture[T]) Cancel() {
	if f.terminated || !f.started {
		return
	}
	f.core.CancelRecvWaiter(f.waiter)
}

// Run drives the future to completion, suspending the calling
// goroutine until a value, end-of-stream, or ctx cancellation occurs.
func (f *RecvFuture[T]) Run(ctx context.Context) (T, bool, error) {
	for {
		p := park.NewParker()
		v, ok, done := f.Poll(p)
		if done {
			return v, ok, nil
		}
		select {
		case <-p.Done():
		case <-ctx.Done():
			f.Cancel()
			if f.core.RefreshWaiterPoller(f.waiter, nil) {
				v, ok, _ := f.finish()
				return v, ok, nil
			}
			return zeroOf[T](), false, ctx.Err()
		}
	}
}
