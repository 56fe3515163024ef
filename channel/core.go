// Package channel implements an asynchronous multi-producer /
// multi-consumer channel: a fixed-capacity value queue plus two
// intrusive wait-queues for suspended senders and receivers, guarded
// by a lock whose concrete type is the only difference between the
// single-goroutine (LocalChannel) and thread-safe (Channel) variants.
//
// State transitions mutate the queue, the two wait-queues, and the
// closed flag only while the lock is held; every waker obtained while
// completing a waiter is invoked only after the lock is released, so
// a waker can never reenter the core that woke it.
package channel

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ccnlui/asyncchan/internal/park"
	"github.com/ccnlui/asyncchan/internal/ringbuf"
)

// SendOutcome is the result of a non-blocking send attempt.
type SendOutcome int

const (
	// SendDelivered means the value was handed directly to an
	// already-waiting receiver.
	SendDelivered SendOutcome = iota
	// SendBuffered means the value was placed in the ring buffer.
	SendBuffered
	// SendWouldBlock means neither a receiver nor free buffer space
	// was available; the caller must suspend.
	SendWouldBlock
	// SendClosed means the channel is closed; the value is handed
	// back to the caller untouched.
	SendClosed
)

// RecvOutcome is the result of a non-blocking receive attempt.
type RecvOutcome int

const (
	// RecvValue means a value was produced, either from the buffer
	// or directly from a waiting sender.
	RecvValue RecvOutcome = iota
	// RecvWouldBlock means no value is available yet and the
	// channel is not closed; the caller must suspend.
	RecvWouldBlock
	// RecvClosed means the channel is closed and the buffer is
	// exhausted: end-of-stream.
	RecvClosed
)

// noopLocker is a zero-cost sync.Locker for the single-goroutine
// variant, where no other goroutine can ever contend for the core.
type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Core composes the ring buffer, the two wait-queues, and the closed
// flag behind a lock. Both LocalChannel and Channel are thin wrappers
// around a *Core[T] that differ only in which sync.Locker they pass in.
type Core[T any] struct {
	id     uuid.UUID
	log    *zap.Logger
	lock   sync.Locker
	buf    *ringbuf.RingBuffer[T]
	sendQ  park.WaitQueue[T]
	recvQ  park.WaitQueue[T]
	closed bool
}

// NewCore allocates a Core with the given capacity (0 = unbuffered)
// guarded by lock. A nil logger disables diagnostic logging.
func NewCore[T any](capacity int, lock sync.Locker, log *zap.Logger) *Core[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Core[T]{
		id:   uuid.New(),
		log:  log,
		lock: lock,
		buf:  ringbuf.New[T](capacity),
	}
}

// ID returns this core's identity, for log correlation when many
// channels exist in one process.
func (c *Core[T]) ID() uuid.UUID { return c.id }

// Cap returns the fixed buffer capacity (0 for an unbuffered channel).
func (c *Core[T]) Cap() int { return c.buf.Cap() }

// TrySend attempts a non-blocking send. On SendWouldBlock or
// SendClosed the value is returned unchanged so the caller can retry
// or report it as an error.
func (c *Core[T]) TrySend(v T) (SendOutcome, T) {
	c.lock.Lock()
	outcome, bounced, wake := c.trySendLocked(v)
	c.lock.Unlock()
	wake.fire()
	return outcome, bounced
}

// trySendLocked implements try_send. Must run with the lock held; the
// caller is responsible for firing the returned wakeups after
// unlocking.
func (c *Core[T]) trySendLocked(v T) (SendOutcome, T, wakeups) {
	var w wakeups
	if c.closed {
		return SendClosed, v, w
	}
	if waiter := c.recvQ.PopHead(); waiter != nil {
		w = w.add(waiter.Complete(park.Some(v)))
		return SendDelivered, zeroOf[T](), w
	}
	if !c.buf.IsFull() {
		c.buf.Push(v)
		return SendBuffered, zeroOf[T](), w
	}
	return SendWouldBlock, v, w
}

// TryReceive attempts a non-blocking receive.
func (c *Core[T]) TryReceive() (T, RecvOutcome) {
	c.lock.Lock()
	v, outcome, wake := c.tryReceiveLocked()
	c.lock.Unlock()
	wake.fire()
	return v, outcome
}

// tryReceiveLocked implements try_receive. Must run with the lock held.
func (c *Core[T]) tryReceiveLocked() (T, RecvOutcome, wakeups) {
	var w wakeups
	if !c.buf.IsEmpty() {
		v := c.buf.Pop()
		if waiter := c.sendQ.PopHead(); waiter != nil {
			sv, _ := waiter.Payload.Take()
			c.buf.Push(sv)
			w = w.add(waiter.Complete(park.None[T]()))
		}
		return v, RecvValue, w
	}
	if waiter := c.sendQ.PopHead(); waiter != nil {
		sv, _ := waiter.Payload.Take()
		w = w.add(waiter.Complete(park.None[T]()))
		return sv, RecvValue, w
	}
	if c.closed {
		return zeroOf[T](), RecvClosed, w
	}
	return zeroOf[T](), RecvWouldBlock, w
}

// RegisterSendWaiter registers w (which must be Unregistered with
// Payload = Some(v)) as a suspended send. It re-checks preconditions
// under the lock so that any progress between the caller's try_send
// and this call is caught here instead of being lost: w may come back
// already Completed.
// The returned bool reports whether the register call resolved the
// operation synchronously (true) or left it Waiting (false), decided
// entirely under the lock so the caller never has to read w.State
// without holding it -- once a waiter is enqueued it is visible to
// any other goroutine that later locks this core.
func (c *Core[T]) RegisterSendWaiter(w *park.Waiter[T]) (completed bool) {
	c.lock.Lock()
	completed, wake := c.registerSendWaiterLocked(w)
	c.lock.Unlock()
	wake.fire()
	return completed
}

func (c *Core[T]) registerSendWaiterLocked(w *park.Waiter[T]) (bool, wakeups) {
	var wk wakeups
	if c.closed {
		// Leave payload as Some(v): the future reads this as
		// SendOnClosed and returns the value to its caller.
		w.State = park.StateCompleted
		return true, wk
	}
	if waiter := c.recvQ.PopHead(); waiter != nil {
		v, _ := w.Payload.Take()
		wk = wk.add(waiter.Complete(park.Some(v)))
		w.State = park.StateCompleted
		return true, wk
	}
	if !c.buf.IsFull() {
		v, _ := w.Payload.Take()
		c.buf.Push(v)
		w.State = park.StateCompleted
		return true, wk
	}
	c.sendQ.Enqueue(w)
	return false, wk
}

// RegisterRecvWaiter registers w (which must be Unregistered with an
// empty Payload) as a suspended receive, re-checking preconditions
// under the lock exactly as RegisterSendWaiter does.
func (c *Core[T]) RegisterRecvWaiter(w *park.Waiter[T]) (completed bool) {
	c.lock.Lock()
	completed, wake := c.registerRecvWaiterLocked(w)
	c.lock.Unlock()
	wake.fire()
	return completed
}

func (c *Core[T]) registerRecvWaiterLocked(w *park.Waiter[T]) (bool, wakeups) {
	var wk wakeups
	if !c.buf.IsEmpty() {
		v := c.buf.Pop()
		if sender := c.sendQ.PopHead(); sender != nil {
			sv, _ := sender.Payload.Take()
			c.buf.Push(sv)
			wk = wk.add(sender.Complete(park.None[T]()))
		}
		w.State = park.StateCompleted
		w.Payload = park.Some(v)
		return true, wk
	}
	if sender := c.sendQ.PopHead(); sender != nil {
		sv, _ := sender.Payload.Take()
		wk = wk.add(sender.Complete(park.None[T]()))
		w.State = park.StateCompleted
		w.Payload = park.Some(sv)
		return true, wk
	}
	if c.closed {
		w.State = park.StateCompleted
		return true, wk
	}
	c.recvQ.Enqueue(w)
	return false, wk
}

// RefreshWaiterPoller updates the poller a still-waiting waiter will
// signal and reports whether it has meanwhile completed -- run under
// the lock so a future never reads w.State or w.Payload without
// synchronizing with whoever might be completing it concurrently.
func (c *Core[T]) RefreshWaiterPoller(w *park.Waiter[T], p *park.Parker) (completed bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if w.State == park.StateCompleted {
		return true
	}
	w.SetPoller(p)
	return false
}

// WaiterResult reads back the outcome of a waiter that RegisterSendWaiter
// or RegisterRecvWaiter (or a subsequent RefreshWaiterPoller) has
// reported as completed. Also taken under the lock for the same
// synchronization reason.
func (c *Core[T]) WaiterResult(w *park.Waiter[T]) park.Option[T] {
	c.lock.Lock()
	defer c.lock.Unlock()
	return w.Payload
}

// CancelSendWaiter unlinks w from the send wait-queue if it is still
// Waiting. A no-op if w has already Completed: the operation has
// already taken effect and cannot be undone.
func (c *Core[T]) CancelSendWaiter(w *park.Waiter[T]) {
	c.lock.Lock()
	if w.State == park.StateWaiting {
		c.sendQ.Remove(w)
		w.State = park.StateUnregistered
	}
	c.lock.Unlock()
}

// CancelRecvWaiter is the receive-side twin of CancelSendWaiter.
func (c *Core[T]) CancelRecvWaiter(w *park.Waiter[T]) {
	c.lock.Lock()
	if w.State == park.StateWaiting {
		c.recvQ.Remove(w)
		w.State = park.StateUnregistered
	}
	c.lock.Unlock()
}

// Close is idempotent: draining the wait-queues and marking the
// channel closed happens only on the transition from open to closed.
// Suspended sends complete with their value still in Payload (read by
// the future as SendOnClosed); suspended receives complete with an
// empty Payload (end-of-stream). Buffered values are preserved for
// future receives.
func (c *Core[T]) Close() {
	c.lock.Lock()
	wake := c.closeLocked()
	c.lock.Unlock()
	wake.fire()
}

func (c *Core[T]) closeLocked() wakeups {
	var wk wakeups
	if c.closed {
		return wk
	}
	c.closed = true
	wk = wakeups(c.sendQ.DrainInto([]*park.Parker(wk), func(w *park.Waiter[T]) park.Option[T] {
		return w.Payload // retained: future reports SendOnClosed(value)
	}))
	wk = wakeups(c.recvQ.DrainInto([]*park.Parker(wk), func(w *park.Waiter[T]) park.Option[T] {
		return park.None[T]() // end-of-stream, no value
	}))
	c.log.Debug("channel closed",
		zap.String("channel", c.id.String()),
		zap.Int("buffered", c.buf.Len()))
	return wk
}

// IsClosed reports whether Close has been called (explicitly, or via
// the shared-handle last-drop protocol).
func (c *Core[T]) IsClosed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}

// Discard closes the channel if it is not already closed, unblocking
// every suspended send and receive, and returns whatever values were
// still sitting in the buffer rather than leaving them for a future
// Receive. Callers that are done with a channel and have no intention
// of draining it by hand -- shutting down a worker pool early, say --
// call Discard instead of looping on Receive until it reports
// end-of-stream, so the leftover values are accounted for explicitly
// instead of only becoming reachable for the garbage collector.
func (c *Core[T]) Discard() []T {
	c.lock.Lock()
	wake := c.closeLocked()
	leftover := c.buf.Drain()
	c.lock.Unlock()
	wake.fire()
	return leftover
}

// wakeups accumulates Parkers to fire after a lock is released, so
// that a waker is never invoked while the core's lock is held.
type wakeups []*park.Parker

func (w wakeups) add(p *park.Parker) wakeups {
	if p == nil {
		return w
	}
	return append(w, p)
}

func (w wakeups) fire() {
	for _, p := range w {
		p.Wake()
	}
}

func zeroOf[T any]() T {
	var zero T
	return zero
}
