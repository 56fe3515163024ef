// Package park implements the intrusive wait-queues that back a
// channel's suspended senders and receivers.
//
// A Waiter lives inside the operation future that owns it, not in a
// node the queue allocates — cancelling a suspended operation is an
// O(1) pointer-unlink with no allocator involved, the same property
// the sibling lock-free queues in this family get from storing values
// directly in a preallocated slot array instead of a linked node.
package park

// Kind distinguishes a send waiter from a receive waiter.
type Kind int

const (
	// KindSend marks a Waiter suspended inside a send operation.
	KindSend Kind = iota
	// KindReceive marks a Waiter suspended inside a receive operation.
	KindReceive
)

// State is the lifecycle of one suspended operation.
type State int32

const (
	// StateUnregistered: the Waiter is not linked into any queue.
	StateUnregistered State = iota
	// StateWaiting: the Waiter is linked into exactly one WaitQueue.
	StateWaiting
	// StateCompleted: the operation has a final result and the Waiter
	// is unlinked. When another operation completed it (via Complete),
	// its Poller is signaled once; when a register call completed it
	// synchronously, no Poller is signaled.
	StateCompleted
)

// Waiter is the intrusive record for one suspended send or receive.
// It is always embedded in, or owned exclusively by, the future that
// created it; the queue that links it never allocates on its behalf.
type Waiter[T any] struct {
	Kind Kind

	// Payload holds the pending value. For a send waiter it starts
	// as Some(v) and is taken by whichever code completes the
	// rendezvous or buffers the value; a send failed by close keeps
	// it, so the future can hand the value back to its caller. For
	// a receive waiter it starts empty and is filled by whoever
	// delivers a value.
	Payload Option[T]

	State State

	// poller is signaled at most once, the first time this waiter
	// transitions to StateCompleted. It is the Go analogue of the
	// "most recently registered waker": ChannelCore never calls it
	// directly — it is fired exactly once via Waiter.Complete, and a
	// future re-registers a fresh one on every poll exactly as the
	// spec's waker is overwritten on every poll.
	poller *Parker

	prev, next *Waiter[T]
	queue      *WaitQueue[T] // non-nil while State == StateWaiting
}

// NewWaiter returns a fresh, unregistered waiter of the given kind.
func NewWaiter[T any](kind Kind) *Waiter[T] {
	return &Waiter[T]{Kind: kind, State: StateUnregistered}
}

// SetPoller installs the Parker to signal when this waiter completes.
// Called on every poll, so that a waiter's most recent poller always
// gets the wakeup even if the operation moves between executors.
func (w *Waiter[T]) SetPoller(p *Parker) {
	w.poller = p
}

// Complete marks the waiter Completed, stores payload, and returns the
// Parker that must be woken once the owning ChannelCore's lock is
// released (nil if no poller was registered). Must be called with
// that lock held; the caller must not invoke the returned Parker
// until after releasing it, so no waker runs reentrantly into the
// core.
func (w *Waiter[T]) Complete(payload Option[T]) *Parker {
	w.State = StateCompleted
	w.Payload = payload
	w.queue = nil
	p := w.poller
	w.poller = nil
	return p
}

// WaitQueue is a FIFO intrusive doubly-linked list of Waiters. All
// queued waiters are always in StateWaiting.
type WaitQueue[T any] struct {
	head, tail *Waiter[T]
	len        int
}

// Len returns the number of waiters currently queued.
func (q *WaitQueue[T]) Len() int { return q.len }

// Enqueue appends w to the tail of the queue and marks it Waiting.
func (q *WaitQueue[T]) Enqueue(w *Waiter[T]) {
	w.State = StateWaiting
	w.queue = q
	w.prev = q.tail
	w.next = nil
	if q.tail != nil {
		q.tail.next = w
	} else {
		q.head = w
	}
	q.tail = w
	q.len++
}

// Remove unlinks w using its own pointers: O(1), no search. Safe to
// call only while w.State == StateWaiting and w is linked into q.
func (q *WaitQueue[T]) Remove(w *Waiter[T]) {
	if w.prev != nil {
		w.prev.next = w.next
	} else {
		q.head = w.next
	}
	if w.next != nil {
		w.next.prev = w.prev
	} else {
		q.tail = w.prev
	}
	w.prev, w.next, w.queue = nil, nil, nil
	q.len--
}

// PopHead unlinks and returns the oldest waiter, or nil if empty.
func (q *WaitQueue[T]) PopHead() *Waiter[T] {
	w := q.head
	if w == nil {
		return nil
	}
	q.Remove(w)
	return w
}

// DrainInto completes every queued waiter with payload produced by
// make, appending the Parkers that must be woken once the lock is
// released. The queue is left empty.
func (q *WaitQueue[T]) DrainInto(wake []*Parker, make func(w *Waiter[T]) Option[T]) []*Parker {
	for {
		w := q.PopHead()
		if w == nil {
			return wake
		}
		if p := w.Complete(make(w)); p != nil {
			wake = append(wake, p)
		}
	}
}
