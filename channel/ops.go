package channel

import "context"

// Send enqueues v, suspending the caller until it is delivered,
// buffered, or the channel is closed. It returns *SendError[T] if the
// channel was already closed or closes while the send is suspended;
// ctx.Err() if ctx is done first (the attempt is cancelled and v is
// never delivered).
func (c *Core[T]) Send(ctx context.Context, v T) error {
	return newSendFuture(c, v).Run(ctx)
}

// Receive suspends the caller until a value is available or the
// channel is closed and drained. ok is false exactly when the channel
// is closed and empty (end-of-stream); err is non-nil only if ctx was
// done before a result was available.
func (c *Core[T]) Receive(ctx context.Context) (v T, ok bool, err error) {
	return newRecvFuture(c).Run(ctx)
}
