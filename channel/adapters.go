package channel

import "context"

// Producer is satisfied by Sender[T], Core[T], Channel[T], and
// LocalChannel[T], letting callers accept a send-only view of any of
// them across an interface boundary.
type Producer[T any] interface {
	Send(ctx context.Context, v T) error
}

// Consumer is the receive-only counterpart of Producer.
type Consumer[T any] interface {
	Receive(ctx context.Context) (T, bool, error)
}

var (
	_ Producer[int] = (*Sender[int])(nil)
	_ Consumer[int] = (*Receiver[int])(nil)
	_ Producer[int] = (*Core[int])(nil)
	_ Consumer[int] = (*Core[int])(nil)
)
