package channel

import "go.uber.org/zap"

// LocalChannel is the single-goroutine variant: its Core is guarded
// by a no-op lock, since a channel never shared across goroutines
// needs no real mutual exclusion at all -- LocalChannel and Channel
// differ only in which lock type their shared Core is constructed with.
//
// Using a LocalChannel from more than one goroutine is a misuse of
// the type, exactly as using any other non-thread-safe collection from
// more than one goroutine would be; it is not detected at runtime.
type LocalChannel[T any] struct {
	*Core[T]
}

// LocalOption configures a LocalChannel at construction.
type LocalOption func(*localConfig)

type localConfig struct {
	logger *zap.Logger
}

// WithLocalLogger installs a *zap.Logger for lifecycle diagnostics.
func WithLocalLogger(l *zap.Logger) LocalOption {
	return func(c *localConfig) { c.logger = l }
}

// NewLocal allocates a LocalChannel with the given capacity (0 for
// unbuffered).
func NewLocal[T any](capacity int, opts ...LocalOption) *LocalChannel[T] {
	cfg := localConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	return &LocalChannel[T]{Core: NewCore[T](capacity, noopLocker{}, cfg.logger)}
}
