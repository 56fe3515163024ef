package channel

import (
	"sync/atomic"

	"github.com/ccnlui/asyncchan/internal/park"
)

// countWaker counts how many times any Parker it mints has fired: one
// counter shared across many distinct wake registrations over the
// life of a test.
type countWaker struct {
	count int64
}

func (w *countWaker) parker() *park.Parker {
	return park.NewParkerWithCallback(func() { atomic.AddInt64(&w.count, 1) })
}

func (w *countWaker) Count() int64 {
	return atomic.LoadInt64(&w.count)
}
