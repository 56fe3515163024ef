package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestDroppingSharedChannelSendersClosesChannel(t *testing.T) {
	tx, rx := NewPair[int](2)
	tx2 := tx.Clone()

	require.NoError(t, tx.Send(context.Background(), 1))

	tx.Close()
	_, outcome := rx.TryReceive()
	assert.Equal(t, RecvValue, outcome)
	_, outcome = rx.TryReceive()
	assert.Equal(t, RecvWouldBlock, outcome) // still one Sender handle alive

	tx2.Close()
	_, ok, err := rx.Receive(context.Background())
	require.NoError(t, err)
	assert.False(t, ok) // last Sender gone: end-of-stream
}

func TestDroppingSharedChannelReceiversClosesChannel(t *testing.T) {
	tx, rx := NewPair[int](2)
	rx2 := rx.Clone()

	rx.Close()
	outcome, bounced := tx.TrySend(5)
	assert.Equal(t, SendBuffered, outcome) // still one Receiver handle alive
	assert.Zero(t, bounced)

	rx2.Close()
	err := tx.Send(context.Background(), 6)
	require.Error(t, err)
	var se *SendError[int]
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 6, se.Value)
}

func TestSharedChannelConcurrentProducersConsumers(t *testing.T) {
	const (
		producers = 4
		consumers = 4
		perSender = 200
	)
	tx, rx := NewPair[int](16)

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 0; i < perSender; i++ {
				if err := tx.Send(context.Background(), i); err != nil {
					return err
				}
			}
			return nil
		})
	}

	results := make(chan int, producers*perSender)
	var cg errgroup.Group
	for c := 0; c < consumers; c++ {
		cg.Go(func() error {
			for {
				v, ok, err := rx.Receive(context.Background())
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				results <- v
			}
		})
	}

	require.NoError(t, g.Wait())
	tx.Close()
	require.NoError(t, cg.Wait())
	close(results)

	count := 0
	for range results {
		count++
	}
	assert.Equal(t, producers*perSender, count)
}
