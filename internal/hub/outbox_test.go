package hub

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recvWithTimeout(t *testing.T, o *Outbox) ([]byte, uint64, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return o.Recv(ctx)
}

func TestOutboxPreservesPushOrder(t *testing.T) {
	o := newOutbox(10)

	for i := 0; i < 5; i++ {
		require.True(t, o.Push([]byte(fmt.Sprintf("frame-%d", i))))
	}

	for i := 0; i < 5; i++ {
		frame, lagged, ok := recvWithTimeout(t, o)
		require.True(t, ok)
		require.Zero(t, lagged)
		require.Equal(t, fmt.Sprintf("frame-%d", i), string(frame))
	}
}

func TestOutboxOverflowDropsOldest(t *testing.T) {
	o := newOutbox(3)

	for i := 0; i < 5; i++ {
		require.True(t, o.Push([]byte(fmt.Sprintf("frame-%d", i))))
	}

	// frames 0 and 1 were evicted; the consumer learns about the gap once.
	frame, lagged, ok := recvWithTimeout(t, o)
	require.True(t, ok)
	require.Equal(t, uint64(2), lagged)
	require.Equal(t, "frame-2", string(frame))

	frame, lagged, ok = recvWithTimeout(t, o)
	require.True(t, ok)
	require.Zero(t, lagged)
	require.Equal(t, "frame-3", string(frame))

	frame, lagged, ok = recvWithTimeout(t, o)
	require.True(t, ok)
	require.Zero(t, lagged)
	require.Equal(t, "frame-4", string(frame))
}

func TestOutboxCloseDrainsBeforeReportingClosure(t *testing.T) {
	o := newOutbox(10)
	require.True(t, o.Push([]byte("last")))
	o.Close()
	o.Close() // idempotent

	frame, _, ok := recvWithTimeout(t, o)
	require.True(t, ok)
	require.Equal(t, "last", string(frame))

	_, _, ok = recvWithTimeout(t, o)
	require.False(t, ok)

	require.False(t, o.Push([]byte("late")), "push after close must fail")
}

func TestOutboxRecvWakesOnClose(t *testing.T) {
	o := newOutbox(10)

	done := make(chan bool, 1)
	go func() {
		_, _, ok := o.Recv(context.Background())
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	o.Close()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Recv did not wake up after Close")
	}
}

func TestOutboxRecvRespectsContext(t *testing.T) {
	o := newOutbox(10)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, ok := o.Recv(ctx)
	require.False(t, ok)
}

func TestOutboxConcurrentPushers(t *testing.T) {
	o := newOutbox(8)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o.Push([]byte(fmt.Sprintf("frame-%d", i)))
		}(i)
	}

	received := 0
	var lagged uint64
	doneDraining := make(chan struct{})
	go func() {
		defer close(doneDraining)
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			_, n, ok := o.Recv(ctx)
			cancel()
			if !ok {
				return
			}
			received++
			lagged += n
		}
	}()

	wg.Wait()
	<-doneDraining

	// Every push is either delivered or accounted for as a drop.
	require.Equal(t, uint64(50), uint64(received)+lagged)
}
