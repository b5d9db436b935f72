package hub

import (
	"context"
	"sync"
)

// DefaultSendBuffer is the per-user delivery capacity used when the
// configured value is missing or nonsensical.
const DefaultSendBuffer = 100

// Outbox is the bounded delivery handle for one connected user. The hub
// pushes encoded frames in; the connection's forwarding goroutine drains them
// out. Push never blocks: when the buffer is full the oldest frame is dropped
// so a stalled consumer can never stall a broadcast. Single consumer only.
type Outbox struct {
	mu      sync.Mutex
	buf     [][]byte
	size    int
	head    int
	count   int
	dropped uint64
	closed  bool

	ready chan struct{}
}

func newOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = DefaultSendBuffer
	}
	return &Outbox{
		buf:   make([][]byte, capacity),
		size:  capacity,
		ready: make(chan struct{}, 1),
	}
}

// Push queues a frame for delivery. It reports false once the outbox is
// closed; an overflowing push still succeeds by evicting the oldest frame.
func (o *Outbox) Push(frame []byte) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if o.count == o.size {
		o.buf[o.head] = nil
		o.head = (o.head + 1) % o.size
		o.count--
		o.dropped++
	}
	o.buf[(o.head+o.count)%o.size] = frame
	o.count++
	o.mu.Unlock()

	o.signal()
	return true
}

// Recv blocks until a frame is available, the context is done, or the outbox
// is closed and fully drained. lagged reports how many frames were evicted
// since the previous receive; the consumer is expected to keep going.
func (o *Outbox) Recv(ctx context.Context) (frame []byte, lagged uint64, ok bool) {
	for {
		o.mu.Lock()
		if o.count > 0 {
			frame = o.buf[o.head]
			o.buf[o.head] = nil
			o.head = (o.head + 1) % o.size
			o.count--
			lagged = o.dropped
			o.dropped = 0
			remaining := o.count
			o.mu.Unlock()

			if remaining > 0 {
				o.signal()
			}
			return frame, lagged, true
		}
		closed := o.closed
		o.mu.Unlock()

		if closed {
			return nil, 0, false
		}
		select {
		case <-o.ready:
		case <-ctx.Done():
			return nil, 0, false
		}
	}
}

// Close marks the outbox as finished. Idempotent. A blocked Recv wakes up and
// drains whatever is still buffered before reporting closure.
func (o *Outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.signal()
}

// Dropped reports frames evicted and not yet accounted for by Recv.
func (o *Outbox) Dropped() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

func (o *Outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}
