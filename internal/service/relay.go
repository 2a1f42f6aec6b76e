package service

import (
	"context"
	"sync"

	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

// relay forwards stream frames to a caller without ever blocking the producer.
// Frames queue up while the caller is slow; once the caller's context is done
// the queue is discarded and later frames are dropped. out is closed by close.
type relay struct {
	ctx context.Context
	out chan<- model.StreamResponse

	mu     sync.Mutex
	queue  []model.StreamResponse
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newRelay(ctx context.Context, out chan<- model.StreamResponse) *relay {
	r := &relay{
		ctx:  ctx,
		out:  out,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go r.forward()
	return r
}

func (r *relay) push(frame model.StreamResponse) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, frame)
	r.mu.Unlock()
	r.signal()
}

// close flushes what is queued (unless the caller is gone), closes out and
// waits for the forwarder to exit.
func (r *relay) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.signal()
	<-r.done
}

func (r *relay) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *relay) forward() {
	defer close(r.done)
	defer close(r.out)

	gone := false
	for {
		r.mu.Lock()
		if gone {
			r.queue = nil
		}
		if len(r.queue) == 0 {
			closed := r.closed
			r.mu.Unlock()
			if closed {
				return
			}
			if gone {
				<-r.wake
				continue
			}
			select {
			case <-r.wake:
			case <-r.ctx.Done():
				gone = true
			}
			continue
		}
		frame := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		if gone {
			continue
		}
		select {
		case r.out <- frame:
		case <-r.ctx.Done():
			gone = true
		}
	}
}
