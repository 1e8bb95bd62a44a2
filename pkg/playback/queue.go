// ABOUTME: Bounded FIFO of decoded PCM blocks between the decode and sink loops
// ABOUTME: Push blocks while full; Pop returns an end marker once finished and drained
package playback

import (
	"context"
	"errors"
	"sync"

	"github.com/oggplay/oggplay/pkg/audio"
)

var (
	// ErrQueueFull is returned by TryPush when the queue is at capacity.
	ErrQueueFull = errors.New("playback: queue full")
	// ErrQueueClosed is returned when pushing after MarkFinished.
	ErrQueueClosed = errors.New("playback: queue finished")
)

// MaxQueueBlocks is the largest capacity the driver will configure.
const MaxQueueBlocks = 64

// Queue is a single-producer, single-consumer queue of PCM blocks.
type Queue struct {
	blocks chan audio.Block
	done   chan struct{}
	once   sync.Once

	mu        sync.Mutex
	finished  bool
	highWater int
}

// NewQueue returns a queue holding at most n blocks. n below 1 is raised
// to 1.
func NewQueue(n int) *Queue {
	if n < 1 {
		n = 1
	}
	return &Queue{
		blocks: make(chan audio.Block, n),
		done:   make(chan struct{}),
	}
}

// Push appends b, blocking while the queue is full.
func (q *Queue) Push(ctx context.Context, b audio.Block) error {
	if q.isFinished() {
		return ErrQueueClosed
	}
	select {
	case q.blocks <- b:
		q.noteDepth()
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPush appends b or returns ErrQueueFull without blocking.
func (q *Queue) TryPush(b audio.Block) error {
	if q.isFinished() {
		return ErrQueueClosed
	}
	select {
	case q.blocks <- b:
		q.noteDepth()
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop removes the oldest block, blocking while the queue is empty. ok is
// false with a nil error once the queue is finished and drained.
func (q *Queue) Pop(ctx context.Context) (b audio.Block, ok bool, err error) {
	select {
	case b = <-q.blocks:
		return b, true, nil
	default:
	}

	select {
	case b = <-q.blocks:
		return b, true, nil
	case <-q.done:
		// A finished queue still hands out what it holds.
		select {
		case b = <-q.blocks:
			return b, true, nil
		default:
			return audio.Block{}, false, nil
		}
	case <-ctx.Done():
		return audio.Block{}, false, ctx.Err()
	}
}

// MarkFinished signals that no more blocks will be pushed. Calling it again
// has no further effect.
func (q *Queue) MarkFinished() {
	q.once.Do(func() {
		q.mu.Lock()
		q.finished = true
		q.mu.Unlock()
		close(q.done)
	})
}

// Len returns the number of queued blocks.
func (q *Queue) Len() int {
	return len(q.blocks)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.blocks)
}

// HighWater returns the deepest the queue has been.
func (q *Queue) HighWater() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.highWater
}

func (q *Queue) isFinished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished
}

func (q *Queue) noteDepth() {
	n := len(q.blocks)
	q.mu.Lock()
	if n > q.highWater {
		q.highWater = n
	}
	q.mu.Unlock()
}
