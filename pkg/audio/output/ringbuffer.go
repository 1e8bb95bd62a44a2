// ABOUTME: Bounded sample ring buffer between a writer and a device callback
// ABOUTME: Writers block while full; the callback never blocks and zero-fills underruns
package output

import (
	"errors"
	"sync"
)

// ErrRingClosed is returned by WriteAll after Close.
var ErrRingClosed = errors.New("ring buffer closed")

// RingBuffer provides thread-safe circular buffer for audio samples
type RingBuffer struct {
	buffer    []int32
	readPos   int
	writePos  int
	size      int
	count     int
	closed    bool
	underruns int64
	mu        sync.Mutex
	space     *sync.Cond
}

// NewRingBuffer creates a ring buffer with given capacity (in samples)
func NewRingBuffer(capacity int) *RingBuffer {
	rb := &RingBuffer{
		buffer: make([]int32, capacity),
		size:   capacity,
	}
	rb.space = sync.NewCond(&rb.mu)
	return rb
}

// Write adds as many samples as fit and returns how many were taken
func (rb *RingBuffer) Write(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.writeLocked(samples)
}

// WriteAll adds every sample, waiting for the reader to free space.
func (rb *RingBuffer) WriteAll(samples []int32) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for len(samples) > 0 {
		if rb.closed {
			return ErrRingClosed
		}
		n := rb.writeLocked(samples)
		samples = samples[n:]
		if n == 0 {
			rb.space.Wait()
		}
	}
	return nil
}

func (rb *RingBuffer) writeLocked(samples []int32) int {
	written := 0
	for written < len(samples) && rb.count < rb.size {
		rb.buffer[rb.writePos] = samples[written]
		rb.writePos = (rb.writePos + 1) % rb.size
		rb.count++
		written++
	}
	return written
}

// Read retrieves samples from the ring buffer, zero-filling on underrun
func (rb *RingBuffer) Read(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for read < len(samples) && rb.count > 0 {
		samples[read] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
		rb.count--
		read++
	}
	for i := read; i < len(samples); i++ {
		samples[i] = 0
	}
	if read < len(samples) && read > 0 {
		rb.underruns++
	}
	if read > 0 {
		rb.space.Broadcast()
	}
	return read
}

// Available returns the number of samples available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of free slots in the buffer
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Underruns returns how many reads ran dry part-way through.
func (rb *RingBuffer) Underruns() int64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.underruns
}

// Close wakes blocked writers; later writes fail.
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.mu.Unlock()
	rb.space.Broadcast()
}
