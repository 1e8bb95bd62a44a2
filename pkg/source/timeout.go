// ABOUTME: Read timeout wrapper for byte sources
// ABOUTME: A read that stalls past the deadline fails with a Timeout() error
package source

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TimeoutError reports a read that did not complete in time.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("read timeout: no data received for %v", e.After)
}

// Timeout marks the error as a timeout for callers that check net.Error
// style behaviour.
func (e *TimeoutError) Timeout() bool { return true }

type timeoutReader struct {
	rc      io.ReadCloser
	timeout time.Duration

	mu     sync.Mutex
	failed error
}

// WithTimeout wraps rc so each Read fails with *TimeoutError after d. Once a
// read has timed out the reader is abandoned and every later Read returns
// the same error.
func WithTimeout(rc io.ReadCloser, d time.Duration) io.ReadCloser {
	return &timeoutReader{rc: rc, timeout: d}
}

func (t *timeoutReader) Read(p []byte) (int, error) {
	t.mu.Lock()
	failed := t.failed
	t.mu.Unlock()
	if failed != nil {
		return 0, failed
	}

	type result struct {
		n   int
		err error
	}
	// Read into a private buffer so a read that completes after the
	// deadline cannot write into p.
	buf := make([]byte, len(p))
	done := make(chan result, 1)
	go func() {
		n, err := t.rc.Read(buf)
		done <- result{n, err}
	}()

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		copy(p, buf[:res.n])
		return res.n, res.err
	case <-timer.C:
		err := &TimeoutError{After: t.timeout}
		t.mu.Lock()
		t.failed = err
		t.mu.Unlock()
		return 0, err
	}
}

func (t *timeoutReader) Close() error {
	return t.rc.Close()
}
