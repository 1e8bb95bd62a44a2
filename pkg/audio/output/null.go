// ABOUTME: Null sink that discards audio
// ABOUTME: Used for headless runs and decode benchmarking
package output

import (
	"sync/atomic"

	"github.com/oggplay/oggplay/pkg/audio"
)

// Null discards samples, counting them
type Null struct {
	volume
	samples atomic.Int64
}

// NewNull creates a sink that discards everything written to it
func NewNull() Output {
	return &Null{volume: volume{level: 100}}
}

// Open accepts any format
func (n *Null) Open(format audio.Format) error {
	return format.Validate()
}

// Write counts and drops samples
func (n *Null) Write(samples []int32) error {
	n.samples.Add(int64(len(samples)))
	return nil
}

// Playing is always false
func (n *Null) Playing() bool { return false }

// Close does nothing
func (n *Null) Close() error { return nil }

// Samples returns the number of samples written
func (n *Null) Samples() int64 { return n.samples.Load() }
