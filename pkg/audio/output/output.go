// ABOUTME: Audio output interface definition and backend selection
// ABOUTME: Common interface for playback sinks plus the fatal sink error type
package output

import (
	"fmt"

	"github.com/oggplay/oggplay/pkg/audio"
)

// Output represents an audio sink
type Output interface {
	// Open configures the device for a stream format
	Open(format audio.Format) error

	// Write submits samples, blocking while the device buffer is full.
	// The samples may be copied; the caller keeps ownership.
	Write(samples []int32) error

	// Playing reports whether submitted audio is still being played
	Playing() bool

	// Close releases output resources
	Close() error
}

// VolumeControl is implemented by sinks with software volume.
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	Volume() int
	Muted() bool
}

// SinkUnavailableError reports that a sink could not be acquired or used.
type SinkUnavailableError struct {
	Backend string
	Err     error
}

func (e *SinkUnavailableError) Error() string {
	return fmt.Sprintf("audio sink %s unavailable: %v", e.Backend, e.Err)
}

func (e *SinkUnavailableError) Unwrap() error {
	return e.Err
}

// Options configures New.
type Options struct {
	// Path is the destination for the wav backend.
	Path string
	// Volume is the initial volume (0-100); nil leaves the sink at 100.
	Volume *int
}

// Backends lists the names New accepts.
var Backends = []string{"oto", "malgo", "portaudio", "wav", "null"}

// New acquires a sink handle for the named backend.
func New(name string, opts Options) (Output, error) {
	var (
		out Output
		err error
	)
	switch name {
	case "oto", "":
		out = NewOto()
	case "malgo":
		out, err = NewMalgo()
	case "portaudio":
		out, err = NewPortAudio()
	case "wav":
		if opts.Path == "" {
			err = fmt.Errorf("no output path")
		} else {
			out = NewWAV(opts.Path)
		}
	case "null":
		out = NewNull()
	default:
		err = fmt.Errorf("unknown backend (known: %v)", Backends)
	}
	if err != nil {
		if _, ok := err.(*SinkUnavailableError); ok {
			return nil, err
		}
		return nil, &SinkUnavailableError{Backend: name, Err: err}
	}

	if vc, ok := out.(VolumeControl); ok && opts.Volume != nil {
		vc.SetVolume(*opts.Volume)
	}
	return out, nil
}
