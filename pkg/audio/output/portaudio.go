//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using the PortAudio blocking stream API
package output

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/oggplay/oggplay/pkg/audio"
)

// PortAudio output implementation
type PortAudio struct {
	volume

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	fill    int
	started bool
	closed  bool
}

// NewPortAudio initializes the PortAudio library
func NewPortAudio() (Output, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &SinkUnavailableError{Backend: "portaudio", Err: fmt.Errorf("failed to initialize portaudio: %w", err)}
	}
	return &PortAudio{volume: volume{level: 100}}, nil
}

// Open opens the default output stream with a 20ms buffer
func (p *PortAudio) Open(format audio.Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("output closed")
	}
	if p.stream != nil {
		return fmt.Errorf("output already open")
	}

	frames := format.SampleRate / 50
	p.buffer = make([]int16, frames*format.Channels)
	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), frames, &p.buffer)
	if err != nil {
		return &SinkUnavailableError{Backend: "portaudio", Err: fmt.Errorf("failed to open stream: %w", err)}
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return &SinkUnavailableError{Backend: "portaudio", Err: fmt.Errorf("failed to start stream: %w", err)}
	}
	p.stream = stream
	p.started = true
	return nil
}

// Write fills the stream buffer and writes it whenever it is full
func (p *PortAudio) Write(samples []int32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return fmt.Errorf("output not opened")
	}
	for _, s := range p.apply(samples) {
		p.buffer[p.fill] = audio.SampleToInt16(s)
		p.fill++
		if p.fill == len(p.buffer) {
			if err := p.stream.Write(); err != nil {
				return fmt.Errorf("portaudio write failed: %w", err)
			}
			p.fill = 0
		}
	}
	return nil
}

// Playing reports false: Write blocks until the stream accepts each
// buffer, and Close flushes the partial one before stopping the stream,
// which waits for queued audio to finish.
func (p *PortAudio) Playing() bool {
	return false
}

// flushPartial writes a partially filled buffer padded with silence.
func (p *PortAudio) flushPartial() error {
	if p.fill == 0 {
		return nil
	}
	for i := p.fill; i < len(p.buffer); i++ {
		p.buffer[i] = 0
	}
	p.fill = 0
	return p.stream.Write()
}

// Close flushes pending audio and releases the stream. PortAudio is
// terminated on every path.
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.stream != nil {
		if p.started {
			if err := p.flushPartial(); err != nil {
				errs = append(errs, fmt.Errorf("portaudio flush failed: %w", err))
			}
			if err := p.stream.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := p.stream.Close(); err != nil {
			errs = append(errs, err)
		}
		p.stream = nil
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
