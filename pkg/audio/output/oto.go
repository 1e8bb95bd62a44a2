// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams 16-bit PCM into one persistent oto player through a pipe
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/oggplay/oggplay/pkg/audio"
)

// oto allows a single context per process, so it is shared by every Oto
// sink and kept for the life of the process.
var (
	otoMu         sync.Mutex
	otoCtx        *oto.Context
	otoSampleRate int
	otoChannels   int
)

func otoContext(sampleRate, channels int) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoSampleRate != sampleRate || otoChannels != channels {
			return nil, fmt.Errorf("oto context already running at %dHz/%dch, cannot switch to %dHz/%dch",
				otoSampleRate, otoChannels, sampleRate, channels)
		}
		if err := otoCtx.Resume(); err != nil {
			return nil, fmt.Errorf("failed to resume oto context: %w", err)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoSampleRate = sampleRate
	otoChannels = channels
	return ctx, nil
}

// Oto output implementation using oto library
type Oto struct {
	volume

	mu         sync.Mutex
	ctx        *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	format     audio.Format
	closed     bool
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{volume: volume{level: 100}}
}

// Open initializes the output device
func (o *Oto) Open(format audio.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("output closed")
	}
	if o.player != nil {
		return fmt.Errorf("output already open at %s", o.format)
	}
	// oto only supports 16-bit output
	if format.BitDepth != 16 {
		log.Printf("Warning: oto only supports 16-bit output, ignoring requested bitDepth=%d", format.BitDepth)
	}

	ctx, err := otoContext(format.SampleRate, format.Channels)
	if err != nil {
		return &SinkUnavailableError{Backend: "oto", Err: err}
	}

	o.ctx = ctx
	o.format = format
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = ctx.NewPlayer(o.pipeReader)
	o.player.Play()

	log.Printf("Audio output initialized: %dHz, %d channels (oto)", format.SampleRate, format.Channels)
	return nil
}

// Write outputs audio samples, blocking until the player has taken them
func (o *Oto) Write(samples []int32) error {
	o.mu.Lock()
	w := o.pipeWriter
	o.mu.Unlock()
	if w == nil {
		return fmt.Errorf("output not initialized")
	}

	scaled := o.apply(samples)
	buf := make([]byte, len(scaled)*2)
	for i, s := range scaled {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(audio.SampleToInt16(s)))
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Playing reports whether the player still holds unplayed audio
func (o *Oto) Playing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.player != nil && o.player.BufferedSize() > 0
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	var err error
	if o.player != nil {
		err = o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.ctx != nil {
		if serr := o.ctx.Suspend(); serr != nil && err == nil {
			err = serr
		}
		o.ctx = nil
	}
	return err
}
