// ABOUTME: Malgo-based audio output implementation with 24-bit support
// ABOUTME: Uses miniaudio via malgo, fed from a blocking ring buffer
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/oggplay/oggplay/pkg/audio"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	volume

	mu         sync.Mutex
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	ringBuffer *RingBuffer
	format     audio.Format
	scratch    []int32
}

// NewMalgo acquires a miniaudio context. The device itself is opened once
// the stream format is known.
func NewMalgo() (Output, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, &SinkUnavailableError{Backend: "malgo", Err: fmt.Errorf("failed to initialize malgo context: %w", err)}
	}
	return &Malgo{volume: volume{level: 100}, malgoCtx: ctx}, nil
}

// Open initializes the output device with specified format
func (m *Malgo) Open(format audio.Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx == nil {
		return fmt.Errorf("output closed")
	}
	if m.device != nil {
		return fmt.Errorf("output already open at %s", m.format)
	}

	bitDepth := format.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	var sampleFormat malgo.FormatType
	switch bitDepth {
	case 16:
		sampleFormat = malgo.FormatS16
	case 24:
		sampleFormat = malgo.FormatS24
	case 32:
		sampleFormat = malgo.FormatS32
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", bitDepth)
	}
	format.BitDepth = bitDepth

	// 500ms of audio
	m.ringBuffer = NewRingBuffer((format.SampleRate * format.Channels * 500) / 1000)
	m.format = format

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = sampleFormat
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			m.dataCallback(pOutput, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return &SinkUnavailableError{Backend: "malgo", Err: fmt.Errorf("failed to initialize playback device: %w", err)}
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return &SinkUnavailableError{Backend: "malgo", Err: fmt.Errorf("failed to start device: %w", err)}
	}
	m.device = device

	log.Printf("Audio output initialized: %dHz, %d channels, %d-bit (malgo/%s)",
		format.SampleRate, format.Channels, bitDepth, formatName(sampleFormat))
	return nil
}

// Write queues audio samples, blocking while the ring buffer is full
func (m *Malgo) Write(samples []int32) error {
	m.mu.Lock()
	rb := m.ringBuffer
	m.mu.Unlock()
	if rb == nil {
		return fmt.Errorf("output not initialized")
	}
	if err := rb.WriteAll(m.apply(samples)); err != nil {
		return fmt.Errorf("malgo write failed: %w", err)
	}
	return nil
}

// Playing reports whether queued samples remain
func (m *Malgo) Playing() bool {
	m.mu.Lock()
	rb := m.ringBuffer
	m.mu.Unlock()
	return rb != nil && rb.Available() > 0
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	total := int(frameCount) * m.format.Channels
	if cap(m.scratch) < total {
		m.scratch = make([]int32, total)
	}
	samples := m.scratch[:total]
	m.ringBuffer.Read(samples)

	switch m.format.BitDepth {
	case 16:
		for i, s := range samples {
			v := audio.SampleToInt16(s)
			pOutput[i*2] = byte(v)
			pOutput[i*2+1] = byte(v >> 8)
		}
	case 24:
		for i, s := range samples {
			b := audio.SampleTo24Bit(s)
			copy(pOutput[i*3:], b[:])
		}
	case 32:
		for i, s := range samples {
			// Shift 24-bit value to upper bits of 32-bit container
			v := s << 8
			pOutput[i*4] = byte(v)
			pOutput[i*4+1] = byte(v >> 8)
			pOutput[i*4+2] = byte(v >> 16)
			pOutput[i*4+3] = byte(v >> 24)
		}
	}
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ringBuffer != nil {
		m.ringBuffer.Close()
	}
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
