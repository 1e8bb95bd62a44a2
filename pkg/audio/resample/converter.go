// ABOUTME: Rate converter selection between the linear and windowed-sinc resamplers
// ABOUTME: Both convert interleaved 24-bit samples block by block
package resample

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/oggplay/oggplay/pkg/audio"
)

// Quality names accepted by NewConverter.
const (
	QualityLinear = "linear"
	QualityHigh   = "high"
)

// Converter converts a stream of interleaved samples between rates.
type Converter interface {
	Convert(input []int32) ([]int32, error)
	// Flush returns output still held back once the input has ended.
	Flush() ([]int32, error)
	InputRate() int
	OutputRate() int
}

// NewConverter returns a converter of the named quality. An empty name
// selects the linear resampler.
func NewConverter(quality string, inputRate, outputRate, channels int) (Converter, error) {
	switch quality {
	case "", QualityLinear:
		return newLinear(inputRate, outputRate, channels)
	case QualityHigh:
		return NewHigh(inputRate, outputRate, channels)
	default:
		return nil, fmt.Errorf("unknown resample quality %q", quality)
	}
}

// linear adapts Resampler to Converter.
type linear struct {
	*Resampler
}

func newLinear(inputRate, outputRate, channels int) (*linear, error) {
	r, err := New(inputRate, outputRate, channels)
	if err != nil {
		return nil, err
	}
	return &linear{r}, nil
}

func (l *linear) Convert(input []int32) ([]int32, error) {
	return l.Process(input), nil
}

func (l *linear) Flush() ([]int32, error) {
	return l.Resampler.Flush(), nil
}

// High runs one windowed-sinc filter per channel. The library's filters
// are mono, so interleaved input is split before filtering and joined
// again afterwards.
type High struct {
	filters    []resampling.Resampler
	inputRate  int
	outputRate int
	// pending holds filtered samples per channel not yet paired with the
	// other channels.
	pending [][]float64
}

// NewHigh creates a high quality converter.
func NewHigh(inputRate, outputRate, channels int) (*High, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("invalid rates %d -> %d", inputRate, outputRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	h := &High{
		filters:    make([]resampling.Resampler, channels),
		inputRate:  inputRate,
		outputRate: outputRate,
		pending:    make([][]float64, channels),
	}
	for ch := range h.filters {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(inputRate),
			OutputRate: float64(outputRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
		h.filters[ch] = rs
	}
	return h, nil
}

// InputRate returns the source sample rate.
func (h *High) InputRate() int { return h.inputRate }

// OutputRate returns the target sample rate.
func (h *High) OutputRate() int { return h.outputRate }

// Convert resamples one block. The filters delay output, so early calls
// may return fewer frames than the rate ratio suggests; Flush returns the
// remainder.
func (h *High) Convert(input []int32) ([]int32, error) {
	channels := len(h.filters)
	frames := len(input) / channels
	if frames == 0 {
		return nil, nil
	}

	plane := make([]float64, frames)
	for ch, rs := range h.filters {
		for i := 0; i < frames; i++ {
			plane[i] = float64(input[i*channels+ch]) / (audio.Max24Bit + 1)
		}
		out, err := rs.Process(plane)
		if err != nil {
			return nil, fmt.Errorf("resample error on channel %d: %w", ch, err)
		}
		h.pending[ch] = append(h.pending[ch], out...)
	}
	return h.interleave(), nil
}

// Flush drains the filter tails. The converter must not be used afterwards.
func (h *High) Flush() ([]int32, error) {
	for ch, rs := range h.filters {
		out, err := rs.Flush()
		if err != nil {
			return nil, fmt.Errorf("resample flush on channel %d: %w", ch, err)
		}
		h.pending[ch] = append(h.pending[ch], out...)
	}
	samples := h.interleave()
	for ch := range h.pending {
		h.pending[ch] = nil
	}
	return samples, nil
}

// interleave emits every frame that all channels have produced.
func (h *High) interleave() []int32 {
	channels := len(h.pending)
	frames := len(h.pending[0])
	for _, p := range h.pending[1:] {
		frames = min(frames, len(p))
	}
	if frames == 0 {
		return nil
	}

	samples := make([]int32, frames*channels)
	for ch, p := range h.pending {
		for i := 0; i < frames; i++ {
			samples[i*channels+ch] = audio.Clamp24(int64(p[i] * audio.Max24Bit))
		}
		h.pending[ch] = append(p[:0], p[frames:]...)
	}
	return samples
}
