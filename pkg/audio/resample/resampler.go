// ABOUTME: Streaming linear resampler for interleaved int32 PCM
// ABOUTME: Carries the last input frame across calls so block edges stay continuous
package resample

import "fmt"

// Resampler performs linear interpolation to convert between sample rates.
// It keeps state between calls and must be fed one stream in order.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	step       float64
	// position of the next output frame, in input frames, relative to the
	// carried frame (position 0 is lastFrame, 1 is the first new frame).
	position  float64
	lastFrame []int32
	primed    bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) (*Resampler, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("invalid rates %d -> %d", inputRate, outputRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		step:       float64(inputRate) / float64(outputRate),
		lastFrame:  make([]int32, channels),
	}, nil
}

// InputRate returns the source sample rate.
func (r *Resampler) InputRate() int { return r.inputRate }

// OutputRate returns the target sample rate.
func (r *Resampler) OutputRate() int { return r.outputRate }

// Process converts one block of interleaved input samples and returns the
// interleaved output produced so far. Output lags input by at most one
// frame.
func (r *Resampler) Process(input []int32) []int32 {
	frames := len(input) / r.channels
	if frames == 0 {
		return nil
	}

	if !r.primed {
		// Treat the first frame as the carried frame so output starts in
		// phase with the input.
		copy(r.lastFrame, input[:r.channels])
		input = input[r.channels:]
		frames--
		r.primed = true
	}

	out := make([]int32, 0, (int(float64(frames)/r.step)+1)*r.channels)
	frame := func(i int) []int32 {
		if i == 0 {
			return r.lastFrame
		}
		return input[(i-1)*r.channels : i*r.channels]
	}

	for r.position < float64(frames) {
		idx := int(r.position)
		frac := r.position - float64(idx)
		a, b := frame(idx), frame(idx+1)
		for ch := 0; ch < r.channels; ch++ {
			v := float64(a[ch])*(1-frac) + float64(b[ch])*frac
			out = append(out, int32(v))
		}
		r.position += r.step
	}

	if frames > 0 {
		copy(r.lastFrame, input[(frames-1)*r.channels:frames*r.channels])
		r.position -= float64(frames)
	}
	return out
}

// Flush returns the output still owed for the carried last frame. The
// resampler is reset afterwards.
func (r *Resampler) Flush() []int32 {
	if !r.primed {
		return nil
	}
	var out []int32
	for r.position < 1 {
		out = append(out, r.lastFrame...)
		r.position += r.step
	}
	r.Reset()
	return out
}

// Reset clears carried state.
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// OutputSamplesNeeded estimates the output produced from inputSamples.
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	return int(float64(inputFrames)/r.step) * r.channels
}
