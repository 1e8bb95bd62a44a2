// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus packets at 48 kHz, trimming pre-skip and applying output gain
package decode

import (
	"fmt"
	"math"

	"github.com/oggplay/oggplay/pkg/audio"
	"github.com/oggplay/oggplay/pkg/audio/header"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrame is the largest frame (120 ms at 48 kHz) per channel.
const maxOpusFrame = 5760

// OpusDecoder decodes Opus audio
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
	skip     int
	gain     float64
	pcm16    []int16
}

// NewOpus creates a new Opus decoder
func NewOpus(desc *header.Descriptor) (Decoder, error) {
	if desc.Codec != audio.CodecOpus {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", desc.Codec)
	}
	if desc.MappingFamily != 0 || desc.Channels > 2 {
		return nil, fmt.Errorf("unsupported opus channel mapping family %d with %d channels",
			desc.MappingFamily, desc.Channels)
	}

	dec, err := opus.NewDecoder(desc.SampleRate, desc.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder:  dec,
		channels: desc.Channels,
		skip:     desc.PreSkip,
		gain:     gainMultiplier(desc.OutputGain),
		pcm16:    make([]int16, maxOpusFrame*desc.Channels),
	}, nil
}

// Decode converts Opus bytes to int32 samples
func (d *OpusDecoder) Decode(data []byte) ([]int32, error) {
	n, err := d.decoder.Decode(data, d.pcm16)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	start := 0
	if d.skip > 0 {
		drop := min(d.skip, n)
		d.skip -= drop
		start = drop
	}

	return convertInt16(d.pcm16[start*d.channels:n*d.channels], d.gain), nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	d.pcm16 = nil
	return nil
}

// gainMultiplier converts a Q7.8 dB gain to a linear factor.
func gainMultiplier(q78 int16) float64 {
	if q78 == 0 {
		return 1
	}
	return math.Pow(10, float64(q78)/(20*256))
}

func convertInt16(pcm []int16, gain float64) []int32 {
	out := make([]int32, len(pcm))
	for i, s := range pcm {
		v := audio.SampleFromInt16(s)
		if gain != 1 {
			v = audio.Clamp24(int64(math.Round(float64(v) * gain)))
		}
		out[i] = v
	}
	return out
}
