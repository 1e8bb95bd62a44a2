// ABOUTME: Vorbis audio decoder
// ABOUTME: Replays the three header packets into jfreymuth/vorbis, then decodes audio
package decode

import (
	"fmt"

	"github.com/jfreymuth/vorbis"
	"github.com/oggplay/oggplay/pkg/audio"
	"github.com/oggplay/oggplay/pkg/audio/header"
)

// VorbisDecoder decodes Vorbis audio packets
type VorbisDecoder struct {
	decoder vorbis.Decoder
}

// NewVorbis creates a Vorbis decoder configured from the stream headers
func NewVorbis(desc *header.Descriptor) (Decoder, error) {
	if desc.Codec != audio.CodecVorbis {
		return nil, fmt.Errorf("invalid codec for Vorbis decoder: %s", desc.Codec)
	}

	d := &VorbisDecoder{}
	for i, h := range desc.Headers() {
		if err := d.decoder.ReadHeader(h); err != nil {
			return nil, fmt.Errorf("vorbis header %d rejected: %w", i, err)
		}
	}
	if !d.decoder.HeadersRead() {
		return nil, fmt.Errorf("vorbis headers incomplete")
	}
	if d.decoder.Channels() != desc.Channels || d.decoder.SampleRate() != desc.SampleRate {
		return nil, fmt.Errorf("vorbis decoder reports %dHz/%dch, headers say %dHz/%dch",
			d.decoder.SampleRate(), d.decoder.Channels(), desc.SampleRate, desc.Channels)
	}
	return d, nil
}

// Decode converts one Vorbis packet to int32 samples. The first audio
// packet only primes the overlap window and yields nothing.
func (d *VorbisDecoder) Decode(data []byte) ([]int32, error) {
	pcm, err := d.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("vorbis decode failed: %w", err)
	}

	samples := make([]int32, len(pcm))
	for i, s := range pcm {
		samples[i] = audio.SampleFromFloat32(s)
	}
	return samples, nil
}

// Close releases decoder resources
func (d *VorbisDecoder) Close() error {
	d.decoder.Clear()
	return nil
}
