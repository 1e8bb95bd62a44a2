// ABOUTME: Decoder interface and codec dispatch
// ABOUTME: Builds a decoder for a validated stream descriptor
package decode

import (
	"fmt"

	"github.com/oggplay/oggplay/pkg/audio"
	"github.com/oggplay/oggplay/pkg/audio/header"
)

// Decoder decodes the audio packets of one stream to PCM int32 samples
type Decoder interface {
	// Decode converts one packet to interleaved samples. A packet may
	// legitimately produce no samples.
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}

// Factory creates a decoder primed with a stream's header state.
type Factory func(desc *header.Descriptor) (Decoder, error)

// New selects a decoder for the descriptor's codec.
func New(desc *header.Descriptor) (Decoder, error) {
	if desc == nil {
		return nil, fmt.Errorf("nil stream descriptor")
	}
	switch desc.Codec {
	case audio.CodecVorbis:
		return NewVorbis(desc)
	case audio.CodecOpus:
		return NewOpus(desc)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", desc.Codec)
	}
}
