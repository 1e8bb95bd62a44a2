// ABOUTME: OpusHead and OpusTags header parsing
// ABOUTME: Opus streams carry two headers and always decode at 48 kHz
package header

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/oggplay/oggplay/pkg/audio"
)

const (
	opusHeadSize   = 19
	opusDecodeRate = 48000
)

var (
	opusHeadMagic = []byte("OpusHead")
	opusTagsMagic = []byte("OpusTags")
)

func isOpusHead(b []byte) bool { return bytes.HasPrefix(b, opusHeadMagic) }
func isOpusTags(b []byte) bool { return bytes.HasPrefix(b, opusTagsMagic) }

func parseOpusHead(b []byte) (*Descriptor, error) {
	if len(b) < opusHeadSize {
		return nil, fmt.Errorf("OpusHead is %d bytes, want at least %d", len(b), opusHeadSize)
	}
	// Only the major version (high nibble) must match.
	if b[8]>>4 != 0 {
		return nil, fmt.Errorf("unsupported OpusHead version %d", b[8])
	}
	channels := int(b[9])
	if channels == 0 {
		return nil, errors.New("zero channels")
	}
	family := int(b[18])
	switch {
	case family == 0 && channels > 2:
		return nil, fmt.Errorf("mapping family 0 with %d channels", channels)
	case family != 0 && len(b) < 21+channels:
		return nil, fmt.Errorf("mapping family %d table truncated", family)
	}

	return &Descriptor{
		Codec:           audio.CodecOpus,
		Channels:        channels,
		SampleRate:      opusDecodeRate,
		BitsPerSample:   16,
		PreSkip:         int(binary.LittleEndian.Uint16(b[10:12])),
		InputSampleRate: int(binary.LittleEndian.Uint32(b[12:16])),
		OutputGain:      int16(binary.LittleEndian.Uint16(b[16:18])),
		MappingFamily:   family,
	}, nil
}

func parseOpusTags(b []byte, d *Descriptor) error {
	c := &cursor{b: b, off: len(opusTagsMagic)}
	c.comments(d)
	return c.err
}
