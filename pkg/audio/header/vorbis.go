// ABOUTME: Vorbis identification, comment and setup header checks
// ABOUTME: Validates fixed fields; the setup body is left to the decoder
package header

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/oggplay/oggplay/pkg/audio"
)

const (
	vorbisIdentification = 1
	vorbisComment        = 3
	vorbisSetup          = 5

	vorbisIdentificationSize = 30
)

var (
	vorbisMagic        = []byte("vorbis")
	vorbisCodebookSync = []byte{0x42, 0x43, 0x56}
)

// vorbisType returns the header packet type if b carries the Vorbis magic.
func vorbisType(b []byte) (byte, bool) {
	if len(b) < 7 || !bytes.Equal(b[1:7], vorbisMagic) {
		return 0, false
	}
	switch b[0] {
	case vorbisIdentification, vorbisComment, vorbisSetup:
		return b[0], true
	}
	return 0, false
}

func parseVorbisIdentification(b []byte) (*Descriptor, error) {
	if len(b) < vorbisIdentificationSize {
		return nil, fmt.Errorf("vorbis identification header is %d bytes, want %d", len(b), vorbisIdentificationSize)
	}
	c := &cursor{b: b, off: 7}
	version := c.u32()
	channels := c.u8()
	rate := c.u32()
	bmax := int32(c.u32())
	bnom := int32(c.u32())
	bmin := int32(c.u32())
	sizes := c.u8()
	framing := c.u8()
	if c.err != nil {
		return nil, c.err
	}

	if version != 0 {
		return nil, fmt.Errorf("unsupported vorbis version %d", version)
	}
	if channels == 0 {
		return nil, errors.New("zero channels")
	}
	if rate == 0 {
		return nil, errors.New("zero sample rate")
	}
	bs0, bs1 := int(sizes&0x0F), int(sizes>>4)
	if bs0 < 6 || bs1 > 13 || bs0 > bs1 {
		return nil, fmt.Errorf("invalid blocksizes 2^%d/2^%d", bs0, bs1)
	}
	if framing&1 == 0 {
		return nil, errors.New("framing bit not set")
	}

	return &Descriptor{
		Codec:          audio.CodecVorbis,
		Channels:       int(channels),
		SampleRate:     int(rate),
		BitsPerSample:  16,
		BlockSize0:     1 << bs0,
		BlockSize1:     1 << bs1,
		BitrateMax:     int(bmax),
		BitrateNominal: int(bnom),
		BitrateMin:     int(bmin),
	}, nil
}

func parseVorbisComment(b []byte, d *Descriptor) error {
	c := &cursor{b: b, off: 7}
	c.comments(d)
	framing := c.u8()
	if c.err != nil {
		return c.err
	}
	if framing&1 == 0 {
		return errors.New("framing bit not set")
	}
	return nil
}

func checkVorbisSetup(b []byte) error {
	if len(b) < 11 {
		return fmt.Errorf("setup header is %d bytes", len(b))
	}
	if !bytes.Equal(b[8:11], vorbisCodebookSync) {
		return errors.New("missing codebook sync pattern")
	}
	return nil
}
