// ABOUTME: PCM format and block types shared by decoder, buffer and sinks
// ABOUTME: Samples are int32 in a 24-bit range; helpers convert to and from it
package audio

import (
	"fmt"
	"math"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Codec names.
const (
	CodecVorbis = "vorbis"
	CodecOpus   = "opus"
	CodecPCM    = "pcm"
)

// Format describes the layout of decoded audio.
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// String renders the format for logs and the status display.
func (f Format) String() string {
	return fmt.Sprintf("%s %dHz %dch %d-bit", f.Codec, f.SampleRate, f.Channels, f.BitDepth)
}

// Validate reports whether the format can be played.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	return nil
}

// Block is a chunk of decoded, interleaved PCM frames.
type Block struct {
	// Index is the block's position in decode order, starting at zero.
	Index int64
	// Granule is the granule position of the packet the block came from,
	// or -1 when unknown.
	Granule int64
	Samples []int32
	Format  Format
}

// Frames returns the number of sample frames in the block.
func (b Block) Frames() int {
	if b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the block's playing time in seconds.
func (b Block) Duration() float64 {
	if b.Format.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Format.SampleRate)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromFloat32 converts a float sample in [-1, 1] to the 24-bit range,
// clipping anything outside it.
func SampleFromFloat32(sample float32) int32 {
	if math.IsNaN(float64(sample)) {
		return 0
	}
	return Clamp24(int64(math.Round(float64(sample) * Max24Bit)))
}

// Clamp24 limits v to the 24-bit sample range.
func Clamp24(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
