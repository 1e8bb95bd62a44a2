// ABOUTME: Audio decoder package for Ogg codecs
// ABOUTME: Provides the Decoder interface with Vorbis and Opus implementations
// Package decode turns audio packets into PCM samples.
//
// Supports: Vorbis (github.com/jfreymuth/vorbis) and Opus (libopus via
// gopkg.in/hraban/opus.v2).
//
// Decoders are built from a validated header.Descriptor and output int32
// samples in the 24-bit range used by package audio.
//
// Example:
//
//	dec, err := decode.New(desc)
//	samples, err := dec.Decode(packet.Data)
package decode
