// ABOUTME: Audio fundamentals shared across the playback pipeline
// ABOUTME: Defines Format, Block and sample conversion helpers
// Package audio provides the PCM types that flow between the decoder, the
// playback buffer and the audio sinks.
//
//   - Format: codec, sample rate, channel count and bit depth
//   - Block: one decoded chunk of interleaved frames, tagged with its Format
//
// Samples are carried as int32 in a 24-bit range so 16-bit and float
// decoders share one representation.
//
// Example:
//
//	block := audio.Block{
//	    Samples: samples,
//	    Format:  audio.Format{Codec: "vorbis", SampleRate: 44100, Channels: 2, BitDepth: 16},
//	}
//	fmt.Println(block.Frames(), block.Duration())
package audio
