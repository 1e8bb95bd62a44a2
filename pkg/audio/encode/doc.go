// ABOUTME: Audio encoding package for writing decoded PCM
// ABOUTME: Provides the PCM byte encoder and WAVE header helpers
// Package encode turns int32 samples into bytes for file output.
//
// Supports: PCM (16-bit and 24-bit little-endian) and RIFF/WAVE headers.
//
// Example:
//
//	enc, err := encode.NewPCM(16)
//	data, err := enc.Encode(samples)
package encode
