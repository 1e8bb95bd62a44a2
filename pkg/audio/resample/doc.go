// ABOUTME: Audio resampling package with linear and windowed-sinc converters
// ABOUTME: Converts decoded blocks to a fixed output sample rate
// Package resample provides streaming sample rate conversion.
//
// The driver uses it when a sink is forced to a rate other than the
// stream's. State carries across blocks, so consecutive calls produce a
// continuous signal. Resampler interpolates linearly; High wraps a
// windowed-sinc filter and trades latency for quality.
//
// Example:
//
//	c, err := resample.NewConverter(resample.QualityHigh, 44100, 48000, 2)
//	out, err := c.Convert(block.Samples)
package resample
