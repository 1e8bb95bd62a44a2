// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for turning int32 samples into output bytes
package encode

// Encoder encodes PCM int32 samples to a byte representation
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
