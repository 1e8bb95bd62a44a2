//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Reports the backend as unavailable unless built with -tags portaudio
package output

import (
	"fmt"
)

// NewPortAudio reports that PortAudio support was not compiled in
func NewPortAudio() (Output, error) {
	return nil, &SinkUnavailableError{
		Backend: "portaudio",
		Err:     fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)"),
	}
}
