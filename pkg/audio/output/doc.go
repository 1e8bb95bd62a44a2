// ABOUTME: Audio output package for playing decoded PCM
// ABOUTME: Provides the Output interface with oto, malgo, portaudio, wav and null sinks
// Package output provides audio sinks.
//
// Every sink implements Output: Open once the stream format is known,
// Write blocking while the device is full, Playing while queued audio
// remains, and Close. Sinks also implement VolumeControl.
//
// PortAudio support requires building with -tags portaudio.
//
// Example:
//
//	out, err := output.New("oto", output.Options{})
//	err = out.Open(desc.Format())
//	err = out.Write(samples)
package output
