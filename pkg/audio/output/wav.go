// ABOUTME: WAV file sink writing decoded audio to disk
// ABOUTME: Writes a placeholder header on Open and patches chunk sizes on Close
package output

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/oggplay/oggplay/pkg/audio"
	"github.com/oggplay/oggplay/pkg/audio/encode"
)

// WAV writes PCM to a RIFF/WAVE file
type WAV struct {
	volume

	mu      sync.Mutex
	path    string
	file    *os.File
	encoder encode.Encoder
	written uint32
}

// NewWAV creates a WAV sink that writes to path on Open
func NewWAV(path string) Output {
	return &WAV{volume: volume{level: 100}, path: path}
}

// Open creates the file and writes a header
func (w *WAV) Open(format audio.Format) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return fmt.Errorf("output already open")
	}
	if format.BitDepth != 24 {
		format.BitDepth = 16
	}
	hdr, err := encode.WAVHeader(format, 0)
	if err != nil {
		return err
	}
	enc, err := encode.NewPCM(format.BitDepth)
	if err != nil {
		return err
	}

	f, err := os.Create(w.path)
	if err != nil {
		return &SinkUnavailableError{Backend: "wav", Err: err}
	}
	if _, err := f.Write(hdr); err != nil {
		f.Close()
		return &SinkUnavailableError{Backend: "wav", Err: err}
	}
	w.file = f
	w.encoder = enc
	log.Printf("Writing %s to %s", format, w.path)
	return nil
}

// Write appends samples to the file
func (w *WAV) Write(samples []int32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("output not initialized")
	}
	data, err := w.encoder.Encode(w.apply(samples))
	if err != nil {
		return err
	}
	n, err := w.file.Write(data)
	w.written += uint32(n)
	if err != nil {
		return fmt.Errorf("wav write failed: %w", err)
	}
	return nil
}

// Playing is always false; a file has no playback latency
func (w *WAV) Playing() bool {
	return false
}

// Close patches the header sizes and closes the file
func (w *WAV) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil

	riff, data := encode.WAVSizeFields(w.written)
	if _, err := f.WriteAt(riff[:], 4); err != nil {
		f.Close()
		return fmt.Errorf("failed to patch wav header: %w", err)
	}
	if _, err := f.WriteAt(data[:], 40); err != nil {
		f.Close()
		return fmt.Errorf("failed to patch wav header: %w", err)
	}
	if w.encoder != nil {
		w.encoder.Close()
	}
	return f.Close()
}
