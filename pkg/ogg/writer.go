// ABOUTME: Ogg page writer for a single logical stream
// ABOUTME: Laces packets into pages, splitting across pages when a table fills
package ogg

import (
	"errors"
	"fmt"
	"io"
)

// Writer packs packets of one logical stream into pages.
type Writer struct {
	// MaxSegments limits the segment table of each page (1..255). Smaller
	// values force packets to span pages.
	MaxSegments int

	w       io.Writer
	serial  uint32
	seq     uint32
	closed  bool
	written int64

	segs      []byte
	body      []byte
	granule   int64
	continued bool
}

// NewWriter returns a writer emitting pages with the given serial.
func NewWriter(w io.Writer, serial uint32) *Writer {
	return &Writer{
		MaxSegments: MaxSegments,
		w:           w,
		serial:      serial,
		granule:     -1,
	}
}

// PagesWritten returns the number of pages emitted so far.
func (w *Writer) PagesWritten() uint32 {
	return w.seq
}

// BytesWritten returns the number of bytes emitted so far.
func (w *Writer) BytesWritten() int64 {
	return w.written
}

// WritePacket appends a packet that ends at granule position granule.
// Pages are emitted as segment tables fill; call Flush to end the current
// page early.
func (w *Writer) WritePacket(data []byte, granule int64) error {
	if w.closed {
		return errors.New("ogg: write to closed writer")
	}
	limit := w.maxSegments()
	lacing := Lacing(len(data))
	off := 0
	for i, l := range lacing {
		if len(w.segs) == limit {
			if err := w.flushPage(false); err != nil {
				return err
			}
			w.continued = i > 0
		}
		w.segs = append(w.segs, l)
		w.body = append(w.body, data[off:off+int(l)]...)
		off += int(l)
	}
	w.granule = granule
	return nil
}

// Flush emits any buffered segments as a page.
func (w *Writer) Flush() error {
	if w.closed {
		return errors.New("ogg: flush of closed writer")
	}
	if len(w.segs) == 0 {
		return nil
	}
	return w.flushPage(false)
}

// Close emits the final page of the stream with the last-page flag set.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	err := w.flushPage(true)
	w.closed = true
	return err
}

func (w *Writer) maxSegments() int {
	if w.MaxSegments <= 0 || w.MaxSegments > MaxSegments {
		return MaxSegments
	}
	return w.MaxSegments
}

func (w *Writer) flushPage(last bool) error {
	var flags byte
	if w.continued {
		flags |= FlagContinued
	}
	if w.seq == 0 {
		flags |= FlagFirst
	}
	if last {
		flags |= FlagLast
	}

	p := &Page{
		HeaderType: flags,
		GranulePos: w.granule,
		Serial:     w.serial,
		Sequence:   w.seq,
		Segments:   w.segs,
		Body:       w.body,
	}

	raw, err := p.Encode()
	if err != nil {
		return err
	}
	n, err := w.w.Write(raw)
	w.written += int64(n)
	if err != nil {
		return fmt.Errorf("ogg: write page %d: %w", w.seq, err)
	}

	w.seq++
	w.segs = nil
	w.body = nil
	w.continued = false
	// A page on which no packet completes carries granule -1.
	w.granule = -1
	return nil
}
