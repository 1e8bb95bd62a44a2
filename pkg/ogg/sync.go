// ABOUTME: Page synchronizer: finds, frames and checksums pages in a byte stream
// ABOUTME: Resynchronizes after corrupt input and reports each skip as a typed error
package ogg

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Sync accumulates raw bytes and extracts validated pages from them.
//
// NextPage returns exactly one of: a page, ErrNeedMore, a recoverable
// *FramingError or *CorruptPageError (the offending bytes have already been
// consumed), a fatal *TruncatedStreamError, or io.EOF once SetEOF was called
// and every byte has been accounted for.
type Sync struct {
	buf []byte
	eof bool

	// pages and skipped are running totals for diagnostics.
	pages   int64
	skipped int64
}

// NewSync returns an empty synchronizer.
func NewSync() *Sync {
	return &Sync{buf: make([]byte, 0, 2*MaxPageSize)}
}

// Feed appends raw bytes to the accumulation buffer.
func (s *Sync) Feed(p []byte) {
	s.buf = append(s.buf, p...)
}

// Write implements io.Writer on top of Feed.
func (s *Sync) Write(p []byte) (int, error) {
	s.Feed(p)
	return len(p), nil
}

// SetEOF records that no more input will arrive.
func (s *Sync) SetEOF() {
	s.eof = true
}

// Buffered returns the number of bytes waiting to be framed.
func (s *Sync) Buffered() int {
	return len(s.buf)
}

// Pages returns the number of pages yielded so far.
func (s *Sync) Pages() int64 {
	return s.pages
}

// Skipped returns the number of bytes discarded while resynchronizing.
func (s *Sync) Skipped() int64 {
	return s.skipped
}

// NextPage extracts the next complete, checksum-valid page.
func (s *Sync) NextPage() (*Page, error) {
	if len(s.buf) == 0 {
		if s.eof {
			return nil, io.EOF
		}
		return nil, ErrNeedMore
	}

	if !bytes.HasPrefix(s.buf, capturePattern) {
		if len(s.buf) < len(capturePattern) && bytes.HasPrefix(capturePattern, s.buf) && !s.eof {
			return nil, ErrNeedMore
		}
		return nil, &FramingError{Skipped: s.discard(s.resyncPoint(1))}
	}

	if len(s.buf) < HeaderSize {
		return nil, s.incomplete()
	}
	if s.buf[4] != 0 {
		// Unknown stream structure version: treat the capture as false.
		return nil, &FramingError{Skipped: s.discard(s.resyncPoint(1))}
	}

	nseg := int(s.buf[26])
	if len(s.buf) < HeaderSize+nseg {
		return nil, s.incomplete()
	}
	total := HeaderSize + nseg
	for _, l := range s.buf[HeaderSize : HeaderSize+nseg] {
		total += int(l)
	}
	if len(s.buf) < total {
		return nil, s.incomplete()
	}

	raw := s.buf[:total]
	want := binary.LittleEndian.Uint32(raw[22:26])
	if got := pageChecksum(raw); got != want {
		err := &CorruptPageError{
			Serial:   binary.LittleEndian.Uint32(raw[14:18]),
			Sequence: binary.LittleEndian.Uint32(raw[18:22]),
			Want:     want,
			Got:      got,
		}
		err.Skipped = s.discard(s.resyncPoint(1))
		return nil, err
	}

	page := parsePage(raw)
	s.buf = s.buf[total:]
	s.pages++
	return page, nil
}

// incomplete handles a page whose capture was found but whose bytes are not
// all buffered yet.
func (s *Sync) incomplete() error {
	if !s.eof {
		return ErrNeedMore
	}
	// A later capture means the partial page was a false one.
	if idx := s.findCapture(1); idx > 0 {
		return &FramingError{Skipped: s.discard(idx)}
	}
	n := len(s.buf)
	s.buf = s.buf[:0]
	return &TruncatedStreamError{Buffered: n}
}

// resyncPoint returns how many bytes to drop so the buffer starts at the
// next capture at or after offset from. Without one, everything is dropped
// except a trailing partial capture that more input could complete.
func (s *Sync) resyncPoint(from int) int {
	if idx := s.findCapture(from); idx >= 0 {
		return idx
	}
	if s.eof {
		return len(s.buf)
	}
	return len(s.buf) - partialCaptureSuffix(s.buf[from:])
}

func (s *Sync) findCapture(from int) int {
	if from >= len(s.buf) {
		return -1
	}
	idx := bytes.Index(s.buf[from:], capturePattern)
	if idx < 0 {
		return -1
	}
	return from + idx
}

func (s *Sync) discard(n int) int {
	s.buf = s.buf[n:]
	s.skipped += int64(n)
	return n
}

// partialCaptureSuffix returns the length of the longest suffix of b that
// is a proper prefix of the capture pattern.
func partialCaptureSuffix(b []byte) int {
	for n := len(capturePattern) - 1; n > 0; n-- {
		if len(b) >= n && bytes.Equal(b[len(b)-n:], capturePattern[:n]) {
			return n
		}
	}
	return 0
}
