// ABOUTME: Error taxonomy for Ogg framing and packet assembly
// ABOUTME: Recoverable errors carry enough context to log and count them
package ogg

import (
	"errors"
	"fmt"
)

// ErrNeedMore reports that the synchronizer needs more input before it can
// yield a page. It is a signal, not a failure.
var ErrNeedMore = errors.New("ogg: need more input")

// FramingError reports bytes skipped while searching for a capture pattern.
// It is recoverable: the synchronizer has already advanced past them.
type FramingError struct {
	Skipped int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("ogg: lost sync, skipped %d bytes", e.Skipped)
}

// CorruptPageError reports a well-framed page whose checksum did not match.
// The page has been discarded.
type CorruptPageError struct {
	Serial   uint32
	Sequence uint32
	Want     uint32
	Got      uint32
	Skipped  int
}

func (e *CorruptPageError) Error() string {
	return fmt.Sprintf("ogg: corrupt page serial=%08x seq=%d (crc %08x, computed %08x), skipped %d bytes",
		e.Serial, e.Sequence, e.Want, e.Got, e.Skipped)
}

// SequenceGapError reports a page whose sequence number did not follow the
// previous page of the same stream. Any packet spanning the gap is lost.
type SequenceGapError struct {
	Serial   uint32
	Expected uint32
	Got      uint32
}

func (e *SequenceGapError) Error() string {
	return fmt.Sprintf("ogg: sequence gap on serial %08x: expected %d, got %d",
		e.Serial, e.Expected, e.Got)
}

// StalePageError reports a page whose sequence number is at or behind the
// last accepted page, such as a retransmitted duplicate. The page has been
// dropped without emitting any packets.
type StalePageError struct {
	Serial   uint32
	Expected uint32
	Got      uint32
}

func (e *StalePageError) Error() string {
	return fmt.Sprintf("ogg: stale page on serial %08x: expected %d, got %d",
		e.Serial, e.Expected, e.Got)
}

// TruncatedStreamError reports that input ended, or stalled past its read
// deadline, while a page was only partially buffered. It is fatal.
type TruncatedStreamError struct {
	Buffered int
	Err      error
}

func (e *TruncatedStreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ogg: stream truncated with %d bytes of a page buffered: %v", e.Buffered, e.Err)
	}
	return fmt.Sprintf("ogg: stream truncated with %d bytes of a page buffered", e.Buffered)
}

func (e *TruncatedStreamError) Unwrap() error {
	return e.Err
}

// PacketTooLargeError reports a packet exceeding the assembler's size limit.
type PacketTooLargeError struct {
	Serial uint32
	Size   int
	Limit  int
}

func (e *PacketTooLargeError) Error() string {
	return fmt.Sprintf("ogg: packet on serial %08x exceeds %d bytes (%d)", e.Serial, e.Limit, e.Size)
}

// IsRecoverable reports whether err is one of the framing errors the
// demuxer absorbs and continues past.
func IsRecoverable(err error) bool {
	var fe *FramingError
	var ce *CorruptPageError
	var ge *SequenceGapError
	var se *StalePageError
	var pe *PacketTooLargeError
	return errors.As(err, &fe) || errors.As(err, &ce) || errors.As(err, &ge) ||
		errors.As(err, &se) || errors.As(err, &pe)
}
