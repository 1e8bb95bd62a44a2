// ABOUTME: Driver lifecycle states and the structured fatal error it reports
// ABOUTME: Maps stage failures onto a small set of error kinds
package playback

import (
	"errors"
	"fmt"

	"github.com/oggplay/oggplay/pkg/audio/header"
	"github.com/oggplay/oggplay/pkg/audio/output"
	"github.com/oggplay/oggplay/pkg/ogg"
	"github.com/oggplay/oggplay/pkg/source"
)

// State is a driver lifecycle state.
type State int

const (
	Idle State = iota
	Opening
	SyncingHeaders
	Streaming
	Draining
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Opening:
		return "opening"
	case SyncingHeaders:
		return "syncing headers"
	case Streaming:
		return "streaming"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s is Closed or Failed.
func (s State) Terminal() bool {
	return s == Closed || s == Failed
}

// Kind classifies a fatal playback error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotACodecStream
	KindCorruptHeader
	KindTruncatedStream
	KindSinkUnavailable
	KindSourceUnavailable
	KindDecoder
)

func (k Kind) String() string {
	switch k {
	case KindNotACodecStream:
		return "not a codec stream"
	case KindCorruptHeader:
		return "corrupt header"
	case KindTruncatedStream:
		return "truncated stream"
	case KindSinkUnavailable:
		return "sink unavailable"
	case KindSourceUnavailable:
		return "source unavailable"
	case KindDecoder:
		return "decoder"
	default:
		return "internal"
	}
}

// Error is the single fatal error a Driver reports.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("playback failed while %s: %s: %v", e.State, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// kindOf picks the error kind for err, falling back to def for errors
// that carry no type information.
func kindOf(err error, def Kind) Kind {
	var (
		nc *header.NotACodecStreamError
		ch *header.CorruptHeaderError
		ts *ogg.TruncatedStreamError
		su *output.SinkUnavailableError
		so *source.UnavailableError
	)
	switch {
	case errors.As(err, &nc):
		return KindNotACodecStream
	case errors.As(err, &ch):
		return KindCorruptHeader
	case errors.As(err, &ts):
		return KindTruncatedStream
	case errors.As(err, &su):
		return KindSinkUnavailable
	case errors.As(err, &so):
		return KindSourceUnavailable
	default:
		return def
	}
}
