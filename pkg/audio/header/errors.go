// ABOUTME: Fatal header validation errors
// ABOUTME: Distinguishes "not this format at all" from "broken codec setup"
package header

import "fmt"

// NotACodecStreamError reports that the first packet of the stream is not
// an identification header of a supported codec.
type NotACodecStreamError struct {
	Reason string
}

func (e *NotACodecStreamError) Error() string {
	return fmt.Sprintf("not a supported codec stream: %s", e.Reason)
}

// CorruptHeaderError reports a malformed or out-of-order header after the
// identification header was accepted.
type CorruptHeaderError struct {
	Stage  State
	Reason string
}

func (e *CorruptHeaderError) Error() string {
	return fmt.Sprintf("corrupt header at %s: %s", e.Stage, e.Reason)
}
