// ABOUTME: Header validator state machine for one logical stream
// ABOUTME: Accepts identification, comment and setup packets in strict order
package header

import (
	"fmt"

	"github.com/oggplay/oggplay/pkg/audio"
	"github.com/oggplay/oggplay/pkg/ogg"
)

// State is the validator's position in the header sequence.
type State int

const (
	ExpectIdentification State = iota
	ExpectComment
	ExpectSetup
	Ready
)

func (s State) String() string {
	switch s {
	case ExpectIdentification:
		return "identification"
	case ExpectComment:
		return "comment"
	case ExpectSetup:
		return "setup"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StepKind tags the outcome of submitting one packet.
type StepKind int

const (
	// StepHeader means a header was accepted and more are expected.
	StepHeader StepKind = iota
	// StepReady means the final header was accepted; Step.Descriptor is set.
	// This happens exactly once per stream.
	StepReady
	// StepAudio means the packet is audio data; Step.Packet is the packet,
	// unchanged.
	StepAudio
)

// Step is the result of Submit.
type Step struct {
	Kind       StepKind
	Descriptor *Descriptor
	Packet     ogg.Packet
}

// Validator checks the header packets at the start of a logical stream and
// produces its Descriptor. Vorbis streams carry identification, comment and
// setup headers; Opus streams carry only the first two and skip the setup
// stage.
type Validator struct {
	state    State
	building *Descriptor
	desc     *Descriptor
	packets  int
	err      error
}

// NewValidator returns a validator expecting an identification header.
func NewValidator() *Validator {
	return &Validator{state: ExpectIdentification}
}

// State returns the current state.
func (v *Validator) State() State {
	return v.state
}

// Descriptor returns the stream descriptor once Ready, else nil.
func (v *Validator) Descriptor() *Descriptor {
	return v.desc
}

// Submit feeds the next packet of the stream. Header errors are fatal and
// sticky: every later call returns the same error.
func (v *Validator) Submit(pkt ogg.Packet) (Step, error) {
	if v.err != nil {
		return Step{}, v.err
	}
	if v.state == Ready {
		return Step{Kind: StepAudio, Packet: pkt}, nil
	}

	v.packets++
	step, err := v.advance(pkt)
	if err != nil {
		v.err = err
		return Step{}, err
	}
	return step, nil
}

// Finish reports an error if the stream ended before the headers were
// complete.
func (v *Validator) Finish() error {
	if v.err != nil {
		return v.err
	}
	if v.state == Ready {
		return nil
	}
	if v.packets == 0 {
		v.err = &NotACodecStreamError{Reason: "stream ended before any packet"}
	} else {
		v.err = &CorruptHeaderError{Stage: v.state, Reason: "stream ended before header"}
	}
	return v.err
}

func (v *Validator) advance(pkt ogg.Packet) (Step, error) {
	b := pkt.Data
	switch v.state {
	case ExpectIdentification:
		var (
			d   *Descriptor
			err error
		)
		switch t, ok := vorbisType(b); {
		case ok && t == vorbisIdentification:
			d, err = parseVorbisIdentification(b)
		case isOpusHead(b):
			d, err = parseOpusHead(b)
		default:
			return Step{}, &NotACodecStreamError{Reason: "first packet is " + describe(b)}
		}
		if err != nil {
			return Step{}, &NotACodecStreamError{Reason: err.Error()}
		}
		d.Serial = pkt.Serial
		d.headers = [][]byte{clone(b)}
		v.building = d
		v.state = ExpectComment
		return Step{Kind: StepHeader}, nil

	case ExpectComment:
		d := v.building
		var err error
		switch {
		case d.Codec == audio.CodecVorbis && isVorbis(b, vorbisComment):
			err = parseVorbisComment(b, d)
		case d.Codec == audio.CodecOpus && isOpusTags(b):
			err = parseOpusTags(b, d)
		default:
			return Step{}, v.outOfOrder(b)
		}
		if err != nil {
			return Step{}, &CorruptHeaderError{Stage: ExpectComment, Reason: err.Error()}
		}
		d.headers = append(d.headers, clone(b))
		if d.Codec == audio.CodecOpus {
			return v.ready(), nil
		}
		v.state = ExpectSetup
		return Step{Kind: StepHeader}, nil

	case ExpectSetup:
		if !isVorbis(b, vorbisSetup) {
			return Step{}, v.outOfOrder(b)
		}
		if err := checkVorbisSetup(b); err != nil {
			return Step{}, &CorruptHeaderError{Stage: ExpectSetup, Reason: err.Error()}
		}
		v.building.headers = append(v.building.headers, clone(b))
		return v.ready(), nil
	}
	return Step{}, fmt.Errorf("header validator in unexpected state %s", v.state)
}

func (v *Validator) ready() Step {
	v.desc = v.building
	v.building = nil
	v.state = Ready
	return Step{Kind: StepReady, Descriptor: v.desc}
}

func (v *Validator) outOfOrder(b []byte) error {
	return &CorruptHeaderError{
		Stage:  v.state,
		Reason: fmt.Sprintf("expected %s header, got %s", v.state, describe(b)),
	}
}

func isVorbis(b []byte, want byte) bool {
	t, ok := vorbisType(b)
	return ok && t == want
}

// describe names a packet for error messages.
func describe(b []byte) string {
	if t, ok := vorbisType(b); ok {
		switch t {
		case vorbisIdentification:
			return "a vorbis identification header"
		case vorbisComment:
			return "a vorbis comment header"
		case vorbisSetup:
			return "a vorbis setup header"
		}
	}
	switch {
	case isOpusHead(b):
		return "an OpusHead header"
	case isOpusTags(b):
		return "an OpusTags header"
	case len(b) == 0:
		return "an empty packet"
	}
	return fmt.Sprintf("an unrecognized %d-byte packet", len(b))
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
