// ABOUTME: Immutable stream descriptor produced once headers validate
// ABOUTME: Carries PCM layout, codec parameters, comments and raw header packets
package header

import (
	"strings"

	"github.com/oggplay/oggplay/pkg/audio"
)

// Descriptor describes a validated logical stream. It is never modified
// after the Validator returns it.
type Descriptor struct {
	Codec         string
	Serial        uint32
	Channels      int
	SampleRate    int
	BitsPerSample int

	Vendor string

	// Vorbis parameters.
	BlockSize0     int
	BlockSize1     int
	BitrateMax     int
	BitrateNominal int
	BitrateMin     int

	// Opus parameters. SampleRate is always the 48 kHz decode rate;
	// InputSampleRate is the informational rate of the original audio.
	PreSkip         int
	OutputGain      int16 // Q7.8 dB
	MappingFamily   int
	InputSampleRate int

	comments map[string][]string
	headers  [][]byte
}

// Format returns the PCM layout the decoder produces.
func (d *Descriptor) Format() audio.Format {
	return audio.Format{
		Codec:      d.Codec,
		SampleRate: d.SampleRate,
		Channels:   d.Channels,
		BitDepth:   d.BitsPerSample,
	}
}

// Headers returns copies of the header packets in stream order. Decoders
// that need codec setup state replay them.
func (d *Descriptor) Headers() [][]byte {
	out := make([][]byte, len(d.headers))
	for i, h := range d.headers {
		out[i] = append([]byte(nil), h...)
	}
	return out
}

// Comment returns the first value of a comment field, matched
// case-insensitively, or "".
func (d *Descriptor) Comment(key string) string {
	if v := d.comments[strings.ToUpper(key)]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Comments returns every value of a comment field.
func (d *Descriptor) Comments(key string) []string {
	return append([]string(nil), d.comments[strings.ToUpper(key)]...)
}

// CommentKeys returns the comment field names present, in no particular order.
func (d *Descriptor) CommentKeys() []string {
	keys := make([]string, 0, len(d.comments))
	for k := range d.comments {
		keys = append(keys, k)
	}
	return keys
}

func (d *Descriptor) addComment(entry string) {
	key, value, ok := strings.Cut(entry, "=")
	if !ok {
		return
	}
	if d.comments == nil {
		d.comments = make(map[string][]string)
	}
	key = strings.ToUpper(key)
	d.comments[key] = append(d.comments[key], value)
}
