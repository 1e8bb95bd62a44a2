// ABOUTME: Tests for the header validator
// ABOUTME: Covers ordering, malformed headers, Opus profile and stream end
package header

import (
	"bytes"
	"errors"
	"testing"

	"github.com/oggplay/oggplay/pkg/audio/header/headertest"
	"github.com/oggplay/oggplay/pkg/ogg"
)

func pkt(b []byte) ogg.Packet {
	return ogg.Packet{Data: b, Serial: 42, GranulePos: -1}
}

func vorbisHeaders() [][]byte {
	return [][]byte{
		headertest.VorbisIdentification(2, 44100),
		headertest.VorbisComment("test vendor", "TITLE=Song", "artist=Someone", "ARTIST=Other"),
		headertest.VorbisSetup(),
	}
}

func TestValidatorVorbis(t *testing.T) {
	v := NewValidator()
	headers := vorbisHeaders()

	for i, h := range headers[:2] {
		step, err := v.Submit(pkt(h))
		if err != nil {
			t.Fatalf("header %d: %v", i, err)
		}
		if step.Kind != StepHeader {
			t.Fatalf("header %d: kind %v, want StepHeader", i, step.Kind)
		}
		if v.Descriptor() != nil {
			t.Fatal("descriptor available before Ready")
		}
	}

	step, err := v.Submit(pkt(headers[2]))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if step.Kind != StepReady || step.Descriptor == nil {
		t.Fatalf("expected StepReady with descriptor, got %+v", step)
	}
	if v.State() != Ready {
		t.Errorf("state = %s, want ready", v.State())
	}

	d := step.Descriptor
	if d.Codec != "vorbis" || d.Channels != 2 || d.SampleRate != 44100 || d.BitsPerSample != 16 {
		t.Errorf("descriptor fields: %+v", d)
	}
	if d.Serial != 42 {
		t.Errorf("serial = %d, want 42", d.Serial)
	}
	if d.BlockSize0 != 256 || d.BlockSize1 != 2048 {
		t.Errorf("blocksizes %d/%d", d.BlockSize0, d.BlockSize1)
	}
	if d.Vendor != "test vendor" || d.Comment("title") != "Song" {
		t.Errorf("vendor %q title %q", d.Vendor, d.Comment("title"))
	}
	if got := d.Comments("ARTIST"); len(got) != 2 {
		t.Errorf("expected 2 artist values, got %v", got)
	}

	hs := d.Headers()
	if len(hs) != 3 {
		t.Fatalf("expected 3 stored headers, got %d", len(hs))
	}
	for i := range hs {
		if !bytes.Equal(hs[i], headers[i]) {
			t.Errorf("stored header %d differs", i)
		}
	}
	hs[0][0] = 0xFF
	if d.Headers()[0][0] != 1 {
		t.Error("Headers() exposed internal storage")
	}

	f := d.Format()
	if f.SampleRate != 44100 || f.Channels != 2 || f.BitDepth != 16 {
		t.Errorf("format %+v", f)
	}
}

func TestValidatorForwardsAudioAfterReady(t *testing.T) {
	v := NewValidator()
	for _, h := range vorbisHeaders() {
		if _, err := v.Submit(pkt(h)); err != nil {
			t.Fatal(err)
		}
	}

	audio := pkt([]byte{0x00, 0x11, 0x22})
	audio.Number = 3
	var readies int
	for i := 0; i < 3; i++ {
		step, err := v.Submit(audio)
		if err != nil {
			t.Fatalf("audio packet: %v", err)
		}
		if step.Kind == StepReady {
			readies++
		}
		if step.Kind != StepAudio || !bytes.Equal(step.Packet.Data, audio.Data) || step.Packet.Number != 3 {
			t.Errorf("audio packet not forwarded unchanged: %+v", step)
		}
	}
	if readies != 0 {
		t.Error("descriptor emitted more than once")
	}

	// A header-shaped packet after Ready is still audio.
	step, err := v.Submit(pkt(headertest.VorbisIdentification(1, 8000)))
	if err != nil || step.Kind != StepAudio {
		t.Errorf("post-Ready packet: kind=%v err=%v", step.Kind, err)
	}
}

func TestValidatorOrderSensitive(t *testing.T) {
	h := vorbisHeaders()
	tests := []struct {
		name  string
		order [][]byte
		stage State
	}{
		{"setup before comment", [][]byte{h[0], h[2], h[1]}, ExpectComment},
		{"identification twice", [][]byte{h[0], h[0], h[1]}, ExpectComment},
		{"comment twice", [][]byte{h[0], h[1], h[1]}, ExpectSetup},
		{"audio instead of setup", [][]byte{h[0], h[1], {0x00, 0x01}}, ExpectSetup},
		{"opus tags in vorbis stream", [][]byte{h[0], headertest.OpusTags("x")}, ExpectComment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			var err error
			for _, b := range tt.order {
				if _, err = v.Submit(pkt(b)); err != nil {
					break
				}
			}
			var ce *CorruptHeaderError
			if !errors.As(err, &ce) {
				t.Fatalf("expected CorruptHeaderError, got %v", err)
			}
			if ce.Stage != tt.stage {
				t.Errorf("stage = %s, want %s", ce.Stage, tt.stage)
			}
			if v.Descriptor() != nil {
				t.Error("descriptor produced despite bad order")
			}
			if _, again := v.Submit(pkt(h[2])); again != err {
				t.Errorf("error not sticky: %v", again)
			}
		})
	}
}

func TestValidatorNotACodecStream(t *testing.T) {
	badVersion := headertest.VorbisIdentification(2, 44100)
	badVersion[7] = 1
	noChannels := headertest.VorbisIdentification(0, 44100)
	noFraming := headertest.VorbisIdentification(2, 44100)
	noFraming[29] = 0
	badBlocks := headertest.VorbisIdentification(2, 44100)
	badBlocks[28] = 0x8B

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"random", []byte("RIFF....WAVEfmt ")},
		{"comment first", vorbisHeaders()[1]},
		{"short identification", headertest.VorbisIdentification(2, 44100)[:20]},
		{"bad version", badVersion},
		{"zero channels", noChannels},
		{"no framing bit", noFraming},
		{"blocksize order", badBlocks},
		{"opus zero channels", headertest.OpusHead(0, 312, 48000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValidator().Submit(pkt(tt.data))
			var ne *NotACodecStreamError
			if !errors.As(err, &ne) {
				t.Fatalf("expected NotACodecStreamError, got %v", err)
			}
		})
	}
}

func TestValidatorMalformedComment(t *testing.T) {
	comment := headertest.VorbisComment("vendor", "A=b")
	truncated := comment[:len(comment)-4]

	v := NewValidator()
	if _, err := v.Submit(pkt(vorbisHeaders()[0])); err != nil {
		t.Fatal(err)
	}
	_, err := v.Submit(pkt(truncated))
	var ce *CorruptHeaderError
	if !errors.As(err, &ce) || ce.Stage != ExpectComment {
		t.Fatalf("expected CorruptHeaderError at comment, got %v", err)
	}
}

func TestValidatorBadSetupSync(t *testing.T) {
	setup := headertest.VorbisSetup()
	setup[9] = 'X'

	v := NewValidator()
	for _, h := range vorbisHeaders()[:2] {
		if _, err := v.Submit(pkt(h)); err != nil {
			t.Fatal(err)
		}
	}
	_, err := v.Submit(pkt(setup))
	var ce *CorruptHeaderError
	if !errors.As(err, &ce) || ce.Stage != ExpectSetup {
		t.Fatalf("expected CorruptHeaderError at setup, got %v", err)
	}
}

func TestValidatorOpus(t *testing.T) {
	v := NewValidator()
	step, err := v.Submit(pkt(headertest.OpusHead(2, 312, 44100)))
	if err != nil || step.Kind != StepHeader {
		t.Fatalf("OpusHead: %+v %v", step, err)
	}
	step, err = v.Submit(pkt(headertest.OpusTags("libopus", "TITLE=Tone")))
	if err != nil {
		t.Fatalf("OpusTags: %v", err)
	}
	if step.Kind != StepReady {
		t.Fatalf("expected Ready after OpusTags, got %v", step.Kind)
	}

	d := step.Descriptor
	if d.Codec != "opus" || d.SampleRate != 48000 || d.InputSampleRate != 44100 || d.PreSkip != 312 {
		t.Errorf("descriptor: %+v", d)
	}
	if d.Comment("TITLE") != "Tone" {
		t.Errorf("title = %q", d.Comment("TITLE"))
	}
	if len(d.Headers()) != 2 {
		t.Errorf("expected 2 headers, got %d", len(d.Headers()))
	}
}

func TestValidatorFinish(t *testing.T) {
	t.Run("empty stream", func(t *testing.T) {
		var ne *NotACodecStreamError
		if err := NewValidator().Finish(); !errors.As(err, &ne) {
			t.Fatalf("expected NotACodecStreamError, got %v", err)
		}
	})

	t.Run("after identification", func(t *testing.T) {
		v := NewValidator()
		if _, err := v.Submit(pkt(vorbisHeaders()[0])); err != nil {
			t.Fatal(err)
		}
		var ce *CorruptHeaderError
		if err := v.Finish(); !errors.As(err, &ce) || ce.Stage != ExpectComment {
			t.Fatalf("expected CorruptHeaderError at comment, got %v", err)
		}
	})

	t.Run("ready", func(t *testing.T) {
		v := NewValidator()
		for _, h := range vorbisHeaders() {
			if _, err := v.Submit(pkt(h)); err != nil {
				t.Fatal(err)
			}
		}
		if err := v.Finish(); err != nil {
			t.Fatalf("Finish after Ready: %v", err)
		}
	})
}

func TestStateString(t *testing.T) {
	if ExpectSetup.String() != "setup" || State(99).String() != "State(99)" {
		t.Errorf("unexpected names: %s %s", ExpectSetup, State(99))
	}
}
