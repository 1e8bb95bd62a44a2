// ABOUTME: Tests for converter selection and the high quality resampler
// ABOUTME: Checks rate bookkeeping and rough output length
package resample

import (
	"math"
	"testing"
)

func TestNewConverter(t *testing.T) {
	tests := []struct {
		quality string
		wantErr bool
	}{
		{"", false},
		{QualityLinear, false},
		{QualityHigh, false},
		{"cubic", true},
	}

	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			c, err := NewConverter(tt.quality, 44100, 48000, 2)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConverter: %v", err)
			}
			if c.InputRate() != 44100 || c.OutputRate() != 48000 {
				t.Errorf("rates = %d -> %d", c.InputRate(), c.OutputRate())
			}
		})
	}
}

func TestHighKeepsChannelsApart(t *testing.T) {
	const (
		in       = 44100
		out      = 48000
		channels = 2
		chunk    = 4410
		left     = 4000000
		right    = -4000000
	)
	h, err := NewHigh(in, out, channels)
	if err != nil {
		t.Fatalf("NewHigh: %v", err)
	}

	var got []int32
	for c := 0; c < 10; c++ {
		block := make([]int32, chunk*channels)
		for i := 0; i < chunk; i++ {
			block[i*channels] = left
			block[i*channels+1] = right
		}
		samples, err := h.Convert(block)
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if len(samples)%channels != 0 {
			t.Fatalf("output not frame aligned: %d samples", len(samples))
		}
		got = append(got, samples...)
	}
	tail, err := h.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got = append(got, tail...)

	// One second in, about one second out once the tail is flushed
	frames := len(got) / channels
	if frames < out*98/100 || frames > out*102/100 {
		t.Errorf("produced %d frames for one second of input, want about %d", frames, out)
	}

	mid := frames / 2
	l, r := got[mid*channels], got[mid*channels+1]
	if math.Abs(float64(l-left)) > left/50 || math.Abs(float64(r-right)) > left/50 {
		t.Errorf("mid frame L=%d R=%d, want about %d/%d", l, r, left, right)
	}
}

func TestLinearConverterFlush(t *testing.T) {
	c, err := NewConverter(QualityLinear, 48000, 48000, 2)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	out, err := c.Convert(ramp(0, 10, 2))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	tail, err := c.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	out = append(out, tail...)

	want := ramp(0, 10, 2)
	if len(out) != len(want) {
		t.Fatalf("got %d samples, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestHighRejectsBadRates(t *testing.T) {
	if _, err := NewHigh(0, 48000, 2); err == nil {
		t.Error("expected error for zero input rate")
	}
	if _, err := NewHigh(44100, 48000, 0); err == nil {
		t.Error("expected error for zero channels")
	}
}
