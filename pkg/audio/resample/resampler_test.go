// ABOUTME: Tests for the streaming resampler
// ABOUTME: Checks continuity across blocks and output rate ratios
package resample

import (
	"testing"
)

func ramp(start, frames, channels int) []int32 {
	out := make([]int32, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = int32((start+i)*100 + ch)
		}
	}
	return out
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name          string
		in, out, chns int
	}{
		{"zero input rate", 0, 48000, 2},
		{"negative output rate", 44100, -1, 2},
		{"zero channels", 44100, 48000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.in, tt.out, tt.chns); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIdentityAcrossBlocks(t *testing.T) {
	r, err := New(48000, 48000, 2)
	if err != nil {
		t.Fatal(err)
	}

	var got []int32
	got = append(got, r.Process(ramp(0, 10, 2))...)
	got = append(got, r.Process(ramp(10, 10, 2))...)

	want := ramp(0, 19, 2)
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestUpsampleInterpolates(t *testing.T) {
	r, err := New(24000, 48000, 1)
	if err != nil {
		t.Fatal(err)
	}
	out := r.Process([]int32{0, 100, 200})
	want := []int32{0, 50, 100, 150}
	if len(out) != len(want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], out[i])
		}
	}
}

func TestDownsampleRatio(t *testing.T) {
	r, err := New(48000, 24000, 2)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for i := 0; i < 10; i++ {
		total += len(r.Process(ramp(i*100, 100, 2)))
	}
	// 1000 input frames at half rate, minus the one-frame lag.
	if frames := total / 2; frames < 499 || frames > 500 {
		t.Errorf("expected about 500 output frames, got %d", frames)
	}
}

func TestResetAndEmptyInput(t *testing.T) {
	r, err := New(44100, 48000, 2)
	if err != nil {
		t.Fatal(err)
	}
	if out := r.Process(nil); out != nil {
		t.Errorf("expected nil for empty input, got %v", out)
	}
	r.Process(ramp(0, 50, 2))
	r.Reset()
	if r.primed || r.position != 0 {
		t.Error("Reset did not clear state")
	}
	if r.InputRate() != 44100 || r.OutputRate() != 48000 {
		t.Error("rate accessors wrong")
	}
}
