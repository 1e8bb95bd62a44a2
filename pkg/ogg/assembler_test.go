// ABOUTME: Tests for the packet assembler
// ABOUTME: Covers multi-page packets, sequence gaps and end-of-stream handling
package ogg

import (
	"bytes"
	"errors"
	"testing"
)

// parseAll frames every page in stream.
func parseAll(t *testing.T, stream []byte) []*Page {
	t.Helper()
	s := NewSync()
	s.Feed(stream)
	s.SetEOF()
	var pages []*Page
	for {
		p, err := s.NextPage()
		if err != nil {
			break
		}
		pages = append(pages, p)
	}
	return pages
}

func TestAssemblerPacketSpanningPages(t *testing.T) {
	rec := &pageRecorder{}
	w := NewWriter(rec, 7)
	w.MaxSegments = 2

	big := make([]byte, 1000)
	for i := range big {
		big[i] = byte(i)
	}
	small := fill(9, 10)
	if err := w.WritePacket(big, 100); err != nil {
		t.Fatal(err)
	}
	if err := w.WritePacket(small, 200); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	pages := parseAll(t, rec.joined())
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if !pages[1].ContinuesPacket() {
		t.Error("second page should continue the first packet")
	}
	if pages[0].GranulePos != -1 {
		t.Errorf("page with no completed packet has granule %d", pages[0].GranulePos)
	}

	a := NewAssembler()
	var packets []Packet
	for _, p := range pages {
		if err := a.Accept(p); err != nil {
			t.Fatalf("Accept: %v", err)
		}
		packets = append(packets, a.Drain()...)
	}

	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}
	if !bytes.Equal(packets[0].Data, big) || !bytes.Equal(packets[1].Data, small) {
		t.Error("packet contents differ from input")
	}
	if !packets[0].BOS || packets[0].EOS {
		t.Errorf("first packet flags: bos=%v eos=%v", packets[0].BOS, packets[0].EOS)
	}
	if !packets[1].EOS {
		t.Error("last packet should carry EOS")
	}
	if packets[0].GranulePos != 100 || packets[1].GranulePos != 200 {
		t.Errorf("granules %d, %d", packets[0].GranulePos, packets[1].GranulePos)
	}
	if !a.Ended() {
		t.Error("assembler should report end of stream")
	}
}

func TestAssemblerSequenceGap(t *testing.T) {
	for _, k := range []int{1, 2, 3} {
		packets := testPackets(8)
		rec := onePacketPerPage(t, packets, false)
		pages := parseAll(t, rec.joined())

		a := NewAssembler()
		var gaps int
		var got [][]byte
		for i, p := range pages {
			if i >= 3 && i < 3+k {
				continue
			}
			err := a.Accept(p)
			var ge *SequenceGapError
			if errors.As(err, &ge) {
				gaps++
				if ge.Expected != 3 || ge.Got != uint32(3+k) {
					t.Errorf("k=%d: gap expected=%d got=%d", k, ge.Expected, ge.Got)
				}
			} else if err != nil {
				t.Fatalf("k=%d: Accept: %v", k, err)
			}
			for _, pkt := range a.Drain() {
				got = append(got, pkt.Data)
			}
		}

		if gaps != 1 {
			t.Errorf("k=%d: got %d gap errors, want exactly 1", k, gaps)
		}
		if len(got) != len(packets)-k {
			t.Fatalf("k=%d: got %d packets, want %d", k, len(got), len(packets)-k)
		}
		want := append(append([][]byte{}, packets[:3]...), packets[3+k:]...)
		for i := range want {
			if !bytes.Equal(got[i], want[i]) {
				t.Errorf("k=%d: packet %d differs", k, i)
			}
		}
	}
}

func TestAssemblerGapDiscardsSpanningPacket(t *testing.T) {
	const serial = 1
	pages := []*Page{
		rawPage(serial, 0, FlagFirst, []byte{20}, 1),
		rawPage(serial, 1, 0, []byte{255}, 2),
		rawPage(serial, 2, FlagContinued, []byte{255}, 2),
		rawPage(serial, 3, FlagContinued, []byte{10, 5}, 3),
	}

	a := NewAssembler()
	var got []Packet
	var gaps int
	for i, p := range pages {
		if i == 2 {
			continue
		}
		if err := a.Accept(p); err != nil {
			var ge *SequenceGapError
			if !errors.As(err, &ge) {
				t.Fatalf("unexpected error: %v", err)
			}
			gaps++
		}
		got = append(got, a.Drain()...)
	}

	if gaps != 1 {
		t.Fatalf("expected 1 gap, got %d", gaps)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(got))
	}
	if len(got[0].Data) != 20 || len(got[1].Data) != 5 {
		t.Errorf("packet sizes %d, %d; want 20, 5", len(got[0].Data), len(got[1].Data))
	}
	if a.Lost() != 1 {
		t.Errorf("lost %d partial packets, want 1", a.Lost())
	}
}

func TestAssemblerDropsStalePages(t *testing.T) {
	tests := []struct {
		name   string
		replay int // index of the page fed a second time, after page 2
	}{
		{"duplicate of last page", 2},
		{"older page", 1},
		{"first page", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packets := testPackets(5)
			pages := parseAll(t, onePacketPerPage(t, packets, true).joined())

			order := []*Page{pages[0], pages[1], pages[2], pages[tt.replay]}
			order = append(order, pages[3:]...)

			a := NewAssembler()
			var got [][]byte
			var stale int
			for _, p := range order {
				err := a.Accept(p)
				var se *StalePageError
				switch {
				case errors.As(err, &se):
					stale++
					if se.Expected != 3 || se.Got != uint32(tt.replay) {
						t.Errorf("stale expected=%d got=%d", se.Expected, se.Got)
					}
				case err != nil:
					t.Fatalf("Accept: %v", err)
				}
				for _, pkt := range a.Drain() {
					got = append(got, pkt.Data)
				}
			}

			if stale != 1 || a.Stale() != 1 {
				t.Errorf("stale errors=%d counter=%d, want 1", stale, a.Stale())
			}
			if len(got) != len(packets) {
				t.Fatalf("got %d packets, want %d", len(got), len(packets))
			}
			for i := range packets {
				if !bytes.Equal(got[i], packets[i]) {
					t.Errorf("packet %d differs", i)
				}
			}
		})
	}
}

func TestAssemblerStalePageKeepsPartial(t *testing.T) {
	const serial = 1
	a := NewAssembler()
	pages := []*Page{
		rawPage(serial, 0, FlagFirst, []byte{20}, 1),
		rawPage(serial, 1, 0, []byte{255}, 2),
		rawPage(serial, 1, 0, []byte{255}, 2),
		rawPage(serial, 2, FlagContinued, []byte{10}, 2),
	}
	var got []Packet
	for i, p := range pages {
		err := a.Accept(p)
		var se *StalePageError
		if i == 2 {
			if !errors.As(err, &se) {
				t.Fatalf("duplicate page: got %v, want StalePageError", err)
			}
		} else if err != nil {
			t.Fatalf("Accept page %d: %v", i, err)
		}
		got = append(got, a.Drain()...)
	}

	if len(got) != 2 || len(got[1].Data) != 265 {
		t.Fatalf("got %d packets, want 2 with the second 265 bytes", len(got))
	}
	if a.Lost() != 0 {
		t.Errorf("lost %d partial packets, want 0", a.Lost())
	}
}

func TestAssemblerSequenceWraparound(t *testing.T) {
	const serial = 1
	a := NewAssembler()
	pages := []*Page{
		rawPage(serial, 0xFFFFFFFE, FlagFirst, []byte{10}, 1),
		rawPage(serial, 0xFFFFFFFF, 0, []byte{10}, 2),
		rawPage(serial, 0, 0, []byte{10}, 3),
	}
	for i, p := range pages {
		if err := a.Accept(p); err != nil {
			t.Fatalf("Accept page %d: %v", i, err)
		}
	}
	if n := len(a.Drain()); n != 3 {
		t.Errorf("got %d packets, want 3", n)
	}
	if err := a.Accept(rawPage(serial, 0xFFFFFFFF, 0, []byte{10}, 2)); err == nil {
		t.Error("page from before the wrap should be stale")
	}
}

func TestAssemblerNonContinuedPageDropsPartial(t *testing.T) {
	a := NewAssembler()
	if err := a.Accept(rawPage(1, 0, FlagFirst, []byte{255}, 1)); err != nil {
		t.Fatal(err)
	}
	if err := a.Accept(rawPage(1, 1, 0, []byte{7}, 2)); err != nil {
		t.Fatal(err)
	}
	got := a.Drain()
	if len(got) != 1 || len(got[0].Data) != 7 {
		t.Fatalf("expected single 7-byte packet, got %+v", got)
	}
	if a.Lost() != 1 {
		t.Errorf("lost = %d, want 1", a.Lost())
	}
}

func TestAssemblerExactMultipleOf255(t *testing.T) {
	a := NewAssembler()
	if err := a.Accept(rawPage(1, 0, FlagFirst, []byte{255, 0, 3}, 4)); err != nil {
		t.Fatal(err)
	}
	got := a.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(got))
	}
	if len(got[0].Data) != 255 || len(got[1].Data) != 3 {
		t.Errorf("sizes %d, %d", len(got[0].Data), len(got[1].Data))
	}
	if got[0].GranulePos != -1 || got[1].GranulePos != 0 {
		t.Errorf("granules %d, %d; only the last packet carries the page granule", got[0].GranulePos, got[1].GranulePos)
	}
}

func TestAssemblerUnterminatedPacketOnLastPage(t *testing.T) {
	a := NewAssembler()
	if err := a.Accept(rawPage(1, 0, FlagFirst|FlagLast, []byte{255}, 8)); err != nil {
		t.Fatal(err)
	}
	got := a.Drain()
	if len(got) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(got))
	}
	if len(got[0].Data) != 255 || !got[0].EOS || !got[0].BOS {
		t.Errorf("packet len=%d bos=%v eos=%v", len(got[0].Data), got[0].BOS, got[0].EOS)
	}
}

func TestAssemblerIgnoresOtherSerials(t *testing.T) {
	a := NewAssembler()
	if err := a.Accept(rawPage(1, 0, FlagFirst, []byte{5}, 1)); err != nil {
		t.Fatal(err)
	}
	if err := a.Accept(rawPage(2, 0, FlagFirst, []byte{5}, 2)); err != nil {
		t.Fatal(err)
	}
	if err := a.Accept(rawPage(1, 1, 0, []byte{6}, 3)); err != nil {
		t.Fatalf("interleaved foreign page caused %v", err)
	}
	got := a.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(got))
	}
	if a.Foreign() != 1 {
		t.Errorf("foreign = %d, want 1", a.Foreign())
	}
	if serial, ok := a.Serial(); !ok || serial != 1 {
		t.Errorf("bound to %d (%v), want 1", serial, ok)
	}
}

func TestAssemblerForSerial(t *testing.T) {
	a := NewAssemblerForSerial(2)
	_ = a.Accept(rawPage(1, 0, FlagFirst, []byte{5}, 1))
	_ = a.Accept(rawPage(2, 0, FlagFirst, []byte{6}, 2))
	got := a.Drain()
	if len(got) != 1 || got[0].Serial != 2 {
		t.Fatalf("expected one packet from serial 2, got %+v", got)
	}
}

func TestAssemblerPacketTooLarge(t *testing.T) {
	a := NewAssembler()
	a.MaxPacketSize = 300
	err := a.Accept(rawPage(1, 0, FlagFirst, []byte{255, 255, 10, 5}, 1))
	var pe *PacketTooLargeError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PacketTooLargeError, got %v", err)
	}
	if !IsRecoverable(err) {
		t.Error("oversized packet should be recoverable")
	}
	got := a.Drain()
	if len(got) != 1 || len(got[0].Data) != 5 {
		t.Fatalf("expected the following 5-byte packet, got %+v", got)
	}
}

func TestAssemblerDrainEmpty(t *testing.T) {
	a := NewAssembler()
	if got := a.Drain(); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
