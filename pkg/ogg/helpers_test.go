// ABOUTME: Shared helpers for ogg package tests
// ABOUTME: Builds synthetic streams and records page boundaries
package ogg

import (
	"bytes"
	"testing"
)

// pageRecorder captures each page the Writer emits as a separate slice.
type pageRecorder struct {
	pages [][]byte
}

func (r *pageRecorder) Write(p []byte) (int, error) {
	r.pages = append(r.pages, append([]byte(nil), p...))
	return len(p), nil
}

func (r *pageRecorder) joined() []byte {
	return bytes.Join(r.pages, nil)
}

// fill returns n bytes of value b.
func fill(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

// onePacketPerPage writes each packet on its own page and closes the stream
// when last is true.
func onePacketPerPage(t *testing.T, packets [][]byte, last bool) *pageRecorder {
	t.Helper()
	rec := &pageRecorder{}
	w := NewWriter(rec, 0x1234)
	for i, p := range packets {
		if err := w.WritePacket(p, int64(i+1)*100); err != nil {
			t.Fatalf("WritePacket %d: %v", i, err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush %d: %v", i, err)
		}
	}
	if last {
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	return rec
}

func testPackets(n int) [][]byte {
	packets := make([][]byte, n)
	for i := range packets {
		packets[i] = fill(byte(i+1), 40+i*30)
	}
	return packets
}

// rawPage builds an unencoded page for assembler tests.
func rawPage(serial, seq uint32, flags byte, segs []byte, fillByte byte) *Page {
	total := 0
	for _, s := range segs {
		total += int(s)
	}
	return &Page{
		HeaderType: flags,
		GranulePos: int64(seq) * 10,
		Serial:     serial,
		Sequence:   seq,
		Segments:   segs,
		Body:       fill(fillByte, total),
	}
}
