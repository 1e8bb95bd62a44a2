// ABOUTME: Tests for the demuxer
// ABOUTME: Covers recovery accounting, read timeouts, stalls and cancellation
package ogg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func collectPackets(t *testing.T, d *Demuxer) ([][]byte, error) {
	t.Helper()
	var out [][]byte
	for {
		pkt, err := d.NextPacket(context.Background())
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
		out = append(out, pkt.Data)
	}
}

func TestDemuxerCleanStream(t *testing.T) {
	packets := testPackets(5)
	rec := onePacketPerPage(t, packets, true)

	d := NewDemuxer(iotest.OneByteReader(bytes.NewReader(rec.joined())), WithReadSize(7))
	got, err := collectPackets(t, d)
	if err != nil {
		t.Fatalf("demux: %v", err)
	}
	if len(got) != len(packets) {
		t.Fatalf("got %d packets, want %d", len(got), len(packets))
	}
	for i := range packets {
		if !bytes.Equal(got[i], packets[i]) {
			t.Errorf("packet %d differs", i)
		}
	}

	stats := d.Stats()
	if stats.Packets != 5 || stats.Resyncs != 0 || stats.CorruptPages != 0 || stats.Gaps != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestDemuxerDuplicatedPage(t *testing.T) {
	packets := testPackets(4)
	rec := onePacketPerPage(t, packets, true)

	var stream []byte
	for i, page := range rec.pages {
		stream = append(stream, page...)
		if i == 1 {
			stream = append(stream, page...)
		}
	}

	d := NewDemuxer(bytes.NewReader(stream))
	got, err := collectPackets(t, d)
	if err != nil {
		t.Fatalf("demux: %v", err)
	}
	if len(got) != len(packets) {
		t.Fatalf("got %d packets, want %d", len(got), len(packets))
	}
	for i := range packets {
		if !bytes.Equal(got[i], packets[i]) {
			t.Errorf("packet %d differs", i)
		}
	}

	stats := d.Stats()
	if stats.StalePages != 1 || stats.Gaps != 0 {
		t.Errorf("stale=%d gaps=%d, want 1 and 0", stats.StalePages, stats.Gaps)
	}
}

func TestDemuxerCorruptPageRecovery(t *testing.T) {
	packets := testPackets(5)
	rec := onePacketPerPage(t, packets, false)
	rec.pages[2] = append([]byte(nil), rec.pages[2]...)
	rec.pages[2][30] ^= 0x01

	var events []error
	d := NewDemuxer(bytes.NewReader(rec.joined()), WithEventHandler(func(err error) {
		events = append(events, err)
	}))
	got, err := collectPackets(t, d)
	if err != nil {
		t.Fatalf("demux: %v", err)
	}

	want := [][]byte{packets[0], packets[1], packets[3], packets[4]}
	if len(got) != len(want) {
		t.Fatalf("got %d packets, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("packet %d differs", i)
		}
	}

	stats := d.Stats()
	if stats.CorruptPages != 1 {
		t.Errorf("corrupt pages = %d, want 1", stats.CorruptPages)
	}
	if stats.Gaps != 1 {
		t.Errorf("gaps = %d, want 1", stats.Gaps)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d: %v", len(events), events)
	}
}

func TestDemuxerLeadingGarbage(t *testing.T) {
	packets := testPackets(2)
	rec := onePacketPerPage(t, packets, true)
	input := append([]byte("not an ogg prefix"), rec.joined()...)

	d := NewDemuxer(bytes.NewReader(input))
	got, err := collectPackets(t, d)
	if err != nil {
		t.Fatalf("demux: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d packets", len(got))
	}
	if s := d.Stats(); s.Resyncs != 1 || s.SkippedBytes != int64(len("not an ogg prefix")) {
		t.Errorf("stats: %+v", s)
	}
}

func TestDemuxerTruncatedMidPage(t *testing.T) {
	rec := onePacketPerPage(t, testPackets(3), false)
	stream := rec.joined()
	stream = stream[:len(stream)-10]

	d := NewDemuxer(bytes.NewReader(stream))
	got, err := collectPackets(t, d)
	var te *TruncatedStreamError
	if !errors.As(err, &te) {
		t.Fatalf("expected TruncatedStreamError, got %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d packets before truncation, want 2", len(got))
	}
}

func TestDemuxerReadTimeout(t *testing.T) {
	rec := onePacketPerPage(t, testPackets(1), false)
	d := NewDemuxer(&timeoutAfter{r: bytes.NewReader(rec.pages[0])})

	pkt, err := d.NextPacket(context.Background())
	if err != nil {
		t.Fatalf("first packet: %v", err)
	}
	if len(pkt.Data) != len(testPackets(1)[0]) {
		t.Errorf("packet length %d", len(pkt.Data))
	}

	_, err = d.NextPacket(context.Background())
	var te *TruncatedStreamError
	if !errors.As(err, &te) {
		t.Fatalf("expected TruncatedStreamError on timeout, got %v", err)
	}
	if !isTimeout(te.Err) {
		t.Errorf("wrapped error should be the timeout, got %v", te.Err)
	}
}

func TestDemuxerNoProgress(t *testing.T) {
	d := NewDemuxer(emptyReader{})
	_, err := d.NextPacket(context.Background())
	if !errors.Is(err, io.ErrNoProgress) {
		t.Fatalf("expected io.ErrNoProgress, got %v", err)
	}
}

func TestDemuxerCanceled(t *testing.T) {
	rec := onePacketPerPage(t, testPackets(2), true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDemuxer(bytes.NewReader(rec.joined()))
	if _, err := d.NextPacket(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDemuxerNextPage(t *testing.T) {
	rec := onePacketPerPage(t, testPackets(3), true)
	d := NewDemuxer(bytes.NewReader(rec.joined()))

	var n int
	for {
		_, err := d.NextPage(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPage: %v", err)
		}
		n++
	}
	if n != len(rec.pages) {
		t.Errorf("got %d pages, want %d", n, len(rec.pages))
	}
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, nil }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "read timed out" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

// timeoutAfter returns the wrapped reader's bytes, then a timeout error.
type timeoutAfter struct {
	r io.Reader
}

func (t *timeoutAfter) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err == io.EOF {
		return n, timeoutErr{}
	}
	return n, err
}
