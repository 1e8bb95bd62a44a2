// ABOUTME: Demuxer pulling pages and packets for one logical stream from a reader
// ABOUTME: Absorbs recoverable framing errors and maps stalled reads to truncation
package ogg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
)

// DefaultReadSize is the chunk size requested from the underlying reader.
const DefaultReadSize = 4096

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// DemuxStats counts what the demuxer has seen and recovered from.
type DemuxStats struct {
	Pages            int64
	Packets          int64
	Resyncs          int64
	SkippedBytes     int64
	CorruptPages     int64
	Gaps             int64
	StalePages       int64
	ForeignPages     int64
	LostPackets      int64
	OversizedPackets int64
}

// DemuxerOption configures a Demuxer.
type DemuxerOption func(*Demuxer)

// WithReadSize sets the read chunk size.
func WithReadSize(n int) DemuxerOption {
	return func(d *Demuxer) {
		if n > 0 {
			d.readSize = n
		}
	}
}

// WithSerial binds the demuxer to one logical stream instead of the first
// one it encounters.
func WithSerial(serial uint32) DemuxerOption {
	return func(d *Demuxer) {
		d.asm = NewAssemblerForSerial(serial)
	}
}

// WithMaxPacketSize caps reassembled packet length.
func WithMaxPacketSize(n int) DemuxerOption {
	return func(d *Demuxer) {
		d.maxPacket = n
	}
}

// WithEventHandler registers a callback for every recoverable error the
// demuxer absorbs.
func WithEventHandler(fn func(error)) DemuxerOption {
	return func(d *Demuxer) {
		d.onEvent = fn
	}
}

// Demuxer reads an Ogg byte stream and yields pages or packets. Use either
// NextPage or NextPacket on a given demuxer, not both.
type Demuxer struct {
	r         io.Reader
	sync      *Sync
	asm       *Assembler
	readSize  int
	maxPacket int
	buf       []byte
	pending   []Packet
	empties   int
	onEvent   func(error)

	mu    sync.Mutex
	stats DemuxStats
}

// NewDemuxer wraps r.
func NewDemuxer(r io.Reader, opts ...DemuxerOption) *Demuxer {
	d := &Demuxer{
		r:        r,
		sync:     NewSync(),
		asm:      NewAssembler(),
		readSize: DefaultReadSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxPacket > 0 {
		d.asm.MaxPacketSize = d.maxPacket
	}
	d.buf = make([]byte, d.readSize)
	return d
}

// Stats returns a snapshot of the counters. Safe for concurrent use.
func (d *Demuxer) Stats() DemuxStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Serial returns the logical stream the demuxer is bound to, if any.
func (d *Demuxer) Serial() (uint32, bool) {
	return d.asm.Serial()
}

// NextPage returns the next valid page of any stream. It returns io.EOF at
// a clean end of input and *TruncatedStreamError when input ends mid-page.
func (d *Demuxer) NextPage(ctx context.Context) (*Page, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := d.sync.NextPage()
		switch {
		case err == nil:
			d.mu.Lock()
			d.stats.Pages++
			d.mu.Unlock()
			return page, nil
		case errors.Is(err, ErrNeedMore):
			if err := d.fill(); err != nil {
				return nil, err
			}
		case errors.Is(err, io.EOF):
			return nil, io.EOF
		case IsRecoverable(err):
			d.note(err)
		default:
			return nil, err
		}
	}
}

// NextPacket returns the next complete packet of the bound stream. The
// stream ends with io.EOF after its last page or at a clean end of input.
func (d *Demuxer) NextPacket(ctx context.Context) (Packet, error) {
	for {
		if len(d.pending) > 0 {
			pkt := d.pending[0]
			d.pending = d.pending[1:]
			d.mu.Lock()
			d.stats.Packets++
			d.mu.Unlock()
			return pkt, nil
		}
		if d.asm.Ended() {
			return Packet{}, io.EOF
		}

		page, err := d.NextPage(ctx)
		if err != nil {
			return Packet{}, err
		}

		err = d.asm.Accept(page)
		d.mu.Lock()
		d.stats.ForeignPages = d.asm.Foreign()
		d.stats.LostPackets = d.asm.Lost()
		d.mu.Unlock()
		if err != nil {
			if !IsRecoverable(err) {
				return Packet{}, err
			}
			d.note(err)
		}
		d.pending = append(d.pending, d.asm.Drain()...)
	}
}

func (d *Demuxer) fill() error {
	n, err := d.r.Read(d.buf)
	if n > 0 {
		d.sync.Feed(d.buf[:n])
		d.empties = 0
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			d.sync.SetEOF()
			return nil
		}
		if isTimeout(err) {
			return &TruncatedStreamError{Buffered: d.sync.Buffered(), Err: err}
		}
		return fmt.Errorf("ogg: read: %w", err)
	}
	if n == 0 {
		d.empties++
		if d.empties >= maxEmptyReads {
			return io.ErrNoProgress
		}
	}
	return nil
}

func (d *Demuxer) note(err error) {
	var (
		fe *FramingError
		ce *CorruptPageError
		ge *SequenceGapError
		se *StalePageError
		pe *PacketTooLargeError
	)
	d.mu.Lock()
	switch {
	case errors.As(err, &fe):
		d.stats.Resyncs++
		d.stats.SkippedBytes += int64(fe.Skipped)
	case errors.As(err, &ce):
		d.stats.CorruptPages++
		d.stats.SkippedBytes += int64(ce.Skipped)
	case errors.As(err, &ge):
		d.stats.Gaps++
	case errors.As(err, &se):
		d.stats.StalePages++
	case errors.As(err, &pe):
		d.stats.OversizedPackets++
	}
	d.mu.Unlock()

	log.Printf("[ogg] %v", err)
	if d.onEvent != nil {
		d.onEvent(err)
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
