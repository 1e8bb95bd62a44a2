// ABOUTME: Packet assembler: rebuilds codec packets from one stream's pages
// ABOUTME: Joins segments across pages and drops packets that span a sequence gap
package ogg

// DefaultMaxPacketSize bounds the memory a single packet may occupy.
const DefaultMaxPacketSize = 16 << 20

// Packet is a reassembled application-level payload.
type Packet struct {
	Data   []byte
	Serial uint32
	// GranulePos is the granule position of the page on which the packet
	// completed, or -1 when a later packet completed on the same page.
	GranulePos int64
	// Sequence is the sequence number of the page the packet completed on.
	Sequence uint32
	// Number counts packets within the stream, starting at zero.
	Number int64
	BOS    bool
	EOS    bool
}

// Assembler reassembles packets for a single logical stream. Pages for any
// other serial are counted and ignored.
type Assembler struct {
	// MaxPacketSize caps a packet's length; longer packets are discarded.
	MaxPacketSize int

	serial  uint32
	bound   bool
	started bool
	nextSeq uint32
	ended   bool

	partial     []byte
	havePartial bool
	number      int64
	ready       []Packet

	foreign  int64
	lost     int64
	stale    int64
	accepted int64
}

// NewAssembler returns an assembler that binds to the serial of the first
// page it accepts.
func NewAssembler() *Assembler {
	return &Assembler{MaxPacketSize: DefaultMaxPacketSize}
}

// NewAssemblerForSerial returns an assembler bound to serial.
func NewAssemblerForSerial(serial uint32) *Assembler {
	return &Assembler{MaxPacketSize: DefaultMaxPacketSize, serial: serial, bound: true}
}

// Serial returns the bound serial and whether binding has happened.
func (a *Assembler) Serial() (uint32, bool) {
	return a.serial, a.bound
}

// Ended reports whether the stream's last page has been accepted.
func (a *Assembler) Ended() bool {
	return a.ended
}

// Foreign returns how many pages were ignored because they belong to
// another logical stream or follow the last page.
func (a *Assembler) Foreign() int64 {
	return a.foreign
}

// Lost returns how many partially assembled packets were discarded.
func (a *Assembler) Lost() int64 {
	return a.lost
}

// Stale returns how many duplicate or out-of-order pages were dropped.
func (a *Assembler) Stale() int64 {
	return a.stale
}

// Accepted returns how many pages of the bound stream were assembled.
func (a *Assembler) Accepted() int64 {
	return a.accepted
}

// Accept feeds one page. It returns a *SequenceGapError when the page skips
// ahead of the expected sequence number; the page is still assembled, minus
// any leading segments that continue a packet from before the gap. A page
// at or behind the last accepted one yields a *StalePageError and is
// dropped.
func (a *Assembler) Accept(p *Page) error {
	if !a.bound {
		a.serial = p.Serial
		a.bound = true
	}
	if p.Serial != a.serial || a.ended {
		a.foreign++
		return nil
	}

	// Pages at or behind the last accepted one were already assembled.
	// Serial arithmetic keeps this correct across sequence wraparound.
	if a.started && int32(p.Sequence-a.nextSeq) < 0 {
		a.stale++
		return &StalePageError{Serial: a.serial, Expected: a.nextSeq, Got: p.Sequence}
	}

	var err error
	if a.started && p.Sequence != a.nextSeq {
		err = &SequenceGapError{Serial: a.serial, Expected: a.nextSeq, Got: p.Sequence}
		a.dropPartial()
	}
	a.started = true
	a.nextSeq = p.Sequence + 1
	a.accepted++

	// skipping is true while segments belong to a packet we cannot use.
	skipping := false
	if p.ContinuesPacket() {
		skipping = !a.havePartial
	} else if a.havePartial {
		a.dropPartial()
	}

	limit := a.MaxPacketSize
	if limit <= 0 {
		limit = DefaultMaxPacketSize
	}

	first := len(a.ready)
	offset := 0
	for _, lace := range p.Segments {
		n := int(lace)
		seg := p.Body[offset : offset+n]
		offset += n

		if skipping {
			if n < MaxSegmentSize {
				skipping = false
			}
			continue
		}

		if len(a.partial)+n > limit {
			size := len(a.partial) + n
			a.dropPartial()
			skipping = n == MaxSegmentSize
			if err == nil {
				err = &PacketTooLargeError{Serial: a.serial, Size: size, Limit: limit}
			}
			continue
		}

		a.partial = append(a.partial, seg...)
		a.havePartial = true
		if n < MaxSegmentSize {
			a.emit(p, false)
		}
	}

	if p.IsLast() {
		if a.havePartial {
			a.emit(p, true)
		}
		if len(a.ready) > first {
			a.ready[len(a.ready)-1].EOS = true
		}
		a.ended = true
	}

	// Only the last packet completed on a page carries its granule.
	if len(a.ready) > first {
		a.ready[len(a.ready)-1].GranulePos = p.GranulePos
	}
	return err
}

// Drain returns the packets completed so far, in order, and forgets them.
func (a *Assembler) Drain() []Packet {
	if len(a.ready) == 0 {
		return nil
	}
	out := a.ready
	a.ready = nil
	return out
}

func (a *Assembler) emit(p *Page, eos bool) {
	a.ready = append(a.ready, Packet{
		Data:       a.partial,
		Serial:     a.serial,
		GranulePos: -1,
		Sequence:   p.Sequence,
		Number:     a.number,
		BOS:        a.number == 0,
		EOS:        eos,
	})
	a.number++
	a.partial = nil
	a.havePartial = false
}

func (a *Assembler) dropPartial() {
	if a.havePartial {
		a.lost++
	}
	a.partial = nil
	a.havePartial = false
}
