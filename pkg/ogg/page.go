// ABOUTME: Ogg page model and byte-level encoding
// ABOUTME: Parses validated page bytes and serializes pages with lacing and CRC
package ogg

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed part of a page header, before the segment table.
	HeaderSize = 27
	// MaxSegmentSize is the largest lacing value; a segment of this size
	// means the packet continues into the next segment.
	MaxSegmentSize = 255
	// MaxSegments is the largest segment table.
	MaxSegments = 255
	// MaxPageSize is the largest possible page.
	MaxPageSize = HeaderSize + MaxSegments + MaxSegments*MaxSegmentSize
)

// Header type flags.
const (
	FlagContinued byte = 0x01
	FlagFirst     byte = 0x02
	FlagLast      byte = 0x04
)

var capturePattern = []byte("OggS")

// Page is a single framed, checksummed unit of an Ogg stream.
type Page struct {
	Version    byte
	HeaderType byte
	GranulePos int64
	Serial     uint32
	Sequence   uint32
	Checksum   uint32
	Segments   []byte // lacing values
	Body       []byte
}

// IsFirst reports whether this is the first page of its logical stream.
func (p *Page) IsFirst() bool { return p.HeaderType&FlagFirst != 0 }

// IsLast reports whether this is the last page of its logical stream.
func (p *Page) IsLast() bool { return p.HeaderType&FlagLast != 0 }

// ContinuesPacket reports whether the first segment continues a packet
// begun on an earlier page.
func (p *Page) ContinuesPacket() bool { return p.HeaderType&FlagContinued != 0 }

// Size returns the encoded size of the page in bytes.
func (p *Page) Size() int {
	return HeaderSize + len(p.Segments) + len(p.Body)
}

// Encode serializes the page and fills in its checksum.
func (p *Page) Encode() ([]byte, error) {
	if len(p.Segments) > MaxSegments {
		return nil, fmt.Errorf("ogg: %d segments exceeds %d", len(p.Segments), MaxSegments)
	}
	bodyLen := 0
	for _, s := range p.Segments {
		bodyLen += int(s)
	}
	if bodyLen != len(p.Body) {
		return nil, fmt.Errorf("ogg: segment table describes %d bytes, body has %d", bodyLen, len(p.Body))
	}

	buf := make([]byte, p.Size())
	copy(buf[0:4], capturePattern)
	buf[4] = p.Version
	buf[5] = p.HeaderType
	binary.LittleEndian.PutUint64(buf[6:14], uint64(p.GranulePos))
	binary.LittleEndian.PutUint32(buf[14:18], p.Serial)
	binary.LittleEndian.PutUint32(buf[18:22], p.Sequence)
	buf[26] = byte(len(p.Segments))
	copy(buf[HeaderSize:], p.Segments)
	copy(buf[HeaderSize+len(p.Segments):], p.Body)

	p.Checksum = pageChecksum(buf)
	binary.LittleEndian.PutUint32(buf[22:26], p.Checksum)
	return buf, nil
}

// parsePage builds a Page from raw bytes that the synchronizer has already
// framed and checksummed. The returned page owns copies of its slices.
func parsePage(raw []byte) *Page {
	nseg := int(raw[26])
	segs := make([]byte, nseg)
	copy(segs, raw[HeaderSize:HeaderSize+nseg])
	body := make([]byte, len(raw)-HeaderSize-nseg)
	copy(body, raw[HeaderSize+nseg:])

	return &Page{
		Version:    raw[4],
		HeaderType: raw[5],
		GranulePos: int64(binary.LittleEndian.Uint64(raw[6:14])),
		Serial:     binary.LittleEndian.Uint32(raw[14:18]),
		Sequence:   binary.LittleEndian.Uint32(raw[18:22]),
		Checksum:   binary.LittleEndian.Uint32(raw[22:26]),
		Segments:   segs,
		Body:       body,
	}
}

// Lacing returns the segment table for a packet of n bytes. A packet whose
// length is a multiple of 255 gets a trailing zero-length segment.
func Lacing(n int) []byte {
	segs := make([]byte, 0, n/MaxSegmentSize+1)
	for n >= MaxSegmentSize {
		segs = append(segs, MaxSegmentSize)
		n -= MaxSegmentSize
	}
	return append(segs, byte(n))
}
