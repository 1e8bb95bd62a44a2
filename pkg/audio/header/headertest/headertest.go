// ABOUTME: Builders for synthetic Vorbis and Opus header packets
// ABOUTME: Used by tests across packages to assemble minimal valid streams
package headertest

import (
	"encoding/binary"
)

// VorbisIdentification returns a valid identification header with
// blocksizes 256/2048.
func VorbisIdentification(channels, rate int) []byte {
	b := make([]byte, 30)
	b[0] = 1
	copy(b[1:7], "vorbis")
	binary.LittleEndian.PutUint32(b[7:11], 0)
	b[11] = byte(channels)
	binary.LittleEndian.PutUint32(b[12:16], uint32(rate))
	binary.LittleEndian.PutUint32(b[20:24], 128000)
	b[28] = 0xB8 // bs0=8, bs1=11
	b[29] = 1
	return b
}

// VorbisComment returns a comment header with the given vendor and
// KEY=value entries.
func VorbisComment(vendor string, comments ...string) []byte {
	b := []byte{3}
	b = append(b, "vorbis"...)
	b = appendComments(b, vendor, comments)
	return append(b, 1)
}

// VorbisSetup returns a setup header stub carrying one codebook sync
// pattern. It passes structural validation but cannot configure a real
// decoder.
func VorbisSetup() []byte {
	b := []byte{5}
	b = append(b, "vorbis"...)
	b = append(b, 0, 0x42, 0x43, 0x56, 0, 0, 0, 0, 0, 0, 1)
	return b
}

// OpusHead returns a mapping family 0 OpusHead.
func OpusHead(channels, preSkip, inputRate int) []byte {
	b := make([]byte, 19)
	copy(b, "OpusHead")
	b[8] = 1
	b[9] = byte(channels)
	binary.LittleEndian.PutUint16(b[10:12], uint16(preSkip))
	binary.LittleEndian.PutUint32(b[12:16], uint32(inputRate))
	return b
}

// OpusTags returns an OpusTags header.
func OpusTags(vendor string, comments ...string) []byte {
	b := []byte("OpusTags")
	return appendComments(b, vendor, comments)
}

func appendComments(b []byte, vendor string, comments []string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(vendor)))
	b = append(b, vendor...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(comments)))
	for _, c := range comments {
		b = binary.LittleEndian.AppendUint32(b, uint32(len(c)))
		b = append(b, c...)
	}
	return b
}
