// ABOUTME: RIFF/WAVE header encoding for PCM output files
// ABOUTME: Builds the 44-byte canonical header and patches sizes on finish
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/oggplay/oggplay/pkg/audio"
)

// WAVHeaderSize is the size of the canonical PCM WAVE header.
const WAVHeaderSize = 44

const wavFormatPCM = 1

// WAVHeader returns a PCM WAVE header for dataSize bytes of sample data.
func WAVHeader(format audio.Format, dataSize uint32) ([]byte, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	blockAlign := format.Channels * format.BitDepth / 8
	h := make([]byte, WAVHeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 36+dataSize)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(h[22:24], uint16(format.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(format.SampleRate*blockAlign))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], uint16(format.BitDepth))
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)
	return h, nil
}

// WAVSizeFields returns the RIFF and data chunk sizes to patch at offsets
// 4 and 40 once the data length is known.
func WAVSizeFields(dataSize uint32) (riff, data [4]byte) {
	binary.LittleEndian.PutUint32(riff[:], 36+dataSize)
	binary.LittleEndian.PutUint32(data[:], dataSize)
	return riff, data
}
