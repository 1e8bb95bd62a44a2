// ABOUTME: Ogg CRC-32 checksum (polynomial 0x04C11DB7, no reflection)
// ABOUTME: hash/crc32 uses the reflected IEEE table and cannot be used here
package ogg

var crcTable [256]uint32

func init() {
	const poly = uint32(0x04C11DB7)
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// crcUpdate folds data into a running checksum.
func crcUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// pageChecksum computes the checksum of a raw page as if its CRC field
// (bytes 22..25) were zero, without modifying the input.
func pageChecksum(raw []byte) uint32 {
	var zero [4]byte
	crc := crcUpdate(0, raw[:22])
	crc = crcUpdate(crc, zero[:])
	return crcUpdate(crc, raw[26:])
}
