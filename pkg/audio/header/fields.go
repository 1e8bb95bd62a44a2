// ABOUTME: Little-endian field cursor for header parsing
// ABOUTME: Records the first short read so callers check one error at the end
package header

import (
	"encoding/binary"
	"fmt"
)

type cursor struct {
	b   []byte
	off int
	err error
}

func (c *cursor) need(n int) bool {
	if c.err != nil {
		return false
	}
	if n < 0 || len(c.b)-c.off < n {
		c.err = fmt.Errorf("truncated at byte %d (need %d more, have %d)", c.off, n, len(c.b)-c.off)
		return false
	}
	return true
}

func (c *cursor) u32() uint32 {
	if !c.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(c.b[c.off:])
	c.off += 4
	return v
}

func (c *cursor) u8() byte {
	if !c.need(1) {
		return 0
	}
	v := c.b[c.off]
	c.off++
	return v
}

// str reads a 32-bit length-prefixed string.
func (c *cursor) str() string {
	n := c.u32()
	if c.err != nil {
		return ""
	}
	if uint64(n) > uint64(len(c.b)-c.off) {
		c.err = fmt.Errorf("string length %d exceeds remaining %d bytes", n, len(c.b)-c.off)
		return ""
	}
	s := string(c.b[c.off : c.off+int(n)])
	c.off += int(n)
	return s
}

// comments reads a vendor string and comment list into d.
func (c *cursor) comments(d *Descriptor) {
	d.Vendor = c.str()
	count := c.u32()
	if c.err != nil {
		return
	}
	// Each entry needs at least its length prefix.
	if uint64(count)*4 > uint64(len(c.b)-c.off) {
		c.err = fmt.Errorf("comment count %d exceeds packet size", count)
		return
	}
	for i := uint32(0); i < count && c.err == nil; i++ {
		entry := c.str()
		if c.err == nil {
			d.addComment(entry)
		}
	}
}
