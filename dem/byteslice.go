// This file contains a byte-slice reader that aids reading fixed-layout
// binary records: the Source 1 file header, its per-command info blocks,
// and the fixed-size userinfo record (§6.1, §6.2). Adapted from
// repparser.sliceReader.
package dem

import (
	"encoding/binary"
	"math"

	"github.com/icza/csdemo/demoerr"
)

// byteReader aids reading data from a byte slice, little-endian by
// default with explicit big-endian helpers for the fields of §6.2 that
// the wire format stores big-endian. Like the bitread package, it
// panics with demoerr.ErrTruncated on a short read rather than
// threading an error return through every primitive; the orchestrator
// recovers it.
type byteReader struct {
	b   []byte
	pos uint32
}

func newByteReader(b []byte) *byteReader {
	return &byteReader{b: b}
}

func (sr *byteReader) require(n uint32) {
	if uint64(sr.pos)+uint64(n) > uint64(len(sr.b)) {
		panic(demoerr.ErrTruncated)
	}
}

func (sr *byteReader) getByte() (r byte) {
	sr.require(1)
	r, sr.pos = sr.b[sr.pos], sr.pos+1
	return
}

func (sr *byteReader) getUint16() (r uint16) {
	sr.require(2)
	r, sr.pos = binary.LittleEndian.Uint16(sr.b[sr.pos:]), sr.pos+2
	return
}

func (sr *byteReader) getUint32() (r uint32) {
	sr.require(4)
	r, sr.pos = binary.LittleEndian.Uint32(sr.b[sr.pos:]), sr.pos+4
	return
}

func (sr *byteReader) getUint32BE() (r uint32) {
	sr.require(4)
	r, sr.pos = binary.BigEndian.Uint32(sr.b[sr.pos:]), sr.pos+4
	return
}

func (sr *byteReader) getInt32BE() (r int32) {
	return int32(sr.getUint32BE())
}

func (sr *byteReader) getUint64() (r uint64) {
	sr.require(8)
	r, sr.pos = binary.LittleEndian.Uint64(sr.b[sr.pos:]), sr.pos+8
	return
}

func (sr *byteReader) getUint64BE() (r uint64) {
	sr.require(8)
	r, sr.pos = binary.BigEndian.Uint64(sr.b[sr.pos:]), sr.pos+8
	return
}

func (sr *byteReader) getFloat32() float32 {
	return math.Float32frombits(sr.getUint32())
}

// getString returns the next size bytes as a string.
func (sr *byteReader) getString(size uint32) (r string) {
	sr.require(size)
	r, sr.pos = string(sr.b[sr.pos:sr.pos+size]), sr.pos+size
	return
}

// getCString returns the next size bytes interpreted as a zero-terminated
// ASCII/UTF-8 string (trailing bytes after the first 0x00 are discarded).
func (sr *byteReader) getCString(size uint32) string {
	raw := sr.readSlice(size)
	return cString(raw)
}

// readSlice returns the next size bytes as a slice.
func (sr *byteReader) readSlice(size uint32) (r []byte) {
	sr.require(size)
	r = make([]byte, size)
	sr.pos += uint32(copy(r, sr.b[sr.pos:]))
	return
}

// getVarUint32 reads a byte-aligned protobuf-style varint (up to 5 bytes,
// 7 data bits each, MSB continuation) — used by the Source 2 container
// framer for cmd_flags/tick/size, which are always byte aligned.
func (sr *byteReader) getVarUint32() uint32 {
	var result uint32
	for i := uint(0); i < 5; i++ {
		b := sr.getByte()
		result |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			break
		}
	}
	return result
}

func (sr *byteReader) skip(n uint32) {
	sr.require(n)
	sr.pos += n
}

// cString returns a 0x00 byte terminated string from the given buffer.
func cString(data []byte) string {
	for i, ch := range data {
		if ch == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
