// This file implements the Source 2 (PBDEMS2 / CS2) container framer
// (spec.md §4.2). Adapted from repdecoder.modernDecoder's per-chunk
// decompression shape (repparser/repdecoder/modern.go), swapping zlib
// for Snappy since that's what the wire format calls for.
package dem

import (
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/icza/csdemo/demoerr"
)

const source2CompressedFlag = 0x40

// source2Reader frames Source 2 demo records out of a fully-mapped demo
// file, positioned right after the 16-byte preamble (8-byte magic plus
// the 8-byte skipped file-info offset).
type source2Reader struct {
	sr      *byteReader
	stopped bool
	closer  func() error
}

// NewSource2Reader creates a Reader over a Source 2 demo.
func NewSource2Reader(afterPreamble []byte, closer func() error) Reader {
	return &source2Reader{sr: newByteReader(afterPreamble), closer: closer}
}

func (r *source2Reader) Next() (*Command, error) {
	if r.stopped {
		return nil, io.EOF
	}
	if r.sr.pos >= uint32(len(r.sr.b)) {
		return nil, io.EOF
	}

	cmdFlags := r.sr.getVarUint32()
	tick := r.sr.getVarUint32()
	size := r.sr.getVarUint32()

	compressed := cmdFlags&source2CompressedFlag != 0
	kindID := int(cmdFlags &^ source2CompressedFlag)
	kind := Source2KindByID(kindID)

	payload := r.sr.readSlice(size)
	if compressed {
		decoded, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", demoerr.ErrDecompression, err)
		}
		payload = decoded
	}

	if kind.ID == Source2KindStop.ID {
		r.stopped = true
	}

	return &Command{
		Tick:       Tick(int32(tick)),
		Format:     FormatSource2,
		Kind:       kind,
		Payload:    payload,
		Compressed: compressed,
	}, nil
}

func (r *source2Reader) Close() error {
	if r.closer != nil {
		return r.closer()
	}
	return nil
}
