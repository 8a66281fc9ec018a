// This file implements the Source 1 (HL2DEMO / CS:GO) container framer
// (spec.md §4.2).
package dem

import (
	"fmt"
	"io"

	"github.com/icza/csdemo/demoerr"
)

// source1Reader frames Source 1 demo records out of a fully-mapped demo
// file. The whole file is kept mapped (see OpenFile) so commands can
// simply be byte slices into it.
type source1Reader struct {
	sr      *byteReader
	stopped bool
	closer  func() error
}

// NewSource1Reader creates a Reader over a Source 1 demo, positioned
// right after the 1072-byte file header (data starts at the first
// command record).
func NewSource1Reader(afterHeader []byte, closer func() error) Reader {
	return &source1Reader{sr: newByteReader(afterHeader), closer: closer}
}

func (r *source1Reader) Next() (*Command, error) {
	if r.stopped {
		return nil, io.EOF
	}
	if r.sr.pos >= uint32(len(r.sr.b)) {
		return nil, io.EOF
	}

	kindID := r.sr.getByte()
	kind := Source1KindByID(int(kindID))
	tick := Tick(int32(r.sr.getUint32()))
	_ = r.sr.getByte() // player_slot, unused by the core

	var payload []byte
	switch kind.ID {
	case Source1KindConsoleCmd.ID, Source1KindUserCmd.ID, Source1KindDataTables.ID, Source1KindStringTables.ID:
		size := r.sr.getUint32()
		payload = r.sr.readSlice(size)

	case Source1KindSignon.ID, Source1KindPacket.ID:
		const commandInfoSize = 152 + 4 + 4
		r.sr.skip(commandInfoSize)
		size := r.sr.getUint32()
		payload = r.sr.readSlice(size)

	case Source1KindSyncTick.ID, Source1KindStop.ID, Source1KindCustomData.ID:
		// No payload carried by the core for these kinds (spec.md §4.2).

	default:
		return nil, fmt.Errorf("%w: source1 tag %#x", demoerr.ErrUnknownCommand, kindID)
	}

	if kind.ID == Source1KindStop.ID {
		r.stopped = true
	}

	return &Command{Tick: tick, Format: FormatSource1, Kind: kind, Payload: payload}, nil
}

func (r *source1Reader) Close() error {
	if r.closer != nil {
		return r.closer()
	}
	return nil
}
