package fieldpath

import (
	"testing"

	"github.com/icza/csdemo/bitread"
)

// bitWriter is a tiny test helper assembling a little-endian bit stream,
// mirroring how bitread.Reader consumes it.
type bitWriter struct {
	bytes []byte
	pos   int
}

func (w *bitWriter) writeBit(b bool) {
	byteIdx := w.pos / 8
	for byteIdx >= len(w.bytes) {
		w.bytes = append(w.bytes, 0)
	}
	if b {
		w.bytes[byteIdx] |= 1 << uint(w.pos%8)
	}
	w.pos++
}

func (w *bitWriter) writeBits(v uint64, n uint) {
	for i := uint(0); i < n; i++ {
		w.writeBit(v&(1<<i) != 0)
	}
}

// writeOpCode writes the Huffman code found by walking root for op.
func (w *bitWriter) writeOpCode(t *testing.T, op Op) {
	var path []bool
	var find func(n *huffNode, prefix []bool) bool
	find = func(n *huffNode, prefix []bool) bool {
		if n == nil {
			return false
		}
		if n.isLeaf {
			if n.op == op {
				path = append([]bool{}, prefix...)
				return true
			}
			return false
		}
		if find(n.zero, append(prefix, false)) {
			return true
		}
		return find(n.one, append(prefix, true))
	}
	if !find(root, nil) {
		t.Fatalf("no code found for %v", op)
	}
	for _, b := range path {
		w.writeBit(b)
	}
}

func TestReadPathsPlusOneSequence(t *testing.T) {
	w := &bitWriter{}
	w.writeOpCode(t, OpPlusOne)
	w.writeOpCode(t, OpPlusOne)
	w.writeOpCode(t, OpFieldPathEncodeFinish)

	r := bitread.New(w.bytes)
	paths := ReadPaths(r)
	if len(paths) != 2 {
		t.Fatalf("len(paths) = %d, want 2", len(paths))
	}
	if got := paths[0][0]; got != 0 {
		t.Errorf("paths[0][0] = %d, want 0", got)
	}
	if got := paths[1][0]; got != 1 {
		t.Errorf("paths[1][0] = %d, want 1", got)
	}
}

func TestReadPathsPushAndPop(t *testing.T) {
	w := &bitWriter{}
	w.writeOpCode(t, OpPushOneLeftDeltaZeroRightZero)
	w.writeOpCode(t, OpPopOnePlusOne)
	w.writeOpCode(t, OpFieldPathEncodeFinish)

	r := bitread.New(w.bytes)
	paths := ReadPaths(r)
	if len(paths) != 2 {
		t.Fatalf("len(paths) = %d, want 2", len(paths))
	}
	if len(paths[0]) != 2 {
		t.Fatalf("paths[0] depth = %d, want 2", len(paths[0]))
	}
	if len(paths[1]) != 1 {
		t.Fatalf("paths[1] depth = %d, want 1 after pop", len(paths[1]))
	}
	if got := paths[1][0]; got != 0 {
		t.Errorf("paths[1][0] = %d, want 0", got)
	}
}

func TestReadPathsOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on depth overflow")
		}
	}()

	w := &bitWriter{}
	for i := 0; i < maxDepth+2; i++ {
		w.writeOpCode(t, OpPushOneLeftDeltaZeroRightZero)
	}
	w.writeOpCode(t, OpFieldPathEncodeFinish)

	r := bitread.New(w.bytes)
	ReadPaths(r)
}
