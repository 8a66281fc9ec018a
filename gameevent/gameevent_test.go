package gameevent

import (
	"testing"

	"github.com/icza/csdemo/bitread"
)

func TestDecodeMatchesDescriptor(t *testing.T) {
	tbl := NewTable([]*Descriptor{
		{ID: 7, Name: "player_death", Keys: []Key{
			{Name: "userid", Type: KeyInt32Short},
			{Name: "weapon", Type: KeyString},
		}},
	})

	w := &testBitWriter{}
	w.writeBits(uint64(KeyInt32Short), 3)
	w.writeBits(42, 16)
	w.writeBits(uint64(KeyString), 3)
	w.writeString("ak47")

	r := bitread.New(w.bytes)
	ev, err := tbl.Decode(7, r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Name != "player_death" {
		t.Fatalf("Name = %q", ev.Name)
	}
	if ev.Values["userid"] != int32(42) {
		t.Errorf("userid = %v, want 42", ev.Values["userid"])
	}
	if ev.Values["weapon"] != "ak47" {
		t.Errorf("weapon = %v, want ak47", ev.Values["weapon"])
	}
}

func TestDecodeRejectsTypeMismatch(t *testing.T) {
	tbl := NewTable([]*Descriptor{
		{ID: 1, Name: "round_start", Keys: []Key{{Name: "timelimit", Type: KeyInt32Long}}},
	})
	w := &testBitWriter{}
	w.writeBits(uint64(KeyBool), 3)
	w.writeBit(true)
	r := bitread.New(w.bytes)
	if _, err := tbl.Decode(1, r); err == nil {
		t.Fatal("expected type-mismatch error")
	}
}

func TestDecodeUnknownEventIgnored(t *testing.T) {
	tbl := NewTable(nil)
	r := bitread.New([]byte{0})
	ev, err := tbl.Decode(99, r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev != nil {
		t.Fatalf("expected nil event for unknown id, got %+v", ev)
	}
}

// testBitWriter assembles a little-endian bit stream for tests.
type testBitWriter struct {
	bytes []byte
	pos   int
}

func (w *testBitWriter) writeBit(b bool) {
	byteIdx := w.pos / 8
	for byteIdx >= len(w.bytes) {
		w.bytes = append(w.bytes, 0)
	}
	if b {
		w.bytes[byteIdx] |= 1 << uint(w.pos%8)
	}
	w.pos++
}

func (w *testBitWriter) writeBits(v uint64, n uint) {
	for i := uint(0); i < n; i++ {
		w.writeBit(v&(1<<i) != 0)
	}
}

func (w *testBitWriter) writeString(s string) {
	for i := 0; i < len(s); i++ {
		w.writeBits(uint64(s[i]), 8)
	}
	w.writeBits(0, 8)
}
