package stringtable

import "testing"

func TestPushHistoryBound(t *testing.T) {
	tbl := New("t", false, 0, 0, false)
	for i := 0; i < maxHistory+10; i++ {
		tbl.pushHistory(string(rune('a' + i%26)))
	}
	if len(tbl.history) != maxHistory {
		t.Fatalf("len(history) = %d, want %d", len(tbl.history), maxHistory)
	}
}

func TestPushHistoryMostRecentFirst(t *testing.T) {
	tbl := New("t", false, 0, 0, false)
	tbl.pushHistory("one")
	tbl.pushHistory("two")
	if string(tbl.history[0]) != "two" {
		t.Fatalf("history[0] = %q, want %q", tbl.history[0], "two")
	}
	if string(tbl.history[1]) != "one" {
		t.Fatalf("history[1] = %q, want %q", tbl.history[1], "one")
	}
}

func TestApplySnapshot(t *testing.T) {
	tbl := New("t", false, 0, 0, false)
	tbl.ApplySnapshot([]struct {
		Key  string
		Data []byte
	}{
		{Key: "zero", Data: []byte{0}},
		{Key: "one", Data: []byte{1}},
	})

	e, ok := tbl.Entry(0)
	if !ok || e.Key != "zero" {
		t.Fatalf("Entry(0) = %+v, %v", e, ok)
	}
	e, ok = tbl.Entry(1)
	if !ok || e.Key != "one" {
		t.Fatalf("Entry(1) = %+v, %v", e, ok)
	}
	if len(tbl.history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(tbl.history))
	}
}

func TestEngineBaselineIgnoresExtensionKeys(t *testing.T) {
	e := NewEngine(true)
	tbl := e.CreateTable("instancebaseline", false, 0, 0, false)
	tbl.ApplySnapshot([]struct {
		Key  string
		Data []byte
	}{
		{Key: "12", Data: []byte{0xAA}},
		{Key: "12:extra", Data: []byte{0xBB}},
	})
	e.NoteUpdate(tbl)

	b, ok := e.Baseline(12)
	if !ok || len(b) != 1 || b[0] != 0xAA {
		t.Fatalf("Baseline(12) = %v, %v", b, ok)
	}
	if _, ok := e.Baseline(1212); ok {
		t.Fatal("extension key must not produce a baseline entry")
	}
}
