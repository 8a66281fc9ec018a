package jumptracker

import "testing"

func TestJumpSinceWithinWindow(t *testing.T) {
	tr := New(1.0 / 64)
	tr.RecordJump(1, 199)
	jump, ok := tr.JumpSince(1, 200)
	if !ok {
		t.Fatal("expected jump attribute for a jump one tick earlier")
	}
	if jump != 1 {
		t.Fatalf("jump = %d, want 1", jump)
	}
}

func TestJumpSinceOutsideWindow(t *testing.T) {
	tr := New(1.0 / 64)
	tr.RecordJump(1, 100)
	if _, ok := tr.JumpSince(1, 200); ok {
		t.Fatal("jump 100 ticks earlier is well outside the 0.75s window at 64 tick")
	}
}

func TestJumpSinceNoRecordedJump(t *testing.T) {
	tr := New(1.0 / 64)
	if _, ok := tr.JumpSince(7, 50); ok {
		t.Fatal("expected no jump attribute for a player who never jumped")
	}
}

func TestJumpSinceBoundaryInclusive(t *testing.T) {
	tr := New(1.0 / 64)
	windowTicks := int32(0.75 / (1.0 / 64))
	tr.RecordJump(1, 200-windowTicks)
	if _, ok := tr.JumpSince(1, 200); !ok {
		t.Fatal("jump exactly at the window boundary should still count")
	}
}
