/*

Package jumptracker implements the per-player jump-timing memory (spec
layer L11, spec.md §4.13 "Jump tracker"): remembers the tick of each
player's last jump, and answers whether a later kill at a given tick
should be attributed a "jump" value.

*/
package jumptracker

// defaultWindowSeconds is the window, in seconds, within which a prior
// jump still counts against a later kill. spec.md states the window as
// 0.75s / tick_interval ticks, so the tick count is recomputed per demo
// from the recorded tick_interval rather than hardcoded.
const defaultWindowSeconds = 0.75

// Tracker remembers the last jump tick per player (userid or entity id,
// whichever the caller uses to key players consistently).
type Tracker struct {
	tickInterval float64
	lastJump     map[int32]int32
}

// New creates a Tracker for a demo recorded at tickInterval seconds per
// tick (spec.md §3's per-demo constant).
func New(tickInterval float64) *Tracker {
	return &Tracker{
		tickInterval: tickInterval,
		lastJump:     make(map[int32]int32),
	}
}

// RecordJump stores tick as player's most recent jump.
func (t *Tracker) RecordJump(player int32, tick int32) {
	t.lastJump[player] = tick
}

// JumpSince returns (tick-jump_tick, true) if player jumped within the
// 0.75s window before tick, else (0, false).
func (t *Tracker) JumpSince(player int32, tick int32) (int32, bool) {
	jumpTick, ok := t.lastJump[player]
	if !ok {
		return 0, false
	}
	windowTicks := int32(defaultWindowSeconds / t.tickInterval)
	if jumpTick < tick-windowTicks {
		return 0, false
	}
	return tick - jumpTick, true
}
