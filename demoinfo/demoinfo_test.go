package demoinfo

import (
	"errors"
	"testing"

	"github.com/icza/csdemo/dem"
	"github.com/icza/csdemo/demoerr"
	"github.com/icza/csdemo/gameevent"
	"github.com/icza/csdemo/geometry"
	"github.com/icza/csdemo/msg"
)

func newTestState(v *Visitor) *state {
	return newState(false, DefaultConfig(), v)
}

func TestProcessGameEventJumpAttribute(t *testing.T) {
	var got *Event
	st := newTestState(&Visitor{GameEvent: func(ev *Event, tick dem.Tick) { got = ev }})
	st.tickInterval = 1.0 / 64
	st.jumps.RecordJump(7, 199)
	st.tick = 200

	st.processGameEvent(&gameevent.Event{
		Name:   "player_death",
		Values: map[string]interface{}{"attacker": int32(7)},
	})

	if got == nil {
		t.Fatal("visitor was not invoked")
	}
	jump, ok := got.Values["jump"].(int32)
	if !ok || jump != 1 {
		t.Errorf("jump = %v, want int32(1)", got.Values["jump"])
	}
}

func TestProcessGameEventJumpOutsideWindowOmitted(t *testing.T) {
	var got *Event
	st := newTestState(&Visitor{GameEvent: func(ev *Event, tick dem.Tick) { got = ev }})
	st.tickInterval = 1.0 / 64
	st.jumps.RecordJump(7, 100) // window is 0.75/tick_interval = 48 ticks
	st.tick = 200

	st.processGameEvent(&gameevent.Event{
		Name:   "player_death",
		Values: map[string]interface{}{"attacker": int32(7)},
	})

	if _, ok := got.Values["jump"]; ok {
		t.Errorf("jump = %v, want absent", got.Values["jump"])
	}
}

func TestProcessGameEventBotTakeoverRemapsAttackerOnly(t *testing.T) {
	var events []*Event
	st := newTestState(&Visitor{GameEvent: func(ev *Event, tick dem.Tick) { events = append(events, ev) }})

	st.processGameEvent(&gameevent.Event{
		Name:   "bot_takeover",
		Values: map[string]interface{}{"user_id": int32(7), "bot_id": int32(31)},
	})
	st.processGameEvent(&gameevent.Event{
		Name:   "player_death",
		Values: map[string]interface{}{"attacker": int32(7)},
	})
	st.processGameEvent(&gameevent.Event{
		Name:   "player_death",
		Values: map[string]interface{}{"assister": int32(7)},
	})
	st.processGameEvent(&gameevent.Event{
		Name:   "player_spawn",
		Values: map[string]interface{}{"userid": int32(7)},
	})

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[1].Values["attacker"] != int32(31) {
		t.Errorf("attacker = %v, want 31 (bot id)", events[1].Values["attacker"])
	}
	if events[2].Values["assister"] != int32(7) {
		t.Errorf("assister = %v, want 7 (human id, unremapped)", events[2].Values["assister"])
	}
	if events[3].Values["userid"] != int32(7) {
		t.Errorf("player_spawn userid = %v, want 7 (human id, unremapped)", events[3].Values["userid"])
	}
}

func TestProcessGameEventRoundStartClearsSmokesAndBumpsRound(t *testing.T) {
	st := newTestState(nil)
	st.smokes.Detonate(5, geometry.Vec3{X: 100, Y: 200, Z: 0})
	st.processGameEvent(&gameevent.Event{Name: "round_start", Values: map[string]interface{}{}})

	if len(st.smokes.Active()) != 0 {
		t.Errorf("smokes still active after round_start")
	}
	if st.round.RoundNumber != 1 {
		t.Errorf("RoundNumber = %d, want 1", st.round.RoundNumber)
	}
}

func TestHandleCommandPacketEntitiesBeforeClassInfoErrors(t *testing.T) {
	st := newTestState(nil)
	st.ph = phaseA

	err := st.dispatchMessage(msg.Message{Type: msg.TypePacketEntities})
	if !errors.Is(err, demoerr.ErrPacketOutOfOrder) {
		t.Fatalf("err = %v, want ErrPacketOutOfOrder", err)
	}
}

func TestHandleCommandSendTablesAfterPhaseBErrors(t *testing.T) {
	st := newTestState(nil)
	st.ph = phaseB

	err := st.handleSource2Command(&dem.Command{Kind: dem.Source2KindSendTables, Payload: nil})
	if !errors.Is(err, demoerr.ErrPacketOutOfOrder) {
		t.Fatalf("err = %v, want ErrPacketOutOfOrder", err)
	}
}

func TestHandleCommandDataTablesAfterPhaseBErrors(t *testing.T) {
	st := newTestState(nil)
	st.source1 = true
	st.ph = phaseB

	err := st.handleSource1Command(&dem.Command{Kind: dem.Source1KindDataTables, Payload: nil})
	if !errors.Is(err, demoerr.ErrPacketOutOfOrder) {
		t.Fatalf("err = %v, want ErrPacketOutOfOrder", err)
	}
}

func TestHandleCommandAdvancesToPhaseBOnFirstNonNegativeTick(t *testing.T) {
	st := newTestState(nil)
	if st.ph != phaseA {
		t.Fatalf("initial phase = %v, want phaseA", st.ph)
	}
	if err := st.handleCommand(&dem.Command{Tick: dem.PrologueTick, Kind: dem.Source1KindSyncTick}); err != nil {
		t.Fatalf("handleCommand: %v", err)
	}
	if st.ph != phaseA {
		t.Fatalf("phase after prologue tick = %v, want phaseA", st.ph)
	}
	if err := st.handleCommand(&dem.Command{Tick: 0, Kind: dem.Source1KindSyncTick}); err != nil {
		t.Fatalf("handleCommand: %v", err)
	}
	if st.ph != phaseB {
		t.Fatalf("phase after tick 0 = %v, want phaseB", st.ph)
	}
}
