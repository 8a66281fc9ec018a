package demoinfo

import "github.com/icza/csdemo/dem"

// Visitor holds the orchestrator's callbacks (spec.md §4.12). Every
// field is optional; a nil callback is simply not invoked. Callbacks
// receive read-only borrows of orchestrator state for the duration of
// the call -- the player records and events must not be retained past
// it (spec.md §5's "Shared-resource policy"). No callback is handed the
// entity set.
type Visitor struct {
	// FileHeader is invoked once Source 1's fixed file header is known,
	// or once Source 2's FileHeader command is parsed.
	FileHeader func(h *dem.Header)

	// ServerInfo is invoked on the ServerInfo inner message (Phase A).
	ServerInfo func(tickInterval float64, maxClients int)

	// UserInfoTable is invoked whenever the userinfo string table
	// changes, with the live slot -> player projection.
	UserInfoTable func(players map[int]*dem.PlayerInfo)

	// GameEventDescriptors is invoked once the GameEventList message has
	// been parsed into a descriptor table.
	GameEventDescriptors func(names []string)

	// GameEvent is invoked for each decoded, named event during Phase B,
	// with the event (already enriched) and the tick it occurred at.
	GameEvent func(ev *Event, tick dem.Tick)
}

func (v *Visitor) fileHeader(h *dem.Header) {
	if v != nil && v.FileHeader != nil {
		v.FileHeader(h)
	}
}

func (v *Visitor) serverInfo(tickInterval float64, maxClients int) {
	if v != nil && v.ServerInfo != nil {
		v.ServerInfo(tickInterval, maxClients)
	}
}

func (v *Visitor) userInfoTable(players map[int]*dem.PlayerInfo) {
	if v != nil && v.UserInfoTable != nil {
		v.UserInfoTable(players)
	}
}

func (v *Visitor) gameEventDescriptors(names []string) {
	if v != nil && v.GameEventDescriptors != nil {
		v.GameEventDescriptors(names)
	}
}

func (v *Visitor) gameEvent(ev *Event, tick dem.Tick) {
	if v != nil && v.GameEvent != nil {
		v.GameEvent(ev, tick)
	}
}
