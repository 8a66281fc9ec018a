package demoinfo

import (
	"github.com/icza/csdemo/dem"
	"github.com/icza/csdemo/entity"
	"github.com/icza/csdemo/gameevent"
	"github.com/icza/csdemo/geometry"
)

// Event is one enriched, named gameplay occurrence (spec.md §3, §6.3):
// the decoded key values plus whatever derived attributes apply to this
// event name (jump, smoke, scoped -- spec.md §4.13, §"Supplemented
// features").
type Event struct {
	Tick   dem.Tick
	Name   string
	Values map[string]interface{}
}

// Known event/key names this layer acts on by name (spec.md §4.13, §8
// scenario 6, and the bot-takeover/round-tracking supplement).
const (
	eventPlayerDeath         = "player_death"
	eventPlayerJump          = "player_jump"
	eventPlayerSpawn         = "player_spawn"
	eventPlayerDisconnect    = "player_disconnect"
	eventBotTakeover         = "bot_takeover"
	eventRoundStart          = "round_start"
	eventRoundEnd            = "round_end"
	eventRoundOfficiallyEnd  = "round_officially_ended"
	eventSmokeDetonate       = "smokegrenade_detonate"
	eventSmokeExpired        = "smokegrenade_expired"

	keyUserID   = "userid"
	keyAttacker = "attacker"
	keyAssister = "assister"
	keyUserIDS  = "user_id" // bot_takeover's own field names (spec.md §8.6)
	keyBotID    = "bot_id"
	keyEntityID = "entityid"
)

// processGameEvent applies §4.13/supplemented enrichments to a freshly
// decoded event and hands it to the visitor.
func (st *state) processGameEvent(ev *gameevent.Event) {
	e := &Event{Tick: st.tick, Name: ev.Name, Values: ev.Values}

	switch e.Name {
	case eventBotTakeover:
		userID, _ := asInt32(e.Values[keyUserIDS])
		botID, _ := asInt32(e.Values[keyBotID])
		st.botOwner[userID] = botID

	case eventPlayerDeath:
		if attacker, ok := asInt32(e.Values[keyAttacker]); ok {
			if botID, taken := st.botOwner[attacker]; taken {
				e.Values[keyAttacker] = botID
			}
			if jump, ok := st.jumps.JumpSince(attacker, int32(st.tick)); ok {
				e.Values["jump"] = jump
			}
			st.annotateSmoke(e, attacker)
			if ent, ok := st.entityByUserID(attacker); ok {
				if scoped, ok := ent.Values["m_bIsScoped"].(bool); ok {
					e.Values["scoped"] = scoped
				}
			}
		}
		// assister/player_spawn/player_disconnect deliberately keep the
		// human identity -- only the attacker slot is remapped (spec.md
		// §8 scenario 6).

	case eventPlayerJump:
		if userID, ok := asInt32(e.Values[keyUserID]); ok {
			st.jumps.RecordJump(userID, int32(st.tick))
		}

	case eventRoundStart:
		st.smokes.ClearRound()
		st.round.RoundNumber++

	case eventRoundEnd, eventRoundOfficiallyEnd:
		if ct, ok := asInt32(e.Values["score_ct"]); ok {
			st.round.ScoreCT = int(ct)
		}
		if t, ok := asInt32(e.Values["score_t"]); ok {
			st.round.ScoreT = int(t)
		}

	case eventSmokeDetonate:
		if id, ok := asInt32(e.Values[keyEntityID]); ok {
			if c, ok := st.entityOrigin(id); ok {
				st.smokes.Detonate(id, c)
			}
		}

	case eventSmokeExpired:
		if id, ok := asInt32(e.Values[keyEntityID]); ok {
			st.smokes.Expire(id)
		}
	}

	st.visitor.gameEvent(e, st.tick)
}

// annotateSmoke adds a "smoke" attribute naming the occluding smoke
// grenade entity, if the attacker's shot to the victim passed through
// one (spec.md §4.13's through_smoke, via package geometry). Player
// position isn't named by spec.md's event key set, so this is a
// best-effort enrichment: it's skipped silently if either player's
// current entity can't be resolved or its origin isn't present (see
// DESIGN.md's "playerEye entity resolution" entry for how players are
// resolved). The shot runs from the shooter's origin +50 and counts as
// occluded only if the lines to both the victim's feet and head (+72)
// pass through a smoke.
func (st *state) annotateSmoke(e *Event, attacker int32) {
	victim, ok := asInt32(e.Values["userid"])
	if !ok {
		return
	}
	shooterEye, ok := st.playerEye(attacker)
	if !ok {
		return
	}
	victimHead, ok := st.playerEye(victim)
	if !ok {
		return
	}
	shooterEye.Z += geometry.PlayerCrouchHeight - geometry.PlayerHeadHeight
	victimFeet := victimHead
	victimFeet.Z -= geometry.PlayerHeadHeight
	if _, hitFeet := st.smokes.AnyOccludes(shooterEye, victimFeet); !hitFeet {
		return
	}
	if id, hit := st.smokes.AnyOccludes(shooterEye, victimHead); hit {
		e.Values["smoke"] = id
	}
}

// playerEye resolves a game event's userid (a client slot, not an
// entity id) to its pawn entity's origin plus a standing head offset.
// userid and entity id are different namespaces (DESIGN.md's "playerEye
// entity resolution" entry), so this goes through entityByUserID's
// m_iPlayerUserID scan rather than treating userID as an entity id.
func (st *state) playerEye(userID int32) (geometry.Vec3, bool) {
	ent, ok := st.entityByUserID(userID)
	if !ok {
		return geometry.Vec3{}, false
	}
	x, okx := asFloat(ent.Values["m_vecOrigin.x"])
	y, oky := asFloat(ent.Values["m_vecOrigin.y"])
	z, okz := asFloat(ent.Values["m_vecOrigin.z"])
	if !okx || !oky || !okz {
		return geometry.Vec3{}, false
	}
	return geometry.Vec3{X: x, Y: y, Z: z + geometry.PlayerHeadHeight}, true
}

// entityByUserID finds the live entity whose m_iPlayerUserID property
// matches userID, the bridge CCSPlayerController/CCSPlayerPawn expose
// between a game event's client-slot userid and the entity id space
// entities are otherwise addressed by (DESIGN.md). A linear scan over
// the live entity set; userid lookups are rare (per-kill, not per-tick)
// so this isn't worth a maintained reverse index.
func (st *state) entityByUserID(userID int32) (*entity.Entity, bool) {
	for _, ent := range st.s2Entities.Entities() {
		if uid, ok := asInt32(ent.Values["m_iPlayerUserID"]); ok && uid == userID {
			return ent, true
		}
	}
	return nil, false
}

// entityOrigin looks up a smoke grenade's position directly by its
// entity id, as carried by smokegrenade_detonate/_expired's own
// "entityid" field -- unlike playerEye's userid, this is already in the
// entity id space, so no userID bridge is needed here.
func (st *state) entityOrigin(entityID int32) (geometry.Vec3, bool) {
	ent, ok := st.s2Entities.Entity(entityID)
	if !ok {
		return geometry.Vec3{}, false
	}
	x, okx := asFloat(ent.Values["m_vecOrigin.x"])
	y, oky := asFloat(ent.Values["m_vecOrigin.y"])
	z, okz := asFloat(ent.Values["m_vecOrigin.z"])
	if !okx || !oky || !okz {
		return geometry.Vec3{}, false
	}
	return geometry.Vec3{X: x, Y: y, Z: z}, true
}

func asInt32(v interface{}) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case uint64:
		return int32(n), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
