/*

Package smoketracker implements the active-smoke-cloud registry (spec
layer L11, spec.md §4.13 "Smoke tracker"): tracks which smoke grenade
entities currently have a live cloud and where its centre sits, for the
occlusion test in package geometry.

*/
package smoketracker

import "github.com/icza/csdemo/geometry"

// Tracker holds the set of active smoke clouds keyed by the smoke
// grenade entity id that spawned them.
type Tracker struct {
	active map[int32]geometry.Vec3
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{active: make(map[int32]geometry.Vec3)}
}

// Detonate registers entityID's cloud as active at centre (spec.md
// §4.13: added on smokegrenade_detonate).
func (t *Tracker) Detonate(entityID int32, centre geometry.Vec3) {
	t.active[entityID] = centre
}

// Expire removes entityID's cloud (spec.md §4.13: removed on
// smokegrenade_expired).
func (t *Tracker) Expire(entityID int32) {
	delete(t.active, entityID)
}

// ClearRound removes every active cloud (spec.md §4.13: cleared on
// round_start).
func (t *Tracker) ClearRound() {
	t.active = make(map[int32]geometry.Vec3)
}

// Active returns the live smoke centres, keyed by entity id.
func (t *Tracker) Active() map[int32]geometry.Vec3 { return t.active }

// AnyOccludes reports whether any active smoke occludes the shot from
// shooterEye to victimPoint, and if so returns the occluding entity id.
func (t *Tracker) AnyOccludes(shooterEye, victimPoint geometry.Vec3) (int32, bool) {
	for id, c := range t.active {
		if geometry.ThroughSmoke(shooterEye, victimPoint, c) {
			return id, true
		}
	}
	return 0, false
}
