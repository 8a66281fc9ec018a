/*

Package geometry implements the smoke occlusion test (spec layer L10,
spec.md §4.13 "through_smoke" / §6.5): whether a shot from a shooter to
a victim passes through an upright elliptical cylinder representing an
active smoke grenade's cloud.

*/
package geometry

import "math"

const (
	SmokeRadius         = 140
	SmokeHeight         = 130
	PlayerHeadHeight    = 72
	PlayerCrouchHeight  = 50
	epsilon             = 1e-4
)

// Vec3 is a world-space point or direction.
type Vec3 struct{ X, Y, Z float64 }

func (a Vec3) sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

// ThroughSmoke reports whether the line from shooterEye to victimPoint
// passes through the upright cylinder centred at smokeCenter (spec.md
// §4.13). shooterEye should already include the +50 head offset; it is
// the caller's responsibility (per spec.md) to add it, same for
// victimPoint's feet/head variants.
func ThroughSmoke(shooterEye, victimPoint, smokeCenter Vec3) bool {
	d := victimPoint.sub(shooterEye)

	// Normalise by (radius, radius, height) so the cylinder becomes the
	// unit cylinder x²+y²=1, |z|<=1 centred at the origin.
	s := Vec3{
		X: (shooterEye.X - smokeCenter.X) / SmokeRadius,
		Y: (shooterEye.Y - smokeCenter.Y) / SmokeRadius,
		Z: (shooterEye.Z - smokeCenter.Z) / SmokeHeight,
	}
	dn := Vec3{
		X: d.X / SmokeRadius,
		Y: d.Y / SmokeRadius,
		Z: d.Z / SmokeHeight,
	}

	a := dn.X*dn.X + dn.Y*dn.Y
	b := 2 * (s.X*dn.X + s.Y*dn.Y)
	c := s.X*s.X + s.Y*s.Y - 1

	if a < epsilon {
		// The segment is (near-)vertical in XY: occluded iff the line
		// sits within the cylinder's circular footprint at all and the
		// z-extent overlaps.
		if c > epsilon {
			return false
		}
		return segmentOverlapsCapRange(s.Z, s.Z+dn.Z)
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return false
	}
	sqrtDisc := math.Sqrt(disc)
	t1 := (-b - sqrtDisc) / (2 * a)
	t2 := (-b + sqrtDisc) / (2 * a)
	if t1 > t2 {
		t1, t2 = t2, t1
	}

	// [t1,t2] is where the infinite line sits inside the cylinder's
	// circular footprint; clip it to the shooter->victim segment and to
	// t>0 (spec.md requires the smoke to be in front of the shooter).
	tEnter, tExit := t1, t2
	if tEnter < 0 {
		tEnter = 0
	}
	if tExit > 1 {
		tExit = 1
	}
	if tEnter > tExit || tExit <= epsilon {
		return false
	}

	return segmentOverlapsCapRange(s.Z+dn.Z*tEnter, s.Z+dn.Z*tExit)
}

// segmentOverlapsCapRange reports whether [zEnter,zExit] (in the unit
// cylinder's normalised z, where the caps sit at -1 and +1) overlaps the
// cylinder's height at all.
func segmentOverlapsCapRange(zEnter, zExit float64) bool {
	lo, hi := zEnter, zExit
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo <= 1+epsilon && hi >= -1-epsilon
}
