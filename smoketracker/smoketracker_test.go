package smoketracker

import (
	"testing"

	"github.com/icza/csdemo/geometry"
)

func TestDetonateAndExpire(t *testing.T) {
	tr := New()
	tr.Detonate(9, geometry.Vec3{X: 100})
	if _, ok := tr.Active()[9]; !ok {
		t.Fatal("expected smoke 9 to be active after detonate")
	}
	tr.Expire(9)
	if _, ok := tr.Active()[9]; ok {
		t.Fatal("expected smoke 9 to be gone after expire")
	}
}

func TestClearRound(t *testing.T) {
	tr := New()
	tr.Detonate(1, geometry.Vec3{})
	tr.Detonate(2, geometry.Vec3{})
	tr.ClearRound()
	if len(tr.Active()) != 0 {
		t.Fatalf("expected no active smokes after round clear, got %d", len(tr.Active()))
	}
}

func TestAnyOccludes(t *testing.T) {
	tr := New()
	eyeZ := 64 + float64(geometry.PlayerHeadHeight)
	tr.Detonate(3, geometry.Vec3{X: 100, Y: 0, Z: eyeZ})

	shooter := geometry.Vec3{X: 0, Y: 0, Z: eyeZ}
	victim := geometry.Vec3{X: 200, Y: 0, Z: eyeZ}

	id, ok := tr.AnyOccludes(shooter, victim)
	if !ok || id != 3 {
		t.Fatalf("AnyOccludes = (%d, %v), want (3, true)", id, ok)
	}
}
