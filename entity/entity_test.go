package entity

import (
	"testing"

	"github.com/icza/csdemo/bitread"
	"github.com/icza/csdemo/propdecoder"
	"github.com/icza/csdemo/sendtable"
)

func TestEngine2DeleteClearsSlot(t *testing.T) {
	e := NewEngine2()
	e.entities[5] = newEntity(5, 1)
	if _, ok := e.Entity(5); !ok {
		t.Fatal("setup: entity 5 missing")
	}
	// 0x45, LSB-first: ubitvar id 5 (6 bits 000101), remove=1, new=0.
	noBaseline := func(int32) (*bitread.Reader, bool) { return nil, false }
	if err := e.ApplyPacketEntities(bitread.New([]byte{0x45}), 1, 1, noBaseline); err != nil {
		t.Fatalf("ApplyPacketEntities: %v", err)
	}
	if _, ok := e.Entity(5); ok {
		t.Fatal("entity 5 should have been removed")
	}
}

func TestResolvePathScalar(t *testing.T) {
	e := NewEngine2()
	s := &sendtable.Serializer{
		Name: "CBasePlayer",
		Fields: []*sendtable.Field{
			{Name: "m_health", Variant: sendtable.VariantScalar, Decoder: &propdecoder.Decoder{Kind: propdecoder.KindI32}},
		},
	}
	key, f, err := e.resolvePath(s, []int32{0})
	if err != nil {
		t.Fatalf("resolvePath: %v", err)
	}
	if key != "m_health" {
		t.Fatalf("key = %q, want m_health", key)
	}
	if f == nil || f.Decoder.Kind != propdecoder.KindI32 {
		t.Fatalf("field = %+v", f)
	}
}

func TestResolvePathNestedObject(t *testing.T) {
	e := NewEngine2()
	weapon := &sendtable.Serializer{
		Name: "CWeaponBase",
		Fields: []*sendtable.Field{
			{Name: "m_iClip1", Variant: sendtable.VariantScalar, Decoder: &propdecoder.Decoder{Kind: propdecoder.KindI32}},
		},
	}
	player := &sendtable.Serializer{
		Name: "CBasePlayer",
		Fields: []*sendtable.Field{
			{Name: "m_pActiveWeapon", Variant: sendtable.VariantObject, ObjectSerializer: "CWeaponBase"},
		},
	}
	e.RegisterSerializers(map[string]*sendtable.Serializer{"CWeaponBase": weapon, "CBasePlayer": player})

	key, f, err := e.resolvePath(player, []int32{0, 0})
	if err != nil {
		t.Fatalf("resolvePath: %v", err)
	}
	if key != "m_pActiveWeapon.m_iClip1" {
		t.Fatalf("key = %q, want m_pActiveWeapon.m_iClip1", key)
	}
	if f == nil {
		t.Fatal("expected terminal field, got nil")
	}
}
