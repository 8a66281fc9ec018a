package datatable

import "testing"

func TestBuildFlattensAndExcludes(t *testing.T) {
	tables := map[string]*RawTable{
		"DT_Base": {
			Name: "DT_Base",
			Props: []RawProp{
				{Name: "m_health", Type: TypeInt, Priority: 32},
				{Name: "m_hidden", Type: TypeInt, Priority: 32, Flags: FlagExclude},
			},
		},
		"DT_Player": {
			Name: "DT_Player",
			Props: []RawProp{
				{Name: "baseclass", DTName: "DT_Base", Type: TypeDataTable, Flags: FlagCollapsible},
				{Name: "m_ammo", Type: TypeInt, Priority: 10},
			},
		},
	}
	a := NewAssembler(tables)
	class := a.Build("CPlayer", "DT_Player")

	if len(class.Props) != 2 {
		t.Fatalf("len(Props) = %d, want 2", len(class.Props))
	}
	// stable-sorted by priority ascending: m_ammo(10) before m_health(32)
	if class.Props[0].Name != "m_ammo" {
		t.Errorf("Props[0].Name = %q, want m_ammo", class.Props[0].Name)
	}
	if class.Props[1].Name != "m_health" {
		t.Errorf("Props[1].Name = %q, want m_health", class.Props[1].Name)
	}
}

func TestBuildHonoursExcludePairs(t *testing.T) {
	tables := map[string]*RawTable{
		"DT_Base": {
			Name: "DT_Base",
			Props: []RawProp{
				{Name: "m_flTime", Type: TypeFloat, Priority: 1, Flags: FlagNoScale},
			},
		},
		"DT_Derived": {
			Name: "DT_Derived",
			Props: []RawProp{
				{Name: "baseclass", DTName: "DT_Base", Type: TypeDataTable, Flags: FlagCollapsible},
				{Name: "m_flTime", DTName: "DT_Base", Type: TypeInt, Flags: FlagExclude},
			},
		},
	}
	a := NewAssembler(tables)
	class := a.Build("CDerived", "DT_Derived")
	if len(class.Props) != 0 {
		t.Fatalf("len(Props) = %d, want 0 (m_flTime excluded)", len(class.Props))
	}
}

func TestChangesOftenClampsPriority(t *testing.T) {
	tables := map[string]*RawTable{
		"DT_X": {
			Name: "DT_X",
			Props: []RawProp{
				{Name: "m_x", Type: TypeInt, Priority: 200, Flags: FlagChangesOften},
			},
		},
	}
	a := NewAssembler(tables)
	class := a.Build("CX", "DT_X")
	if class.Props[0].Priority != maxPriority {
		t.Fatalf("Priority = %d, want %d", class.Props[0].Priority, maxPriority)
	}
}
