package sendtable

import "testing"

func TestParseType(t *testing.T) {
	cases := []struct {
		in       string
		wantBase string
		wantVec  bool
		wantArr  bool
		wantStr  bool
		wantN    int
	}{
		{"int32", "int32", false, false, false, 0},
		{"CUtlVector<CHandle>", "CUtlVector", true, false, false, 0},
		{"char[128]", "char", false, false, true, 128},
		{"Vector[3]", "Vector", false, true, false, 3},
	}
	for _, c := range cases {
		got := parseType(c.in)
		if got.Base != c.wantBase || got.IsVector != c.wantVec || got.IsArray != c.wantArr || got.IsString != c.wantStr {
			t.Errorf("parseType(%q) = %+v, want base=%q vec=%v arr=%v str=%v", c.in, got, c.wantBase, c.wantVec, c.wantArr, c.wantStr)
		}
		if c.wantN != 0 && got.ArrayLen != c.wantN {
			t.Errorf("parseType(%q).ArrayLen = %d, want %d", c.in, got.ArrayLen, c.wantN)
		}
	}
}

// newTestPool builds a Pool directly from raw structures, bypassing the
// protobuf framing Parse handles, to exercise Build in isolation.
func newTestPool() *Pool {
	p := &Pool{built: map[int]*Serializer{}, buildingFlag: map[int]bool{}}
	p.symbols = []string{
		"CBaseEntity", // 0
		"m_vecOrigin", // 1
		"Vector",      // 2
		"CPlayerState", // 3
		"m_state",     // 4
	}
	p.rawFields = []rawField{
		{varNameSym: 1, varTypeSym: 2, bitCount: 0, lowValue: 0, highValue: 0},                                       // m_vecOrigin: Vector
		{varNameSym: 4, varTypeSym: 0, fieldSerializerSym: 0, hasFieldSerializer: true},                               // m_state: CBaseEntity (object ref)
	}
	p.rawSerial = []rawSerializer{
		{serializerNameSym: 0, fieldsIndex: []int32{0}}, // CBaseEntity{ m_vecOrigin Vector }
		{serializerNameSym: 3, fieldsIndex: []int32{1}}, // CPlayerState{ m_state -> CBaseEntity }
	}
	return p
}

func TestBuildResolvesObjectReference(t *testing.T) {
	p := newTestPool()
	s, err := p.Build(1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Name != "CPlayerState" {
		t.Fatalf("Name = %q, want CPlayerState", s.Name)
	}
	if len(s.Fields) != 1 {
		t.Fatalf("len(Fields) = %d, want 1", len(s.Fields))
	}
	f := s.Fields[0]
	if f.Variant != VariantObject {
		t.Fatalf("Variant = %v, want VariantObject", f.Variant)
	}
	if f.ObjectSerializer != "CBaseEntity" {
		t.Fatalf("ObjectSerializer = %q, want CBaseEntity", f.ObjectSerializer)
	}

	base, ok := p.built[0]
	if !ok {
		t.Fatal("referenced serializer CBaseEntity was not built")
	}
	if base.Fields[0].Decoder == nil {
		t.Fatal("CBaseEntity.m_vecOrigin has no decoder")
	}
}
