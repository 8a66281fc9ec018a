package sendtable

import (
	"fmt"

	"github.com/icza/csdemo/demoerr"
)

// Build resolves every serializer referenced by rawIndex, memoising
// already-built serializers. The serializer graph is a DAG in practice;
// a back-reference (A's field -> B, B already under construction) is
// resolved to the in-progress *Serializer pointer rather than
// re-entering build, matching the "visited marker" cycle policy of
// spec.md §4.5 (see DESIGN.md for the open question this leaves).
func (p *Pool) Build(rawIndex int) (*Serializer, error) {
	if s, ok := p.built[rawIndex]; ok {
		return s, nil
	}
	if p.buildingFlag[rawIndex] {
		return nil, fmt.Errorf("%w: serializer cycle at index %d", demoerr.ErrDuplicateSerializer, rawIndex)
	}
	if rawIndex < 0 || rawIndex >= len(p.rawSerial) {
		return nil, fmt.Errorf("%w: serializer index %d", demoerr.ErrDuplicateSerializer, rawIndex)
	}

	raw := p.rawSerial[rawIndex]
	p.buildingFlag[rawIndex] = true

	s := &Serializer{
		Name:    p.symbol(raw.serializerNameSym),
		Version: raw.serializerVersion,
	}
	p.built[rawIndex] = s // install before recursing so back-refs see this pointer

	for _, fi := range raw.fieldsIndex {
		f, err := p.buildField(fi)
		if err != nil {
			delete(p.buildingFlag, rawIndex)
			return nil, err
		}
		s.Fields = append(s.Fields, f)
	}

	delete(p.buildingFlag, rawIndex)
	return s, nil
}

func (p *Pool) buildField(fi int32) (*Field, error) {
	if fi < 0 || int(fi) >= len(p.rawFields) {
		return nil, fmt.Errorf("%w: field index %d", demoerr.ErrDuplicateSerializer, fi)
	}
	rf := p.rawFields[fi]

	name := p.symbol(rf.varNameSym)
	typeStr := p.symbol(rf.varTypeSym)
	encoder := p.symbol(rf.varEncoderSym)

	// spec.md §4.5 step 2: simulation/anim time are always "simtime"
	// regardless of the symbol-pool encoder.
	if name == "m_flSimulationTime" || name == "m_flAnimTime" {
		encoder = "simtime"
	}

	pt := parseType(typeStr)

	f := &Field{Name: name, Type: typeStr}

	// spec.md §4.5 step 3: an Object field references another serializer.
	if rf.hasFieldSerializer {
		targetName := p.symbol(rf.fieldSerializerSym)
		targetIdx := p.serializerIndexByName(targetName)
		if targetIdx >= 0 {
			if _, err := p.Build(targetIdx); err != nil {
				return nil, err
			}
		}
		f.ObjectSerializer = targetName
		f.Polymorphic = rf.polymorphicTypes != ""

		switch {
		case pt.IsVector:
			f.Variant = VariantVector
		case pt.IsArray:
			f.Variant = VariantArray
			f.ArrayLen = pt.ArrayLen
		default:
			f.Variant = VariantObject
		}
		return f, nil
	}

	switch {
	case pt.IsString:
		f.Variant = VariantString
		f.ArrayLen = pt.ArrayLen
		f.Decoder = selectDecoder(pt.Base, encoder, int(rf.bitCount), rf.lowValue, rf.highValue, int(rf.encodeFlags))
	case pt.IsArray:
		f.Variant = VariantArray
		f.ArrayLen = pt.ArrayLen
		f.Decoder = selectDecoder(pt.Base, encoder, int(rf.bitCount), rf.lowValue, rf.highValue, int(rf.encodeFlags))
	case pt.IsVector:
		f.Variant = VariantVector
		f.Decoder = selectDecoder(pt.Param, encoder, int(rf.bitCount), rf.lowValue, rf.highValue, int(rf.encodeFlags))
	default:
		f.Variant = VariantScalar
		f.Decoder = selectDecoder(pt.Base, encoder, int(rf.bitCount), rf.lowValue, rf.highValue, int(rf.encodeFlags))
	}

	return f, nil
}

func (p *Pool) serializerIndexByName(name string) int {
	for i, rs := range p.rawSerial {
		if p.symbol(rs.serializerNameSym) == name {
			return i
		}
	}
	return -1
}

// BuildAll resolves every serializer in the pool and returns them keyed
// by name (the last version of a name wins, matching how the live
// stream only ever references the current serializer version).
func (p *Pool) BuildAll() (map[string]*Serializer, error) {
	out := make(map[string]*Serializer, len(p.rawSerial))
	for i := range p.rawSerial {
		s, err := p.Build(i)
		if err != nil {
			return nil, err
		}
		out[s.Name] = s
	}
	return out, nil
}
