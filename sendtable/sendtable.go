/*

Package sendtable implements the Source 2 schema assembler (spec layer
L4): it turns a CDemoSendTables blob's flattened-serializer protobuf into
the forest of Serializer{name, fields} used by the entity delta engine.

The flattened-serializer protobuf (CSVCMsg_FlattenedSerializer) is
consumed directly with protowire.Consume*, per spec.md §1's non-goal on
generated protobuf code (see SPEC_FULL.md §4.14) — there is no .pb.go
here, just tag-driven field extraction mirroring how msg demuxes the
outer Packet/SignonPacket stream.

*/
package sendtable

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/icza/csdemo/demoerr"
	"github.com/icza/csdemo/propdecoder"
)

// FieldVariant distinguishes how a Field's value is shaped beyond its
// terminal Decoder (spec.md §4.5 step 4).
type FieldVariant int

const (
	VariantScalar FieldVariant = iota
	VariantObject
	VariantArray  // fixed-size Base[N]
	VariantVector // CUtlVector<E> / CNetworkUtlVectorBase<E> / CUtlVectorEmbeddedNetworkVar<E>
	VariantString // char[N]
)

// Field is one property of a Serializer.
type Field struct {
	Name string
	Type string // the raw declared C-like type, kept for diagnostics

	Variant FieldVariant
	Decoder *propdecoder.Decoder // nil for VariantObject

	// ArrayLen is Base[N]'s N, or the fixed count for VariantArray.
	ArrayLen int

	// Object/Array-of-Object/Vector-of-Object fields reference another
	// serializer by name.
	ObjectSerializer string

	// Polymorphic fields read an extra ubitvar selector before the
	// value (spec.md §4.5 step 3); the value itself is presently
	// unused by any consumer (open question, see DESIGN.md).
	Polymorphic bool
}

// Serializer is one class/struct shape: an ordered list of fields.
type Serializer struct {
	Name    string
	Version int32
	Fields  []*Field
}

// rawField mirrors one ProtoFlattenedSerializerField_t entry: the parts
// the assembler needs before resolving symbol-pool indices into strings.
type rawField struct {
	varTypeSym         int32
	varNameSym         int32
	bitCount           int32
	lowValue           float32
	highValue          float32
	encodeFlags        int32
	fieldSerializerSym int32
	hasFieldSerializer bool
	fieldSerializerVer int32
	sendNodeSym        int32
	varEncoderSym      int32
	polymorphicTypes   string
}

type rawSerializer struct {
	serializerNameSym int32
	serializerVersion int32
	fieldsIndex       []int32
}

// Pool holds the decoded symbol table, raw field/serializer pools, and
// the memoised, fully-built serializers produced from them.
type Pool struct {
	symbols      []string
	rawFields    []rawField
	rawSerial    []rawSerializer
	built        map[int]*Serializer
	buildingFlag map[int]bool
}

func (p *Pool) symbol(i int32) string {
	if i < 0 || int(i) >= len(p.symbols) {
		return ""
	}
	return p.symbols[i]
}

// Parse decodes a CSVCMsg_FlattenedSerializer protobuf payload (the
// .data field of a CDemoSendTables command) into a Pool. Field numbers
// follow the well-known layout: 1=symbols (repeated string),
// 2=fields (repeated message), 3=serializers (repeated message).
func Parse(data []byte) (*Pool, error) {
	p := &Pool{built: map[int]*Serializer{}, buildingFlag: map[int]bool{}}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: flattened serializer tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1: // symbols
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: symbol", demoerr.ErrProtobuf)
			}
			p.symbols = append(p.symbols, v)
			data = data[n:]
		case 2: // fields
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field", demoerr.ErrProtobuf)
			}
			rf, err := parseRawField(v)
			if err != nil {
				return nil, err
			}
			p.rawFields = append(p.rawFields, rf)
			data = data[n:]
		case 3: // serializers
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: serializer", demoerr.ErrProtobuf)
			}
			rs, err := parseRawSerializer(v)
			if err != nil {
				return nil, err
			}
			p.rawSerial = append(p.rawSerial, rs)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: unknown field", demoerr.ErrProtobuf)
			}
			data = data[n:]
		}
	}
	return p, nil
}

func parseRawField(data []byte) (rawField, error) {
	var f rawField
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return f, fmt.Errorf("%w: field tag", demoerr.ErrProtobuf)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			f.varTypeSym = int32(v)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			f.varNameSym = int32(v)
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeVarint(data)
			f.bitCount = int32(v)
			data = data[n:]
		case 4:
			v, n := protowire.ConsumeFixed32(data)
			f.lowValue = float32FromBits(v)
			data = data[n:]
		case 5:
			v, n := protowire.ConsumeFixed32(data)
			f.highValue = float32FromBits(v)
			data = data[n:]
		case 6:
			v, n := protowire.ConsumeVarint(data)
			f.encodeFlags = int32(v)
			data = data[n:]
		case 7:
			v, n := protowire.ConsumeVarint(data)
			f.fieldSerializerSym = int32(v)
			f.hasFieldSerializer = true
			data = data[n:]
		case 8:
			v, n := protowire.ConsumeVarint(data)
			f.fieldSerializerVer = int32(v)
			data = data[n:]
		case 9:
			v, n := protowire.ConsumeVarint(data)
			f.sendNodeSym = int32(v)
			data = data[n:]
		case 10:
			v, n := protowire.ConsumeVarint(data)
			f.varEncoderSym = int32(v)
			data = data[n:]
		case 11:
			v, n := protowire.ConsumeString(data)
			f.polymorphicTypes = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return f, fmt.Errorf("%w: unknown field property", demoerr.ErrProtobuf)
			}
			data = data[n:]
		}
		if n < 0 {
			return f, fmt.Errorf("%w: field value", demoerr.ErrProtobuf)
		}
	}
	return f, nil
}

func parseRawSerializer(data []byte) (rawSerializer, error) {
	var s rawSerializer
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return s, fmt.Errorf("%w: serializer tag", demoerr.ErrProtobuf)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			s.serializerNameSym = int32(v)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			s.serializerVersion = int32(v)
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeVarint(data)
			s.fieldsIndex = append(s.fieldsIndex, int32(v))
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return s, fmt.Errorf("%w: unknown serializer property", demoerr.ErrProtobuf)
			}
			data = data[n:]
		}
		if n < 0 {
			return s, fmt.Errorf("%w: serializer value", demoerr.ErrProtobuf)
		}
	}
	return s, nil
}

func float32FromBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}
