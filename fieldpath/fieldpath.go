package fieldpath

import (
	"github.com/icza/csdemo/bitread"
	"github.com/icza/csdemo/demoerr"
)

// maxDepth bounds a path's element count (spec.md §4.7: "a small
// constant, reference uses 6").
const maxDepth = 6

// Path is one decoded field path: a sequence of indices descending
// through a (possibly nested) serializer, the last of which names the
// leaf field.
type Path []int32

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// ReadPaths decodes a full operation stream into the list of field
// paths it yields, one per non-terminal operation, stopping at
// FieldPathEncodeFinish (spec.md §4.7).
func ReadPaths(r *bitread.Reader) []Path {
	data := Path{-1}
	var out []Path

	for {
		op := Decode(r)
		if op == OpFieldPathEncodeFinish {
			return out
		}
		apply(op, &data, r)
		if len(data) > maxDepth {
			panic(demoerr.ErrFieldPathOverflow)
		}
		out = append(out, data.Clone())
	}
}

func last(data *Path) int32 { return (*data)[len(*data)-1] }

func addLast(data *Path, delta int32) { (*data)[len(*data)-1] += delta }

func push(data *Path, v int32) { *data = append(*data, v) }

func pop(data *Path, n int) {
	if n >= len(*data) {
		n = len(*data) - 1
	}
	*data = (*data)[:len(*data)-n]
}

func popAllButOne(data *Path) { *data = (*data)[:1] }

// applyNonTopological reads, for every element of data, an optional
// per-element delta. offset is added to each decoded delta: +1 for
// PushNAndNonTopological's deltas, 0 for PopNAndNonTopographical's and
// NonTopoComplex's (the three ops share the per-element "has a delta?"
// walk but not the offset applied to it).
func applyNonTopological(data *Path, r *bitread.Reader, offset int32) {
	for i := range *data {
		if r.ReadBit() {
			(*data)[i] += r.ReadSignedVarInt32() + offset
		}
	}
}

func apply(op Op, data *Path, r *bitread.Reader) {
	switch op {
	case OpPlusOne:
		addLast(data, 1)
	case OpPlusTwo:
		addLast(data, 2)
	case OpPlusThree:
		addLast(data, 3)
	case OpPlusFour:
		addLast(data, 4)
	case OpPlusN:
		addLast(data, r.ReadFieldPathBitVar()+5)

	case OpPushOneLeftDeltaZeroRightZero:
		push(data, 0)
	case OpPushOneLeftDeltaZeroRightNonZero:
		push(data, r.ReadFieldPathBitVar())
	case OpPushOneLeftDeltaOneRightZero:
		addLast(data, 1)
		push(data, 0)
	case OpPushOneLeftDeltaOneRightNonZero:
		addLast(data, 1)
		push(data, r.ReadFieldPathBitVar())
	case OpPushOneLeftDeltaNRightZero:
		addLast(data, r.ReadFieldPathBitVar())
		push(data, 0)
	case OpPushOneLeftDeltaNRightNonZero:
		addLast(data, r.ReadFieldPathBitVar()+2)
		push(data, r.ReadFieldPathBitVar()+1)
	case OpPushOneLeftDeltaNRightNonZeroPack6Bits:
		addLast(data, int32(r.ReadBits(3))+2)
		push(data, int32(r.ReadBits(3))+1)
	case OpPushOneLeftDeltaNRightNonZeroPack8Bits:
		addLast(data, int32(r.ReadBits(4))+2)
		push(data, int32(r.ReadBits(4))+1)

	case OpPushTwoLeftDeltaZero:
		push(data, r.ReadFieldPathBitVar())
		push(data, r.ReadFieldPathBitVar())
	case OpPushTwoPack5LeftDeltaZero:
		push(data, int32(r.ReadBits(5)))
		push(data, int32(r.ReadBits(5)))
	case OpPushTwoLeftDeltaOne:
		addLast(data, 1)
		push(data, r.ReadFieldPathBitVar())
		push(data, r.ReadFieldPathBitVar())
	case OpPushTwoPack5LeftDeltaOne:
		addLast(data, 1)
		push(data, int32(r.ReadBits(5)))
		push(data, int32(r.ReadBits(5)))
	case OpPushTwoLeftDeltaN:
		addLast(data, int32(r.ReadUBitVar())+2)
		push(data, r.ReadFieldPathBitVar())
		push(data, r.ReadFieldPathBitVar())
	case OpPushTwoPack5LeftDeltaN:
		addLast(data, int32(r.ReadUBitVar())+2)
		push(data, int32(r.ReadBits(5)))
		push(data, int32(r.ReadBits(5)))

	case OpPushThreeLeftDeltaZero:
		push(data, r.ReadFieldPathBitVar())
		push(data, r.ReadFieldPathBitVar())
		push(data, r.ReadFieldPathBitVar())
	case OpPushThreePack5LeftDeltaZero:
		push(data, int32(r.ReadBits(5)))
		push(data, int32(r.ReadBits(5)))
		push(data, int32(r.ReadBits(5)))
	case OpPushThreeLeftDeltaOne:
		addLast(data, 1)
		push(data, r.ReadFieldPathBitVar())
		push(data, r.ReadFieldPathBitVar())
		push(data, r.ReadFieldPathBitVar())
	case OpPushThreePack5LeftDeltaOne:
		addLast(data, 1)
		push(data, int32(r.ReadBits(5)))
		push(data, int32(r.ReadBits(5)))
		push(data, int32(r.ReadBits(5)))
	case OpPushThreeLeftDeltaN:
		addLast(data, int32(r.ReadUBitVar())+2)
		push(data, r.ReadFieldPathBitVar())
		push(data, r.ReadFieldPathBitVar())
		push(data, r.ReadFieldPathBitVar())
	case OpPushThreePack5LeftDeltaN:
		addLast(data, int32(r.ReadUBitVar())+2)
		push(data, int32(r.ReadBits(5)))
		push(data, int32(r.ReadBits(5)))
		push(data, int32(r.ReadBits(5)))

	case OpPushN:
		n := r.ReadUBitVar()
		for i := uint32(0); i < n; i++ {
			push(data, r.ReadFieldPathBitVar())
		}
	case OpPushNAndNonTopological:
		applyNonTopological(data, r, 1)
		n := r.ReadUBitVar()
		for i := uint32(0); i < n; i++ {
			push(data, r.ReadFieldPathBitVar())
		}

	case OpPopOnePlusOne:
		pop(data, 1)
		addLast(data, 1)
	case OpPopOnePlusN:
		pop(data, 1)
		addLast(data, r.ReadFieldPathBitVar()+1)
	case OpPopAllButOnePlusOne:
		popAllButOne(data)
		addLast(data, 1)
	case OpPopAllButOnePlusN:
		popAllButOne(data)
		addLast(data, r.ReadFieldPathBitVar()+1)
	case OpPopAllButOnePlusNPack3Bits:
		popAllButOne(data)
		addLast(data, int32(r.ReadBits(3))+1)
	case OpPopAllButOnePlusNPack6Bits:
		popAllButOne(data)
		addLast(data, int32(r.ReadBits(6))+1)
	case OpPopNPlusOne:
		n := int(r.ReadFieldPathBitVar())
		pop(data, n)
		addLast(data, 1)
	case OpPopNPlusN:
		n := int(r.ReadFieldPathBitVar())
		pop(data, n)
		addLast(data, r.ReadSignedVarInt32())
	case OpPopNAndNonTopographical:
		n := int(r.ReadFieldPathBitVar())
		pop(data, n)
		applyNonTopological(data, r, 0)

	case OpNonTopoComplex:
		applyNonTopological(data, r, 0)
	case OpNonTopoComplexPack4Bits:
		for i := range *data {
			if r.ReadBit() {
				(*data)[i] += int32(r.ReadBits(4)) - 7
			}
		}
	case OpNonTopoPenultimatePlusOne:
		if len(*data) >= 2 {
			(*data)[len(*data)-2]++
		}

	default:
		panic(demoerr.ErrFieldPathOverflow)
	}
}
