/*

Package propdecoder implements decoder synthesis (spec layer L5): given a
field's declared type, encoder hint, and quantization parameters, it
selects and parametrises the decode function that will later pull a
concrete Go value for that field out of a bitread.Reader.

This package is format-agnostic: both the Source 2 schema assembler
(sendtable) and the Source 1 schema assembler (datatable) synthesise a
Decoder by calling NewQuantized / the fixed-family constructors below,
then store it on their respective Field type.

*/
package propdecoder

import (
	"math"

	"github.com/icza/csdemo/bitread"
)

// Kind names a decoder family (spec.md §4.6).
type Kind int

const (
	KindI32 Kind = iota
	KindU32
	KindU64
	KindFixed64
	KindBool
	KindString
	KindNoScale
	KindCoord
	KindSimtime
	KindQuantized
	KindQAnglePrecise
	KindQAngleCoord
	KindQAngleN
	KindVectorNormal
	KindVectorCoordN
	KindVectorNoScaleN
)

// Quantized float encode flags (spec.md §4.6).
const (
	FlagRoundDown      = 1
	FlagRoundUp        = 2
	FlagEncodeZero     = 4
	FlagEncodeIntegers = 8
)

// Decoder reads one property value from r, producing a Go value whose
// dynamic type depends on Kind (float32, int32, uint32, uint64, bool,
// string, [3]float32 for the angle and normal-vector families, or
// []float32 of length N for the N-component vector families).
type Decoder struct {
	Kind Kind

	// Quantized parameters, post-normalisation (NewQuantized).
	BitCount   int
	Low, High  float32
	Flags      int
	decodeMul  float32

	// VectorN / QAngleN size.
	N int
}

// NewQuantized builds a Quantized decoder, running the parameter
// normalisation algorithm of spec.md §4.6 exactly once at assembly time.
func NewQuantized(bitCount int, low, high float32, flags int) *Decoder {
	if low == 0 && flags&FlagRoundDown != 0 {
		flags &^= FlagEncodeZero
	}
	if high == 0 && flags&FlagRoundUp != 0 {
		flags &^= FlagEncodeZero
	}
	if low == 0 && flags&FlagEncodeZero != 0 {
		flags |= FlagRoundDown
		flags &^= FlagEncodeZero
	}
	if high == 0 && flags&FlagEncodeZero != 0 {
		flags |= FlagRoundUp
		flags &^= FlagEncodeZero
	}
	if !(low < 0 && high > 0) {
		flags &^= FlagEncodeZero
	}
	if flags&FlagEncodeIntegers != 0 {
		flags &^= FlagRoundUp | FlagRoundDown | FlagEncodeZero
	}

	if bitCount <= 0 || bitCount >= 32 {
		bitCount = 32
	}
	steps := float32(uint64(1) << uint(bitCount))

	if flags&FlagRoundDown != 0 {
		high -= (high - low) / steps
	}
	if flags&FlagRoundUp != 0 {
		low += (high - low) / steps
	}

	if flags&FlagEncodeIntegers != 0 {
		numInts := int(math.Floor(float64(high))) - int(math.Floor(float64(low)))
		if numInts < 1 {
			numInts = 1
		}
		logv := int(math.Floor(math.Log2(float64(numInts))))
		if logv+1 > bitCount {
			bitCount = logv + 1
		}
		steps = float32(uint64(1) << uint(bitCount))
		rangeV := float32(uint64(1) << uint(logv))
		high = low + rangeV - rangeV/steps
	}

	decodeMul := 1.0 / (steps - 1)

	// Step 10: each special value only gets to skip its escape bit if the
	// ordinary (non-special-cased) quantized path round-trips back to it
	// bit-exactly; decodeMul = 1/(steps-1) is not generally invertible in
	// float32, so this is a real check, not an algebraic given.
	if flags&FlagRoundDown != 0 {
		recovered := low + (high-low)*0*decodeMul
		if recovered == low {
			flags &^= FlagRoundDown
		}
	}
	if flags&FlagRoundUp != 0 {
		u := steps - 1
		recovered := low + (high-low)*u*decodeMul
		if recovered == high {
			flags &^= FlagRoundUp
		}
	}
	if flags&FlagEncodeZero != 0 {
		u := (0 - low) / (high - low) * (steps - 1)
		uRound := float32(math.Round(float64(u)))
		recovered := low + (high-low)*uRound*decodeMul
		if recovered == 0 {
			flags &^= FlagEncodeZero
		}
	}

	d := &Decoder{
		Kind:      KindQuantized,
		BitCount:  bitCount,
		Low:       low,
		High:      high,
		Flags:     flags,
		decodeMul: decodeMul,
	}
	return d
}

// Decode reads the property value this Decoder was synthesised for.
func (d *Decoder) Decode(r *bitread.Reader) interface{} {
	switch d.Kind {
	case KindI32:
		return r.ReadSignedVarInt32()
	case KindU32:
		return r.ReadVarUint32()
	case KindU64:
		return r.ReadVarUint64()
	case KindFixed64:
		return r.ReadFixed64()
	case KindBool:
		return r.ReadBit()
	case KindString:
		return r.ReadString()
	case KindNoScale:
		return r.ReadFloat32()
	case KindCoord:
		return r.ReadCoord()
	case KindSimtime:
		return float32(r.ReadVarUint32()) * (1.0 / 64.0)
	case KindQuantized:
		return d.decodeQuantized(r)
	case KindQAnglePrecise:
		return d.decodeQAnglePrecise(r)
	case KindQAngleCoord:
		return d.decodeQAngleCoord(r)
	case KindQAngleN:
		return d.decodeQAngleN(r)
	case KindVectorNormal:
		return decodeVectorNormal(r)
	case KindVectorCoordN:
		return decodeVectorCoordN(r, d.N)
	case KindVectorNoScaleN:
		return decodeVectorNoScaleN(r, d.N)
	default:
		return nil
	}
}

func (d *Decoder) decodeQuantized(r *bitread.Reader) float32 {
	if d.Flags&FlagRoundDown != 0 && r.ReadBit() {
		return d.Low
	}
	if d.Flags&FlagRoundUp != 0 && r.ReadBit() {
		return d.High
	}
	if d.Flags&FlagEncodeZero != 0 && r.ReadBit() {
		return 0
	}
	u := float32(r.ReadBits(uint(d.BitCount)))
	// u*decodeMul first, so the all-ones code maps to 1 and decodes to High.
	return d.Low + (d.High-d.Low)*(u*d.decodeMul)
}

func (d *Decoder) decodeQAnglePrecise(r *bitread.Reader) [3]float32 {
	var out [3]float32
	for i := 0; i < 3; i++ {
		hasBit := r.ReadBit()
		if hasBit {
			out[i] = r.ReadAngle(20) - 180
		}
	}
	return out
}

func (d *Decoder) decodeQAngleCoord(r *bitread.Reader) [3]float32 {
	var out [3]float32
	for i := 0; i < 3; i++ {
		if r.ReadBit() {
			out[i] = r.ReadCoord()
		}
	}
	return out
}

func (d *Decoder) decodeQAngleN(r *bitread.Reader) [3]float32 {
	var out [3]float32
	for i := 0; i < 3; i++ {
		out[i] = r.ReadAngle(uint(d.BitCount))
	}
	return out
}

func decodeVectorNormal(r *bitread.Reader) [3]float32 {
	var out [3]float32
	hasX := r.ReadBit()
	hasY := r.ReadBit()
	if hasX {
		out[0] = r.ReadNormal()
	}
	if hasY {
		out[1] = r.ReadNormal()
	}
	negZ := r.ReadBit()
	sq := 1 - out[0]*out[0] - out[1]*out[1]
	if sq < 0 {
		sq = 0
	}
	z := float32(math.Sqrt(float64(sq)))
	if negZ {
		z = -z
	}
	out[2] = z
	return out
}

func decodeVectorCoordN(r *bitread.Reader, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = r.ReadCoord()
	}
	return out
}

func decodeVectorNoScaleN(r *bitread.Reader, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = r.ReadFloat32()
	}
	return out
}
