package sendtable

import "github.com/icza/csdemo/propdecoder"

var intBaseTypes = map[string]bool{
	"int8": true, "int16": true, "int32": true,
	"CGameTick": true, "CEntityIndex": true, "CHandle": true,
}

var uintBaseTypes = map[string]bool{
	"uint8": true, "uint16": true, "uint32": true,
	"CStrongHandle": true, "CUtlStringToken": true, "EHANDLE": true,
}

var vectorFamilyBases = map[string]bool{
	"Vector": true, "Vector2D": true, "Vector4D": true,
	"Quaternion": true, "CTransform": true,
}

var vectorFamilySize = map[string]int{
	"Vector2D": 2, "Vector": 3, "Vector4D": 4, "Quaternion": 4, "CTransform": 6,
}

// selectDecoder implements the decoder-family table of spec.md §4.6.
func selectDecoder(base, encoder string, bitCount int, low, high float32, flags int) *propdecoder.Decoder {
	switch {
	case base == "bool":
		return &propdecoder.Decoder{Kind: propdecoder.KindBool}

	case base == "char" || base == "CUtlString" || base == "CUtlSymbolLarge":
		return &propdecoder.Decoder{Kind: propdecoder.KindString}

	case base == "uint64" && encoder == "fixed64":
		return &propdecoder.Decoder{Kind: propdecoder.KindFixed64}

	case base == "uint64" || base == "CStrongHandle":
		return &propdecoder.Decoder{Kind: propdecoder.KindU64}

	case uintBaseTypes[base]:
		return &propdecoder.Decoder{Kind: propdecoder.KindU32}

	case intBaseTypes[base]:
		return &propdecoder.Decoder{Kind: propdecoder.KindI32}

	case base == "QAngle":
		switch {
		case encoder == "qangle_precise":
			return &propdecoder.Decoder{Kind: propdecoder.KindQAnglePrecise}
		case encoder == "qangle" && bitCount == 0:
			return &propdecoder.Decoder{Kind: propdecoder.KindQAngleCoord}
		default:
			return &propdecoder.Decoder{Kind: propdecoder.KindQAngleN, BitCount: bitCount}
		}

	case vectorFamilyBases[base]:
		size := vectorFamilySize[base]
		if size == 0 {
			size = 3
		}
		switch {
		case encoder == "normal" && size == 3:
			return &propdecoder.Decoder{Kind: propdecoder.KindVectorNormal}
		case encoder == "coord":
			return &propdecoder.Decoder{Kind: propdecoder.KindVectorCoordN, N: size}
		default:
			return &propdecoder.Decoder{Kind: propdecoder.KindVectorNoScaleN, N: size}
		}

	case base == "float32" || base == "GameTime_t":
		switch {
		case encoder == "coord":
			return &propdecoder.Decoder{Kind: propdecoder.KindCoord}
		case encoder == "simtime":
			return &propdecoder.Decoder{Kind: propdecoder.KindSimtime}
		case bitCount == 0 || bitCount >= 32:
			if flags == 0 && low == 0 && high == 1 {
				return &propdecoder.Decoder{Kind: propdecoder.KindNoScale}
			}
			return propdecoder.NewQuantized(32, low, high, flags)
		default:
			return propdecoder.NewQuantized(bitCount, low, high, flags)
		}

	default:
		// Unknown base types (new Source 2 intrinsics not named in
		// spec.md §4.6) fall back to raw varint, matching the spirit
		// of the teacher's "Unknown 0x.." enum fallback rather than
		// failing the whole parse over one unfamiliar property.
		return &propdecoder.Decoder{Kind: propdecoder.KindU32}
	}
}
