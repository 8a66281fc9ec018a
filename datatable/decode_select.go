package datatable

import "github.com/icza/csdemo/propdecoder"

// selectDecoder mirrors sendtable's decoder-family selection but keys
// off Source 1's SendProp flag bits instead of Source 2's encoder
// strings (spec.md §4.10).
func selectDecoder(p RawProp) *propdecoder.Decoder {
	switch p.Type {
	case TypeInt:
		if p.Flags&FlagUnsigned != 0 {
			return &propdecoder.Decoder{Kind: propdecoder.KindU32}
		}
		return &propdecoder.Decoder{Kind: propdecoder.KindI32}

	case TypeString:
		return &propdecoder.Decoder{Kind: propdecoder.KindString}

	case TypeFloat:
		return selectFloatDecoder(p)

	case TypeVector, TypeVectorXY:
		size := 3
		if p.Type == TypeVectorXY {
			size = 2
		}
		switch {
		case p.Flags&FlagNormal != 0 && size == 3:
			return &propdecoder.Decoder{Kind: propdecoder.KindVectorNormal}
		case p.Flags&(FlagCoord|FlagCoordMP|FlagCoordMPLowPrecision|FlagCoordMPIntegral) != 0:
			return &propdecoder.Decoder{Kind: propdecoder.KindVectorCoordN, N: size}
		default:
			return &propdecoder.Decoder{Kind: propdecoder.KindVectorNoScaleN, N: size}
		}

	default:
		return &propdecoder.Decoder{Kind: propdecoder.KindU32}
	}
}

func selectFloatDecoder(p RawProp) *propdecoder.Decoder {
	switch {
	case p.Flags&FlagCoord != 0:
		return &propdecoder.Decoder{Kind: propdecoder.KindCoord}
	case p.Flags&FlagNoScale != 0:
		return &propdecoder.Decoder{Kind: propdecoder.KindNoScale}
	default:
		flags := 0
		if p.Flags&FlagRoundDown != 0 {
			flags |= propdecoder.FlagRoundDown
		}
		if p.Flags&FlagRoundUp != 0 {
			flags |= propdecoder.FlagRoundUp
		}
		return propdecoder.NewQuantized(p.BitCount, p.Low, p.High, flags)
	}
}
