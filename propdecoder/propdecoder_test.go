package propdecoder

import (
	"math"
	"testing"

	"github.com/icza/csdemo/bitread"
)

func TestNewQuantizedGoldenParams(t *testing.T) {
	d := NewQuantized(8, 0.0, 1.0, FlagRoundDown)

	if d.BitCount != 8 {
		t.Errorf("BitCount = %d, want 8", d.BitCount)
	}
	if d.Low != 0.0 {
		t.Errorf("Low = %v, want 0.0", d.Low)
	}
	const wantHigh = 0.99609375
	if math.Abs(float64(d.High-wantHigh)) > 1e-9 {
		t.Errorf("High = %v, want %v", d.High, wantHigh)
	}
	if d.Flags != 0 {
		t.Errorf("Flags = %d, want 0", d.Flags)
	}
	const wantMul = 0.003921569
	if math.Abs(float64(d.decodeMul-wantMul)) > 1e-6 {
		t.Errorf("decodeMul = %v, want %v", d.decodeMul, wantMul)
	}
}

func TestQuantizedDecodeBounds(t *testing.T) {
	d := NewQuantized(8, 0.0, 1.0, FlagRoundDown)

	// all-zero bits decodes to Low.
	r := bitread.New([]byte{0x00})
	if got := d.decodeQuantized(r); got != d.Low {
		t.Errorf("decode(0) = %v, want Low=%v", got, d.Low)
	}

	// all-one bits (within bit_count) decodes to High.
	r = bitread.New([]byte{0xff})
	if got := d.decodeQuantized(r); got != d.High {
		t.Errorf("decode(max) = %v, want High=%v", got, d.High)
	}
}

func TestNewQuantizedRoundUpEscapeBitSurvivesWhenNotExact(t *testing.T) {
	// low/high/bitCount chosen so the post-step-6 adjustment leaves a
	// decodeMul that does not invert High exactly in float32; step 10
	// must then leave ROUND_UP's escape bit in place rather than assume
	// the round-trip always clears it.
	d := NewQuantized(3, -20.0, 5.0, FlagRoundUp)

	if d.Flags&FlagRoundUp != 0 {
		// Escape bit still present: decoding it must still yield High.
		// The reader is LSB-first, so the escape bit is bit 0.
		r := bitread.New([]byte{0x01})
		if got := d.decodeQuantized(r); got != d.High {
			t.Errorf("decode(escape) = %v, want High=%v", got, d.High)
		}
	} else {
		// Round-trip happened to be exact: the ordinary top-of-grid
		// value must still equal High with no escape bit consumed.
		r := bitread.New([]byte{0xff})
		if got := d.decodeQuantized(r); got != d.High {
			t.Errorf("decode(max) = %v, want High=%v", got, d.High)
		}
	}
}
