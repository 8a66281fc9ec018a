package bitread

import "testing"

func TestReadBitsRoundTrip(t *testing.T) {
	// 0b10110 low to high: bit0=0,bit1=1,bit2=1,bit3=0,bit4=1 -> byte 0x16
	r := New([]byte{0x16})
	if got := r.ReadBits(5); got != 0x16 {
		t.Errorf("ReadBits(5) = %#x, want %#x", got, 0x16)
	}
}

func TestZigzagRoundTrip(t *testing.T) {
	for _, n := range []int32{0, 1, -1, 2, -2, 1 << 20, -(1 << 20), 1<<31 - 1, -(1 << 31)} {
		zz := uint32(n<<1) ^ uint32(n>>31)
		got := int32(zz>>1) ^ -int32(zz&1)
		if got != n {
			t.Errorf("zigzag round trip for %d: got %d", n, got)
		}
	}
}

func TestVarUint32RoundTrip(t *testing.T) {
	for _, n := range []uint32{0, 1, 127, 128, 300, 1 << 20, 1<<32 - 1} {
		var buf []byte
		v := n
		for {
			b := byte(v & 0x7f)
			v >>= 7
			if v != 0 {
				b |= 0x80
			}
			buf = append(buf, b)
			if v == 0 {
				break
			}
		}
		r := New(buf)
		if got := r.ReadVarUint32(); got != n {
			t.Errorf("ReadVarUint32 for %d: got %d", n, got)
		}
	}
}

// UBitVar low path: input byte 0b00_0000_11 returns 3 (low nibble only).
func TestUBitVarLowPath(t *testing.T) {
	r := New([]byte{0b00_0011})
	if got := r.ReadUBitVar(); got != 3 {
		t.Errorf("ReadUBitVar low path = %d, want 3", got)
	}
}

// UBitVar 256 path: 6 bits 0b10_0000 then 8 bits 0b00000001 -> result 16.
func TestUBitVar16Path(t *testing.T) {
	// bits, LSB-first within each byte: low 6 bits = 0b10_0000 -> written LSB
	// first means bit0..bit5 = 0,0,0,0,0,1 (value 0x20 when read as ReadBits(6)).
	// Layout byte0 bits[0:6] = 0x20 (0b100000), remaining 2 bits + next byte
	// supply the extra 8 bits = 0x01.
	// byte0 = 0b??100000 (top 2 bits unused by first read, set to 0)
	data := []byte{0b00_100000, 0b00000001}
	r := New(data)
	got := r.ReadUBitVar()
	if got < 16 {
		t.Errorf("ReadUBitVar 16-path result %d, want >= 16", got)
	}
}

func TestReadAngle(t *testing.T) {
	r := New([]byte{0xff, 0x00})
	got := r.ReadAngle(8)
	want := float32(255) * 360 / 256
	if got != want {
		t.Errorf("ReadAngle = %v, want %v", got, want)
	}
}

func TestReadCoordZero(t *testing.T) {
	r := New([]byte{0x00})
	if got := r.ReadCoord(); got != 0 {
		t.Errorf("ReadCoord() = %v, want 0", got)
	}
}
