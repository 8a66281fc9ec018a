package fieldpath

import (
	"testing"

	"github.com/icza/csdemo/bitread"
)

func TestDecodeGoldenCodes(t *testing.T) {
	cases := []struct {
		name string
		byte byte
		want Op
	}{
		{"0", 0x00, OpPlusOne},
		{"10", 0x01, OpFieldPathEncodeFinish},
		{"1111", 0x0f, OpPushOneLeftDeltaNRightNonZeroPack6Bits},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := bitread.New([]byte{c.byte})
			if got := Decode(r); got != c.want {
				t.Fatalf("Decode(%08b) = %v, want %v", c.byte, got, c.want)
			}
		})
	}
}

func TestAllOperationsHaveDistinctReachableCodes(t *testing.T) {
	seen := map[Op]bool{}
	var walk func(n *huffNode)
	walk = func(n *huffNode) {
		if n == nil {
			return
		}
		if n.isLeaf {
			if seen[n.op] {
				t.Fatalf("operation %v reachable via more than one code", n.op)
			}
			seen[n.op] = true
			return
		}
		walk(n.zero)
		walk(n.one)
	}
	walk(root)

	for op := Op(0); op < opCount; op++ {
		if !seen[op] {
			t.Errorf("operation %v has no assigned code", op)
		}
	}
}
