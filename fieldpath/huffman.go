/*

Package fieldpath implements the field-path codec (spec layer L6): a
Huffman-coded stream of operations over a mutable "path" stack that
addresses a property inside a (possibly nested) Source 2 serializer.

The 40-operation catalogue and the static Huffman table are built once,
at package initialisation (spec.md §4.7, §9 "Static Huffman table"), and
shared by every caller thereafter — the orchestrator is
single-threaded so no further synchronisation is needed.

The codes are Valve's own fixed weighted table (not renegotiated per
demo), reproduced bit-for-bit from the reference decoder rather than
derived from first principles: spec.md §4.7 requires the exact reference
bit patterns, and the three golden sequences in spec.md §8 scenario 4
("0"→PlusOne, "10"→FieldPathEncodeFinish, "1111"→
PushOneLeftDeltaNRightNonZeroPack6Bits) check out against it.

*/
package fieldpath

import (
	"fmt"

	"github.com/icza/csdemo/demoerr"
)

// Op identifies one field-path operation.
type Op int

const (
	OpPlusOne Op = iota
	OpFieldPathEncodeFinish
	OpPushOneLeftDeltaNRightNonZeroPack6Bits
	OpPlusTwo
	OpPlusThree
	OpPlusFour
	OpPlusN
	OpPushOneLeftDeltaZeroRightZero
	OpPushOneLeftDeltaZeroRightNonZero
	OpPushOneLeftDeltaOneRightZero
	OpPushOneLeftDeltaOneRightNonZero
	OpPushOneLeftDeltaNRightZero
	OpPushOneLeftDeltaNRightNonZero
	OpPushOneLeftDeltaNRightNonZeroPack8Bits
	OpPushTwoLeftDeltaZero
	OpPushTwoPack5LeftDeltaZero
	OpPushTwoLeftDeltaOne
	OpPushTwoPack5LeftDeltaOne
	OpPushTwoLeftDeltaN
	OpPushTwoPack5LeftDeltaN
	OpPushThreeLeftDeltaZero
	OpPushThreePack5LeftDeltaZero
	OpPushThreeLeftDeltaOne
	OpPushThreePack5LeftDeltaOne
	OpPushThreeLeftDeltaN
	OpPushThreePack5LeftDeltaN
	OpPushN
	OpPushNAndNonTopological
	OpPopOnePlusOne
	OpPopOnePlusN
	OpPopAllButOnePlusOne
	OpPopAllButOnePlusN
	OpPopAllButOnePlusNPack3Bits
	OpPopAllButOnePlusNPack6Bits
	OpPopNPlusOne
	OpPopNPlusN
	OpPopNAndNonTopographical
	OpNonTopoComplex
	OpNonTopoComplexPack4Bits
	OpNonTopoPenultimatePlusOne

	opCount
)

var opNames = [opCount]string{
	OpPlusOne:                                "PlusOne",
	OpFieldPathEncodeFinish:                  "FieldPathEncodeFinish",
	OpPushOneLeftDeltaNRightNonZeroPack6Bits: "PushOneLeftDeltaNRightNonZeroPack6Bits",
	OpPlusTwo:                                "PlusTwo",
	OpPlusThree:                              "PlusThree",
	OpPlusFour:                               "PlusFour",
	OpPlusN:                                  "PlusN",
	OpPushOneLeftDeltaZeroRightZero:          "PushOneLeftDeltaZeroRightZero",
	OpPushOneLeftDeltaZeroRightNonZero:       "PushOneLeftDeltaZeroRightNonZero",
	OpPushOneLeftDeltaOneRightZero:           "PushOneLeftDeltaOneRightZero",
	OpPushOneLeftDeltaOneRightNonZero:        "PushOneLeftDeltaOneRightNonZero",
	OpPushOneLeftDeltaNRightZero:             "PushOneLeftDeltaNRightZero",
	OpPushOneLeftDeltaNRightNonZero:          "PushOneLeftDeltaNRightNonZero",
	OpPushOneLeftDeltaNRightNonZeroPack8Bits: "PushOneLeftDeltaNRightNonZeroPack8Bits",
	OpPushTwoLeftDeltaZero:                   "PushTwoLeftDeltaZero",
	OpPushTwoPack5LeftDeltaZero:              "PushTwoPack5LeftDeltaZero",
	OpPushTwoLeftDeltaOne:                    "PushTwoLeftDeltaOne",
	OpPushTwoPack5LeftDeltaOne:               "PushTwoPack5LeftDeltaOne",
	OpPushTwoLeftDeltaN:                      "PushTwoLeftDeltaN",
	OpPushTwoPack5LeftDeltaN:                 "PushTwoPack5LeftDeltaN",
	OpPushThreeLeftDeltaZero:                 "PushThreeLeftDeltaZero",
	OpPushThreePack5LeftDeltaZero:            "PushThreePack5LeftDeltaZero",
	OpPushThreeLeftDeltaOne:                  "PushThreeLeftDeltaOne",
	OpPushThreePack5LeftDeltaOne:             "PushThreePack5LeftDeltaOne",
	OpPushThreeLeftDeltaN:                    "PushThreeLeftDeltaN",
	OpPushThreePack5LeftDeltaN:               "PushThreePack5LeftDeltaN",
	OpPushN:                                  "PushN",
	OpPushNAndNonTopological:                 "PushNAndNonTopological",
	OpPopOnePlusOne:                          "PopOnePlusOne",
	OpPopOnePlusN:                            "PopOnePlusN",
	OpPopAllButOnePlusOne:                    "PopAllButOnePlusOne",
	OpPopAllButOnePlusN:                      "PopAllButOnePlusN",
	OpPopAllButOnePlusNPack3Bits:             "PopAllButOnePlusNPack3Bits",
	OpPopAllButOnePlusNPack6Bits:             "PopAllButOnePlusNPack6Bits",
	OpPopNPlusOne:                            "PopNPlusOne",
	OpPopNPlusN:                              "PopNPlusN",
	OpPopNAndNonTopographical:                "PopNAndNonTopographical",
	OpNonTopoComplex:                         "NonTopoComplex",
	OpNonTopoComplexPack4Bits:                "NonTopoComplexPack4Bits",
	OpNonTopoPenultimatePlusOne:              "NonTopoPenultimatePlusOne",
}

func (o Op) String() string {
	if o < 0 || int(o) >= int(opCount) {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// huffNode is a node of the static decode trie. A leaf has op >= 0.
type huffNode struct {
	zero, one *huffNode
	op        Op
	isLeaf    bool
}

var root *huffNode

// huffCodes is Valve's fixed field-path operation Huffman table, read
// most-significant-bit-first. Values taken verbatim from the reference
// decoder's compile-time tree (see DESIGN.md).
var huffCodes = [opCount]string{
	OpPlusOne:                                "0",
	OpFieldPathEncodeFinish:                  "10",
	OpPlusTwo:                                "1110",
	OpPushOneLeftDeltaNRightNonZeroPack6Bits: "1111",
	OpPushOneLeftDeltaOneRightNonZero:        "11000",
	OpPlusN:                                  "11010",
	OpPlusThree:                              "110010",
	OpPopAllButOnePlusOne:                    "110011",
	OpPushOneLeftDeltaNRightNonZero:          "11011001",
	OpPushOneLeftDeltaOneRightZero:           "11011010",
	OpPushOneLeftDeltaNRightZero:             "11011100",
	OpPopAllButOnePlusNPack6Bits:             "11011110",
	OpPlusFour:                               "11011111",
	OpPopAllButOnePlusN:                      "110110000",
	OpPushOneLeftDeltaNRightNonZeroPack8Bits: "110110110",
	OpNonTopoPenultimatePlusOne:              "110110111",
	OpPopAllButOnePlusNPack3Bits:             "110111010",
	OpPushNAndNonTopological:                 "110111011",
	OpNonTopoComplexPack4Bits:                "1101100010",
	OpNonTopoComplex:                         "11011000111",
	OpPushOneLeftDeltaZeroRightZero:          "110110001101",
	OpPopOnePlusOne:                          "110110001100001",
	OpPushOneLeftDeltaZeroRightNonZero:       "110110001100101",
	OpPopNAndNonTopographical:                "1101100011000000",
	OpPopNPlusN:                              "1101100011000001",
	OpPushN:                                  "1101100011000100",
	OpPushThreePack5LeftDeltaN:               "1101100011000101",
	OpPopNPlusOne:                            "1101100011000110",
	OpPopOnePlusN:                            "1101100011000111",
	OpPushTwoLeftDeltaZero:                   "1101100011001000",
	OpPushThreeLeftDeltaZero:                 "11011000110010010",
	OpPushTwoPack5LeftDeltaZero:              "11011000110010011",
	OpPushTwoLeftDeltaN:                      "11011000110011000",
	OpPushThreePack5LeftDeltaOne:             "11011000110011001",
	OpPushThreeLeftDeltaN:                    "11011000110011010",
	OpPushTwoPack5LeftDeltaN:                 "11011000110011011",
	OpPushTwoLeftDeltaOne:                    "11011000110011100",
	OpPushThreePack5LeftDeltaZero:            "11011000110011101",
	OpPushThreeLeftDeltaOne:                  "11011000110011110",
	OpPushTwoPack5LeftDeltaOne:               "11011000110011111",
}

func init() {
	root = &huffNode{}
	for op, code := range huffCodes {
		insert(root, code, Op(op))
	}
}

func insert(root *huffNode, code string, op Op) {
	n := root
	for _, c := range code {
		if c == '0' {
			if n.zero == nil {
				n.zero = &huffNode{}
			}
			n = n.zero
		} else {
			if n.one == nil {
				n.one = &huffNode{}
			}
			n = n.one
		}
	}
	n.op = op
	n.isLeaf = true
}

// maxCodeBits bounds the Huffman walk so a corrupt stream can't spin
// forever.
const maxCodeBits = 32

// Decode reads one Huffman-coded operation from r.
func Decode(r bitReader) Op {
	n := root
	for i := 0; i < maxCodeBits; i++ {
		if r.ReadBit() {
			if n.one == nil {
				panic(demoerr.ErrFieldPathOverflow)
			}
			n = n.one
		} else {
			if n.zero == nil {
				panic(demoerr.ErrFieldPathOverflow)
			}
			n = n.zero
		}
		if n.isLeaf {
			return n.op
		}
	}
	panic(demoerr.ErrFieldPathOverflow)
}

// bitReader is the minimal surface fieldpath needs from bitread.Reader,
// declared locally to avoid a needless import of the concrete type in
// this file (huffman.go cares only about decode, not field-path value
// reads, which live in fieldpath.go).
type bitReader interface {
	ReadBit() bool
}
