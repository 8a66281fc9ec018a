/*

Package datatable implements the Source 1 schema assembler (spec layer
L4/§4.10): it walks a demo's per-class SendTable/DataTable forest,
follows DT_DATATABLE fields (flattening the referenced table's props in
place, COLLAPSIBLE or not), honours SPROP_EXCLUDE pairs, and produces
the final, stably priority-sorted property list each class's Source 1
entity delta engine addresses by flat index (spec.md §4.9).

*/
package datatable

import (
	"sort"

	"github.com/icza/csdemo/propdecoder"
)

// Source 1 SendProp flag bits (spec.md §4.10).
const (
	FlagUnsigned            = 1 << 0
	FlagCoord               = 1 << 1
	FlagNoScale             = 1 << 2
	FlagRoundDown           = 1 << 3
	FlagRoundUp             = 1 << 4
	FlagNormal              = 1 << 5
	FlagExclude             = 1 << 6
	FlagInsideArray         = 1 << 8
	FlagCollapsible         = 1 << 11
	FlagCoordMP             = 1 << 12
	FlagCoordMPLowPrecision = 1 << 13
	FlagCoordMPIntegral     = 1 << 14
	FlagVarInt              = 1 << 17
	FlagChangesOften        = 1 << 18
)

const maxPriority = 64

// RawProp is one property as declared in a SendTable, before forest
// flattening.
type RawProp struct {
	Name         string
	DTName       string // for DPT_DataTable props: the referenced table's name
	Type         int    // DPT_Int, DPT_Float, DPT_Vector, DPT_VectorXY, DPT_String, DPT_Array, DPT_DataTable
	Flags        int
	Priority     int
	BitCount     int
	Low, High    float32
	NumElements  int // DPT_Array element count
}

// DPT_* property type tags.
const (
	TypeInt = iota
	TypeFloat
	TypeVector
	TypeVectorXY
	TypeString
	TypeArray
	TypeDataTable
)

// RawTable is one SendTable: a flat list of RawProps, some of which may
// be DPT_DataTable references to another RawTable by name.
type RawTable struct {
	Name  string
	Props []RawProp
}

// Prop is a flattened, decoder-resolved property ready for Source 1
// entity delta decoding (addressed by its position in a class's Props).
type Prop struct {
	Name     string
	Flags    int
	Priority int
	Decoder  *propdecoder.Decoder

	// For DPT_Array-backed props, Element describes the repeated
	// element decoder and NumElements its fixed count.
	Element     *propdecoder.Decoder
	NumElements int
}

// Class is one class's final, flattened, sorted property list.
type Class struct {
	Name  string
	Props []Prop
}

// excludePair is an (dt_name, var_name) pair collected in the first
// pass over a class's DataTable forest (spec.md §4.10).
type excludePair struct{ dtName, varName string }

// Assembler resolves RawTables by name, forming the forest.
type Assembler struct {
	tables map[string]*RawTable
}

// NewAssembler creates an Assembler over the given named tables.
func NewAssembler(tables map[string]*RawTable) *Assembler {
	return &Assembler{tables: tables}
}

// Build flattens rootTable (a class's own SendTable) into a Class.
func (a *Assembler) Build(className, rootTable string) *Class {
	root, ok := a.tables[rootTable]
	if !ok {
		return &Class{Name: className}
	}

	var excludes []excludePair
	collectExcludes(a.tables, root, &excludes)

	var flat []Prop
	flatten(a.tables, root, excludes, &flat)

	stableSortByPriority(flat)

	return &Class{Name: className, Props: flat}
}

func collectExcludes(tables map[string]*RawTable, t *RawTable, out *[]excludePair) {
	for _, p := range t.Props {
		if p.Flags&FlagExclude != 0 {
			*out = append(*out, excludePair{dtName: p.DTName, varName: p.Name})
		}
		if p.Type == TypeDataTable {
			if sub, ok := tables[p.DTName]; ok {
				collectExcludes(tables, sub, out)
			}
		}
	}
}

func excluded(excludes []excludePair, dtName, varName string) bool {
	for _, e := range excludes {
		if e.dtName == dtName && e.varName == varName {
			return true
		}
	}
	return false
}

func flatten(tables map[string]*RawTable, t *RawTable, excludes []excludePair, out *[]Prop) {
	for _, p := range t.Props {
		if excluded(excludes, t.Name, p.Name) {
			continue
		}
		if p.Flags&FlagExclude != 0 {
			continue // an exclusion marker prop itself never flattens
		}

		if p.Type == TypeDataTable {
			sub, ok := tables[p.DTName]
			if !ok {
				continue
			}
			// COLLAPSIBLE: inline the sub-table's props at this point;
			// otherwise (a referenced, non-collapsible table) the
			// reference still contributes its props flattened in
			// place — Source 1 has no separate "Object" carrier the
			// way Source 2 does, everything flattens to one index
			// space per class.
			flatten(tables, sub, excludes, out)
			continue
		}

		priority := p.Priority
		if p.Flags&FlagChangesOften != 0 && priority > maxPriority {
			priority = maxPriority
		}

		prop := Prop{
			Name:     p.Name,
			Flags:    p.Flags,
			Priority: priority,
		}

		if p.Type == TypeArray {
			prop.NumElements = p.NumElements
		} else {
			prop.Decoder = selectDecoder(p)
		}

		*out = append(*out, prop)
	}
}

// stableSortByPriority sorts by Priority while preserving relative
// order among equal priorities (spec.md §4.10: "implementations are
// free to choose any stable sort").
func stableSortByPriority(props []Prop) {
	sort.SliceStable(props, func(i, j int) bool {
		return props[i].Priority < props[j].Priority
	})
}
