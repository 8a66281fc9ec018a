/*

Package stringtable implements the string-table engine (spec layer L3):
named, keyed dictionaries fed either by a one-shot snapshot message or by
incremental create/update messages carrying bit-packed change records
with a bounded prefix-reuse history (spec.md §4.4). It also owns the two
name-specific projections the core must understand: userinfo (player
records) and instancebaseline (per-class default entity payloads).

*/
package stringtable

import (
	"strconv"
	"strings"

	"github.com/golang/snappy"

	"github.com/icza/csdemo/bitread"
	"github.com/icza/csdemo/dem"
	"github.com/icza/csdemo/demoerr"
)

const maxHistory = 32

// Entry is one slot of a Table.
type Entry struct {
	Key      string
	UserData []byte
}

// Table is a single named string table.
type Table struct {
	Name string

	// UserDataFixedSize/UserDataBits/Flags/UsingVarintBitcounts come from
	// the CreateStringTable header (spec.md §3, §4.4). UpdateStringTable
	// messages inherit them from the table they target.
	UserDataFixedSize    bool
	UserDataBits         int
	Flags                int
	UsingVarintBitcounts bool

	entries map[int]Entry
	history [][]byte // bounded ring buffer of up to maxHistory most recent keys
}

// New creates an empty, named Table.
func New(name string, userDataFixedSize bool, userDataBits, flags int, usingVarintBitcounts bool) *Table {
	return &Table{
		Name:                 name,
		UserDataFixedSize:    userDataFixedSize,
		UserDataBits:         userDataBits,
		Flags:                flags,
		UsingVarintBitcounts: usingVarintBitcounts,
		entries:              make(map[int]Entry),
	}
}

// Entries returns a snapshot copy of the table's (slot -> Entry) map.
func (t *Table) Entries() map[int]Entry {
	out := make(map[int]Entry, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Entry returns the entry at slot, and whether it exists.
func (t *Table) Entry(slot int) (Entry, bool) {
	e, ok := t.entries[slot]
	return e, ok
}

func (t *Table) pushHistory(key string) {
	t.history = append([][]byte{[]byte(key)}, t.history...)
	if len(t.history) > maxHistory {
		t.history = t.history[:maxHistory]
	}
}

// ApplySnapshot installs a one-shot snapshot's (key, data) pairs
// (CDemoStringTables / the aggregated form) at sequential slots starting
// from 0, the layout the snapshot message uses.
func (t *Table) ApplySnapshot(pairs []struct {
	Key  string
	Data []byte
}) {
	for i, p := range pairs {
		t.entries[i] = Entry{Key: p.Key, UserData: p.Data}
		t.pushHistory(p.Key)
	}
}

// ApplyUpdate decodes n incremental change records from r and installs
// them, per the algorithm in spec.md §4.4.
func (t *Table) ApplyUpdate(r *bitread.Reader, n int) {
	cursor := 0

	for i := 0; i < n; i++ {
		if !r.ReadBit() {
			cursor += int(r.ReadVarUint32()) + 1
		} else {
			cursor++
		}

		existing := t.entries[cursor]
		key := existing.Key

		if r.ReadBit() { // key present
			if !r.ReadBit() {
				key = r.ReadString()
			} else {
				pos := int(r.ReadBits(5))
				length := int(r.ReadBits(5))
				if pos >= len(t.history) {
					key = r.ReadString()
				} else {
					prefixSrc := t.history[pos]
					if length > len(prefixSrc) {
						length = len(prefixSrc)
					}
					key = string(prefixSrc[:length]) + r.ReadString()
				}
			}
			t.pushHistory(key)
		}

		userData := existing.UserData
		if r.ReadBit() { // value present
			var bits int
			isCompressed := false
			if t.UserDataFixedSize {
				bits = t.UserDataBits
			} else {
				if t.Flags&1 != 0 {
					isCompressed = r.ReadBit()
				}
				if t.UsingVarintBitcounts {
					bits = int(r.ReadUBitVar()) * 8
				} else {
					bits = int(r.ReadBits(17)) * 8
				}
			}
			value := r.ReadBytes(bits / 8)
			if isCompressed {
				decoded, err := snappy.Decode(nil, value)
				if err != nil {
					panic(demoerr.ErrDecompression)
				}
				value = decoded
			}
			userData = value
		}

		t.entries[cursor] = Entry{Key: key, UserData: userData}
	}
}

// Engine tracks every named string table seen in a demo and maintains
// the userinfo and instancebaseline projections the rest of the core
// consumes by name (spec.md §3, §4.4).
type Engine struct {
	tables map[string]*Table

	// source1 selects which wire shape userinfo entries use: Source 1's
	// fixed 337-byte struct, or Source 2's CMsgPlayerInfo protobuf
	// message (spec.md §6.2).
	source1 bool

	// baselines maps class id (as it appeared in instancebaseline's
	// decimal-ASCII keys) to the raw baseline payload.
	baselines map[int][]byte

	// players maps userinfo slot to the decoded player record.
	players map[int]*dem.PlayerInfo
}

// NewEngine creates an empty Engine. source1 selects the userinfo wire
// shape NoteUpdate parses entries with.
func NewEngine(source1 bool) *Engine {
	return &Engine{
		tables:    make(map[string]*Table),
		source1:   source1,
		baselines: make(map[int][]byte),
		players:   make(map[int]*dem.PlayerInfo),
	}
}

// Table returns the named table, creating it if it doesn't exist yet.
func (e *Engine) Table(name string) *Table {
	t, ok := e.tables[name]
	if !ok {
		t = New(name, false, 0, 0, false)
		e.tables[name] = t
	}
	return t
}

// CreateTable installs a freshly declared table (from CreateStringTable),
// replacing any previous table of the same name.
func (e *Engine) CreateTable(name string, userDataFixedSize bool, userDataBits, flags int, usingVarintBitcounts bool) *Table {
	t := New(name, userDataFixedSize, userDataBits, flags, usingVarintBitcounts)
	e.tables[name] = t
	return t
}

// NoteUpdate re-derives the userinfo/instancebaseline projections for a
// table after it has been mutated. Call this after every ApplySnapshot /
// ApplyUpdate on a table named "userinfo" or "instancebaseline".
func (e *Engine) NoteUpdate(t *Table) {
	switch t.Name {
	case "userinfo":
		for slot, entry := range t.entries {
			if len(entry.UserData) == 0 {
				delete(e.players, slot)
				continue
			}
			parse := dem.ParseSource2PlayerInfo
			if e.source1 {
				parse = dem.ParseSource1PlayerInfo
			}
			pi, err := parse(entry.UserData)
			if err != nil {
				continue
			}
			e.players[slot] = pi
		}
	case "instancebaseline":
		for _, entry := range t.entries {
			if strings.Contains(entry.Key, ":") {
				continue // malformed/extension keys are ignored per spec.md §4.4
			}
			classID, err := strconv.Atoi(entry.Key)
			if err != nil {
				continue
			}
			e.baselines[classID] = entry.UserData
		}
	}
}

// Players returns the live userinfo projection, keyed by slot.
func (e *Engine) Players() map[int]*dem.PlayerInfo {
	out := make(map[int]*dem.PlayerInfo, len(e.players))
	for k, v := range e.players {
		out[k] = v
	}
	return out
}

// Baseline returns the raw instance-baseline payload for a class id, and
// whether one has been recorded (baselines may arrive before the class
// itself is constructed; the orchestrator looks the baseline up here
// when an entity of that class is created, not at ClassInfo time).
func (e *Engine) Baseline(classID int) ([]byte, bool) {
	b, ok := e.baselines[classID]
	return b, ok
}
