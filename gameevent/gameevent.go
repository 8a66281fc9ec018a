/*

Package gameevent implements the game-event deserializer (spec layer
L8): it builds an event_id -> descriptor table from a GameEventList
message, then decodes each subsequent GameEvent/Source1LegacyGameEvent
record against its descriptor, asserting per-key type agreement
(spec.md §4.11).

*/
package gameevent

import (
	"fmt"

	"github.com/icza/csdemo/bitread"
	"github.com/icza/csdemo/demoerr"
)

// KeyType is one event key's declared value type (spec.md §3).
type KeyType int

const (
	KeyString     KeyType = 1
	KeyFloat32    KeyType = 2
	KeyInt32Long  KeyType = 3
	KeyInt32Short KeyType = 4
	KeyInt32Byte  KeyType = 5
	KeyBool       KeyType = 6
	KeyUint64     KeyType = 7
	KeyEHandle    KeyType = 8
	KeyController KeyType = 9
)

// Key is one descriptor key.
type Key struct {
	Name string
	Type KeyType
}

// Descriptor is one event's name plus its ordered key schema.
type Descriptor struct {
	ID   int32
	Name string
	Keys []Key
}

// Event is one decoded occurrence: the name of the descriptor it
// matched, plus its decoded values keyed by key name.
type Event struct {
	Name   string
	Values map[string]interface{}
}

// Table holds the event_id -> Descriptor mapping built from
// GameEventList, immutable once constructed (spec.md §3 lifecycles).
type Table struct {
	byID map[int32]*Descriptor
}

// NewTable builds a Table from a list of descriptors (already parsed
// out of the GameEventList protobuf by the caller, which owns the
// protowire-level field extraction per spec.md §1's non-goal on
// generated protobuf code).
func NewTable(descriptors []*Descriptor) *Table {
	t := &Table{byID: make(map[int32]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		t.byID[d.ID] = d
	}
	return t
}

// Descriptor returns the descriptor for an event id.
func (t *Table) Descriptor(id int32) (*Descriptor, bool) {
	d, ok := t.byID[id]
	return d, ok
}

// Decode reads one event's key values from r against its descriptor
// (spec.md §4.11). Each key on the wire is preceded by its own 3-bit
// type tag, which must agree with the descriptor's declared type for
// that key position; a mismatch is an error rather than a silent
// coercion, since it means the descriptor table and the event stream
// have drifted out of sync.
func (t *Table) Decode(id int32, r *bitread.Reader) (*Event, error) {
	d, ok := t.byID[id]
	if !ok {
		return nil, nil // unknown event name: silently ignored (spec.md §4.11)
	}

	values := make(map[string]interface{}, len(d.Keys))
	for _, k := range d.Keys {
		wireType := KeyType(r.ReadBits(3))
		if wireType != k.Type {
			return nil, fmt.Errorf("%w: key %q type mismatch in %s", demoerr.ErrProtobuf, k.Name, d.Name)
		}
		values[k.Name] = decodeValue(k.Type, r)
	}
	return &Event{Name: d.Name, Values: values}, nil
}

func decodeValue(t KeyType, r *bitread.Reader) interface{} {
	switch t {
	case KeyString:
		return r.ReadString()
	case KeyFloat32:
		return r.ReadFloat32()
	case KeyInt32Long:
		return int32(r.ReadBits(32))
	case KeyInt32Short:
		return int32(r.ReadBits(16))
	case KeyInt32Byte:
		return int32(r.ReadBits(8))
	case KeyBool:
		return r.ReadBit()
	case KeyUint64:
		return r.ReadFixed64()
	case KeyEHandle, KeyController:
		return int32(r.ReadBits(32))
	default:
		return nil
	}
}
