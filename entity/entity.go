/*

Package entity implements the entity delta engine (spec layer L7/L9) for
both wire formats: Source 2's field-path-addressed property patches
(spec.md §4.8) and Source 1's delta-of-index encoding over a flattened
SendTable property list (spec.md §4.9).

A decoded entity's properties are kept in a flat map keyed by a
human-readable dotted/bracketed path (e.g. "m_vecOrigin", or
"m_hMyWeapons[2]" for a Vector element, or "m_pActiveWeapon.m_iClip1"
for a nested Object) rather than as a literal nested Go struct tree --
this is the traversal spec.md §4.8 step 3 describes, expressed as a
single addressable map rather than a hand-built tree of interface{}
shells, since every consumer (game events, jump/smoke trackers, the CLI)
only ever wants one property by name at a time.

*/
package entity

import (
	"fmt"
	"strings"

	"github.com/icza/csdemo/bitread"
	"github.com/icza/csdemo/demoerr"
	"github.com/icza/csdemo/fieldpath"
	"github.com/icza/csdemo/sendtable"
)

// Entity is one live entity's class identity and flattened property map.
type Entity struct {
	ID      int32
	ClassID int32

	// Values holds every property this entity has ever had written,
	// keyed by its flattened path (see package doc). Absent keys mean
	// "never written", not "zero".
	Values map[string]interface{}
}

func newEntity(id, classID int32) *Entity {
	return &Entity{ID: id, ClassID: classID, Values: make(map[string]interface{})}
}

// Get returns a property value by its flattened path, and whether it
// has ever been written.
func (e *Entity) Get(path string) (interface{}, bool) {
	v, ok := e.Values[path]
	return v, ok
}

// Engine2 is the Source 2 entity delta engine: a sparse array of
// entities indexed by id, fed serializer identity via a class table.
type Engine2 struct {
	entities    map[int32]*Entity
	classes     map[int32]*sendtable.Serializer
	serializers map[string]*sendtable.Serializer
}

// NewEngine2 creates an empty Source 2 entity engine.
func NewEngine2() *Engine2 {
	return &Engine2{
		entities:    make(map[int32]*Entity),
		classes:     make(map[int32]*sendtable.Serializer),
		serializers: make(map[string]*sendtable.Serializer),
	}
}

// SetClass associates a class id with its flattened serializer (from
// ClassInfo time).
func (e *Engine2) SetClass(classID int32, s *sendtable.Serializer) {
	e.classes[classID] = s
}

// RegisterSerializers makes every built serializer available to nested
// Object-field path resolution by name. Call once after
// sendtable.Pool.BuildAll, before the first PacketEntities.
func (e *Engine2) RegisterSerializers(all map[string]*sendtable.Serializer) {
	for name, s := range all {
		e.serializers[name] = s
	}
}

// Entities returns the live sparse entity set.
func (e *Engine2) Entities() map[int32]*Entity { return e.entities }

// Entity returns an entity by id.
func (e *Engine2) Entity(id int32) (*Entity, bool) {
	ent, ok := e.entities[id]
	return ent, ok
}

// ApplyPacketEntities decodes one PacketEntities message's updated_entries
// records (spec.md §4.8). baseline, given a class id, returns that
// class's instancebaseline payload (if any) as a bitstream-ready slice.
func (e *Engine2) ApplyPacketEntities(r *bitread.Reader, updatedEntries int, classIDBits int, baseline func(classID int32) (*bitread.Reader, bool)) error {
	nextID := int32(0)

	for i := 0; i < updatedEntries; i++ {
		id := nextID + int32(r.ReadUBitVar())
		nextID = id + 1

		remove := r.ReadBit()
		isNew := r.ReadBit()

		switch {
		case !remove && !isNew: // update existing
			ent, ok := e.entities[id]
			if !ok {
				return fmt.Errorf("%w: entity %d", demoerr.ErrInvalidEntityID, id)
			}
			paths := fieldpath.ReadPaths(r)
			for _, p := range paths {
				if err := e.writeProp(ent, p, r); err != nil {
					return err
				}
			}

		case !remove && isNew: // create
			classID := int32(r.ReadBits(uint(classIDBits)))
			_ = r.ReadBits(17) // serial number, unused by any consumer
			_ = r.ReadVarUint32()

			ent := newEntity(id, classID)
			if br, ok := baseline(classID); ok {
				basePaths := fieldpath.ReadPaths(br)
				for _, p := range basePaths {
					if err := e.writeProp(ent, p, br); err != nil {
						return err
					}
				}
			}
			paths := fieldpath.ReadPaths(r)
			for _, p := range paths {
				if err := e.writeProp(ent, p, r); err != nil {
					return err
				}
			}
			e.entities[id] = ent

		default: // delete
			delete(e.entities, id)
		}
	}
	return nil
}

// writeProp navigates path through ent's serializer tree, decoding and
// storing the addressed terminal value (spec.md §4.8 step 3).
func (e *Engine2) writeProp(ent *Entity, path fieldpath.Path, r *bitread.Reader) error {
	s, ok := e.classes[ent.ClassID]
	if !ok {
		return fmt.Errorf("%w: class %d", demoerr.ErrInvalidEntityID, ent.ClassID)
	}

	key, field, err := e.resolvePath(s, path)
	if err != nil {
		return err
	}
	if field == nil {
		return nil // path addressed a container shell, not a terminal value
	}

	if field.Polymorphic {
		_ = r.ReadUBitVar() // selector; unused (open question, see DESIGN.md)
	}

	var value interface{}
	switch {
	case field.Variant == sendtable.VariantVector && !strings.HasSuffix(key, "]"):
		// The Vector-length path component decodes as a U32 giving the
		// new length (spec.md §4.8). resolvePath also returns the Vector
		// field for a scalar element path ("name[i]"); those keys end in
		// an index and decode through the element decoder below.
		length := r.ReadVarUint32()
		value = length
	default:
		if field.Decoder != nil {
			value = field.Decoder.Decode(r)
		}
	}
	ent.Values[key] = value
	return nil
}

// resolvePath walks s's field tree following path, building a
// human-readable key as it goes. It returns the terminal *Field once
// path is exhausted at a scalar/array-element/vector-element leaf (for a
// scalar element that is the Array/Vector field itself), the
// Array/Vector field when path stops at it (a Vector's own length slot),
// or a nil Field (but no error) when path addresses an Object field with
// no further index.
func (e *Engine2) resolvePath(s *sendtable.Serializer, path fieldpath.Path) (string, *sendtable.Field, error) {
	if len(path) == 0 {
		return "", nil, fmt.Errorf("%w: empty field path", demoerr.ErrInvalidEntityID)
	}
	idx := int(path[0])
	if idx < 0 || idx >= len(s.Fields) {
		return "", nil, fmt.Errorf("%w: field index %d in %s", demoerr.ErrInvalidEntityID, idx, s.Name)
	}
	f := s.Fields[idx]
	rest := path[1:]

	switch f.Variant {
	case sendtable.VariantObject:
		if len(rest) == 0 {
			return f.Name, nil, nil
		}
		return e.descend(f, rest, f.Name)

	case sendtable.VariantArray, sendtable.VariantVector:
		if len(rest) == 0 {
			return f.Name, f, nil // Vector's own length slot
		}
		elemIdx := rest[0]
		key := fmt.Sprintf("%s[%d]", f.Name, elemIdx)
		if f.ObjectSerializer == "" {
			if len(rest) > 1 {
				return "", nil, fmt.Errorf("%w: scalar array element over-addressed", demoerr.ErrInvalidEntityID)
			}
			return key, f, nil
		}
		return e.descend(f, rest[1:], key)

	default:
		if len(rest) != 0 {
			return "", nil, fmt.Errorf("%w: scalar field over-addressed", demoerr.ErrInvalidEntityID)
		}
		return f.Name, f, nil
	}
}

// descend continues path resolution into an Object field's referenced
// serializer, looked up by name in the engine's serializer registry
// (RegisterSerializers).
func (e *Engine2) descend(f *sendtable.Field, rest fieldpath.Path, prefix string) (string, *sendtable.Field, error) {
	sub, ok := e.serializers[f.ObjectSerializer]
	if !ok {
		return "", nil, fmt.Errorf("%w: serializer %s", demoerr.ErrInvalidEntityID, f.ObjectSerializer)
	}
	key, field, err := e.resolvePath(sub, rest)
	if err != nil {
		return "", nil, err
	}
	return prefix + "." + key, field, nil
}
