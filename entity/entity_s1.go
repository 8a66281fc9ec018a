package entity

import (
	"fmt"

	"github.com/icza/csdemo/bitread"
	"github.com/icza/csdemo/datatable"
	"github.com/icza/csdemo/demoerr"
)

// Engine1 is the Source 1 entity delta engine: Source 1 addresses
// properties by flat index into a class's already-flattened prop list
// (datatable.Class) rather than by field-path operations (spec.md §4.9).
type Engine1 struct {
	entities map[int32]*Entity
	classes  map[int32]*datatable.Class
}

// NewEngine1 creates an empty Source 1 entity engine.
func NewEngine1() *Engine1 {
	return &Engine1{
		entities: make(map[int32]*Entity),
		classes:  make(map[int32]*datatable.Class),
	}
}

// SetClass associates a class id with its flattened property list.
func (e *Engine1) SetClass(classID int32, c *datatable.Class) {
	e.classes[classID] = c
}

// Entities returns the live sparse entity set.
func (e *Engine1) Entities() map[int32]*Entity { return e.entities }

// Entity returns an entity by id.
func (e *Engine1) Entity(id int32) (*Entity, bool) {
	ent, ok := e.entities[id]
	return ent, ok
}

// Create installs a new entity of class classID, applying the one delta
// read from r onto an empty property set; no instance baseline is
// applied here.
func (e *Engine1) Create(id, classID int32, r *bitread.Reader) error {
	c, ok := e.classes[classID]
	if !ok {
		return fmt.Errorf("%w: class %d", demoerr.ErrInvalidEntityID, classID)
	}
	ent := newEntity(id, classID)
	if err := e.applyDelta(ent, c, r); err != nil {
		return err
	}
	e.entities[id] = ent
	return nil
}

// Delete removes an entity.
func (e *Engine1) Delete(id int32) { delete(e.entities, id) }

// Update decodes an incremental delta for an existing entity.
func (e *Engine1) Update(id int32, r *bitread.Reader) error {
	ent, ok := e.entities[id]
	if !ok {
		return fmt.Errorf("%w: entity %d", demoerr.ErrInvalidEntityID, id)
	}
	c, ok := e.classes[ent.ClassID]
	if !ok {
		return fmt.Errorf("%w: class %d", demoerr.ErrInvalidEntityID, ent.ClassID)
	}
	return e.applyDelta(ent, c, r)
}

func (e *Engine1) applyDelta(ent *Entity, c *datatable.Class, r *bitread.Reader) error {
	lastIndex := -1
	newWay := r.ReadBit()

	for {
		idx, ok := readEntityFieldIndex(r, lastIndex, newWay)
		if !ok {
			return nil // 0xFFF sentinel: end of this entity's delta
		}
		if idx < 0 || idx >= len(c.Props) {
			return fmt.Errorf("%w: prop index %d in %s", demoerr.ErrInvalidEntityID, idx, c.Name)
		}
		lastIndex = idx

		p := c.Props[idx]
		if p.NumElements > 0 && p.Element != nil {
			// DPT_Array: the delta addresses one element at a time via
			// the same flat index space; element selection for arrays
			// in Source 1 rides on the outer prop index repeating, so
			// treat every hit on this index as "decode one more
			// element" is not how the wire format works -- Source 1
			// instead emits the whole array as NumElements consecutive
			// terminal decodes under distinct synthetic indices, which
			// the flattening step already expanded into c.Props. A
			// bare DPT_Array placeholder prop (no decoder) here means
			// the table wasn't fully expanded upstream; skip its
			// length-only marker rather than fail the whole entity.
			continue
		}
		if p.Decoder == nil {
			continue
		}
		ent.Values[p.Name] = p.Decoder.Decode(r)
	}
}

// readEntityFieldIndex implements spec.md §4.9's compact delta-of-index
// encoding. It returns (0, false) on the 0xFFF end-of-entity sentinel.
func readEntityFieldIndex(r *bitread.Reader, lastIndex int, newWay bool) (int, bool) {
	if newWay && r.ReadBit() {
		return lastIndex + 1, true
	}

	var value uint32
	if newWay && r.ReadBit() {
		value = uint32(r.ReadBits(3))
	} else {
		value = uint32(r.ReadBits(7))
		switch value & (32 | 64) {
		case 32:
			value = (value &^ 96) | uint32(r.ReadBits(2))<<5
		case 64:
			value = (value &^ 96) | uint32(r.ReadBits(4))<<5
		case 96:
			value = (value &^ 96) | uint32(r.ReadBits(7))<<5
		}
	}

	if value == 0xFFF {
		return 0, false
	}
	return lastIndex + 1 + int(value), true
}
