package demoinfo

import (
	"fmt"
	"math/bits"

	"github.com/icza/csdemo/bitread"
	"github.com/icza/csdemo/datatable"
	"github.com/icza/csdemo/dem"
	"github.com/icza/csdemo/demoerr"
	"github.com/icza/csdemo/gameevent"
	"github.com/icza/csdemo/jumptracker"
	"github.com/icza/csdemo/msg"
	"github.com/icza/csdemo/sendtable"
	"github.com/icza/csdemo/stringtable"
)

// handleCommand is the orchestrator's two-phase dispatch (spec.md
// §4.12). tick >= 0 flips the state machine into Phase B permanently;
// a demo never returns to Phase A.
func (st *state) handleCommand(cmd *dem.Command) error {
	st.tick = cmd.Tick
	if st.ph == phaseA && cmd.Tick >= 0 {
		st.ph = phaseB
	}

	if st.source1 {
		return st.handleSource1Command(cmd)
	}
	return st.handleSource2Command(cmd)
}

func (st *state) handleSource1Command(cmd *dem.Command) error {
	switch cmd.Kind.ID {
	case dem.Source1KindDataTables.ID:
		if st.ph == phaseB {
			return fmt.Errorf("%w: DataTables after phase B", demoerr.ErrPacketOutOfOrder)
		}
		tables, classes, err := datatable.ParseWire(cmd.Payload)
		if err != nil {
			return err
		}
		st.s1Tables = tables
		st.s1Classes = classes

		asm := datatable.NewAssembler(tables)
		for _, c := range classes {
			class := asm.Build(c.ClassName, c.DataTable)
			st.s1Entities.SetClass(int32(c.ClassID), class)
		}

	case dem.Source1KindStringTables.ID:
		if err := st.applyStringTablesSnapshot(cmd.Payload); err != nil {
			return err
		}

	case dem.Source1KindSignon.ID, dem.Source1KindPacket.ID:
		return st.handlePacketPayload(cmd.Payload)

	case dem.Source1KindSyncTick.ID, dem.Source1KindConsoleCmd.ID, dem.Source1KindUserCmd.ID,
		dem.Source1KindStop.ID, dem.Source1KindCustomData.ID:
		// carry no state this layer acts on

	default:
		// unrecognised tags never reach here: the framer itself rejects
		// them before a Command is produced
	}
	return nil
}

func (st *state) handleSource2Command(cmd *dem.Command) error {
	switch cmd.Kind.ID {
	case dem.Source2KindFileHeader.ID:
		h, err := parseSource2FileHeaderMsg(cmd.Payload)
		if err != nil {
			return err
		}
		st.visitor.fileHeader(h)

	case dem.Source2KindSendTables.ID:
		if st.ph == phaseB {
			return fmt.Errorf("%w: SendTables after phase B", demoerr.ErrPacketOutOfOrder)
		}
		flattened, err := unwrapBytesField(cmd.Payload, 1)
		if err != nil {
			return err
		}
		pool, err := sendtable.Parse(flattened)
		if err != nil {
			return err
		}
		all, err := pool.BuildAll()
		if err != nil {
			return err
		}
		st.s2Pool = pool
		st.s2Serializers = all
		st.s2Entities.RegisterSerializers(all)

	case dem.Source2KindClassInfo.ID:
		if st.ph == phaseB {
			return fmt.Errorf("%w: ClassInfo after phase B", demoerr.ErrPacketOutOfOrder)
		}
		entries, err := parseClassInfoMsg(cmd.Payload)
		if err != nil {
			return err
		}
		st.s2NumClasses = len(entries)
		for _, e := range entries {
			s, ok := st.s2Serializers[e.NetworkName]
			if !ok {
				continue
			}
			st.s2ClassByName[e.NetworkName] = e.ClassID
			st.s2Entities.SetClass(e.ClassID, s)
		}

	case dem.Source2KindStringTables.ID:
		if err := st.applyStringTablesSnapshot(cmd.Payload); err != nil {
			return err
		}

	case dem.Source2KindPacket.ID, dem.Source2KindSignonPacket.ID:
		return st.handlePacketPayload(cmd.Payload)

	case dem.Source2KindFullPacket.ID:
		strTables, packet, err := splitFullPacket(cmd.Payload)
		if err != nil {
			return err
		}
		if err := st.applyStringTablesSnapshot(strTables); err != nil {
			return err
		}
		return st.handlePacketPayload(packet)

	case dem.Source2KindStop.ID, dem.Source2KindSyncTick.ID, dem.Source2KindFileInfo.ID,
		dem.Source2KindConsoleCmd.ID, dem.Source2KindCustomData.ID, dem.Source2KindCustomDataCallbacks.ID,
		dem.Source2KindUserCmd.ID, dem.Source2KindSaveGame.ID, dem.Source2KindSpawnGroups.ID,
		dem.Source2KindAnimationData.ID:
		// carry no state this layer acts on

	default:
	}
	return nil
}

// applyStringTablesSnapshot installs a StringTables command's one-shot
// dump of every named table (spec.md §4.4). Source 1 and Source 2 share
// the same invented wire shape here (see DESIGN.md).
func (st *state) applyStringTablesSnapshot(payload []byte) error {
	snaps, err := parseStringTablesSnapshot(payload)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		t := st.strings.CreateTable(snap.Name, false, 0, 0, false)
		pairs := make([]struct {
			Key  string
			Data []byte
		}, len(snap.Items))
		for i, it := range snap.Items {
			pairs[i] = struct {
				Key  string
				Data []byte
			}{Key: it.Key, Data: it.Data}
		}
		t.ApplySnapshot(pairs)
		st.strings.NoteUpdate(t)
		if t.Name == "userinfo" {
			st.visitor.userInfoTable(st.strings.Players())
		}
	}
	return nil
}

// handlePacketPayload demuxes a Packet/Signon(Packet) payload and
// dispatches each inner message (spec.md §4.3/§4.12).
func (st *state) handlePacketPayload(payload []byte) error {
	msgs, err := msg.Parse(st.source1, payload)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if err := st.dispatchMessage(m); err != nil {
			return err
		}
	}
	return nil
}

func (st *state) dispatchMessage(m msg.Message) error {
	switch m.Type.ID {
	case msg.TypeServerInfo.ID:
		info, err := parseServerInfoMsg(m.Raw)
		if err != nil {
			return err
		}
		st.tickInterval = float64(info.TickInterval)
		st.jumps = jumptracker.New(st.tickInterval)
		st.visitor.serverInfo(st.tickInterval, info.MaxClients)

	case msg.TypeGameEventList.ID:
		descs, err := gameevent.ParseDescriptors(m.Raw)
		if err != nil {
			return err
		}
		st.events = gameevent.NewTable(descs)
		names := make([]string, len(descs))
		for i, d := range descs {
			names[i] = d.Name
		}
		st.visitor.gameEventDescriptors(names)

	case msg.TypeGameEvent.ID, msg.TypeSource1LegacyGameEvent.ID:
		if st.events == nil {
			return nil // GameEventList hasn't arrived yet; nothing to decode against
		}
		r := bitread.New(m.Raw)
		id := int32(r.ReadVarUint32())
		ev, err := st.events.Decode(id, r)
		if err != nil {
			return err
		}
		if ev != nil {
			st.processGameEvent(ev)
		}

	case msg.TypeCreateStringTable.ID:
		cm, err := parseCreateStringTableMsg(m.Raw)
		if err != nil {
			return err
		}
		t := st.strings.CreateTable(cm.Name, cm.UserDataFixedSize, cm.UserDataBits, cm.Flags, cm.UsingVarintBitcounts)
		t.ApplyUpdate(bitread.New(cm.Data), cm.NumEntries)
		st.strings.NoteUpdate(t)
		if t.Name == "userinfo" {
			st.visitor.userInfoTable(st.strings.Players())
		}

	case msg.TypeUpdateStringTable.ID:
		cm, err := parseCreateStringTableMsg(m.Raw)
		if err != nil {
			return err
		}
		t := st.strings.Table(cm.Name) // UpdateStringTable inherits the originating table's flags (spec.md §9)
		t.ApplyUpdate(bitread.New(cm.Data), cm.NumEntries)
		st.strings.NoteUpdate(t)
		if t.Name == "userinfo" {
			st.visitor.userInfoTable(st.strings.Players())
		}

	case msg.TypeClearAllStringTables.ID:
		st.strings = stringtable.NewEngine(st.source1)

	case msg.TypeUserInfo.ID:
		st.visitor.userInfoTable(st.strings.Players())

	case msg.TypePacketEntities.ID:
		if st.ph == phaseA {
			return fmt.Errorf("%w: PacketEntities in phase A", demoerr.ErrPacketOutOfOrder)
		}
		if st.source1 {
			return st.applySource1PacketEntities(m.Raw)
		}
		return st.applySource2PacketEntities(m.Raw)
	}
	return nil
}

func (st *state) applySource2PacketEntities(raw []byte) error {
	h, err := parsePacketEntitiesMsg(raw)
	if err != nil {
		return err
	}
	r := bitread.New(h.EntityData)
	classIDBits := classIDBitCount(st.s2NumClasses)

	baseline := func(classID int32) (*bitread.Reader, bool) {
		b, ok := st.strings.Baseline(int(classID))
		if !ok {
			return nil, false
		}
		return bitread.New(b), true
	}

	return st.s2Entities.ApplyPacketEntities(r, h.UpdatedEntries, classIDBits, baseline)
}

// applySource1PacketEntities mirrors Engine2.ApplyPacketEntities' entity
// id/remove/new envelope (spec.md §4.8), since §4.9 only specifies the
// per-property delta-of-index scheme and leaves the entity envelope to
// "see reference" — Source 1 and Source 2 share it in the real engine
// (see DESIGN.md).
func (st *state) applySource1PacketEntities(raw []byte) error {
	h, err := parsePacketEntitiesMsg(raw)
	if err != nil {
		return err
	}
	r := bitread.New(h.EntityData)
	classIDBits := classIDBitCount(len(st.s1Classes))

	nextID := int32(0)
	for i := 0; i < h.UpdatedEntries; i++ {
		id := nextID + int32(r.ReadUBitVar())
		nextID = id + 1

		remove := r.ReadBit()
		isNew := r.ReadBit()

		switch {
		case !remove && !isNew:
			if err := st.s1Entities.Update(id, r); err != nil {
				return err
			}
		case !remove && isNew:
			classID := int32(r.ReadBits(uint(classIDBits)))
			if err := st.s1Entities.Create(id, classID, r); err != nil {
				return err
			}
		default:
			st.s1Entities.Delete(id)
		}
	}
	return nil
}

func classIDBitCount(numClasses int) int {
	if numClasses < 2 {
		return 1
	}
	return bits.Len(uint(numClasses - 1))
}
