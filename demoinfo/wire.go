package demoinfo

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/icza/csdemo/dem"
	"github.com/icza/csdemo/demoerr"
)

// The orchestrator is the one place that needs to peek inside a handful
// of envelope protobuf messages before handing the interesting payload
// down to the component that owns it (CDemoSendTables.data to package
// sendtable, a string table's encoded records to package stringtable,
// and so on). Per spec.md §1's non-goal on generated protobuf code,
// these are small hand-rolled protowire scans rather than generated
// message types, the same approach package sendtable and package
// gameevent use for their own envelopes.

// createStringTableMsg is the decoded shape of a CreateStringTable (and,
// after the first message, an UpdateStringTable) inner message.
type createStringTableMsg struct {
	Name                 string
	UserDataFixedSize    bool
	UserDataBits         int
	Flags                int
	UsingVarintBitcounts bool
	NumEntries           int
	Data                 []byte
}

func parseCreateStringTableMsg(data []byte) (createStringTableMsg, error) {
	var m createStringTableMsg
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return m, fmt.Errorf("%w: create string table tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return m, fmt.Errorf("%w: table name", demoerr.ErrProtobuf)
			}
			m.Name = s
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return m, fmt.Errorf("%w: num_entries", demoerr.ErrProtobuf)
			}
			m.NumEntries = int(v)
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return m, fmt.Errorf("%w: user_data_fixed_size", demoerr.ErrProtobuf)
			}
			m.UserDataFixedSize = v != 0
			data = data[n:]
		case 4:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return m, fmt.Errorf("%w: user_data_size_bits", demoerr.ErrProtobuf)
			}
			m.UserDataBits = int(v)
			data = data[n:]
		case 5:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return m, fmt.Errorf("%w: string_data", demoerr.ErrProtobuf)
			}
			m.Data = b
			data = data[n:]
		case 6:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return m, fmt.Errorf("%w: flags", demoerr.ErrProtobuf)
			}
			m.Flags = int(v)
			data = data[n:]
		case 7:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return m, fmt.Errorf("%w: using_varint_bitcounts", demoerr.ErrProtobuf)
			}
			m.UsingVarintBitcounts = v != 0
			data = data[n:]
		default:
			nn, err := skipProtoField(data, typ)
			if err != nil {
				return m, err
			}
			data = data[nn:]
		}
	}
	return m, nil
}

// serverInfoMsg is the decoded shape of the ServerInfo inner message.
type serverInfoMsg struct {
	TickInterval float32
	MaxClients   int
}

func parseServerInfoMsg(data []byte) (serverInfoMsg, error) {
	var m serverInfoMsg
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return m, fmt.Errorf("%w: server info tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return m, fmt.Errorf("%w: tick_interval", demoerr.ErrProtobuf)
			}
			m.TickInterval = math.Float32frombits(v)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return m, fmt.Errorf("%w: max_clients", demoerr.ErrProtobuf)
			}
			m.MaxClients = int(v)
			data = data[n:]
		default:
			nn, err := skipProtoField(data, typ)
			if err != nil {
				return m, err
			}
			data = data[nn:]
		}
	}
	return m, nil
}

// classInfoEntry is one ClassInfo command record.
type classInfoEntry struct {
	ClassID     int32
	NetworkName string
}

func parseClassInfoMsg(data []byte) ([]classInfoEntry, error) {
	var out []classInfoEntry
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: class info tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		if num != 1 {
			nn, err := skipProtoField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[nn:]
			continue
		}

		b, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: class entry", demoerr.ErrProtobuf)
		}
		data = data[n:]

		entry, err := parseClassInfoEntry(b)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func parseClassInfoEntry(data []byte) (classInfoEntry, error) {
	var e classInfoEntry
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return e, fmt.Errorf("%w: class entry tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return e, fmt.Errorf("%w: class_id", demoerr.ErrProtobuf)
			}
			e.ClassID = int32(v)
			data = data[n:]
		case 2:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return e, fmt.Errorf("%w: network_name", demoerr.ErrProtobuf)
			}
			e.NetworkName = s
			data = data[n:]
		default:
			nn, err := skipProtoField(data, typ)
			if err != nil {
				return e, err
			}
			data = data[nn:]
		}
	}
	return e, nil
}

// unwrapBytesField returns field fieldNum's bytes payload from a
// top-level protobuf message (e.g. CDemoSendTables.data).
func unwrapBytesField(data []byte, fieldNum protowire.Number) ([]byte, error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: envelope tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		if num == fieldNum {
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: envelope field %d", demoerr.ErrProtobuf, fieldNum)
			}
			return b, nil
		}
		nn, err := skipProtoField(data, typ)
		if err != nil {
			return nil, err
		}
		data = data[nn:]
	}
	return nil, fmt.Errorf("%w: envelope field %d not present", demoerr.ErrProtobuf, fieldNum)
}

// packetEntitiesHeader is the fixed portion of a PacketEntities message
// preceding its bit-packed entity_data (spec.md §4.8).
type packetEntitiesHeader struct {
	MaxEntries     int
	UpdatedEntries int
	IsDelta        bool
	EntityData     []byte
}

func parsePacketEntitiesMsg(data []byte) (packetEntitiesHeader, error) {
	var h packetEntitiesHeader
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return h, fmt.Errorf("%w: packet entities tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return h, fmt.Errorf("%w: max_entries", demoerr.ErrProtobuf)
			}
			h.MaxEntries = int(v)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return h, fmt.Errorf("%w: updated_entries", demoerr.ErrProtobuf)
			}
			h.UpdatedEntries = int(v)
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return h, fmt.Errorf("%w: is_delta", demoerr.ErrProtobuf)
			}
			h.IsDelta = v != 0
			data = data[n:]
		case 4:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return h, fmt.Errorf("%w: entity_data", demoerr.ErrProtobuf)
			}
			h.EntityData = b
			data = data[n:]
		default:
			nn, err := skipProtoField(data, typ)
			if err != nil {
				return h, err
			}
			data = data[nn:]
		}
	}
	return h, nil
}

func skipProtoField(data []byte, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, data)
	if n < 0 {
		return 0, fmt.Errorf("%w: unknown envelope field", demoerr.ErrProtobuf)
	}
	return n, nil
}

// parseSource2FileHeaderMsg decodes a Source 2 FileHeader command. Only
// the field the rest of the core names (map_name) is extracted; unlike
// Source 1, downstream consumers see a Header with the other fields
// zero-valued.
func parseSource2FileHeaderMsg(data []byte) (*dem.Header, error) {
	h := &dem.Header{Format: dem.FormatSource2}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: file header tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		if num != 1 {
			nn, err := skipProtoField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[nn:]
			continue
		}

		v, n := protowire.ConsumeString(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: map_name", demoerr.ErrProtobuf)
		}
		h.MapName = v
		data = data[n:]
	}
	return h, nil
}

// stringTableItem is one (key, user_data) pair inside a string-table
// snapshot entry.
type stringTableItem struct {
	Key  string
	Data []byte
}

// stringTableSnapshot is one named table's full one-shot dump, carried
// by a StringTables command (spec.md §4.4's "one-shot snapshot
// message").
type stringTableSnapshot struct {
	Name  string
	Items []stringTableItem
}

// parseStringTablesSnapshot decodes a StringTables command payload: a
// repeated list of named tables, each a repeated list of (key, data)
// items.
func parseStringTablesSnapshot(data []byte) ([]stringTableSnapshot, error) {
	var out []stringTableSnapshot
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: string tables tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		if num != 1 {
			nn, err := skipProtoField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[nn:]
			continue
		}

		b, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: string table", demoerr.ErrProtobuf)
		}
		data = data[n:]

		snap, err := parseStringTableSnapshotEntry(b)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func parseStringTableSnapshotEntry(data []byte) (stringTableSnapshot, error) {
	var s stringTableSnapshot
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return s, fmt.Errorf("%w: string table name tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return s, fmt.Errorf("%w: table_name", demoerr.ErrProtobuf)
			}
			s.Name = v
			data = data[n:]
		case 2:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return s, fmt.Errorf("%w: item", demoerr.ErrProtobuf)
			}
			item, err := parseStringTableItem(b)
			if err != nil {
				return s, err
			}
			s.Items = append(s.Items, item)
			data = data[n:]
		default:
			nn, err := skipProtoField(data, typ)
			if err != nil {
				return s, err
			}
			data = data[nn:]
		}
	}
	return s, nil
}

func parseStringTableItem(data []byte) (stringTableItem, error) {
	var it stringTableItem
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return it, fmt.Errorf("%w: string table item tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return it, fmt.Errorf("%w: item key", demoerr.ErrProtobuf)
			}
			it.Key = v
			data = data[n:]
		case 2:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return it, fmt.Errorf("%w: item data", demoerr.ErrProtobuf)
			}
			it.Data = b
			data = data[n:]
		default:
			nn, err := skipProtoField(data, typ)
			if err != nil {
				return it, err
			}
			data = data[nn:]
		}
	}
	return it, nil
}

// splitFullPacket unwraps a Source 2 FullPacket command into its two
// legs (spec.md §4.12: "expanded as a StringTables followed by a
// Packet"). Field 1 carries the string-table snapshot bytes, field 2
// the packet bytes.
func splitFullPacket(data []byte) (stringTables, packet []byte, err error) {
	stringTables, err = unwrapBytesField(data, 1)
	if err != nil {
		return nil, nil, err
	}
	packet, err = unwrapBytesField(data, 2)
	if err != nil {
		return nil, nil, err
	}
	return stringTables, packet, nil
}
