package datatable

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/icza/csdemo/bitread"
	"github.com/icza/csdemo/demoerr"
)

// ServerClass maps a class id to the class name and the root send table
// that describes its networked state, as declared in the server class
// list trailing a DataTables command's SendTable messages.
type ServerClass struct {
	ClassID   int
	ClassName string
	DataTable string
}

// ParseWire decodes a Source 1 DataTables command payload: a sequence of
// length-prefixed CSVCMsg_SendTable messages terminated by one with
// is_end set, followed by a server class count (u16) and that many
// (class_id u16, class_name cstring, data_table_name cstring) records
// (spec.md §4.10's schema assembler input). Per spec.md §1's non-goal on
// generated protobuf code, the SendTable messages are hand-decoded with
// protowire.Consume*, the same approach package sendtable uses for its
// Source 2 analogue; the server class list is plain byte-aligned framing
// like the rest of the Source 1 wire format (see dem.ParseSource1Header).
func ParseWire(data []byte) (map[string]*RawTable, []ServerClass, error) {
	tables := make(map[string]*RawTable)

	for len(data) > 0 {
		size, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, nil, fmt.Errorf("%w: send table length prefix", demoerr.ErrProtobuf)
		}
		data = data[n:]
		if uint64(len(data)) < size {
			return nil, nil, fmt.Errorf("%w: send table message truncated", demoerr.ErrProtobuf)
		}
		msg := data[:size]
		data = data[size:]

		rt, isEnd, err := parseSendTableMsg(msg)
		if err != nil {
			return nil, nil, err
		}
		if rt != nil {
			tables[rt.Name] = rt
		}
		if isEnd {
			break
		}
	}

	classes, err := parseServerClasses(data)
	if err != nil {
		return nil, nil, err
	}
	return tables, classes, nil
}

func parseServerClasses(data []byte) ([]ServerClass, error) {
	if len(data) < 2 {
		return nil, nil
	}
	r := bitread.New(data)
	count := int(r.ReadBits(16))
	classes := make([]ServerClass, 0, count)
	for i := 0; i < count; i++ {
		classes = append(classes, ServerClass{
			ClassID:   int(r.ReadBits(16)),
			ClassName: r.ReadString(),
			DataTable: r.ReadString(),
		})
	}
	return classes, nil
}

func parseSendTableMsg(data []byte) (*RawTable, bool, error) {
	rt := &RawTable{}
	isEnd := false

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, false, fmt.Errorf("%w: send table tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1: // net_table_name
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, false, fmt.Errorf("%w: net_table_name", demoerr.ErrProtobuf)
			}
			rt.Name = s
			data = data[n:]
		case 3: // is_end
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, false, fmt.Errorf("%w: is_end", demoerr.ErrProtobuf)
			}
			isEnd = v != 0
			data = data[n:]
		case 5: // props, repeated embedded SendTableProp message
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, false, fmt.Errorf("%w: prop", demoerr.ErrProtobuf)
			}
			prop, err := parseSendTableProp(b)
			if err != nil {
				return nil, false, err
			}
			rt.Props = append(rt.Props, prop)
			data = data[n:]
		default:
			n, err := skipField(data, typ)
			if err != nil {
				return nil, false, err
			}
			data = data[n:]
		}
	}
	return rt, isEnd, nil
}

func parseSendTableProp(data []byte) (RawProp, error) {
	p := RawProp{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return p, fmt.Errorf("%w: send table prop tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return p, fmt.Errorf("%w: var_name", demoerr.ErrProtobuf)
			}
			p.Name = s
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return p, fmt.Errorf("%w: var_type", demoerr.ErrProtobuf)
			}
			p.Type = int(v)
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return p, fmt.Errorf("%w: flags", demoerr.ErrProtobuf)
			}
			p.Flags = int(v)
			data = data[n:]
		case 4:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return p, fmt.Errorf("%w: priority", demoerr.ErrProtobuf)
			}
			p.Priority = int(v)
			data = data[n:]
		case 5:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return p, fmt.Errorf("%w: dt_name", demoerr.ErrProtobuf)
			}
			p.DTName = s
			data = data[n:]
		case 6:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return p, fmt.Errorf("%w: num_elements", demoerr.ErrProtobuf)
			}
			p.NumElements = int(v)
			data = data[n:]
		case 7:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return p, fmt.Errorf("%w: low_value", demoerr.ErrProtobuf)
			}
			p.Low = math.Float32frombits(v)
			data = data[n:]
		case 8:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return p, fmt.Errorf("%w: high_value", demoerr.ErrProtobuf)
			}
			p.High = math.Float32frombits(v)
			data = data[n:]
		case 9:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return p, fmt.Errorf("%w: bit_count", demoerr.ErrProtobuf)
			}
			p.BitCount = int(v)
			data = data[n:]
		default:
			n, err := skipField(data, typ)
			if err != nil {
				return p, err
			}
			data = data[n:]
		}
	}
	return p, nil
}

func skipField(data []byte, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, data)
	if n < 0 {
		return 0, fmt.Errorf("%w: unknown field", demoerr.ErrProtobuf)
	}
	return n, nil
}
