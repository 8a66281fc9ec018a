package gameevent

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/icza/csdemo/demoerr"
)

// ParseDescriptors decodes a GameEventList message's repeated descriptor
// list (CMsgSource1LegacyGameEventList / CMsgGameEventList: a top-level
// repeated "descriptors" field, each an {eventid int32, name string,
// keys repeated {type int32, name string}} message) into Descriptors
// (spec.md §4.11). Per spec.md §1's non-goal on generated protobuf code,
// this is hand-decoded with protowire.Consume*, the same approach
// package sendtable uses for CSVCMsg_FlattenedSerializer.
func ParseDescriptors(data []byte) ([]*Descriptor, error) {
	var out []*Descriptor

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: game event list tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		if num != 1 { // descriptors
			n, err := skipField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[n:]
			continue
		}

		b, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: descriptor", demoerr.ErrProtobuf)
		}
		data = data[n:]

		d, err := parseDescriptor(b)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseDescriptor(data []byte) (*Descriptor, error) {
	d := &Descriptor{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: descriptor tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: eventid", demoerr.ErrProtobuf)
			}
			d.ID = int32(v)
			data = data[n:]
		case 2:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: descriptor name", demoerr.ErrProtobuf)
			}
			d.Name = s
			data = data[n:]
		case 3:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: key", demoerr.ErrProtobuf)
			}
			k, err := parseKey(b)
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			data = data[n:]
		default:
			n, err := skipField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[n:]
		}
	}
	return d, nil
}

func parseKey(data []byte) (Key, error) {
	k := Key{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return k, fmt.Errorf("%w: key tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return k, fmt.Errorf("%w: key name", demoerr.ErrProtobuf)
			}
			k.Name = s
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return k, fmt.Errorf("%w: key type", demoerr.ErrProtobuf)
			}
			k.Type = KeyType(v)
			data = data[n:]
		default:
			n, err := skipField(data, typ)
			if err != nil {
				return k, err
			}
			data = data[n:]
		}
	}
	return k, nil
}

func skipField(data []byte, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, data)
	if n < 0 {
		return 0, fmt.Errorf("%w: unknown field", demoerr.ErrProtobuf)
	}
	return n, nil
}
