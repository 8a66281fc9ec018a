package datatable

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func appendLengthPrefixed(dst, msg []byte) []byte {
	dst = protowire.AppendVarint(dst, uint64(len(msg)))
	return append(dst, msg...)
}

func encodeSendTableProp(p RawProp) []byte {
	var b []byte
	if p.Name != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, p.Name)
	}
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Type))
	if p.Flags != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Flags))
	}
	return b
}

func encodeSendTableMsg(name string, props []RawProp, isEnd bool) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, name)
	for _, p := range props {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeSendTableProp(p))
	}
	if isEnd {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	return b
}

func TestParseWireDecodesSendTablesAndClasses(t *testing.T) {
	var data []byte
	data = appendLengthPrefixed(data, encodeSendTableMsg("DT_Player", []RawProp{
		{Name: "m_health", Type: TypeInt},
	}, false))
	data = appendLengthPrefixed(data, encodeSendTableMsg("DT_Weapon", nil, true))

	// trailing server class list: count=1, (class_id=5, "CPlayer", "DT_Player")
	data = append(data, 1, 0) // u16 LE count = 1
	data = append(data, 5, 0) // u16 LE class_id = 5
	data = append(data, []byte("CPlayer")...)
	data = append(data, 0)
	data = append(data, []byte("DT_Player")...)
	data = append(data, 0)

	tables, classes, err := ParseWire(data)
	if err != nil {
		t.Fatalf("ParseWire: %v", err)
	}
	if _, ok := tables["DT_Player"]; !ok {
		t.Fatal("expected DT_Player table")
	}
	if _, ok := tables["DT_Weapon"]; !ok {
		t.Fatal("expected DT_Weapon table")
	}
	if len(tables["DT_Player"].Props) != 1 || tables["DT_Player"].Props[0].Name != "m_health" {
		t.Fatalf("DT_Player.Props = %+v", tables["DT_Player"].Props)
	}

	if len(classes) != 1 {
		t.Fatalf("len(classes) = %d, want 1", len(classes))
	}
	if classes[0].ClassID != 5 || classes[0].ClassName != "CPlayer" || classes[0].DataTable != "DT_Player" {
		t.Fatalf("classes[0] = %+v", classes[0])
	}
}
