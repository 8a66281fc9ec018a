package dem

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func encodePlayerInfoMsg(name string, xuid uint64, userID int32, fakeplayer, ishltv bool) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, name)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, xuid)
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(userID)))
	if fakeplayer {
		b = protowire.AppendTag(b, 7, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if ishltv {
		b = protowire.AppendTag(b, 8, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	return b
}

func TestParseSource2PlayerInfo(t *testing.T) {
	data := encodePlayerInfoMsg("player1", 76561198000000000, 3, false, false)

	pi, err := ParseSource2PlayerInfo(data)
	if err != nil {
		t.Fatalf("ParseSource2PlayerInfo: %v", err)
	}
	if pi.Name != "player1" {
		t.Errorf("Name = %q, want player1", pi.Name)
	}
	if pi.XUID != 76561198000000000 {
		t.Errorf("XUID = %d", pi.XUID)
	}
	if pi.UserID != 3 {
		t.Errorf("UserID = %d", pi.UserID)
	}
	if pi.FakePlayer || pi.IsHLTV {
		t.Errorf("FakePlayer/IsHLTV should be false for a real player")
	}
}

func TestParseSource2PlayerInfoHLTV(t *testing.T) {
	data := encodePlayerInfoMsg("GOTV", 0, -1, false, true)

	pi, err := ParseSource2PlayerInfo(data)
	if err != nil {
		t.Fatalf("ParseSource2PlayerInfo: %v", err)
	}
	if !pi.IsHLTV {
		t.Errorf("IsHLTV = false, want true")
	}
}

func TestParseSource1PlayerInfoRejectsShortRecord(t *testing.T) {
	if _, err := ParseSource1PlayerInfo(make([]byte, 10)); err == nil {
		t.Fatal("expected error for short userinfo record")
	}
}
