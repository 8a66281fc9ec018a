/*

Package msg implements the message demultiplexer (spec layer L2):
Packet and SignonPacket payloads are a concatenation of
{varint msg_type; varuint msg_size; msg_size bytes} inner messages. This
package only demuxes — it yields each inner message's type tag and raw
bytes. Per spec.md §1, generated protobuf message code is out of scope,
so the specific field extraction for each known message type lives next
to the component that needs it (demoinfo's wire.go, gameevent) and
operates on Message.Raw directly via google.golang.org/protobuf/encoding/protowire,
the same wire-level tool the pack's protobuf-heavy repo
(yaninyzwitty-hyperpb-go) is built around.

*/
package msg

import (
	"fmt"

	"github.com/icza/csdemo/bitread"
	"github.com/icza/csdemo/demoerr"
)

// Type identifies an inner message's tag. The numeric space unions
// several Source engine protobuf enum ranges (NET/SVC/UM/EM/TE/GE/CS-UM);
// this registry only names the handful the core decoder actually acts
// on. Unknown tags are surfaced with a synthesised name and skipped by
// advancing exactly their declared size.
type Type struct {
	Name string
	ID   int32
}

func (t Type) String() string { return t.Name }

func unknownType(id int32) Type {
	return Type{Name: fmt.Sprintf("Unknown 0x%x", id), ID: id}
}

// Known inner-message types. IDs follow the Source engine's net/svc
// message enumeration closely enough to be realistic; they are an
// internal registry, not a wire contract with any other implementation.
var (
	TypeNetTick                = Type{"net_Tick", 4}
	TypeServerInfo             = Type{"svc_ServerInfo", 8}
	TypeCreateStringTable      = Type{"svc_CreateStringTable", 12}
	TypeUpdateStringTable      = Type{"svc_UpdateStringTable", 13}
	TypeGameEvent              = Type{"svc_GameEvent", 25}
	TypePacketEntities         = Type{"svc_PacketEntities", 26}
	TypeGameEventList          = Type{"svc_GameEventList", 30}
	TypeClearAllStringTables   = Type{"svc_ClearAllStringTables", 31}
	TypeUserInfo               = Type{"svc_UserInfo", 32}
	TypeSource1LegacyGameEvent = Type{"Source1LegacyGameEvent", 33}
)

var knownTypes = []Type{
	TypeNetTick, TypeServerInfo, TypeCreateStringTable, TypeUpdateStringTable,
	TypeGameEvent, TypePacketEntities, TypeGameEventList, TypeClearAllStringTables,
	TypeUserInfo, TypeSource1LegacyGameEvent,
}

// TypeByID resolves a known Type, or an Unknown placeholder.
func TypeByID(id int32) Type {
	for _, t := range knownTypes {
		if t.ID == id {
			return t
		}
	}
	return unknownType(id)
}

// Message is one demuxed inner message: its type tag and raw payload.
type Message struct {
	Type Type
	Raw  []byte
}

// ParseSource1 demuxes a Source 1 Packet/Signon payload. The reader is
// byte-aligned throughout; looping terminates once the declared byte
// length of payload is consumed.
func ParseSource1(payload []byte) ([]Message, error) {
	r := bitread.New(payload)
	var out []Message
	totalBits := len(payload) * 8
	for r.BitPos() < totalBits {
		msgType := r.ReadVarUint32()
		size := r.ReadVarUint32()
		raw := r.ReadBytes(int(size))
		out = append(out, Message{Type: TypeByID(int32(msgType)), Raw: raw})
	}
	return out, nil
}

// ParseSource2 demuxes a Source 2 Packet/SignonPacket payload. msg_type
// is read with read_ubitvar, size with read_varuint32; the loop
// terminates once fewer than 7 bits remain before the end of the buffer
// (spec.md §4.3).
func ParseSource2(payload []byte) ([]Message, error) {
	r := bitread.New(payload)
	var out []Message
	for r.BitsLeft() >= 7 {
		msgType := r.ReadUBitVar()
		size := r.ReadVarUint32()
		raw := r.ReadBytes(int(size))
		out = append(out, Message{Type: TypeByID(int32(msgType)), Raw: raw})
	}
	return out, nil
}

// Parse demuxes a Packet/Signon(Packet) payload for the given format.
func Parse(source1 bool, payload []byte) ([]Message, error) {
	if source1 {
		return ParseSource1(payload)
	}
	return ParseSource2(payload)
}

// ErrUnknownMessage is returned (not used internally — unknown inner
// messages are skipped, never an error) for callers that want to treat
// an unrecognised Type as fatal in a stricter mode.
var ErrUnknownMessage = demoerr.ErrUnknownCommand
