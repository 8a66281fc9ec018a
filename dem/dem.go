/*

Package dem implements the container framer (spec layer L1): given a
Source 1 (HL2DEMO / CS:GO) or Source 2 (PBDEMS2 / CS2) byte stream, it
yields tagged, tick-stamped commands with their raw (and, for Source 2,
possibly Snappy-compressed) payload. It does not interpret payload
contents — that's the message codec (package msg) and friends.

The enum pattern (a Name plus a numeric ID, with a ByID lookup that
synthesises an "Unknown 0x.." entry rather than failing) is adapted from
rep/repcore.Enum and rep/repcmd.Type in the teacher repo.

*/
package dem

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/icza/csdemo/demoerr"
)

// Tick is the frame index of a command. It is monotonically
// non-decreasing within a file; -1 denotes the pre-match prologue
// (spec.md §3, "Phase A").
type Tick int32

// PrologueTick is the tick value commands carry before the match proper
// begins.
const PrologueTick Tick = -1

// Format identifies which of the two wire formats a demo uses.
type Format int

const (
	FormatUnknown Format = iota
	FormatSource1        // HL2DEMO / CS:GO
	FormatSource2        // PBDEMS2 / CS2
)

func (f Format) String() string {
	switch f {
	case FormatSource1:
		return "Source1"
	case FormatSource2:
		return "Source2"
	default:
		return "Unknown"
	}
}

// Magic values at the start of a demo file (§6.1).
var (
	MagicSource1 = [8]byte{'H', 'L', '2', 'D', 'E', 'M', 'O', 0}
	MagicSource2 = [8]byte{'P', 'B', 'D', 'E', 'M', 'S', '2', 0}
)

// DetectFormat inspects the first 8 bytes of a demo file and reports
// which wire format produced it.
func DetectFormat(header8 []byte) Format {
	if len(header8) < 8 {
		return FormatUnknown
	}
	switch {
	case equal8(header8, MagicSource1):
		return FormatSource1
	case equal8(header8, MagicSource2):
		return FormatSource2
	default:
		return FormatUnknown
	}
}

func equal8(b []byte, magic [8]byte) bool {
	for i := 0; i < 8; i++ {
		if b[i] != magic[i] {
			return false
		}
	}
	return true
}

// Kind identifies a command's tag within the enumerated set of its wire
// format (spec.md §3 "Command record"). Name is a human-readable label;
// ID is the wire tag. Unknown tags get a synthesised "Unknown 0x.." Name
// so callers always have something to log, matching repcore.UnknownEnum.
type Kind struct {
	Name string
	ID   int
}

func (k Kind) String() string { return k.Name }

func unknownKind(id int) Kind {
	return Kind{Name: fmt.Sprintf("Unknown 0x%x", id), ID: id}
}

// Source 1 command kinds, in on-wire tag order.
var (
	Source1KindSignon       = Kind{"Signon", 1}
	Source1KindPacket       = Kind{"Packet", 2}
	Source1KindSyncTick     = Kind{"SyncTick", 3}
	Source1KindConsoleCmd   = Kind{"ConsoleCmd", 4}
	Source1KindUserCmd      = Kind{"UserCmd", 5}
	Source1KindDataTables   = Kind{"DataTables", 6}
	Source1KindStop         = Kind{"Stop", 7}
	Source1KindCustomData   = Kind{"CustomData", 8}
	Source1KindStringTables = Kind{"StringTables", 9}
)

var source1Kinds = []Kind{
	Source1KindSignon, Source1KindPacket, Source1KindSyncTick, Source1KindConsoleCmd,
	Source1KindUserCmd, Source1KindDataTables, Source1KindStop, Source1KindCustomData,
	Source1KindStringTables,
}

// Source1KindByID returns the Source 1 Kind for a wire tag, or a
// synthesised Unknown Kind if the tag isn't recognised.
func Source1KindByID(id int) Kind {
	for _, k := range source1Kinds {
		if k.ID == id {
			return k
		}
	}
	return unknownKind(id)
}

// Source 2 command kinds, in on-wire tag order (spec.md §3).
var (
	Source2KindStop                = Kind{"Stop", 0}
	Source2KindFileHeader          = Kind{"FileHeader", 1}
	Source2KindFileInfo             = Kind{"FileInfo", 2}
	Source2KindSyncTick            = Kind{"SyncTick", 3}
	Source2KindSendTables          = Kind{"SendTables", 4}
	Source2KindClassInfo           = Kind{"ClassInfo", 5}
	Source2KindStringTables        = Kind{"StringTables", 6}
	Source2KindPacket              = Kind{"Packet", 7}
	Source2KindSignonPacket        = Kind{"SignonPacket", 8}
	Source2KindConsoleCmd          = Kind{"ConsoleCmd", 9}
	Source2KindCustomData          = Kind{"CustomData", 10}
	Source2KindCustomDataCallbacks = Kind{"CustomDataCallbacks", 11}
	Source2KindUserCmd             = Kind{"UserCmd", 12}
	Source2KindFullPacket          = Kind{"FullPacket", 13}
	Source2KindSaveGame            = Kind{"SaveGame", 14}
	Source2KindSpawnGroups         = Kind{"SpawnGroups", 15}
	Source2KindAnimationData       = Kind{"AnimationData", 16}
)

var source2Kinds = []Kind{
	Source2KindStop, Source2KindFileHeader, Source2KindFileInfo, Source2KindSyncTick,
	Source2KindSendTables, Source2KindClassInfo, Source2KindStringTables, Source2KindPacket,
	Source2KindSignonPacket, Source2KindConsoleCmd, Source2KindCustomData,
	Source2KindCustomDataCallbacks, Source2KindUserCmd, Source2KindFullPacket,
	Source2KindSaveGame, Source2KindSpawnGroups, Source2KindAnimationData,
}

// Source2KindByID returns the Source 2 Kind for a wire tag (the low bits
// of cmd_flags, with the 0x40 compression bit already masked off), or a
// synthesised Unknown Kind if the tag isn't recognised.
func Source2KindByID(id int) Kind {
	for _, k := range source2Kinds {
		if k.ID == id {
			return k
		}
	}
	return unknownKind(id)
}

// Command is a single tick-stamped, tagged record yielded by the
// container framer (spec.md §3 "Command record").
type Command struct {
	Tick       Tick
	Format     Format
	Kind       Kind
	Payload    []byte
	Compressed bool // true if Payload was Snappy-compressed on the wire and has already been decompressed
}

// Reader is the container framer's pull interface: repeated calls to
// Next yield commands in wire order until io.EOF.
type Reader interface {
	Next() (*Command, error)
	Close() error
}

// PlayerInfo is the (source-format-independent) player record carried by
// the userinfo string table / CMsgPlayerInfo (spec.md §6.2).
type PlayerInfo struct {
	Version         uint64
	XUID            uint64
	Name            string
	UserID          int32
	GUID            string
	FriendsID       int32
	FriendsName     string
	FakePlayer      bool
	IsHLTV          bool
	CustomFiles     [4]uint32
	FilesDownloaded byte
}

// ParseSource1PlayerInfo decodes the fixed 337-byte Source 1 userinfo
// blob (spec.md §6.2), the sum of the fields and padding read below.
func ParseSource1PlayerInfo(data []byte) (*PlayerInfo, error) {
	const recordSize = 337
	if len(data) < recordSize {
		return nil, fmt.Errorf("%w: userinfo record is %d bytes, want %d", io.ErrUnexpectedEOF, len(data), recordSize)
	}
	sr := newByteReader(data)

	pi := &PlayerInfo{}
	pi.Version = sr.getUint64()
	pi.XUID = sr.getUint64BE()
	pi.Name = sr.getCString(128)
	pi.UserID = sr.getInt32BE()
	pi.GUID = sr.getCString(33)
	sr.skip(3) // pad
	pi.FriendsID = sr.getInt32BE()
	pi.FriendsName = sr.getCString(128)
	pi.FakePlayer = sr.getByte() != 0
	pi.IsHLTV = sr.getByte() != 0
	sr.skip(2) // pad
	for i := range pi.CustomFiles {
		pi.CustomFiles[i] = sr.getUint32()
	}
	pi.FilesDownloaded = sr.getByte()

	return pi, nil
}

// ParseSource2PlayerInfo decodes a Source 2 userinfo entry: a
// CMsgPlayerInfo protobuf message rather than Source 1's fixed-layout
// struct (spec.md §6.2). Field numbers mirror the struct's own field
// order, the layout used by every other CS2 demo parser that exposes
// this message (name=1, xuid=2, userID=3, guid=4, friendsID=5,
// friendsName=6, fakeplayer=7, ishltv=8, customFiles=9, filesDownloaded=10).
func ParseSource2PlayerInfo(data []byte) (*PlayerInfo, error) {
	pi := &PlayerInfo{}
	customFileIdx := 0
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: player info tag", demoerr.ErrProtobuf)
		}
		data = data[n:]

		switch num {
		case 1:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info name", demoerr.ErrProtobuf)
			}
			pi.Name = s
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info xuid", demoerr.ErrProtobuf)
			}
			pi.XUID = v
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info user_id", demoerr.ErrProtobuf)
			}
			pi.UserID = int32(v)
			data = data[n:]
		case 4:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info guid", demoerr.ErrProtobuf)
			}
			pi.GUID = s
			data = data[n:]
		case 5:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info friends_id", demoerr.ErrProtobuf)
			}
			pi.FriendsID = int32(v)
			data = data[n:]
		case 6:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info friends_name", demoerr.ErrProtobuf)
			}
			pi.FriendsName = s
			data = data[n:]
		case 7:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info fakeplayer", demoerr.ErrProtobuf)
			}
			pi.FakePlayer = v != 0
			data = data[n:]
		case 8:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info ishltv", demoerr.ErrProtobuf)
			}
			pi.IsHLTV = v != 0
			data = data[n:]
		case 9:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info custom_files", demoerr.ErrProtobuf)
			}
			if customFileIdx < len(pi.CustomFiles) {
				pi.CustomFiles[customFileIdx] = uint32(v)
				customFileIdx++
			}
			data = data[n:]
		case 10:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: player info files_downloaded", demoerr.ErrProtobuf)
			}
			pi.FilesDownloaded = byte(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: unknown player info field", demoerr.ErrProtobuf)
			}
			data = data[n:]
		}
	}
	return pi, nil
}

// Header models the fields common to both wire formats' file headers
// that downstream consumers care about (spec.md §6.1).
type Header struct {
	Format          Format
	DemoProtocol    uint32 // Source 1 only
	NetworkProtocol uint32 // Source 1 only
	ServerName      string // Source 1 only
	ClientName      string // Source 1 only
	MapName         string
	Game            string // Source 1 only, must be "csgo"
	Duration        float32
	Ticks           uint32
	Frames          uint32
	SignonLength    uint32
}

// ParseSource1Header parses the 1072-byte Source 1 file header (the
// magic itself is assumed already verified and stripped).
func ParseSource1Header(data []byte) (*Header, error) {
	const headerSize = 1072 - 8 // magic already stripped
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: header is %d bytes, want %d", io.ErrUnexpectedEOF, len(data), headerSize)
	}
	sr := newByteReader(data)

	h := &Header{Format: FormatSource1}
	h.DemoProtocol = sr.getUint32()
	h.NetworkProtocol = sr.getUint32()
	h.ServerName = sr.getCString(260)
	h.ClientName = sr.getCString(260)
	h.MapName = sr.getCString(260)
	h.Game = sr.getCString(260)
	h.Duration = sr.getFloat32()
	h.Ticks = sr.getUint32()
	h.Frames = sr.getUint32()
	h.SignonLength = sr.getUint32()

	if h.DemoProtocol != 4 {
		return nil, fmt.Errorf("%w: demo_protocol %d, want 4", demoerr.ErrInvalidMagic, h.DemoProtocol)
	}
	if h.Game != "csgo" {
		return nil, fmt.Errorf("%w: game %q, want \"csgo\"", demoerr.ErrInvalidMagic, h.Game)
	}

	return h, nil
}
