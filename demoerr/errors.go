// Package demoerr defines the error taxonomy shared by every layer of the
// demo decoder. Low-level readers signal corrupt or truncated input by
// panicking with one of these sentinel errors (wrapped with context); the
// orchestrator is the single place that recovers and turns the panic back
// into a normal error return, the same way repparser.parseProtected
// protects the SC:BW section-parsing loop from implementation bugs and
// corrupt replay data.
package demoerr

import "errors"

// Sentinel error kinds, matched with errors.Is at call sites.
var (
	// ErrTruncated indicates the underlying reader ran out of data before a
	// primitive finished decoding, or a declared payload length didn't fit.
	ErrTruncated = errors.New("io: truncated demo data")

	// ErrInvalidMagic indicates the file header magic, demo protocol version
	// or game name didn't match what this decoder supports.
	ErrInvalidMagic = errors.New("invalid demo file magic")

	// ErrUnknownCommand indicates a command tag outside the enumerated set
	// for the detected wire format.
	ErrUnknownCommand = errors.New("unknown command tag")

	// ErrDecompression indicates a Snappy block failed to decode.
	ErrDecompression = errors.New("decompression failed")

	// ErrProtobuf indicates a declared inner message failed to parse as the
	// protobuf wire format expected it.
	ErrProtobuf = errors.New("malformed protobuf message")

	// ErrPacketOutOfOrder indicates a phase-ordering violation: SendTables
	// after Phase B started, ClassInfo before SendTables, PacketEntities
	// before ClassInfo, or a FullPacket missing one of its two legs.
	ErrPacketOutOfOrder = errors.New("packet out of order")

	// ErrSkippedClassID indicates class IDs were not densely indexed from 0.
	ErrSkippedClassID = errors.New("skipped class id")

	// ErrDuplicateSerializer indicates the same (name, version) serializer
	// key was constructed twice.
	ErrDuplicateSerializer = errors.New("duplicate serializer")

	// ErrInvalidEntityID indicates an update/delete targeted an entity slot
	// that was never allocated (or, for Source 1, a delete outside a delta
	// packet).
	ErrInvalidEntityID = errors.New("invalid entity id")

	// ErrInvalidPlayerIndex indicates a userinfo string table key was not a
	// base-10 integer.
	ErrInvalidPlayerIndex = errors.New("invalid player index")

	// ErrFieldPathOverflow indicates a field path exceeded the maximum
	// nesting depth or a path count limit was exceeded while decoding.
	ErrFieldPathOverflow = errors.New("field path overflow")

	// ErrPolymorphicMissingType indicates a polymorphic Object field was
	// declared with an empty polymorphic-types list.
	ErrPolymorphicMissingType = errors.New("polymorphic field without types")

	// ErrVisitor wraps an error returned by a caller-supplied visitor
	// callback.
	ErrVisitor = errors.New("visitor callback error")

	// ErrParsing is returned to callers when a recovered panic (corrupt
	// input or an implementation bug) aborted parsing.
	ErrParsing = errors.New("parsing")
)
