/*

Package demoinfo implements the orchestrator/visitor (spec layer L9,
spec.md §4.12): it drives the container framer (package dem) and message
demuxer (package msg) through a two-phase state machine, feeds parsed
records to the schema assemblers, string-table engine, and entity delta
engines, and emits an enriched gameplay event timeline to a caller-
supplied Visitor.

The overall shape -- a Config of parse options, a top-level panic-recovery boundary turning corrupt input or an
implementation bug into a wrapped sentinel error -- mirrors
repparser.Config / repparser.parseProtected in the teacher repo.

*/
package demoinfo

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/icza/csdemo/datatable"
	"github.com/icza/csdemo/dem"
	"github.com/icza/csdemo/demoerr"
	"github.com/icza/csdemo/entity"
	"github.com/icza/csdemo/gameevent"
	"github.com/icza/csdemo/jumptracker"
	"github.com/icza/csdemo/sendtable"
	"github.com/icza/csdemo/smoketracker"
	"github.com/icza/csdemo/stringtable"
)

// Config holds the parse options (mirrors repparser.Config).
// ParseCommands, ParseStringTables and ParseEntities are set to true by
// DefaultConfig but are not consulted by the parser: every section is
// decoded whatever their values. Source2 forces the CS2 path when the file magic can't disambiguate,
// the library-level analogue of the CLI's CS2_EXPERIMENTAL_PARSER.
type Config struct {
	ParseCommands     bool
	ParseStringTables bool
	ParseEntities     bool
	Source2           bool

	_ struct{} // prevents unkeyed literals
}

// DefaultConfig parses every section.
func DefaultConfig() Config {
	return Config{ParseCommands: true, ParseStringTables: true, ParseEntities: true}
}

// phase is the orchestrator's two-value state machine (spec.md §4.12).
type phase int

const (
	phaseA phase = iota // tick == -1: schema assembly
	phaseB              // tick >= 0: event delivery
)

// defaultTickInterval is assumed until a ServerInfo message supplies the real
// value (spec.md §6's typical 1/64s tick, used as a jump-tracker default
// before the demo's own value is known).
const defaultTickInterval = 1.0 / 64

// state is the orchestrator's complete mutable world, threaded through
// one Parse call.
type state struct {
	cfg    Config
	source1 bool

	ph phase

	strings *stringtable.Engine

	s2Pool        *sendtable.Pool
	s2Serializers map[string]*sendtable.Serializer
	s2Entities    *entity.Engine2
	s2ClassByName map[string]int32 // network_name -> class_id, from ClassInfo
	s2NumClasses  int              // classIDBits = ceil(log2(s2NumClasses)), spec.md §4.8

	s1Tables  map[string]*datatable.RawTable
	s1Classes []datatable.ServerClass
	s1Entities *entity.Engine1

	events *gameevent.Table

	tickInterval float64
	tick         dem.Tick

	jumps  *jumptracker.Tracker
	smokes *smoketracker.Tracker

	round  RoundState
	roster map[int]dem.PlayerInfo // slot -> player; never written, the visitor gets stringtable's Players()
	botOwner map[int32]int32       // user_id -> bot_id (bot_takeover remap)

	visitor *Visitor
}

// RoundState is the accumulated score/round-phase projection (mirrors
// rep.Computed's derived WinnerTeam-style bookkeeping).
type RoundState struct {
	RoundNumber int
	ScoreCT     int
	ScoreT      int
}

// ParseFile opens path and parses it with DefaultConfig.
func ParseFile(path string, v *Visitor) error {
	return ParseFileConfig(path, DefaultConfig(), v)
}

// ParseFileConfig opens and parses a demo file under the given Config.
func ParseFileConfig(path string, cfg Config, v *Visitor) (err error) {
	opened, err := dem.OpenFile(path)
	if err != nil {
		return err
	}
	defer opened.Reader().Close()

	source1 := opened.Format == dem.FormatSource1
	if cfg.Source2 {
		source1 = false
	}

	if source1 && opened.Header != nil {
		// Source 1's header is known before the first command; hand it
		// to the visitor immediately rather than waiting for Phase A's
		// loop to reach a FileHeader-equivalent record (Source 1 has no
		// such command, the header is the file preamble itself).
		v.fileHeader(opened.Header)
	}

	return parseProtected(opened.Reader(), source1, cfg, v)
}

// parseProtected calls parse, recovering any panic (corrupt/truncated
// input, or an implementation bug) into a wrapped demoerr.ErrParsing,
// the same protection repparser.parseProtected gives SC:BW replays.
func parseProtected(r dem.Reader, source1 bool, cfg Config, v *Visitor) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("demoinfo: parsing error: %v", rec)
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			log.Printf("demoinfo: stack: %s", buf[:n])
			err = fmt.Errorf("%w: %v", demoerr.ErrParsing, rec)
		}
	}()

	return parse(r, source1, cfg, v)
}

func newState(source1 bool, cfg Config, v *Visitor) *state {
	return &state{
		cfg:           cfg,
		source1:       source1,
		ph:            phaseA,
		strings:       stringtable.NewEngine(source1),
		s2Entities:    entity.NewEngine2(),
		s2ClassByName: make(map[string]int32),
		s1Tables:      make(map[string]*datatable.RawTable),
		s1Entities:    entity.NewEngine1(),
		tickInterval:  defaultTickInterval,
		jumps:         jumptracker.New(defaultTickInterval),
		smokes:        smoketracker.New(),
		roster:        make(map[int]dem.PlayerInfo),
		botOwner:      make(map[int32]int32),
		visitor:       v,
	}
}

func parse(r dem.Reader, source1 bool, cfg Config, v *Visitor) error {
	st := newState(source1, cfg, v)

	for {
		cmd, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := st.handleCommand(cmd); err != nil {
			return err
		}
	}
}
