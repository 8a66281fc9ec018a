package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/icza/csdemo/dem"
	"github.com/icza/csdemo/demoinfo"
)

// eventTypeFilters groups related event names under the short --type
// values the CLI exposes; kept small and explicit rather than pattern
// matching on event name prefixes.
var eventTypeFilters = map[string][]string{
	"kill":  {"player_death"},
	"round": {"round_start", "round_end", "round_officially_ended"},
	"bomb":  {"bomb_planted", "bomb_defused", "bomb_exploded"},
	"jump":  {"player_jump"},
}

func newEventsCmd() *cobra.Command {
	var (
		source2  bool
		outPath  string
		typeFlag string
	)

	cmd := &cobra.Command{
		Use:   "events <demo-file>",
		Short: "Stream the enriched gameplay event timeline as JSON Lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(args[0], source2 || forceSource2(), outPath, typeFlag)
		},
	}
	cmd.Flags().BoolVar(&source2, "source2", false, "force the Source 2 (CS2) parser")
	cmd.Flags().StringVar(&outPath, "out", "", "write output to this file instead of stdout")
	cmd.Flags().StringVar(&typeFlag, "type", "", "filter by event group: kill, round, bomb, jump")
	return cmd
}

type eventLine struct {
	Tick   dem.Tick               `json:"tick"`
	Name   string                 `json:"name"`
	Values map[string]interface{} `json:"values"`
}

func runEvents(path string, source2 bool, outPath, typeFlag string) error {
	var names map[string]bool
	if typeFlag != "" {
		group, ok := eventTypeFilters[strings.ToLower(typeFlag)]
		if !ok {
			return fmt.Errorf("unknown --type %q (valid: kill, round, bomb, jump)", typeFlag)
		}
		names = make(map[string]bool, len(group))
		for _, n := range group {
			names[n] = true
		}
	}

	dest := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		dest = f
	}

	w := bufio.NewWriter(dest)
	defer w.Flush()
	enc := json.NewEncoder(w)

	var encodeErr error
	v := &demoinfo.Visitor{
		GameEvent: func(ev *demoinfo.Event, tick dem.Tick) {
			if encodeErr != nil {
				return
			}
			if names != nil && !names[ev.Name] {
				return
			}
			encodeErr = enc.Encode(eventLine{Tick: tick, Name: ev.Name, Values: ev.Values})
		},
	}

	cfg := demoinfo.DefaultConfig()
	cfg.Source2 = source2

	if err := demoinfo.ParseFileConfig(path, cfg, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return encodeErr
}
