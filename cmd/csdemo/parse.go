package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/icza/csdemo/dem"
	"github.com/icza/csdemo/demoinfo"
)

func newParseCmd() *cobra.Command {
	var source2 bool

	cmd := &cobra.Command{
		Use:   "parse <demo-file>",
		Short: "Print a header/score/round summary of a demo file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args[0], source2 || forceSource2())
		},
	}
	cmd.Flags().BoolVar(&source2, "source2", false, "force the Source 2 (CS2) parser")
	return cmd
}

func runParse(path string, source2 bool) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}

	var (
		header       *dem.Header
		maxClients   int
		tickInterval float64
		playerCount  int
	)

	v := &demoinfo.Visitor{
		FileHeader: func(h *dem.Header) { header = h },
		ServerInfo: func(ti float64, mc int) { tickInterval = ti; maxClients = mc },
		UserInfoTable: func(players map[int]*dem.PlayerInfo) {
			playerCount = 0
			for _, p := range players {
				if p != nil && !p.FakePlayer && !p.IsHLTV {
					playerCount++
				}
			}
		},
	}

	var round demoinfo.RoundState
	v.GameEvent = func(ev *demoinfo.Event, tick dem.Tick) {
		switch ev.Name {
		case "round_end", "round_officially_ended":
			if ct, ok := ev.Values["score_ct"].(int32); ok {
				round.ScoreCT = int(ct)
			}
			if t, ok := ev.Values["score_t"].(int32); ok {
				round.ScoreT = int(t)
			}
		case "round_start":
			round.RoundNumber++
		}
	}

	cfg := demoinfo.DefaultConfig()
	cfg.Source2 = source2

	start := time.Now()
	err = demoinfo.ParseFileConfig(path, cfg, v)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	fmt.Printf("file:           %s (%s)\n", path, humanize.Bytes(uint64(stat.Size())))
	fmt.Printf("parsed in:      %s\n", humanize.RelTime(start, start.Add(elapsed), "", ""))
	if header != nil {
		fmt.Printf("format:         %s\n", header.Format)
		fmt.Printf("map:            %s\n", header.MapName)
	}
	fmt.Printf("tick interval:  %g\n", tickInterval)
	fmt.Printf("max clients:    %d\n", maxClients)
	fmt.Printf("players seen:   %d\n", playerCount)
	fmt.Printf("rounds:         %d (CT %d - %d T)\n", round.RoundNumber, round.ScoreCT, round.ScoreT)
	return nil
}
