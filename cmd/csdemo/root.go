package main

import (
	"os"

	"github.com/spf13/cobra"
)

// CS2_EXPERIMENTAL_PARSER forces the Source 2 code path when a demo's
// container can't disambiguate format on its own (spec.md §6.4),
// mirrored here as the library-level demoinfo.Config.Source2 flag.
const envCS2ExperimentalParser = "CS2_EXPERIMENTAL_PARSER"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     appName,
		Short:   "Parse and summarise Counter-Strike demo files",
		Version: appVersion,
	}
	root.AddCommand(newParseCmd())
	root.AddCommand(newEventsCmd())
	return root
}

func forceSource2() bool {
	v, ok := os.LookupEnv(envCS2ExperimentalParser)
	return ok && v != "" && v != "0"
}
