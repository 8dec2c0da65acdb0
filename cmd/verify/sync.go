package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verify-ci/verify/internal/runner"
	"github.com/verify-ci/verify/internal/trailer"
)

// historyDepth bounds how far back sync scans for a Verified trailer
// (spec.md §4.8: "search recent history").
const historyDepth = 200

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Seed the lock cache from recent git history",
	Long:  `Search recent commit history for a "Verified:" trailer and seed lock entries for any current files that still match it.`,
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()

		synced, err := trailer.Sync(p.root, p.cfg, p.graph, p.store, historyDepth)
		if err != nil {
			fatalf("%v", err)
		}
		if synced == nil {
			fmt.Fprintln(os.Stderr, "verify: no Verified trailer found in history")
			os.Exit(runner.ExitFailure)
		}

		if err := p.store.Save(p.root); err != nil {
			fatalf("save lock: %v", err)
		}
		if GetVerbose() {
			for _, name := range synced {
				fmt.Printf("synced %s\n", name)
			}
		}
		os.Exit(runner.ExitSuccess)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
