package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verify-ci/verify/internal/runner"
	"github.com/verify-ci/verify/internal/trailer"
)

var checkCmd = &cobra.Command{
	Use:   "check [name]",
	Short: "Validate HEAD's Verified trailer against the working tree",
	Long:  `Compare HEAD's "Verified:" trailer against the current working tree's content hashes, for every check or just the named one.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()

		verified, hasUnverified, err := trailer.Check(p.root, p.cfg, p.graph)
		if err != nil {
			fatalf("%v", err)
		}

		if len(args) == 1 {
			ok, known := verified[args[0]]
			if !known {
				fatalf("unknown name %q", args[0])
			}
			printCheckLine(args[0], ok)
			if !ok {
				os.Exit(runner.ExitFailure)
			}
			os.Exit(runner.ExitSuccess)
		}

		for _, name := range p.cfg.Order {
			if ok, known := verified[name]; known {
				printCheckLine(name, ok)
			}
		}
		if hasUnverified {
			os.Exit(runner.ExitFailure)
		}
		os.Exit(runner.ExitSuccess)
	},
}

func printCheckLine(name string, ok bool) {
	status := "verified"
	if !ok {
		status = "unverified"
	}
	fmt.Printf("%s: %s\n", name, status)
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
