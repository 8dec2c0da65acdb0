package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/verify-ci/verify/internal/runner"
	"github.com/verify-ci/verify/internal/trailer"
)

var signCmd = &cobra.Command{
	Use:   "sign <commit-msg-file>",
	Short: "Write a Verified trailer into a commit message",
	Long:  `Compute the current verification hashes and write them as a "Verified:" trailer into the given commit message file, replacing any existing one.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()

		hashes, err := trailer.ComputeAllHashes(p.root, p.cfg, p.graph, p.store)
		if err != nil {
			fatalf("%v", err)
		}
		if err := trailer.WriteTrailer(args[0], hashes); err != nil {
			fatalf("%v", err)
		}
		os.Exit(runner.ExitSuccess)
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
}
