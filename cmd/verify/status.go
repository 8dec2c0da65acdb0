package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/verify-ci/verify/internal/runner"
)

var (
	statusDetailed bool
	statusVerify   bool
)

var statusCmd = &cobra.Command{
	Use:   "status [name]",
	Short: "Report verification status without running anything",
	Long: `Print the cached verification status of every check (or one
named check), purely from the lock file and current content hashes —
nothing is executed. With --verify, exit 1 if anything is unverified.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()
		tree, hasUnverified, code := runner.Status(p.root, p.cfg, p.graph, p.store, runner.StatusOptions{
			RequestedNames: args,
			Detailed:       statusDetailed,
		})
		writeResults(tree)
		if code == runner.ExitFatal {
			os.Exit(code)
		}
		if statusVerify && hasUnverified {
			os.Exit(runner.ExitFailure)
		}
		os.Exit(runner.ExitSuccess)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusDetailed, "detailed", false, "include changed-file detail in the report")
	statusCmd.Flags().BoolVar(&statusVerify, "verify", false, "exit 1 if any check is unverified")
}
