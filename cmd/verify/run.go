package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/verify-ci/verify/internal/runner"
)

var (
	runForce bool
	runStage bool
)

var runCmd = &cobra.Command{
	Use:   "run [names...]",
	Short: "Execute stale checks",
	Long: `Execute every stale check (or all checks, with --force), in
dependency order. With --stage, stage the updated verify.lock via
"git add" once the run completes with zero failures.`,
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()
		opts := runner.Options{
			RequestedNames: args,
			Force:          runForce,
			Verbose:        GetVerbose(),
			Stage:          runStage,
			Output:         os.Stdout,
		}
		tree, code := runner.New(p.root, p.cfg, p.graph, p.store, opts, p.log).Run()
		writeResults(tree)
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runForce, "force", false, "re-run every requested check regardless of cache state")
	runCmd.Flags().BoolVar(&runStage, "stage", false, "git add verify.lock after a run with zero failures")
}
