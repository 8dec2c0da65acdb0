package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verify-ci/verify/internal/runner"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [names...]",
	Short: "Remove lock entries",
	Long:  `Remove the named checks' lock entries (or every entry, with no arguments) and save.`,
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()

		var removed []string
		if len(args) == 0 {
			removed = p.store.CleanupOrphaned(nil)
		} else {
			keep := make(map[string]bool)
			for _, c := range p.cfg.Checks() {
				if !contains(args, c.Name) {
					keep[c.Name] = true
				}
			}
			var validNames []string
			for name := range keep {
				validNames = append(validNames, name)
			}
			removed = p.store.CleanupOrphaned(validNames)
		}

		if err := p.store.Save(p.root); err != nil {
			fatalf("save lock: %v", err)
		}
		if GetVerbose() {
			for _, name := range removed {
				fmt.Fprintf(os.Stdout, "removed %s\n", name)
			}
		}
		os.Exit(runner.ExitSuccess)
	},
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
