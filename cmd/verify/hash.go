package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verify-ci/verify/internal/runner"
	"github.com/verify-ci/verify/internal/trailer"
)

var hashCmd = &cobra.Command{
	Use:   "hash [name]",
	Short: "Print verified content hashes",
	Long: `Print "name:fullhash" for every currently-verified non-aggregate
tracked check (or just the named one). Empty output on an unnamed call
is success; naming a check that isn't currently verifiable is fatal.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := loadProject()

		hashes, err := trailer.ComputeAllHashes(p.root, p.cfg, p.graph, p.store)
		if err != nil {
			fatalf("%v", err)
		}

		if len(args) == 1 {
			for _, e := range hashes {
				if e.Name == args[0] {
					fmt.Println(e.Name + ":" + e.Hash)
					os.Exit(runner.ExitSuccess)
				}
			}
			fatalf("check %q is not currently verifiable", args[0])
		}

		if len(hashes) > 0 {
			parts := make([]string, len(hashes))
			for i, e := range hashes {
				parts[i] = e.Name + ":" + e.Hash
			}
			fmt.Println(strings.Join(parts, ","))
		}
		os.Exit(runner.ExitSuccess)
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
}
