package main

import (
	"os"

	"github.com/verify-ci/verify/internal/results"
)

// writeResults renders tree as JSON or as a human table depending on
// --json, to stdout.
func writeResults(tree *results.Tree) {
	var err error
	if GetJSON() {
		err = tree.WriteJSON(os.Stdout)
	} else {
		err = tree.WriteHuman(os.Stdout)
	}
	if err != nil {
		fatalf("write results: %v", err)
	}
}
