package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/verify-ci/verify/internal/config"
	"github.com/verify-ci/verify/internal/graph"
	"github.com/verify-ci/verify/internal/lock"
	"github.com/verify-ci/verify/internal/obs"
	"github.com/verify-ci/verify/internal/runner"
)

// project bundles everything a subcommand needs to act on one verify.yaml:
// the resolved root directory, the validated config, its dependency graph,
// the lock store, and a diagnostic logger gated on --verbose.
type project struct {
	root  string
	cfg   *config.Config
	graph *graph.Graph
	store *lock.Store
	log   *obs.Logger
}

// loadProject resolves --config to an absolute path, loads and validates
// the config there, builds its dependency graph, and loads its lock file.
// Any failure here is a fatal configuration or I/O error (spec.md §7):
// it prints to stderr and exits 2.
func loadProject() *project {
	path := GetConfigFile()
	abs, err := filepath.Abs(path)
	if err != nil {
		fatalf("resolve config path %s: %v", path, err)
	}
	root := filepath.Dir(abs)

	cfg, err := config.Load(abs, root)
	if err != nil {
		fatalf("%v", err)
	}

	g, err := graph.New(cfg)
	if err != nil {
		fatalf("%v", err)
	}

	store, _ := lock.Load(root)

	return &project{root: root, cfg: cfg, graph: g, store: store, log: obs.New(GetVerbose())}
}

// fatalf prints a formatted error to stderr and exits with the engine's
// fatal exit code (spec.md §7).
func fatalf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, "verify: "+fmt.Sprintf(format, args...))
	os.Exit(runner.ExitFatal)
}
