package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verify-ci/verify/internal/config"
	"github.com/verify-ci/verify/internal/graph"
	"github.com/verify-ci/verify/internal/lock"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func loadProject(t *testing.T, root, yaml string) (*config.Config, *graph.Graph) {
	t.Helper()
	writeFile(t, root, "verify.yaml", yaml)
	cfg, err := config.Load(filepath.Join(root, "verify.yaml"), root)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	g, err := graph.New(cfg)
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return cfg, g
}

func TestRunFirstRunPassesThenSkipsOnSecondRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src.go", "package main\n")
	yaml := `
verifications:
  - name: unit
    command: "true"
    cache_paths: ["*.go"]
`
	cfg, g := loadProject(t, root, yaml)
	store := lock.New()

	tree, code := New(root, cfg, g, store, Options{}, nil).Run()
	if code != ExitSuccess {
		t.Fatalf("first run: got exit %d, want success", code)
	}
	if tree.Passed != 1 || tree.Failed != 0 {
		t.Fatalf("first run: got %+v", tree)
	}

	tree2, code2 := New(root, cfg, g, store, Options{}, nil).Run()
	if code2 != ExitSuccess {
		t.Fatalf("second run: got exit %d", code2)
	}
	if tree2.Skipped != 1 || tree2.Passed != 0 {
		t.Fatalf("second run: expected skip (verified), got %+v", tree2)
	}
}

func TestRunFailedCheckBlocksDependent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src.go", "package main\n")
	yaml := `
verifications:
  - name: lint
    command: "false"
    cache_paths: ["*.go"]
  - name: unit
    command: "true"
    cache_paths: ["*.go"]
    depends_on: ["lint"]
`
	cfg, g := loadProject(t, root, yaml)
	store := lock.New()

	tree, code := New(root, cfg, g, store, Options{}, nil).Run()
	if code != ExitFailure {
		t.Fatalf("got exit %d, want failure", code)
	}
	if tree.Failed != 2 {
		t.Fatalf("expected both lint and unit to fail, got %+v", tree)
	}
	var unitStatus string
	for _, item := range tree.Items {
		if item.Name == "unit" {
			unitStatus = item.Status
		}
	}
	if !strings.Contains(unitStatus, "lint") {
		t.Errorf("expected unit's status to name lint as the failing dependency, got %q", unitStatus)
	}
}

func TestRunAggregateVerifiedWhenDepsClean(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src.go", "package main\n")
	yaml := `
verifications:
  - name: unit
    command: "true"
    cache_paths: ["*.go"]
  - name: ci
    depends_on: ["unit"]
`
	cfg, g := loadProject(t, root, yaml)
	store := lock.New()

	tree, code := New(root, cfg, g, store, Options{}, nil).Run()
	if code != ExitSuccess {
		t.Fatalf("got exit %d, want success", code)
	}
	var ciOutcome string
	for _, item := range tree.Items {
		if item.Name == "ci" {
			ciOutcome = item.OutcomeLabel
		}
	}
	if ciOutcome != "pass" {
		t.Errorf("expected ci to pass, got %q", ciOutcome)
	}
}

func TestRunUntrackedCheckNeverExecutes(t *testing.T) {
	root := t.TempDir()
	// Command would fail if ever run; untracked checks must stay inert.
	yaml := `
verifications:
  - name: smoke
    command: "false"
`
	cfg, g := loadProject(t, root, yaml)
	store := lock.New()

	tree, code := New(root, cfg, g, store, Options{}, nil).Run()
	if code != ExitSuccess {
		t.Fatalf("got exit %d, want success (untracked never fails)", code)
	}
	if tree.Skipped != 1 || tree.Passed != 0 || tree.Failed != 0 {
		t.Fatalf("expected untracked check to be reported skipped, got %+v", tree)
	}
}

func TestRunUnknownRequestedNameIsFatal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src.go", "package main\n")
	yaml := `
verifications:
  - name: unit
    command: "true"
    cache_paths: ["*.go"]
`
	cfg, g := loadProject(t, root, yaml)
	store := lock.New()

	_, code := New(root, cfg, g, store, Options{RequestedNames: []string{"ghost"}}, nil).Run()
	if code != ExitFatal {
		t.Fatalf("got exit %d, want fatal for unknown requested name", code)
	}
}

func TestRunPerFileModeRecordsProgressIncrementally(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "b.go", "package b\n")
	yaml := `
verifications:
  - name: unit
    command: "true"
    cache_paths: ["*.go"]
    per_file: true
`
	cfg, g := loadProject(t, root, yaml)
	store := lock.New()

	tree, code := New(root, cfg, g, store, Options{}, nil).Run()
	if code != ExitSuccess {
		t.Fatalf("got exit %d", code)
	}
	if tree.Passed != 1 {
		t.Fatalf("expected one passed item, got %+v", tree)
	}

	entry := store.Entry("unit")
	if entry == nil || len(entry.FileHashes) != 2 {
		t.Fatalf("expected both files recorded in per-file hashes, got %+v", entry)
	}
}

func TestRunRequestedSubsetSkipsUnrequestedChecks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src.go", "package main\n")
	yaml := `
verifications:
  - name: unit
    command: "true"
    cache_paths: ["*.go"]
  - name: lint
    command: "true"
    cache_paths: ["*.go"]
`
	cfg, g := loadProject(t, root, yaml)
	store := lock.New()

	tree, code := New(root, cfg, g, store, Options{RequestedNames: []string{"unit"}}, nil).Run()
	if code != ExitSuccess {
		t.Fatalf("got exit %d", code)
	}
	if len(tree.Items) != 1 || tree.Items[0].Name != "unit" {
		t.Fatalf("expected only unit to run, got %+v", tree.Items)
	}
}

func TestRunForceReRunsVerifiedCheck(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src.go", "package main\n")
	yaml := `
verifications:
  - name: unit
    command: "true"
    cache_paths: ["*.go"]
`
	cfg, g := loadProject(t, root, yaml)
	store := lock.New()

	New(root, cfg, g, store, Options{}, nil).Run()

	tree, _ := New(root, cfg, g, store, Options{Force: true}, nil).Run()
	if tree.Passed != 1 || tree.Skipped != 0 {
		t.Fatalf("expected force to re-run rather than skip, got %+v", tree)
	}
}

func TestRunSubprojectFailurePropagatesToParent(t *testing.T) {
	root := t.TempDir()
	subDir := filepath.Join(root, "api")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, subDir, "src.go", "package api\n")
	writeFile(t, subDir, "verify.yaml", `
verifications:
  - name: unit
    command: "false"
    cache_paths: ["*.go"]
`)
	parentYaml := `
verifications:
  - name: api
    path: api
`
	cfg, g := loadProject(t, root, parentYaml)
	store := lock.New()

	tree, code := New(root, cfg, g, store, Options{}, nil).Run()
	if code != ExitFailure {
		t.Fatalf("got exit %d, want failure", code)
	}
	if !tree.HasFailure() {
		t.Fatal("expected parent tree to report failure via nested subproject")
	}
}
