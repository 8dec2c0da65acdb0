package graph

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/verify-ci/verify/internal/config"
)

func loadConfig(t *testing.T, yamlContent string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path, dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestExecutionWavesLinearChain(t *testing.T) {
	cfg := loadConfig(t, `
verifications:
  - name: a
    command: "echo a"
  - name: b
    command: "echo b"
    depends_on: [a]
  - name: c
    command: "echo c"
    depends_on: [b]
`)
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	waves := g.ExecutionWaves()
	want := [][]string{{"a"}, {"b"}, {"c"}}
	if !reflect.DeepEqual(waves, want) {
		t.Errorf("got %v, want %v", waves, want)
	}
}

func TestExecutionWavesIndependentNodesShareWave(t *testing.T) {
	cfg := loadConfig(t, `
verifications:
  - name: a
    command: "echo a"
  - name: b
    command: "echo b"
  - name: c
    command: "echo c"
    depends_on: [a, b]
`)
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	waves := g.ExecutionWaves()
	if len(waves) != 2 {
		t.Fatalf("expected 2 waves, got %d: %v", len(waves), waves)
	}
	if !reflect.DeepEqual(waves[0], []string{"a", "b"}) {
		t.Errorf("expected first wave [a b] in declaration order, got %v", waves[0])
	}
	if !reflect.DeepEqual(waves[1], []string{"c"}) {
		t.Errorf("expected second wave [c], got %v", waves[1])
	}
}

func TestCycleDetected(t *testing.T) {
	cfg := loadConfig(t, `
verifications:
  - name: a
    command: "echo a"
    depends_on: [b]
  - name: b
    command: "echo b"
    depends_on: [a]
`)
	if _, err := New(cfg); err == nil {
		t.Error("expected cycle error")
	}
}

func TestTransitiveDependenciesIncludesSelf(t *testing.T) {
	cfg := loadConfig(t, `
verifications:
  - name: a
    command: "echo a"
  - name: b
    command: "echo b"
    depends_on: [a]
  - name: c
    command: "echo c"
    depends_on: [b]
`)
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	closure := g.TransitiveDependencies("c")
	want := map[string]bool{"a": true, "b": true, "c": true}
	if len(closure) != len(want) {
		t.Fatalf("got %v", closure)
	}
	for _, n := range closure {
		if !want[n] {
			t.Errorf("unexpected node %q in closure", n)
		}
	}
}

func TestSubprojectDependencyBecomesNode(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "child")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(subDir, config.DefaultFileName), []byte("verifications: []"), 0o644); err != nil {
		t.Fatalf("write sub config: %v", err)
	}
	path := filepath.Join(dir, config.DefaultFileName)
	if err := os.WriteFile(path, []byte(`
verifications:
  - name: child
    path: "./child"
  - name: all
    depends_on: [child]
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path, dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	deps := g.DirectDependencies("all")
	if !reflect.DeepEqual(deps, []string{"child"}) {
		t.Errorf("expected [child], got %v", deps)
	}
}
