package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadBasicConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
verifications:
  - name: build
    command: "go build ./..."
    cache_paths: ["**/*.go"]
  - name: lint
    command: "golangci-lint run"
    cache_paths: ["**/*.go"]
    depends_on: [build]
  - name: all
    depends_on: [build, lint]
`)

	cfg, err := Load(path, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Checks()) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(cfg.Checks()))
	}
	all, ok := cfg.Check("all")
	if !ok || !all.IsAggregate() {
		t.Fatalf("expected 'all' to be an aggregate")
	}
	build, _ := cfg.Check("build")
	if build.IsAggregate() {
		t.Error("'build' should not be an aggregate")
	}
}

func TestLoadRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
verifications:
  - name: build
    command: "echo 1"
  - name: build
    command: "echo 2"
`)
	if _, err := Load(path, dir); err == nil {
		t.Error("expected duplicate name error")
	}
}

func TestLoadRejectsSelfDependency(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
verifications:
  - name: build
    command: "echo 1"
    depends_on: [build]
`)
	if _, err := Load(path, dir); err == nil {
		t.Error("expected self-dependency error")
	}
}

func TestLoadRejectsUnknownDependency(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
verifications:
  - name: build
    command: "echo 1"
    depends_on: [nonexistent]
`)
	if _, err := Load(path, dir); err == nil {
		t.Error("expected unknown dependency error")
	}
}

func TestLoadRejectsMissingSubprojectConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
verifications:
  - name: sub
    path: "./missing-dir"
`)
	if _, err := Load(path, dir); err == nil {
		t.Error("expected missing subproject config error")
	}
}

func TestLoadAcceptsExistingSubproject(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "child")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, subDir, `verifications: []`)

	path := writeConfig(t, dir, `
verifications:
  - name: child
    path: "./child"
`)
	cfg, err := Load(path, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsSubproject("child") {
		t.Error("expected 'child' to resolve as a subproject")
	}
}

func TestConfigHashStableAcrossOrderAndCasesInsensitiveToName(t *testing.T) {
	a := &Check{
		Command:    "go test ./...",
		CachePaths: []string{"b/*.go", "a/*.go"},
		MetadataPatterns: map[string]MetadataPattern{
			"coverage": {Regex: `(\d+)%`},
			"duration": {Regex: `(\d+)s`, Template: "$1"},
		},
	}
	b := &Check{
		Command:    "go test ./...",
		CachePaths: []string{"a/*.go", "b/*.go"},
		MetadataPatterns: map[string]MetadataPattern{
			"duration": {Regex: `(\d+)s`, Template: "$1"},
			"coverage": {Regex: `(\d+)%`},
		},
	}
	if a.ConfigHash() != b.ConfigHash() {
		t.Error("expected config hash to be order-insensitive")
	}

	// Different name/depends_on must not affect the hash.
	a.Name = "x"
	a.DependsOn = []string{"other"}
	if a.ConfigHash() != b.ConfigHash() {
		t.Error("expected config hash to ignore name and depends_on")
	}
}

func TestConfigHashChangesWithCommand(t *testing.T) {
	a := &Check{Command: "echo 1"}
	b := &Check{Command: "echo 2"}
	if a.ConfigHash() == b.ConfigHash() {
		t.Error("expected different commands to produce different hashes")
	}
}

func TestMetadataPatternUnmarshalBothForms(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
verifications:
  - name: t
    command: "echo"
    metadata:
      simple: '(\d+)'
      pair: ['(\d+)s', '$1']
`)
	cfg, err := Load(path, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ch, _ := cfg.Check("t")
	if ch.MetadataPatterns["simple"].Template != "" {
		t.Error("simple pattern should have empty template")
	}
	if ch.MetadataPatterns["pair"].Template != "$1" {
		t.Errorf("expected template $1, got %q", ch.MetadataPatterns["pair"].Template)
	}
}
