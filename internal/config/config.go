package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file name looked for both at the
// project root and inside each subproject directory
// (spec.md §6: "verify.yaml at the project root").
const DefaultFileName = "verify.yaml"

// ConfigPath returns the config file a subproject reference points at.
func (s Subproject) ConfigPath(parentRoot string) string {
	return filepath.Join(parentRoot, s.Path, DefaultFileName)
}

// Root returns the directory a subproject's own checks execute from.
func (s Subproject) Root(parentRoot string) string {
	return filepath.Join(parentRoot, s.Path)
}

// Config is the validated, ordered representation of one verify.yaml
// (spec.md §3, §4.2).
type Config struct {
	// Root is the directory this config's cache_paths and commands are
	// relative to.
	Root string

	// Order is the declaration order of every name (check or subproject)
	// in this config; SPEC_FULL.md §C.3 uses this to tie-break waves and
	// human-output ordering deterministically.
	Order []string

	checks       map[string]*Check
	subprojects  map[string]*Subproject
	checkOrder   []string
	subOrder     []string
}

// Load reads and validates a config file at path. The caller supplies
// root (the directory cache_paths/commands resolve against), which for
// the top-level config is the project root and for a subproject is that
// subproject's own directory.
func Load(path, root string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := &Config{
		Root:        root,
		checks:      make(map[string]*Check),
		subprojects: make(map[string]*Subproject),
	}

	for _, item := range raw.Verifications {
		if item.Name == "" {
			return nil, fmt.Errorf("config %s: entry missing name", path)
		}
		if _, dup := cfg.checks[item.Name]; dup {
			return nil, fmt.Errorf("config %s: duplicate name %q", path, item.Name)
		}
		if _, dup := cfg.subprojects[item.Name]; dup {
			return nil, fmt.Errorf("config %s: duplicate name %q", path, item.Name)
		}

		if item.Path != "" {
			sub := &Subproject{Name: item.Name, Path: item.Path}
			cfg.subprojects[item.Name] = sub
			cfg.subOrder = append(cfg.subOrder, item.Name)
		} else {
			check := &Check{
				Name:             item.Name,
				Command:          item.Command,
				CachePaths:       item.CachePaths,
				DependsOn:        item.DependsOn,
				TimeoutSecs:      item.TimeoutSecs,
				PerFile:          item.PerFile,
				MetadataPatterns: item.Metadata,
			}
			cfg.checks[item.Name] = check
			cfg.checkOrder = append(cfg.checkOrder, item.Name)
		}
		cfg.Order = append(cfg.Order, item.Name)
	}

	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces spec.md §3's configuration invariants except acyclicity,
// which is the Graph's responsibility (spec.md §4.3).
func (c *Config) validate(path string) error {
	for _, name := range c.checkOrder {
		check := c.checks[name]
		for _, dep := range check.DependsOn {
			if dep == name {
				return fmt.Errorf("config %s: check %q depends on itself", path, name)
			}
			if !c.Exists(dep) {
				return fmt.Errorf("config %s: check %q depends on unknown name %q", path, name, dep)
			}
		}
	}

	for _, name := range c.subOrder {
		sub := c.subprojects[name]
		subPath := sub.ConfigPath(c.Root)
		if _, err := os.Stat(subPath); err != nil {
			return fmt.Errorf("config %s: subproject %q config not found at %s", path, name, subPath)
		}
	}

	return nil
}

// Exists reports whether name resolves to a check or a subproject.
func (c *Config) Exists(name string) bool {
	if _, ok := c.checks[name]; ok {
		return true
	}
	_, ok := c.subprojects[name]
	return ok
}

// Check looks up a check by name.
func (c *Config) Check(name string) (*Check, bool) {
	ch, ok := c.checks[name]
	return ch, ok
}

// Subproject looks up a subproject by name.
func (c *Config) Subproject(name string) (*Subproject, bool) {
	sub, ok := c.subprojects[name]
	return sub, ok
}

// IsSubproject reports whether name refers to a subproject (rather than a check).
func (c *Config) IsSubproject(name string) bool {
	_, ok := c.subprojects[name]
	return ok
}

// Checks returns every check in declaration order.
func (c *Config) Checks() []*Check {
	out := make([]*Check, 0, len(c.checkOrder))
	for _, name := range c.checkOrder {
		out = append(out, c.checks[name])
	}
	return out
}

// Subprojects returns every subproject in declaration order.
func (c *Config) Subprojects() []*Subproject {
	out := make([]*Subproject, 0, len(c.subOrder))
	for _, name := range c.subOrder {
		out = append(out, c.subprojects[name])
	}
	return out
}

// NonAggregateTrackedChecks returns checks that have a command and at
// least one cache_paths entry — the set the trailer protocol (spec.md
// §4.8) pins hashes for.
func (c *Config) NonAggregateTrackedChecks() []*Check {
	var out []*Check
	for _, name := range c.checkOrder {
		ch := c.checks[name]
		if !ch.IsAggregate() && !ch.IsUntracked() {
			out = append(out, ch)
		}
	}
	return out
}
