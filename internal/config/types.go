// Package config loads and validates verify.yaml into the declarative
// check/subproject model of spec.md §3 and computes the per-check config
// hash that determines when "running a check" means something new.
package config

import "fmt"

// MetadataPattern is either a bare capture-group regex or a (regex,
// template) replacement pair (spec.md §3, §4.4).
type MetadataPattern struct {
	Regex    string
	Template string // empty means "simple pattern": use capture group 1 directly
}

// UnmarshalYAML accepts both `key: regex` and `key: [regex, template]`.
func (m *MetadataPattern) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var asString string
	if err := unmarshal(&asString); err == nil {
		m.Regex = asString
		m.Template = ""
		return nil
	}

	var asPair []string
	if err := unmarshal(&asPair); err != nil {
		return fmt.Errorf("metadata pattern must be a string or a [regex, template] pair")
	}
	if len(asPair) != 2 {
		return fmt.Errorf("metadata pattern pair must have exactly 2 elements, got %d", len(asPair))
	}
	m.Regex = asPair[0]
	m.Template = asPair[1]
	return nil
}

// Check is a user-declared verification (spec.md §3). Command being empty
// marks it an aggregate; CachePaths being empty marks it untracked.
type Check struct {
	Name             string
	Command          string
	CachePaths       []string
	DependsOn        []string
	TimeoutSecs      *int
	MetadataPatterns map[string]MetadataPattern
	PerFile          bool
}

// IsAggregate reports whether this check has no command of its own.
func (c *Check) IsAggregate() bool {
	return c.Command == ""
}

// IsUntracked reports whether this check has no file-based inputs.
func (c *Check) IsUntracked() bool {
	return len(c.CachePaths) == 0
}

// Subproject is a named reference to a nested project with its own
// config and lock file (spec.md §3).
type Subproject struct {
	Name string
	Path string
}

// rawItem is the wire shape of one `verifications` list entry; Config.Load
// distinguishes check vs. subproject by the presence of Path.
type rawItem struct {
	Name        string                     `yaml:"name"`
	Path        string                     `yaml:"path,omitempty"`
	Command     string                     `yaml:"command,omitempty"`
	CachePaths  []string                   `yaml:"cache_paths,omitempty"`
	DependsOn   []string                   `yaml:"depends_on,omitempty"`
	TimeoutSecs *int                       `yaml:"timeout_secs,omitempty"`
	PerFile     bool                       `yaml:"per_file,omitempty"`
	Metadata    map[string]MetadataPattern `yaml:"metadata,omitempty"`
}

type rawConfig struct {
	Verifications []rawItem `yaml:"verifications"`
}
