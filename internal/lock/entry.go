package lock

import "github.com/verify-ci/verify/internal/metadata"

// CacheVersion is the engine's compiled lock-file format version
// (spec.md §3, §6). Loading a lock whose version differs yields an
// empty cache — forward migration by invalidation, never by in-place
// upgrade.
const CacheVersion = 4

// Entry is one check's persisted state (spec.md §3). Fields are
// modeled as a discriminated record rather than independent nullable
// values (spec.md §9): ConfigHash is set after any attempt; ContentHash
// is set iff the most recent attempt succeeded; FileHashes is set iff
// the check is per-file and has partial-or-full progress.
type Entry struct {
	ConfigHash  string                     `json:"config_hash,omitempty"`
	ContentHash string                     `json:"content_hash,omitempty"`
	FileHashes  map[string]string          `json:"file_hashes,omitempty"`
	Metadata    map[string]metadata.Value  `json:"metadata,omitempty"`
}

// Attempted reports whether this entry records at least one execution
// attempt.
func (e *Entry) Attempted() bool {
	return e != nil && e.ConfigHash != ""
}

// SucceededLast reports whether the most recent attempt succeeded.
func (e *Entry) SucceededLast() bool {
	return e != nil && e.ContentHash != ""
}
