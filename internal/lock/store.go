// Package lock implements the versioned, atomically persisted lock-file
// cache of spec.md §3, §4.5, §6: one JSON file per project root recording
// the last-observed-verified state of every check.
package lock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verify-ci/verify/internal/metadata"
	"github.com/verify-ci/verify/internal/status"
)

// FileName is the lock file's name at the project root (spec.md §6).
const FileName = "verify.lock"

// Store is the in-memory lock cache for one project root. Checks is an
// ordered map: entries are written back out in the order they were
// first added, keeping the persisted JSON diff-friendly (spec.md §3's
// "ordered map<name, entry>").
type Store struct {
	version int
	entries map[string]*Entry
	order   []string
}

// New returns an empty store at the current cache version.
func New() *Store {
	return &Store{version: CacheVersion, entries: make(map[string]*Entry)}
}

// Load reads root/verify.lock. Per spec.md §4.5/§7, any failure —
// missing file, parse error, or a foreign version — yields a fresh
// empty store rather than propagating an error; recovered reports
// whether an existing lock file was discarded (it is false for a
// missing file), purely for diagnostic logging.
func Load(root string) (store *Store, recovered bool) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return New(), os.IsNotExist(err) == false
	}

	var wire wireStore
	if err := json.Unmarshal(data, &wire); err != nil {
		return New(), true
	}
	if wire.Version != CacheVersion {
		return New(), true
	}

	s := &Store{version: CacheVersion, entries: make(map[string]*Entry, len(wire.order))}
	for _, name := range wire.order {
		e := wire.Checks[name]
		s.entries[name] = e
		s.order = append(s.order, name)
	}
	return s, false
}

// Save writes the store to root/verify.lock via tmp-then-rename so a
// crash between write and rename never corrupts the existing lock
// (spec.md §4.5, §9).
func (s *Store) Save(root string) error {
	data, err := s.marshal()
	if err != nil {
		return fmt.Errorf("marshal lock file: %w", err)
	}

	path := filepath.Join(root, FileName)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmpPath, path, err)
	}
	return nil
}

// Entry returns the stored entry for name, or nil if absent.
func (s *Store) Entry(name string) *Entry {
	return s.entries[name]
}

func (s *Store) ensure(name string) *Entry {
	e, ok := s.entries[name]
	if !ok {
		e = &Entry{}
		s.entries[name] = e
		s.order = append(s.order, name)
	}
	return e
}

// Update records one execution attempt for name per the lock-entry
// state machine (spec.md §4.5): success writes content_hash (and
// file_hashes when perFile) and metadata; failure clears content_hash
// and metadata but retains config_hash.
func (s *Store) Update(name string, success bool, configHash, contentHash string, fileHashes map[string]string, meta map[string]metadata.Value, perFile bool) {
	e := s.ensure(name)
	e.ConfigHash = configHash

	if !success {
		e.ContentHash = ""
		e.Metadata = nil
		return
	}

	e.ContentHash = contentHash
	e.Metadata = meta
	if perFile {
		e.FileHashes = fileHashes
	} else {
		e.FileHashes = nil
	}
}

// UpdatePerFileHash records one file's success mid per-file run without
// marking the whole check verified, so an interrupted per-file run
// resumes without repeating passing files (spec.md §4.5, §4.7).
func (s *Store) UpdatePerFileHash(name, configHash, path, hash string) {
	e := s.ensure(name)
	e.ConfigHash = configHash
	if e.FileHashes == nil {
		e.FileHashes = make(map[string]string)
	}
	e.FileHashes[path] = hash
}

// FinalizePerFile converts partial per-file progress into a verified
// entry once every file has passed.
func (s *Store) FinalizePerFile(name, configHash, combinedHash string, meta map[string]metadata.Value) {
	e := s.ensure(name)
	e.ConfigHash = configHash
	e.ContentHash = combinedHash
	e.Metadata = meta
}

// MarkPerFileFailed clears content_hash (the check did not fully pass)
// but keeps file_hashes so progress survives.
func (s *Store) MarkPerFileFailed(name, configHash string) {
	e := s.ensure(name)
	e.ConfigHash = configHash
	e.ContentHash = ""
	e.Metadata = nil
}

// CleanupOrphaned drops every entry whose name is not in validNames
// (spec.md §3, §4.5) and returns the removed names.
func (s *Store) CleanupOrphaned(validNames []string) []string {
	valid := make(map[string]bool, len(validNames))
	for _, n := range validNames {
		valid[n] = true
	}

	var removed []string
	newOrder := s.order[:0]
	for _, name := range s.order {
		if valid[name] {
			newOrder = append(newOrder, name)
			continue
		}
		removed = append(removed, name)
		delete(s.entries, name)
	}
	s.order = newOrder
	return removed
}

// CheckStaleness implements spec.md §4.5's check_staleness: it reasons
// purely from the lock entry plus the caller-supplied current hashes,
// returning Unverified{FilesChanged{nil}} when content differs (the
// caller fills in ChangedFiles via hashutil.FindChangedFiles, per the
// decision engine's responsibility split in spec.md §4.6).
func (s *Store) CheckStaleness(name, currentContentHash, currentConfigHash string) status.Status {
	e := s.entries[name]
	if !e.Attempted() || !e.SucceededLast() {
		return status.NewNeverRun()
	}
	if e.ConfigHash != currentConfigHash {
		return status.NewConfigChanged()
	}
	if e.ContentHash != currentContentHash {
		return status.NewFilesChanged(nil)
	}
	return status.NewVerified()
}

// wireStore is the on-disk JSON shape (spec.md §6), with Checks kept
// ordered via a parallel slice populated during unmarshal.
type wireStore struct {
	Version int
	Checks  map[string]*Entry
	order   []string
}

func (w *wireStore) UnmarshalJSON(data []byte) error {
	var outer struct {
		Version int             `json:"version"`
		Checks  json.RawMessage `json:"checks"`
	}
	if err := json.Unmarshal(data, &outer); err != nil {
		return err
	}
	w.Version = outer.Version
	w.Checks = make(map[string]*Entry)
	if len(outer.Checks) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(outer.Checks))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object for checks")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return err
		}
		w.Checks[key] = &e
		w.order = append(w.order, key)
	}
	return nil
}

// marshal renders the store as pretty-printed JSON with checks in
// insertion order (spec.md §3, §6).
func (s *Store) marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n  \"version\": ")
	fmt.Fprintf(&buf, "%d", CacheVersion)
	buf.WriteString(",\n  \"checks\": {")

	for i, name := range s.order {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		keyBytes, _ := json.Marshal(name)
		buf.Write(keyBytes)
		buf.WriteString(": ")

		entryBytes, err := json.MarshalIndent(s.entries[name], "    ", "  ")
		if err != nil {
			return nil, err
		}
		buf.Write(entryBytes)
	}

	if len(s.order) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteString("}\n}\n")
	return buf.Bytes(), nil
}
