// Package hashutil implements the content-hash model (spec.md §3, §4.1):
// per-file BLAKE3 digests, the deterministic combined hash over a check's
// input set, and the pure diff helper used to explain staleness to a human.
package hashutil

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"lukechampine.com/blake3"
)

// streamChunkSize is the minimum read buffer spec.md §4.1 requires
// ("streamed in >=64 KiB chunks"); the hashing context never materializes
// a whole file.
const streamChunkSize = 64 * 1024

// CheckHash is the result of hashing a check's glob-expanded input set:
// the deterministic combined digest plus the per-file digests it was
// built from (needed for per-file mode and changed-file reporting).
type CheckHash struct {
	Combined   string
	FileHashes map[string]string // relative path -> hex digest
}

// HashFile streams path's contents through BLAKE3 and returns the 64-hex
// digest. Only regular files should be passed in; callers are responsible
// for filtering directories (glob expansion already does this).
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New(32, nil)
	buf := make([]byte, streamChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// expandGlobs resolves cachePaths against root, unions the matches with
// "first writer wins" (spec.md §4.1: overlapping patterns don't double-hash),
// and filters out anything that isn't a regular file.
func expandGlobs(root string, cachePaths []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var ordered []string

	for _, pattern := range cachePaths {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("expand glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			info, err := fs.Stat(fsys, m)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", m, err)
			}
			if !info.Mode().IsRegular() {
				continue
			}
			seen[m] = struct{}{}
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

// ComputeCheckHash expands cachePaths relative to root, hashes every
// matched regular file, and combines them into the deterministic
// "combined hash" of spec.md §3: the hash of the sorted, de-duplicated
// concatenation of `path || ":" || per_file_hash || "\n"`.
func ComputeCheckHash(root string, cachePaths []string) (CheckHash, error) {
	paths, err := expandGlobs(root, cachePaths)
	if err != nil {
		return CheckHash{}, err
	}

	fileHashes := make(map[string]string, len(paths))
	items, err := hashAll(root, paths)
	if err != nil {
		return CheckHash{}, err
	}
	for path, digest := range items {
		fileHashes[path] = digest
	}

	return CheckHash{
		Combined:   combine(fileHashes),
		FileHashes: fileHashes,
	}, nil
}

// hashAll hashes each of paths (relative to root) concurrently. Hashing is
// pure and per-file independent, so it carries none of the single-threaded
// scheduling constraints §5 imposes on check execution itself.
func hashAll(root string, paths []string) (map[string]string, error) {
	p := newPool[string](0)
	results := p.process(paths, func(rel string) (string, error) {
		return HashFile(filepath.Join(root, rel))
	})

	out := make(map[string]string, len(paths))
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out[paths[i]] = r.value
	}
	return out, nil
}

// combine produces the deterministic combined hash over a set of
// (path, per-file hash) pairs, sorted lexicographically by path so the
// result is a function of the set, never of enumeration order.
func combine(fileHashes map[string]string) string {
	paths := make([]string, 0, len(fileHashes))
	for p := range fileHashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		sb.WriteString(p)
		sb.WriteByte(':')
		sb.WriteString(fileHashes[p])
		sb.WriteByte('\n')
	}

	sum := blake3.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// FindChangedFiles returns the sorted per-path delta between two file-hash
// maps, prefixing additions with "+ ", deletions with "- ", and
// modifications with "M ". Pure function: FindChangedFiles(a, a) is empty.
func FindChangedFiles(old, new map[string]string) []string {
	var changed []string
	for path, newHash := range new {
		oldHash, existed := old[path]
		switch {
		case !existed:
			changed = append(changed, "+ "+path)
		case oldHash != newHash:
			changed = append(changed, "M "+path)
		}
	}
	for path := range old {
		if _, stillExists := new[path]; !stillExists {
			changed = append(changed, "- "+path)
		}
	}
	sort.Strings(changed)
	return changed
}
