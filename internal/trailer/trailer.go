// Package trailer implements the git-trailer attestation protocol of
// spec.md §3, §4.8: a comma-separated `Verified:` commit trailer pinning
// a truncated content+config hash per tracked, non-aggregate check.
package trailer

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/verify-ci/verify/internal/config"
	"github.com/verify-ci/verify/internal/gitutil"
	"github.com/verify-ci/verify/internal/graph"
	"github.com/verify-ci/verify/internal/hashutil"
	"github.com/verify-ci/verify/internal/lock"
	"lukechampine.com/blake3"
)

// TrailerKey is the git trailer key this protocol reads and writes.
const TrailerKey = "Verified"

// truncatedLen is the number of hex characters of the combined
// verification hash carried in the trailer (spec.md §3).
const truncatedLen = 8

// Entry is one name's combined verification hash, kept as an ordered
// slice (not a map) so trailer rendering is deterministic.
type Entry struct {
	Name string
	Hash string // full 64 hex chars
}

// Hashes is an ordered set of Entry, in the order checks were resolved.
type Hashes []Entry

// Truncated returns the first 8 hex chars of hash.
func Truncated(hash string) string {
	if len(hash) < truncatedLen {
		return hash
	}
	return hash[:truncatedLen]
}

// CombinedVerificationHash is BLAKE3(config_hash || ":" || content_hash),
// rendered as 64 hex chars (spec.md §3).
func CombinedVerificationHash(configHash, contentHash string) string {
	sum := blake3.Sum256([]byte(configHash + ":" + contentHash))
	return hex.EncodeToString(sum[:])
}

// topologicalChecks returns cfg's non-aggregate tracked checks ordered by
// g's execution waves (spec.md §4.8: "in topological order").
func topologicalChecks(cfg *config.Config, g *graph.Graph) []*config.Check {
	order := make(map[string]int)
	i := 0
	for _, wave := range g.ExecutionWaves() {
		for _, name := range wave {
			order[name] = i
			i++
		}
	}

	checks := cfg.NonAggregateTrackedChecks()
	sort.SliceStable(checks, func(a, b int) bool {
		return order[checks[a].Name] < order[checks[b].Name]
	})
	return checks
}

// ComputeAllHashes emits the combined verification hash for every
// non-aggregate tracked check currently Verified in store, in
// topological order. Stale checks are silently omitted.
func ComputeAllHashes(root string, cfg *config.Config, g *graph.Graph, store *lock.Store) (Hashes, error) {
	var out Hashes
	for _, check := range topologicalChecks(cfg, g) {
		configHash := check.ConfigHash()
		current, err := hashutil.ComputeCheckHash(root, check.CachePaths)
		if err != nil {
			return nil, fmt.Errorf("compute hash for %q: %w", check.Name, err)
		}
		result := store.CheckStaleness(check.Name, current.Combined, configHash)
		if !result.IsVerified() {
			continue
		}
		out = append(out, Entry{Name: check.Name, Hash: CombinedVerificationHash(configHash, current.Combined)})
	}
	return out, nil
}

// ComputeAllExpectedHashes computes the same hashes purely from the
// working tree, with no cache consulted (spec.md §4.8), used for
// validation by Check and Sync.
func ComputeAllExpectedHashes(root string, cfg *config.Config, g *graph.Graph) (Hashes, error) {
	var out Hashes
	for _, check := range topologicalChecks(cfg, g) {
		configHash := check.ConfigHash()
		current, err := hashutil.ComputeCheckHash(root, check.CachePaths)
		if err != nil {
			return nil, fmt.Errorf("compute hash for %q: %w", check.Name, err)
		}
		out = append(out, Entry{Name: check.Name, Hash: CombinedVerificationHash(configHash, current.Combined)})
	}
	return out, nil
}

// FormatValue renders hashes as the trailer's comma-separated value.
func FormatValue(hashes Hashes) string {
	parts := make([]string, len(hashes))
	for i, e := range hashes {
		parts[i] = fmt.Sprintf("%s:%s", e.Name, Truncated(e.Hash))
	}
	return strings.Join(parts, ",")
}

// ParseValue parses a trailer value into name -> truncated hash.
func ParseValue(value string) map[string]string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		nameHash := strings.SplitN(part, ":", 2)
		if len(nameHash) != 2 {
			continue
		}
		out[nameHash[0]] = nameHash[1]
	}
	return out
}

// ReadTrailer returns the parsed Verified trailer of the most recent
// commit at root, or nil if absent (spec.md §4.8).
func ReadTrailer(root string) (map[string]string, error) {
	raw, err := gitutil.LastCommitTrailers(root, TrailerKey)
	if err != nil {
		return nil, err
	}
	return ParseValue(raw), nil
}

// ReadTrailerFromHistory scans up to maxDepth commits for the most
// recent Verified trailer, returning nil if none is found.
func ReadTrailerFromHistory(root string, maxDepth int) (map[string]string, error) {
	shas, err := gitutil.RevList(root, maxDepth)
	if err != nil {
		return nil, err
	}
	for _, sha := range shas {
		raw, err := gitutil.CommitTrailersAt(root, sha, TrailerKey)
		if err != nil {
			return nil, err
		}
		if parsed := ParseValue(raw); parsed != nil {
			return parsed, nil
		}
	}
	return nil, nil
}

// WriteTrailer replaces the Verified trailer in commitMsgFile.
func WriteTrailer(commitMsgFile string, hashes Hashes) error {
	return gitutil.InterpretTrailers(commitMsgFile, TrailerKey, FormatValue(hashes))
}

// Check compares the working tree's expected hashes against the most
// recent commit's trailer. verified maps every check name (tracked and
// aggregate) to whether it is attested; hasUnverified is true when any
// entry is false.
func Check(root string, cfg *config.Config, g *graph.Graph) (verified map[string]bool, hasUnverified bool, err error) {
	trailer, err := ReadTrailer(root)
	if err != nil {
		return nil, false, err
	}

	expected, err := ComputeAllExpectedHashes(root, cfg, g)
	if err != nil {
		return nil, false, err
	}
	expectedByName := make(map[string]string, len(expected))
	for _, e := range expected {
		expectedByName[e.Name] = Truncated(e.Hash)
	}

	verified = make(map[string]bool)
	for _, wave := range g.ExecutionWaves() {
		for _, name := range wave {
			check, ok := cfg.Check(name)
			if !ok {
				continue // subproject node, out of scope for this protocol
			}
			switch {
			case check.IsAggregate():
				ok := true
				for _, dep := range check.DependsOn {
					if !verified[dep] {
						ok = false
						break
					}
				}
				verified[name] = ok
			case check.IsUntracked():
				verified[name] = true
			default:
				verified[name] = trailer != nil && trailer[name] == expectedByName[name]
			}
			if !verified[name] {
				hasUnverified = true
			}
		}
	}
	return verified, hasUnverified, nil
}

// Sync seeds store with a Verified entry for every non-aggregate tracked
// check whose current expected truncated hash matches the newest trailer
// found in history, then the caller is responsible for saving store once.
// Metadata cannot be recovered from a trailer, so synced entries carry
// none (spec.md §4.8). synced is nil only when no trailer was found; a
// trailer with no matching check yields an empty, non-nil slice.
func Sync(root string, cfg *config.Config, g *graph.Graph, store *lock.Store, maxDepth int) (synced []string, err error) {
	trailer, err := ReadTrailer(root)
	if err != nil {
		return nil, err
	}
	if trailer == nil {
		trailer, err = ReadTrailerFromHistory(root, maxDepth)
		if err != nil {
			return nil, err
		}
	}
	if trailer == nil {
		return nil, nil
	}
	synced = []string{}

	for _, check := range topologicalChecks(cfg, g) {
		configHash := check.ConfigHash()
		current, err := hashutil.ComputeCheckHash(root, check.CachePaths)
		if err != nil {
			return nil, fmt.Errorf("compute hash for %q: %w", check.Name, err)
		}
		expected := Truncated(CombinedVerificationHash(configHash, current.Combined))
		if trailer[check.Name] != expected {
			continue
		}

		var fileHashes map[string]string
		if check.PerFile {
			fileHashes = current.FileHashes
		}
		store.Update(check.Name, true, configHash, current.Combined, fileHashes, nil, check.PerFile)
		synced = append(synced, check.Name)
	}
	return synced, nil
}
