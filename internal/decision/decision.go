// Package decision implements the verification-status rule cascade of
// spec.md §4.6: a pure function of a check's config, current content hash,
// lock entry, and its dependencies' staleness.
package decision

import (
	"github.com/verify-ci/verify/internal/config"
	"github.com/verify-ci/verify/internal/hashutil"
	"github.com/verify-ci/verify/internal/lock"
	"github.com/verify-ci/verify/internal/status"
)

// Stale maps a name to whether it is currently non-Verified, seeded by
// the planner in wave order (spec.md §4.6, §4.7) or, for pure status
// queries, precomputed recursively for subprojects by PrecomputeSubprojectStaleness.
type Stale map[string]bool

// Evaluate runs the four-rule cascade for check against its declared
// dependency names (which may name checks, aggregates, or subprojects),
// the check's current content hash (computed by the caller via
// hashutil.ComputeCheckHash), and the lock store. Unknown dependency
// names default to stale per spec.md §4.6 rule 1.
func Evaluate(check *config.Check, dependsOn []string, current hashutil.CheckHash, store *lock.Store, stale Stale) status.Status {
	for _, dep := range dependsOn {
		if s, known := stale[dep]; !known || s {
			return status.NewDependencyUnverified(dep)
		}
	}

	if check.IsAggregate() {
		return status.NewVerified()
	}

	if check.IsUntracked() {
		return status.NewUntracked()
	}

	configHash := check.ConfigHash()
	result := store.CheckStaleness(check.Name, current.Combined, configHash)
	if result.Kind == status.Unverified && result.Reason == status.FilesChanged && len(result.ChangedFiles) == 0 {
		var old map[string]string
		if entry := store.Entry(check.Name); entry != nil {
			old = entry.FileHashes
		}
		result.ChangedFiles = hashutil.FindChangedFiles(old, current.FileHashes)
	}
	return result
}

// IsStale reports whether s is anything but Verified — the boolean form
// the planner accumulates into Stale as each wave resolves (spec.md §4.6).
func IsStale(s status.Status) bool {
	return !s.IsVerified()
}

// PrecomputeSubprojectStaleness recursively determines whether sub is
// stale: the logical OR of any of its checks being non-verified or any
// of its own nested subprojects being stale (spec.md §4.6, used by the
// `status` command's up-front seeding pass).
//
// isSubStale is supplied by the caller (the runner/status command),
// which alone knows how to load a subproject's own config and lock.
func PrecomputeSubprojectStaleness(subNames []string, isSubStale func(name string) bool) Stale {
	out := make(Stale, len(subNames))
	for _, name := range subNames {
		out[name] = isSubStale(name)
	}
	return out
}
