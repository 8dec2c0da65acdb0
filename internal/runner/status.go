package runner

import (
	"fmt"

	"github.com/verify-ci/verify/internal/config"
	"github.com/verify-ci/verify/internal/decision"
	"github.com/verify-ci/verify/internal/graph"
	"github.com/verify-ci/verify/internal/hashutil"
	"github.com/verify-ci/verify/internal/lock"
	"github.com/verify-ci/verify/internal/results"
	"github.com/verify-ci/verify/internal/status"
)

// StatusOptions configures one status query.
type StatusOptions struct {
	RequestedNames []string
	Detailed       bool
}

// Status evaluates the cache-based verification status of every check
// (spec.md §4.6), without executing anything. It returns the result
// tree, whether anything came back unverified, and the exit code.
func Status(root string, cfg *config.Config, g *graph.Graph, store *lock.Store, opts StatusOptions) (*results.Tree, bool, int) {
	requested := make(map[string]bool, len(opts.RequestedNames))
	for _, name := range opts.RequestedNames {
		if !cfg.Exists(name) {
			return results.NewTree(""), false, ExitFatal
		}
		requested[name] = true
	}

	tree := results.NewTree("")
	hasUnverified := false
	fatal := false

	subNames := make([]string, 0, len(cfg.Subprojects()))
	for _, sub := range cfg.Subprojects() {
		subNames = append(subNames, sub.Name)
	}
	stale := decision.PrecomputeSubprojectStaleness(subNames, func(name string) bool {
		subUnverified, subFatal := evaluateSubprojectStatus(root, cfg, name, tree, requested, opts)
		hasUnverified = hasUnverified || subUnverified
		fatal = fatal || subFatal
		return subUnverified
	})

	for _, wave := range g.ExecutionWaves() {
		for _, name := range wave {
			if cfg.IsSubproject(name) {
				continue
			}

			check, ok := cfg.Check(name)
			if !ok {
				continue
			}

			current, err := hashutil.ComputeCheckHash(root, check.CachePaths)
			if err != nil {
				stale[name] = true
				hasUnverified = true
				if len(requested) == 0 || requested[name] {
					tree.Add(&results.Item{Name: name, Outcome: results.Fail, Status: err.Error()})
				}
				continue
			}

			st := decision.Evaluate(check, check.DependsOn, current, store, stale)
			stale[name] = decision.IsStale(st)
			if decision.IsStale(st) {
				hasUnverified = true
			}

			if len(requested) > 0 && !requested[name] {
				continue
			}
			tree.Add(statusItem(name, st, opts.Detailed))
		}
	}

	if fatal {
		return tree, hasUnverified, ExitFatal
	}
	if hasUnverified {
		return tree, true, ExitFailure
	}
	return tree, false, ExitSuccess
}

// evaluateSubprojectStatus recurses into a subproject's own config and
// lock to determine its aggregate staleness, nesting its tree under the
// parent when included in the report (spec.md §4.6's PrecomputeSubprojectStaleness).
// A subproject whose own config fails to load is a configuration error
// (original_source supplement C.4), reported via fatal rather than as an
// ordinary check failure.
func evaluateSubprojectStatus(root string, cfg *config.Config, name string, parent *results.Tree, requested map[string]bool, opts StatusOptions) (unverified, fatal bool) {
	sub, _ := cfg.Subproject(name)
	subRoot := sub.Root(root)

	subCfg, err := config.Load(sub.ConfigPath(root), subRoot)
	if err != nil {
		return true, true
	}
	subGraph, err := graph.New(subCfg)
	if err != nil {
		return true, true
	}
	subStore, _ := lock.Load(subRoot)

	subTree, subUnverified, code := Status(subRoot, subCfg, subGraph, subStore, StatusOptions{Detailed: opts.Detailed})
	if code == ExitFatal {
		return true, true
	}

	if len(requested) == 0 || requested[name] {
		outcome := results.Pass
		if subUnverified {
			outcome = results.Fail
		}
		parent.Add(&results.Item{Name: name, Outcome: outcome, Subproject: subTree})
	}
	return subUnverified, false
}

// statusItem renders one check's status as a result item; in detailed
// mode the changed-file list is included in the output.
func statusItem(name string, st status.Status, detailed bool) *results.Item {
	outcome := results.Pass
	if st.Kind == status.Untracked {
		outcome = results.Skipped
	} else if !st.IsVerified() {
		outcome = results.Fail
	}

	item := &results.Item{Name: name, Outcome: outcome, Status: st.String()}
	if detailed && st.Reason == status.FilesChanged && len(st.ChangedFiles) > 0 {
		item.Output = fmt.Sprintf("changed: %v", st.ChangedFiles)
	}
	return item
}
