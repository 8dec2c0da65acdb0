// Package runner plans and executes checks (spec.md §4.7): resolving
// transitive dependencies depth-first with memoized completions,
// spawning shell commands in ordinary or per-file mode, recursing into
// subprojects, and persisting the lock after every completion.
package runner

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/verify-ci/verify/internal/config"
	"github.com/verify-ci/verify/internal/decision"
	"github.com/verify-ci/verify/internal/gitutil"
	"github.com/verify-ci/verify/internal/graph"
	"github.com/verify-ci/verify/internal/hashutil"
	"github.com/verify-ci/verify/internal/lock"
	"github.com/verify-ci/verify/internal/metadata"
	"github.com/verify-ci/verify/internal/obs"
	"github.com/verify-ci/verify/internal/results"
)

// Exit codes (spec.md §4.7, §7).
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitFatal   = 2
)

// Options configures one invocation of Run.
type Options struct {
	RequestedNames []string
	Force          bool
	Verbose        bool
	Stage          bool
	Output         io.Writer // where verbose command output is mirrored
}

// Runner executes one project's checks against its config, graph, and lock.
type Runner struct {
	root  string
	cfg   *config.Config
	graph *graph.Graph
	store *lock.Store
	opts  Options
	log   *obs.Logger

	executed map[string]bool // name -> had failure
	tree     *results.Tree
	fatal    bool // a subproject's own config failed to load (spec.md's original_source supplement C.4: configuration error, not a check failure)
}

// New builds a Runner for one project root.
func New(root string, cfg *config.Config, g *graph.Graph, store *lock.Store, opts Options, log *obs.Logger) *Runner {
	if log == nil {
		log = obs.Nop()
	}
	return &Runner{
		root:     root,
		cfg:      cfg,
		graph:    g,
		store:    store,
		opts:     opts,
		log:      log,
		executed: make(map[string]bool),
		tree:     results.NewTree(""),
	}
}

// Run executes the requested names (or everything, if none were named)
// and returns the result tree and the process exit code.
func (r *Runner) Run() (*results.Tree, int) {
	requested := make(map[string]bool, len(r.opts.RequestedNames))
	for _, name := range r.opts.RequestedNames {
		if !r.cfg.Exists(name) {
			return r.tree, ExitFatal
		}
		requested[name] = true
	}

	for _, name := range r.cfg.Order {
		if len(requested) > 0 && !requested[name] {
			continue
		}
		r.resolveAndExecute(name)
	}

	if r.fatal {
		return r.tree, ExitFatal
	}

	if err := r.store.Save(r.root); err != nil {
		r.log.Error("save lock", obs.Err(err))
		return r.tree, ExitFatal
	}

	removed := r.store.CleanupOrphaned(r.namesNeedingPersistence())
	if len(removed) > 0 {
		if err := r.store.Save(r.root); err != nil {
			r.log.Error("save lock after orphan cleanup", obs.Err(err))
			return r.tree, ExitFatal
		}
	}

	if r.opts.Stage && !r.tree.HasFailure() {
		if err := gitutil.Stage(r.root, []string{lock.FileName}); err != nil {
			r.log.Warn("stage lock file", obs.Err(err))
		}
	}

	if r.tree.HasFailure() {
		return r.tree, ExitFailure
	}
	return r.tree, ExitSuccess
}

// namesNeedingPersistence is every check name currently declared, the
// orphan-cleanup retention set (spec.md §3's "removed when a check
// disappears from the config").
func (r *Runner) namesNeedingPersistence() []string {
	var names []string
	for _, c := range r.cfg.Checks() {
		names = append(names, c.Name)
	}
	return names
}

// resolveAndExecute runs name's transitive dependencies depth-first,
// memoized in executed, then name itself, at most once per invocation.
func (r *Runner) resolveAndExecute(name string) {
	if _, done := r.executed[name]; done {
		return
	}

	if r.cfg.IsSubproject(name) {
		r.executeSubproject(name)
		return
	}

	check, ok := r.cfg.Check(name)
	if !ok {
		r.executed[name] = true
		return
	}

	for _, dep := range check.DependsOn {
		r.resolveAndExecute(dep)
	}

	r.executeCheck(check)
}

// executeCheck runs one check, propagating dependency failures first,
// then handling the aggregate / untracked / tracked cases (spec.md §4.7).
func (r *Runner) executeCheck(check *config.Check) {
	for _, dep := range check.DependsOn {
		if hadFailure := r.executed[dep]; hadFailure {
			r.tree.Add(&results.Item{
				Name:   check.Name,
				Outcome: results.Fail,
				Status:  fmt.Sprintf("unverified (dependency: %s)", dep),
			})
			r.executed[check.Name] = true
			return
		}
	}

	if check.IsAggregate() {
		r.tree.Add(&results.Item{Name: check.Name, Outcome: results.Pass, Status: "verified"})
		r.executed[check.Name] = false
		return
	}

	if check.IsUntracked() {
		r.tree.Add(&results.Item{Name: check.Name, Outcome: results.Skipped, Status: "untracked"})
		r.executed[check.Name] = false
		return
	}

	r.executeTrackedCheck(check)
}

// executeTrackedCheck computes the current content hash and decides
// whether to skip (already Verified, no --force) or to spawn the
// command in ordinary or per-file mode.
func (r *Runner) executeTrackedCheck(check *config.Check) {
	current, err := hashutil.ComputeCheckHash(r.root, check.CachePaths)
	if err != nil {
		r.tree.Add(&results.Item{Name: check.Name, Outcome: results.Fail, Status: err.Error()})
		r.executed[check.Name] = true
		return
	}

	if !r.opts.Force {
		st := decision.Evaluate(check, nil, current, r.store, nil)
		if st.IsVerified() {
			r.tree.Add(&results.Item{Name: check.Name, Outcome: results.Skipped, Status: "verified"})
			r.executed[check.Name] = false
			return
		}
	}

	var success bool
	if check.PerFile {
		success = r.runPerFile(check, current)
	} else {
		success = r.runOrdinary(check, current)
	}

	r.executed[check.Name] = !success
	if err := r.store.Save(r.root); err != nil {
		r.log.Error("save lock after check", obs.String("check", check.Name), obs.Err(err))
	}
}

// runOrdinary spawns the command once and records the outcome.
func (r *Runner) runOrdinary(check *config.Check, current hashutil.CheckHash) bool {
	result, err := runCommand(r.root, check.Command, nil, timeoutFor(check.TimeoutSecs), r.opts.Verbose, r.verboseWriter())
	if err != nil {
		r.log.Warn("command error", obs.String("check", check.Name), obs.Err(err))
	}

	configHash := check.ConfigHash()
	if !result.Success {
		r.store.Update(check.Name, false, configHash, "", nil, nil, false)
		r.tree.Add(&results.Item{
			Name:    check.Name,
			Outcome: results.Fail,
			Status:  redCommand(check.Command),
			Output:  result.Output,
		})
		return false
	}

	meta := metadata.Extract(result.Output, check.MetadataPatterns)
	r.store.Update(check.Name, true, configHash, current.Combined, nil, meta, false)
	deltas := r.tree.Delta(check.Name, meta)
	r.tree.Add(&results.Item{Name: check.Name, Outcome: results.Pass, Status: "passed", Metadata: meta, Output: deltaSummary(meta, deltas)})
	return true
}

// runPerFile runs the command once per stale input file, persisting
// progress after every file so an interrupted run resumes cleanly
// (spec.md §4.7).
func (r *Runner) runPerFile(check *config.Check, current hashutil.CheckHash) bool {
	configHash := check.ConfigHash()

	var cachedFileHashes map[string]string
	if entry := r.store.Entry(check.Name); entry != nil && entry.ConfigHash == configHash {
		cachedFileHashes = entry.FileHashes
	}

	var stalePaths []string
	for path, hash := range current.FileHashes {
		if cachedFileHashes[path] != hash {
			stalePaths = append(stalePaths, path)
		}
	}
	sort.Strings(stalePaths)

	allPassed := true
	var combinedOutput string
	for _, path := range stalePaths {
		result, err := runCommand(r.root, check.Command, []string{"VERIFY_FILE=" + path}, timeoutFor(check.TimeoutSecs), r.opts.Verbose, r.verboseWriter())
		if err != nil {
			r.log.Warn("per-file command error", obs.String("check", check.Name), obs.String("file", path), obs.Err(err))
		}
		combinedOutput += result.Output

		if !result.Success {
			allPassed = false
			continue
		}
		r.store.UpdatePerFileHash(check.Name, configHash, path, current.FileHashes[path])
		if err := r.store.Save(r.root); err != nil {
			r.log.Error("save lock after per-file success", obs.Err(err))
		}
	}

	if !allPassed {
		r.store.MarkPerFileFailed(check.Name, configHash)
		r.tree.Add(&results.Item{
			Name:    check.Name,
			Outcome: results.Fail,
			Status:  redCommand(check.Command),
			Output:  combinedOutput,
		})
		return false
	}

	meta := metadata.Extract(combinedOutput, check.MetadataPatterns)
	r.store.FinalizePerFile(check.Name, configHash, current.Combined, meta)
	deltas := r.tree.Delta(check.Name, meta)
	r.tree.Add(&results.Item{Name: check.Name, Outcome: results.Pass, Status: "passed", Metadata: meta, Output: deltaSummary(meta, deltas)})
	return true
}

// executeSubproject recurses into a subproject's own config and lock,
// running with the same filter and force flag, nesting its results
// under the parent tree (spec.md §4.7).
func (r *Runner) executeSubproject(name string) {
	sub, _ := r.cfg.Subproject(name)
	subRoot := sub.Root(r.root)
	subCfg, err := config.Load(sub.ConfigPath(r.root), subRoot)
	if err != nil {
		r.log.Error("load subproject config", obs.String("subproject", name), obs.Err(err))
		r.executed[name] = true
		r.fatal = true
		return
	}
	subGraph, err := graph.New(subCfg)
	if err != nil {
		r.log.Error("build subproject graph", obs.String("subproject", name), obs.Err(err))
		r.executed[name] = true
		r.fatal = true
		return
	}
	subStore, _ := lock.Load(subRoot)

	subRunner := New(subRoot, subCfg, subGraph, subStore, r.opts, r.log)
	subTree, code := subRunner.Run()
	if code == ExitFatal {
		r.fatal = true
	}

	item := &results.Item{Name: name, Subproject: subTree}
	if subTree.HasFailure() {
		item.Outcome = results.Fail
		r.executed[name] = true
	} else {
		item.Outcome = results.Pass
		r.executed[name] = false
	}
	r.tree.Add(item)
}

func (r *Runner) verboseWriter() io.Writer {
	if r.opts.Output != nil {
		return r.opts.Output
	}
	return os.Stdout
}

// redCommand echoes a failed check's command for human output (spec.md
// §7: "the command string itself is echoed in red"). The actual ANSI
// coloring is applied by internal/results on render; this just tags it.
func redCommand(command string) string {
	return "FAILED: " + command
}

func deltaSummary(meta map[string]metadata.Value, deltas map[string]float64) string {
	if len(deltas) == 0 {
		return ""
	}
	var out string
	for key, d := range deltas {
		sign := "+"
		if d < 0 {
			sign = ""
		}
		out += fmt.Sprintf("%s: %s%g ", key, sign, d)
	}
	return out
}
