// Package gitutil wraps the git subprocess calls shared by the runner's
// --stage flag and the trailer protocol (spec.md §4.7, §4.8), following
// the context-timeout-and-CombinedOutput idiom used throughout this
// codebase for shelling out.
package gitutil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds any single git invocation made by this package.
const DefaultTimeout = 30 * time.Second

// run executes `git args...` in dir and returns its trimmed combined output.
func run(dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), DefaultTimeout)
		}
		return "", fmt.Errorf("git %s: %w (output: %s)", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// Stage runs `git add <paths...>` at root, used by `verify run --stage` to
// stage verify.lock after a run with zero failures (SPEC_FULL.md §C.1).
func Stage(root string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add"}, paths...)
	_, err := run(root, args...)
	return err
}

// LastCommitTrailers returns the raw value of `%(trailers:key=<key>,valueonly)`
// for the most recent commit at root, or "" if absent.
func LastCommitTrailers(root, key string) (string, error) {
	format := fmt.Sprintf("%%(trailers:key=%s,valueonly)", key)
	out, err := run(root, "log", "-1", "--format="+format)
	if err != nil {
		return "", err
	}
	return out, nil
}

// CommitTrailersAt returns the raw trailer value for key at a specific
// commit ref, used when scanning history for the newest Verified trailer.
func CommitTrailersAt(root, ref, key string) (string, error) {
	format := fmt.Sprintf("%%(trailers:key=%s,valueonly)", key)
	return run(root, "log", "-1", "--format="+format, ref)
}

// RevList returns up to maxDepth commit SHAs reachable from HEAD, most
// recent first.
func RevList(root string, maxDepth int) ([]string, error) {
	out, err := run(root, "log", fmt.Sprintf("-%d", maxDepth), "--format=%H")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// InterpretTrailers rewrites commitMsgFile in place, replacing any
// existing trailer with the same key (spec.md §4.8).
func InterpretTrailers(commitMsgFile, key, value string) error {
	trailer := fmt.Sprintf("%s: %s", key, value)
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "interpret-trailers",
		"--in-place", "--if-exists", "replace", "--trailer", trailer, commitMsgFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git interpret-trailers: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}
