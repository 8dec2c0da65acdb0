// Package results collects per-check outcomes during a run (spec.md
// §4.9): an append-only list plus a running tally, nested per subproject,
// rendered either as JSON or as a human table in the order items were
// added. Metadata deltas reach only the JSON form, through an item's
// output; the human table does not show them.
package results

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/verify-ci/verify/internal/metadata"
)

// Outcome is one check's terminal state for this invocation.
type Outcome int

const (
	Pass Outcome = iota
	Fail
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "skipped"
	}
}

// Item is one check's result, in the declaration order it completed.
type Item struct {
	Name         string                    `json:"name"`
	Outcome      Outcome                   `json:"-"`
	OutcomeLabel string                    `json:"outcome"`
	Status       string                    `json:"status,omitempty"`
	Metadata     map[string]metadata.Value `json:"metadata,omitempty"`
	Output       string                    `json:"output,omitempty"`
	Subproject   *Tree                     `json:"subproject,omitempty"`
}

// Tree is one project's (root or subproject) full result set: its items
// plus the running tally, matching spec.md §4.9's "nested node carrying
// their own summary".
type Tree struct {
	Name    string `json:"name,omitempty"`
	Items   []*Item `json:"items"`
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	Skipped int     `json:"skipped"`

	prevMetadata map[string]map[string]metadata.Value
}

// NewTree returns an empty result tree for one project root.
func NewTree(name string) *Tree {
	return &Tree{Name: name, prevMetadata: make(map[string]map[string]metadata.Value)}
}

// Add appends one check's outcome and updates the tally.
func (t *Tree) Add(item *Item) {
	item.OutcomeLabel = item.Outcome.String()
	switch item.Outcome {
	case Pass:
		t.Passed++
	case Fail:
		t.Failed++
	case Skipped:
		t.Skipped++
	}
	t.Items = append(t.Items, item)
}

// HasFailure reports whether any item in this tree, or any nested
// subproject tree, failed.
func (t *Tree) HasFailure() bool {
	if t.Failed > 0 {
		return true
	}
	for _, item := range t.Items {
		if item.Subproject != nil && item.Subproject.HasFailure() {
			return true
		}
	}
	return false
}

// Delta computes the numeric change between this check's new metadata
// and the metadata last recorded for name in this tree (spec.md §4.9):
// only keys present in both with numeric values produce a delta, and a
// mixed int/float pair is compared as floats. Metadata stored in the
// lock file is not consulted, so the first call for a name in a tree
// returns no deltas.
func (t *Tree) Delta(name string, current map[string]metadata.Value) map[string]float64 {
	prev, ok := t.prevMetadata[name]
	deltas := make(map[string]float64)
	if ok {
		for key, curVal := range current {
			prevVal, ok := prev[key]
			if !ok {
				continue
			}
			if d, ok := metadata.Delta(prevVal, curVal); ok {
				deltas[key] = d
			}
		}
	}
	t.prevMetadata[name] = current
	return deltas
}

// WriteJSON serializes the tree as JSON.
func (t *Tree) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// WriteHuman renders the tree as a table of name, result, and status,
// with TTY-aware coloring of pass/fail and of a failing item's status.
// An item's output (command output, metadata deltas, changed files) is
// not part of the table.
func (t *Tree) WriteHuman(w io.Writer) error {
	useColor := isatty.IsTerminal(fileDescriptor(w))
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	green.EnableColor()
	red.EnableColor()
	if !useColor {
		green.DisableColor()
		red.DisableColor()
	}

	tbl := newTable(w, "CHECK", "RESULT", "DETAIL")
	t.writeRows(tbl, "", green, red)
	if err := tbl.render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped\n", t.Passed, t.Failed, t.Skipped)
	return nil
}

func (t *Tree) writeRows(tbl *table, prefix string, green, red *color.Color) {
	for _, item := range t.Items {
		label := prefix + item.Name
		result := item.OutcomeLabel
		detail := item.Status
		switch item.Outcome {
		case Pass:
			result = green.Sprint("pass")
		case Fail:
			result = red.Sprint("fail")
			detail = red.Sprint(item.Status)
		case Skipped:
			result = "skipped"
		}
		tbl.addRow(label, result, detail)
		if item.Subproject != nil {
			item.Subproject.writeRows(tbl, label+"/", green, red)
		}
	}
}

// fileDescriptor extracts the underlying fd for isatty detection,
// falling back to "not a terminal" for writers that aren't *os.File.
func fileDescriptor(w io.Writer) uintptr {
	type fdHaver interface{ Fd() uintptr }
	if f, ok := w.(fdHaver); ok {
		return f.Fd()
	}
	return ^uintptr(0)
}
