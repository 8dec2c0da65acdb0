package results

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verify-ci/verify/internal/metadata"
)

func TestTreeTallies(t *testing.T) {
	tree := NewTree("")
	tree.Add(&Item{Name: "unit", Outcome: Pass})
	tree.Add(&Item{Name: "lint", Outcome: Fail})
	tree.Add(&Item{Name: "smoke", Outcome: Skipped})

	if tree.Passed != 1 || tree.Failed != 1 || tree.Skipped != 1 {
		t.Errorf("got passed=%d failed=%d skipped=%d", tree.Passed, tree.Failed, tree.Skipped)
	}
	if !tree.HasFailure() {
		t.Error("expected HasFailure true")
	}
}

func TestTreeHasFailurePropagatesFromSubproject(t *testing.T) {
	sub := NewTree("api")
	sub.Add(&Item{Name: "unit", Outcome: Fail})

	tree := NewTree("")
	tree.Add(&Item{Name: "api", Outcome: Pass, Subproject: sub})

	if !tree.HasFailure() {
		t.Error("expected parent HasFailure true due to nested subproject failure")
	}
}

func TestDeltaOnlyForMatchingKeys(t *testing.T) {
	tree := NewTree("")
	first := map[string]metadata.Value{"coverage": {Kind: metadata.KindInt, Int: 80}}
	tree.Delta("unit", first)

	second := map[string]metadata.Value{"coverage": {Kind: metadata.KindInt, Int: 87}}
	deltas := tree.Delta("unit", second)

	if deltas["coverage"] != 7 {
		t.Errorf("got %+v, want coverage=7", deltas)
	}
}

func TestDeltaEmptyOnFirstRun(t *testing.T) {
	tree := NewTree("")
	current := map[string]metadata.Value{"coverage": {Kind: metadata.KindInt, Int: 80}}
	deltas := tree.Delta("unit", current)
	if len(deltas) != 0 {
		t.Errorf("expected no delta on first observation, got %+v", deltas)
	}
}

func TestWriteJSONIncludesOutcome(t *testing.T) {
	tree := NewTree("")
	tree.Add(&Item{Name: "unit", Outcome: Pass})

	var buf bytes.Buffer
	if err := tree.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"outcome": "pass"`) {
		t.Errorf("expected outcome field in JSON, got %s", buf.String())
	}
}

func TestWriteHumanIncludesSummaryLine(t *testing.T) {
	tree := NewTree("")
	tree.Add(&Item{Name: "unit", Outcome: Pass})
	tree.Add(&Item{Name: "lint", Outcome: Fail})

	var buf bytes.Buffer
	if err := tree.WriteHuman(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "1 passed, 1 failed, 0 skipped") {
		t.Errorf("expected tally line, got %q", buf.String())
	}
}
