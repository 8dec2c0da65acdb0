package results

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableBasicOutput(t *testing.T) {
	var buf bytes.Buffer
	tbl := newTable(&buf, "NAME", "STATUS")
	tbl.addRow("unit", "pass")
	tbl.addRow("lint", "fail")
	if err := tbl.render(); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "STATUS") {
		t.Errorf("missing headers in output:\n%s", out)
	}
	if !strings.Contains(out, "----") {
		t.Errorf("missing separator in output:\n%s", out)
	}
	if !strings.Contains(out, "unit") || !strings.Contains(out, "lint") {
		t.Errorf("missing data rows in output:\n%s", out)
	}
}

func TestTableEmptyProducesNoOutput(t *testing.T) {
	var buf bytes.Buffer
	tbl := newTable(&buf, "A", "B")
	if err := tbl.render(); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty table, got %q", buf.String())
	}
}

func TestTableTruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	tbl := newTable(&buf, "NAME")
	tbl.setMaxWidth(0, 8)
	tbl.addRow("a-very-long-check-name")
	if err := tbl.render(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "a-ver...") {
		t.Errorf("expected truncated cell, got %q", buf.String())
	}
}
