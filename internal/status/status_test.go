package status

import "testing"

func TestIsVerified(t *testing.T) {
	if !NewVerified().IsVerified() {
		t.Error("Verified should report IsVerified true")
	}
	if NewUntracked().IsVerified() {
		t.Error("Untracked should report IsVerified false")
	}
	if NewNeverRun().IsVerified() {
		t.Error("Unverified should report IsVerified false")
	}
}

func TestStringRendersReason(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{NewVerified(), "verified"},
		{NewUntracked(), "untracked"},
		{NewNeverRun(), "unverified (never run)"},
		{NewConfigChanged(), "unverified (config changed)"},
		{NewFilesChanged([]string{"a.go"}), "unverified (files changed)"},
		{NewDependencyUnverified("lint"), "unverified (dependency: lint)"},
	}
	for _, c := range cases {
		if got := c.status.String(); got != c.want {
			t.Errorf("got %q, want %q", got, c.want)
		}
	}
}
