package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	if Version == "" {
		t.Fatal("Version should not be empty")
	}
	got := String()
	if !strings.HasPrefix(got, Version+" ") {
		t.Errorf("String() = %q, want prefix %q", got, Version)
	}
	if !strings.Contains(got, GitCommit) || !strings.Contains(got, BuildTime) {
		t.Errorf("String() = %q should include commit and build time", got)
	}
}
