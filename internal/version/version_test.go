package version

import (
	"strings"
	"testing"
)

func TestString_UsesLinkedCommit(t *testing.T) {
	old := Commit
	t.Cleanup(func() { Commit = old })

	Commit = "0123456789abcdef"
	got := String()
	if !strings.Contains(got, "commit: 0123456") {
		t.Errorf("String() = %q, want short commit", got)
	}
	if !strings.HasPrefix(got, "soup dev") {
		t.Errorf("String() = %q, want soup dev prefix", got)
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit(abc) = %q", got)
	}
	if got := shortCommit("abcdefghij"); got != "abcdefg" {
		t.Errorf("shortCommit(abcdefghij) = %q", got)
	}
}
