package linemerge

import (
	"strings"
	"testing"
)

func TestMergeCleanDisjointEdits(t *testing.T) {
	base := "a\nb\nc"
	left := "a\nB\nc"
	right := "a\nb\nC"

	merged, clean := Merge(base, left, right)
	if !clean {
		t.Fatalf("disjoint edits should merge cleanly, got %q", merged)
	}
	if merged != "a\nB\nC" {
		t.Fatalf("merged = %q, want %q", merged, "a\nB\nC")
	}
}

func TestMergeUnchangedSideWins(t *testing.T) {
	base := "a\nb"
	left := base
	right := "a\nB"

	merged, clean := Merge(base, left, right)
	if !clean || merged != "a\nB" {
		t.Fatalf("Merge(base, base, right) = (%q, %v), want (%q, true)", merged, clean, "a\nB")
	}
}

func TestMergeOverlappingEditsProducesMarkers(t *testing.T) {
	base := "a\nc"
	left := "a\nX\nc"
	right := "a\nY\nc"

	merged, clean := Merge(base, left, right)
	if clean {
		t.Fatalf("conflicting inserts before the same anchor must not report clean")
	}
	for _, want := range []string{Sep1, Sep2, Sep3, "X", "Y"} {
		if !strings.Contains(merged, want) {
			t.Fatalf("merged output %q missing expected fragment %q", merged, want)
		}
	}
}

func TestMergeIdenticalEditBothSides(t *testing.T) {
	base := "a\nb"
	left := "a\nb\nc"
	right := "a\nb\nc"

	merged, clean := Merge(base, left, right)
	if !clean {
		t.Fatalf("identical additions on both sides should coalesce cleanly, got %q", merged)
	}
	if merged != "a\nb\nc" {
		t.Fatalf("merged = %q, want %q", merged, "a\nb\nc")
	}
}

func TestDiffLinesNoChange(t *testing.T) {
	lines := []string{"a", "b", "c"}
	changes := diffLines(lines, lines)
	if len(changes) != 0 {
		t.Fatalf("diffLines(x, x) = %+v, want no changes", changes)
	}
}

func TestDiffLinesSingleInsertion(t *testing.T) {
	base := []string{"a", "c"}
	dst := []string{"a", "b", "c"}
	changes := diffLines(base, dst)
	if len(changes) != 1 {
		t.Fatalf("diffLines found %d changes, want 1: %+v", len(changes), changes)
	}
	c := changes[0]
	if c.Del != 0 || c.Ins != 1 {
		t.Fatalf("change = %+v, want a single-line insertion", c)
	}
}
