package contentmerge

import (
	"testing"

	"github.com/manyfold/sporkmerge/pcs"
)

func TestHandleIsImplicitNegatesBase(t *testing.T) {
	got, status := handleIsImplicit(HandlerContext{HasBase: true, Base: true})
	if status != Resolved || got != false {
		t.Fatalf("handleIsImplicit(base=true) = (%v, %v), want (false, Resolved)", got, status)
	}
	got, status = handleIsImplicit(HandlerContext{HasBase: true, Base: false})
	if status != Resolved || got != true {
		t.Fatalf("handleIsImplicit(base=false) = (%v, %v), want (true, Resolved)", got, status)
	}
}

func TestHandleIsImplicitNoBaseDefaultsFalse(t *testing.T) {
	got, status := handleIsImplicit(HandlerContext{HasBase: false})
	if status != Resolved || got != false {
		t.Fatalf("handleIsImplicit(no base) = (%v, %v), want (false, Resolved)", got, status)
	}
}

func TestHandleModifierUnionsNonVisibility(t *testing.T) {
	base := pcs.NewModifierSet("public")
	left := pcs.NewModifierSet("public", "final")
	right := pcs.NewModifierSet("public", "static")

	merged, status := handleModifier(HandlerContext{HasBase: true, Base: base, Left: left, Right: right})
	ms := merged.(pcs.ModifierSet)
	if status != Resolved {
		t.Fatalf("expected a clean modifier merge, got status %v", status)
	}
	for _, want := range []string{"public", "final", "static"} {
		if !ms.Has(want) {
			t.Fatalf("merged set %v missing %q", ms, want)
		}
	}
}

func TestHandleModifierVisibilityConflictPrefersLeftByDefault(t *testing.T) {
	base := pcs.NewModifierSet()
	left := pcs.NewModifierSet("public")
	right := pcs.NewModifierSet("private")

	merged, status := handleModifier(HandlerContext{HasBase: true, Base: base, Left: left, Right: right})
	ms := merged.(pcs.ModifierSet)
	if status != PartialConflict {
		t.Fatalf("a genuine visibility conflict must be reported, got %v", status)
	}
	if !ms.Has("public") || ms.Has("private") {
		t.Fatalf("default tie-break should keep left's visibility, got %v", ms)
	}
}

func TestHandleModifierVisibilityConflictHonorsPreferredVisibility(t *testing.T) {
	base := pcs.NewModifierSet()
	left := pcs.NewModifierSet("public")
	right := pcs.NewModifierSet("private")

	merged, status := handleModifier(HandlerContext{
		HasBase: true, Base: base, Left: left, Right: right,
		Options: Options{PreferredVisibility: "private"},
	})
	ms := merged.(pcs.ModifierSet)
	if status != PartialConflict {
		t.Fatalf("expected PartialConflict, got %v", status)
	}
	if !ms.Has("private") {
		t.Fatalf("PreferredVisibility=private should win the tie-break, got %v", ms)
	}
}

func TestHandleModifierDropsDeletionNotResurrectedByOtherSide(t *testing.T) {
	base := pcs.NewModifierSet("public", "final")
	left := pcs.NewModifierSet("public") // left deleted "final"
	right := pcs.NewModifierSet("public", "final")

	merged, status := handleModifier(HandlerContext{HasBase: true, Base: base, Left: left, Right: right})
	ms := merged.(pcs.ModifierSet)
	if status != Resolved {
		t.Fatalf("expected Resolved, got %v", status)
	}
	if ms.Has("final") {
		t.Fatalf("a deletion made by one side and untouched by the other must not be resurrected, got %v", ms)
	}
}

func TestHandleIsUpperExplicitSideWinsOverImplicit(t *testing.T) {
	leftTuple := pcs.RoledValues{{Role: pcs.RoleIsImplicit, Value: true}}
	rightTuple := pcs.RoledValues{{Role: pcs.RoleIsImplicit, Value: false}}

	got, status := handleIsUpper(HandlerContext{
		Left: "true", Right: "false",
		LeftTuple: leftTuple, RightTuple: rightTuple,
	})
	if status != Resolved || got != "false" {
		t.Fatalf("handleIsUpper = (%v, %v), want the explicit (right) side to win", got, status)
	}
}

func TestHandleIsUpperBothExplicitIsUnresolved(t *testing.T) {
	leftTuple := pcs.RoledValues{{Role: pcs.RoleIsImplicit, Value: false}}
	rightTuple := pcs.RoledValues{{Role: pcs.RoleIsImplicit, Value: false}}

	_, status := handleIsUpper(HandlerContext{LeftTuple: leftTuple, RightTuple: rightTuple})
	if status != Unresolved {
		t.Fatalf("both sides explicit with conflicting IS_UPPER should be Unresolved, got %v", status)
	}
}

func TestHandleCommentContentLineMerge(t *testing.T) {
	got, status := handleCommentContent(HandlerContext{
		Base: "note\nold", Left: "note\nnew", Right: "note\nold",
		Options: DefaultOptions(),
	})
	if status != Resolved {
		t.Fatalf("one side unchanged from base should merge cleanly, got %v", status)
	}
	if got != "note\nnew" {
		t.Fatalf("got %q, want %q", got, "note\nnew")
	}
}

func TestHandleCommentContentSkipStyleReportsUnresolved(t *testing.T) {
	_, status := handleCommentContent(HandlerContext{
		Base: "note", Left: "note left", Right: "note right",
		Options: Options{CommentMergeStyle: "skip"},
	})
	if status != Unresolved {
		t.Fatalf("CommentMergeStyle=skip must bypass linemerge and report Unresolved, got %v", status)
	}
}
