package linemerge

import (
	"strings"
)

// Marker strings match the teacher's conflict-marker format
// (modules/diferenco/merge.go Sep1/Sep2/Sep3/SepO), which spec.md's
// COMMENT_CONTENT handler (§4.F) requires verbatim for any fallback line
// merge it produces.
const (
	Sep1 = "<<<<<<<"
	Sep2 = "======="
	Sep3 = ">>>>>>>"
	SepO = "|||||||"
)

// Merger is the external line-based text merger collaborator spec.md
// treats as out of scope, specified only by its contract: given the base,
// left and right text of a node's textual content, produce a merged
// result and report whether every region merged cleanly.
type Merger func(base, left, right string) (merged string, clean bool)

// Merge is the package's default Merger, a three-way line diff producing
// diff3-style conflict regions when left and right both touch the same
// base lines. It is a fresh, self-contained implementation of the
// teacher's merge_new.go region-finding approach (changes against base
// from each side, grouped into overlapping regions), not a port of its
// diffInternal/Histogram/Myers/Patience engine.
func Merge(base, left, right string) (string, bool) {
	baseLines := splitLines(base)
	leftLines := splitLines(left)
	rightLines := splitLines(right)

	leftChanges := diffLines(baseLines, leftLines)
	rightChanges := diffLines(baseLines, rightLines)

	regions := groupRegions(leftChanges, rightChanges)

	var out []string
	clean := true
	pos := 0
	for _, r := range regions {
		out = append(out, baseLines[pos:r.baseStart]...)

		switch {
		case r.leftIdx < 0:
			// only right touched this region
			out = append(out, rightLines[r.rightLo:r.rightHi]...)
		case r.rightIdx < 0:
			out = append(out, leftLines[r.leftLo:r.leftHi]...)
		default:
			lText := leftLines[r.leftLo:r.leftHi]
			rText := rightLines[r.rightLo:r.rightHi]
			if linesEqual(lText, rText) {
				out = append(out, lText...)
				break
			}
			clean = false
			out = append(out, Sep1+" LEFT")
			out = append(out, lText...)
			out = append(out, Sep2)
			out = append(out, rText...)
			out = append(out, Sep3+" RIGHT")
		}
		pos = r.baseEnd
	}
	out = append(out, baseLines[pos:]...)

	return strings.Join(out, "\n"), clean
}

type region struct {
	baseStart, baseEnd     int
	leftIdx, leftLo, leftHi int
	rightIdx, rightLo, rightHi int
}

// groupRegions merges left's and right's change lists into base-ordered,
// possibly-overlapping regions so that conflicting edits to the same base
// span are reported together rather than as separate hunks.
func groupRegions(leftChanges, rightChanges []Change) []region {
	var regions []region
	li, ri := 0, 0
	for li < len(leftChanges) || ri < len(rightChanges) {
		switch {
		case li >= len(leftChanges):
			c := rightChanges[ri]
			regions = append(regions, region{
				baseStart: c.P1, baseEnd: c.P1 + c.Del,
				leftIdx: -1,
				rightIdx: ri, rightLo: c.P2, rightHi: c.P2 + c.Ins,
			})
			ri++
		case ri >= len(rightChanges):
			c := leftChanges[li]
			regions = append(regions, region{
				baseStart: c.P1, baseEnd: c.P1 + c.Del,
				leftIdx: li, leftLo: c.P2, leftHi: c.P2 + c.Ins,
				rightIdx: -1,
			})
			li++
		default:
			lc, rc := leftChanges[li], rightChanges[ri]
			lEnd, rEnd := lc.P1+lc.Del, rc.P1+rc.Del
			switch {
			case lc.Del == 0 && rc.Del == 0 && lc.P1 == rc.P1:
				// pure insertions anchored at the same base line: one region,
				// or an identical insertion on both sides would be duplicated.
				regions = append(regions, region{
					baseStart: lc.P1, baseEnd: lEnd,
					leftIdx: li, leftLo: lc.P2, leftHi: lc.P2 + lc.Ins,
					rightIdx: ri, rightLo: rc.P2, rightHi: rc.P2 + rc.Ins,
				})
				li++
				ri++
			case lEnd <= rc.P1:
				regions = append(regions, region{
					baseStart: lc.P1, baseEnd: lEnd,
					leftIdx: li, leftLo: lc.P2, leftHi: lc.P2 + lc.Ins,
					rightIdx: -1,
				})
				li++
			case rEnd <= lc.P1:
				regions = append(regions, region{
					baseStart: rc.P1, baseEnd: rEnd,
					leftIdx: -1,
					rightIdx: ri, rightLo: rc.P2, rightHi: rc.P2 + rc.Ins,
				})
				ri++
			default:
				// overlapping edits: merge into a single conflict region
				start := minInt(lc.P1, rc.P1)
				end := maxInt(lEnd, rEnd)
				regions = append(regions, region{
					baseStart: start, baseEnd: end,
					leftIdx: li, leftLo: lc.P2, leftHi: lc.P2 + lc.Ins,
					rightIdx: ri, rightLo: rc.P2, rightHi: rc.P2 + rc.Ins,
				})
				li++
				ri++
			}
		}
	}
	return regions
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
