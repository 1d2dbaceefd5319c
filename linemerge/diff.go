package linemerge

// Change is a single edit turning o[P1:P1+Del] into dst[P2:P2+Ins],
// mirroring the teacher's diferenco.Change shape (modules/diferenco
// merge.go/merge_new.go use the same four-field hunk encoding).
type Change struct {
	P1, Del, P2, Ins int
}

// diffLines computes the minimal edit script turning o into dst via a
// classic LCS table. This is a compact, self-contained replacement for the
// teacher's full Histogram/Myers/Patience diff stack (modules/diferenco):
// the line-based merger is an out-of-scope external collaborator
// (spec.md §1) specified only by its contract, so SPEC_FULL supplies a
// small correct default rather than porting the whole diff engine.
func diffLines(o, dst []string) []Change {
	n, m := len(o), len(dst)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if o[i] == dst[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var changes []Change
	i, j := 0, 0
	for i < n && j < m {
		if o[i] == dst[j] {
			i++
			j++
			continue
		}
		startI, startJ := i, j
		for i < n && j < m && o[i] != dst[j] {
			if lcs[i+1][j] >= lcs[i][j+1] {
				i++
			} else {
				j++
			}
		}
		changes = append(changes, Change{P1: startI, Del: i - startI, P2: startJ, Ins: j - startJ})
	}
	if i < n {
		changes = append(changes, Change{P1: i, Del: n - i, P2: j, Ins: 0})
	} else if j < m {
		changes = append(changes, Change{P1: i, Del: 0, P2: j, Ins: m - j})
	}
	return mergeAdjacent(changes)
}

// mergeAdjacent coalesces back-to-back changes the backtrack may have
// split (e.g. a delete immediately followed by an insert at the same
// point), matching a single replace hunk.
func mergeAdjacent(changes []Change) []Change {
	if len(changes) < 2 {
		return changes
	}
	out := changes[:1]
	for _, c := range changes[1:] {
		last := &out[len(out)-1]
		if last.P1+last.Del == c.P1 && last.P2+last.Ins == c.P2 {
			last.Del += c.Del
			last.Ins += c.Ins
			continue
		}
		out = append(out, c)
	}
	return out
}
