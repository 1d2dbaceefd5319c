// Package outputtree builds the final merged AST from the intermediate
// tree (§4.H): single-revision subtrees are cloned verbatim, everything
// else is shallow-cloned and re-attached with its merged attributes,
// resolved role, and structural/content conflict sentinels.
package outputtree

import "github.com/manyfold/sporkmerge/pcs"

// ConflictRecord is one conflict surfaced in the final Result. A record is
// produced for each unresolved ContentConflict (and, by the merge package,
// for a compilation-unit comment that did not merge cleanly); structural
// conflict sentinels are counted in Result.ConflictCount without a record.
type ConflictRecord struct {
	Kind   string // "content" for every record produced
	NodeID pcs.NodeID
	Role   pcs.Role
	Detail string
}

// Result is the engine's public merge outcome.
type Result struct {
	Tree          pcs.Node
	ConflictCount int
	Conflicts     []ConflictRecord
}

// Factory mints a fresh, empty node of kind, used to materialize
// StructuralConflict text sentinels that have no corresponding original
// node to clone, and by the merge package's post-merge passes for import
// nodes, the compilation-unit comment node and the duplicate-member dummy
// base.
type Factory func(kind pcs.Kind) pcs.MutableNode
