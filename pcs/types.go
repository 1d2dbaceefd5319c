// Package pcs implements the node model (§4.A) and the Parent-Child-Successor
// encoding of an AST (§4.B): the leaf layer every other package builds on.
package pcs

import "fmt"

// Revision tags every node and every PCS triple with the input tree it
// came from.
type Revision uint8

const (
	BASE Revision = iota
	LEFT
	RIGHT
)

func (r Revision) String() string {
	switch r {
	case BASE:
		return "BASE"
	case LEFT:
		return "LEFT"
	case RIGHT:
		return "RIGHT"
	default:
		return fmt.Sprintf("Revision(%d)", uint8(r))
	}
}

// Kind is the closed set of node kinds the merge engine dispatches on. Host
// languages map their own node types onto this set when implementing Node.
type Kind uint8

const (
	KindOther Kind = iota
	KindLiteral
	KindNamedElement
	KindOperator
	KindModifiable
	KindWildcardReference
	KindImplicitCapable
	KindComment
	KindExecutable         // methods, constructors: exploded
	KindExecutableReference // method/constructor references: exploded
	KindType               // type declarations and type references: exploded
	KindTypeMember         // field / method / nested-type under a type
	KindPrimitiveTypeRef
	KindAnnotationValue
	KindWrapperNoise
	KindCompilationUnit
	KindImportStatement
)

// Role is the closed enum of structural/scalar slots a node can occupy.
type Role string

// Structural roles (child-role positions under a parent).
const (
	RoleThenBranch   Role = "THEN_BRANCH"
	RoleElseBranch   Role = "ELSE_BRANCH"
	RoleCondition    Role = "CONDITION"
	RoleParameter    Role = "PARAMETER"
	RoleTypeParam    Role = "TYPE_PARAMETER"
	RoleArgument     Role = "ARGUMENT"
	RoleStatement    Role = "STATEMENT"
	RoleBody         Role = "BODY"
	RoleValueRole    Role = "VALUE_ROLE" // structural "value" slot, e.g. an annotation value
	RoleTypeMember   Role = "TYPE_MEMBER"
	RoleImport       Role = "IMPORT"
	RoleTop          Role = "TOP" // top-level node directly under the virtual root
	RoleNone         Role = ""
)

// Scalar attribute roles (§4.D extractRoledValues table).
const (
	RoleValue          Role = "VALUE"
	RoleName           Role = "NAME"
	RoleOperatorKind   Role = "OPERATOR_KIND"
	RoleModifier       Role = "MODIFIER"
	RoleIsUpper        Role = "IS_UPPER"
	RoleIsImplicit     Role = "IS_IMPLICIT"
	RoleCommentContent Role = "COMMENT_CONTENT"
	RoleCommentType    Role = "COMMENT_TYPE"
)

// ignoredExplodedRoles lists the roles that exploded nodes do not turn into
// role-group virtual children: MODIFIER, NAME, IS_IMPLICIT and TYPE_MEMBER.
// RoleBody is not in the set, so a body child of an exploded node gets its
// own role node. Position, declaring type and the boolean flags other than
// IS_IMPLICIT have no Role in this enum.
var ignoredExplodedRoles = map[Role]bool{
	RoleModifier:       true,
	RoleName:           true,
	RoleIsImplicit:     true,
	RoleTypeMember:     true, // nested-type/field/method fold into this
}

// IsIgnoredExplodedRole reports whether role is excluded from role-group
// virtualization for exploded node kinds (§4.A).
func IsIgnoredExplodedRole(role Role) bool {
	return ignoredExplodedRoles[role]
}

// IsExploded reports whether a node kind gets role-group virtual children
// (§4.A: executable, executable reference, type).
func IsExploded(k Kind) bool {
	switch k {
	case KindExecutable, KindExecutableReference, KindType:
		return true
	default:
		return false
	}
}

// Position is an optional source location, used only for diagnostics.
type Position struct {
	Line, Column int
}

// Value is a scalar attribute value: a literal, a name, an operator kind, a
// modifier set, a boolean flag, or comment text, depending on role.
type Value any

// RoledValue is one (role, value) pair contributed by a node (§3).
type RoledValue struct {
	Role  Role
	Value Value
}

// RoledValues is the ordered, fixed-length-per-kind tuple of scalar
// attributes a node contributes (§3, §4.D).
type RoledValues []RoledValue

// Equal reports whether two RoledValues tuples carry the same role list and
// values. Used to detect "no real disagreement" during content merge.
func (rv RoledValues) Equal(other RoledValues) bool {
	if len(rv) != len(other) {
		return false
	}
	for i := range rv {
		if rv[i].Role != other[i].Role {
			return false
		}
		if !valuesEqual(rv[i].Value, other[i].Value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case ModifierSet:
		bv, ok := b.(ModifierSet)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}

// ModifierSet is the MODIFIER role's value: an unordered set of modifier
// keywords (e.g. "public", "final", "static").
type ModifierSet map[string]bool

func NewModifierSet(mods ...string) ModifierSet {
	s := make(ModifierSet, len(mods))
	for _, m := range mods {
		s[m] = true
	}
	return s
}

func (s ModifierSet) Equal(other ModifierSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other[k] {
			return false
		}
	}
	return true
}

func (s ModifierSet) Has(m string) bool { return s[m] }

func (s ModifierSet) Union(other ModifierSet) ModifierSet {
	out := make(ModifierSet, len(s)+len(other))
	for k := range s {
		out[k] = true
	}
	for k := range other {
		out[k] = true
	}
	return out
}

func (s ModifierSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
