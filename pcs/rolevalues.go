package pcs

// ExtractRoledValues returns n's fixed-length tuple of scalar attributes,
// keyed on its Kind (§4.D). The table is closed and exhaustive: anything
// not listed contributes an empty tuple.
func ExtractRoledValues(n Node) RoledValues {
	switch n.Kind() {
	case KindLiteral:
		return pairOrEmpty(n, RoleValue)
	case KindNamedElement:
		return pairOrEmpty(n, RoleName)
	case KindOperator:
		return pairOrEmpty(n, RoleOperatorKind)
	case KindModifiable:
		return pairOrEmpty(n, RoleModifier)
	case KindWildcardReference:
		return pairOrEmpty(n, RoleIsUpper)
	case KindImplicitCapable:
		return pairOrEmpty(n, RoleIsImplicit)
	case KindExecutable, KindExecutableReference, KindType:
		var out RoledValues
		for _, r := range []Role{RoleName, RoleModifier, RoleIsImplicit} {
			out = append(out, pairOrEmpty(n, r)...)
		}
		return out
	case KindComment:
		var out RoledValues
		if v, ok := n.Attr(RoleCommentContent); ok {
			out = append(out, RoledValue{Role: RoleCommentContent, Value: v})
		}
		if v, ok := n.Attr(RoleCommentType); ok {
			out = append(out, RoledValue{Role: RoleCommentType, Value: v})
		}
		return out
	default:
		return nil
	}
}

func pairOrEmpty(n Node, role Role) RoledValues {
	if v, ok := n.Attr(role); ok {
		return RoledValues{{Role: role, Value: v}}
	}
	return nil
}
