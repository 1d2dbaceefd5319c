package classrep

import "github.com/manyfold/sporkmerge/pcs"

// Filter reports whether a candidate match between src and dst should be
// discarded (§4.C): "the engine filters incoming matches, discarding..."
type Filter func(reg *pcs.Registry, src, dst pcs.NodeID) bool

// DefaultFilters returns the four filters spec.md names verbatim.
func DefaultFilters() []Filter {
	return []Filter{
		incompatibleClasses,
		primitiveVsReference,
		annotationValueMismatch,
		wrapperNoise,
	}
}

func kindsOf(reg *pcs.Registry, id pcs.NodeID) (pcs.Kind, bool) {
	n, ok := reg.NodeFor(id)
	if !ok {
		return 0, false
	}
	return n.Kind(), true
}

// incompatibleClasses discards mappings across incompatible node classes.
func incompatibleClasses(reg *pcs.Registry, src, dst pcs.NodeID) bool {
	sk, sok := kindsOf(reg, src)
	dk, dok := kindsOf(reg, dst)
	if !sok || !dok {
		return false
	}
	return sk != dk
}

// primitiveVsReference discards mappings between a primitive type
// reference and a non-primitive type reference.
func primitiveVsReference(reg *pcs.Registry, src, dst pcs.NodeID) bool {
	sk, sok := kindsOf(reg, src)
	dk, dok := kindsOf(reg, dst)
	if !sok || !dok {
		return false
	}
	sPrim := sk == pcs.KindPrimitiveTypeRef
	dPrim := dk == pcs.KindPrimitiveTypeRef
	return sPrim != dPrim && (sk == pcs.KindType || dk == pcs.KindType || sPrim || dPrim)
}

// annotationValueMismatch discards mappings where one side occupies an
// annotation-value position and the other does not.
func annotationValueMismatch(reg *pcs.Registry, src, dst pcs.NodeID) bool {
	sn, sok := reg.NodeFor(src)
	dn, dok := reg.NodeFor(dst)
	if !sok || !dok {
		return false
	}
	return (sn.Role() == pcs.RoleValueRole) != (dn.Role() == pcs.RoleValueRole)
}

// wrapperNoise discards mappings that involve wrapper/noise nodes.
func wrapperNoise(reg *pcs.Registry, src, dst pcs.NodeID) bool {
	sk, _ := kindsOf(reg, src)
	dk, _ := kindsOf(reg, dst)
	return sk == pcs.KindWrapperNoise || dk == pcs.KindWrapperNoise
}
