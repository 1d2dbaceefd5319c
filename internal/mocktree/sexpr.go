package mocktree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manyfold/sporkmerge/pcs"
)

// Parse reads a tiny s-expression fixture format and builds one *Node
// tree tagged with rev, standing in for what a real parser's AST-adapter
// layer would hand the engine. The grammar is deliberately small — the
// real parser is an out-of-scope external collaborator (§1) and this only
// needs to exercise every pcs.Node/RoleGrouper capability in tests and the
// demo CLI:
//
//	node   := '(' kind role attr* child* ')'
//	kind    = bareword matching a Kind name without its "Kind" prefix
//	role    = bareword matching a Role constant, or "_" for RoleNone
//	attr    = ':' NAME value
//	value   = string | bool | '{' bareword* '}' (a ModifierSet)
//	child   = node
//
// Example: (Executable _ :NAME "run" (NamedElement PARAMETER :NAME "x"))
func Parse(src string, rev pcs.Revision) (*Node, error) {
	p := &sexprParser{toks: tokenize(src)}
	if p.atEOF() {
		return nil, nil
	}
	n, err := p.parseNode(rev)
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("mocktree.Parse: trailing input after root node")
	}
	return n, nil
}

type sexprParser struct {
	toks []string
	pos  int
}

func (p *sexprParser) atEOF() bool { return p.pos >= len(p.toks) }

func (p *sexprParser) next() (string, error) {
	if p.atEOF() {
		return "", fmt.Errorf("mocktree.Parse: unexpected end of input")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *sexprParser) peek() string {
	if p.atEOF() {
		return ""
	}
	return p.toks[p.pos]
}

var kindByName = map[string]pcs.Kind{
	"Other":                pcs.KindOther,
	"Literal":              pcs.KindLiteral,
	"NamedElement":         pcs.KindNamedElement,
	"Operator":             pcs.KindOperator,
	"Modifiable":           pcs.KindModifiable,
	"WildcardReference":    pcs.KindWildcardReference,
	"ImplicitCapable":      pcs.KindImplicitCapable,
	"Comment":              pcs.KindComment,
	"Executable":           pcs.KindExecutable,
	"ExecutableReference":  pcs.KindExecutableReference,
	"Type":                 pcs.KindType,
	"TypeMember":           pcs.KindTypeMember,
	"PrimitiveTypeRef":     pcs.KindPrimitiveTypeRef,
	"AnnotationValue":      pcs.KindAnnotationValue,
	"WrapperNoise":         pcs.KindWrapperNoise,
	"CompilationUnit":      pcs.KindCompilationUnit,
	"ImportStatement":      pcs.KindImportStatement,
}

var roleByName = map[string]pcs.Role{
	"THEN_BRANCH":     pcs.RoleThenBranch,
	"ELSE_BRANCH":     pcs.RoleElseBranch,
	"CONDITION":       pcs.RoleCondition,
	"PARAMETER":       pcs.RoleParameter,
	"TYPE_PARAMETER":  pcs.RoleTypeParam,
	"ARGUMENT":        pcs.RoleArgument,
	"STATEMENT":       pcs.RoleStatement,
	"BODY":            pcs.RoleBody,
	"VALUE_ROLE":      pcs.RoleValueRole,
	"TYPE_MEMBER":     pcs.RoleTypeMember,
	"IMPORT":          pcs.RoleImport,
	"TOP":             pcs.RoleTop,
}

var attrRoleByName = map[string]pcs.Role{
	"VALUE":           pcs.RoleValue,
	"NAME":            pcs.RoleName,
	"OPERATOR_KIND":   pcs.RoleOperatorKind,
	"MODIFIER":        pcs.RoleModifier,
	"IS_UPPER":        pcs.RoleIsUpper,
	"IS_IMPLICIT":     pcs.RoleIsImplicit,
	"COMMENT_CONTENT": pcs.RoleCommentContent,
	"COMMENT_TYPE":    pcs.RoleCommentType,
}

func (p *sexprParser) parseNode(rev pcs.Revision) (*Node, error) {
	open, err := p.next()
	if err != nil {
		return nil, err
	}
	if open != "(" {
		return nil, fmt.Errorf("mocktree.Parse: expected '(', got %q", open)
	}

	kindTok, err := p.next()
	if err != nil {
		return nil, err
	}
	kind, ok := kindByName[kindTok]
	if !ok {
		return nil, fmt.Errorf("mocktree.Parse: unknown kind %q", kindTok)
	}

	roleTok, err := p.next()
	if err != nil {
		return nil, err
	}
	role := pcs.RoleNone
	if roleTok != "_" {
		role, ok = roleByName[roleTok]
		if !ok {
			return nil, fmt.Errorf("mocktree.Parse: unknown role %q", roleTok)
		}
	}

	n := New(kind, rev)
	n.role = role

	var groups []pcs.Role
	for p.peek() == ":" {
		if _, err := p.next(); err != nil {
			return nil, err
		}
		attrName, err := p.next()
		if err != nil {
			return nil, err
		}
		attrRole, ok := attrRoleByName[attrName]
		if !ok {
			return nil, fmt.Errorf("mocktree.Parse: unknown attribute %q", attrName)
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		n.WithAttr(attrRole, v)
	}

	for p.peek() == "(" {
		child, err := p.parseNode(rev)
		if err != nil {
			return nil, err
		}
		n.Add(child.role, child)
		if child.role != pcs.RoleNone && !contains(groups, child.role) {
			groups = append(groups, child.role)
		}
	}
	if len(groups) > 0 {
		n.WithRoleGroups(groups...)
	}

	close, err := p.next()
	if err != nil {
		return nil, err
	}
	if close != ")" {
		return nil, fmt.Errorf("mocktree.Parse: expected ')', got %q", close)
	}
	return n, nil
}

func (p *sexprParser) parseValue() (pcs.Value, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch {
	case tok == "true":
		return true, nil
	case tok == "false":
		return false, nil
	case tok == "{":
		var mods []string
		for p.peek() != "}" {
			m, err := p.next()
			if err != nil {
				return nil, err
			}
			mods = append(mods, m)
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
		return pcs.NewModifierSet(mods...), nil
	case strings.HasPrefix(tok, `"`):
		unquoted, err := strconv.Unquote(tok)
		if err != nil {
			return nil, fmt.Errorf("mocktree.Parse: bad string literal %q: %w", tok, err)
		}
		return unquoted, nil
	default:
		return tok, nil
	}
}

func contains(roles []pcs.Role, r pcs.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

// tokenize splits src into parens, the ':'/'{'/'}' punctuation, quoted
// strings (kept whole, with escapes respected), and bare words.
func tokenize(src string) []string {
	var toks []string
	i, n := 0, len(src)
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')' || c == ':' || c == '{' || c == '}':
			toks = append(toks, string(c))
			i++
		case c == '"':
			j := i + 1
			for j < n && src[j] != '"' {
				if src[j] == '\\' && j+1 < n {
					j++
				}
				j++
			}
			if j < n {
				j++
			}
			toks = append(toks, src[i:j])
			i = j
		default:
			j := i
			for j < n && !strings.ContainsRune(" \t\n\r():{}", rune(src[j])) {
				j++
			}
			toks = append(toks, src[i:j])
			i = j
		}
	}
	return toks
}
