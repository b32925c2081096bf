// Copyright © 2024 The ELPS authors

package analysis

import "github.com/luthersystems/flakes/ast"

// Node kinds of match statements as the parser leaves them.
const (
	kindMatch     = "match_statement"
	kindCase      = "case_clause"
	kindGuard     = "if_clause"
	kindDotted    = "dotted_name"
	kindClass     = "class_pattern"
	kindKeyword   = "keyword_pattern"
	kindTypeAlias = "type_alias_statement"
	kindBlock     = "block"
)

// patternKinds are the pattern nodes whose names are captures.
var patternKinds = map[string]bool{
	"case_pattern":    true,
	"splat_pattern":   true,
	"dict_pattern":    true,
	"union_pattern":   true,
	"as_pattern":      true,
	"complex_pattern": true,
	kindDotted:        true,
	kindClass:         true,
	kindKeyword:       true,
}

func (c *Checker) badStmt(n *ast.BadStmt) {
	switch n.Kind {
	case kindMatch, kindBlock:
		c.handleChildren(n.Children, n)
	case kindCase:
		for _, ch := range n.Children {
			switch x := ch.(type) {
			case ast.Stmt:
				c.handleNode(x, n)
			case *ast.BadExpr:
				if x.Kind == kindGuard {
					c.enter(x, n)
					c.handleChildren(x.Children, x)
					continue
				}
				c.handlePattern(x, n)
			case ast.Expr:
				c.handlePattern(x, n)
			}
		}
	case kindTypeAlias:
		for i, ch := range n.Children {
			if e, ok := ch.(ast.Expr); ok && i == 0 {
				c.handleTarget(e, n, target{kind: BindAssignment})
				continue
			}
			c.handleNode(ch, n)
		}
	default:
		c.reportUnsupported(n.Kind, n)
		c.handleChildren(n.Children, n)
	}
}

func (c *Checker) badExpr(n *ast.BadExpr) {
	switch {
	case n.Kind == kindDotted:
		c.loadFirstName(n)
	case n.Kind == kindGuard:
		c.handleChildren(n.Children, n)
	case patternKinds[n.Kind]:
		// A pattern outside a case clause; its names are read, not bound.
		c.handleChildren(n.Children, n)
	default:
		c.reportUnsupported(n.Kind, n)
		c.handleChildren(n.Children, n)
	}
}

func (c *Checker) handleChildren(children []ast.Node, parent ast.Node) {
	for _, ch := range children {
		c.handleNode(ch, parent)
	}
}

// loadFirstName reads the leading name of a dotted name such as the
// value pattern Color.RED.
func (c *Checker) loadFirstName(n *ast.BadExpr) {
	for _, ch := range n.Children {
		if name, ok := ch.(*ast.Name); ok {
			c.handleNode(name, n)
			return
		}
	}
}

// handlePattern visits a match pattern. Bare names bind the matched
// subject, except the wildcard _; everything else is read.
func (c *Checker) handlePattern(e ast.Expr, parent ast.Node) {
	if isNil(e) {
		return
	}
	capture := target{kind: BindTarget}
	switch x := e.(type) {
	case *ast.Name:
		if x.ID == "_" {
			c.enter(x, parent)
			return
		}
		c.handleTarget(x, parent, capture)
	case *ast.Starred:
		c.enter(x, parent)
		c.handlePattern(x.Value, x)
	case *ast.List:
		c.enter(x, parent)
		for _, elt := range x.Elts {
			c.handlePattern(elt, x)
		}
	case *ast.Tuple:
		c.enter(x, parent)
		for _, elt := range x.Elts {
			c.handlePattern(elt, x)
		}
	case *ast.BadExpr:
		c.enter(x, parent)
		switch x.Kind {
		case kindDotted:
			var names []*ast.Name
			for _, ch := range x.Children {
				if name, ok := ch.(*ast.Name); ok {
					names = append(names, name)
				}
			}
			if len(names) == 1 {
				c.handlePattern(names[0], x)
				return
			}
			c.loadFirstName(x)
		case kindClass:
			for i, ch := range x.Children {
				if d, ok := ch.(*ast.BadExpr); ok && i == 0 && d.Kind == kindDotted {
					c.enter(d, x)
					c.loadFirstName(d)
					continue
				}
				c.patternChild(ch, x)
			}
		case kindKeyword:
			for i, ch := range x.Children {
				if _, ok := ch.(*ast.Name); ok && i == 0 {
					continue
				}
				c.patternChild(ch, x)
			}
		default:
			if !patternKinds[x.Kind] {
				c.reportUnsupported(x.Kind, x)
			}
			for _, ch := range x.Children {
				c.patternChild(ch, x)
			}
		}
	default:
		// Literal and value patterns.
		c.handleNode(e, parent)
	}
}

func (c *Checker) patternChild(n ast.Node, parent ast.Node) {
	if e, ok := n.(ast.Expr); ok {
		c.handlePattern(e, parent)
		return
	}
	c.handleNode(n, parent)
}
