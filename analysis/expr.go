// Copyright © 2024 The ELPS authors

package analysis

import (
	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/astutil"
)

func (c *Checker) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Name:
		c.handleLoad(n.ID, n)
	case *ast.Attribute:
		c.handleNode(n.Value, n)
	case *ast.Subscript:
		c.subscript(n)
	case *ast.Slice:
		c.handleNode(n.Lower, n)
		c.handleNode(n.Upper, n)
		c.handleNode(n.Step, n)
	case *ast.Call:
		c.call(n)
	case *ast.Starred:
		c.handleNode(n.Value, n)
	case *ast.List:
		c.handleExprs(n.Elts, n)
	case *ast.Tuple:
		c.handleExprs(n.Elts, n)
	case *ast.Set:
		c.handleExprs(n.Elts, n)
	case *ast.Dict:
		c.dict(n)
	case *ast.Comp:
		c.comprehension(n)
	case *ast.Lambda:
		c.function(n, n.Params, nil)
	case *ast.IfExp:
		c.handleNode(n.Test, n)
		c.handleNode(n.Body, n)
		c.handleNode(n.Else, n)
	case *ast.NamedExpr:
		c.handleNode(n.Value, n)
		if n.Target != nil {
			c.handleTarget(n.Target, n, target{kind: BindAssignment, walrus: true})
		}
	case *ast.BinOp:
		c.handleNode(n.Left, n)
		c.handleNode(n.Right, n)
	case *ast.BoolOp:
		c.handleExprs(n.Values, n)
	case *ast.UnaryOp:
		c.handleNode(n.Operand, n)
	case *ast.Compare:
		c.handleNode(n.Left, n)
		c.handleExprs(n.Comparators, n)
	case *ast.Await:
		c.yield(n, n.Value)
	case *ast.Yield:
		c.yield(n, n.Value)
	case *ast.Str:
		if c.annotation && !n.Bytes {
			c.Enqueue(DeferFunction, HandlerStringAnnotation, n, stringAnnotation)
		}
	case *ast.JoinedStr:
		c.handleExprs(n.Values, n)
	case *ast.Num, *ast.Constant:
	case *ast.BadExpr:
		c.badExpr(n)
	}
}

func (c *Checker) yield(n, value ast.Expr) {
	if k := c.scope().Kind; k == ScopeClass || k.BehavesAsModule() {
		c.report(YieldOutsideFunction, n, "")
		return
	}
	c.handleNode(value, n)
}

func (c *Checker) call(n *ast.Call) {
	c.handleNode(n.Func, n)
	args := n.Args
	if len(args) > 0 && c.isTyping(n.Func, "cast") {
		c.inAnnotation(func() { c.handleNode(args[0], n) })
		args = args[1:]
	}
	c.handleExprs(args, n)
	for _, kw := range n.Keywords {
		c.handleNode(kw, n)
	}
	if name, ok := n.Func.(*ast.Name); ok && name.ID == "locals" {
		if s := c.scope(); s.Kind.IsFunction() {
			s.UsesLocals = true
		}
	}
}

func (c *Checker) subscript(n *ast.Subscript) {
	c.handleNode(n.Value, n)
	switch {
	case isNameOrAttr(n.Value, "Literal"):
		c.outsideAnnotation(func() { c.handleExprs(n.Index, n) })
	case isNameOrAttr(n.Value, "Annotated") && len(n.Index) > 0:
		c.handleNode(n.Index[0], n)
		c.outsideAnnotation(func() { c.handleExprs(n.Index[1:], n) })
	default:
		c.handleExprs(n.Index, n)
	}
}

func isNameOrAttr(e ast.Expr, name string) bool {
	switch x := e.(type) {
	case *ast.Name:
		return x.ID == name
	case *ast.Attribute:
		return x.Attr == name
	}
	return false
}

func (c *Checker) comprehension(n *ast.Comp) {
	c.pushScope(ScopeGenerator, n)
	for _, g := range n.Generators {
		c.handleNode(g.Iter, n)
		c.handleTarget(g.Target, n, target{kind: BindTarget})
		c.handleExprs(g.Ifs, n)
	}
	c.handleNode(n.Elt, n)
	c.handleNode(n.Value, n)
	c.popScope()
}

func (c *Checker) inAnnotation(fn func()) {
	saved := c.annotation
	c.annotation = true
	fn()
	c.annotation = saved
}

func (c *Checker) outsideAnnotation(fn func()) {
	saved := c.annotation
	c.annotation = false
	fn()
	c.annotation = saved
}

// handleAnnotation visits a type annotation. String annotations and, with
// "from __future__ import annotations", every annotation are evaluated once
// the module is complete.
func (c *Checker) handleAnnotation(ann ast.Expr, parent ast.Node) {
	if isNil(ann) {
		return
	}
	if s, ok := ann.(*ast.Str); ok && !s.Bytes {
		c.enter(s, parent)
		c.Enqueue(DeferFunction, HandlerStringAnnotation, s, stringAnnotation)
		return
	}
	if c.futureAnnotations {
		c.Enqueue(DeferFunction, HandlerPostponedAnnotation, ann, func(c *Checker, node ast.Node) {
			c.annotation, c.postponed = true, true
			c.handleNode(node, parent)
		})
		return
	}
	c.inAnnotation(func() { c.handleNode(ann, parent) })
}

func stringAnnotation(c *Checker, node ast.Node) {
	s := node.(*ast.Str)
	e, ok := c.parseAnnotation(s)
	if !ok {
		c.report(ForwardAnnotationSyntaxError, s, s.Value)
		return
	}
	c.annotation, c.postponed = true, true
	c.handleNode(e, s)
}

// parseAnnotation parses the text of a string annotation as a single
// expression pinned to the position of the string.
func (c *Checker) parseAnnotation(s *ast.Str) (ast.Expr, bool) {
	mod, err := c.cfg.parser()(c.ctx, []byte(s.Value), c.filename())
	if err != nil {
		c.log.WithError(err).Debug("string annotation does not parse")
		return nil, false
	}
	if len(mod.Body) != 1 {
		return nil, false
	}
	es, ok := mod.Body[0].(*ast.ExprStmt)
	if !ok {
		return nil, false
	}
	at := s.Position()
	astutil.Walk(es.Value, func(n ast.Node, _ ast.Node, _ int) {
		if p, ok := n.(interface{ SetPosition(ast.Pos) }); ok {
			p.SetPosition(at)
		}
	})
	return es.Value, true
}
