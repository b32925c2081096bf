// Copyright © 2024 The ELPS authors

// Package astutil provides shared syntax tree walking utilities.
//
// These helpers are used by both the lint and analysis packages for
// traversing parsed Python modules.
package astutil

import "github.com/luthersystems/flakes/ast"

// Walk calls fn for every node in the tree, depth-first.
// parent is nil for the root.
func Walk(root ast.Node, fn func(node ast.Node, parent ast.Node, depth int)) {
	walkNode(root, nil, 0, fn)
}

func walkNode(node ast.Node, parent ast.Node, depth int, fn func(ast.Node, ast.Node, int)) {
	if isNil(node) {
		return
	}
	fn(node, parent, depth)
	for _, child := range Children(node) {
		walkNode(child, node, depth+1, fn)
	}
}

// WalkCalls calls fn for every call expression in the tree.
func WalkCalls(root ast.Node, fn func(call *ast.Call, depth int)) {
	Walk(root, func(node ast.Node, _ ast.Node, depth int) {
		if call, ok := node.(*ast.Call); ok {
			fn(call, depth)
		}
	})
}

// CalleeName returns the name of a call's function when it is a plain
// name, or "".
func CalleeName(call *ast.Call) string {
	if call == nil {
		return ""
	}
	if name, ok := call.Func.(*ast.Name); ok {
		return name.ID
	}
	return ""
}

// ArgCount returns the number of positional and keyword arguments of a call.
func ArgCount(call *ast.Call) int {
	return len(call.Args) + len(call.Keywords)
}

// Children returns the direct sub-nodes of a node in source order.
// Nil children are omitted.
func Children(node ast.Node) []ast.Node {
	var out []ast.Node
	add := func(ns ...ast.Node) {
		for _, n := range ns {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}
	addExprs := func(es []ast.Expr) {
		for _, e := range es {
			add(e)
		}
	}
	addStmts := func(ss []ast.Stmt) {
		for _, s := range ss {
			add(s)
		}
	}
	addParams := func(p *ast.Params) {
		if p == nil {
			return
		}
		for _, a := range p.List {
			add(a.Annotation, a.Default)
		}
	}
	switch n := node.(type) {
	case *ast.Module:
		addStmts(n.Body)
	case *ast.FunctionDef:
		addExprs(n.Decorators)
		addParams(n.Params)
		add(n.Returns)
		addStmts(n.Body)
	case *ast.ClassDef:
		addExprs(n.Decorators)
		addExprs(n.Bases)
		for _, kw := range n.Keywords {
			add(kw.Value)
		}
		addStmts(n.Body)
	case *ast.Return:
		add(n.Value)
	case *ast.Delete:
		addExprs(n.Targets)
	case *ast.Assign:
		addExprs(n.Targets)
		add(n.Value)
	case *ast.AnnAssign:
		add(n.Target, n.Annotation, n.Value)
	case *ast.AugAssign:
		add(n.Target, n.Value)
	case *ast.For:
		add(n.Target, n.Iter)
		addStmts(n.Body)
		addStmts(n.Else)
	case *ast.While:
		add(n.Test)
		addStmts(n.Body)
		addStmts(n.Else)
	case *ast.If:
		add(n.Test)
		addStmts(n.Body)
		addStmts(n.Else)
	case *ast.With:
		for _, item := range n.Items {
			add(item.Context, item.Vars)
		}
		addStmts(n.Body)
	case *ast.Raise:
		add(n.Exc, n.Cause)
	case *ast.Try:
		addStmts(n.Body)
		for _, h := range n.Handlers {
			add(h)
		}
		addStmts(n.Else)
		addStmts(n.Finally)
	case *ast.ExceptHandler:
		add(n.Type)
		addStmts(n.Body)
	case *ast.Assert:
		add(n.Test, n.Msg)
	case *ast.ExprStmt:
		add(n.Value)
	case *ast.BadStmt:
		add(n.Children...)
	case *ast.Attribute:
		add(n.Value)
	case *ast.Subscript:
		add(n.Value)
		addExprs(n.Index)
	case *ast.Slice:
		add(n.Lower, n.Upper, n.Step)
	case *ast.Call:
		add(n.Func)
		addExprs(n.Args)
		for _, kw := range n.Keywords {
			add(kw.Value)
		}
	case *ast.Starred:
		add(n.Value)
	case *ast.List:
		addExprs(n.Elts)
	case *ast.Tuple:
		addExprs(n.Elts)
	case *ast.Set:
		addExprs(n.Elts)
	case *ast.Dict:
		for i := range n.Keys {
			add(n.Keys[i], n.Values[i])
		}
	case *ast.Comp:
		for _, g := range n.Generators {
			add(g.Target, g.Iter)
			addExprs(g.Ifs)
		}
		add(n.Elt, n.Value)
	case *ast.Lambda:
		addParams(n.Params)
		add(n.Body)
	case *ast.IfExp:
		add(n.Test, n.Body, n.Else)
	case *ast.NamedExpr:
		add(n.Target, n.Value)
	case *ast.BinOp:
		add(n.Left, n.Right)
	case *ast.BoolOp:
		addExprs(n.Values)
	case *ast.UnaryOp:
		add(n.Operand)
	case *ast.Compare:
		add(n.Left)
		addExprs(n.Comparators)
	case *ast.Await:
		add(n.Value)
	case *ast.Yield:
		add(n.Value)
	case *ast.JoinedStr:
		addExprs(n.Values)
	case *ast.BadExpr:
		add(n.Children...)
	}
	return out
}

// ExportedNames returns the string elements of a module-level __all__
// assignment (plain or augmented). The second result is false when the
// module does not define __all__ as a list or tuple of strings.
func ExportedNames(mod *ast.Module) ([]string, bool) {
	var names []string
	found := false
	collect := func(value ast.Expr) {
		var elts []ast.Expr
		switch v := value.(type) {
		case *ast.List:
			elts = v.Elts
		case *ast.Tuple:
			elts = v.Elts
		default:
			return
		}
		found = true
		for _, e := range elts {
			if s, ok := e.(*ast.Str); ok && !s.Bytes {
				names = append(names, s.Value)
			}
		}
	}
	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *ast.Assign:
			for _, t := range s.Targets {
				if isAllName(t) {
					collect(s.Value)
				}
			}
		case *ast.AnnAssign:
			if isAllName(s.Target) && s.Value != nil {
				collect(s.Value)
			}
		case *ast.AugAssign:
			if isAllName(s.Target) {
				collect(s.Value)
			}
		}
	}
	return names, found
}

func isAllName(e ast.Expr) bool {
	name, ok := e.(*ast.Name)
	return ok && name.ID == "__all__"
}

// isNil reports whether n is nil, including a nil *ast.Name stored in the
// interface.
func isNil(n ast.Node) bool {
	if n == nil {
		return true
	}
	name, ok := n.(*ast.Name)
	return ok && name == nil
}
