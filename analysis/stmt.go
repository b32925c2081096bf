// Copyright © 2024 The ELPS authors

package analysis

import (
	"strings"

	"github.com/luthersystems/flakes/ast"
)

// futureFeatures are the names importable from __future__.
var futureFeatures = map[string]bool{
	"nested_scopes":    true,
	"generators":       true,
	"division":         true,
	"absolute_import":  true,
	"with_statement":   true,
	"print_function":   true,
	"unicode_literals": true,
	"barry_as_FLUFL":   true,
	"generator_stop":   true,
	"annotations":      true,
}

func (c *Checker) dispatch(node ast.Node) {
	switch n := node.(type) {
	case *ast.FunctionDef:
		c.functionDef(n)
	case *ast.ClassDef:
		c.classDef(n)
	case *ast.Return:
		if k := c.scope().Kind; k == ScopeClass || k.BehavesAsModule() {
			c.report(ReturnOutsideFunction, n, "")
			return
		}
		c.handleNode(n.Value, n)
	case *ast.Delete:
		for _, t := range n.Targets {
			c.handleDelTarget(t, n)
		}
	case *ast.Assign:
		c.handleNode(n.Value, n)
		t := target{kind: BindAssignment, unpack: isLiteralUnpacking(n)}
		for _, tg := range n.Targets {
			c.handleTarget(tg, n, t)
		}
	case *ast.AnnAssign:
		c.annAssign(n)
	case *ast.AugAssign:
		if name, ok := n.Target.(*ast.Name); ok {
			c.handleLoad(name.ID, name)
		}
		c.handleNode(n.Value, n)
		c.handleTarget(n.Target, n, target{kind: BindAssignment})
	case *ast.For:
		c.handleNode(n.Iter, n)
		c.handleTarget(n.Target, n, target{kind: BindTarget, loop: true})
		c.handleStmts(n.Body, n)
		c.handleStmts(n.Else, n)
	case *ast.While:
		c.handleNode(n.Test, n)
		c.handleStmts(n.Body, n)
		c.handleStmts(n.Else, n)
	case *ast.If:
		c.handleNode(n.Test, n)
		c.handleStmts(n.Body, n)
		c.handleStmts(n.Else, n)
	case *ast.With:
		for _, item := range n.Items {
			c.handleNode(item.Context, n)
			c.handleTarget(item.Vars, n, target{kind: BindAssignment})
		}
		c.handleStmts(n.Body, n)
	case *ast.Raise:
		c.handleNode(n.Exc, n)
		c.handleNode(n.Cause, n)
	case *ast.Try:
		c.try(n)
	case *ast.ExceptHandler:
		c.exceptHandler(n)
	case *ast.Assert:
		c.handleNode(n.Test, n)
		c.handleNode(n.Msg, n)
	case *ast.Import:
		c.importStmt(n)
	case *ast.ImportFrom:
		c.importFrom(n)
	case *ast.Global:
		c.global(n)
	case *ast.Nonlocal:
		c.nonlocal(n)
	case *ast.ExprStmt:
		c.handleNode(n.Value, n)
	case *ast.Pass:
	case *ast.Break:
		c.loopControl(n, BreakOutsideLoop)
	case *ast.Continue:
		c.loopControl(n, ContinueOutsideLoop)
	case *ast.BadStmt:
		c.badStmt(n)
	case ast.Expr:
		c.expr(n)
	case *ast.Keyword:
		c.handleNode(n.Value, n)
	}
}

func (c *Checker) functionDef(n *ast.FunctionDef) {
	c.handleExprs(n.Decorators, n)
	c.function(n, n.Params, n.Returns)
	c.addBinding(n, &Binding{Name: n.Name, Kind: BindFunction, Pos: c.pos(n), Node: n}, false)
	if c.cfg.Doctests && !c.inDoctest() && !c.scope().Kind.IsFunction() {
		c.Enqueue(DeferFunction, HandlerDoctest, n, runDoctests)
	}
}

// function checks the signature of a def or lambda now and defers its
// body until the enclosing scope is complete.
func (c *Checker) function(n ast.Node, params *ast.Params, returns ast.Expr) {
	var list []*ast.Param
	if params != nil {
		list = params.List
	}
	seen := make(map[string]bool, len(list))
	for _, p := range list {
		if seen[p.Name] {
			c.report(DuplicateArgument, n, p.Name)
		}
		seen[p.Name] = true
	}
	handler := HandlerLambdaBody
	if _, ok := n.(*ast.FunctionDef); ok {
		handler = HandlerFunctionBody
		for _, p := range list {
			c.handleAnnotation(p.Annotation, n)
		}
		c.handleAnnotation(returns, n)
	}
	for _, d := range params.Defaults() {
		c.handleNode(d, n)
	}
	c.Enqueue(DeferFunction, handler, n, runFunction)
}

func runFunction(c *Checker, node ast.Node) {
	var params *ast.Params
	kind := ScopeFunction
	switch n := node.(type) {
	case *ast.FunctionDef:
		params = n.Params
	case *ast.Lambda:
		params = n.Params
		kind = ScopeLambda
	default:
		return
	}
	c.pushScope(kind, node)
	if params != nil {
		for _, p := range params.List {
			c.addBinding(node, &Binding{Name: p.Name, Kind: BindArgument, Pos: c.pos(p), Node: node}, false)
		}
	}
	switch n := node.(type) {
	case *ast.FunctionDef:
		c.handleStmts(n.Body, n)
	case *ast.Lambda:
		c.handleNode(n.Body, n)
	}
	c.Enqueue(DeferAssignment, HandlerUnusedAssignments, node, checkUnusedAssignments)
	c.popScope()
}

func checkUnusedAssignments(c *Checker, _ ast.Node) {
	s := c.scope()
	c.flushNested(s.ID)
	for _, b := range s.UnusedAssignments() {
		c.reportAt(&Message{Kind: UnusedVariable, Pos: b.Pos, Name: b.Name})
	}
}

func (c *Checker) classDef(n *ast.ClassDef) {
	c.handleExprs(n.Decorators, n)
	c.handleExprs(n.Bases, n)
	for _, kw := range n.Keywords {
		c.handleNode(kw, n)
	}
	c.pushScope(ScopeClass, n)
	if c.cfg.Doctests && !c.inDoctest() && !c.scope().Kind.IsFunction() {
		c.Enqueue(DeferFunction, HandlerDoctest, n, runDoctests)
	}
	c.handleStmts(n.Body, n)
	c.popScope()
	c.addBinding(n, &Binding{Name: n.Name, Kind: BindClass, Pos: c.pos(n), Node: n}, false)
}

func (c *Checker) annAssign(n *ast.AnnAssign) {
	c.handleAnnotation(n.Annotation, n)
	if n.Value != nil {
		if c.isTyping(n.Annotation, "TypeAlias") {
			c.handleAnnotation(n.Value, n)
		} else {
			c.handleNode(n.Value, n)
		}
	}
	kind := BindAssignment
	if n.Value == nil {
		kind = BindAnnotation
	}
	c.handleTarget(n.Target, n, target{kind: kind})
}

// isLiteralUnpacking reports whether every target and the value of an
// assignment are tuple or list displays.
func isLiteralUnpacking(n *ast.Assign) bool {
	for _, e := range append(append([]ast.Expr(nil), n.Targets...), n.Value) {
		switch e.(type) {
		case *ast.Tuple, *ast.List:
		default:
			return false
		}
	}
	return true
}

func (c *Checker) handleDelTarget(e ast.Expr, parent ast.Node) {
	switch x := e.(type) {
	case *ast.Name:
		c.enter(x, parent)
		c.handleDelete(x.ID, x)
	case *ast.Tuple:
		c.enter(x, parent)
		for _, elt := range x.Elts {
			c.handleDelTarget(elt, x)
		}
	case *ast.List:
		c.enter(x, parent)
		for _, elt := range x.Elts {
			c.handleDelTarget(elt, x)
		}
	default:
		c.handleNode(e, parent)
	}
}

func (c *Checker) try(n *ast.Try) {
	var names []string
	for i, h := range n.Handlers {
		switch t := h.Type.(type) {
		case *ast.Tuple:
			for _, elt := range t.Elts {
				if name, ok := elt.(*ast.Name); ok {
					names = append(names, name.ID)
				}
			}
		case *ast.Name:
			names = append(names, t.ID)
		}
		if h.Type == nil && i < len(n.Handlers)-1 {
			c.report(DefaultExceptNotLast, h, "")
		}
	}
	c.handlers = append(c.handlers, names)
	c.handleStmts(n.Body, n)
	c.handlers = c.handlers[:len(c.handlers)-1]
	for _, h := range n.Handlers {
		c.handleNode(h, n)
	}
	c.handleStmts(n.Else, n)
	c.handleStmts(n.Finally, n)
}

// exceptHandler binds the exception name for the handler body only and
// unbinds it afterwards, restoring any previous binding of the name.
func (c *Checker) exceptHandler(h *ast.ExceptHandler) {
	c.handleNode(h.Type, h)
	if h.Name == "" {
		c.handleStmts(h.Body, h)
		return
	}
	cur := c.scope()
	t := target{kind: BindAssignment}
	if cur.Contains(h.Name) {
		c.handleStore(h.Name, h, t)
	}
	prev, hadPrev := cur.Delete(h.Name)
	c.handleStore(h.Name, h, t)
	c.handleStmts(h.Body, h)
	if b, ok := cur.Delete(h.Name); ok && !b.Used {
		c.report(UnusedVariable, h, h.Name)
	}
	if hadPrev {
		cur.Set(prev)
	}
}

func (c *Checker) importStmt(n *ast.Import) {
	for _, a := range n.Names {
		var b *Binding
		if i := strings.IndexByte(a.Name, '.'); i >= 0 && a.AsName == "" {
			b = &Binding{Name: a.Name[:i], FullName: a.Name, Submodule: true}
		} else {
			name := a.AsName
			if name == "" {
				name = a.Name
			}
			b = &Binding{Name: name, FullName: a.Name, Alias: lastComponent(a.Name) != name}
		}
		b.Kind, b.Pos, b.Node = BindImport, c.pos(a), n
		c.addBinding(n, b, false)
	}
}

func (c *Checker) importFrom(n *ast.ImportFrom) {
	future := n.Module == "__future__" && n.Level == 0
	if future {
		if !c.futuresAllowed() {
			c.report(LateFutureImport, n, "")
		}
	} else {
		c.disallowFutures()
	}

	module := strings.Repeat(".", n.Level) + n.Module
	if n.Star {
		cur := c.scope()
		if !cur.Kind.BehavesAsModule() {
			c.report(ImportStarNotPermitted, n, module)
			return
		}
		cur.ImportStarred = true
		c.report(ImportStarUsed, n, module)
		c.addBinding(n, &Binding{
			Name:     module + ".*",
			Kind:     BindImport,
			Pos:      c.pos(n),
			Node:     n,
			FullName: module,
			Star:     true,
		}, false)
		return
	}

	for _, a := range n.Names {
		name := a.AsName
		if name == "" {
			name = a.Name
		}
		b := &Binding{Name: name, Kind: BindImport, Pos: c.pos(a), Node: n}
		switch {
		case future:
			b.FullName = "__future__." + a.Name
			b.Future = true
			b.markUsed(c.scope().ID, b.Pos)
			if !futureFeatures[a.Name] {
				c.report(FutureFeatureNotDefined, n, a.Name)
			}
			if a.Name == "annotations" {
				c.futureAnnotations = true
			}
		case strings.HasSuffix(module, "."):
			b.FullName = module + a.Name
		default:
			b.FullName = module + "." + a.Name
		}
		b.Alias = !future && name != a.Name
		c.addBinding(n, b, false)
	}
}

func lastComponent(dotted string) string {
	return dotted[strings.LastIndexByte(dotted, '.')+1:]
}

// global makes names resolve to the innermost module-like scope from the
// current scope and every scope in between.
func (c *Checker) global(n *ast.Global) {
	idx, gs := c.globalScope()
	cur := c.scope()
	if cur == gs {
		return
	}
	at := c.pos(n)
	for _, name := range n.Names {
		c.dropUndefined(name)
		b := &Binding{Name: name, Kind: BindGlobal, Pos: at, Node: n}
		b.markUsed(gs.ID, at)
		if !gs.Contains(name) {
			gs.Set(b)
		}
		for _, id := range c.stack[idx+1:] {
			c.scopes[id].Set(b)
		}
		cur.globals[name] = true
	}
}

// nonlocal binds names in the current scope only; the enclosing function
// binding stays the one lookups from outside it see.
func (c *Checker) nonlocal(n *ast.Nonlocal) {
	cur := c.scope()
	at := c.pos(n)
	for _, name := range n.Names {
		b := &Binding{Name: name, Kind: BindGlobal, Pos: at, Node: n}
		b.markUsed(cur.ID, at)
		cur.Set(b)
		cur.globals[name] = true
	}
}

// dropUndefined removes the UndefinedName messages already reported for
// name.
func (c *Checker) dropUndefined(name string) {
	kept := c.messages[:0]
	for _, m := range c.messages {
		if m.Kind == UndefinedName && m.Name == name {
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(c.messages); i++ {
		c.messages[i] = nil
	}
	c.messages = kept
}

func (c *Checker) loopControl(n ast.Stmt, kind MessageKind) {
	var child ast.Node = n
walk:
	for {
		parent, ok := c.parentOf(child)
		if !ok || isNil(parent) {
			break
		}
		switch p := parent.(type) {
		case *ast.While:
			if !containsStmt(p.Else, child) {
				return
			}
		case *ast.For:
			if !containsStmt(p.Else, child) {
				return
			}
		case *ast.FunctionDef, *ast.ClassDef:
			break walk
		}
		child = parent
	}
	c.report(kind, n, "")
}

func containsStmt(body []ast.Stmt, n ast.Node) bool {
	for _, s := range body {
		if ast.Node(s) == n {
			return true
		}
	}
	return false
}
