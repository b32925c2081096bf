// Copyright © 2024 The ELPS authors

package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/luthersystems/flakes/ast"
)

var statementKinds = map[string]bool{
	"expression_statement":    true,
	"function_definition":     true,
	"class_definition":        true,
	"decorated_definition":    true,
	"return_statement":        true,
	"delete_statement":        true,
	"if_statement":            true,
	"for_statement":           true,
	"while_statement":         true,
	"try_statement":           true,
	"with_statement":          true,
	"raise_statement":         true,
	"assert_statement":        true,
	"import_statement":        true,
	"import_from_statement":   true,
	"future_import_statement": true,
	"global_statement":        true,
	"nonlocal_statement":      true,
	"pass_statement":          true,
	"break_statement":         true,
	"continue_statement":      true,
	"print_statement":         true,
	"exec_statement":          true,
	"match_statement":         true,
	"type_alias_statement":    true,
}

func isStatement(kind string) bool {
	return statementKinds[kind]
}

// stmts converts the statements of a module or block.
func (c *converter) stmts(n *sitter.Node) []ast.Stmt {
	if n == nil {
		return nil
	}
	var out []ast.Stmt
	for _, ch := range c.named(n) {
		if s := c.stmt(ch); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (c *converter) stmt(n *sitter.Node) ast.Stmt {
	switch n.Type() {
	case "expression_statement":
		return c.exprStmt(n)
	case "function_definition":
		return c.functionDef(n)
	case "class_definition":
		return c.classDef(n)
	case "decorated_definition":
		return c.decorated(n)
	case "return_statement":
		r := &ast.Return{Base: c.at(n)}
		if ch := c.named(n); len(ch) > 0 {
			r.Value = c.expr(ch[0])
		}
		return r
	case "delete_statement":
		d := &ast.Delete{Base: c.at(n)}
		for _, ch := range c.named(n) {
			if ch.Type() == "expression_list" {
				d.Targets = append(d.Targets, c.exprs(c.named(ch))...)
				continue
			}
			d.Targets = append(d.Targets, c.expr(ch))
		}
		return d
	case "if_statement":
		return c.ifStmt(n)
	case "for_statement":
		return &ast.For{
			Base:   c.at(n),
			Async:  c.hasToken(n, "async"),
			Target: c.expr(n.ChildByFieldName("left")),
			Iter:   c.expr(n.ChildByFieldName("right")),
			Body:   c.stmts(n.ChildByFieldName("body")),
			Else:   c.elseBody(n.ChildByFieldName("alternative")),
		}
	case "while_statement":
		return &ast.While{
			Base: c.at(n),
			Test: c.expr(n.ChildByFieldName("condition")),
			Body: c.stmts(n.ChildByFieldName("body")),
			Else: c.elseBody(n.ChildByFieldName("alternative")),
		}
	case "try_statement":
		return c.tryStmt(n)
	case "with_statement":
		return c.withStmt(n)
	case "raise_statement":
		r := &ast.Raise{Base: c.at(n)}
		cause := n.ChildByFieldName("cause")
		for _, ch := range c.named(n) {
			if cause != nil && ch.StartByte() == cause.StartByte() {
				continue
			}
			if r.Exc == nil {
				r.Exc = c.expr(ch)
			}
		}
		if cause != nil {
			r.Cause = c.expr(cause)
		}
		return r
	case "assert_statement":
		a := &ast.Assert{Base: c.at(n)}
		ch := c.named(n)
		if len(ch) > 0 {
			a.Test = c.expr(ch[0])
		}
		if len(ch) > 1 {
			a.Msg = c.expr(ch[1])
		}
		return a
	case "import_statement":
		imp := &ast.Import{Base: c.at(n)}
		for _, ch := range c.named(n) {
			imp.Names = append(imp.Names, c.alias(ch))
		}
		return imp
	case "import_from_statement":
		return c.importFrom(n)
	case "future_import_statement":
		imp := &ast.ImportFrom{Base: c.at(n), Module: "__future__"}
		for _, ch := range c.named(n) {
			imp.Names = append(imp.Names, c.alias(ch))
		}
		return imp
	case "global_statement":
		return &ast.Global{Base: c.at(n), Names: c.identifiers(n)}
	case "nonlocal_statement":
		return &ast.Nonlocal{Base: c.at(n), Names: c.identifiers(n)}
	case "pass_statement":
		return &ast.Pass{Base: c.at(n)}
	case "break_statement":
		return &ast.Break{Base: c.at(n)}
	case "continue_statement":
		return &ast.Continue{Base: c.at(n)}
	default:
		return &ast.BadStmt{Base: c.at(n), Kind: n.Type(), Children: c.generic(n)}
	}
}

func (c *converter) exprStmt(n *sitter.Node) ast.Stmt {
	ch := c.named(n)
	if len(ch) == 1 {
		switch ch[0].Type() {
		case "assignment":
			return c.assignment(ch[0])
		case "augmented_assignment":
			return &ast.AugAssign{
				Base:   c.at(ch[0]),
				Target: c.expr(ch[0].ChildByFieldName("left")),
				Op:     c.opText(ch[0].ChildByFieldName("operator")),
				Value:  c.expr(ch[0].ChildByFieldName("right")),
			}
		}
		return &ast.ExprStmt{Base: c.at(n), Value: c.expr(ch[0])}
	}
	return &ast.ExprStmt{
		Base:  c.at(n),
		Value: &ast.Tuple{Base: c.at(n), Elts: c.exprs(ch)},
	}
}

func (c *converter) assignment(n *sitter.Node) ast.Stmt {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if typ := n.ChildByFieldName("type"); typ != nil {
		a := &ast.AnnAssign{
			Base:       c.at(n),
			Target:     c.expr(left),
			Annotation: c.expr(typ),
		}
		if right != nil {
			a.Value = c.expr(right)
		}
		return a
	}
	a := &ast.Assign{Base: c.at(n), Targets: []ast.Expr{c.expr(left)}}
	for right != nil && right.Type() == "assignment" && right.ChildByFieldName("type") == nil {
		a.Targets = append(a.Targets, c.expr(right.ChildByFieldName("left")))
		right = right.ChildByFieldName("right")
	}
	if right != nil {
		a.Value = c.expr(right)
	}
	return a
}

func (c *converter) functionDef(n *sitter.Node) *ast.FunctionDef {
	fn := &ast.FunctionDef{
		Base:   c.at(n),
		Name:   c.text(n.ChildByFieldName("name")),
		Async:  c.hasToken(n, "async"),
		Params: c.params(n.ChildByFieldName("parameters")),
		Body:   c.stmts(n.ChildByFieldName("body")),
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		fn.Returns = c.expr(ret)
	}
	return fn
}

func (c *converter) classDef(n *sitter.Node) *ast.ClassDef {
	cls := &ast.ClassDef{
		Base: c.at(n),
		Name: c.text(n.ChildByFieldName("name")),
		Body: c.stmts(n.ChildByFieldName("body")),
	}
	if sup := n.ChildByFieldName("superclasses"); sup != nil {
		cls.Bases, cls.Keywords = c.arguments(sup)
	}
	return cls
}

func (c *converter) decorated(n *sitter.Node) ast.Stmt {
	var decorators []ast.Expr
	for _, ch := range c.named(n) {
		if ch.Type() == "decorator" {
			if d := c.named(ch); len(d) > 0 {
				decorators = append(decorators, c.expr(d[0]))
			}
		}
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return &ast.BadStmt{Base: c.at(n), Kind: n.Type(), Children: c.generic(n)}
	}
	switch def.Type() {
	case "function_definition":
		fn := c.functionDef(def)
		fn.Decorators = decorators
		return fn
	case "class_definition":
		cls := c.classDef(def)
		cls.Decorators = decorators
		return cls
	}
	return &ast.BadStmt{Base: c.at(n), Kind: def.Type(), Children: c.generic(n)}
}

func (c *converter) params(n *sitter.Node) *ast.Params {
	ps := &ast.Params{}
	if n == nil {
		return ps
	}
	kwOnly := false
	positional := func() ast.ParamKind {
		if kwOnly {
			return ast.ParamKeywordOnly
		}
		return ast.ParamPositional
	}
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "identifier":
			ps.List = append(ps.List, &ast.Param{Base: c.at(ch), Name: c.text(ch), Kind: positional()})
		case "default_parameter":
			name := ch.ChildByFieldName("name")
			ps.List = append(ps.List, &ast.Param{
				Base:    c.at(name),
				Name:    c.text(name),
				Kind:    positional(),
				Default: c.expr(ch.ChildByFieldName("value")),
			})
		case "typed_parameter", "typed_default_parameter":
			p := &ast.Param{Kind: positional()}
			target := ch.ChildByFieldName("name")
			if target == nil {
				if inner := c.named(ch); len(inner) > 0 {
					target = inner[0]
				}
			}
			if target != nil {
				switch target.Type() {
				case "list_splat_pattern":
					p.Kind = ast.ParamVarArgs
					kwOnly = true
					target = c.firstNamed(target, "identifier")
				case "dictionary_splat_pattern":
					p.Kind = ast.ParamVarKeywords
					target = c.firstNamed(target, "identifier")
				}
			}
			if target != nil {
				p.Base = c.at(target)
				p.Name = c.text(target)
			}
			if typ := ch.ChildByFieldName("type"); typ != nil {
				p.Annotation = c.expr(typ)
			}
			if val := ch.ChildByFieldName("value"); val != nil {
				p.Default = c.expr(val)
			}
			ps.List = append(ps.List, p)
		case "list_splat_pattern":
			kwOnly = true
			if id := c.firstNamed(ch, "identifier"); id != nil {
				ps.List = append(ps.List, &ast.Param{Base: c.at(id), Name: c.text(id), Kind: ast.ParamVarArgs})
			}
		case "dictionary_splat_pattern":
			if id := c.firstNamed(ch, "identifier"); id != nil {
				ps.List = append(ps.List, &ast.Param{Base: c.at(id), Name: c.text(id), Kind: ast.ParamVarKeywords})
			}
		case "keyword_separator":
			kwOnly = true
		case "tuple_pattern":
			for _, id := range c.patternNames(ch) {
				ps.List = append(ps.List, &ast.Param{Base: c.at(id), Name: c.text(id), Kind: positional()})
			}
		}
	}
	return ps
}

// patternNames flattens the identifiers of a nested tuple parameter.
func (c *converter) patternNames(n *sitter.Node) []*sitter.Node {
	if n.Type() == "identifier" {
		return []*sitter.Node{n}
	}
	var out []*sitter.Node
	for _, ch := range c.named(n) {
		out = append(out, c.patternNames(ch)...)
	}
	return out
}

func (c *converter) ifStmt(n *sitter.Node) *ast.If {
	root := &ast.If{
		Base: c.at(n),
		Test: c.expr(n.ChildByFieldName("condition")),
		Body: c.stmts(n.ChildByFieldName("consequence")),
	}
	cur := root
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "elif_clause":
			next := &ast.If{
				Base: c.at(ch),
				Test: c.expr(ch.ChildByFieldName("condition")),
				Body: c.stmts(ch.ChildByFieldName("consequence")),
			}
			cur.Else = []ast.Stmt{next}
			cur = next
		case "else_clause":
			cur.Else = c.elseBody(ch)
		}
	}
	return root
}

func (c *converter) elseBody(n *sitter.Node) []ast.Stmt {
	if n == nil {
		return nil
	}
	if body := n.ChildByFieldName("body"); body != nil {
		return c.stmts(body)
	}
	return c.stmts(c.firstNamed(n, "block"))
}

func (c *converter) tryStmt(n *sitter.Node) *ast.Try {
	t := &ast.Try{Base: c.at(n), Body: c.stmts(n.ChildByFieldName("body"))}
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "except_clause", "except_group_clause":
			t.Handlers = append(t.Handlers, c.exceptClause(ch))
		case "else_clause":
			t.Else = c.elseBody(ch)
		case "finally_clause":
			t.Finally = c.stmts(c.firstNamed(ch, "block"))
		}
	}
	return t
}

func (c *converter) exceptClause(n *sitter.Node) *ast.ExceptHandler {
	h := &ast.ExceptHandler{Base: c.at(n)}
	var parts []*sitter.Node
	for _, ch := range c.named(n) {
		if ch.Type() == "block" {
			h.Body = c.stmts(ch)
			continue
		}
		parts = append(parts, ch)
	}
	switch len(parts) {
	case 0:
	case 1:
		if parts[0].Type() == "as_pattern" {
			inner := c.named(parts[0])
			if len(inner) > 0 {
				h.Type = c.expr(inner[0])
			}
			if alias := c.asTarget(parts[0]); alias != nil {
				h.Name = c.text(alias)
			}
			break
		}
		h.Type = c.expr(parts[0])
	default:
		h.Type = c.expr(parts[0])
		h.Name = c.text(c.unwrapTarget(parts[1]))
	}
	return h
}

// asTarget returns the alias of an as_pattern.
func (c *converter) asTarget(n *sitter.Node) *sitter.Node {
	alias := n.ChildByFieldName("alias")
	if alias == nil {
		inner := c.named(n)
		if len(inner) < 2 {
			return nil
		}
		alias = inner[len(inner)-1]
	}
	return c.unwrapTarget(alias)
}

func (c *converter) unwrapTarget(n *sitter.Node) *sitter.Node {
	if n.Type() == "as_pattern_target" {
		if inner := c.named(n); len(inner) > 0 {
			return inner[0]
		}
	}
	return n
}

func (c *converter) withStmt(n *sitter.Node) *ast.With {
	w := &ast.With{
		Base:  c.at(n),
		Async: c.hasToken(n, "async"),
		Body:  c.stmts(n.ChildByFieldName("body")),
	}
	var items []*sitter.Node
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "with_clause":
			for _, item := range c.named(ch) {
				if item.Type() == "with_item" {
					items = append(items, item)
				}
			}
		case "with_item":
			items = append(items, ch)
		}
	}
	for _, item := range items {
		value := item.ChildByFieldName("value")
		if value == nil {
			if inner := c.named(item); len(inner) > 0 {
				value = inner[0]
			}
		}
		if value == nil {
			continue
		}
		wi := &ast.WithItem{}
		switch {
		case value.Type() == "as_pattern":
			inner := c.named(value)
			if len(inner) > 0 {
				wi.Context = c.expr(inner[0])
			}
			if alias := c.asTarget(value); alias != nil {
				wi.Vars = c.expr(alias)
			}
		default:
			wi.Context = c.expr(value)
			if alias := item.ChildByFieldName("alias"); alias != nil {
				wi.Vars = c.expr(c.unwrapTarget(alias))
			}
		}
		w.Items = append(w.Items, wi)
	}
	return w
}

func (c *converter) alias(n *sitter.Node) *ast.Alias {
	if n.Type() == "aliased_import" {
		a := &ast.Alias{Base: c.at(n), Name: c.dotted(n.ChildByFieldName("name"))}
		if as := n.ChildByFieldName("alias"); as != nil {
			a.AsName = c.text(as)
		}
		return a
	}
	return &ast.Alias{Base: c.at(n), Name: c.dotted(n)}
}

// dotted returns a dotted name without interior whitespace.
func (c *converter) dotted(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() != "dotted_name" {
		return c.text(n)
	}
	var parts []string
	for _, ch := range c.named(n) {
		parts = append(parts, c.text(ch))
	}
	return strings.Join(parts, ".")
}

func (c *converter) importFrom(n *sitter.Node) *ast.ImportFrom {
	imp := &ast.ImportFrom{Base: c.at(n)}
	module := n.ChildByFieldName("module_name")
	if module != nil {
		if module.Type() == "relative_import" {
			for _, ch := range c.named(module) {
				switch ch.Type() {
				case "import_prefix":
					imp.Level = strings.Count(c.text(ch), ".")
				case "dotted_name":
					imp.Module = c.dotted(ch)
				}
			}
		} else {
			imp.Module = c.dotted(module)
		}
	}
	for _, ch := range c.named(n) {
		if module != nil && ch.StartByte() == module.StartByte() {
			continue
		}
		switch ch.Type() {
		case "wildcard_import":
			imp.Star = true
			imp.Names = append(imp.Names, &ast.Alias{Base: c.at(ch), Name: "*"})
		case "dotted_name", "aliased_import", "identifier":
			imp.Names = append(imp.Names, c.alias(ch))
		}
	}
	return imp
}

func (c *converter) identifiers(n *sitter.Node) []string {
	var names []string
	for _, ch := range c.named(n) {
		if ch.Type() == "identifier" {
			names = append(names, c.text(ch))
		}
	}
	return names
}

func (c *converter) opText(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return c.text(n)
}
