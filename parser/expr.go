// Copyright © 2024 The ELPS authors

package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/luthersystems/flakes/ast"
)

func (c *converter) exprs(ns []*sitter.Node) []ast.Expr {
	out := make([]ast.Expr, 0, len(ns))
	for _, n := range ns {
		if e := c.expr(n); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (c *converter) expr(n *sitter.Node) ast.Expr {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "keyword_identifier":
		return &ast.Name{Base: c.at(n), ID: c.text(n)}
	case "type", "parenthesized_expression", "as_pattern_target":
		inner := c.named(n)
		if len(inner) == 1 {
			return c.expr(inner[0])
		}
		if len(inner) == 0 {
			return &ast.Tuple{Base: c.at(n)}
		}
		return &ast.BadExpr{Base: c.at(n), Kind: n.Type(), Children: c.generic(n)}
	case "attribute":
		return &ast.Attribute{
			Base:  c.at(n),
			Value: c.expr(n.ChildByFieldName("object")),
			Attr:  c.text(n.ChildByFieldName("attribute")),
		}
	case "subscript":
		inner := c.named(n)
		s := &ast.Subscript{Base: c.at(n)}
		if len(inner) > 0 {
			s.Value = c.expr(inner[0])
			s.Index = c.exprs(inner[1:])
		}
		return s
	case "generic_type":
		// List[int] in annotation position.
		inner := c.named(n)
		s := &ast.Subscript{Base: c.at(n)}
		if len(inner) > 0 {
			s.Value = c.expr(inner[0])
		}
		if len(inner) > 1 && inner[1].Type() == "type_parameter" {
			s.Index = c.exprs(c.named(inner[1]))
		}
		return s
	case "type_parameter":
		return &ast.Tuple{Base: c.at(n), Elts: c.exprs(c.named(n))}
	case "union_type":
		inner := c.named(n)
		if len(inner) != 2 {
			return &ast.BadExpr{Base: c.at(n), Kind: n.Type(), Children: c.generic(n)}
		}
		return &ast.BinOp{Base: c.at(n), Left: c.expr(inner[0]), Op: "|", Right: c.expr(inner[1])}
	case "member_type":
		inner := c.named(n)
		if len(inner) != 2 {
			return &ast.BadExpr{Base: c.at(n), Kind: n.Type(), Children: c.generic(n)}
		}
		return &ast.Attribute{Base: c.at(n), Value: c.expr(inner[0]), Attr: c.text(inner[1])}
	case "splat_type":
		st := &ast.Starred{Base: c.at(n)}
		if inner := c.named(n); len(inner) > 0 {
			st.Value = c.expr(inner[0])
		}
		return st
	case "slice":
		return c.slice(n)
	case "call":
		call := &ast.Call{Base: c.at(n), Func: c.expr(n.ChildByFieldName("function"))}
		args := n.ChildByFieldName("arguments")
		if args != nil {
			if args.Type() == "generator_expression" {
				call.Args = []ast.Expr{c.expr(args)}
			} else {
				call.Args, call.Keywords = c.arguments(args)
			}
		}
		return call
	case "list_splat", "list_splat_pattern", "parenthesized_list_splat", "dictionary_splat", "dictionary_splat_pattern":
		inner := c.named(n)
		st := &ast.Starred{Base: c.at(n)}
		if len(inner) > 0 {
			st.Value = c.expr(inner[0])
		}
		return st
	case "list", "list_pattern":
		return &ast.List{Base: c.at(n), Elts: c.exprs(c.named(n))}
	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		return &ast.Tuple{Base: c.at(n), Elts: c.exprs(c.named(n))}
	case "set":
		return &ast.Set{Base: c.at(n), Elts: c.exprs(c.named(n))}
	case "dictionary":
		return c.dict(n)
	case "list_comprehension":
		return c.comprehension(n, ast.ListComp)
	case "set_comprehension":
		return c.comprehension(n, ast.SetComp)
	case "dictionary_comprehension":
		return c.comprehension(n, ast.DictComp)
	case "generator_expression":
		return c.comprehension(n, ast.GeneratorExp)
	case "lambda":
		l := &ast.Lambda{Base: c.at(n), Params: c.params(n.ChildByFieldName("parameters"))}
		l.Body = c.expr(n.ChildByFieldName("body"))
		return l
	case "conditional_expression":
		inner := c.named(n)
		if len(inner) != 3 {
			return &ast.BadExpr{Base: c.at(n), Kind: n.Type(), Children: c.generic(n)}
		}
		return &ast.IfExp{
			Base: c.at(n),
			Body: c.expr(inner[0]),
			Test: c.expr(inner[1]),
			Else: c.expr(inner[2]),
		}
	case "named_expression":
		ne := &ast.NamedExpr{Base: c.at(n), Value: c.expr(n.ChildByFieldName("value"))}
		if name := n.ChildByFieldName("name"); name != nil {
			ne.Target = &ast.Name{Base: c.at(name), ID: c.text(name)}
		}
		return ne
	case "binary_operator":
		return &ast.BinOp{
			Base:  c.at(n),
			Left:  c.expr(n.ChildByFieldName("left")),
			Op:    c.opText(n.ChildByFieldName("operator")),
			Right: c.expr(n.ChildByFieldName("right")),
		}
	case "boolean_operator":
		return &ast.BoolOp{
			Base:   c.at(n),
			Op:     c.opText(n.ChildByFieldName("operator")),
			Values: []ast.Expr{c.expr(n.ChildByFieldName("left")), c.expr(n.ChildByFieldName("right"))},
		}
	case "unary_operator":
		return &ast.UnaryOp{
			Base:    c.at(n),
			Op:      c.opText(n.ChildByFieldName("operator")),
			Operand: c.expr(n.ChildByFieldName("argument")),
		}
	case "not_operator":
		return &ast.UnaryOp{Base: c.at(n), Op: "not", Operand: c.expr(n.ChildByFieldName("argument"))}
	case "comparison_operator":
		return c.compare(n)
	case "await":
		a := &ast.Await{Base: c.at(n)}
		if inner := c.named(n); len(inner) > 0 {
			a.Value = c.expr(inner[0])
		}
		return a
	case "yield":
		y := &ast.Yield{Base: c.at(n), From: c.hasToken(n, "from")}
		if inner := c.named(n); len(inner) > 0 {
			y.Value = c.expr(inner[0])
		}
		return y
	case "string":
		return c.str(n)
	case "concatenated_string":
		return c.concatenated(n)
	case "integer", "float":
		return c.number(n)
	case "true":
		return &ast.Constant{Base: c.at(n), Kind: ast.True}
	case "false":
		return &ast.Constant{Base: c.at(n), Kind: ast.False}
	case "none":
		return &ast.Constant{Base: c.at(n), Kind: ast.None}
	case "ellipsis":
		return &ast.Constant{Base: c.at(n), Kind: ast.Ellipsis}
	default:
		return &ast.BadExpr{Base: c.at(n), Kind: n.Type(), Children: c.generic(n)}
	}
}

// arguments converts an argument_list into positional and keyword
// arguments.
func (c *converter) arguments(n *sitter.Node) ([]ast.Expr, []*ast.Keyword) {
	var args []ast.Expr
	var kws []*ast.Keyword
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "keyword_argument":
			kws = append(kws, &ast.Keyword{
				Base:  c.at(ch),
				Arg:   c.text(ch.ChildByFieldName("name")),
				Value: c.expr(ch.ChildByFieldName("value")),
			})
		case "dictionary_splat":
			kw := &ast.Keyword{Base: c.at(ch)}
			if inner := c.named(ch); len(inner) > 0 {
				kw.Value = c.expr(inner[0])
			}
			kws = append(kws, kw)
		default:
			args = append(args, c.expr(ch))
		}
	}
	return args, kws
}

func (c *converter) slice(n *sitter.Node) *ast.Slice {
	s := &ast.Slice{Base: c.at(n)}
	part := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if !ch.IsNamed() {
			if ch.Type() == ":" {
				part++
			}
			continue
		}
		if ch.Type() == "comment" {
			continue
		}
		e := c.expr(ch)
		switch part {
		case 0:
			s.Lower = e
		case 1:
			s.Upper = e
		default:
			s.Step = e
		}
	}
	return s
}

func (c *converter) dict(n *sitter.Node) *ast.Dict {
	d := &ast.Dict{Base: c.at(n)}
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "pair":
			d.Keys = append(d.Keys, c.expr(ch.ChildByFieldName("key")))
			d.Values = append(d.Values, c.expr(ch.ChildByFieldName("value")))
		case "dictionary_splat":
			d.Keys = append(d.Keys, nil)
			var v ast.Expr
			if inner := c.named(ch); len(inner) > 0 {
				v = c.expr(inner[0])
			}
			d.Values = append(d.Values, v)
		}
	}
	return d
}

func (c *converter) comprehension(n *sitter.Node, kind ast.CompKind) *ast.Comp {
	comp := &ast.Comp{Base: c.at(n), Kind: kind}
	body := n.ChildByFieldName("body")
	if body != nil {
		if kind == ast.DictComp && body.Type() == "pair" {
			comp.Elt = c.expr(body.ChildByFieldName("key"))
			comp.Value = c.expr(body.ChildByFieldName("value"))
		} else {
			comp.Elt = c.expr(body)
		}
	}
	var cur *ast.Comprehension
	for _, ch := range c.named(n) {
		switch ch.Type() {
		case "for_in_clause":
			cur = &ast.Comprehension{
				Async:  c.hasToken(ch, "async"),
				Target: c.expr(ch.ChildByFieldName("left")),
				Iter:   c.expr(ch.ChildByFieldName("right")),
			}
			comp.Generators = append(comp.Generators, cur)
		case "if_clause":
			if cur == nil {
				continue
			}
			if inner := c.named(ch); len(inner) > 0 {
				cur.Ifs = append(cur.Ifs, c.expr(inner[0]))
			}
		}
	}
	return comp
}

func (c *converter) compare(n *sitter.Node) *ast.Compare {
	cmp := &ast.Compare{Base: c.at(n)}
	var operands []ast.Expr
	var op []string
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch.IsNamed() {
			if ch.Type() == "comment" {
				continue
			}
			if len(op) > 0 {
				cmp.Ops = append(cmp.Ops, strings.Join(op, " "))
				op = op[:0]
			}
			operands = append(operands, c.expr(ch))
			continue
		}
		op = append(op, ch.Type())
	}
	if len(operands) > 0 {
		cmp.Left = operands[0]
		cmp.Comparators = operands[1:]
	}
	return cmp
}

func (c *converter) str(n *sitter.Node) ast.Expr {
	lit, err := decodeString(c.text(n))
	if err != nil || lit.formatted {
		return &ast.JoinedStr{Base: c.at(n), Values: c.interpolations(n)}
	}
	return &ast.Str{Base: c.at(n), Value: lit.value, Bytes: lit.bytes}
}

func (c *converter) concatenated(n *sitter.Node) ast.Expr {
	var sb strings.Builder
	var values []ast.Expr
	formatted := false
	parts := c.named(n)
	isBytes := false
	for i, part := range parts {
		lit, err := decodeString(c.text(part))
		if err != nil || lit.formatted {
			formatted = true
			values = append(values, c.interpolations(part)...)
			continue
		}
		if i == 0 {
			isBytes = lit.bytes
		}
		sb.WriteString(lit.value)
	}
	if formatted {
		return &ast.JoinedStr{Base: c.at(n), Values: values}
	}
	return &ast.Str{Base: c.at(n), Value: sb.String(), Bytes: isBytes}
}

// interpolations returns the expressions embedded in an f-string,
// including those nested in format specifiers.
func (c *converter) interpolations(n *sitter.Node) []ast.Expr {
	var out []ast.Expr
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		switch ch.Type() {
		case "interpolation", "format_expression":
			out = append(out, c.interpolation(ch)...)
		default:
			out = append(out, c.interpolations(ch)...)
		}
	}
	return out
}

// interpolation converts one replacement field. Fields nested in the
// format spec appear as format_expression nodes.
func (c *converter) interpolation(n *sitter.Node) []ast.Expr {
	var out []ast.Expr
	expr := n.ChildByFieldName("expression")
	if expr == nil {
		for _, ch := range c.named(n) {
			if ch.Type() != "type_conversion" && ch.Type() != "format_specifier" {
				expr = ch
				break
			}
		}
	}
	if expr != nil {
		out = append(out, c.expr(expr))
	}
	for _, ch := range c.named(n) {
		if ch.Type() == "format_specifier" {
			out = append(out, c.interpolations(ch)...)
		}
	}
	return out
}

func (c *converter) number(n *sitter.Node) ast.Expr {
	num, err := decodeNumber(c.text(n))
	if err != nil {
		return &ast.BadExpr{Base: c.at(n), Kind: n.Type()}
	}
	num.Base = c.at(n)
	return num
}
