// Copyright © 2024 The ELPS authors

package analysis

import (
	"errors"
	"strings"

	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/doctest"
	"github.com/luthersystems/flakes/parser"
)

// runDoctests analyzes the interactive examples in the docstring of a
// function or class. The examples share one doctest scope nested in the
// scope the definition was visited in.
func runDoctests(c *Checker, node ast.Node) {
	var body []ast.Stmt
	switch n := node.(type) {
	case *ast.FunctionDef:
		body = n.Body
	case *ast.ClassDef:
		body = n.Body
	}
	doc, ok := ast.Docstring(body)
	if !ok {
		return
	}
	examples, err := doctest.Parse(doc.Value)
	if err != nil {
		c.log.WithError(err).WithField("line", doc.Pos.Line).Debug("docstring skipped")
		return
	}
	if len(examples) == 0 {
		return
	}

	ctx, span := tracer().Start(c.ctx, "analysis.Doctests")
	defer span.End()

	base := c.offset
	docLine := doc.Position().Line
	scope := c.pushScope(ScopeDoctest, node)
	module := c.scopes[c.stack[0]]
	for _, ex := range examples {
		mod, err := c.cfg.parser()(ctx, []byte(ex.Source), c.filename())
		if err != nil {
			c.reportAt(c.doctestSyntaxError(err, doc, docLine, ex))
			continue
		}
		c.offset = base.Add(doctest.For(docLine, ex))
		c.handleStmts(mod.Body, mod)
		c.offset = base
		if ex.HasWant() && endsWithExpression(mod) && !module.Contains("_") {
			scope.Set(&Binding{Name: "_", Kind: BindBuiltin})
		}
	}
	c.popScope()
}

func endsWithExpression(mod *ast.Module) bool {
	if len(mod.Body) == 0 {
		return false
	}
	_, ok := mod.Body[len(mod.Body)-1].(*ast.ExprStmt)
	return ok
}

// doctestSyntaxError places a parse failure of an example in the file.
// Without a position from the parser the prompt of the example is used.
func (c *Checker) doctestSyntaxError(err error, doc *ast.Str, docLine int, ex *doctest.Example) *Message {
	m := &Message{Kind: DoctestSyntaxError}
	off := doctest.For(docLine, ex)
	var se *parser.SyntaxError
	if errors.As(err, &se) && se.Pos.IsValid() {
		m.Detail = se.Msg
		line := se.Pos.Line
		if n := strings.Count(strings.TrimRight(ex.Source, "\n"), "\n") + 1; line > n {
			line = n
		}
		m.Pos = c.offset.Translate(ast.Pos{
			Line: off.Line + line,
			Col:  off.Col + se.Pos.Col + 1,
		})
		return m
	}
	c.log.WithError(err).Debug("doctest example does not parse")
	m.Pos = c.offset.Translate(ast.Pos{Line: off.Line + 1, Col: off.Col})
	if !m.Pos.IsValid() {
		m.Pos = c.pos(doc)
	}
	return m
}
