// Copyright © 2024 The ELPS authors

// Package parser converts Python source into the typed syntax tree of
// package ast using the tree-sitter Python grammar.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/luthersystems/flakes/ast"
)

// ErrEmptyTree is returned when tree-sitter produces no root node.
var ErrEmptyTree = errors.New("parser returned no syntax tree")

// SyntaxError describes source that could not be parsed.
type SyntaxError struct {
	Filename string
	Pos      ast.Pos
	Msg      string
	Text     string // offending source text, possibly truncated
}

func (e *SyntaxError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col+1, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Pos.Line, e.Pos.Col+1, e.Msg)
}

// Parse parses a complete Python module. Syntax errors are returned as
// *SyntaxError.
func Parse(ctx context.Context, src []byte, filename string) (*ast.Module, error) {
	if se := leadingIndent(src, filename); se != nil {
		return nil, se
	}

	// A parser per call keeps Parse safe for concurrent use.
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, ErrEmptyTree
	}
	if root.HasError() {
		return nil, syntaxError(root, src, filename)
	}
	if se := checkIndentation(root, src, filename); se != nil {
		return nil, se
	}

	c := &converter{src: src}
	mod := &ast.Module{
		Base:     ast.At(1, 0),
		Filename: filename,
		Body:     c.stmts(root),
	}
	collectComments(root, src, &mod.Comments)
	return mod, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(ctx context.Context, src string, filename string) (*ast.Module, error) {
	return Parse(ctx, []byte(src), filename)
}

func syntaxError(root *sitter.Node, src []byte, filename string) *SyntaxError {
	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	se := &SyntaxError{
		Filename: filename,
		Pos:      position(bad),
		Msg:      "invalid syntax",
	}
	if bad.IsMissing() {
		se.Msg = fmt.Sprintf("expected %q", bad.Type())
		return se
	}
	if p, ok := errorEnd(bad, src); ok {
		se.Pos = p
	}
	text := bad.Content(src)
	if len(text) > 40 {
		text = text[:40]
	}
	se.Text = text
	return se
}

// errorEnd returns the position just past the text of a single-line
// bad node when nothing but a comment follows it. The token the parser
// could not consume is then the end of the line.
func errorEnd(bad *sitter.Node, src []byte) (ast.Pos, bool) {
	start, end := int(bad.StartByte()), int(bad.EndByte())
	if end > len(src) || start >= end {
		return ast.Pos{}, false
	}
	for end > start && isSpace(src[end-1]) {
		end--
	}
	if end == start || bytes.IndexByte(src[start:end], '\n') >= 0 {
		return ast.Pos{}, false
	}
	rest := src[end:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	rest = bytes.TrimSpace(rest)
	if len(rest) > 0 && rest[0] != '#' {
		return ast.Pos{}, false
	}
	lineStart := bytes.LastIndexByte(src[:end], '\n') + 1
	return ast.Pos{Line: bytes.Count(src[:end], []byte("\n")) + 1, Col: end - lineStart}, true
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\f', '\r', '\n':
		return true
	}
	return false
}

// leadingIndent rejects source whose first statement is indented, which
// the grammar would otherwise accept.
func leadingIndent(src []byte, filename string) *SyntaxError {
	for i, line := range bytes.Split(src, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t\f")
		trimmed = bytes.TrimRight(trimmed, "\r")
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		indent := len(line) - len(bytes.TrimLeft(line, " \t\f"))
		if indent == 0 {
			return nil
		}
		return &SyntaxError{
			Filename: filename,
			Pos:      ast.Pos{Line: i + 1, Col: indent},
			Msg:      "unexpected indent",
			Text:     truncate(string(trimmed)),
		}
	}
	return nil
}

// firstError finds the first ERROR or MISSING node in source order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

func collectComments(n *sitter.Node, src []byte, out *[]ast.Comment) {
	if n.Type() == "comment" {
		*out = append(*out, ast.Comment{Pos: position(n), Text: n.Content(src)})
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collectComments(n.Child(i), src, out)
	}
}

func position(n *sitter.Node) ast.Pos {
	p := n.StartPoint()
	return ast.Pos{Line: int(p.Row) + 1, Col: int(p.Column)}
}

// converter turns tree-sitter nodes into ast nodes.
type converter struct {
	src []byte
}

func (c *converter) at(n *sitter.Node) ast.Base {
	return ast.Base{Pos: position(n)}
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

// named returns the named children of n, skipping comments and line
// continuations which tree-sitter attaches anywhere.
func (c *converter) named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		switch ch.Type() {
		case "comment", "line_continuation":
			continue
		}
		out = append(out, ch)
	}
	return out
}

// firstNamed returns the first named child of n of any of the given types.
func (c *converter) firstNamed(n *sitter.Node, types ...string) *sitter.Node {
	for _, ch := range c.named(n) {
		for _, t := range types {
			if ch.Type() == t {
				return ch
			}
		}
	}
	return nil
}

// hasToken reports whether n has a direct anonymous child with the given
// text, such as "async" or "from".
func (c *converter) hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if !ch.IsNamed() && ch.Type() == tok {
			return true
		}
	}
	return false
}

// generic converts the children of a construct without a dedicated ast
// node so that names inside it are still visible to the checker.
func (c *converter) generic(n *sitter.Node) []ast.Node {
	var out []ast.Node
	for _, ch := range c.named(n) {
		switch {
		case ch.Type() == "block":
			for _, s := range c.stmts(ch) {
				out = append(out, s)
			}
		case isStatement(ch.Type()):
			if s := c.stmt(ch); s != nil {
				out = append(out, s)
			}
		default:
			if e := c.expr(ch); e != nil {
				out = append(out, e)
			}
		}
	}
	return out
}
