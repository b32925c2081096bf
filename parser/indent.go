// Copyright © 2024 The ELPS authors

package parser

import (
	"bytes"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/luthersystems/flakes/ast"
)

// compound lists the statements and clauses that must own an indented
// block after their colon.
var compound = map[string]bool{
	"if_statement":        true,
	"elif_clause":         true,
	"else_clause":         true,
	"for_statement":       true,
	"while_statement":     true,
	"try_statement":       true,
	"except_clause":       true,
	"except_group_clause": true,
	"finally_clause":      true,
	"with_statement":      true,
	"function_definition": true,
	"class_definition":    true,
	"match_statement":     true,
	"case_clause":         true,
}

// checkIndentation finds indentation errors that the grammar recovers
// from without an ERROR node: a compound statement with an empty body,
// and a statement starting its line at a column other than its block's.
func checkIndentation(root *sitter.Node, src []byte, filename string) *SyntaxError {
	ic := &indentChecker{src: src, filename: filename}
	return ic.block(root, 0)
}

type indentChecker struct {
	src      []byte
	filename string
}

// block checks the statements of a module or block. A negative col takes
// the column of the first statement that starts a line.
func (ic *indentChecker) block(n *sitter.Node, col int) *SyntaxError {
	inner := -1
	for _, st := range codeChildren(n) {
		if c, ok := ic.lineIndent(st); ok {
			if col < 0 {
				col = c
			}
			switch {
			case c > col && c < inner:
				// Dedented out of the previous body, but not far enough.
				return ic.errorAt(st, "unindent does not match any outer indentation level")
			case c > col:
				return ic.errorAt(st, "unexpected indent")
			case c < col:
				return ic.errorAt(st, "unindent does not match any outer indentation level")
			}
		}
		if se := ic.nested(st); se != nil {
			return se
		}
		inner = ic.lastBodyIndent(st)
	}
	return nil
}

// lastBodyIndent returns the column of the last block that n ends with,
// or -1 when n has no body.
func (ic *indentChecker) lastBodyIndent(n *sitter.Node) int {
	for i := int(n.ChildCount()) - 1; i >= 0; i-- {
		ch := n.Child(i)
		if ch == nil || !ch.IsNamed() || ch.Type() == "comment" {
			continue
		}
		if ch.Type() != "block" {
			return ic.lastBodyIndent(ch)
		}
		for _, st := range codeChildren(ch) {
			if c, ok := ic.lineIndent(st); ok {
				return c
			}
		}
		return -1
	}
	return -1
}

// nested checks the blocks below n.
func (ic *indentChecker) nested(n *sitter.Node) *SyntaxError {
	if compound[n.Type()] {
		var body *sitter.Node
		for i := 0; i < int(n.ChildCount()); i++ {
			if ch := n.Child(i); ch != nil && ch.Type() == "block" {
				body = ch
			}
		}
		if body == nil || len(codeChildren(body)) == 0 {
			return ic.emptyBody(n)
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch == nil {
			continue
		}
		if ch.Type() == "block" {
			if se := ic.block(ch, -1); se != nil {
				return se
			}
			continue
		}
		if se := ic.nested(ch); se != nil {
			return se
		}
	}
	return nil
}

// lineIndent returns the column of n when only whitespace precedes it on
// its line.
func (ic *indentChecker) lineIndent(n *sitter.Node) (int, bool) {
	start := int(n.StartByte())
	if start > len(ic.src) {
		return 0, false
	}
	lineStart := bytes.LastIndexByte(ic.src[:start], '\n') + 1
	prefix := ic.src[lineStart:start]
	if len(bytes.TrimLeft(prefix, " \t\f")) != 0 {
		return 0, false
	}
	return len(prefix), true
}

// emptyBody reports a missing block at the first code line after the
// header's colon, as Python does.
func (ic *indentChecker) emptyBody(n *sitter.Node) *SyntaxError {
	row := int(n.StartPoint().Row)
	for i := 0; i < int(n.ChildCount()); i++ {
		if ch := n.Child(i); ch != nil && !ch.IsNamed() && ch.Type() == ":" {
			row = int(ch.EndPoint().Row)
		}
	}
	lines := bytes.Split(ic.src, []byte("\n"))
	for i := row + 1; i < len(lines); i++ {
		line := bytes.TrimRight(lines[i], "\r")
		code := bytes.TrimLeft(line, " \t\f")
		if len(code) == 0 || code[0] == '#' {
			continue
		}
		return &SyntaxError{
			Filename: ic.filename,
			Pos:      ast.Pos{Line: i + 1, Col: len(line) - len(code)},
			Msg:      "expected an indented block",
			Text:     truncate(string(code)),
		}
	}
	return &SyntaxError{
		Filename: ic.filename,
		Pos:      position(n),
		Msg:      "expected an indented block",
	}
}

func (ic *indentChecker) errorAt(n *sitter.Node, msg string) *SyntaxError {
	return &SyntaxError{
		Filename: ic.filename,
		Pos:      position(n),
		Msg:      msg,
		Text:     truncate(n.Content(ic.src)),
	}
}

// codeChildren returns the named children of n other than comments.
func codeChildren(n *sitter.Node) []*sitter.Node {
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

func truncate(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
