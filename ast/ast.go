// Copyright © 2024 The ELPS authors

// Package ast declares the typed syntax tree consumed by the flakes checker.
//
// The tree mirrors the shape of Python's own ast module closely enough that
// the checker can reason about bindings, scopes and literals, while staying
// independent of the parser that produced it. Every node carries the
// position of its first character: Line is 1-based and Col is a 0-based byte
// offset, matching the col_offset convention of Python tooling.
package ast

import "fmt"

// Pos is a source position.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// IsValid reports whether the position was set.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// A Node is any node in the syntax tree.
type Node interface {
	Position() Pos
}

// Base carries the position shared by every node.
type Base struct {
	Pos Pos
}

// Position returns the start position of the node.
func (b *Base) Position() Pos { return b.Pos }

// SetPosition moves the node. Used to pin nodes parsed from a string
// literal to the literal's position.
func (b *Base) SetPosition(p Pos) { b.Pos = p }

// At is a convenience constructor for Base.
func At(line, col int) Base {
	return Base{Pos: Pos{Line: line, Col: col}}
}

// A Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// An Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Comment is a source comment, kept for suppression directives.
type Comment struct {
	Pos  Pos
	Text string // including the leading '#'
}

// Module is the root of a parsed source file.
type Module struct {
	Base
	Filename string
	Body     []Stmt
	Comments []Comment
}

// Docstring returns the leading string literal of a body, if any.
func Docstring(body []Stmt) (*Str, bool) {
	if len(body) == 0 {
		return nil, false
	}
	es, ok := body[0].(*ExprStmt)
	if !ok {
		return nil, false
	}
	s, ok := es.Value.(*Str)
	if !ok || s.Bytes {
		return nil, false
	}
	return s, true
}
