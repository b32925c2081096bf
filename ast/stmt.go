// Copyright © 2024 The ELPS authors

package ast

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*AnnAssign) stmtNode()   {}
func (*AugAssign) stmtNode()   {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*If) stmtNode()          {}
func (*With) stmtNode()        {}
func (*Raise) stmtNode()       {}
func (*Try) stmtNode()         {}
func (*Assert) stmtNode()      {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*ExprStmt) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*BadStmt) stmtNode()     {}

// FunctionDef is a def or async def statement.
type FunctionDef struct {
	Base
	Name       string
	Async      bool
	Decorators []Expr
	Params     *Params
	Returns    Expr // nil when unannotated
	Body       []Stmt
}

// ClassDef is a class statement.
type ClassDef struct {
	Base
	Name       string
	Decorators []Expr
	Bases      []Expr
	Keywords   []*Keyword
	Body       []Stmt
}

// Return is a return statement. Value is nil for a bare return.
type Return struct {
	Base
	Value Expr
}

// Delete is a del statement.
type Delete struct {
	Base
	Targets []Expr
}

// Assign is a plain assignment. Chained assignments such as a = b = 1
// produce several targets.
type Assign struct {
	Base
	Targets []Expr
	Value   Expr
}

// AnnAssign is an annotated assignment. Value is nil for a bare annotation.
type AnnAssign struct {
	Base
	Target     Expr
	Annotation Expr
	Value      Expr
}

// AugAssign is an augmented assignment such as x += 1.
type AugAssign struct {
	Base
	Target Expr
	Op     string
	Value  Expr
}

// For is a for or async for loop.
type For struct {
	Base
	Async  bool
	Target Expr
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
}

// While is a while loop.
type While struct {
	Base
	Test Expr
	Body []Stmt
	Else []Stmt
}

// If is an if statement. An elif chain is represented by a single nested
// If in Else.
type If struct {
	Base
	Test Expr
	Body []Stmt
	Else []Stmt
}

// WithItem is one context manager of a with statement.
type WithItem struct {
	Context Expr
	Vars    Expr // nil without "as"
}

// With is a with or async with statement.
type With struct {
	Base
	Async bool
	Items []*WithItem
	Body  []Stmt
}

// Raise is a raise statement.
type Raise struct {
	Base
	Exc   Expr
	Cause Expr
}

// ExceptHandler is one except clause of a try statement.
type ExceptHandler struct {
	Base
	Type Expr   // nil for a bare except
	Name string // empty without "as"
	Body []Stmt
}

// Try is a try statement.
type Try struct {
	Base
	Body     []Stmt
	Handlers []*ExceptHandler
	Else     []Stmt
	Finally  []Stmt
}

// Assert is an assert statement.
type Assert struct {
	Base
	Test Expr
	Msg  Expr
}

// Alias is an imported name with its optional local alias.
type Alias struct {
	Base
	Name   string // dotted name as written
	AsName string
}

// Import is an import statement.
type Import struct {
	Base
	Names []*Alias
}

// ImportFrom is a from ... import statement.
type ImportFrom struct {
	Base
	Module string // without leading dots
	Level  int    // number of leading dots
	Names  []*Alias
	Star   bool
}

// Global is a global declaration.
type Global struct {
	Base
	Names []string
}

// Nonlocal is a nonlocal declaration.
type Nonlocal struct {
	Base
	Names []string
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Base
	Value Expr
}

type Pass struct{ Base }

type Break struct{ Base }

type Continue struct{ Base }

// BadStmt stands in for a statement kind the checker has no model for,
// such as a match statement. Children holds whatever sub-nodes the parser
// could convert so that names inside are still visited.
type BadStmt struct {
	Base
	Kind     string
	Children []Node
}
