// Copyright © 2024 The ELPS authors

package ast

import "math/big"

func (*Name) exprNode()      {}
func (*Attribute) exprNode() {}
func (*Subscript) exprNode() {}
func (*Slice) exprNode()     {}
func (*Call) exprNode()      {}
func (*Starred) exprNode()   {}
func (*List) exprNode()      {}
func (*Tuple) exprNode()     {}
func (*Set) exprNode()       {}
func (*Dict) exprNode()      {}
func (*Comp) exprNode()      {}
func (*Lambda) exprNode()    {}
func (*IfExp) exprNode()     {}
func (*NamedExpr) exprNode() {}
func (*BinOp) exprNode()     {}
func (*BoolOp) exprNode()    {}
func (*UnaryOp) exprNode()   {}
func (*Compare) exprNode()   {}
func (*Await) exprNode()     {}
func (*Yield) exprNode()     {}
func (*Str) exprNode()       {}
func (*JoinedStr) exprNode() {}
func (*Num) exprNode()       {}
func (*Constant) exprNode()  {}
func (*BadExpr) exprNode()   {}

// Name is an identifier reference or binding target.
type Name struct {
	Base
	ID string
}

// Attribute is a dotted attribute access.
type Attribute struct {
	Base
	Value Expr
	Attr  string
}

// Subscript is an indexing expression. Index holds one element per
// comma-separated subscript.
type Subscript struct {
	Base
	Value Expr
	Index []Expr
}

// Slice is a lower:upper:step subscript. Any part may be nil.
type Slice struct {
	Base
	Lower Expr
	Upper Expr
	Step  Expr
}

// Keyword is a keyword argument. Arg is empty for **kwargs.
type Keyword struct {
	Base
	Arg   string
	Value Expr
}

// Call is a call expression.
type Call struct {
	Base
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

// Starred is *value in a call, display or assignment target.
type Starred struct {
	Base
	Value Expr
}

type List struct {
	Base
	Elts []Expr
}

type Tuple struct {
	Base
	Elts []Expr
}

type Set struct {
	Base
	Elts []Expr
}

// Dict is a dict display. A nil key marks a **mapping unpacking whose
// mapping is the corresponding value.
type Dict struct {
	Base
	Keys   []Expr
	Values []Expr
}

// CompKind distinguishes the four comprehension forms.
type CompKind int

const (
	ListComp CompKind = iota
	SetComp
	DictComp
	GeneratorExp
)

func (k CompKind) String() string {
	switch k {
	case ListComp:
		return "list comprehension"
	case SetComp:
		return "set comprehension"
	case DictComp:
		return "dict comprehension"
	case GeneratorExp:
		return "generator expression"
	default:
		return "comprehension"
	}
}

// Comprehension is one for clause with its conditions.
type Comprehension struct {
	Async  bool
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

// Comp is a list, set or dict comprehension or a generator expression.
// For dict comprehensions Elt is the key and Value the value.
type Comp struct {
	Base
	Kind       CompKind
	Elt        Expr
	Value      Expr
	Generators []*Comprehension
}

// Lambda is a lambda expression.
type Lambda struct {
	Base
	Params *Params
	Body   Expr
}

// IfExp is a conditional expression: Body if Test else Else.
type IfExp struct {
	Base
	Test Expr
	Body Expr
	Else Expr
}

// NamedExpr is an assignment expression (target := value).
type NamedExpr struct {
	Base
	Target *Name
	Value  Expr
}

type BinOp struct {
	Base
	Left  Expr
	Op    string
	Right Expr
}

type BoolOp struct {
	Base
	Op     string
	Values []Expr
}

type UnaryOp struct {
	Base
	Op      string
	Operand Expr
}

// Compare is a possibly chained comparison.
type Compare struct {
	Base
	Left        Expr
	Ops         []string
	Comparators []Expr
}

type Await struct {
	Base
	Value Expr
}

// Yield is a yield or yield from expression.
type Yield struct {
	Base
	Value Expr
	From  bool
}

// Str is a text or bytes literal after escape processing and implicit
// concatenation. Bytes literals hold their raw byte values in Value.
type Str struct {
	Base
	Value string
	Bytes bool
}

// JoinedStr is an f-string. Values holds the interpolated expressions.
type JoinedStr struct {
	Base
	Values []Expr
}

// NumKind classifies numeric literals.
type NumKind int

const (
	Int NumKind = iota
	Float
	Imaginary
)

// Num is a numeric literal. Int literals set IntValue; float literals set
// FloatValue; imaginary literals set FloatValue to the imaginary part.
type Num struct {
	Base
	Kind       NumKind
	Text       string
	IntValue   *big.Int
	FloatValue float64
}

// ConstKind enumerates the keyword constants.
type ConstKind int

const (
	None ConstKind = iota
	True
	False
	Ellipsis
)

func (k ConstKind) String() string {
	switch k {
	case None:
		return "None"
	case True:
		return "True"
	case False:
		return "False"
	case Ellipsis:
		return "..."
	default:
		return "?"
	}
}

// Constant is None, True, False or the ... literal.
type Constant struct {
	Base
	Kind ConstKind
}

// BadExpr stands in for an expression the checker has no model for.
type BadExpr struct {
	Base
	Kind     string
	Children []Node
}

// ParamKind classifies function parameters.
type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamVarArgs
	ParamKeywordOnly
	ParamVarKeywords
)

// Param is a single function or lambda parameter.
type Param struct {
	Base
	Name       string
	Kind       ParamKind
	Annotation Expr
	Default    Expr
}

// Params is a parameter list.
type Params struct {
	List []*Param
}

// Defaults returns the default value expressions in order.
func (p *Params) Defaults() []Expr {
	if p == nil {
		return nil
	}
	var out []Expr
	for _, a := range p.List {
		if a.Default != nil {
			out = append(out, a.Default)
		}
	}
	return out
}

// Annotations returns the parameter annotations in order.
func (p *Params) Annotations() []Expr {
	if p == nil {
		return nil
	}
	var out []Expr
	for _, a := range p.List {
		if a.Annotation != nil {
			out = append(out, a.Annotation)
		}
	}
	return out
}
