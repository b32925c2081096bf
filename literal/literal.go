// Copyright © 2024 The ELPS authors

// Package literal classifies dict display keys for duplicate detection.
//
// A key expression is hashable literal data, a variable reference, an
// unhashable structural value, or something whose runtime value cannot be
// known without executing the program. Literal keys get a canonical string
// in which values that compare equal at runtime (1, 1.0, True) share the
// same representation. Nothing is evaluated beyond a fixed set of
// deterministic builtins applied to constant arguments.
package literal

import (
	"sort"
	"strconv"
	"strings"

	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/astutil"
)

// Category is the classification of a key expression.
type Category int

const (
	Unknown Category = iota
	Unhashable
	Value
	Variable
)

func (c Category) String() string {
	switch c {
	case Unhashable:
		return "unhashable"
	case Value:
		return "literal"
	case Variable:
		return "variable"
	default:
		return "unknown"
	}
}

// Key is the result of classifying an expression. Canonical is only
// meaningful for Value and Variable keys.
type Key struct {
	Category  Category
	Canonical string
}

// Comparable reports whether the key participates in equality checks.
func (k Key) Comparable() bool {
	return k.Category == Value || k.Category == Variable
}

// Resolver answers whether a name refers to a builtin at the point the
// expression appears, i.e. it is a builtin name not shadowed by a binding.
type Resolver interface {
	IsBuiltin(name string) bool
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) bool

func (f ResolverFunc) IsBuiltin(name string) bool { return f(name) }

// DefaultPureBuiltins are the builtins whose result is fully determined by
// constant arguments and which have no side effects.
var DefaultPureBuiltins = []string{
	"abs", "all", "any", "ascii", "bin", "bool", "bytes", "callable",
	"chr", "complex", "divmod", "float", "format", "frozenset", "hash",
	"hex", "id", "int", "len", "max", "min", "oct", "ord", "pow", "range",
	"repr", "round", "str", "sum", "tuple", "type",
}

// UnhashableConstructors are the builtins that always build an unhashable
// value, regardless of their arguments.
var UnhashableConstructors = []string{"bytearray", "dict", "list", "set", "slice"}

// Options tune classification.
type Options struct {
	// BytesEqualText makes ASCII bytes literals equal to the text literal
	// with the same characters, as in Python 2. By default bytes and text
	// never compare equal.
	BytesEqualText bool
	// PureBuiltins replaces DefaultPureBuiltins when non-nil.
	PureBuiltins []string
	// ExtraPureBuiltins extends the pure builtin list.
	ExtraPureBuiltins []string
}

// Classifier classifies expressions according to its options.
type Classifier struct {
	opts       Options
	pure       map[string]bool
	unhashable map[string]bool
}

// New returns a Classifier for opts.
func New(opts Options) *Classifier {
	c := &Classifier{
		opts:       opts,
		pure:       make(map[string]bool),
		unhashable: make(map[string]bool),
	}
	pure := opts.PureBuiltins
	if pure == nil {
		pure = DefaultPureBuiltins
	}
	for _, name := range pure {
		c.pure[name] = true
	}
	for _, name := range opts.ExtraPureBuiltins {
		c.pure[name] = true
	}
	for _, name := range UnhashableConstructors {
		c.unhashable[name] = true
	}
	return c
}

// IsPure reports whether name is on the deterministic builtin list.
func (c *Classifier) IsPure(name string) bool {
	return c.pure[name]
}

// Classify classifies a single key expression.
func (c *Classifier) Classify(e ast.Expr, r Resolver) Key {
	switch x := e.(type) {
	case *ast.List, *ast.Set, *ast.Dict:
		return Key{Category: Unhashable}
	case *ast.Comp:
		if x.Kind == ast.GeneratorExp {
			return Key{}
		}
		return Key{Category: Unhashable}
	case *ast.Num:
		n, ok := numberOf(x)
		if !ok {
			return Key{}
		}
		return c.numberKey(n)
	case *ast.Str:
		return Key{Category: Value, Canonical: c.strCanonical(x.Value, x.Bytes)}
	case *ast.Constant:
		switch x.Kind {
		case ast.True:
			return c.numberKey(intNumber(1))
		case ast.False:
			return c.numberKey(intNumber(0))
		case ast.None:
			return Key{Category: Value, Canonical: "None"}
		default:
			return Key{Category: Value, Canonical: "Ellipsis"}
		}
	case *ast.Name:
		if r != nil && r.IsBuiltin(x.ID) {
			return builtinNameKey(x.ID)
		}
		return Key{Category: Variable, Canonical: x.ID}
	case *ast.UnaryOp:
		n, ok := c.number(x)
		if !ok {
			return Key{}
		}
		return c.numberKey(n)
	case *ast.Tuple:
		return c.tupleKey(x.Elts, r)
	case *ast.Call:
		return c.callKey(x, r)
	}
	return Key{}
}

func builtinNameKey(name string) Key {
	switch name {
	case "Ellipsis":
		return Key{Category: Value, Canonical: "Ellipsis"}
	case "None":
		return Key{Category: Value, Canonical: "None"}
	case "True":
		return Key{Category: Value, Canonical: numberCanonical(intNumber(1))}
	case "False":
		return Key{Category: Value, Canonical: numberCanonical(intNumber(0))}
	}
	return Key{Category: Value, Canonical: "builtin:" + name}
}

func (c *Classifier) numberKey(n number) Key {
	if n.isNaN() {
		// NaN never equals itself.
		return Key{}
	}
	return Key{Category: Value, Canonical: numberCanonical(n)}
}

func (c *Classifier) strCanonical(v string, isBytes bool) string {
	if !isBytes || (c.opts.BytesEqualText && isASCII(v)) {
		return "s:" + strconv.Quote(v)
	}
	return "b:" + strconv.Quote(v)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func (c *Classifier) tupleKey(elts []ast.Expr, r Resolver) Key {
	parts := make([]string, 0, len(elts))
	for _, elt := range elts {
		if _, ok := elt.(*ast.Starred); ok {
			return Key{}
		}
		k := c.Classify(elt, r)
		switch k.Category {
		case Unhashable:
			return Key{Category: Unhashable}
		case Unknown:
			return Key{}
		case Variable:
			parts = append(parts, "v:"+k.Canonical)
		default:
			parts = append(parts, k.Canonical)
		}
	}
	return Key{Category: Value, Canonical: "(" + strings.Join(parts, ",") + ")"}
}

func (c *Classifier) callKey(call *ast.Call, r Resolver) Key {
	name := astutil.CalleeName(call)
	if name == "" || r == nil || !r.IsBuiltin(name) {
		return Key{}
	}
	if c.unhashable[name] {
		return Key{Category: Unhashable}
	}
	if !c.pure[name] {
		return Key{}
	}
	args := make([]string, 0, astutil.ArgCount(call))
	for _, arg := range call.Args {
		s, ok := c.constant(arg, r)
		if !ok {
			return Key{}
		}
		args = append(args, s)
	}
	for _, kw := range call.Keywords {
		if kw.Arg == "" {
			return Key{}
		}
		s, ok := c.constant(kw.Value, r)
		if !ok {
			return Key{}
		}
		args = append(args, kw.Arg+"="+s)
	}
	switch v, out := c.evalCall(name, call, r); out {
	case folded:
		return c.valueKey(v)
	case raises:
		return Key{}
	}
	return Key{Category: Value, Canonical: name + "(" + strings.Join(args, ",") + ")"}
}

// constant returns the canonical form of a constant call argument. Displays
// of constants are accepted so that reducers such as len([1]) qualify.
func (c *Classifier) constant(e ast.Expr, r Resolver) (string, bool) {
	switch x := e.(type) {
	case *ast.List:
		return c.display("[", "]", x.Elts, false, r)
	case *ast.Tuple:
		return c.display("(", ")", x.Elts, false, r)
	case *ast.Set:
		return c.display("{", "}", x.Elts, true, r)
	case *ast.Dict:
		parts := make([]string, 0, len(x.Keys))
		for i, key := range x.Keys {
			if key == nil {
				return "", false
			}
			ks, ok := c.constant(key, r)
			if !ok {
				return "", false
			}
			vs, ok := c.constant(x.Values[i], r)
			if !ok {
				return "", false
			}
			parts = append(parts, ks+":"+vs)
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ",") + "}", true
	}
	k := c.Classify(e, r)
	if k.Category != Value {
		return "", false
	}
	return k.Canonical, true
}

func (c *Classifier) display(open, close string, elts []ast.Expr, unordered bool, r Resolver) (string, bool) {
	parts := make([]string, 0, len(elts))
	for _, elt := range elts {
		s, ok := c.constant(elt, r)
		if !ok {
			return "", false
		}
		parts = append(parts, s)
	}
	if unordered {
		sort.Strings(parts)
	}
	return open + strings.Join(parts, ",") + close, true
}
