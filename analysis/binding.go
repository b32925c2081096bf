// Copyright © 2024 The ELPS authors

package analysis

import "github.com/luthersystems/flakes/ast"

// BindingKind classifies how a name was bound.
type BindingKind int

const (
	BindBuiltin    BindingKind = iota // predefined name
	BindImport                        // import or from-import
	BindArgument                      // function or lambda parameter
	BindAssignment                    // plain assignment, including walrus
	BindFunction                      // def
	BindClass                         // class
	BindGlobal                        // global or nonlocal declaration
	BindTarget                        // loop, unpacking or comprehension target
	BindAnnotation                    // annotated name without a value
)

func (k BindingKind) String() string {
	switch k {
	case BindBuiltin:
		return "builtin"
	case BindImport:
		return "import"
	case BindArgument:
		return "argument"
	case BindAssignment:
		return "assignment"
	case BindFunction:
		return "function"
	case BindClass:
		return "class"
	case BindGlobal:
		return "global"
	case BindTarget:
		return "target"
	case BindAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// Binding is a named fact about an identifier, held by exactly one scope.
type Binding struct {
	Name string
	Kind BindingKind
	Pos  ast.Pos  // translated to the file for doctest bindings
	Node ast.Node // nil for builtins

	// Used is set when a lookup resolves to the binding. UsedScope and
	// UsedPos record the last such lookup.
	Used      bool
	UsedScope ScopeID
	UsedPos   ast.Pos

	// FullName is the dotted module path of an import; for a from-import it
	// includes the imported name ("os.path.join").
	FullName string
	// Submodule marks "import a.b" which binds "a" but imports "a.b".
	Submodule bool
	// Alias marks an import renamed by an "as" clause.
	Alias bool
	// Future marks a __future__ import. Future imports are always used.
	Future bool
	// Star marks a "from m import *" pseudo-binding named "m.*".
	Star bool
	// Walrus marks an assignment made by an assignment expression.
	Walrus bool

	// Redefined lists the positions where a nested scope rebound this
	// import without using it first.
	Redefined []ast.Pos
}

func (b *Binding) markUsed(scope ScopeID, pos ast.Pos) {
	b.Used = true
	b.UsedScope = scope
	b.UsedPos = pos
}

func (b *Binding) isDefinition() bool {
	switch b.Kind {
	case BindImport, BindFunction, BindClass:
		return true
	}
	return false
}

// redefines reports whether binding b replacing other without other being
// used is worth a redefinition warning.
func (b *Binding) redefines(other *Binding) bool {
	if other == nil || other.Name != b.Name {
		return false
	}
	if b.Kind == BindImport {
		if b.Submodule || other.Submodule {
			if other.Kind == BindImport {
				return b.FullName == other.FullName
			}
		}
		return other.isDefinition()
	}
	if other.isDefinition() {
		return true
	}
	return b.isDefinition() && other.Kind == BindAssignment
}

// Source renders the binding for import messages, e.g. "os.path" or
// "os.path as p".
func (b *Binding) Source() string {
	if b.Kind != BindImport {
		return b.Name
	}
	if b.Star {
		return b.FullName + ".*"
	}
	if b.Submodule || !b.Alias {
		return b.FullName
	}
	return b.FullName + " as " + b.Name
}
