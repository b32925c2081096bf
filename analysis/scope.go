// Copyright © 2024 The ELPS authors

package analysis

import "github.com/luthersystems/flakes/ast"

// ScopeKind classifies the kind of scope.
type ScopeKind int

const (
	ScopeModule    ScopeKind = iota // file level
	ScopeFunction                   // def body
	ScopeClass                      // class body
	ScopeGenerator                  // comprehension or generator expression
	ScopeDoctest                    // examples of one docstring
	ScopeLambda                     // lambda body
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	case ScopeGenerator:
		return "generator"
	case ScopeDoctest:
		return "doctest"
	case ScopeLambda:
		return "lambda"
	default:
		return "unknown"
	}
}

// BehavesAsModule reports whether names bound in the scope are globals
// for code nested in it. True for the module and for doctest scopes.
func (k ScopeKind) BehavesAsModule() bool {
	return k == ScopeModule || k == ScopeDoctest
}

// IsFunction reports whether the scope is a function or lambda body.
func (k ScopeKind) IsFunction() bool {
	return k == ScopeFunction || k == ScopeLambda
}

// ScopeID indexes a scope in the arena of one analysis. Parent links are
// IDs so that dead scopes stay addressable after their body is done.
type ScopeID int

// NoScope is the parent of the outermost scope.
const NoScope ScopeID = -1

// Scope is a lexical namespace. Bindings keep the order in which their
// names were first bound.
type Scope struct {
	ID     ScopeID
	Kind   ScopeKind
	Parent ScopeID
	Node   ast.Node // the construct that introduced the scope

	// FuturesAllowed stays true while a __future__ import may still appear.
	FuturesAllowed bool
	// ImportStarred is set once a star import was bound in the scope.
	ImportStarred bool
	// UsesLocals is set when the body calls locals().
	UsesLocals bool

	names    []string
	bindings map[string]*Binding
	globals  map[string]bool
}

func newScope(id ScopeID, kind ScopeKind, parent ScopeID, node ast.Node) *Scope {
	return &Scope{
		ID:             id,
		Kind:           kind,
		Parent:         parent,
		Node:           node,
		FuturesAllowed: kind.BehavesAsModule(),
		bindings:       make(map[string]*Binding),
		globals:        make(map[string]bool),
	}
}

// alwaysUsed are function locals conventionally read by debugging tools.
var alwaysUsed = []string{"__tracebackhide__", "__traceback_info__", "__traceback_supplement__"}

// Get returns the binding for name in this scope only.
func (s *Scope) Get(name string) (*Binding, bool) {
	b, ok := s.bindings[name]
	return b, ok
}

// Contains reports whether name is bound in this scope.
func (s *Scope) Contains(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

// Set binds b.Name, replacing any previous binding. A replaced name keeps
// its original position in the binding order.
func (s *Scope) Set(b *Binding) {
	if _, ok := s.bindings[b.Name]; !ok {
		s.names = append(s.names, b.Name)
	}
	s.bindings[b.Name] = b
}

// Delete unbinds name and returns the removed binding.
func (s *Scope) Delete(name string) (*Binding, bool) {
	b, ok := s.bindings[name]
	if !ok {
		return nil, false
	}
	delete(s.bindings, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i:i], s.names[i+1:]...)
			break
		}
	}
	return b, true
}

// Names returns the bound names in binding order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Bindings returns the bindings in binding order.
func (s *Scope) Bindings() []*Binding {
	out := make([]*Binding, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.bindings[name])
	}
	return out
}

// Len is the number of bound names.
func (s *Scope) Len() int {
	return len(s.names)
}

// IsGlobal reports whether name was declared global or nonlocal here.
func (s *Scope) IsGlobal(name string) bool {
	return s.globals[name]
}

// UnusedAssignments returns the plain assignments nothing read, skipping
// names declared global and scopes that call locals().
func (s *Scope) UnusedAssignments() []*Binding {
	if s.UsesLocals {
		return nil
	}
	var out []*Binding
	for _, b := range s.Bindings() {
		if b.Used || b.Kind != BindAssignment || b.Walrus || b.Name == "_" || s.globals[b.Name] {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Scopes is the arena holding every scope of one analysis, indexed by
// ScopeID.
type Scopes []*Scope

// Get returns the scope with the given id, or nil.
func (ss Scopes) Get(id ScopeID) *Scope {
	if id < 0 || int(id) >= len(ss) {
		return nil
	}
	return ss[id]
}

// Chain returns the scopes from the outermost ancestor down to id.
func (ss Scopes) Chain(id ScopeID) []*Scope {
	var out []*Scope
	for s := ss.Get(id); s != nil; s = ss.Get(s.Parent) {
		out = append(out, s)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// OfKind returns the scopes of kind k in creation order.
func (ss Scopes) OfKind(k ScopeKind) []*Scope {
	var out []*Scope
	for _, s := range ss {
		if s.Kind == k {
			out = append(out, s)
		}
	}
	return out
}
