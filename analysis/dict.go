// Copyright © 2024 The ELPS authors

package analysis

import (
	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/literal"
)

// scopeResolver answers builtin questions for the classifier from the
// live scope chain without marking anything used.
type scopeResolver struct {
	c *Checker
}

func (r scopeResolver) IsBuiltin(name string) bool {
	b, _ := r.c.lookup(name)
	return b != nil && b.Kind == BindBuiltin
}

// dict visits a dict display and then reports repeated and unhashable keys.
func (c *Checker) dict(n *ast.Dict) {
	for i := range n.Keys {
		c.handleNode(n.Keys[i], n)
		if i < len(n.Values) {
			c.handleNode(n.Values[i], n)
		}
	}
	for _, f := range c.classify.Duplicates(n.Keys, n.Values, scopeResolver{c}) {
		m := &Message{Pos: c.pos(f.Key), Name: literal.Repr(f.Key)}
		switch f.Kind {
		case literal.RepeatedLiteral:
			m.Kind = MultiValueRepeatedKeyLiteral
		case literal.RepeatedVariable:
			m.Kind = MultiValueRepeatedKeyVariable
		case literal.UnhashableKey:
			m.Kind = UnhashableTypeError
		default:
			continue
		}
		c.reportAt(m)
	}
}
