// Copyright © 2024 The ELPS authors

package literal

import (
	"sort"
	"strconv"

	"github.com/luthersystems/flakes/ast"
)

// FindingKind identifies the problem found with a dict key.
type FindingKind int

const (
	RepeatedLiteral FindingKind = iota
	RepeatedVariable
	UnhashableKey
)

func (k FindingKind) String() string {
	switch k {
	case RepeatedLiteral:
		return "repeated-literal"
	case RepeatedVariable:
		return "repeated-variable"
	case UnhashableKey:
		return "unhashable"
	default:
		return "unknown"
	}
}

// Finding is a single reported key occurrence.
type Finding struct {
	Kind  FindingKind
	Index int // position of the key in the display
	Key   ast.Expr
}

// Duplicates examines the keys and values of one dict display. A nil key
// marks a **mapping unpacking and is ignored.
//
// Every unhashable key is reported on its own. Keys with equal canonical
// forms are grouped; a group is reported, once per occurrence, when at
// least one of its values differs from all the others. Values whose runtime
// value is unknown are treated as distinct from everything.
func (c *Classifier) Duplicates(keys, values []ast.Expr, r Resolver) []Finding {
	type group struct {
		category Category
		indices  []int
	}
	var findings []Finding
	var order []string
	groups := make(map[string]*group)
	for i, key := range keys {
		if key == nil {
			continue
		}
		k := c.Classify(key, r)
		switch k.Category {
		case Unhashable:
			findings = append(findings, Finding{Kind: UnhashableKey, Index: i, Key: key})
			continue
		case Unknown:
			continue
		}
		id := k.Category.String() + "\x00" + k.Canonical
		g, ok := groups[id]
		if !ok {
			g = &group{category: k.Category}
			groups[id] = g
			order = append(order, id)
		}
		g.indices = append(g.indices, i)
	}
	for _, id := range order {
		g := groups[id]
		if len(g.indices) < 2 || !c.differentValues(values, g.indices, r) {
			continue
		}
		kind := RepeatedLiteral
		if g.category == Variable {
			kind = RepeatedVariable
		}
		for _, i := range g.indices {
			findings = append(findings, Finding{Kind: kind, Index: i, Key: keys[i]})
		}
	}
	sort.SliceStable(findings, func(a, b int) bool {
		return findings[a].Index < findings[b].Index
	})
	return findings
}

// differentValues reports whether some value of the group occurs exactly
// once among the group's values.
func (c *Classifier) differentValues(values []ast.Expr, indices []int, r Resolver) bool {
	counts := make(map[string]int)
	for _, i := range indices {
		var v ast.Expr
		if i < len(values) {
			v = values[i]
		}
		counts[c.valueID(v, i, r)]++
	}
	for _, n := range counts {
		if n == 1 {
			return true
		}
	}
	return false
}

func (c *Classifier) valueID(v ast.Expr, index int, r Resolver) string {
	if v != nil {
		k := c.Classify(v, r)
		if k.Comparable() {
			return k.Category.String() + "\x00" + k.Canonical
		}
	}
	return "#" + strconv.Itoa(index)
}
