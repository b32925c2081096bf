// Copyright © 2024 The ELPS authors

package analysis

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/doctest"
	"github.com/luthersystems/flakes/literal"
)

// traversal is the state of the walk that a deferred check replaces with
// its own and that RunImmediate restores afterwards.
type traversal struct {
	stack  []ScopeID
	offset doctest.Offset
	// depth counts handleNode frames of the current run. Statements seen
	// at depth zero are top level for the future-import rule.
	depth int
	// handlers holds, per enclosing try body, the exception names caught.
	handlers [][]string
	// annotation is set while visiting a type annotation; postponed is set
	// when the annotation is evaluated lazily (string or future import).
	annotation bool
	postponed  bool
}

func freshTraversal(stack []ScopeID, offset doctest.Offset) traversal {
	return traversal{
		stack:    append([]ScopeID(nil), stack...),
		offset:   offset,
		handlers: [][]string{nil},
	}
}

type treeEntry struct {
	parent ast.Node
	depth  int
}

// Checker walks one module, building scopes and collecting messages. A
// Checker is not safe for concurrent use; Analyze creates one per call.
type Checker struct {
	ctx      context.Context
	cfg      *Config
	log      logrus.FieldLogger
	classify *literal.Classifier
	module   *ast.Module

	scopes Scopes
	dead   []ScopeID
	traversal
	deferred queue
	ran      int

	messages []*Message
	tree     map[ast.Node]treeEntry
	// unsupported records the construct kinds already reported.
	unsupported       map[string]bool
	futureAnnotations bool
}

// NewChecker returns a checker for mod with the module scope pushed and
// builtins bound. Nothing is visited until Run is called.
func NewChecker(ctx context.Context, mod *ast.Module, cfg *Config) *Checker {
	if cfg == nil {
		cfg = &Config{}
	}
	c := &Checker{
		ctx:         ctx,
		cfg:         cfg,
		log:         cfg.logger(),
		classify:    literal.New(cfg.Literal),
		module:      mod,
		tree:        make(map[ast.Node]treeEntry),
		unsupported: make(map[string]bool),
		traversal:   freshTraversal(nil, doctest.Offset{}),
	}
	c.pushScope(ScopeModule, mod)
	module := c.scope()
	for _, name := range builtinNames(cfg.Builtins) {
		module.Set(&Binding{Name: name, Kind: BindBuiltin})
	}
	return c
}

// Run visits the module body and drains every deferred check.
func (c *Checker) Run() {
	for _, stmt := range c.module.Body {
		if c.ctx.Err() != nil {
			return
		}
		c.handleNode(stmt, c.module)
	}
	top := c.traversal
	c.Drain()
	c.traversal = top
	c.popScope()
}

// Messages returns the messages reported so far in discovery order.
func (c *Checker) Messages() []*Message {
	return c.messages
}

// Scopes returns every scope created so far.
func (c *Checker) Scopes() Scopes {
	return c.scopes
}

func (c *Checker) filename() string {
	if c.cfg.Filename != "" {
		return c.cfg.Filename
	}
	return c.module.Filename
}

func (c *Checker) scope() *Scope {
	return c.scopes[c.stack[len(c.stack)-1]]
}

func (c *Checker) chainSnapshot() []ScopeID {
	return append([]ScopeID(nil), c.stack...)
}

func (c *Checker) pushScope(kind ScopeKind, node ast.Node) *Scope {
	parent := NoScope
	if len(c.stack) > 0 {
		parent = c.stack[len(c.stack)-1]
	}
	s := newScope(ScopeID(len(c.scopes)), kind, parent, node)
	if kind == ScopeFunction {
		for _, name := range alwaysUsed {
			s.globals[name] = true
		}
	}
	c.scopes = append(c.scopes, s)
	c.stack = append(c.stack, s.ID)
	c.log.WithField("scope", kind).WithField("id", s.ID).Debug("push scope")
	return s
}

func (c *Checker) popScope() {
	id := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.dead = append(c.dead, id)
	c.log.WithField("scope", c.scopes[id].Kind).WithField("id", id).Debug("pop scope")
}

func (c *Checker) inDoctest() bool {
	for _, id := range c.stack {
		if c.scopes[id].Kind == ScopeDoctest {
			return true
		}
	}
	return false
}

// globalScope is the innermost scope whose names are globals.
func (c *Checker) globalScope() (int, *Scope) {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if s := c.scopes[c.stack[i]]; s.Kind.BehavesAsModule() {
			return i, s
		}
	}
	return 0, c.scopes[c.stack[0]]
}

func (c *Checker) futuresAllowed() bool {
	for _, id := range c.stack {
		if !c.scopes[id].Kind.BehavesAsModule() {
			return false
		}
	}
	return c.scope().FuturesAllowed
}

func (c *Checker) disallowFutures() {
	if s := c.scope(); s.Kind.BehavesAsModule() {
		s.FuturesAllowed = false
	}
}

func (c *Checker) pos(n ast.Node) ast.Pos {
	return c.offset.Translate(n.Position())
}

func (c *Checker) report(kind MessageKind, at ast.Node, name string) *Message {
	return c.reportAt(&Message{Kind: kind, Pos: c.pos(at), Name: name})
}

func (c *Checker) reportAt(m *Message) *Message {
	c.messages = append(c.messages, m)
	return m
}

// handleNode records node in the parent tree and dispatches it.
func (c *Checker) handleNode(node, parent ast.Node) {
	if isNil(node) {
		return
	}
	if c.depth == 0 && c.futuresAllowed() && !isFutureFriendly(node) {
		c.disallowFutures()
	}
	c.enter(node, parent)
	c.depth++
	c.dispatch(node)
	c.depth--
}

func (c *Checker) enter(node, parent ast.Node) {
	depth := 1
	if e, ok := c.tree[parent]; ok {
		depth = e.depth + 1
	}
	c.tree[node] = treeEntry{parent: parent, depth: depth}
}

func (c *Checker) parentOf(n ast.Node) (ast.Node, bool) {
	e, ok := c.tree[n]
	if !ok {
		return nil, false
	}
	return e.parent, true
}

func isFutureFriendly(n ast.Node) bool {
	switch x := n.(type) {
	case *ast.ImportFrom:
		return true
	case *ast.ExprStmt:
		s, ok := x.Value.(*ast.Str)
		return ok && !s.Bytes
	}
	return false
}

func (c *Checker) handleStmts(body []ast.Stmt, parent ast.Node) {
	for _, s := range body {
		c.handleNode(s, parent)
	}
}

func (c *Checker) handleExprs(es []ast.Expr, parent ast.Node) {
	for _, e := range es {
		c.handleNode(e, parent)
	}
}

// commonAncestor returns the deepest node that has both l and r below it,
// stopping (with nil) when stop is reached.
func (c *Checker) commonAncestor(l, r, stop ast.Node) ast.Node {
	for {
		if l == stop || r == stop {
			return nil
		}
		le, lok := c.tree[l]
		re, rok := c.tree[r]
		if !lok || !rok {
			return nil
		}
		if l == r {
			return l
		}
		switch {
		case le.depth > re.depth:
			l = le.parent
		case le.depth < re.depth:
			r = re.parent
		default:
			l, r = le.parent, re.parent
		}
	}
}

func (c *Checker) descendantOf(n ast.Node, ancestors []ast.Node, stop ast.Node) bool {
	for _, a := range ancestors {
		if c.commonAncestor(n, a, stop) != nil {
			return true
		}
	}
	return false
}

// differentForks reports whether l and r sit on mutually exclusive
// branches of the same if, try or match statement.
func (c *Checker) differentForks(l, r ast.Node) bool {
	if isNil(l) || isNil(r) {
		return false
	}
	ancestor := c.commonAncestor(l, r, c.module)
	for _, items := range alternatives(ancestor) {
		if c.descendantOf(l, items, ancestor) != c.descendantOf(r, items, ancestor) {
			return true
		}
	}
	return false
}

func alternatives(n ast.Node) [][]ast.Node {
	switch x := n.(type) {
	case *ast.If:
		return [][]ast.Node{stmtNodes(x.Body)}
	case *ast.Try:
		out := [][]ast.Node{append(stmtNodes(x.Body), stmtNodes(x.Else)...)}
		for _, h := range x.Handlers {
			out = append(out, []ast.Node{h})
		}
		return out
	case *ast.BadStmt:
		if x.Kind != "match_statement" {
			return nil
		}
		var out [][]ast.Node
		for _, ch := range x.Children {
			if cc, ok := ch.(*ast.BadStmt); ok && cc.Kind == "case_clause" {
				out = append(out, []ast.Node{cc})
			}
		}
		return out
	}
	return nil
}

func stmtNodes(body []ast.Stmt) []ast.Node {
	out := make([]ast.Node, len(body))
	for i, s := range body {
		out[i] = s
	}
	return out
}

// lookup finds the binding name resolves to from the current scope
// without marking anything used.
func (c *Checker) lookup(name string) (*Binding, *Scope) {
	cur := c.stack[len(c.stack)-1]
	canAccessClass := false
	for i := len(c.stack) - 1; i >= 0; i-- {
		s := c.scopes[c.stack[i]]
		if s.Kind == ScopeClass && s.ID != cur && !canAccessClass {
			continue
		}
		canAccessClass = s.Kind == ScopeGenerator
		if b, ok := s.Get(name); ok {
			if b.Kind == BindAnnotation && !c.postponed {
				continue
			}
			return b, s
		}
	}
	return nil, nil
}

// handleLoad resolves a read of name at node, marking the binding used or
// reporting it undefined.
func (c *Checker) handleLoad(name string, node ast.Node) {
	cur := c.stack[len(c.stack)-1]
	at := c.pos(node)
	canAccessClass := false
	importStarred := false
	for i := len(c.stack) - 1; i >= 0; i-- {
		s := c.scopes[c.stack[i]]
		if s.Kind == ScopeClass && s.ID != cur && !canAccessClass {
			continue
		}
		canAccessClass = s.Kind == ScopeGenerator
		importStarred = importStarred || s.ImportStarred

		b, ok := s.Get(name)
		if !ok {
			continue
		}
		if b.Kind == BindAnnotation && !c.postponed {
			b.markUsed(cur, at)
			continue
		}
		b.markUsed(cur, at)
		if b.Kind == BindImport && b.Alias {
			if full, ok := s.Get(b.FullName); ok {
				full.markUsed(cur, at)
			}
		}
		return
	}

	if importStarred {
		var from []string
		for i := len(c.stack) - 1; i >= 0; i-- {
			for _, b := range c.scopes[c.stack[i]].Bindings() {
				if b.Star {
					b.markUsed(cur, at)
					from = append(from, b.FullName)
				}
			}
		}
		sort.Strings(from)
		c.reportAt(&Message{Kind: ImportStarUsage, Pos: at, Name: name, Detail: strings.Join(from, ", ")})
		return
	}
	if name == "__path__" && filepath.Base(c.filename()) == "__init__.py" {
		return
	}
	if (name == "__module__" || name == "__qualname__") && c.scope().Kind == ScopeClass {
		return
	}
	for _, h := range c.handlers[len(c.handlers)-1] {
		if h == "NameError" {
			return
		}
	}
	c.report(UndefinedName, node, name)
}

// target describes how an assignment target binds its names.
type target struct {
	kind   BindingKind
	nested bool // below a tuple, list or starred target
	unpack bool // literal tuple unpacking: a, b = 1, 2
	loop   bool // for-statement target
	walrus bool
}

func (t target) bindingKind() BindingKind {
	if t.kind == BindAssignment && t.nested && !t.unpack {
		return BindTarget
	}
	return t.kind
}

// handleTarget visits an assignment target, binding the names it stores.
func (c *Checker) handleTarget(e ast.Expr, parent ast.Node, t target) {
	if isNil(e) {
		return
	}
	switch x := e.(type) {
	case *ast.Name:
		c.enter(x, parent)
		c.handleStore(x.ID, x, t)
	case *ast.Tuple:
		c.enter(x, parent)
		t.nested = true
		for _, elt := range x.Elts {
			c.handleTarget(elt, x, t)
		}
	case *ast.List:
		c.enter(x, parent)
		t.nested = true
		for _, elt := range x.Elts {
			c.handleTarget(elt, x, t)
		}
	case *ast.Starred:
		c.enter(x, parent)
		t.nested = true
		c.handleTarget(x.Value, x, t)
	default:
		c.handleNode(e, parent)
	}
}

// handleStore binds name at node in the current scope.
func (c *Checker) handleStore(name string, node ast.Node, t target) {
	cur := c.scope()
	if cur.Kind.IsFunction() && !cur.Contains(name) {
		for _, id := range c.stack[:len(c.stack)-1] {
			s := c.scopes[id]
			if !s.Kind.IsFunction() && !s.Kind.BehavesAsModule() {
				continue
			}
			b, ok := s.Get(name)
			if ok && b.Used && b.UsedScope == cur.ID && !cur.IsGlobal(name) {
				c.reportAt(&Message{Kind: UndefinedLocal, Pos: b.UsedPos, Name: name, Orig: b.Pos})
				break
			}
		}
	}
	c.addBinding(node, &Binding{
		Name:   name,
		Kind:   t.bindingKind(),
		Pos:    c.pos(node),
		Node:   node,
		Walrus: t.walrus,
	}, t.loop)
}

// addBinding binds b in the current scope, reporting redefinitions of
// unused definitions and imports shadowed by loop variables.
func (c *Checker) addBinding(node ast.Node, b *Binding, loop bool) {
	cur := c.scope()
	var found *Scope
	var existing *Binding
	for i := len(c.stack) - 1; i >= 0; i-- {
		s := c.scopes[c.stack[i]]
		if e, ok := s.Get(b.Name); ok {
			found, existing = s, e
			break
		}
	}
	if existing != nil && existing.Kind != BindBuiltin && !c.differentForks(node, existing.Node) {
		switch {
		case existing.Kind == BindImport && loop:
			c.reportAt(&Message{Kind: ImportShadowedByLoopVar, Pos: b.Pos, Name: b.Name, Orig: existing.Pos})
		case found == cur:
			if !existing.Used && b.redefines(existing) &&
				(b.Name != "_" || existing.Kind == BindImport) &&
				!c.isOverload(existing) {
				c.reportAt(&Message{Kind: RedefinedWhileUnused, Pos: b.Pos, Name: b.Name, Orig: existing.Pos})
			}
		case existing.Kind == BindImport && b.redefines(existing):
			existing.Redefined = append(existing.Redefined, b.Pos)
		}
	}

	if prev, ok := cur.Get(b.Name); ok && prev.Used {
		b.Used, b.UsedScope, b.UsedPos = true, prev.UsedScope, prev.UsedPos
	}
	if b.Kind == BindAnnotation && cur.Contains(b.Name) {
		return
	}
	target := cur
	if b.Walrus {
		for i := len(c.stack) - 1; i > 0 && c.scopes[c.stack[i]].Kind == ScopeGenerator; i-- {
			target = c.scopes[c.stack[i-1]]
		}
	}
	target.Set(b)
}

// isOverload reports whether b is a function decorated with
// typing.overload, whose redefinition is expected.
func (c *Checker) isOverload(b *Binding) bool {
	fn, ok := b.Node.(*ast.FunctionDef)
	if !ok {
		return false
	}
	for _, d := range fn.Decorators {
		if c.isTyping(d, "overload") {
			return true
		}
	}
	return false
}

var typingModules = []string{"typing", "typing_extensions"}

// isTyping reports whether e refers to the member name of the typing
// module, through a from-import or an attribute of the module.
func (c *Checker) isTyping(e ast.Expr, name string) bool {
	switch x := e.(type) {
	case *ast.Name:
		b, _ := c.lookup(x.ID)
		if b == nil || b.Kind != BindImport {
			return false
		}
		for _, m := range typingModules {
			if b.FullName == m+"."+name {
				return true
			}
		}
	case *ast.Attribute:
		mod, ok := x.Value.(*ast.Name)
		if !ok || x.Attr != name {
			return false
		}
		b, _ := c.lookup(mod.ID)
		if b == nil || b.Kind != BindImport {
			return false
		}
		for _, m := range typingModules {
			if b.FullName == m {
				return true
			}
		}
	}
	return false
}

// handleDelete unbinds name for a del statement target.
func (c *Checker) handleDelete(name string, node ast.Node) {
	for n, ok := c.parentOf(node); ok && !isNil(n); n, ok = c.parentOf(n) {
		switch n.(type) {
		case *ast.If, *ast.While, *ast.IfExp:
			return
		}
	}
	cur := c.scope()
	if cur.Kind.IsFunction() && cur.IsGlobal(name) {
		delete(cur.globals, name)
		return
	}
	if _, ok := cur.Delete(name); !ok {
		c.report(UndefinedName, node, name)
	}
}

func (c *Checker) reportUnsupported(kind string, at ast.Node) {
	if c.unsupported[kind] {
		return
	}
	c.unsupported[kind] = true
	c.log.WithField("kind", kind).Debug("unsupported syntax")
	c.reportAt(&Message{Kind: UnsupportedSyntax, Pos: c.pos(at), Detail: kind})
}

// isNil reports whether n is nil, including typed nil pointers for the
// optional expression fields the dispatcher passes through.
func isNil(n ast.Node) bool {
	if n == nil {
		return true
	}
	switch x := n.(type) {
	case *ast.Name:
		return x == nil
	case *ast.Str:
		return x == nil
	}
	return false
}
