// Copyright © 2024 The ELPS authors

package analysis

import (
	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/doctest"
)

// DeferredKind distinguishes postponed function bodies from checks that
// need a finished scope.
type DeferredKind int

const (
	DeferFunction DeferredKind = iota
	DeferAssignment
)

func (k DeferredKind) String() string {
	if k == DeferAssignment {
		return "assignment"
	}
	return "function"
}

// Handler tags naming what a deferred check does.
const (
	HandlerFunctionBody        = "function body"
	HandlerLambdaBody          = "lambda body"
	HandlerDoctest             = "doctest"
	HandlerUnusedAssignments   = "unused assignments"
	HandlerStringAnnotation    = "string annotation"
	HandlerPostponedAnnotation = "postponed annotation"
)

// DeferredFunc is the body of a deferred check. It receives the checker
// running it and the node the check was scheduled for.
type DeferredFunc func(c *Checker, node ast.Node)

// DeferredCheck is a postponed unit of analysis. Snapshot is the scope
// chain at the time the check was scheduled; it is restored verbatim
// before Run is called.
type DeferredCheck struct {
	Kind     DeferredKind
	Handler  string // what the check does, for logs
	Node     ast.Node
	Snapshot []ScopeID
	Offset   doctest.Offset
	Run      DeferredFunc
}

// queue is a FIFO of deferred checks.
type queue struct {
	items []*DeferredCheck
}

func (q *queue) push(d *DeferredCheck) {
	q.items = append(q.items, d)
}

func (q *queue) pop() (*DeferredCheck, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	d := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return d, true
}

// take removes and returns the first check scheduled for node, keeping
// the order of the others.
func (q *queue) take(node ast.Node) (*DeferredCheck, bool) {
	return q.takeFunc(func(d *DeferredCheck) bool { return d.Node == node })
}

func (q *queue) takeFunc(match func(*DeferredCheck) bool) (*DeferredCheck, bool) {
	for i, d := range q.items {
		if match(d) {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return d, true
		}
	}
	return nil, false
}

func (q *queue) len() int {
	return len(q.items)
}

func (q *queue) snapshot() []*DeferredCheck {
	out := make([]*DeferredCheck, len(q.items))
	copy(out, q.items)
	return out
}

// Enqueue schedules fn to run on node once the current pass is done. The
// current scope chain and doctest offset are captured with it. Checks
// enqueued while draining run after everything already queued.
func (c *Checker) Enqueue(kind DeferredKind, handler string, node ast.Node, fn DeferredFunc) {
	d := &DeferredCheck{
		Kind:     kind,
		Handler:  handler,
		Node:     node,
		Snapshot: c.chainSnapshot(),
		Offset:   c.offset,
		Run:      fn,
	}
	c.deferred.push(d)
	c.log.WithField("handler", handler).WithField("kind", kind).Debug("deferred check enqueued")
}

// Drain runs queued checks in FIFO order until the queue is empty,
// including checks enqueued by the checks it runs. It stops early when the
// checker's context is done.
func (c *Checker) Drain() {
	for c.ctx.Err() == nil {
		d, ok := c.deferred.pop()
		if !ok {
			return
		}
		c.runDeferred(d)
	}
}

// RunImmediate runs the first queued check scheduled for node ahead of its
// turn and removes it from the queue. The caller's scope chain and offset
// are restored afterwards. It reports whether such a check was queued.
func (c *Checker) RunImmediate(node ast.Node) bool {
	d, ok := c.deferred.take(node)
	if !ok {
		return false
	}
	c.log.WithField("handler", d.Handler).Debug("running deferred check immediately")
	c.runSaved(d)
	return true
}

// Pending returns the queued checks in the order they will run.
func (c *Checker) Pending() []*DeferredCheck {
	return c.deferred.snapshot()
}

// runSaved runs d and restores the caller's traversal state.
func (c *Checker) runSaved(d *DeferredCheck) {
	saved := c.traversal
	c.runDeferred(d)
	c.traversal = saved
}

func (c *Checker) runDeferred(d *DeferredCheck) {
	c.traversal = freshTraversal(d.Snapshot, d.Offset)
	c.ran++
	d.Run(c, d.Node)
}

// flushNested runs, ahead of their turn, the queued function checks that
// execute inside scope id, e.g. closures defined in a function whose unused
// locals are about to be reported.
func (c *Checker) flushNested(id ScopeID) {
	for {
		d, ok := c.deferred.takeFunc(func(d *DeferredCheck) bool {
			return d.Kind == DeferFunction && containsScope(d.Snapshot, id)
		})
		if !ok {
			return
		}
		c.log.WithField("handler", d.Handler).Debug("running nested check early")
		c.runSaved(d)
	}
}

func containsScope(chain []ScopeID, id ScopeID) bool {
	for _, s := range chain {
		if s == id {
			return true
		}
	}
	return false
}
