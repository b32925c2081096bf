// Copyright © 2024 The ELPS authors

// Package analysis resolves the names of a parsed Python module.
//
// The checker walks the syntax tree building nested lexical scopes with
// named bindings. Function and lambda bodies are deferred until the scope
// that defines them is complete, so forward references and recursion
// resolve, and interactive examples found in docstrings are analyzed as
// nested doctest scopes. The result is every scope created, in the order
// scopes died, and the messages raised during the walk. Reporting of
// unused bindings from the dead scopes is left to package lint.
package analysis

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/astutil"
	"github.com/luthersystems/flakes/literal"
	"github.com/luthersystems/flakes/parser"
)

const tracerName = "github.com/luthersystems/flakes/analysis"

// ErrNoTree is returned by Analyze when given no module.
var ErrNoTree = errors.New("analysis: no syntax tree")

// ParseFunc parses Python source. It is used for doctest examples and
// string annotations.
type ParseFunc func(ctx context.Context, src []byte, filename string) (*ast.Module, error)

// Config controls the behavior of the analyzer.
type Config struct {
	// Doctests enables analysis of the interactive examples in docstrings.
	Doctests bool

	// Builtins are names defined in addition to the Python builtins.
	Builtins []string

	// Parse parses doctest examples and string annotations. It defaults to
	// parser.Parse.
	Parse ParseFunc

	// Literal tunes the dict key classifier.
	Literal literal.Options

	// Filename overrides the file name recorded in the module.
	Filename string

	// Logger receives debug events. Nothing is logged when nil.
	Logger logrus.FieldLogger
}

func (cfg *Config) parser() ParseFunc {
	if cfg.Parse != nil {
		return cfg.Parse
	}
	return parser.Parse
}

func (cfg *Config) logger() logrus.FieldLogger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Result holds the output of analysis.
type Result struct {
	Module *ast.Module
	// Scopes holds every scope created, indexed by ScopeID.
	Scopes Scopes
	// DeadScopes lists scopes in the order they were popped. The module
	// scope is last.
	DeadScopes []ScopeID
	// Messages are in the order they were discovered.
	Messages []*Message
	// Deferred is the number of deferred checks that ran.
	Deferred int
}

// Dead returns the popped scopes in order.
func (r *Result) Dead() []*Scope {
	out := make([]*Scope, len(r.DeadScopes))
	for i, id := range r.DeadScopes {
		out[i] = r.Scopes[id]
	}
	return out
}

// ModuleScope returns the scope of the analyzed module.
func (r *Result) ModuleScope() *Scope {
	return r.Scopes.Get(0)
}

// Analyze checks mod. The only error conditions are a missing module and
// a context that is done before the analysis completed.
func Analyze(ctx context.Context, mod *ast.Module, cfg *Config) (*Result, error) {
	if mod == nil {
		return nil, ErrNoTree
	}
	if cfg == nil {
		cfg = &Config{}
	}
	ctx, span := tracer().Start(ctx, "analysis.Analyze", trace.WithAttributes(
		attribute.String("code.filepath", mod.Filename),
		attribute.Bool("flakes.doctests", cfg.Doctests),
	))
	defer span.End()

	c := NewChecker(ctx, mod, cfg)
	c.Run()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.checkExports()

	span.SetAttributes(
		attribute.Int("flakes.scopes", len(c.scopes)),
		attribute.Int("flakes.deferred", c.ran),
		attribute.Int("flakes.messages", len(c.messages)),
	)
	return &Result{
		Module:     mod,
		Scopes:     c.scopes,
		DeadScopes: c.dead,
		Messages:   c.messages,
		Deferred:   c.ran,
	}, nil
}

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(tracerName)
}

// checkExports treats the names listed in the module's __all__ as used
// and reports the ones the module never binds.
func (c *Checker) checkExports() {
	names, ok := astutil.ExportedNames(c.module)
	if !ok {
		return
	}
	scope := c.scopes[0]
	all, ok := scope.Get("__all__")
	if !ok {
		return
	}
	var undefined []string
	for _, name := range names {
		if b, ok := scope.Get(name); ok {
			if !b.Used {
				b.markUsed(scope.ID, all.Pos)
			}
			continue
		}
		undefined = append(undefined, name)
	}
	if len(undefined) == 0 {
		return
	}
	if scope.ImportStarred {
		var from []string
		for _, b := range scope.Bindings() {
			if b.Star {
				b.markUsed(scope.ID, all.Pos)
				from = append(from, b.FullName)
			}
		}
		sort.Strings(from)
		for _, name := range undefined {
			c.reportAt(&Message{Kind: ImportStarUsage, Pos: all.Pos, Name: name, Detail: strings.Join(from, ", ")})
		}
		return
	}
	if filepath.Base(c.filename()) == "__init__.py" {
		return
	}
	for _, name := range undefined {
		c.reportAt(&Message{Kind: UndefinedExport, Pos: all.Pos, Name: name})
	}
}
