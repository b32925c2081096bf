// Copyright © 2024 The ELPS authors

// Package lint reports problems in Python source files.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives the parsed module and the result of name analysis and
// reports diagnostics. The framework handles parsing, running the analysis,
// collecting results, suppression comments and formatting output.
//
// Analyzers are composable and extensible. Embedders can define custom
// checks alongside the built-in set.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/luthersystems/flakes/analysis"
	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/parser"
)

const tracerName = "github.com/luthersystems/flakes/lint"

// Severity indicates the severity level of a lint diagnostic.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity: %q", str)
	}
	return nil
}

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "unused-import").
	Name string

	// Code is the conventional pyflakes code of the check, accepted in
	// suppression comments (e.g. "F401").
	Code string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// Module is the parsed source.
	Module *ast.Module

	// Source is the text Module was parsed from.
	Source []byte

	// Semantics holds the scopes and messages of name analysis.
	Semantics *analysis.Result

	// diagnostics collects reported findings.
	diagnostics []Diagnostic
}

// Report records a diagnostic finding.
func (p *Pass) Report(d Diagnostic) {
	d.Analyzer = p.Analyzer.Name
	if d.Severity == severityUnset {
		d.Severity = p.Analyzer.Severity
	}
	p.diagnostics = append(p.diagnostics, d)
}

// ReportWithNotes records a diagnostic with additional hint text.
func (p *Pass) ReportWithNotes(d Diagnostic, notes ...string) {
	d.Notes = append(d.Notes, notes...)
	p.Report(d)
}

// Reportf is a convenience for reporting a diagnostic at a position.
func (p *Pass) Reportf(pos ast.Pos, format string, args ...interface{}) {
	p.Report(Diagnostic{
		Pos:     PositionOf(p.Filename, pos),
		Message: fmt.Sprintf(format, args...),
	})
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the problem.
	Pos Position `json:"pos"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Analyzer is the name of the check that found this problem.
	Analyzer string `json:"analyzer"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty"`
}

// Position identifies a location in source code. Col is 1-based; zero
// means the column is unknown.
type Position struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col,omitempty"`
}

// PositionOf converts a syntax tree position, whose column is 0-based.
func PositionOf(file string, p ast.Pos) Position {
	if !p.IsValid() {
		return Position{File: file}
	}
	return Position{File: file, Line: p.Line, Col: p.Col + 1}
}

// String returns the position in file:line:col format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// String returns the diagnostic in go vet style: file:line:col: message
// (analyzer) with optional note lines appended.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Analyzer)
	for _, n := range d.Notes {
		s += "\n  = note: " + n
	}
	return s
}

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer

	// Config is passed to the name analysis. It may be nil.
	Config *analysis.Config
}

// LintFile parses and analyzes a single source file and returns all
// diagnostics. A syntax error in the file is returned as an error wrapping
// *parser.SyntaxError.
func (l *Linter) LintFile(ctx context.Context, source []byte, filename string) ([]Diagnostic, error) {
	ctx, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx, "lint.LintFile",
		trace.WithAttributes(attribute.String("code.filepath", filename)))
	defer span.End()

	mod, err := parser.Parse(ctx, source, filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	var cfg analysis.Config
	if l.Config != nil {
		cfg = *l.Config
	}
	cfg.Filename = filename
	result, err := analysis.Analyze(ctx, mod, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	diags, err := l.LintModule(mod, source, result)
	span.SetAttributes(attribute.Int("flakes.diagnostics", len(diags)))
	return diags, err
}

// LintModule runs the analyzers over an already analyzed module.
func (l *Linter) LintModule(mod *ast.Module, source []byte, semantics *analysis.Result) ([]Diagnostic, error) {
	filename := mod.Filename
	var all []Diagnostic
	for _, analyzer := range l.Analyzers {
		pass := &Pass{
			Analyzer:  analyzer,
			Filename:  filename,
			Module:    mod,
			Source:    source,
			Semantics: semantics,
		}
		if err := analyzer.Run(pass); err != nil {
			return nil, fmt.Errorf("%s: analyzer %s: %w", filename, analyzer.Name, err)
		}
		// Set file on diagnostics that don't have one
		for i := range pass.diagnostics {
			if pass.diagnostics[i].Pos.File == "" {
				pass.diagnostics[i].Pos.File = filename
			}
		}
		all = append(all, pass.diagnostics...)
	}

	all = filterSuppressed(all, mod.Comments, l.Analyzers)

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].Pos, all[j].Pos
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
	return all, nil
}

// SyntaxDiagnostic converts a parse failure into a diagnostic so that
// front ends can show it alongside lint results.
func SyntaxDiagnostic(err *parser.SyntaxError) Diagnostic {
	return Diagnostic{
		Pos:      PositionOf(err.Filename, err.Pos),
		Message:  err.Msg,
		Analyzer: "syntax",
		Severity: SeverityError,
	}
}

// FormatText writes diagnostics in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}
