// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"

	"github.com/spf13/viper"

	"github.com/luthersystems/flakes/diagnostic"
	"github.com/luthersystems/flakes/lint"
)

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: diagnostic.ParseColorMode(viper.GetString("color"))}
}

// lintDiagToDiagnostic converts a lint.Diagnostic to a diagnostic.Diagnostic.
// src is attached to the span when the input was not read from a file.
func lintDiagToDiagnostic(ld lint.Diagnostic, src []byte) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityWarning,
		Message:  ld.Message,
		Code:     ld.Analyzer,
	}
	switch ld.Severity {
	case lint.SeverityError:
		d.Severity = diagnostic.SeverityError
	case lint.SeverityInfo:
		d.Severity = diagnostic.SeverityNote
	}
	if ld.Pos.Line > 0 {
		span := diagnostic.Span{
			File: ld.Pos.File,
			Line: ld.Pos.Line,
			Col:  ld.Pos.Col,
		}
		if ld.Pos.File == stdinName {
			span.Source = src
		}
		d.Spans = append(d.Spans, span)
	}
	d.Notes = append(d.Notes, ld.Notes...)
	if ld.Analyzer != "syntax" {
		code := ld.Analyzer
		if a, ok := lint.Lookup(ld.Analyzer); ok && a.Code != "" {
			code = a.Code
		}
		d.Notes = append(d.Notes, "to suppress: add \"# noqa: "+code+"\" as a comment on this line")
	}
	return d
}

// renderResults renders the diagnostics of every file to w.
func renderResults(w io.Writer, results []fileResult) {
	var ds []diagnostic.Diagnostic
	for _, r := range results {
		for _, ld := range r.diags {
			ds = append(ds, lintDiagToDiagnostic(ld, r.src))
		}
	}
	_ = newRenderer().RenderAll(w, ds)
}
