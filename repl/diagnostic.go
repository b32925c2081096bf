// Copyright © 2024 The ELPS authors

package repl

import (
	"io"

	"github.com/luthersystems/flakes/diagnostic"
	"github.com/luthersystems/flakes/lint"
)

// renderDiagnostics renders check results for a block. Input comes from
// the terminal, so the session source is attached to every span.
func renderDiagnostics(w io.Writer, r *diagnostic.Renderer, diags []lint.Diagnostic, source string) {
	ds := make([]diagnostic.Diagnostic, 0, len(diags))
	for _, ld := range diags {
		ds = append(ds, lintToDiag(ld, []byte(source)))
	}
	_ = r.RenderAll(w, ds)
}

// lintToDiag converts a lint.Diagnostic to a Diagnostic for display.
func lintToDiag(ld lint.Diagnostic, source []byte) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityWarning,
		Message:  ld.Message,
		Code:     ld.Analyzer,
		Notes:    ld.Notes,
	}
	switch ld.Severity {
	case lint.SeverityError:
		d.Severity = diagnostic.SeverityError
	case lint.SeverityInfo:
		d.Severity = diagnostic.SeverityNote
	}
	if ld.Pos.Line > 0 {
		d.Spans = append(d.Spans, diagnostic.Span{
			File:   ld.Pos.File,
			Line:   ld.Pos.Line,
			Col:    ld.Pos.Col,
			Source: source,
		})
	}
	return d
}
