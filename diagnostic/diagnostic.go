// Copyright © 2024 The ELPS authors

// Package diagnostic renders check results as annotated source snippets
// for terminal output. It does not depend on the analysis packages so that
// every front end can use it.
package diagnostic

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = auto-detect from source)
	Label  string // text shown under the underline

	// Source is the text of File when it did not come from disk, as for
	// standard input or an editor buffer.
	Source []byte
}

// Diagnostic represents a single error, warning, or note with optional
// source annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	Message  string
	Code     string // check name, shown after the severity
	Spans    []Span
	Notes    []string // "= note:" lines
}
