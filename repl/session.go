// Copyright © 2024 The ELPS authors

package repl

import (
	"context"
	"errors"
	"strings"

	"github.com/luthersystems/flakes/analysis"
	"github.com/luthersystems/flakes/lint"
	"github.com/luthersystems/flakes/parser"
)

// sessionFile is the file name reported for code entered interactively.
const sessionFile = "<repl>"

// Session accumulates the blocks entered in a REPL and checks each new
// block in the context of everything entered before it.
type Session struct {
	linter *lint.Linter
	buf    strings.Builder
	lines  int
	last   *analysis.Result
}

// NewSession returns an empty session that checks blocks with l.
func NewSession(l *lint.Linter) *Session {
	return &Session{linter: l}
}

// Check appends block to the session and returns the diagnostics that
// fall inside it. A block with a syntax error is not kept, so a typo
// does not poison later input.
func (s *Session) Check(ctx context.Context, block string) ([]lint.Diagnostic, error) {
	if strings.TrimSpace(block) == "" {
		return nil, nil
	}
	if !strings.HasSuffix(block, "\n") {
		block += "\n"
	}
	src := s.buf.String() + block

	mod, err := parser.Parse(ctx, []byte(src), sessionFile)
	if err != nil {
		var se *parser.SyntaxError
		if errors.As(err, &se) {
			return []lint.Diagnostic{lint.SyntaxDiagnostic(se)}, nil
		}
		return nil, err
	}

	var cfg analysis.Config
	if s.linter.Config != nil {
		cfg = *s.linter.Config
	}
	res, err := analysis.Analyze(ctx, mod, &cfg)
	if err != nil {
		return nil, err
	}
	diags, err := s.linter.LintModule(mod, []byte(src), res)
	if err != nil {
		return nil, err
	}

	first := s.lines + 1
	s.buf.WriteString(block)
	s.lines += strings.Count(block, "\n")
	s.last = res

	var out []lint.Diagnostic
	for _, d := range diags {
		if d.Pos.Line >= first {
			out = append(out, d)
		}
	}
	return out, nil
}

// Source returns the code accepted so far.
func (s *Session) Source() string {
	return s.buf.String()
}

// Reset forgets all input.
func (s *Session) Reset() {
	s.buf.Reset()
	s.lines = 0
	s.last = nil
}

// Names returns the names bound at module level after the last accepted
// block, builtins included.
func (s *Session) Names() []string {
	if s.last == nil {
		return analysis.BuiltinNames()
	}
	return s.last.ModuleScope().Names()
}
