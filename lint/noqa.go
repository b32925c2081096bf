// Copyright © 2024 The ELPS authors

package lint

import (
	"strings"

	parsec "github.com/prataprc/goparsec"

	"github.com/luthersystems/flakes/ast"
)

// suppression is the parsed form of one directive. A nil codes set
// suppresses everything.
type suppression struct {
	codes map[string]bool
}

func (s suppression) covers(a *Analyzer) bool {
	if s.codes == nil {
		return true
	}
	if s.codes[strings.ToLower(a.Name)] {
		return true
	}
	return a.Code != "" && s.codes[strings.ToLower(a.Code)]
}

var noqaParser = newNoqaParser()

// newNoqaParser returns a parser for suppression comments, which silence
// diagnostics on the line they appear on.
//
//	directive := '#' 'noqa' [ ':' code { ',' code } ]
//	code      := /[A-Za-z][A-Za-z0-9_-]*/
//
// A code is either an analyzer name or its pyflakes code. A directive
// without codes silences every analyzer.
func newNoqaParser() parsec.Parser {
	hash := parsec.Atom("#", "HASH")
	noqa := parsec.Token(`(?i)noqa\b`, "NOQA")
	colon := parsec.Atom(":", "COLON")
	comma := parsec.Atom(",", "COMMA")
	code := parsec.Token(`[A-Za-z][A-Za-z0-9_-]*`, "CODE")
	codes := parsec.Kleene(nil, code, comma)
	return parsec.And(nil, hash, noqa, parsec.Maybe(nil, parsec.And(nil, colon, codes)))
}

// parseNoqa finds a directive in the text of a comment. The directive
// may follow other comment text, as in "# type: ignore  # noqa".
func parseNoqa(comment string) (suppression, bool) {
	for i := strings.IndexByte(comment, '#'); i >= 0; {
		root, _ := noqaParser(parsec.NewScanner([]byte(comment[i:])))
		if root != nil {
			var names []string
			collectCodes(root, &names)
			if len(names) == 0 {
				return suppression{}, true
			}
			s := suppression{codes: make(map[string]bool, len(names))}
			for _, name := range names {
				s.codes[strings.ToLower(name)] = true
			}
			return s, true
		}
		next := strings.IndexByte(comment[i+1:], '#')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return suppression{}, false
}

func collectCodes(node parsec.ParsecNode, out *[]string) {
	switch n := node.(type) {
	case *parsec.Terminal:
		if n.Name == "CODE" {
			*out = append(*out, n.Value)
		}
	case []parsec.ParsecNode:
		for _, child := range n {
			collectCodes(child, out)
		}
	}
}

// filterSuppressed removes diagnostics on lines with a noqa comment that
// covers their analyzer.
func filterSuppressed(diags []Diagnostic, comments []ast.Comment, analyzers []*Analyzer) []Diagnostic {
	lines := make(map[int]suppression)
	for _, c := range comments {
		if s, ok := parseNoqa(c.Text); ok {
			lines[c.Pos.Line] = s
		}
	}
	if len(lines) == 0 {
		return diags
	}
	byName := make(map[string]*Analyzer, len(analyzers))
	for _, a := range analyzers {
		byName[a.Name] = a
	}

	var filtered []Diagnostic
	for _, d := range diags {
		s, ok := lines[d.Pos.Line]
		if !ok {
			filtered = append(filtered, d)
			continue
		}
		a := byName[d.Analyzer]
		if a == nil {
			a = &Analyzer{Name: d.Analyzer}
		}
		if !s.covers(a) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
