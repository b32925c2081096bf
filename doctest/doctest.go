// Copyright © 2024 The ELPS authors

// Package doctest extracts interactive examples from docstrings.
//
// An example starts at a line whose first non-blank text is the ">>>"
// prompt and continues over the following "..." lines. The non-blank lines
// after it that do not start a new example are its expected output. The
// rules match the interpreter's own doctest parser closely enough that a
// docstring accepted there yields the same examples here, with the same
// line numbers and indentation.
package doctest

import (
	"fmt"
	"strings"

	"github.com/luthersystems/flakes/ast"
)

const (
	ps1 = ">>>"
	ps2 = "..."
)

// TabWidth is the tab stop used when expanding tabs in a docstring.
const TabWidth = 8

// Example is one interactive example.
type Example struct {
	// Source is the example's code with prompts and indentation removed.
	Source string
	// Want is the expected output, possibly empty.
	Want string
	// Line is the 0-based line of the ">>>" prompt within the docstring.
	Line int
	// Indent is the column of the prompt within the docstring lines.
	Indent int
	// Options holds the option directives found in the source, keyed by
	// option name. The value is false for a "-" directive.
	Options map[string]bool
}

// HasWant reports whether the example lists expected output.
func (e *Example) HasWant() bool {
	return e.Want != ""
}

// FormatError is returned when a docstring contains something that looks
// like an example but is malformed. The whole docstring is then unusable.
type FormatError struct {
	Line int // 0-based line within the docstring
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d of the docstring %s", e.Line+1, e.Msg)
}

// OptionNames are the option directives accepted in "# doctest:" comments.
var OptionNames = []string{
	"DONT_ACCEPT_TRUE_FOR_1",
	"DONT_ACCEPT_BLANKLINE",
	"NORMALIZE_WHITESPACE",
	"ELLIPSIS",
	"SKIP",
	"IGNORE_EXCEPTION_DETAIL",
	"REPORT_UDIFF",
	"REPORT_CDIFF",
	"REPORT_NDIFF",
	"REPORT_ONLY_FIRST_FAILURE",
	"FAIL_FAST",
}

var knownOption = func() map[string]bool {
	m := make(map[string]bool, len(OptionNames))
	for _, name := range OptionNames {
		m[name] = true
	}
	return m
}()

// Parse returns the examples of a docstring in order. Examples whose source
// is blank or a lone comment are dropped.
func Parse(doc string) ([]*Example, error) {
	lines := strings.Split(expandTabs(doc, TabWidth), "\n")
	minIndent := minIndent(lines)
	if minIndent > 0 {
		for i, line := range lines {
			lines[i] = from(line, minIndent)
		}
	}

	var examples []*Example
	for i := 0; i < len(lines); {
		indent, ok := prompt(lines[i], ps1)
		if !ok {
			i++
			continue
		}
		start := i
		j := i + 1
		for j < len(lines) {
			if _, ok := prompt(lines[j], ps2); !ok {
				break
			}
			j++
		}
		source := lines[start:j]
		for j < len(lines) && !isBlank(lines[j]) {
			if _, ok := prompt(lines[j], ps1); ok {
				break
			}
			j++
		}
		want := lines[start+len(source) : j]
		i = j

		ex, err := newExample(source, want, start, indent)
		if err != nil {
			return nil, err
		}
		if ex == nil {
			continue
		}
		ex.Indent += minIndent
		examples = append(examples, ex)
	}
	return examples, nil
}

func newExample(source, want []string, line, indent int) (*Example, error) {
	for k, l := range source {
		if len(l) >= indent+4 && l[indent+3] != ' ' {
			return nil, &FormatError{
				Line: line + k,
				Msg:  fmt.Sprintf("lacks blank after %s: %q", l[indent:indent+3], l),
			}
		}
	}
	contPrefix := strings.Repeat(" ", indent) + "."
	for k, l := range source[1:] {
		if !strings.HasPrefix(l, contPrefix) {
			return nil, &FormatError{
				Line: line + k + 1,
				Msg:  fmt.Sprintf("has inconsistent leading whitespace: %q", l),
			}
		}
	}
	wantPrefix := strings.Repeat(" ", indent)
	for k, l := range want {
		if !strings.HasPrefix(l, wantPrefix) {
			return nil, &FormatError{
				Line: line + len(source) + k,
				Msg:  fmt.Sprintf("has inconsistent leading whitespace: %q", l),
			}
		}
	}

	src := make([]string, len(source))
	for k, l := range source {
		src[k] = from(l, indent+4)
	}
	ex := &Example{
		Source: strings.Join(src, "\n") + "\n",
		Line:   line,
		Indent: indent,
	}
	if len(want) > 0 {
		w := make([]string, len(want))
		for k, l := range want {
			w[k] = from(l, indent)
		}
		ex.Want = strings.Join(w, "\n") + "\n"
	}

	opts, err := options(src, line)
	if err != nil {
		return nil, err
	}
	if isBlankOrComment(src) {
		if len(opts) > 0 {
			return nil, &FormatError{Line: line, Msg: "has an option directive on a line with no example"}
		}
		return nil, nil
	}
	ex.Options = opts
	return ex, nil
}

// options collects "# doctest: +NAME, -NAME" directives.
func options(src []string, line int) (map[string]bool, error) {
	var opts map[string]bool
	for k, l := range src {
		rest, ok := directive(l)
		if !ok {
			continue
		}
		fields := strings.FieldsFunc(rest, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		for _, f := range fields {
			if len(f) < 2 || (f[0] != '+' && f[0] != '-') || !knownOption[f[1:]] {
				return nil, &FormatError{Line: line + k, Msg: fmt.Sprintf("has an invalid option: %q", f)}
			}
			if opts == nil {
				opts = make(map[string]bool)
			}
			opts[f[1:]] = f[0] == '+'
		}
	}
	return opts, nil
}

// directive returns the text after the first "# doctest:" marker of a line
// that is not followed by a quote on the same line.
func directive(line string) (string, bool) {
	for at := strings.IndexByte(line, '#'); at >= 0; {
		rest := strings.TrimLeft(line[at+1:], " \t")
		if strings.HasPrefix(rest, "doctest:") {
			rest = rest[len("doctest:"):]
			if !strings.ContainsAny(rest, `'"`) {
				return rest, true
			}
		}
		next := strings.IndexByte(line[at+1:], '#')
		if next < 0 {
			break
		}
		at += next + 1
	}
	return "", false
}

// prompt reports whether line starts with optional spaces and then p, and
// returns the number of spaces.
func prompt(line, p string) (int, bool) {
	n := leadingSpaces(line)
	return n, strings.HasPrefix(line[n:], p)
}

func leadingSpaces(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

func isBlank(line string) bool {
	return leadingSpaces(line) == len(line)
}

func isBlankOrComment(src []string) bool {
	if len(src) > 1 {
		return false
	}
	rest := src[0][leadingSpaces(src[0]):]
	return rest == "" || rest[0] == '#'
}

// minIndent is the smallest indentation among lines with visible text.
func minIndent(lines []string) int {
	min := -1
	for _, line := range lines {
		n := leadingSpaces(line)
		if n == len(line) || isSpace(line[n]) {
			continue
		}
		if min < 0 || n < min {
			min = n
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func from(line string, i int) string {
	if i >= len(line) {
		return ""
	}
	return line[i:]
}

func expandTabs(s string, width int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := width - col%width
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}

// Offset maps positions inside a parsed example back to the file that
// holds the docstring. The zero Offset is the identity.
type Offset struct {
	Line int
	Col  int
}

// For returns the offset of example ex in a docstring whose literal starts
// on line docLine of the file.
func For(docLine int, ex *Example) Offset {
	return Offset{Line: docLine - 1 + ex.Line, Col: ex.Indent + 4}
}

// Add composes two offsets.
func (o Offset) Add(other Offset) Offset {
	return Offset{Line: o.Line + other.Line, Col: o.Col + other.Col}
}

// Translate maps a position in the example source to the file.
func (o Offset) Translate(p ast.Pos) ast.Pos {
	if !p.IsValid() {
		return p
	}
	return ast.Pos{Line: p.Line + o.Line, Col: p.Col + o.Col}
}

// IsZero reports whether o is the identity.
func (o Offset) IsZero() bool {
	return o == Offset{}
}
