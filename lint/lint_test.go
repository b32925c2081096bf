// Copyright © 2024 The ELPS authors

package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/flakes/analysis"
	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/parser"
)

// lintSource runs all default analyzers on the given source and returns diagnostics.
func lintSource(t *testing.T, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: DefaultAnalyzers()}
	diags, err := l.LintFile(context.Background(), []byte(source), "test.py")
	require.NoError(t, err)
	return diags
}

// lintCheck runs a single analyzer on the given source.
func lintCheck(t *testing.T, analyzer *Analyzer, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: []*Analyzer{analyzer}}
	diags, err := l.LintFile(context.Background(), []byte(source), "test.py")
	require.NoError(t, err)
	return diags
}

// lintDoctests runs a single analyzer with doctest analysis enabled.
func lintDoctests(t *testing.T, analyzer *Analyzer, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: []*Analyzer{analyzer}, Config: &analysis.Config{Doctests: true}}
	diags, err := l.LintFile(context.Background(), []byte(source), "test.py")
	require.NoError(t, err)
	return diags
}

// assertHasDiag checks that at least one diagnostic contains the given substring.
func assertHasDiag(t *testing.T, diags []Diagnostic, substr string) {
	t.Helper()
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.String())
	}
	t.Errorf("expected diagnostic containing %q, got: %v", substr, msgs)
}

// assertNoDiags checks that there are no diagnostics.
func assertNoDiags(t *testing.T, diags []Diagnostic) {
	t.Helper()
	if len(diags) > 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.String())
		}
		t.Errorf("expected no diagnostics, got %d: %v", len(diags), msgs)
	}
}

// assertDiagOnLine checks that a diagnostic exists on the given line with the given substring.
func assertDiagOnLine(t *testing.T, diags []Diagnostic, line int, substr string) {
	t.Helper()
	for _, d := range diags {
		if d.Pos.Line == line && strings.Contains(d.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, fmt.Sprintf("line %d: %s", d.Pos.Line, d.Message))
	}
	t.Errorf("expected diagnostic on line %d containing %q, got: %v", line, substr, msgs)
}

// --- Position.String() ---

func TestPosition_String_FileOnly(t *testing.T) {
	p := Position{File: "test.py"}
	assert.Equal(t, "test.py", p.String())
}

func TestPosition_String_FileLine(t *testing.T) {
	p := Position{File: "test.py", Line: 10}
	assert.Equal(t, "test.py:10", p.String())
}

func TestPosition_String_FileLineCol(t *testing.T) {
	p := Position{File: "test.py", Line: 10, Col: 5}
	assert.Equal(t, "test.py:10:5", p.String())
}

func TestPositionOf(t *testing.T) {
	assert.Equal(t, Position{File: "a.py", Line: 3, Col: 1}, PositionOf("a.py", ast.Pos{Line: 3, Col: 0}))
	assert.Equal(t, Position{File: "a.py"}, PositionOf("a.py", ast.Pos{}))
}

// --- Diagnostic.String() ---

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Pos:      Position{File: "test.py", Line: 10, Col: 1},
		Message:  "undefined name 'x'",
		Analyzer: "undefined-name",
	}
	assert.Equal(t, "test.py:10:1: undefined name 'x' (undefined-name)", d.String())
}

// --- Analyzer error propagation ---

func TestLintFile_AnalyzerError(t *testing.T) {
	errAnalyzer := &Analyzer{
		Name: "fail",
		Doc:  "Always fails.",
		Run: func(pass *Pass) error {
			return fmt.Errorf("intentional failure")
		},
	}
	l := &Linter{Analyzers: []*Analyzer{errAnalyzer}}
	_, err := l.LintFile(context.Background(), []byte("x = 1\n"), "test.py")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyzer fail")
	assert.Contains(t, err.Error(), "intentional failure")
}

func TestLintFile_SyntaxError(t *testing.T) {
	l := &Linter{Analyzers: DefaultAnalyzers()}
	_, err := l.LintFile(context.Background(), []byte("def f(:\n    pass\n"), "bad.py")
	require.Error(t, err)
	var se *parser.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "bad.py", se.Filename)
	assert.Equal(t, 1, se.Pos.Line)

	d := SyntaxDiagnostic(se)
	assert.Equal(t, "syntax", d.Analyzer)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "bad.py", d.Pos.File)
	assert.Equal(t, 1, d.Pos.Line)
}

func TestLintFile_Sorted(t *testing.T) {
	source := "import os\nundefined_one\nundefined_two\n"
	diags := lintSource(t, source)
	require.Len(t, diags, 3)
	for i := 1; i < len(diags); i++ {
		assert.LessOrEqual(t, diags[i-1].Pos.Line, diags[i].Pos.Line)
	}
	assert.Equal(t, "unused-import", diags[0].Analyzer)
	assert.Equal(t, "test.py", diags[0].Pos.File)
}

func TestLintFile_Clean(t *testing.T) {
	source := `import os


def main(argv):
    path = os.path.join(*argv)
    return {"path": path, "n": len(argv)}
`
	assertNoDiags(t, lintSource(t, source))
}

func TestLintModule_CustomAnalyzer(t *testing.T) {
	ctx := context.Background()
	src := []byte("print('hi')\n")
	mod, err := parser.Parse(ctx, src, "custom.py")
	require.NoError(t, err)
	res, err := analysis.Analyze(ctx, mod, nil)
	require.NoError(t, err)

	calls := &Analyzer{
		Name:     "module-statements",
		Severity: SeverityInfo,
		Run: func(pass *Pass) error {
			pass.Reportf(ast.At(1, 0).Pos, "%d statements", len(pass.Module.Body))
			return nil
		},
	}
	l := &Linter{Analyzers: []*Analyzer{calls}}
	diags, err := l.LintModule(mod, src, res)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "custom.py:1:1: 1 statements (module-statements)", diags[0].String())
	assert.Equal(t, SeverityInfo, diags[0].Severity)
}

// --- undefined-name ---

func TestUndefinedName_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerUndefinedName, "print(bar)\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "undefined name 'bar'", diags[0].Message)
	assert.Equal(t, Position{File: "test.py", Line: 1, Col: 7}, diags[0].Pos)
}

func TestUndefinedName_Positive_Export(t *testing.T) {
	diags := lintCheck(t, AnalyzerUndefinedName, "__all__ = ['missing']\n")
	assertHasDiag(t, diags, "undefined name 'missing' in __all__")
}

func TestUndefinedName_Negative_ForwardReference(t *testing.T) {
	source := `def a():
    return b()

def b():
    return 1
`
	assertNoDiags(t, lintCheck(t, AnalyzerUndefinedName, source))
}

func TestUndefinedName_Negative_NameErrorGuard(t *testing.T) {
	source := `try:
    unicode
except NameError:
    unicode = str
`
	assertNoDiags(t, lintCheck(t, AnalyzerUndefinedName, source))
}

func TestUndefinedName_Negative_Builtins(t *testing.T) {
	l := &Linter{
		Analyzers: []*Analyzer{AnalyzerUndefinedName},
		Config:    &analysis.Config{Builtins: []string{"_"}},
	}
	diags, err := l.LintFile(context.Background(), []byte("print(_('hello'))\n"), "test.py")
	require.NoError(t, err)
	assertNoDiags(t, diags)
}

// --- undefined-local ---

func TestUndefinedLocal_Positive(t *testing.T) {
	source := `a = 1
def f():
    a
    a = 2
    return a
`
	diags := lintCheck(t, AnalyzerUndefinedLocal, source)
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 3, "defined in enclosing scope on line 1")
}

func TestUndefinedLocal_Negative(t *testing.T) {
	source := `a = 1
def f():
    return a
`
	assertNoDiags(t, lintCheck(t, AnalyzerUndefinedLocal, source))
}

// --- import-star ---

func TestImportStar_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerImportStar, "from os import *\npath\n")
	require.Len(t, diags, 2)
	assertDiagOnLine(t, diags, 1, "'from os import *' used")
	assertDiagOnLine(t, diags, 2, "'path' may be undefined, or defined from star imports: os")
}

func TestImportStar_Positive_InFunction(t *testing.T) {
	source := `def f():
    from os import *
`
	diags := lintCheck(t, AnalyzerImportStar, source)
	assertDiagOnLine(t, diags, 2, "only allowed at module level")
}

func TestImportStar_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerImportStar, "from os import path\npath\n"))
}

// --- redefined-unused ---

func TestRedefinedUnused_Positive_Function(t *testing.T) {
	source := `def a(): pass
def a(): pass
`
	diags := lintCheck(t, AnalyzerRedefinedUnused, source)
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 2, "redefinition of unused 'a' from line 1")
}

func TestRedefinedUnused_Positive_Import(t *testing.T) {
	diags := lintCheck(t, AnalyzerRedefinedUnused, "import os\nimport os\nos\n")
	assertDiagOnLine(t, diags, 2, "redefinition of unused 'os' from line 1")
}

func TestRedefinedUnused_Positive_NestedScope(t *testing.T) {
	source := `import fu
def bar():
    def fu():
        pass
    return fu
`
	diags := lintCheck(t, AnalyzerRedefinedUnused, source)
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 3, "redefinition of unused 'fu' from line 1")
}

func TestRedefinedUnused_Positive_LoopVar(t *testing.T) {
	source := `import fu
for fu in range(2):
    pass
`
	diags := lintCheck(t, AnalyzerRedefinedUnused, source)
	assertDiagOnLine(t, diags, 2, "import 'fu' from line 1 shadowed by loop variable")
}

func TestRedefinedUnused_Negative_Used(t *testing.T) {
	source := `def a(): pass
a()
def a(): pass
`
	assertNoDiags(t, lintCheck(t, AnalyzerRedefinedUnused, source))
}

func TestRedefinedUnused_Negative_Forks(t *testing.T) {
	source := `try:
    from json import loads
except ImportError:
    from simplejson import loads
`
	assertNoDiags(t, lintCheck(t, AnalyzerRedefinedUnused, source))
}

func TestRedefinedUnused_Negative_NestedScopeUsed(t *testing.T) {
	source := `import fu
fu
def bar():
    def fu():
        pass
    return fu
`
	assertNoDiags(t, lintCheck(t, AnalyzerRedefinedUnused, source))
}

// --- unused-import ---

func TestUnusedImport_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerUnusedImport, "import os\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "'os' imported but unused", diags[0].Message)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
}

func TestUnusedImport_Positive_Sources(t *testing.T) {
	source := `import os.path
import sys as system
from collections import OrderedDict as OD
`
	diags := lintCheck(t, AnalyzerUnusedImport, source)
	require.Len(t, diags, 3)
	assertDiagOnLine(t, diags, 1, "'os.path' imported but unused")
	assertDiagOnLine(t, diags, 2, "'sys as system' imported but unused")
	assertDiagOnLine(t, diags, 3, "'collections.OrderedDict as OD' imported but unused")
}

func TestUnusedImport_Positive_InFunction(t *testing.T) {
	source := `def f():
    import os
`
	diags := lintCheck(t, AnalyzerUnusedImport, source)
	assertDiagOnLine(t, diags, 2, "'os' imported but unused")
}

func TestUnusedImport_Negative_Used(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerUnusedImport, "import os\nos.getcwd()\n"))
}

func TestUnusedImport_Negative_ClassBody(t *testing.T) {
	source := `class C:
    import os
`
	assertNoDiags(t, lintCheck(t, AnalyzerUnusedImport, source))
}

func TestUnusedImport_Negative_Future(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerUnusedImport, "from __future__ import annotations\n"))
}

func TestUnusedImport_Negative_Exported(t *testing.T) {
	source := `import os
__all__ = ['os']
`
	assertNoDiags(t, lintCheck(t, AnalyzerUnusedImport, source))
}

// --- unused-variable ---

func TestUnusedVariable_Positive(t *testing.T) {
	source := `def f():
    x = 1
`
	diags := lintCheck(t, AnalyzerUnusedVariable, source)
	require.Len(t, diags, 1)
	assert.Equal(t, "local variable 'x' is assigned to but never used", diags[0].Message)
	assert.Equal(t, Position{File: "test.py", Line: 2, Col: 5}, diags[0].Pos)
}

func TestUnusedVariable_Negative_Module(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerUnusedVariable, "x = 1\n"))
}

func TestUnusedVariable_Positive_LiteralUnpacking(t *testing.T) {
	source := `def f():
    (a, b) = 1, 2
`
	diags := lintCheck(t, AnalyzerUnusedVariable, source)
	require.Len(t, diags, 2)
	assertDiagOnLine(t, diags, 2, "'a'")
	assertDiagOnLine(t, diags, 2, "'b'")
}

func TestUnusedVariable_Negative_Unpacking(t *testing.T) {
	source := `def f():
    (a, b) = divmod(7, 2)
    (c, d) = coords = 1, 2
    return coords
`
	assertNoDiags(t, lintCheck(t, AnalyzerUnusedVariable, source))
}

func TestUnusedVariable_Negative_Locals(t *testing.T) {
	source := `def f():
    x = 1
    return locals()
`
	assertNoDiags(t, lintCheck(t, AnalyzerUnusedVariable, source))
}

// --- repeated-key ---

func TestRepeatedKey_Positive_Literal(t *testing.T) {
	diags := lintCheck(t, AnalyzerRepeatedKey, "d = {'a': 1, 'a': 2}\n")
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, "dictionary key 'a' repeated with different values", d.Message)
	}
}

func TestRepeatedKey_Positive_NumericTower(t *testing.T) {
	diags := lintCheck(t, AnalyzerRepeatedKey, "d = {1: 'a', 1.0: 'b', True: 'c'}\n")
	require.Len(t, diags, 3)
	assertHasDiag(t, diags, "dictionary key 1 repeated")
	assertHasDiag(t, diags, "dictionary key 1.0 repeated")
	assertHasDiag(t, diags, "dictionary key True repeated")
}

func TestRepeatedKey_Positive_Variable(t *testing.T) {
	source := `a = 1
d = {a: 1, a: 2}
`
	diags := lintCheck(t, AnalyzerRepeatedKey, source)
	require.Len(t, diags, 2)
	assertHasDiag(t, diags, "dictionary key variable a repeated with different values")
}

func TestRepeatedKey_Negative_SameValue(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerRepeatedKey, "d = {'a': 1, 'a': 1}\n"))
}

func TestRepeatedKey_Negative_BytesAndText(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerRepeatedKey, "d = {b'a': 1, 'a': 2}\n"))
}

func TestRepeatedKey_Positive_BytesEqualText(t *testing.T) {
	cfg := &analysis.Config{}
	cfg.Literal.BytesEqualText = true
	l := &Linter{Analyzers: []*Analyzer{AnalyzerRepeatedKey}, Config: cfg}
	diags, err := l.LintFile(context.Background(), []byte("d = {b'a': 1, 'a': 2}\n"), "test.py")
	require.NoError(t, err)
	assert.Len(t, diags, 2)
}

// --- unhashable-key ---

func TestUnhashableKey_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerUnhashableKey, "d = {[1]: 'a', {2}: 'b'}\n")
	require.Len(t, diags, 2)
	assertHasDiag(t, diags, "unhashable dictionary key [1]")
	assert.Equal(t, SeverityError, diags[0].Severity)
}

func TestUnhashableKey_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerUnhashableKey, "d = {(1,): 'a', frozenset(): 'b'}\n"))
}

// --- doctest-syntax ---

func TestDoctestSyntax_Positive(t *testing.T) {
	source := `def f():
    """
    >>> def (
    """
`
	diags := lintDoctests(t, AnalyzerDoctestSyntax, source)
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Pos.Line)
	assert.True(t, strings.HasPrefix(diags[0].Message, "syntax error in doctest"))
}

func TestDoctestSyntax_Negative_Disabled(t *testing.T) {
	source := `def f():
    """
    >>> def (
    """
`
	assertNoDiags(t, lintCheck(t, AnalyzerDoctestSyntax, source))
}

func TestDoctest_UndefinedName(t *testing.T) {
	source := `def f():
    """
    >>> missing
    """
`
	diags := lintDoctests(t, AnalyzerUndefinedName, source)
	require.Len(t, diags, 1)
	assert.Equal(t, Position{File: "test.py", Line: 3, Col: 9}, diags[0].Pos)
}

// --- annotation-syntax ---

func TestAnnotationSyntax_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerAnnotationSyntax, "x: 'List[int' = []\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "syntax error in forward annotation 'List[int'", diags[0].Message)
}

func TestAnnotationSyntax_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerAnnotationSyntax, "x: 'int' = 1\n"))
}

// --- future-import ---

func TestFutureImport_Positive_Late(t *testing.T) {
	diags := lintCheck(t, AnalyzerFutureImport, "import os\nfrom __future__ import division\n")
	assertDiagOnLine(t, diags, 2, "must occur at the beginning of the file")
}

func TestFutureImport_Positive_Unknown(t *testing.T) {
	diags := lintCheck(t, AnalyzerFutureImport, "from __future__ import nonsense\n")
	assertDiagOnLine(t, diags, 1, "future feature nonsense is not defined")
}

func TestFutureImport_Negative_AfterDocstring(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerFutureImport, "'''doc'''\nfrom __future__ import division\n"))
}

// --- outside-function / outside-loop ---

func TestOutsideFunction_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerOutsideFunction, "return 1\n")
	assertDiagOnLine(t, diags, 1, "'return' outside function")
}

func TestOutsideFunction_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerOutsideFunction, "def f():\n    return 1\n"))
}

func TestOutsideLoop_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerOutsideLoop, "break\n")
	assertDiagOnLine(t, diags, 1, "'break' outside loop")
}

func TestOutsideLoop_Negative(t *testing.T) {
	source := `for x in range(3):
    if x:
        continue
    break
`
	assertNoDiags(t, lintCheck(t, AnalyzerOutsideLoop, source))
}

// --- except-order ---

func TestExceptOrder_Positive(t *testing.T) {
	source := `try:
    pass
except:
    pass
except ValueError:
    pass
`
	diags := lintCheck(t, AnalyzerExceptOrder, source)
	assertDiagOnLine(t, diags, 3, "default 'except:' must be last")
}

// --- duplicate-argument ---

func TestDuplicateArgument_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerDuplicateArgument, "def f(a, a):\n    pass\n")
	assertHasDiag(t, diags, "duplicate argument 'a' in function definition")
}

func TestDuplicateArgument_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerDuplicateArgument, "def f(a, b):\n    pass\n"))
}

// --- noqa suppression ---

func TestNoqa_Blanket(t *testing.T) {
	assertNoDiags(t, lintSource(t, "import os  # noqa\n"))
}

func TestNoqa_ByName(t *testing.T) {
	assertNoDiags(t, lintSource(t, "import os  # noqa: unused-import\n"))
}

func TestNoqa_ByCode(t *testing.T) {
	assertNoDiags(t, lintSource(t, "import os  # noqa: F401\n"))
	assertNoDiags(t, lintSource(t, "import os  # NOQA:f401\n"))
}

func TestNoqa_OtherCode(t *testing.T) {
	diags := lintSource(t, "import os  # noqa: F821\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "unused-import", diags[0].Analyzer)
}

func TestNoqa_MultipleCodes(t *testing.T) {
	assertNoDiags(t, lintSource(t, "import os; missing  # noqa: F821, F401\n"))
}

func TestNoqa_AfterOtherComment(t *testing.T) {
	assertNoDiags(t, lintSource(t, "import os  # type: ignore  # noqa\n"))
}

func TestNoqa_OtherLine(t *testing.T) {
	diags := lintSource(t, "# noqa\nimport os\n")
	assertDiagOnLine(t, diags, 2, "'os' imported but unused")
}

func TestParseNoqa(t *testing.T) {
	tests := []struct {
		comment string
		ok      bool
		codes   []string
	}{
		{"# noqa", true, nil},
		{"#noqa", true, nil},
		{"# NoQA", true, nil},
		{"# noqa: F401", true, []string{"f401"}},
		{"# noqa:F401,unused-import", true, []string{"f401", "unused-import"}},
		{"# pragma: no cover  # noqa: E501", true, []string{"e501"}},
		{"# comment", false, nil},
		{"# noqanope", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			s, ok := parseNoqa(tt.comment)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			if tt.codes == nil {
				assert.Nil(t, s.codes)
				return
			}
			assert.Len(t, s.codes, len(tt.codes))
			for _, c := range tt.codes {
				assert.True(t, s.codes[c], "code %s", c)
			}
		})
	}
}

// --- output formatting ---

func TestFormatText(t *testing.T) {
	diags := []Diagnostic{
		{Pos: Position{File: "test.py", Line: 10, Col: 1}, Message: "undefined name 'x'", Analyzer: "undefined-name"},
		{Pos: Position{File: "test.py", Line: 20}, Message: "'os' imported but unused", Analyzer: "unused-import"},
	}
	var buf bytes.Buffer
	FormatText(&buf, diags)
	output := buf.String()
	assert.Contains(t, output, "test.py:10:1: undefined name 'x' (undefined-name)")
	assert.Contains(t, output, "test.py:20: 'os' imported but unused (unused-import)")
}

func TestFormatText_WithNotes(t *testing.T) {
	diags := []Diagnostic{
		{Pos: Position{File: "test.py", Line: 10}, Message: "unsupported syntax: match", Analyzer: "unsupported-syntax", Notes: []string{"hint text"}},
	}
	var buf bytes.Buffer
	FormatText(&buf, diags)
	output := buf.String()
	assert.Contains(t, output, "unsupported syntax: match")
	assert.Contains(t, output, "= note: hint text")
}

func TestFormatJSON(t *testing.T) {
	diags := []Diagnostic{
		{Pos: Position{File: "test.py", Line: 10, Col: 3}, Message: "undefined name 'x'", Analyzer: "undefined-name", Severity: SeverityError},
	}
	var buf bytes.Buffer
	err := FormatJSON(&buf, diags)
	require.NoError(t, err)

	// Verify round-trip: unmarshal and compare
	var parsed []Diagnostic
	err = json.Unmarshal(buf.Bytes(), &parsed)
	require.NoError(t, err)
	assert.Equal(t, diags, parsed)
}

// --- severity ---

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "unknown", Severity(0).String())  // severityUnset zero value
	assert.Equal(t, "unknown", Severity(99).String()) // out of range
}

func TestSeverity_UnsetMarshalsAsWarning(t *testing.T) {
	b, err := json.Marshal(Severity(0))
	require.NoError(t, err)
	assert.Equal(t, `"warning"`, string(b))

	var s Severity
	assert.Error(t, json.Unmarshal([]byte(`"fatal"`), &s))
}

func TestSeverity_AnalyzerDefaults(t *testing.T) {
	expected := map[string]Severity{
		"undefined-name":     SeverityError,
		"undefined-local":    SeverityError,
		"import-star":        SeverityWarning,
		"redefined-unused":   SeverityWarning,
		"unused-import":      SeverityWarning,
		"unused-variable":    SeverityWarning,
		"repeated-key":       SeverityWarning,
		"unhashable-key":     SeverityError,
		"doctest-syntax":     SeverityWarning,
		"annotation-syntax":  SeverityError,
		"future-import":      SeverityError,
		"outside-function":   SeverityError,
		"outside-loop":       SeverityError,
		"except-order":       SeverityError,
		"duplicate-argument": SeverityError,
		"unsupported-syntax": SeverityInfo,
	}
	for _, a := range DefaultAnalyzers() {
		want, ok := expected[a.Name]
		if !ok {
			t.Errorf("analyzer %q has no expected severity in test", a.Name)
			continue
		}
		assert.Equal(t, want, a.Severity, "analyzer %s severity", a.Name)
	}
}

func TestSeverity_PropagatedViaReportf(t *testing.T) {
	pass := &Pass{
		Analyzer: &Analyzer{Name: "test-reportf", Severity: SeverityError},
		Filename: "test.py",
	}
	pass.Reportf(ast.At(1, 0).Pos, "test %s", "msg")
	require.Len(t, pass.diagnostics, 1)
	assert.Equal(t, SeverityError, pass.diagnostics[0].Severity)
	assert.Equal(t, "test msg", pass.diagnostics[0].Message)
	assert.Equal(t, Position{File: "test.py", Line: 1, Col: 1}, pass.diagnostics[0].Pos)
}

// --- registry ---

func TestAnalyzers_Unique(t *testing.T) {
	names := make(map[string]bool)
	codes := make(map[string]bool)
	for _, a := range DefaultAnalyzers() {
		assert.False(t, names[a.Name], "duplicate name %s", a.Name)
		names[a.Name] = true
		assert.NotEmpty(t, a.Doc, "analyzer %s has no doc", a.Name)
		if a.Code != "" {
			assert.False(t, codes[a.Code], "duplicate code %s", a.Code)
			codes[a.Code] = true
		}
	}
}

func TestLookup(t *testing.T) {
	a, ok := Lookup("unused-import")
	require.True(t, ok)
	assert.Same(t, AnalyzerUnusedImport, a)

	a, ok = Lookup("f821")
	require.True(t, ok)
	assert.Same(t, AnalyzerUndefinedName, a)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestSelect(t *testing.T) {
	all, err := Select(nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultAnalyzers()))

	some, err := Select([]string{"F401", "undefined-name"}, []string{"undefined-name"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Same(t, AnalyzerUnusedImport, some[0])

	_, err = Select([]string{"bogus"}, nil)
	assert.ErrorContains(t, err, `unknown check: "bogus"`)
	_, err = Select(nil, []string{"bogus"})
	assert.Error(t, err)
}

func TestAnalyzerNames_Sorted(t *testing.T) {
	names := AnalyzerNames()
	assert.Len(t, names, len(DefaultAnalyzers()))
	assert.IsNonDecreasing(t, names)
}

func TestAnalyzerDoc(t *testing.T) {
	doc := AnalyzerDoc()
	assert.Contains(t, doc, "unused-import (F401)")
	assert.Contains(t, doc, "Report imports that are never used.")
	assert.NotContains(t, doc, "Imports in class bodies")
}
