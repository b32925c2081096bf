// Copyright © 2024 The ELPS authors

package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luthersystems/flakes/analysis"
)

// AnalyzerUndefinedName reports names that are read but never bound, and
// names listed in __all__ that the module does not define.
var AnalyzerUndefinedName = &Analyzer{
	Name:     "undefined-name",
	Code:     "F821",
	Severity: SeverityError,
	Doc:      "Report names that are used but never defined.\n\nA name is looked up from the innermost scope outward, skipping class bodies for code nested in them. Builtins, names defined anywhere in the module (functions are checked after the module body, so later definitions count), and names exported through __all__ are all considered. Reads guarded by `except NameError` are exempt.",
	Run:      reportMessages(analysis.UndefinedName, analysis.UndefinedExport),
}

// AnalyzerUndefinedLocal reports function locals read before the
// assignment that makes them local.
var AnalyzerUndefinedLocal = &Analyzer{
	Name:     "undefined-local",
	Code:     "F823",
	Severity: SeverityError,
	Doc:      "Report a local variable referenced before assignment.\n\nAssigning a name anywhere in a function makes it local to the whole function. Reading it before the assignment raises UnboundLocalError at run time even when an enclosing scope defines the same name.",
	Run:      reportMessages(analysis.UndefinedLocal),
}

// AnalyzerImportStar reports wildcard imports.
var AnalyzerImportStar = &Analyzer{
	Name:     "import-star",
	Code:     "F403",
	Severity: SeverityWarning,
	Doc:      "Report `from module import *`.\n\nA star import hides which names a module defines, so undefined names can no longer be detected. Names that would otherwise be undefined are reported with the modules they may come from. Star imports are only allowed at module level.",
	Run: reportMessages(analysis.ImportStarUsed, analysis.ImportStarUsage,
		analysis.ImportStarNotPermitted),
}

// AnalyzerRedefinedUnused reports definitions and imports that are
// replaced before anything used them.
var AnalyzerRedefinedUnused = &Analyzer{
	Name:     "redefined-unused",
	Code:     "F811",
	Severity: SeverityWarning,
	Doc:      "Report a definition or import replaced before it was used.\n\nRebinding a function, class or import that was never read usually means a copy-paste error or a dead import. Bindings on different branches of an if, try or match statement do not conflict, nor do functions decorated with typing.overload. An import shadowed by a for-loop variable is reported too.",
	Run: func(pass *Pass) error {
		report(pass, analysis.RedefinedWhileUnused, analysis.ImportShadowedByLoopVar)
		for _, s := range pass.Semantics.Dead() {
			if s.Kind == analysis.ScopeClass {
				continue
			}
			for _, b := range s.Bindings() {
				if b.Kind != analysis.BindImport || b.Used {
					continue
				}
				for _, pos := range b.Redefined {
					m := &analysis.Message{Kind: analysis.RedefinedWhileUnused, Pos: pos, Name: b.Name, Orig: b.Pos}
					pass.Reportf(pos, "%s", m.Text())
				}
			}
		}
		return nil
	},
}

// AnalyzerUnusedImport reports imports nothing reads.
var AnalyzerUnusedImport = &Analyzer{
	Name:     "unused-import",
	Code:     "F401",
	Severity: SeverityWarning,
	Doc:      "Report imports that are never used.\n\nImports in class bodies are public attributes and are not reported. __future__ imports and names re-exported through the module's __all__ count as used.",
	Run: func(pass *Pass) error {
		for _, s := range pass.Semantics.Dead() {
			if s.Kind == analysis.ScopeClass {
				continue
			}
			for _, b := range s.Bindings() {
				if b.Kind != analysis.BindImport || b.Used || b.Future {
					continue
				}
				m := &analysis.Message{Kind: analysis.UnusedImport, Pos: b.Pos, Name: b.Source()}
				pass.Reportf(b.Pos, "%s", m.Text())
			}
		}
		return nil
	},
}

// AnalyzerUnusedVariable reports function locals that are assigned and
// never read.
var AnalyzerUnusedVariable = &Analyzer{
	Name:     "unused-variable",
	Code:     "F841",
	Severity: SeverityWarning,
	Doc:      "Report local variables that are assigned but never used.\n\nOnly plain assignments in function bodies are considered. Tuple unpacking, augmented assignment targets, `_`, names declared global or nonlocal and functions calling locals() are exempt. An `except ... as name` whose name is never read is reported in any scope.",
	Run:      reportMessages(analysis.UnusedVariable),
}

// AnalyzerRepeatedKey reports dict displays with a key repeated with
// different values.
var AnalyzerRepeatedKey = &Analyzer{
	Name:     "repeated-key",
	Code:     "F601",
	Severity: SeverityWarning,
	Doc:      "Report dictionary keys repeated with different values.\n\nKeys compare the way Python compares them: 1, 1.0 and True are the same key. Each occurrence is reported. Keys repeated with the same value are harmless and ignored, and a variable used twice as a key is reported by name.",
	Run:      reportMessages(analysis.MultiValueRepeatedKeyLiteral, analysis.MultiValueRepeatedKeyVariable),
}

// AnalyzerUnhashableKey reports dict keys that cannot be hashed.
var AnalyzerUnhashableKey = &Analyzer{
	Name:     "unhashable-key",
	Code:     "F609",
	Severity: SeverityError,
	Doc:      "Report list, set and dict displays used as dictionary keys.\n\nBuilding the dictionary raises TypeError. Every such key is reported on its own.",
	Run:      reportMessages(analysis.UnhashableTypeError),
}

// AnalyzerDoctestSyntax reports docstring examples that do not parse.
var AnalyzerDoctestSyntax = &Analyzer{
	Name:     "doctest-syntax",
	Code:     "F999",
	Severity: SeverityWarning,
	Doc:      "Report syntax errors in docstring examples.\n\nOnly runs when doctest checking is enabled. The examples of a docstring are checked like module code in a scope of their own, and a broken example is skipped after it is reported.",
	Run:      reportMessages(analysis.DoctestSyntaxError),
}

// AnalyzerAnnotationSyntax reports string annotations that do not parse.
var AnalyzerAnnotationSyntax = &Analyzer{
	Name:     "annotation-syntax",
	Code:     "F722",
	Severity: SeverityError,
	Doc:      "Report string annotations that are not valid expressions.\n\nForward references written as strings are parsed and checked once the module is complete.",
	Run:      reportMessages(analysis.ForwardAnnotationSyntaxError),
}

// AnalyzerFutureImport reports misplaced or unknown __future__ imports.
var AnalyzerFutureImport = &Analyzer{
	Name:     "future-import",
	Code:     "F404",
	Severity: SeverityError,
	Doc:      "Report misplaced or unknown __future__ imports.\n\nA __future__ import must come before any other statement except the module docstring and other __future__ imports, and it must name a known feature.",
	Run:      reportMessages(analysis.LateFutureImport, analysis.FutureFeatureNotDefined),
}

// AnalyzerOutsideFunction reports return and yield outside a function.
var AnalyzerOutsideFunction = &Analyzer{
	Name:     "outside-function",
	Code:     "F706",
	Severity: SeverityError,
	Doc:      "Report return, yield and await outside a function body.",
	Run:      reportMessages(analysis.ReturnOutsideFunction, analysis.YieldOutsideFunction),
}

// AnalyzerOutsideLoop reports break and continue outside a loop body.
var AnalyzerOutsideLoop = &Analyzer{
	Name:     "outside-loop",
	Code:     "F701",
	Severity: SeverityError,
	Doc:      "Report break and continue outside a loop.\n\nThe else clause of a loop is not part of the loop body.",
	Run:      reportMessages(analysis.BreakOutsideLoop, analysis.ContinueOutsideLoop),
}

// AnalyzerExceptOrder reports a bare except clause that is not the last
// handler.
var AnalyzerExceptOrder = &Analyzer{
	Name:     "except-order",
	Code:     "F707",
	Severity: SeverityError,
	Doc:      "Report a bare `except:` that is not the last handler of a try statement.",
	Run:      reportMessages(analysis.DefaultExceptNotLast),
}

// AnalyzerDuplicateArgument reports a parameter name used twice in one
// signature.
var AnalyzerDuplicateArgument = &Analyzer{
	Name:     "duplicate-argument",
	Code:     "F831",
	Severity: SeverityError,
	Doc:      "Report duplicate parameter names in a function or lambda definition.",
	Run:      reportMessages(analysis.DuplicateArgument),
}

// AnalyzerUnsupportedSyntax reports constructs the checker does not model.
var AnalyzerUnsupportedSyntax = &Analyzer{
	Name:     "unsupported-syntax",
	Severity: SeverityInfo,
	Doc:      "Report syntax the checker does not model.\n\nNames inside such constructs are still resolved, but bindings they create may be missed. Each kind of construct is reported once per file.",
	Run:      reportMessages(analysis.UnsupportedSyntax),
}

// reportMessages returns a Run func reporting the analysis messages of the
// given kinds.
func reportMessages(kinds ...analysis.MessageKind) func(*Pass) error {
	return func(pass *Pass) error {
		report(pass, kinds...)
		return nil
	}
}

func report(pass *Pass, kinds ...analysis.MessageKind) {
	if pass.Semantics == nil {
		return
	}
	want := make(map[analysis.MessageKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	for _, m := range pass.Semantics.Messages {
		if !want[m.Kind] {
			continue
		}
		d := Diagnostic{Pos: PositionOf(pass.Filename, m.Pos), Message: m.Text()}
		if m.Kind == analysis.UnsupportedSyntax {
			pass.ReportWithNotes(d, "names bound inside this construct are not tracked")
			continue
		}
		pass.Report(d)
	}
}

// DefaultAnalyzers returns the built-in set of lint checks.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerUndefinedName,
		AnalyzerUndefinedLocal,
		AnalyzerImportStar,
		AnalyzerRedefinedUnused,
		AnalyzerUnusedImport,
		AnalyzerUnusedVariable,
		AnalyzerRepeatedKey,
		AnalyzerUnhashableKey,
		AnalyzerDoctestSyntax,
		AnalyzerAnnotationSyntax,
		AnalyzerFutureImport,
		AnalyzerOutsideFunction,
		AnalyzerOutsideLoop,
		AnalyzerExceptOrder,
		AnalyzerDuplicateArgument,
		AnalyzerUnsupportedSyntax,
	}
}

// Lookup returns the default analyzer with the given name or code.
func Lookup(name string) (*Analyzer, bool) {
	for _, a := range DefaultAnalyzers() {
		if a.Name == name || (a.Code != "" && strings.EqualFold(a.Code, name)) {
			return a, true
		}
	}
	return nil, false
}

// Select returns the default analyzers named in enable, or all of them
// when enable is empty, minus those named in disable.
func Select(enable, disable []string) ([]*Analyzer, error) {
	var base []*Analyzer
	if len(enable) == 0 {
		base = DefaultAnalyzers()
	}
	for _, name := range enable {
		a, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown check: %q", name)
		}
		base = append(base, a)
	}
	skip := make(map[*Analyzer]bool)
	for _, name := range disable {
		a, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown check: %q", name)
		}
		skip[a] = true
	}
	var out []*Analyzer
	for _, a := range base {
		if !skip[a] {
			out = append(out, a)
		}
	}
	return out, nil
}

// AnalyzerNames returns a sorted list of all default analyzer names.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		if a.Code != "" {
			fmt.Fprintf(&b, "  %s (%s)\n", a.Name, a.Code)
		} else {
			fmt.Fprintf(&b, "  %s\n", a.Name)
		}
		lines := strings.Split(a.Doc, "\n")
		fmt.Fprintf(&b, "    %s\n\n", lines[0])
	}
	return b.String()
}
