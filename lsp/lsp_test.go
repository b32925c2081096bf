// Copyright © 2024 The ELPS authors

package lsp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/flakes/analysis"
	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/lint"
)

const testURI = "file:///test.py"

// openDoc opens a document in the test server and returns it.
func openDoc(s *Server, uri, content string) *Document {
	return s.docs.Open(uri, 1, content)
}

// publishCapture records published diagnostics. Debounced checks publish
// from a timer goroutine.
type publishCapture struct {
	mu        sync.Mutex
	published []*protocol.PublishDiagnosticsParams
}

func (c *publishCapture) all() []*protocol.PublishDiagnosticsParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*protocol.PublishDiagnosticsParams(nil), c.published...)
}

func (c *publishCapture) last(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()
	all := c.all()
	require.NotEmpty(t, all, "no diagnostics published")
	return all[len(all)-1]
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, *publishCapture) {
	c := &publishCapture{}
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				c.mu.Lock()
				c.published = append(c.published, params.(*protocol.PublishDiagnosticsParams))
				c.mu.Unlock()
			}
		},
	}
	return ctx, c
}

func didOpen(t *testing.T, s *Server, ctx *glsp.Context, content string) {
	t.Helper()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        testURI,
			LanguageID: "python",
			Version:    1,
			Text:       content,
		},
	})
	require.NoError(t, err)
}

func codes(diags []protocol.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, d.Code.Value.(string))
	}
	return out
}

// --- Position conversion tests ---

func TestPositionConversion(t *testing.T) {
	pos := astToLSPPosition(ast.Pos{Line: 3, Col: 4})
	assert.Equal(t, protocol.UInteger(2), pos.Line)
	assert.Equal(t, protocol.UInteger(4), pos.Character)

	r := astToLSPRange(ast.Pos{Line: 1, Col: 0}, 3)
	assert.Equal(t, protocol.UInteger(0), r.Start.Character)
	assert.Equal(t, protocol.UInteger(3), r.End.Character)
}

func TestLintToLSPRange(t *testing.T) {
	content := "import os\nx = os.path.join(a)\n"
	r := lintToLSPRange(lint.Position{Line: 2, Col: 5}, content)
	assert.Equal(t, protocol.Position{Line: 1, Character: 4}, r.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 16}, r.End)

	assert.Equal(t, protocol.Range{}, lintToLSPRange(lint.Position{}, content))
}

func TestWordAtPosition(t *testing.T) {
	content := "def f(arg):\n    return missing_name + 1\n"
	assert.Equal(t, "missing_name", wordAtPosition(content, 1, 11))
	assert.Equal(t, "", wordAtPosition(content, 1, 24))
	assert.Equal(t, "", wordAtPosition(content, 5, 0))
	assert.Equal(t, "f", wordAtPosition(content, 0, 4))
}

func TestURIConversion(t *testing.T) {
	assert.Equal(t, "/home/user/app.py", uriToPath("file:///home/user/app.py"))
	assert.Equal(t, "untitled:1", uriToPath("untitled:1"))
	assert.Equal(t, "file:///home/user/app.py", pathToURI("/home/user/app.py"))
	assert.Equal(t, "rel.py", pathToURI("rel.py"))
}

// --- Document store ---

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	doc := store.Open(testURI, 1, "x = 1\n")
	assert.Same(t, doc, store.Get(testURI))
	assert.Len(t, store.All(), 1)

	changed := store.Change(testURI, 2, "x = 2\n")
	assert.Same(t, doc, changed)
	assert.Equal(t, int32(2), changed.Version)
	assert.Equal(t, "x = 2\n", changed.Content)
	assert.False(t, changed.checked)

	store.Close(testURI)
	assert.Nil(t, store.Get(testURI))
	assert.Empty(t, store.All())
}

func TestDocumentCheck(t *testing.T) {
	s := New()
	doc := openDoc(s, testURI, "import os\n")
	s.ensureChecked(doc)
	require.True(t, doc.checked)
	require.NotNil(t, doc.semantics)
	require.Len(t, doc.diags, 1)
	assert.Equal(t, "unused-import", doc.diags[0].Analyzer)
	assert.Equal(t, "/test.py", doc.diags[0].Pos.File)
}

func TestDocumentCheckSyntaxError(t *testing.T) {
	s := New()
	doc := openDoc(s, testURI, "def f(:\n")
	s.ensureChecked(doc)
	require.NotNil(t, doc.syntaxErr)
	assert.Nil(t, doc.semantics)
	require.Len(t, doc.diags, 1)
	assert.Equal(t, "syntax", doc.diags[0].Analyzer)
	assert.Equal(t, lint.SeverityError, doc.diags[0].Severity)
}

// --- Diagnostics ---

func TestDiagnosticsOnOpen_ValidCode(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	didOpen(t, s, ctx, "import os\nprint(os.sep)\n")

	pub := captured.last(t)
	assert.Equal(t, testURI, pub.URI)
	assert.Empty(t, pub.Diagnostics)
}

func TestDiagnosticsOnOpen_Problems(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	didOpen(t, s, ctx, "import os\nprint(missing)\n")

	pub := captured.last(t)
	require.Len(t, pub.Diagnostics, 2)
	assert.Equal(t, []string{"unused-import", "undefined-name"}, codes(pub.Diagnostics))

	unused := pub.Diagnostics[0]
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *unused.Severity)
	assert.Equal(t, diagnosticSource, *unused.Source)
	assert.Equal(t, []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}, unused.Tags)

	undefined := pub.Diagnostics[1]
	assert.Equal(t, protocol.DiagnosticSeverityError, *undefined.Severity)
	assert.Equal(t, protocol.Position{Line: 1, Character: 6}, undefined.Range.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 13}, undefined.Range.End)
	assert.Nil(t, undefined.Tags)
}

func TestDiagnosticsOnParseError(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	didOpen(t, s, ctx, "def f(:\n    pass\n")

	pub := captured.last(t)
	require.Len(t, pub.Diagnostics, 1)
	assert.Equal(t, "syntax", pub.Diagnostics[0].Code.Value)
	assert.Equal(t, protocol.DiagnosticSeverityError, *pub.Diagnostics[0].Severity)
	assert.Equal(t, protocol.UInteger(0), pub.Diagnostics[0].Range.Start.Line)
}

func TestDiagnosticsOnChange_Debounced(t *testing.T) {
	s := New(WithDebounce(10 * time.Millisecond))
	ctx, captured := capturingContext()
	didOpen(t, s, ctx, "x = 1\n")
	require.Len(t, captured.all(), 1)

	err := s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "x = y\n"},
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(captured.all()) == 2 },
		time.Second, 5*time.Millisecond)
	pub := captured.last(t)
	require.Len(t, pub.Diagnostics, 1)
	assert.Contains(t, pub.Diagnostics[0].Message, "undefined name 'y'")
}

func TestDiagnosticsOnSave_Immediate(t *testing.T) {
	s := New(WithDebounce(time.Hour))
	ctx, captured := capturingContext()
	didOpen(t, s, ctx, "x = 1\n")

	s.docs.Change(testURI, 2, "import sys\n")
	err := s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)

	pub := captured.last(t)
	require.Len(t, pub.Diagnostics, 1)
	assert.Equal(t, "unused-import", pub.Diagnostics[0].Code.Value)
}

func TestDiagnosticsOnClose_Cleared(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	didOpen(t, s, ctx, "import os\n")

	err := s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)

	pub := captured.last(t)
	assert.Empty(t, pub.Diagnostics)
	assert.Nil(t, s.docs.Get(testURI))
}

func TestDiagnostics_CustomLinter(t *testing.T) {
	l := &lint.Linter{
		Analyzers: []*lint.Analyzer{lint.AnalyzerUndefinedName},
		Config:    &analysis.Config{Builtins: []string{"injected"}},
	}
	s := New(WithLinter(l))
	ctx, captured := capturingContext()
	didOpen(t, s, ctx, "import os\ninjected()\n")
	assert.Empty(t, captured.last(t).Diagnostics)
}

func TestMapLintSeverity(t *testing.T) {
	assert.Equal(t, protocol.DiagnosticSeverityError, mapLintSeverity(lint.SeverityError))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, mapLintSeverity(lint.SeverityWarning))
	assert.Equal(t, protocol.DiagnosticSeverityInformation, mapLintSeverity(lint.SeverityInfo))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, mapLintSeverity(lint.Severity(0)))
}

// --- Document symbols ---

func TestDocumentSymbols(t *testing.T) {
	s := New()
	openDoc(s, testURI, `import os.path as p

CONSTANT = 1

def helper():
    local = 2
    return local

class Widget:
    pass
`)
	result, err := s.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	symbols, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)

	byName := make(map[string]protocol.DocumentSymbol)
	for _, sym := range symbols {
		byName[sym.Name] = sym
	}
	require.Len(t, byName, 4)
	assert.NotContains(t, byName, "local")
	assert.Equal(t, protocol.SymbolKindModule, byName["p"].Kind)
	assert.Equal(t, "os.path as p", *byName["p"].Detail)
	assert.Equal(t, protocol.SymbolKindVariable, byName["CONSTANT"].Kind)
	assert.Equal(t, protocol.SymbolKindFunction, byName["helper"].Kind)
	assert.Equal(t, protocol.SymbolKindClass, byName["Widget"].Kind)
	assert.Equal(t, protocol.UInteger(4), byName["helper"].Range.Start.Line)
}

func TestDocumentSymbols_SyntaxError(t *testing.T) {
	s := New()
	openDoc(s, testURI, "def f(:\n")
	result, err := s.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

// --- Code actions ---

func codeAction(t *testing.T, s *Server, diags []protocol.Diagnostic) []protocol.CodeAction {
	t.Helper()
	result, err := s.textDocumentCodeAction(nil, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Context:      protocol.CodeActionContext{Diagnostics: diags},
	})
	require.NoError(t, err)
	if result == nil {
		return nil
	}
	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok)
	return actions
}

func TestCodeAction_SuppressByCode(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	didOpen(t, s, ctx, "import os\n")
	diags := captured.last(t).Diagnostics
	require.Len(t, diags, 1)

	actions := codeAction(t, s, diags)
	require.Len(t, actions, 1)
	assert.Equal(t, "Suppress with # noqa: F401", actions[0].Title)
	edit := actions[0].Edit.Changes[testURI][0]
	assert.Equal(t, "  # noqa: F401", edit.NewText)
	assert.Equal(t, protocol.Position{Line: 0, Character: 9}, edit.Range.Start)
}

func TestCodeAction_ExtendExistingDirective(t *testing.T) {
	s := New()
	ctx, captured := capturingContext()
	didOpen(t, s, ctx, "import os; missing  # noqa: F401\n")
	diags := captured.last(t).Diagnostics
	require.Len(t, diags, 1)
	assert.Equal(t, "undefined-name", diags[0].Code.Value)

	actions := codeAction(t, s, diags)
	require.Len(t, actions, 1)
	assert.Equal(t, ", F821", actions[0].Edit.Changes[testURI][0].NewText)
}

func TestCodeAction_IgnoresSyntaxAndForeign(t *testing.T) {
	s := New()
	openDoc(s, testURI, "x\n")
	other := "other-tool"
	diags := []protocol.Diagnostic{
		{Source: strPtr(diagnosticSource), Code: &protocol.IntegerOrString{Value: "syntax"}},
		{Source: &other, Code: &protocol.IntegerOrString{Value: "E501"}},
		{Source: strPtr(diagnosticSource)},
	}
	assert.Nil(t, codeAction(t, s, diags))
}

func TestCodeAction_OnlyOtherKinds(t *testing.T) {
	s := New()
	openDoc(s, testURI, "import os\n")
	result, err := s.textDocumentCodeAction(nil, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Context: protocol.CodeActionContext{
			Only: []protocol.CodeActionKind{protocol.CodeActionKindRefactor},
			Diagnostics: []protocol.Diagnostic{
				{Source: strPtr(diagnosticSource), Code: &protocol.IntegerOrString{Value: "unused-import"}},
			},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

// --- Lifecycle ---

func TestInitialize(t *testing.T) {
	s := New()
	root := "file:///project"
	result, err := s.initialize(&glsp.Context{Notify: func(string, any) {}}, &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)
	init, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, serverName, init.ServerInfo.Name)
	assert.Equal(t, root, s.rootURI)
}

func TestShutdownAndExit(t *testing.T) {
	s := New(WithDebounce(time.Hour))
	ctx, _ := capturingContext()
	didOpen(t, s, ctx, "x = 1\n")
	s.debounce[testURI] = time.AfterFunc(time.Hour, func() {})

	require.NoError(t, s.shutdown(ctx))
	assert.Empty(t, s.debounce)

	code := -1
	s.exitFn = func(c int) { code = c }
	require.NoError(t, s.exit(ctx))
	assert.Equal(t, 0, code)
}
