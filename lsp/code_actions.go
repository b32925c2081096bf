// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/flakes/lint"
)

// textDocumentCodeAction handles the textDocument/codeAction request.
// It returns quick-fix actions for diagnostics in the requested range.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	// If the client only wants specific kinds, check we support them.
	if len(params.Context.Only) > 0 {
		if !slicesContains(params.Context.Only, protocol.CodeActionKindQuickFix) {
			return nil, nil
		}
	}

	doc.mu.Lock()
	content := doc.Content
	doc.mu.Unlock()

	var actions []protocol.CodeAction
	for _, diag := range params.Context.Diagnostics {
		if diag.Source == nil || *diag.Source != diagnosticSource || diag.Code == nil {
			continue
		}
		analyzer := fmt.Sprintf("%v", diag.Code.Value)
		if analyzer == "" || analyzer == "syntax" {
			continue
		}
		if a, ok := suppressLintAction(params.TextDocument.URI, diag, analyzer, content); ok {
			actions = append(actions, a)
		}
	}

	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

// suppressLintAction creates a code action that adds a "# noqa: code"
// comment to the end of the diagnostic line, or extends the codes of a
// directive already there. A blanket noqa needs no action.
func suppressLintAction(uri string, diag protocol.Diagnostic, analyzer, content string) (protocol.CodeAction, bool) {
	code := analyzer
	if a, ok := lint.Lookup(analyzer); ok && a.Code != "" {
		code = a.Code
	}

	line := int(diag.Range.Start.Line)
	lines := strings.Split(content, "\n")
	text := ""
	if line >= 0 && line < len(lines) {
		text = strings.TrimRight(lines[line], "\r")
	}

	insert := "  # noqa: " + code
	at := len(text)
	if i := strings.Index(strings.ToLower(text), "# noqa"); i >= 0 {
		rest := strings.TrimSpace(text[i+len("# noqa"):])
		if !strings.HasPrefix(rest, ":") {
			return protocol.CodeAction{}, false
		}
		insert = ", " + code
		at = len(strings.TrimRight(text, " \t"))
	}

	kind := protocol.CodeActionKindQuickFix
	pos := protocol.Position{Line: diag.Range.Start.Line, Character: safeUint(at)}
	return protocol.CodeAction{
		Title:       fmt.Sprintf("Suppress with # noqa: %s", code),
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diag},
		Edit: &protocol.WorkspaceEdit{
			Changes: map[string][]protocol.TextEdit{
				uri: {
					{
						Range:   protocol.Range{Start: pos, End: pos},
						NewText: insert,
					},
				},
			},
		},
	}, true
}

// slicesContains checks if a string slice contains a value.
func slicesContains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
