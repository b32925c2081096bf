// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/flakes/analysis"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol
// request with the names bound at module level.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureChecked(doc)

	doc.mu.Lock()
	res := doc.semantics
	doc.mu.Unlock()
	if res == nil {
		return nil, nil
	}

	var symbols []protocol.DocumentSymbol
	for _, b := range res.ModuleScope().Bindings() {
		if b.Kind == analysis.BindBuiltin || b.Kind == analysis.BindGlobal || b.Star || !b.Pos.IsValid() {
			continue
		}
		r := astToLSPRange(b.Pos, len(b.Name))
		detail := b.Kind.String()
		if b.Kind == analysis.BindImport {
			detail = b.Source()
		}
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           b.Name,
			Detail:         &detail,
			Kind:           mapSymbolKind(b.Kind),
			Range:          r,
			SelectionRange: r,
		})
	}

	// Return as []DocumentSymbol (the preferred hierarchical form).
	return symbols, nil
}

func mapSymbolKind(kind analysis.BindingKind) protocol.SymbolKind {
	switch kind {
	case analysis.BindFunction:
		return protocol.SymbolKindFunction
	case analysis.BindClass:
		return protocol.SymbolKindClass
	case analysis.BindImport:
		return protocol.SymbolKindModule
	default:
		return protocol.SymbolKindVariable
	}
}
