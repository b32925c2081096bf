// Copyright © 2024 The ELPS authors

package lsp

import (
	"context"
	"errors"
	"sync"

	"github.com/luthersystems/flakes/analysis"
	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/lint"
	"github.com/luthersystems/flakes/parser"
)

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu      sync.Mutex
	URI     string
	Version int32
	Content string

	// Results of the last check. checked is false after a change until
	// the document is checked again.
	checked   bool
	module    *ast.Module
	semantics *analysis.Result
	diags     []lint.Diagnostic
	syntaxErr *parser.SyntaxError
}

// check parses, analyzes and lints the content. A syntax error is kept
// as an error diagnostic. The caller holds d.mu.
func (d *Document) check(ctx context.Context, l *lint.Linter) error {
	d.checked = true
	d.module, d.semantics, d.diags, d.syntaxErr = nil, nil, nil, nil

	path := uriToPath(d.URI)
	src := []byte(d.Content)
	mod, err := parser.Parse(ctx, src, path)
	if err != nil {
		var se *parser.SyntaxError
		if errors.As(err, &se) {
			d.syntaxErr = se
			d.diags = []lint.Diagnostic{lint.SyntaxDiagnostic(se)}
			return nil
		}
		return err
	}

	var cfg analysis.Config
	if l.Config != nil {
		cfg = *l.Config
	}
	cfg.Filename = path
	res, err := analysis.Analyze(ctx, mod, &cfg)
	if err != nil {
		return err
	}
	diags, err := l.LintModule(mod, src, res)
	if err != nil {
		return err
	}
	d.module, d.semantics, d.diags = mod, res, diags
	return nil
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and marks it unchecked.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.checked = false
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// All returns the open documents in no particular order.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	return docs
}
