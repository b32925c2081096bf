// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/lint"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// astToLSPPosition converts a syntax tree position (1-based line, 0-based
// column) to a 0-based LSP position.
func astToLSPPosition(p ast.Pos) protocol.Position {
	return protocol.Position{
		Line:      safeUint(p.Line - 1),
		Character: safeUint(p.Col),
	}
}

// astToLSPRange converts a position to a range nameLen characters wide.
func astToLSPRange(p ast.Pos, nameLen int) protocol.Range {
	start := astToLSPPosition(p)
	end := start
	end.Character += safeUint(nameLen)
	return protocol.Range{Start: start, End: end}
}

// lintToLSPRange converts a lint position (1-based line and column) to a
// range covering the word that starts there.
func lintToLSPRange(pos lint.Position, content string) protocol.Range {
	if pos.Line <= 0 {
		return protocol.Range{}
	}
	col := pos.Col
	if col > 0 {
		col--
	}
	start := protocol.Position{Line: safeUint(pos.Line - 1), Character: safeUint(col)}
	end := start
	end.Character += safeUint(len(wordAtPosition(content, pos.Line-1, col)))
	return protocol.Range{Start: start, End: end}
}

// wordAtPosition returns the identifier or dotted name starting at the
// 0-based line and column.
func wordAtPosition(content string, line, col int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	text := lines[line]
	if col < 0 || col >= len(text) {
		return ""
	}
	end := col
	for end < len(text) && isNameChar(text[end]) {
		end++
	}
	return text[col:end]
}

func isNameChar(c byte) bool {
	return c == '_' || c == '.' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') ||
		c >= 0x80
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
