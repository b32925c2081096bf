// Copyright © 2018 The ELPS authors

package repl

import (
	"sort"
	"strings"
)

// keywords are completed in addition to the names in scope.
var keywords = []string{
	"and", "as", "assert", "async", "await", "break", "class", "continue",
	"def", "del", "elif", "else", "except", "finally", "for", "from",
	"global", "if", "import", "in", "is", "lambda", "nonlocal", "not", "or",
	"pass", "raise", "return", "try", "while", "with", "yield",
}

// nameCompleter implements readline.AutoCompleter by enumerating the
// names bound in the session's module scope.
type nameCompleter struct {
	session *Session
}

func (c *nameCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the identifier being typed.
	start := pos
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	if start > 0 && line[start-1] == '.' {
		// Attributes are not tracked.
		return nil, 0
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := c.collectNames(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len(prefix)
}

func (c *nameCompleter) collectNames(prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if strings.HasPrefix(name, prefix) && name != prefix && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	for _, name := range c.session.Names() {
		add(name)
	}
	for _, kw := range keywords {
		add(kw)
	}
	sort.Strings(result)
	return result
}

func isIdentRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9') || r >= 0x80
}
