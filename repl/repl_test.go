// Copyright © 2018 The ELPS authors

package repl

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/flakes/diagnostic"
	"github.com/luthersystems/flakes/lint"
)

func runReplWithString(t *testing.T, input string) string {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	go func() {
		defer inW.Close() //nolint:errcheck // test cleanup
		_, _ = io.WriteString(inW, input)
	}()

	go func() {
		err := Run(context.Background(), ">>> ",
			WithStdin(inR),
			WithStderr(outW),
			WithColor(diagnostic.ColorNever),
			WithHistoryFile(""))
		assert.NoError(t, err)
		inR.Close()  //nolint:errcheck,gosec // test cleanup
		outW.Close() //nolint:errcheck,gosec // test cleanup
	}()

	var output bytes.Buffer
	_, _ = io.Copy(&output, outR)
	outR.Close() //nolint:errcheck,gosec // test cleanup

	return output.String()
}

func newTestSession() *Session {
	return NewSession(&lint.Linter{Analyzers: lint.DefaultAnalyzers()})
}

func TestEnsureHistoryFilePermissions_CreatesWithRestrictedMode(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".flakes_history")

	// File does not exist yet.
	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err, "history file should be created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "new history file should have mode 0600")
}

func TestEnsureHistoryFilePermissions_RestrictsExistingFile(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".flakes_history")

	err := os.WriteFile(histFile, []byte("some history"), 0644)
	require.NoError(t, err)

	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "existing history file should be restricted to 0600")

	data, err := os.ReadFile(histFile)
	require.NoError(t, err)
	assert.Equal(t, "some history", string(data))
}

func TestEnsureHistoryFilePermissions_EmptyPathNoOp(t *testing.T) {
	ensureHistoryFilePermissions("")
}

func TestSession_ReportsOnlyNewBlock(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	diags, err := s.Check(ctx, "x = y")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "undefined name 'y'", diags[0].Message)
	assert.Equal(t, 1, diags[0].Pos.Line)
	assert.Equal(t, sessionFile, diags[0].Pos.File)

	diags, err = s.Check(ctx, "z = x")
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestSession_NamesFromEarlierBlocks(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	diags, err := s.Check(ctx, "def f():\n    return 1\n")
	require.NoError(t, err)
	assert.Empty(t, diags)

	diags, err = s.Check(ctx, "f()\nmissing")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "undefined-name", diags[0].Analyzer)
	assert.Equal(t, 4, diags[0].Pos.Line)

	assert.Equal(t, "def f():\n    return 1\nf()\nmissing\n", s.Source())
	assert.Contains(t, s.Names(), "f")
	assert.Contains(t, s.Names(), "print")
}

func TestSession_SyntaxErrorNotKept(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	_, err := s.Check(ctx, "a = 1")
	require.NoError(t, err)

	diags, err := s.Check(ctx, "def (")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "syntax", diags[0].Analyzer)
	assert.Equal(t, "a = 1\n", s.Source())

	diags, err = s.Check(ctx, "print(a)")
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestSession_Reset(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	_, err := s.Check(ctx, "value = 1")
	require.NoError(t, err)
	s.Reset()
	assert.Empty(t, s.Source())
	assert.NotContains(t, s.Names(), "value")

	diags, err := s.Check(ctx, "print(value)")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Pos.Line)
}

func TestSession_BlankBlock(t *testing.T) {
	s := newTestSession()
	diags, err := s.Check(context.Background(), "  \n")
	require.NoError(t, err)
	assert.Nil(t, diags)
	assert.Empty(t, s.Source())
}

func TestOpensBlock(t *testing.T) {
	for line, want := range map[string]bool{
		"def f():":          true,
		"if x:  ":           true,
		"@decorator":        true,
		"x = [1,":           true,
		"x = (1 + \\":       true,
		"x = 1":             false,
		"print(x)":          false,
		"d = {}  # {":       false,
		"call(a, # comment": true,
	} {
		assert.Equal(t, want, opensBlock(line), line)
	}
}

func TestNameCompleter(t *testing.T) {
	s := newTestSession()
	_, err := s.Check(context.Background(), "import collections\nmy_value = 1")
	require.NoError(t, err)

	c := &nameCompleter{session: s}

	candidates, offset := c.Do([]rune("print(my_"), 9)
	assert.Equal(t, 3, offset)
	assert.Equal(t, [][]rune{[]rune("value")}, candidates)

	candidates, _ = c.Do([]rune("coll"), 4)
	assert.Equal(t, [][]rune{[]rune("ections")}, candidates)

	candidates, _ = c.Do([]rune("lamb"), 4)
	assert.Equal(t, [][]rune{[]rune("da")}, candidates)

	// Attributes are not completed.
	candidates, _ = c.Do([]rune("collections.de"), 14)
	assert.Empty(t, candidates)

	candidates, _ = c.Do([]rune("zzz_nonexistent"), 15)
	assert.Empty(t, candidates)
}

func TestRun(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
		absent   []string
	}{
		{
			name:     "Clean",
			input:    "import os\nprint(os.sep)\n",
			absent:   []string{"error", "warning"},
			expected: []string{},
		},
		{
			name:     "Undefined",
			input:    "x = fnord\n",
			expected: []string{"undefined name 'fnord'"},
		},
		{
			name:     "Block",
			input:    "def f():\n    return nope\n\n",
			expected: []string{"undefined name 'nope'"},
		},
		{
			name:     "BlockAtEOF",
			input:    "for i in range(3):\n    print(j)\n",
			expected: []string{"undefined name 'j'"},
		},
		{
			name:     "Reset",
			input:    "a = 1\n:reset\nprint(a)\n",
			expected: []string{"undefined name 'a'"},
		},
		{
			name:     "Source",
			input:    "a = 1\n:source\n",
			expected: []string{"a = 1\n"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := runReplWithString(t, tc.input)
			for _, want := range tc.expected {
				assert.Contains(t, got, want)
			}
			for _, bad := range tc.absent {
				assert.NotContains(t, got, bad)
			}
		})
	}
}
