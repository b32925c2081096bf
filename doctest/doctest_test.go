// Copyright © 2024 The ELPS authors

package doctest

import (
	"testing"

	"github.com/luthersystems/flakes/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Single(t *testing.T) {
	examples, err := Parse("\n        >>> x # line 5\n    ")
	require.NoError(t, err)
	require.Len(t, examples, 1)
	ex := examples[0]
	assert.Equal(t, "x # line 5\n", ex.Source)
	assert.Equal(t, 1, ex.Line)
	assert.Equal(t, 8, ex.Indent)
	assert.False(t, ex.HasWant())
}

func TestParse_Want(t *testing.T) {
	doc := `
    >>> buildurl('/blah.php', ('a', '&'), ('b', '=')
    '/blah.php?a=%26&b=%3D'
    >>> buildurl('/blah.php', a='&', 'b'='=')
    '/blah.php?b=%3D&a=%26'
    `
	examples, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, 1, examples[0].Line)
	assert.Equal(t, "'/blah.php?a=%26&b=%3D'\n", examples[0].Want)
	assert.Equal(t, 3, examples[1].Line)
	assert.Equal(t, 4, examples[1].Indent)
	assert.True(t, examples[1].HasWant())
}

func TestParse_Continuation(t *testing.T) {
	doc := `
        >>> def f():
        ...     """
        ...     >>> inner
        ...     """
        ...     return 1
        ...
        >>> f()
        1
    `
	examples, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, "def f():\n    \"\"\"\n    >>> inner\n    \"\"\"\n    return 1\n\n", examples[0].Source)
	assert.Equal(t, 1, examples[0].Line)
	assert.Equal(t, "f()\n", examples[1].Source)
	assert.Equal(t, 7, examples[1].Line)
	assert.Equal(t, "1\n", examples[1].Want)
}

func TestParse_BlankAndCommentExamplesDropped(t *testing.T) {
	doc := `
    >>> 1
    1
    >>>
    >>>
    1
    >>> # just a comment
    >>> 2
    2
    `
	examples, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, "1\n", examples[0].Source)
	assert.Equal(t, "2\n", examples[1].Source)
	assert.Equal(t, 7, examples[1].Line)
}

func TestParse_BlankLineEndsWant(t *testing.T) {
	examples, err := Parse(">>> print(1)\n1\n\nnot output\n")
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, "1\n", examples[0].Want)
}

func TestParse_NoExamples(t *testing.T) {
	examples, err := Parse("Returns the answer.\n\n    Nothing to run here.\n")
	require.NoError(t, err)
	assert.Empty(t, examples)
}

func TestParse_Tabs(t *testing.T) {
	examples, err := Parse("\n\t>>> x\n")
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, TabWidth, examples[0].Indent)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		line int
	}{
		{"missing blank after prompt", "\n    >>>x\n", 1},
		{"missing blank after continuation", ">>> if x:\n...pass\n", 1},
		{"continuation indent", "  >>> if x:\n ... pass\n", 1},
		{"want indent", "\n    >>> 1\n  1\n", 2},
		{"unknown option", ">>> x  # doctest: +BOGUS\n", 0},
		{"option without example", ">>> # doctest: +SKIP\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			var ferr *FormatError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.line, ferr.Line)
		})
	}
}

func TestParse_Options(t *testing.T) {
	examples, err := Parse(">>> x  # doctest: +SKIP, -ELLIPSIS\n>>> y = '# doctest: +BOGUS'\n")
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, map[string]bool{"SKIP": true, "ELLIPSIS": false}, examples[0].Options)
	assert.Nil(t, examples[1].Options)
}

func TestOffset(t *testing.T) {
	ex := &Example{Line: 1, Indent: 8}
	off := For(4, ex)
	assert.Equal(t, Offset{Line: 4, Col: 12}, off)
	assert.Equal(t, ast.Pos{Line: 5, Col: 12}, off.Translate(ast.Pos{Line: 1, Col: 0}))
	assert.Equal(t, ast.Pos{}, off.Translate(ast.Pos{}))
	assert.True(t, Offset{}.IsZero())
	assert.Equal(t, Offset{Line: 5, Col: 13}, off.Add(Offset{Line: 1, Col: 1}))
}
