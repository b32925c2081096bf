// Copyright © 2024 The ELPS authors

package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/flakes/ast"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, err := ParseString(context.Background(), src, "test.py")
	require.NoError(t, err)
	return mod
}

func TestParse_Empty(t *testing.T) {
	mod := parse(t, "")
	assert.Empty(t, mod.Body)
	assert.Equal(t, "test.py", mod.Filename)
}

func TestParse_Assign(t *testing.T) {
	mod := parse(t, "a = b = 1\nx: int = 2\ny += 3\n")
	require.Len(t, mod.Body, 3)

	a := mod.Body[0].(*ast.Assign)
	require.Len(t, a.Targets, 2)
	assert.Equal(t, "a", a.Targets[0].(*ast.Name).ID)
	assert.Equal(t, "b", a.Targets[1].(*ast.Name).ID)
	num := a.Value.(*ast.Num)
	assert.Equal(t, ast.Int, num.Kind)
	assert.Equal(t, int64(1), num.IntValue.Int64())

	ann := mod.Body[1].(*ast.AnnAssign)
	assert.Equal(t, "x", ann.Target.(*ast.Name).ID)
	assert.Equal(t, "int", ann.Annotation.(*ast.Name).ID)
	assert.NotNil(t, ann.Value)

	aug := mod.Body[2].(*ast.AugAssign)
	assert.Equal(t, "+=", aug.Op)
	assert.Equal(t, ast.Pos{Line: 3, Col: 0}, aug.Position())
}

func TestParse_FunctionDef(t *testing.T) {
	src := `@decorator
async def f(a, b=1, *args, c: int, d=2, **kw) -> str:
    """Doc."""
    return a
`
	mod := parse(t, src)
	require.Len(t, mod.Body, 1)
	fn := mod.Body[0].(*ast.FunctionDef)
	assert.Equal(t, "f", fn.Name)
	assert.True(t, fn.Async)
	require.Len(t, fn.Decorators, 1)
	assert.Equal(t, 2, fn.Position().Line)
	assert.NotNil(t, fn.Returns)

	var names []string
	var kinds []ast.ParamKind
	for _, p := range fn.Params.List {
		names = append(names, p.Name)
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []string{"a", "b", "args", "c", "d", "kw"}, names)
	assert.Equal(t, []ast.ParamKind{
		ast.ParamPositional,
		ast.ParamPositional,
		ast.ParamVarArgs,
		ast.ParamKeywordOnly,
		ast.ParamKeywordOnly,
		ast.ParamVarKeywords,
	}, kinds)
	assert.Len(t, fn.Params.Defaults(), 2)
	assert.Len(t, fn.Params.Annotations(), 1)

	doc, ok := ast.Docstring(fn.Body)
	require.True(t, ok)
	assert.Equal(t, "Doc.", doc.Value)
	assert.Equal(t, ast.Pos{Line: 3, Col: 4}, doc.Position())
}

func TestParse_ClassDef(t *testing.T) {
	mod := parse(t, "class C(Base, metaclass=M):\n    x = 1\n")
	cls := mod.Body[0].(*ast.ClassDef)
	assert.Equal(t, "C", cls.Name)
	require.Len(t, cls.Bases, 1)
	require.Len(t, cls.Keywords, 1)
	assert.Equal(t, "metaclass", cls.Keywords[0].Arg)
	require.Len(t, cls.Body, 1)
}

func TestParse_IfElifElse(t *testing.T) {
	mod := parse(t, "if a:\n    pass\nelif b:\n    pass\nelse:\n    x = 1\n")
	top := mod.Body[0].(*ast.If)
	require.Len(t, top.Else, 1)
	elif := top.Else[0].(*ast.If)
	assert.Equal(t, "b", elif.Test.(*ast.Name).ID)
	require.Len(t, elif.Else, 1)
	assert.IsType(t, &ast.Assign{}, elif.Else[0])
}

func TestParse_Try(t *testing.T) {
	src := `try:
    pass
except (ValueError, TypeError) as e:
    pass
except NameError:
    pass
except:
    pass
else:
    pass
finally:
    pass
`
	mod := parse(t, src)
	try := mod.Body[0].(*ast.Try)
	require.Len(t, try.Handlers, 3)
	assert.Equal(t, "e", try.Handlers[0].Name)
	assert.IsType(t, &ast.Tuple{}, try.Handlers[0].Type)
	assert.Equal(t, "NameError", try.Handlers[1].Type.(*ast.Name).ID)
	assert.Nil(t, try.Handlers[2].Type)
	assert.Len(t, try.Else, 1)
	assert.Len(t, try.Finally, 1)
}

func TestParse_With(t *testing.T) {
	mod := parse(t, "with open(f) as fp, lock:\n    pass\n")
	w := mod.Body[0].(*ast.With)
	require.Len(t, w.Items, 2)
	assert.Equal(t, "fp", w.Items[0].Vars.(*ast.Name).ID)
	assert.IsType(t, &ast.Call{}, w.Items[0].Context)
	assert.Nil(t, w.Items[1].Vars)
}

func TestParse_Imports(t *testing.T) {
	mod := parse(t, "import os.path as p, sys\nfrom .. import a\nfrom m import (b as c, d)\nfrom n import *\nfrom __future__ import annotations\n")
	require.Len(t, mod.Body, 5)

	imp := mod.Body[0].(*ast.Import)
	require.Len(t, imp.Names, 2)
	assert.Equal(t, "os.path", imp.Names[0].Name)
	assert.Equal(t, "p", imp.Names[0].AsName)
	assert.Equal(t, "sys", imp.Names[1].Name)

	rel := mod.Body[1].(*ast.ImportFrom)
	assert.Equal(t, 2, rel.Level)
	assert.Equal(t, "", rel.Module)
	require.Len(t, rel.Names, 1)

	from := mod.Body[2].(*ast.ImportFrom)
	assert.Equal(t, "m", from.Module)
	require.Len(t, from.Names, 2)
	assert.Equal(t, "c", from.Names[0].AsName)

	star := mod.Body[3].(*ast.ImportFrom)
	assert.True(t, star.Star)

	fut := mod.Body[4].(*ast.ImportFrom)
	assert.Equal(t, "__future__", fut.Module)
	assert.Equal(t, "annotations", fut.Names[0].Name)
}

func TestParse_Dict(t *testing.T) {
	mod := parse(t, "{'a': 1, **rest, (1, 2): b'x'}\n")
	d := mod.Body[0].(*ast.ExprStmt).Value.(*ast.Dict)
	require.Len(t, d.Keys, 3)
	assert.Equal(t, "a", d.Keys[0].(*ast.Str).Value)
	assert.Nil(t, d.Keys[1])
	assert.Equal(t, "rest", d.Values[1].(*ast.Name).ID)
	assert.IsType(t, &ast.Tuple{}, d.Keys[2])
	assert.True(t, d.Values[2].(*ast.Str).Bytes)
	assert.Equal(t, ast.Pos{Line: 1, Col: 1}, d.Keys[0].Position())
}

func TestParse_Comprehensions(t *testing.T) {
	mod := parse(t, "[x for x in y if x]\n{k: v for k, v in z}\n(a for a in b)\n")
	lc := mod.Body[0].(*ast.ExprStmt).Value.(*ast.Comp)
	assert.Equal(t, ast.ListComp, lc.Kind)
	require.Len(t, lc.Generators, 1)
	assert.Len(t, lc.Generators[0].Ifs, 1)

	dc := mod.Body[1].(*ast.ExprStmt).Value.(*ast.Comp)
	assert.Equal(t, ast.DictComp, dc.Kind)
	assert.NotNil(t, dc.Value)
	assert.IsType(t, &ast.Tuple{}, dc.Generators[0].Target)

	ge := mod.Body[2].(*ast.ExprStmt).Value.(*ast.Comp)
	assert.Equal(t, ast.GeneratorExp, ge.Kind)
}

func TestParse_Constants(t *testing.T) {
	mod := parse(t, "(None, True, False, ..., 1.5, 2j, 0x10, -3)\n")
	tup := mod.Body[0].(*ast.ExprStmt).Value.(*ast.Tuple)
	require.Len(t, tup.Elts, 8)
	assert.Equal(t, ast.None, tup.Elts[0].(*ast.Constant).Kind)
	assert.Equal(t, ast.True, tup.Elts[1].(*ast.Constant).Kind)
	assert.Equal(t, ast.False, tup.Elts[2].(*ast.Constant).Kind)
	assert.Equal(t, ast.Ellipsis, tup.Elts[3].(*ast.Constant).Kind)
	assert.Equal(t, 1.5, tup.Elts[4].(*ast.Num).FloatValue)
	assert.Equal(t, ast.Imaginary, tup.Elts[5].(*ast.Num).Kind)
	assert.Equal(t, int64(16), tup.Elts[6].(*ast.Num).IntValue.Int64())
	neg := tup.Elts[7].(*ast.UnaryOp)
	assert.Equal(t, "-", neg.Op)
}

func TestParse_FString(t *testing.T) {
	mod := parse(t, "f'{a} and {b!r:>{width}}'\n")
	js := mod.Body[0].(*ast.ExprStmt).Value.(*ast.JoinedStr)
	var names []string
	for _, v := range js.Values {
		if n, ok := v.(*ast.Name); ok {
			names = append(names, n.ID)
		}
	}
	assert.Equal(t, []string{"a", "b", "width"}, names)
}

func TestParse_FStringNestedSpec(t *testing.T) {
	mod := parse(t, "f'{1:>{w}.{p}}'\n")
	js := mod.Body[0].(*ast.ExprStmt).Value.(*ast.JoinedStr)
	var names []string
	for _, v := range js.Values {
		if n, ok := v.(*ast.Name); ok {
			names = append(names, n.ID)
		}
	}
	assert.Equal(t, []string{"w", "p"}, names)
}

func TestParse_GenericAnnotations(t *testing.T) {
	src := `def f(x: list[int], y: Dict[str, int] | None) -> Literal["r", "w"]:
    pass
`
	fn := parse(t, src).Body[0].(*ast.FunctionDef)
	anns := fn.Params.Annotations()
	require.Len(t, anns, 2)

	x := anns[0].(*ast.Subscript)
	assert.Equal(t, "list", x.Value.(*ast.Name).ID)
	require.Len(t, x.Index, 1)
	assert.Equal(t, "int", x.Index[0].(*ast.Name).ID)

	y := anns[1].(*ast.BinOp)
	assert.Equal(t, "|", y.Op)
	dict := y.Left.(*ast.Subscript)
	assert.Equal(t, "Dict", dict.Value.(*ast.Name).ID)
	require.Len(t, dict.Index, 2)
	assert.Equal(t, "str", dict.Index[0].(*ast.Name).ID)
	assert.Equal(t, "int", dict.Index[1].(*ast.Name).ID)

	ret := fn.Returns.(*ast.Subscript)
	assert.Equal(t, "Literal", ret.Value.(*ast.Name).ID)
	require.Len(t, ret.Index, 2)
	assert.Equal(t, "r", ret.Index[0].(*ast.Str).Value)
	assert.Equal(t, "w", ret.Index[1].(*ast.Str).Value)
}

func TestParse_Comments(t *testing.T) {
	mod := parse(t, "import os  # noqa\n# trailing\n")
	require.Len(t, mod.Comments, 2)
	assert.Equal(t, "# noqa", mod.Comments[0].Text)
	assert.Equal(t, ast.Pos{Line: 1, Col: 11}, mod.Comments[0].Pos)
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := ParseString(context.Background(), "def f(:\n    pass\n", "bad.py")
	require.Error(t, err)
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "bad.py", se.Filename)
	assert.Equal(t, 1, se.Pos.Line)
	assert.Contains(t, se.Error(), "bad.py:1:")
}

func TestParse_SyntaxErrorAtLineEnd(t *testing.T) {
	_, err := ParseString(context.Background(), "x = 1\nassert\n", "bad.py")
	var se *SyntaxError
	require.True(t, errors.As(err, &se), "err = %v", err)
	assert.Equal(t, ast.Pos{Line: 2, Col: 6}, se.Pos)
	assert.Equal(t, "bad.py:2:7: "+se.Msg, se.Error())
}

func TestParse_UnexpectedIndent(t *testing.T) {
	_, err := ParseString(context.Background(), "# comment\n\n    x = 1\n", "bad.py")
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "unexpected indent", se.Msg)
	assert.Equal(t, ast.Pos{Line: 3, Col: 4}, se.Pos)
	assert.Equal(t, "x = 1", se.Text)

	parse(t, "\n# indented comments are fine\n  # here too\nx = 1\n")
}

func TestParse_IndentationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		pos  ast.Pos
	}{
		{"if without body", "if True:\npass\n", "expected an indented block", ast.Pos{Line: 2, Col: 0}},
		{"def without body", "def f():\n# nothing\nreturn 1\n", "expected an indented block", ast.Pos{Line: 3, Col: 0}},
		{"else without body", "if x:\n    pass\nelse:\npass\n", "expected an indented block", ast.Pos{Line: 4, Col: 0}},
		{"indented module statement", "x = 1\n  y = 2\n", "unexpected indent", ast.Pos{Line: 2, Col: 2}},
		{"indented block statement", "def f():\n    x = 1\n        y = 2\n", "unexpected indent", ast.Pos{Line: 3, Col: 8}},
		{"partial dedent", "def f():\n    x = 1\n  y = 2\n", "unindent does not match any outer indentation level", ast.Pos{Line: 3, Col: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(context.Background(), tt.src, "bad.py")
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "err = %v", err)
			assert.Equal(t, tt.msg, se.Msg)
			assert.Equal(t, tt.pos, se.Pos)
		})
	}
}

func TestParse_IndentationValid(t *testing.T) {
	parse(t, `if a: b = 1; c = 2
class A:
    x = 1

    # comment at any column
  # like this one
    @property
    def f(self):
        if x:
            pass
        elif y:
            pass
        else:
            return (1,
  2)
try:
    pass
except ValueError:
    pass
finally:
    pass
match x:
    case 1:
        pass
`)
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, []byte("x = 1\n"), "test.py")
	// tree-sitter only checks cancellation periodically; a tiny input may
	// still parse.
	if err != nil {
		assert.Contains(t, err.Error(), "tree-sitter")
	}
}
