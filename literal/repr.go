// Copyright © 2024 The ELPS authors

package literal

import (
	"strings"

	"github.com/luthersystems/flakes/ast"
)

// Repr renders a key expression roughly as it was written, for messages.
func Repr(e ast.Expr) string {
	var sb strings.Builder
	writeRepr(&sb, e)
	return sb.String()
}

func writeRepr(sb *strings.Builder, e ast.Expr) {
	switch x := e.(type) {
	case nil:
		sb.WriteString("None")
	case *ast.Name:
		sb.WriteString(x.ID)
	case *ast.Num:
		sb.WriteString(x.Text)
	case *ast.Constant:
		sb.WriteString(x.Kind.String())
	case *ast.Str:
		if x.Bytes {
			sb.WriteByte('b')
		}
		sb.WriteString(quote(x.Value))
	case *ast.UnaryOp:
		sb.WriteString(x.Op)
		if x.Op == "not" {
			sb.WriteByte(' ')
		}
		writeRepr(sb, x.Operand)
	case *ast.Attribute:
		writeRepr(sb, x.Value)
		sb.WriteByte('.')
		sb.WriteString(x.Attr)
	case *ast.Tuple:
		sb.WriteByte('(')
		writeList(sb, x.Elts)
		if len(x.Elts) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	case *ast.List:
		sb.WriteByte('[')
		writeList(sb, x.Elts)
		sb.WriteByte(']')
	case *ast.Set:
		sb.WriteByte('{')
		writeList(sb, x.Elts)
		sb.WriteByte('}')
	case *ast.Dict:
		sb.WriteByte('{')
		for i, k := range x.Keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			if k == nil {
				sb.WriteString("**")
			} else {
				writeRepr(sb, k)
				sb.WriteString(": ")
			}
			writeRepr(sb, x.Values[i])
		}
		sb.WriteByte('}')
	case *ast.Call:
		writeRepr(sb, x.Func)
		sb.WriteByte('(')
		writeList(sb, x.Args)
		for i, kw := range x.Keywords {
			if i > 0 || len(x.Args) > 0 {
				sb.WriteString(", ")
			}
			if kw.Arg == "" {
				sb.WriteString("**")
			} else {
				sb.WriteString(kw.Arg)
				sb.WriteByte('=')
			}
			writeRepr(sb, kw.Value)
		}
		sb.WriteByte(')')
	case *ast.Starred:
		sb.WriteByte('*')
		writeRepr(sb, x.Value)
	default:
		sb.WriteString("...")
	}
}

func writeList(sb *strings.Builder, elts []ast.Expr) {
	for i, e := range elts {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeRepr(sb, e)
	}
}

// quote renders s with single quotes, escaping like the interpreter's repr.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
