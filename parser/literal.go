// Copyright © 2024 The ELPS authors

package parser

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/flakes/ast"
)

var errBadLiteral = errors.New("malformed literal")

type stringLit struct {
	value     string
	bytes     bool
	raw       bool
	formatted bool
}

// decodeString decodes a single Python string literal including its prefix
// and quotes.
func decodeString(text string) (stringLit, error) {
	var lit stringLit
	i := 0
	for i < len(text) && text[i] != '\'' && text[i] != '"' {
		switch text[i] {
		case 'r', 'R':
			lit.raw = true
		case 'b', 'B':
			lit.bytes = true
		case 'f', 'F':
			lit.formatted = true
		case 'u', 'U':
		default:
			return lit, fmt.Errorf("%w: prefix %q", errBadLiteral, text[:i+1])
		}
		i++
	}
	body := text[i:]
	var quote string
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		quote = body[:3]
	case strings.HasPrefix(body, `"`), strings.HasPrefix(body, `'`):
		quote = body[:1]
	default:
		return lit, fmt.Errorf("%w: missing quote", errBadLiteral)
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return lit, fmt.Errorf("%w: unterminated string", errBadLiteral)
	}
	body = body[len(quote) : len(body)-len(quote)]
	if lit.raw || lit.formatted {
		lit.value = body
		return lit, nil
	}
	v, err := unescape(body, lit.bytes)
	if err != nil {
		return lit, err
	}
	lit.value = v
	return lit, nil
}

// unescape processes backslash escapes. For bytes literals the result holds
// raw byte values; for text it holds UTF-8.
func unescape(s string, isBytes bool) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 == len(s) {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 32)
			writeCode(&sb, rune(n), isBytes)
			i = j - 1
		case 'x':
			if i+3 > len(s) {
				return "", fmt.Errorf("%w: truncated \\x escape", errBadLiteral)
			}
			n, err := strconv.ParseUint(s[i+1:i+3], 16, 32)
			if err != nil {
				return "", fmt.Errorf("%w: bad \\x escape", errBadLiteral)
			}
			writeCode(&sb, rune(n), isBytes)
			i += 2
		case 'u', 'U':
			size := 4
			if e == 'U' {
				size = 8
			}
			if isBytes {
				sb.WriteByte('\\')
				sb.WriteByte(e)
				continue
			}
			if i+1+size > len(s) {
				return "", fmt.Errorf("%w: truncated \\%c escape", errBadLiteral, e)
			}
			n, err := strconv.ParseUint(s[i+1:i+1+size], 16, 32)
			if err != nil || !utf8.ValidRune(rune(n)) {
				return "", fmt.Errorf("%w: bad \\%c escape", errBadLiteral, e)
			}
			sb.WriteRune(rune(n))
			i += size
		default:
			// Unknown escapes such as \N{...} or \d are kept verbatim.
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String(), nil
}

func writeCode(sb *strings.Builder, r rune, isBytes bool) {
	if isBytes {
		sb.WriteByte(byte(r))
		return
	}
	sb.WriteRune(r)
}

// decodeNumber decodes an integer, float or imaginary literal.
func decodeNumber(text string) (*ast.Num, error) {
	t := strings.ReplaceAll(text, "_", "")
	num := &ast.Num{Text: text}
	if last := t[len(t)-1]; last == 'j' || last == 'J' {
		f, err := strconv.ParseFloat(t[:len(t)-1], 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("%w: %q", errBadLiteral, text)
		}
		num.Kind = ast.Imaginary
		num.FloatValue = f
		return num, nil
	}
	if last := t[len(t)-1]; last == 'l' || last == 'L' {
		t = t[:len(t)-1]
	}
	if isIntText(t) {
		v, ok := new(big.Int).SetString(t, 0)
		if !ok {
			// Legacy octal such as 0777.
			v, ok = new(big.Int).SetString(strings.TrimLeft(t, "0"), 8)
			if !ok {
				v = new(big.Int)
			}
		}
		num.Kind = ast.Int
		num.IntValue = v
		return num, nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, fmt.Errorf("%w: %q", errBadLiteral, text)
	}
	num.Kind = ast.Float
	num.FloatValue = f
	return num, nil
}

func isIntText(t string) bool {
	if len(t) > 1 && t[0] == '0' {
		switch t[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			return true
		}
	}
	return !strings.ContainsAny(t, ".eE")
}
