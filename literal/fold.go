// Copyright © 2024 The ELPS authors

package literal

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/flakes/ast"
	"github.com/luthersystems/flakes/astutil"
)

// outcome is the result of evaluating a constant expression.
type outcome int

const (
	// symbolic values are known to be deterministic but are not computed.
	symbolic outcome = iota
	folded
	// raises marks a call that fails at runtime, such as chr(-1).
	raises
)

type valueKind int

const (
	vNumber valueKind = iota
	vText
	vBytes
	vNone
	vTuple
	vList
	vType
)

// value is a constant computed from literals and pure builtin calls.
type value struct {
	kind    valueKind
	num     number
	boolean bool   // True or False, which print differently from 1 and 0
	s       string // text, bytes, or the name of a builtin type
	elts    []value
}

func numValue(n number) value  { return value{kind: vNumber, num: n} }
func textValue(s string) value { return value{kind: vText, s: s} }
func boolValue(b bool) value {
	if b {
		return value{kind: vNumber, num: intNumber(1), boolean: true}
	}
	return value{kind: vNumber, num: intNumber(0), boolean: true}
}

func (v value) isInt() bool  { return v.kind == vNumber && v.num.isInt }
func (v value) isReal() bool { return v.kind == vNumber && !v.num.isComplex() }
func (v value) isSeq() bool  { return v.kind == vTuple || v.kind == vList }

// eval computes e when it is built from literals, displays and pure
// builtin calls.
func (c *Classifier) eval(e ast.Expr, r Resolver) (value, outcome) {
	switch x := e.(type) {
	case *ast.Num:
		n, ok := numberOf(x)
		if !ok {
			return value{}, symbolic
		}
		return numValue(n), folded
	case *ast.Constant:
		switch x.Kind {
		case ast.True:
			return boolValue(true), folded
		case ast.False:
			return boolValue(false), folded
		case ast.None:
			return value{kind: vNone}, folded
		}
	case *ast.Str:
		if x.Bytes {
			return value{kind: vBytes, s: x.Value}, folded
		}
		return textValue(x.Value), folded
	case *ast.UnaryOp:
		if x.Op == "not" {
			v, out := c.eval(x.Operand, r)
			if out != folded {
				return value{}, out
			}
			t, ok := truth(v)
			if !ok {
				return value{}, symbolic
			}
			return boolValue(!t), folded
		}
		n, ok := c.number(x)
		if !ok {
			return value{}, symbolic
		}
		return numValue(n), folded
	case *ast.Tuple:
		return c.evalSeq(vTuple, x.Elts, r)
	case *ast.List:
		return c.evalSeq(vList, x.Elts, r)
	case *ast.Call:
		name := astutil.CalleeName(x)
		if name == "" || r == nil || !r.IsBuiltin(name) || !c.pure[name] {
			return value{}, symbolic
		}
		return c.evalCall(name, x, r)
	}
	return value{}, symbolic
}

func (c *Classifier) evalSeq(kind valueKind, elts []ast.Expr, r Resolver) (value, outcome) {
	v := value{kind: kind, elts: make([]value, 0, len(elts))}
	for _, e := range elts {
		ev, out := c.eval(e, r)
		if out != folded {
			return value{}, out
		}
		v.elts = append(v.elts, ev)
	}
	return v, folded
}

func (c *Classifier) evalCall(name string, call *ast.Call, r Resolver) (value, outcome) {
	if len(call.Keywords) > 0 {
		return value{}, symbolic
	}
	args := make([]value, 0, len(call.Args))
	for _, a := range call.Args {
		if _, ok := a.(*ast.Starred); ok {
			return value{}, symbolic
		}
		v, out := c.eval(a, r)
		if out != folded {
			return value{}, out
		}
		args = append(args, v)
	}
	if fn, ok := builtinFolds[name]; ok {
		return fn(args)
	}
	return value{}, symbolic
}

// builtinFolds computes pure builtins over folded arguments.
var builtinFolds = map[string]func([]value) (value, outcome){
	"abs":     foldAbs,
	"all":     func(args []value) (value, outcome) { return foldAllAny(args, true) },
	"any":     func(args []value) (value, outcome) { return foldAllAny(args, false) },
	"ascii":   foldASCII,
	"bin":     func(args []value) (value, outcome) { return foldBase(args, 2, "0b") },
	"bool":    foldBool,
	"bytes":   foldBytes,
	"chr":     foldChr,
	"complex": foldComplex,
	"divmod":  foldDivmod,
	"float":   foldFloat,
	"format":  foldFormat,
	"hash":    foldHash,
	"hex":     func(args []value) (value, outcome) { return foldBase(args, 16, "0x") },
	"int":     foldInt,
	"len":     foldLen,
	"max":     func(args []value) (value, outcome) { return foldMinMax(args, 1) },
	"min":     func(args []value) (value, outcome) { return foldMinMax(args, -1) },
	"oct":     func(args []value) (value, outcome) { return foldBase(args, 8, "0o") },
	"ord":     foldOrd,
	"pow":     foldPow,
	"range":   foldRange,
	"repr":    foldRepr,
	"round":   foldRound,
	"str":     foldStr,
	"sum":     foldSum,
	"tuple":   foldTuple,
	"type":    foldType,
}

// valueKey converts a folded value to a dict key.
func (c *Classifier) valueKey(v value) Key {
	switch v.kind {
	case vNumber:
		return c.numberKey(v.num)
	case vText:
		return Key{Category: Value, Canonical: c.strCanonical(v.s, false)}
	case vBytes:
		return Key{Category: Value, Canonical: c.strCanonical(v.s, true)}
	case vNone:
		return Key{Category: Value, Canonical: "None"}
	case vType:
		return builtinNameKey(v.s)
	case vList:
		return Key{Category: Unhashable}
	}
	parts := make([]string, 0, len(v.elts))
	for _, e := range v.elts {
		k := c.valueKey(e)
		if k.Category != Value {
			return Key{Category: k.Category}
		}
		parts = append(parts, k.Canonical)
	}
	return Key{Category: Value, Canonical: "(" + strings.Join(parts, ",") + ")"}
}

// truth evaluates the truthiness of a constant.
func truth(v value) (bool, bool) {
	switch v.kind {
	case vNumber:
		if v.num.isNaN() {
			return true, true
		}
		return !v.num.isZero(), true
	case vText, vBytes:
		return v.s != "", true
	case vNone:
		return false, true
	case vTuple, vList:
		return len(v.elts) > 0, true
	case vType:
		return true, true
	}
	return false, false
}

func foldAbs(args []value) (value, outcome) {
	if len(args) != 1 || args[0].kind != vNumber {
		return value{}, raises
	}
	return numValue(args[0].num.abs()), folded
}

func foldAllAny(args []value, all bool) (value, outcome) {
	if len(args) != 1 {
		return value{}, raises
	}
	it := args[0]
	switch {
	case it.kind == vText || it.kind == vBytes:
		if all {
			return boolValue(true), folded
		}
		return boolValue(it.s != ""), folded
	case !it.isSeq():
		return value{}, raises
	}
	for _, e := range it.elts {
		t, ok := truth(e)
		if !ok {
			return value{}, symbolic
		}
		if t != all {
			return boolValue(!all), folded
		}
	}
	return boolValue(all), folded
}

func foldBool(args []value) (value, outcome) {
	switch len(args) {
	case 0:
		return boolValue(false), folded
	case 1:
		t, ok := truth(args[0])
		if !ok {
			return value{}, symbolic
		}
		return boolValue(t), folded
	}
	return value{}, raises
}

func foldInt(args []value) (value, outcome) {
	switch len(args) {
	case 0:
		return numValue(intNumber(0)), folded
	case 1:
		v := args[0]
		switch v.kind {
		case vNumber:
			n := v.num
			switch {
			case n.isComplex(), n.isNaN(), n.isInf():
				return value{}, raises
			case n.isInt:
				return numValue(number{isInt: true, i: n.i}), folded
			}
			i, _ := big.NewFloat(math.Trunc(n.f)).Int(nil)
			return numValue(number{isInt: true, i: i}), folded
		case vText, vBytes:
			i, ok := parseInt(v.s, 10)
			if !ok {
				return value{}, raises
			}
			return numValue(number{isInt: true, i: i}), folded
		}
		return value{}, raises
	case 2:
		s, base := args[0], args[1]
		if s.kind != vText && s.kind != vBytes {
			return value{}, raises
		}
		if !base.isInt() || !base.num.i.IsInt64() {
			return value{}, raises
		}
		b := base.num.i.Int64()
		switch {
		case b == 0:
			// Base 0 follows literal syntax, including its leading-zero rule.
			return value{}, symbolic
		case b < 2 || b > 36:
			return value{}, raises
		}
		i, ok := parseInt(s.s, int(b))
		if !ok {
			return value{}, raises
		}
		return numValue(number{isInt: true, i: i}), folded
	}
	return value{}, raises
}

// parseInt parses the text int() accepts: surrounding whitespace, a sign,
// digit separators and a prefix matching the base.
func parseInt(s string, base int) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	if len(s) > 2 && s[0] == '0' {
		switch {
		case base == 16 && (s[1] == 'x' || s[1] == 'X'),
			base == 8 && (s[1] == 'o' || s[1] == 'O'),
			base == 2 && (s[1] == 'b' || s[1] == 'B'):
			s = strings.TrimPrefix(s[2:], "_")
		}
	}
	if s == "" || s[0] == '_' || s[len(s)-1] == '_' || strings.Contains(s, "__") {
		return nil, false
	}
	return new(big.Int).SetString(sign+strings.ReplaceAll(s, "_", ""), base)
}

func foldFloat(args []value) (value, outcome) {
	switch len(args) {
	case 0:
		return numValue(floatNumber(0)), folded
	case 1:
	default:
		return value{}, raises
	}
	v := args[0]
	switch v.kind {
	case vNumber:
		if v.num.isComplex() {
			return value{}, raises
		}
		f := v.num.real()
		if v.num.isInt && math.IsInf(f, 0) {
			// int too large to convert
			return value{}, raises
		}
		return numValue(floatNumber(f)), folded
	case vText, vBytes:
		s := strings.TrimSpace(v.s)
		if strings.ContainsAny(s, "xXpP") {
			return value{}, raises
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return value{}, raises
		}
		return numValue(floatNumber(f)), folded
	}
	return value{}, raises
}

func foldComplex(args []value) (value, outcome) {
	switch len(args) {
	case 0:
		return numValue(intNumber(0)), folded
	case 1, 2:
	default:
		return value{}, raises
	}
	for _, a := range args {
		switch a.kind {
		case vNumber:
		case vText:
			if len(args) == 2 {
				return value{}, raises
			}
			return value{}, symbolic
		default:
			return value{}, raises
		}
	}
	re := args[0].num
	if len(args) == 1 {
		return numValue(re), folded
	}
	im := args[1].num
	if re.isComplex() || im.isComplex() {
		return value{}, symbolic
	}
	if im.isZero() {
		return numValue(re), folded
	}
	return numValue(number{f: re.real(), imag: im.real()}), folded
}

func foldStr(args []value) (value, outcome) {
	switch len(args) {
	case 0:
		return textValue(""), folded
	case 1:
		s, ok := strOf(args[0])
		if !ok {
			return value{}, symbolic
		}
		return textValue(s), folded
	}
	return value{}, symbolic
}

func foldFormat(args []value) (value, outcome) {
	if len(args) == 2 && args[1].kind == vText && args[1].s == "" {
		args = args[:1]
	}
	if len(args) != 1 {
		return value{}, symbolic
	}
	return foldStr(args)
}

func foldRepr(args []value) (value, outcome) {
	if len(args) != 1 {
		return value{}, raises
	}
	s, ok := reprOf(args[0])
	if !ok {
		return value{}, symbolic
	}
	return textValue(s), folded
}

func foldASCII(args []value) (value, outcome) {
	v, out := foldRepr(args)
	if out != folded {
		return v, out
	}
	for i := 0; i < len(v.s); i++ {
		if v.s[i] >= utf8.RuneSelf {
			return value{}, symbolic
		}
	}
	return v, folded
}

func foldOrd(args []value) (value, outcome) {
	if len(args) != 1 {
		return value{}, raises
	}
	v := args[0]
	switch {
	case v.kind == vBytes && len(v.s) == 1:
		return numValue(intNumber(int64(v.s[0]))), folded
	case v.kind == vText && utf8.RuneCountInString(v.s) == 1:
		r, _ := utf8.DecodeRuneInString(v.s)
		return numValue(intNumber(int64(r))), folded
	}
	return value{}, raises
}

func foldChr(args []value) (value, outcome) {
	if len(args) != 1 || !args[0].isInt() {
		return value{}, raises
	}
	i := args[0].num.i
	if !i.IsInt64() || i.Sign() < 0 || i.Int64() > utf8.MaxRune {
		return value{}, raises
	}
	r := rune(i.Int64())
	if !utf8.ValidRune(r) {
		// Surrogates are valid code points with no UTF-8 encoding.
		return value{}, symbolic
	}
	return textValue(string(r)), folded
}

func foldLen(args []value) (value, outcome) {
	if len(args) != 1 {
		return value{}, raises
	}
	v := args[0]
	switch v.kind {
	case vText:
		return numValue(intNumber(int64(utf8.RuneCountInString(v.s)))), folded
	case vBytes:
		return numValue(intNumber(int64(len(v.s)))), folded
	case vTuple, vList:
		return numValue(intNumber(int64(len(v.elts)))), folded
	}
	return value{}, raises
}

func foldRound(args []value) (value, outcome) {
	if len(args) == 2 && args[1].kind == vNone {
		args = args[:1]
	}
	if len(args) < 1 || len(args) > 2 || !args[0].isReal() {
		return value{}, raises
	}
	x := args[0].num
	if len(args) == 2 {
		if !args[1].isInt() {
			return value{}, raises
		}
		if x.isInt && args[1].num.i.Sign() >= 0 {
			return numValue(x), folded
		}
		return value{}, symbolic
	}
	if x.isInt {
		return numValue(x), folded
	}
	if math.IsNaN(x.f) || math.IsInf(x.f, 0) {
		return value{}, raises
	}
	i, _ := big.NewFloat(math.RoundToEven(x.f)).Int(nil)
	return numValue(number{isInt: true, i: i}), folded
}

func foldSum(args []value) (value, outcome) {
	if len(args) < 1 || len(args) > 2 {
		return value{}, raises
	}
	start := numValue(intNumber(0))
	if len(args) == 2 {
		start = args[1]
	}
	if start.kind == vText || start.kind == vBytes || !args[0].isSeq() {
		return value{}, raises
	}
	if start.kind != vNumber {
		return value{}, symbolic
	}
	elts := append([]value{start}, args[0].elts...)
	total := new(big.Int)
	for _, e := range elts {
		switch {
		case e.kind == vText || e.kind == vBytes || e.kind == vNone:
			return value{}, raises
		case !e.isInt():
			// Float sums depend on the summation algorithm.
			return value{}, symbolic
		}
		total.Add(total, e.num.i)
	}
	return numValue(number{isInt: true, i: total}), folded
}

// foldMinMax folds min (dir -1) and max (dir 1). Ties keep the first
// argument, which only matters for display since equal values share a key.
func foldMinMax(args []value, dir int) (value, outcome) {
	items := args
	if len(args) == 1 {
		it := args[0]
		switch {
		case it.isSeq():
			items = it.elts
		case it.kind == vText:
			items = nil
			for _, r := range it.s {
				items = append(items, textValue(string(r)))
			}
		default:
			return value{}, raises
		}
	}
	if len(items) == 0 {
		return value{}, raises
	}
	best := items[0]
	for _, v := range items[1:] {
		switch {
		case best.isReal() && v.isReal():
			if best.num.isNaN() || v.num.isNaN() {
				return value{}, symbolic
			}
			if v.num.cmp(best.num)*dir > 0 {
				best = v
			}
		case best.kind == vText && v.kind == vText, best.kind == vBytes && v.kind == vBytes:
			if strings.Compare(v.s, best.s)*dir > 0 {
				best = v
			}
		case best.isSeq() || v.isSeq():
			return value{}, symbolic
		default:
			return value{}, raises
		}
	}
	if best.kind == vNumber && best.num.isComplex() {
		return value{}, raises
	}
	return best, folded
}

func foldDivmod(args []value) (value, outcome) {
	if len(args) != 2 || !args[0].isReal() || !args[1].isReal() {
		return value{}, raises
	}
	a, b := args[0].num, args[1].num
	if b.isZero() {
		return value{}, raises
	}
	if !a.isInt || !b.isInt {
		return value{}, symbolic
	}
	q, m := new(big.Int).QuoRem(a.i, b.i, new(big.Int))
	if m.Sign() != 0 && (m.Sign() < 0) != (b.i.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
		m.Add(m, b.i)
	}
	return value{kind: vTuple, elts: []value{
		numValue(number{isInt: true, i: q}),
		numValue(number{isInt: true, i: m}),
	}}, folded
}

// maxPowBits bounds the size of folded powers.
const maxPowBits = 1 << 16

func foldPow(args []value) (value, outcome) {
	if len(args) < 2 || len(args) > 3 {
		return value{}, raises
	}
	for _, a := range args {
		if a.kind != vNumber {
			return value{}, raises
		}
	}
	base, exp := args[0].num, args[1].num
	if len(args) == 3 {
		mod := args[2].num
		if !base.isInt || !exp.isInt || !mod.isInt {
			return value{}, raises
		}
		if mod.i.Sign() == 0 {
			return value{}, raises
		}
		if exp.i.Sign() < 0 {
			return value{}, symbolic
		}
		m := new(big.Int).Abs(mod.i)
		z := new(big.Int).Exp(base.i, exp.i, m)
		if mod.i.Sign() < 0 && z.Sign() != 0 {
			z.Add(z, mod.i)
		}
		return numValue(number{isInt: true, i: z}), folded
	}
	if !base.isInt || !exp.isInt {
		if base.isZero() && !exp.isComplex() && exp.real() < 0 {
			return value{}, raises
		}
		return value{}, symbolic
	}
	if exp.i.Sign() < 0 {
		if base.i.Sign() == 0 {
			return value{}, raises
		}
		return value{}, symbolic
	}
	if !exp.i.IsInt64() || exp.i.Int64() > maxPowBits || int64(base.i.BitLen())*exp.i.Int64() > maxPowBits {
		return value{}, symbolic
	}
	return numValue(number{isInt: true, i: new(big.Int).Exp(base.i, exp.i, nil)}), folded
}

func foldBase(args []value, base int, prefix string) (value, outcome) {
	if len(args) != 1 || !args[0].isInt() {
		return value{}, raises
	}
	i := args[0].num.i
	sign := ""
	if i.Sign() < 0 {
		sign = "-"
	}
	return textValue(sign + prefix + new(big.Int).Abs(i).Text(base)), folded
}

func foldTuple(args []value) (value, outcome) {
	switch len(args) {
	case 0:
		return value{kind: vTuple}, folded
	case 1:
	default:
		return value{}, raises
	}
	v := args[0]
	switch v.kind {
	case vTuple, vList:
		return value{kind: vTuple, elts: v.elts}, folded
	case vText:
		t := value{kind: vTuple}
		for _, r := range v.s {
			t.elts = append(t.elts, textValue(string(r)))
		}
		return t, folded
	case vBytes:
		t := value{kind: vTuple}
		for i := 0; i < len(v.s); i++ {
			t.elts = append(t.elts, numValue(intNumber(int64(v.s[i]))))
		}
		return t, folded
	}
	return value{}, raises
}

func foldType(args []value) (value, outcome) {
	switch len(args) {
	case 1:
	case 3:
		return value{}, symbolic
	default:
		return value{}, raises
	}
	v := args[0]
	name := ""
	switch v.kind {
	case vNumber:
		switch {
		case v.boolean:
			name = "bool"
		case v.num.isComplex():
			name = "complex"
		case v.num.isInt:
			name = "int"
		default:
			name = "float"
		}
	case vText:
		name = "str"
	case vBytes:
		name = "bytes"
	case vTuple:
		name = "tuple"
	case vList:
		name = "list"
	default:
		return value{}, symbolic
	}
	return value{kind: vType, s: name}, folded
}

// maxFoldedBytes bounds bytes(n).
const maxFoldedBytes = 1 << 16

func foldBytes(args []value) (value, outcome) {
	switch len(args) {
	case 0:
		return value{kind: vBytes}, folded
	case 1:
	default:
		return value{}, symbolic
	}
	v := args[0]
	switch v.kind {
	case vBytes:
		return v, folded
	case vText, vNone:
		return value{}, raises
	case vNumber:
		if !v.num.isInt {
			return value{}, raises
		}
		if v.num.i.Sign() < 0 {
			return value{}, raises
		}
		if !v.num.i.IsInt64() || v.num.i.Int64() > maxFoldedBytes {
			return value{}, symbolic
		}
		return value{kind: vBytes, s: string(make([]byte, v.num.i.Int64()))}, folded
	case vTuple, vList:
		b := make([]byte, 0, len(v.elts))
		for _, e := range v.elts {
			if !e.isInt() {
				return value{}, raises
			}
			if !e.num.i.IsInt64() || e.num.i.Int64() < 0 || e.num.i.Int64() > 255 {
				return value{}, raises
			}
			b = append(b, byte(e.num.i.Int64()))
		}
		return value{kind: vBytes, s: string(b)}, folded
	}
	return value{}, symbolic
}

// foldRange only validates its arguments. Ranges keep a symbolic key.
func foldRange(args []value) (value, outcome) {
	if len(args) < 1 || len(args) > 3 {
		return value{}, raises
	}
	for _, a := range args {
		if !a.isInt() {
			return value{}, raises
		}
	}
	if len(args) == 3 && args[2].num.i.Sign() == 0 {
		return value{}, raises
	}
	return value{}, symbolic
}

// foldHash rejects unhashable arguments. Hash values stay symbolic.
func foldHash(args []value) (value, outcome) {
	if len(args) != 1 {
		return value{}, raises
	}
	if containsList(args[0]) {
		return value{}, raises
	}
	return value{}, symbolic
}

func containsList(v value) bool {
	if v.kind == vList {
		return true
	}
	for _, e := range v.elts {
		if containsList(e) {
			return true
		}
	}
	return false
}

// strOf renders v as str() would.
func strOf(v value) (string, bool) {
	if v.kind == vText {
		return v.s, true
	}
	return reprOf(v)
}

// reprOf renders v as repr() would, for the values whose repr is simple
// to reproduce exactly.
func reprOf(v value) (string, bool) {
	switch v.kind {
	case vNumber:
		switch {
		case v.boolean && v.num.isZero():
			return "False", true
		case v.boolean:
			return "True", true
		case v.num.isComplex():
			return "", false
		case v.num.isInt:
			return v.num.i.String(), true
		}
		return floatRepr(v.num.f), true
	case vNone:
		return "None", true
	case vText:
		return textRepr(v.s)
	case vBytes:
		s, ok := textRepr(v.s)
		if !ok {
			return "", false
		}
		for i := 0; i < len(v.s); i++ {
			if v.s[i] >= utf8.RuneSelf {
				return "", false
			}
		}
		return "b" + s, true
	case vTuple, vList:
		parts := make([]string, 0, len(v.elts))
		for _, e := range v.elts {
			s, ok := reprOf(e)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		if v.kind == vList {
			return "[" + strings.Join(parts, ", ") + "]", true
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)", true
		}
		return "(" + strings.Join(parts, ", ") + ")", true
	}
	return "", false
}

// textRepr quotes printable text without backslashes, choosing quotes the
// way repr does.
func textRepr(s string) (string, bool) {
	for _, r := range s {
		if r < ' ' || r == '\\' || r == 0x7f {
			return "", false
		}
	}
	switch {
	case !strings.Contains(s, "'"):
		return "'" + s + "'", true
	case !strings.Contains(s, `"`):
		return `"` + s + `"`, true
	}
	return "", false
}

// floatRepr formats f as the shortest round-tripping decimal, switching to
// exponent notation outside [1e-4, 1e16) like repr does.
func floatRepr(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	sign := ""
	if e[0] == '-' {
		sign, e = "-", e[1:]
	}
	mant, expText, _ := strings.Cut(e, "e")
	exp, _ := strconv.Atoi(expText)
	if exp < -4 || exp >= 16 {
		return sign + mant + "e" + expText
	}
	digits := strings.Replace(mant, ".", "", 1)
	if exp < 0 {
		return sign + "0." + strings.Repeat("0", -exp-1) + digits
	}
	if len(digits) <= exp+1 {
		return sign + digits + strings.Repeat("0", exp+1-len(digits)) + ".0"
	}
	return sign + digits[:exp+1] + "." + digits[exp+1:]
}
