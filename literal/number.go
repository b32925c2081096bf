// Copyright © 2024 The ELPS authors

package literal

import (
	"math"
	"math/big"
	"strconv"

	"github.com/luthersystems/flakes/ast"
)

// number is a folded numeric value. Integers are exact; floats and the
// imaginary part use float64 like the runtime does.
type number struct {
	isInt bool
	i     *big.Int
	f     float64
	imag  float64
}

func intNumber(v int64) number {
	return number{isInt: true, i: big.NewInt(v)}
}

func floatNumber(f float64) number {
	return number{f: f}
}

func numberOf(n *ast.Num) (number, bool) {
	switch n.Kind {
	case ast.Int:
		if n.IntValue == nil {
			return number{}, false
		}
		return number{isInt: true, i: new(big.Int).Set(n.IntValue)}, true
	case ast.Float:
		return floatNumber(n.FloatValue), true
	case ast.Imaginary:
		return number{imag: n.FloatValue}, true
	}
	return number{}, false
}

func (n number) isNaN() bool {
	return (!n.isInt && math.IsNaN(n.f)) || math.IsNaN(n.imag)
}

func (n number) isComplex() bool {
	return n.imag != 0
}

func (n number) isZero() bool {
	if n.isComplex() {
		return false
	}
	if n.isInt {
		return n.i.Sign() == 0
	}
	return n.f == 0
}

func (n number) real() float64 {
	if n.isInt {
		f, _ := new(big.Float).SetInt(n.i).Float64()
		return f
	}
	return n.f
}

func (n number) neg() number {
	if n.isInt {
		return number{isInt: true, i: new(big.Int).Neg(n.i), imag: -n.imag}
	}
	return number{f: -n.f, imag: -n.imag}
}

func (n number) abs() number {
	if n.isComplex() {
		return floatNumber(math.Hypot(n.real(), n.imag))
	}
	if n.isInt {
		return number{isInt: true, i: new(big.Int).Abs(n.i)}
	}
	return floatNumber(math.Abs(n.f))
}

// numberCanonical renders n so that values equal at runtime render alike.
func numberCanonical(n number) string {
	if n.isComplex() {
		return "n:complex(" + realCanonical(n) + "," + floatText(n.imag) + ")"
	}
	return "n:" + realCanonical(n)
}

func realCanonical(n number) string {
	if n.isInt {
		return n.i.String()
	}
	f := n.f
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return floatText(f)
	}
	i, _ := big.NewFloat(f).Int(nil)
	return i.String()
}

func floatText(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// number evaluates numeric literals, True/False and unary signs.
func (c *Classifier) number(e ast.Expr) (number, bool) {
	switch x := e.(type) {
	case *ast.Num:
		return numberOf(x)
	case *ast.Constant:
		switch x.Kind {
		case ast.True:
			return intNumber(1), true
		case ast.False:
			return intNumber(0), true
		}
	case *ast.UnaryOp:
		n, ok := c.number(x.Operand)
		if !ok {
			return number{}, false
		}
		switch x.Op {
		case "-":
			return n.neg(), true
		case "+":
			return n, true
		case "~":
			if n.isInt {
				return number{isInt: true, i: new(big.Int).Not(n.i)}, true
			}
		}
	}
	return number{}, false
}

// cmp compares two real numbers exactly. Neither may be NaN.
func (n number) cmp(o number) int {
	return n.bigFloat().Cmp(o.bigFloat())
}

func (n number) bigFloat() *big.Float {
	if n.isInt {
		return new(big.Float).SetInt(n.i)
	}
	return big.NewFloat(n.f)
}

func (n number) isInf() bool {
	return !n.isInt && math.IsInf(n.f, 0)
}
