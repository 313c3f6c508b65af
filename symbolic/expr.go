package symbolic

import (
	"fmt"
	"math"
	"math/big"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num — exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

// F returns p/q. It panics on a zero denominator, which is a programmer error.
func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts a finite float exactly. Non-finite input yields nil.
func NFloat(f float64) *Num {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		return nil
	}
	return &Num{val: r}
}

// NRat wraps a copy of r.
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

// floatExpr turns a float produced by constant folding back into an
// expression. Infinities become Infinity; NaN keeps the unevaluated form.
func floatExpr(f float64, unevaluated Expr) Expr {
	switch {
	case math.IsNaN(f):
		return unevaluated
	case math.IsInf(f, 1):
		return Inf()
	case math.IsInf(f, -1):
		return NegInf()
	}
	return NFloat(f)
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

// Int64 reports the value as an int64 when it is an integer that fits.
func (n *Num) Int64() (int64, bool) {
	if !n.val.IsInt() || !n.val.Num().IsInt64() {
		return 0, false
	}
	return n.val.Num().Int64(), true
}

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }

// numPowInt raises a to an integer power. ok is false for 0^negative.
func numPowInt(a *Num, e int64) (*Num, bool) {
	if e < 0 {
		if a.IsZero() {
			return nil, false
		}
		a = &Num{val: new(big.Rat).Inv(a.val)}
		e = -e
	}
	num := new(big.Int).Exp(a.val.Num(), big.NewInt(e), nil)
	den := new(big.Int).Exp(a.val.Denom(), big.NewInt(e), nil)
	return &Num{val: new(big.Rat).SetFrac(num, den)}, true
}

// numRoot returns the exact k-th root of a non-negative rational when
// both numerator and denominator are perfect k-th powers.
func numRoot(a *Num, k int64) (*Num, bool) {
	if a.IsNegative() || k <= 0 {
		return nil, false
	}
	num, ok1 := intRoot(a.val.Num(), k)
	den, ok2 := intRoot(a.val.Denom(), k)
	if !ok1 || !ok2 {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFrac(num, den)}, true
}

func intRoot(x *big.Int, k int64) (*big.Int, bool) {
	if !x.IsInt64() {
		return nil, false
	}
	f := math.Round(math.Pow(float64(x.Int64()), 1/float64(k)))
	r := big.NewInt(int64(f))
	if new(big.Int).Exp(r, big.NewInt(k), nil).Cmp(x) != 0 {
		return nil, false
	}
	return r, true
}

// ============================================================
// Sym — symbolic variable
// ============================================================

type Sym struct {
	name     string
	positive bool
}

func S(name string) *Sym { return &Sym{name: name} }

// SPos returns a symbol assumed to be strictly positive.
func SPos(name string) *Sym { return &Sym{name: name, positive: true} }

func (s *Sym) Simplify() Expr     { return s }
func (s *Sym) String() string     { return s.name }
func (s *Sym) LaTeX() string      { return s.name }
func (s *Sym) Eval() (*Num, bool) { return nil, false }
func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}
func (s *Sym) exprType() string { return "sym" }
func (s *Sym) Name() string     { return s.name }
func (s *Sym) Positive() bool   { return s.positive }
func (s *Sym) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "sym", "name": s.name}
	if s.positive {
		m["positive"] = true
	}
	return m
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Infinity — signed unbounded value produced by divergent limits
// ============================================================

type Infinity struct{ neg bool }

func Inf() *Infinity    { return &Infinity{} }
func NegInf() *Infinity { return &Infinity{neg: true} }

func (i *Infinity) Simplify() Expr        { return i }
func (i *Infinity) Sub(string, Expr) Expr { return i }
func (i *Infinity) Diff(string) Expr      { return N(0) }
func (i *Infinity) Eval() (*Num, bool)    { return nil, false }
func (i *Infinity) Negative() bool        { return i.neg }
func (i *Infinity) Equal(other Expr) bool {
	o, ok := other.(*Infinity)
	return ok && o.neg == i.neg
}
func (i *Infinity) exprType() string { return "inf" }
func (i *Infinity) Float64() float64 {
	if i.neg {
		return math.Inf(-1)
	}
	return math.Inf(1)
}
func (i *Infinity) String() string {
	if i.neg {
		return "-oo"
	}
	return "oo"
}
func (i *Infinity) LaTeX() string {
	if i.neg {
		return "-\\infty"
	}
	return "\\infty"
}
func (i *Infinity) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "inf", "negative": i.neg}
}
