package symbolic

// ============================================================
// Pow — base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }

// Simplify folds numeric powers and applies only the power rules that
// hold for real bases:
//
//	(b^m)^n  -> b^(m*n)   when n is an integer or b > 0
//	(a*b)^n  -> a^n*b^n   when n is an integer
//	(a*b)^e  -> a^e*(b)^e when a > 0
func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	if bi, ok := base.(*Infinity); ok && expIsNum {
		if en.IsNegative() {
			return N(0)
		}
		if !bi.neg {
			return Inf()
		}
		if k, isInt := en.Int64(); isInt {
			if k%2 != 0 {
				return NegInf()
			}
			return Inf()
		}
	}

	if bn, ok := base.(*Num); ok {
		if bn.IsZero() {
			// 0^0 and 0^negative are left unevaluated.
			if expIsNum && en.IsPositive() {
				return N(0)
			}
			return &Pow{base: base, exp: exp}
		}
		if bn.IsOne() {
			return N(1)
		}
		if expIsNum {
			if k, isInt := en.Int64(); isInt && k >= -64 && k <= 64 {
				r, _ := numPowInt(bn, k)
				return r
			}
			num, den := en.val.Num(), en.val.Denom()
			if num.IsInt64() && den.IsInt64() && num.Int64() >= -64 && num.Int64() <= 64 {
				if root, ok := numRoot(bn, den.Int64()); ok {
					if r, ok := numPowInt(root, num.Int64()); ok {
						return r
					}
				}
			}
		}
	}

	if inner, ok := base.(*Pow); ok {
		if (expIsNum && en.IsInteger()) || isPositive(inner.base) {
			return PowOf(inner.base, MulOf(inner.exp, exp))
		}
	}

	if m, ok := base.(*Mul); ok {
		if expIsNum && en.IsInteger() {
			fs := make([]Expr, len(m.factors))
			for i, f := range m.factors {
				fs[i] = PowOf(f, exp)
			}
			return MulOf(fs...)
		}
		var pos, rest []Expr
		for _, f := range m.factors {
			if isPositive(f) {
				pos = append(pos, PowOf(f, exp))
			} else {
				rest = append(rest, f)
			}
		}
		if len(pos) > 0 {
			if len(rest) > 0 {
				pos = append(pos, &Pow{base: MulOf(rest...), exp: exp})
			}
			return MulOf(pos...)
		}
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow, *Infinity:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if b.IsNegative() || !b.IsInteger() {
			baseStr = "(" + baseStr + ")"
		}
	}
	expStr := p.exp.String()
	switch e := p.exp.(type) {
	case *Sym:
	case *Num:
		if e.IsNegative() || !e.IsInteger() {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if en, ok := p.exp.(*Num); ok && en.val.Cmp(F(1, 2).val) == 0 {
		return "\\sqrt{" + p.base.LaTeX() + "}"
	}
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if _, expIsNum := p.exp.(*Num); expIsNum {
		newExp := AddOf(p.exp, N(-1))
		return MulOf(p.exp, PowOf(p.base, newExp), du)
	}
	if _, baseIsNum := p.base.(*Num); baseIsNum {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if k, isInt := e.Int64(); isInt {
		return numPowInt(b, k)
	}
	return nil, false
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }
