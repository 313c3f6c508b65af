package symbolic

import "fmt"

// ============================================================
// Limits
// ============================================================

const limitVar = "_h"

// Limit computes the one-sided limit of expr as varName approaches point
// from above.
//
// Expressions without a singular sub-term at the point are resolved by
// substitution. Otherwise varName is replaced by point+h for a positive
// h, and the limit is read off the leading term of the generalized
// series of the result. Divergent limits yield a signed Infinity,
// possibly multiplied by a coefficient of unknown sign.
func Limit(expr Expr, varName string, point Expr) (Expr, error) {
	expr = expr.Simplify()
	if !Has(expr, varName) {
		return expr, nil
	}
	if !singularAt(expr, varName, point) {
		return Sub(expr, varName, point), nil
	}
	h := SPos(limitVar)
	shifted := Sub(expr, varName, AddOf(point, h))
	s, err := expand(shifted, limitVar)
	if err != nil {
		return nil, fmt.Errorf("limit of %s as %s -> %s+: %w", expr, varName, point, err)
	}
	value, err := s.leading()
	if err != nil {
		return nil, fmt.Errorf("limit of %s as %s -> %s+: %w", expr, varName, point, err)
	}
	return value, nil
}

func (s *series) leading() (Expr, error) {
	if len(s.terms) == 0 {
		if s.bound == nil || s.bound.Sign() > 0 {
			return N(0), nil
		}
		return nil, fmt.Errorf("%w: insufficient precision", ErrNoLimit)
	}
	t := s.terms[0]
	switch sign := t.p.Sign(); {
	case sign > 0:
		return N(0), nil
	case sign == 0 && t.q == 0:
		return t.coef, nil
	case sign == 0 && t.q < 0:
		return N(0), nil
	}
	// h^p diverges to +oo and (ln h)^q carries the sign (-1)^q.
	if t.q%2 != 0 {
		return MulOf(N(-1), t.coef, Inf()), nil
	}
	return MulOf(t.coef, Inf()), nil
}

// singularAt reports whether e has a sub-term that is undefined when
// varName equals point: a non-positive or symbolic power of a vanishing
// base, or the logarithm or sign of a vanishing argument.
func singularAt(e Expr, varName string, point Expr) bool {
	singular := false
	walk(e, func(n Expr) bool {
		switch v := n.(type) {
		case *Pow:
			en, isNum := v.exp.(*Num)
			if (!isNum || !en.IsPositive()) && vanishesAt(v.base, varName, point) {
				singular = true
			}
		case *Func:
			if (v.name == "ln" || v.name == "sign") && vanishesAt(v.arg, varName, point) {
				singular = true
			}
		}
		return !singular
	})
	return singular
}

func vanishesAt(e Expr, varName string, point Expr) bool {
	if !Has(e, varName) {
		return false
	}
	return IsZero(Sub(e, varName, point))
}
