package symbolic

import (
	"fmt"
	"math/big"
	"sort"
)

// ============================================================
// Generalized series in a small positive variable h:
//
//	Σ coef_k · h^p_k · (ln h)^q_k  +  O(h^bound)
//
// p is rational, q an integer, and every coefficient is free of h.
// Terms are ordered by increasing p, then decreasing q, so the first
// term dominates as h -> 0+.
// ============================================================

// seriesHorizon is the relative precision carried by exact inputs.
var seriesHorizon = big.NewRat(10, 1)

const maxSeriesPower = 32

type term struct {
	coef Expr
	p    *big.Rat
	q    int
}

type series struct {
	terms []term
	// bound is nil for an exact zero.
	bound *big.Rat
}

func zeroSeries() *series { return &series{} }

func constSeries(c Expr) *series {
	return &series{
		terms: []term{{coef: c, p: new(big.Rat), q: 0}},
		bound: new(big.Rat).Set(seriesHorizon),
	}
}

func monomial(coef Expr, p *big.Rat, q int) *series {
	return &series{
		terms: []term{{coef: coef, p: new(big.Rat).Set(p), q: q}},
		bound: new(big.Rat).Add(p, seriesHorizon),
	}
}

func (s *series) isExactZero() bool { return len(s.terms) == 0 && s.bound == nil }

// order is the exponent of the leading term, or the bound when no term
// is known. nil means the series is exactly zero.
func (s *series) order() *big.Rat {
	if len(s.terms) > 0 {
		return s.terms[0].p
	}
	return s.bound
}

func (s *series) String() string {
	out := ""
	for i, t := range s.terms {
		if i > 0 {
			out += " + "
		}
		out += fmt.Sprintf("(%s)*h^(%s)*ln(h)^%d", t.coef, t.p.RatString(), t.q)
	}
	if s.bound != nil {
		out += " + O(h^" + s.bound.RatString() + ")"
	}
	return out
}

func ratAdd(a, b *big.Rat) *big.Rat {
	if a == nil || b == nil {
		return nil
	}
	return new(big.Rat).Add(a, b)
}

// ratMin treats nil as +infinity.
func ratMin(a, b *big.Rat) *big.Rat {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Cmp(b) <= 0:
		return a
	}
	return b
}

// normalize merges like terms, drops vanishing coefficients and every
// term at or beyond the bound.
func normalize(terms []term, bound *big.Rat) *series {
	type slot struct {
		t   term
		add []Expr
	}
	slots := map[string]*slot{}
	keys := []string{}
	for _, t := range terms {
		if bound != nil && t.p.Cmp(bound) >= 0 {
			continue
		}
		key := fmt.Sprintf("%s|%d", t.p.RatString(), t.q)
		sl, seen := slots[key]
		if !seen {
			sl = &slot{t: t}
			slots[key] = sl
			keys = append(keys, key)
		}
		sl.add = append(sl.add, t.coef)
	}
	out := make([]term, 0, len(keys))
	for _, key := range keys {
		sl := slots[key]
		coef := AddOf(sl.add...)
		if IsZero(coef) {
			continue
		}
		out = append(out, term{coef: coef, p: sl.t.p, q: sl.t.q})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].p.Cmp(out[j].p); c != 0 {
			return c < 0
		}
		return out[i].q > out[j].q
	})
	return &series{terms: out, bound: bound}
}

func (s *series) add(o *series) *series {
	terms := append(append([]term{}, s.terms...), o.terms...)
	return normalize(terms, ratMin(s.bound, o.bound))
}

func (s *series) neg() *series {
	terms := make([]term, len(s.terms))
	for i, t := range s.terms {
		terms[i] = term{coef: MulOf(N(-1), t.coef), p: t.p, q: t.q}
	}
	return &series{terms: terms, bound: s.bound}
}

func (s *series) scale(c Expr) *series {
	terms := make([]term, len(s.terms))
	for i, t := range s.terms {
		terms[i] = term{coef: MulOf(c, t.coef), p: t.p, q: t.q}
	}
	return normalize(terms, s.bound)
}

// shift multiplies by the exact monomial h^p (ln h)^q.
func (s *series) shift(p *big.Rat, q int) *series {
	terms := make([]term, len(s.terms))
	for i, t := range s.terms {
		terms[i] = term{coef: t.coef, p: new(big.Rat).Add(t.p, p), q: t.q + q}
	}
	return &series{terms: terms, bound: ratAdd(s.bound, p)}
}

func (s *series) mul(o *series) *series {
	if s.isExactZero() || o.isExactZero() {
		return zeroSeries()
	}
	bound := ratMin(ratAdd(s.order(), o.bound), ratAdd(o.order(), s.bound))
	terms := make([]term, 0, len(s.terms)*len(o.terms))
	for _, a := range s.terms {
		for _, b := range o.terms {
			p := new(big.Rat).Add(a.p, b.p)
			if bound != nil && p.Cmp(bound) >= 0 {
				continue
			}
			terms = append(terms, term{coef: MulOf(a.coef, b.coef), p: p, q: a.q + b.q})
		}
	}
	return normalize(terms, bound)
}

// split separates the constant part of s from the part that vanishes as
// h -> 0+. Unbounded terms cannot be split.
func (s *series) split() (a0 Expr, rest *series, err error) {
	a0 = N(0)
	restTerms := []term{}
	for _, t := range s.terms {
		switch sign := t.p.Sign(); {
		case sign < 0 || (sign == 0 && t.q > 0):
			return nil, nil, fmt.Errorf("%w: unbounded argument %s", ErrNoLimit, s)
		case sign == 0 && t.q == 0:
			a0 = t.coef
		case sign == 0:
			return nil, nil, fmt.Errorf("%w: logarithmic argument %s", ErrNoLimit, s)
		default:
			restTerms = append(restTerms, t)
		}
	}
	return a0, &series{terms: restTerms, bound: s.bound}, nil
}

// powerSum evaluates Σ coef(k) v^k for a series v of positive order.
func powerSum(v *series, coef func(k int) Expr) *series {
	bound := v.bound
	if bound == nil {
		bound = new(big.Rat).Set(seriesHorizon)
	}
	k := 0
	if len(v.terms) > 0 && bound.Sign() > 0 {
		ratio := new(big.Rat).Quo(bound, v.terms[0].p)
		q := new(big.Int).Quo(ratio.Num(), ratio.Denom())
		k = int(q.Int64()) + 1
		if k > maxSeriesPower {
			k = maxSeriesPower
		}
	}
	acc := normalize([]term{{coef: coef(0), p: new(big.Rat), q: 0}}, bound)
	vk := &series{terms: []term{{coef: N(1), p: new(big.Rat), q: 0}}}
	for i := 1; i <= k; i++ {
		vk = vk.mul(v)
		vk = normalize(vk.terms, ratMin(vk.bound, bound))
		c := coef(i)
		if n, ok := c.(*Num); ok && n.IsZero() {
			continue
		}
		acc = acc.add(vk.scale(c))
	}
	return acc
}

// factor splits s = lead * (1 + u) where lead is the leading monomial.
func (s *series) factor() (lead term, u *series, err error) {
	if len(s.terms) == 0 {
		return term{}, nil, fmt.Errorf("%w: insufficient precision", ErrNoLimit)
	}
	lead = s.terms[0]
	inv := PowOf(lead.coef, N(-1))
	terms := make([]term, 0, len(s.terms)-1)
	for _, t := range s.terms[1:] {
		p := new(big.Rat).Sub(t.p, lead.p)
		if p.Sign() == 0 {
			return term{}, nil, fmt.Errorf("%w: logarithmic correction in %s", ErrNoLimit, s)
		}
		terms = append(terms, term{coef: MulOf(t.coef, inv), p: p, q: t.q - lead.q})
	}
	return lead, &series{terms: terms, bound: ratAdd(s.bound, new(big.Rat).Neg(lead.p))}, nil
}

// pow raises s to a power that does not depend on h.
func (s *series) pow(e Expr) (*series, error) {
	if s.isExactZero() {
		if n, ok := e.(*Num); ok && n.IsPositive() {
			return zeroSeries(), nil
		}
		return nil, fmt.Errorf("%w: zero raised to %s", ErrNoLimit, e)
	}
	if n, ok := e.(*Num); ok {
		if k, isInt := n.Int64(); isInt && k >= 0 && k <= maxSeriesPower {
			acc := constSeries(N(1))
			for i := int64(0); i < k; i++ {
				acc = acc.mul(s)
			}
			return acc, nil
		}
	}
	lead, u, err := s.factor()
	if err != nil {
		return nil, err
	}
	en, expIsNum := e.(*Num)
	if lead.q != 0 && !(expIsNum && en.IsInteger()) {
		return nil, fmt.Errorf("%w: non-integer power of a logarithm", ErrNoLimit)
	}
	if lead.p.Sign() != 0 && !expIsNum {
		return nil, fmt.Errorf("%w: symbolic power of a vanishing base", ErrNoLimit)
	}
	binom := func(k int) Expr {
		c := Expr(N(1))
		for j := 0; j < k; j++ {
			c = MulOf(c, AddOf(e, N(int64(-j))), F(1, int64(j+1)))
		}
		return c
	}
	body := powerSum(u, binom).scale(PowOf(lead.coef, e))
	p := new(big.Rat)
	q := 0
	if expIsNum {
		p.Mul(lead.p, en.val)
		if lead.q != 0 {
			k, _ := en.Int64()
			q = lead.q * int(k)
		}
	}
	return body.shift(p, q), nil
}

// exp of a series tending to -oo vanishes faster than any power of h.
// Growth towards +oo has no series and fails in split.
func (s *series) exp() (*series, error) {
	if len(s.terms) > 0 {
		t := s.terms[0]
		if t.p.Sign() < 0 || (t.p.Sign() == 0 && t.q > 0) {
			sign, ok := probeSign(t.coef)
			if t.q%2 != 0 {
				sign = -sign
			}
			if ok && sign < 0 {
				return zeroSeries(), nil
			}
		}
	}
	a0, v, err := s.split()
	if err != nil {
		return nil, err
	}
	base := ExpOf(a0)
	fact := big.NewInt(1)
	return powerSum(v, func(k int) Expr {
		if k > 0 {
			fact.Mul(fact, big.NewInt(int64(k)))
		}
		return MulOf(base, NRat(new(big.Rat).SetFrac(big.NewInt(1), new(big.Int).Set(fact))))
	}), nil
}

func (s *series) log() (*series, error) {
	lead, u, err := s.factor()
	if err != nil {
		return nil, err
	}
	if lead.q != 0 {
		return nil, fmt.Errorf("%w: logarithm of a logarithm", ErrNoLimit)
	}
	body := powerSum(u, func(k int) Expr {
		if k == 0 {
			return LnOf(lead.coef)
		}
		if k%2 == 0 {
			return F(-1, int64(k))
		}
		return F(1, int64(k))
	})
	if lead.p.Sign() != 0 {
		body = body.add(&series{
			terms: []term{{coef: NRat(lead.p), p: new(big.Rat), q: 1}},
			bound: body.bound,
		})
	}
	return body, nil
}

// taylor expands name(s) around the constant part of s.
func (s *series) taylor(name string) (*series, error) {
	a0, v, err := s.split()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	t := S("taylor_t")
	deriv := Expr(funcOf(name, t))
	fact := big.NewInt(1)
	return powerSum(v, func(k int) Expr {
		if k > 0 {
			deriv = Diff(deriv, t.name)
			fact.Mul(fact, big.NewInt(int64(k)))
		}
		at := Sub(deriv, t.name, a0)
		return MulOf(at, NRat(new(big.Rat).SetFrac(big.NewInt(1), new(big.Int).Set(fact))))
	}), nil
}

// expand builds the series of e in the positive symbol h.
func expand(e Expr, h string) (*series, error) {
	if !Has(e, h) {
		if _, ok := e.(*Infinity); ok {
			return nil, fmt.Errorf("%w: infinite constant", ErrNoLimit)
		}
		if IsZero(e) {
			return zeroSeries(), nil
		}
		return constSeries(e), nil
	}
	switch v := e.(type) {
	case *Sym:
		return monomial(N(1), big.NewRat(1, 1), 0), nil
	case *Add:
		acc := zeroSeries()
		for _, t := range v.terms {
			s, err := expand(t, h)
			if err != nil {
				return nil, err
			}
			acc = acc.add(s)
		}
		return acc, nil
	case *Mul:
		acc := constSeries(N(1))
		for _, f := range v.factors {
			s, err := expand(f, h)
			if err != nil {
				return nil, err
			}
			acc = acc.mul(s)
		}
		return acc, nil
	case *Pow:
		base, err := expand(v.base, h)
		if err != nil {
			return nil, err
		}
		if Has(v.exp, h) {
			exponent, err := expand(v.exp, h)
			if err != nil {
				return nil, err
			}
			logBase, err := base.log()
			if err != nil {
				return nil, err
			}
			return exponent.mul(logBase).exp()
		}
		return base.pow(v.exp)
	case *Func:
		arg, err := expand(v.arg, h)
		if err != nil {
			return nil, err
		}
		switch v.name {
		case "exp":
			return arg.exp()
		case "ln":
			return arg.log()
		case "abs", "sign":
			return arg.signed(v.name)
		}
		if _, ok := Functions[v.name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, v.name)
		}
		return arg.taylor(v.name)
	}
	return nil, fmt.Errorf("%w: cannot expand %s", ErrNoLimit, e.exprType())
}

// signed handles abs and sign, which are analytic away from zero once
// the sign of the leading coefficient is known.
func (s *series) signed(name string) (*series, error) {
	if s.isExactZero() {
		return zeroSeries(), nil
	}
	if len(s.terms) == 0 {
		return nil, fmt.Errorf("%w: insufficient precision", ErrNoLimit)
	}
	sign, ok := probeSign(s.terms[0].coef)
	if !ok {
		return nil, fmt.Errorf("%w: sign of %s is unknown", ErrNoLimit, s.terms[0].coef)
	}
	if s.terms[0].q%2 != 0 {
		sign = -sign
	}
	if name == "sign" {
		return constSeries(N(int64(sign))), nil
	}
	if sign < 0 {
		return s.neg(), nil
	}
	return s, nil
}
