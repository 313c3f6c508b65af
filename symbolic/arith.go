package symbolic

import (
	"sort"
	"strings"
)

// ============================================================
// Add — sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Simplify flattens nested sums, folds numbers and collects like terms
// (terms equal up to a rational coefficient). Non-numeric terms are
// ordered by their printed form so output is deterministic.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	numAccum := N(0)
	var inf *Infinity
	undefined := false
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	keys := []string{}
	for _, t := range flat {
		switch v := t.(type) {
		case *Num:
			numAccum = numAdd(numAccum, v)
		case *Infinity:
			if inf != nil && inf.neg != v.neg {
				undefined = true
			}
			inf = v
		default:
			coeff, rest := extractCoefficient(t)
			key := rest.String()
			if _, seen := coeffs[key]; !seen {
				keys = append(keys, key)
				coeffs[key] = N(0)
				rests[key] = rest
			}
			coeffs[key] = numAdd(coeffs[key], coeff)
		}
	}
	if inf != nil {
		if undefined {
			return &Add{terms: []Expr{NegInf(), Inf()}}
		}
		return inf
	}

	sort.Strings(keys)
	result := make([]Expr, 0, len(keys)+1)
	for _, key := range keys {
		coeff := coeffs[key]
		switch {
		case coeff.IsZero():
			continue
		case coeff.IsOne():
			result = append(result, rests[key])
		default:
			result = append(result, MulOf(coeff, rests[key]))
		}
	}
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) LaTeX() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.LaTeX()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul — product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// Simplify flattens nested products, folds the rational coefficient to
// the front and merges factors sharing a base (x^a * x^b -> x^(a+b)).
func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	coeff := N(1)
	var inf *Infinity
	others := []Expr{}
	for _, f := range flat {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Infinity:
			if inf == nil {
				inf = v
			} else {
				inf = &Infinity{neg: inf.neg != v.neg}
			}
		default:
			others = append(others, f)
		}
	}

	if inf != nil {
		if coeff.IsZero() {
			return &Mul{factors: []Expr{N(0), inf}}
		}
		signed := &Infinity{neg: inf.neg != coeff.IsNegative()}
		if allPositive(others) {
			return signed
		}
		return &Mul{factors: append(sortByString(others), signed)}
	}
	if coeff.IsZero() {
		return N(0)
	}

	others, extra := combinePowers(others)
	coeff = numMul(coeff, extra)
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}
	others = sortByString(others)
	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

// combinePowers merges factors with a common base. A merged power may
// itself expand into a product or a number, so merging repeats until
// the factor list is stable.
func combinePowers(factors []Expr) ([]Expr, *Num) {
	coeff := N(1)
	for pass := 0; pass < 4; pass++ {
		type group struct {
			base  Expr
			exps  []Expr
			first Expr
		}
		groups := map[string]*group{}
		keys := []string{}
		for _, f := range factors {
			base, exp := splitPow(f)
			key := base.String()
			g, seen := groups[key]
			if !seen {
				g = &group{base: base, first: f}
				groups[key] = g
				keys = append(keys, key)
			}
			g.exps = append(g.exps, exp)
		}
		if len(keys) == len(factors) {
			return factors, coeff
		}

		next := make([]Expr, 0, len(keys))
		for _, key := range keys {
			g := groups[key]
			if len(g.exps) == 1 {
				next = append(next, g.first)
				continue
			}
			merged := PowOf(g.base, AddOf(g.exps...))
			switch v := merged.(type) {
			case *Num:
				coeff = numMul(coeff, v)
			case *Mul:
				for _, f := range v.factors {
					if n, ok := f.(*Num); ok {
						coeff = numMul(coeff, n)
					} else {
						next = append(next, f)
					}
				}
			default:
				next = append(next, merged)
			}
		}
		factors = next
	}
	return factors, coeff
}

func splitPow(e Expr) (base, exp Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func sortByString(es []Expr) []Expr {
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(es))
	for i, e := range es {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	out := make([]Expr, len(ks))
	for i := range ks {
		out[i] = ks[i].e
	}
	return out
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "\\left(" + f.LaTeX() + "\\right)"
		} else {
			parts[i] = f.LaTeX()
		}
	}
	return strings.Join(parts, " ")
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

// Diff applies the product rule.
func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, 0, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		if n, ok := dfi.(*Num); ok && n.IsZero() {
			continue
		}
		others := make([]Expr, 0, len(m.factors))
		others = append(others, dfi)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms = append(terms, MulOf(others...))
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return m.factors }

// extractCoefficient splits a term into its rational coefficient and
// the remaining product.
func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// isPositive reports whether e is known to be strictly positive for
// every real assignment of its symbols.
func isPositive(e Expr) bool {
	switch v := e.(type) {
	case *Num:
		return v.IsPositive()
	case *Sym:
		return v.positive
	case *Infinity:
		return !v.neg
	case *Pow:
		return isPositive(v.base)
	case *Mul:
		return allPositive(v.factors)
	case *Add:
		return allPositive(v.terms)
	case *Func:
		return v.name == "exp" || v.name == "cosh"
	}
	return false
}

func allPositive(es []Expr) bool {
	for _, e := range es {
		if !isPositive(e) {
			return false
		}
	}
	return true
}
