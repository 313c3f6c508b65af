package symbolic

import (
	"fmt"
	"math"
)

// Evaluate computes e in float64 with symbols bound by env.
func Evaluate(e Expr, env map[string]float64) (float64, error) {
	switch v := e.(type) {
	case *Num:
		return v.Float64(), nil
	case *Sym:
		val, ok := env[v.name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnboundSymbol, v.name)
		}
		return val, nil
	case *Infinity:
		return v.Float64(), nil
	case *Add:
		acc := 0.0
		for _, t := range v.terms {
			x, err := Evaluate(t, env)
			if err != nil {
				return 0, err
			}
			acc += x
		}
		return acc, nil
	case *Mul:
		acc := 1.0
		for _, f := range v.factors {
			x, err := Evaluate(f, env)
			if err != nil {
				return 0, err
			}
			acc *= x
		}
		return acc, nil
	case *Pow:
		b, err := Evaluate(v.base, env)
		if err != nil {
			return 0, err
		}
		x, err := Evaluate(v.exp, env)
		if err != nil {
			return 0, err
		}
		return math.Pow(b, x), nil
	case *Func:
		kernel, ok := Functions[v.name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownFunction, v.name)
		}
		x, err := Evaluate(v.arg, env)
		if err != nil {
			return 0, err
		}
		return kernel(x), nil
	case *Rel:
		a, err := Evaluate(v.lhs, env)
		if err != nil {
			return 0, err
		}
		b, err := Evaluate(v.rhs, env)
		if err != nil {
			return 0, err
		}
		if v.Holds(a, b) {
			return 1, nil
		}
		return 0, nil
	case *Piecewise:
		for _, pc := range v.pieces {
			if pc.Cond == nil {
				return Evaluate(pc.Value, env)
			}
			c, err := Evaluate(pc.Cond, env)
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return Evaluate(pc.Value, env)
			}
		}
		return math.NaN(), nil
	}
	return 0, fmt.Errorf("symbolic: cannot evaluate %s", e.exprType())
}

// probeValues are the sample coordinates used by zero testing. They are
// positive so that positive symbols stay in their domain.
var probeValues = []float64{0.7182818, 1.4142136, 0.5772157, 2.2360680, 1.7320508, 0.3183099, 1.2599210}

const (
	probeRounds    = 3
	probeTolerance = 1e-9
)

func probeEnv(names []string, round int) map[string]float64 {
	env := make(map[string]float64, len(names))
	for i, name := range names {
		env[name] = probeValues[(i+3*round)%len(probeValues)] * (1 + 0.25*float64(round))
	}
	return env
}

// IsZero reports whether e is identically zero. Structural simplification
// is tried first; otherwise e is sampled at fixed points and must vanish,
// relative to the magnitude of its parts, at every one of them.
func IsZero(e Expr) bool {
	e = e.Simplify()
	switch v := e.(type) {
	case *Num:
		return v.IsZero()
	case *Sym, *Infinity:
		return false
	}
	names := SortedSymbols(e)
	checked := 0
	for round := 0; round < probeRounds; round++ {
		env := probeEnv(names, round)
		val, err := Evaluate(e, env)
		if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		scale := magnitude(e, env)
		if math.IsNaN(scale) || math.IsInf(scale, 0) {
			continue
		}
		if math.Abs(val) > probeTolerance*math.Max(scale, 1e-300) {
			return false
		}
		checked++
	}
	return checked > 0
}

// magnitude bounds |e| from the absolute values of its parts, so that
// cancellation inside sums is measured against the size of the terms.
func magnitude(e Expr, env map[string]float64) float64 {
	switch v := e.(type) {
	case *Add:
		acc := 0.0
		for _, t := range v.terms {
			acc += magnitude(t, env)
		}
		return acc
	case *Mul:
		acc := 1.0
		for _, f := range v.factors {
			acc *= magnitude(f, env)
		}
		return acc
	case *Pow:
		if k, ok := v.exp.(*Num); ok && k.IsInteger() && k.IsPositive() {
			return math.Pow(magnitude(v.base, env), k.Float64())
		}
	}
	val, err := Evaluate(e, env)
	if err != nil {
		return math.NaN()
	}
	return math.Abs(val)
}

// probeSign returns the sign of e when it is the same at every probe.
func probeSign(e Expr) (int, bool) {
	if isPositive(e) {
		return 1, true
	}
	if n, ok := e.(*Num); ok {
		return n.val.Sign(), true
	}
	names := SortedSymbols(e)
	result := 0
	for round := 0; round < probeRounds; round++ {
		val, err := Evaluate(e, probeEnv(names, round))
		if err != nil || math.IsNaN(val) || val == 0 {
			return 0, false
		}
		s := 1
		if val < 0 {
			s = -1
		}
		if result != 0 && s != result {
			return 0, false
		}
		result = s
	}
	return result, true
}
