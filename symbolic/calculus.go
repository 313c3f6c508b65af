package symbolic

import "sort"

// ============================================================
// Top-level convenience functions
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

// DiffN differentiates n times. n must not be negative.
func DiffN(expr Expr, varName string, n int) Expr {
	result := expr
	for i := 0; i < n; i++ {
		result = Diff(result, varName)
	}
	return result
}

// SubAll substitutes every binding in env.
func SubAll(expr Expr, env map[string]Expr) Expr {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		expr = expr.Sub(name, env[name])
	}
	return expr.Simplify()
}

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// SortedSymbols returns the free symbol names in lexical order.
func SortedSymbols(e Expr) []string {
	set := FreeSymbols(e)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name occurs free in e.
func Has(e Expr, name string) bool {
	_, ok := FreeSymbols(e)[name]
	return ok
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	case *Rel:
		collectSymbols(v.lhs, out)
		collectSymbols(v.rhs, out)
	case *Piecewise:
		for _, pc := range v.pieces {
			collectSymbols(pc.Value, out)
			if pc.Cond != nil {
				collectSymbols(pc.Cond, out)
			}
		}
	}
}

// walk visits e in pre-order until visit returns false.
func walk(e Expr, visit func(Expr) bool) bool {
	if !visit(e) {
		return false
	}
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			if !walk(t, visit) {
				return false
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if !walk(f, visit) {
				return false
			}
		}
	case *Pow:
		return walk(v.base, visit) && walk(v.exp, visit)
	case *Func:
		return walk(v.arg, visit)
	case *Rel:
		return walk(v.lhs, visit) && walk(v.rhs, visit)
	case *Piecewise:
		for _, pc := range v.pieces {
			if !walk(pc.Value, visit) {
				return false
			}
			if pc.Cond != nil && !walk(pc.Cond, visit) {
				return false
			}
		}
	}
	return true
}
