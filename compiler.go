package gorbf

import (
	"fmt"
	"strconv"

	"github.com/njchilds90/gorbf/numeric"
	"github.com/njchilds90/gorbf/symbolic"
)

// coordinates returns the point and center symbol names for dim axes.
func coordinates(dim int) (xs, cs []string) {
	xs = make([]string, dim)
	cs = make([]string, dim)
	for i := 0; i < dim; i++ {
		xs[i] = "x" + strconv.Itoa(i)
		cs[i] = "c" + strconv.Itoa(i)
	}
	return xs, cs
}

// distance builds sqrt(sum (xi-ci)^2).
func distance(xs, cs []string) symbolic.Expr {
	squares := make([]symbolic.Expr, len(xs))
	for i := range xs {
		d := symbolic.AddOf(symbolic.S(xs[i]), symbolic.MulOf(symbolic.N(-1), symbolic.S(cs[i])))
		squares[i] = symbolic.PowOf(d, symbolic.N(2))
	}
	return symbolic.SqrtOf(symbolic.AddOf(squares...))
}

// derive instantiates expr in len(sig) dimensions and applies sig. With a
// positive tolerance the result is the piecewise combination of the
// limit at the center and the derivative elsewhere.
func derive(expr symbolic.Expr, radius string, sig Signature, tol float64) (symbolic.Expr, error) {
	if err := sig.check(); err != nil {
		return nil, err
	}
	xs, cs := coordinates(len(sig))
	r := distance(xs, cs)
	out := symbolic.Sub(expr, radius, r)
	for axis, k := range sig {
		out = symbolic.DiffN(out, xs[axis], k)
	}
	if tol <= 0 {
		return out, nil
	}

	lim := out
	for axis := range sig {
		next, err := symbolic.Limit(lim, xs[axis], symbolic.S(cs[axis]))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLimit, err)
		}
		lim = next
	}
	return symbolic.PiecewiseOf(
		symbolic.Piece{Value: lim, Cond: symbolic.Lt(r, symbolic.NFloat(tol))},
		symbolic.Otherwise(out),
	), nil
}

// params lists the compiled function's parameters: point coordinates,
// center coordinates, then the shape parameter.
func params(dim int, shape string) []string {
	xs, cs := coordinates(dim)
	return append(append(xs, cs...), shape)
}

func compile(b numeric.Backend, expr symbolic.Expr, dim int, shape string) (numeric.Func, error) {
	if !b.Available() {
		return nil, fmt.Errorf("%w: %s backend is not available in this build", ErrCompilationBackend, b.Name())
	}
	fn, err := b.Compile(expr, params(dim, shape))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompilationBackend, err)
	}
	return fn, nil
}
