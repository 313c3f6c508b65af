package gorbf

import (
	"fmt"

	"github.com/njchilds90/gorbf/symbolic"
)

// Normalize validates a basis expression and embeds the shape parameter.
//
// The expression must depend on the radius symbol and may reference no
// symbol other than radius and shape. If it does not reference the shape
// symbol, radius is replaced by shape*radius. The shape symbol in the
// result is marked positive.
func Normalize(expr symbolic.Expr, radius, shape string) (symbolic.Expr, error) {
	if expr == nil {
		return nil, fmt.Errorf("%w: nil expression", ErrInvalidExpression)
	}
	free := symbolic.FreeSymbols(expr)
	if _, ok := free[radius]; !ok {
		return nil, fmt.Errorf("%w: %s does not depend on %s", ErrInvalidExpression, expr, radius)
	}
	for _, name := range symbolic.SortedSymbols(expr) {
		if name != radius && name != shape {
			return nil, fmt.Errorf("%w: unexpected symbol %s in %s", ErrInvalidExpression, name, expr)
		}
	}
	eps := symbolic.SPos(shape)
	if _, ok := free[shape]; !ok {
		return symbolic.Sub(expr, radius, symbolic.MulOf(eps, symbolic.S(radius))), nil
	}
	return symbolic.Sub(expr, shape, eps), nil
}
