package gorbf

import "github.com/njchilds90/gorbf/symbolic"

// Names of the two symbols every basis expression is written in.
const (
	R   = "R"
	EPS = "EPS"
)

// Radius returns the radius symbol.
func Radius() *symbolic.Sym { return symbolic.S(R) }

// Shape returns the shape parameter symbol. Shape parameters are
// positive.
func Shape() *symbolic.Sym { return symbolic.SPos(EPS) }
