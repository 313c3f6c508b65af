// Package gorbf evaluates radial basis functions and arbitrary partial
// derivatives of them from one symbolic definition of the radial profile.
//
// A basis function is a symbolic expression in the radius symbol R and,
// optionally, the shape symbol EPS. The Engine instantiates it in any
// spatial dimension, differentiates it symbolically, optionally replaces
// its value near the center by a symbolic limit, compiles the result for
// a numeric backend, and caches the compiled function per derivative
// signature.
//
//	eng, err := gorbf.New(symbolic.MustParse("exp(-(EPS*R)^2)"))
//	points, _ := gorbf.Rows([][]float64{{0, 0}, {0.5, 0.5}})
//	centers, _ := gorbf.Rows([][]float64{{0, 0}})
//	out, err := eng.Evaluate(points, centers, nil, gorbf.Signature{1, 0})
//
// Evaluation results never contain NaN or infinities. Values that are
// undefined at a center (for example 0*log(0)) are reported as 0 unless
// a tolerance is set, in which case the symbolic limit is used for
// points closer than the tolerance.
package gorbf
