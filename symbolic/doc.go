// Package symbolic provides the deterministic symbolic kernel used to
// derive radial basis function derivatives.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat)
//   - Deterministic simplification and stable output
//   - Substitution, differentiation and one-sided limits on expression trees
//   - Piecewise expressions and signed infinity for singularity handling
//
// Expressions are immutable. Every constructor (AddOf, MulOf, PowOf, ...)
// returns a simplified tree, and transformations return new trees.
//
// Symbols are treated as real valued. A symbol created with SPos is
// additionally known to be positive, which allows rewrites such as
// (a^2)^(1/2) -> a that are wrong for arbitrary reals.
package symbolic
