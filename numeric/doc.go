// Package numeric compiles symbolic expressions into vectorized
// functions over broadcastable 2-D arrays.
//
// Two backends are provided:
//
//   - native: lowers the expression to a register program with common
//     subexpression elimination and runs it per element, splitting large
//     inputs across goroutines
//   - portable: interprets the expression tree one whole array at a time
//
// Select a backend by name:
//
//	b, err := numeric.Lookup("native")
//	fn, err := b.Compile(expr, []string{"x0", "c0", "EPS"})
//	out, err := fn.Call(points, centers, shape)
//
// Build with the purego tag to exclude the native backend; it then
// reports itself as unavailable and Compile fails with ErrUnavailable.
package numeric
