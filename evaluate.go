package gorbf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/njchilds90/gorbf/numeric"
)

// Rows builds an N×D matrix from nested slices. Ragged or empty input is
// a shape mismatch.
func Rows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrShapeMismatch)
	}
	dim := len(rows[0])
	data := make([]float64, 0, len(rows)*dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(row), dim)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), dim, data), nil
}

// request is a validated evaluation request.
type request struct {
	n, m, dim int
	points    mat.Matrix
	centers   mat.Matrix
	shape     []float64
	diff      Signature
}

func validate(points, centers mat.Matrix, shape []float64, diff Signature) (*request, error) {
	if points == nil || centers == nil {
		return nil, fmt.Errorf("%w: points and centers are required", ErrShapeMismatch)
	}
	n, dim := points.Dims()
	m, cdim := centers.Dims()
	if n == 0 || dim == 0 {
		return nil, fmt.Errorf("%w: points are empty", ErrShapeMismatch)
	}
	if m == 0 || cdim == 0 {
		return nil, fmt.Errorf("%w: centers are empty", ErrShapeMismatch)
	}
	if dim != cdim {
		return nil, fmt.Errorf("%w: points have %d dimensions, centers %d", ErrShapeMismatch, dim, cdim)
	}
	if shape == nil {
		shape = make([]float64, m)
		for i := range shape {
			shape[i] = 1
		}
	}
	if len(shape) != m {
		return nil, fmt.Errorf("%w: %d shape parameters for %d centers", ErrShapeMismatch, len(shape), m)
	}
	if diff == nil {
		diff = Zero(dim)
	}
	if len(diff) != dim {
		return nil, fmt.Errorf("%w: derivative %s for %d dimensions", ErrShapeMismatch, diff, dim)
	}
	if err := diff.check(); err != nil {
		return nil, err
	}
	return &request{n: n, m: m, dim: dim, points: points, centers: centers, shape: shape, diff: diff}, nil
}

// args lays out per-axis point columns (N×1), per-axis center rows (1×M)
// and the shape row (1×M) so the compiled function broadcasts them to
// N×M in one call.
func (r *request) args() []*numeric.Array {
	out := make([]*numeric.Array, 0, 2*r.dim+1)
	for axis := 0; axis < r.dim; axis++ {
		out = append(out, numeric.Column(mat.Col(nil, axis, r.points)))
	}
	for axis := 0; axis < r.dim; axis++ {
		out = append(out, numeric.Row(mat.Col(nil, axis, r.centers)))
	}
	return append(out, numeric.Row(append([]float64(nil), r.shape...)))
}

func (r *request) run(fn numeric.Func) (*mat.Dense, error) {
	res, err := fn.Call(r.args()...)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", r.diff, err)
	}
	full, err := res.BroadcastTo(r.n, r.m)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", r.diff, err)
	}
	return mat.NewDense(r.n, r.m, zeroNonFinite(full.Data)), nil
}

// zeroNonFinite returns a copy of vs with NaN and infinities replaced by 0.
func zeroNonFinite(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out
}
