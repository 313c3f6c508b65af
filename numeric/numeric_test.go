package numeric_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gorbf/numeric"
	"github.com/njchilds90/gorbf/symbolic"
)

var params = []string{"x0", "c0", "EPS"}

func backends(t *testing.T) []numeric.Backend {
	t.Helper()
	var out []numeric.Backend
	for _, name := range []string{numeric.Native, numeric.Portable} {
		b, err := numeric.Lookup(name)
		require.NoError(t, err)
		if b.Available() {
			out = append(out, b)
		}
	}
	require.NotEmpty(t, out)
	return out
}

func TestBroadcastShape(t *testing.T) {
	rows, cols, err := numeric.BroadcastShape(numeric.Column([]float64{1, 2, 3}), numeric.Row([]float64{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)

	_, _, err = numeric.BroadcastShape(numeric.Column([]float64{1, 2, 3}), numeric.Column([]float64{1, 2}))
	assert.ErrorIs(t, err, numeric.ErrShape)

	_, err = numeric.NewArray(2, 2, []float64{1})
	assert.ErrorIs(t, err, numeric.ErrShape)
}

func TestBroadcastTo(t *testing.T) {
	a, err := numeric.Row([]float64{1, 2}).BroadcastTo(3, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 1, 2, 1, 2}, a.Data)

	_, err = numeric.Row([]float64{1, 2}).BroadcastTo(3, 3)
	assert.ErrorIs(t, err, numeric.ErrShape)
}

func TestLookup(t *testing.T) {
	_, err := numeric.Lookup("gpu")
	assert.ErrorIs(t, err, numeric.ErrUnknownBackend)
	assert.Contains(t, numeric.Names(), numeric.Native)
	assert.Contains(t, numeric.Names(), numeric.Portable)
}

func TestCall_MatchesSymbolicEvaluation(t *testing.T) {
	expr := symbolic.MustParse("EPS*sqrt((x0 - c0)^2) + sin(x0)*exp(-EPS*c0) - 1/(1 + x0^2)")
	xs := []float64{0, 1, 2}
	cs := []float64{0.5, 1.5}
	eps := []float64{1, 2}

	for _, b := range backends(t) {
		t.Run(b.Name(), func(t *testing.T) {
			fn, err := b.Compile(expr, params)
			require.NoError(t, err)
			assert.Equal(t, params, fn.Params())

			out, err := fn.Call(numeric.Column(xs), numeric.Row(cs), numeric.Row(eps))
			require.NoError(t, err)
			require.Equal(t, 3, out.Rows)
			require.Equal(t, 2, out.Cols)
			for i, x := range xs {
				for j := range cs {
					want, err := symbolic.Evaluate(expr, map[string]float64{"x0": x, "c0": cs[j], "EPS": eps[j]})
					require.NoError(t, err)
					assert.InDelta(t, want, out.At(i, j), 1e-12)
				}
			}
		})
	}
}

func TestCall_ConstantIsScalar(t *testing.T) {
	for _, b := range backends(t) {
		fn, err := b.Compile(symbolic.N(3), params)
		require.NoError(t, err)
		out, err := fn.Call(numeric.Column([]float64{1, 2}), numeric.Row([]float64{1, 2, 3}), numeric.Row([]float64{1, 1, 1}))
		require.NoError(t, err)
		assert.True(t, out.IsScalar(), b.Name())
		assert.Equal(t, 3.0, out.Data[0])
	}
}

func TestCall_ShapeFollowsReferencedParams(t *testing.T) {
	expr := symbolic.MustParse("2*EPS^2")
	for _, b := range backends(t) {
		fn, err := b.Compile(expr, params)
		require.NoError(t, err)
		out, err := fn.Call(numeric.Column([]float64{1, 2}), numeric.Row([]float64{1, 2}), numeric.Row([]float64{1, 3}))
		require.NoError(t, err)
		assert.Equal(t, 1, out.Rows, b.Name())
		assert.Equal(t, []float64{2, 18}, out.Data, b.Name())
	}
}

func TestCall_Piecewise(t *testing.T) {
	x0 := symbolic.S("x0")
	expr := symbolic.PiecewiseOf(
		symbolic.Piece{Value: symbolic.N(1), Cond: symbolic.Lt(x0, symbolic.N(1))},
		symbolic.Otherwise(symbolic.MulOf(symbolic.N(2), x0)),
	)
	for _, b := range backends(t) {
		fn, err := b.Compile(expr, []string{"x0"})
		require.NoError(t, err)
		out, err := fn.Call(numeric.Column([]float64{0, 1, 3}))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 6}, out.Data, b.Name())
	}
}

func TestCall_NonFiniteIsPropagated(t *testing.T) {
	expr := symbolic.MustParse("1/x0")
	for _, b := range backends(t) {
		fn, err := b.Compile(expr, []string{"x0"})
		require.NoError(t, err)
		out, err := fn.Call(numeric.Column([]float64{0, 2}))
		require.NoError(t, err)
		assert.True(t, math.IsInf(out.Data[0], 1), b.Name())
		assert.Equal(t, 0.5, out.Data[1], b.Name())
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, b := range backends(t) {
		_, err := b.Compile(symbolic.MustParse("x0 + y"), params)
		assert.ErrorIs(t, err, numeric.ErrUnsupported, b.Name())

		_, err = b.Compile(symbolic.FuncOf("erf", symbolic.S("x0")), params)
		assert.ErrorIs(t, err, numeric.ErrUnsupported, b.Name())

		_, err = b.Compile(symbolic.S("x0"), []string{"x0", "x0"})
		assert.ErrorIs(t, err, numeric.ErrUnsupported, b.Name())

		fn, err := b.Compile(symbolic.S("x0"), params)
		require.NoError(t, err)
		_, err = fn.Call(numeric.Scalar(1))
		assert.ErrorIs(t, err, numeric.ErrArity, b.Name())
		_, err = fn.Call(numeric.Column([]float64{1, 2}), numeric.Column([]float64{1, 2, 3}), numeric.Scalar(1))
		assert.ErrorIs(t, err, numeric.ErrShape, b.Name())
	}
}

func TestNative_ParallelMatchesPortable(t *testing.T) {
	native, err := numeric.Lookup(numeric.Native)
	require.NoError(t, err)
	if !native.Available() {
		t.Skip("native backend not built")
	}
	portable, err := numeric.Lookup(numeric.Portable)
	require.NoError(t, err)

	expr := symbolic.MustParse("(EPS*(x0 - c0))^2*ln(1 + (x0 - c0)^2)")
	const n, m = 200, 50
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) / n
	}
	cs := make([]float64, m)
	eps := make([]float64, m)
	for j := range cs {
		cs[j] = float64(j) / m
		eps[j] = 1 + float64(j)/10
	}

	nf, err := native.Compile(expr, params)
	require.NoError(t, err)
	pf, err := portable.Compile(expr, params)
	require.NoError(t, err)
	got, err := nf.Call(numeric.Column(xs), numeric.Row(cs), numeric.Row(eps))
	require.NoError(t, err)
	want, err := pf.Call(numeric.Column(xs), numeric.Row(cs), numeric.Row(eps))
	require.NoError(t, err)
	require.Equal(t, n*m, len(got.Data))
	assert.InDeltaSlice(t, want.Data, got.Data, 1e-12)
}
