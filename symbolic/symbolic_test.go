package symbolic_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gorbf/symbolic"
)

var (
	x = symbolic.S("x")
	y = symbolic.S("y")
	c = symbolic.S("c")
)

// ============================================================
// Num tests
// ============================================================

func TestNum_String(t *testing.T) {
	assert.Equal(t, "42", symbolic.N(42).String())
	assert.Equal(t, "1/3", symbolic.F(1, 3).String())
	assert.Equal(t, `\frac{2}{5}`, symbolic.F(2, 5).LaTeX())
}

func TestNum_Eval(t *testing.T) {
	n, ok := symbolic.N(7).Eval()
	require.True(t, ok)
	assert.Equal(t, "7", n.String())
}

func TestNFloat_NonFinite(t *testing.T) {
	assert.Nil(t, symbolic.NFloat(math.Inf(1)))
	assert.Nil(t, symbolic.NFloat(math.NaN()))
	assert.Equal(t, "1/2", symbolic.NFloat(0.5).String())
}

// ============================================================
// Add / Mul tests
// ============================================================

func TestAdd_LikeTerms(t *testing.T) {
	assert.Equal(t, "2*x", symbolic.AddOf(x, x).String())
	assert.Equal(t, "0", symbolic.AddOf(x, symbolic.MulOf(symbolic.N(-1), x)).String())
	assert.Equal(t, "1", symbolic.AddOf(c, symbolic.N(1), symbolic.MulOf(symbolic.N(-1), c)).String())
}

func TestMul_CombinePowers(t *testing.T) {
	assert.Equal(t, "x^2", symbolic.MulOf(x, x).String())
	assert.Equal(t, "1", symbolic.MulOf(x, symbolic.PowOf(x, symbolic.N(-1))).String())
	assert.Equal(t, "0", symbolic.MulOf(symbolic.N(0), x).String())
}

func TestDeterminism(t *testing.T) {
	want := symbolic.AddOf(symbolic.S("z"), symbolic.S("a"), symbolic.S("m"), symbolic.N(1)).String()
	for i := 0; i < 10; i++ {
		got := symbolic.AddOf(symbolic.S("m"), symbolic.N(1), symbolic.S("z"), symbolic.S("a")).String()
		require.Equal(t, want, got, "iteration %d", i)
	}
}

// ============================================================
// Pow tests
// ============================================================

func TestPow_NumericFolding(t *testing.T) {
	assert.Equal(t, "8", symbolic.PowOf(symbolic.N(2), symbolic.N(3)).String())
	assert.Equal(t, "1/2", symbolic.PowOf(symbolic.N(2), symbolic.N(-1)).String())
	assert.Equal(t, "2/3", symbolic.PowOf(symbolic.F(4, 9), symbolic.F(1, 2)).String())
}

func TestPow_RealRootsStayUnevaluated(t *testing.T) {
	diff := symbolic.AddOf(x, symbolic.MulOf(symbolic.N(-1), c))
	root := symbolic.SqrtOf(symbolic.PowOf(diff, symbolic.N(2)))
	_, isPow := root.(*symbolic.Pow)
	assert.True(t, isPow, "sqrt((x-c)^2) must not collapse, got %s", root)

	h := symbolic.SPos("h")
	assert.True(t, symbolic.SqrtOf(symbolic.PowOf(h, symbolic.N(2))).Equal(h))
}

func TestPow_Diff(t *testing.T) {
	d4 := symbolic.DiffN(symbolic.PowOf(x, symbolic.N(4)), "x", 4)
	assert.Equal(t, "24", d4.String())
}

// ============================================================
// Func tests
// ============================================================

func TestFunc_Diff(t *testing.T) {
	tests := []struct {
		expr symbolic.Expr
		want string
	}{
		{symbolic.SinOf(x), "cos(x)"},
		{symbolic.ExpOf(x), "exp(x)"},
		{symbolic.LnOf(x), "x^(-1)"},
		{symbolic.AbsOf(x), "sign(x)"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, symbolic.Diff(tc.expr, "x").String(), "d/dx %s", tc.expr)
	}
}

func TestFunc_NumericFolding(t *testing.T) {
	assert.Equal(t, "0", symbolic.SinOf(symbolic.N(0)).String())
	assert.Equal(t, "1", symbolic.ExpOf(symbolic.N(0)).String())
	assert.Equal(t, "0", symbolic.LnOf(symbolic.N(1)).String())
	assert.Equal(t, "3", symbolic.AbsOf(symbolic.N(-3)).String())
	assert.True(t, symbolic.LnOf(symbolic.ExpOf(x)).Equal(x))
}

// ============================================================
// Parser tests
// ============================================================

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2^-1", "1/2"},
		{"x**3", "x^3"},
		{"-x^2", "-1*x^2"},
		{"x - x + 1", "1"},
		{"log(x)", "ln(x)"},
		{"0.25", "1/4"},
	}
	for _, tc := range tests {
		e, err := symbolic.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, e.String(), tc.in)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"1 +", "(1+2", "2 $ 3", ")", ""} {
		_, err := symbolic.Parse(in)
		assert.ErrorIs(t, err, symbolic.ErrSyntax, in)
	}
	_, err := symbolic.Parse("foo(x)")
	assert.ErrorIs(t, err, symbolic.ErrUnknownFunction)
}

// ============================================================
// Evaluation and zero testing
// ============================================================

func TestEvaluate(t *testing.T) {
	e := symbolic.MustParse("sqrt(x^2 + y^2)")
	v, err := symbolic.Evaluate(e, map[string]float64{"x": 3, "y": 4})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-12)

	_, err = symbolic.Evaluate(e, map[string]float64{"x": 3})
	assert.ErrorIs(t, err, symbolic.ErrUnboundSymbol)
}

func TestIsZero(t *testing.T) {
	assert.True(t, symbolic.IsZero(symbolic.MustParse("sin(x)^2 + cos(x)^2 - 1")))
	assert.True(t, symbolic.IsZero(symbolic.N(0)))
	assert.False(t, symbolic.IsZero(symbolic.MustParse("x - y")))
	assert.False(t, symbolic.IsZero(symbolic.MustParse("exp(-40*x^2)")))
}

func TestSortedSymbols(t *testing.T) {
	e := symbolic.MustParse("EPS*R + c0")
	assert.Equal(t, []string{"EPS", "R", "c0"}, symbolic.SortedSymbols(e))
	assert.True(t, symbolic.Has(e, "R"))
	assert.False(t, symbolic.Has(e, "x"))
}

// ============================================================
// Piecewise and relations
// ============================================================

func TestPiecewise(t *testing.T) {
	pw := symbolic.PiecewiseOf(
		symbolic.Piece{Value: symbolic.N(1), Cond: symbolic.Lt(x, symbolic.N(1))},
		symbolic.Otherwise(symbolic.N(2)),
	)
	v, err := symbolic.Evaluate(pw, map[string]float64{"x": 0.5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	v, err = symbolic.Evaluate(pw, map[string]float64{"x": 3})
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	folded := symbolic.PiecewiseOf(
		symbolic.Piece{Value: x, Cond: symbolic.Lt(symbolic.N(0), symbolic.N(1))},
		symbolic.Otherwise(y),
	)
	assert.True(t, folded.Equal(x))
}

func TestInfinityArithmetic(t *testing.T) {
	assert.True(t, symbolic.AddOf(symbolic.Inf(), symbolic.N(3)).Equal(symbolic.Inf()))
	assert.True(t, symbolic.MulOf(symbolic.N(-2), symbolic.Inf()).Equal(symbolic.NegInf()))
	assert.True(t, symbolic.PowOf(symbolic.Inf(), symbolic.N(-1)).Equal(symbolic.N(0)))
}

// ============================================================
// Limit tests
// ============================================================

func TestLimit(t *testing.T) {
	inv := func(e symbolic.Expr) symbolic.Expr { return symbolic.PowOf(e, symbolic.N(-1)) }
	shifted := symbolic.AddOf(x, symbolic.MulOf(symbolic.N(-1), c))
	tests := []struct {
		name  string
		expr  symbolic.Expr
		point symbolic.Expr
		want  symbolic.Expr
	}{
		{"polynomial", symbolic.MustParse("x^2 + 1"), symbolic.N(2), symbolic.N(5)},
		{"sinc", symbolic.MulOf(symbolic.SinOf(x), inv(x)), symbolic.N(0), symbolic.N(1)},
		{"shifted sinc", symbolic.MulOf(symbolic.SinOf(shifted), inv(shifted)), c, symbolic.N(1)},
		{"x^2 ln x", symbolic.MulOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.LnOf(x)), symbolic.N(0), symbolic.N(0)},
		{"1/x", inv(x), symbolic.N(0), symbolic.Inf()},
		{"ln x", symbolic.LnOf(x), symbolic.N(0), symbolic.NegInf()},
		{"(1-cos x)/x^2", symbolic.MustParse("(1 - cos(x))/x^2"), symbolic.N(0), symbolic.F(1, 2)},
		{"(exp(x)-1)/x", symbolic.MustParse("(exp(x) - 1)/x"), symbolic.N(0), symbolic.N(1)},
		{"sign x", symbolic.SignOf(x), symbolic.N(0), symbolic.N(1)},
		{"sign shifted", symbolic.SignOf(shifted), c, symbolic.N(1)},
		{"exp(-1/x)", symbolic.MustParse("exp(-1/x)"), symbolic.N(0), symbolic.N(0)},
		{"exp(-1/x)/x^3", symbolic.MustParse("exp(-1/x)/x^3"), symbolic.N(0), symbolic.N(0)},
		{"exp(ln x/x)", symbolic.MustParse("exp(ln(x)/x)"), symbolic.N(0), symbolic.N(0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := symbolic.Limit(tc.expr, "x", tc.point)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "want %s, got %s", tc.want, got)
		})
	}
}

func TestLimit_EssentialSingularity(t *testing.T) {
	_, err := symbolic.Limit(symbolic.MustParse("exp(1/x)"), "x", symbolic.N(0))
	assert.ErrorIs(t, err, symbolic.ErrNoLimit)
}

// ============================================================
// JSON tests
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	e := symbolic.PiecewiseOf(
		symbolic.Piece{Value: symbolic.MustParse("EPS*R + sin(R)"), Cond: symbolic.Lt(symbolic.S("R"), symbolic.F(1, 10))},
		symbolic.Otherwise(symbolic.NegInf()),
	)
	s, err := symbolic.ToJSON(e)
	require.NoError(t, err)
	back, err := symbolic.UnmarshalExpr([]byte(s))
	require.NoError(t, err)
	assert.Equal(t, e.String(), back.String())

	_, err = symbolic.UnmarshalExpr([]byte(`{"type":"nope"}`))
	assert.ErrorIs(t, err, symbolic.ErrJSON)
}
