package numeric

import (
	"fmt"
	"math"

	"github.com/njchilds90/gorbf/symbolic"
)

// PortableBackend interprets the expression tree directly, one whole
// array per node. It needs no lowering beyond a symbol check and is the
// reference the native backend is tested against.
type PortableBackend struct{}

// NewPortable returns the tree-walking backend.
func NewPortable() *PortableBackend { return &PortableBackend{} }

func (b *PortableBackend) Name() string    { return Portable }
func (b *PortableBackend) Available() bool { return true }

func (b *PortableBackend) Compile(expr symbolic.Expr, params []string) (Func, error) {
	index, err := paramIndex(params)
	if err != nil {
		return nil, err
	}
	used := make([]bool, len(params))
	if err := check(expr, index, used); err != nil {
		return nil, err
	}
	return &portableFunc{expr: expr, params: append([]string(nil), params...), index: index, used: used}, nil
}

// check verifies that every node can be interpreted.
func check(e symbolic.Expr, index map[string]int, used []bool) error {
	switch v := e.(type) {
	case *symbolic.Num, *symbolic.Infinity:
		return nil
	case *symbolic.Sym:
		i, ok := index[v.Name()]
		if !ok {
			return fmt.Errorf("%w: free symbol %s", ErrUnsupported, v.Name())
		}
		used[i] = true
		return nil
	case *symbolic.Add:
		return checkAll(v.Terms(), index, used)
	case *symbolic.Mul:
		return checkAll(v.Factors(), index, used)
	case *symbolic.Pow:
		return checkAll([]symbolic.Expr{v.Base(), v.ExpExpr()}, index, used)
	case *symbolic.Func:
		if _, ok := symbolic.Functions[v.FuncName()]; !ok {
			return fmt.Errorf("%w: function %s", ErrUnsupported, v.FuncName())
		}
		return check(v.Arg(), index, used)
	case *symbolic.Rel:
		return checkAll([]symbolic.Expr{v.LHS(), v.RHS()}, index, used)
	case *symbolic.Piecewise:
		for _, pc := range v.Pieces() {
			if err := check(pc.Value, index, used); err != nil {
				return err
			}
			if pc.Cond != nil {
				if err := check(pc.Cond, index, used); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnsupported, e)
}

func checkAll(es []symbolic.Expr, index map[string]int, used []bool) error {
	for _, e := range es {
		if err := check(e, index, used); err != nil {
			return err
		}
	}
	return nil
}

type portableFunc struct {
	expr   symbolic.Expr
	params []string
	index  map[string]int
	used   []bool
}

func (f *portableFunc) Params() []string { return append([]string(nil), f.params...) }

func (f *portableFunc) Call(args ...*Array) (*Array, error) {
	if _, _, err := checkArgs(f.params, f.used, args); err != nil {
		return nil, err
	}
	out, err := f.eval(f.expr, args)
	if err != nil {
		return nil, err
	}
	for _, a := range args {
		if out == a {
			return &Array{Rows: a.Rows, Cols: a.Cols, Data: append([]float64(nil), a.Data...)}, nil
		}
	}
	return out, nil
}

func (f *portableFunc) eval(e symbolic.Expr, args []*Array) (*Array, error) {
	switch v := e.(type) {
	case *symbolic.Num:
		return Scalar(v.Float64()), nil
	case *symbolic.Infinity:
		return Scalar(v.Float64()), nil
	case *symbolic.Sym:
		return args[f.index[v.Name()]], nil
	case *symbolic.Add:
		return f.reduce(v.Terms(), args, func(a, b float64) float64 { return a + b })
	case *symbolic.Mul:
		return f.reduce(v.Factors(), args, func(a, b float64) float64 { return a * b })
	case *symbolic.Pow:
		base, err := f.eval(v.Base(), args)
		if err != nil {
			return nil, err
		}
		exp, err := f.eval(v.ExpExpr(), args)
		if err != nil {
			return nil, err
		}
		return zip(base, exp, math.Pow)
	case *symbolic.Func:
		arg, err := f.eval(v.Arg(), args)
		if err != nil {
			return nil, err
		}
		kernel := symbolic.Functions[v.FuncName()]
		out := make([]float64, len(arg.Data))
		for i, x := range arg.Data {
			out[i] = kernel(x)
		}
		return &Array{Rows: arg.Rows, Cols: arg.Cols, Data: out}, nil
	case *symbolic.Rel:
		lhs, err := f.eval(v.LHS(), args)
		if err != nil {
			return nil, err
		}
		rhs, err := f.eval(v.RHS(), args)
		if err != nil {
			return nil, err
		}
		return zip(lhs, rhs, func(a, b float64) float64 {
			if v.Holds(a, b) {
				return 1
			}
			return 0
		})
	case *symbolic.Piecewise:
		return f.piecewise(v.Pieces(), args)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, e)
}

func (f *portableFunc) reduce(es []symbolic.Expr, args []*Array, op func(a, b float64) float64) (*Array, error) {
	var acc *Array
	for _, e := range es {
		x, err := f.eval(e, args)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = x
			continue
		}
		if acc, err = zip(acc, x, op); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// piecewise evaluates every branch and picks per element, first match
// first. Elements matched by no branch are NaN.
func (f *portableFunc) piecewise(pieces []symbolic.Piece, args []*Array) (*Array, error) {
	acc := Scalar(math.NaN())
	for i := len(pieces) - 1; i >= 0; i-- {
		val, err := f.eval(pieces[i].Value, args)
		if err != nil {
			return nil, err
		}
		if pieces[i].Cond == nil {
			acc = val
			continue
		}
		cond, err := f.eval(pieces[i].Cond, args)
		if err != nil {
			return nil, err
		}
		rows, cols, err := BroadcastShape(cond, val, acc)
		if err != nil {
			return nil, err
		}
		out := make([]float64, rows*cols)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if cond.At(r, c) != 0 {
					out[r*cols+c] = val.At(r, c)
				} else {
					out[r*cols+c] = acc.At(r, c)
				}
			}
		}
		acc = &Array{Rows: rows, Cols: cols, Data: out}
	}
	return acc, nil
}

// zip applies op elementwise with broadcasting.
func zip(a, b *Array, op func(x, y float64) float64) (*Array, error) {
	rows, cols, err := BroadcastShape(a, b)
	if err != nil {
		return nil, err
	}
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = op(a.At(i, j), b.At(i, j))
		}
	}
	return &Array{Rows: rows, Cols: cols, Data: out}, nil
}
