package numeric

import (
	"fmt"
	"math"
	"strconv"

	"github.com/njchilds90/gorbf/symbolic"
)

type opcode uint8

const (
	opConst opcode = iota
	opParam
	opAdd
	opMul
	opPowi
	opPow
	opCall
	opCmp
	opSelect
)

type instr struct {
	op      opcode
	a, b, c int
	k       float64
	n       int
	fn      func(float64) float64
	rel     *symbolic.Rel
}

// program is a straight-line register program. Register k holds the
// result of instruction k; out names the result register.
type program struct {
	code   []instr
	out    int
	params []string
	used   []bool
}

type lowering struct {
	index map[string]int
	cse   map[string]int
	code  []instr
	used  []bool
}

func compileProgram(expr symbolic.Expr, params []string) (*program, error) {
	index, err := paramIndex(params)
	if err != nil {
		return nil, err
	}
	l := &lowering{index: index, cse: map[string]int{}, used: make([]bool, len(params))}
	out, err := l.lower(expr)
	if err != nil {
		return nil, err
	}
	return &program{code: l.code, out: out, params: append([]string(nil), params...), used: l.used}, nil
}

// emit appends in unless an identical instruction was already emitted.
func (l *lowering) emit(key string, in instr) int {
	if r, ok := l.cse[key]; ok {
		return r
	}
	l.code = append(l.code, in)
	r := len(l.code) - 1
	l.cse[key] = r
	return r
}

func (l *lowering) constant(v float64) int {
	return l.emit("k:"+strconv.FormatFloat(v, 'g', -1, 64), instr{op: opConst, k: v})
}

func (l *lowering) binary(op opcode, a, b int) int {
	if a > b && (op == opAdd || op == opMul) {
		a, b = b, a
	}
	return l.emit(fmt.Sprintf("%d:%d,%d", op, a, b), instr{op: op, a: a, b: b})
}

func (l *lowering) fold(op opcode, es []symbolic.Expr) (int, error) {
	acc := -1
	for _, e := range es {
		r, err := l.lower(e)
		if err != nil {
			return 0, err
		}
		if acc < 0 {
			acc = r
			continue
		}
		acc = l.binary(op, acc, r)
	}
	return acc, nil
}

func (l *lowering) lower(e symbolic.Expr) (int, error) {
	switch v := e.(type) {
	case *symbolic.Num:
		return l.constant(v.Float64()), nil
	case *symbolic.Infinity:
		return l.constant(v.Float64()), nil
	case *symbolic.Sym:
		i, ok := l.index[v.Name()]
		if !ok {
			return 0, fmt.Errorf("%w: free symbol %s", ErrUnsupported, v.Name())
		}
		l.used[i] = true
		return l.emit(fmt.Sprintf("p:%d", i), instr{op: opParam, n: i}), nil
	case *symbolic.Add:
		return l.fold(opAdd, v.Terms())
	case *symbolic.Mul:
		return l.fold(opMul, v.Factors())
	case *symbolic.Pow:
		base, err := l.lower(v.Base())
		if err != nil {
			return 0, err
		}
		if n, ok := v.ExpExpr().(*symbolic.Num); ok {
			if k, isInt := n.Int64(); isInt && k >= -64 && k <= 64 {
				return l.emit(fmt.Sprintf("powi:%d,%d", base, k), instr{op: opPowi, a: base, n: int(k)}), nil
			}
			if n.Float64() == 0.5 {
				return l.emit(fmt.Sprintf("sqrt:%d", base), instr{op: opCall, a: base, fn: math.Sqrt}), nil
			}
		}
		exp, err := l.lower(v.ExpExpr())
		if err != nil {
			return 0, err
		}
		return l.emit(fmt.Sprintf("pow:%d,%d", base, exp), instr{op: opPow, a: base, b: exp}), nil
	case *symbolic.Func:
		kernel, ok := symbolic.Functions[v.FuncName()]
		if !ok {
			return 0, fmt.Errorf("%w: function %s", ErrUnsupported, v.FuncName())
		}
		arg, err := l.lower(v.Arg())
		if err != nil {
			return 0, err
		}
		return l.emit(fmt.Sprintf("%s:%d", v.FuncName(), arg), instr{op: opCall, a: arg, fn: kernel}), nil
	case *symbolic.Rel:
		a, err := l.lower(v.LHS())
		if err != nil {
			return 0, err
		}
		b, err := l.lower(v.RHS())
		if err != nil {
			return 0, err
		}
		return l.emit(fmt.Sprintf("%s:%d,%d", v.Op(), a, b), instr{op: opCmp, a: a, b: b, rel: v}), nil
	case *symbolic.Piecewise:
		pieces := v.Pieces()
		acc := l.constant(math.NaN())
		for i := len(pieces) - 1; i >= 0; i-- {
			val, err := l.lower(pieces[i].Value)
			if err != nil {
				return 0, err
			}
			if pieces[i].Cond == nil {
				acc = val
				continue
			}
			cond, err := l.lower(pieces[i].Cond)
			if err != nil {
				return 0, err
			}
			acc = l.emit(fmt.Sprintf("sel:%d,%d,%d", cond, val, acc), instr{op: opSelect, a: cond, b: val, c: acc})
		}
		return acc, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrUnsupported, e)
}

// run evaluates the program for element (i, j) using regs as scratch.
func (p *program) run(regs []float64, args []*Array, i, j int) float64 {
	for k, in := range p.code {
		switch in.op {
		case opConst:
			regs[k] = in.k
		case opParam:
			regs[k] = args[in.n].At(i, j)
		case opAdd:
			regs[k] = regs[in.a] + regs[in.b]
		case opMul:
			regs[k] = regs[in.a] * regs[in.b]
		case opPowi:
			regs[k] = powi(regs[in.a], in.n)
		case opPow:
			regs[k] = math.Pow(regs[in.a], regs[in.b])
		case opCall:
			regs[k] = in.fn(regs[in.a])
		case opCmp:
			regs[k] = 0
			if in.rel.Holds(regs[in.a], regs[in.b]) {
				regs[k] = 1
			}
		case opSelect:
			if regs[in.a] != 0 {
				regs[k] = regs[in.b]
			} else {
				regs[k] = regs[in.c]
			}
		}
	}
	return regs[p.out]
}

func powi(x float64, n int) float64 {
	if n < 0 {
		return 1 / powi(x, -n)
	}
	r := 1.0
	for n > 0 {
		if n&1 == 1 {
			r *= x
		}
		x *= x
		n >>= 1
	}
	return r
}
