//go:build !purego

package numeric

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/gorbf/symbolic"
)

// parallelThreshold is the element count below which evaluation stays on
// the calling goroutine.
const parallelThreshold = 4096

// NativeBackend runs expressions lowered to a register program.
type NativeBackend struct {
	workers int
}

// NewNative returns a native backend using GOMAXPROCS workers.
func NewNative() *NativeBackend {
	return &NativeBackend{workers: runtime.GOMAXPROCS(0)}
}

func (b *NativeBackend) Name() string    { return Native }
func (b *NativeBackend) Available() bool { return true }

func (b *NativeBackend) Compile(expr symbolic.Expr, params []string) (Func, error) {
	prog, err := compileProgram(expr, params)
	if err != nil {
		return nil, err
	}
	return &nativeFunc{prog: prog, workers: b.workers}, nil
}

type nativeFunc struct {
	prog    *program
	workers int
}

func (f *nativeFunc) Params() []string { return append([]string(nil), f.prog.params...) }

func (f *nativeFunc) Call(args ...*Array) (*Array, error) {
	rows, cols, err := checkArgs(f.prog.params, f.prog.used, args)
	if err != nil {
		return nil, err
	}
	out := make([]float64, rows*cols)

	if rows*cols < parallelThreshold || rows < 2 || f.workers < 2 {
		f.fill(out, args, 0, rows, cols)
		return &Array{Rows: rows, Cols: cols, Data: out}, nil
	}

	var g errgroup.Group
	g.SetLimit(f.workers)
	chunkSize := (rows + f.workers - 1) / f.workers
	for start := 0; start < rows; start += chunkSize {
		start := start
		end := start + chunkSize
		if end > rows {
			end = rows
		}
		g.Go(func() error {
			f.fill(out, args, start, end, cols)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Array{Rows: rows, Cols: cols, Data: out}, nil
}

// fill evaluates rows [start, end) into out.
func (f *nativeFunc) fill(out []float64, args []*Array, start, end, cols int) {
	regs := make([]float64, len(f.prog.code))
	for i := start; i < end; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = f.prog.run(regs, args, i, j)
		}
	}
}
