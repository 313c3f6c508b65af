package numeric

import "fmt"

// Array is a dense row-major 2-D array. A dimension of size 1 broadcasts
// against any other size.
type Array struct {
	Rows, Cols int
	Data       []float64
}

// NewArray wraps data as a rows×cols array. A nil data slice allocates
// zeros.
func NewArray(rows, cols int, data []float64) (*Array, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if data == nil {
		data = make([]float64, rows*cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrShape, len(data), rows, cols)
	}
	return &Array{Rows: rows, Cols: cols, Data: data}, nil
}

// Scalar returns a 1×1 array.
func Scalar(v float64) *Array { return &Array{Rows: 1, Cols: 1, Data: []float64{v}} }

// Column returns an n×1 array holding vs.
func Column(vs []float64) *Array { return &Array{Rows: len(vs), Cols: 1, Data: vs} }

// Row returns a 1×n array holding vs.
func Row(vs []float64) *Array { return &Array{Rows: 1, Cols: len(vs), Data: vs} }

// At reads element (i, j), broadcasting along dimensions of size 1.
func (a *Array) At(i, j int) float64 {
	if a.Rows == 1 {
		i = 0
	}
	if a.Cols == 1 {
		j = 0
	}
	return a.Data[i*a.Cols+j]
}

// IsScalar reports whether a is 1×1.
func (a *Array) IsScalar() bool { return a.Rows == 1 && a.Cols == 1 }

// BroadcastShape returns the common shape of the arrays.
func BroadcastShape(arrays ...*Array) (rows, cols int, err error) {
	rows, cols = 1, 1
	for _, a := range arrays {
		if a.Rows != 1 {
			if rows != 1 && rows != a.Rows {
				return 0, 0, fmt.Errorf("%w: %d rows against %d", ErrShape, a.Rows, rows)
			}
			rows = a.Rows
		}
		if a.Cols != 1 {
			if cols != 1 && cols != a.Cols {
				return 0, 0, fmt.Errorf("%w: %d columns against %d", ErrShape, a.Cols, cols)
			}
			cols = a.Cols
		}
	}
	return rows, cols, nil
}

// BroadcastTo expands a to rows×cols.
func (a *Array) BroadcastTo(rows, cols int) (*Array, error) {
	if a.Rows == rows && a.Cols == cols {
		return a, nil
	}
	if (a.Rows != 1 && a.Rows != rows) || (a.Cols != 1 && a.Cols != cols) {
		return nil, fmt.Errorf("%w: cannot broadcast %dx%d to %dx%d", ErrShape, a.Rows, a.Cols, rows, cols)
	}
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = a.At(i, j)
		}
	}
	return &Array{Rows: rows, Cols: cols, Data: out}, nil
}
