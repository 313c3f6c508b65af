package symbolic

import (
	"fmt"
	"strings"
)

// ============================================================
// Rel — strict and non-strict comparisons
// ============================================================

// RelOp names a comparison.
type RelOp string

const (
	OpLt RelOp = "<"
	OpLe RelOp = "<="
	OpGt RelOp = ">"
	OpGe RelOp = ">="
)

// Rel is a comparison between two expressions. As an expression it
// evaluates to 1 when the comparison holds and to 0 otherwise.
type Rel struct {
	op       RelOp
	lhs, rhs Expr
}

func Lt(lhs, rhs Expr) Expr { return (&Rel{op: OpLt, lhs: lhs, rhs: rhs}).Simplify() }
func Le(lhs, rhs Expr) Expr { return (&Rel{op: OpLe, lhs: lhs, rhs: rhs}).Simplify() }
func Gt(lhs, rhs Expr) Expr { return (&Rel{op: OpGt, lhs: lhs, rhs: rhs}).Simplify() }
func Ge(lhs, rhs Expr) Expr { return (&Rel{op: OpGe, lhs: lhs, rhs: rhs}).Simplify() }

func (r *Rel) Simplify() Expr {
	s := &Rel{op: r.op, lhs: r.lhs.Simplify(), rhs: r.rhs.Simplify()}
	if v, ok := s.Eval(); ok {
		return v
	}
	return s
}

func (r *Rel) String() string {
	return r.lhs.String() + " " + string(r.op) + " " + r.rhs.String()
}

func (r *Rel) LaTeX() string {
	op := map[RelOp]string{OpLt: "<", OpLe: "\\leq", OpGt: ">", OpGe: "\\geq"}[r.op]
	return r.lhs.LaTeX() + " " + op + " " + r.rhs.LaTeX()
}

func (r *Rel) Sub(varName string, value Expr) Expr {
	return (&Rel{op: r.op, lhs: r.lhs.Sub(varName, value), rhs: r.rhs.Sub(varName, value)}).Simplify()
}

// Diff of an indicator is zero wherever it is defined.
func (r *Rel) Diff(string) Expr { return N(0) }

func (r *Rel) Eval() (*Num, bool) {
	a, ok1 := r.lhs.Eval()
	b, ok2 := r.rhs.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if r.holds(a.val.Cmp(b.val)) {
		return N(1), true
	}
	return N(0), true
}

func (r *Rel) holds(cmp int) bool {
	switch r.op {
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

// Holds reports the comparison for already evaluated operands.
func (r *Rel) Holds(lhs, rhs float64) bool {
	switch {
	case lhs < rhs:
		return r.holds(-1)
	case lhs > rhs:
		return r.holds(1)
	case lhs == rhs:
		return r.holds(0)
	}
	return false
}

func (r *Rel) Equal(other Expr) bool {
	o, ok := other.(*Rel)
	return ok && r.op == o.op && r.lhs.Equal(o.lhs) && r.rhs.Equal(o.rhs)
}

func (r *Rel) exprType() string { return "rel" }
func (r *Rel) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "rel", "op": string(r.op), "lhs": r.lhs.toJSON(), "rhs": r.rhs.toJSON()}
}
func (r *Rel) Op() RelOp { return r.op }
func (r *Rel) LHS() Expr { return r.lhs }
func (r *Rel) RHS() Expr { return r.rhs }

// ============================================================
// Piecewise — first matching branch wins
// ============================================================

// Piece is one branch of a Piecewise. A nil Cond matches everything.
type Piece struct {
	Value Expr
	Cond  Expr
}

type Piecewise struct{ pieces []Piece }

// PiecewiseOf builds a piecewise expression. Branches whose condition
// is known to be false are dropped; a branch known to hold ends the
// list.
func PiecewiseOf(pieces ...Piece) Expr { return (&Piecewise{pieces: pieces}).Simplify() }

// Otherwise is the catch-all branch.
func Otherwise(value Expr) Piece { return Piece{Value: value} }

func (p *Piecewise) Simplify() Expr {
	out := make([]Piece, 0, len(p.pieces))
	for _, pc := range p.pieces {
		value := pc.Value.Simplify()
		if pc.Cond == nil {
			out = append(out, Piece{Value: value})
			break
		}
		cond := pc.Cond.Simplify()
		if n, ok := cond.(*Num); ok {
			if n.IsZero() {
				continue
			}
			out = append(out, Piece{Value: value})
			break
		}
		out = append(out, Piece{Value: value, Cond: cond})
	}
	if len(out) == 1 && out[0].Cond == nil {
		return out[0].Value
	}
	return &Piecewise{pieces: out}
}

func (p *Piecewise) String() string {
	parts := make([]string, len(p.pieces))
	for i, pc := range p.pieces {
		cond := "True"
		if pc.Cond != nil {
			cond = pc.Cond.String()
		}
		parts[i] = fmt.Sprintf("(%s, %s)", pc.Value.String(), cond)
	}
	return "Piecewise(" + strings.Join(parts, ", ") + ")"
}

func (p *Piecewise) LaTeX() string {
	rows := make([]string, len(p.pieces))
	for i, pc := range p.pieces {
		cond := "\\text{otherwise}"
		if pc.Cond != nil {
			cond = "\\text{for}\\: " + pc.Cond.LaTeX()
		}
		rows[i] = pc.Value.LaTeX() + " & " + cond
	}
	return "\\begin{cases} " + strings.Join(rows, " \\\\ ") + " \\end{cases}"
}

func (p *Piecewise) Sub(varName string, value Expr) Expr {
	return p.mapPieces(func(e Expr) Expr { return e.Sub(varName, value) })
}

// Diff differentiates each branch and keeps the conditions.
func (p *Piecewise) Diff(varName string) Expr {
	out := make([]Piece, len(p.pieces))
	for i, pc := range p.pieces {
		out[i] = Piece{Value: pc.Value.Diff(varName), Cond: pc.Cond}
	}
	return PiecewiseOf(out...)
}

func (p *Piecewise) mapPieces(fn func(Expr) Expr) Expr {
	out := make([]Piece, len(p.pieces))
	for i, pc := range p.pieces {
		out[i] = Piece{Value: fn(pc.Value)}
		if pc.Cond != nil {
			out[i].Cond = fn(pc.Cond)
		}
	}
	return PiecewiseOf(out...)
}

func (p *Piecewise) Eval() (*Num, bool) {
	for _, pc := range p.pieces {
		if pc.Cond == nil {
			return pc.Value.Eval()
		}
		c, ok := pc.Cond.Eval()
		if !ok {
			return nil, false
		}
		if !c.IsZero() {
			return pc.Value.Eval()
		}
	}
	return nil, false
}

func (p *Piecewise) Equal(other Expr) bool {
	o, ok := other.(*Piecewise)
	if !ok || len(p.pieces) != len(o.pieces) {
		return false
	}
	for i := range p.pieces {
		a, b := p.pieces[i], o.pieces[i]
		if !a.Value.Equal(b.Value) {
			return false
		}
		if (a.Cond == nil) != (b.Cond == nil) {
			return false
		}
		if a.Cond != nil && !a.Cond.Equal(b.Cond) {
			return false
		}
	}
	return true
}

func (p *Piecewise) exprType() string { return "piecewise" }
func (p *Piecewise) toJSON() map[string]interface{} {
	ps := make([]map[string]interface{}, len(p.pieces))
	for i, pc := range p.pieces {
		m := map[string]interface{}{"value": pc.Value.toJSON()}
		if pc.Cond != nil {
			m["cond"] = pc.Cond.toJSON()
		}
		ps[i] = m
	}
	return map[string]interface{}{"type": "piecewise", "pieces": ps}
}

// Pieces returns a copy of the branches in evaluation order.
func (p *Piecewise) Pieces() []Piece {
	out := make([]Piece, len(p.pieces))
	copy(out, p.pieces)
	return out
}
