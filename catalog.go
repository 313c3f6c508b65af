package gorbf

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/njchilds90/gorbf/symbolic"
)

var (
	// ErrEmptyName is returned when a basis is registered without a name.
	ErrEmptyName = errors.New("gorbf: empty basis name")
	// ErrConflictingRegistration indicates an attempt to register a
	// different expression under a name already in use.
	ErrConflictingRegistration = errors.New("gorbf: conflicting basis registration")
	// ErrUnknownBasis is returned by Lookup for unregistered names.
	ErrUnknownBasis = errors.New("gorbf: unknown basis")
)

// Basis is a named radial basis function.
type Basis struct {
	Name        string
	Description string
	Expr        symbolic.Expr
}

var (
	// catalogMu guards write-side consistency.
	catalogMu sync.Mutex
	// catalog maps names to Basis values.
	catalog sync.Map // map[string]Basis
)

func init() {
	for _, b := range []struct{ name, desc, expr string }{
		{"phs1", "first order polyharmonic spline", "EPS*R"},
		{"phs2", "second order polyharmonic spline", "(EPS*R)^2*log(EPS*R)"},
		{"phs3", "third order polyharmonic spline", "(EPS*R)^3"},
		{"phs4", "fourth order polyharmonic spline", "(EPS*R)^4*log(EPS*R)"},
		{"phs5", "fifth order polyharmonic spline", "(EPS*R)^5"},
		{"phs6", "sixth order polyharmonic spline", "(EPS*R)^6*log(EPS*R)"},
		{"phs7", "seventh order polyharmonic spline", "(EPS*R)^7"},
		{"phs8", "eighth order polyharmonic spline", "(EPS*R)^8*log(EPS*R)"},
		{"mq", "multiquadric", "sqrt(1 + (EPS*R)^2)"},
		{"imq", "inverse multiquadric", "1/sqrt(1 + (EPS*R)^2)"},
		{"iq", "inverse quadratic", "1/(1 + (EPS*R)^2)"},
		{"ga", "gaussian", "exp(-(EPS*R)^2)"},
		{"exp", "exponential", "exp(-EPS*R)"},
	} {
		if err := Register(Basis{Name: b.name, Description: b.desc, Expr: symbolic.MustParse(b.expr)}); err != nil {
			panic(err)
		}
	}
}

// Register adds b to the process-wide catalog. Registering an equal
// expression under the same name again is a no-op.
func Register(b Basis) error {
	if b.Name == "" {
		return ErrEmptyName
	}
	if _, err := Normalize(b.Expr, R, EPS); err != nil {
		return fmt.Errorf("register %s: %w", b.Name, err)
	}

	// Fast read path.
	if old, ok := catalog.Load(b.Name); ok {
		return sameBasis(old.(Basis), b)
	}

	catalogMu.Lock()
	defer catalogMu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := catalog.Load(b.Name); ok {
		return sameBasis(old.(Basis), b)
	}
	catalog.Store(b.Name, b)
	return nil
}

func sameBasis(old, b Basis) error {
	if old.Expr.Equal(b.Expr) {
		return nil
	}
	return fmt.Errorf("%w: %s is %s, not %s", ErrConflictingRegistration, b.Name, old.Expr, b.Expr)
}

// Lookup returns the basis registered under name.
func Lookup(name string) (Basis, error) {
	if v, ok := catalog.Load(name); ok {
		return v.(Basis), nil
	}
	return Basis{}, fmt.Errorf("%w: %q", ErrUnknownBasis, name)
}

// Catalog returns every registered basis ordered by name.
func Catalog() []Basis {
	var out []Basis
	catalog.Range(func(_, v any) bool {
		out = append(out, v.(Basis))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NewNamed builds an engine for a catalog entry.
func NewNamed(name string, opts ...Option) (*Engine, error) {
	b, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return New(b.Expr, opts...)
}
