package gorbf

import (
	"fmt"
	"math"
	"regexp"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/njchilds90/gorbf/internal/archivist"
	"github.com/njchilds90/gorbf/numeric"
	"github.com/njchilds90/gorbf/symbolic"
)

// NoTolerance disables limit substitution at the centers.
const NoTolerance = 0.0

var coordinateName = regexp.MustCompile(`^[xc][0-9]+$`)

// Engine evaluates one radial basis function and its derivatives.
//
// An Engine is safe for concurrent use. Compiled functions are cached per
// derivative signature and discarded when the tolerance or backend
// changes.
type Engine struct {
	mu      sync.RWMutex
	source  symbolic.Expr
	expr    symbolic.Expr
	radius  string
	shape   string
	backend numeric.Backend
	tol     float64
	cache   *functionCache
	log     *archivist.Archivist
}

type options struct {
	backend string
	tol     float64
	radius  string
	shape   string
	log     *archivist.Archivist
}

// Option configures an Engine.
type Option func(*options)

// WithBackend selects the numeric backend by name. The default is
// numeric.Native.
func WithBackend(name string) Option { return func(o *options) { o.backend = name } }

// WithTolerance sets the distance below which a point is treated as
// coincident with a center and the limit at the center is used instead.
//
// The limit is approached one axis at a time in axis order. For
// derivatives whose limit depends on the direction of approach the
// value is the limit along that path.
func WithTolerance(tol float64) Option { return func(o *options) { o.tol = tol } }

// WithSymbols names the radius and shape symbols used in the expression.
// The defaults are R and EPS.
func WithSymbols(radius, shape string) Option {
	return func(o *options) {
		o.radius = radius
		o.shape = shape
	}
}

// WithLogger sets the logger. Engines are silent by default.
func WithLogger(l *archivist.Archivist) Option { return func(o *options) { o.log = l } }

// New validates and normalizes expr and returns an engine for it.
func New(expr symbolic.Expr, opts ...Option) (*Engine, error) {
	o := options{backend: numeric.Native, radius: R, shape: EPS}
	for _, opt := range opts {
		opt(&o)
	}
	if o.radius == "" || o.shape == "" || o.radius == o.shape {
		return nil, fmt.Errorf("%w: radius %q and shape %q must be distinct names", ErrInvalidExpression, o.radius, o.shape)
	}
	for _, name := range []string{o.radius, o.shape} {
		if coordinateName.MatchString(name) {
			return nil, fmt.Errorf("%w: %q is reserved for coordinates", ErrInvalidExpression, name)
		}
	}
	if err := checkTolerance(o.tol); err != nil {
		return nil, err
	}
	b, err := lookupBackend(o.backend)
	if err != nil {
		return nil, err
	}
	norm, err := Normalize(expr, o.radius, o.shape)
	if err != nil {
		return nil, err
	}
	if o.log == nil {
		o.log = archivist.Discard()
	}
	o.log.DebugF(archivist.DEBUG_LEVEL_INFO, "basis %s normalized to %s", expr, norm)
	return &Engine{
		source:  expr,
		expr:    norm,
		radius:  o.radius,
		shape:   o.shape,
		backend: b,
		tol:     o.tol,
		cache:   newFunctionCache(),
		log:     o.log,
	}, nil
}

func checkTolerance(tol float64) error {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTolerance, tol)
	}
	return nil
}

func lookupBackend(name string) (numeric.Backend, error) {
	b, err := numeric.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}

// Expr returns the normalized expression.
func (e *Engine) Expr() symbolic.Expr { return e.expr }

// Source returns the expression the engine was built from.
func (e *Engine) Source() symbolic.Expr { return e.source }

// Tolerance returns the current singularity tolerance.
func (e *Engine) Tolerance() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tol
}

// Backend returns the name of the current backend.
func (e *Engine) Backend() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.backend.Name()
}

// Derivative returns the symbolic expression compiled for diff: the
// derivative in len(diff) dimensions over x0.., c0.. and the shape
// symbol, combined with its limit at the center when a tolerance is set.
func (e *Engine) Derivative(diff Signature) (symbolic.Expr, error) {
	if len(diff) == 0 {
		return nil, fmt.Errorf("%w: empty derivative signature", ErrShapeMismatch)
	}
	e.mu.RLock()
	tol := e.tol
	e.mu.RUnlock()
	out, err := derive(e.expr, e.radius, diff, tol)
	if err != nil {
		return nil, &CompileError{Signature: diff, Err: err}
	}
	return out, nil
}

// Evaluate returns the N×M matrix of the basis function, differentiated
// per diff, between N points and M centers. Both are given as rows of
// coordinates. A nil shape means all ones, a nil diff means no
// differentiation. Non-finite values are reported as 0.
func (e *Engine) Evaluate(points, centers mat.Matrix, shape []float64, diff Signature) (*mat.Dense, error) {
	req, err := validate(points, centers, shape, diff)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, err := e.cache.get(req.diff.Key(), func() (numeric.Func, error) {
		return e.compile(req.diff)
	})
	if err != nil {
		return nil, err
	}
	return req.run(fn)
}

// compile runs with e.mu held.
func (e *Engine) compile(diff Signature) (numeric.Func, error) {
	e.log.DebugF(archivist.DEBUG_LEVEL_INFO, "compiling %s for %s with %s backend, tolerance %g", e.expr, diff, e.backend.Name(), e.tol)
	expr, err := derive(e.expr, e.radius, diff, e.tol)
	if err != nil {
		e.log.WarningF("derivative %s failed: %v", diff, err)
		return nil, &CompileError{Signature: diff, Err: err}
	}
	e.log.DebugF(archivist.DEBUG_LEVEL_DUMP, "derivative %s: %s", diff, expr)
	fn, err := compile(e.backend, expr, len(diff), e.shape)
	if err != nil {
		e.log.WarningF("compiling %s failed: %v", diff, err)
		return nil, &CompileError{Signature: diff, Err: err}
	}
	return fn, nil
}

// SetTolerance changes the singularity tolerance and clears the cache.
// NoTolerance disables limit substitution.
func (e *Engine) SetTolerance(tol float64) error {
	if err := checkTolerance(tol); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tol = tol
	n := e.cache.clear()
	e.log.DebugF(archivist.DEBUG_LEVEL_INFO, "tolerance set to %g, %d cached functions dropped", tol, n)
	return nil
}

// SetBackend switches the numeric backend and clears the cache.
func (e *Engine) SetBackend(name string) error {
	b, err := lookupBackend(name)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backend = b
	n := e.cache.clear()
	e.log.DebugF(archivist.DEBUG_LEVEL_INFO, "backend set to %s, %d cached functions dropped", name, n)
	return nil
}

// ClearCache drops every compiled function.
func (e *Engine) ClearCache() {
	n := e.cache.clear()
	e.log.DebugF(archivist.DEBUG_LEVEL_INFO, "%d cached functions dropped", n)
}

// CacheStats reports cache entries, hits and compilations.
func (e *Engine) CacheStats() CacheStats { return e.cache.snapshot() }
