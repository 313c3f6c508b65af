// Package server exposes an evaluation engine over HTTP.
//
//	POST /evaluate  evaluate a basis function between points and centers
//	POST /derive    return the symbolic derivative for a signature
//	GET  /catalog   list the registered bases
//	GET  /health    liveness check
package server

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/njchilds90/gorbf"
	"github.com/njchilds90/gorbf/internal/archivist"
	"github.com/njchilds90/gorbf/symbolic"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// ErrTooLarge is returned for requests beyond the server's limits.
var ErrTooLarge = errors.New("server: request exceeds limits")

// Limits bounds the work a single client can put on the server.
type Limits struct {
	// MaxEngines is the number of engines kept alive; the least recently
	// used one is dropped beyond it.
	MaxEngines int
	// MaxDim is the largest accepted dimensionality.
	MaxDim int
	// MaxOrder is the largest accepted total derivative order.
	MaxOrder int
}

// Defaults of Limits.
const (
	DefaultMaxEngines = 64
	DefaultMaxDim     = 8
	DefaultMaxOrder   = 8
)

// DefaultLimits returns the limits used when none are given.
func DefaultLimits() Limits {
	return Limits{MaxEngines: DefaultMaxEngines, MaxDim: DefaultMaxDim, MaxOrder: DefaultMaxOrder}
}

// check rejects a request of dim dimensions differentiated per diff.
func (l Limits) check(dim int, diff []int) error {
	if len(diff) > dim {
		dim = len(diff)
	}
	if dim > l.MaxDim {
		return fmt.Errorf("%w: %d dimensions, at most %d", ErrTooLarge, dim, l.MaxDim)
	}
	if order := gorbf.Signature(diff).Order(); order > l.MaxOrder {
		return fmt.Errorf("%w: derivative order %d, at most %d", ErrTooLarge, order, l.MaxOrder)
	}
	return nil
}

// Option configures a Server.
type Option func(*Server)

// WithLimits replaces the default limits. Non-positive fields keep
// their defaults.
func WithLimits(l Limits) Option {
	return func(s *Server) {
		if l.MaxEngines > 0 {
			s.limits.MaxEngines = l.MaxEngines
		}
		if l.MaxDim > 0 {
			s.limits.MaxDim = l.MaxDim
		}
		if l.MaxOrder > 0 {
			s.limits.MaxOrder = l.MaxOrder
		}
	}
}

// Source selects a basis by catalog name, expression text or expression
// tree, in increasing order of precedence.
type Source struct {
	Basis     string                 `json:"basis,omitempty"`
	Expr      string                 `json:"expr,omitempty"`
	Tree      map[string]interface{} `json:"tree,omitempty"`
	Backend   string                 `json:"backend,omitempty"`
	Tolerance *float64               `json:"tolerance,omitempty"`
}

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	Source
	Points  [][]float64 `json:"points"`
	Centers [][]float64 `json:"centers"`
	Shape   []float64   `json:"shape,omitempty"`
	Diff    []int       `json:"diff,omitempty"`
}

// DeriveRequest is the body of POST /derive.
type DeriveRequest struct {
	Source
	Diff []int `json:"diff"`
}

// Response is the reply to every endpoint. Error is set on failure.
type Response struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// CatalogEntry describes one registered basis.
type CatalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Expr        string `json:"expr"`
}

// Server holds one engine per distinct basis and policy so compiled
// functions are reused across requests. At most Limits.MaxEngines are
// kept, least recently used first out.
type Server struct {
	backend string
	tol     float64
	log     *archivist.Archivist
	limits  Limits

	mu      sync.Mutex
	engines map[string]*list.Element
	lru     *list.List
	mux     *http.ServeMux
}

type cachedEngine struct {
	key    string
	engine *gorbf.Engine
}

// New returns a server whose requests default to backend and tol.
func New(backend string, tol float64, log *archivist.Archivist, opts ...Option) *Server {
	if log == nil {
		log = archivist.Discard()
	}
	s := &Server{
		backend: backend,
		tol:     tol,
		log:     log,
		limits:  DefaultLimits(),
		engines: make(map[string]*list.Element),
		lru:     list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/evaluate", s.recovered(s.handleEvaluate))
	mux.HandleFunc("/derive", s.recovered(s.handleDerive))
	mux.HandleFunc("/catalog", s.handleCatalog)
	mux.HandleFunc("/health", s.handleHealth)
	s.mux = mux
	return s
}

// Handler returns the request multiplexer.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.InfoF("rbf server listening on %s", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("rbf server shutting down")
		return srv.Shutdown(shutdown)
	}
}

func (s *Server) recovered(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.ErrorF("panic in %s: %v\n%s", r.URL.Path, rec, string(debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorF("request failed: %v", err)
	} else {
		s.log.DebugF(archivist.DEBUG_LEVEL_INFO, "request rejected: %v", err)
	}
	writeJSON(w, status, Response{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, gorbf.ErrShapeMismatch),
		errors.Is(err, gorbf.ErrInvalidExpression),
		errors.Is(err, gorbf.ErrDifferentiation),
		errors.Is(err, gorbf.ErrInvalidTolerance),
		errors.Is(err, gorbf.ErrUnknownBackend),
		errors.Is(err, gorbf.ErrUnknownBasis),
		errors.Is(err, ErrTooLarge),
		errors.Is(err, symbolic.ErrSyntax),
		errors.Is(err, symbolic.ErrUnknownFunction),
		errors.Is(err, symbolic.ErrJSON):
		return http.StatusBadRequest
	case errors.Is(err, gorbf.ErrLimit):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// engine returns the shared engine for src, building it on first use.
func (s *Server) engine(src Source) (*gorbf.Engine, error) {
	expr, err := src.expr()
	if err != nil {
		return nil, err
	}
	backend := s.backend
	if src.Backend != "" {
		backend = src.Backend
	}
	tol := s.tol
	if src.Tolerance != nil {
		tol = *src.Tolerance
	}
	key := backend + "|" + strconv.FormatFloat(tol, 'g', -1, 64) + "|" + expr.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.engines[key]; ok {
		s.lru.MoveToFront(el)
		return el.Value.(*cachedEngine).engine, nil
	}
	e, err := gorbf.New(expr, gorbf.WithBackend(backend), gorbf.WithTolerance(tol), gorbf.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	s.engines[key] = s.lru.PushFront(&cachedEngine{key: key, engine: e})
	for s.lru.Len() > s.limits.MaxEngines {
		oldest := s.lru.Back()
		s.lru.Remove(oldest)
		delete(s.engines, oldest.Value.(*cachedEngine).key)
		s.log.DebugF(archivist.DEBUG_LEVEL_INFO, "engine evicted: %s", oldest.Value.(*cachedEngine).key)
	}
	return e, nil
}

func (src Source) expr() (symbolic.Expr, error) {
	switch {
	case src.Tree != nil:
		return symbolic.FromJSON(src.Tree)
	case src.Expr != "":
		return symbolic.Parse(src.Expr)
	case src.Basis != "":
		b, err := gorbf.Lookup(src.Basis)
		if err != nil {
			return nil, err
		}
		return b.Expr, nil
	}
	return nil, fmt.Errorf("%w: one of basis, expr or tree is required", gorbf.ErrInvalidExpression)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	dim := 0
	if len(req.Points) > 0 {
		dim = len(req.Points[0])
	}
	if err := s.limits.check(dim, req.Diff); err != nil {
		s.fail(w, err)
		return
	}
	e, err := s.engine(req.Source)
	if err != nil {
		s.fail(w, err)
		return
	}
	points, err := gorbf.Rows(req.Points)
	if err != nil {
		s.fail(w, fmt.Errorf("points: %w", err))
		return
	}
	centers, err := gorbf.Rows(req.Centers)
	if err != nil {
		s.fail(w, fmt.Errorf("centers: %w", err))
		return
	}
	out, err := e.Evaluate(points, centers, req.Shape, gorbf.Signature(req.Diff))
	if err != nil {
		s.fail(w, err)
		return
	}
	n, _ := out.Dims()
	result := make([][]float64, n)
	for i := range result {
		result[i] = out.RawRowView(i)
	}
	writeJSON(w, http.StatusOK, Response{Result: result})
}

func (s *Server) handleDerive(w http.ResponseWriter, r *http.Request) {
	var req DeriveRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	if err := s.limits.check(0, req.Diff); err != nil {
		s.fail(w, err)
		return
	}
	e, err := s.engine(req.Source)
	if err != nil {
		s.fail(w, err)
		return
	}
	d, err := e.Derivative(gorbf.Signature(req.Diff))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Result: symbolic.Tree(d), LaTeX: symbolic.LaTeX(d), String: symbolic.String(d)})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var entries []CatalogEntry
	for _, b := range gorbf.Catalog() {
		entries = append(entries, CatalogEntry{Name: b.Name, Description: b.Description, Expr: b.Expr.String()})
	}
	writeJSON(w, http.StatusOK, Response{Result: entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
