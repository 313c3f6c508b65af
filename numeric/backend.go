package numeric

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/njchilds90/gorbf/symbolic"
)

var (
	// ErrUnavailable is returned by backends that were not built in.
	ErrUnavailable = errors.New("numeric: backend not available")
	// ErrUnsupported is returned when an expression cannot be lowered.
	ErrUnsupported = errors.New("numeric: unsupported expression")
	// ErrShape is returned for arrays that do not broadcast.
	ErrShape = errors.New("numeric: incompatible array shapes")
	// ErrArity is returned when a function is called with the wrong
	// number of arguments.
	ErrArity = errors.New("numeric: wrong number of arguments")
	// ErrUnknownBackend is returned by Lookup for unregistered names.
	ErrUnknownBackend = errors.New("numeric: unknown backend")
)

// Func is a compiled expression. Call takes one array per parameter, in
// the order given to Compile, and returns the broadcast result. An
// expression that references no parameter yields a 1×1 array.
type Func interface {
	Params() []string
	Call(args ...*Array) (*Array, error)
}

// Backend lowers symbolic expressions to callable functions.
type Backend interface {
	Name() string
	Available() bool
	Compile(expr symbolic.Expr, params []string) (Func, error)
}

// Names of the built-in backends.
const (
	Native   = "native"
	Portable = "portable"
)

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

func init() {
	Register(NewNative())
	Register(NewPortable())
}

// Register makes a backend available by name, replacing any previous
// backend with the same name.
func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	backends[b.Name()] = b
}

// Lookup returns the backend registered under name. The backend may
// still report itself unavailable.
func Lookup(name string) (Backend, error) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}

// Names lists registered backends in lexical order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// paramIndex maps parameter names to argument positions.
func paramIndex(params []string) (map[string]int, error) {
	index := make(map[string]int, len(params))
	for i, p := range params {
		if _, dup := index[p]; dup {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrUnsupported, p)
		}
		index[p] = i
	}
	return index, nil
}

// checkArgs validates arity and shapes, and returns the broadcast shape
// of the arguments the function actually reads.
func checkArgs(params []string, used []bool, args []*Array) (rows, cols int, err error) {
	if len(args) != len(params) {
		return 0, 0, fmt.Errorf("%w: want %d, got %d", ErrArity, len(params), len(args))
	}
	read := make([]*Array, 0, len(args))
	for i, a := range args {
		if a == nil {
			return 0, 0, fmt.Errorf("%w: argument %q is nil", ErrShape, params[i])
		}
		if used[i] {
			read = append(read, a)
		}
	}
	if _, _, err := BroadcastShape(args...); err != nil {
		return 0, 0, err
	}
	return BroadcastShape(read...)
}
