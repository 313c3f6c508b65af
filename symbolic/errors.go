package symbolic

import "errors"

var (
	// ErrSyntax is returned by Parse for malformed input.
	ErrSyntax = errors.New("symbolic: syntax error")
	// ErrUnboundSymbol is returned by Evaluate when a symbol has no value.
	ErrUnboundSymbol = errors.New("symbolic: unbound symbol")
	// ErrUnknownFunction is returned for function names without a kernel.
	ErrUnknownFunction = errors.New("symbolic: unknown function")
	// ErrNoLimit is returned when a limit cannot be determined.
	ErrNoLimit = errors.New("symbolic: limit could not be determined")
	// ErrJSON is returned by FromJSON for malformed trees.
	ErrJSON = errors.New("symbolic: invalid expression JSON")
)
