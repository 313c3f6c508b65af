package gorbf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidExpression indicates an expression that does not depend on
	// the radius or references symbols other than the radius and shape.
	ErrInvalidExpression = errors.New("gorbf: invalid basis expression")

	// ErrShapeMismatch indicates inconsistent point, center, shape or
	// signature dimensions.
	ErrShapeMismatch = errors.New("gorbf: shape mismatch")

	// ErrDifferentiation indicates a negative derivative order.
	ErrDifferentiation = errors.New("gorbf: invalid derivative order")

	// ErrLimit indicates a limit at the center that could not be resolved.
	ErrLimit = errors.New("gorbf: limit could not be determined")

	// ErrCompilationBackend indicates the backend could not produce a
	// function, including when it is not available in this build.
	ErrCompilationBackend = errors.New("gorbf: compilation backend failed")

	// ErrUnknownBackend indicates a backend name that is not registered.
	ErrUnknownBackend = errors.New("gorbf: unknown backend")

	// ErrInvalidTolerance indicates a negative or NaN tolerance.
	ErrInvalidTolerance = errors.New("gorbf: invalid tolerance")
)

// CompileError wraps a derivation or compilation failure with the
// signature being compiled.
type CompileError struct {
	Signature Signature
	Err       error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %v", e.Signature, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
