//go:build purego

package numeric

import "github.com/njchilds90/gorbf/symbolic"

// NativeBackend is not built with the purego tag.
type NativeBackend struct{}

// NewNative returns a backend that reports itself unavailable.
func NewNative() *NativeBackend {
	return &NativeBackend{}
}

func (b *NativeBackend) Name() string    { return Native }
func (b *NativeBackend) Available() bool { return false }

func (b *NativeBackend) Compile(symbolic.Expr, []string) (Func, error) {
	return nil, ErrUnavailable
}
