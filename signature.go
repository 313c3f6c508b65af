package gorbf

import (
	"fmt"
	"strconv"
	"strings"
)

// Signature holds one derivative order per spatial axis.
type Signature []int

// Zero returns the signature of no differentiation in dim dimensions.
func Zero(dim int) Signature { return make(Signature, dim) }

// Key is the canonical cache key. Equal signatures share a key and
// signatures of different length never do.
func (s Signature) Key() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = strconv.Itoa(k)
	}
	return strings.Join(parts, ",")
}

func (s Signature) String() string { return "(" + s.Key() + ")" }

// Order is the total number of derivatives.
func (s Signature) Order() int {
	total := 0
	for _, k := range s {
		total += k
	}
	return total
}

// check rejects negative orders.
func (s Signature) check() error {
	for axis, k := range s {
		if k < 0 {
			return fmt.Errorf("%w: order %d on axis %d", ErrDifferentiation, k, axis)
		}
	}
	return nil
}

// ParseSignature reads a comma separated list such as "2,0,1".
func ParseSignature(text string) (Signature, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	fields := strings.Split(text, ",")
	sig := make(Signature, len(fields))
	for i, f := range fields {
		k, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		sig[i] = k
	}
	return sig, nil
}
