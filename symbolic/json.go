package symbolic

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// Tree returns the JSON-ready tree of e.
func Tree(e Expr) map[string]interface{} { return e.toJSON() }

// UnmarshalExpr decodes an expression tree produced by ToJSON.
func UnmarshalExpr(data []byte) (Expr, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJSON, err)
	}
	return FromJSON(m)
}

func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: expression must be an object", ErrJSON)
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("%w: field 'type' must be a non-empty string", ErrJSON)
	}

	subObj := func(field string) (Expr, error) {
		m, ok := data[field].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s: %q must be an object", ErrJSON, typ, field)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}

	subObjArray := func(field string) ([]Expr, error) {
		raw, ok := data[field].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s: %q must be an array", ErrJSON, typ, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: %s: %q[%d] must be an object", ErrJSON, typ, field, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		s, ok := data[field].(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%w: %s: %q must be a non-empty string", ErrJSON, typ, field)
		}
		return s, nil
	}

	switch typ {
	case "num":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		r := new(big.Rat)
		if _, ok := r.SetString(val); !ok {
			return nil, fmt.Errorf("%w: invalid num value %q", ErrJSON, val)
		}
		return &Num{val: r}, nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		if positive, _ := data["positive"].(bool); positive {
			return SPos(name), nil
		}
		return S(name), nil

	case "inf":
		if negative, _ := data["negative"].(bool); negative {
			return NegInf(), nil
		}
		return Inf(), nil

	case "add":
		terms, err := subObjArray("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "mul":
		factors, err := subObjArray("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "pow":
		base, err := subObj("base")
		if err != nil {
			return nil, err
		}
		exp, err := subObj("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		if _, known := Functions[name]; !known {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
		}
		arg, err := subObj("arg")
		if err != nil {
			return nil, err
		}
		return FuncOf(name, arg), nil

	case "rel":
		op, err := subString("op")
		if err != nil {
			return nil, err
		}
		lhs, err := subObj("lhs")
		if err != nil {
			return nil, err
		}
		rhs, err := subObj("rhs")
		if err != nil {
			return nil, err
		}
		switch RelOp(op) {
		case OpLt, OpLe, OpGt, OpGe:
			return (&Rel{op: RelOp(op), lhs: lhs, rhs: rhs}).Simplify(), nil
		}
		return nil, fmt.Errorf("%w: unknown relation %q", ErrJSON, op)

	case "piecewise":
		raw, ok := data["pieces"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: piecewise: \"pieces\" must be an array", ErrJSON)
		}
		pieces := make([]Piece, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: piecewise: pieces[%d] must be an object", ErrJSON, i)
			}
			vm, ok := m["value"].(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: piecewise: pieces[%d].value must be an object", ErrJSON, i)
			}
			value, err := FromJSON(vm)
			if err != nil {
				return nil, fmt.Errorf("piecewise: pieces[%d]: %w", i, err)
			}
			pieces[i] = Piece{Value: value}
			if cm, ok := m["cond"].(map[string]interface{}); ok {
				cond, err := FromJSON(cm)
				if err != nil {
					return nil, fmt.Errorf("piecewise: pieces[%d]: %w", i, err)
				}
				pieces[i].Cond = cond
			}
		}
		return PiecewiseOf(pieces...), nil
	}
	return nil, fmt.Errorf("%w: unknown expression type %q", ErrJSON, typ)
}
