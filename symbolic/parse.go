package symbolic

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// Text parser
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := '-' unary | '+' unary | power
//	power   := primary (('^' | '**') unary)?
//	primary := number | ident | ident '(' expr ')' | '(' expr ')'
// ============================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse reads an expression such as "sqrt(1 + (EPS*R)^2)". Every
// identifier that is not followed by '(' is a symbol.
func Parse(input string) (Expr, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, t.text, t.pos)
	}
	return e, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

func tokenize(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	for i := 0; i < len(runes); {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || c == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
				j := i + 1
				if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
					j++
				}
				if j < len(runes) && unicode.IsDigit(runes[j]) {
					i = j
					for i < len(runes) && unicode.IsDigit(runes[i]) {
						i++
					}
				}
			}
			toks = append(toks, token{kind: tokNum, text: string(runes[start:i]), pos: start})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
		case c == '*' && i+1 < len(runes) && runes[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at offset %d", ErrSyntax, c, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(runes)}), nil
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			right = MulOf(N(-1), right)
		}
		left = AddOf(left, right)
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") {
		op := p.next().text
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == "/" {
			right = PowOf(right, N(-1))
		}
		left = MulOf(left, right)
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if p.isOp("-") {
		p.next()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), e), nil
	}
	if p.isOp("+") {
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, fmt.Errorf("%w: invalid number %q at offset %d", ErrSyntax, t.text, t.pos)
		}
		return &Num{val: r}, nil
	case tokIdent:
		if p.peek().kind != tokLParen {
			return S(t.text), nil
		}
		p.next()
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return applyFunc(t, arg)
	case tokLParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil
	case tokEOF:
		return nil, fmt.Errorf("%w: unexpected end of input", ErrSyntax)
	}
	return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, t.text, t.pos)
}

func (p *parser) expect(kind tokenKind) error {
	t := p.next()
	if t.kind != kind {
		if t.kind == tokEOF {
			return fmt.Errorf("%w: unexpected end of input", ErrSyntax)
		}
		return fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, t.text, t.pos)
	}
	return nil
}

func applyFunc(t token, arg Expr) (Expr, error) {
	switch t.text {
	case "sqrt":
		return SqrtOf(arg), nil
	case "log":
		return LnOf(arg), nil
	}
	if _, ok := Functions[t.text]; !ok {
		return nil, fmt.Errorf("%w: %s at offset %d", ErrUnknownFunction, t.text, t.pos)
	}
	return FuncOf(t.text, arg), nil
}
