// Package formula evaluates custom ranking formulas. The language is plain
// arithmetic (+ - * / and parentheses) over five per-contestant values:
// avg_score, median_score, min_score, max_score and judge_count.
package formula

import (
	"fmt"
	"math"
	"strings"
)

const (
	maxLength = 512
	maxDepth  = 64
)

// Vars are the inputs of a formula.
type Vars struct {
	Avg        float64
	Median     float64
	Min        float64
	Max        float64
	JudgeCount float64
}

func (v Vars) lookup(name string) (float64, bool) {
	switch name {
	case "avg_score":
		return v.Avg, true
	case "median_score":
		return v.Median, true
	case "min_score":
		return v.Min, true
	case "max_score":
		return v.Max, true
	case "judge_count":
		return v.JudgeCount, true
	default:
		return 0, false
	}
}

// Expr is a compiled formula.
type Expr struct {
	src  string
	root node
}

// String returns the source text.
func (e *Expr) String() string { return e.src }

// Compile parses a formula.
func Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrEmpty
	}
	if len(src) > maxLength {
		return nil, fmt.Errorf("%w: longer than %d bytes", ErrSyntax, maxLength)
	}
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
	return &Expr{src: src, root: root}, nil
}

// Eval evaluates the formula. Division by zero and non-finite results are errors.
func (e *Expr) Eval(v Vars) (float64, error) {
	out, err := e.root.eval(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, ErrNotFinite
	}
	return out, nil
}

// Eval compiles and evaluates src in one step.
func Eval(src string, v Vars) (float64, error) {
	e, err := Compile(src)
	if err != nil {
		return 0, err
	}
	return e.Eval(v)
}

type node interface {
	eval(v Vars) (float64, error)
}

type number float64

func (n number) eval(Vars) (float64, error) { return float64(n), nil }

type variable string

func (n variable) eval(v Vars) (float64, error) {
	out, _ := v.lookup(string(n))
	return out, nil
}

type negate struct{ x node }

func (n negate) eval(v Vars) (float64, error) {
	x, err := n.x.eval(v)
	return -x, err
}

type binary struct {
	op   tokenKind
	l, r node
}

func (n binary) eval(v Vars) (float64, error) {
	l, err := n.l.eval(v)
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval(v)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case tokPlus:
		return l + r, nil
	case tokMinus:
		return l - r, nil
	case tokStar:
		return l * r, nil
	default:
		if r == 0 {
			return 0, ErrDivideByZero
		}
		return l / r, nil
	}
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// expr := term (('+' | '-') term)*
func (p *parser) expr(depth int) (node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nested too deeply", ErrSyntax)
	}
	left, err := p.term(depth)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokPlus && t.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term(depth)
		if err != nil {
			return nil, err
		}
		left = binary{op: t.kind, l: left, r: right}
	}
}

// term := unary (('*' | '/') unary)*
func (p *parser) term(depth int) (node, error) {
	left, err := p.unary(depth)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokStar && t.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.unary(depth)
		if err != nil {
			return nil, err
		}
		left = binary{op: t.kind, l: left, r: right}
	}
}

// unary := ('-' | '+') unary | primary
func (p *parser) unary(depth int) (node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nested too deeply", ErrSyntax)
	}
	switch p.peek().kind {
	case tokMinus:
		p.next()
		x, err := p.unary(depth + 1)
		if err != nil {
			return nil, err
		}
		return negate{x: x}, nil
	case tokPlus:
		p.next()
		return p.unary(depth + 1)
	default:
		return p.primary(depth)
	}
}

// primary := number | variable | '(' expr ')'
func (p *parser) primary(depth int) (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return number(t.num), nil
	case tokIdent:
		if _, ok := (Vars{}).lookup(t.text); !ok {
			return nil, fmt.Errorf("%w: %q at %d", ErrUnknownVariable, t.text, t.pos)
		}
		return variable(t.text), nil
	case tokLParen:
		inner, err := p.expr(depth + 1)
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("%w: missing ')' at %d", ErrSyntax, closing.pos)
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("%w: unexpected end of formula", ErrSyntax)
	default:
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
}
