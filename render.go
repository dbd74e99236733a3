package curves

import (
	"strconv"
	"strings"
)

// ============================================================
// Rendering
// ============================================================

// Precedence levels, compared numerically between a parent operation and
// the rendering of its child.
const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

// Renderings longer than this are redone with a line break before every
// binary operator.
const maxCompactWidth = 80

// String returns the informal form: the identifier of a registered curve,
// otherwise the expression with registered sub-curves shown by identifier.
func (c *Curve) String() string {
	if c.id != "" {
		return c.id
	}
	return c.layout(false)
}

// Expr returns the formal form: the full expression, regardless of
// identifiers.
func (c *Curve) Expr() string { return c.layout(true) }

// GoString implements fmt.GoStringer so that %#v prints the formal form.
func (c *Curve) GoString() string { return c.Expr() }

func (c *Curve) layout(formal bool) string {
	s, _ := c.render(formal, " ")
	if len(s) > maxCompactWidth {
		s, _ = c.render(formal, "\n")
	}
	return s
}

// sub renders c as part of an enclosing expression.
func (c *Curve) sub(formal bool, sep string) (string, int) {
	if !formal && c.id != "" {
		return c.id, precAtom
	}
	return c.render(formal, sep)
}

func (c *Curve) render(formal bool, sep string) (string, int) {
	s, prec := c.payload.render(formal, sep)

	switch c.op {
	case OpNone:
	case OpNeg:
		s, prec = "-"+wrap(s, prec, precAtom), precUnary
	case OpAbs:
		s, prec = "abs("+s+")", precAtom
	case OpCompose:
		o, _ := c.operand.sub(formal, sep)
		s, prec = wrap(s, prec, precAtom)+"("+o+")", precAtom
	case OpPow:
		s, prec = wrap(s, prec, precAtom)+join(sep, OpPow)+formatFloat(c.exp), precPower
	case OpAdd, OpSub, OpMul, OpDiv:
		o, oprec := c.operand.sub(formal, sep)
		s, prec = binary(c.op, s, prec, o, oprec, sep)
	default:
		panic("curves: operation " + c.op.String() + " not found")
	}

	for _, p := range c.pending {
		switch p.Op {
		case OpCompose:
			o, _ := p.Operand.sub(formal, sep)
			s, prec = o+"("+s+")", precAtom
			continue
		case OpAdd, OpSub:
		default:
			s, prec = "("+s+")", precAtom
		}
		if p.Op == OpPow {
			s, prec = s+join(sep, OpPow)+formatFloat(p.Exponent), precPower
			continue
		}
		o, oprec := p.Operand.sub(formal, sep)
		s, prec = binary(p.Op, s, prec, o, oprec, sep)
	}
	return s, prec
}

// binary joins two rendered operands. Sums never wrap their left side; the
// right side of a difference or quotient also wraps at equal precedence.
func binary(op Op, left string, lprec int, right string, rprec int, sep string) (string, int) {
	switch op {
	case OpAdd:
		return left + join(sep, op) + right, precSum
	case OpSub:
		return left + join(sep, op) + wrap(right, rprec, precSum+1), precSum
	case OpMul:
		return wrap(left, lprec, precProduct) + join(sep, op) + wrap(right, rprec, precProduct), precProduct
	case OpDiv:
		return wrap(left, lprec, precProduct) + join(sep, op) + wrap(right, rprec, precProduct+1), precProduct
	}
	panic("curves: " + op.String() + " is not a binary operation")
}

func wrap(s string, prec, min int) string {
	if prec < min {
		return "(" + s + ")"
	}
	return s
}

func join(sep string, op Op) string {
	return sep + op.Symbol() + " "
}

// formatFloat prints v in its shortest round-tripping form.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// PrettyPrint returns the formal rendering indented for display.
func PrettyPrint(c *Curve) string {
	return "  " + strings.ReplaceAll(c.Expr(), "\n", "\n  ") + "\n"
}
