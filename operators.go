package curves

import "fmt"

// ============================================================
// Integral and Derivative
// ============================================================

// Integral is the antiderivative of a curve from a fixed lower bound,
// computed by Quadrature at call time.
type Integral struct {
	curve *Curve
	a     float64
}

// NewIntegral returns x -> ∫_a^x curve. curve is lifted like any builder
// operand.
func NewIntegral(curve interface{}, a float64) *Integral {
	return &Integral{curve: Must(curve), a: a}
}

func (i *Integral) Eval(x float64) float64 { return Quadrature(i.curve.Eval, i.a, x) }

// At returns the same antiderivative rebased at a new lower bound.
func (i *Integral) At(a float64) *Integral { return &Integral{curve: i.curve, a: a} }

func (i *Integral) Curve() *Curve  { return i.curve }
func (i *Integral) Lower() float64 { return i.a }

func (i *Integral) String() string {
	if i.a != 0 {
		return fmt.Sprintf("Integral(%s, %s)", i.curve, formatFloat(i.a))
	}
	return fmt.Sprintf("Integral(%s)", i.curve)
}

// Derivative is the central finite-difference derivative of a curve.
type Derivative struct {
	curve *Curve
	h     float64
}

// NewDerivative returns x -> d/dx curve(x) with step h; h <= 0 selects
// DefaultStep.
func NewDerivative(curve interface{}, h float64) *Derivative {
	if h <= 0 {
		h = DefaultStep
	}
	return &Derivative{curve: Must(curve), h: h}
}

func (d *Derivative) Eval(x float64) float64 { return FiniteDifference(d.curve.Eval, x, d.h) }

func (d *Derivative) Curve() *Curve { return d.curve }
func (d *Derivative) Step() float64 { return d.h }

func (d *Derivative) String() string { return fmt.Sprintf("Derivative(%s)", d.curve) }
