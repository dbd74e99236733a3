package curves_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	curves "github.com/njchilds90/gocurves"
)

// polynomial is 1 + 2 * X + 3 * X ** 2 + -(X / 2 - 1).
func polynomial() *curves.Curve {
	x := curves.X
	p := x.RMul(2).RAdd(1).Add(x.Pow(2).RMul(3))
	return p.Add(x.Div(2).Sub(1).Neg())
}

func denseGrid(t *testing.T) []float64 {
	t.Helper()
	grid, err := curves.Lin(-10, 10)
	require.NoError(t, err)
	return grid
}

// ============================================================
// Construction
// ============================================================

func TestNew_Idempotent(t *testing.T) {
	for _, c := range []*curves.Curve{curves.Const(1), curves.Sin, curves.Var("Y"), polynomial()} {
		n, err := curves.New(c)
		require.NoError(t, err)
		assert.Same(t, c, n)
	}
}

func TestNew_Number(t *testing.T) {
	for _, v := range []interface{}{2, int8(2), uint16(2), float32(2), 2.0} {
		c, err := curves.New(v)
		require.NoError(t, err)
		f, err := c.Float64()
		require.NoError(t, err)
		assert.Equal(t, 2.0, f)
	}
}

func TestNew_String(t *testing.T) {
	c := curves.Must("T")
	assert.Equal(t, "T", c.String())
	assert.Equal(t, 4.5, c.Eval(4.5))
}

func TestNew_Func(t *testing.T) {
	c := curves.Must(math.Sqrt)
	assert.Equal(t, "Sqrt", c.String())
	assert.Equal(t, 3.0, c.Eval(9))

	e := curves.Must(func(x float64) (float64, error) { return x + 1, nil })
	assert.Equal(t, 2.0, e.Eval(1))
}

func TestNew_Evaluator(t *testing.T) {
	d := curves.NewDerivative(curves.X.Pow(2), 0)
	c := curves.Must(d)
	assert.Equal(t, "Derivative(X ** 2)", c.String())
	assert.InDelta(t, 4, c.Eval(2), 1e-6)
	assert.True(t, c.Equal(curves.Must(d)))
}

func TestNew_TypeError(t *testing.T) {
	_, err := curves.New(struct{}{})
	var te *curves.TypeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "struct {}", te.Type)

	_, err = curves.New((*curves.Curve)(nil))
	assert.True(t, errors.As(err, &te))
}

func TestBuilder_PanicsOnBadOperand(t *testing.T) {
	assert.Panics(t, func() { curves.X.Add([]int{1}) })
	assert.Panics(t, func() { curves.Must(nil) })
}

// ============================================================
// Evaluation
// ============================================================

func TestEval_Polynomial(t *testing.T) {
	p := polynomial()
	f := func(x float64) float64 { return 1 + 2*x + 3*math.Pow(x, 2) + -(x/2 - 1) }
	for _, x := range denseGrid(t) {
		assert.InDelta(t, f(x), p.Eval(x), 1e-9, "x=%v", x)
	}
}

func TestEval_CompositionInverse(t *testing.T) {
	f := curves.Fn("f_", func(y float64) float64 { return 1/y - 2 })
	g := curves.X.Add(2).RDiv(1)
	fg, gf := f.Of(g), g.Of(f)

	grid, err := curves.LinStep(-10, 10, 0.25)
	require.NoError(t, err)
	for _, x := range grid {
		if math.Abs(x-2) < 1e-9 || math.Abs(x+2) < 1e-9 {
			continue
		}
		assert.InDelta(t, x, fg.Eval(x), 1e-9, "f(g(%v))", x)
		assert.InDelta(t, x, gf.Eval(x), 1e-9, "g(f(%v))", x)
	}
}

func TestEval_Ops(t *testing.T) {
	x := curves.X
	cases := []struct {
		c    *curves.Curve
		want float64
	}{
		{x.Neg(), -3},
		{x.Sub(5).Abs(), 2},
		{x.Mul(x), 9},
		{x.Div(2), 1.5},
		{x.Pow(0.5).Pow(2), 3},
		{curves.Sqrt.Compose(x.Add(1)), 2},
		{curves.Identity().Add(1), 4},
		{x.RSub(1), -2},
		{x.RCompose(curves.Fn("twice", func(v float64) float64 { return 2 * v })), 6},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, tc.c.Eval(3), 1e-12, tc.c.Expr())
	}
}

func TestEval_DivisionByZero(t *testing.T) {
	y, err := curves.X.RDiv(1).Call(0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(y, 1))
}

func TestApply_TwoBranches(t *testing.T) {
	c := curves.X.Add(1)

	y, composed, err := c.Apply(2)
	require.NoError(t, err)
	assert.Nil(t, composed)
	assert.Equal(t, 3.0, y)

	_, composed, err = c.Apply(curves.Sin)
	require.NoError(t, err)
	require.NotNil(t, composed)
	assert.Equal(t, "(X + 1)(sin)", composed.String())
	assert.InDelta(t, math.Sin(2)+1, composed.Eval(2), 1e-12)

	_, _, err = c.Apply(struct{}{})
	assert.Error(t, err)
}

func TestCall_OperationError(t *testing.T) {
	bad := errors.New("bad input")
	boom := curves.FnE("boom", func(x float64) (float64, error) { return 0, bad })
	c := curves.X.Mul(2).Add(boom)

	_, err := c.Call(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, bad)
	var oe *curves.OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "boom", oe.Operand)
	assert.Equal(t, 1.0, oe.X)
	assert.True(t, math.IsNaN(c.Eval(1)))
}

func TestCall_PanickingCallable(t *testing.T) {
	c := curves.Fn("fragile", func(float64) float64 { panic("nope") })
	_, err := c.Call(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fragile panicked")
}

func TestCall_DoesNotMutate(t *testing.T) {
	p := polynomial()
	before := p.Expr()
	p.Eval(1)
	p.Eval(2)
	assert.Equal(t, before, p.Expr())
	assert.Empty(t, p.Pending())
}

// ============================================================
// In-place operators
// ============================================================

func TestAssign_AddSubCancel(t *testing.T) {
	c := curves.Var("X")
	c.AddAssign(3)
	before := c.Expr()
	c.AddAssign(curves.Sin)
	c.SubAssign(curves.Sin)
	assert.Equal(t, before, c.Expr())
	assert.Len(t, c.Pending(), 1)
}

func TestAssign_MulDivCancel(t *testing.T) {
	c := curves.Var("X")
	c.DivAssign(4)
	c.MulAssign(4)
	assert.Empty(t, c.Pending())
	assert.Equal(t, "X", c.Expr())
}

func TestAssign_CancelIsDepthOne(t *testing.T) {
	c := curves.Var("X")
	c.AddAssign(1)
	c.AddAssign(2)
	c.SubAssign(1)
	assert.Len(t, c.Pending(), 3)
	assert.Equal(t, 2.0, c.Eval(0))
}

func TestAssign_NoCancelForDifferentOperand(t *testing.T) {
	c := curves.Var("X")
	c.AddAssign(1)
	c.SubAssign(2)
	assert.Len(t, c.Pending(), 2)
}

//go:noinline
func constFn(k float64) func(float64) float64 {
	return func(float64) float64 { return k }
}

func TestAssign_DistinctClosuresDoNotCancel(t *testing.T) {
	c := curves.Var("X")
	c.AddAssign(constFn(1))
	c.SubAssign(constFn(2))
	assert.Len(t, c.Pending(), 2)
	assert.Equal(t, -1.0, c.Eval(0))

	m := curves.Var("X")
	m.MulAssign(curves.Fn("k", constFn(3)))
	m.DivAssign(curves.Fn("k", constFn(5)))
	assert.Len(t, m.Pending(), 2)
	assert.InDelta(t, 0.6, m.Eval(1), 1e-12)
}

func TestAssign_SameClosureCurveCancels(t *testing.T) {
	k := curves.Fn("k", constFn(3))
	c := curves.Var("X")
	c.MulAssign(k)
	c.DivAssign(k)
	assert.Empty(t, c.Pending())
	assert.Equal(t, 2.0, c.Eval(2))
}

func TestAssign_Chain(t *testing.T) {
	c := curves.Var("X")
	c.AddAssign(1).MulAssign(2).PowAssign(2).ComposeAssign(curves.Sin)
	assert.Equal(t, "sin(((X + 1) * 2) ** 2)", c.String())
	assert.InDelta(t, math.Sin(4), c.Eval(0), 1e-12)

	c.Clear()
	assert.Equal(t, "X", c.String())
	assert.Equal(t, 5.0, c.Eval(5))
}

// ============================================================
// Copy, equality and scalar cast
// ============================================================

func TestCopy_Independent(t *testing.T) {
	c := curves.X.Add(1)
	c.MulAssign(2)
	d := c.Copy()
	assert.NotSame(t, c, d)
	assert.True(t, c.Equal(d))

	d.AddAssign(5)
	assert.Len(t, c.Pending(), 1)
	assert.Len(t, d.Pending(), 2)
	assert.False(t, c.Equal(d))
}

func TestEqual(t *testing.T) {
	assert.True(t, polynomial().Equal(polynomial()))
	assert.True(t, curves.Const(math.NaN()).Equal(curves.Const(math.NaN())))
	assert.True(t, curves.Fn("f", math.Sin).Equal(curves.Fn("f", math.Sin)))

	// same rendering, different payloads
	assert.False(t, curves.Const(1).Equal(curves.Var("1")))
	assert.False(t, curves.Fn("f", math.Sin).Equal(curves.Fn("f", math.Cos)))
	// same values, different rendering
	assert.False(t, curves.X.Add(1).Equal(curves.X.RAdd(1)))
	assert.False(t, curves.X.Equal(nil))

	// closures from one literal differ by captured state
	assert.False(t, curves.Must(constFn(1)).Equal(curves.Must(constFn(2))))
	k := curves.Fn("k", constFn(1))
	assert.True(t, k.Equal(k.Copy()))
}

func TestFloat64(t *testing.T) {
	v, err := curves.Const(2.5).Float64()
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	for _, c := range []*curves.Curve{curves.X, curves.Const(1).Add(1), curves.Sin, curves.Identity()} {
		_, err := c.Float64()
		assert.ErrorIs(t, err, curves.ErrIllegalCast, c.Expr())
	}

	pending := curves.Const(1)
	pending.AddAssign(1)
	_, err = pending.Float64()
	assert.ErrorIs(t, err, curves.ErrIllegalCast)
}

func TestAccessors(t *testing.T) {
	c := curves.X.Pow(3)
	assert.Equal(t, curves.OpPow, c.Op())
	assert.Equal(t, 3.0, c.Exponent())
	assert.Nil(t, c.Operand())

	s := curves.X.Sub(2)
	assert.Equal(t, curves.OpSub, s.Op())
	assert.Equal(t, "2", s.Operand().String())
	assert.Equal(t, "", s.ID())
}

func TestOp_Names(t *testing.T) {
	for _, op := range []curves.Op{curves.OpNone, curves.OpNeg, curves.OpAbs, curves.OpAdd,
		curves.OpSub, curves.OpMul, curves.OpDiv, curves.OpPow, curves.OpCompose} {
		parsed, err := curves.ParseOp(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}
	assert.Equal(t, "**", curves.OpPow.Symbol())
	_, err := curves.ParseOp("mod")
	assert.Error(t, err)
}
