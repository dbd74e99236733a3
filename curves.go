// Package curves provides a functional curve algebra for Go.
//
// A *Curve wraps a constant, a callable or the free variable and supports
// arithmetic composition (Add, Sub, Mul, Div, Pow, Neg, Abs, Compose)
// while staying lazily evaluable and printable:
//
//	p := curves.X.RMul(2).RAdd(1).Add(curves.X.Pow(2).RMul(3))
//	p.Eval(2)   // 17
//	p.String()  // "1 + 2 * X + 3 * X ** 2"
//
// Design goals:
//   - Expression trees built from explicit builder methods, evaluated on call
//   - Precedence-aware, deterministic rendering
//   - Numerics (root finding, finite differences, quadrature) that accept any
//     func(float64) float64, curves included
//   - Embeddable in Go services, CLI tools, and agent backends (JSON and MCP)
package curves

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// ============================================================
// Operations
// ============================================================

// Op tags the operation a node applies to its payload.
type Op int

const (
	OpNone Op = iota
	OpNeg
	OpAbs
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
	OpCompose
)

var opNames = [...]string{
	OpNone:    "none",
	OpNeg:     "neg",
	OpAbs:     "abs",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpDiv:     "div",
	OpPow:     "pow",
	OpCompose: "compose",
}

var opSymbols = [...]string{
	OpNone:    "",
	OpNeg:     "-",
	OpAbs:     "abs",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpPow:     "**",
	OpCompose: "@",
}

func (o Op) valid() bool { return o >= OpNone && int(o) < len(opNames) }

func (o Op) String() string {
	if !o.valid() {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// Symbol returns the infix symbol of o ("+", "**", "@", ...).
func (o Op) Symbol() string {
	if !o.valid() {
		return o.String()
	}
	return opSymbols[o]
}

// ParseOp is the inverse of Op.String.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return OpNone, fmt.Errorf("curves: unknown operation %q", name)
}

// ============================================================
// Errors
// ============================================================

// ErrIllegalCast is returned by Float64 when a curve cannot be collapsed
// into a scalar.
var ErrIllegalCast = errors.New("curves: cannot cast curve to float64, evaluate it instead")

// TypeError reports a value that cannot be lifted into a curve.
type TypeError struct {
	Type string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("curves: float, callable or variable name required but type %s given", e.Type)
}

// OperationError reports a failure while applying an operation during
// evaluation. It describes the innermost failing sub-expression.
type OperationError struct {
	Op      Op
	Value   float64
	Operand string
	X       float64
	Err     error
}

func (e *OperationError) Error() string {
	if e.Op == OpNone {
		return fmt.Sprintf("curves: [%s](%s) failed: %v", e.Operand, formatFloat(e.X), e.Err)
	}
	return fmt.Sprintf("curves: %s %s [%s](%s) failed: %v",
		formatFloat(e.Value), e.Op.Symbol(), e.Operand, formatFloat(e.X), e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

func wrapOp(op Op, y float64, operand string, x float64, err error) error {
	var oe *OperationError
	if errors.As(err, &oe) {
		return err
	}
	return &OperationError{Op: op, Value: y, Operand: operand, X: x, Err: err}
}

// ============================================================
// Payload variants
// ============================================================

// payload is the closed set of things a node can wrap.
type payload interface {
	value(x float64) (float64, error)
	render(formal bool, sep string) (string, int)
	kind() string
	equal(other payload) bool
}

type identity struct{}

func (identity) value(x float64) (float64, error) { return x, nil }
func (identity) render(bool, string) (string, int) { return "Curve()", precAtom }
func (identity) kind() string                      { return "identity" }

func (identity) equal(other payload) bool {
	_, ok := other.(identity)
	return ok
}

type constant float64

func (c constant) value(float64) (float64, error) { return float64(c), nil }
func (c constant) kind() string                   { return "const" }

func (c constant) equal(other payload) bool {
	o, ok := other.(constant)
	if !ok {
		return false
	}
	if math.IsNaN(float64(c)) {
		return math.IsNaN(float64(o))
	}
	return c == o
}

func (c constant) render(bool, string) (string, int) {
	if c < 0 {
		return formatFloat(float64(c)), precUnary
	}
	return formatFloat(float64(c)), precAtom
}

type variable string

func (v variable) value(x float64) (float64, error) { return x, nil }
func (v variable) render(bool, string) (string, int) { return string(v), precAtom }
func (v variable) kind() string                      { return "var" }

func (v variable) equal(other payload) bool {
	o, ok := other.(variable)
	return ok && o == v
}

// callable adapts any unary function. key identifies the wrapped value for
// equality: the code pointer for top-level funcs, a per-wrapping *lift for
// closures, the value itself for comparable Evaluators, nil otherwise.
type callable struct {
	name string
	fn   func(float64) (float64, error)
	key  interface{}
}

func (f callable) value(x float64) (y float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", f.name, r)
		}
	}()
	return f.fn(x)
}

func (f callable) render(bool, string) (string, int) { return f.name, precAtom }
func (f callable) kind() string                      { return "func" }

func (f callable) equal(other payload) bool {
	o, ok := other.(callable)
	if !ok || o.name != f.name || f.key == nil || o.key == nil {
		return false
	}
	if reflect.TypeOf(f.key) != reflect.TypeOf(o.key) {
		return false
	}
	return f.key == o.key
}

type nested struct{ c *Curve }

func (n nested) value(x float64) (float64, error)           { return n.c.Call(x) }
func (n nested) render(formal bool, sep string) (string, int) { return n.c.sub(formal, sep) }
func (n nested) kind() string                               { return "curve" }

func (n nested) equal(other payload) bool {
	o, ok := other.(nested)
	return ok && n.c.Equal(o.c)
}

// ============================================================
// Curve: one node of the expression tree
// ============================================================

// Evaluator is anything callable at a real number, e.g. *Curve, *Integral
// or *Derivative.
type Evaluator interface {
	Eval(x float64) float64
}

// PendingOp is an operation appended by an in-place operator.
type PendingOp struct {
	Op       Op
	Operand  *Curve
	Exponent float64
}

// Curve is a lazily evaluated function of one real variable.
// It is immutable except for its pending operations, which only the
// *Assign methods and Clear touch.
type Curve struct {
	payload payload
	op      Op
	operand *Curve
	exp     float64
	pending []PendingOp

	id  string
	reg *Registry
}

// X is the free variable.
var X = Var("X")

// Const returns a constant curve.
func Const(v float64) *Curve { return &Curve{payload: constant(v)} }

// Var returns the identity curve rendered as name.
func Var(name string) *Curve { return &Curve{payload: variable(name)} }

// Identity returns a curve with an absent payload; it evaluates to its
// input and renders as "Curve()".
func Identity() *Curve { return &Curve{payload: identity{}} }

// Fn wraps f under an explicit display name.
func Fn(name string, f func(float64) float64) *Curve {
	return &Curve{payload: callable{name: name, fn: plain(f), key: funcKey(f)}}
}

// FnE is Fn for functions that can fail.
func FnE(name string, f func(float64) (float64, error)) *Curve {
	return &Curve{payload: callable{name: name, fn: f, key: funcKey(f)}}
}

// New lifts v into a curve. A *Curve is returned unchanged; funcs and
// Evaluators become callables, numbers become constants and strings
// become variables. Anything else yields a *TypeError.
func New(v interface{}) (*Curve, error) {
	switch t := v.(type) {
	case *Curve:
		if t == nil {
			return nil, &TypeError{Type: "nil *curves.Curve"}
		}
		return t, nil
	case func(float64) float64:
		if t == nil {
			return nil, &TypeError{Type: "nil func(float64) float64"}
		}
		return Fn(funcName(t), t), nil
	case func(float64) (float64, error):
		if t == nil {
			return nil, &TypeError{Type: "nil func(float64) (float64, error)"}
		}
		return FnE(funcName(t), t), nil
	case Evaluator:
		name := fmt.Sprintf("%T", t)
		if s, ok := t.(fmt.Stringer); ok {
			name = s.String()
		}
		var key interface{}
		if reflect.TypeOf(t).Comparable() {
			key = t
		}
		return &Curve{payload: callable{name: name, fn: func(x float64) (float64, error) { return t.Eval(x), nil }, key: key}}, nil
	case string:
		return Var(t), nil
	}
	if f, ok := toFloat(v); ok {
		return Const(f), nil
	}
	return nil, &TypeError{Type: fmt.Sprintf("%T", v)}
}

// Must is New that panics on error.
func Must(v interface{}) *Curve {
	c, err := New(v)
	if err != nil {
		panic(err)
	}
	return c
}

// ============================================================
// Accessors
// ============================================================

// Op returns the primary operation of the node.
func (c *Curve) Op() Op { return c.op }

// Operand returns the right-hand operand of the primary operation, nil for
// unary operations and power.
func (c *Curve) Operand() *Curve { return c.operand }

// Exponent returns the raw exponent of a power node.
func (c *Curve) Exponent() float64 { return c.exp }

// ID returns the registry identifier, empty for anonymous curves.
func (c *Curve) ID() string { return c.id }

// Pending returns a copy of the pending operations.
func (c *Curve) Pending() []PendingOp {
	out := make([]PendingOp, len(c.pending))
	copy(out, c.pending)
	return out
}

// ============================================================
// Evaluation
// ============================================================

// Call evaluates c at x.
func (c *Curve) Call(x float64) (float64, error) {
	in := x
	if c.op == OpCompose {
		v, err := c.operand.Call(x)
		if err != nil {
			return 0, wrapOp(OpCompose, x, c.operand.Expr(), x, err)
		}
		x = v
	}
	y, err := c.payload.value(x)
	if err != nil {
		s, _ := c.payload.render(true, " ")
		return 0, wrapOp(OpNone, 0, s, x, err)
	}
	if c.op != OpNone && c.op != OpCompose {
		if y, err = apply(c.op, c.operand, c.exp, x, y); err != nil {
			return 0, err
		}
	}
	for _, p := range c.pending {
		at := x
		if p.Op == OpCompose {
			at = y
		}
		if y, err = apply(p.Op, p.Operand, p.Exponent, at, y); err != nil {
			return 0, err
		}
	}
	c.report(func() string { return formatFloat(y) + " = " + c.id + "(" + formatFloat(in) + ")" })
	return y, nil
}

// Eval evaluates c at x and returns NaN if evaluation fails, so that
// c.Eval can be handed to anything expecting a func(float64) float64.
func (c *Curve) Eval(x float64) float64 {
	y, err := c.Call(x)
	if err != nil {
		return math.NaN()
	}
	return y
}

// Apply is the two-branch call contract: a numeric v evaluates c, any
// other liftable value composes c with it.
func (c *Curve) Apply(v interface{}) (float64, *Curve, error) {
	if x, ok := toFloat(v); ok {
		y, err := c.Call(x)
		return y, nil, err
	}
	inner, err := New(v)
	if err != nil {
		return 0, nil, err
	}
	return 0, c.Compose(inner), nil
}

func apply(op Op, operand *Curve, exp, x, y float64) (float64, error) {
	switch op {
	case OpNeg:
		return -y, nil
	case OpAbs:
		return math.Abs(y), nil
	case OpPow:
		return math.Pow(y, exp), nil
	case OpAdd, OpSub, OpMul, OpDiv, OpCompose:
	default:
		panic(fmt.Sprintf("curves: operation %s not found", op))
	}
	v, err := operand.Call(x)
	if err != nil {
		return 0, wrapOp(op, y, operand.Expr(), x, err)
	}
	switch op {
	case OpAdd:
		return y + v, nil
	case OpSub:
		return y - v, nil
	case OpMul:
		return y * v, nil
	case OpDiv:
		return y / v, nil
	}
	return v, nil
}

// ============================================================
// Builders
// ============================================================

func (c *Curve) derive(op Op, other interface{}) *Curve {
	return &Curve{payload: nested{c}, op: op, operand: Must(other)}
}

// Add returns c + other. Like every builder taking interface{}, it panics
// with a *TypeError if other cannot be lifted.
func (c *Curve) Add(other interface{}) *Curve { return c.derive(OpAdd, other) }

// Sub returns c - other.
func (c *Curve) Sub(other interface{}) *Curve { return c.derive(OpSub, other) }

// Mul returns c * other.
func (c *Curve) Mul(other interface{}) *Curve { return c.derive(OpMul, other) }

// Div returns c / other.
func (c *Curve) Div(other interface{}) *Curve { return c.derive(OpDiv, other) }

// Pow returns c ** exp. The exponent is kept as a raw number.
func (c *Curve) Pow(exp float64) *Curve {
	return &Curve{payload: nested{c}, op: OpPow, exp: exp}
}

// Neg returns -c.
func (c *Curve) Neg() *Curve { return &Curve{payload: nested{c}, op: OpNeg} }

// Abs returns |c|.
func (c *Curve) Abs() *Curve { return &Curve{payload: nested{c}, op: OpAbs} }

// Compose returns c ∘ inner: inner is applied first, then c.
func (c *Curve) Compose(inner interface{}) *Curve { return c.derive(OpCompose, inner) }

// Of is Compose, read as c(inner).
func (c *Curve) Of(inner interface{}) *Curve { return c.Compose(inner) }

// RAdd returns other + c.
func (c *Curve) RAdd(other interface{}) *Curve { return Must(other).Add(c) }

// RSub returns other - c.
func (c *Curve) RSub(other interface{}) *Curve { return Must(other).Sub(c) }

// RMul returns other * c.
func (c *Curve) RMul(other interface{}) *Curve { return Must(other).Mul(c) }

// RDiv returns other / c.
func (c *Curve) RDiv(other interface{}) *Curve { return Must(other).Div(c) }

// RCompose returns outer ∘ c.
func (c *Curve) RCompose(outer interface{}) *Curve { return Must(outer).Compose(c) }

// ============================================================
// In-place operators
// ============================================================

// AddAssign appends "+ other" to the pending operations and returns c.
// If the last pending operation is "- other", it is removed instead.
func (c *Curve) AddAssign(other interface{}) *Curve { return c.assign(OpAdd, OpSub, Must(other), 0) }

// SubAssign appends "- other", cancelling a trailing "+ other".
func (c *Curve) SubAssign(other interface{}) *Curve { return c.assign(OpSub, OpAdd, Must(other), 0) }

// MulAssign appends "* other", cancelling a trailing "/ other".
func (c *Curve) MulAssign(other interface{}) *Curve { return c.assign(OpMul, OpDiv, Must(other), 0) }

// DivAssign appends "/ other", cancelling a trailing "* other".
func (c *Curve) DivAssign(other interface{}) *Curve { return c.assign(OpDiv, OpMul, Must(other), 0) }

// PowAssign appends "** exp".
func (c *Curve) PowAssign(exp float64) *Curve { return c.assign(OpPow, OpNone, nil, exp) }

// ComposeAssign appends outer, applied to the running value.
func (c *Curve) ComposeAssign(outer interface{}) *Curve {
	return c.assign(OpCompose, OpNone, Must(outer), 0)
}

func (c *Curve) assign(op, inverse Op, operand *Curve, exp float64) *Curve {
	defer c.report(func() string {
		arg := formatFloat(exp)
		if operand != nil {
			arg, _ = operand.sub(false, " ")
		}
		return c.id + " " + op.Symbol() + "= " + arg
	})
	if n := len(c.pending); n > 0 && inverse != OpNone {
		last := c.pending[n-1]
		if last.Op == inverse && last.Operand.Equal(operand) {
			c.pending = c.pending[:n-1:n-1]
			return c
		}
	}
	c.pending = append(c.pending, PendingOp{Op: op, Operand: operand, Exponent: exp})
	return c
}

// Clear drops all pending operations.
func (c *Curve) Clear() {
	c.pending = nil
	c.report(func() string { return c.id + " cleared" })
}

// ============================================================
// Copy, equality and scalar cast
// ============================================================

// Copy returns an independent node with its own pending operations.
// The copy is anonymous: identifiers are unique per registry.
func (c *Curve) Copy() *Curve {
	n := *c
	n.pending = append([]PendingOp(nil), c.pending...)
	n.id, n.reg = "", nil
	return &n
}

// Equal reports representational equality: same formal rendering, same
// payload variant and equal payloads. Trees that evaluate identically but
// print differently are not equal.
func (c *Curve) Equal(other *Curve) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	if c.Expr() != other.Expr() {
		return false
	}
	return c.payload.kind() == other.payload.kind() && c.payload.equal(other.payload)
}

// Float64 collapses c into a scalar. Only curves without operations whose
// payload is a constant can be cast.
func (c *Curve) Float64() (float64, error) {
	if c.op != OpNone || len(c.pending) > 0 {
		return 0, fmt.Errorf("%w: %s has operations", ErrIllegalCast, c.Expr())
	}
	switch p := c.payload.(type) {
	case constant:
		return float64(p), nil
	case nested:
		return p.c.Float64()
	}
	return 0, fmt.Errorf("%w: %s is not a constant", ErrIllegalCast, c.Expr())
}

// ============================================================
// Helpers
// ============================================================

func plain(f func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) { return f(x), nil }
}

// closureName matches compiler names of function literals and method values.
var closureName = regexp.MustCompile(`\.func\d+(\.\d+)*$|-fm$`)

// lift identifies one wrapping of a closure or method value.
type lift struct{ pc uintptr }

// funcKey is the code pointer of a top-level func. Closures and method
// values share code across captured state, so each wrapping gets its own
// identity instead and only matches copies of itself.
func funcKey(f interface{}) interface{} {
	v := reflect.ValueOf(f)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil
	}
	pc := v.Pointer()
	if fn := runtime.FuncForPC(pc); fn == nil || closureName.MatchString(fn.Name()) {
		return &lift{pc: pc}
	}
	return pc
}

// funcName returns the short Go name of f: package path and qualifier
// stripped, method value suffix removed.
func funcName(f interface{}) string {
	fn := runtime.FuncForPC(reflect.ValueOf(f).Pointer())
	if fn == nil {
		return "func"
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
