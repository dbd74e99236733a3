package curves

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ============================================================
// Numerics: differentiation, integration and root finding
// ============================================================

const (
	DefaultTolerance = 1e-8
	DefaultMaxIter   = 1000
	DefaultStep      = 1e-7

	defaultTrapezoidIntervals = 1000
	defaultSolveMethod        = "secant_method"
)

var (
	ErrZeroDerivative   = errors.New("curves: derivative is zero")
	ErrNoSignChange     = errors.New("curves: function must have opposite signs at the bracket ends")
	ErrDegenerateSecant = errors.New("curves: secant denominator is too small")
	ErrNoConvergence    = errors.New("curves: exceeded maximum iterations")
	ErrUnknownMethod    = errors.New("curves: unknown solve method")
)

// FiniteDifference returns the central difference (f(x+h) - f(x-h)) / 2h.
// h <= 0 selects DefaultStep.
func FiniteDifference(f func(float64) float64, x, h float64) float64 {
	if h <= 0 {
		h = DefaultStep
	}
	return (f(x+h) - f(x-h)) / (2 * h)
}

// Trapezoidal integrates f over [a, b] with the composite trapezoidal rule
// on n equal intervals. n <= 0 selects 1000 intervals.
func Trapezoidal(f func(float64) float64, a, b float64, n int) float64 {
	if n <= 0 {
		n = defaultTrapezoidIntervals
	}
	h := (b - a) / float64(n)
	sum := 0.5 * (f(a) + f(b))
	for i := 1; i < n; i++ {
		sum += f(a + float64(i)*h)
	}
	return sum * h
}

// 15-point Kronrod nodes and weights on [-1, 1].
var (
	quadratureNodes = []float64{
		-0.9914553711208126, -0.9491079123427585, -0.8648644233597691,
		-0.7415311855993945, -0.5860872354676911, -0.4058451513773972,
		-0.20778495500789848, 0,
		0.20778495500789848, 0.4058451513773972, 0.5860872354676911,
		0.7415311855993945, 0.8648644233597691, 0.9491079123427585,
		0.9914553711208126,
	}
	quadratureWeights = []float64{
		0.022935322010529224, 0.06309209262997856, 0.10479001032225019,
		0.14065325971552592, 0.1690047266392679, 0.19035057806478542,
		0.20443294007529889, 0.20948214108472782,
		0.20443294007529889, 0.19035057806478542, 0.1690047266392679,
		0.14065325971552592, 0.10479001032225019, 0.06309209262997856,
		0.022935322010529224,
	}
)

// Quadrature integrates f over [a, b] with one fixed 15-node rule mapped
// affinely onto the interval. It is not adaptive.
func Quadrature(f func(float64) float64, a, b float64) float64 {
	mid := 0.5 * (b + a)
	half := 0.5 * (b - a)
	values := make([]float64, len(quadratureNodes))
	for i, t := range quadratureNodes {
		values[i] = f(mid + half*t)
	}
	return floats.Dot(quadratureWeights, values) * half
}

// Integrate is the default integrator.
func Integrate(f func(float64) float64, a, b float64) float64 { return Quadrature(f, a, b) }

func iterDefaults(tol float64, maxIter int) (float64, int) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	return tol, maxIter
}

// NewtonRaphson finds a root of f starting from a, using the finite
// difference derivative. It stops once successive iterates are closer
// than tol. tol <= 0 and maxIter <= 0 select the defaults.
func NewtonRaphson(f func(float64) float64, a, tol float64, maxIter int) (float64, error) {
	tol, maxIter = iterDefaults(tol, maxIter)
	for i := 0; i < maxIter; i++ {
		fa := f(a)
		dfa := FiniteDifference(f, a, DefaultStep)
		if dfa == 0 {
			return 0, fmt.Errorf("%w at a=%s", ErrZeroDerivative, formatFloat(a))
		}
		b := a - fa/dfa
		if math.Abs(b-a) < tol {
			return b, nil
		}
		a = b
	}
	return 0, fmt.Errorf("%w: newton_raphson after %d iterations", ErrNoConvergence, maxIter)
}

// Bisection finds a root of f in [a, b]. f(a) and f(b) must have strictly
// opposite signs.
func Bisection(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	tol, maxIter = iterDefaults(tol, maxIter)
	fa, fb := f(a), f(b)
	if !(fa*fb < 0) {
		return 0, fmt.Errorf("%w: a=%s, b=%s", ErrNoSignChange, formatFloat(a), formatFloat(b))
	}
	for i := 0; i < maxIter; i++ {
		c := (a + b) / 2
		fc := f(c)
		if math.Abs(fc) < tol || math.Abs(b-a)/2 < tol {
			return c, nil
		}
		if fc*fa < 0 {
			b = c
		} else {
			a, fa = c, fc
		}
	}
	return 0, fmt.Errorf("%w: bisection_method after %d iterations", ErrNoConvergence, maxIter)
}

// Secant finds a root of f from the two guesses a and b.
func Secant(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	tol, maxIter = iterDefaults(tol, maxIter)
	for i := 0; i < maxIter; i++ {
		fa, fb := f(a), f(b)
		if math.Abs(fb-fa) < tol {
			return 0, fmt.Errorf("%w at a=%s and b=%s", ErrDegenerateSecant, formatFloat(a), formatFloat(b))
		}
		c := b - fb*(b-a)/(fb-fa)
		if math.Abs(c-b) < tol {
			return c, nil
		}
		a, b = b, c
	}
	return 0, fmt.Errorf("%w: secant_method after %d iterations", ErrNoConvergence, maxIter)
}

// ============================================================
// Solve: root finder dispatch
// ============================================================

// RootFinder is a caller-supplied root finding algorithm. a and b are the
// resolved guesses or bracket ends.
type RootFinder func(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error)

type solveConfig struct {
	method  string
	finder  RootFinder
	a, b    float64
	hasA    bool
	hasB    bool
	tol     float64
	maxIter int
}

func (c *solveConfig) lower(def float64) float64 {
	if c.hasA {
		return c.a
	}
	return def
}

func (c *solveConfig) upper(def float64) float64 {
	if c.hasB {
		return c.b
	}
	return def
}

// SolveOption configures Solve.
type SolveOption func(*solveConfig)

// WithMethod selects a built-in root finder by name. Any name containing
// "newton", "secant" or "bisec" matches.
func WithMethod(name string) SolveOption {
	return func(c *solveConfig) { c.method = name }
}

// WithRootFinder replaces the built-in root finders.
func WithRootFinder(fn RootFinder) SolveOption {
	return func(c *solveConfig) { c.finder = fn }
}

// WithBounds sets both guesses, or the bisection bracket.
func WithBounds(a, b float64) SolveOption {
	return func(c *solveConfig) { c.a, c.hasA, c.b, c.hasB = a, true, b, true }
}

// WithGuess sets the first guess.
func WithGuess(a float64) SolveOption { return WithA(a) }

// WithA sets the first guess or left bracket end.
func WithA(a float64) SolveOption {
	return func(c *solveConfig) { c.a, c.hasA = a, true }
}

// WithB sets the second guess or right bracket end.
func WithB(b float64) SolveOption {
	return func(c *solveConfig) { c.b, c.hasB = b, true }
}

// WithTolerance sets the convergence tolerance.
func WithTolerance(tol float64) SolveOption {
	return func(c *solveConfig) { c.tol = tol }
}

// WithMaxIter caps the number of iterations.
func WithMaxIter(n int) SolveOption {
	return func(c *solveConfig) { c.maxIter = n }
}

// Solve finds a root of f. The method defaults to the secant method.
// Missing guesses default per method: newton 0.01, secant 0.01 and 0.1,
// bisection -0.1 and 0.2.
func Solve(f func(float64) float64, opts ...SolveOption) (float64, error) {
	cfg := solveConfig{method: defaultSolveMethod}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.finder != nil {
		return cfg.finder(f, cfg.a, cfg.b, cfg.tol, cfg.maxIter)
	}
	method := cfg.method
	if method == "" {
		method = defaultSolveMethod
	}
	switch {
	case strings.Contains(method, "newton"):
		return NewtonRaphson(f, cfg.lower(0.01), cfg.tol, cfg.maxIter)
	case strings.Contains(method, "secant"):
		return Secant(f, cfg.lower(0.01), cfg.upper(0.1), cfg.tol, cfg.maxIter)
	case strings.Contains(method, "bisec"):
		return Bisection(f, cfg.lower(-0.1), cfg.upper(0.2), cfg.tol, cfg.maxIter)
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMethod, method)
}

// SolveOptionsFromParams turns keyword parameters into options. It
// accepts "method", "guess", "bounds" ([a, b]), "a", "b", "max_iter" and
// the tolerance aliases "tol", "tolerance" and "precision". Later aliases
// win: bounds over guess, a/b over bounds, precision over tolerance over
// tol. Unrelated keys are ignored.
func SolveOptionsFromParams(params map[string]interface{}) ([]SolveOption, error) {
	var opts []SolveOption
	num := func(key string) (float64, bool, error) {
		v, ok := params[key]
		if !ok || v == nil {
			return 0, false, nil
		}
		f, ok := toFloat(v)
		if !ok {
			return 0, false, fmt.Errorf("param %s must be a number", key)
		}
		return f, true, nil
	}

	if v, ok := params["method"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("param method must be a string")
		}
		opts = append(opts, WithMethod(s))
	}
	if g, ok, err := num("guess"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, WithA(g))
	}
	if v, ok := params["bounds"]; ok && v != nil {
		raw, ok := v.([]interface{})
		if !ok || len(raw) == 0 || len(raw) > 2 {
			return nil, fmt.Errorf("param bounds must be an array of one or two numbers")
		}
		for i, r := range raw {
			if r == nil {
				continue
			}
			f, ok := toFloat(r)
			if !ok {
				return nil, fmt.Errorf("param bounds[%d] must be a number", i)
			}
			if i == 0 {
				opts = append(opts, WithA(f))
			} else {
				opts = append(opts, WithB(f))
			}
		}
	}
	for _, key := range []string{"a", "b"} {
		f, ok, err := num(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if key == "a" {
			opts = append(opts, WithA(f))
		} else {
			opts = append(opts, WithB(f))
		}
	}
	for _, key := range []string{"tol", "tolerance", "precision"} {
		f, ok, err := num(key)
		if err != nil {
			return nil, err
		}
		if ok {
			opts = append(opts, WithTolerance(f))
		}
	}
	if n, ok, err := num("max_iter"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, WithMaxIter(int(n)))
	}
	return opts, nil
}
