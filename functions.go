package curves

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mathext"
)

// ============================================================
// Named functions
// ============================================================

const (
	E  = math.E
	Pi = math.Pi
)

var (
	Inf = math.Inf(1)
	NaN = math.NaN()
)

var (
	Sin   = Fn("sin", math.Sin)
	Cos   = Fn("cos", math.Cos)
	Tan   = Fn("tan", math.Tan)
	Asin  = Fn("asin", math.Asin)
	Acos  = Fn("acos", math.Acos)
	Atan  = Fn("atan", math.Atan)
	Sinh  = Fn("sinh", math.Sinh)
	Cosh  = Fn("cosh", math.Cosh)
	Tanh  = Fn("tanh", math.Tanh)
	Asinh = Fn("asinh", math.Asinh)
	Acosh = Fn("acosh", math.Acosh)
	Atanh = Fn("atanh", math.Atanh)

	Exp   = Fn("exp", math.Exp)
	Expm1 = Fn("expm1", math.Expm1)
	Log   = Fn("log", math.Log)
	Log10 = Fn("log10", math.Log10)
	Log1p = Fn("log1p", math.Log1p)
	Log2  = Fn("log2", math.Log2)
	Sqrt  = Fn("sqrt", math.Sqrt)
	Cbrt  = Fn("cbrt", math.Cbrt)

	Fabs  = Fn("fabs", math.Abs)
	Floor = Fn("floor", math.Floor)
	Ceil  = Fn("ceil", math.Ceil)
	Trunc = Fn("trunc", math.Trunc)

	Erf     = Fn("erf", math.Erf)
	Erfc    = Fn("erfc", math.Erfc)
	Erfinv  = Fn("erfinv", math.Erfinv)
	Gamma   = Fn("gamma", math.Gamma)
	Lgamma  = Fn("lgamma", lgamma)
	Digamma = Fn("digamma", mathext.Digamma)

	Degrees = Fn("degrees", func(x float64) float64 { return x * 180 / math.Pi })
	Radians = Fn("radians", func(x float64) float64 { return x * math.Pi / 180 })

	// Ramp is max(0, x).
	Ramp = Fn("ramp", func(x float64) float64 { return math.Max(0, x) })
	// Step is 1 for x >= 0 and 0 otherwise.
	Step = Fn("step", func(x float64) float64 {
		if 0 <= x {
			return 1
		}
		return 0
	})
)

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

var functions = map[string]*Curve{
	"sin": Sin, "cos": Cos, "tan": Tan,
	"asin": Asin, "acos": Acos, "atan": Atan,
	"sinh": Sinh, "cosh": Cosh, "tanh": Tanh,
	"asinh": Asinh, "acosh": Acosh, "atanh": Atanh,
	"exp": Exp, "expm1": Expm1, "log": Log, "log10": Log10, "log1p": Log1p, "log2": Log2,
	"sqrt": Sqrt, "cbrt": Cbrt,
	"fabs": Fabs, "floor": Floor, "ceil": Ceil, "trunc": Trunc,
	"erf": Erf, "erfc": Erfc, "erfinv": Erfinv,
	"gamma": Gamma, "lgamma": Lgamma, "digamma": Digamma,
	"degrees": Degrees, "radians": Radians,
	"ramp": Ramp, "step": Step,
}

// Function returns a fresh copy of the named function curve.
func Function(name string) (*Curve, bool) {
	c, ok := functions[name]
	if !ok {
		return nil, false
	}
	return c.Copy(), true
}

// FunctionNames lists the named functions in sorted order.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for n := range functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
