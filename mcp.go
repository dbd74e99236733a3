package curves

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ============================================================
// MCP Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall runs one tool call. Failures are reported in
// ToolResponse.Error; non-finite numbers are returned as null in Result and
// spelled out in String.
func HandleToolCall(req ToolRequest) ToolResponse {
	getCurve := func(key string) (*Curve, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid type for param %s", key)
		}
		return FromJSON(m)
	}
	getNumber := func(key string) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, fmt.Errorf("missing param: %s", key)
		}
		f, ok := toFloat(v)
		if !ok {
			return 0, fmt.Errorf("param %s must be a number", key)
		}
		return f, nil
	}
	optNumber := func(key string, def float64) (float64, error) {
		if _, ok := req.Params[key]; !ok {
			return def, nil
		}
		return getNumber(key)
	}
	getNumbers := func(key string) ([]float64, error) {
		raw, ok := req.Params[key].([]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be array", key)
		}
		out := make([]float64, len(raw))
		for i, r := range raw {
			f, ok := toFloat(r)
			if !ok {
				return nil, fmt.Errorf("param %s[%d] must be a number", key, i)
			}
			out[i] = f
		}
		return out, nil
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }
	respondCurve := func(c *Curve) ToolResponse {
		m, err := Marshal(c)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: m, String: c.String()}
	}
	respondNumber := func(v float64) ToolResponse {
		return ToolResponse{Result: jsonNumber(v), String: formatFloat(v)}
	}
	respondNumbers := func(vs []float64) ToolResponse {
		out := make([]interface{}, len(vs))
		strs := make([]string, len(vs))
		for i, v := range vs {
			out[i] = jsonNumber(v)
			strs[i] = formatFloat(v)
		}
		return ToolResponse{Result: out, String: strings.Join(strs, ", ")}
	}

	switch req.Tool {
	case "evaluate":
		c, err := getCurve("curve")
		if err != nil {
			return fail(err)
		}
		if _, ok := req.Params["xs"]; ok {
			xs, err := getNumbers("xs")
			if err != nil {
				return fail(err)
			}
			ys := make([]float64, len(xs))
			for i, x := range xs {
				if ys[i], err = c.Call(x); err != nil {
					return fail(err)
				}
			}
			return respondNumbers(ys)
		}
		x, err := getNumber("x")
		if err != nil {
			return fail(err)
		}
		y, err := c.Call(x)
		if err != nil {
			return fail(err)
		}
		return respondNumber(y)

	case "render":
		c, err := getCurve("curve")
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]interface{}{"string": c.String(), "expr": c.Expr()},
			String: c.Expr(),
		}

	case "compose":
		outer, err := getCurve("outer")
		if err != nil {
			return fail(err)
		}
		inner, err := getCurve("inner")
		if err != nil {
			return fail(err)
		}
		return respondCurve(outer.Compose(inner))

	case "derivative":
		c, err := getCurve("curve")
		if err != nil {
			return fail(err)
		}
		x, err := getNumber("x")
		if err != nil {
			return fail(err)
		}
		h, err := optNumber("h", DefaultStep)
		if err != nil {
			return fail(err)
		}
		return respondNumber(NewDerivative(c, h).Eval(x))

	case "integrate":
		c, err := getCurve("curve")
		if err != nil {
			return fail(err)
		}
		a, err := getNumber("a")
		if err != nil {
			return fail(err)
		}
		b, err := getNumber("b")
		if err != nil {
			return fail(err)
		}
		rule, _ := req.Params["rule"].(string)
		switch rule {
		case "", "quadrature":
			return respondNumber(Quadrature(c.Eval, a, b))
		case "trapezoidal":
			n, err := optNumber("n", defaultTrapezoidIntervals)
			if err != nil {
				return fail(err)
			}
			return respondNumber(Trapezoidal(c.Eval, a, b, int(n)))
		}
		return fail(fmt.Errorf("unknown integration rule: %s", rule))

	case "solve":
		c, err := getCurve("curve")
		if err != nil {
			return fail(err)
		}
		opts, err := SolveOptionsFromParams(req.Params)
		if err != nil {
			return fail(err)
		}
		root, err := Solve(c.Eval, opts...)
		if err != nil {
			return fail(err)
		}
		return respondNumber(root)

	case "grid":
		start, err := getNumber("start")
		if err != nil {
			return fail(err)
		}
		var grid []float64
		_, hasStop := req.Params["stop"]
		_, hasStep := req.Params["step"]
		_, hasNum := req.Params["num"]
		switch {
		case hasStop && hasStep:
			stop, err := getNumber("stop")
			if err != nil {
				return fail(err)
			}
			step, err := getNumber("step")
			if err != nil {
				return fail(err)
			}
			grid, err = LinStep(start, stop, step)
			if err != nil {
				return fail(err)
			}
		case hasStop && hasNum:
			stop, err := getNumber("stop")
			if err != nil {
				return fail(err)
			}
			num, err := getNumber("num")
			if err != nil {
				return fail(err)
			}
			grid, err = LinN(start, stop, int(num))
			if err != nil {
				return fail(err)
			}
		case hasStop:
			stop, err := getNumber("stop")
			if err != nil {
				return fail(err)
			}
			if grid, err = Lin(start, stop); err != nil {
				return fail(err)
			}
		default:
			if grid, err = Lin(start); err != nil {
				return fail(err)
			}
		}
		return respondNumbers(grid)

	case "functions":
		names := FunctionNames()
		return ToolResponse{Result: names, String: strings.Join(names, ", ")}

	case "mcp_spec":
		var spec interface{}
		if err := json.Unmarshal([]byte(MCPToolSpec()), &spec); err != nil {
			return fail(err)
		}
		return ToolResponse{Result: spec}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

func jsonNumber(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// ============================================================
// MCP spec
// ============================================================

func MCPToolSpec() string {
	curve := map[string]string{"curve": "object"}
	tools := []map[string]interface{}{
		ts("evaluate", "Evaluate a curve at x, or at every point of xs", []string{"curve"},
			map[string]string{"curve": "object", "x": "number", "xs": "array"}),
		ts("render", "Render a curve in informal and formal form", []string{"curve"}, curve),
		ts("compose", "Compose two curves: outer(inner)", []string{"outer", "inner"},
			map[string]string{"outer": "object", "inner": "object"}),
		ts("derivative", "Central finite-difference derivative at x. Optional: h", []string{"curve", "x"},
			map[string]string{"curve": "object", "x": "number", "h": "number"}),
		ts("integrate", "Numerical ∫_a^b. Optional: rule (quadrature|trapezoidal), n", []string{"curve", "a", "b"},
			map[string]string{"curve": "object", "a": "number", "b": "number", "rule": "string", "n": "integer"}),
		ts("solve", "Find a root. Optional: method (newton|secant|bisection), guess, bounds, a, b, tol|tolerance|precision, max_iter", []string{"curve"},
			map[string]string{"curve": "object", "method": "string", "guess": "number", "bounds": "array",
				"a": "number", "b": "number", "tol": "number", "tolerance": "number", "precision": "number", "max_iter": "integer"}),
		ts("grid", "Evenly spaced sample points, stop excluded. Optional: stop, step, num", []string{"start"},
			map[string]string{"start": "number", "stop": "number", "step": "number", "num": "integer"}),
		ts("functions", "List the named functions usable as {\"type\":\"func\"} leaves", []string{}, map[string]string{}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
