// cmd/curveplot: plot JSON-encoded curves to an image file
//
// Usage:
//
//	go run ./cmd/curveplot -curve '{"type":"func","name":"sin"}' -from -3 -to 3 -out sin.png
//	go run ./cmd/curveplot -file curves.json -num 200 -out curves.svg
//
// The input is one curve object or an array of them, in the form written
// by curves.ToJSON. The image format follows the -out extension.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	curves "github.com/njchilds90/gocurves"
	"github.com/njchilds90/gocurves/chart"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("curveplot failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("curveplot", flag.ContinueOnError)
	src := fs.String("curve", "", "Curve JSON (object or array of objects)")
	file := fs.String("file", "", "Read curve JSON from this file instead of -curve")
	from := fs.Float64("from", -1, "First grid point")
	to := fs.Float64("to", 1, "Grid end (excluded)")
	num := fs.Int("num", 1000, "Number of grid points")
	out := fs.String("out", "curve.png", "Output image (.png, .svg, .pdf, ...)")
	title := fs.String("title", "", "Plot title")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data := []byte(*src)
	if *file != "" {
		var err error
		if data, err = os.ReadFile(*file); err != nil {
			return err
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("one of -curve or -file is required")
	}
	series, err := parseCurves(data)
	if err != nil {
		return err
	}

	x, err := curves.LinN(*from, *to, *num)
	if err != nil {
		return err
	}
	p, err := chart.New()
	if err != nil {
		return err
	}
	p.X, p.Title = x, *title
	if err := p.Save(*out, series...); err != nil {
		return err
	}
	slog.Info("wrote plot", slog.String("out", *out), slog.Int("curves", len(series)))
	return nil
}

func parseCurves(data []byte) ([]curves.Evaluator, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid curve JSON: %w", err)
	}
	var objs []interface{}
	switch v := raw.(type) {
	case []interface{}:
		objs = v
	case map[string]interface{}:
		objs = []interface{}{v}
	default:
		return nil, fmt.Errorf("curve JSON must be an object or an array")
	}
	series := make([]curves.Evaluator, 0, len(objs))
	for i, o := range objs {
		m, ok := o.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("curve %d must be an object", i)
		}
		c, err := curves.FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("curve %d: %w", i, err)
		}
		series = append(series, c)
	}
	return series, nil
}
