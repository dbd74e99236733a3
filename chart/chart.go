// Package chart draws curves with gonum/plot.
//
//	p, _ := chart.New(-5, 5)
//	p.Title = "sine"
//	_ = p.Save("sin.png", curves.Sin, curves.Cos)
//
// The image format follows the file extension (png, svg, pdf, ...).
package chart

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	curves "github.com/njchilds90/gocurves"
)

// maxLabel is the longest legend label, in runes, kept before it is cut.
const maxLabel = 50

// ErrNoSeries is returned when Plot is called without anything to draw.
var ErrNoSeries = errors.New("chart: no series to plot")

// Plotter samples curves on a fixed grid and draws them as lines.
type Plotter struct {
	X      []float64
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
	Legend bool
}

// New returns a Plotter sampling on curves.Lin(bounds...), or on
// [-1, 1) when no bounds are given.
func New(bounds ...float64) (*Plotter, error) {
	if len(bounds) == 0 {
		bounds = []float64{-1, 1}
	}
	x, err := curves.Lin(bounds...)
	if err != nil {
		return nil, err
	}
	return &Plotter{
		X:      x,
		XLabel: "x",
		Width:  6 * vg.Inch,
		Height: 4 * vg.Inch,
		Legend: true,
	}, nil
}

// Sample evaluates f on the grid, dropping non-finite values.
func (p *Plotter) Sample(f curves.Evaluator) plotter.XYs {
	pts := make(plotter.XYs, 0, len(p.X))
	for _, x := range p.X {
		y := f.Eval(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}

// Plot builds one line per series.
func (p *Plotter) Plot(series ...curves.Evaluator) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, ErrNoSeries
	}
	plt := plot.New()
	plt.Title.Text = p.Title
	plt.X.Label.Text = p.XLabel
	plt.Y.Label.Text = p.YLabel

	lines := make([]interface{}, 0, 2*len(series))
	for i, s := range series {
		if p.Legend {
			lines = append(lines, Label(s, i))
		}
		lines = append(lines, p.Sample(s))
	}
	if err := plotutil.AddLines(plt, lines...); err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	return plt, nil
}

// Save plots series and writes the image to path.
func (p *Plotter) Save(path string, series ...curves.Evaluator) error {
	plt, err := p.Plot(series...)
	if err != nil {
		return err
	}
	w, h := p.Width, p.Height
	if w <= 0 {
		w = 6 * vg.Inch
	}
	if h <= 0 {
		h = 4 * vg.Inch
	}
	return plt.Save(w, h, path)
}

// Label is the legend text of the i-th series: its String() cut at 50
// characters, or "f<i>" for values that do not print themselves.
func Label(s curves.Evaluator, i int) string {
	str, ok := s.(fmt.Stringer)
	if !ok {
		return fmt.Sprintf("f%d", i)
	}
	label := strings.ReplaceAll(str.String(), "\n", " ")
	if runes := []rune(label); len(runes) > maxLabel {
		label = string(runes[:maxLabel]) + " ..."
	}
	return label
}
