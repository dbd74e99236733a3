package chart_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	curves "github.com/njchilds90/gocurves"
	"github.com/njchilds90/gocurves/chart"
)

// ============================================================
// Grid and sampling
// ============================================================

func TestNew_DefaultGrid(t *testing.T) {
	p, err := chart.New()
	require.NoError(t, err)
	require.Len(t, p.X, 1000)
	assert.Equal(t, -1.0, p.X[0])
	assert.True(t, p.Legend)
}

func TestNew_InvalidGrid(t *testing.T) {
	_, err := chart.New(0, 1, -0.1)
	assert.ErrorIs(t, err, curves.ErrInvalidGrid)
}

func TestSample_SkipsNonFinite(t *testing.T) {
	p, err := chart.New(-1, 1, 0.5)
	require.NoError(t, err)
	pts := p.Sample(curves.X.RDiv(1))
	// the grid is -1, -0.5, 0, 0.5 and 1/0 is dropped
	require.Len(t, pts, 3)
	for _, pt := range pts {
		assert.False(t, math.IsInf(pt.Y, 0))
	}
}

// ============================================================
// Labels
// ============================================================

func TestLabel_Short(t *testing.T) {
	assert.Equal(t, "X + 1", chart.Label(curves.X.Add(1), 0))
}

func TestLabel_Truncated(t *testing.T) {
	c := curves.X
	for i := 0; i < 30; i++ {
		c = c.Add(i)
	}
	label := chart.Label(c, 0)
	assert.True(t, strings.HasSuffix(label, " ..."))
	assert.Len(t, label, 54)
	assert.NotContains(t, label, "\n")
}

func TestLabel_TruncatedOnRuneBoundary(t *testing.T) {
	gamma := curves.Fn("γ", math.Gamma)
	c := gamma
	for i := 0; i < 30; i++ {
		c = c.Add(gamma)
	}
	label := chart.Label(c, 0)
	assert.True(t, utf8.ValidString(label))
	assert.True(t, strings.HasSuffix(label, " ..."))
	assert.Equal(t, 54, utf8.RuneCountInString(label))
}

type plain struct{}

func (plain) Eval(x float64) float64 { return x }

func TestLabel_NotStringer(t *testing.T) {
	assert.Equal(t, "f2", chart.Label(plain{}, 2))
}

// ============================================================
// Plot and Save
// ============================================================

func TestPlot_NoSeries(t *testing.T) {
	p, err := chart.New()
	require.NoError(t, err)
	_, err = p.Plot()
	assert.ErrorIs(t, err, chart.ErrNoSeries)
}

func TestPlot_Title(t *testing.T) {
	p, err := chart.New(-2, 2)
	require.NoError(t, err)
	p.Title = "trig"
	plt, err := p.Plot(curves.Sin, curves.Cos)
	require.NoError(t, err)
	assert.Equal(t, "trig", plt.Title.Text)
	assert.Equal(t, "x", plt.X.Label.Text)
}

func TestSave_PNG(t *testing.T) {
	p, err := chart.New(-3, 3)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "curve.png")
	require.NoError(t, p.Save(path, curves.X.Pow(2), curves.NewIntegral(curves.X, 0)))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
