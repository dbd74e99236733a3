package curves

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ============================================================
// Grids of sample points
// ============================================================

const (
	defaultGridPoints = 1000
	maxGridPoints     = 1 << 24
)

// ErrInvalidGrid is returned for grids that cannot reach their stop value.
var ErrInvalidGrid = errors.New("curves: invalid grid")

// Lin builds an ascending grid, stop excluded. When start is not below
// stop the grid is start alone.
//
//	Lin(v)                 // [0, v) or [v, 0) with 1000 points
//	Lin(start, stop)       // [start, stop) with 1000 points
//	Lin(start, stop, step) // start, start+step, ... while below stop
func Lin(bounds ...float64) ([]float64, error) {
	switch len(bounds) {
	case 1:
		if bounds[0] < 0 {
			return LinN(bounds[0], 0, defaultGridPoints)
		}
		return LinN(0, bounds[0], defaultGridPoints)
	case 2:
		return LinN(bounds[0], bounds[1], defaultGridPoints)
	case 3:
		return LinStep(bounds[0], bounds[1], bounds[2])
	}
	return nil, fmt.Errorf("%w: want 1 to 3 bounds, got %d", ErrInvalidGrid, len(bounds))
}

// LinN returns num evenly spaced points from start up to stop with stop
// excluded, i.e. with step (stop-start)/num. A grid that starts at or
// beyond stop holds start alone.
func LinN(start, stop float64, num int) ([]float64, error) {
	if num <= 0 || num > maxGridPoints {
		return nil, fmt.Errorf("%w: num must be in [1, %d], got %d", ErrInvalidGrid, maxGridPoints, num)
	}
	if math.IsNaN(start) || math.IsNaN(stop) || math.IsInf(start, 0) || math.IsInf(stop, 0) {
		return nil, fmt.Errorf("%w: bounds must be finite", ErrInvalidGrid)
	}
	if num == 1 || start >= stop {
		return []float64{start}, nil
	}
	step := (stop - start) / float64(num)
	return floats.Span(make([]float64, num), start, stop-step), nil
}

// LinStep accumulates step from start while the next point stays below
// stop. A grid that starts at or beyond stop holds start alone.
func LinStep(start, stop, step float64) ([]float64, error) {
	if math.IsNaN(start) || math.IsNaN(stop) || math.IsNaN(step) || math.IsInf(stop, 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: bounds and step must be numbers", ErrInvalidGrid)
	}
	if start < stop && step <= 0 || stop < start && start < start+step {
		return nil, fmt.Errorf("%w: step %s never reaches %s from %s",
			ErrInvalidGrid, formatFloat(step), formatFloat(stop), formatFloat(start))
	}
	if start < stop && (stop-start)/step > maxGridPoints {
		return nil, fmt.Errorf("%w: more than %d points", ErrInvalidGrid, maxGridPoints)
	}
	grid := []float64{start}
	for last := start; last+step < stop; {
		if last+step == last {
			return nil, fmt.Errorf("%w: step %s vanishes at %s", ErrInvalidGrid, formatFloat(step), formatFloat(last))
		}
		last += step
		grid = append(grid, last)
	}
	return grid, nil
}
