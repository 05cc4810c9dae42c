// Package density maps a content density score to step sizes for the
// auto-formatter's linear search.
//
// Sparse content tolerates large jumps: convergence is fast and there is no
// risk of overshooting far past the boundary. Dense content needs fine
// control when growing, so a single step cannot jump from "fits" deep into
// overflow. Shrink steps run the other way: when content is dense and
// overflowing, the goal is to escape overflow quickly, so larger steps are
// safe. The grow and shrink tables are therefore deliberately asymmetric,
// not mirror images.
package density

import "math"

// Parameter identifies which of the two tunable layout parameters a step
// applies to.
type Parameter int

const (
	// FontSize is the base font size in pixels.
	FontSize Parameter = iota

	// LineHeight is the line-spacing multiplier.
	LineHeight
)

// String returns the parameter name for logs and traces.
func (p Parameter) String() string {
	switch p {
	case FontSize:
		return "font-size"
	case LineHeight:
		return "line-height"
	default:
		return "unknown"
	}
}

// Direction identifies whether a step grows or shrinks its parameter.
type Direction int

const (
	// Grow increases the parameter (expansion mode).
	Grow Direction = iota

	// Shrink decreases the parameter (reduction mode).
	Shrink
)

// String returns the direction name for logs and traces.
func (d Direction) String() string {
	switch d {
	case Grow:
		return "grow"
	case Shrink:
		return "shrink"
	default:
		return "unknown"
	}
}

// tier holds the step sizes for one density band. Bands are selected by
// score < Upper, checked in ascending order; the last tier is open-ended.
type tier struct {
	Upper      float64
	FontGrow   float64
	FontShrink float64
	LineGrow   float64
	LineShrink float64
}

// tiers is the density-to-step table. Tier boundaries are inclusive-low:
// a score of exactly 5 falls into the second band.
var tiers = []tier{
	{Upper: 5, FontGrow: 4.0, FontShrink: 0.5, LineGrow: 0.20, LineShrink: 0.05},
	{Upper: 15, FontGrow: 2.0, FontShrink: 1.0, LineGrow: 0.10, LineShrink: 0.05},
	{Upper: 25, FontGrow: 1.0, FontShrink: 1.0, LineGrow: 0.05, LineShrink: 0.10},
	{Upper: math.Inf(1), FontGrow: 0.5, FontShrink: 2.0, LineGrow: 0.02, LineShrink: 0.15},
}

// StepSize returns the linear step for the given density score, parameter,
// and direction.
//
// Grow steps are non-increasing in score: the denser the content, the more
// cautiously the formatter grows. Shrink steps are non-decreasing in score
// for line height and font size above the sparse band, so overflowing dense
// content escapes quickly.
func StepSize(score float64, param Parameter, dir Direction) float64 {
	t := tiers[len(tiers)-1]
	for _, candidate := range tiers {
		if score < candidate.Upper {
			t = candidate
			break
		}
	}

	switch {
	case param == FontSize && dir == Grow:
		return t.FontGrow
	case param == FontSize && dir == Shrink:
		return t.FontShrink
	case param == LineHeight && dir == Grow:
		return t.LineGrow
	default:
		return t.LineShrink
	}
}

// MinStep returns the smallest step the table can produce for a parameter
// and direction across all density bands. Useful for bounding how many
// linear steps a reduction can take before hitting a floor.
func MinStep(param Parameter, dir Direction) float64 {
	min := math.Inf(1)
	for _, t := range tiers {
		var v float64
		switch {
		case param == FontSize && dir == Grow:
			v = t.FontGrow
		case param == FontSize && dir == Shrink:
			v = t.FontShrink
		case param == LineHeight && dir == Grow:
			v = t.LineGrow
		default:
			v = t.LineShrink
		}
		if v < min {
			min = v
		}
	}
	return min
}
