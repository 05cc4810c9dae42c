// Package oracle defines the overflow predicate the auto-formatter searches
// against, plus a text-metrics reference implementation.
//
// The production oracle belongs to the rendering layer: it applies candidate
// parameters to the live document, re-renders, and compares scroll extent to
// client extent. That layer is external to this module, so the optimizer
// takes the oracle as an injected dependency. The [Estimator] in this
// package is the reference collaborator used by the CLI driver, the HTTP
// API's demo mode, and tests: a closed-form text-metrics model that is
// monotonic per parameter, as the optimizer's contract requires.
package oracle

import (
	"math"

	"github.com/typeset-tools/autofit/pkg/layout"
)

// Oracle reports whether the content overflows its container when rendered
// with the candidate parameters. The optimizer assumes the answer is
// monotonic per parameter: growing font size or line spacing never turns an
// overflowing layout into a fitting one.
type Oracle func(candidate layout.Parameters) bool

// =============================================================================
// Page Geometry
// =============================================================================

// PageGeometry describes the fixed container the content must fit into.
type PageGeometry struct {
	WidthPx   float64 `json:"width_px" bson:"width_px"`
	HeightPx  float64 `json:"height_px" bson:"height_px"`
	PaddingPx float64 `json:"padding_px" bson:"padding_px"`
}

// DefaultGeometry returns an A4-like portrait page at screen resolution.
func DefaultGeometry() PageGeometry {
	return PageGeometry{WidthPx: 1240, HeightPx: 1754, PaddingPx: 40}
}

// usable returns the content box after padding on both sides.
func (g PageGeometry) usable() (w, h float64) {
	w = g.WidthPx - 2*g.PaddingPx
	h = g.HeightPx - 2*g.PaddingPx
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// =============================================================================
// Estimator
// =============================================================================

// Estimator is a text-metrics model of the rendered document. It estimates
// wrapped line counts from average item length and the column width, then
// compares the stacked line height against the usable page height.
//
// The model is deliberately simple but strictly monotonic in both tuned
// parameters: a larger font widens glyphs (more wraps) and raises every
// line; larger spacing raises every line. That makes it a valid oracle for
// the boundary search and a faithful stand-in for the rendering layer in
// tests.
type Estimator struct {
	Geometry PageGeometry
	Profile  layout.ContentProfile

	// AvgItemChars is the average character count of one content item.
	AvgItemChars float64

	// GroupHeaderLines is how many line-heights one group header occupies,
	// including its surrounding whitespace.
	GroupHeaderLines float64

	// SlackPx widens the fit check so the oracle does not react to
	// sub-pixel measurement noise.
	SlackPx float64
}

// NewEstimator creates an estimator with default item metrics.
func NewEstimator(geom PageGeometry, profile layout.ContentProfile) *Estimator {
	return &Estimator{
		Geometry:         geom,
		Profile:          profile,
		AvgItemChars:     80,
		GroupHeaderLines: 2,
		SlackPx:          2,
	}
}

// avgGlyphAdvance approximates glyph width as a fraction of the font size.
// 0.55em is a reasonable average for proportional Latin text.
const avgGlyphAdvance = 0.55

// Overflows reports whether the profiled content overflows the page at the
// candidate parameters. Implements the [Oracle] contract.
func (e *Estimator) Overflows(p layout.Parameters) bool {
	return e.ContentHeight(p) > e.usableHeight()+e.SlackPx
}

// Oracle returns the estimator's overflow predicate as an [Oracle].
func (e *Estimator) Oracle() Oracle {
	return e.Overflows
}

// ContentHeight estimates the rendered height in pixels of the tallest
// column at the candidate parameters.
func (e *Estimator) ContentHeight(p layout.Parameters) float64 {
	columns := p.Columns
	if columns < 1 {
		columns = 1
	}

	usableW, _ := e.Geometry.usable()
	colWidth := usableW / float64(columns)

	charsPerLine := math.Floor(colWidth / (avgGlyphAdvance * p.FontSizePx))
	if charsPerLine < 1 {
		charsPerLine = 1
	}

	linesPerItem := math.Ceil(e.AvgItemChars / charsPerLine)
	totalLines := float64(e.Profile.ItemCount)*linesPerItem +
		float64(e.Profile.GroupCount)*e.GroupHeaderLines

	// Items distribute across columns; the tallest column carries the
	// ceiling share.
	linesPerColumn := math.Ceil(totalLines / float64(columns))

	lineHeight := p.FontSizePx * (1 + p.LineSpacing)
	return linesPerColumn * lineHeight
}

func (e *Estimator) usableHeight() float64 {
	_, h := e.Geometry.usable()
	return h
}
