package oracle

import (
	"testing"

	"github.com/typeset-tools/autofit/pkg/layout"
)

func newTestEstimator() *Estimator {
	return NewEstimator(DefaultGeometry(), layout.ContentProfile{ItemCount: 40, GroupCount: 4})
}

func TestEstimatorOverflowsAtExtremes(t *testing.T) {
	e := newTestEstimator()

	small := layout.Parameters{FontSizePx: 8, LineSpacing: 0.1, Columns: 2}
	if e.Overflows(small) {
		t.Errorf("minimal parameters should fit: content height %.0f, page %v",
			e.ContentHeight(small), e.Geometry.HeightPx)
	}

	huge := layout.Parameters{FontSizePx: 48, LineSpacing: 1.0, Columns: 2}
	if !e.Overflows(huge) {
		t.Errorf("maximal parameters should overflow: content height %.0f", e.ContentHeight(huge))
	}
}

// The optimizer's whole contract rests on per-parameter monotonicity:
// growing either parameter must never turn an overflowing layout into a
// fitting one.
func TestEstimatorMonotonicity(t *testing.T) {
	e := newTestEstimator()

	t.Run("FontSize", func(t *testing.T) {
		for _, spacing := range []float64{0.1, 0.4, 0.8} {
			overflowed := false
			for font := 8.0; font <= 48.0; font += 0.25 {
				p := layout.Parameters{FontSizePx: font, LineSpacing: spacing, Columns: 2}
				if e.Overflows(p) {
					overflowed = true
				} else if overflowed {
					t.Fatalf("overflow resolved by growing font to %.2f at spacing %.2f", font, spacing)
				}
			}
		}
	})

	t.Run("LineSpacing", func(t *testing.T) {
		for _, font := range []float64{10, 20, 35} {
			overflowed := false
			for spacing := 0.1; spacing <= 1.0; spacing += 0.005 {
				p := layout.Parameters{FontSizePx: font, LineSpacing: spacing, Columns: 2}
				if e.Overflows(p) {
					overflowed = true
				} else if overflowed {
					t.Fatalf("overflow resolved by growing spacing to %.3f at font %.1f", spacing, font)
				}
			}
		}
	})
}

func TestEstimatorMoreColumnsFitMore(t *testing.T) {
	e := newTestEstimator()
	p := layout.Parameters{FontSizePx: 18, LineSpacing: 0.4, Columns: 1}

	threeColParams := p
	threeColParams.Columns = 3

	oneCol := e.ContentHeight(p)
	threeCol := e.ContentHeight(threeColParams)

	if threeCol >= oneCol {
		t.Errorf("three columns should stack lower than one: 1 col = %.0f, 3 col = %.0f",
			oneCol, threeCol)
	}
}

func TestEstimatorSlackBand(t *testing.T) {
	e := newTestEstimator()
	e.SlackPx = 0

	// Find a parameter point right at the boundary, then confirm a slack
	// band flips it back to fitting.
	var boundary layout.Parameters
	found := false
	for font := 8.0; font <= 48.0; font += 0.1 {
		p := layout.Parameters{FontSizePx: font, LineSpacing: 0.3, Columns: 2}
		if e.Overflows(p) {
			boundary = p
			found = true
			break
		}
	}
	if !found {
		t.Skip("no overflow boundary in range for this profile")
	}

	overhang := e.ContentHeight(boundary) - (e.Geometry.HeightPx - 2*e.Geometry.PaddingPx)
	e.SlackPx = overhang + 1
	if e.Overflows(boundary) {
		t.Errorf("slack of %.1fpx should absorb overhang of %.1fpx", e.SlackPx, overhang)
	}
}

func TestDefaultGeometryUsable(t *testing.T) {
	g := DefaultGeometry()
	w, h := g.usable()
	if w != g.WidthPx-2*g.PaddingPx || h != g.HeightPx-2*g.PaddingPx {
		t.Errorf("usable() = (%v, %v), want padding subtracted on both sides", w, h)
	}
}
