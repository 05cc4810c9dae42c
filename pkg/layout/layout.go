// Package layout defines the parameter space searched by the auto-formatter.
//
// The auto-formatter tunes exactly two continuous layout parameters, the
// base font size in pixels and the line-spacing multiplier, so that a fixed
// amount of content fills a fixed-size, fixed-column page without
// overflowing. This package holds the shared value types:
//
//   - [Parameters]: one candidate point in the search space
//   - [ContentProfile]: how much content must fit (frozen per run)
//   - [RangeConfig]: bounds, tolerances, and the iteration budget
//   - [Density]: the content-to-space score used to scale step sizes
//
// Parameters values are treated as immutable: every search step produces a
// fresh copy and never mutates a candidate in place.
package layout

import "github.com/typeset-tools/autofit/pkg/errors"

// Default search ranges and tolerances.
const (
	// FontMin and FontMax bound the base font size in pixels.
	FontMin = 8.0
	FontMax = 48.0

	// FontTolerance is the convergence tolerance for font-size boundary
	// searches.
	FontTolerance = 0.5

	// SpacingMin and SpacingMax bound the line-spacing multiplier.
	SpacingMin = 0.1
	SpacingMax = 1.0

	// SpacingTolerance is the convergence tolerance for line-spacing
	// boundary searches.
	SpacingTolerance = 0.01

	// DefaultMaxIterations caps the number of controller steps per run so a
	// flaky oracle cannot produce an unbounded loop.
	DefaultMaxIterations = 50
)

// =============================================================================
// Parameters
// =============================================================================

// Parameters is one candidate point in the two-dimensional search space.
// Columns is read-only input: the auto-formatter never changes the column
// count, it only proposes font size and line spacing for the given count.
type Parameters struct {
	FontSizePx  float64 `json:"font_size_px" bson:"font_size_px"`
	LineSpacing float64 `json:"line_spacing" bson:"line_spacing"`
	Columns     int     `json:"columns" bson:"columns"`
}

// WithFontSize returns a copy of p with the font size replaced.
func (p Parameters) WithFontSize(px float64) Parameters {
	p.FontSizePx = px
	return p
}

// WithLineSpacing returns a copy of p with the line spacing replaced.
func (p Parameters) WithLineSpacing(spacing float64) Parameters {
	p.LineSpacing = spacing
	return p
}

// Validate checks that p lies inside the given ranges and has a usable
// column count.
func (p Parameters) Validate(cfg RangeConfig) error {
	if p.Columns < 1 {
		return errors.New(errors.ErrCodeInvalidParams, "columns must be at least 1, got %d", p.Columns)
	}
	if p.FontSizePx < cfg.FontMin || p.FontSizePx > cfg.FontMax {
		return errors.New(errors.ErrCodeInvalidParams,
			"font size %.2fpx outside range [%.0f, %.0f]", p.FontSizePx, cfg.FontMin, cfg.FontMax)
	}
	if p.LineSpacing < cfg.SpacingMin || p.LineSpacing > cfg.SpacingMax {
		return errors.New(errors.ErrCodeInvalidParams,
			"line spacing %.2f outside range [%.1f, %.1f]", p.LineSpacing, cfg.SpacingMin, cfg.SpacingMax)
	}
	return nil
}

// =============================================================================
// ContentProfile
// =============================================================================

// ContentProfile is a read-only snapshot of how much content must fit.
// It is supplied once at the start of a run and assumed constant for that
// run; edits made while a run is in progress are not observed.
type ContentProfile struct {
	ItemCount  int `json:"item_count" bson:"item_count"`
	GroupCount int `json:"group_count" bson:"group_count"`
}

// Validate checks that the profile describes a non-empty, plausible amount
// of content.
func (c ContentProfile) Validate() error {
	if c.ItemCount < 0 {
		return errors.New(errors.ErrCodeInvalidProfile, "item count cannot be negative, got %d", c.ItemCount)
	}
	if c.GroupCount < 0 {
		return errors.New(errors.ErrCodeInvalidProfile, "group count cannot be negative, got %d", c.GroupCount)
	}
	if c.ItemCount == 0 && c.GroupCount == 0 {
		return errors.New(errors.ErrCodeInvalidProfile, "profile is empty: nothing to fit")
	}
	return nil
}

// Density computes the content-to-space score for a profile spread over the
// given number of columns:
//
//	items/columns + 1.5*groups/columns
//
// Groups are weighted heavier than items because each group carries a header
// and surrounding whitespace in addition to its rows. The score is never
// persisted; it is recomputed from the profile and column count on demand.
func Density(profile ContentProfile, columns int) float64 {
	if columns < 1 {
		columns = 1
	}
	cols := float64(columns)
	return float64(profile.ItemCount)/cols + 1.5*float64(profile.GroupCount)/cols
}

// =============================================================================
// RangeConfig
// =============================================================================

// RangeConfig holds the static bounds and tolerances for the two tunable
// parameters, plus the per-run iteration budget.
type RangeConfig struct {
	FontMin       float64 `json:"font_min" bson:"font_min"`
	FontMax       float64 `json:"font_max" bson:"font_max"`
	FontTolerance float64 `json:"font_tolerance" bson:"font_tolerance"`

	SpacingMin       float64 `json:"spacing_min" bson:"spacing_min"`
	SpacingMax       float64 `json:"spacing_max" bson:"spacing_max"`
	SpacingTolerance float64 `json:"spacing_tolerance" bson:"spacing_tolerance"`

	// MaxIterations caps controller steps per run. Exceeding it aborts the
	// run with a distinct failure instead of hanging.
	MaxIterations int `json:"max_iterations" bson:"max_iterations"`
}

// DefaultRanges returns the standard search ranges.
func DefaultRanges() RangeConfig {
	return RangeConfig{
		FontMin:          FontMin,
		FontMax:          FontMax,
		FontTolerance:    FontTolerance,
		SpacingMin:       SpacingMin,
		SpacingMax:       SpacingMax,
		SpacingTolerance: SpacingTolerance,
		MaxIterations:    DefaultMaxIterations,
	}
}

// Validate checks that the ranges are well-formed (non-empty intervals,
// positive tolerances, positive iteration budget).
func (cfg RangeConfig) Validate() error {
	if cfg.FontMin <= 0 || cfg.FontMax <= cfg.FontMin {
		return errors.New(errors.ErrCodeInvalidRange,
			"font range [%.2f, %.2f] is empty or inverted", cfg.FontMin, cfg.FontMax)
	}
	if cfg.SpacingMin <= 0 || cfg.SpacingMax <= cfg.SpacingMin {
		return errors.New(errors.ErrCodeInvalidRange,
			"spacing range [%.2f, %.2f] is empty or inverted", cfg.SpacingMin, cfg.SpacingMax)
	}
	if cfg.FontTolerance <= 0 || cfg.SpacingTolerance <= 0 {
		return errors.New(errors.ErrCodeInvalidRange, "tolerances must be positive")
	}
	if cfg.MaxIterations < 1 {
		return errors.New(errors.ErrCodeInvalidRange,
			"iteration budget must be at least 1, got %d", cfg.MaxIterations)
	}
	return nil
}
