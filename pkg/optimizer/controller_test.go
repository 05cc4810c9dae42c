package optimizer

import (
	"math"
	"strings"
	"testing"

	"github.com/typeset-tools/autofit/pkg/errors"
	"github.com/typeset-tools/autofit/pkg/layout"
)

// thresholdOracle overflows when either parameter exceeds its threshold.
// It is monotonic per parameter, as the controller's contract requires.
func thresholdOracle(maxFont, maxSpacing float64) func(layout.Parameters) bool {
	return func(p layout.Parameters) bool {
		return p.FontSizePx > maxFont || p.LineSpacing > maxSpacing
	}
}

func newTestController(t *testing.T, profile layout.ContentProfile, orc func(layout.Parameters) bool) *Controller {
	t.Helper()
	ctrl, err := New(layout.DefaultRanges(), profile, orc, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ctrl
}

func TestNewState(t *testing.T) {
	tests := []struct {
		name            string
		initialOverflow bool
		wantPhase       Phase
		wantMode        Mode
	}{
		{name: "FitsStartsExpansionAtFont", initialOverflow: false, wantPhase: PhaseFontSize, wantMode: ModeExpansion},
		{name: "OverflowStartsReductionAtLine", initialOverflow: true, wantPhase: PhaseLineHeight, wantMode: ModeReduction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewState(tt.initialOverflow)
			if st.Phase != tt.wantPhase {
				t.Errorf("Phase = %v, want %v", st.Phase, tt.wantPhase)
			}
			if st.Mode != tt.wantMode {
				t.Errorf("Mode = %v, want %v", st.Mode, tt.wantMode)
			}
			if st.Search != SearchLinear {
				t.Errorf("Search = %v, want linear", st.Search)
			}
		})
	}
}

// Scenario: density 23 (40 items, 4 groups, 2 columns) gives a font grow
// step of 1.0. The oracle accepts up to 22px. Three linear steps bracket
// the boundary, the fourth call promotes to bisection, and the accepted
// value lands within tolerance of 22 with the ceiling flag set.
func TestExpansionFontPhasePromotesToBisect(t *testing.T) {
	profile := layout.ContentProfile{ItemCount: 40, GroupCount: 4}
	ctrl := newTestController(t, profile, thresholdOracle(22, 0.45))

	params := layout.Parameters{FontSizePx: 14, LineSpacing: 0.3, Columns: 2}
	st := NewState(false)

	// Seed call accepts the current font size and proposes the first step.
	res := ctrl.Step(params, st, false)
	if res.Outcome != Continue || res.Params.FontSizePx != 15 {
		t.Fatalf("seed step: outcome %v, font %v, want Continue/15", res.Outcome, res.Params.FontSizePx)
	}

	// Two more accepted linear steps.
	res = ctrl.Step(res.Params, res.State, false)
	if res.Params.FontSizePx != 16 {
		t.Fatalf("step 2 proposed %v, want 16", res.Params.FontSizePx)
	}
	res = ctrl.Step(res.Params, res.State, false)
	if res.Params.FontSizePx != 17 {
		t.Fatalf("step 3 proposed %v, want 17", res.Params.FontSizePx)
	}

	// Third accepted proposal reaches the promotion threshold: this call
	// bisects [17, 48] and transitions to the line phase.
	res = ctrl.Step(res.Params, res.State, false)
	if res.State.Phase != PhaseLineHeight {
		t.Fatalf("phase = %v, want line-height after promotion", res.State.Phase)
	}
	font := res.Params.FontSizePx
	if font > 22 || font < 22-layout.FontTolerance {
		t.Errorf("accepted font %v, want within %.1f of 22", font, layout.FontTolerance)
	}
	if !res.State.HitFontCeiling {
		t.Error("HitFontCeiling should be set: the boundary is below the range max")
	}

	// The first line-phase proposal grows spacing by the dense-tier step.
	if got := res.Params.LineSpacing; math.Abs(got-0.35) > 1e-9 {
		t.Errorf("line proposal = %v, want 0.35 (0.30 + 0.05)", got)
	}
}

// When the oracle rejects a proposal before promotion kicks in, the
// controller rolls back exactly one step and hands over to the line phase.
func TestExpansionFontPhaseBackoff(t *testing.T) {
	profile := layout.ContentProfile{ItemCount: 40, GroupCount: 4}
	ctrl := newTestController(t, profile, thresholdOracle(16, 0.45))

	params := layout.Parameters{FontSizePx: 14, LineSpacing: 0.3, Columns: 2}
	st := NewState(false)

	res := ctrl.Step(params, st, false) // proposes 15
	res = ctrl.Step(res.Params, res.State, false) // proposes 16
	res = ctrl.Step(res.Params, res.State, false) // proposes 17

	// 17 overflows: roll back to 16, flag the ceiling, enter line phase.
	res = ctrl.Step(res.Params, res.State, true)
	if res.Params.FontSizePx != 16 {
		t.Errorf("rolled-back font = %v, want 16", res.Params.FontSizePx)
	}
	if !res.State.HitFontCeiling {
		t.Error("HitFontCeiling should be set after backoff")
	}
	if res.State.Phase != PhaseLineHeight {
		t.Errorf("phase = %v, want line-height", res.State.Phase)
	}
	if res.State.Search != SearchLinear {
		t.Error("phase transition must reset the search sub-mode to linear")
	}
}

// Growing a parameter to within one step of its range ceiling moves on
// without growing further rather than proposing an out-of-range value.
func TestExpansionRespectsRangeCeiling(t *testing.T) {
	profile := layout.ContentProfile{ItemCount: 4, GroupCount: 0} // density 2: font step 4.0
	ctrl := newTestController(t, profile, func(layout.Parameters) bool { return false })

	params := layout.Parameters{FontSizePx: 46, LineSpacing: 0.95, Columns: 2}
	st := NewState(false)

	// 46 + 4 exceeds 48: the controller must not propose it. With spacing
	// at 0.95 and a grow step of 0.2 the line phase has no room either, so
	// the run completes immediately.
	res := ctrl.Step(params, st, false)
	if res.Outcome != Done {
		t.Fatalf("outcome = %v, want Done", res.Outcome)
	}
	if res.Params.FontSizePx != 46 || res.Params.LineSpacing != 0.95 {
		t.Errorf("params = %+v, want unchanged 46/0.95", res.Params)
	}
}

// Scenario: both phases promote to bisection (oracle accepts up to 22px
// and 0.45). The line-phase bisection ends the run, and the terminal state
// must read the same as any fresh phase: search mode back at linear.
func TestExpansionLinePhaseBisectNormalizesSearch(t *testing.T) {
	orc := thresholdOracle(22, 0.45)
	profile := layout.ContentProfile{ItemCount: 40, GroupCount: 4}
	ctrl := newTestController(t, profile, orc)

	params := layout.Parameters{FontSizePx: 14, LineSpacing: 0.3, Columns: 2}
	st := NewState(false)

	var res Result
	for i := 0; i < 12; i++ {
		res = ctrl.Step(params, st, orc(params))
		params, st = res.Params, res.State
		if res.Outcome != Continue {
			break
		}
	}

	if res.Outcome != Done {
		t.Fatalf("outcome = %v, want Done", res.Outcome)
	}
	if st.Phase != PhaseComplete {
		t.Fatalf("phase = %v, want complete", st.Phase)
	}
	if st.Search != SearchLinear {
		t.Errorf("terminal search mode = %v, want linear", st.Search)
	}
	if !st.HitFontCeiling || !st.HitLineCeiling {
		t.Errorf("ceiling flags = font %v line %v, want both set", st.HitFontCeiling, st.HitLineCeiling)
	}
	spacing := res.Params.LineSpacing
	if spacing > 0.45 || spacing < 0.45-layout.SpacingTolerance {
		t.Errorf("accepted spacing %v, want within %.2f of 0.45", spacing, layout.SpacingTolerance)
	}
}

// Scenario: density 32 (64 items, 2 columns) selects the very dense
// shrink tier: line shrink 0.15, font shrink 2.0. From spacing 0.4 the
// reduction visits 0.25, clamps at the 0.1 floor, then switches to the
// font phase and proposes 18.
func TestReductionWalksLineThenFont(t *testing.T) {
	profile := layout.ContentProfile{ItemCount: 64, GroupCount: 0}
	alwaysOverflow := func(layout.Parameters) bool { return true }
	ctrl := newTestController(t, profile, alwaysOverflow)

	params := layout.Parameters{FontSizePx: 20, LineSpacing: 0.4, Columns: 2}
	st := NewState(true)

	res := ctrl.Step(params, st, true)
	if math.Abs(res.Params.LineSpacing-0.25) > 1e-9 {
		t.Fatalf("first shrink proposed %v, want 0.25", res.Params.LineSpacing)
	}

	res = ctrl.Step(res.Params, res.State, true)
	if math.Abs(res.Params.LineSpacing-0.1) > 1e-9 {
		t.Fatalf("second shrink proposed %v, want clamp to 0.1", res.Params.LineSpacing)
	}

	res = ctrl.Step(res.Params, res.State, true)
	if res.State.Phase != PhaseFontSize {
		t.Fatalf("phase = %v, want font-size after spacing floor", res.State.Phase)
	}
	if math.Abs(res.Params.FontSizePx-18) > 1e-9 {
		t.Errorf("font proposal = %v, want 18", res.Params.FontSizePx)
	}

	// Overflow resolves: the tested parameters are final.
	res = ctrl.Step(res.Params, res.State, false)
	if res.Outcome != Done {
		t.Errorf("outcome = %v, want Done once overflow resolves", res.Outcome)
	}
}

// Scenario: both parameters at their floors with overflow still present is
// terminal and must name both exhausted parameters.
func TestReductionBothFloorsFails(t *testing.T) {
	profile := layout.ContentProfile{ItemCount: 64, GroupCount: 0}
	ctrl := newTestController(t, profile, func(layout.Parameters) bool { return true })

	params := layout.Parameters{FontSizePx: 8, LineSpacing: 0.1, Columns: 2}
	st := NewState(true)

	res := ctrl.Step(params, st, true)
	if res.Outcome != Failed {
		t.Fatalf("outcome = %v, want Failed", res.Outcome)
	}
	if res.State.FailureCode != errors.ErrCodeBoundsExhausted {
		t.Errorf("failure code = %v, want BOUNDS_EXHAUSTED", res.State.FailureCode)
	}
	for _, want := range []string{"font size", "line spacing"} {
		if !strings.Contains(res.Message, want) {
			t.Errorf("failure message should name %q, got %q", want, res.Message)
		}
	}
}

// Terminal states are idempotent: repeated Step calls return the same
// outcome, message, and unchanged parameters.
func TestTerminalStatesAreIdempotent(t *testing.T) {
	profile := layout.ContentProfile{ItemCount: 64, GroupCount: 0}
	ctrl := newTestController(t, profile, func(layout.Parameters) bool { return true })

	t.Run("Failed", func(t *testing.T) {
		params := layout.Parameters{FontSizePx: 8, LineSpacing: 0.1, Columns: 2}
		first := ctrl.Step(params, NewState(true), true)

		for i := 0; i < 3; i++ {
			again := ctrl.Step(first.Params, first.State, true)
			if again.Outcome != Failed || again.Params != first.Params || again.Message != first.Message {
				t.Fatalf("repeat %d diverged: %+v vs %+v", i, again, first)
			}
		}
	})

	t.Run("Complete", func(t *testing.T) {
		fits := newTestController(t, profile, func(layout.Parameters) bool { return false })
		params := layout.Parameters{FontSizePx: 20, LineSpacing: 0.4, Columns: 2}
		st := NewState(true)

		first := fits.Step(params, st, false) // overflow resolved immediately
		if first.Outcome != Done {
			t.Fatalf("outcome = %v, want Done", first.Outcome)
		}
		for i := 0; i < 3; i++ {
			again := fits.Step(first.Params, first.State, false)
			if again.Outcome != Done || again.Params != first.Params || again.Message != first.Message {
				t.Fatalf("repeat %d diverged: %+v vs %+v", i, again, first)
			}
		}
	})
}

// Exceeding the iteration budget aborts the run with a message distinct
// from the exhausted-bounds failure.
func TestIterationBudgetExceeded(t *testing.T) {
	cfg := layout.DefaultRanges()
	cfg.MaxIterations = 4

	profile := layout.ContentProfile{ItemCount: 64, GroupCount: 0}
	ctrl, err := New(cfg, profile, func(layout.Parameters) bool { return true }, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	params := layout.Parameters{FontSizePx: 48, LineSpacing: 1.0, Columns: 2}
	st := NewState(true)

	var res Result
	overflow := true
	for i := 0; i < 10; i++ {
		res = ctrl.Step(params, st, overflow)
		if res.Outcome != Continue {
			break
		}
		params, st = res.Params, res.State
	}

	if res.Outcome != Failed {
		t.Fatalf("outcome = %v, want Failed", res.Outcome)
	}
	if res.State.FailureCode != errors.ErrCodeIterationBudget {
		t.Errorf("failure code = %v, want ITERATION_BUDGET", res.State.FailureCode)
	}
	if strings.Contains(res.Message, "exhausted") {
		t.Errorf("budget message should be distinct from bounds exhaustion, got %q", res.Message)
	}
}

// An unhandled (phase, mode) combination is a hard failure, never a silent
// no-op.
func TestUnknownStateFails(t *testing.T) {
	profile := layout.ContentProfile{ItemCount: 10, GroupCount: 0}
	ctrl := newTestController(t, profile, func(layout.Parameters) bool { return false })

	st := NewState(false)
	st.Mode = Mode(99)

	res := ctrl.Step(layout.Parameters{FontSizePx: 14, LineSpacing: 0.3, Columns: 1}, st, false)
	if res.Outcome != Failed {
		t.Fatalf("outcome = %v, want Failed for unknown mode", res.Outcome)
	}
	if res.State.FailureCode != errors.ErrCodeInternal {
		t.Errorf("failure code = %v, want INTERNAL_ERROR", res.State.FailureCode)
	}
}

func TestNewValidatesInputs(t *testing.T) {
	profile := layout.ContentProfile{ItemCount: 10, GroupCount: 0}
	orc := func(layout.Parameters) bool { return false }

	if _, err := New(layout.DefaultRanges(), layout.ContentProfile{}, orc, nil); err == nil {
		t.Error("empty profile should be rejected")
	}

	badCfg := layout.DefaultRanges()
	badCfg.MaxIterations = 0
	if _, err := New(badCfg, profile, orc, nil); err == nil {
		t.Error("invalid ranges should be rejected")
	}

	if _, err := New(layout.DefaultRanges(), profile, nil, nil); err == nil {
		t.Error("nil oracle should be rejected")
	}
}
