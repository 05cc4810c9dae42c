package optimizer

import (
	"fmt"

	"github.com/typeset-tools/autofit/pkg/errors"
	"github.com/typeset-tools/autofit/pkg/layout"
)

// =============================================================================
// Enums
// =============================================================================

// Phase identifies which parameter the controller is currently searching,
// or that the run has reached a terminal state.
type Phase int

const (
	// PhaseFontSize searches the base font size.
	PhaseFontSize Phase = iota

	// PhaseLineHeight searches the line-spacing multiplier.
	PhaseLineHeight

	// PhaseComplete is terminal: the layout fits and no parameter can be
	// usefully changed further.
	PhaseComplete

	// PhaseFailed is terminal and non-recoverable: overflow cannot be
	// eliminated with the two tuned parameters, or the run was aborted.
	PhaseFailed
)

// String returns the phase name for logs and traces.
func (p Phase) String() string {
	switch p {
	case PhaseFontSize:
		return "font-size"
	case PhaseLineHeight:
		return "line-height"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends the run.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// Mode identifies the direction of a run. It is chosen once from the first
// oracle reading and never re-derived mid-run, even if content changes: the
// profile is frozen per run.
type Mode int

const (
	// ModeExpansion grows parameters toward the largest legible layout that
	// still fits.
	ModeExpansion Mode = iota

	// ModeReduction shrinks parameters until an overflowing layout fits.
	ModeReduction
)

// String returns the mode name for logs and traces.
func (m Mode) String() string {
	switch m {
	case ModeExpansion:
		return "expansion"
	case ModeReduction:
		return "reduction"
	default:
		return "unknown"
	}
}

// SearchMode is the proposal mechanism within a phase. Each phase starts
// linear and may be promoted to bisection; the promotion is local to the
// phase and resets on every phase transition.
type SearchMode int

const (
	// SearchLinear proposes fixed density-scaled steps.
	SearchLinear SearchMode = iota

	// SearchBisect refines the boundary with a bounded binary search.
	SearchBisect
)

// String returns the search-mode name for logs and traces.
func (s SearchMode) String() string {
	switch s {
	case SearchLinear:
		return "linear"
	case SearchBisect:
		return "bisect"
	default:
		return "unknown"
	}
}

// Outcome is the controller's verdict for one step.
type Outcome int

const (
	// Continue means the caller must re-render with the proposed parameters,
	// re-measure, and call Step again with the oracle's answer.
	Continue Outcome = iota

	// Done means the run completed; the returned parameters are final.
	Done

	// Failed means the run ended without a fitting layout; the message
	// explains why.
	Failed
)

// String returns the outcome name for logs and traces.
func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// State
// =============================================================================

// State is the caller-owned optimization state threaded through Step calls.
// The controller holds no hidden state: a run is fully described by its
// State value, and concurrent runs over different content are independent.
type State struct {
	Phase  Phase      `json:"phase" bson:"phase"`
	Mode   Mode       `json:"mode" bson:"mode"`
	Search SearchMode `json:"search" bson:"search"`

	// Iterations counts Step calls consumed by this run, for the budget cap.
	Iterations int `json:"iterations" bson:"iterations"`

	// PhaseIterations counts accepted linear proposals in the current
	// phase; reaching the promotion threshold switches Search to bisect.
	PhaseIterations int `json:"phase_iterations" bson:"phase_iterations"`

	// LastStep is the increment applied by the most recent proposal in the
	// current phase, used to roll back when the oracle rejects it.
	LastStep float64 `json:"last_step" bson:"last_step"`

	// LastSafe is the last value of the active parameter the oracle
	// confirmed safe.
	LastSafe float64 `json:"last_safe" bson:"last_safe"`

	HitFontCeiling bool `json:"hit_font_ceiling" bson:"hit_font_ceiling"`
	HitLineCeiling bool `json:"hit_line_ceiling" bson:"hit_line_ceiling"`

	// ContractViolations counts probes where the oracle contradicted its
	// own earlier answer, indicating a non-monotonic measurement.
	ContractViolations int `json:"contract_violations" bson:"contract_violations"`

	// FailureCode records why the run failed when Phase is PhaseFailed.
	FailureCode errors.Code `json:"failure_code,omitempty" bson:"failure_code,omitempty"`
}

// NewState creates the state for a fresh run from the initial oracle
// reading: overflow present starts a reduction, absent an expansion.
// Expansion begins with the font size (the larger legibility win);
// reduction begins with line spacing (the smaller perceptual cost).
func NewState(initialOverflow bool) State {
	if initialOverflow {
		return State{Phase: PhaseLineHeight, Mode: ModeReduction, Search: SearchLinear}
	}
	return State{Phase: PhaseFontSize, Mode: ModeExpansion, Search: SearchLinear}
}

// enterPhase resets the per-phase sub-state for a transition. The linear
// vs. bisect choice always restarts linear in a new phase.
func (s *State) enterPhase(p Phase) {
	s.Phase = p
	s.Search = SearchLinear
	s.PhaseIterations = 0
	s.LastStep = 0
	s.LastSafe = 0
}

// =============================================================================
// Result
// =============================================================================

// Result is the controller's output for one step.
type Result struct {
	Outcome Outcome           `json:"outcome" bson:"outcome"`
	Params  layout.Parameters `json:"params" bson:"params"`
	State   State             `json:"state" bson:"state"`
	Message string            `json:"message" bson:"message"`
}

// completeMessage describes a successful run for the final Result. Repeated
// Step calls on a terminal state rebuild the identical message, keeping
// terminal results idempotent.
func completeMessage(params layout.Parameters) string {
	return fmt.Sprintf("layout fits: font %.1fpx, line spacing %.2f", params.FontSizePx, params.LineSpacing)
}

// failureMessage describes a failed run from its recorded failure code.
func failureMessage(st State, params layout.Parameters, cfg layout.RangeConfig) string {
	switch st.FailureCode {
	case errors.ErrCodeBoundsExhausted:
		return fmt.Sprintf(
			"overflow persists with font size at %.0fpx and line spacing at %.1f: both parameters exhausted, reduce content or increase columns",
			cfg.FontMin, cfg.SpacingMin)
	case errors.ErrCodeIterationBudget:
		return fmt.Sprintf(
			"aborted after %d steps without converging: the overflow measurement may be unstable",
			cfg.MaxIterations)
	default:
		return fmt.Sprintf("optimization failed at font %.1fpx, line spacing %.2f",
			params.FontSizePx, params.LineSpacing)
	}
}
