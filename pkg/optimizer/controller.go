// Package optimizer implements the adaptive layout auto-formatter: a
// constrained search over base font size and line-spacing multiplier that
// fills a fixed page without overflowing it while maximizing legibility.
//
// # Architecture
//
// The controller is a phase/mode state machine driven one proposal at a
// time. The caller owns the loop: it renders a proposal, asks the overflow
// oracle whether it fits, and feeds the boolean back into the next Step
// call. The controller itself never calls the oracle from Step, with one
// exception: when a phase's linear stepping has bracketed a boundary, the
// proposal mechanism is promoted to a bisection whose probe count is known
// in advance, and the bisection probes the oracle directly.
//
//	driver loop:                 controller:
//	  render(params)
//	  overflowed := oracle(params)
//	  res := ctrl.Step(params, state, overflowed)
//	  params, state = res.Params, res.State
//	  repeat while res.Outcome == Continue
//
// Step is a pure function of (params, state, oracle answer) apart from the
// promoted bisection; all run state lives in the caller-owned [State].
// [Controller.Solve] wraps the loop for callers that do not need
// incremental feedback.
package optimizer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/typeset-tools/autofit/pkg/density"
	"github.com/typeset-tools/autofit/pkg/errors"
	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/observability"
	"github.com/typeset-tools/autofit/pkg/oracle"
	"github.com/typeset-tools/autofit/pkg/search"
)

// promoteAfter is how many accepted linear proposals a phase tolerates
// before the proposal mechanism is promoted to bisection. Promotion is
// local to a phase and resets on every phase transition.
const promoteAfter = 3

// boundEps absorbs float rounding when comparing a parameter against its
// range floor or ceiling.
const boundEps = 1e-9

// Controller drives one optimization run. It is stateless between calls
// except for the explicit State value threaded through by the caller, so a
// single Controller may serve many concurrent runs over different content.
type Controller struct {
	cfg     layout.RangeConfig
	profile layout.ContentProfile
	oracle  oracle.Oracle
	logger  *log.Logger
}

// New creates a controller for one content profile. The oracle is only
// called from promoted bisections and from Solve; a caller that drives
// Step manually may pass the same oracle it consults between steps.
// A nil logger falls back to log.Default().
func New(cfg layout.RangeConfig, profile layout.ContentProfile, orc oracle.Oracle, logger *log.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if orc == nil {
		return nil, errors.New(errors.ErrCodeInvalidParams, "oracle must not be nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{cfg: cfg, profile: profile, oracle: orc, logger: logger}, nil
}

// Config returns the controller's range configuration.
func (c *Controller) Config() layout.RangeConfig { return c.cfg }

// Profile returns the frozen content profile for this controller's runs.
func (c *Controller) Profile() layout.ContentProfile { return c.profile }

// Step advances a run by one proposal.
//
// params are the parameters most recently tested by the caller and
// overflowed is the oracle's answer for them. The result either carries the
// next proposal (Continue), the final accepted parameters (Done), or a
// failure (Failed). Terminal states are idempotent: further Step calls
// return the same outcome with unchanged parameters.
func (c *Controller) Step(params layout.Parameters, st State, overflowed bool) Result {
	switch st.Phase {
	case PhaseComplete:
		return Result{Outcome: Done, Params: params, State: st, Message: completeMessage(params)}
	case PhaseFailed:
		return Result{Outcome: Failed, Params: params, State: st, Message: failureMessage(st, params, c.cfg)}
	}

	st.Iterations++
	if st.Iterations > c.cfg.MaxIterations {
		return c.fail(params, st, errors.ErrCodeIterationBudget)
	}

	switch st.Mode {
	case ModeExpansion:
		return c.stepExpansion(params, st, overflowed)
	case ModeReduction:
		return c.stepReduction(params, st, overflowed)
	}

	// Unknown (phase, mode) combinations are a hard failure, never a
	// silent no-op.
	c.logger.Error("unhandled optimizer state", "phase", st.Phase, "mode", st.Mode)
	return c.fail(params, st, errors.ErrCodeInternal)
}

// =============================================================================
// Expansion
// =============================================================================

// stepExpansion grows one parameter at a time: font size first, then line
// spacing. A rejected proposal rolls back one step, marks the ceiling, and
// hands over to the next phase.
func (c *Controller) stepExpansion(params layout.Parameters, st State, overflowed bool) Result {
	score := layout.Density(c.profile, params.Columns)

	switch st.Phase {
	case PhaseFontSize:
		if overflowed {
			// The pending proposal overshot: roll back the last applied
			// increment to the value the oracle previously accepted.
			accepted := params.FontSizePx - st.LastStep
			if accepted < c.cfg.FontMin {
				accepted = c.cfg.FontMin
			}
			st.HitFontCeiling = true
			c.logger.Debug("font ceiling hit", "accepted", accepted, "rejected", params.FontSizePx)
			return c.enterLineExpansion(params.WithFontSize(accepted), st, score)
		}

		st.LastSafe = params.FontSizePx
		if st.LastStep > 0 {
			st.PhaseIterations++
		}

		if st.PhaseIterations >= promoteAfter {
			// Linear stepping is converging too slowly; bisect the rest of
			// the range in bounded time.
			value := c.bisect(&st, density.FontSize, params, st.LastSafe, c.cfg.FontMax, c.cfg.FontTolerance)
			st.HitFontCeiling = c.cfg.FontMax-value > c.cfg.FontTolerance
			return c.enterLineExpansion(params.WithFontSize(value), st, score)
		}

		step := density.StepSize(score, density.FontSize, density.Grow)
		proposed := params.FontSizePx + step
		if proposed > c.cfg.FontMax+boundEps {
			// No room for another step; move on without growing further.
			return c.enterLineExpansion(params, st, score)
		}
		st.LastStep = step
		return c.propose(params.WithFontSize(proposed), st, "growing font size to %.1fpx", proposed)

	case PhaseLineHeight:
		if overflowed {
			accepted := params.LineSpacing - st.LastStep
			if accepted < c.cfg.SpacingMin {
				accepted = c.cfg.SpacingMin
			}
			st.HitLineCeiling = true
			c.logger.Debug("line ceiling hit", "accepted", accepted, "rejected", params.LineSpacing)
			return c.complete(params.WithLineSpacing(accepted), st)
		}

		st.LastSafe = params.LineSpacing
		if st.LastStep > 0 {
			st.PhaseIterations++
		}

		if st.PhaseIterations >= promoteAfter {
			value := c.bisect(&st, density.LineHeight, params, st.LastSafe, c.cfg.SpacingMax, c.cfg.SpacingTolerance)
			st.HitLineCeiling = c.cfg.SpacingMax-value > c.cfg.SpacingTolerance
			return c.complete(params.WithLineSpacing(value), st)
		}

		step := density.StepSize(score, density.LineHeight, density.Grow)
		proposed := params.LineSpacing + step
		if proposed > c.cfg.SpacingMax+boundEps {
			return c.complete(params, st)
		}
		st.LastStep = step
		return c.propose(params.WithLineSpacing(proposed), st, "growing line spacing to %.2f", proposed)
	}

	c.logger.Error("unhandled expansion phase", "phase", st.Phase)
	return c.fail(params, st, errors.ErrCodeInternal)
}

// enterLineExpansion transitions an expansion run into the line-spacing
// phase and immediately issues the first proposal for it. The parameters
// passed in are known safe: either rolled back to the previous accepted
// value or confirmed by a bisection probe.
func (c *Controller) enterLineExpansion(params layout.Parameters, st State, score float64) Result {
	observability.Optimizer().OnPhaseTransition(context.Background(), PhaseFontSize.String(), PhaseLineHeight.String())
	st.enterPhase(PhaseLineHeight)
	st.LastSafe = params.LineSpacing

	step := density.StepSize(score, density.LineHeight, density.Grow)
	proposed := params.LineSpacing + step
	if proposed > c.cfg.SpacingMax+boundEps {
		// Spacing already at (or within one step of) its ceiling.
		return c.complete(params, st)
	}
	st.LastStep = step
	return c.propose(params.WithLineSpacing(proposed), st, "growing line spacing to %.2f", proposed)
}

// =============================================================================
// Reduction
// =============================================================================

// stepReduction shrinks line spacing first (the smaller perceptual cost),
// then font size, until overflow resolves or both floors are hit.
func (c *Controller) stepReduction(params layout.Parameters, st State, overflowed bool) Result {
	if !overflowed {
		// Overflow resolved; the currently tested parameters are final.
		return c.complete(params, st)
	}

	score := layout.Density(c.profile, params.Columns)

	switch st.Phase {
	case PhaseLineHeight:
		if params.LineSpacing > c.cfg.SpacingMin+boundEps {
			step := density.StepSize(score, density.LineHeight, density.Shrink)
			proposed := params.LineSpacing - step
			if proposed < c.cfg.SpacingMin {
				proposed = c.cfg.SpacingMin
			}
			st.LastStep = params.LineSpacing - proposed
			return c.propose(params.WithLineSpacing(proposed), st, "shrinking line spacing to %.2f", proposed)
		}

		// Spacing floor reached and overflow persists: shrink the font.
		observability.Optimizer().OnPhaseTransition(context.Background(), PhaseLineHeight.String(), PhaseFontSize.String())
		st.enterPhase(PhaseFontSize)
		fallthrough

	case PhaseFontSize:
		if params.FontSizePx > c.cfg.FontMin+boundEps {
			step := density.StepSize(score, density.FontSize, density.Shrink)
			proposed := params.FontSizePx - step
			if proposed < c.cfg.FontMin {
				proposed = c.cfg.FontMin
			}
			st.LastStep = params.FontSizePx - proposed
			return c.propose(params.WithFontSize(proposed), st, "shrinking font size to %.1fpx", proposed)
		}

		// Both parameters at their floors with overflow still present.
		return c.fail(params, st, errors.ErrCodeBoundsExhausted)
	}

	c.logger.Error("unhandled reduction phase", "phase", st.Phase)
	return c.fail(params, st, errors.ErrCodeInternal)
}

// =============================================================================
// Helpers
// =============================================================================

// bisect refines the safe boundary of one parameter between its last known
// safe value and the range ceiling. The probe count is bounded and known
// before the search starts, so calling the oracle from inside a Step is
// acceptable here. A verification probe that contradicts the search
// invariant is counted and reported, but the best estimate is kept.
func (c *Controller) bisect(st *State, param density.Parameter, base layout.Parameters, min, max, tolerance float64) float64 {
	st.Search = SearchBisect

	isSafe := func(v float64) bool {
		var candidate layout.Parameters
		if param == density.FontSize {
			candidate = base.WithFontSize(v)
		} else {
			candidate = base.WithLineSpacing(v)
		}
		return !c.oracle(candidate)
	}

	value, ok := search.FindBoundaryVerified(min, max, tolerance, isSafe, true)
	observability.Optimizer().OnBoundarySearch(context.Background(), param.String(), min, max,
		search.MaxProbes(min, max, tolerance), value)

	if !ok {
		st.ContractViolations++
		observability.Optimizer().OnContractViolation(context.Background(), param.String(), value)
		c.logger.Warn("oracle contradicted boundary search on re-check",
			"parameter", param, "value", value)
	}

	c.logger.Debug("boundary search converged", "parameter", param, "value", value,
		"min", min, "max", max)
	return value
}

// propose wraps the next candidate into a Continue result.
func (c *Controller) propose(params layout.Parameters, st State, format string, args ...any) Result {
	c.logger.Debug("proposal", "phase", st.Phase, "mode", st.Mode,
		"font", params.FontSizePx, "spacing", params.LineSpacing)
	return Result{
		Outcome: Continue,
		Params:  params,
		State:   st,
		Message: fmt.Sprintf(format, args...),
	}
}

// complete marks the run done with the given accepted parameters. The
// sub-mode resets like on any phase transition, so terminal trace entries
// read the same whether the last phase ended linearly or via bisection.
func (c *Controller) complete(params layout.Parameters, st State) Result {
	st.Phase = PhaseComplete
	st.Search = SearchLinear
	return Result{Outcome: Done, Params: params, State: st, Message: completeMessage(params)}
}

// fail marks the run failed with the given code.
func (c *Controller) fail(params layout.Parameters, st State, code errors.Code) Result {
	st.Phase = PhaseFailed
	st.FailureCode = code
	return Result{Outcome: Failed, Params: params, State: st, Message: failureMessage(st, params, c.cfg)}
}
