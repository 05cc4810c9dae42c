package optimizer

import (
	"context"
	"time"

	"github.com/typeset-tools/autofit/pkg/errors"
	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/observability"
)

// TraceStep records one observation of a run for diagnostics: the tested
// parameters, the oracle's answer, and the controller's verdict.
type TraceStep struct {
	Step        int     `json:"step" bson:"step"`
	Phase       string  `json:"phase" bson:"phase"`
	Mode        string  `json:"mode" bson:"mode"`
	Search      string  `json:"search" bson:"search"`
	FontSizePx  float64 `json:"font_size_px" bson:"font_size_px"`
	LineSpacing float64 `json:"line_spacing" bson:"line_spacing"`
	Overflow    bool    `json:"overflow" bson:"overflow"`
	Outcome     string  `json:"outcome" bson:"outcome"`

	// Violations is the running count of oracle contract violations
	// observed up to and including this step.
	Violations int `json:"violations,omitempty" bson:"violations,omitempty"`
}

// Solve runs the optimization loop to completion against the controller's
// oracle and returns the final parameters together with the step trace.
//
// The run must be driven serially; Solve issues one Step at a time and
// feeds each oracle answer into the next. Cancellation stops the loop
// between steps and returns ctx.Err() with the best parameters so far.
// A Failed outcome is returned as a structured error carrying the
// controller's failure code.
func (c *Controller) Solve(ctx context.Context, initial layout.Parameters) (layout.Parameters, []TraceStep, error) {
	if err := initial.Validate(c.cfg); err != nil {
		return initial, nil, err
	}

	start := time.Now()
	overflowed := c.oracle(initial)
	st := NewState(overflowed)

	observability.Optimizer().OnRunStart(ctx, st.Mode.String(),
		c.profile.ItemCount, c.profile.GroupCount, initial.Columns)
	c.logger.Info("starting optimization",
		"mode", st.Mode, "items", c.profile.ItemCount, "groups", c.profile.GroupCount,
		"columns", initial.Columns, "overflow", overflowed)

	params := initial
	var trace []TraceStep

	for {
		select {
		case <-ctx.Done():
			observability.Optimizer().OnRunComplete(ctx, "cancelled", len(trace), time.Since(start), ctx.Err())
			return params, trace, ctx.Err()
		default:
		}

		res := c.Step(params, st, overflowed)
		st = res.State

		trace = append(trace, TraceStep{
			Step:        st.Iterations,
			Phase:       st.Phase.String(),
			Mode:        st.Mode.String(),
			Search:      st.Search.String(),
			FontSizePx:  res.Params.FontSizePx,
			LineSpacing: res.Params.LineSpacing,
			Overflow:    overflowed,
			Outcome:     res.Outcome.String(),
			Violations:  st.ContractViolations,
		})
		observability.Optimizer().OnStep(ctx, st.Phase.String(), st.Mode.String(),
			res.Params.FontSizePx, res.Params.LineSpacing, overflowed)

		switch res.Outcome {
		case Done:
			c.logger.Info("optimization complete",
				"font", res.Params.FontSizePx, "spacing", res.Params.LineSpacing,
				"steps", st.Iterations, "duration", time.Since(start).Round(time.Millisecond))
			observability.Optimizer().OnRunComplete(ctx, "done", len(trace), time.Since(start), nil)
			return res.Params, trace, nil

		case Failed:
			err := errors.New(st.FailureCode, "%s", res.Message)
			c.logger.Warn("optimization failed", "reason", res.Message, "steps", st.Iterations)
			observability.Optimizer().OnRunComplete(ctx, "failed", len(trace), time.Since(start), err)
			return res.Params, trace, err
		}

		params = res.Params
		overflowed = c.oracle(params)
	}
}

// Solve is the one-shot entry point: it builds a controller and runs it to
// completion with the given synchronous oracle. Callers that need
// incremental feedback between renders should construct a [Controller] and
// drive [Controller.Step] themselves.
func Solve(ctx context.Context, initial layout.Parameters, orc func(layout.Parameters) bool, profile layout.ContentProfile) (layout.Parameters, error) {
	ctrl, err := New(layout.DefaultRanges(), profile, orc, nil)
	if err != nil {
		return initial, err
	}
	params, _, err := ctrl.Solve(ctx, initial)
	return params, err
}
