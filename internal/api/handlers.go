package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/typeset-tools/autofit/pkg/cache"
	"github.com/typeset-tools/autofit/pkg/errors"
	"github.com/typeset-tools/autofit/pkg/history"
	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/optimizer"
	"github.com/typeset-tools/autofit/pkg/oracle"
)

// solveRequest is the POST /v1/solve body. Geometry, ranges, and the
// starting point are optional; omitted sections use the defaults.
type solveRequest struct {
	Profile  layout.ContentProfile `json:"profile"`
	Geometry *oracle.PageGeometry  `json:"geometry,omitempty"`
	Ranges   *layout.RangeConfig   `json:"ranges,omitempty"`
	Initial  *layout.Parameters    `json:"initial,omitempty"`
	Columns  int                   `json:"columns,omitempty"`
}

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// listResponse is the GET /v1/runs body. Traces are stripped from the
// listing; fetch a single run for its trace.
type listResponse struct {
	Runs []*history.Run `json:"runs"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, errors.Wrap(errors.ErrCodeInvalidParams, err, "invalid request body"))
		return
	}

	geom := oracle.DefaultGeometry()
	if req.Geometry != nil {
		geom = *req.Geometry
	}
	ranges := layout.DefaultRanges()
	if req.Ranges != nil {
		ranges = *req.Ranges
	}

	columns := req.Columns
	if columns < 1 {
		columns = 1
	}
	initial := layout.Parameters{FontSizePx: 14, LineSpacing: 0.3, Columns: columns}
	if req.Initial != nil {
		initial = *req.Initial
	}

	if err := req.Profile.Validate(); err != nil {
		s.respondError(w, err)
		return
	}
	if err := ranges.Validate(); err != nil {
		s.respondError(w, err)
		return
	}
	if err := initial.Validate(ranges); err != nil {
		s.respondError(w, err)
		return
	}

	ctx := r.Context()
	key := s.keyer.SolveKey(cache.SolveKeyOpts{
		Profile:  req.Profile,
		Geometry: geom,
		Ranges:   ranges,
		Initial:  initial,
	})

	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var cached history.Run
		if err := json.Unmarshal(data, &cached); err == nil {
			s.respondJSON(w, http.StatusOK, &cached)
			return
		}
		// Corrupt entry: drop it and solve fresh.
		_ = s.cache.Delete(ctx, key)
	}

	est := oracle.NewEstimator(geom, req.Profile)
	ctrl, err := optimizer.New(ranges, req.Profile, est.Oracle(), s.logger)
	if err != nil {
		s.respondError(w, err)
		return
	}

	run := history.New(req.Profile, geom, ranges, initial)
	start := time.Now()
	final, trace, solveErr := ctrl.Solve(ctx, initial)

	run.Final = final
	run.Steps = trace
	run.DurationMS = time.Since(start).Milliseconds()
	if len(trace) > 0 {
		run.ContractViolations = trace[len(trace)-1].Violations
	}
	if solveErr != nil {
		run.Outcome = "failed"
		run.Message = errors.UserMessage(solveErr)
	} else {
		run.Outcome = "done"
	}

	if err := s.store.Insert(ctx, run); err != nil {
		s.logger.Error("store run", "id", run.ID, "err", err)
	}

	if solveErr != nil {
		// Failed runs are persisted for inspection but reported as errors
		// and never cached.
		s.respondError(w, solveErr)
		return
	}

	if data, err := json.Marshal(run); err == nil {
		if err := s.cache.Set(ctx, key, data, cache.TTLSolve); err != nil {
			s.logger.Warn("cache solve result", "err", err)
		}
	}

	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, errors.New(errors.ErrCodeInvalidParams, "limit must be a positive integer, got %q", raw))
			return
		}
		limit = n
	}

	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.respondError(w, errors.Wrap(errors.ErrCodeInternal, err, "list runs"))
		return
	}

	// Traces can be large; the listing carries summaries only.
	for _, run := range runs {
		run.Steps = nil
	}
	s.respondJSON(w, http.StatusOK, listResponse{Runs: runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateRunID(id); err != nil {
		s.respondError(w, err)
		return
	}

	run, err := s.store.Get(r.Context(), id)
	if err == history.ErrNotFound {
		s.respondError(w, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id))
		return
	}
	if err != nil {
		s.respondError(w, errors.Wrap(errors.ErrCodeInternal, err, "get run %s", id))
		return
	}

	s.respondJSON(w, http.StatusOK, run)
}

// =============================================================================
// Responses
// =============================================================================

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	s.respondJSON(w, statusForCode(code), errorResponse{
		Code:    code,
		Message: errors.UserMessage(err),
	})
}

// statusForCode maps structured error codes to HTTP status codes.
func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidParams, errors.ErrCodeInvalidProfile,
		errors.ErrCodeInvalidRange, errors.ErrCodeInvalidRunID:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeRunNotFound:
		return http.StatusNotFound
	case errors.ErrCodeBoundsExhausted, errors.ErrCodeIterationBudget,
		errors.ErrCodeOracleContract:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
