// Package history persists optimization runs for later inspection.
//
// Each completed or failed run is recorded as a [Run] holding its inputs,
// the final parameters, and the full step trace. The trace is what makes a
// run debuggable after the fact: it shows every proposal the controller
// made and what the overflow oracle said about it.
//
// Two backends implement the [Store] interface:
//   - memory: in-process storage for the CLI and tests
//   - mongo: MongoDB-backed storage for shared API deployments
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/optimizer"
	"github.com/typeset-tools/autofit/pkg/oracle"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Run records one optimization run.
type Run struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// Inputs.
	Profile  layout.ContentProfile `json:"profile" bson:"profile"`
	Geometry oracle.PageGeometry   `json:"geometry" bson:"geometry"`
	Ranges   layout.RangeConfig    `json:"ranges" bson:"ranges"`
	Initial  layout.Parameters     `json:"initial" bson:"initial"`

	// Results.
	Outcome            string                `json:"outcome" bson:"outcome"`
	Message            string                `json:"message,omitempty" bson:"message,omitempty"`
	Final              layout.Parameters     `json:"final" bson:"final"`
	Steps              []optimizer.TraceStep `json:"steps" bson:"steps"`
	ContractViolations int                   `json:"contract_violations" bson:"contract_violations"`
	DurationMS         int64                 `json:"duration_ms" bson:"duration_ms"`
}

// New creates a run record for the given inputs with a fresh ID and
// timestamp. The result fields are filled in by the caller once the run
// finishes.
func New(profile layout.ContentProfile, geom oracle.PageGeometry, ranges layout.RangeConfig, initial layout.Parameters) *Run {
	return &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Profile:   profile,
		Geometry:  geom,
		Ranges:    ranges,
		Initial:   initial,
	}
}

// Store is the interface for run storage backends.
type Store interface {
	// Insert stores a run record.
	Insert(ctx context.Context, run *Run) error

	// Get retrieves a run by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns the most recent runs, newest first, up to limit.
	// A non-positive limit applies the backend default.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// DefaultListLimit bounds List when the caller passes no limit.
const DefaultListLimit = 50
