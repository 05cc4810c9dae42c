// Package pkg provides the core libraries for autofit layout solving.
//
// # Overview
//
// Autofit tunes two continuous parameters of a fixed-column page layout,
// the base font size and the line-spacing multiplier, until the content
// fills the page without overflowing. The pkg directory is organized into
// three main areas:
//
//  1. Core solving ([optimizer], [search], [density], [layout], [oracle])
//  2. Infrastructure ([cache], [history], [errors], [observability])
//  3. Supporting ([buildinfo])
//
// # Architecture
//
// The typical data flow through a solve:
//
//	Content profile + page geometry
//	         ↓
//	    [layout] package (parameter ranges, initial guess)
//	         ↓
//	    [optimizer] package (expansion/reduction state machine)
//	         ↓
//	    [oracle] package (boolean overflow measurement)
//	         ↓
//	    Final parameters + step trace
//
// # Quick Start
//
// Solve a layout against the built-in text-metrics estimator:
//
//	import (
//	    "context"
//	    "github.com/typeset-tools/autofit/pkg/layout"
//	    "github.com/typeset-tools/autofit/pkg/optimizer"
//	    "github.com/typeset-tools/autofit/pkg/oracle"
//	)
//
//	profile := layout.ContentProfile{ItemCount: 40, GroupCount: 4}
//	est := oracle.NewEstimator(oracle.DefaultGeometry(), profile)
//
//	initial := layout.Parameters{FontSizePx: 14, LineSpacing: 0.3, Columns: 2}
//	final, err := optimizer.Solve(context.Background(), initial, est.Overflows, profile)
//
// # Main Packages
//
// ## Core Solving
//
// [optimizer] - The two-parameter search controller. A pure state machine
// steps through font and spacing phases in a fixed order per mode, with
// linear probing promoted to bisection after repeated accepted proposals.
// [optimizer.Controller.Solve] drives it against an overflow oracle.
//
// [search] - Boundary search over one continuous parameter: linear stepping
// with rollback plus interval bisection down to a tolerance.
//
// [density] - Content density scoring and the step-size tiers derived from
// it. Denser content takes smaller steps.
//
// [layout] - Shared parameter types: [layout.Parameters], [layout.RangeConfig],
// [layout.ContentProfile], and their validation.
//
// [oracle] - The overflow oracle contract plus a deterministic text-metrics
// estimator used by the CLI, the API server, and tests.
//
// ## Infrastructure
//
// [cache] - Solve-result caching keyed by a hash of the full solve input.
// Three backends: file (CLI), Redis (server), null (disabled).
//
// [history] - Persisted solve runs with full step traces. Memory and
// MongoDB stores behind one interface.
//
// [errors] - Structured errors with stable codes and user-facing messages.
//
// [observability] - Pluggable hook interfaces for solve, cache, and HTTP
// events, with no-op defaults.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/optimizer/...    # Specific package
//
// [optimizer]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/optimizer
// [search]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/search
// [density]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/density
// [layout]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/layout
// [oracle]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/oracle
// [cache]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/cache
// [history]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/history
// [errors]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/errors
// [observability]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/typeset-tools/autofit/pkg/buildinfo
package pkg
