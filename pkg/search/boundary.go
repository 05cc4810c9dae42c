// Package search provides a generic monotonic-boundary bisection primitive.
//
// The auto-formatter's linear stepping brackets a safe/unsafe boundary; this
// package refines that bracket to a configured tolerance with a known,
// bounded number of predicate probes. Unlike the step controller, the
// predicate here may call an expensive external oracle directly: the probe
// count is closed-form, so the total cost is known before the search starts.
package search

import "math"

// Predicate reports whether a candidate value is safe (does not overflow).
type Predicate func(value float64) bool

// MaxProbes returns the exact number of predicate probes FindBoundary
// performs for the given interval and tolerance:
//
//	ceil(log2((max-min)/tolerance))
//
// Returns 0 when the interval is already within tolerance.
func MaxProbes(min, max, tolerance float64) int {
	if tolerance <= 0 || max-min <= tolerance {
		return 0
	}
	return int(math.Ceil(math.Log2((max - min) / tolerance)))
}

// FindBoundary locates the threshold of a monotonic predicate by bisection.
//
// Precondition: isSafe must be monotonic over [min, max]. With preferMax
// true there exists a threshold t such that isSafe(v) holds for all v <= t
// and fails for all v > t; the search returns the largest known-safe value,
// within tolerance of t. With preferMax false the predicate is monotonic the
// other way (safe for v >= t) and the smallest known-safe value is returned.
//
// The search never probes the endpoints: min is assumed safe and max unsafe
// (swapped when preferMax is false). If the threshold lies outside the
// interval the result degrades to the corresponding endpoint.
//
// FindBoundary terminates after exactly [MaxProbes] probes. Violating the
// monotonicity precondition cannot make it loop; it only degrades the
// result (see [FindBoundaryVerified]).
func FindBoundary(min, max, tolerance float64, isSafe Predicate, preferMax bool) float64 {
	lo, hi := min, max

	for hi-lo > tolerance {
		mid := lo + (hi-lo)/2
		safe := isSafe(mid)

		if preferMax {
			if safe {
				lo = mid
			} else {
				hi = mid
			}
		} else {
			if safe {
				hi = mid
			} else {
				lo = mid
			}
		}
	}

	if preferMax {
		return lo
	}
	return hi
}

// FindBoundaryVerified runs FindBoundary and then re-probes the converged
// value once. A monotonic predicate always answers safe for the returned
// value; a contradicting answer means the predicate violated its contract
// (for example, a measurement oracle that flickers near the boundary).
//
// The best estimate is returned either way; ok is false when the re-probe
// contradicted the search invariant. The verification probe is in addition
// to the [MaxProbes] bound.
func FindBoundaryVerified(min, max, tolerance float64, isSafe Predicate, preferMax bool) (value float64, ok bool) {
	value = FindBoundary(min, max, tolerance, isSafe, preferMax)

	// The endpoints are assumed, not probed, so only re-check interior
	// results. An endpoint result means the threshold was outside the
	// interval and there is nothing to contradict.
	if value == min || value == max {
		return value, true
	}
	return value, isSafe(value)
}
