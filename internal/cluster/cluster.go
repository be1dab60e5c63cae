// Package cluster partitions points into k groups. The Clusterer interface
// is deliberately narrow so that the algorithm can be swapped without
// touching callers.
package cluster

import (
	"context"
	"errors"

	"github.com/nvandessel/polisim/internal/constants"
)

var (
	// ErrInvalidK is returned when k < 1.
	ErrInvalidK = errors.New("cluster count must be at least 1")

	// ErrTooFewPoints is returned when there are fewer points than clusters.
	ErrTooFewPoints = errors.New("fewer points than clusters")

	// ErrDimensionMismatch is returned when points have differing or zero length.
	ErrDimensionMismatch = errors.New("points have inconsistent dimensions")
)

// Result is a partition of the input points.
type Result struct {
	// Assignments[i] is the cluster index in [0, k) of points[i].
	Assignments []int `json:"assignments"`

	// Centroids has exactly k entries; Centroids[j] is the mean of cluster j.
	Centroids [][]float64 `json:"centroids"`

	// Iterations is the number of assignment steps performed.
	Iterations int `json:"iterations"`

	// Converged is false when the iteration cap was hit first.
	Converged bool `json:"converged"`

	// Inertia is the sum of squared distances from points to their centroid.
	Inertia float64 `json:"inertia"`
}

// Sizes returns the number of points in each cluster.
func (r Result) Sizes() []int {
	sizes := make([]int, len(r.Centroids))
	for _, a := range r.Assignments {
		sizes[a]++
	}
	return sizes
}

// Clusterer partitions points into k clusters. Implementations must return
// exactly k centroids and one assignment per point, and must be
// deterministic for a fixed seed.
type Clusterer interface {
	Cluster(ctx context.Context, points [][]float64, k int, seed uint64) (Result, error)
}

// DefaultK picks a cluster count for a population of n: one faction per ten
// citizens, clamped to [2, 5].
func DefaultK(n int) int {
	k := n / constants.CitizensPerFaction
	if k < constants.MinFactions {
		return constants.MinFactions
	}
	if k > constants.MaxFactions {
		return constants.MaxFactions
	}
	return k
}

// validate checks the preconditions shared by all clusterers and returns the
// dimensionality of the points.
func validate(points [][]float64, k int) (int, error) {
	if k < 1 {
		return 0, ErrInvalidK
	}
	if len(points) < k {
		return 0, ErrTooFewPoints
	}
	dims := len(points[0])
	if dims == 0 {
		return 0, ErrDimensionMismatch
	}
	for _, p := range points {
		if len(p) != dims {
			return 0, ErrDimensionMismatch
		}
	}
	return dims, nil
}
