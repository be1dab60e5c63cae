package cluster

import (
	"context"
	"fmt"
	"math"

	"github.com/nvandessel/polisim/internal/constants"
	"github.com/nvandessel/polisim/internal/rng"
	"github.com/nvandessel/polisim/internal/vecmath"
	"golang.org/x/sync/errgroup"
)

// KMeansConfig holds tunable parameters for k-means.
type KMeansConfig struct {
	// MaxIterations caps the number of Lloyd iterations. Default: 100.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// Tolerance stops iteration once no centroid moves further than this. Default: 1e-9.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// Workers parallelizes the assignment step. Values <= 1 run sequentially.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultKMeansConfig returns the default k-means configuration.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		MaxIterations: constants.DefaultMaxIterations,
		Tolerance:     constants.DefaultTolerance,
		Workers:       1,
	}
}

// KMeans is Lloyd's algorithm seeded with k-means++ over raw coordinates.
// No axis normalization is applied.
type KMeans struct {
	config KMeansConfig
}

var _ Clusterer = (*KMeans)(nil)

// NewKMeans creates a k-means clusterer.
func NewKMeans(config KMeansConfig) *KMeans {
	if config.MaxIterations < 1 {
		config.MaxIterations = constants.DefaultMaxIterations
	}
	return &KMeans{config: config}
}

// Cluster partitions points into k clusters. The context is checked between
// iterations; a cancelled context aborts with ctx.Err().
func (km *KMeans) Cluster(ctx context.Context, points [][]float64, k int, seed uint64) (Result, error) {
	if _, err := validate(points, k); err != nil {
		return Result{}, fmt.Errorf("k-means with k=%d over %d points: %w", k, len(points), err)
	}

	src := rng.New(seed)
	centroids := seedPlusPlus(points, k, src)
	assignments := make([]int, len(points))
	for i := range assignments {
		assignments[i] = -1
	}

	var res Result
	for iter := 0; iter < km.config.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		changed := km.assign(points, centroids, assignments)
		res.Iterations++
		if !changed {
			res.Converged = true
			break
		}

		shift := update(points, assignments, centroids)
		if shift <= km.config.Tolerance {
			res.Converged = true
			break
		}
	}

	res.Assignments = assignments
	res.Centroids = centroids
	res.Inertia = inertia(points, assignments, centroids)
	return res, nil
}

// seedPlusPlus picks k initial centroids: the first uniformly, each next one
// with probability proportional to its squared distance from the nearest
// centroid chosen so far.
func seedPlusPlus(points [][]float64, k int, src rng.Source) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, vecmath.Clone(points[src.IntN(len(points))]))

	d2 := make([]float64, len(points))
	for i, p := range points {
		d2[i] = vecmath.SquaredDistance(p, centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range d2 {
			total += d
		}

		next := -1
		if total > 0 {
			next = pickWeighted(d2, src.Float64()*total)
		}
		if next < 0 {
			// All remaining points coincide with a centroid.
			next = src.IntN(len(points))
		}

		c := vecmath.Clone(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := vecmath.SquaredDistance(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

// assign moves every point to its nearest centroid and reports whether any
// assignment changed. Points are independent, so chunks run concurrently
// when Workers > 1.
func (km *KMeans) assign(points, centroids [][]float64, assignments []int) bool {
	workers := km.config.Workers
	if workers <= 1 || len(points) < 2*workers {
		return assignRange(points, centroids, assignments, 0, len(points))
	}

	chunk := (len(points) + workers - 1) / workers
	changed := make([]bool, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(points) {
			break
		}
		end := min(start+chunk, len(points))
		g.Go(func() error {
			changed[w] = assignRange(points, centroids, assignments, start, end)
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range changed {
		if c {
			return true
		}
	}
	return false
}

func assignRange(points, centroids [][]float64, assignments []int, start, end int) bool {
	changed := false
	for i := start; i < end; i++ {
		best, bestDist := nearest(points[i], centroids)
		cur := assignments[i]
		if cur == best {
			continue
		}
		// Ties keep the current cluster so coincident points settle.
		if cur >= 0 && vecmath.SquaredDistance(points[i], centroids[cur]) <= bestDist {
			continue
		}
		assignments[i] = best
		changed = true
	}
	return changed
}

// nearest returns the index of the closest centroid and its squared
// distance; ties go to the lowest index.
func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for j, c := range centroids {
		if d := vecmath.SquaredDistance(p, c); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best, bestDist
}

// update recomputes centroids in place as the mean of their members and
// returns the largest distance any centroid moved. Empty clusters steal the
// point furthest from its own centroid, so every cluster keeps a member.
func update(points [][]float64, assignments []int, centroids [][]float64) float64 {
	k := len(centroids)
	counts := make([]int, k)
	for _, a := range assignments {
		counts[a]++
	}

	reseeded := false
	for j := 0; j < k; j++ {
		if counts[j] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, p := range points {
			owner := assignments[i]
			if counts[owner] < 2 {
				continue
			}
			if d := vecmath.SquaredDistance(p, centroids[owner]); d > farDist {
				far, farDist = i, d
			}
		}
		counts[assignments[far]]--
		assignments[far] = j
		counts[j]++
		reseeded = true
	}

	dims := len(points[0])
	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, dims)
	}
	for i, p := range points {
		s := sums[assignments[i]]
		for d := range p {
			s[d] += p[d]
		}
	}

	var maxShift float64
	for j := range centroids {
		for d := range sums[j] {
			sums[j][d] /= float64(counts[j])
		}
		if shift := vecmath.Euclidean(sums[j], centroids[j]); shift > maxShift {
			maxShift = shift
		}
		centroids[j] = sums[j]
	}
	if reseeded {
		return math.Inf(1)
	}
	return maxShift
}

// pickWeighted returns the first index whose running sum of weights passes
// target, skipping zero weights. If rounding keeps the sum at or below target
// it returns the last positive weight; -1 means every weight is zero.
func pickWeighted(weights []float64, target float64) int {
	last := -1
	var cum float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if cum > target {
			return i
		}
		last = i
	}
	return last
}

func inertia(points [][]float64, assignments []int, centroids [][]float64) float64 {
	var sum float64
	for i, p := range points {
		sum += vecmath.SquaredDistance(p, centroids[assignments[i]])
	}
	return sum
}
