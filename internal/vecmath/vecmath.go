// Package vecmath provides small dense-vector helpers shared by the ideology
// model and the clusterer. Vectors are plain []float64 slices of equal length.
package vecmath

import "math"

// SquaredDistance returns the squared Euclidean distance between a and b.
// Returns 0 if the vectors have different lengths or are empty.
func SquaredDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Euclidean returns the Euclidean (L2) distance between a and b.
// Every axis is weighted equally regardless of its value range.
func Euclidean(a, b []float64) float64 {
	return math.Sqrt(SquaredDistance(a, b))
}

// Mean returns the component-wise mean of points. All points must share the
// length of the first point; shorter points are ignored on missing axes.
// Returns nil for an empty input.
func Mean(points [][]float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	dims := len(points[0])
	mean := make([]float64, dims)
	for _, p := range points {
		for i := 0; i < dims && i < len(p); i++ {
			mean[i] += p[i]
		}
	}
	n := float64(len(points))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}

// Clone returns a copy of v.
func Clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
