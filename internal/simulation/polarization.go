package simulation

import "github.com/nvandessel/polisim/internal/ideology"

// PolarizationIndex returns the mean distance of vs from their own centroid.
// It is zero when every vector is identical (or vs is empty) and grows with
// ideological spread. The index depends only on the electorate, not on any
// policy.
func PolarizationIndex(vs []ideology.Vector) float64 {
	if len(vs) == 0 {
		return 0
	}
	centroid := ideology.Centroid(vs)
	var sum float64
	for _, v := range vs {
		sum += ideology.Distance(v, centroid)
	}
	return sum / float64(len(vs))
}
