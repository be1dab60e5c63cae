// Package faction discovers latent factions in an electorate by clustering
// citizens' ideology vectors. It returns indices and centroids only; naming
// factions is left to whoever consumes the centroids.
package faction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nvandessel/polisim/internal/cluster"
	"github.com/nvandessel/polisim/internal/constants"
	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/simulation"
)

// ErrElectorateTooSmall is returned by CheckSize for electorates below
// constants.MinElectorateSize.
var ErrElectorateTooSmall = errors.New("electorate too small to cluster")

// Assignment maps one citizen to a faction.
type Assignment struct {
	CitizenID    string `json:"citizen_id"`
	ClusterIndex int    `json:"cluster_index"`
}

// Faction is one discovered cluster. Name and Description are empty until a
// labeler (or a user) fills them in.
type Faction struct {
	ClusterIndex int             `json:"cluster_index" yaml:"cluster_index"`
	Name         string          `json:"name,omitempty" yaml:"name,omitempty"`
	Description  string          `json:"description,omitempty" yaml:"description,omitempty"`
	Centroid     ideology.Vector `json:"centroid" yaml:"centroid"`
	Size         int             `json:"size" yaml:"size"`
	Polarization float64         `json:"polarization" yaml:"polarization"` // spread of members around the centroid
}

// Partition is the result of faction discovery.
type Partition struct {
	K           int          `json:"k"`
	Assignments []Assignment `json:"assignments"`
	Factions    []Faction    `json:"factions"`
	Iterations  int          `json:"iterations"`
	Converged   bool         `json:"converged"`
	Inertia     float64      `json:"inertia"`
}

// CheckSize rejects electorates too small for meaningful faction discovery.
func CheckSize(n int) error {
	if n < constants.MinElectorateSize {
		return fmt.Errorf("%w: %d citizens, need at least %d", ErrElectorateTooSmall, n, constants.MinElectorateSize)
	}
	return nil
}

// Discover partitions electorate into k factions using c. If k <= 0 it is
// derived from the electorate size with cluster.DefaultK.
func Discover(ctx context.Context, c cluster.Clusterer, electorate []ideology.Citizen, k int, seed uint64) (Partition, error) {
	if k <= 0 {
		k = cluster.DefaultK(len(electorate))
	}

	points := make([][]float64, len(electorate))
	for i, citizen := range electorate {
		points[i] = citizen.Ideology.Slice()
	}

	res, err := c.Cluster(ctx, points, k, seed)
	if err != nil {
		return Partition{}, fmt.Errorf("discovering %d factions: %w", k, err)
	}

	members := make([][]ideology.Vector, k)
	assignments := make([]Assignment, len(electorate))
	for i, citizen := range electorate {
		idx := res.Assignments[i]
		assignments[i] = Assignment{CitizenID: citizen.ID, ClusterIndex: idx}
		members[idx] = append(members[idx], citizen.Ideology)
	}

	factions := make([]Faction, k)
	for j := range factions {
		factions[j] = Faction{
			ClusterIndex: j,
			Centroid:     ideology.Centroid(members[j]),
			Size:         len(members[j]),
			Polarization: simulation.PolarizationIndex(members[j]),
		}
	}

	return Partition{
		K:           k,
		Assignments: assignments,
		Factions:    factions,
		Iterations:  res.Iterations,
		Converged:   res.Converged,
		Inertia:     res.Inertia,
	}, nil
}

// Members returns the IDs of citizens in faction index, in input order.
func (p Partition) Members(index int) []string {
	var ids []string
	for _, a := range p.Assignments {
		if a.ClusterIndex == index {
			ids = append(ids, a.CitizenID)
		}
	}
	return ids
}

// Describe renders a faction centroid axis by axis, in the form handed to
// an external labeler, e.g. "Economic (-1 Left to 1 Right): 0.42".
func Describe(f Faction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Faction %d (%d members):\n", f.ClusterIndex, f.Size)
	for _, info := range ideology.Axes() {
		fmt.Fprintf(&b, "- %s (%g %s to %g %s): %.2f\n",
			axisTitle(info.Key), info.Min, info.Low, info.Max, info.High, f.Centroid.At(info.Axis))
	}
	return b.String()
}

func axisTitle(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
