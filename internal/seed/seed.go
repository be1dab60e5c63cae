// Package seed generates electorates for offline use: a uniform synthetic
// sampler and a small hand-written sample electorate.
package seed

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/rng"
)

// Generate returns n citizens with ideology sampled uniformly within each
// axis's bounds. IDs are UUIDs drawn from src, so a seeded source yields the
// same electorate every time.
func Generate(src rng.Source, n int) ([]ideology.Citizen, error) {
	if n < 0 {
		return nil, fmt.Errorf("citizen count must be non-negative, got %d", n)
	}
	ids := sourceReader{src: src}
	citizens := make([]ideology.Citizen, n)
	for i := range citizens {
		id, err := uuid.NewRandomFromReader(&ids)
		if err != nil {
			return nil, fmt.Errorf("generating citizen id: %w", err)
		}

		values := make([]float64, ideology.Dimensions)
		for a, info := range ideology.Axes() {
			values[a] = info.Min + src.Float64()*(info.Max-info.Min)
		}
		vec, err := ideology.FromSlice(values)
		if err != nil {
			return nil, fmt.Errorf("generating citizen %d: %w", i, err)
		}

		citizens[i] = ideology.Citizen{
			ID:       id.String(),
			Name:     fmt.Sprintf("Citizen %d", i+1),
			Age:      18 + src.IntN(83),
			Ideology: vec,
		}
	}
	return citizens, nil
}

// sourceReader adapts a Source to io.Reader for uuid generation.
type sourceReader struct {
	src rng.Source
	buf [8]byte
	off int
}

func (r *sourceReader) Read(p []byte) (int, error) {
	for i := range p {
		if r.off == 0 {
			binary.LittleEndian.PutUint64(r.buf[:], r.src.Uint64())
		}
		p[i] = r.buf[r.off]
		r.off = (r.off + 1) % len(r.buf)
	}
	return len(p), nil
}
