package seed

import (
	"testing"

	"github.com/google/uuid"
	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/rng"
)

func TestGenerate(t *testing.T) {
	citizens, err := Generate(rng.New(1), 100)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(citizens) != 100 {
		t.Fatalf("Generate() returned %d citizens, want 100", len(citizens))
	}
	if err := ideology.ValidateElectorate(citizens); err != nil {
		t.Fatalf("generated electorate invalid: %v", err)
	}
	for _, c := range citizens {
		if _, err := uuid.Parse(c.ID); err != nil {
			t.Errorf("citizen id %q is not a UUID: %v", c.ID, err)
		}
		if c.Age < 18 || c.Age > 100 {
			t.Errorf("citizen %s age = %d, want 18..100", c.ID, c.Age)
		}
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	a, err := Generate(rng.New(5), 20)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := Generate(rng.New(5), 20)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Ideology != b[i].Ideology {
			t.Fatalf("citizen %d differs between runs with the same seed", i)
		}
	}
}

func TestGenerate_Counts(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"zero", 0, false},
		{"one", 1, false},
		{"negative", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(rng.New(1), tt.n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Generate(%d) error = %v, wantErr %v", tt.n, err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.n {
				t.Errorf("Generate(%d) returned %d citizens", tt.n, len(got))
			}
		})
	}
}

func TestSample(t *testing.T) {
	citizens := Sample()
	if len(citizens) != 10 {
		t.Fatalf("Sample() returned %d citizens, want 10", len(citizens))
	}
	if err := ideology.ValidateElectorate(citizens); err != nil {
		t.Errorf("sample electorate invalid: %v", err)
	}
}
