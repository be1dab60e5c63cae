package ideology

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateElectorate(t *testing.T) {
	tests := []struct {
		name     string
		citizens []Citizen
		wantErr  error
	}{
		{name: "empty", citizens: nil},
		{name: "unique", citizens: []Citizen{{ID: "a"}, {ID: "b"}}},
		{name: "blank id", citizens: []Citizen{{ID: "a"}, {ID: "  "}}, wantErr: ErrEmptyID},
		{name: "duplicate", citizens: []Citizen{{ID: "a"}, {ID: "a"}}, wantErr: ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateElectorate(tt.citizens)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateElectorate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateElectorate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCitizen_UnmarshalValidatesIdeology(t *testing.T) {
	input := `{"id":"c1","name":"Luna","ideology":{"economic":-1,"social":-1,"environmental":1,"authority_preference":0,"collectivism":0.9,"risk_tolerance":1.2}}`
	var c Citizen
	if err := json.Unmarshal([]byte(input), &c); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Unmarshal() error = %v, want ErrOutOfBounds", err)
	}
}

func TestNewPolicy(t *testing.T) {
	v := MustNew(0, 0, 0.5, 0.5, 0.5, 0.5)
	tests := []struct {
		name    string
		appeal  float64
		wantErr bool
	}{
		{"no appeal", 0, false},
		{"max appeal", 1, false},
		{"min appeal", -1, false},
		{"too appealing", 1.2, true},
		{"too repellent", -1.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolicy("Test", "", v, tt.appeal)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrAppealOutOfBounds) {
				t.Errorf("NewPolicy() error = %v, want ErrAppealOutOfBounds", err)
			}
		})
	}
}

func TestVectors(t *testing.T) {
	citizens := []Citizen{
		{ID: "a", Ideology: MustNew(1, 0, 0, 0, 0, 0)},
		{ID: "b", Ideology: MustNew(-1, 0, 0, 0, 0, 0)},
	}
	vs := Vectors(citizens)
	if len(vs) != 2 || vs[0].Economic() != 1 || vs[1].Economic() != -1 {
		t.Errorf("Vectors() = %v", vs)
	}
}
