// Package ideology defines the six-axis ideological space shared by citizens
// and policies.
//
// A Vector can only be built through New, FromSlice, or by decoding JSON/YAML,
// all of which reject out-of-range values. Code that holds a Vector may
// therefore assume every axis is within its declared bounds.
package ideology

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/polisim/internal/vecmath"
	"gopkg.in/yaml.v3"
)

// Dimensions is the number of axes in the ideological space.
const Dimensions = 6

// Axis identifies one dimension of the ideological space.
type Axis int

const (
	Economic            Axis = iota // -1 (left/socialist) to 1 (right/capitalist)
	Social                          // -1 (progressive) to 1 (conservative)
	Environmental                   // 0 (exploitative) to 1 (conservationist)
	AuthorityPreference             // 0 (libertarian) to 1 (authoritarian)
	Collectivism                    // 0 (individualist) to 1 (collectivist)
	RiskTolerance                   // 0 (risk averse) to 1 (risk tolerant)
)

// AxisInfo describes the name, bounds, and pole labels of an axis.
type AxisInfo struct {
	Axis Axis
	Key  string // wire name, e.g. "authority_preference"
	Min  float64
	Max  float64
	Low  string // meaning of Min
	High string // meaning of Max
}

var axes = [Dimensions]AxisInfo{
	{Economic, "economic", -1, 1, "Left", "Right"},
	{Social, "social", -1, 1, "Progressive", "Conservative"},
	{Environmental, "environmental", 0, 1, "Exploit", "Conserve"},
	{AuthorityPreference, "authority_preference", 0, 1, "Liberty", "Statist"},
	{Collectivism, "collectivism", 0, 1, "Individualist", "Collectivist"},
	{RiskTolerance, "risk_tolerance", 0, 1, "Averse", "Tolerant"},
}

// Axes returns metadata for every axis in canonical order.
func Axes() []AxisInfo {
	out := make([]AxisInfo, Dimensions)
	copy(out, axes[:])
	return out
}

// Info returns the metadata for a.
func (a Axis) Info() AxisInfo {
	return axes[a]
}

func (a Axis) String() string {
	if a < 0 || int(a) >= Dimensions {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return axes[a].Key
}

// ErrOutOfBounds is returned when a value falls outside its axis range.
var ErrOutOfBounds = errors.New("ideology value out of bounds")

// ErrMissingAxis is returned when decoding a vector that omits an axis.
var ErrMissingAxis = errors.New("ideology axis missing")

// BoundsError reports which axis failed validation.
type BoundsError struct {
	Axis  Axis
	Value float64
}

func (e *BoundsError) Error() string {
	info := axes[e.Axis]
	return fmt.Sprintf("%s = %v outside [%v, %v]", info.Key, e.Value, info.Min, info.Max)
}

// Unwrap lets callers match with errors.Is(err, ErrOutOfBounds).
func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// Vector is a point in the ideological space. The zero value (all axes 0)
// is valid.
type Vector struct {
	v [Dimensions]float64
}

// New validates the six axis values and returns a Vector.
func New(economic, social, environmental, authority, collectivism, risk float64) (Vector, error) {
	return fromArray([Dimensions]float64{economic, social, environmental, authority, collectivism, risk})
}

// MustNew is like New but panics on invalid input. Intended for literals.
func MustNew(economic, social, environmental, authority, collectivism, risk float64) Vector {
	v, err := New(economic, social, environmental, authority, collectivism, risk)
	if err != nil {
		panic(err)
	}
	return v
}

// FromSlice builds a Vector from values in canonical axis order.
func FromSlice(values []float64) (Vector, error) {
	if len(values) != Dimensions {
		return Vector{}, fmt.Errorf("ideology vector needs %d values, got %d", Dimensions, len(values))
	}
	var arr [Dimensions]float64
	copy(arr[:], values)
	return fromArray(arr)
}

func fromArray(arr [Dimensions]float64) (Vector, error) {
	for i, val := range arr {
		info := axes[i]
		if math.IsNaN(val) || val < info.Min || val > info.Max {
			return Vector{}, &BoundsError{Axis: Axis(i), Value: val}
		}
	}
	return Vector{v: arr}, nil
}

// At returns the value on axis a.
func (v Vector) At(a Axis) float64 { return v.v[a] }

func (v Vector) Economic() float64            { return v.v[Economic] }
func (v Vector) Social() float64              { return v.v[Social] }
func (v Vector) Environmental() float64       { return v.v[Environmental] }
func (v Vector) AuthorityPreference() float64 { return v.v[AuthorityPreference] }
func (v Vector) Collectivism() float64        { return v.v[Collectivism] }
func (v Vector) RiskTolerance() float64       { return v.v[RiskTolerance] }

// Slice returns the axis values in canonical order. The result is a copy.
func (v Vector) Slice() []float64 {
	out := make([]float64, Dimensions)
	copy(out, v.v[:])
	return out
}

func (v Vector) String() string {
	return fmt.Sprintf("[eco=%.2f soc=%.2f env=%.2f auth=%.2f col=%.2f risk=%.2f]",
		v.v[0], v.v[1], v.v[2], v.v[3], v.v[4], v.v[5])
}

// Distance returns the Euclidean distance between a and b over all six axes.
// Axes are not normalized: the economic and social axes span twice the
// width of the others.
func Distance(a, b Vector) float64 {
	return vecmath.Euclidean(a.v[:], b.v[:])
}

// Centroid returns the component-wise mean of vs, or the zero Vector when vs
// is empty. The mean of in-bounds vectors is itself in bounds.
func Centroid(vs []Vector) Vector {
	if len(vs) == 0 {
		return Vector{}
	}
	var sum [Dimensions]float64
	for _, v := range vs {
		for i := range sum {
			sum[i] += v.v[i]
		}
	}
	n := float64(len(vs))
	for i := range sum {
		sum[i] = clampAxis(Axis(i), sum[i]/n)
	}
	return Vector{v: sum}
}

// clampAxis guards against floating-point drift just past an axis bound.
func clampAxis(a Axis, val float64) float64 {
	info := axes[a]
	return math.Max(info.Min, math.Min(info.Max, val))
}

// wireVector is the JSON/YAML shape of a Vector. Pointers detect missing axes.
type wireVector struct {
	Economic            *float64 `json:"economic" yaml:"economic"`
	Social              *float64 `json:"social" yaml:"social"`
	Environmental       *float64 `json:"environmental" yaml:"environmental"`
	AuthorityPreference *float64 `json:"authority_preference" yaml:"authority_preference"`
	Collectivism        *float64 `json:"collectivism" yaml:"collectivism"`
	RiskTolerance       *float64 `json:"risk_tolerance" yaml:"risk_tolerance"`
}

func (v Vector) toWire() wireVector {
	vals := v.v
	return wireVector{
		Economic:            &vals[0],
		Social:              &vals[1],
		Environmental:       &vals[2],
		AuthorityPreference: &vals[3],
		Collectivism:        &vals[4],
		RiskTolerance:       &vals[5],
	}
}

func (w wireVector) toVector() (Vector, error) {
	fields := [Dimensions]*float64{
		w.Economic, w.Social, w.Environmental,
		w.AuthorityPreference, w.Collectivism, w.RiskTolerance,
	}
	var arr [Dimensions]float64
	for i, f := range fields {
		if f == nil {
			return Vector{}, fmt.Errorf("%w: %s", ErrMissingAxis, axes[i].Key)
		}
		arr[i] = *f
	}
	return fromArray(arr)
}

// MarshalJSON encodes the vector as an object keyed by axis name.
func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toWire())
}

// UnmarshalJSON decodes and validates a vector.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var w wireVector
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := w.toVector()
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// MarshalYAML encodes the vector as a mapping keyed by axis name.
func (v Vector) MarshalYAML() (interface{}, error) {
	return v.toWire(), nil
}

// UnmarshalYAML decodes and validates a vector.
func (v *Vector) UnmarshalYAML(node *yaml.Node) error {
	var w wireVector
	if err := node.Decode(&w); err != nil {
		return err
	}
	decoded, err := w.toVector()
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
