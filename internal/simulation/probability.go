package simulation

import (
	"math"

	"github.com/nvandessel/polisim/internal/constants"
)

// Config holds tunable parameters for support and turnout modeling.
type Config struct {
	// Alpha is the steepness of the support sigmoid. Default: 2.5.
	Alpha float64 `json:"alpha" yaml:"alpha"`

	// Inflection is the distance at which support is exactly 0.5 (tau). Default: 1.6.
	Inflection float64 `json:"inflection" yaml:"inflection"`

	// TurnoutFloor is the turnout of a fully indifferent citizen. Default: 0.40.
	TurnoutFloor float64 `json:"turnout_floor" yaml:"turnout_floor"`

	// TurnoutSpan is the turnout added at full motivation. Default: 0.55.
	TurnoutSpan float64 `json:"turnout_span" yaml:"turnout_span"`

	// MotivationSaturation is the |d - tau| at which motivation maxes out. Default: 1.5.
	MotivationSaturation float64 `json:"motivation_saturation" yaml:"motivation_saturation"`

	// AppealTurnoutWeight scales the turnout boost from |universal appeal|. Default: 0.5.
	AppealTurnoutWeight float64 `json:"appeal_turnout_weight" yaml:"appeal_turnout_weight"`

	// Workers bounds how many citizen blocks Run samples at once. Values <= 1 run
	// sequentially. It does not change the sampled votes.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the default simulation configuration.
func DefaultConfig() Config {
	return Config{
		Alpha:                constants.DefaultAlpha,
		Inflection:           constants.DefaultInflection,
		TurnoutFloor:         constants.TurnoutFloor,
		TurnoutSpan:          constants.TurnoutSpan,
		MotivationSaturation: constants.MotivationSaturation,
		AppealTurnoutWeight:  constants.AppealTurnoutWeight,
		Workers:              1,
	}
}

// SupportProbability returns the probability that a citizen at distance d
// from the policy favors it: 1 / (1 + e^(alpha*(d - tau))). A non-zero
// appeal shifts the result linearly and clamps it to [0, 1].
func (c Config) SupportProbability(d, appeal float64) float64 {
	p := 1.0 / (1.0 + math.Exp(c.Alpha*(d-c.Inflection)))
	if appeal != 0 {
		p = clamp(p+appeal, 0, 1)
	}
	return p
}

// TurnoutProbability returns the likelihood that a citizen at distance d
// participates. Citizens near the inflection point are indifferent and vote
// least; strong (positive or negative) appeal raises engagement for everyone.
func (c Config) TurnoutProbability(d, appeal float64) float64 {
	motivation := math.Abs(d - c.Inflection)
	normalized := 1.0
	if c.MotivationSaturation > 0 {
		normalized = math.Min(1, motivation/c.MotivationSaturation)
	}
	turnout := c.TurnoutFloor + normalized*c.TurnoutSpan
	if appeal != 0 {
		turnout = math.Min(1, turnout+math.Abs(appeal)*c.AppealTurnoutWeight)
	}
	return turnout
}

// SupportProbability evaluates the default support curve.
func SupportProbability(d, appeal float64) float64 {
	return DefaultConfig().SupportProbability(d, appeal)
}

// TurnoutProbability evaluates the default turnout curve.
func TurnoutProbability(d, appeal float64) float64 {
	return DefaultConfig().TurnoutProbability(d, appeal)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
