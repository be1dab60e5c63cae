package simulation

import (
	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/rng"
)

// Expectation is the analytic mean of a simulation pass, computed without
// sampling.
type Expectation struct {
	ExpectedSupport float64 `json:"expected_support"` // sum of turnout * support
	ExpectedOppose  float64 `json:"expected_oppose"`  // sum of turnout * (1 - support)
	ExpectedTurnout float64 `json:"expected_turnout"` // mean turnout probability
}

// Expect returns the expected tallies of Run for electorate and policy.
func (r *Runner) Expect(electorate []ideology.Citizen, policy ideology.Policy) Expectation {
	var e Expectation
	if len(electorate) == 0 {
		return e
	}
	for _, c := range electorate {
		d := ideology.Distance(c.Ideology, policy.Vector)
		p := r.config.SupportProbability(d, policy.UniversalAppeal)
		t := r.config.TurnoutProbability(d, policy.UniversalAppeal)
		e.ExpectedSupport += t * p
		e.ExpectedOppose += t * (1 - p)
		e.ExpectedTurnout += t
	}
	e.ExpectedTurnout /= float64(len(electorate))
	return e
}

// TrialSummary aggregates repeated simulation passes.
type TrialSummary struct {
	Trials          int     `json:"trials"`
	Passed          int     `json:"passed"`
	PassRate        float64 `json:"pass_rate"`
	MeanSupport     float64 `json:"mean_support"`
	MeanOppose      float64 `json:"mean_oppose"`
	MeanTurnoutRate float64 `json:"mean_turnout_rate"`
}

// Trials runs the simulation n times with src and summarizes how often the
// policy passes. Individual vote records are discarded.
func (r *Runner) Trials(electorate []ideology.Citizen, policy ideology.Policy, src rng.Source, n int) TrialSummary {
	summary := TrialSummary{Trials: n}
	if n <= 0 {
		summary.Trials = 0
		return summary
	}
	for i := 0; i < n; i++ {
		res := r.Run(electorate, policy, src)
		if res.Passed {
			summary.Passed++
		}
		summary.MeanSupport += float64(res.SupportCount)
		summary.MeanOppose += float64(res.OpposeCount)
		summary.MeanTurnoutRate += res.TurnoutRate
	}
	fn := float64(n)
	summary.PassRate = float64(summary.Passed) / fn
	summary.MeanSupport /= fn
	summary.MeanOppose /= fn
	summary.MeanTurnoutRate /= fn
	return summary
}
