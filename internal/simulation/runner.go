package simulation

import (
	"github.com/nvandessel/polisim/internal/constants"
	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/rng"
	"golang.org/x/sync/errgroup"
)

// VoteRecord is one citizen's sampled behavior for a policy.
// Vote is sampled even when DidVote is false; it is the citizen's latent
// preference.
type VoteRecord struct {
	CitizenID          string  `json:"citizen_id"`
	DistanceToPolicy   float64 `json:"distance_to_policy"`
	SupportProbability float64 `json:"support_probability"`
	TurnoutProbability float64 `json:"turnout_probability"`
	DidVote            bool    `json:"did_vote"`
	Vote               bool    `json:"vote"`
}

// Result is the outcome of one simulation pass.
type Result struct {
	Policy            ideology.Policy `json:"policy"`
	SupportCount      int             `json:"support_count"`
	OpposeCount       int             `json:"oppose_count"`
	TotalVotes        int             `json:"total_votes"`
	Abstentions       int             `json:"abstentions"`
	TurnoutRate       float64         `json:"turnout_rate"` // TotalVotes / electorate size, 0 when empty
	MarginOfVictory   int             `json:"margin_of_victory"`
	Passed            bool            `json:"passed"` // strictly more support than opposition
	PolarizationIndex float64         `json:"polarization_index"`
	Votes             []VoteRecord    `json:"votes"`
}

// Runner performs Monte Carlo vote sampling over an electorate.
// The runner is stateless: every call works on the caller's snapshot and
// the caller's random source.
type Runner struct {
	config Config
}

// NewRunner creates a simulation runner.
func NewRunner(config Config) *Runner {
	return &Runner{config: config}
}

// Config returns the runner's configuration.
func (r *Runner) Config() Config {
	return r.config
}

// Run samples one vote per citizen and tallies the result.
// An empty electorate yields zero votes, a failed policy, and zero polarization.
// For a given src state the votes do not depend on Config.Workers.
func (r *Runner) Run(electorate []ideology.Citizen, policy ideology.Policy, src rng.Source) Result {
	votes := make([]VoteRecord, len(electorate))
	r.sample(electorate, policy, src, votes)

	result := tally(votes)
	result.Policy = policy
	result.PolarizationIndex = PolarizationIndex(ideology.Vectors(electorate))
	return result
}

// sample splits the electorate into blocks of constants.SimulationBlockSize
// citizens, each drawing from its own child of src. Workers only bounds how
// many blocks run at once.
func (r *Runner) sample(electorate []ideology.Citizen, policy ideology.Policy, src rng.Source, votes []VoteRecord) {
	if len(electorate) == 0 {
		return
	}
	const block = constants.SimulationBlockSize
	blocks := (len(electorate) + block - 1) / block
	sources := rng.Split(src, blocks)

	runBlock := func(b int) {
		start := b * block
		end := min(start+block, len(electorate))
		for i := start; i < end; i++ {
			votes[i] = r.evaluate(electorate[i], policy, sources[b])
		}
	}

	workers := r.config.Workers
	if workers <= 1 || blocks == 1 {
		for b := range blocks {
			runBlock(b)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for b := range blocks {
		g.Go(func() error {
			runBlock(b)
			return nil
		})
	}
	_ = g.Wait() // blocks never fail
}

// evaluate computes one citizen's record. Turnout is drawn before the vote.
func (r *Runner) evaluate(c ideology.Citizen, policy ideology.Policy, src rng.Source) VoteRecord {
	d := ideology.Distance(c.Ideology, policy.Vector)
	p := r.config.SupportProbability(d, policy.UniversalAppeal)
	t := r.config.TurnoutProbability(d, policy.UniversalAppeal)
	return VoteRecord{
		CitizenID:          c.ID,
		DistanceToPolicy:   d,
		SupportProbability: p,
		TurnoutProbability: t,
		DidVote:            rng.Bernoulli(src, t),
		Vote:               rng.Bernoulli(src, p),
	}
}

func tally(votes []VoteRecord) Result {
	var res Result
	for _, v := range votes {
		if !v.DidVote {
			continue
		}
		if v.Vote {
			res.SupportCount++
		} else {
			res.OpposeCount++
		}
	}
	res.TotalVotes = res.SupportCount + res.OpposeCount
	res.Abstentions = len(votes) - res.TotalVotes
	if len(votes) > 0 {
		res.TurnoutRate = float64(res.TotalVotes) / float64(len(votes))
	}
	res.MarginOfVictory = res.SupportCount - res.OpposeCount
	if res.MarginOfVictory < 0 {
		res.MarginOfVictory = -res.MarginOfVictory
	}
	res.Passed = res.SupportCount > res.OpposeCount
	res.Votes = votes
	return res
}
