package mcp

import (
	"fmt"
	"time"

	"github.com/nvandessel/polisim/internal/faction"
	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/sanitize"
	"github.com/nvandessel/polisim/internal/simulation"
	"github.com/nvandessel/polisim/internal/store"
)

// VectorData is the wire form of an ideology vector. All six axes are required.
type VectorData struct {
	Economic            float64 `json:"economic" jsonschema:"-1 (left) to 1 (right)"`
	Social              float64 `json:"social" jsonschema:"-1 (libertarian) to 1 (authoritarian)"`
	Environmental       float64 `json:"environmental" jsonschema:"0 (exploit) to 1 (protect)"`
	AuthorityPreference float64 `json:"authority_preference" jsonschema:"0 (decentralized) to 1 (centralized)"`
	Collectivism        float64 `json:"collectivism" jsonschema:"0 (individualist) to 1 (collectivist)"`
	RiskTolerance       float64 `json:"risk_tolerance" jsonschema:"0 (cautious) to 1 (bold)"`
}

// CitizenData is the wire form of a citizen.
type CitizenData struct {
	ID        string     `json:"id" jsonschema:"unique citizen identifier"`
	Name      string     `json:"name,omitempty" jsonschema:"display name"`
	Age       int        `json:"age,omitempty" jsonschema:"age in years"`
	Worldview string     `json:"worldview,omitempty" jsonschema:"one-line description of the citizen's outlook"`
	Ideology  VectorData `json:"ideology" jsonschema:"position in the six-axis ideology space"`
}

// PolicyData is the wire form of a policy.
type PolicyData struct {
	Title           string     `json:"title" jsonschema:"policy title"`
	Description     string     `json:"description,omitempty" jsonschema:"policy description"`
	Vector          VectorData `json:"vector" jsonschema:"position of the policy in ideology space"`
	UniversalAppeal float64    `json:"universal_appeal,omitempty" jsonschema:"shift in [-1, 1] applied to every citizen's support; also raises turnout"`
}

// FactionData is the wire form of a faction.
type FactionData struct {
	ClusterIndex int        `json:"cluster_index" jsonschema:"index of the faction within its partition"`
	Name         string     `json:"name,omitempty" jsonschema:"faction name"`
	Description  string     `json:"description,omitempty" jsonschema:"faction description"`
	Centroid     VectorData `json:"centroid" jsonschema:"mean ideology of the faction"`
	Size         int        `json:"size" jsonschema:"number of members"`
	Polarization float64    `json:"polarization,omitempty" jsonschema:"mean distance of members to the centroid"`
}

// ElectorateSource selects citizens either by stored ID or inline.
type ElectorateSource struct {
	ElectorateID string        `json:"electorate_id,omitempty" jsonschema:"ID of a saved electorate"`
	Citizens     []CitizenData `json:"citizens,omitempty" jsonschema:"inline citizens, used when electorate_id is empty"`
}

// SimulateInput defines the input for the polisim_simulate tool.
type SimulateInput struct {
	ElectorateSource
	Policy       PolicyData `json:"policy" jsonschema:"policy to put to a vote"`
	Seed         uint64     `json:"seed,omitempty" jsonschema:"random seed; 0 picks one"`
	Trials       int        `json:"trials,omitempty" jsonschema:"additional repeated runs to estimate the pass rate"`
	IncludeVotes bool       `json:"include_votes,omitempty" jsonschema:"return per-citizen vote records"`
	Log          bool       `json:"log,omitempty" jsonschema:"record the run in the simulation log"`
}

// VoteData is one citizen's sampled vote.
type VoteData struct {
	CitizenID          string  `json:"citizen_id"`
	DistanceToPolicy   float64 `json:"distance_to_policy"`
	SupportProbability float64 `json:"support_probability"`
	TurnoutProbability float64 `json:"turnout_probability"`
	DidVote            bool    `json:"did_vote"`
	Vote               bool    `json:"vote"`
}

// SimulateOutput defines the output for the polisim_simulate tool.
type SimulateOutput struct {
	Seed              uint64                   `json:"seed" jsonschema:"seed used for sampling"`
	SupportCount      int                      `json:"support_count" jsonschema:"votes in favor"`
	OpposeCount       int                      `json:"oppose_count" jsonschema:"votes against"`
	TotalVotes        int                      `json:"total_votes" jsonschema:"citizens who turned out"`
	Abstentions       int                      `json:"abstentions" jsonschema:"citizens who stayed home"`
	TurnoutRate       float64                  `json:"turnout_rate" jsonschema:"total votes divided by electorate size"`
	MarginOfVictory   int                      `json:"margin_of_victory" jsonschema:"support minus opposition"`
	Passed            bool                     `json:"passed" jsonschema:"strictly more support than opposition"`
	PolarizationIndex float64                  `json:"polarization_index" jsonschema:"mean distance of citizens to the electorate centroid"`
	Expected          simulation.Expectation   `json:"expected" jsonschema:"analytic expectation of the tallies"`
	Trials            *simulation.TrialSummary `json:"trials,omitempty" jsonschema:"summary of repeated runs, when requested"`
	Votes             []VoteData               `json:"votes,omitempty" jsonschema:"per-citizen votes, when requested"`
	LogID             string                   `json:"log_id,omitempty" jsonschema:"simulation log entry ID, when logged"`
}

// PolarizationInput defines the input for the polisim_polarization tool.
type PolarizationInput struct {
	ElectorateSource
}

// PolarizationOutput defines the output for the polisim_polarization tool.
type PolarizationOutput struct {
	Size              int        `json:"size" jsonschema:"number of citizens"`
	PolarizationIndex float64    `json:"polarization_index" jsonschema:"mean distance of citizens to the centroid"`
	Centroid          VectorData `json:"centroid" jsonschema:"mean ideology of the electorate"`
}

// ClusterInput defines the input for the polisim_cluster tool.
type ClusterInput struct {
	ElectorateSource
	K    int    `json:"k,omitempty" jsonschema:"number of factions; 0 derives it from electorate size"`
	Seed uint64 `json:"seed,omitempty" jsonschema:"random seed; 0 picks one"`
	Save bool   `json:"save,omitempty" jsonschema:"store the factions on the saved electorate (requires electorate_id)"`
}

// AssignmentData maps a citizen to a faction.
type AssignmentData struct {
	CitizenID    string `json:"citizen_id"`
	ClusterIndex int    `json:"cluster_index"`
}

// ClusterOutput defines the output for the polisim_cluster tool.
type ClusterOutput struct {
	K           int              `json:"k" jsonschema:"number of factions"`
	Seed        uint64           `json:"seed" jsonschema:"seed used for initialization"`
	Iterations  int              `json:"iterations" jsonschema:"Lloyd iterations performed"`
	Converged   bool             `json:"converged" jsonschema:"whether assignments stabilized before the iteration cap"`
	Inertia     float64          `json:"inertia" jsonschema:"sum of squared distances to assigned centroids"`
	Factions    []FactionData    `json:"factions" jsonschema:"discovered factions"`
	Summaries   []string         `json:"summaries" jsonschema:"per-faction axis summaries for naming"`
	Assignments []AssignmentData `json:"assignments" jsonschema:"faction of each citizen"`
	Saved       bool             `json:"saved,omitempty" jsonschema:"factions were stored on the electorate"`
}

// GenerateInput defines the input for the polisim_generate tool.
type GenerateInput struct {
	Count       int    `json:"count,omitempty" jsonschema:"number of citizens to generate (default 50)"`
	Seed        uint64 `json:"seed,omitempty" jsonschema:"random seed; 0 picks one"`
	Sample      bool   `json:"sample,omitempty" jsonschema:"return the built-in ten-citizen sample instead"`
	Save        bool   `json:"save,omitempty" jsonschema:"save the generated electorate"`
	Name        string `json:"name,omitempty" jsonschema:"name used when saving"`
	Description string `json:"description,omitempty" jsonschema:"description used when saving"`
}

// GenerateOutput defines the output for the polisim_generate tool.
type GenerateOutput struct {
	Seed         uint64        `json:"seed,omitempty" jsonschema:"seed used for generation"`
	ElectorateID string        `json:"electorate_id,omitempty" jsonschema:"ID of the saved electorate"`
	Citizens     []CitizenData `json:"citizens" jsonschema:"generated citizens"`
}

// ElectorateSaveInput defines the input for the polisim_electorate_save tool.
type ElectorateSaveInput struct {
	Name        string        `json:"name" jsonschema:"electorate name"`
	Description string        `json:"description,omitempty" jsonschema:"electorate description"`
	Citizens    []CitizenData `json:"citizens" jsonschema:"citizens to save"`
	Factions    []FactionData `json:"factions,omitempty" jsonschema:"factions to store with the electorate"`
}

// ElectorateSaveOutput defines the output for the polisim_electorate_save tool.
type ElectorateSaveOutput struct {
	ID        string `json:"id" jsonschema:"assigned electorate ID"`
	Size      int    `json:"size" jsonschema:"number of citizens"`
	CreatedAt string `json:"created_at" jsonschema:"creation time (RFC 3339)"`
}

// ElectorateListInput defines the input for the polisim_electorate_list tool.
type ElectorateListInput struct{}

// ElectorateSummary describes a saved electorate without its citizens.
type ElectorateSummary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Size        int           `json:"size"`
	Factions    []FactionData `json:"factions,omitempty"`
	CreatedAt   string        `json:"created_at"`
}

// ElectorateListOutput defines the output for the polisim_electorate_list tool.
type ElectorateListOutput struct {
	Electorates []ElectorateSummary `json:"electorates" jsonschema:"saved electorates, newest first"`
	Count       int                 `json:"count" jsonschema:"number of electorates"`
}

// ElectorateGetInput defines the input for the polisim_electorate_get tool.
type ElectorateGetInput struct {
	ID string `json:"id" jsonschema:"electorate ID"`
}

// ElectorateGetOutput defines the output for the polisim_electorate_get tool.
type ElectorateGetOutput struct {
	ElectorateSummary
	Citizens []CitizenData `json:"citizens"`
}

// StatsInput defines the input for the polisim_stats tool.
type StatsInput struct{}

// SimulationLogData is one logged run.
type SimulationLogData struct {
	ID                string  `json:"id"`
	ElectorateID      string  `json:"electorate_id,omitempty"`
	PolicyTitle       string  `json:"policy_title"`
	Ayes              int     `json:"ayes"`
	Nays              int     `json:"nays"`
	Abstentions       int     `json:"abstentions"`
	TurnoutPercentage float64 `json:"turnout_percentage"`
	Passed            bool    `json:"passed"`
	Polarization      float64 `json:"polarization"`
	CreatedAt         string  `json:"created_at"`
}

// StatsOutput defines the output for the polisim_stats tool.
type StatsOutput struct {
	TotalSimulations int                 `json:"total_simulations"`
	Passed           int                 `json:"passed"`
	Failed           int                 `json:"failed"`
	AverageTurnout   float64             `json:"average_turnout" jsonschema:"mean turnout percentage"`
	Recent           []SimulationLogData `json:"recent" jsonschema:"most recent runs, newest first"`
}

// Conversions between wire and domain types. Inbound conversions validate
// vectors through ideology.New and clean free text with sanitize.

func (v VectorData) toVector() (ideology.Vector, error) {
	return ideology.New(v.Economic, v.Social, v.Environmental, v.AuthorityPreference, v.Collectivism, v.RiskTolerance)
}

func vectorData(v ideology.Vector) VectorData {
	return VectorData{
		Economic:            v.Economic(),
		Social:              v.Social(),
		Environmental:       v.Environmental(),
		AuthorityPreference: v.AuthorityPreference(),
		Collectivism:        v.Collectivism(),
		RiskTolerance:       v.RiskTolerance(),
	}
}

func toCitizens(in []CitizenData) ([]ideology.Citizen, error) {
	out := make([]ideology.Citizen, len(in))
	for i, c := range in {
		vec, err := c.Ideology.toVector()
		if err != nil {
			return nil, fmt.Errorf("citizen %d (%s): %w", i, c.ID, err)
		}
		out[i] = ideology.Citizen{
			ID:        c.ID,
			Name:      sanitize.Label(c.Name),
			Age:       c.Age,
			Worldview: sanitize.Text(c.Worldview),
			Ideology:  vec,
		}
	}
	if err := ideology.ValidateElectorate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func citizenData(in []ideology.Citizen) []CitizenData {
	out := make([]CitizenData, len(in))
	for i, c := range in {
		out[i] = CitizenData{ID: c.ID, Name: c.Name, Age: c.Age, Worldview: c.Worldview, Ideology: vectorData(c.Ideology)}
	}
	return out
}

func (p PolicyData) toPolicy() (ideology.Policy, error) {
	vec, err := p.Vector.toVector()
	if err != nil {
		return ideology.Policy{}, fmt.Errorf("policy vector: %w", err)
	}
	return ideology.NewPolicy(sanitize.Label(p.Title), sanitize.Text(p.Description), vec, p.UniversalAppeal)
}

func toFactions(in []FactionData) ([]faction.Faction, error) {
	out := make([]faction.Faction, len(in))
	for i, f := range in {
		vec, err := f.Centroid.toVector()
		if err != nil {
			return nil, fmt.Errorf("faction %d centroid: %w", f.ClusterIndex, err)
		}
		out[i] = faction.Faction{
			ClusterIndex: f.ClusterIndex,
			Name:         sanitize.Label(f.Name),
			Description:  sanitize.Text(f.Description),
			Centroid:     vec,
			Size:         f.Size,
			Polarization: f.Polarization,
		}
	}
	return out, nil
}

func factionData(in []faction.Faction) []FactionData {
	if len(in) == 0 {
		return nil
	}
	out := make([]FactionData, len(in))
	for i, f := range in {
		out[i] = FactionData{
			ClusterIndex: f.ClusterIndex,
			Name:         f.Name,
			Description:  f.Description,
			Centroid:     vectorData(f.Centroid),
			Size:         f.Size,
			Polarization: f.Polarization,
		}
	}
	return out
}

func voteData(in []simulation.VoteRecord) []VoteData {
	out := make([]VoteData, len(in))
	for i, v := range in {
		out[i] = VoteData(v)
	}
	return out
}

func electorateSummary(e store.Electorate) ElectorateSummary {
	return ElectorateSummary{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Size:        e.Size,
		Factions:    factionData(e.Factions),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

func simulationLogData(l store.SimulationLog) SimulationLogData {
	return SimulationLogData{
		ID:                l.ID,
		ElectorateID:      l.ElectorateID,
		PolicyTitle:       l.PolicyTitle,
		Ayes:              l.Ayes,
		Nays:              l.Nays,
		Abstentions:       l.Abstentions,
		TurnoutPercentage: l.TurnoutPercentage,
		Passed:            l.Passed,
		Polarization:      l.Polarization,
		CreatedAt:         l.CreatedAt.Format(time.RFC3339),
	}
}
