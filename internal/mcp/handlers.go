package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/polisim/internal/constants"
	"github.com/nvandessel/polisim/internal/faction"
	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/ratelimit"
	"github.com/nvandessel/polisim/internal/rng"
	"github.com/nvandessel/polisim/internal/sanitize"
	"github.com/nvandessel/polisim/internal/seed"
	"github.com/nvandessel/polisim/internal/simulation"
	"github.com/nvandessel/polisim/internal/store"
)

// Tool names.
const (
	ToolSimulate       = "polisim_simulate"
	ToolPolarization   = "polisim_polarization"
	ToolCluster        = "polisim_cluster"
	ToolGenerate       = "polisim_generate"
	ToolElectorateSave = "polisim_electorate_save"
	ToolElectorateList = "polisim_electorate_list"
	ToolElectorateGet  = "polisim_electorate_get"
	ToolStats          = "polisim_stats"
)

// maxTrials bounds the repeated runs a single simulate call may request.
const maxTrials = 1000

// registerTools registers all polisim MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolSimulate,
		Description: "Simulate a vote on a policy: sample each citizen's turnout and vote and tally the result",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolPolarization,
		Description: "Compute the polarization index (mean distance to the centroid) of an electorate",
	}, s.handlePolarization)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolCluster,
		Description: "Partition an electorate into ideological factions with k-means++",
	}, s.handleCluster)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolGenerate,
		Description: "Generate a synthetic electorate, or return the built-in sample electorate",
	}, s.handleGenerate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolElectorateSave,
		Description: "Save a named electorate (and optional factions)",
	}, s.handleElectorateSave)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolElectorateList,
		Description: "List saved electorates, newest first",
	}, s.handleElectorateList)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolElectorateGet,
		Description: "Get a saved electorate with its citizens and factions",
	}, s.handleElectorateGet)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolStats,
		Description: "Summarize the simulation log: totals, pass/fail, average turnout, recent runs",
	}, s.handleStats)
}

// resolveElectorate returns the citizens named by src: a saved electorate
// when ElectorateID is set, the inline citizens otherwise.
func (s *Server) resolveElectorate(ctx context.Context, src ElectorateSource) ([]ideology.Citizen, error) {
	if src.ElectorateID != "" {
		if len(src.Citizens) > 0 {
			return nil, fmt.Errorf("provide either electorate_id or citizens, not both")
		}
		e, err := s.store.GetElectorate(ctx, src.ElectorateID)
		if err != nil {
			return nil, err
		}
		return e.Citizens, nil
	}
	return toCitizens(src.Citizens)
}

// pickSeed returns seed, or a fresh one that survives a JSON float64 round trip.
func pickSeed(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return rng.RandomSeed() >> 11
}

func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolSimulate, start, retErr, sanitizeToolParams(map[string]any{
			"electorate_id": args.ElectorateID, "citizens": args.Citizens, "policy": args.Policy.Title,
			"seed": args.Seed, "trials": args.Trials, "include_votes": args.IncludeVotes, "log": args.Log,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolSimulate); err != nil {
		return nil, SimulateOutput{}, err
	}

	if args.Trials < 0 || args.Trials > maxTrials {
		return nil, SimulateOutput{}, fmt.Errorf("trials must be between 0 and %d, got %d", maxTrials, args.Trials)
	}
	policy, err := args.Policy.toPolicy()
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	citizens, err := s.resolveElectorate(ctx, args.ElectorateSource)
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	seedUsed := pickSeed(args.Seed)
	src := rng.New(seedUsed)
	res := s.runner.Run(citizens, policy, src)

	out := SimulateOutput{
		Seed:              seedUsed,
		SupportCount:      res.SupportCount,
		OpposeCount:       res.OpposeCount,
		TotalVotes:        res.TotalVotes,
		Abstentions:       res.Abstentions,
		TurnoutRate:       res.TurnoutRate,
		MarginOfVictory:   res.MarginOfVictory,
		Passed:            res.Passed,
		PolarizationIndex: res.PolarizationIndex,
		Expected:          s.runner.Expect(citizens, policy),
	}
	if args.Trials > 0 {
		summary := s.runner.Trials(citizens, policy, src, args.Trials)
		out.Trials = &summary
	}
	if args.IncludeVotes {
		out.Votes = voteData(res.Votes)
	}

	if args.Log {
		entry := store.NewSimulationLog(args.ElectorateID, res)
		if err := s.store.LogSimulation(ctx, &entry); err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("logging simulation: %w", err)
		}
		out.LogID = entry.ID
	}

	s.logSimulation(args.ElectorateID, seedUsed, res)
	return nil, out, nil
}

// logSimulation writes a run record when run logging is enabled.
func (s *Server) logSimulation(electorateID string, seedUsed uint64, res simulation.Result) {
	if s.runLogger == nil {
		return
	}
	fields := map[string]any{
		"source":        "mcp",
		"electorate_id": electorateID,
		"policy":        res.Policy.Title,
		"seed":          seedUsed,
		"support":       res.SupportCount,
		"oppose":        res.OpposeCount,
		"abstentions":   res.Abstentions,
		"passed":        res.Passed,
		"polarization":  res.PolarizationIndex,
	}
	if s.runLogger.Trace() {
		fields["votes"] = res.Votes
	}
	s.runLogger.Log("simulation", fields)
}

func (s *Server) handlePolarization(ctx context.Context, req *sdk.CallToolRequest, args PolarizationInput) (_ *sdk.CallToolResult, _ PolarizationOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolPolarization, start, retErr, sanitizeToolParams(map[string]any{
			"electorate_id": args.ElectorateID, "citizens": args.Citizens,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolPolarization); err != nil {
		return nil, PolarizationOutput{}, err
	}

	citizens, err := s.resolveElectorate(ctx, args.ElectorateSource)
	if err != nil {
		return nil, PolarizationOutput{}, err
	}
	vectors := ideology.Vectors(citizens)

	return nil, PolarizationOutput{
		Size:              len(citizens),
		PolarizationIndex: simulation.PolarizationIndex(vectors),
		Centroid:          vectorData(ideology.Centroid(vectors)),
	}, nil
}

func (s *Server) handleCluster(ctx context.Context, req *sdk.CallToolRequest, args ClusterInput) (_ *sdk.CallToolResult, _ ClusterOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolCluster, start, retErr, sanitizeToolParams(map[string]any{
			"electorate_id": args.ElectorateID, "citizens": args.Citizens,
			"k": args.K, "seed": args.Seed, "save": args.Save,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolCluster); err != nil {
		return nil, ClusterOutput{}, err
	}

	if args.Save && args.ElectorateID == "" {
		return nil, ClusterOutput{}, fmt.Errorf("save requires electorate_id")
	}
	if args.K < 0 {
		return nil, ClusterOutput{}, fmt.Errorf("k must be non-negative, got %d", args.K)
	}
	citizens, err := s.resolveElectorate(ctx, args.ElectorateSource)
	if err != nil {
		return nil, ClusterOutput{}, err
	}
	if err := faction.CheckSize(len(citizens)); err != nil {
		return nil, ClusterOutput{}, err
	}

	seedUsed := pickSeed(args.Seed)
	part, err := faction.Discover(ctx, s.clusterer, citizens, args.K, seedUsed)
	if err != nil {
		return nil, ClusterOutput{}, err
	}

	out := ClusterOutput{
		K:           part.K,
		Seed:        seedUsed,
		Iterations:  part.Iterations,
		Converged:   part.Converged,
		Inertia:     part.Inertia,
		Factions:    factionData(part.Factions),
		Summaries:   make([]string, len(part.Factions)),
		Assignments: make([]AssignmentData, len(part.Assignments)),
	}
	for i, f := range part.Factions {
		out.Summaries[i] = faction.Describe(f)
	}
	for i, a := range part.Assignments {
		out.Assignments[i] = AssignmentData(a)
	}

	if args.Save {
		if err := s.store.SaveFactions(ctx, args.ElectorateID, part.Factions); err != nil {
			return nil, ClusterOutput{}, fmt.Errorf("saving factions: %w", err)
		}
		out.Saved = true
	}

	s.runLogger.Log("cluster", map[string]any{
		"source":        "mcp",
		"electorate_id": args.ElectorateID,
		"k":             part.K,
		"seed":          seedUsed,
		"iterations":    part.Iterations,
		"converged":     part.Converged,
		"inertia":       part.Inertia,
	})
	return nil, out, nil
}

func (s *Server) handleGenerate(ctx context.Context, req *sdk.CallToolRequest, args GenerateInput) (_ *sdk.CallToolResult, _ GenerateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolGenerate, start, retErr, sanitizeToolParams(map[string]any{
			"count": args.Count, "seed": args.Seed, "sample": args.Sample,
			"save": args.Save, "name": args.Name,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolGenerate); err != nil {
		return nil, GenerateOutput{}, err
	}

	var (
		citizens []ideology.Citizen
		out      GenerateOutput
	)
	if args.Sample {
		citizens = seed.Sample()
	} else {
		count := args.Count
		if count == 0 {
			count = constants.DefaultElectorateSize
		}
		if count < 1 || count > constants.MaxElectorateSize {
			return nil, GenerateOutput{}, fmt.Errorf("count must be between 1 and %d, got %d", constants.MaxElectorateSize, count)
		}
		out.Seed = pickSeed(args.Seed)
		var err error
		citizens, err = seed.Generate(rng.New(out.Seed), count)
		if err != nil {
			return nil, GenerateOutput{}, err
		}
	}

	if args.Save {
		name := args.Name
		if name == "" {
			name = fmt.Sprintf("Synthetic electorate (%d)", len(citizens))
		}
		e := &store.Electorate{Name: sanitize.Label(name), Description: sanitize.Text(args.Description), Citizens: citizens}
		if err := s.store.SaveElectorate(ctx, e); err != nil {
			return nil, GenerateOutput{}, fmt.Errorf("saving electorate: %w", err)
		}
		out.ElectorateID = e.ID
	}

	out.Citizens = citizenData(citizens)
	return nil, out, nil
}

func (s *Server) handleElectorateSave(ctx context.Context, req *sdk.CallToolRequest, args ElectorateSaveInput) (_ *sdk.CallToolResult, _ ElectorateSaveOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolElectorateSave, start, retErr, sanitizeToolParams(map[string]any{
			"name": args.Name, "description": args.Description,
			"citizens": args.Citizens, "factions": args.Factions,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolElectorateSave); err != nil {
		return nil, ElectorateSaveOutput{}, err
	}

	citizens, err := toCitizens(args.Citizens)
	if err != nil {
		return nil, ElectorateSaveOutput{}, err
	}
	factions, err := toFactions(args.Factions)
	if err != nil {
		return nil, ElectorateSaveOutput{}, err
	}

	e := &store.Electorate{
		Name:        sanitize.Label(args.Name),
		Description: sanitize.Text(args.Description),
		Citizens:    citizens,
		Factions:    factions,
	}
	if err := s.store.SaveElectorate(ctx, e); err != nil {
		return nil, ElectorateSaveOutput{}, err
	}

	return nil, ElectorateSaveOutput{
		ID:        e.ID,
		Size:      e.Size,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *Server) handleElectorateList(ctx context.Context, req *sdk.CallToolRequest, args ElectorateListInput) (_ *sdk.CallToolResult, _ ElectorateListOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolElectorateList, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolElectorateList); err != nil {
		return nil, ElectorateListOutput{}, err
	}

	list, err := s.store.ListElectorates(ctx)
	if err != nil {
		return nil, ElectorateListOutput{}, err
	}

	out := ElectorateListOutput{Electorates: make([]ElectorateSummary, len(list)), Count: len(list)}
	for i, e := range list {
		out.Electorates[i] = electorateSummary(e)
	}
	return nil, out, nil
}

func (s *Server) handleElectorateGet(ctx context.Context, req *sdk.CallToolRequest, args ElectorateGetInput) (_ *sdk.CallToolResult, _ ElectorateGetOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolElectorateGet, start, retErr, sanitizeToolParams(map[string]any{"id": args.ID}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolElectorateGet); err != nil {
		return nil, ElectorateGetOutput{}, err
	}

	if args.ID == "" {
		return nil, ElectorateGetOutput{}, fmt.Errorf("id is required")
	}
	e, err := s.store.GetElectorate(ctx, args.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ElectorateGetOutput{}, fmt.Errorf("electorate %q not found", args.ID)
	}
	if err != nil {
		return nil, ElectorateGetOutput{}, err
	}

	return nil, ElectorateGetOutput{
		ElectorateSummary: electorateSummary(*e),
		Citizens:          citizenData(e.Citizens),
	}, nil
}

func (s *Server) handleStats(ctx context.Context, req *sdk.CallToolRequest, args StatsInput) (_ *sdk.CallToolResult, _ StatsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolStats, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolStats); err != nil {
		return nil, StatsOutput{}, err
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	out := StatsOutput{
		TotalSimulations: stats.TotalSimulations,
		Passed:           stats.Passed,
		Failed:           stats.Failed,
		AverageTurnout:   stats.AverageTurnout,
		Recent:           make([]SimulationLogData, len(stats.Recent)),
	}
	for i, l := range stats.Recent {
		out.Recent[i] = simulationLogData(l)
	}
	return nil, out, nil
}
