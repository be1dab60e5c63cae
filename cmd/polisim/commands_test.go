package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/polisim/internal/pathutil"
	"github.com/nvandessel/polisim/internal/store"
)

type generateOutput struct {
	Seed   uint64 `json:"seed"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
	Output string `json:"output"`
}

type simulateOutput struct {
	Seed   uint64 `json:"seed"`
	LogID  string `json:"log_id"`
	Result struct {
		SupportCount int     `json:"support_count"`
		OpposeCount  int     `json:"oppose_count"`
		TotalVotes   int     `json:"total_votes"`
		Abstentions  int     `json:"abstentions"`
		TurnoutRate  float64 `json:"turnout_rate"`
		Passed       bool    `json:"passed"`
		Votes        []any   `json:"votes"`
	} `json:"result"`
	Trials *struct {
		Trials int `json:"trials"`
	} `json:"trials"`
}

// saveSample stores the built-in sample electorate and returns its ID.
func saveSample(t *testing.T) string {
	t.Helper()
	var gen generateOutput
	decode(t, mustRun(t, "generate", "--sample", "--save", "--name", "Sample", "--json"), &gen)
	if gen.ID == "" {
		t.Fatal("generate --save returned no id")
	}
	return gen.ID
}

func TestGenerate_WritesFile(t *testing.T) {
	dataDir := isolateHome(t)
	outPath := filepath.Join(dataDir, "town.yaml")

	var gen generateOutput
	decode(t, mustRun(t, "generate", "--count", "25", "--seed", "5", "-o", outPath, "--json"), &gen)
	if gen.Seed != 5 || gen.Size != 25 {
		t.Errorf("generate output = %+v", gen)
	}
	if gen.ID != "" {
		t.Error("electorate should not be saved without --save")
	}

	el, err := store.ReadElectorateFile(outPath)
	if err != nil {
		t.Fatalf("ReadElectorateFile: %v", err)
	}
	if len(el.Citizens) != 25 {
		t.Errorf("file has %d citizens, want 25", len(el.Citizens))
	}

	// Same seed, same electorate.
	again := filepath.Join(dataDir, "again.json")
	mustRun(t, "generate", "--count", "25", "--seed", "5", "-o", again)
	el2, err := store.ReadElectorateFile(again)
	if err != nil {
		t.Fatalf("ReadElectorateFile: %v", err)
	}
	if el2.Citizens[0].ID != el.Citizens[0].ID || el2.Citizens[0].Ideology != el.Citizens[0].Ideology {
		t.Errorf("seeded generation differs: %+v vs %+v", el2.Citizens[0], el.Citizens[0])
	}
}

func TestGenerate_Errors(t *testing.T) {
	isolateHome(t)

	if _, err := run(t, "generate", "--count", "0"); err == nil {
		t.Error("expected error for --count 0")
	}

	_, err := run(t, "generate", "--count", "5", "-o", filepath.Join(t.TempDir(), "escape.json"))
	if !errors.Is(err, pathutil.ErrOutsideAllowed) {
		t.Errorf("error = %v, want ErrOutsideAllowed", err)
	}
}

func TestSimulate_FromFile(t *testing.T) {
	dataDir := isolateHome(t)
	electorate := filepath.Join(dataDir, "town.json")
	mustRun(t, "generate", "--count", "40", "--seed", "3", "-o", electorate)
	policy := writeFile(t, t.TempDir(), "policy.yaml", testPolicyYAML)

	var first simulateOutput
	decode(t, mustRun(t, "simulate", "--electorate", electorate, "--policy", policy, "--seed", "42", "--trials", "5", "--json"), &first)

	r := first.Result
	if first.Seed != 42 {
		t.Errorf("seed = %d, want 42", first.Seed)
	}
	if r.SupportCount+r.OpposeCount != r.TotalVotes || r.TotalVotes+r.Abstentions != 40 {
		t.Errorf("inconsistent tallies: %+v", r)
	}
	if r.Passed != (r.SupportCount > r.OpposeCount) {
		t.Errorf("passed = %v with %d/%d", r.Passed, r.SupportCount, r.OpposeCount)
	}
	if r.Votes != nil {
		t.Error("votes should be omitted without --votes")
	}
	if first.Trials == nil || first.Trials.Trials != 5 {
		t.Errorf("trials = %+v, want 5", first.Trials)
	}

	var second simulateOutput
	decode(t, mustRun(t, "simulate", "--electorate", electorate, "--policy", policy, "--seed", "42", "--trials", "5", "--json"), &second)
	if second.Result.SupportCount != r.SupportCount || second.Result.Abstentions != r.Abstentions {
		t.Errorf("seeded runs differ: %+v vs %+v", second.Result, r)
	}

	text := mustRun(t, "simulate", "--electorate", electorate, "--policy", policy, "--seed", "42", "--votes")
	if !strings.Contains(text, "Carbon tax:") || !strings.Contains(text, "Votes:") {
		t.Errorf("text output missing sections:\n%s", text)
	}
}

func TestSimulate_LogAndStats(t *testing.T) {
	isolateHome(t)
	id := saveSample(t)
	policy := writeFile(t, t.TempDir(), "policy.yaml", testPolicyYAML)

	var sim simulateOutput
	decode(t, mustRun(t, "simulate", "--electorate", id, "--policy", policy, "--seed", "9", "--log", "--json"), &sim)
	if sim.LogID == "" {
		t.Fatal("log_id is empty")
	}

	var stats store.Stats
	decode(t, mustRun(t, "stats", "--json"), &stats)
	if stats.TotalSimulations != 1 || len(stats.Recent) != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	got := stats.Recent[0]
	if got.ID != sim.LogID || got.ElectorateID != id || got.PolicyTitle != "Carbon tax" {
		t.Errorf("logged entry = %+v", got)
	}
	if got.Ayes != sim.Result.SupportCount || got.Nays != sim.Result.OpposeCount {
		t.Errorf("logged %d/%d, want %d/%d", got.Ayes, got.Nays, sim.Result.SupportCount, sim.Result.OpposeCount)
	}
	if stats.Passed+stats.Failed != 1 {
		t.Errorf("passed %d + failed %d != 1", stats.Passed, stats.Failed)
	}

	if out := mustRun(t, "stats"); !strings.Contains(out, "Total:           1") {
		t.Errorf("stats text output:\n%s", out)
	}
}

func TestSimulate_Errors(t *testing.T) {
	dataDir := isolateHome(t)
	electorate := filepath.Join(dataDir, "town.json")
	mustRun(t, "generate", "--count", "10", "--seed", "1", "-o", electorate)
	policy := writeFile(t, t.TempDir(), "policy.yaml", testPolicyYAML)
	badPolicy := writeFile(t, t.TempDir(), "bad.yaml", strings.Replace(testPolicyYAML, "economic: -0.4", "economic: -4", 1))

	tests := []struct {
		name string
		args []string
	}{
		{"missing policy", []string{"simulate", "--electorate", electorate}},
		{"missing electorate", []string{"simulate", "--policy", policy}},
		{"unknown electorate", []string{"simulate", "--electorate", "no-such-id", "--policy", policy}},
		{"policy out of bounds", []string{"simulate", "--electorate", electorate, "--policy", badPolicy}},
		{"appeal out of bounds", []string{"simulate", "--electorate", electorate, "--policy", policy, "--appeal", "1.5"}},
		{"negative trials", []string{"simulate", "--electorate", electorate, "--policy", policy, "--trials", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPolarization(t *testing.T) {
	isolateHome(t)
	id := saveSample(t)

	var out struct {
		Size              int     `json:"size"`
		PolarizationIndex float64 `json:"polarization_index"`
	}
	decode(t, mustRun(t, "polarization", "--electorate", id, "--json"), &out)
	if out.Size != 10 {
		t.Errorf("size = %d, want 10", out.Size)
	}
	if out.PolarizationIndex <= 0 {
		t.Errorf("polarization_index = %f, want > 0", out.PolarizationIndex)
	}

	if text := mustRun(t, "polarization", "--electorate", id); !strings.Contains(text, "Polarization index:") {
		t.Errorf("text output:\n%s", text)
	}
}

func TestCluster_SaveFactions(t *testing.T) {
	isolateHome(t)
	id := saveSample(t)

	var out struct {
		Seed      uint64 `json:"seed"`
		Saved     bool   `json:"saved"`
		Partition struct {
			K           int   `json:"k"`
			Assignments []any `json:"assignments"`
			Factions    []any `json:"factions"`
		} `json:"partition"`
	}
	decode(t, mustRun(t, "cluster", "--electorate", id, "--k", "3", "--seed", "1", "--save", "--json"), &out)
	if out.Partition.K != 3 || len(out.Partition.Factions) != 3 || len(out.Partition.Assignments) != 10 {
		t.Errorf("partition = %+v", out.Partition)
	}
	if !out.Saved || out.Seed != 1 {
		t.Errorf("seed = %d saved = %v", out.Seed, out.Saved)
	}

	var el store.Electorate
	decode(t, mustRun(t, "electorate", "show", id, "--json"), &el)
	if len(el.Factions) != 3 {
		t.Errorf("stored factions = %d, want 3", len(el.Factions))
	}
}

func TestCluster_Members(t *testing.T) {
	isolateHome(t)
	id := saveSample(t)

	var out struct {
		Partition struct {
			K int `json:"k"`
		} `json:"partition"`
		Members [][]string `json:"members"`
	}
	decode(t, mustRun(t, "cluster", "--electorate", id, "--k", "3", "--seed", "2", "--members", "--json"), &out)
	if len(out.Members) != out.Partition.K {
		t.Fatalf("members groups = %d, want %d", len(out.Members), out.Partition.K)
	}
	seen := make(map[string]bool)
	for _, group := range out.Members {
		for _, cid := range group {
			if seen[cid] {
				t.Errorf("citizen %s listed twice", cid)
			}
			seen[cid] = true
		}
	}
	if len(seen) != 10 {
		t.Errorf("listed %d citizens, want 10", len(seen))
	}

	text := mustRun(t, "cluster", "--electorate", id, "--k", "3", "--seed", "2", "--members")
	if got := strings.Count(text, "- Members: "); got != 3 {
		t.Errorf("member lines = %d, want 3:\n%s", got, text)
	}
	if plain := mustRun(t, "cluster", "--electorate", id, "--k", "3", "--seed", "2"); strings.Contains(plain, "Members:") {
		t.Errorf("members listed without --members:\n%s", plain)
	}
}

func TestCluster_Errors(t *testing.T) {
	dataDir := isolateHome(t)
	small := filepath.Join(dataDir, "small.json")
	mustRun(t, "generate", "--count", "5", "--seed", "1", "-o", small)
	town := filepath.Join(dataDir, "town.json")
	mustRun(t, "generate", "--count", "30", "--seed", "1", "-o", town)

	tests := []struct {
		name string
		args []string
	}{
		{"too small", []string{"cluster", "--electorate", small}},
		{"save from file", []string{"cluster", "--electorate", town, "--save"}},
		{"negative k", []string{"cluster", "--electorate", town, "--k", "-2"}},
		{"k above size", []string{"cluster", "--electorate", town, "--k", "31"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}

	if text := mustRun(t, "cluster", "--electorate", town, "--k", "2", "--seed", "4"); !strings.Contains(text, "2 factions") {
		t.Errorf("text output:\n%s", text)
	}
}

func TestElectorate_Lifecycle(t *testing.T) {
	dataDir := isolateHome(t)
	src := filepath.Join(dataDir, "town.yaml")
	mustRun(t, "generate", "--count", "12", "--seed", "8", "-o", src)

	var imported struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Size int    `json:"size"`
	}
	decode(t, mustRun(t, "electorate", "import", src, "--name", "Springfield", "--json"), &imported)
	if imported.ID == "" || imported.Name != "Springfield" || imported.Size != 12 {
		t.Fatalf("import = %+v", imported)
	}

	var list struct {
		Electorates []store.Electorate `json:"electorates"`
		Count       int                `json:"count"`
	}
	decode(t, mustRun(t, "electorate", "list", "--json"), &list)
	if list.Count != 1 || list.Electorates[0].ID != imported.ID {
		t.Fatalf("list = %+v", list)
	}
	if len(list.Electorates[0].Citizens) != 0 {
		t.Error("list should not carry citizens")
	}

	exported := filepath.Join(dataDir, "exports", "springfield.json")
	mustRun(t, "electorate", "export", imported.ID, "-o", exported)
	el, err := store.ReadElectorateFile(exported)
	if err != nil {
		t.Fatalf("ReadElectorateFile: %v", err)
	}
	if el.Name != "Springfield" || len(el.Citizens) != 12 {
		t.Errorf("exported %q with %d citizens", el.Name, len(el.Citizens))
	}

	if text := mustRun(t, "electorate", "show", imported.ID); !strings.Contains(text, "Springfield") {
		t.Errorf("show output:\n%s", text)
	}

	mustRun(t, "electorate", "delete", imported.ID)
	if _, err := run(t, "electorate", "delete", imported.ID); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("second delete error = %v, want not found", err)
	}
	if _, err := run(t, "electorate", "show", imported.ID); err == nil {
		t.Error("show after delete should fail")
	}
	if text := mustRun(t, "electorate", "list"); !strings.Contains(text, "No stored electorates") {
		t.Errorf("list output:\n%s", text)
	}
}

func TestElectorateExport_RejectsOutsidePath(t *testing.T) {
	isolateHome(t)
	id := saveSample(t)

	_, err := run(t, "electorate", "export", id, "-o", filepath.Join(t.TempDir(), "out.json"))
	if !errors.Is(err, pathutil.ErrOutsideAllowed) {
		t.Errorf("error = %v, want ErrOutsideAllowed", err)
	}
}
