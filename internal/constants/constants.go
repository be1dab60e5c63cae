// Package constants provides named constants used throughout the polisim codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Support probability sigmoid parameters.
const (
	// DefaultAlpha is the steepness of the support sigmoid. Higher values make
	// support fall off more sharply past the inflection point.
	DefaultAlpha = 2.5

	// DefaultInflection is the ideological distance at which support is exactly 0.5.
	// The widest possible distance in the space is sqrt(12) ≈ 3.46; typical
	// pairwise distances fall between 1.2 and 1.5, so broadly centrist proposals
	// can still reach a super-majority.
	DefaultInflection = 1.6
)

// Turnout model parameters. Turnout ranges over
// [TurnoutFloor, TurnoutFloor+TurnoutSpan] before any appeal boost.
const (
	// TurnoutFloor is the participation rate of a fully indifferent citizen.
	TurnoutFloor = 0.40

	// TurnoutSpan is the extra participation gained at full motivation.
	TurnoutSpan = 0.55

	// MotivationSaturation is the distance from the inflection point at which
	// motivation stops growing.
	MotivationSaturation = 1.5

	// AppealTurnoutWeight scales how much |universal appeal| raises turnout.
	AppealTurnoutWeight = 0.5

	// SimulationBlockSize is the number of citizens that share one child random
	// source during a simulation run. It is fixed so results for a seed do not
	// depend on the worker count.
	SimulationBlockSize = 64
)

// Faction discovery constants.
const (
	// MinFactions and MaxFactions bound the automatically chosen cluster count.
	MinFactions = 2
	MaxFactions = 5

	// CitizensPerFaction is the population divisor used to pick k.
	CitizensPerFaction = 10

	// MinElectorateSize is the smallest electorate the CLI and MCP server will cluster.
	MinElectorateSize = 10

	// DefaultMaxIterations caps Lloyd iterations in k-means.
	DefaultMaxIterations = 100

	// DefaultTolerance is the centroid movement below which k-means is considered converged.
	DefaultTolerance = 1e-9
)

// Synthetic electorate limits.
const (
	// DefaultElectorateSize is the number of citizens generated when no count is given.
	DefaultElectorateSize = 50

	// MaxElectorateSize bounds generated and accepted electorates.
	MaxElectorateSize = 100000
)

// Stats reporting.
const (
	// RecentSimulationLimit is how many recent runs Stats returns.
	RecentSimulationLimit = 10
)
