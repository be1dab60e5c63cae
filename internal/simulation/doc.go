// Package simulation models how an electorate votes on a policy.
//
// For every citizen the runner computes the ideological distance to the
// policy, maps it to a support probability (logistic in distance) and a
// turnout probability (higher the further a citizen sits from indifference),
// then samples whether the citizen votes and which way. Citizens are
// independent, so fixed-size blocks of citizens may be sampled by concurrent
// workers; results are reproducible for a fixed seed whatever the worker count.
//
// Usage:
//
//	runner := simulation.NewRunner(simulation.DefaultConfig())
//	result := runner.Run(electorate, policy, rng.New(42))
//	fmt.Println(result.Passed, result.SupportCount, result.OpposeCount)
//
// The package has no I/O and keeps no state between calls.
package simulation
