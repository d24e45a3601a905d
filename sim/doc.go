// Package sim provides the core discrete-event simulation engine for
// mass-casualty-incident (MCI) ambulance dispatch.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - patient.go: per-casualty health deterioration state machine
//   - policy.go: the DispatchPolicy contract and name registry
//   - engine.go: the six-phase per-minute step loop
//
// # Architecture
//
// Time advances in whole simulated minutes. Each Engine owns its casualties
// and ambulances exclusively; policies observe the world through read-only
// State snapshots and return per-ambulance actions. Scenario generation
// (scenario.go) is fully seed-driven: the same seed always reproduces the
// same incident, casualty set, and ambulance spawn.
//
// Multi-instance lifecycle control lives in the sim/orchestrator sub-package.
package sim
