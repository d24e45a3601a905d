package sim

import (
	"fmt"
	"sort"
)

// ActionType identifies what an ambulance is being told to do this step.
type ActionType string

const (
	ActionDispatchToCasualty ActionType = "DISPATCH_TO_CASUALTY"
	ActionMoveToLocation     ActionType = "MOVE_TO_LOCATION"
	ActionReturnToBase       ActionType = "RETURN_TO_BASE"
	ActionWait               ActionType = "WAIT"
)

// Action is a single instruction for one ambulance. DISPATCH_TO_CASUALTY
// carries the casualty and the destination hospital; MOVE_TO_LOCATION
// carries a target coordinate.
type Action struct {
	Type       ActionType `json:"type"`
	CasualtyID int        `json:"casualty_id,omitempty"`
	HospitalID string     `json:"hospital_id,omitempty"`
	Target     LatLon     `json:"target,omitempty"`
}

// Policy maps a state snapshot to actions, keyed by ambulance ID. The engine
// invokes Decide once per timestep and only ever acts on idle ambulances.
// Implementations must not assign the same casualty to two ambulances within
// a single Decide call.
type Policy interface {
	Name() string
	Decide(state *State) map[int]Action
}

// policyFactory builds a policy instance for a simulation. Policies that
// need randomness derive it from the seed so runs stay reproducible.
type policyFactory func(seed int64) Policy

// ValidPolicies is the registry of selectable dispatch policies.
var ValidPolicies = map[string]policyFactory{
	"random":           func(seed int64) Policy { return newRandomPolicy(seed) },
	"nearest_hospital": func(int64) Policy { return &nearestHospitalPolicy{} },
	"triage_priority":  func(int64) Policy { return &triagePriorityPolicy{} },
	"trauma_matching":  func(int64) Policy { return &traumaMatchingPolicy{} },
	"load_balancing":   func(int64) Policy { return &loadBalancingPolicy{} },
}

// PolicyNames returns the registered policy names in sorted order.
func PolicyNames() []string {
	names := make([]string, 0, len(ValidPolicies))
	for name := range ValidPolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPolicy instantiates a registered policy by name.
func NewPolicy(name string, seed int64) (Policy, error) {
	factory, ok := ValidPolicies[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q (valid: %v)", name, PolicyNames())
	}
	return factory(seed), nil
}
