package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine_RejectsBadInputs(t *testing.T) {
	policy := stubPolicy{}
	scenario := testScenario([]CasualtySeed{{ID: 0, Triage: TriageGreen}}, nil)

	_, err := NewEngine(nil, policy)
	assert.Error(t, err)

	_, err = NewEngine(scenario, nil)
	assert.Error(t, err)

	empty := testScenario(nil, nil)
	empty.NumCasualties = 0
	_, err = NewEngine(empty, policy)
	assert.Error(t, err)

	noHospitals := testScenario([]CasualtySeed{{ID: 0, Triage: TriageGreen}}, nil)
	noHospitals.Hospitals = nil
	_, err = NewEngine(noHospitals, policy)
	assert.Error(t, err)
}

func TestNewEngine_BlackCasualtiesStartDeceased(t *testing.T) {
	scenario := testScenario([]CasualtySeed{
		{ID: 0, Lat: 34.05, Lon: -118.25, Triage: TriageBlack},
		{ID: 1, Lat: 34.05, Lon: -118.25, Triage: TriageGreen},
	}, nil)

	engine, err := NewEngine(scenario, stubPolicy{})
	require.NoError(t, err)

	assert.Equal(t, CasualtyDeceased, engine.Casualties[0].Status)
	assert.Equal(t, CasualtyWaiting, engine.Casualties[1].Status)
	// Pre-deceased casualties are not simulated deaths
	assert.Equal(t, 0, engine.Metrics.Deaths)
	assert.Equal(t, 1, engine.Metrics.CasualtiesWaiting)
}

// runSteps emulates the run loop for a fixed number of minutes.
func runSteps(e *Engine, minutes int) {
	for i := 0; i < minutes; i++ {
		e.Step()
		e.CurrentTime++
	}
}

func TestEngine_PickupDeliveryFlow(t *testing.T) {
	// GIVEN one RED casualty and one ambulance co-located with it
	scenario := testScenario(
		[]CasualtySeed{{ID: 0, Lat: 34.0500, Lon: -118.2500, Triage: TriageRed}},
		[]LatLon{{Lat: 34.0500, Lon: -118.2500}},
	)
	engine, err := NewEngine(scenario, &nearestHospitalPolicy{})
	require.NoError(t, err)

	// WHEN the simulation runs to completion
	engine.Run(DefaultMaxTimeMinutes)

	// THEN the casualty is delivered, not dead
	c := engine.Casualties[0]
	assert.Equal(t, CasualtyDelivered, c.Status)
	assert.True(t, c.Patient.Alive)
	assert.Equal(t, TreatmentDelivered, c.Patient.TreatmentStatus)
	assert.GreaterOrEqual(t, c.PickupTime, 0)
	assert.GreaterOrEqual(t, c.DeliveryTime, c.PickupTime)

	assert.Equal(t, 1, engine.Metrics.Transported)
	assert.Equal(t, 1, engine.Metrics.Pickups)
	assert.Equal(t, 0, engine.Metrics.Deaths)
	assert.Equal(t, 0, engine.Metrics.CasualtiesWaiting)
	assert.Equal(t, float64(c.PickupTime), engine.Metrics.AvgResponseTime)

	// The ambulance ends idle at the delivery hospital
	a := engine.Ambulances[0]
	assert.Equal(t, AmbulanceIdle, a.Status)
	assert.Equal(t, -1, a.PatientOnboard)

	// Events appear in causal order
	var order []EventType
	for _, ev := range engine.EventLog {
		if ev.Type == EventDispatch || ev.Type == EventPickup || ev.Type == EventDelivery {
			order = append(order, ev.Type)
		}
	}
	assert.Equal(t, []EventType{EventDispatch, EventPickup, EventDelivery}, order)
}

func TestEngine_RedDiesUntreated(t *testing.T) {
	// No ambulances: the RED casualty cannot be reached
	scenario := testScenario([]CasualtySeed{{ID: 0, Lat: 34.05, Lon: -118.25, Triage: TriageRed}}, nil)
	engine, err := NewEngine(scenario, stubPolicy{})
	require.NoError(t, err)

	runSteps(engine, 19)
	assert.True(t, engine.Casualties[0].Patient.Alive, "RED casualty dead before minute 20")

	runSteps(engine, 1)
	assert.False(t, engine.Casualties[0].Patient.Alive)
	assert.Equal(t, CasualtyDeceased, engine.Casualties[0].Status)
	assert.Equal(t, 1, engine.Metrics.Deaths)
	assert.True(t, engine.IsDone())

	// Exactly one DEATH event, at the minute of death
	deaths := 0
	for _, ev := range engine.EventLog {
		if ev.Type == EventDeath {
			deaths++
			assert.Equal(t, 19, ev.Time)
		}
	}
	assert.Equal(t, 1, deaths)
}

func TestEngine_DeceasedIsTerminal(t *testing.T) {
	// GIVEN a casualty that will die long before the ambulance arrives
	// (~37 km away, ~28 min travel vs 20 min to death)
	scenario := testScenario(
		[]CasualtySeed{{ID: 0, Lat: 34.0500, Lon: -118.2500, Triage: TriageRed}},
		[]LatLon{{Lat: 34.0500, Lon: -118.6500}},
	)
	engine, err := NewEngine(scenario, &nearestHospitalPolicy{})
	require.NoError(t, err)

	// Step past both the death (~minute 20) and the arrival (~minute 28)
	runSteps(engine, 40)

	// THEN the casualty stays DECEASED: never picked up, never delivered
	c := engine.Casualties[0]
	assert.Equal(t, CasualtyDeceased, c.Status)
	assert.Equal(t, -1, c.PickupTime)
	assert.Equal(t, 0, engine.Metrics.Transported)
	assert.Equal(t, 0, engine.Metrics.Pickups)
	assert.Equal(t, 1, engine.Metrics.Deaths)

	// The ambulance is released at the scene rather than stranded
	assert.Equal(t, AmbulanceIdle, engine.Ambulances[0].Status)
	assert.Equal(t, -1, engine.Ambulances[0].PatientOnboard)

	for _, ev := range engine.EventLog {
		assert.NotEqual(t, EventPickup, ev.Type, "dead casualty was picked up")
		assert.NotEqual(t, EventDelivery, ev.Type, "dead casualty was delivered")
	}
}

func TestEngine_AmbulanceExclusivity(t *testing.T) {
	scenario := testScenario(
		[]CasualtySeed{
			{ID: 0, Lat: 34.0505, Lon: -118.2505, Triage: TriageRed},
			{ID: 1, Lat: 34.0510, Lon: -118.2510, Triage: TriageYellow},
			{ID: 2, Lat: 34.0490, Lon: -118.2490, Triage: TriageGreen},
		},
		[]LatLon{
			{Lat: 34.0500, Lon: -118.2500},
			{Lat: 34.0520, Lon: -118.2520},
		},
	)
	engine, err := NewEngine(scenario, &triagePriorityPolicy{})
	require.NoError(t, err)

	for minute := 0; minute < DefaultMaxTimeMinutes && !engine.IsDone(); minute++ {
		engine.Step()
		engine.CurrentTime++

		// No casualty rides in two ambulances at once
		onboard := map[int]int{}
		for _, a := range engine.Ambulances {
			if a.PatientOnboard == -1 {
				continue
			}
			if prev, dup := onboard[a.PatientOnboard]; dup {
				t.Fatalf("minute %d: casualty %d on ambulances %d and %d",
					minute, a.PatientOnboard, prev, a.ID)
			}
			onboard[a.PatientOnboard] = a.ID
		}

		// Assignment backreferences stay consistent
		for _, c := range engine.Casualties {
			if c.Status == CasualtyAssigned || c.Status == CasualtyEnroute {
				assert.NotEqual(t, -1, c.AssignedAmbulanceID)
			}
		}
	}
	assert.True(t, engine.IsDone())
}

func TestEngine_IgnoresStaleAndMalformedActions(t *testing.T) {
	scenario := testScenario(
		[]CasualtySeed{{ID: 0, Lat: 34.0500, Lon: -118.2500, Triage: TriageYellow}},
		[]LatLon{{Lat: 34.0500, Lon: -118.2500}},
	)
	malicious := stubPolicy{decide: func(state *State) map[int]Action {
		// Ambulance 99 does not exist; casualty 42 does not exist.
		return map[int]Action{
			99: {Type: ActionDispatchToCasualty, CasualtyID: 0, HospitalID: "lacusc"},
			0:  {Type: ActionDispatchToCasualty, CasualtyID: 42, HospitalID: "lacusc"},
		}
	}}
	engine, err := NewEngine(scenario, malicious)
	require.NoError(t, err)

	// Must not panic or corrupt state
	runSteps(engine, 3)

	assert.Equal(t, CasualtyWaiting, engine.Casualties[0].Status)
	assert.Equal(t, AmbulanceIdle, engine.Ambulances[0].Status)

	// Unknown hospital at dispatch is also skipped
	badHospital := stubPolicy{decide: func(state *State) map[int]Action {
		return map[int]Action{0: {Type: ActionDispatchToCasualty, CasualtyID: 0, HospitalID: "nowhere"}}
	}}
	engine2, err := NewEngine(scenario, badHospital)
	require.NoError(t, err)
	runSteps(engine2, 3)
	assert.Equal(t, CasualtyWaiting, engine2.Casualties[0].Status)
}

func TestEngine_MoveAndReturnActions(t *testing.T) {
	scenario := testScenario(
		[]CasualtySeed{{ID: 0, Lat: 34.0500, Lon: -118.2500, Triage: TriageGreen}},
		nil,
	)
	scenario.ManualAmbulances = nil
	scenario.SpawnConfig = SpawnConfig{AmbulancesPerHospital: 1, Seed: 1}

	target := LatLon{Lat: 34.0400, Lon: -118.2400}
	issued := false
	mover := stubPolicy{decide: func(state *State) map[int]Action {
		if issued {
			return nil
		}
		issued = true
		return map[int]Action{0: {Type: ActionMoveToLocation, Target: target}}
	}}

	engine, err := NewEngine(scenario, mover)
	require.NoError(t, err)
	require.Equal(t, AmbulanceHospitalBased, engine.Ambulances[0].Type)

	runSteps(engine, 30)

	a := engine.Ambulances[0]
	assert.Equal(t, AmbulanceIdle, a.Status)
	assert.Equal(t, target.Lat, a.Lat)
	assert.Equal(t, target.Lon, a.Lon)

	var sawMove, sawRepositioned bool
	for _, ev := range engine.EventLog {
		switch ev.Type {
		case EventMoveToLocation:
			sawMove = true
		case EventRepositioned:
			sawRepositioned = true
		}
	}
	assert.True(t, sawMove)
	assert.True(t, sawRepositioned)
}

func TestEngine_ReturnToBaseIsNoopForFieldUnits(t *testing.T) {
	scenario := testScenario(
		[]CasualtySeed{{ID: 0, Lat: 34.0500, Lon: -118.2500, Triage: TriageGreen}},
		[]LatLon{{Lat: 34.0450, Lon: -118.2450}},
	)
	returner := stubPolicy{decide: func(state *State) map[int]Action {
		return map[int]Action{0: {Type: ActionReturnToBase}}
	}}
	engine, err := NewEngine(scenario, returner)
	require.NoError(t, err)

	runSteps(engine, 5)

	a := engine.Ambulances[0]
	assert.Equal(t, AmbulanceIdle, a.Status)
	assert.Equal(t, 34.0450, a.Lat)
}

func TestEngine_RunNeverExceedsMaxTime(t *testing.T) {
	// A GREEN casualty with no ambulances never completes
	scenario := testScenario([]CasualtySeed{{ID: 0, Lat: 34.05, Lon: -118.25, Triage: TriageGreen}}, nil)
	engine, err := NewEngine(scenario, stubPolicy{})
	require.NoError(t, err)

	engine.Run(30)

	assert.Equal(t, 30, engine.CurrentTime)
	assert.False(t, engine.IsDone())
	// Finalize ran: no pickups means zero average
	assert.Equal(t, 0.0, engine.Metrics.AvgResponseTime)

	last := engine.EventLog[len(engine.EventLog)-1]
	assert.Equal(t, EventSimulationEnd, last.Type)
}

func TestEngine_EventTimesMonotonic(t *testing.T) {
	scenario := testScenario(
		[]CasualtySeed{
			{ID: 0, Lat: 34.0505, Lon: -118.2505, Triage: TriageRed},
			{ID: 1, Lat: 34.0490, Lon: -118.2490, Triage: TriageBlack},
			{ID: 2, Lat: 34.0510, Lon: -118.2510, Triage: TriageYellow},
		},
		[]LatLon{{Lat: 34.0500, Lon: -118.2500}},
	)
	engine, err := NewEngine(scenario, &loadBalancingPolicy{})
	require.NoError(t, err)

	var notified []Event
	engine.RegisterListener(func(ev Event) { notified = append(notified, ev) })

	engine.Run(DefaultMaxTimeMinutes)

	require.NotEmpty(t, engine.EventLog)
	for i := 1; i < len(engine.EventLog); i++ {
		assert.GreaterOrEqual(t, engine.EventLog[i].Time, engine.EventLog[i-1].Time)
	}
	// Listeners see exactly the log, in order
	assert.Equal(t, engine.EventLog, notified)
}

func TestEngine_StateSnapshotReflectsPromotedTriage(t *testing.T) {
	scenario := testScenario([]CasualtySeed{{ID: 0, Lat: 34.05, Lon: -118.25, Triage: TriageYellow}}, nil)
	engine, err := NewEngine(scenario, stubPolicy{})
	require.NoError(t, err)

	// Decay the casualty past the promotion threshold
	engine.Casualties[0].Patient.Update(260)

	state := engine.State()
	assert.Equal(t, TriageRed, state.Casualties[0].Triage)
	// The seed triage on the casualty record is untouched
	assert.Equal(t, TriageYellow, engine.Casualties[0].Triage)
}
