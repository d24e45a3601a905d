package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Engine is the core discrete-event state machine for one incident. It owns
// every casualty and ambulance object; nothing else mutates them. Not
// thread-safe: Step, Run and State must be called from a single goroutine.
type Engine struct {
	Scenario *Scenario
	Policy   Policy

	// CurrentTime is simulated minutes since scenario start. Step does not
	// advance it; the run loop does, after each step.
	CurrentTime int

	Casualties []*Casualty
	Ambulances []*Ambulance
	Hospitals  []Hospital

	Metrics  Metrics
	EventLog []Event

	hospitalsByID map[string]Hospital
	listeners     []Listener
}

// NewEngine builds an engine from a scenario. Ambulances are materialized
// from the scenario's spawn config (or manual placements); casualties get
// fresh patients, BLACK ones starting deceased.
func NewEngine(scenario *Scenario, policy Policy) (*Engine, error) {
	if scenario == nil {
		return nil, fmt.Errorf("new engine: scenario is nil")
	}
	if policy == nil {
		return nil, fmt.Errorf("new engine: policy is nil")
	}
	if len(scenario.Hospitals) == 0 {
		return nil, fmt.Errorf("new engine: scenario has no hospitals")
	}
	if len(scenario.Casualties) == 0 {
		return nil, fmt.Errorf("new engine: scenario has no casualties")
	}

	e := &Engine{
		Scenario:      scenario,
		Policy:        policy,
		Hospitals:     scenario.Hospitals,
		Ambulances:    scenario.SpawnAmbulances(),
		hospitalsByID: make(map[string]Hospital, len(scenario.Hospitals)),
	}
	for _, h := range scenario.Hospitals {
		e.hospitalsByID[h.ID] = h
	}

	e.Casualties = make([]*Casualty, 0, len(scenario.Casualties))
	for _, seed := range scenario.Casualties {
		c := &Casualty{
			ID:                  seed.ID,
			Lat:                 seed.Lat,
			Lon:                 seed.Lon,
			Triage:              seed.Triage,
			Patient:             NewPatient(seed.Triage),
			Status:              CasualtyWaiting,
			AssignedAmbulanceID: -1,
			PickupTime:          -1,
			DeliveryTime:        -1,
		}
		if !c.Patient.Alive {
			c.Status = CasualtyDeceased
		}
		e.Casualties = append(e.Casualties, c)
	}

	e.Metrics.TotalCasualties = len(e.Casualties)
	e.refreshWaiting()
	return e, nil
}

// RegisterListener adds a synchronous event observer. Listeners are invoked
// in registration order on the stepping goroutine.
func (e *Engine) RegisterListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// State builds the read-only snapshot handed to the policy. Casualty views
// expose the live (possibly promoted) patient triage.
func (e *Engine) State() *State {
	state := &State{
		Casualties:       make([]CasualtyView, len(e.Casualties)),
		Ambulances:       make([]AmbulanceView, len(e.Ambulances)),
		Hospitals:        e.Hospitals,
		CurrentTime:      e.CurrentTime,
		IncidentLocation: e.Scenario.IncidentLocation,
	}
	for i, c := range e.Casualties {
		state.Casualties[i] = CasualtyView{
			ID:                  c.ID,
			Lat:                 c.Lat,
			Lon:                 c.Lon,
			Triage:              c.Patient.Triage,
			Health:              c.Patient.Health,
			IsAlive:             c.Patient.Alive,
			Status:              c.Status,
			AssignedAmbulanceID: c.AssignedAmbulanceID,
		}
	}
	for i, a := range e.Ambulances {
		state.Ambulances[i] = AmbulanceView{
			ID:             a.ID,
			Lat:            a.Lat,
			Lon:            a.Lon,
			Status:         a.Status,
			Type:           a.Type,
			BaseHospitalID: a.BaseHospitalID,
			PatientOnboard: a.PatientOnboard,
		}
	}
	return state
}

// Step advances the simulation by one minute. Phases run in a fixed order
// because later phases read state the earlier ones mutate:
// patient decay, movement tick, arrival resolution, policy invocation,
// action execution, metrics refresh.
//
// A panic inside the policy is deliberately not recovered here; the caller
// owns fault isolation.
func (e *Engine) Step() {
	// Phase 1: patient decay. Deaths are detected here, once, so a casualty
	// transitions to DECEASED at the exact minute its health reaches zero.
	for _, c := range e.Casualties {
		if c.Status == CasualtyDeceased {
			continue
		}
		wasAlive := c.Patient.Alive
		c.Patient.Update(1.0)
		if wasAlive && !c.Patient.Alive {
			c.Status = CasualtyDeceased
			e.Metrics.Deaths++
			e.logEvent(EventDeath, map[string]any{
				"casualty_id": c.ID,
				"triage":      string(c.Patient.Triage),
			})
		}
	}

	// Phase 2: movement tick. Positions only change on arrival.
	for _, a := range e.Ambulances {
		if a.Status == AmbulanceIdle {
			continue
		}
		a.TimeToTarget -= 1.0
		if a.TimeToTarget < 0 {
			a.TimeToTarget = 0
		}
	}

	// Phase 3: arrival resolution.
	for _, a := range e.Ambulances {
		if a.Status == AmbulanceIdle || a.TimeToTarget > 0 {
			continue
		}
		a.Lat = a.Target.Lat
		a.Lon = a.Target.Lon
		switch a.Status {
		case AmbulanceMovingToCasualty:
			e.executePickup(a)
		case AmbulanceMovingToHospital:
			e.executeDelivery(a)
		case AmbulanceMovingToLocation, AmbulanceReturningToBase:
			a.clearTask()
			e.logEvent(EventRepositioned, map[string]any{
				"ambulance_id": a.ID,
				"lat":          a.Lat,
				"lon":          a.Lon,
			})
		}
	}

	// Phase 4: policy invocation.
	actions := e.Policy.Decide(e.State())

	// Phase 5: action execution, in ascending ambulance ID for determinism.
	e.executeActions(actions)

	// Phase 6: metrics refresh.
	e.refreshWaiting()
}

// executePickup resolves an ambulance arriving at its assigned casualty. A
// casualty that died in transit releases the ambulance on the spot.
func (e *Engine) executePickup(a *Ambulance) {
	c := e.casualtyByID(a.PatientOnboard)
	if c == nil || c.Status == CasualtyDeceased || !c.Patient.Alive {
		if c != nil {
			c.AssignedAmbulanceID = -1
		}
		a.clearTask()
		return
	}

	c.Patient.ApplyTreatment(TreatmentPickup)
	c.Status = CasualtyEnroute
	c.PickupTime = e.CurrentTime
	e.Metrics.Pickups++
	e.Metrics.TotalResponseTime += e.CurrentTime

	h, ok := e.hospitalsByID[a.DestinationHospitalID]
	if !ok {
		// Destination validated at dispatch; a miss here means the catalog
		// changed underneath us. Drop the leg rather than corrupt state.
		logrus.Warnf("ambulance %d: destination hospital %q vanished", a.ID, a.DestinationHospitalID)
		c.AssignedAmbulanceID = -1
		c.Status = CasualtyWaiting
		c.Patient.TreatmentStatus = TreatmentWaiting
		a.clearTask()
		return
	}

	a.Status = AmbulanceMovingToHospital
	a.Target = LatLon{Lat: h.Lat, Lon: h.Lon}
	a.TimeToTarget = TravelTimeMinutes(a.Lat, a.Lon, h.Lat, h.Lon)

	e.logEvent(EventPickup, map[string]any{
		"casualty_id":  c.ID,
		"ambulance_id": a.ID,
		"hospital_id":  h.ID,
		"triage":       string(c.Patient.Triage),
	})
}

// executeDelivery resolves an ambulance arriving at its destination
// hospital. A patient that died onboard is never delivered.
func (e *Engine) executeDelivery(a *Ambulance) {
	c := e.casualtyByID(a.PatientOnboard)
	hospitalID := a.DestinationHospitalID
	if c == nil || c.Status == CasualtyDeceased || !c.Patient.Alive {
		a.clearTask()
		return
	}

	c.Patient.ApplyTreatment(TreatmentHospital)
	c.Status = CasualtyDelivered
	c.DeliveryTime = e.CurrentTime
	e.Metrics.Transported++
	a.clearTask()

	e.logEvent(EventDelivery, map[string]any{
		"casualty_id":  c.ID,
		"ambulance_id": a.ID,
		"hospital_id":  hospitalID,
	})
}

// executeActions applies policy output to idle ambulances. Anything
// inconsistent with current state (unknown IDs, non-idle ambulance,
// non-waiting casualty) is ignored rather than escalated: policies decide on
// a snapshot, and the snapshot may be stale by the time actions land.
func (e *Engine) executeActions(actions map[int]Action) {
	ids := make([]int, 0, len(actions))
	for id := range actions {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		action := actions[id]
		a := e.ambulanceByID(id)
		if a == nil || a.Status != AmbulanceIdle {
			continue
		}

		switch action.Type {
		case ActionDispatchToCasualty:
			c := e.casualtyByID(action.CasualtyID)
			if c == nil || c.Status != CasualtyWaiting || !c.Patient.Alive {
				continue
			}
			h, ok := e.hospitalsByID[action.HospitalID]
			if !ok {
				logrus.Debugf("policy %s: unknown hospital %q for casualty %d, skipping",
					e.Policy.Name(), action.HospitalID, action.CasualtyID)
				continue
			}
			c.Status = CasualtyAssigned
			c.AssignedAmbulanceID = a.ID
			a.Status = AmbulanceMovingToCasualty
			a.PatientOnboard = c.ID
			a.DestinationHospitalID = h.ID
			a.Target = LatLon{Lat: c.Lat, Lon: c.Lon}
			a.TimeToTarget = TravelTimeMinutes(a.Lat, a.Lon, c.Lat, c.Lon)
			e.logEvent(EventDispatch, map[string]any{
				"ambulance_id": a.ID,
				"casualty_id":  c.ID,
				"hospital_id":  h.ID,
			})

		case ActionMoveToLocation:
			a.Status = AmbulanceMovingToLocation
			a.Target = action.Target
			a.TimeToTarget = TravelTimeMinutes(a.Lat, a.Lon, action.Target.Lat, action.Target.Lon)
			e.logEvent(EventMoveToLocation, map[string]any{
				"ambulance_id": a.ID,
				"lat":          action.Target.Lat,
				"lon":          action.Target.Lon,
			})

		case ActionReturnToBase:
			h, ok := e.hospitalsByID[a.BaseHospitalID]
			if !ok {
				// Field units have no base.
				continue
			}
			a.Status = AmbulanceReturningToBase
			a.Target = LatLon{Lat: h.Lat, Lon: h.Lon}
			a.TimeToTarget = TravelTimeMinutes(a.Lat, a.Lon, h.Lat, h.Lon)
			e.logEvent(EventReturnToBase, map[string]any{
				"ambulance_id": a.ID,
				"hospital_id":  h.ID,
			})

		case ActionWait:
			// no-op
		}
	}
}

// Run drives the simulation to completion or maxTimeMinutes, whichever comes
// first, then finalizes derived metrics.
func (e *Engine) Run(maxTimeMinutes int) {
	for !e.IsDone() && e.CurrentTime < maxTimeMinutes {
		e.Step()
		e.CurrentTime++
	}
	e.Finalize()
}

// IsDone reports whether every casualty reached a terminal state.
func (e *Engine) IsDone() bool {
	for _, c := range e.Casualties {
		if c.Status != CasualtyDelivered && c.Status != CasualtyDeceased {
			return false
		}
	}
	return true
}

// Finalize computes derived metrics and logs the end-of-simulation event.
// Safe to call once, after the run loop exits.
func (e *Engine) Finalize() {
	if e.Metrics.Pickups > 0 {
		e.Metrics.AvgResponseTime = float64(e.Metrics.TotalResponseTime) / float64(e.Metrics.Pickups)
	} else {
		e.Metrics.AvgResponseTime = 0
	}
	e.logEvent(EventSimulationEnd, map[string]any{
		"deaths":      e.Metrics.Deaths,
		"transported": e.Metrics.Transported,
		"final_time":  e.CurrentTime,
	})
	logrus.Debugf("simulation finished at t=%d: %d transported, %d deaths",
		e.CurrentTime, e.Metrics.Transported, e.Metrics.Deaths)
}

func (e *Engine) refreshWaiting() {
	waiting := 0
	for _, c := range e.Casualties {
		if c.Status == CasualtyWaiting && c.Patient.Alive {
			waiting++
		}
	}
	e.Metrics.CasualtiesWaiting = waiting
}

func (e *Engine) casualtyByID(id int) *Casualty {
	if id < 0 || id >= len(e.Casualties) {
		return nil
	}
	// Casualty IDs are assigned densely from zero at generation time, but a
	// hand-written scenario may break that, so verify.
	if e.Casualties[id].ID == id {
		return e.Casualties[id]
	}
	for _, c := range e.Casualties {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (e *Engine) ambulanceByID(id int) *Ambulance {
	if id >= 0 && id < len(e.Ambulances) && e.Ambulances[id].ID == id {
		return e.Ambulances[id]
	}
	for _, a := range e.Ambulances {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// logEvent appends to the event log and synchronously notifies listeners.
// A slow listener blocks the step; that is the contract.
func (e *Engine) logEvent(eventType EventType, data map[string]any) {
	ev := Event{Type: eventType, Time: e.CurrentTime, Data: data}
	e.EventLog = append(e.EventLog, ev)
	for _, l := range e.listeners {
		l(ev)
	}
}
