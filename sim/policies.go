package sim

import "math/rand"

// idleAmbulances filters the snapshot to ambulances that can accept a task
// this step, preserving snapshot order (ascending ID).
func idleAmbulances(state *State) []AmbulanceView {
	var idle []AmbulanceView
	for _, a := range state.Ambulances {
		if a.Status == AmbulanceIdle {
			idle = append(idle, a)
		}
	}
	return idle
}

// waitingCasualties filters the snapshot to live, unassigned casualties,
// preserving snapshot order.
func waitingCasualties(state *State) []CasualtyView {
	var waiting []CasualtyView
	for _, c := range state.Casualties {
		if c.Status == CasualtyWaiting && c.IsAlive {
			waiting = append(waiting, c)
		}
	}
	return waiting
}

// nearestHospital returns the hospital closest to (lat, lon) among
// candidates, or false when candidates is empty. Ties keep the earlier
// candidate.
func nearestHospital(candidates []Hospital, lat, lon float64) (Hospital, bool) {
	if len(candidates) == 0 {
		return Hospital{}, false
	}
	best := candidates[0]
	bestDist := DistanceKm(lat, lon, best.Lat, best.Lon)
	for _, h := range candidates[1:] {
		if d := DistanceKm(lat, lon, h.Lat, h.Lon); d < bestDist {
			best, bestDist = h, d
		}
	}
	return best, true
}

// mostUrgentIdx returns the index of the waiting casualty to serve next:
// highest triage urgency first, distance to the ambulance as tiebreak.
// Callers guarantee waiting is non-empty.
func mostUrgentIdx(waiting []CasualtyView, amb AmbulanceView) int {
	best := 0
	bestRank := triageRank[waiting[0].Triage]
	bestDist := DistanceKm(amb.Lat, amb.Lon, waiting[0].Lat, waiting[0].Lon)
	for i, c := range waiting[1:] {
		rank := triageRank[c.Triage]
		d := DistanceKm(amb.Lat, amb.Lon, c.Lat, c.Lon)
		if rank < bestRank || (rank == bestRank && d < bestDist) {
			best, bestRank, bestDist = i+1, rank, d
		}
	}
	return best
}

// matchingHospitals selects hospitals whose trauma level suits the triage:
// RED needs level 1-2, YELLOW level 2-3. When no hospital matches, all
// hospitals remain candidates rather than leaving the casualty stranded.
func matchingHospitals(hospitals []Hospital, triage Triage) []Hospital {
	var want func(level int) bool
	switch triage {
	case TriageRed:
		want = func(level int) bool { return level == 1 || level == 2 }
	case TriageYellow:
		want = func(level int) bool { return level == 2 || level == 3 }
	default:
		return hospitals
	}
	var matched []Hospital
	for _, h := range hospitals {
		if want(h.TraumaLevel) {
			matched = append(matched, h)
		}
	}
	if len(matched) == 0 {
		return hospitals
	}
	return matched
}

// randomPolicy pairs idle ambulances with waiting casualties uniformly at
// random and sends each to the hospital nearest the casualty. Useful as a
// floor when comparing policies.
type randomPolicy struct {
	rng *rand.Rand
}

func newRandomPolicy(seed int64) *randomPolicy {
	rng := NewPartitionedRNG(NewSimulationKey(seed))
	return &randomPolicy{rng: rng.ForSubsystem(SubsystemPolicy)}
}

func (p *randomPolicy) Name() string { return "random" }

func (p *randomPolicy) Decide(state *State) map[int]Action {
	actions := make(map[int]Action)
	waiting := waitingCasualties(state)
	for _, amb := range idleAmbulances(state) {
		if len(waiting) == 0 {
			break
		}
		i := p.rng.Intn(len(waiting))
		c := waiting[i]
		waiting = append(waiting[:i], waiting[i+1:]...)
		h, ok := nearestHospital(state.Hospitals, c.Lat, c.Lon)
		if !ok {
			continue
		}
		actions[amb.ID] = Action{Type: ActionDispatchToCasualty, CasualtyID: c.ID, HospitalID: h.ID}
	}
	return actions
}

// nearestHospitalPolicy sends each idle ambulance to its own closest waiting
// casualty, destination the hospital nearest that casualty. Greedy on
// ambulance order; ignores triage.
type nearestHospitalPolicy struct{}

func (p *nearestHospitalPolicy) Name() string { return "nearest_hospital" }

func (p *nearestHospitalPolicy) Decide(state *State) map[int]Action {
	actions := make(map[int]Action)
	waiting := waitingCasualties(state)
	for _, amb := range idleAmbulances(state) {
		if len(waiting) == 0 {
			break
		}
		bestIdx := 0
		bestDist := DistanceKm(amb.Lat, amb.Lon, waiting[0].Lat, waiting[0].Lon)
		for i, c := range waiting[1:] {
			if d := DistanceKm(amb.Lat, amb.Lon, c.Lat, c.Lon); d < bestDist {
				bestIdx, bestDist = i+1, d
			}
		}
		c := waiting[bestIdx]
		waiting = append(waiting[:bestIdx], waiting[bestIdx+1:]...)
		h, ok := nearestHospital(state.Hospitals, c.Lat, c.Lon)
		if !ok {
			continue
		}
		actions[amb.ID] = Action{Type: ActionDispatchToCasualty, CasualtyID: c.ID, HospitalID: h.ID}
	}
	return actions
}

// triagePriorityPolicy serves the most urgent casualty first, breaking
// severity ties by distance to the deciding ambulance.
type triagePriorityPolicy struct{}

func (p *triagePriorityPolicy) Name() string { return "triage_priority" }

func (p *triagePriorityPolicy) Decide(state *State) map[int]Action {
	actions := make(map[int]Action)
	waiting := waitingCasualties(state)
	for _, amb := range idleAmbulances(state) {
		if len(waiting) == 0 {
			break
		}
		bestIdx := mostUrgentIdx(waiting, amb)
		c := waiting[bestIdx]
		waiting = append(waiting[:bestIdx], waiting[bestIdx+1:]...)
		h, ok := nearestHospital(state.Hospitals, c.Lat, c.Lon)
		if !ok {
			continue
		}
		actions[amb.ID] = Action{Type: ActionDispatchToCasualty, CasualtyID: c.ID, HospitalID: h.ID}
	}
	return actions
}

// traumaMatchingPolicy is triage-priority selection with destinations picked
// from trauma-capability-matched hospitals instead of the plain nearest.
type traumaMatchingPolicy struct{}

func (p *traumaMatchingPolicy) Name() string { return "trauma_matching" }

func (p *traumaMatchingPolicy) Decide(state *State) map[int]Action {
	actions := make(map[int]Action)
	waiting := waitingCasualties(state)
	for _, amb := range idleAmbulances(state) {
		if len(waiting) == 0 {
			break
		}
		bestIdx := mostUrgentIdx(waiting, amb)
		c := waiting[bestIdx]
		waiting = append(waiting[:bestIdx], waiting[bestIdx+1:]...)
		h, ok := nearestHospital(matchingHospitals(state.Hospitals, c.Triage), c.Lat, c.Lon)
		if !ok {
			continue
		}
		actions[amb.ID] = Action{Type: ActionDispatchToCasualty, CasualtyID: c.ID, HospitalID: h.ID}
	}
	return actions
}

// loadBalancingPolicy is trauma-matched dispatch that spreads deliveries
// across hospitals: casualties are served in triage-priority order, and
// among the trauma-matched candidates the destination is the hospital with
// the fewest casualties routed to it within the current Decide call,
// distance as tiebreak.
type loadBalancingPolicy struct{}

func (p *loadBalancingPolicy) Name() string { return "load_balancing" }

func (p *loadBalancingPolicy) Decide(state *State) map[int]Action {
	actions := make(map[int]Action)
	waiting := waitingCasualties(state)
	load := make(map[string]int, len(state.Hospitals))
	for _, amb := range idleAmbulances(state) {
		if len(waiting) == 0 {
			break
		}
		bestIdx := mostUrgentIdx(waiting, amb)
		c := waiting[bestIdx]
		waiting = append(waiting[:bestIdx], waiting[bestIdx+1:]...)

		var best Hospital
		bestLoad, bestHDist := 0, 0.0
		found := false
		for _, h := range matchingHospitals(state.Hospitals, c.Triage) {
			d := DistanceKm(c.Lat, c.Lon, h.Lat, h.Lon)
			if !found || load[h.ID] < bestLoad || (load[h.ID] == bestLoad && d < bestHDist) {
				best, bestLoad, bestHDist = h, load[h.ID], d
				found = true
			}
		}
		if !found {
			continue
		}
		load[best.ID]++
		actions[amb.ID] = Action{Type: ActionDispatchToCasualty, CasualtyID: c.ID, HospitalID: best.ID}
	}
	return actions
}
