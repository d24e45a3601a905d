package sim

// Shared fixtures for sim package tests. The hospitals are real LA-area
// facilities so routing distances stay physically plausible.

func testHospitals() []Hospital {
	return []Hospital{
		{ID: "cedars", Name: "Cedars-Sinai Medical Center", Lat: 34.0754, Lon: -118.3804, BedCount: 886, TraumaLevel: 1, HasHelipad: true},
		{ID: "lacusc", Name: "LAC+USC Medical Center", Lat: 34.0585, Lon: -118.2101, BedCount: 600, TraumaLevel: 1, HasHelipad: true},
		{ID: "goodsam", Name: "Good Samaritan Hospital", Lat: 34.0522, Lon: -118.2662, BedCount: 408, TraumaLevel: 2, HasHelipad: false},
		{ID: "stvincent", Name: "St. Vincent Medical Center", Lat: 34.0631, Lon: -118.2735, BedCount: UnknownBedCount, TraumaLevel: 3, HasHelipad: false},
	}
}

// testScenario builds a manually specified scenario: explicit casualties and
// ambulance positions, no seeded spawning.
func testScenario(casualties []CasualtySeed, ambulances []LatLon) *Scenario {
	return &Scenario{
		IncidentLocation: LatLon{Lat: 34.0500, Lon: -118.2500},
		Casualties:       casualties,
		ManualAmbulances: ambulances,
		Hospitals:        testHospitals(),
		NumCasualties:    len(casualties),
	}
}

// stubPolicy lets a test inject arbitrary policy output.
type stubPolicy struct {
	decide func(*State) map[int]Action
}

func (p stubPolicy) Name() string { return "stub" }

func (p stubPolicy) Decide(state *State) map[int]Action {
	if p.decide == nil {
		return nil
	}
	return p.decide(state)
}
