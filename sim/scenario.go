package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"
)

// defaultCasualtySigmaDeg is the Gaussian scatter of casualties around the
// incident, per axis. 0.0045 degrees is roughly 500 m.
const defaultCasualtySigmaDeg = 0.0045

// DefaultBoundsPaddingDeg pads region bounds derived from hospital positions.
const DefaultBoundsPaddingDeg = 0.1

// triageDistribution is the categorical triage draw for generated casualties.
// Probabilities must sum to 1.0.
var triageDistribution = []struct {
	level Triage
	prob  float64
}{
	{TriageRed, 0.25},
	{TriageYellow, 0.40},
	{TriageGreen, 0.30},
	{TriageBlack, 0.05},
}

// RegionBounds is a lat/lon bounding box for incident placement.
type RegionBounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// SpawnConfig describes how to materialize ambulances for a scenario.
// Scenarios store this config instead of ambulance records: it keeps the
// serialized form small while the seed keeps spawning reproducible.
type SpawnConfig struct {
	AmbulancesPerHospital  int     `json:"ambulances_per_hospital"`
	Variation              int     `json:"ambulances_per_hospital_variation"`
	FieldAmbulances        int     `json:"field_ambulances"`
	FieldAmbulanceRadiusKm float64 `json:"field_ambulance_radius_km"`
	Seed                   int64   `json:"seed"`
}

// CasualtySeed is one casualty as recorded in a scenario, before the engine
// wraps it in runtime state.
type CasualtySeed struct {
	ID     int     `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Triage Triage  `json:"triage"`
}

// ScenarioMetadata carries provenance recorded at generation time.
type ScenarioMetadata struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Region      string    `json:"region,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	Seed        int64     `json:"seed"`
}

// Scenario is one complete, immutable incident description. An engine can be
// reconstructed from this structure alone: ambulances are re-materialized
// from SpawnConfig (or ManualAmbulances) on engine start.
type Scenario struct {
	IncidentLocation LatLon            `json:"incident_location"`
	Casualties       []CasualtySeed    `json:"casualties"`
	SpawnConfig      SpawnConfig       `json:"ambulance_config"`
	ManualAmbulances []LatLon          `json:"manual_ambulances,omitempty"`
	Hospitals        []Hospital        `json:"hospitals"`
	NumCasualties    int               `json:"num_casualties"`
	Metadata         *ScenarioMetadata `json:"metadata,omitempty"`
}

// SpawnAmbulances materializes the scenario's fleet. Manual placements, when
// present, are materialized verbatim as field units and the seeded spawn is
// skipped; otherwise spawning is driven entirely by the spawn config.
func (s *Scenario) SpawnAmbulances() []*Ambulance {
	if len(s.ManualAmbulances) > 0 {
		ambulances := make([]*Ambulance, 0, len(s.ManualAmbulances))
		for i, pos := range s.ManualAmbulances {
			ambulances = append(ambulances, &Ambulance{
				ID:             i,
				Lat:            pos.Lat,
				Lon:            pos.Lon,
				Status:         AmbulanceIdle,
				Type:           AmbulanceFieldUnit,
				PatientOnboard: -1,
			})
		}
		return ambulances
	}
	return SpawnAmbulances(s.IncidentLocation, s.SpawnConfig, s.Hospitals)
}

// SpawnAmbulances materializes ambulances from a spawn config. All draws come
// from the config's seed, so identical (incident, config, hospitals) inputs
// always yield an identical fleet, element order included.
//
// Each hospital receives AmbulancesPerHospital ± U(-Variation, +Variation)
// units (clamped at zero) stationed at the hospital. Field units are placed
// uniformly within a disk around the incident; the square-root radius draw
// avoids clustering at the center.
func SpawnAmbulances(incident LatLon, cfg SpawnConfig, hospitals []Hospital) []*Ambulance {
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed)).ForSubsystem(SubsystemSpawn)

	var ambulances []*Ambulance
	id := 0

	for _, h := range hospitals {
		n := cfg.AmbulancesPerHospital
		if cfg.Variation > 0 {
			n += rng.Intn(2*cfg.Variation+1) - cfg.Variation
		}
		if n < 0 {
			n = 0
		}
		for i := 0; i < n; i++ {
			ambulances = append(ambulances, &Ambulance{
				ID:             id,
				Lat:            h.Lat,
				Lon:            h.Lon,
				Status:         AmbulanceIdle,
				Type:           AmbulanceHospitalBased,
				BaseHospitalID: h.ID,
				PatientOnboard: -1,
			})
			id++
		}
	}

	radiusDeg := cfg.FieldAmbulanceRadiusKm / kmPerDegree
	for i := 0; i < cfg.FieldAmbulances; i++ {
		r := radiusDeg * math.Sqrt(rng.Float64())
		theta := rng.Float64() * 2 * math.Pi
		ambulances = append(ambulances, &Ambulance{
			ID:             id,
			Lat:            incident.Lat + r*math.Cos(theta),
			Lon:            incident.Lon + r*math.Sin(theta),
			Status:         AmbulanceIdle,
			Type:           AmbulanceFieldUnit,
			PatientOnboard: -1,
		})
		id++
	}

	return ambulances
}

// GenerateOptions parameterizes one Generate call.
type GenerateOptions struct {
	NumCasualties int
	Spawn         SpawnConfig
	// IncidentLocation, when set, overrides the uniform draw within bounds.
	IncidentLocation *LatLon
	// ManualAmbulances, when set, bypasses seeded spawning entirely.
	ManualAmbulances []LatLon
	// CasualtySigmaDeg overrides the per-axis casualty scatter; zero means
	// the default ~500 m.
	CasualtySigmaDeg float64
	// Region and Name are recorded in scenario metadata only.
	Region string
	Name   string
}

// Generator produces reproducible randomized MCI scenarios within a region.
type Generator struct {
	hospitals []Hospital
	bounds    RegionBounds
	seed      int64
	rng       *PartitionedRNG
}

// NewGenerator creates a seeded scenario generator. The same seed and inputs
// reproduce the same sequence of scenarios.
func NewGenerator(hospitals []Hospital, bounds RegionBounds, seed int64) *Generator {
	return &Generator{
		hospitals: hospitals,
		bounds:    bounds,
		seed:      seed,
		rng:       NewPartitionedRNG(NewSimulationKey(seed)),
	}
}

// Generate produces one scenario. Ambulances are not materialized here; only
// the spawn config is stored. A zero Spawn.Seed is replaced by a draw from
// the generator's stream so the recorded scenario stays self-reproducing.
func (g *Generator) Generate(opts GenerateOptions) (*Scenario, error) {
	if opts.NumCasualties <= 0 {
		return nil, fmt.Errorf("generate scenario: num casualties must be positive, got %d", opts.NumCasualties)
	}
	if len(g.hospitals) == 0 {
		return nil, fmt.Errorf("generate scenario: hospital list is empty")
	}

	rng := g.rng.ForSubsystem(SubsystemScenario)

	incident := LatLon{
		Lat: g.bounds.MinLat + rng.Float64()*(g.bounds.MaxLat-g.bounds.MinLat),
		Lon: g.bounds.MinLon + rng.Float64()*(g.bounds.MaxLon-g.bounds.MinLon),
	}
	if opts.IncidentLocation != nil {
		incident = *opts.IncidentLocation
	}

	sigma := opts.CasualtySigmaDeg
	if sigma <= 0 {
		sigma = defaultCasualtySigmaDeg
	}

	casualties := make([]CasualtySeed, opts.NumCasualties)
	for i := range casualties {
		casualties[i] = CasualtySeed{
			ID:     i,
			Lat:    rng.NormFloat64()*sigma + incident.Lat,
			Lon:    rng.NormFloat64()*sigma + incident.Lon,
			Triage: sampleTriage(rng.Float64()),
		}
	}

	spawn := opts.Spawn
	if spawn.FieldAmbulanceRadiusKm <= 0 {
		spawn.FieldAmbulanceRadiusKm = 10.0
	}
	if spawn.Seed == 0 {
		spawn.Seed = rng.Int63n(1 << 31)
	}

	return &Scenario{
		IncidentLocation: incident,
		Casualties:       casualties,
		SpawnConfig:      spawn,
		ManualAmbulances: opts.ManualAmbulances,
		Hospitals:        g.hospitals,
		NumCasualties:    opts.NumCasualties,
		Metadata: &ScenarioMetadata{
			Name:        opts.Name,
			Region:      opts.Region,
			GeneratedAt: time.Now().UTC(),
			Seed:        g.seed,
		},
	}, nil
}

// sampleTriage maps a uniform draw in [0,1) to a triage level through the
// cumulative triage distribution.
func sampleTriage(u float64) Triage {
	cumulative := 0.0
	for _, entry := range triageDistribution {
		cumulative += entry.prob
		if u < cumulative {
			return entry.level
		}
	}
	return triageDistribution[len(triageDistribution)-1].level
}

// CalculateRegionBounds derives padded bounds from hospital positions.
func CalculateRegionBounds(hospitals []Hospital, paddingDeg float64) (RegionBounds, error) {
	if len(hospitals) == 0 {
		return RegionBounds{}, fmt.Errorf("calculate region bounds: hospital list is empty")
	}
	b := RegionBounds{
		MinLat: hospitals[0].Lat, MaxLat: hospitals[0].Lat,
		MinLon: hospitals[0].Lon, MaxLon: hospitals[0].Lon,
	}
	for _, h := range hospitals[1:] {
		b.MinLat = math.Min(b.MinLat, h.Lat)
		b.MaxLat = math.Max(b.MaxLat, h.Lat)
		b.MinLon = math.Min(b.MinLon, h.Lon)
		b.MaxLon = math.Max(b.MaxLon, h.Lon)
	}
	b.MinLat -= paddingDeg
	b.MaxLat += paddingDeg
	b.MinLon -= paddingDeg
	b.MaxLon += paddingDeg
	return b, nil
}

// SaveScenario writes a scenario as indented JSON.
func SaveScenario(s *Scenario, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scenario: %w", err)
	}
	return nil
}

// LoadScenario reads a scenario previously written by SaveScenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &s, nil
}
