package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxSpeed is the highest accepted playback speed multiplier.
const MaxSpeed = 100.0

// DefaultMaxTimeMinutes is the hard cap on simulated time.
const DefaultMaxTimeMinutes = 180

// ScenarioConfig describes where a run's scenario comes from: a previously
// saved scenario file, or random generation within a region.
type ScenarioConfig struct {
	Source string `yaml:"source"` // "random" (default) or "file"
	File   string `yaml:"file"`   // scenario JSON path, required when source is "file"
	Region string `yaml:"region"`

	NumCasualties                  int     `yaml:"num_casualties"`
	AmbulancesPerHospital          int     `yaml:"ambulances_per_hospital"`
	AmbulancesPerHospitalVariation int     `yaml:"ambulances_per_hospital_variation"`
	FieldAmbulances                int     `yaml:"field_ambulances"`
	FieldAmbulanceRadiusKm         float64 `yaml:"field_ambulance_radius_km"`
	Seed                           int64   `yaml:"seed"`
}

// RunConfig holds a complete run description, loadable from a YAML file.
// Zero-valued fields fall back to defaults in ApplyDefaults.
type RunConfig struct {
	Policy         string         `yaml:"policy"`
	Speed          float64        `yaml:"speed"`
	MaxTimeMinutes int            `yaml:"max_time_minutes"`
	Seed           int64          `yaml:"seed"`
	Scenario       ScenarioConfig `yaml:"scenario"`
}

// LoadRunConfig reads and parses a YAML run configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *RunConfig) ApplyDefaults() {
	if c.Policy == "" {
		c.Policy = "nearest_hospital"
	}
	if c.Speed == 0 {
		c.Speed = 1.0
	}
	if c.MaxTimeMinutes == 0 {
		c.MaxTimeMinutes = DefaultMaxTimeMinutes
	}
	if c.Scenario.Source == "" {
		c.Scenario.Source = "random"
	}
	if c.Scenario.NumCasualties == 0 {
		c.Scenario.NumCasualties = 60
	}
	if c.Scenario.AmbulancesPerHospital == 0 {
		c.Scenario.AmbulancesPerHospital = 2
	}
	if c.Scenario.FieldAmbulanceRadiusKm == 0 {
		c.Scenario.FieldAmbulanceRadiusKm = 10.0
	}
}

// Validate checks policy name, speed range and scenario source consistency.
func (c *RunConfig) Validate() error {
	if _, ok := ValidPolicies[c.Policy]; !ok {
		return fmt.Errorf("unknown policy %q (valid: %v)", c.Policy, PolicyNames())
	}
	if c.Speed <= 0 || c.Speed > MaxSpeed {
		return fmt.Errorf("speed must be in (0, %g], got %g", MaxSpeed, c.Speed)
	}
	if c.MaxTimeMinutes <= 0 {
		return fmt.Errorf("max time must be positive, got %d", c.MaxTimeMinutes)
	}
	switch c.Scenario.Source {
	case "random":
		if c.Scenario.NumCasualties <= 0 {
			return fmt.Errorf("num casualties must be positive, got %d", c.Scenario.NumCasualties)
		}
	case "file":
		if c.Scenario.File == "" {
			return fmt.Errorf("scenario source %q requires a file path", c.Scenario.Source)
		}
	default:
		return fmt.Errorf("unknown scenario source %q (valid: random, file)", c.Scenario.Source)
	}
	return nil
}
