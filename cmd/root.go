package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mci-sim/mcisim/sim"
)

var (
	// Shared flags
	logLevel      string // Log verbosity level
	hospitalsPath string // Hospital catalog JSON path
	seed          int64  // Master seed for scenario generation

	// run flags
	policyName     string  // Dispatch policy name
	scenarioPath   string  // Pre-generated scenario to run (empty = generate)
	configPath     string  // YAML run config (overridden by explicit flags)
	maxTimeMinutes int     // Simulated-time cap
	region         string  // Region label recorded in metadata
	numCasualties  int     // Casualty count for generated scenarios
	perHospital    int     // Ambulances stationed per hospital
	perHospitalVar int     // Per-hospital count variation
	fieldUnits     int     // Field ambulances near the incident
	fieldRadiusKm  float64 // Field ambulance placement radius

	// generate flags
	outputPath   string // Where to write the generated scenario
	scenarioName string // Scenario name recorded in metadata

	// compare flags
	runsPerPolicy int // Scenarios evaluated per policy
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "mcisim",
	Short: "Discrete-event simulator for mass-casualty ambulance dispatch",
}

// setupLogging applies the --log flag before any subcommand work.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadCatalog reads the hospital catalog all subcommands depend on.
func loadCatalog() *sim.Catalog {
	if hospitalsPath == "" {
		logrus.Fatalf("Hospital catalog not provided. Use --hospitals.")
	}
	catalog, err := sim.LoadCatalog(hospitalsPath)
	if err != nil {
		logrus.Fatalf("Loading hospital catalog: %v", err)
	}
	return catalog
}

// buildRunConfig merges the YAML config file (if given) with explicit flags.
func buildRunConfig(cmd *cobra.Command) *sim.RunConfig {
	cfg := &sim.RunConfig{}
	if configPath != "" {
		loaded, err := sim.LoadRunConfig(configPath)
		if err != nil {
			logrus.Fatalf("Loading run config: %v", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("policy") || cfg.Policy == "" {
		cfg.Policy = policyName
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("max-time") || cfg.MaxTimeMinutes == 0 {
		cfg.MaxTimeMinutes = maxTimeMinutes
	}
	if scenarioPath != "" {
		cfg.Scenario.Source = "file"
		cfg.Scenario.File = scenarioPath
	}
	if cfg.Scenario.Source != "file" {
		cfg.Scenario.Source = "random"
		cfg.Scenario.Region = region
		cfg.Scenario.NumCasualties = numCasualties
		cfg.Scenario.AmbulancesPerHospital = perHospital
		cfg.Scenario.AmbulancesPerHospitalVariation = perHospitalVar
		cfg.Scenario.FieldAmbulances = fieldUnits
		cfg.Scenario.FieldAmbulanceRadiusKm = fieldRadiusKm
		cfg.Scenario.Seed = seed
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid run config: %v", err)
	}
	return cfg
}

// resolveScenario loads the scenario file or generates a fresh one.
func resolveScenario(cfg *sim.RunConfig, catalog *sim.Catalog) *sim.Scenario {
	if cfg.Scenario.Source == "file" {
		scenario, err := sim.LoadScenario(cfg.Scenario.File)
		if err != nil {
			logrus.Fatalf("Loading scenario: %v", err)
		}
		return scenario
	}
	bounds, err := catalog.Bounds(sim.DefaultBoundsPaddingDeg)
	if err != nil {
		logrus.Fatalf("Deriving region bounds: %v", err)
	}
	gen := sim.NewGenerator(catalog.Hospitals(), bounds, cfg.Seed)
	scenario, err := gen.Generate(sim.GenerateOptions{
		NumCasualties: cfg.Scenario.NumCasualties,
		Region:        cfg.Scenario.Region,
		Spawn: sim.SpawnConfig{
			AmbulancesPerHospital:  cfg.Scenario.AmbulancesPerHospital,
			Variation:              cfg.Scenario.AmbulancesPerHospitalVariation,
			FieldAmbulances:        cfg.Scenario.FieldAmbulances,
			FieldAmbulanceRadiusKm: cfg.Scenario.FieldAmbulanceRadiusKm,
			Seed:                   cfg.Scenario.Seed,
		},
	})
	if err != nil {
		logrus.Fatalf("Generating scenario: %v", err)
	}
	return scenario
}

// runCmd executes one simulation to completion at full speed and prints the
// resulting metrics.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one dispatch simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		catalog := loadCatalog()
		cfg := buildRunConfig(cmd)
		scenario := resolveScenario(cfg, catalog)

		policy, err := sim.NewPolicy(cfg.Policy, cfg.Seed)
		if err != nil {
			logrus.Fatalf("Resolving policy: %v", err)
		}
		engine, err := sim.NewEngine(scenario, policy)
		if err != nil {
			logrus.Fatalf("Building engine: %v", err)
		}

		logrus.Infof("Starting simulation: %d casualties, %d ambulances, policy=%s",
			len(engine.Casualties), len(engine.Ambulances), cfg.Policy)
		startTime := time.Now()

		engine.Run(cfg.MaxTimeMinutes)
		engine.Metrics.Print()

		logrus.Infof("Simulation complete in %v (simulated %d min).",
			time.Since(startTime), engine.CurrentTime)
	},
}

// generateCmd produces a scenario file for later runs.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a scenario and write it to a JSON file",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		catalog := loadCatalog()

		bounds, err := catalog.Bounds(sim.DefaultBoundsPaddingDeg)
		if err != nil {
			logrus.Fatalf("Deriving region bounds: %v", err)
		}
		gen := sim.NewGenerator(catalog.Hospitals(), bounds, seed)
		scenario, err := gen.Generate(sim.GenerateOptions{
			NumCasualties: numCasualties,
			Region:        region,
			Name:          scenarioName,
			Spawn: sim.SpawnConfig{
				AmbulancesPerHospital:  perHospital,
				Variation:              perHospitalVar,
				FieldAmbulances:        fieldUnits,
				FieldAmbulanceRadiusKm: fieldRadiusKm,
			},
		})
		if err != nil {
			logrus.Fatalf("Generating scenario: %v", err)
		}
		if err := sim.SaveScenario(scenario, outputPath); err != nil {
			logrus.Fatalf("Saving scenario: %v", err)
		}
		logrus.Infof("Wrote scenario with %d casualties to %s", scenario.NumCasualties, outputPath)
	},
}

// compareCmd evaluates every registered policy on the same scenarios.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare all dispatch policies on identical scenarios",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		catalog := loadCatalog()

		bounds, err := catalog.Bounds(sim.DefaultBoundsPaddingDeg)
		if err != nil {
			logrus.Fatalf("Deriving region bounds: %v", err)
		}

		for _, name := range sim.PolicyNames() {
			// Fresh generator per policy so every policy sees the exact
			// same scenario sequence.
			gen := sim.NewGenerator(catalog.Hospitals(), bounds, seed)
			totals := sim.Metrics{}
			for i := 0; i < runsPerPolicy; i++ {
				scenario, err := gen.Generate(sim.GenerateOptions{
					NumCasualties: numCasualties,
					Region:        region,
					Spawn: sim.SpawnConfig{
						AmbulancesPerHospital:  perHospital,
						Variation:              perHospitalVar,
						FieldAmbulances:        fieldUnits,
						FieldAmbulanceRadiusKm: fieldRadiusKm,
					},
				})
				if err != nil {
					logrus.Fatalf("Generating scenario: %v", err)
				}
				policy, err := sim.NewPolicy(name, seed)
				if err != nil {
					logrus.Fatalf("Resolving policy: %v", err)
				}
				engine, err := sim.NewEngine(scenario, policy)
				if err != nil {
					logrus.Fatalf("Building engine: %v", err)
				}
				engine.Run(maxTimeMinutes)

				totals.Deaths += engine.Metrics.Deaths
				totals.Transported += engine.Metrics.Transported
				totals.TotalCasualties += engine.Metrics.TotalCasualties
				totals.Pickups += engine.Metrics.Pickups
				totals.TotalResponseTime += engine.Metrics.TotalResponseTime
			}
			if totals.Pickups > 0 {
				totals.AvgResponseTime = float64(totals.TotalResponseTime) / float64(totals.Pickups)
			}
			logrus.Infof("policy=%-18s deaths=%d/%d transported=%d avg_response=%.1fmin",
				name, totals.Deaths, totals.TotalCasualties, totals.Transported, totals.AvgResponseTime)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&hospitalsPath, "hospitals", "", "Hospital catalog JSON path")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Master seed for scenario generation")
	rootCmd.PersistentFlags().StringVar(&region, "region", "CA", "Region label recorded in scenario metadata")
	rootCmd.PersistentFlags().IntVar(&numCasualties, "casualties", 60, "Number of casualties to generate")
	rootCmd.PersistentFlags().IntVar(&perHospital, "ambulances-per-hospital", 2, "Ambulances stationed per hospital")
	rootCmd.PersistentFlags().IntVar(&perHospitalVar, "ambulances-per-hospital-variation", 1, "Random variation in per-hospital ambulance count")
	rootCmd.PersistentFlags().IntVar(&fieldUnits, "field-ambulances", 5, "Field ambulances placed near the incident")
	rootCmd.PersistentFlags().Float64Var(&fieldRadiusKm, "field-ambulance-radius", 10.0, "Field ambulance placement radius (km)")

	runCmd.Flags().StringVar(&policyName, "policy", "nearest_hospital", "Dispatch policy name")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Pre-generated scenario JSON (empty = generate)")
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML run config file")
	runCmd.Flags().IntVar(&maxTimeMinutes, "max-time", sim.DefaultMaxTimeMinutes, "Simulated-time cap (minutes)")

	generateCmd.Flags().StringVar(&outputPath, "output", "scenario.json", "Output scenario path")
	generateCmd.Flags().StringVar(&scenarioName, "name", "", "Scenario name recorded in metadata")

	compareCmd.Flags().IntVar(&runsPerPolicy, "runs", 10, "Scenarios evaluated per policy")
	compareCmd.Flags().IntVar(&maxTimeMinutes, "max-time", sim.DefaultMaxTimeMinutes, "Simulated-time cap (minutes)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(compareCmd)
}
