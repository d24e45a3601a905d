// Package orchestrator manages concurrent simulation instances: one engine
// per worker goroutine, a control plane for lifecycle transitions, and an
// event sink boundary for external subscribers.
package orchestrator

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mci-sim/mcisim/sim"
)

// defaultJoinTimeout bounds how long Stop waits for a worker to exit. A hung
// worker (for example a policy blocked on a remote call) must not deadlock
// the control plane.
const defaultJoinTimeout = 5 * time.Second

// Orchestrator owns the simulation registry. All methods are safe for
// concurrent use; the registry lock is never held across engine stepping.
type Orchestrator struct {
	mu          sync.Mutex
	sims        map[string]*Instance
	catalog     *sim.Catalog
	sink        EventSink
	joinTimeout time.Duration
}

// New creates an orchestrator over a hospital catalog. A nil sink defaults
// to logging.
func New(catalog *sim.Catalog, sink EventSink) *Orchestrator {
	if sink == nil {
		sink = LogSink{}
	}
	return &Orchestrator{
		sims:        make(map[string]*Instance),
		catalog:     catalog,
		sink:        sink,
		joinTimeout: defaultJoinTimeout,
	}
}

// Create validates and registers a new simulation in CREATED state and
// returns its id. The engine is not built until Start.
func (o *Orchestrator) Create(cfg sim.RunConfig) (string, error) {
	cfg.ApplyDefaults()
	if cfg.MaxTimeMinutes > sim.DefaultMaxTimeMinutes {
		cfg.MaxTimeMinutes = sim.DefaultMaxTimeMinutes
	}
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("create simulation: %w", err)
	}

	id := uuid.NewString()
	in := newInstance(id, cfg, o.sink)

	o.mu.Lock()
	o.sims[id] = in
	o.mu.Unlock()

	logrus.Infof("created simulation %s (policy=%s, source=%s)", id, cfg.Policy, cfg.Scenario.Source)
	return id, nil
}

// Start builds the engine for a CREATED simulation and launches its worker.
// Returns immediately; progress is observable through Get and the sink.
func (o *Orchestrator) Start(id string) error {
	in, err := o.instance(id)
	if err != nil {
		return err
	}

	scenario, err := o.resolveScenario(in.config)
	if err != nil {
		return fmt.Errorf("start simulation %s: %w", id, err)
	}
	policy, err := sim.NewPolicy(in.config.Policy, in.config.Seed)
	if err != nil {
		return fmt.Errorf("start simulation %s: %w", id, err)
	}
	engine, err := sim.NewEngine(scenario, policy)
	if err != nil {
		return fmt.Errorf("start simulation %s: %w", id, err)
	}
	engine.RegisterListener(in.forwardEvent)

	in.mu.Lock()
	if in.status != StatusCreated {
		status := in.status
		in.mu.Unlock()
		return fmt.Errorf("start simulation %s: not in CREATED state (currently %s)", id, status)
	}
	in.engine = engine
	in.status = StatusRunning
	in.startedAt = time.Now()
	in.started = true
	in.mu.Unlock()

	o.sink.Emit(id, "started", map[string]any{"policy": in.config.Policy})
	go in.runLoop()
	return nil
}

// Pause halts a RUNNING simulation's progression without tearing down the
// engine.
func (o *Orchestrator) Pause(id string) error {
	in, err := o.instance(id)
	if err != nil {
		return err
	}
	in.mu.Lock()
	if in.status != StatusRunning {
		status := in.status
		in.mu.Unlock()
		return fmt.Errorf("pause simulation %s: not RUNNING (currently %s)", id, status)
	}
	in.status = StatusPaused
	in.mu.Unlock()
	o.sink.Emit(id, "paused", nil)
	return nil
}

// Resume continues a PAUSED simulation from its current simulated time.
func (o *Orchestrator) Resume(id string) error {
	in, err := o.instance(id)
	if err != nil {
		return err
	}
	in.mu.Lock()
	if in.status != StatusPaused {
		status := in.status
		in.mu.Unlock()
		return fmt.Errorf("resume simulation %s: not PAUSED (currently %s)", id, status)
	}
	in.status = StatusRunning
	in.mu.Unlock()
	o.sink.Emit(id, "resumed", nil)
	return nil
}

// Stop requests cooperative termination and joins the worker with a bounded
// timeout. A worker that fails to exit in time is abandoned, not killed.
func (o *Orchestrator) Stop(id string) error {
	in, err := o.instance(id)
	if err != nil {
		return err
	}
	in.mu.Lock()
	if in.status != StatusRunning && in.status != StatusPaused {
		status := in.status
		in.mu.Unlock()
		return fmt.Errorf("stop simulation %s: not RUNNING or PAUSED (currently %s)", id, status)
	}
	in.status = StatusStopped
	in.errMsg = ""
	in.endedAt = time.Now()
	started := in.started
	in.mu.Unlock()

	if started {
		select {
		case <-in.done:
		case <-time.After(o.joinTimeout):
			logrus.Warnf("simulation %s: worker did not exit within %s", id, o.joinTimeout)
		}
	}
	o.sink.Emit(id, "stopped", nil)
	return nil
}

// SetSpeed adjusts the playback speed of a non-terminal simulation.
func (o *Orchestrator) SetSpeed(id string, speed float64) error {
	if speed <= 0 || speed > sim.MaxSpeed {
		return fmt.Errorf("set speed: must be in (0, %g], got %g", sim.MaxSpeed, speed)
	}
	in, err := o.instance(id)
	if err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.status.Terminal() {
		return fmt.Errorf("set speed: simulation %s is %s", id, in.status)
	}
	in.speed = speed
	return nil
}

// Delete removes a simulation from the registry, stopping it first if it is
// still live.
func (o *Orchestrator) Delete(id string) error {
	in, err := o.instance(id)
	if err != nil {
		return err
	}
	if s := in.getStatus(); s == StatusRunning || s == StatusPaused {
		if err := o.Stop(id); err != nil {
			return err
		}
	}
	o.mu.Lock()
	delete(o.sims, id)
	o.mu.Unlock()
	return nil
}

// Get returns a snapshot of one simulation.
func (o *Orchestrator) Get(id string) (Info, error) {
	in, err := o.instance(id)
	if err != nil {
		return Info{}, err
	}
	return in.info(), nil
}

// List returns snapshots of all registered simulations, ordered by id.
func (o *Orchestrator) List() []Info {
	o.mu.Lock()
	instances := make([]*Instance, 0, len(o.sims))
	for _, in := range o.sims {
		instances = append(instances, in)
	}
	o.mu.Unlock()

	infos := make([]Info, len(instances))
	for i, in := range instances {
		infos[i] = in.info()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (o *Orchestrator) instance(id string) (*Instance, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	in, ok := o.sims[id]
	if !ok {
		return nil, fmt.Errorf("simulation %s not found", id)
	}
	return in, nil
}

// resolveScenario loads or generates the scenario described by the config.
func (o *Orchestrator) resolveScenario(cfg sim.RunConfig) (*sim.Scenario, error) {
	switch cfg.Scenario.Source {
	case "file":
		return sim.LoadScenario(cfg.Scenario.File)
	case "random":
		bounds, err := o.catalog.Bounds(sim.DefaultBoundsPaddingDeg)
		if err != nil {
			return nil, err
		}
		gen := sim.NewGenerator(o.catalog.Hospitals(), bounds, cfg.Seed)
		return gen.Generate(sim.GenerateOptions{
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
	default:
		return nil, fmt.Errorf("unknown scenario source %q", cfg.Scenario.Source)
	}
}
