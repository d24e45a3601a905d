package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mci-sim/mcisim/sim"
)

// Status is the lifecycle state of one managed simulation.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusRunning   Status = "RUNNING"
	StatusPaused    Status = "PAUSED"
	StatusStopped   Status = "STOPPED"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
)

// Terminal reports whether no further lifecycle transitions are accepted.
func (s Status) Terminal() bool {
	return s == StatusStopped || s == StatusCompleted || s == StatusError
}

// pausePollInterval is how often a paused worker re-checks its status.
const pausePollInterval = 100 * time.Millisecond

// Instance is one managed simulation: config, engine, worker bookkeeping.
// The engine itself is touched only by the worker goroutine; everything
// under mu is shared with the control plane.
type Instance struct {
	id     string
	config sim.RunConfig
	sink   EventSink

	mu          sync.Mutex
	status      Status
	speed       float64
	engine      *sim.Engine
	currentTime int
	metrics     sim.Metrics
	errMsg      string
	createdAt   time.Time
	startedAt   time.Time
	endedAt     time.Time

	started bool
	done    chan struct{}
}

// Info is a torn-read-free snapshot of an instance for list/get responses.
type Info struct {
	ID          string      `json:"id"`
	Status      Status      `json:"status"`
	Policy      string      `json:"policy"`
	Speed       float64     `json:"speed"`
	CurrentTime int         `json:"current_time"`
	Metrics     sim.Metrics `json:"metrics"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   time.Time   `json:"started_at,omitempty"`
	EndedAt     time.Time   `json:"ended_at,omitempty"`
}

func newInstance(id string, cfg sim.RunConfig, sink EventSink) *Instance {
	return &Instance{
		id:        id,
		config:    cfg,
		sink:      sink,
		status:    StatusCreated,
		speed:     cfg.Speed,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// info snapshots the instance under its lock.
func (in *Instance) info() Info {
	in.mu.Lock()
	defer in.mu.Unlock()
	return Info{
		ID:          in.id,
		Status:      in.status,
		Policy:      in.config.Policy,
		Speed:       in.speed,
		CurrentTime: in.currentTime,
		Metrics:     in.metrics,
		Error:       in.errMsg,
		CreatedAt:   in.createdAt,
		StartedAt:   in.startedAt,
		EndedAt:     in.endedAt,
	}
}

func (in *Instance) getStatus() Status {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.status
}

func (in *Instance) getSpeed() float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.speed
}

// finish records a terminal transition if the instance is not already
// terminal, and returns whether this call won the transition.
func (in *Instance) finish(status Status, errMsg string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.status.Terminal() {
		return false
	}
	in.status = status
	in.errMsg = errMsg
	in.endedAt = time.Now()
	return true
}

// forwardEvent relays an engine event to the sink, tagged with this
// instance's id. Registered as an engine listener, so it runs synchronously
// on the worker goroutine.
func (in *Instance) forwardEvent(ev sim.Event) {
	in.sink.Emit(in.id, string(ev.Type), map[string]any{
		"time": ev.Time,
		"data": ev.Data,
	})
}

// runLoop is the worker goroutine body. It owns the engine exclusively: no
// other goroutine may call engine methods while the loop is live. A panic
// out of the engine or the policy lands here, marks this one instance ERROR,
// and never escapes.
func (in *Instance) runLoop() {
	defer close(in.done)
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("simulation panic: %v", r)
			logrus.Errorf("simulation %s: %s", in.id, msg)
			if in.finish(StatusError, msg) {
				in.sink.Emit(in.id, "error", map[string]any{"message": msg})
			}
		}
	}()

	for {
		switch in.getStatus() {
		case StatusPaused:
			time.Sleep(pausePollInterval)
			continue
		case StatusRunning:
			// fall through to step
		default:
			// STOPPED or other terminal transition requested by the
			// control plane; the loop just exits.
			return
		}

		if in.engine.IsDone() || in.engine.CurrentTime >= in.config.MaxTimeMinutes {
			in.engine.Finalize()
			in.cacheEngineState()
			if in.finish(StatusCompleted, "") {
				in.sink.Emit(in.id, "completed", map[string]any{
					"final_time": in.engine.CurrentTime,
					"metrics":    in.engine.Metrics.Snapshot(),
				})
			}
			return
		}

		in.engine.Step()
		in.engine.CurrentTime++
		in.cacheEngineState()

		in.sink.Emit(in.id, "timestep", map[string]any{
			"time":    in.engine.CurrentTime,
			"metrics": in.engine.Metrics.Snapshot(),
		})

		time.Sleep(time.Duration(float64(time.Second) / in.getSpeed()))
	}
}

// cacheEngineState copies worker-owned engine fields into the lock-guarded
// mirror the control plane reads.
func (in *Instance) cacheEngineState() {
	snapshot := in.engine.Metrics.Snapshot()
	currentTime := in.engine.CurrentTime
	in.mu.Lock()
	in.metrics = snapshot
	in.currentTime = currentTime
	in.mu.Unlock()
}
