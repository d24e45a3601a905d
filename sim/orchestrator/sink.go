package orchestrator

import "github.com/sirupsen/logrus"

// EventSink receives orchestrator-level notifications for every managed
// simulation: lifecycle transitions, per-minute timestep snapshots, and
// forwarded engine events. Implementations bridge to whatever transport the
// embedding application uses; Emit is called from the worker goroutine and
// must be safe for concurrent use across instances.
type EventSink interface {
	Emit(simulationID string, event string, payload map[string]any)
}

// LogSink writes every event to the structured log. The default sink.
type LogSink struct{}

func (LogSink) Emit(simulationID string, event string, payload map[string]any) {
	logrus.WithFields(logrus.Fields{
		"simulation_id": simulationID,
		"event":         event,
	}).Debug(payload)
}
