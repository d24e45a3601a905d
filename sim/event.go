package sim

// EventType labels an entry in the simulation event log.
type EventType string

const (
	EventDeath          EventType = "DEATH"
	EventPickup         EventType = "PICKUP"
	EventDelivery       EventType = "DELIVERY"
	EventDispatch       EventType = "DISPATCH"
	EventMoveToLocation EventType = "MOVE_TO_LOCATION"
	EventRepositioned   EventType = "REPOSITIONED"
	EventReturnToBase   EventType = "RETURN_TO_BASE"
	EventSimulationEnd  EventType = "SIMULATION_END"
)

// Event is a single timestamped entry in the engine's event log. Data keys
// depend on the event type (casualty_id, ambulance_id, hospital_id, ...).
type Event struct {
	Type EventType      `json:"type"`
	Time int            `json:"time"`
	Data map[string]any `json:"data,omitempty"`
}

// Listener receives every event synchronously as the engine logs it.
// Listeners must not call back into the engine.
type Listener func(Event)
