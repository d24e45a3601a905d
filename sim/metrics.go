package sim

import "fmt"

// Metrics aggregates outcome counters over a simulation run. Response time
// is measured from scenario start (t=0) to ambulance pickup.
type Metrics struct {
	Deaths            int     `json:"deaths"`
	Transported       int     `json:"transported"`
	TotalCasualties   int     `json:"total_casualties"`
	CasualtiesWaiting int     `json:"casualties_waiting"`
	Pickups           int     `json:"pickups"`
	TotalResponseTime int     `json:"total_response_time"`
	AvgResponseTime   float64 `json:"avg_response_time"`
}

// Snapshot returns a copy of the metrics, safe to hand to callers while the
// engine keeps mutating the original.
func (m *Metrics) Snapshot() Metrics {
	return *m
}

// Print writes a human-readable summary to stdout.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Results ===")
	fmt.Printf("Total casualties:   %d\n", m.TotalCasualties)
	fmt.Printf("Transported:        %d\n", m.Transported)
	fmt.Printf("Deaths:             %d\n", m.Deaths)
	fmt.Printf("Still waiting:      %d\n", m.CasualtiesWaiting)
	fmt.Printf("Pickups:            %d\n", m.Pickups)
	fmt.Printf("Avg response time:  %.2f min\n", m.AvgResponseTime)
}
