package sim

import "testing"

func TestMetrics_SnapshotIsIndependentCopy(t *testing.T) {
	m := &Metrics{Deaths: 2, Transported: 5, Pickups: 6}
	snap := m.Snapshot()

	m.Deaths = 99
	if snap.Deaths != 2 {
		t.Errorf("snapshot mutated with source: got %d deaths, want 2", snap.Deaths)
	}
	if snap.Transported != 5 || snap.Pickups != 6 {
		t.Errorf("snapshot fields: got %+v", snap)
	}
}
