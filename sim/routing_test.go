package sim

import (
	"math"
	"testing"
)

func TestDistanceKm_DowntownToWestwood(t *testing.T) {
	// GIVEN downtown LA and Westwood coordinates
	// WHEN the great-circle distance is computed
	d := DistanceKm(34.048, -118.251, 34.062, -118.445)

	// THEN it lands in the known 17-20 km range
	if d < 17.0 || d > 20.0 {
		t.Errorf("distance downtown->Westwood: got %.2f km, want 17-20 km", d)
	}
}

func TestDistanceKm_SamePoint(t *testing.T) {
	d := DistanceKm(34.05, -118.25, 34.05, -118.25)
	if d >= 0.001 {
		t.Errorf("same-point distance: got %.6f km, want < 0.001", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(34.048, -118.251, 34.062, -118.445)
	b := DistanceKm(34.062, -118.445, 34.048, -118.251)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %.12f vs %.12f", a, b)
	}
}

func TestTravelTimeMinutes_DefaultSpeed(t *testing.T) {
	// 80 km at 80 km/h is one hour
	lat2 := 34.048 + 80.0/kmPerDegree
	got := TravelTimeMinutes(34.048, -118.251, lat2, -118.251)
	if math.Abs(got-60.0) > 1.0 {
		t.Errorf("travel time for ~80 km: got %.2f min, want ~60", got)
	}
}

func TestTravelTimeMinutesAtSpeed_NonPositiveFallsBack(t *testing.T) {
	want := TravelTimeMinutes(34.048, -118.251, 34.062, -118.445)
	got := TravelTimeMinutesAtSpeed(34.048, -118.251, 34.062, -118.445, 0)
	if got != want {
		t.Errorf("zero speed: got %.4f, want default-speed %.4f", got, want)
	}
	got = TravelTimeMinutesAtSpeed(34.048, -118.251, 34.062, -118.445, -5)
	if got != want {
		t.Errorf("negative speed: got %.4f, want default-speed %.4f", got, want)
	}
}

func TestDistanceMatrix_SymmetricZeroDiagonal(t *testing.T) {
	points := []LatLon{
		{Lat: 34.048, Lon: -118.251},
		{Lat: 34.062, Lon: -118.445},
		{Lat: 34.075, Lon: -118.380},
	}
	m := DistanceMatrix(points)

	if len(m) != len(points) {
		t.Fatalf("matrix size: got %d rows, want %d", len(m), len(points))
	}
	for i := range m {
		if m[i][i] != 0 {
			t.Errorf("diagonal [%d][%d]: got %v, want 0", i, i, m[i][i])
		}
		for j := range m[i] {
			if math.Abs(m[i][j]-m[j][i]) > 1e-9 {
				t.Errorf("asymmetric at [%d][%d]: %v vs %v", i, j, m[i][j], m[j][i])
			}
			if i != j && m[i][j] <= 0 {
				t.Errorf("off-diagonal [%d][%d]: got %v, want > 0", i, j, m[i][j])
			}
		}
	}
}
