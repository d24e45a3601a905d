// Package testutil provides shared test fixtures for the simulator packages.
// It deliberately avoids importing the sim package so in-package sim tests
// can use it without an import cycle; fixtures are written as raw JSON.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// laHospitalsJSON is a small LA-area hospital catalog in the on-disk format
// consumed by sim.LoadCatalog.
const laHospitalsJSON = `[
  {"id": "cedars", "name": "Cedars-Sinai Medical Center", "lat": 34.0754, "lon": -118.3804, "bed_count": 886, "trauma_level": 1, "has_helipad": true},
  {"id": "lacusc", "name": "LAC+USC Medical Center", "lat": 34.0585, "lon": -118.2101, "bed_count": 600, "trauma_level": 1, "has_helipad": true},
  {"id": "goodsam", "name": "Good Samaritan Hospital", "lat": 34.0522, "lon": -118.2662, "bed_count": 408, "trauma_level": 2, "has_helipad": false},
  {"id": "stvincent", "name": "St. Vincent Medical Center", "lat": 34.0631, "lon": -118.2735, "bed_count": -1, "trauma_level": 3, "has_helipad": false}
]`

// WriteHospitalCatalog writes the standard test hospital catalog to a temp
// file and returns its path. The file is cleaned up with the test.
func WriteHospitalCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hospitals.json")
	if err := os.WriteFile(path, []byte(laHospitalsJSON), 0o644); err != nil {
		t.Fatalf("writing hospital catalog fixture: %v", err)
	}
	return path
}

// WriteJSON writes arbitrary JSON content to a temp file and returns its
// path, for malformed-input tests.
func WriteJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing JSON fixture: %v", err)
	}
	return path
}
