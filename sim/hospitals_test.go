package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mci-sim/mcisim/sim/internal/testutil"
)

func TestLoadCatalog(t *testing.T) {
	path := testutil.WriteHospitalCatalog(t)

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, 4, catalog.Len())

	h, ok := catalog.ByID("cedars")
	require.True(t, ok)
	assert.Equal(t, "Cedars-Sinai Medical Center", h.Name)
	assert.Equal(t, 1, h.TraumaLevel)
	assert.True(t, h.HasHelipad)

	// Unknown bed counts come through as the sentinel
	h, ok = catalog.ByID("stvincent")
	require.True(t, ok)
	assert.Equal(t, UnknownBedCount, h.BedCount)

	_, ok = catalog.ByID("nonexistent")
	assert.False(t, ok)
}

func TestLoadCatalog_Errors(t *testing.T) {
	_, err := LoadCatalog("/nonexistent/hospitals.json")
	assert.Error(t, err)

	_, err = LoadCatalog(testutil.WriteJSON(t, "not json"))
	assert.Error(t, err)

	_, err = LoadCatalog(testutil.WriteJSON(t, "[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestCatalog_BoundsCached(t *testing.T) {
	catalog := NewCatalog(testHospitals())

	b1, err := catalog.Bounds(0.1)
	require.NoError(t, err)
	b2, err := catalog.Bounds(0.1)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)

	// A different padding yields different bounds
	b3, err := catalog.Bounds(0.5)
	require.NoError(t, err)
	assert.Greater(t, b3.MaxLat, b1.MaxLat)
}
