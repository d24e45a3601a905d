package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Catalog holds an ordered, immutable hospital list together with derived
// values cached for the life of the catalog. Loading/filtering of raw
// hospital records (CSV datasets and the like) is an external concern; the
// catalog only consumes already-parsed records.
type Catalog struct {
	hospitals []Hospital
	byID      map[string]Hospital

	mu          sync.Mutex
	boundsCache map[float64]RegionBounds // keyed by padding
}

// NewCatalog wraps a hospital list in a catalog. The list is not copied;
// callers must not mutate it afterwards.
func NewCatalog(hospitals []Hospital) *Catalog {
	byID := make(map[string]Hospital, len(hospitals))
	for _, h := range hospitals {
		byID[h.ID] = h
	}
	return &Catalog{
		hospitals:   hospitals,
		byID:        byID,
		boundsCache: make(map[float64]RegionBounds),
	}
}

// Hospitals returns the ordered hospital list. Read-only.
func (c *Catalog) Hospitals() []Hospital {
	return c.hospitals
}

// Len returns the number of hospitals in the catalog.
func (c *Catalog) Len() int {
	return len(c.hospitals)
}

// ByID looks up a hospital by its ID.
func (c *Catalog) ByID(id string) (Hospital, bool) {
	h, ok := c.byID[id]
	return h, ok
}

// Bounds returns region bounds padded by paddingDeg, computed once per
// padding value and cached for the catalog's lifetime.
func (c *Catalog) Bounds(paddingDeg float64) (RegionBounds, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.boundsCache[paddingDeg]; ok {
		return b, nil
	}
	b, err := CalculateRegionBounds(c.hospitals, paddingDeg)
	if err != nil {
		return RegionBounds{}, err
	}
	c.boundsCache[paddingDeg] = b
	return b, nil
}

// LoadCatalog reads a JSON array of hospital records.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hospital catalog: %w", err)
	}
	var hospitals []Hospital
	if err := json.Unmarshal(data, &hospitals); err != nil {
		return nil, fmt.Errorf("parsing hospital catalog: %w", err)
	}
	if len(hospitals) == 0 {
		return nil, fmt.Errorf("hospital catalog %s is empty", path)
	}
	return NewCatalog(hospitals), nil
}
