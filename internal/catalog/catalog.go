package catalog

import (
	"sync"
	"time"

	"github.com/clsdenji/Spark/internal/domain"
)

// Catalog is an in-memory, atomically swappable set of parking spots.
// Readers never see a partially applied reload.
type Catalog struct {
	mu         sync.RWMutex
	spots      []domain.Spot
	byID       map[string]domain.Spot
	lastReload time.Time
}

// NewCatalog creates a new empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		byID: make(map[string]domain.Spot),
	}
}

// Update atomically replaces the catalog contents
func (c *Catalog) Update(spots []domain.Spot) {
	byID := make(map[string]domain.Spot, len(spots))
	for _, s := range spots {
		byID[s.ID] = s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.spots = spots
	c.byID = byID
	c.lastReload = time.Now()
}

// All returns a copy of every spot in the catalog
func (c *Catalog) All() []domain.Spot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Spot, len(c.spots))
	copy(out, c.spots)
	return out
}

// Get returns the spot with the given ID
func (c *Catalog) Get(id string) (domain.Spot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.byID[id]
	return s, ok
}

// Nearest returns up to limit spots ranked by distance from the given
// point. When openOnly is set, spots closed at the given hour are
// filtered out before ranking.
func (c *Catalog) Nearest(lat, lng float64, hour, limit int, openOnly bool) []domain.RankedSpot {
	c.mu.RLock()
	spots := c.spots
	c.mu.RUnlock()

	return domain.NearestSpots(spots, lat, lng, hour, limit, openOnly)
}

// Count returns the number of spots currently in the catalog
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.spots)
}

// LastReload returns the time of the last successful Update
func (c *Catalog) LastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReload
}
