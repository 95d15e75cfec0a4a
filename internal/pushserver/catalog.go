package pushserver

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/dgnsrekt/parkgate-realtime/internal/api"
)

// Catalog holds the master data served to clients and mutated by
// injected admin events and the zone ticker.
type Catalog struct {
	mu         sync.RWMutex
	zones      map[string]*api.Zone
	categories []api.Category
	rushHours  []api.RushHour
	vacations  []api.Vacation
}

// NewCatalog builds fixtures for gateCount gates. Every gate reaches two
// zones and neighbouring gates share one.
func NewCatalog(gateCount int) *Catalog {
	c := &Catalog{
		zones: make(map[string]*api.Zone),
		categories: []api.Category{
			{ID: "cat_regular", Name: "Regular", RateNormal: 3, RateSpecial: 5},
			{ID: "cat_premium", Name: "Premium", RateNormal: 5, RateSpecial: 8},
		},
		rushHours: []api.RushHour{
			{ID: "rush_weekday_am", WeekDay: 1, From: "07:00", To: "09:30"},
			{ID: "rush_weekday_pm", WeekDay: 5, From: "16:00", To: "19:00"},
		},
		vacations: []api.Vacation{
			{ID: "vac_new_year", Name: "New Year", From: "2026-12-31", To: "2027-01-01"},
		},
	}

	for i := 1; i <= gateCount+1; i++ {
		gates := []string{}
		if i <= gateCount {
			gates = append(gates, GateID(i))
		}
		if i > 1 {
			gates = append(gates, GateID(i-1))
		}
		cat := c.categories[i%len(c.categories)]
		id := fmt.Sprintf("zone_%d", i)
		c.zones[id] = &api.Zone{
			ID:              id,
			Name:            fmt.Sprintf("Zone %d", i),
			CategoryID:      cat.ID,
			GateIDs:         gates,
			TotalSlots:      100,
			SubscriberCount: 10,
			RateNormal:      cat.RateNormal,
			RateSpecial:     cat.RateSpecial,
			Open:            true,
		}
		recount(c.zones[id])
	}
	return c
}

// GateID is the fixture id of the n-th gate.
func GateID(n int) string {
	return fmt.Sprintf("gate_%d", n)
}

// Zones returns the zones reachable from gateID, or all zones when gateID
// is empty, ordered by id.
func (c *Catalog) Zones(gateID string) []api.Zone {
	c.mu.RLock()
	defer c.mu.RUnlock()

	zones := make([]api.Zone, 0, len(c.zones))
	for _, z := range c.zones {
		if gateID == "" || z.HasGate(gateID) {
			zones = append(zones, *z)
		}
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	return zones
}

// Zone returns a copy of a single zone.
func (c *Catalog) Zone(id string) (api.Zone, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	z, ok := c.zones[id]
	if !ok {
		return api.Zone{}, false
	}
	return *z, true
}

func (c *Catalog) Categories() []api.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]api.Category(nil), c.categories...)
}

func (c *Catalog) RushHours() []api.RushHour {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]api.RushHour(nil), c.rushHours...)
}

func (c *Catalog) Vacations() []api.Vacation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]api.Vacation(nil), c.vacations...)
}

// SetOpen opens or closes a zone. It reports false for unknown zones.
func (c *Catalog) SetOpen(id string, open bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	z, ok := c.zones[id]
	if !ok {
		return false
	}
	z.Open = open
	recount(z)
	return true
}

// Churn moves occupancy of a random open zone reachable from gateID by
// one car in or out and returns the updated zone.
func (c *Catalog) Churn(gateID string) (api.Zone, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var candidates []*api.Zone
	for _, z := range c.zones {
		if z.Open && z.HasGate(gateID) {
			candidates = append(candidates, z)
		}
	}
	if len(candidates) == 0 {
		return api.Zone{}, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	z := candidates[rand.IntN(len(candidates))]
	switch {
	case z.Occupied == 0:
		z.Occupied++
	case z.Occupied >= z.TotalSlots:
		z.Occupied--
	case rand.IntN(2) == 0:
		z.Occupied++
	default:
		z.Occupied--
	}
	recount(z)
	return *z, true
}

// recount derives the availability counters from occupancy.
func recount(z *api.Zone) {
	z.Reserved = z.SubscriberCount
	z.Free = z.TotalSlots - z.Occupied
	if !z.Open {
		z.AvailableForVisitors = 0
		z.AvailableForSubscribers = 0
		return
	}
	z.AvailableForSubscribers = z.Free
	z.AvailableForVisitors = max(z.Free-z.Reserved, 0)
}
