package api

import (
	"context"

	"github.com/dgnsrekt/parkgate-realtime/internal/cache"
)

// CachedClient serves reads from a cache.Store and only calls the wrapped
// Client when an entry is missing or its partition was invalidated.
type CachedClient struct {
	client Client
	store  *cache.Store
}

// NewCachedClient wraps client with store.
func NewCachedClient(client Client, store *cache.Store) *CachedClient {
	return &CachedClient{client: client, store: store}
}

func (c *CachedClient) GetZones(ctx context.Context, gateID string) ([]Zone, error) {
	return cache.Load(ctx, c.store, cache.Zones, gateID, func(ctx context.Context) ([]Zone, error) {
		return c.client.GetZones(ctx, gateID)
	})
}

func (c *CachedClient) GetCategories(ctx context.Context) ([]Category, error) {
	return cache.Load(ctx, c.store, cache.Categories, "", c.client.GetCategories)
}

func (c *CachedClient) GetRushHours(ctx context.Context) ([]RushHour, error) {
	return cache.Load(ctx, c.store, cache.RushHours, "", c.client.GetRushHours)
}

func (c *CachedClient) GetVacations(ctx context.Context) ([]Vacation, error) {
	return cache.Load(ctx, c.store, cache.Vacations, "", c.client.GetVacations)
}

var _ Client = (*CachedClient)(nil)
