package cache

import (
	"context"

	"github.com/google/uuid"
	"github.com/mkravets/orbita-api/internal/aim"
)

// AimCache adapts a Store to the aim service's windowed read path: one
// cached collection per {user, level, year, month} scope key.
type AimCache struct {
	store Store
}

func NewAimCache(store Store) *AimCache {
	return &AimCache{store: store}
}

func (c *AimCache) GetAims(ctx context.Context, userID uuid.UUID, level aim.AimLevel, year int, month0 *int) ([]aim.Aim, bool, error) {
	return c.store.Get(ctx, AimsKey(userID, string(level), year, month0))
}

func (c *AimCache) SetAims(ctx context.Context, userID uuid.UUID, level aim.AimLevel, year int, month0 *int, aims []aim.Aim) error {
	return c.store.Set(ctx, AimsKey(userID, string(level), year, month0), aims)
}

func (c *AimCache) InvalidateAims(ctx context.Context, userID uuid.UUID, level aim.AimLevel, year int, month0 *int) error {
	return c.store.Invalidate(ctx, AimsKey(userID, string(level), year, month0))
}
