package cache

import (
	"context"

	"github.com/mkravets/orbita-api/internal/aim"
)

// Store is the cache collaborator: windowed aim collections by scope key,
// with explicit invalidation. Implementations must return copies so callers
// can patch a collection without mutating cached state behind the store's
// back.
type Store interface {
	Get(ctx context.Context, key Key) ([]aim.Aim, bool, error)
	Set(ctx context.Context, key Key, aims []aim.Aim) error
	Invalidate(ctx context.Context, keys ...Key) error
}

func copyAims(aims []aim.Aim) []aim.Aim {
	out := make([]aim.Aim, len(aims))
	copy(out, aims)
	for i := range out {
		if out[i].StartAt != nil {
			t := *out[i].StartAt
			out[i].StartAt = &t
		}
	}
	return out
}
