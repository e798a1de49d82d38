package cascade

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/mkravets/orbita-api/internal/aim"
	"github.com/mkravets/orbita-api/internal/cache"
	"github.com/mkravets/orbita-api/internal/config"
)

var ErrSaveInFlight = errors.New("a status save for this aim is already in flight")

// Boundary drives a leaf mutation through a mutable cached collection: the
// leaf record is patched immediately for instant feedback, the cascade runs,
// and on success the derived ancestor scopes are invalidated rather than
// patched by hand. On failure only the leaf's collection is restored from its
// snapshot; ancestor collections were never speculatively touched and stay
// stale until the next fetch.
type Boundary struct {
	cascade Service
	store   cache.Store

	mu     sync.Mutex
	saving map[uuid.UUID]struct{}
}

func NewBoundary(cascade Service, store cache.Store) *Boundary {
	return &Boundary{
		cascade: cascade,
		store:   store,
		saving:  make(map[uuid.UUID]struct{}),
	}
}

// SetDayStatus applies the optimistic patch sequence for one day aim. At most
// one save per aim id may be in flight; a concurrent second call is rejected.
func (b *Boundary) SetDayStatus(ctx context.Context, userID, leafID uuid.UUID, status aim.AimStatus, leafKey cache.Key) (*Result, error) {
	log := config.WithContext(ctx)

	if !b.markSaving(leafID) {
		return nil, ErrSaveInFlight
	}
	defer b.unmarkSaving(leafID)

	// 1. Snapshot the cached collection holding the leaf.
	snapshot, hadCache, err := b.store.Get(ctx, leafKey)
	if err != nil {
		log.WithError(err).Warn("Cache read failed, continuing without optimistic patch")
		hadCache = false
	}

	// 2. Patch the leaf record in place.
	if hadCache {
		progress := 0
		if status == aim.AimStatusDone {
			progress = 100
		}
		patched := make([]aim.Aim, len(snapshot))
		copy(patched, snapshot)
		for i := range patched {
			if patched[i].ID == leafID {
				patched[i].Status = status
				patched[i].Progress = progress
			}
		}
		if err := b.store.Set(ctx, leafKey, patched); err != nil {
			log.WithError(err).Warn("Failed to apply optimistic patch")
		}
	}

	// 3. Run the cascade.
	result, err := b.cascade.SetLeafStatus(ctx, userID, leafID, status)
	if err != nil {
		// 5. Restore the leaf's collection only. Ancestor scopes hold
		// server-derived values and were never patched here; after a partial
		// failure they stay stale until refetched.
		if hadCache {
			if restoreErr := b.store.Set(ctx, leafKey, snapshot); restoreErr != nil {
				log.WithError(restoreErr).Error("Failed to restore optimistic snapshot")
			}
		}
		return result, err
	}

	// 4. Drop every scope the cascade touched so the next read refetches
	// derived state instead of trusting local patches.
	if err := b.store.Invalidate(ctx, result.InvalidateKeys...); err != nil {
		log.WithError(err).Warn("Failed to invalidate cascade scopes")
	}
	return result, nil
}

func (b *Boundary) markSaving(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.saving[id]; busy {
		return false
	}
	b.saving[id] = struct{}{}
	return true
}

func (b *Boundary) unmarkSaving(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.saving, id)
}
