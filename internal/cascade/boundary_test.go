package cascade_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mkravets/orbita-api/internal/aim"
	"github.com/mkravets/orbita-api/internal/cache"
	"github.com/mkravets/orbita-api/internal/cascade"
	util "github.com/mkravets/orbita-api/internal/utils"
)

type scriptedCascade struct {
	result  *cascade.Result
	err     error
	block   chan struct{}
	started chan struct{}
}

func (s *scriptedCascade) SetLeafStatus(ctx context.Context, userID, leafID uuid.UUID, status aim.AimStatus) (*cascade.Result, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

func seedCollection(t *testing.T, store cache.Store, key cache.Key, userID, leafID uuid.UUID) []aim.Aim {
	t.Helper()

	collection := []aim.Aim{
		{
			ID:       leafID,
			UserID:   userID,
			Level:    aim.AimLevelDay,
			Title:    "morning run",
			EndAt:    time.Date(2025, time.November, 7, 9, 0, 0, 0, util.Location()),
			Status:   aim.AimStatusActive,
			Progress: 0,
		},
		{
			ID:       uuid.New(),
			UserID:   userID,
			Level:    aim.AimLevelDay,
			Title:    "read a chapter",
			EndAt:    time.Date(2025, time.November, 7, 21, 0, 0, 0, util.Location()),
			Status:   aim.AimStatusDone,
			Progress: 100,
		},
	}
	if err := store.Set(context.Background(), key, collection); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	return collection
}

func TestBoundarySetDayStatus(t *testing.T) {
	userID := uuid.New()
	leafID := uuid.New()
	month0 := 10
	leafKey := cache.AimsKey(userID, "day", 2025, &month0)

	t.Run("RollbackRestoresSnapshotExactly", func(t *testing.T) {
		store := cache.NewMemoryStore()
		snapshot := seedCollection(t, store, leafKey, userID, leafID)

		runner := &scriptedCascade{err: errors.New("store unavailable")}
		b := cascade.NewBoundary(runner, store)

		if _, err := b.SetDayStatus(context.Background(), userID, leafID, aim.AimStatusDone, leafKey); err == nil {
			t.Fatal("expected cascade failure to surface")
		}

		restored, ok, err := store.Get(context.Background(), leafKey)
		if err != nil || !ok {
			t.Fatalf("collection missing after rollback: ok=%v err=%v", ok, err)
		}
		if !reflect.DeepEqual(restored, snapshot) {
			t.Errorf("rollback mismatch:\n got %+v\nwant %+v", restored, snapshot)
		}
	})

	t.Run("SuccessInvalidatesCascadeScopes", func(t *testing.T) {
		store := cache.NewMemoryStore()
		seedCollection(t, store, leafKey, userID, leafID)

		weekKey := cache.AimsKey(userID, "week", 2025, &month0)
		if err := store.Set(context.Background(), weekKey, []aim.Aim{}); err != nil {
			t.Fatalf("seed week cache: %v", err)
		}

		runner := &scriptedCascade{result: &cascade.Result{
			LeafID:         leafID,
			Terminal:       cascade.TerminalComplete,
			InvalidateKeys: []cache.Key{leafKey, weekKey},
		}}
		b := cascade.NewBoundary(runner, store)

		result, err := b.SetDayStatus(context.Background(), userID, leafID, aim.AimStatusDone, leafKey)
		if err != nil {
			t.Fatalf("SetDayStatus failed: %v", err)
		}
		if result.Terminal != cascade.TerminalComplete {
			t.Errorf("Terminal = %s, expected complete", result.Terminal)
		}

		for _, key := range []cache.Key{leafKey, weekKey} {
			if _, ok, _ := store.Get(context.Background(), key); ok {
				t.Errorf("scope %s should be invalidated", key)
			}
		}
	})

	t.Run("SecondSaveForSameLeafRejected", func(t *testing.T) {
		store := cache.NewMemoryStore()
		seedCollection(t, store, leafKey, userID, leafID)

		runner := &scriptedCascade{
			result:  &cascade.Result{LeafID: leafID, Terminal: cascade.TerminalLeafOnly},
			block:   make(chan struct{}),
			started: make(chan struct{}),
		}
		b := cascade.NewBoundary(runner, store)

		done := make(chan struct{})
		go func() {
			defer close(done)
			if _, err := b.SetDayStatus(context.Background(), userID, leafID, aim.AimStatusDone, leafKey); err != nil {
				t.Errorf("first save failed: %v", err)
			}
		}()

		<-runner.started
		if _, err := b.SetDayStatus(context.Background(), userID, leafID, aim.AimStatusNotDone, leafKey); !errors.Is(err, cascade.ErrSaveInFlight) {
			t.Errorf("expected ErrSaveInFlight, got %v", err)
		}

		close(runner.block)
		<-done

		// A save for a different leaf id is never blocked.
		otherLeaf := uuid.New()
		runner2 := &scriptedCascade{result: &cascade.Result{LeafID: otherLeaf, Terminal: cascade.TerminalLeafOnly}}
		b2 := cascade.NewBoundary(runner2, store)
		if _, err := b2.SetDayStatus(context.Background(), userID, otherLeaf, aim.AimStatusDone, leafKey); err != nil {
			t.Errorf("independent save failed: %v", err)
		}
	})

	t.Run("NoCachedCollectionStillCascades", func(t *testing.T) {
		store := cache.NewMemoryStore()
		runner := &scriptedCascade{result: &cascade.Result{LeafID: leafID, Terminal: cascade.TerminalLeafOnly}}
		b := cascade.NewBoundary(runner, store)

		if _, err := b.SetDayStatus(context.Background(), userID, leafID, aim.AimStatusDone, leafKey); err != nil {
			t.Fatalf("SetDayStatus failed without cache: %v", err)
		}
	})
}
