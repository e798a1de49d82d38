package cascade_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mkravets/orbita-api/internal/aim"
	"github.com/mkravets/orbita-api/internal/aimlink"
	"github.com/mkravets/orbita-api/internal/auth"
	"github.com/mkravets/orbita-api/internal/cache"
	"github.com/mkravets/orbita-api/internal/cascade"
	"github.com/mkravets/orbita-api/internal/user"
	util "github.com/mkravets/orbita-api/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type flowFixture struct {
	db       *gorm.DB
	aims     aim.AimService
	boundary *cascade.Boundary
	userID   uuid.UUID
	ctx      context.Context
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&user.User{}, &aim.Aim{}, &aimlink.AimLink{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	u := user.User{ID: uuid.New(), Email: uuid.NewString() + "@test.local"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	store := cache.NewMemoryStore()
	registry := aimlink.NewRegistry(db)
	repo := aim.NewRepository(db)
	aims := aim.NewService(repo, registry, cache.NewAimCache(store))
	container := cascade.NewCascadeContainer(repo, registry, store, aims)

	return &flowFixture{
		db:       db,
		aims:     aims,
		boundary: container.Boundary,
		userID:   u.ID,
		ctx:      auth.WithUserClaims(context.Background(), &auth.UserClaims{UserID: u.ID.String()}),
	}
}

func (f *flowFixture) seed(t *testing.T, level aim.AimLevel, title string, status aim.AimStatus, endAt time.Time) uuid.UUID {
	t.Helper()

	a := aim.Aim{ID: uuid.New(), UserID: f.userID, Level: level, Title: title, EndAt: endAt, Status: status}
	if a.Status == aim.AimStatusDone {
		a.Progress = 100
	}
	if err := f.db.Create(&a).Error; err != nil {
		t.Fatalf("seed aim: %v", err)
	}
	return a.ID
}

func (f *flowFixture) attach(t *testing.T, registry aimlink.Registry, childID, parentID uuid.UUID) {
	t.Helper()
	if err := registry.AttachParent(f.userID, childID, parentID); err != nil {
		t.Fatalf("attach: %v", err)
	}
}

func findResponse(t *testing.T, aims []aim.AimResponse, id uuid.UUID) aim.AimResponse {
	t.Helper()
	for _, a := range aims {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("aim %s missing from listing", id)
	return aim.AimResponse{}
}

// Exercises the whole loop: windowed lists populate the cache, a day toggle
// cascades through week and month, and the follow-up lists serve the
// recomputed ancestors because the cascade dropped their cached scopes.
func TestCachedListsFollowCascade(t *testing.T) {
	f := newFlowFixture(t)
	registry := aimlink.NewRegistry(f.db)
	loc := util.Location()

	monthID := f.seed(t, aim.AimLevelMonth, "ship the quarter", aim.AimStatusActive, time.Date(2025, time.November, 30, 18, 0, 0, 0, loc))
	weekID := f.seed(t, aim.AimLevelWeek, "close the sprint", aim.AimStatusActive, time.Date(2025, time.November, 7, 18, 0, 0, 0, loc))
	f.attach(t, registry, weekID, monthID)
	for i := 0; i < 2; i++ {
		sibling := f.seed(t, aim.AimLevelWeek, "done week", aim.AimStatusDone, time.Date(2025, time.November, 14, 18, 0, 0, 0, loc))
		f.attach(t, registry, sibling, monthID)
	}
	for day := 3; day <= 6; day++ {
		d := f.seed(t, aim.AimLevelDay, "done day", aim.AimStatusDone, time.Date(2025, time.November, day, 12, 0, 0, 0, loc))
		f.attach(t, registry, d, weekID)
	}
	leafID := f.seed(t, aim.AimLevelDay, "last task", aim.AimStatusActive, time.Date(2025, time.November, 7, 12, 0, 0, 0, loc))
	f.attach(t, registry, leafID, weekID)

	// Populate the day, week and month scopes the way the views would.
	days, err := f.aims.ListByLevel(f.ctx, aim.AimLevelDay, 2025, 10)
	if err != nil {
		t.Fatalf("list days: %v", err)
	}
	if got := findResponse(t, days, leafID); got.Status != aim.AimStatusActive {
		t.Fatalf("leaf should start active, got %s", got.Status)
	}
	weeks, err := f.aims.ListByLevel(f.ctx, aim.AimLevelWeek, 2025, 10)
	if err != nil {
		t.Fatalf("list weeks: %v", err)
	}
	if got := findResponse(t, weeks, weekID); got.Status != aim.AimStatusActive {
		t.Fatalf("week should start active, got %s", got.Status)
	}
	if _, err := f.aims.ListByLevel(f.ctx, aim.AimLevelMonth, 2025, 10); err != nil {
		t.Fatalf("list months: %v", err)
	}

	month0 := 10
	leafKey := cache.AimsKey(f.userID, "day", 2025, &month0)
	result, err := f.boundary.SetDayStatus(f.ctx, f.userID, leafID, aim.AimStatusDone, leafKey)
	if err != nil {
		t.Fatalf("SetDayStatus: %v", err)
	}
	if result.Terminal != cascade.TerminalComplete {
		t.Fatalf("Terminal = %s, expected complete", result.Terminal)
	}

	t.Run("ListsServeRecomputedAncestors", func(t *testing.T) {
		weeks, err := f.aims.ListByLevel(f.ctx, aim.AimLevelWeek, 2025, 10)
		if err != nil {
			t.Fatalf("list weeks: %v", err)
		}
		if got := findResponse(t, weeks, weekID); got.Status != aim.AimStatusDone || got.Progress != 100 {
			t.Errorf("week = %s/%d, expected done/100 after the cascade", got.Status, got.Progress)
		}

		months, err := f.aims.ListByLevel(f.ctx, aim.AimLevelMonth, 2025, 10)
		if err != nil {
			t.Fatalf("list months: %v", err)
		}
		if got := findResponse(t, months, monthID); got.Status != aim.AimStatusDone || got.Progress != 100 {
			t.Errorf("month = %s/%d, expected done/100 after the cascade", got.Status, got.Progress)
		}

		days, err := f.aims.ListByLevel(f.ctx, aim.AimLevelDay, 2025, 10)
		if err != nil {
			t.Fatalf("list days: %v", err)
		}
		if got := findResponse(t, days, leafID); got.Status != aim.AimStatusDone || got.Progress != 100 {
			t.Errorf("leaf = %s/%d, expected done/100", got.Status, got.Progress)
		}
	})

	t.Run("RefilledScopeIsServedFromCache", func(t *testing.T) {
		if _, err := f.aims.ListByLevel(f.ctx, aim.AimLevelWeek, 2025, 10); err != nil {
			t.Fatalf("list weeks: %v", err)
		}

		// A direct row write without invalidation must stay invisible.
		if err := f.db.Model(&aim.Aim{}).Where("id = ?", weekID).
			Update("title", "renamed behind the cache").Error; err != nil {
			t.Fatalf("raw update: %v", err)
		}
		weeks, err := f.aims.ListByLevel(f.ctx, aim.AimLevelWeek, 2025, 10)
		if err != nil {
			t.Fatalf("list weeks: %v", err)
		}
		if got := findResponse(t, weeks, weekID); got.Title != "close the sprint" {
			t.Errorf("expected the cached title, got %q", got.Title)
		}
	})
}
