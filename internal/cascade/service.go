package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkravets/orbita-api/internal/aim"
	"github.com/mkravets/orbita-api/internal/aimlink"
	"github.com/mkravets/orbita-api/internal/cache"
	"github.com/mkravets/orbita-api/internal/config"
	"github.com/mkravets/orbita-api/internal/rollup"
	util "github.com/mkravets/orbita-api/internal/utils"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidStatus = errors.New("leaf status must be done or not_done")
	ErrNotLeaf       = errors.New("cascade starts from a day aim")
)

// GoalStore is the subset of the aim repository the coordinator writes
// through.
type GoalStore interface {
	FindByIdAndUserId(id, userID uuid.UUID) (*aim.Aim, error)
	UpdateStatusProgress(id, userID uuid.UUID, status aim.AimStatus, progress int) error
}

// LinkStore is the subset of the link registry the coordinator reads from.
type LinkStore interface {
	FindParent(userID, childID uuid.UUID) (*aimlink.AimLink, error)
	FindChildren(userID uuid.UUID, parentIDs []uuid.UUID) ([]rollup.LinkRow, error)
}

type Terminal string

const (
	// TerminalLeafOnly means the leaf had no parent link; only the leaf was
	// written.
	TerminalLeafOnly Terminal = "leaf_only"
	// TerminalComplete means every reachable ancestor was recomputed.
	TerminalComplete Terminal = "complete"
	// TerminalPartial means earlier writes committed but a later step failed.
	TerminalPartial Terminal = "partial"
)

// Result reports which aims the cascade wrote and which cached scopes the
// caller must invalidate afterward.
type Result struct {
	LeafID         uuid.UUID   `json:"leaf_id"`
	ParentID       *uuid.UUID  `json:"parent_id,omitempty"`
	GrandparentID  *uuid.UUID  `json:"grandparent_id,omitempty"`
	Terminal       Terminal    `json:"terminal"`
	InvalidateKeys []cache.Key `json:"-"`
}

// PartialCascadeError reports a failure after at least the leaf write
// committed. Committed writes are not compensated: recomputation is
// idempotent, so the next cascade over the same parent converges.
type PartialCascadeError struct {
	Stage string
	Err   error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("cascade failed at %s: %v", e.Stage, e.Err)
}

func (e *PartialCascadeError) Unwrap() error {
	return e.Err
}

type Service interface {
	// SetLeafStatus marks a day aim done or not_done and recomputes its week
	// and month ancestors from current children state, one sequential write
	// at a time. Every step reads committed state; nothing is wrapped in a
	// transaction.
	SetLeafStatus(ctx context.Context, userID, leafID uuid.UUID, status aim.AimStatus) (*Result, error)
}

type service struct {
	goals GoalStore
	links LinkStore
}

func NewService(goals GoalStore, links LinkStore) Service {
	return &service{goals: goals, links: links}
}

func (s *service) SetLeafStatus(ctx context.Context, userID, leafID uuid.UUID, status aim.AimStatus) (*Result, error) {
	log := config.WithContext(ctx)

	if status != aim.AimStatusDone && status != aim.AimStatusNotDone {
		return nil, ErrInvalidStatus
	}

	leaf, err := s.goals.FindByIdAndUserId(leafID, userID)
	if err != nil {
		return nil, fmt.Errorf("find leaf aim: %w", err)
	}
	if leaf.Level != aim.AimLevelDay {
		return nil, ErrNotLeaf
	}

	result := &Result{LeafID: leafID}
	result.InvalidateKeys = append(result.InvalidateKeys, aimsKeyFor(userID, leaf.Level, leaf.EndAt))

	// 1. Persist the leaf. Day progress is binary.
	leafProgress := 0
	if status == aim.AimStatusDone {
		leafProgress = 100
	}
	if err := s.goals.UpdateStatusProgress(leafID, userID, status, leafProgress); err != nil {
		log.WithError(err).Error("Failed to write day aim status")
		return nil, fmt.Errorf("write leaf aim: %w", err)
	}

	// 2. Week parent, if the leaf is linked to one.
	parentLink, err := s.links.FindParent(userID, leafID)
	if err != nil {
		return result.partial("parent_lookup", log, err)
	}
	if parentLink == nil {
		result.Terminal = TerminalLeafOnly
		return result, nil
	}

	weekID := parentLink.ParentID
	week, err := s.goals.FindByIdAndUserId(weekID, userID)
	if err != nil {
		return result.partial("parent_fetch", log, err)
	}

	// 3-5. Recompute the parent from its current children and write it.
	if err := s.recomputeParent(userID, week); err != nil {
		return result.partial("parent_write", log, err)
	}
	result.ParentID = &weekID
	result.InvalidateKeys = append(result.InvalidateKeys,
		aimsKeyFor(userID, week.Level, week.EndAt),
		cache.LinksKey(userID, weekID),
	)

	// 6. One more hop when the parent is a week: its month, if linked. The
	// cascade always terminates at month; year aims are toggled on their own.
	if week.Level != aim.AimLevelWeek {
		result.Terminal = TerminalComplete
		return result, nil
	}

	monthLink, err := s.links.FindParent(userID, weekID)
	if err != nil {
		return result.partial("grandparent_lookup", log, err)
	}
	if monthLink == nil {
		result.Terminal = TerminalComplete
		return result, nil
	}

	monthID := monthLink.ParentID
	month, err := s.goals.FindByIdAndUserId(monthID, userID)
	if err != nil {
		return result.partial("grandparent_fetch", log, err)
	}

	if err := s.recomputeParent(userID, month); err != nil {
		return result.partial("grandparent_write", log, err)
	}
	result.GrandparentID = &monthID
	result.InvalidateKeys = append(result.InvalidateKeys,
		aimsKeyFor(userID, month.Level, month.EndAt),
		cache.LinksKey(userID, monthID),
	)

	result.Terminal = TerminalComplete
	log.WithField("leaf_id", leafID).Info("Cascade completed")
	return result, nil
}

// recomputeParent fetches the parent's current children and rewrites its
// status and progress from them. Derived parents are done while complete and
// active otherwise; no delta is ever applied.
func (s *service) recomputeParent(userID uuid.UUID, parent *aim.Aim) error {
	links, err := s.links.FindChildren(userID, []uuid.UUID{parent.ID})
	if err != nil {
		return fmt.Errorf("fetch children of %s: %w", parent.ID, err)
	}

	var computed rollup.Progress
	switch parent.Level {
	case aim.AimLevelWeek:
		computed = rollup.ComputeWeekProgress(parent.ID, links, rollup.ThresholdDays)
	case aim.AimLevelMonth:
		computed = rollup.ComputeMonthProgress(parent.ID, links, rollup.ThresholdWeeks)
	default:
		return fmt.Errorf("aim %s at level %s cannot be a rollup parent", parent.ID, parent.Level)
	}

	status := aim.AimStatusActive
	if computed.IsComplete {
		status = aim.AimStatusDone
	}

	if err := s.goals.UpdateStatusProgress(parent.ID, userID, status, computed.Percent); err != nil {
		return fmt.Errorf("write %s aim %s: %w", parent.Level, parent.ID, err)
	}
	return nil
}

func (r *Result) partial(stage string, log logrus.FieldLogger, err error) (*Result, error) {
	r.Terminal = TerminalPartial
	log.WithError(err).WithField("stage", stage).Error("Cascade failed after committed writes")
	return r, &PartialCascadeError{Stage: stage, Err: err}
}

// aimsKeyFor derives the cached-collection scope of an aim from its level and
// deadline: month-windowed for day and week, year-windowed for month.
func aimsKeyFor(userID uuid.UUID, level aim.AimLevel, endAt time.Time) cache.Key {
	local := endAt.In(util.Location())
	if level == aim.AimLevelDay || level == aim.AimLevelWeek {
		month0 := int(local.Month()) - 1
		return cache.AimsKey(userID, string(level), local.Year(), &month0)
	}
	return cache.AimsKey(userID, string(level), local.Year(), nil)
}
