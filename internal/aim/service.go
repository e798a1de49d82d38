package aim

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mkravets/orbita-api/internal/aimlink"
	"github.com/mkravets/orbita-api/internal/auth"
	"github.com/mkravets/orbita-api/internal/config"
	util "github.com/mkravets/orbita-api/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAimNotFound   = errors.New("aim not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidID     = errors.New("invalid id format")
	ErrInvalidLevel  = errors.New("invalid aim level")
	ErrNoParentLevel = errors.New("aims at this level cannot be linked to a parent")
	ErrDerivedStatus = errors.New("week and month status is derived from children")
)

type AimService interface {
	Create(ctx context.Context, dto CreateAimDTO) (*AimResponse, error)
	Update(ctx context.Context, id string, dto UpdateAimDTO) (*AimResponse, error)
	FindByID(ctx context.Context, id string) (*AimResponse, error)
	ListByLevel(ctx context.Context, level AimLevel, year, month0 int) ([]AimResponse, error)
	Delete(ctx context.Context, id string) error
	// ParentCandidates lists aims one tier above childLevel whose deadline
	// falls in the level-appropriate window around anchor: the enclosing
	// month for week children, the enclosing W-block for day children.
	ParentCandidates(ctx context.Context, childLevel AimLevel, anchor time.Time, search string) ([]ParentCandidate, error)
	// SetYearStatus toggles a year aim directly. Year aims sit outside the
	// rollup: months never cascade upward into them.
	SetYearStatus(ctx context.Context, id string, status AimStatus) (*AimResponse, error)
}

// ListCache caches windowed aim collections by {user, level, year, month}
// scope. month0 is nil for year-windowed levels (year, month) and set for
// month-windowed ones (week, day). A nil ListCache disables caching.
type ListCache interface {
	GetAims(ctx context.Context, userID uuid.UUID, level AimLevel, year int, month0 *int) ([]Aim, bool, error)
	SetAims(ctx context.Context, userID uuid.UUID, level AimLevel, year int, month0 *int, aims []Aim) error
	InvalidateAims(ctx context.Context, userID uuid.UUID, level AimLevel, year int, month0 *int) error
}

type service struct {
	repo  AimRepository
	links aimlink.Registry
	cache ListCache
}

func NewService(repo AimRepository, links aimlink.Registry, cache ListCache) AimService {
	return &service{repo: repo, links: links, cache: cache}
}

func getUserIDFromContext(ctx context.Context, log logrus.FieldLogger, action string) (uuid.UUID, error) {
	claims, err := auth.GetUserClaimsFromContext(ctx)
	if err != nil {
		log.WithError(err).Warnf("Attempt to %s without authentication", action)
		return uuid.Nil, ErrUnauthorized
	}
	return uuid.MustParse(claims.UserID), nil
}

func parseUUID(log logrus.FieldLogger, id string, entityName string) (uuid.UUID, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		log.WithError(err).Warnf("Invalid %s ID", entityName)
		return uuid.Nil, ErrInvalidID
	}
	return parsedID, nil
}

// invalidateScope drops the cached collection the aim's deadline falls into.
// Cache failures never fail the write itself.
func (s *service) invalidateScope(ctx context.Context, log logrus.FieldLogger, userID uuid.UUID, level AimLevel, endAt time.Time) {
	if s.cache == nil {
		return
	}
	local := endAt.In(util.Location())
	var monthPtr *int
	if level == AimLevelWeek || level == AimLevelDay {
		m := int(local.Month()) - 1
		monthPtr = &m
	}
	if err := s.cache.InvalidateAims(ctx, userID, level, local.Year(), monthPtr); err != nil {
		log.WithError(err).Warn("Failed to invalidate cached aim collection")
	}
}

func (s *service) Create(ctx context.Context, dto CreateAimDTO) (*AimResponse, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "create aim")
	if err != nil {
		return nil, err
	}

	if !dto.Level.IsValid() {
		return nil, ErrInvalidLevel
	}

	a := Aim{
		ID:          uuid.New(),
		UserID:      userID,
		Level:       dto.Level,
		Title:       strings.TrimSpace(dto.Title),
		Description: strings.TrimSpace(dto.Description),
		StartAt:     util.ToTimePtr(dto.StartAt),
		EndAt:       dto.EndAt.Time,
		Status:      AimStatusActive,
		Progress:    0,
	}
	if err := s.repo.Create(&a); err != nil {
		log.WithError(err).Error("Failed to create aim")
		return nil, err
	}

	if dto.ParentID != nil {
		if err := s.links.AttachParent(userID, a.ID, *dto.ParentID); err != nil {
			// The aim without its link is worse than no aim at all; take the
			// insert back.
			if delErr := s.repo.Delete(a.ID, userID); delErr != nil {
				log.WithError(delErr).Error("Failed to clean up aim after link failure")
			}
			log.WithError(err).Error("Failed to link aim to parent")
			return nil, err
		}
	}

	s.invalidateScope(ctx, log, userID, a.Level, a.EndAt)
	log.WithField("aim_id", a.ID).Info("Aim created successfully")
	return s.toResponse(&a), nil
}

func (s *service) Update(ctx context.Context, id string, dto UpdateAimDTO) (*AimResponse, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "update aim")
	if err != nil {
		return nil, err
	}

	aimID, err := parseUUID(log, id, "aim")
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByIdAndUserId(aimID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAimNotFound
		}
		log.WithError(err).Error("Error finding aim for update")
		return nil, err
	}

	oldEndAt := existing.EndAt
	if dto.Title != nil {
		existing.Title = strings.TrimSpace(*dto.Title)
	}
	if dto.Description != nil {
		existing.Description = strings.TrimSpace(*dto.Description)
	}
	if dto.StartAt != nil {
		existing.StartAt = util.ToTimePtr(dto.StartAt)
	}
	if dto.EndAt != nil {
		existing.EndAt = dto.EndAt.Time
	}
	existing.UpdatedAt = time.Now()

	if err := s.repo.UpdateFields(aimID, userID, map[string]interface{}{
		"title":       existing.Title,
		"description": existing.Description,
		"start_at":    existing.StartAt,
		"end_at":      existing.EndAt,
		"updated_at":  existing.UpdatedAt,
	}); err != nil {
		log.WithError(err).Error("Failed to update aim")
		return nil, err
	}

	// Parent selection is replace-on-save: drop the old link, then attach the
	// newly chosen parent, or leave the aim detached when none was chosen.
	if err := s.links.DetachParent(userID, aimID); err != nil {
		log.WithError(err).Error("Failed to detach aim from parent")
		return nil, err
	}
	if dto.ParentID != nil {
		if err := s.links.AttachParent(userID, aimID, *dto.ParentID); err != nil {
			log.WithError(err).Error("Failed to attach aim to new parent")
			return nil, err
		}
	}

	// The deadline may have moved into another window; drop both scopes.
	s.invalidateScope(ctx, log, userID, existing.Level, oldEndAt)
	if !existing.EndAt.Equal(oldEndAt) {
		s.invalidateScope(ctx, log, userID, existing.Level, existing.EndAt)
	}

	log.WithField("aim_id", aimID).Info("Aim updated successfully")
	return s.toResponse(existing), nil
}

func (s *service) FindByID(ctx context.Context, id string) (*AimResponse, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "find aim")
	if err != nil {
		return nil, err
	}

	aimID, err := parseUUID(log, id, "aim")
	if err != nil {
		return nil, err
	}

	a, err := s.repo.FindByIdAndUserId(aimID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithFields(logrus.Fields{
				"aim_id":  id,
				"user_id": userID,
			}).Warn("Aim not found or does not belong to user")
			return nil, ErrAimNotFound
		}
		log.WithError(err).Error("Error finding aim by ID")
		return nil, err
	}
	return s.toResponse(a), nil
}

// ListByLevel serves the windowed level views: year and month aims are read
// over the whole year, week and day aims over one month.
func (s *service) ListByLevel(ctx context.Context, level AimLevel, year, month0 int) ([]AimResponse, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "list aims")
	if err != nil {
		return nil, err
	}

	if !level.IsValid() {
		return nil, ErrInvalidLevel
	}

	var from, to time.Time
	var monthPtr *int
	switch level {
	case AimLevelYear, AimLevelMonth:
		from, to = util.YearRange(year)
	default:
		from, to = util.MonthRange(year, month0)
		m := month0
		monthPtr = &m
	}

	if s.cache != nil {
		cached, ok, err := s.cache.GetAims(ctx, userID, level, year, monthPtr)
		if err != nil {
			log.WithError(err).Warn("Cache read failed, falling back to the database")
		} else if ok {
			responses := make([]AimResponse, 0, len(cached))
			for i := range cached {
				responses = append(responses, *s.toResponse(&cached[i]))
			}
			return responses, nil
		}
	}

	aims, err := s.repo.ListByLevelAndWindow(userID, level, from, to)
	if err != nil {
		log.WithError(err).Error("Failed to list aims by level")
		return nil, err
	}

	if s.cache != nil {
		values := make([]Aim, 0, len(aims))
		for _, a := range aims {
			values = append(values, *a)
		}
		if err := s.cache.SetAims(ctx, userID, level, year, monthPtr, values); err != nil {
			log.WithError(err).Warn("Failed to cache aim collection")
		}
	}

	responses := make([]AimResponse, 0, len(aims))
	for _, a := range aims {
		responses = append(responses, *s.toResponse(a))
	}
	return responses, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "delete aim")
	if err != nil {
		return err
	}

	aimID, err := parseUUID(log, id, "aim")
	if err != nil {
		return err
	}

	existing, err := s.repo.FindByIdAndUserId(aimID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAimNotFound
		}
		log.WithError(err).Error("Error finding aim before deletion")
		return err
	}

	// Links go first so no orphan rows point at a deleted aim.
	if err := s.links.DeleteByEndpoint(userID, aimID); err != nil {
		log.WithError(err).Error("Failed to delete aim links")
		return err
	}
	if err := s.repo.Delete(aimID, userID); err != nil {
		log.WithError(err).Error("Failed to delete aim")
		return err
	}

	s.invalidateScope(ctx, log, userID, existing.Level, existing.EndAt)
	log.WithField("aim_id", id).Info("Aim deleted successfully")
	return nil
}

func (s *service) ParentCandidates(ctx context.Context, childLevel AimLevel, anchor time.Time, search string) ([]ParentCandidate, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "list parent candidates")
	if err != nil {
		return nil, err
	}

	parentLevel, ok := childLevel.ParentLevel()
	if !ok {
		return nil, ErrNoParentLevel
	}

	var from, to time.Time
	if childLevel == AimLevelWeek {
		local := anchor.In(util.Location())
		from, to = util.MonthRange(local.Year(), int(local.Month())-1)
	} else {
		start, end := util.WBlockRange(anchor)
		from, to = start, end.Add(time.Nanosecond)
	}

	parents, err := s.repo.ListByLevelAndWindow(userID, parentLevel, from, to)
	if err != nil {
		log.WithError(err).Error("Failed to list parent candidates")
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(search))
	candidates := make([]ParentCandidate, 0, len(parents))
	for _, p := range parents {
		if q != "" && !strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		candidates = append(candidates, ParentCandidate{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			EndAt:       p.EndAt,
		})
	}
	return candidates, nil
}

func (s *service) SetYearStatus(ctx context.Context, id string, status AimStatus) (*AimResponse, error) {
	log := config.WithContext(ctx)
	userID, err := getUserIDFromContext(ctx, log, "set year aim status")
	if err != nil {
		return nil, err
	}

	aimID, err := parseUUID(log, id, "aim")
	if err != nil {
		return nil, err
	}

	a, err := s.repo.FindByIdAndUserId(aimID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAimNotFound
		}
		return nil, err
	}
	if a.Level != AimLevelYear {
		return nil, ErrDerivedStatus
	}

	progress := 0
	if status == AimStatusDone {
		progress = 100
	}
	if err := s.repo.UpdateStatusProgress(aimID, userID, status, progress); err != nil {
		log.WithError(err).Error("Failed to set year aim status")
		return nil, err
	}

	s.invalidateScope(ctx, log, userID, AimLevelYear, a.EndAt)
	a.Status = status
	a.Progress = progress
	return s.toResponse(a), nil
}

func (s *service) toResponse(a *Aim) *AimResponse {
	return &AimResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		Level:          a.Level,
		Title:          a.Title,
		Description:    a.Description,
		StartAt:        a.StartAt,
		EndAt:          a.EndAt,
		Status:         a.Status,
		Progress:       a.Progress,
		ManualOverride: a.ManualOverride,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
