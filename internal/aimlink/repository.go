package aimlink

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mkravets/orbita-api/internal/rollup"
	"gorm.io/gorm"
)

var ErrLevelMismatch = errors.New("parent level must be exactly one tier above child level")

type Registry interface {
	// AttachParent replaces any existing link for the child with a link to
	// parentID. The delete and insert are separate statements; a crash in
	// between leaves the child parentless, which the aggregators tolerate.
	AttachParent(userID, childID, parentID uuid.UUID) error
	DetachParent(userID, childID uuid.UUID) error
	// FindParent returns the child's link, or nil when it has none.
	FindParent(userID, childID uuid.UUID) (*AimLink, error)
	// FindChildren returns every link under the given parents together with
	// a snapshot of each child's id, deadline, status and level.
	FindChildren(userID uuid.UUID, parentIDs []uuid.UUID) ([]rollup.LinkRow, error)
	// DeleteByEndpoint removes every link where id is either side. Used when
	// an aim is deleted.
	DeleteByEndpoint(userID, id uuid.UUID) error
}

type registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) Registry {
	return &registry{db: db}
}

var childToParent = map[string]string{
	"day":  "week",
	"week": "month",
}

func (r *registry) AttachParent(userID, childID, parentID uuid.UUID) error {
	var levels []struct {
		ID    uuid.UUID
		Level string
	}
	if err := r.db.Table("aims").
		Select("id, level").
		Where("user_id = ? AND id IN ?", userID, []uuid.UUID{childID, parentID}).
		Scan(&levels).Error; err != nil {
		return err
	}

	var childLevel, parentLevel string
	for _, row := range levels {
		if row.ID == childID {
			childLevel = row.Level
		}
		if row.ID == parentID {
			parentLevel = row.Level
		}
	}
	if childToParent[childLevel] != parentLevel || parentLevel == "" {
		return ErrLevelMismatch
	}

	if err := r.DetachParent(userID, childID); err != nil {
		return err
	}
	return r.db.Create(&AimLink{
		ID:       uuid.New(),
		UserID:   userID,
		ParentID: parentID,
		ChildID:  childID,
	}).Error
}

func (r *registry) DetachParent(userID, childID uuid.UUID) error {
	return r.db.Delete(&AimLink{}, "user_id = ? AND child_id = ?", userID, childID).Error
}

func (r *registry) FindParent(userID, childID uuid.UUID) (*AimLink, error) {
	var link AimLink
	err := r.db.First(&link, "user_id = ? AND child_id = ?", userID, childID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *registry) FindChildren(userID uuid.UUID, parentIDs []uuid.UUID) ([]rollup.LinkRow, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var rows []struct {
		ParentID uuid.UUID
		ChildID  uuid.UUID
		EndAt    time.Time
		Status   string
		Level    string
	}
	if err := r.db.Table("aim_links").
		Select("aim_links.parent_id, aims.id AS child_id, aims.end_at, aims.status, aims.level").
		Joins("JOIN aims ON aims.id = aim_links.child_id").
		Where("aim_links.user_id = ? AND aim_links.parent_id IN ?", userID, parentIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	links := make([]rollup.LinkRow, 0, len(rows))
	for _, row := range rows {
		links = append(links, rollup.LinkRow{
			ParentID: row.ParentID,
			Child: &rollup.Child{
				ID:     row.ChildID,
				EndAt:  row.EndAt,
				Status: row.Status,
				Level:  row.Level,
			},
		})
	}
	return links, nil
}

func (r *registry) DeleteByEndpoint(userID, id uuid.UUID) error {
	return r.db.Delete(&AimLink{}, "user_id = ? AND (parent_id = ? OR child_id = ?)", userID, id, id).Error
}
