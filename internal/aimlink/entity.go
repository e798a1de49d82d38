package aimlink

import (
	"time"

	"github.com/google/uuid"
)

// AimLink associates a child aim with its parent one tier above. A child is
// expected to carry at most one link at a time; the registry enforces this
// only by replacing existing rows on attach.
type AimLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;not null;index:idx_aim_links_user_child" json:"user_id"`
	ParentID  uuid.UUID `gorm:"column:parent_id;not null;index" json:"parent_id"`
	ChildID   uuid.UUID `gorm:"column:child_id;not null;index:idx_aim_links_user_child" json:"child_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (AimLink) TableName() string {
	return "aim_links"
}
