package aim

import (
	"time"

	"github.com/google/uuid"
	"github.com/mkravets/orbita-api/internal/user"
)

type Aim struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"column:user_id;not null;index" json:"user_id"`
	User        user.User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Level       AimLevel   `gorm:"not null;index" json:"level"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       time.Time  `gorm:"not null;index" json:"end_at"`
	Status      AimStatus  `gorm:"not null;default:active" json:"status"`
	Progress    int        `gorm:"not null;default:0" json:"progress"`

	// ManualOverride is stored but never consulted by the rollup cascade.
	ManualOverride bool `gorm:"not null;default:false" json:"manual_override"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Aim) TableName() string {
	return "aims"
}

// ClampProgress keeps progress inside [0,100] on every write path.
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
