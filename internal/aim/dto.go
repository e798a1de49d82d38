package aim

import (
	"time"

	"github.com/google/uuid"
	util "github.com/mkravets/orbita-api/internal/utils"
)

type CreateAimDTO struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Level       AimLevel            `json:"level" binding:"required"`
	StartAt     *util.LocalDateTime `json:"start_at"`
	EndAt       util.LocalDateTime  `json:"end_at" binding:"required"`
	ParentID    *uuid.UUID          `json:"parent_id"`
}

type UpdateAimDTO struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	StartAt     *util.LocalDateTime `json:"start_at"`
	EndAt       *util.LocalDateTime `json:"end_at"`
	ParentID    *uuid.UUID          `json:"parent_id"`
}

type SetStatusDTO struct {
	Status AimStatus `json:"status" binding:"required"`
}

type AimResponse struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Level          AimLevel   `json:"level"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	StartAt        *time.Time `json:"start_at,omitempty"`
	EndAt          time.Time  `json:"end_at"`
	Status         AimStatus  `json:"status"`
	Progress       int        `json:"progress"`
	ManualOverride bool       `json:"manual_override"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ParentCandidate is a pickable parent aim. Title, description and deadline
// are offered for form prefill only; nothing keeps child and parent fields
// in sync afterward.
type ParentCandidate struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	EndAt       time.Time `json:"end_at"`
}
