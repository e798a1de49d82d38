package aim

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AimRepository interface {
	Create(a *Aim) error
	FindByIdAndUserId(id, userID uuid.UUID) (*Aim, error)
	ListByLevelAndWindow(userID uuid.UUID, level AimLevel, from, to time.Time) ([]*Aim, error)
	UpdateFields(id, userID uuid.UUID, fields map[string]interface{}) error
	UpdateStatusProgress(id, userID uuid.UUID, status AimStatus, progress int) error
	Delete(id, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) AimRepository {
	return &repository{db: db}
}

func (r *repository) Create(a *Aim) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Progress = ClampProgress(a.Progress)
	return r.db.Create(a).Error
}

func (r *repository) FindByIdAndUserId(id, userID uuid.UUID) (*Aim, error) {
	var a Aim
	if err := r.db.First(&a, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByLevelAndWindow returns the user's aims at one level whose deadline
// falls into the half-open window [from, to), ordered by deadline.
func (r *repository) ListByLevelAndWindow(userID uuid.UUID, level AimLevel, from, to time.Time) ([]*Aim, error) {
	var aims []*Aim
	if err := r.db.
		Where("user_id = ? AND level = ? AND end_at >= ? AND end_at < ?", userID, level, from, to).
		Order("end_at ASC").
		Find(&aims).Error; err != nil {
		return nil, err
	}
	return aims, nil
}

func (r *repository) UpdateFields(id, userID uuid.UUID, fields map[string]interface{}) error {
	if p, ok := fields["progress"].(int); ok {
		fields["progress"] = ClampProgress(p)
	}
	return r.db.Model(&Aim{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields).Error
}

func (r *repository) UpdateStatusProgress(id, userID uuid.UUID, status AimStatus, progress int) error {
	return r.UpdateFields(id, userID, map[string]interface{}{
		"status":   status,
		"progress": progress,
	})
}

func (r *repository) Delete(id, userID uuid.UUID) error {
	return r.db.Delete(&Aim{}, "id = ? AND user_id = ?", id, userID).Error
}
