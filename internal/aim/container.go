package aim

import (
	"github.com/mkravets/orbita-api/internal/aimlink"
	"gorm.io/gorm"
)

type AimContainer struct {
	Handler *Handler
	Service AimService
	Repo    AimRepository
}

func NewAimContainer(db *gorm.DB, links aimlink.Registry, cache ListCache) *AimContainer {
	repo := NewRepository(db)
	service := NewService(repo, links, cache)
	handler := NewHandler(service)

	return &AimContainer{
		Handler: handler,
		Service: service,
		Repo:    repo,
	}
}
