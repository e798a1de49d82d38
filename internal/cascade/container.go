package cascade

import (
	"github.com/mkravets/orbita-api/internal/aim"
	"github.com/mkravets/orbita-api/internal/cache"
)

type CascadeContainer struct {
	Handler  *Handler
	Service  Service
	Boundary *Boundary
}

func NewCascadeContainer(goals GoalStore, links LinkStore, store cache.Store, aims aim.AimService) *CascadeContainer {
	service := NewService(goals, links)
	boundary := NewBoundary(service, store)
	handler := NewHandler(boundary, goals, aims)

	return &CascadeContainer{
		Handler:  handler,
		Service:  service,
		Boundary: boundary,
	}
}
