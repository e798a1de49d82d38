package cascade

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mkravets/orbita-api/internal/aim"
	"github.com/mkravets/orbita-api/internal/auth"
	"github.com/mkravets/orbita-api/internal/cache"
	"github.com/mkravets/orbita-api/internal/config"
	"gorm.io/gorm"
)

type Handler struct {
	boundary *Boundary
	goals    GoalStore
	aims     aim.AimService
}

func NewHandler(boundary *Boundary, goals GoalStore, aims aim.AimService) *Handler {
	return &Handler{boundary: boundary, goals: goals, aims: aims}
}

type statusResponse struct {
	Aim     *aim.AimResponse `json:"aim,omitempty"`
	Cascade *Result          `json:"cascade,omitempty"`
	// Invalidated lists the scope keys the server dropped, so callers running
	// their own caches can mirror the invalidation.
	Invalidated []string `json:"invalidated,omitempty"`
}

func scopeStrings(keys []cache.Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}

// SetStatus toggles a day or year aim. Day toggles run the rollup cascade
// through the optimistic boundary; year toggles are a direct write. Week and
// month aims are derived and rejected.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	claims, err := auth.GetUserClaimsFromContext(r.Context())
	if err != nil {
		log.Warn("User not authenticated")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID := uuid.MustParse(claims.UserID)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var dto aim.SetStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if dto.Status != aim.AimStatusDone && dto.Status != aim.AimStatusNotDone {
		http.Error(w, "status must be done or not_done", http.StatusBadRequest)
		return
	}

	target, err := h.goals.FindByIdAndUserId(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "aim not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to load aim for status change")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	switch target.Level {
	case aim.AimLevelDay:
		leafKey := aimsKeyFor(userID, target.Level, target.EndAt)
		result, err := h.boundary.SetDayStatus(r.Context(), userID, id, dto.Status, leafKey)
		if err != nil {
			if errors.Is(err, ErrSaveInFlight) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			var partial *PartialCascadeError
			if errors.As(err, &partial) {
				log.WithError(err).Error("Cascade committed partially")
				config.JSON(w, http.StatusInternalServerError, statusResponse{Cascade: result})
				return
			}
			log.WithError(err).Error("Failed to set day aim status")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		config.JSON(w, http.StatusOK, statusResponse{
			Cascade:     result,
			Invalidated: scopeStrings(result.InvalidateKeys),
		})

	case aim.AimLevelYear:
		response, err := h.aims.SetYearStatus(r.Context(), id.String(), dto.Status)
		if err != nil {
			log.WithError(err).Error("Failed to set year aim status")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		config.JSON(w, http.StatusOK, statusResponse{Aim: response})

	default:
		http.Error(w, "week and month status is derived from children", http.StatusUnprocessableEntity)
	}
}
