package aim

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mkravets/orbita-api/internal/config"
	util "github.com/mkravets/orbita-api/internal/utils"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service AimService
}

func NewHandler(service AimService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto CreateAimDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.service.Create(r.Context(), dto)
	if err != nil {
		writeServiceError(w, log, err, "Failed to create aim")
		return
	}

	config.JSON(w, http.StatusCreated, response)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	level := AimLevel(r.URL.Query().Get("level"))
	if !level.IsValid() {
		http.Error(w, "invalid level", http.StatusBadRequest)
		return
	}

	now := time.Now().In(util.Location())
	year := queryInt(r, "year", now.Year())
	month0 := queryInt(r, "month", int(now.Month())-1)

	responses, err := h.service.ListByLevel(r.Context(), level, year, month0)
	if err != nil {
		writeServiceError(w, log, err, "Failed to list aims")
		return
	}

	config.JSON(w, http.StatusOK, responses)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	response, err := h.service.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, log, err, "Failed to find aim")
		return
	}

	config.JSON(w, http.StatusOK, response)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto UpdateAimDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		writeServiceError(w, log, err, "Failed to update aim")
		return
	}

	config.JSON(w, http.StatusOK, response)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, log, err, "Failed to delete aim")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListParents serves the import picker: parent candidates inside the
// level-appropriate window around the anchor date, optionally filtered by a
// case-insensitive title substring.
func (h *Handler) ListParents(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	childLevel := AimLevel(r.URL.Query().Get("level"))
	if childLevel != AimLevelWeek && childLevel != AimLevelDay {
		http.Error(w, "level must be week or day", http.StatusBadRequest)
		return
	}

	anchor := time.Now().In(util.Location())
	if raw := r.URL.Query().Get("anchor"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, util.Location())
		if err != nil {
			http.Error(w, "invalid anchor date", http.StatusBadRequest)
			return
		}
		anchor = parsed
	}

	candidates, err := h.service.ParentCandidates(r.Context(), childLevel, anchor, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, log, err, "Failed to list parent candidates")
		return
	}

	config.JSON(w, http.StatusOK, candidates)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error, msg string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrAimNotFound):
		http.Error(w, "aim not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidLevel), errors.Is(err, ErrNoParentLevel):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrDerivedStatus):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.WithError(err).Error(msg)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
