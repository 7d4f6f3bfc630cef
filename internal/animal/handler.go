package animal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"herdwatch/internal/auth"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/transport/http/shared"
	dErrors "herdwatch/pkg/domain-errors"
)

// Handler wires the herd registry endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers animal routes on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/animals", h.handleList)
	r.Get("/api/animals/{animalID}", h.handleGet)
	r.Get("/api/animals/{animalID}/sensors", h.handleListSensorReadings)

	farmerOnly := middleware.RequireRoles(h.logger, string(auth.RoleFarmer))
	r.With(farmerOnly).Post("/api/animals", h.handleCreate)
	r.With(farmerOnly).Put("/api/animals/{animalID}", h.handleUpdate)
	r.With(farmerOnly).Delete("/api/animals/{animalID}", h.handleDeactivate)
	r.With(farmerOnly).Post("/api/animals/{animalID}/feed", h.handleRecordFeed)
	r.With(farmerOnly).Post("/api/animals/{animalID}/sensors", h.handleRecordSensorReading)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	animals, err := h.service.List(ctx, actor, filter)
	if err != nil {
		h.logError(r, "failed to list animals", err)
		shared.WriteError(w, err)
		return
	}
	if animals == nil {
		animals = []*Animal{}
	}
	shared.WriteJSON(w, http.StatusOK, animals)
}

func filterFromQuery(r *http.Request) (ListFilter, error) {
	var f ListFilter
	q := r.URL.Query()
	if raw := q.Get("farm_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "invalid farm_id")
		}
		f.FarmID = id
	}
	f.Breed = q.Get("breed")
	if raw := q.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "invalid is_active")
		}
		f.Active = &active
	}
	var err error
	if f.Skip, err = intParam(q.Get("skip"), 0); err != nil {
		return f, dErrors.New(dErrors.CodeValidation, "invalid skip")
	}
	if f.Limit, err = intParam(q.Get("limit"), 100); err != nil {
		return f, dErrors.New(dErrors.CodeValidation, "invalid limit")
	}
	return f, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "must be a non-negative integer")
	}
	return n, nil
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	animalID, err := uuid.Parse(chi.URLParam(r, "animalID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid animal id"))
		return
	}
	a, err := h.service.Get(ctx, actor, animalID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	a, err := h.service.Create(ctx, actor, &req)
	if err != nil {
		h.logError(r, "failed to create animal", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	animalID, err := uuid.Parse(chi.URLParam(r, "animalID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid animal id"))
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	a, err := h.service.Update(ctx, actor, animalID, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	animalID, err := uuid.Parse(chi.URLParam(r, "animalID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid animal id"))
		return
	}
	if err := h.service.Deactivate(ctx, actor, animalID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) handleRecordFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	animalID, err := uuid.Parse(chi.URLParam(r, "animalID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid animal id"))
		return
	}
	var req FeedProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	fp, err := h.service.RecordFeedProfile(ctx, actor, animalID, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, fp)
}

func (h *Handler) handleRecordSensorReading(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	animalID, err := uuid.Parse(chi.URLParam(r, "animalID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid animal id"))
		return
	}
	var req SensorReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	sr, err := h.service.RecordSensorReading(ctx, actor, animalID, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, sr)
}

func (h *Handler) handleListSensorReadings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	animalID, err := uuid.Parse(chi.URLParam(r, "animalID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid animal id"))
		return
	}
	limit, err := intParam(r.URL.Query().Get("limit"), 100)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid limit"))
		return
	}
	readings, err := h.service.SensorReadings(ctx, actor, animalID, limit)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if readings == nil {
		readings = []*SensorReading{}
	}
	shared.WriteJSON(w, http.StatusOK, readings)
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
