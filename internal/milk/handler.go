package milk

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
	"herdwatch/pkg/date"
)

// Handler wires the milk production endpoints, including the per-animal
// history route.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers milk routes on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/milk-records", h.handleList)
	r.Get("/api/milk-records/summary", h.handleSummary)
	r.Get("/api/milk-records/{recordID}", h.handleGet)
	r.Get("/api/animals/{animalID}/milk-history", h.handleHistory)
	r.With(middleware.RequireRoles(h.logger, string(auth.RoleFarmer))).
		Post("/api/milk-records", h.handleCreate)
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
	rec, err := h.service.Record(ctx, actor, &req)
	if err != nil {
		h.logError(r, "failed to record milk production", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid record id"))
		return
	}
	rec, err := h.service.Get(ctx, actor, recordID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rec)
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
	records, err := h.service.List(ctx, actor, filter)
	if err != nil {
		h.logError(r, "failed to list milk records", err)
		shared.WriteError(w, err)
		return
	}
	if records == nil {
		records = []*Record{}
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
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
	sum, err := h.service.Summarize(ctx, actor, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sum)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
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
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "days must be between 1 and 365"))
			return
		}
	}
	points, err := h.service.History(ctx, actor, animalID, days)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if points == nil {
		points = []*HistoryPoint{}
	}
	shared.WriteJSON(w, http.StatusOK, points)
}

func filterFromQuery(r *http.Request) (ListFilter, error) {
	var f ListFilter
	q := r.URL.Query()
	if raw := q.Get("animal_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "invalid animal_id")
		}
		f.AnimalID = id
	}
	var err error
	if raw := q.Get("from"); raw != "" {
		if f.From, err = date.Parse(raw); err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "invalid from date")
		}
	}
	if raw := q.Get("to"); raw != "" {
		if f.To, err = date.Parse(raw); err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "invalid to date")
		}
	}
	if raw := q.Get("skip"); raw != "" {
		if f.Skip, err = strconv.Atoi(raw); err != nil || f.Skip < 0 {
			return f, dErrors.New(dErrors.CodeValidation, "invalid skip")
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if f.Limit, err = strconv.Atoi(raw); err != nil || f.Limit < 0 {
			return f, dErrors.New(dErrors.CodeValidation, "invalid limit")
		}
	}
	return f, nil
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
