package disease

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

// Handler wires the disease record endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers disease routes on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/disease-records", h.handleList)
	r.Get("/api/disease-records/{recordID}", h.handleGet)

	vetOnly := middleware.RequireRoles(h.logger, string(auth.RoleVet))
	r.With(vetOnly).Post("/api/disease-records", h.handleCreate)
	r.With(vetOnly).Post("/api/disease-records/{recordID}/recover", h.handleRecover)
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
		h.logError(r, "failed to record diagnosis", err)
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
		h.logError(r, "failed to list disease records", err)
		shared.WriteError(w, err)
		return
	}
	if records == nil {
		records = []*Record{}
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleRecover(w http.ResponseWriter, r *http.Request) {
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
	var req RecoveryRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
			return
		}
	}
	rec, err := h.service.MarkRecovered(ctx, actor, recordID, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rec)
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
	f.Disease = q.Get("disease")
	if raw := q.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "invalid is_active")
		}
		f.Active = &active
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
