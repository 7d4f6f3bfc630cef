package alert

import (
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

// Handler wires the alert endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers alert routes on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/alerts", h.handleList)
	r.Get("/api/alerts/{alertID}", h.handleGet)
	r.Post("/api/alerts/{alertID}/resolve", h.handleResolve)
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
	alerts, err := h.service.List(ctx, actor, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list alerts",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	if alerts == nil {
		alerts = []*Alert{}
	}
	shared.WriteJSON(w, http.StatusOK, alerts)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	alertID, err := uuid.Parse(chi.URLParam(r, "alertID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid alert id"))
		return
	}
	a, err := h.service.Get(ctx, actor, alertID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	alertID, err := uuid.Parse(chi.URLParam(r, "alertID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid alert id"))
		return
	}
	a, err := h.service.Resolve(ctx, actor, alertID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, a)
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
	if raw := q.Get("is_resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "invalid is_resolved")
		}
		f.Resolved = &resolved
	}
	f.Severity = Severity(q.Get("severity"))
	var err error
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
