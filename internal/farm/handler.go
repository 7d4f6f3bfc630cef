package farm

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"herdwatch/internal/auth"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/transport/http/shared"
	dErrors "herdwatch/pkg/domain-errors"
)

// Handler wires the farm endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers farm routes on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/farms", h.handleList)
	r.Get("/api/farms/{farmID}", h.handleGet)
	r.With(middleware.RequireRoles(h.logger, string(auth.RoleFarmer))).
		Post("/api/farms", h.handleCreate)
	r.With(middleware.RequireRoles(h.logger, string(auth.RoleFarmer))).
		Put("/api/farms/{farmID}", h.handleUpdate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	farms, err := h.service.List(ctx, actor)
	if err != nil {
		h.logError(r, "failed to list farms", err)
		shared.WriteError(w, err)
		return
	}
	if farms == nil {
		farms = []*Farm{}
	}
	shared.WriteJSON(w, http.StatusOK, farms)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	farmID, err := uuid.Parse(chi.URLParam(r, "farmID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid farm id"))
		return
	}
	f, err := h.service.Get(ctx, actor, farmID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, f)
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
	f, err := h.service.Create(ctx, actor, &req)
	if err != nil {
		h.logError(r, "failed to create farm", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	farmID, err := uuid.Parse(chi.URLParam(r, "farmID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid farm id"))
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	f, err := h.service.Update(ctx, actor, farmID, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
