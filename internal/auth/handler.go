package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/transport/http/shared"
	dErrors "herdwatch/pkg/domain-errors"
)

// Handler wires the auth endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic registers the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// RegisterProtected registers routes that require a valid token.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	// Registration is public, but an authenticated admin may create vet or
	// admin accounts through the same endpoint.
	var actor *Principal
	if p, err := PrincipalFromContext(ctx); err == nil {
		actor = &p
	}

	user, err := h.service.Register(ctx, &req, actor)
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	token, _, err := h.service.Login(ctx, &req, r.UserAgent())
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"username", req.Username,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, token)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	user, err := h.service.GetUser(ctx, principal.UserID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, user)
}
