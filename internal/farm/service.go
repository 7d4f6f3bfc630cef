package farm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"herdwatch/internal/audit"
	"herdwatch/internal/auth"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/store"
	dErrors "herdwatch/pkg/domain-errors"
)

// Service orchestrates farm management with role-based scoping: farmers see
// and mutate only their own farms, vets and admins read everything.
type Service struct {
	farms     Store
	logger    *slog.Logger
	publisher audit.Publisher
	now       func() time.Time
}

type Option func(s *Service)

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(farms Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		farms:     farms,
		logger:    logger,
		publisher: audit.NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the farms visible to the caller.
func (s *Service) List(ctx context.Context, actor auth.Principal) ([]*Farm, error) {
	var (
		farms []*Farm
		err   error
	)
	if actor.Role == auth.RoleFarmer {
		farms, err = s.farms.ListByOwner(ctx, actor.UserID)
	} else {
		farms, err = s.farms.ListAll(ctx)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list farms")
	}
	return farms, nil
}

// Get returns one farm, enforcing farmer ownership.
func (s *Service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Farm, error) {
	f, err := s.farms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "farm not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load farm")
	}
	if actor.Role == auth.RoleFarmer && f.OwnerID != actor.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized to view this farm")
	}
	return f, nil
}

// Create registers a farm owned by the caller.
func (s *Service) Create(ctx context.Context, actor auth.Principal, req *CreateRequest) (*Farm, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	f := &Farm{
		ID:        uuid.New(),
		Name:      req.Name,
		Location:  req.Location,
		Timezone:  req.Timezone,
		OwnerID:   actor.UserID,
		CreatedAt: s.now(),
	}
	if err := s.farms.Create(ctx, f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create farm")
	}
	s.emit(ctx, actor, audit.ActionFarmCreated, f.ID)
	return f, nil
}

// Update mutates farm fields. Owners only; admin overrides.
func (s *Service) Update(ctx context.Context, actor auth.Principal, id uuid.UUID, req *UpdateRequest) (*Farm, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	f, err := s.farms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "farm not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load farm")
	}
	if !actor.IsAdmin() && f.OwnerID != actor.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized to update this farm")
	}

	if req.Name != nil {
		f.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		f.Location = strings.TrimSpace(*req.Location)
	}
	if req.Timezone != nil {
		f.Timezone = *req.Timezone
	}
	if err := s.farms.Update(ctx, f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update farm")
	}
	s.emit(ctx, actor, audit.ActionFarmUpdated, f.ID)
	return f, nil
}

func (s *Service) emit(ctx context.Context, actor auth.Principal, action string, farmID uuid.UUID) {
	event := audit.Event{
		ActorID:   actor.UserID.String(),
		Actor:     actor.Username,
		Action:    action,
		Entity:    "farm",
		EntityID:  farmID.String(),
		RequestID: middleware.GetRequestID(ctx),
		Timestamp: s.now(),
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
	s.logger.InfoContext(ctx, action,
		"actor_id", event.ActorID,
		"farm_id", event.EntityID,
		"request_id", event.RequestID,
		"log_type", "audit",
	)
}
