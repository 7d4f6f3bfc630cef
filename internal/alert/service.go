package alert

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"herdwatch/internal/audit"
	"herdwatch/internal/auth"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/store"
	dErrors "herdwatch/pkg/domain-errors"
)

// MaxPageSize caps list pagination.
const MaxPageSize = 1000

// Service manages the alert feed. Raising alerts is internal, done by the
// disease and monitoring paths rather than the HTTP surface.
type Service struct {
	alerts    Store
	farms     FarmStore
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

func New(alerts Store, farms FarmStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		alerts:    alerts,
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

// Raise creates an unresolved alert. Callers are trusted internal paths, so
// there is no actor scoping here.
func (s *Service) Raise(ctx context.Context, farmID uuid.UUID, animalID *uuid.UUID, typ Type, severity Severity, message string) (*Alert, error) {
	if !severity.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid severity")
	}
	if message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message is required")
	}

	a := &Alert{
		ID:        uuid.New(),
		FarmID:    farmID,
		AnimalID:  animalID,
		Type:      typ,
		Severity:  severity,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to raise alert")
	}
	s.logger.InfoContext(ctx, "alert raised",
		"alert_id", a.ID.String(),
		"farm_id", farmID.String(),
		"type", string(typ),
		"severity", string(severity),
	)
	return a, nil
}

// List returns the alerts visible to the caller, newest first.
func (s *Service) List(ctx context.Context, actor auth.Principal, f ListFilter) ([]*Alert, error) {
	if f.Limit <= 0 || f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Severity != "" && !f.Severity.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid severity")
	}

	if actor.Role == auth.RoleFarmer {
		if f.FarmID != uuid.Nil {
			if err := s.authorizeFarm(ctx, actor, f.FarmID); err != nil {
				return nil, err
			}
		} else {
			ids, err := s.farms.IDsByOwner(ctx, actor.UserID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve farms")
			}
			if ids == nil {
				ids = []uuid.UUID{}
			}
			f.FarmIDs = ids
		}
	}

	alerts, err := s.alerts.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list alerts")
	}
	return alerts, nil
}

// Get returns one alert with farmer scoping.
func (s *Service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Alert, error) {
	a, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}
	if actor.Role == auth.RoleFarmer {
		if err := s.authorizeFarm(ctx, actor, a.FarmID); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Resolve marks an alert handled. Resolving twice is a conflict.
func (s *Service) Resolve(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Alert, error) {
	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Resolved {
		return nil, dErrors.New(dErrors.CodeConflict, "alert is already resolved")
	}

	now := s.now()
	a.Resolved = true
	a.ResolvedAt = &now
	a.ResolvedBy = &actor.UserID
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve alert")
	}
	s.emit(ctx, actor, a)
	return a, nil
}

func (s *Service) authorizeFarm(ctx context.Context, actor auth.Principal, farmID uuid.UUID) error {
	f, err := s.farms.FindByID(ctx, farmID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "farm not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load farm")
	}
	if f.OwnerID != actor.UserID {
		return dErrors.New(dErrors.CodeForbidden, "not authorized for this farm")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, actor auth.Principal, a *Alert) {
	event := audit.Event{
		ActorID:   actor.UserID.String(),
		Actor:     actor.Username,
		Action:    audit.ActionAlertResolved,
		Entity:    "alert",
		EntityID:  a.ID.String(),
		Detail:    string(a.Type),
		RequestID: middleware.GetRequestID(ctx),
		Timestamp: s.now(),
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
	s.logger.InfoContext(ctx, event.Action,
		"actor_id", event.ActorID,
		"alert_id", event.EntityID,
		"request_id", event.RequestID,
		"log_type", "audit",
	)
}
