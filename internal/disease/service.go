package disease

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"herdwatch/internal/alert"
	"herdwatch/internal/animal"
	"herdwatch/internal/audit"
	"herdwatch/internal/auth"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/store"
	dErrors "herdwatch/pkg/domain-errors"
	"herdwatch/pkg/date"
)

// MaxPageSize caps list pagination.
const MaxPageSize = 1000

// Service records diagnoses and raises health alerts for them. Only vets
// and admins may create records; visibility follows the herd registry.
type Service struct {
	records   Store
	animals   AnimalService
	alerts    AlertRaiser
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

func New(records Store, animals AnimalService, alerts AlertRaiser, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		records:   records,
		animals:   animals,
		alerts:    alerts,
		logger:    logger,
		publisher: audit.NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores a diagnosis and raises a health alert on the animal's farm.
// Severe cases alert at high severity, the rest at medium.
func (s *Service) Record(ctx context.Context, actor auth.Principal, req *CreateRequest) (*Record, error) {
	if actor.Role != auth.RoleVet && actor.Role != auth.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only vets can record diagnoses")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := s.animals.Get(ctx, actor, req.AnimalID)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:            uuid.New(),
		AnimalID:      a.ID,
		DiseaseName:   req.DiseaseName,
		DiagnosisDate: req.DiagnosisDate,
		Severity:      req.Severity,
		Treatment:     req.Treatment,
		Notes:         req.Notes,
		VetID:         actor.UserID,
		CreatedAt:     s.now(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record diagnosis")
	}

	severity := alert.SeverityMedium
	if rec.Severity == SeveritySevere {
		severity = alert.SeverityHigh
	}
	message := fmt.Sprintf("%s diagnosed for animal %s", rec.DiseaseName, a.TagNumber)
	if _, err := s.alerts.Raise(ctx, a.FarmID, &a.ID, alert.TypeHealth, severity, message); err != nil {
		s.logger.WarnContext(ctx, "failed to raise health alert",
			"record_id", rec.ID.String(),
			"error", err,
		)
	}
	s.emit(ctx, actor, rec)
	return rec, nil
}

// Get returns one record if the caller can see its animal.
func (s *Service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Record, error) {
	rec, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "disease record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load disease record")
	}
	if _, err := s.animals.Get(ctx, actor, rec.AnimalID); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the records visible to the caller, newest diagnosis first.
func (s *Service) List(ctx context.Context, actor auth.Principal, f ListFilter) ([]*Record, error) {
	if f.Limit <= 0 || f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, dErrors.New(dErrors.CodeValidation, "to must not precede from")
	}

	if f.AnimalID != uuid.Nil {
		if _, err := s.animals.Get(ctx, actor, f.AnimalID); err != nil {
			return nil, err
		}
	} else if f.AnimalIDs == nil && actor.Role == auth.RoleFarmer {
		animals, err := s.animals.List(ctx, actor, animal.ListFilter{})
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(animals))
		for _, a := range animals {
			ids = append(ids, a.ID)
		}
		f.AnimalIDs = ids
	}

	records, err := s.records.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list disease records")
	}
	return records, nil
}

// MarkRecovered closes a case. Vets and admins only.
func (s *Service) MarkRecovered(ctx context.Context, actor auth.Principal, id uuid.UUID, req *RecoveryRequest) (*Record, error) {
	if actor.Role != auth.RoleVet && actor.Role != auth.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only vets can close diagnoses")
	}
	rec, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if rec.Recovered {
		return nil, dErrors.New(dErrors.CodeConflict, "case is already recovered")
	}

	recoveryDate := req.RecoveryDate
	if recoveryDate.IsZero() {
		recoveryDate = date.Of(s.now())
	}
	if recoveryDate.Before(rec.DiagnosisDate) {
		return nil, dErrors.New(dErrors.CodeValidation, "recovery_date cannot precede diagnosis_date")
	}

	rec.Recovered = true
	rec.RecoveryDate = recoveryDate
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update disease record")
	}
	return rec, nil
}

// ActiveCases reports how many open cases an animal has. Health scoring in
// the prediction path uses this.
func (s *Service) ActiveCases(ctx context.Context, animalID uuid.UUID) (int, error) {
	n, err := s.records.CountActive(ctx, animalID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count active cases")
	}
	return n, nil
}

func (s *Service) emit(ctx context.Context, actor auth.Principal, rec *Record) {
	event := audit.Event{
		ActorID:   actor.UserID.String(),
		Actor:     actor.Username,
		Action:    audit.ActionDiseaseRecorded,
		Entity:    "disease_record",
		EntityID:  rec.ID.String(),
		Detail:    rec.DiseaseName,
		RequestID: middleware.GetRequestID(ctx),
		Timestamp: s.now(),
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
	s.logger.InfoContext(ctx, event.Action,
		"actor_id", event.ActorID,
		"record_id", event.EntityID,
		"animal_id", rec.AnimalID.String(),
		"request_id", event.RequestID,
		"log_type", "audit",
	)
}
