package milk

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

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

// MaxHistoryDays bounds the per-animal history window.
const MaxHistoryDays = 365

// Service records and aggregates milk production. Visibility follows the
// herd registry: farmers see their own animals, vets and admins see all.
type Service struct {
	records   Store
	animals   AnimalService
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

func New(records Store, animals AnimalService, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		records:   records,
		animals:   animals,
		logger:    logger,
		publisher: audit.NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores one day's production for an animal. A second record for the
// same animal and day is a conflict.
func (s *Service) Record(ctx context.Context, actor auth.Principal, req *CreateRequest) (*Record, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := s.animals.Get(ctx, actor, req.AnimalID)
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, dErrors.New(dErrors.CodeValidation, "animal is not active")
	}

	rec := &Record{
		ID:           uuid.New(),
		AnimalID:     a.ID,
		Date:         req.Date,
		MorningYield: req.MorningYield,
		EveningYield: req.EveningYield,
		TotalYield:   req.MorningYield + req.EveningYield,
		FatContent:   req.FatContent,
		ProteinPct:   req.ProteinPct,
		SomaticCount: req.SomaticCount,
		RecordedBy:   actor.UserID,
		CreatedAt:    s.now(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a record already exists for this animal and date")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record milk production")
	}
	s.emit(ctx, actor, rec)
	return rec, nil
}

// Get returns one record if the caller can see its animal.
func (s *Service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Record, error) {
	rec, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "milk record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load milk record")
	}
	if _, err := s.animals.Get(ctx, actor, rec.AnimalID); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the records visible to the caller, newest first.
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
		ids, err := s.visibleAnimalIDs(ctx, actor)
		if err != nil {
			return nil, err
		}
		f.AnimalIDs = ids
	}

	records, err := s.records.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list milk records")
	}
	return records, nil
}

// Summarize aggregates production over a period, defaulting to the last 30
// days.
func (s *Service) Summarize(ctx context.Context, actor auth.Principal, f ListFilter) (*Summary, error) {
	if f.To.IsZero() {
		f.To = date.Of(s.now())
	}
	if f.From.IsZero() {
		f.From = f.To.AddDays(-30)
	}
	if f.To.Before(f.From) {
		return nil, dErrors.New(dErrors.CodeValidation, "to must not precede from")
	}
	f.Skip = 0
	f.Limit = 0

	if f.AnimalID != uuid.Nil {
		if _, err := s.animals.Get(ctx, actor, f.AnimalID); err != nil {
			return nil, err
		}
	} else if f.AnimalIDs == nil && actor.Role == auth.RoleFarmer {
		ids, err := s.visibleAnimalIDs(ctx, actor)
		if err != nil {
			return nil, err
		}
		f.AnimalIDs = ids
	}

	records, err := s.records.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to summarize milk records")
	}

	sum := &Summary{From: f.From, To: f.To}
	animals := make(map[uuid.UUID]struct{})
	for _, rec := range records {
		animals[rec.AnimalID] = struct{}{}
		sum.RecordCount++
		sum.TotalYield += rec.TotalYield
		if rec.TotalYield > sum.PeakYield {
			sum.PeakYield = rec.TotalYield
			sum.PeakDate = rec.Date
		}
	}
	sum.AnimalCount = len(animals)
	if sum.RecordCount > 0 {
		sum.AverageYield = sum.TotalYield / float64(sum.RecordCount)
	}
	return sum, nil
}

// History returns an animal's daily totals for the trailing N calendar days
// ending today, oldest first. Days must be in 1..365.
func (s *Service) History(ctx context.Context, actor auth.Principal, animalID uuid.UUID, days int) ([]*HistoryPoint, error) {
	if days < 1 || days > MaxHistoryDays {
		return nil, dErrors.New(dErrors.CodeValidation, "days must be between 1 and 365")
	}
	if _, err := s.animals.Get(ctx, actor, animalID); err != nil {
		return nil, err
	}

	// Both ends inclusive, so a window of N days starts N-1 days back.
	to := date.Of(s.now())
	from := to.AddDays(1 - days)
	points, err := s.records.History(ctx, animalID, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load milk history")
	}
	return points, nil
}

func (s *Service) visibleAnimalIDs(ctx context.Context, actor auth.Principal) ([]uuid.UUID, error) {
	animals, err := s.animals.List(ctx, actor, animal.ListFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(animals))
	for _, a := range animals {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (s *Service) emit(ctx context.Context, actor auth.Principal, rec *Record) {
	event := audit.Event{
		ActorID:   actor.UserID.String(),
		Actor:     actor.Username,
		Action:    audit.ActionMilkRecorded,
		Entity:    "milk_record",
		EntityID:  rec.ID.String(),
		Detail:    rec.Date.String(),
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
