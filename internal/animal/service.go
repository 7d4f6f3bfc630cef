package animal

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"herdwatch/internal/audit"
	"herdwatch/internal/auth"
	"herdwatch/internal/farm"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/store"
	dErrors "herdwatch/pkg/domain-errors"
)

// MaxPageSize caps list pagination.
const MaxPageSize = 1000

// Service orchestrates the herd registry. Farmers operate on animals in
// farms they own, vets read everything, admins do both.
type Service struct {
	animals   Store
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

func New(animals Store, farms FarmStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		animals:   animals,
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

// List returns animals visible to the caller, paginated and filtered.
func (s *Service) List(ctx context.Context, actor auth.Principal, f ListFilter) ([]*Animal, error) {
	if f.Limit <= 0 || f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Skip < 0 {
		f.Skip = 0
	}

	if actor.Role == auth.RoleFarmer {
		if f.FarmID != uuid.Nil {
			if _, err := s.ownedFarm(ctx, actor, f.FarmID); err != nil {
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

	animals, err := s.animals.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list animals")
	}
	return animals, nil
}

// Get returns one animal, enforcing farmer ownership of its farm.
func (s *Service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Animal, error) {
	a, err := s.animals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "animal not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load animal")
	}
	if err := s.authorizeRead(ctx, actor, a.FarmID); err != nil {
		return nil, err
	}
	return a, nil
}

// Create registers an animal on a farm. Tag numbers are unique per farm.
func (s *Service) Create(ctx context.Context, actor auth.Principal, req *CreateRequest) (*Animal, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ownedFarm(ctx, actor, req.FarmID); err != nil {
		return nil, err
	}

	a := &Animal{
		ID:             uuid.New(),
		FarmID:         req.FarmID,
		TagNumber:      req.TagNumber,
		Breed:          req.Breed,
		DOB:            req.DOB,
		Sex:            req.Sex,
		Parity:         req.Parity,
		CurrentWeight:  req.CurrentWeight,
		LactationStart: req.LactationStart,
		Active:         true,
		CreatedAt:      s.now(),
	}
	if err := s.animals.Create(ctx, a); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tag number already in use on this farm")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create animal")
	}
	s.emit(ctx, actor, audit.ActionAnimalCreated, a.ID)
	return a, nil
}

// Update mutates animal fields.
func (s *Service) Update(ctx context.Context, actor auth.Principal, id uuid.UUID, req *UpdateRequest) (*Animal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.animals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "animal not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load animal")
	}
	if _, err := s.ownedFarm(ctx, actor, a.FarmID); err != nil {
		return nil, err
	}

	if req.TagNumber != nil {
		a.TagNumber = strings.TrimSpace(*req.TagNumber)
	}
	if req.Breed != nil {
		a.Breed = strings.TrimSpace(*req.Breed)
	}
	if req.DOB != nil {
		a.DOB = *req.DOB
	}
	if req.Sex != nil {
		a.Sex = strings.ToUpper(strings.TrimSpace(*req.Sex))
	}
	if req.Parity != nil {
		a.Parity = *req.Parity
	}
	if req.CurrentWeight != nil {
		a.CurrentWeight = req.CurrentWeight
	}
	if req.LactationStart != nil {
		a.LactationStart = *req.LactationStart
	}
	if req.Active != nil {
		a.Active = *req.Active
	}

	if err := s.animals.Update(ctx, a); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tag number already in use on this farm")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update animal")
	}
	s.emit(ctx, actor, audit.ActionAnimalUpdated, a.ID)
	return a, nil
}

// Deactivate soft-deletes an animal, keeping its history intact.
func (s *Service) Deactivate(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	a, err := s.animals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "animal not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load animal")
	}
	if _, err := s.ownedFarm(ctx, actor, a.FarmID); err != nil {
		return err
	}

	a.Active = false
	if err := s.animals.Update(ctx, a); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate animal")
	}
	s.emit(ctx, actor, audit.ActionAnimalDeactivated, a.ID)
	return nil
}

// RecordFeedProfile attaches a daily feed record to an animal.
func (s *Service) RecordFeedProfile(ctx context.Context, actor auth.Principal, animalID uuid.UUID, req *FeedProfileRequest) (*FeedProfile, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.animals.FindByID(ctx, animalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "animal not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load animal")
	}
	if _, err := s.ownedFarm(ctx, actor, a.FarmID); err != nil {
		return nil, err
	}

	fp := &FeedProfile{
		ID:             uuid.New(),
		AnimalID:       a.ID,
		Date:           req.Date,
		FeedType:       req.FeedType,
		QuantityKg:     req.QuantityKg,
		ProteinContent: req.ProteinContent,
		EnergyContent:  req.EnergyContent,
		CreatedAt:      s.now(),
	}
	if err := s.animals.CreateFeedProfile(ctx, fp); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record feed profile")
	}
	return fp, nil
}

// RecordSensorReading ingests a single sensor measurement.
func (s *Service) RecordSensorReading(ctx context.Context, actor auth.Principal, animalID uuid.UUID, req *SensorReadingRequest) (*SensorReading, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.Get(ctx, actor, animalID)
	if err != nil {
		return nil, err
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	sr := &SensorReading{
		ID:        uuid.New(),
		AnimalID:  a.ID,
		Type:      req.Type,
		Value:     req.Value,
		Unit:      req.Unit,
		Timestamp: ts,
	}
	if err := s.animals.CreateSensorReading(ctx, sr); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record sensor reading")
	}
	return sr, nil
}

// LatestFeedProfile returns the newest feed record, or nil when none exists.
func (s *Service) LatestFeedProfile(ctx context.Context, actor auth.Principal, animalID uuid.UUID) (*FeedProfile, error) {
	if _, err := s.Get(ctx, actor, animalID); err != nil {
		return nil, err
	}
	fp, err := s.animals.LatestFeedProfile(ctx, animalID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load feed profile")
	}
	return fp, nil
}

// SensorReadings returns the most recent measurements for an animal.
func (s *Service) SensorReadings(ctx context.Context, actor auth.Principal, animalID uuid.UUID, limit int) ([]*SensorReading, error) {
	if _, err := s.Get(ctx, actor, animalID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = 100
	}
	readings, err := s.animals.ListSensorReadings(ctx, animalID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sensor readings")
	}
	return readings, nil
}

// ownedFarm loads the farm and rejects farmers who do not own it. Vets are
// read-only over the herd, so mutations route through here too.
func (s *Service) ownedFarm(ctx context.Context, actor auth.Principal, farmID uuid.UUID) (*farm.Farm, error) {
	f, err := s.farms.FindByID(ctx, farmID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "farm not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load farm")
	}
	if !actor.IsAdmin() && f.OwnerID != actor.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized for this farm")
	}
	return f, nil
}

// authorizeRead allows vets and admins everywhere and farmers on their own
// farms.
func (s *Service) authorizeRead(ctx context.Context, actor auth.Principal, farmID uuid.UUID) error {
	if actor.Role != auth.RoleFarmer {
		return nil
	}
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

func (s *Service) emit(ctx context.Context, actor auth.Principal, action string, animalID uuid.UUID) {
	event := audit.Event{
		ActorID:   actor.UserID.String(),
		Actor:     actor.Username,
		Action:    action,
		Entity:    "animal",
		EntityID:  animalID.String(),
		RequestID: middleware.GetRequestID(ctx),
		Timestamp: s.now(),
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
	s.logger.InfoContext(ctx, action,
		"actor_id", event.ActorID,
		"animal_id", event.EntityID,
		"request_id", event.RequestID,
		"log_type", "audit",
	)
}
