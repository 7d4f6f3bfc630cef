package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"herdwatch/internal/alert"
	"herdwatch/internal/animal"
	"herdwatch/internal/auth"
	"herdwatch/internal/disease"
	"herdwatch/internal/farm"
	"herdwatch/internal/milk"
	"herdwatch/pkg/date"
)

// Consumer-side slices of the feature services. Actor scoping rides along
// with every call, so the report layer never widens visibility.
type (
	FarmService interface {
		Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*farm.Farm, error)
	}
	AnimalService interface {
		List(ctx context.Context, actor auth.Principal, f animal.ListFilter) ([]*animal.Animal, error)
	}
	MilkService interface {
		List(ctx context.Context, actor auth.Principal, f milk.ListFilter) ([]*milk.Record, error)
		Summarize(ctx context.Context, actor auth.Principal, f milk.ListFilter) (*milk.Summary, error)
	}
	DiseaseService interface {
		List(ctx context.Context, actor auth.Principal, f disease.ListFilter) ([]*disease.Record, error)
	}
	AlertService interface {
		List(ctx context.Context, actor auth.Principal, f alert.ListFilter) ([]*alert.Alert, error)
	}
)

// Service assembles reports from the feature services.
type Service struct {
	farms    FarmService
	animals  AnimalService
	milk     MilkService
	diseases DiseaseService
	alerts   AlertService
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(s *Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(farms FarmService, animals AnimalService, milkSvc MilkService, diseases DiseaseService, alerts AlertService, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		farms:    farms,
		animals:  animals,
		milk:     milkSvc,
		diseases: diseases,
		alerts:   alerts,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// normalize applies the default last-30-days window and checks farm access.
func (s *Service) normalize(ctx context.Context, actor auth.Principal, p *Params) error {
	if p.To.IsZero() {
		p.To = date.Of(s.now())
	}
	if p.From.IsZero() {
		p.From = p.To.AddDays(-30)
	}
	if p.FarmID != uuid.Nil {
		// Get rejects farms the caller cannot see.
		if _, err := s.farms.Get(ctx, actor, p.FarmID); err != nil {
			return err
		}
	}
	return nil
}

// Summary builds the overview report. The four aggregates run concurrently.
func (s *Service) Summary(ctx context.Context, actor auth.Principal, p Params) (*Summary, error) {
	if err := s.normalize(ctx, actor, &p); err != nil {
		return nil, err
	}

	out := &Summary{
		GeneratedAt: s.now(),
		From:        p.From,
		To:          p.To,
	}
	if p.FarmID != uuid.Nil {
		id := p.FarmID
		out.FarmID = &id
	}

	animalIDs, err := s.animalIDs(ctx, actor, p.FarmID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		active := true
		animals, err := s.animals.List(gctx, actor, animal.ListFilter{FarmID: p.FarmID, Active: &active})
		if err != nil {
			return err
		}
		out.ActiveAnimals = len(animals)
		return nil
	})
	g.Go(func() error {
		filter := milk.ListFilter{From: p.From, To: p.To}
		if p.FarmID != uuid.Nil {
			filter.AnimalIDs = animalIDs
		}
		sum, err := s.milk.Summarize(gctx, actor, filter)
		if err != nil {
			return err
		}
		out.Milk = sum
		return nil
	})
	g.Go(func() error {
		activeCases := true
		filter := disease.ListFilter{Active: &activeCases}
		if p.FarmID != uuid.Nil {
			filter.AnimalIDs = animalIDs
		}
		records, err := s.diseases.List(gctx, actor, filter)
		if err != nil {
			return err
		}
		out.ActiveDiseases = len(records)
		return nil
	})
	g.Go(func() error {
		unresolved := false
		alerts, err := s.alerts.List(gctx, actor, alert.ListFilter{FarmID: p.FarmID, Resolved: &unresolved})
		if err != nil {
			return err
		}
		out.UnresolvedAlerts = len(alerts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Milk builds the production detail report.
func (s *Service) Milk(ctx context.Context, actor auth.Principal, p Params) (*Milk, error) {
	if err := s.normalize(ctx, actor, &p); err != nil {
		return nil, err
	}
	filter := milk.ListFilter{From: p.From, To: p.To}
	if p.FarmID != uuid.Nil {
		ids, err := s.animalIDs(ctx, actor, p.FarmID)
		if err != nil {
			return nil, err
		}
		filter.AnimalIDs = ids
	}
	records, err := s.milk.List(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*milk.Record{}
	}
	return &Milk{GeneratedAt: s.now(), From: p.From, To: p.To, Records: records}, nil
}

// Health builds the disease detail report.
func (s *Service) Health(ctx context.Context, actor auth.Principal, p Params) (*Health, error) {
	if err := s.normalize(ctx, actor, &p); err != nil {
		return nil, err
	}
	filter := disease.ListFilter{From: p.From, To: p.To}
	if p.FarmID != uuid.Nil {
		ids, err := s.animalIDs(ctx, actor, p.FarmID)
		if err != nil {
			return nil, err
		}
		filter.AnimalIDs = ids
	}
	records, err := s.diseases.List(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*disease.Record{}
	}
	return &Health{GeneratedAt: s.now(), From: p.From, To: p.To, Records: records}, nil
}

// Alerts builds the alert detail report. Alert timestamps are instants, so
// the date window is compared against created_at.
func (s *Service) Alerts(ctx context.Context, actor auth.Principal, p Params) (*Alerts, error) {
	if err := s.normalize(ctx, actor, &p); err != nil {
		return nil, err
	}
	all, err := s.alerts.List(ctx, actor, alert.ListFilter{FarmID: p.FarmID})
	if err != nil {
		return nil, err
	}
	filtered := make([]*alert.Alert, 0, len(all))
	for _, a := range all {
		d := date.Of(a.CreatedAt)
		if d.Before(p.From) || d.After(p.To) {
			continue
		}
		filtered = append(filtered, a)
	}
	return &Alerts{GeneratedAt: s.now(), From: p.From, To: p.To, Alerts: filtered}, nil
}

// animalIDs resolves the animals on one farm, for joining milk and disease
// data to a farm filter.
func (s *Service) animalIDs(ctx context.Context, actor auth.Principal, farmID uuid.UUID) ([]uuid.UUID, error) {
	if farmID == uuid.Nil {
		return nil, nil
	}
	animals, err := s.animals.List(ctx, actor, animal.ListFilter{FarmID: farmID})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(animals))
	for _, a := range animals {
		ids = append(ids, a.ID)
	}
	return ids, nil
}
