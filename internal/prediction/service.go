package prediction

import (
	"context"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("herdwatch/prediction")

// Execution modes reported on every prediction.
const (
	ModeModel     = "model"
	ModeHeuristic = "heuristic"
	ModeMock      = "mock"
)

// Risk levels produced by the disease predictor.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Defaults used by the heuristics when a feature is absent and no trained
// medians are available.
const (
	defaultHealthScore = 7.0
	defaultProtein     = 16.0
	defaultAgeMonths   = 60.0
)

// MilkPrediction is the milk-yield predictor's output.
type MilkPrediction struct {
	PredictedYield float64   `json:"predicted_yield"`
	Confidence     float64   `json:"confidence"`
	Factors        []string  `json:"factors"`
	ModelUsed      string    `json:"model_used"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// DiseasePrediction is the disease-risk predictor's output.
type DiseasePrediction struct {
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       string    `json:"risk_level"`
	Confidence      float64   `json:"confidence"`
	Recommendations []string  `json:"recommendations"`
	ModelUsed       string    `json:"model_used"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// ModelStatus reports what the predictor is running on.
type ModelStatus struct {
	MockMode     bool           `json:"mock_mode"`
	MilkModel    bool           `json:"milk_model_loaded"`
	DiseaseModel bool           `json:"disease_model_loaded"`
	MilkMeta     *ModelMetadata `json:"milk_model,omitempty"`
	DiseaseMeta  *ModelMetadata `json:"disease_model,omitempty"`
}

// Service produces milk-yield and disease-risk predictions. Model inference
// runs when artifacts loaded; otherwise a deterministic heuristic answers.
// Mock mode short-circuits both with canned values.
type Service struct {
	models   *Models
	cache    *Cache
	metrics  *Metrics
	logger   *slog.Logger
	mockMode bool
	now      func() time.Time
}

type Option func(s *Service)

func WithCache(c *Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithMockMode(enabled bool) Option {
	return func(s *Service) { s.mockMode = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(models *Models, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		models: models,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status describes the loaded artifacts and execution mode.
func (s *Service) Status() ModelStatus {
	st := ModelStatus{MockMode: s.mockMode}
	if s.models != nil {
		st.MilkModel = s.models.MilkReady()
		st.DiseaseModel = s.models.DiseaseReady()
		st.MilkMeta = s.models.MilkMeta
		st.DiseaseMeta = s.models.DiseaseMeta
	}
	return st
}

// PredictMilkYield estimates next-day production in litres.
func (s *Service) PredictMilkYield(ctx context.Context, f *Features) (*MilkPrediction, error) {
	ctx, span := tracer.Start(ctx, "PredictMilkYield", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	start := s.now()

	if s.mockMode {
		s.count("milk", ModeMock)
		return &MilkPrediction{
			PredictedYield: 22.5,
			Confidence:     0.85,
			Factors:        s.milkFactors(f),
			ModelUsed:      ModeMock,
			GeneratedAt:    s.now(),
		}, nil
	}

	cacheKey := "prediction:milk:" + f.Hash()
	var cached MilkPrediction
	if hit, err := s.cache.get(ctx, cacheKey, &cached); err != nil {
		s.logger.WarnContext(ctx, "prediction cache read failed", "error", err)
	} else if hit {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	}

	pred := &MilkPrediction{
		Factors:     s.milkFactors(f),
		GeneratedAt: s.now(),
	}
	if s.models.MilkReady() {
		encoded := s.models.Preprocessor.Encode(f)
		yield := s.models.Milk.Predict(encoded)
		if yield < 0 {
			yield = 0
		}
		pred.PredictedYield = round1(yield)
		pred.Confidence = clamp(1-math.Abs(yield-25)/25, 0.6, 0.95)
		pred.ModelUsed = s.modelName(s.models.MilkMeta)
		s.count("milk", ModeModel)
	} else {
		pred.PredictedYield = round1(s.heuristicMilkYield(f))
		pred.Confidence = 0.75
		pred.ModelUsed = ModeHeuristic
		s.count("milk", ModeHeuristic)
		if s.metrics != nil {
			s.metrics.Fallbacks.WithLabelValues("milk").Inc()
		}
	}

	if err := s.cache.set(ctx, cacheKey, pred); err != nil {
		s.logger.WarnContext(ctx, "prediction cache write failed", "error", err)
	}
	s.observe("milk", start)
	span.SetAttributes(
		attribute.String("prediction.mode", pred.ModelUsed),
		attribute.Float64("prediction.yield", pred.PredictedYield),
	)
	return pred, nil
}

// PredictDiseaseRisk estimates the probability of disease onset.
func (s *Service) PredictDiseaseRisk(ctx context.Context, f *Features) (*DiseasePrediction, error) {
	ctx, span := tracer.Start(ctx, "PredictDiseaseRisk", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	start := s.now()

	if s.mockMode {
		s.count("disease", ModeMock)
		return &DiseasePrediction{
			RiskScore:       0.15,
			RiskLevel:       RiskLow,
			Confidence:      0.82,
			Recommendations: defaultRecommendations(),
			ModelUsed:       ModeMock,
			GeneratedAt:     s.now(),
		}, nil
	}

	cacheKey := "prediction:disease:" + f.Hash()
	var cached DiseasePrediction
	if hit, err := s.cache.get(ctx, cacheKey, &cached); err != nil {
		s.logger.WarnContext(ctx, "prediction cache read failed", "error", err)
	} else if hit {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	}

	pred := &DiseasePrediction{GeneratedAt: s.now()}
	if s.models.DiseaseReady() {
		encoded := s.models.Preprocessor.Encode(f)
		risk := s.models.Disease.Predict(encoded)
		pred.RiskScore = round3(risk)
		pred.Confidence = math.Max(math.Abs(risk-0.5)*2, 0.6)
		pred.ModelUsed = s.modelName(s.models.DiseaseMeta)
		s.count("disease", ModeModel)
	} else {
		pred.RiskScore = round3(s.heuristicDiseaseRisk(f))
		pred.Confidence = 0.70
		pred.ModelUsed = ModeHeuristic
		s.count("disease", ModeHeuristic)
		if s.metrics != nil {
			s.metrics.Fallbacks.WithLabelValues("disease").Inc()
		}
	}
	pred.RiskLevel = riskLevel(pred.RiskScore)
	pred.Recommendations = s.recommendations(f, pred.RiskLevel)

	if err := s.cache.set(ctx, cacheKey, pred); err != nil {
		s.logger.WarnContext(ctx, "prediction cache write failed", "error", err)
	}
	s.observe("disease", start)
	span.SetAttributes(
		attribute.String("prediction.mode", pred.ModelUsed),
		attribute.String("prediction.risk_level", pred.RiskLevel),
	)
	return pred, nil
}

func (s *Service) heuristicMilkYield(f *Features) float64 {
	health := f.valueOr("health_score", s.median("health_score", defaultHealthScore))
	protein := f.valueOr("protein_content", s.median("protein_content", defaultProtein))
	age := f.valueOr("age_months", s.median("age_months", defaultAgeMonths))

	yield := 20.0 * (health / 10) * math.Min(1.2, protein/16)
	if age >= 48 && age <= 84 {
		yield *= 1.0
	} else {
		yield *= 0.9
	}
	return yield
}

func (s *Service) heuristicDiseaseRisk(f *Features) float64 {
	health := f.valueOr("health_score", s.median("health_score", defaultHealthScore))
	age := f.valueOr("age_months", s.median("age_months", defaultAgeMonths))

	risk := 0.1
	if health < 5 {
		risk += 0.4
	} else if health < 7 {
		risk += 0.2
	}
	if age > 96 {
		risk += 0.15
	}
	return math.Min(risk, 0.95)
}

func (s *Service) milkFactors(f *Features) []string {
	health := f.valueOr("health_score", s.median("health_score", defaultHealthScore))
	protein := f.valueOr("protein_content", s.median("protein_content", defaultProtein))
	age := f.valueOr("age_months", s.median("age_months", defaultAgeMonths))

	var factors []string
	switch {
	case health >= 8:
		factors = append(factors, "Good health score supports strong production")
	case health < 6:
		factors = append(factors, "Low health score is limiting production")
	}
	switch {
	case protein >= 16:
		factors = append(factors, "Protein-rich feed supports yield")
	case protein < 14:
		factors = append(factors, "Low feed protein may limit yield")
	}
	if age >= 48 && age <= 84 {
		factors = append(factors, "Animal is in its peak production age")
	} else {
		factors = append(factors, "Animal is outside the peak production window")
	}
	return factors
}

func (s *Service) recommendations(f *Features, riskLevel string) []string {
	health := f.valueOr("health_score", s.median("health_score", defaultHealthScore))
	age := f.valueOr("age_months", s.median("age_months", defaultAgeMonths))
	activity := f.ActivityLevel

	var recs []string
	if riskLevel == RiskHigh || riskLevel == RiskCritical {
		recs = append(recs, "Schedule a veterinary examination as soon as possible")
	}
	if health < 6 {
		recs = append(recs, "Investigate the cause of the low health score")
	}
	if activity != nil && *activity < 5 {
		recs = append(recs, "Monitor activity levels for signs of lameness")
	}
	if age > 96 {
		recs = append(recs, "Increase monitoring frequency for this older animal")
	}
	if len(recs) == 0 {
		recs = defaultRecommendations()
	}
	return recs
}

func defaultRecommendations() []string {
	return []string{
		"Maintain regular health checks",
		"Continue the current feeding program",
	}
}

// median reads a training median when the preprocessor is loaded.
func (s *Service) median(name string, fallback float64) float64 {
	if s.models != nil && s.models.Preprocessor != nil {
		if v, ok := s.models.Preprocessor.Medians[name]; ok {
			return v
		}
	}
	return fallback
}

func (s *Service) modelName(meta *ModelMetadata) string {
	if meta != nil && meta.Algorithm != "" {
		return meta.Algorithm
	}
	return ModeModel
}

func riskLevel(p float64) string {
	switch {
	case p < 0.2:
		return RiskLow
	case p < 0.5:
		return RiskMedium
	case p < 0.8:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func (s *Service) count(target, mode string) {
	if s.metrics != nil {
		s.metrics.Predictions.WithLabelValues(target, mode).Inc()
	}
}

func (s *Service) observe(target string, start time.Time) {
	if s.metrics != nil {
		s.metrics.InferenceDuration.WithLabelValues(target).Observe(s.now().Sub(start).Seconds())
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
