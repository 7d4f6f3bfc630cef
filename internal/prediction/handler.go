package prediction

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"herdwatch/internal/animal"
	"herdwatch/internal/audit"
	"herdwatch/internal/auth"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/transport/http/shared"
	dErrors "herdwatch/pkg/domain-errors"
	"herdwatch/pkg/date"
)

// AnimalService is the slice of the herd registry the predict API needs.
type AnimalService interface {
	Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*animal.Animal, error)
	LatestFeedProfile(ctx context.Context, actor auth.Principal, animalID uuid.UUID) (*animal.FeedProfile, error)
}

// CaseCounter reports open disease cases, used to derive a health score
// when the caller does not supply one.
type CaseCounter interface {
	ActiveCases(ctx context.Context, animalID uuid.UUID) (int, error)
}

// Request is the predict API payload: an animal plus optional feature
// overrides. Unset features come from the animal's records.
type Request struct {
	AnimalID uuid.UUID `json:"animal_id"`
	Features
}

// Handler wires the predict endpoints. Feature assembly happens here:
// registry data fills whatever the request leaves blank.
type Handler struct {
	service   *Service
	animals   AnimalService
	cases     CaseCounter
	logger    *slog.Logger
	publisher audit.Publisher
	now       func() time.Time
}

type HandlerOption func(h *Handler)

func WithAuditPublisher(p audit.Publisher) HandlerOption {
	return func(h *Handler) { h.publisher = p }
}

func NewHandler(service *Service, animals AnimalService, cases CaseCounter, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:   service,
		animals:   animals,
		cases:     cases,
		logger:    logger,
		publisher: audit.NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers predict routes on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/predict/milk", h.handlePredictMilk)
	r.Post("/api/predict/disease", h.handlePredictDisease)
	r.Get("/api/predict/models/status", h.handleModelStatus)
}

func (h *Handler) handlePredictMilk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, req, err := h.decode(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	features, a, err := h.assembleFeatures(ctx, actor, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	pred, err := h.service.PredictMilkYield(ctx, features)
	if err != nil {
		h.logError(r, "milk prediction failed", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "prediction failed"))
		return
	}
	h.emit(ctx, actor, "milk", a.ID)
	shared.WriteJSON(w, http.StatusOK, struct {
		AnimalID uuid.UUID `json:"animal_id"`
		*MilkPrediction
	}{a.ID, pred})
}

func (h *Handler) handlePredictDisease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, req, err := h.decode(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	features, a, err := h.assembleFeatures(ctx, actor, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	pred, err := h.service.PredictDiseaseRisk(ctx, features)
	if err != nil {
		h.logError(r, "disease prediction failed", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "prediction failed"))
		return
	}
	h.emit(ctx, actor, "disease", a.ID)
	shared.WriteJSON(w, http.StatusOK, struct {
		AnimalID uuid.UUID `json:"animal_id"`
		*DiseasePrediction
	}{a.ID, pred})
}

func (h *Handler) handleModelStatus(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.service.Status())
}

func (h *Handler) decode(r *http.Request) (auth.Principal, *Request, error) {
	actor, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		return auth.Principal{}, nil, err
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return actor, nil, dErrors.New(dErrors.CodeValidation, "invalid request body")
	}
	if req.AnimalID == uuid.Nil {
		return actor, nil, dErrors.New(dErrors.CodeValidation, "animal_id is required")
	}
	return actor, &req, nil
}

// assembleFeatures fills unset features from the animal's registry data:
// age from date of birth, parity and weight from the animal, feed fields
// from the latest feed profile, health score from open disease cases.
func (h *Handler) assembleFeatures(ctx context.Context, actor auth.Principal, req *Request) (*Features, *animal.Animal, error) {
	a, err := h.animals.Get(ctx, actor, req.AnimalID)
	if err != nil {
		return nil, nil, err
	}

	f := req.Features
	if f.Breed == "" {
		f.Breed = a.Breed
	}
	if f.AgeMonths == nil && !a.DOB.IsZero() {
		age := float64(a.AgeMonths(date.Of(h.now())))
		f.AgeMonths = &age
	}
	if f.Parity == nil {
		parity := float64(a.Parity)
		f.Parity = &parity
	}
	if f.WeightKg == nil && a.CurrentWeight != nil {
		f.WeightKg = a.CurrentWeight
	}

	if f.FeedType == "" || f.FeedQuantityKg == nil || f.ProteinContent == nil || f.EnergyContent == nil {
		fp, err := h.animals.LatestFeedProfile(ctx, actor, a.ID)
		if err != nil {
			return nil, nil, err
		}
		if fp != nil {
			if f.FeedType == "" {
				f.FeedType = fp.FeedType
			}
			if f.FeedQuantityKg == nil {
				f.FeedQuantityKg = &fp.QuantityKg
			}
			if f.ProteinContent == nil {
				f.ProteinContent = &fp.ProteinContent
			}
			if f.EnergyContent == nil {
				f.EnergyContent = &fp.EnergyContent
			}
		}
	}

	if f.HealthScore == nil {
		open, err := h.cases.ActiveCases(ctx, a.ID)
		if err != nil {
			return nil, nil, err
		}
		health := 10.0 - 3.0*float64(open)
		if health < 1 {
			health = 1
		}
		f.HealthScore = &health
	}
	return &f, a, nil
}

func (h *Handler) emit(ctx context.Context, actor auth.Principal, target string, animalID uuid.UUID) {
	event := audit.Event{
		ActorID:   actor.UserID.String(),
		Actor:     actor.Username,
		Action:    audit.ActionPredictionServed,
		Entity:    "prediction",
		EntityID:  animalID.String(),
		Detail:    target,
		RequestID: middleware.GetRequestID(ctx),
		Timestamp: h.now(),
	}
	if err := h.publisher.Emit(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
