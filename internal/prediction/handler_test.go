package prediction

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdwatch/internal/alert"
	"herdwatch/internal/animal"
	"herdwatch/internal/auth"
	"herdwatch/internal/disease"
	"herdwatch/internal/farm"
	"herdwatch/internal/platform/middleware"
	"herdwatch/pkg/testutil"
)

type handlerFixture struct {
	router  chi.Router
	owner   auth.Principal
	vet     auth.Principal
	cow     *animal.Animal
	farmID  uuid.UUID
	disease *disease.Service
}

func newHandlerFixture(t *testing.T, opts ...Option) *handlerFixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	farms := farm.NewInMemoryStore()
	ownerID := uuid.New()
	f := &farm.Farm{ID: uuid.New(), Name: "Hilltop", Timezone: "UTC", OwnerID: ownerID, CreatedAt: time.Now()}
	require.NoError(t, farms.Create(ctx, f))

	owner := auth.Principal{UserID: ownerID, Username: "farmer1", Role: auth.RoleFarmer}
	vet := auth.Principal{UserID: uuid.New(), Username: "vet1", Role: auth.RoleVet}

	animalSvc := animal.New(animal.NewInMemoryStore(), farms, logger)
	weight := 620.0
	cow, err := animalSvc.Create(ctx, owner, &animal.CreateRequest{
		FarmID:        f.ID,
		TagNumber:     "NL-001",
		Breed:         "Holstein",
		CurrentWeight: &weight,
	})
	require.NoError(t, err)

	alertSvc := alert.New(alert.NewInMemoryStore(), farms, logger)
	diseaseSvc := disease.New(disease.NewInMemoryStore(), animalSvc, alertSvc, logger)

	svc := New(&Models{}, logger, opts...)
	handler := NewHandler(svc, animalSvc, diseaseSvc, logger)

	r := chi.NewRouter()
	handler.Register(r)
	return &handlerFixture{
		router:  r,
		owner:   owner,
		vet:     vet,
		cow:     cow,
		farmID:  f.ID,
		disease: diseaseSvc,
	}
}

func asPrincipal(req *http.Request, p auth.Principal) *http.Request {
	ctx := middleware.WithClaims(req.Context(), middleware.AuthClaims{
		UserID:   p.UserID.String(),
		Username: p.Username,
		Role:     string(p.Role),
	})
	return req.WithContext(ctx)
}

func TestHandlePredictMilk(t *testing.T) {
	fx := newHandlerFixture(t)

	t.Run("heuristic prediction for owned animal", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/predict/milk", map[string]any{
			"animal_id":       fx.cow.ID,
			"health_score":    8,
			"protein_content": 16,
			"age_months":      60,
		})
		rr := testutil.DoRequest(fx.router, asPrincipal(req, fx.owner))

		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.InDelta(t, 16.0, (*resp)["predicted_yield"].(float64), 1e-9)
		assert.Equal(t, ModeHeuristic, (*resp)["model_used"])
		assert.Equal(t, fx.cow.ID.String(), (*resp)["animal_id"])
	})

	t.Run("foreign farmer forbidden", func(t *testing.T) {
		stranger := auth.Principal{UserID: uuid.New(), Username: "other", Role: auth.RoleFarmer}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/predict/milk", map[string]any{
			"animal_id": fx.cow.ID,
		})
		rr := testutil.DoRequest(fx.router, asPrincipal(req, stranger))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown animal not found", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/predict/milk", map[string]any{
			"animal_id": uuid.New(),
		})
		rr := testutil.DoRequest(fx.router, asPrincipal(req, fx.owner))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing animal_id rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/predict/milk", map[string]any{})
		rr := testutil.DoRequest(fx.router, asPrincipal(req, fx.owner))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandlePredictDisease(t *testing.T) {
	fx := newHandlerFixture(t)

	t.Run("health score derived from open cases", func(t *testing.T) {
		ctx := context.Background()
		for _, name := range []string{"Mastitis", "Lameness"} {
			_, err := fx.disease.Record(ctx, fx.vet, &disease.CreateRequest{
				AnimalID:    fx.cow.ID,
				DiseaseName: name,
				Severity:    disease.SeverityModerate,
			})
			require.NoError(t, err)
		}

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/predict/disease", map[string]any{
			"animal_id":  fx.cow.ID,
			"age_months": 60,
		})
		rr := testutil.DoRequest(fx.router, asPrincipal(req, fx.owner))

		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[map[string]any](t, rr)
		// two open cases put the derived health score at 4
		assert.InDelta(t, 0.5, (*resp)["risk_score"].(float64), 1e-9)
		assert.Equal(t, RiskHigh, (*resp)["risk_level"])
	})

	t.Run("vet can predict for any animal", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/predict/disease", map[string]any{
			"animal_id":    fx.cow.ID,
			"health_score": 9,
			"age_months":   60,
		})
		rr := testutil.DoRequest(fx.router, asPrincipal(req, fx.vet))

		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, RiskLow, (*resp)["risk_level"])
	})
}

func TestHandleModelStatus(t *testing.T) {
	fx := newHandlerFixture(t, WithMockMode(true))

	req := testutil.NewRequest(t, http.MethodGet, "/api/predict/models/status")
	rr := testutil.DoRequest(fx.router, asPrincipal(req, fx.owner))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[ModelStatus](t, rr)
	assert.True(t, resp.MockMode)
	assert.False(t, resp.MilkModel)
}
