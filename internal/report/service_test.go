package report

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
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
	"herdwatch/internal/milk"
	"herdwatch/internal/platform/middleware"
	dErrors "herdwatch/pkg/domain-errors"
	"herdwatch/pkg/date"
	"herdwatch/pkg/testutil"
)

type fixture struct {
	svc     *Service
	handler *Handler
	owner   auth.Principal
	vet     auth.Principal
	farmID  uuid.UUID
	otherID uuid.UUID
	cow     *animal.Animal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	farms := farm.NewInMemoryStore()
	ownerID := uuid.New()
	f := &farm.Farm{ID: uuid.New(), Name: "Hilltop", Timezone: "UTC", OwnerID: ownerID, CreatedAt: time.Now()}
	require.NoError(t, farms.Create(ctx, f))
	other := &farm.Farm{ID: uuid.New(), Name: "Valley", Timezone: "UTC", OwnerID: uuid.New(), CreatedAt: time.Now()}
	require.NoError(t, farms.Create(ctx, other))

	owner := auth.Principal{UserID: ownerID, Username: "farmer1", Role: auth.RoleFarmer}
	vet := auth.Principal{UserID: uuid.New(), Username: "vet1", Role: auth.RoleVet}

	farmSvc := farm.New(farms, logger)
	animalSvc := animal.New(animal.NewInMemoryStore(), farms, logger)
	cow, err := animalSvc.Create(ctx, owner, &animal.CreateRequest{FarmID: f.ID, TagNumber: "NL-001"})
	require.NoError(t, err)

	milkSvc := milk.New(milk.NewInMemoryStore(), animalSvc, logger)
	alertSvc := alert.New(alert.NewInMemoryStore(), farms, logger)
	diseaseSvc := disease.New(disease.NewInMemoryStore(), animalSvc, alertSvc, logger)

	for i := 1; i <= 3; i++ {
		_, err := milkSvc.Record(ctx, owner, &milk.CreateRequest{
			AnimalID:     cow.ID,
			Date:         date.Today().AddDays(-i),
			MorningYield: 10,
			EveningYield: 8,
		})
		require.NoError(t, err)
	}
	_, err = diseaseSvc.Record(ctx, vet, &disease.CreateRequest{
		AnimalID:    cow.ID,
		DiseaseName: "Mastitis",
		Severity:    disease.SeveritySevere,
	})
	require.NoError(t, err)

	svc := New(farmSvc, animalSvc, milkSvc, diseaseSvc, alertSvc, logger)
	return &fixture{
		svc:     svc,
		handler: NewHandler(svc, logger),
		owner:   owner,
		vet:     vet,
		farmID:  f.ID,
		otherID: other.ID,
		cow:     cow,
	}
}

func TestSummaryReport(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	rep, err := fx.svc.Summary(ctx, fx.owner, Params{Type: TypeSummary, Format: FormatJSON})
	require.NoError(t, err)

	assert.Equal(t, 1, rep.ActiveAnimals)
	require.NotNil(t, rep.Milk)
	assert.Equal(t, 3, rep.Milk.RecordCount)
	assert.InDelta(t, 54, rep.Milk.TotalYield, 1e-9)
	assert.Equal(t, 1, rep.ActiveDiseases)
	assert.Equal(t, 1, rep.UnresolvedAlerts)
	assert.Equal(t, date.Today(), rep.To)
	assert.Equal(t, date.Today().AddDays(-30), rep.From)
}

func TestFarmScoping(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	t.Run("foreign farm forbidden for farmer", func(t *testing.T) {
		_, err := fx.svc.Summary(ctx, fx.owner, Params{Type: TypeSummary, Format: FormatJSON, FarmID: fx.otherID})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("vet reads any farm", func(t *testing.T) {
		rep, err := fx.svc.Summary(ctx, fx.vet, Params{Type: TypeSummary, Format: FormatJSON, FarmID: fx.farmID})
		require.NoError(t, err)
		assert.Equal(t, 3, rep.Milk.RecordCount)
	})

	t.Run("unknown farm not found", func(t *testing.T) {
		_, err := fx.svc.Milk(ctx, fx.vet, Params{Type: TypeMilk, Format: FormatJSON, FarmID: uuid.New()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestDetailReports(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	t.Run("milk report", func(t *testing.T) {
		rep, err := fx.svc.Milk(ctx, fx.owner, Params{Type: TypeMilk, Format: FormatJSON, FarmID: fx.farmID})
		require.NoError(t, err)
		assert.Len(t, rep.Records, 3)
	})

	t.Run("health report", func(t *testing.T) {
		rep, err := fx.svc.Health(ctx, fx.owner, Params{Type: TypeHealth, Format: FormatJSON})
		require.NoError(t, err)
		require.Len(t, rep.Records, 1)
		assert.Equal(t, "Mastitis", rep.Records[0].DiseaseName)
	})

	t.Run("alerts report", func(t *testing.T) {
		rep, err := fx.svc.Alerts(ctx, fx.owner, Params{Type: TypeAlerts, Format: FormatJSON})
		require.NoError(t, err)
		require.Len(t, rep.Alerts, 1)
		assert.Equal(t, alert.SeverityHigh, rep.Alerts[0].Severity)
	})
}

func router(fx *fixture) chi.Router {
	r := chi.NewRouter()
	fx.handler.Register(r)
	return r
}

func asPrincipal(req *http.Request, p auth.Principal) *http.Request {
	ctx := middleware.WithClaims(req.Context(), middleware.AuthClaims{
		UserID:   p.UserID.String(),
		Username: p.Username,
		Role:     string(p.Role),
	})
	return req.WithContext(ctx)
}

func TestHandleGenerate(t *testing.T) {
	fx := newFixture(t)
	r := router(fx)

	t.Run("json summary", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/reports?report_type=summary")
		rr := testutil.DoRequest(r, asPrincipal(req, fx.owner))
		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[Summary](t, rr)
		assert.Equal(t, 1, resp.ActiveAnimals)
	})

	t.Run("csv milk export", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/reports?report_type=milk&format=csv")
		rr := testutil.DoRequest(r, asPrincipal(req, fx.owner))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Header().Get("Content-Disposition"), "milk_report_")

		lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "date,animal_id,morning_yield,evening_yield,total_yield,fat_content,protein_content", strings.TrimSpace(lines[0]))
		assert.Contains(t, lines[1], fx.cow.ID.String())
	})

	t.Run("pdf returns not implemented note", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/reports?format=pdf")
		rr := testutil.DoRequest(r, asPrincipal(req, fx.owner))
		assert.Equal(t, http.StatusNotImplemented, rr.Code)
	})

	t.Run("unknown report type rejected", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/reports?report_type=finance")
		rr := testutil.DoRequest(r, asPrincipal(req, fx.owner))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
