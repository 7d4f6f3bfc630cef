package milk

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdwatch/internal/animal"
	"herdwatch/internal/auth"
	"herdwatch/internal/farm"
	dErrors "herdwatch/pkg/domain-errors"
	"herdwatch/pkg/date"
)

type fixture struct {
	svc    *Service
	owner  auth.Principal
	cow    *animal.Animal
	cow2   *animal.Animal
	farmID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	farms := farm.NewInMemoryStore()
	ownerID := uuid.New()
	f := &farm.Farm{ID: uuid.New(), Name: "Hilltop", Timezone: "UTC", OwnerID: ownerID, CreatedAt: time.Now()}
	require.NoError(t, farms.Create(ctx, f))

	owner := auth.Principal{UserID: ownerID, Username: "farmer1", Role: auth.RoleFarmer}
	animalSvc := animal.New(animal.NewInMemoryStore(), farms, logger)

	cow, err := animalSvc.Create(ctx, owner, &animal.CreateRequest{FarmID: f.ID, TagNumber: "NL-001"})
	require.NoError(t, err)
	cow2, err := animalSvc.Create(ctx, owner, &animal.CreateRequest{FarmID: f.ID, TagNumber: "NL-002"})
	require.NoError(t, err)

	return &fixture{
		svc:    New(NewInMemoryStore(), animalSvc, logger),
		owner:  owner,
		cow:    cow,
		cow2:   cow2,
		farmID: f.ID,
	}
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	t.Run("computes total yield", func(t *testing.T) {
		rec, err := fx.svc.Record(ctx, fx.owner, &CreateRequest{
			AnimalID:     fx.cow.ID,
			Date:         date.Today().AddDays(-1),
			MorningYield: 12.5,
			EveningYield: 10.0,
		})
		require.NoError(t, err)
		assert.InDelta(t, 22.5, rec.TotalYield, 1e-9)
		assert.Equal(t, fx.owner.UserID, rec.RecordedBy)
	})

	t.Run("same animal and day conflicts", func(t *testing.T) {
		_, err := fx.svc.Record(ctx, fx.owner, &CreateRequest{
			AnimalID:     fx.cow.ID,
			Date:         date.Today().AddDays(-1),
			MorningYield: 9,
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("future date rejected", func(t *testing.T) {
		_, err := fx.svc.Record(ctx, fx.owner, &CreateRequest{
			AnimalID: fx.cow.ID,
			Date:     date.Today().AddDays(2),
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("negative yield rejected", func(t *testing.T) {
		_, err := fx.svc.Record(ctx, fx.owner, &CreateRequest{
			AnimalID:     fx.cow.ID,
			MorningYield: -1,
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("foreign farmer forbidden", func(t *testing.T) {
		stranger := auth.Principal{UserID: uuid.New(), Role: auth.RoleFarmer}
		_, err := fx.svc.Record(ctx, stranger, &CreateRequest{
			AnimalID:     fx.cow.ID,
			MorningYield: 5,
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown animal not found", func(t *testing.T) {
		_, err := fx.svc.Record(ctx, fx.owner, &CreateRequest{
			AnimalID:     uuid.New(),
			MorningYield: 5,
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestListScoping(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	for i := 1; i <= 3; i++ {
		_, err := fx.svc.Record(ctx, fx.owner, &CreateRequest{
			AnimalID:     fx.cow.ID,
			Date:         date.Today().AddDays(-i),
			MorningYield: float64(10 + i),
		})
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		records, err := fx.svc.List(ctx, fx.owner, ListFilter{})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.True(t, records[1].Date.Before(records[0].Date))
	})

	t.Run("date range", func(t *testing.T) {
		records, err := fx.svc.List(ctx, fx.owner, ListFilter{
			From: date.Today().AddDays(-2),
			To:   date.Today(),
		})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("foreign farmer sees nothing", func(t *testing.T) {
		stranger := auth.Principal{UserID: uuid.New(), Role: auth.RoleFarmer}
		records, err := fx.svc.List(ctx, stranger, ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := fx.svc.List(ctx, fx.owner, ListFilter{
			From: date.Today(),
			To:   date.Today().AddDays(-5),
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	yields := []float64{20, 25, 15}
	for i, y := range yields {
		animalID := fx.cow.ID
		if i == 2 {
			animalID = fx.cow2.ID
		}
		_, err := fx.svc.Record(ctx, fx.owner, &CreateRequest{
			AnimalID:     animalID,
			Date:         date.Today().AddDays(-(i + 1)),
			MorningYield: y,
		})
		require.NoError(t, err)
	}

	sum, err := fx.svc.Summarize(ctx, fx.owner, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.AnimalCount)
	assert.Equal(t, 3, sum.RecordCount)
	assert.InDelta(t, 60, sum.TotalYield, 1e-9)
	assert.InDelta(t, 20, sum.AverageYield, 1e-9)
	assert.InDelta(t, 25, sum.PeakYield, 1e-9)
	assert.Equal(t, date.Today().AddDays(-2), sum.PeakDate)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	for i := 1; i <= 5; i++ {
		_, err := fx.svc.Record(ctx, fx.owner, &CreateRequest{
			AnimalID:     fx.cow.ID,
			Date:         date.Today().AddDays(-i * 10),
			MorningYield: float64(i),
		})
		require.NoError(t, err)
	}

	t.Run("trailing window oldest first", func(t *testing.T) {
		points, err := fx.svc.History(ctx, fx.owner, fx.cow.ID, 25)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.True(t, points[0].Date.Before(points[1].Date))
	})

	t.Run("window spans exactly N days", func(t *testing.T) {
		// A 20-day window ends today, so the record 20 days back falls
		// outside it while a 21-day window picks it up.
		points, err := fx.svc.History(ctx, fx.owner, fx.cow.ID, 20)
		require.NoError(t, err)
		assert.Len(t, points, 1)

		points, err = fx.svc.History(ctx, fx.owner, fx.cow.ID, 21)
		require.NoError(t, err)
		assert.Len(t, points, 2)
	})

	t.Run("days outside 1..365 rejected", func(t *testing.T) {
		for _, days := range []int{0, -5, 366} {
			_, err := fx.svc.History(ctx, fx.owner, fx.cow.ID, days)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})

	t.Run("vet can read history", func(t *testing.T) {
		vet := auth.Principal{UserID: uuid.New(), Role: auth.RoleVet}
		points, err := fx.svc.History(ctx, vet, fx.cow.ID, 365)
		require.NoError(t, err)
		assert.Len(t, points, 5)
	})
}
