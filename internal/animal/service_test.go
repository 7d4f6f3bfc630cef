package animal

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdwatch/internal/auth"
	"herdwatch/internal/farm"
	dErrors "herdwatch/pkg/domain-errors"
	"herdwatch/pkg/date"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seedFarm(t *testing.T, farms *farm.InMemoryStore, ownerID uuid.UUID) *farm.Farm {
	t.Helper()
	f := &farm.Farm{
		ID:        uuid.New(),
		Name:      "Hilltop",
		Timezone:  "UTC",
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
	require.NoError(t, farms.Create(context.Background(), f))
	return f
}

func farmerPrincipal(id uuid.UUID) auth.Principal {
	return auth.Principal{UserID: id, Username: "farmer1", Role: auth.RoleFarmer}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	farms := farm.NewInMemoryStore()
	owner := uuid.New()
	f := seedFarm(t, farms, owner)
	svc := New(NewInMemoryStore(), farms, testLogger())

	t.Run("registers animal", func(t *testing.T) {
		a, err := svc.Create(ctx, farmerPrincipal(owner), &CreateRequest{
			FarmID:    f.ID,
			TagNumber: "NL-001",
			Breed:     "Holstein",
			Sex:       "f",
		})
		require.NoError(t, err)
		assert.Equal(t, "NL-001", a.TagNumber)
		assert.Equal(t, "F", a.Sex)
		assert.True(t, a.Active)
	})

	t.Run("duplicate tag conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, farmerPrincipal(owner), &CreateRequest{
			FarmID:    f.ID,
			TagNumber: "nl-001",
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("foreign farm forbidden", func(t *testing.T) {
		_, err := svc.Create(ctx, farmerPrincipal(uuid.New()), &CreateRequest{
			FarmID:    f.ID,
			TagNumber: "NL-002",
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("missing tag rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, farmerPrincipal(owner), &CreateRequest{FarmID: f.ID})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestGetScoping(t *testing.T) {
	ctx := context.Background()
	farms := farm.NewInMemoryStore()
	owner := uuid.New()
	f := seedFarm(t, farms, owner)
	svc := New(NewInMemoryStore(), farms, testLogger())

	a, err := svc.Create(ctx, farmerPrincipal(owner), &CreateRequest{FarmID: f.ID, TagNumber: "NL-010"})
	require.NoError(t, err)

	t.Run("owner reads", func(t *testing.T) {
		got, err := svc.Get(ctx, farmerPrincipal(owner), a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
	})

	t.Run("vet reads any farm", func(t *testing.T) {
		vet := auth.Principal{UserID: uuid.New(), Username: "vet1", Role: auth.RoleVet}
		_, err := svc.Get(ctx, vet, a.ID)
		require.NoError(t, err)
	})

	t.Run("other farmer forbidden", func(t *testing.T) {
		_, err := svc.Get(ctx, farmerPrincipal(uuid.New()), a.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown animal not found", func(t *testing.T) {
		_, err := svc.Get(ctx, farmerPrincipal(owner), uuid.New())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestListFiltersAndPagination(t *testing.T) {
	ctx := context.Background()
	farms := farm.NewInMemoryStore()
	owner := uuid.New()
	f := seedFarm(t, farms, owner)
	other := seedFarm(t, farms, uuid.New())
	svc := New(NewInMemoryStore(), farms, testLogger())

	admin := auth.Principal{UserID: uuid.New(), Username: "root", Role: auth.RoleAdmin}
	for i, breed := range []string{"Holstein", "Jersey", "Holstein-Friesian"} {
		_, err := svc.Create(ctx, farmerPrincipal(owner), &CreateRequest{
			FarmID:    f.ID,
			TagNumber: "A-" + string(rune('1'+i)),
			Breed:     breed,
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, admin, &CreateRequest{FarmID: other.ID, TagNumber: "B-1", Breed: "Jersey"})
	require.NoError(t, err)

	t.Run("farmer sees only own farms", func(t *testing.T) {
		animals, err := svc.List(ctx, farmerPrincipal(owner), ListFilter{})
		require.NoError(t, err)
		assert.Len(t, animals, 3)
	})

	t.Run("breed substring filter", func(t *testing.T) {
		animals, err := svc.List(ctx, admin, ListFilter{Breed: "holstein"})
		require.NoError(t, err)
		assert.Len(t, animals, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		animals, err := svc.List(ctx, farmerPrincipal(owner), ListFilter{Skip: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, animals, 1)
		assert.Equal(t, "A-2", animals[0].TagNumber)
	})

	t.Run("farmer with no farms sees nothing", func(t *testing.T) {
		animals, err := svc.List(ctx, farmerPrincipal(uuid.New()), ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, animals)
	})

	t.Run("inactive filter", func(t *testing.T) {
		all, err := svc.List(ctx, farmerPrincipal(owner), ListFilter{})
		require.NoError(t, err)
		require.NoError(t, svc.Deactivate(ctx, farmerPrincipal(owner), all[0].ID))

		active := true
		animals, err := svc.List(ctx, farmerPrincipal(owner), ListFilter{Active: &active})
		require.NoError(t, err)
		assert.Len(t, animals, 2)
	})
}

func TestDeactivateKeepsRecord(t *testing.T) {
	ctx := context.Background()
	farms := farm.NewInMemoryStore()
	owner := uuid.New()
	f := seedFarm(t, farms, owner)
	svc := New(NewInMemoryStore(), farms, testLogger())

	a, err := svc.Create(ctx, farmerPrincipal(owner), &CreateRequest{FarmID: f.ID, TagNumber: "NL-020"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, farmerPrincipal(owner), a.ID))

	got, err := svc.Get(ctx, farmerPrincipal(owner), a.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestFeedAndSensorRecords(t *testing.T) {
	ctx := context.Background()
	farms := farm.NewInMemoryStore()
	owner := uuid.New()
	f := seedFarm(t, farms, owner)
	animals := NewInMemoryStore()
	svc := New(animals, farms, testLogger())

	a, err := svc.Create(ctx, farmerPrincipal(owner), &CreateRequest{FarmID: f.ID, TagNumber: "NL-030"})
	require.NoError(t, err)

	t.Run("feed profile recorded with default date", func(t *testing.T) {
		fp, err := svc.RecordFeedProfile(ctx, farmerPrincipal(owner), a.ID, &FeedProfileRequest{
			FeedType:       "Silage",
			QuantityKg:     18,
			ProteinContent: 16.5,
		})
		require.NoError(t, err)
		assert.Equal(t, "silage", fp.FeedType)
		assert.Equal(t, date.Today(), fp.Date)

		latest, err := animals.LatestFeedProfile(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, fp.ID, latest.ID)
	})

	t.Run("vet cannot record feed", func(t *testing.T) {
		vet := auth.Principal{UserID: uuid.New(), Role: auth.RoleVet}
		_, err := svc.RecordFeedProfile(ctx, vet, a.ID, &FeedProfileRequest{QuantityKg: 10})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("sensor reading validated and listed newest first", func(t *testing.T) {
		_, err := svc.RecordSensorReading(ctx, farmerPrincipal(owner), a.ID, &SensorReadingRequest{
			Type: SensorTemperature, Value: 38.6, Unit: "C",
			Timestamp: time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)
		_, err = svc.RecordSensorReading(ctx, farmerPrincipal(owner), a.ID, &SensorReadingRequest{
			Type: SensorActivity, Value: 412,
		})
		require.NoError(t, err)

		readings, err := svc.SensorReadings(ctx, farmerPrincipal(owner), a.ID, 10)
		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, SensorActivity, readings[0].Type)
	})

	t.Run("unknown sensor type rejected", func(t *testing.T) {
		_, err := svc.RecordSensorReading(ctx, farmerPrincipal(owner), a.ID, &SensorReadingRequest{
			Type: "mood", Value: 1,
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestAgeMonths(t *testing.T) {
	a := &Animal{DOB: date.New(2021, time.March, 15)}
	assert.Equal(t, 24, a.AgeMonths(date.New(2023, time.March, 15)))
	assert.Equal(t, 23, a.AgeMonths(date.New(2023, time.March, 14)))
	assert.Equal(t, 0, (&Animal{}).AgeMonths(date.New(2023, time.March, 15)))
}
