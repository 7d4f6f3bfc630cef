//go:build integration

package animal_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"herdwatch/internal/animal"
	"herdwatch/internal/auth"
	"herdwatch/internal/farm"
	"herdwatch/internal/store"
	"herdwatch/pkg/date"
	"herdwatch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *animal.PostgresStore
	farmID   uuid.UUID
	ownerID  uuid.UUID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = animal.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"sensor_readings", "feed_profiles", "animals", "farms", "users")
	s.Require().NoError(err)

	users := auth.NewPostgresUserStore(s.postgres.DB)
	s.ownerID = uuid.New()
	err = users.Create(ctx, &auth.User{
		ID:           s.ownerID,
		Username:     "farmer1",
		Email:        "farmer1@example.com",
		PasswordHash: "x",
		Role:         auth.RoleFarmer,
		Active:       true,
		CreatedAt:    time.Now(),
	})
	s.Require().NoError(err)

	farms := farm.NewPostgresStore(s.postgres.DB)
	s.farmID = uuid.New()
	err = farms.Create(ctx, &farm.Farm{
		ID:        s.farmID,
		Name:      "Hilltop",
		Timezone:  "UTC",
		OwnerID:   s.ownerID,
		CreatedAt: time.Now(),
	})
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newAnimal(tag, breed string) *animal.Animal {
	return &animal.Animal{
		ID:        uuid.New(),
		FarmID:    s.farmID,
		TagNumber: tag,
		Breed:     breed,
		DOB:       date.Today().AddDays(-365 * 3),
		Sex:       "F",
		Parity:    2,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	a := s.newAnimal("NL-001", "Holstein")
	s.Require().NoError(s.store.Create(ctx, a))

	got, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("NL-001", got.TagNumber)
	s.Equal("Holstein", got.Breed)
	s.Equal(2, got.Parity)
	s.True(got.Active)

	byTag, err := s.store.FindByTag(ctx, s.farmID, "NL-001")
	s.Require().NoError(err)
	s.Equal(a.ID, byTag.ID)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestTagUniquePerFarm() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, s.newAnimal("NL-002", "Holstein")))

	dup := s.newAnimal("nl-002", "Jersey")
	s.ErrorIs(s.store.Create(ctx, dup), store.ErrConflict)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, s.newAnimal("NL-010", "Holstein")))
	s.Require().NoError(s.store.Create(ctx, s.newAnimal("NL-011", "Jersey")))
	retired := s.newAnimal("NL-012", "Holstein")
	retired.Active = false
	s.Require().NoError(s.store.Create(ctx, retired))

	all, err := s.store.List(ctx, animal.ListFilter{FarmID: s.farmID, Limit: 50})
	s.Require().NoError(err)
	s.Len(all, 3)

	holsteins, err := s.store.List(ctx, animal.ListFilter{FarmID: s.farmID, Breed: "holstein", Limit: 50})
	s.Require().NoError(err)
	s.Len(holsteins, 2)

	active := true
	living, err := s.store.List(ctx, animal.ListFilter{FarmID: s.farmID, Active: &active, Limit: 50})
	s.Require().NoError(err)
	s.Len(living, 2)

	scoped, err := s.store.List(ctx, animal.ListFilter{FarmIDs: []uuid.UUID{}, Limit: 50})
	s.Require().NoError(err)
	s.Empty(scoped)
}

func (s *PostgresStoreSuite) TestFeedProfiles() {
	ctx := context.Background()

	a := s.newAnimal("NL-020", "Holstein")
	s.Require().NoError(s.store.Create(ctx, a))

	older := &animal.FeedProfile{
		ID:             uuid.New(),
		AnimalID:       a.ID,
		Date:           date.Today().AddDays(-2),
		FeedType:       "silage",
		QuantityKg:     18,
		ProteinContent: 15,
		CreatedAt:      time.Now(),
	}
	newer := &animal.FeedProfile{
		ID:             uuid.New(),
		AnimalID:       a.ID,
		Date:           date.Today(),
		FeedType:       "tmr",
		QuantityKg:     20,
		ProteinContent: 17,
		CreatedAt:      time.Now(),
	}
	s.Require().NoError(s.store.CreateFeedProfile(ctx, older))
	s.Require().NoError(s.store.CreateFeedProfile(ctx, newer))

	latest, err := s.store.LatestFeedProfile(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("tmr", latest.FeedType)
	s.Equal(date.Today(), latest.Date)

	_, err = s.store.LatestFeedProfile(ctx, uuid.New())
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSensorReadings() {
	ctx := context.Background()

	a := s.newAnimal("NL-030", "Holstein")
	s.Require().NoError(s.store.Create(ctx, a))

	for i := 0; i < 3; i++ {
		err := s.store.CreateSensorReading(ctx, &animal.SensorReading{
			ID:        uuid.New(),
			AnimalID:  a.ID,
			Type:      animal.SensorTemperature,
			Value:     38.5 + float64(i),
			Unit:      "celsius",
			Timestamp: time.Now().Add(-time.Duration(i) * time.Hour),
		})
		s.Require().NoError(err)
	}

	readings, err := s.store.ListSensorReadings(ctx, a.ID, 2)
	s.Require().NoError(err)
	s.Require().Len(readings, 2)
	s.True(readings[0].Timestamp.After(readings[1].Timestamp))
}
