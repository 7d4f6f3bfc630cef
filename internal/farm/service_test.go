package farm

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdwatch/internal/auth"
	dErrors "herdwatch/pkg/domain-errors"
)

func newService() *Service {
	return New(NewInMemoryStore(), slog.New(slog.DiscardHandler))
}

func farmer() auth.Principal {
	return auth.Principal{UserID: uuid.New(), Username: "farmer", Role: auth.RoleFarmer}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	owner := farmer()

	t.Run("owner is the caller", func(t *testing.T) {
		f, err := svc.Create(ctx, owner, &CreateRequest{Name: "  Hilltop  "})
		require.NoError(t, err)
		assert.Equal(t, "Hilltop", f.Name)
		assert.Equal(t, owner.UserID, f.OwnerID)
		assert.Equal(t, "UTC", f.Timezone)
	})

	t.Run("name required", func(t *testing.T) {
		_, err := svc.Create(ctx, owner, &CreateRequest{Name: "   "})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("timezone must be valid", func(t *testing.T) {
		_, err := svc.Create(ctx, owner, &CreateRequest{Name: "Valley", Timezone: "Mars/Olympus"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestGetScoping(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	owner := farmer()
	f, err := svc.Create(ctx, owner, &CreateRequest{Name: "Hilltop"})
	require.NoError(t, err)

	t.Run("owner reads own farm", func(t *testing.T) {
		got, err := svc.Get(ctx, owner, f.ID)
		require.NoError(t, err)
		assert.Equal(t, f.ID, got.ID)
	})

	t.Run("other farmer is refused", func(t *testing.T) {
		_, err := svc.Get(ctx, farmer(), f.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("vet reads any farm", func(t *testing.T) {
		vet := auth.Principal{UserID: uuid.New(), Role: auth.RoleVet}
		got, err := svc.Get(ctx, vet, f.ID)
		require.NoError(t, err)
		assert.Equal(t, f.ID, got.ID)
	})

	t.Run("unknown farm not found", func(t *testing.T) {
		_, err := svc.Get(ctx, owner, uuid.New())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestListScoping(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	owner := farmer()
	other := farmer()

	_, err := svc.Create(ctx, owner, &CreateRequest{Name: "Hilltop"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, &CreateRequest{Name: "Valley"})
	require.NoError(t, err)

	ownFarms, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, ownFarms, 1)
	assert.Equal(t, "Hilltop", ownFarms[0].Name)

	vet := auth.Principal{UserID: uuid.New(), Role: auth.RoleVet}
	all, err := svc.List(ctx, vet)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	owner := farmer()
	f, err := svc.Create(ctx, owner, &CreateRequest{Name: "Hilltop"})
	require.NoError(t, err)

	t.Run("owner renames", func(t *testing.T) {
		name := "Hilltop Dairy"
		got, err := svc.Update(ctx, owner, f.ID, &UpdateRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Hilltop Dairy", got.Name)
	})

	t.Run("vet cannot update", func(t *testing.T) {
		vet := auth.Principal{UserID: uuid.New(), Role: auth.RoleVet}
		name := "Stolen"
		_, err := svc.Update(ctx, vet, f.ID, &UpdateRequest{Name: &name})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("admin overrides ownership", func(t *testing.T) {
		admin := auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}
		loc := "Groningen"
		got, err := svc.Update(ctx, admin, f.ID, &UpdateRequest{Location: &loc})
		require.NoError(t, err)
		assert.Equal(t, "Groningen", got.Location)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		blank := " "
		_, err := svc.Update(ctx, owner, f.ID, &UpdateRequest{Name: &blank})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
