package alert

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
)

func newService(t *testing.T) (*Service, *farm.Farm, auth.Principal) {
	t.Helper()
	farms := farm.NewInMemoryStore()
	ownerID := uuid.New()
	f := &farm.Farm{ID: uuid.New(), Name: "Hilltop", Timezone: "UTC", OwnerID: ownerID, CreatedAt: time.Now()}
	require.NoError(t, farms.Create(context.Background(), f))

	svc := New(NewInMemoryStore(), farms, slog.New(slog.DiscardHandler))
	owner := auth.Principal{UserID: ownerID, Username: "farmer1", Role: auth.RoleFarmer}
	return svc, f, owner
}

func TestRaiseAndList(t *testing.T) {
	ctx := context.Background()
	svc, f, owner := newService(t)

	animalID := uuid.New()
	_, err := svc.Raise(ctx, f.ID, &animalID, TypeHealth, SeverityHigh, "mastitis recorded for NL-001")
	require.NoError(t, err)
	_, err = svc.Raise(ctx, f.ID, nil, TypeMilkDrop, SeverityMedium, "herd average down 15%")
	require.NoError(t, err)

	t.Run("owner sees farm alerts", func(t *testing.T) {
		alerts, err := svc.List(ctx, owner, ListFilter{})
		require.NoError(t, err)
		assert.Len(t, alerts, 2)
	})

	t.Run("severity filter", func(t *testing.T) {
		alerts, err := svc.List(ctx, owner, ListFilter{Severity: SeverityHigh})
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, TypeHealth, alerts[0].Type)
	})

	t.Run("foreign farmer sees nothing", func(t *testing.T) {
		stranger := auth.Principal{UserID: uuid.New(), Role: auth.RoleFarmer}
		alerts, err := svc.List(ctx, stranger, ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("vet sees everything", func(t *testing.T) {
		vet := auth.Principal{UserID: uuid.New(), Role: auth.RoleVet}
		alerts, err := svc.List(ctx, vet, ListFilter{})
		require.NoError(t, err)
		assert.Len(t, alerts, 2)
	})

	t.Run("bad severity rejected", func(t *testing.T) {
		_, err := svc.List(ctx, owner, ListFilter{Severity: "urgent"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	svc, f, owner := newService(t)

	a, err := svc.Raise(ctx, f.ID, nil, TypeFeed, SeverityLow, "protein below target")
	require.NoError(t, err)

	t.Run("marks resolved with actor and time", func(t *testing.T) {
		resolved, err := svc.Resolve(ctx, owner, a.ID)
		require.NoError(t, err)
		assert.True(t, resolved.Resolved)
		require.NotNil(t, resolved.ResolvedAt)
		require.NotNil(t, resolved.ResolvedBy)
		assert.Equal(t, owner.UserID, *resolved.ResolvedBy)
	})

	t.Run("double resolve conflicts", func(t *testing.T) {
		_, err := svc.Resolve(ctx, owner, a.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("foreign farmer forbidden", func(t *testing.T) {
		b, err := svc.Raise(ctx, f.ID, nil, TypeFeed, SeverityLow, "check silage")
		require.NoError(t, err)
		stranger := auth.Principal{UserID: uuid.New(), Role: auth.RoleFarmer}
		_, err = svc.Resolve(ctx, stranger, b.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("resolved filter", func(t *testing.T) {
		resolved := true
		alerts, err := svc.List(ctx, owner, ListFilter{Resolved: &resolved})
		require.NoError(t, err)
		assert.Len(t, alerts, 1)
	})
}
