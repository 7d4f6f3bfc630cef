//go:build integration

package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdwatch/pkg/testutil/containers"
)

func TestCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	cache := NewCache(rc.Client, time.Minute)

	t.Run("miss on unknown key", func(t *testing.T) {
		var out MilkPrediction
		hit, err := cache.get(ctx, "prediction:milk:unknown", &out)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("set then get", func(t *testing.T) {
		in := MilkPrediction{
			PredictedYield: 24.5,
			Confidence:     0.9,
			Factors:        []string{"Protein-rich feed supports yield"},
			ModelUsed:      "heuristic",
			GeneratedAt:    time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, cache.set(ctx, "prediction:milk:abc", in))

		var out MilkPrediction
		hit, err := cache.get(ctx, "prediction:milk:abc", &out)
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, in.PredictedYield, out.PredictedYield)
		assert.Equal(t, in.Factors, out.Factors)
		assert.Equal(t, in.ModelUsed, out.ModelUsed)
	})

	t.Run("entries expire", func(t *testing.T) {
		short := NewCache(rc.Client, time.Second)
		require.NoError(t, short.set(ctx, "prediction:disease:ttl", DiseasePrediction{RiskScore: 0.3}))
		time.Sleep(1500 * time.Millisecond)

		var out DiseasePrediction
		hit, err := short.get(ctx, "prediction:disease:ttl", &out)
		require.NoError(t, err)
		assert.False(t, hit)
	})
}
