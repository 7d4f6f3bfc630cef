package prediction

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
}

func TestLoadModels(t *testing.T) {
	t.Run("empty dir degrades cleanly", func(t *testing.T) {
		m := LoadModels(t.TempDir(), testLogger())
		assert.False(t, m.MilkReady())
		assert.False(t, m.DiseaseReady())
	})

	t.Run("no model dir configured", func(t *testing.T) {
		m := LoadModels("", testLogger())
		assert.False(t, m.MilkReady())
	})

	t.Run("loads complete artifact set", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, preprocessorFile, Preprocessor{
			NumericFeatures: []string{"health_score"},
			Medians:         map[string]float64{"health_score": 7},
			Means:           []float64{7},
			Stds:            []float64{2},
			BreedCategories: []string{"holstein", "jersey"},
		})
		writeArtifact(t, dir, milkModelFile, modelArtifact{
			Intercept:    22,
			Coefficients: []float64{1.5, 0.2, -0.1},
			Metadata:     ModelMetadata{Algorithm: "linear_regression"},
		})
		writeArtifact(t, dir, diseaseModelFile, modelArtifact{
			Intercept:    -2,
			Coefficients: []float64{-0.8, 0.1, 0.2},
			Metadata:     ModelMetadata{Algorithm: "logistic_regression"},
		})

		m := LoadModels(dir, testLogger())
		assert.True(t, m.MilkReady())
		assert.True(t, m.DiseaseReady())
		require.NotNil(t, m.MilkMeta)
		assert.Equal(t, "linear_regression", m.MilkMeta.Algorithm)
	})

	t.Run("coefficient width mismatch skips the model", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, preprocessorFile, Preprocessor{
			NumericFeatures: []string{"health_score"},
			Means:           []float64{7},
			Stds:            []float64{2},
		})
		writeArtifact(t, dir, milkModelFile, modelArtifact{
			Intercept:    22,
			Coefficients: []float64{1.5, 0.2},
		})

		m := LoadModels(dir, testLogger())
		assert.False(t, m.MilkReady())
	})

	t.Run("corrupt preprocessor skips all models", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, preprocessorFile), []byte("{"), 0o644))

		m := LoadModels(dir, testLogger())
		assert.False(t, m.MilkReady())
		assert.False(t, m.DiseaseReady())
	})
}

func TestEncode(t *testing.T) {
	p := &Preprocessor{
		NumericFeatures:    []string{"health_score", "age_months"},
		Medians:            map[string]float64{"health_score": 7, "age_months": 60},
		Means:              []float64{5, 50},
		Stds:               []float64{2, 10},
		BreedCategories:    []string{"holstein", "jersey"},
		FeedTypeCategories: []string{"silage", "pasture"},
	}

	t.Run("scales and one-hot encodes", func(t *testing.T) {
		encoded := p.Encode(&Features{
			HealthScore: f64(9),
			AgeMonths:   f64(70),
			Breed:       "Jersey",
			FeedType:    "silage",
		})
		assert.Equal(t, []float64{2, 2, 0, 1, 1, 0}, encoded)
	})

	t.Run("imputes medians and zeroes unknown categories", func(t *testing.T) {
		encoded := p.Encode(&Features{Breed: "brown swiss"})
		assert.Equal(t, []float64{1, 1, 0, 0, 0, 0}, encoded)
	})
}
