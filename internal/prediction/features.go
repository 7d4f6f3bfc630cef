package prediction

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Features is the raw input to both predictors. Nil numerics are imputed
// with the training medians during encoding.
type Features struct {
	Breed          string   `json:"breed,omitempty"`
	FeedType       string   `json:"feed_type,omitempty"`
	AgeMonths      *float64 `json:"age_months,omitempty"`
	Parity         *float64 `json:"parity,omitempty"`
	WeightKg       *float64 `json:"weight_kg,omitempty"`
	FeedQuantityKg *float64 `json:"feed_quantity_kg,omitempty"`
	ProteinContent *float64 `json:"protein_content,omitempty"`
	EnergyContent  *float64 `json:"energy_content,omitempty"`
	HealthScore    *float64 `json:"health_score,omitempty"`
	ActivityLevel  *float64 `json:"activity_level,omitempty"`
}

func (f *Features) numeric(name string) *float64 {
	switch name {
	case "age_months":
		return f.AgeMonths
	case "parity":
		return f.Parity
	case "weight_kg":
		return f.WeightKg
	case "feed_quantity_kg":
		return f.FeedQuantityKg
	case "protein_content":
		return f.ProteinContent
	case "energy_content":
		return f.EnergyContent
	case "health_score":
		return f.HealthScore
	case "activity_level":
		return f.ActivityLevel
	}
	return nil
}

// valueOr reads a numeric feature, falling back when it is unset.
func (f *Features) valueOr(name string, fallback float64) float64 {
	if v := f.numeric(name); v != nil {
		return *v
	}
	return fallback
}

// Hash is a stable digest of the feature set, used as the cache key.
func (f *Features) Hash() string {
	normalized := *f
	normalized.Breed = strings.ToLower(strings.TrimSpace(f.Breed))
	normalized.FeedType = strings.ToLower(strings.TrimSpace(f.FeedType))
	raw, _ := json.Marshal(&normalized)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Encode turns raw features into the model's input vector: imputed and
// scaled numerics followed by one-hot breed and feed type columns. The
// column order is fixed by the preprocessor artifact.
func (p *Preprocessor) Encode(f *Features) []float64 {
	out := make([]float64, 0, len(p.NumericFeatures)+len(p.BreedCategories)+len(p.FeedTypeCategories))
	for i, name := range p.NumericFeatures {
		v := f.valueOr(name, p.Medians[name])
		std := p.Stds[i]
		if std == 0 {
			std = 1
		}
		out = append(out, (v-p.Means[i])/std)
	}
	out = append(out, oneHot(f.Breed, p.BreedCategories)...)
	out = append(out, oneHot(f.FeedType, p.FeedTypeCategories)...)
	return out
}

func oneHot(value string, categories []string) []float64 {
	cols := make([]float64, len(categories))
	value = strings.ToLower(strings.TrimSpace(value))
	for i, c := range categories {
		if value == strings.ToLower(c) {
			cols[i] = 1
			break
		}
	}
	return cols
}
