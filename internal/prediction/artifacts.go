package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Artifact file names inside the model directory.
const (
	preprocessorFile = "preprocessor.json"
	milkModelFile    = "milk_model.json"
	diseaseModelFile = "disease_model.json"
)

// Preprocessor holds the fitted encoding parameters exported by the
// training job.
type Preprocessor struct {
	NumericFeatures    []string           `json:"numeric_features"`
	Medians            map[string]float64 `json:"medians"`
	Means              []float64          `json:"means"`
	Stds               []float64          `json:"stds"`
	BreedCategories    []string           `json:"breed_categories"`
	FeedTypeCategories []string           `json:"feed_type_categories"`
}

func (p *Preprocessor) validate() error {
	if len(p.NumericFeatures) == 0 {
		return errors.New("no numeric features")
	}
	if len(p.Means) != len(p.NumericFeatures) || len(p.Stds) != len(p.NumericFeatures) {
		return errors.New("means/stds length does not match numeric features")
	}
	return nil
}

// width is the encoded vector length.
func (p *Preprocessor) width() int {
	return len(p.NumericFeatures) + len(p.BreedCategories) + len(p.FeedTypeCategories)
}

// ModelMetadata describes how an artifact was trained.
type ModelMetadata struct {
	Algorithm       string    `json:"algorithm"`
	TrainedAt       time.Time `json:"trained_at"`
	TrainingSamples int       `json:"training_samples"`
	R2              *float64  `json:"r2,omitempty"`
	Accuracy        *float64  `json:"accuracy,omitempty"`
	AUC             *float64  `json:"auc,omitempty"`
}

type modelArtifact struct {
	Intercept    float64       `json:"intercept"`
	Coefficients []float64     `json:"coefficients"`
	Metadata     ModelMetadata `json:"metadata"`
}

// Models bundles everything loaded from the model directory. Any artifact
// may be nil, in which case the corresponding predictor degrades to its
// heuristic.
type Models struct {
	Preprocessor *Preprocessor
	Milk         *LinearModel
	Disease      *LogisticModel
	MilkMeta     *ModelMetadata
	DiseaseMeta  *ModelMetadata
}

// MilkReady reports whether model-based milk inference is possible.
func (m *Models) MilkReady() bool {
	return m != nil && m.Preprocessor != nil && m.Milk != nil
}

// DiseaseReady reports whether model-based risk inference is possible.
func (m *Models) DiseaseReady() bool {
	return m != nil && m.Preprocessor != nil && m.Disease != nil
}

// LoadModels reads artifacts from dir. Missing or corrupt files are logged
// and skipped so startup never fails on model problems.
func LoadModels(dir string, logger *slog.Logger) *Models {
	m := &Models{}
	if dir == "" {
		return m
	}

	pre, err := loadJSON[Preprocessor](filepath.Join(dir, preprocessorFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		logger.Warn("skipping preprocessor artifact", "error", err)
	default:
		if err := pre.validate(); err != nil {
			logger.Warn("skipping preprocessor artifact", "error", err)
		} else {
			m.Preprocessor = pre
		}
	}
	if m.Preprocessor == nil {
		return m
	}

	if art, err := loadModel(filepath.Join(dir, milkModelFile), m.Preprocessor.width()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("skipping milk model artifact", "error", err)
		}
	} else {
		m.Milk = NewLinearModel(art.Intercept, art.Coefficients)
		meta := art.Metadata
		m.MilkMeta = &meta
	}

	if art, err := loadModel(filepath.Join(dir, diseaseModelFile), m.Preprocessor.width()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("skipping disease model artifact", "error", err)
		}
	} else {
		m.Disease = NewLogisticModel(art.Intercept, art.Coefficients)
		meta := art.Metadata
		m.DiseaseMeta = &meta
	}
	return m
}

func loadModel(path string, width int) (*modelArtifact, error) {
	art, err := loadJSON[modelArtifact](path)
	if err != nil {
		return nil, err
	}
	if len(art.Coefficients) != width {
		return nil, fmt.Errorf("%s: %d coefficients for %d encoded features", filepath.Base(path), len(art.Coefficients), width)
	}
	return art, nil
}

func loadJSON[T any](path string) (*T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &v, nil
}
