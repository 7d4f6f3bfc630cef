package prediction

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinearModel is a fitted regression: y = intercept + w·x.
type LinearModel struct {
	intercept float64
	weights   *mat.VecDense
}

func NewLinearModel(intercept float64, coefficients []float64) *LinearModel {
	return &LinearModel{
		intercept: intercept,
		weights:   mat.NewVecDense(len(coefficients), coefficients),
	}
}

func (m *LinearModel) Predict(encoded []float64) float64 {
	x := mat.NewVecDense(len(encoded), encoded)
	return m.intercept + mat.Dot(m.weights, x)
}

// LogisticModel is a fitted binary classifier producing a probability.
type LogisticModel struct {
	linear *LinearModel
}

func NewLogisticModel(intercept float64, coefficients []float64) *LogisticModel {
	return &LogisticModel{linear: NewLinearModel(intercept, coefficients)}
}

func (m *LogisticModel) Predict(encoded []float64) float64 {
	return sigmoid(m.linear.Predict(encoded))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
