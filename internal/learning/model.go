package learning

import (
	"math"
	"math/rand"

	"daybrief/internal/memory"
)

const (
	featureCount = 5
	ridgeLambda  = 0.1
)

// ridgeModel is one linear regressor over the five ranking features plus a
// bias term, fit by regularized normal equations.
type ridgeModel struct {
	weights [featureCount]float64
	bias    float64
}

func (m *ridgeModel) predict(features [featureCount]float64) float64 {
	score := m.bias
	for i, w := range m.weights {
		score += w * features[i]
	}
	return clamp01(score)
}

// fitRidge solves (X'X + lambda*I) w = X'y for the augmented feature vector
// [f0..f4, 1]. The bias column is not regularized.
func fitRidge(samples []memory.TrainingSample) *ridgeModel {
	const dim = featureCount + 1

	var xtx [dim][dim]float64
	var xty [dim]float64
	for _, sample := range samples {
		var row [dim]float64
		copy(row[:featureCount], sample.Features[:])
		row[featureCount] = 1
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xty[i] += row[i] * sample.Target
		}
	}
	for i := 0; i < featureCount; i++ {
		xtx[i][i] += ridgeLambda
	}

	solution, ok := solve(xtx, xty)
	if !ok {
		return nil
	}
	model := &ridgeModel{bias: solution[featureCount]}
	copy(model.weights[:], solution[:featureCount])
	return model
}

// solve runs Gaussian elimination with partial pivoting on a 6x6 system.
func solve(a [featureCount + 1][featureCount + 1]float64, b [featureCount + 1]float64) ([featureCount + 1]float64, bool) {
	const dim = featureCount + 1
	var x [dim]float64

	for col := 0; col < dim; col++ {
		pivot := col
		for row := col + 1; row < dim; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return x, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < dim; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < dim; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	for row := dim - 1; row >= 0; row-- {
		sum := b[row]
		for col := row + 1; col < dim; col++ {
			sum -= a[row][col] * x[col]
		}
		x[row] = sum / a[row][row]
	}
	return x, true
}

// bootstrap draws len(samples) examples with replacement using the given
// deterministic seed.
func bootstrap(samples []memory.TrainingSample, seed int64) []memory.TrainingSample {
	rng := rand.New(rand.NewSource(seed))
	resampled := make([]memory.TrainingSample, len(samples))
	for i := range resampled {
		resampled[i] = samples[rng.Intn(len(samples))]
	}
	return resampled
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
