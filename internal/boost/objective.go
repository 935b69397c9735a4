package boost

import "math"

// binaryObjective implements the binary logistic loss. Predictions are
// accumulated in log-odds space; Sigmoid maps them to probabilities.
type binaryObjective struct{}

// Gradient of the logistic loss with respect to the raw score.
func (binaryObjective) Gradient(rawScore, target float64) float64 {
	return Sigmoid(rawScore) - target
}

// Hessian of the logistic loss with respect to the raw score.
func (binaryObjective) Hessian(rawScore, _ float64) float64 {
	p := Sigmoid(rawScore)
	return p * (1 - p)
}

// Loss is the per-sample negative log likelihood.
func (binaryObjective) Loss(rawScore, target float64) float64 {
	p := Sigmoid(rawScore)
	const eps = 1e-15
	p = math.Min(math.Max(p, eps), 1-eps)
	if target >= 0.5 {
		return -math.Log(p)
	}
	return -math.Log(1 - p)
}

// InitScore returns the log-odds of the positive rate, the constant
// baseline the ensemble starts from.
func (binaryObjective) InitScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	pos := 0.0
	for _, t := range targets {
		if t >= 0.5 {
			pos++
		}
	}
	rate := pos / float64(len(targets))
	const eps = 1e-12
	rate = math.Min(math.Max(rate, eps), 1-eps)
	return math.Log(rate / (1 - rate))
}

// Sigmoid maps a raw score to a probability.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	// Rearranged form avoids overflow for large negative x.
	e := math.Exp(x)
	return e / (1.0 + e)
}
