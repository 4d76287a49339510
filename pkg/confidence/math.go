// Package confidence provides confidence score math utilities.
package confidence

import "math"

// Round rounds a score to the given number of decimal places.
func Round(score float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(score*pow) / pow
}

// Clamp ensures confidence is in valid range [0, 1].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ArgMax returns the index and value of the largest element.
// Returns index -1 for an empty slice.
func ArgMax(scores []float64) (int, float64) {
	if len(scores) == 0 {
		return -1, 0
	}
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best, scores[best]
}

// LogSumExp computes log(sum(exp(x_i))) without overflow.
// Used to normalize log-posteriors into probabilities.
func LogSumExp(logs []float64) float64 {
	if len(logs) == 0 {
		return math.Inf(-1)
	}
	max := logs[0]
	for _, l := range logs[1:] {
		if l > max {
			max = l
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	var sum float64
	for _, l := range logs {
		sum += math.Exp(l - max)
	}
	return max + math.Log(sum)
}
