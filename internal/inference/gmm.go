package inference

import (
	"fmt"
	"math"

	"customer-segmentation/pkg/confidence"
)

// GaussianMixture scores a scaled feature vector against a frozen mixture of
// full-covariance Gaussians and reports per-component posteriors.
type GaussianMixture struct {
	Weights     []float64     `json:"weights"`
	Means       [][]float64   `json:"means"`
	Covariances [][][]float64 `json:"covariances"`

	// Cached per-component Cholesky factors and log-determinants,
	// precomputed once at load so calls never mutate shared state.
	chol    [][][]float64
	logDets []float64
}

// NumComponents returns the number of mixture components.
func (g *GaussianMixture) NumComponents() int { return len(g.Weights) }

// prepare factorizes every component covariance. Called once at artifact
// load; a covariance that is not positive definite is a corrupt artifact.
func (g *GaussianMixture) prepare() error {
	g.chol = make([][][]float64, len(g.Covariances))
	g.logDets = make([]float64, len(g.Covariances))
	for c, cov := range g.Covariances {
		l, err := cholesky(cov)
		if err != nil {
			return fmt.Errorf("component %d: %w", c, err)
		}
		g.chol[c] = l
		var logDet float64
		for i := range l {
			logDet += 2 * math.Log(l[i][i])
		}
		g.logDets[c] = logDet
	}
	return nil
}

// PredictProba returns the posterior probability of each component given x,
// computed in log space and normalized with log-sum-exp.
func (g *GaussianMixture) PredictProba(x []float64) []float64 {
	logs := make([]float64, len(g.Weights))
	for c := range g.Weights {
		logs[c] = math.Log(g.Weights[c]) + g.logPdf(c, x)
	}
	norm := confidence.LogSumExp(logs)
	probs := make([]float64, len(logs))
	for c, l := range logs {
		probs[c] = math.Exp(l - norm)
	}
	return probs
}

// Predict returns the highest-posterior component label.
func (g *GaussianMixture) Predict(x []float64) int {
	label, _ := confidence.ArgMax(g.PredictProba(x))
	return label
}

// logPdf evaluates the multivariate normal log-density of component c at x
// using the cached Cholesky factor: solving L y = (x - mu) gives the
// Mahalanobis term as y.y.
func (g *GaussianMixture) logPdf(c int, x []float64) float64 {
	d := len(x)
	diff := make([]float64, d)
	for i := range x {
		diff[i] = x[i] - g.Means[c][i]
	}
	y := forwardSolve(g.chol[c], diff)
	var mahalanobis float64
	for _, v := range y {
		mahalanobis += v * v
	}
	return -0.5 * (float64(d)*math.Log(2*math.Pi) + g.logDets[c] + mahalanobis)
}

// cholesky returns the lower-triangular factor L with A = L L^T.
func cholesky(a [][]float64) ([][]float64, error) {
	n := len(a)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, fmt.Errorf("covariance matrix is not positive definite")
				}
				l[i][j] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, nil
}

// forwardSolve solves L y = b for lower-triangular L.
func forwardSolve(l [][]float64, b []float64) []float64 {
	n := len(b)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * y[k]
		}
		y[i] = sum / l[i][i]
	}
	return y
}
