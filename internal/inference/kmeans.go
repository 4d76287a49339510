package inference

// KMeans assigns a scaled feature vector to its nearest centroid.
// Centroids come frozen from the external training process.
type KMeans struct {
	Centroids [][]float64 `json:"centroids"`
}

// NumClusters returns the number of fitted centroids.
func (k *KMeans) NumClusters() int { return len(k.Centroids) }

// Predict returns the label of the centroid nearest to x under squared
// Euclidean distance.
func (k *KMeans) Predict(x []float64) int {
	best := 0
	bestDist := squaredDistance(x, k.Centroids[0])
	for i := 1; i < len(k.Centroids); i++ {
		if d := squaredDistance(x, k.Centroids[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
