package inference

// StandardScaler applies the affine normalization fitted at training time:
// z = (x - mean) / scale, per feature, in schema order.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform scales a feature vector. A zero scale entry (constant training
// column) leaves the centered value unscaled.
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		centered := v - s.Mean[i]
		if s.Scale[i] != 0 {
			out[i] = centered / s.Scale[i]
		} else {
			out[i] = centered
		}
	}
	return out
}
