package api

// FeatureValue is one named feature in an inference row. Order matters:
// the sequence of names must equal the frozen feature schema exactly.
type FeatureValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PredictRequest is the inference call payload.
type PredictRequest struct {
	Features []FeatureValue `json:"features"`
}

// SegmentPrediction is the structured result of one inference call.
type SegmentPrediction struct {
	KMeansCluster int     `json:"kmeans_cluster"`
	GMMCluster    int     `json:"gmm_cluster"`
	GMMConfidence float64 `json:"gmm_confidence"` // max posterior, rounded to 3 decimals
}

// ErrorResponse is the JSON error envelope returned by the HTTP services.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
