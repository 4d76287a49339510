// Package inference scales a single customer feature row and queries the two
// pre-fitted cluster assignment models.
package inference

import (
	"fmt"
	"strings"

	"customer-segmentation/pkg/api"
	"customer-segmentation/pkg/confidence"
	"customer-segmentation/pkg/errors"
)

// Service holds the trained artifacts for the lifetime of the process.
// All state is read-only after construction, so concurrent callers need no
// coordination.
type Service struct {
	artifacts *Artifacts
}

// NewService loads the artifact directory once. A load failure is a fatal
// startup error for the caller.
func NewService(artifactDir string) (*Service, error) {
	arts, err := LoadArtifacts(artifactDir)
	if err != nil {
		return nil, err
	}
	return &Service{artifacts: arts}, nil
}

// Schema returns the frozen ordered feature names.
func (s *Service) Schema() []string {
	schema := make([]string, len(s.artifacts.Schema))
	copy(schema, s.artifacts.Schema)
	return schema
}

// Predict validates the ordered feature row against the frozen schema, scales
// it, and queries both cluster models. The input keys must equal the schema
// exactly, name and order; otherwise the call fails with a schema-mismatch
// error before either model is invoked.
func (s *Service) Predict(row []api.FeatureValue) (*api.SegmentPrediction, error) {
	if err := s.validate(row); err != nil {
		return nil, err
	}

	x := make([]float64, len(row))
	for i, fv := range row {
		x[i] = fv.Value
	}
	scaled := s.artifacts.Scaler.Transform(x)

	kmeansCluster := s.artifacts.KMeans.Predict(scaled)

	posteriors := s.artifacts.GMM.PredictProba(scaled)
	gmmCluster, maxPosterior := confidence.ArgMax(posteriors)

	return &api.SegmentPrediction{
		KMeansCluster: kmeansCluster,
		GMMCluster:    gmmCluster,
		GMMConfidence: confidence.Round(confidence.Clamp(maxPosterior), 3),
	}, nil
}

func (s *Service) validate(row []api.FeatureValue) error {
	schema := s.artifacts.Schema
	if len(row) != len(schema) {
		return errors.NewSchemaMismatchError(fmt.Sprintf(
			"input has %d features, schema expects %d (%s)",
			len(row), len(schema), strings.Join(schema, ", ")))
	}
	for i, fv := range row {
		if fv.Name != schema[i] {
			return errors.NewSchemaMismatchError(fmt.Sprintf(
				"feature %d is %q, schema expects %q", i, fv.Name, schema[i]))
		}
	}
	return nil
}
