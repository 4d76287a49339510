package inference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"customer-segmentation/pkg/errors"
)

// Artifact file names inside the artifact directory. These are produced by
// the external training process and consumed read-only here.
const (
	SchemaFile = "feature_schema.json"
	ScalerFile = "scaler.json"
	KMeansFile = "kmeans.json"
	GMMFile    = "gmm.json"
)

// schemaArtifact is the frozen ordered feature name list.
type schemaArtifact struct {
	Features []string `json:"features"`
}

// Artifacts bundles the trained objects loaded at service start.
type Artifacts struct {
	Schema []string
	Scaler *StandardScaler
	KMeans *KMeans
	GMM    *GaussianMixture
}

// LoadArtifacts reads and validates every trained artifact from dir. Any
// missing or corrupt file aborts with an ArtifactLoadError: the service must
// not start on a partial artifact set.
func LoadArtifacts(dir string) (*Artifacts, error) {
	var schema schemaArtifact
	if err := readJSON(filepath.Join(dir, SchemaFile), &schema); err != nil {
		return nil, errors.NewArtifactLoadError(SchemaFile, err)
	}
	if len(schema.Features) == 0 {
		return nil, errors.NewArtifactLoadError(SchemaFile, fmt.Errorf("schema lists no features"))
	}
	d := len(schema.Features)

	scaler := &StandardScaler{}
	if err := readJSON(filepath.Join(dir, ScalerFile), scaler); err != nil {
		return nil, errors.NewArtifactLoadError(ScalerFile, err)
	}
	if len(scaler.Mean) != d || len(scaler.Scale) != d {
		return nil, errors.NewArtifactLoadError(ScalerFile,
			fmt.Errorf("scaler dimensions %d/%d do not match schema width %d", len(scaler.Mean), len(scaler.Scale), d))
	}

	kmeans := &KMeans{}
	if err := readJSON(filepath.Join(dir, KMeansFile), kmeans); err != nil {
		return nil, errors.NewArtifactLoadError(KMeansFile, err)
	}
	if len(kmeans.Centroids) == 0 {
		return nil, errors.NewArtifactLoadError(KMeansFile, fmt.Errorf("model has no centroids"))
	}
	for i, c := range kmeans.Centroids {
		if len(c) != d {
			return nil, errors.NewArtifactLoadError(KMeansFile,
				fmt.Errorf("centroid %d width %d does not match schema width %d", i, len(c), d))
		}
	}

	gmm := &GaussianMixture{}
	if err := readJSON(filepath.Join(dir, GMMFile), gmm); err != nil {
		return nil, errors.NewArtifactLoadError(GMMFile, err)
	}
	if len(gmm.Weights) == 0 || len(gmm.Means) != len(gmm.Weights) || len(gmm.Covariances) != len(gmm.Weights) {
		return nil, errors.NewArtifactLoadError(GMMFile, fmt.Errorf("inconsistent component counts"))
	}
	for i := range gmm.Weights {
		if len(gmm.Means[i]) != d || len(gmm.Covariances[i]) != d {
			return nil, errors.NewArtifactLoadError(GMMFile,
				fmt.Errorf("component %d dimensions do not match schema width %d", i, d))
		}
		for j, row := range gmm.Covariances[i] {
			if len(row) != d {
				return nil, errors.NewArtifactLoadError(GMMFile,
					fmt.Errorf("component %d covariance row %d width %d does not match schema width %d", i, j, len(row), d))
			}
		}
	}
	if err := gmm.prepare(); err != nil {
		return nil, errors.NewArtifactLoadError(GMMFile, err)
	}

	return &Artifacts{
		Schema: schema.Features,
		Scaler: scaler,
		KMeans: kmeans,
		GMM:    gmm,
	}, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
