package inference

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"customer-segmentation/pkg/api"
	"customer-segmentation/pkg/errors"
)

// NewRouter wires the HTTP surface over a loaded service. A schema mismatch
// is a per-call failure and never affects the loaded artifacts or other
// callers.
func NewRouter(svc *Service) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", handleHealth)
	r.Post("/api/v1/predict", handlePredict(svc))
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "inference",
	})
}

func handlePredict(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
			return
		}

		prediction, err := svc.Predict(req.Features)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			if errors.IsCode(err, errors.ErrCodeSchemaMismatch) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(api.ErrorResponse{
					Error:   "schema_mismatch",
					Message: err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(api.ErrorResponse{
				Error:   "prediction_failed",
				Message: err.Error(),
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prediction)
	}
}
