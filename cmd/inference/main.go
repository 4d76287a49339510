// Package main provides the Segment Inference Service entrypoint.
// This service scores single customer feature rows against the frozen
// scaler, K-means, and Gaussian-mixture artifacts.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"customer-segmentation/internal/inference"
	"customer-segmentation/pkg/platform"
)

func main() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := platform.GetEnv("PORT", "8086")
	artifactDir := platform.GetEnv("ARTIFACT_DIR", "artifacts")

	// Artifacts load once; a missing or corrupt artifact prevents startup.
	svc, err := inference.NewService(artifactDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", artifactDir).Msg("Failed to load trained artifacts")
	}
	log.Info().Strs("schema", svc.Schema()).Msg("Trained artifacts loaded")

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      inference.NewRouter(svc),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Msg("Starting Segment Inference Service")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatal().Err(err).Msg("Server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}
