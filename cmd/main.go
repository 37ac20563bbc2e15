package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bondpulse/config"
	"bondpulse/internal/app"
	"bondpulse/internal/logger"
	"bondpulse/internal/pipeline"
	"bondpulse/internal/storage"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// main is the entry point of the bondpulse application.
//
// Modes (selected via --mode flag):
//   - scrape: Runs one full acquisition: scrape both watchlists, enrich,
//     join reference data and persist the dataset.
//   - api:    Starts the REST API to expose the latest persisted dataset.
//
// Flags:
//   - --mode: Execution mode ("scrape" or "api"). Default: "scrape".
//   - --ref:  Path to the reference data file. Default: "./reference.yaml".
//   - --port: Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	config.LoadConfig()
	logger.Init()

	mode := flag.String("mode", "scrape", "Mode: scrape or api")
	refPath := flag.String("ref", "./reference.yaml", "Path to reference data file")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "scrape":
		logger.L().Info().Msg("running acquisition")

		ref, err := config.LoadReference(*refPath)
		if err != nil {
			logger.L().Fatal().Err(err).Str("path", *refPath).Msg("reference data error")
		}

		// Direct DB connection for the acquisition run
		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		runner := pipeline.NewRunner(config.AppConfig, ref, storage.NewSnapshotsRepository(db))
		if _, err := runner.Run(ctx); err != nil {
			logger.L().Fatal().Err(err).Msg("acquisition failed")
		}
		logger.L().Info().Msg("acquisition completed successfully")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
