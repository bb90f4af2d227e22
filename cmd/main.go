package main

//
//  @title           neowatch API
//  @version         1.0
//  @description     Near-Earth object feed: daily listings and historical summaries.
//  @host            localhost:5000
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        neos
//  @tag.description Daily object listings and historical summaries
//
//  @tag.name        health
//  @tag.description Health, liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guttosm/neowatch/config"
	"github.com/guttosm/neowatch/internal/app"
	"github.com/guttosm/neowatch/internal/consumer"
	"github.com/guttosm/neowatch/internal/domain/models"
	"github.com/guttosm/neowatch/internal/logger"
	"github.com/guttosm/neowatch/internal/metrics"
	"github.com/guttosm/neowatch/internal/retry"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//   - writeTimeout (time.Duration): Must exceed the request timeout so handlers can answer.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string, writeTimeout time.Duration) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
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
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runWatch drives the dashboard loader from the command line until ctx is
// cancelled (or once, when every is zero).
func runWatch(ctx context.Context, cfg config.Config, date string, every time.Duration) error {
	var day time.Time
	if date != "" {
		d, err := models.ParseDate(date)
		if err != nil {
			return err
		}
		day = d
	}

	client := consumer.NewClient(cfg.Consumer.BaseURL, cfg.Server.RequestTimeout)
	dash := consumer.NewDashboard(client,
		retry.Policy{MaxAttempts: cfg.Consumer.MaxAttempts, BackoffDelay: cfg.Consumer.BackoffDelay},
		consumer.WithMetrics(metrics.New(prometheus.NewRegistry())),
		consumer.WithStateObserver(func(s retry.State) {
			logger.L().Debug().Str("state", s.String()).Msg("day load state")
		}),
	)

	err := consumer.Watch(ctx, dash, day, every, func() time.Time { return time.Now().UTC() })
	if view, _ := dash.LastDay(); view != nil {
		logger.L().Info().
			Str("date", view.Date).
			Int("total", view.Stats.Total).
			Int("hazardous", view.Stats.Hazardous).
			Int64("avg_distance_km", view.Stats.AverageDistanceKm).
			Str("hazard_level", string(view.Stats.Level)).
			Msg("dashboard")
	}
	return err
}

// main is the entry point of the neowatch application.
//
// Modes (selected via --mode flag):
//   - api:   Serves the NEO feed endpoints.
//   - watch: Polls a running service like the dashboard does, with retry and backoff.
//
// Flags:
//   - --mode:  Execution mode ("api" or "watch"). Default: "api".
//   - --port:  Port for the API server. Defaults to PORT / SERVER_PORT.
//   - --date:  Day to load in watch mode (YYYY-MM-DD). Default: today (UTC).
//   - --every: Reload interval in watch mode; 0 loads once.
func main() {
	cfg, err := config.LoadConfig()

	// Initialize JSON logger
	logger.Init()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("config error")
	}
	if !cfg.HasCredential() {
		logger.L().Warn().Msg("NASA_API_KEY is not set; feed requests will fail until it is provided")
	}

	mode := flag.String("mode", "api", "Mode: api or watch")
	port := flag.String("port", cfg.Server.Port, "Port for API mode")
	date := flag.String("date", "", "Day to load in watch mode (YYYY-MM-DD, default today)")
	every := flag.Duration("every", 0, "Reload interval in watch mode (0 = once)")
	flag.Parse()

	switch *mode {
	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp(cfg, prometheus.NewRegistry())
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port, cfg.Server.RequestTimeout+5*time.Second)
		gracefulShutdown(context.Background(), server, cleanup)

	case "watch":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runWatch(ctx, cfg, *date, *every); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error().Err(err).Msg("watch failed")
			stop()
			os.Exit(1)
		}

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
