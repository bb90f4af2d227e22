package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/guttosm/neowatch/config"
	"github.com/guttosm/neowatch/internal/api"
	"github.com/guttosm/neowatch/internal/apperr"
	"github.com/guttosm/neowatch/internal/metrics"
	"github.com/guttosm/neowatch/internal/service"
	"github.com/guttosm/neowatch/internal/upstream"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Validates the configuration.
//   - Registers the Prometheus collectors on reg (a fresh registry when nil).
//   - Builds the provider client, the service and the HTTP handlers.
//   - Wires readiness to the presence of the provider credential.
//
// A missing credential does not fail startup: /readyz reports it and every
// feed request answers with a configuration error.
func InitializeApp(cfg config.Config, reg *prometheus.Registry) (*gin.Engine, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := metrics.New(reg)

	// Provider client (single round trip per call, no retries)
	client := upstream.NewClient(cfg.Upstream, m)

	// Service layer (normalization and aggregation)
	svc := service.NewNeoService(client, cfg.Upstream.MaxRangeDays, m)

	// HTTP layer
	handler := api.NewHandler(svc, nil, cfg.Upstream.MaxHistoricalDays)
	health := api.NewHealthHandler(func() error {
		if !cfg.HasCredential() {
			return &apperr.ConfigurationError{Reason: "NASA_API_KEY is not set"}
		}
		return nil
	})

	router := api.NewRouter(handler, health, api.RouterOptions{
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RequestTimeout:     cfg.Server.RequestTimeout,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		Gatherer:           reg,
	})

	cleanup := func() {
		client.Close()
	}

	return router, cleanup, nil
}
