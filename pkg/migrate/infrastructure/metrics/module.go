package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	config "github.com/firelater/migrator/pkg/migrate/core/config"
	metrics "github.com/firelater/migrator/pkg/migrate/core/metrics"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// NewRecorder selects the metrics backend based on configuration: Prometheus
// when enabled, no-op otherwise.
func NewRecorder(cfg *config.Config) metrics.Recorder {
	if !cfg.Migrator.Metrics.Enabled {
		return metrics.NewNoopRecorder()
	}
	return NewPrometheusRecorder(cfg)
}

// serveMetrics exposes the Prometheus registry over HTTP when a listen
// address is configured.
func serveMetrics(lc fx.Lifecycle, cfg *config.Config, recorder metrics.Recorder) {
	promRecorder, ok := recorder.(*PrometheusRecorder)
	if !ok || cfg.Migrator.Metrics.ListenAddress == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promRecorder.GetRegistry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.Migrator.Metrics.ListenAddress, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Infof("Serving metrics on %s/metrics", cfg.Migrator.Metrics.ListenAddress)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Errorf("Metrics server terminated: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

// Module provides the configured metrics recorder to the fx application graph.
var Module = fx.Options(
	fx.Provide(NewRecorder),
	fx.Invoke(serveMetrics),
)
