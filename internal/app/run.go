package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/executor"
	"github.com/vk/taskgridgo/internal/metrics"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	eg, ctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if appConfig.MetricsPort > 0 {
		srv = a.newMetricsServer(appConfig.MetricsPort, promReg)
		eg.Go(func() error {
			a.logger.Info("Metrics server starting.", "address", fmt.Sprintf("http://localhost%s/metrics", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
	}

	eg.Go(func() error {
		defer func() {
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}
		}()
		return a.execute(ctx, appConfig, m)
	})

	err := eg.Wait()
	a.logger.Debug("App.Run method finished.")
	return err
}

// execute builds the task graph and drives it through the executor.
func (a *App) execute(ctx context.Context, appConfig *Config, m *metrics.Metrics) error {
	a.logger.Debug("Building task graph from pipeline...")
	graph, err := buildGraph(ctx, a.pipeline, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build task graph: %w", err)
	}

	if graph.Len() == 0 {
		a.logger.Warn("No tasks found in pipeline, execution not required.")
		return nil
	}

	opts := []executor.Option{executor.WithMetrics(m)}
	if appConfig.WorkerCount > 0 {
		opts = append(opts, executor.WithWorkers(appConfig.WorkerCount))
	}
	exec := executor.New(opts...)
	defer exec.Close()

	a.logger.Info("🚀 Starting concurrent execution...", "tasks", graph.Len(), "workers", appConfig.WorkerCount)
	start := time.Now()

	handle, err := exec.Run(ctx, graph)
	if err != nil {
		return fmt.Errorf("failed to submit task graph: %w", err)
	}
	runErr := handle.Wait(ctx)

	a.logger.Info("🏁 Execution finished.",
		"duration", time.Since(start).Round(time.Millisecond),
		"completed", handle.Completed(),
		"failed", handle.Failed(),
	)
	if runErr != nil {
		return fmt.Errorf("execution failed at task %q: %w", handle.FailedNode(), runErr)
	}
	return nil
}

// newMetricsServer builds the HTTP server exposing Prometheus metrics and
// a liveness endpoint.
func (a *App) newMetricsServer(port int, promReg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}
