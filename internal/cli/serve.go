package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jar-analysis/jar-analysis-go/internal/api"
	"github.com/jar-analysis/jar-analysis-go/internal/middleware"
	"github.com/jar-analysis/jar-analysis-go/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (uploads, stored reports, /metrics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}

	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	bindFlags(a.v, cmd.Flags(), map[string]string{"server.port": "port"})

	return cmd
}

func (a *app) runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c, err := a.build(reg, true)
	if err != nil {
		return err
	}

	// 目录监控与 API 共用同一个扫描服务
	if a.cfg.Watcher.Enabled && a.cfg.Watcher.Dir != "" {
		fw, err := a.startWatcher(ctx, c, a.cfg.Watcher.Dir, false)
		if err != nil {
			return err
		}
		defer fw.Stop()
	}

	router := api.SetupRouter(a.cfg, a.logger, c.service, reg, middleware.NewHTTPMetrics(reg, "jarscan"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info("Server exited")
	return nil
}

func (a *app) startWatcher(ctx context.Context, c *components, dir string, scanExisting bool) (*watcher.FileWatcher, error) {
	debounce := time.Duration(a.cfg.Watcher.DebounceMs) * time.Millisecond
	handler := func(ctx context.Context, path string) error {
		report, err := c.service.ScanJar(ctx, path)
		if err != nil {
			return err
		}
		entry := a.logger.WithField("jar", path).WithField("max_danger_score", report.MaxDangerScore)
		if isFlagged(report, c.scanner.Options().ReportThreshold) {
			entry.WithField("custom_jvm", report.CustomJVMIndicator).Warn("Suspicious JAR detected")
		} else {
			entry.Info("JAR looks clean")
		}
		return nil
	}

	fw, err := watcher.NewFileWatcher(dir, a.cfg.Watcher.Pattern, debounce, handler, a.logger)
	if err != nil {
		return nil, err
	}
	if err := fw.Start(ctx, scanExisting); err != nil {
		fw.Stop()
		return nil, err
	}
	return fw, nil
}
