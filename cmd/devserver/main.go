// Command devserver serves the Lambda handler over plain HTTP for local
// development and exposes Prometheus metrics on /metrics.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cosmetics-assistant/internal/app"
	"cosmetics-assistant/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h, err := app.NewHandler(ctx, cfg, logger, app.WithRegistry(reg))
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	e := newServer(h, reg, cfg.DevUserID, logger)

	go func() {
		logger.Info("dev server listening", "addr", cfg.DevAddr, "dev_user", cfg.DevUserID != "")
		if err := e.Start(cfg.DevAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("dev server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("dev server shutdown failed", "err", err)
	}
}

func newServer(h lambdaHandler, reg *prometheus.Registry, devUserID string, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "err", v.Error)
			return nil
		},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	e.Any("/*", proxy(h, devUserID))
	return e
}
