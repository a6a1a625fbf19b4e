// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"reflect"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/open-edge-platform/pascal-lint/api/v1"
	"github.com/open-edge-platform/pascal-lint/internal/analyzer"
	"github.com/open-edge-platform/pascal-lint/internal/config"
	"github.com/open-edge-platform/pascal-lint/internal/database"
)

var logger = slog.Default()

// NewServer builds the echo server with all routes and middlewares registered.
func NewServer(conf config.Config, logLvl string, runs database.RunManager, a *analyzer.Analyzer, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()

	opts := setLogLvl(e, logLvl)
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &opts))

	// Set slog logger as the default logger for Echo to use the same logger configuration without explicitly passing the logger instance around.
	slog.SetDefault(logger)

	serverInterface := NewServerInterfaceHandler(runs, a, conf.Analyzer.MaxFileSize)
	api.RegisterHandlers(e, serverInterface)
	e.GET(metricsEndpoint, echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if conf.AuthEnabled() {
		authenticationHandler := NewAuthenticationHandler(conf.Authentication.OidcServer, conf.Authentication.OidcServerRealm)
		e.Use(authenticationHandler.authenticate)
	}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(
		middleware.RequestLoggerConfig{
			// NOTE: readiness checks and prometheus scrapes are not logged.
			Skipper:      skipLog,
			LogURI:       true,
			LogStatus:    true,
			LogError:     true,
			LogUserAgent: true,
			LogMethod:    true,
			LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
				if v.Error != nil {
					logger.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR",
						slog.String("uri", v.URI),
						slog.Int("status", v.Status),
						slog.String("user-agent", v.UserAgent),
						slog.String("method", v.Method),
						slog.String("error", v.Error.Error()),
					)
				} else {
					logger.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST",
						slog.String("uri", v.URI),
						slog.Int("status", v.Status),
						slog.String("user-agent", v.UserAgent),
						slog.String("method", v.Method),
					)
				}
				return nil
			},
		},
	))
	return e
}

// StartServer serves the API on lis until ctx is done, then shuts the server
// down within the configured timeout.
func StartServer(ctx context.Context, lis net.Listener, conf config.Config, logLvl string, runs database.RunManager, a *analyzer.Analyzer, gatherer prometheus.Gatherer) error {
	e := NewServer(conf, logLvl, runs, a, gatherer)
	e.Listener = lis

	welcomeMessage(e, conf, logLvl)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancelTimeout()
	if err := e.Shutdown(ctxTimeout); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func setLogLvl(e *echo.Echo, logLvl string) slog.HandlerOptions {
	switch logLvl {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
		return slog.HandlerOptions{
			Level: slog.LevelDebug,
		}
	case "warn":
		e.Logger.SetLevel(log.WARN)
		return slog.HandlerOptions{
			Level: slog.LevelWarn,
		}
	case "error":
		e.Logger.SetLevel(log.ERROR)
		return slog.HandlerOptions{
			Level: slog.LevelError,
		}
	default:
		e.Logger.SetLevel(log.INFO)
		return slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
	}
}

func welcomeMessage(e *echo.Echo, cfg config.Config, logLvl string) {
	e.HidePort = true
	e.HideBanner = true
	fmt.Println("Pascal Lint")
	fmt.Printf("⇨ Log level: %s\n", logLvl)
	fmt.Printf("⇨ HTTP server port: %d\n", cfg.Server.Port)
	fmt.Println("Configuration:")
	printStruct("Analyzer", cfg.Analyzer)
	printStruct("Database", cfg.Database)
	printStruct("Auth", cfg.Authentication)
}

func printStruct(header string, obj any) {
	fmt.Printf("⇨ %s:\n", header)
	vals := reflect.ValueOf(obj)
	types := vals.Type()
	for i := 0; i < vals.NumField(); i++ {
		fmt.Printf("  %s: %v\n", types.Field(i).Name, vals.Field(i))
	}
}
