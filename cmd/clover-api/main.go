// clover-api serves the review API over the persisted run results: canonical
// members (restricted columns redacted by default), duplicate candidate
// groups, and run summaries with coverage reports.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/repositories/canonicalmember"
	"github.com/Ramsey-B/clover/internal/repositories/duplicatecandidate"
	"github.com/Ramsey-B/clover/internal/repositories/runreport"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/routes/duplicate"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/member"
	"github.com/Ramsey-B/clover/pkg/routes/run"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := serve(context.Background(), cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	zapLogger, _ := zapCfg.Build()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func serve(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	if cfg.TracingEnabled {
		shutdown := tracing.Init(cfg.AppName)
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.WithError(err).Warn("Failed to shut down tracer provider")
			}
		}()
	}

	db, err := database.Connect(ctx, database.Config{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if instance, ok := db.(*database.DatabaseInstance); ok {
		if err := database.Migrate(instance.DB, cfg.DatabaseName, cfg.DatabaseMigrationFolderPath, logger); err != nil {
			return err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	checker := health.NewChecker(db, cfg.Version)
	checker.RegisterRoutes(e)

	member.NewHandler(canonicalmember.NewRepository(db, logger), logger).RegisterRoutes(e.Group("/api/v1/members"))
	duplicate.NewHandler(duplicatecandidate.NewRepository(db, logger), logger).RegisterRoutes(e.Group("/api/v1/duplicates"))
	run.NewHandler(runreport.NewRepository(db, logger), logger).RegisterRoutes(e.Group("/api/v1/runs"))

	checker.SetReady(true)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()
	logger.WithFields(map[string]any{"port": cfg.Port}).Info("Review API started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-stop:
	}

	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Review API stopped")
	return nil
}

// errorHandler renders httperror values with their status codes and hides
// internal error detail for everything else.
func errorHandler(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		switch {
		case httperror.IsHTTPError(err):
			status = httperror.GetStatusCode(err)
			message = err.Error()
		default:
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
				message = fmt.Sprintf("%v", he.Message)
			}
		}

		if status >= http.StatusInternalServerError {
			logger.WithContext(c.Request().Context()).WithError(err).Error("Request failed")
		}

		if writeErr := c.JSON(status, map[string]string{"error": message}); writeErr != nil {
			logger.WithError(writeErr).Error("Failed to write error response")
		}
	}
}
