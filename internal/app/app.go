package app

import (
	"context"
	"net/http"
	"time"

	"github.com/twmiller/dl-44/internal/adapters/handlers"
	"github.com/twmiller/dl-44/internal/config"
	"github.com/twmiller/dl-44/internal/domain/models"
	"github.com/twmiller/dl-44/internal/interfaces"
	"github.com/twmiller/dl-44/internal/middleware/logging"
	"github.com/twmiller/dl-44/internal/services/kafka"
	"github.com/twmiller/dl-44/internal/services/laser_service"
	"github.com/twmiller/dl-44/internal/usecases"

	"go.uber.org/fx"
)

// New creates the fx application.
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		ProducerModule,
		ServiceModule,
		UsecaseModule,
		HttpServerModule,
		// Invoke functions for background tasks and lifecycle hooks
		fx.Invoke(InvokeAutoConnect),
		fx.Invoke(InvokeShutdown),
	)
}

// --- FX modules ---

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "LaserServiceApp")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

var ProducerModule = fx.Module("producer_module",
	fx.Provide(kafka.NewKafkaProducer),
)

func ProvideSnapshotPublisher(hub *handlers.Hub) interfaces.SnapshotPublisher {
	return hub
}

var ServiceModule = fx.Module("service_module",
	fx.Provide(
		handlers.NewHub,
		ProvideSnapshotPublisher,
		laser_service.NewLaserService,
	),
)

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(usecases.NewUsecases),
)

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	fx.Invoke(InvokeHttpServer),
)

// InvokeAutoConnect opens the configured serial port on startup and
// starts polling. A missing or unreachable device is not fatal; the
// HTTP API can connect later.
func InvokeAutoConnect(lc fx.Lifecycle, cfg *config.AppConfig, svc interfaces.Usecases, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Serial.Port == "" {
				logger.Info("No serial port configured, waiting for a connect request")
				return nil
			}

			logger.Info("Auto-connecting to configured device", "port", cfg.Serial.Port, "baud", cfg.Serial.Baud)
			if _, err := svc.Connect(models.ConnectRequest{Port: cfg.Serial.Port, Baud: cfg.Serial.Baud}); err != nil {
				logger.Warn("Auto-connect failed, device can be connected via the API", "error", err)
				return nil
			}

			interval := time.Duration(cfg.Serial.PollIntervalMs) * time.Millisecond
			if err := svc.StartPolling(interval); err != nil {
				logger.Warn("Failed to start polling for auto-connected device", "error", err)
			}
			return nil
		},
	})
}

// InvokeShutdown tears the session and the telemetry producer down on
// stop.
func InvokeShutdown(lc fx.Lifecycle, svc interfaces.Usecases, producer interfaces.TelemetryService, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down device session")
			if err := svc.Disconnect(); err != nil {
				logger.Warn("Error during disconnect", "error", err)
			}
			return producer.Close()
		},
	})
}

// InvokeHttpServer starts the HTTP server.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
