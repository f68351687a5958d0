package app

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"clinical-transcript-service/internal/config"
	"clinical-transcript-service/internal/observability/logging"
)

const serviceName = "clinical-transcript-service"

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	appLogger.Info().Msg("Clinical transcript service application created")
	return a
}

// setupLogger configures the global zerolog logger for the service.
func (a *Application) setupLogger() {
	format := a.Cfg.Observability.LogFormat
	if os.Getenv("ENV") == "dev" {
		format = "console"
	}

	logging.Init(logging.Config{
		Level:      a.Cfg.Observability.LogLevel,
		Format:     format,
		TimeFormat: time.RFC3339,
	})
	log.Logger = log.Logger.With().Str("service", serviceName).Logger()

	a.Logger = logging.WithComponent("application")
	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("logFormat", format).
		Str("environment", os.Getenv("ENV")).
		Msg("Logger setup completed")
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("uploadsDir", a.Cfg.Service.UploadsDir).
		Str("classifier", a.Cfg.Classifier.Provider).
		Msg("Clinical transcript service starting")

	return nil
}

// Uptime returns how long the service has been running.
func (a *Application) Uptime() time.Duration {
	if a.StartupTime.IsZero() {
		return 0
	}
	return time.Since(a.StartupTime)
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().
		Dur("uptime", a.Uptime()).
		Msg("Clinical transcript service shutting down")
}
