package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodstand/internal/app"
	"github.com/vladislavdragonenkov/foodstand/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) []string {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	gin.SetMode(gin.ReleaseMode)

	if level == "" {
		return nil
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return []string{envLogLevel + ": " + err.Error()}
	}
	log.SetLevel(parsed)
	if parsed >= log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	}
	return nil
}

func main() {
	warnings := setupLogger(os.Getenv(envLogLevel))
	cfg, configWarnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range append(warnings, configWarnings...) {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":      cfg.HTTPAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
	}).WithFields(version.Fields()).Info("запускаем foodstand order service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("foodstand order service остановлен")
}
