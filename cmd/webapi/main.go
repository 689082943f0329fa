package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/app"
	"github.com/vladislavdragonenkov/webstore/internal/version"
)

const envLogLevel = "WEBSTORE_LOG_LEVEL"

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(parseLevel(level))
}

func parseLevel(raw string) log.Level {
	level, err := log.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// readConfigFromEnv формирует конфигурацию Web API из окружения.
func readConfigFromEnv(lookup app.EnvLookup) (app.Config, string, []string) {
	cfg, warnings := app.ReadConfig(lookup)
	level, _ := lookup(envLogLevel)
	return cfg, level, warnings
}

func main() {
	// .env необязателен: переменные окружения процесса имеют приоритет.
	_ = godotenv.Load()

	cfg, level, warnings := readConfigFromEnv(os.LookupEnv)
	setupLogger(level)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"build":        version.Get().String(),
	}).Info("запускаем WebStore Web API")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("WebStore Web API остановлен")
}
