package main

import (
	"log/slog"
	"os"

	httpapi "github.com/immxrtalbeast/watchparty/internal/api/http"
	"github.com/immxrtalbeast/watchparty/internal/config"
	"github.com/immxrtalbeast/watchparty/internal/repository"
	"github.com/immxrtalbeast/watchparty/internal/service"
	"github.com/immxrtalbeast/watchparty/lib/logger/slogpretty"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	registry := repository.NewInMemoryRoomRegistry()
	dispatcher := service.NewDispatcher(log)
	roomService := service.NewRoomService(registry, dispatcher, service.TimerScheduler{}, cfg, log)

	roomController := httpapi.NewRoomController(roomService, dispatcher, cfg.Limits, log)
	streamController := httpapi.NewStreamController(log)

	router := httpapi.SetupRouter(roomController, streamController, cfg.HTTP.StaticDir)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
