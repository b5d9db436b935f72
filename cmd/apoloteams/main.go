package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/auth"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/directory"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/hub"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/server"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/session"
	"github.com/jesus-bazan-entel/ApoloTeams/pkg/config"
	"github.com/jesus-bazan-entel/ApoloTeams/pkg/logging"
)

func main() {
	bootLogger := logging.New(logging.LevelInfo)

	cfg, err := config.Load(bootLogger, "config")
	if err != nil {
		bootLogger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The standalone binary runs against in-memory collaborators; a real
	// deployment wires the persistence service's clients instead.
	dir := directory.NewMemory()

	h := hub.New(cfg.Hub.SendBuffer, dir, logger)
	collab := session.Collaborators{
		Verifier: auth.NewJWTVerifier(cfg.Server.Auth.JWTSecret),
		Users:    dir,
		Channels: dir,
		Messages: dir,
	}

	app := server.NewApp(logger, ctx, cfg, h, collab)
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
