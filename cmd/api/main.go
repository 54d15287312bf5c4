package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	zLog "github.com/rs/zerolog/log"

	"github.com/y-pakorn/friendwithbets/internal/api"
	"github.com/y-pakorn/friendwithbets/internal/app"
	"github.com/y-pakorn/friendwithbets/internal/config"
	"github.com/y-pakorn/friendwithbets/pkg/logger"
)

func main() {
	log.Println("starting server")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logger.NewGlobal(cfg.App.LogLevel, cfg.App.LogPretty); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		zLog.Fatal().Err(err).Msg("failed to build agents")
	}

	system := actor.NewActorSystem()
	server := api.New(system.Root, api.Deps{
		Creator:       a.Creator,
		Resolver:      a.Resolver,
		Tools:         a.Tools,
		Port:          cfg.HTTP.Port,
		CreateTimeout: cfg.Agent.CreateTimeout,
		JobRetention:  cfg.Agent.JobRetention,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Serve(ctx, 15*time.Second); err != nil {
		zLog.Panic().Err(err).Msg("server crash")
	}

	zLog.Info().Msg("server exiting")
}
