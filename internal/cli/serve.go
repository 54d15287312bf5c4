package cli

import (
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"

	"github.com/y-pakorn/friendwithbets/internal/api"
)

const shutdownGrace = 15 * time.Second

// ServeCmd starts the HTTP API.
type ServeCmd struct {
	Port int `short:"p" long:"port" description:"listen port, overrides HTTP_PORT"`
}

func (s *ServeCmd) Execute(_ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	port := a.Config.HTTP.Port
	if s.Port != 0 {
		port = s.Port
	}

	system := actor.NewActorSystem()
	server := api.New(system.Root, api.Deps{
		Creator:       a.Creator,
		Resolver:      a.Resolver,
		Tools:         a.Tools,
		Port:          port,
		CreateTimeout: a.Config.Agent.CreateTimeout,
		JobRetention:  a.Config.Agent.JobRetention,
	})

	ctx, stop := signalContext()
	defer stop()
	if err := server.Serve(ctx, shutdownGrace); err != nil {
		return err
	}
	log.Info().Msg("server exiting")
	return nil
}
