// Package app builds the agents and their collaborators from configuration.
package app

import (
	"fmt"
	"time"

	creator "github.com/y-pakorn/friendwithbets/internal/agents/creator/handler"
	resolver "github.com/y-pakorn/friendwithbets/internal/agents/resolver/handler"
	"github.com/y-pakorn/friendwithbets/internal/config"
	"github.com/y-pakorn/friendwithbets/pkg/generator"
	"github.com/y-pakorn/friendwithbets/pkg/llm"
	"github.com/y-pakorn/friendwithbets/pkg/tools"
	"github.com/y-pakorn/friendwithbets/pkg/tools/serper"
)

type App struct {
	Config   *config.Config
	Tools    *tools.Catalogue
	Creator  *creator.Handler
	Resolver *resolver.Handler
}

func New(cfg *config.Config) (*App, error) {
	completer, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	return NewWithCompleter(cfg, completer)
}

// NewWithCompleter wires the app around an existing completer.
func NewWithCompleter(cfg *config.Config, completer llm.Completer) (*App, error) {
	web := serper.New(serper.Config{
		APIKey:            cfg.Serper.APIKey,
		SearchURL:         cfg.Serper.SearchURL,
		ScrapeURL:         cfg.Serper.ScrapeURL,
		RequestsPerSecond: cfg.Serper.RequestsPerSecond,
		Timeout:           cfg.Serper.Timeout,
	})
	catalogue, err := tools.Standard(web, time.Now)
	if err != nil {
		return nil, fmt.Errorf("tools: %w", err)
	}

	gen := generator.New(completer, cfg.LLM.MaxRetries)
	return &App{
		Config:   cfg,
		Tools:    catalogue,
		Creator:  creator.New(gen, catalogue, cfg.Agent.MaxSteps),
		Resolver: resolver.New(gen, catalogue, cfg.Agent.MaxSteps, cfg.Agent.ResolveTimeout),
	}, nil
}
