package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/y-pakorn/friendwithbets/pkg/kernel"
	"github.com/y-pakorn/friendwithbets/pkg/logger"
	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
	"github.com/y-pakorn/friendwithbets/pkg/models"
	"github.com/y-pakorn/friendwithbets/pkg/prompts"
	"github.com/y-pakorn/friendwithbets/pkg/schema"
	"github.com/y-pakorn/friendwithbets/pkg/tools"
)

const (
	AgentName      = "resolver"
	DefaultTimeout = 60 * time.Second
)

// ErrAlreadyResolved is returned for markets that already carry a resolution.
var ErrAlreadyResolved = errors.New("market already resolved")

var actionSchema = schema.MustCompile(schema.Action(schema.OutcomeSelection()))

type Catalogue interface {
	kernel.Dispatcher
	Describe() string
}

type Handler struct {
	gen      kernel.Generator
	tools    Catalogue
	maxSteps int
	timeout  time.Duration
	now      func() time.Time
}

func New(gen kernel.Generator, catalogue Catalogue, maxSteps int, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{
		gen:      gen,
		tools:    catalogue,
		maxSteps: maxSteps,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Resolve picks the market's outcome from live evidence. It runs one-shot from an
// empty transcript; the model only sees the market's resolvable fields. The
// selected index is checked against the market before it is returned.
func (h *Handler) Resolve(ctx context.Context, market models.Market) (models.OutcomeSelection, error) {
	if err := market.Validate(); err != nil {
		return models.OutcomeSelection{}, err
	}
	if market.Resolved() {
		return models.OutcomeSelection{}, fmt.Errorf("%w: %s", ErrAlreadyResolved, market.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	system, err := prompts.Resolver(tools.NewDateTime(h.now()), h.tools.Describe(), market.Resolvable())
	if err != nil {
		return models.OutcomeSelection{}, fmt.Errorf("resolver prompt: %w", err)
	}

	k := kernel.New[models.OutcomeSelection](kernel.Config{
		Agent:    AgentName,
		System:   system,
		Schema:   actionSchema,
		MaxSteps: h.maxSteps,
	}, h.gen, h.tools)

	start := time.Now()
	res, err := k.Run(ctx, buffer.Transcript{}, nil)
	if err != nil {
		return models.OutcomeSelection{}, fmt.Errorf("resolve %q: %w", market.Title, err)
	}
	sel := *res.Final
	if err := market.CheckSelection(sel); err != nil {
		return models.OutcomeSelection{}, err
	}

	log.Info().
		Str(logger.AgentNameField, AgentName).
		Str("market", market.ID).
		Int("outcome", sel.OutcomeIndex).
		Int(logger.StepField, res.Steps).
		Dur(logger.DurationField, time.Since(start)).
		Msg("market resolved")
	return sel, nil
}
