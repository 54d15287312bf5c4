package handler

import (
	"context"
	"encoding/json"
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

const AgentName = "creator"

var actionSchema = schema.MustCompile(schema.Action(schema.Agreement()))

type Catalogue interface {
	kernel.Dispatcher
	Describe() string
}

// Handler turns a chat transcript into a market agreement. It holds no per-request state.
type Handler struct {
	gen      kernel.Generator
	tools    Catalogue
	maxSteps int
	now      func() time.Time
}

func New(gen kernel.Generator, catalogue Catalogue, maxSteps int) *Handler {
	return &Handler{
		gen:      gen,
		tools:    catalogue,
		maxSteps: maxSteps,
		now:      time.Now,
	}
}

// Stream starts one creator turn. The returned channel yields raw thoughts, then a
// text, agreement or error response, then done, and is closed. A turn that runs
// past the context deadline ends with a cancelled error. Malformed transcripts
// are rejected before any work starts.
func (h *Handler) Stream(ctx context.Context, transcript buffer.Transcript) (<-chan models.StreamResponse, error) {
	if err := validate(transcript); err != nil {
		return nil, err
	}

	system, err := prompts.Creator(tools.NewDateTime(h.now()), h.tools.Describe())
	if err != nil {
		return nil, fmt.Errorf("creator prompt: %w", err)
	}

	k := kernel.New[models.Agreement](kernel.Config{
		Agent:     AgentName,
		System:    system,
		Schema:    actionSchema,
		AllowTalk: true,
		MaxSteps:  h.maxSteps,
	}, h.gen, h.tools)
	stream := k.Stream(ctx, transcript)

	deliver, cancel := kernel.DeliveryContext(ctx)
	out := make(chan models.StreamResponse)
	go func() {
		defer cancel()
		defer close(out)
		for ev := range stream.Events() {
			select {
			case out <- response(ev):
			case <-deliver.Done():
			}
		}
		res, err := stream.Wait()
		log.Debug().Str(logger.AgentNameField, AgentName).Str("state", string(res.State)).Int(logger.StepField, res.Steps).AnErr("error", err).Msg("creator turn finished")
	}()
	return out, nil
}

// Collect drains a stream for callers that want the whole turn at once.
func Collect(ch <-chan models.StreamResponse) []models.StreamResponse {
	var all []models.StreamResponse
	for r := range ch {
		all = append(all, r)
	}
	return all
}

func response(ev kernel.Event[models.Agreement]) models.StreamResponse {
	switch ev.Kind {
	case kernel.PlanningThought, kernel.ExecutionThought:
		return models.StreamResponse{Type: models.RawThought, Status: ev.Status, Description: ev.Description}
	case kernel.Text:
		return models.StreamResponse{Type: models.TextResponse, Text: ev.Text}
	case kernel.Final:
		return models.StreamResponse{Type: models.AgreementResult, Agreement: ev.Final}
	case kernel.Failure:
		return models.StreamResponse{Type: models.ErrorResponse, Error: models.NewError(ev.Err)}
	default:
		return models.StreamResponse{Type: models.DoneResponse}
	}
}

func validate(t buffer.Transcript) error {
	if t.Len() == 0 {
		return fmt.Errorf("%w: empty transcript", models.ErrBadInput)
	}
	return t.Validate()
}

// FinalAnswerMessage renders a previous agreement the way the model wrote it, so a
// follow-up turn can revise the current draft.
func FinalAnswerMessage(a models.Agreement) (buffer.Message, error) {
	b, err := json.Marshal(models.Action[models.Agreement]{Type: models.FinalAnswer, FinalAnswer: &a})
	if err != nil {
		return buffer.Message{}, fmt.Errorf("marshal agreement: %w", err)
	}
	return buffer.Message{Role: buffer.Assistant, Content: string(b)}, nil
}
