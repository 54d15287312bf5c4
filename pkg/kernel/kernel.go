// Package kernel drives the plan, execute, observe cycle shared by the agents.
//
// Each step asks the generator for one action, appends it to the transcript and
// interprets it. EXECUTE fans its tasks out to the tool dispatcher and appends one
// observation per task, in task order. TALK and FINAL_ANSWER end the run.
package kernel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/y-pakorn/friendwithbets/pkg/generator"
	"github.com/y-pakorn/friendwithbets/pkg/logger"
	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
	"github.com/y-pakorn/friendwithbets/pkg/metrics"
	"github.com/y-pakorn/friendwithbets/pkg/models"
	"github.com/y-pakorn/friendwithbets/pkg/schema"
)

// DefaultMaxSteps bounds a run that never reaches a terminal action.
const DefaultMaxSteps = 20

type Generator interface {
	Generate(ctx context.Context, req generator.Request, out any) (generator.Result, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, name string, params map[string]any) (any, error)
}

type Config struct {
	Agent     string
	System    string
	Schema    *schema.Schema
	AllowTalk bool
	MaxSteps  int
}

type Result[F any] struct {
	State      models.State
	Transcript buffer.Transcript
	Text       string
	Final      *F
	Steps      int
}

type Kernel[F any] struct {
	cfg   Config
	gen   Generator
	tools Dispatcher
}

func New[F any](cfg Config, gen Generator, tools Dispatcher) *Kernel[F] {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	return &Kernel[F]{cfg: cfg, gen: gen, tools: tools}
}

// Run loops until a terminal action or error. A nil emit discards progress events.
// The returned transcript starts with a copy of the given one; the caller's slice is never written.
func (k *Kernel[F]) Run(ctx context.Context, transcript buffer.Transcript, emit Emitter[F]) (Result[F], error) {
	l := log.With().Str(logger.AgentNameField, k.cfg.Agent).Logger()
	res := Result[F]{State: models.Thinking, Transcript: transcript.Clone()}

	fail := func(err error) (Result[F], error) {
		res.State = models.Failed
		metrics.AgentRuns.WithLabelValues(k.cfg.Agent, models.Kind(err)).Inc()
		l.Warn().Err(err).Int(logger.StepField, res.Steps).Msg("agent run failed")
		return res, err
	}

	for res.Steps < k.cfg.MaxSteps {
		if err := ctx.Err(); err != nil {
			return fail(cancelled(err))
		}

		var action models.Action[F]
		gen, err := k.gen.Generate(ctx, generator.Request{
			Agent:      k.cfg.Agent,
			System:     k.cfg.System,
			Transcript: res.Transcript,
			Schema:     k.cfg.Schema,
		}, &action)
		if err != nil {
			return fail(err)
		}
		res.Steps++

		text, err := action.Transcript()
		if err != nil {
			return fail(err)
		}
		res.Transcript.Add(buffer.Message{Role: buffer.Assistant, Content: text})
		metrics.AgentSteps.WithLabelValues(k.cfg.Agent, string(action.Type)).Inc()
		l.Debug().Int(logger.StepField, res.Steps).Str(logger.ActionField, string(action.Type)).Int("attempts", gen.Attempts).Msg("step")

		if err := action.Validate(); err != nil {
			return fail(err)
		}

		switch action.Type {
		case models.HighLevelPlanning:
			p := action.Planning
			if err := send(ctx, emit, Event[F]{Kind: PlanningThought, Status: p.Label, Description: p.ObservationReflection}); err != nil {
				return fail(err)
			}
		case models.Execute:
			e := action.Execution
			res.State = models.Acting
			if err := send(ctx, emit, Event[F]{Kind: ExecutionThought, Status: e.Label, Description: e.Thought}); err != nil {
				return fail(err)
			}
			observations, err := k.execute(ctx, l, e.Tasks)
			if err != nil {
				return fail(err)
			}
			for _, o := range observations {
				res.Transcript.Add(buffer.Message{Role: buffer.Assistant, Content: o})
			}
			res.State = models.Thinking
		case models.Talk:
			if !k.cfg.AllowTalk {
				return fail(fmt.Errorf("%w: %s agent cannot talk", models.ErrProtocolViolation, k.cfg.Agent))
			}
			if err := send(ctx, emit, Event[F]{Kind: Text, Text: *action.Talk}); err != nil {
				return fail(err)
			}
			res.Text = *action.Talk
			res.State = models.Talked
			metrics.AgentRuns.WithLabelValues(k.cfg.Agent, "text").Inc()
			return res, nil
		case models.FinalAnswer:
			if err := send(ctx, emit, Event[F]{Kind: Final, Final: action.FinalAnswer}); err != nil {
				return fail(err)
			}
			res.Final = action.FinalAnswer
			res.State = models.Answered
			metrics.AgentRuns.WithLabelValues(k.cfg.Agent, "final").Inc()
			return res, nil
		}
	}

	return fail(fmt.Errorf("%w: %d steps without an answer", models.ErrInfiniteLoop, k.cfg.MaxSteps))
}

func logTask(l zerolog.Logger, t models.Task) *zerolog.Event {
	return l.Debug().Str(logger.ToolField, t.TaskTool).Interface("parameters", t.TaskToolParameters)
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", models.ErrCancelled, err)
}
