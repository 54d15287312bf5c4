package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/y-pakorn/friendwithbets/pkg/data"
	"github.com/y-pakorn/friendwithbets/pkg/llm"
	"github.com/y-pakorn/friendwithbets/pkg/logger"
	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
	"github.com/y-pakorn/friendwithbets/pkg/metrics"
	"github.com/y-pakorn/friendwithbets/pkg/models"
	"github.com/y-pakorn/friendwithbets/pkg/schema"
)

// MaxRetries is how many failed attempts are retried before giving up.
const MaxRetries = 5

type Request struct {
	Agent      string
	System     string
	Transcript buffer.Transcript
	Schema     *schema.Schema
}

// Result carries the accepted reply and the errors of every rejected attempt before it.
type Result struct {
	Raw      string
	Attempts int
	Retries  []error
}

type Generator struct {
	llm        llm.Completer
	maxRetries int
}

func New(completer llm.Completer, maxRetries int) *Generator {
	if maxRetries <= 0 {
		maxRetries = MaxRetries
	}
	return &Generator{llm: completer, maxRetries: maxRetries}
}

// Generate asks the model until a reply validates against req.Schema, then decodes it into out.
func (g *Generator) Generate(ctx context.Context, req Request, out any) (Result, error) {
	l := log.With().Str(logger.AgentNameField, req.Agent).Logger()
	system := req.System + formatHint(req.Schema)

	var res Result
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return res, cancelled(err)
		}
		if attempt > 0 {
			metrics.GenerationRetries.WithLabelValues(req.Agent).Inc()
		}
		res.Attempts++

		raw, err := g.llm.Complete(ctx, system, req.Transcript)
		if err == nil {
			err = decode(raw, req.Schema, out)
			if err == nil {
				res.Raw = raw
				return res, nil
			}
		} else if ctx.Err() != nil {
			return res, cancelled(ctx.Err())
		}

		res.Retries = append(res.Retries, err)
		l.Warn().Err(err).Int("attempt", res.Attempts).Msg("rejected model reply")
	}

	return res, fmt.Errorf("%w after %d attempts: %w", models.ErrGenerationFailed, res.Attempts, errors.Join(res.Retries...))
}

func decode(raw string, s *schema.Schema, out any) error {
	obj, err := data.SanitizeAnswer(raw)
	if err != nil {
		return fmt.Errorf("sanitize: %w", err)
	}
	if s != nil {
		if err := s.Validate([]byte(obj)); err != nil {
			return err
		}
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

func formatHint(s *schema.Schema) string {
	if s == nil {
		return ""
	}
	return "\n\nRESPONSE FORMAT:\nRespond with exactly one JSON object that matches this JSON schema:\n" + s.String() + "\n"
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", models.ErrCancelled, err)
}
