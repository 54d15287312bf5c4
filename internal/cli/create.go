package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	creator "github.com/y-pakorn/friendwithbets/internal/agents/creator/handler"
	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
	"github.com/y-pakorn/friendwithbets/pkg/models"
)

// CreateCmd chats with the creator agent. Every turn sees the whole conversation,
// including agreements drafted earlier, so follow-ups can revise them.
type CreateCmd struct {
	Query string `short:"q" long:"query" description:"single user message; omit for an interactive chat"`
	Quiet bool   `long:"quiet" description:"do not print intermediate thoughts"`
}

type streamer interface {
	Stream(ctx context.Context, transcript buffer.Transcript) (<-chan models.StreamResponse, error)
}

func (c *CreateCmd) Execute(_ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	s := &chatSession{creator: a.Creator, out: stdout, timeout: a.Config.Agent.CreateTimeout, quiet: c.Quiet}
	if c.Query != "" {
		return s.turn(ctx, c.Query)
	}
	return s.run(ctx, stdin)
}

type chatSession struct {
	creator    streamer
	out        io.Writer
	timeout    time.Duration
	quiet      bool
	transcript buffer.Transcript
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := s.turn(ctx, line); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// turn sends one user message and records the reply. Agent failures are printed
// and leave the transcript as it was, so the user can rephrase.
func (s *chatSession) turn(ctx context.Context, text string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	next := s.transcript.Clone()
	next.Add(buffer.Message{Role: buffer.User, Content: text})

	ch, err := s.creator.Stream(ctx, next)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return nil
	}

	var reply *buffer.Message
	for r := range ch {
		switch r.Type {
		case models.RawThought:
			if !s.quiet {
				fmt.Fprintf(s.out, "... %s: %s\n", r.Status, r.Description)
			}
		case models.TextResponse:
			fmt.Fprintln(s.out, r.Text)
			reply = &buffer.Message{Role: buffer.Assistant, Content: r.Text}
		case models.AgreementResult:
			b, err := json.MarshalIndent(r.Agreement, "", "  ")
			if err != nil {
				return fmt.Errorf("print agreement: %w", err)
			}
			fmt.Fprintln(s.out, string(b))
			m, err := creator.FinalAnswerMessage(*r.Agreement)
			if err != nil {
				return err
			}
			reply = &m
		case models.ErrorResponse:
			fmt.Fprintf(s.out, "error: %s (%s)\n", r.Error.Message, r.Error.Kind)
		}
	}

	if reply != nil {
		next.Add(*reply)
		s.transcript = next
	}
	return nil
}
