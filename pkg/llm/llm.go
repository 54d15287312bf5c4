// Package llm talks to chat-completion providers in JSON mode. Tool calling by
// the provider is never used: tool choice lives inside the model's JSON reply.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
)

const (
	ProviderLangChain = "langchain"
	ProviderOpenAI    = "openai"
)

var ErrEmptyResponse = errors.New("empty completion")

// Completer returns the raw text of one JSON-mode completion.
type Completer interface {
	Complete(ctx context.Context, system string, transcript buffer.Transcript) (string, error)
}

type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	// Timeout bounds a single completion call; zero means no bound beyond ctx.
	Timeout time.Duration
}

func New(cfg Config) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch cfg.Provider {
	case "", ProviderLangChain:
		c, err = NewLangChainFromConfig(cfg)
	case ProviderOpenAI:
		c = NewOpenAI(cfg)
	default:
		err = fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(c, cfg.Timeout), nil
}

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout bounds every call to c by d. A non-positive d returns c unchanged.
func WithTimeout(c Completer, d time.Duration) Completer {
	if d <= 0 {
		return c
	}
	return timeoutCompleter{next: c, timeout: d}
}

func (t timeoutCompleter) Complete(ctx context.Context, system string, transcript buffer.Transcript) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, system, transcript)
}
