package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
)

type LangChain struct {
	model       llms.Model
	temperature float64
}

// NewLangChainFromConfig targets any OpenAI-compatible endpoint, OpenRouter by default.
func NewLangChainFromConfig(cfg Config) (*LangChain, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain openai: %w", err)
	}
	return NewLangChain(model, cfg.Temperature), nil
}

func NewLangChain(model llms.Model, temperature float64) *LangChain {
	return &LangChain{model: model, temperature: temperature}
}

func (l *LangChain) Complete(ctx context.Context, system string, transcript buffer.Transcript) (string, error) {
	msgs := make([]llms.MessageContent, 0, transcript.Len()+1)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, m := range transcript.Items {
		role := llms.ChatMessageTypeHuman
		if m.Role == buffer.Assistant {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, m.Content))
	}

	resp, err := l.model.GenerateContent(ctx, msgs, llms.WithJSONMode(), llms.WithTemperature(l.temperature))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
