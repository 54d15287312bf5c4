package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	resolver "github.com/y-pakorn/friendwithbets/internal/agents/resolver/handler"
	"github.com/y-pakorn/friendwithbets/pkg/models"
)

// ResolveCmd resolves one market and prints the outcome as JSON.
type ResolveCmd struct {
	Agreement string `short:"a" long:"agreement" description:"market file, YAML or JSON" required:"true"`
}

type outcomeResolver interface {
	Resolve(ctx context.Context, market models.Market) (models.OutcomeSelection, error)
}

type resolveResult struct {
	Type    string                   `json:"type"`
	Message string                   `json:"message,omitempty"`
	Outcome *models.OutcomeSelection `json:"outcome,omitempty"`
}

func (c *ResolveCmd) Execute(_ []string) error {
	market, err := readMarket(c.Agreement)
	if err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	return resolveMarket(ctx, a.Resolver, market)
}

func resolveMarket(ctx context.Context, r outcomeResolver, market models.Market) error {
	sel, err := r.Resolve(ctx, market)
	res := resolveResult{Type: "success", Outcome: &sel}
	if errors.Is(err, resolver.ErrAlreadyResolved) {
		res = resolveResult{Type: "resolved", Message: "Market already resolved"}
	} else if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// readMarket decodes a market file. JSON files are valid YAML, so one decoder serves both.
func readMarket(path string) (models.Market, error) {
	var m models.Market
	b, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read market: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%w: decode market %s: %w", models.ErrBadInput, path, err)
	}
	return m, nil
}
