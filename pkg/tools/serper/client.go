// Package serper is a small client for the serper.dev search and scrape APIs.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultSearchURL = "https://google.serper.dev/search"
	DefaultScrapeURL = "https://scrape.serper.dev"
)

type Config struct {
	APIKey            string
	SearchURL         string
	ScrapeURL         string
	RequestsPerSecond float64
	Timeout           time.Duration
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.ScrapeURL == "" {
		cfg.ScrapeURL = DefaultScrapeURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
	HL  string `json:"hl"`
	GL  string `json:"gl"`
}

type scrapeRequest struct {
	URL string `json:"url"`
}

// Search returns the raw result document without credit and echo metadata.
func (c *Client) Search(ctx context.Context, query string, num int) (map[string]any, error) {
	return c.post(ctx, c.cfg.SearchURL, searchRequest{Q: query, Num: num, HL: "en", GL: "us"}, "searchParameters", "credits")
}

// Scrape returns the extracted page content.
func (c *Client) Scrape(ctx context.Context, url string) (map[string]any, error) {
	return c.post(ctx, c.cfg.ScrapeURL, scrapeRequest{URL: url}, "credits")
}

func (c *Client) post(ctx context.Context, url string, body any, omit ...string) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return nil, fmt.Errorf("serper: status %d: %s", res.StatusCode, bytes.TrimSpace(b))
	}

	out := map[string]any{}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("serper: decode: %w", err)
	}
	for _, k := range omit {
		delete(out, k)
	}
	return out, nil
}
