package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/y-pakorn/friendwithbets/pkg/models"
)

const (
	CurrentDateTimeName = "current_date_time"
	GoogleSearchName    = "google_search"
	NavigateToURLName   = "navigate_to_url"

	defaultSearchResults = 10
	maxSearchResults     = 100
)

type Searcher interface {
	Search(ctx context.Context, query string, num int) (map[string]any, error)
}

type Scraper interface {
	Scrape(ctx context.Context, url string) (map[string]any, error)
}

// WebClient is what the serper client provides.
type WebClient interface {
	Searcher
	Scraper
}

// Standard returns the default catalogue: clock, search and page fetch.
func Standard(web WebClient, now func() time.Time) (*Catalogue, error) {
	return New(CurrentDateTime(now), GoogleSearch(web), NavigateToURL(web))
}

type DateTime struct {
	ISO string `json:"iso"`
	UTC string `json:"utc"`
}

func NewDateTime(t time.Time) DateTime {
	t = t.UTC()
	return DateTime{
		ISO: t.Format("2006-01-02T15:04:05.000Z"),
		UTC: t.Format(http.TimeFormat),
	}
}

func CurrentDateTime(now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return Tool{
		Name:        CurrentDateTimeName,
		Description: "Get the current date and time.",
		Execute: func(context.Context, map[string]any) (any, error) {
			return NewDateTime(now()), nil
		},
	}
}

func GoogleSearch(s Searcher) Tool {
	return Tool{
		Name:        GoogleSearchName,
		Description: "Uses Google Search to return the most relevant web pages for a given query. Useful for finding up-to-date news and information about any topic.",
		Parameters: []Parameter{
			{Name: "query", Type: "string", Description: "Search query, be precise and clear."},
			{Name: "num", Type: "integer", Description: "Number of results to return.", Optional: true, Default: defaultSearchResults, Minimum: ptr(1), Maximum: ptr(maxSearchResults)},
		},
		Execute: func(ctx context.Context, params map[string]any) (any, error) {
			num, err := intParam(params, "num", defaultSearchResults)
			if err != nil {
				return nil, err
			}
			return s.Search(ctx, stringParam(params, "query"), num)
		},
	}
}

func NavigateToURL(s Scraper) Tool {
	return Tool{
		Name:        NavigateToURLName,
		Description: "Navigate to the given URL and return the content of the page.",
		Parameters: []Parameter{
			{Name: "url", Type: "string", Description: "URL of the page to navigate to."},
		},
		Execute: func(ctx context.Context, params map[string]any) (any, error) {
			raw := stringParam(params, "url")
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, fmt.Errorf("%w: %q is not an http(s) url", models.ErrBadToolParameters, raw)
			}
			return s.Scrape(ctx, u.String())
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
