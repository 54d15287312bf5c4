package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "btc price", body["q"])
		assert.EqualValues(t, 3, body["num"])
		assert.Equal(t, "en", body["hl"])
		_, _ = w.Write([]byte(`{"organic":[{"title":"t"}],"searchParameters":{"q":"btc price"},"credits":1}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "secret", SearchURL: srv.URL})
	out, err := c.Search(context.Background(), "btc price", 3)
	require.NoError(t, err)
	assert.Contains(t, out, "organic")
	assert.NotContains(t, out, "searchParameters")
	assert.NotContains(t, out, "credits")
}

func TestClient_Scrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"page body","metadata":{"title":"x"},"credits":2}`))
	}))
	defer srv.Close()

	out, err := New(Config{ScrapeURL: srv.URL}).Scrape(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "page body", out["text"])
	assert.NotContains(t, out, "credits")
}

func TestClient_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	_, err := New(Config{SearchURL: srv.URL}).Search(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := New(Config{ScrapeURL: srv.URL}).Scrape(context.Background(), "https://example.com")
	assert.Error(t, err)
}
