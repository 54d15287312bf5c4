package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
)

type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	reply    string
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangChain_Complete(t *testing.T) {
	model := &fakeModel{reply: `{"type":"TALK","TALK":"hi"}`}
	c := NewLangChain(model, 0.2)

	out, err := c.Complete(context.Background(), "system", buffer.New(
		buffer.Message{Role: buffer.User, Content: "hello"},
		buffer.Message{Role: buffer.Assistant, Content: "{}"},
	))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"TALK","TALK":"hi"}`, out)

	require.Len(t, model.messages, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, model.messages[2].Role)
	assert.True(t, model.opts.JSONMode)
}

func TestLangChain_EmptyReply(t *testing.T) {
	c := NewLangChain(&fakeModel{}, 0)
	_, err := c.Complete(context.Background(), "s", buffer.Transcript{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAI_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI(Config{APIKey: "key", BaseURL: srv.URL + "/", Model: "m"})
	out, err := c.Complete(context.Background(), "sys", buffer.New(buffer.Message{Role: buffer.User, Content: "hi"}))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "m", got["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	assert.Len(t, got["messages"], 2)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

type waitForDeadline struct{}

func (waitForDeadline) Complete(ctx context.Context, _ string, _ buffer.Transcript) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	_, err := WithTimeout(waitForDeadline{}, 10*time.Millisecond).Complete(context.Background(), "", buffer.Transcript{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c := waitForDeadline{}
	assert.Equal(t, Completer(c), WithTimeout(c, 0))
}
