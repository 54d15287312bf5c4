package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y-pakorn/friendwithbets/pkg/generator"
	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
	"github.com/y-pakorn/friendwithbets/pkg/models"
	"github.com/y-pakorn/friendwithbets/pkg/tools"
)

const (
	planReply = `{"type":"HIGH_LEVEL_PLANNING","HIGH_LEVEL_PLANNING":{"label":"Planning","name":"p","currentStateOfExecution":"s","observationReflection":"nothing yet","memory":null,"plan":"check time","planReasoning":"dates"}}`
	execReply = `{"type":"EXECUTE","EXECUTE":{"label":"Checking the date","name":"e","thought":"need now","tasks":[{"taskTool":"current_date_time","taskToolParameters":{},"taskThought":"t"}]}}`
	talkReply = `{"type":"TALK","TALK":"What should the bet be about?"}`
)

func finalReply(title string) string {
	return fmt.Sprintf(`{"type":"FINAL_ANSWER","FINAL_ANSWER":{"title":%q,"rules":"r","description":"d","relevantInformation":"i","startAt":"2025-01-01T00:00:00.000Z","betEndAt":"2025-01-02T00:00:00.000Z","resolveAt":"2025-01-03T00:00:00.000Z","resolveQuery":"q","resolveSources":["https://example.com"],"outcomes":[{"title":"Yes","description":"y"},{"title":"No","description":"n"}]}}`, title)
}

type scriptedLLM struct {
	mu          sync.Mutex
	replies     []string
	systems     []string
	transcripts []buffer.Transcript
}

func (s *scriptedLLM) Complete(ctx context.Context, system string, t buffer.Transcript) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.systems = append(s.systems, system)
	s.transcripts = append(s.transcripts, t.Clone())
	if len(s.systems) > len(s.replies) {
		return "", fmt.Errorf("no reply scripted")
	}
	return s.replies[len(s.systems)-1], nil
}

func newHandler(t *testing.T, llm *scriptedLLM) *Handler {
	catalogue, err := tools.New(tools.Tool{
		Name:        tools.CurrentDateTimeName,
		Description: "Get the current date and time.",
		Execute: func(context.Context, map[string]any) (any, error) {
			return map[string]string{"iso": "2025-01-01T00:00:00Z"}, nil
		},
	})
	require.NoError(t, err)

	h := New(generator.New(llm, 0), catalogue, 0)
	h.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return h
}

func TestStream_Talk(t *testing.T) {
	llm := &scriptedLLM{replies: []string{talkReply}}
	ch, err := newHandler(t, llm).Stream(context.Background(), buffer.New(buffer.Message{Role: buffer.User, Content: "hi"}))
	require.NoError(t, err)

	got := Collect(ch)
	assert.Equal(t, []models.StreamResponse{
		{Type: models.TextResponse, Text: "What should the bet be about?"},
		{Type: models.DoneResponse},
	}, got)
}

func TestStream_Agreement(t *testing.T) {
	llm := &scriptedLLM{replies: []string{planReply, execReply, finalReply("T")}}
	ch, err := newHandler(t, llm).Stream(context.Background(), buffer.New(buffer.Message{Role: buffer.User, Content: "will it rain?"}))
	require.NoError(t, err)

	got := Collect(ch)
	require.Len(t, got, 4)
	assert.Equal(t, models.StreamResponse{Type: models.RawThought, Status: "Planning", Description: "nothing yet"}, got[0])
	assert.Equal(t, models.StreamResponse{Type: models.RawThought, Status: "Checking the date", Description: "need now"}, got[1])
	assert.Equal(t, models.AgreementResult, got[2].Type)
	require.NotNil(t, got[2].Agreement)
	assert.Equal(t, "T", got[2].Agreement.Title)
	assert.Len(t, got[2].Agreement.Outcomes, 2)
	assert.Equal(t, models.DoneResponse, got[3].Type)

	last := llm.transcripts[2]
	require.Equal(t, 4, last.Len())
	assert.True(t, strings.HasPrefix(last.Items[3].Content, "TOOL_NAME: current_date_time\n"))
}

func TestStream_SystemPrompt(t *testing.T) {
	llm := &scriptedLLM{replies: []string{talkReply}}
	ch, err := newHandler(t, llm).Stream(context.Background(), buffer.New(buffer.Message{Role: buffer.User, Content: "hi"}))
	require.NoError(t, err)
	Collect(ch)

	require.Len(t, llm.systems, 1)
	system := llm.systems[0]
	assert.Contains(t, system, "Current date: 2025-01-01T00:00:00.000Z, Wed, 01 Jan 2025 00:00:00 GMT")
	assert.Contains(t, system, "Tool 0: current_date_time")
	assert.Contains(t, system, "YOU MUST ALWAYS DO HIGH_LEVEL_PLANNING AFTER EVERY USER MESSAGE.")
	assert.Contains(t, system, `"TALK"`)
}

func TestStream_GenerationFailure(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"no", "no", "no", "no", "no", "no"}}
	ch, err := newHandler(t, llm).Stream(context.Background(), buffer.New(buffer.Message{Role: buffer.User, Content: "hi"}))
	require.NoError(t, err)

	got := Collect(ch)
	require.Len(t, got, 2)
	assert.Equal(t, models.ErrorResponse, got[0].Type)
	require.NotNil(t, got[0].Error)
	assert.Equal(t, "generation_failed", got[0].Error.Kind)
	assert.Equal(t, models.DoneResponse, got[1].Type)
	assert.Len(t, llm.systems, 6)
}

func TestStream_BadInput(t *testing.T) {
	h := newHandler(t, &scriptedLLM{})

	_, err := h.Stream(context.Background(), buffer.Transcript{})
	assert.ErrorIs(t, err, models.ErrBadInput)

	_, err = h.Stream(context.Background(), buffer.New(buffer.Message{Role: "system", Content: "x"}))
	assert.ErrorIs(t, err, models.ErrBadInput)
}

func TestStream_ReentryKeepsPriorAnswer(t *testing.T) {
	prior, err := FinalAnswerMessage(models.Agreement{
		Title:        "Will it rain in Bangkok today?",
		ResolveQuery: "rain in bangkok",
		Outcomes:     []models.Outcome{{Title: "Yes"}, {Title: "No"}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prior.Content, `{"type":"FINAL_ANSWER","FINAL_ANSWER":{`))

	transcript := buffer.New(
		buffer.Message{Role: buffer.User, Content: "will it rain in bangkok today"},
		prior,
		buffer.Message{Role: buffer.User, Content: "make it by end of year"},
	)
	before := transcript.Clone()

	llm := &scriptedLLM{replies: []string{planReply, finalReply("Will it rain in Bangkok by end of year?")}}
	ch, err := newHandler(t, llm).Stream(context.Background(), transcript)
	require.NoError(t, err)
	got := Collect(ch)
	require.Len(t, got, 3)
	assert.Equal(t, "Will it rain in Bangkok by end of year?", got[1].Agreement.Title)

	assert.Equal(t, before, transcript)
	for _, seen := range llm.transcripts {
		assert.Equal(t, prior, seen.Items[1])
	}
	assert.Equal(t, 4, llm.transcripts[1].Len())
}

type blockingLLM struct {
	started chan struct{}
}

func (b *blockingLLM) Complete(ctx context.Context, _ string, _ buffer.Transcript) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestStream_Cancel(t *testing.T) {
	llm := &blockingLLM{started: make(chan struct{})}
	catalogue, err := tools.New()
	require.NoError(t, err)
	h := New(generator.New(llm, 0), catalogue, 0)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := h.Stream(ctx, buffer.New(buffer.Message{Role: buffer.User, Content: "hi"}))
	require.NoError(t, err)

	<-llm.started
	cancel()

	select {
	case r, ok := <-ch:
		assert.False(t, ok, "unexpected response %+v", r)
	case <-time.After(time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func TestStream_Timeout(t *testing.T) {
	llm := &blockingLLM{started: make(chan struct{})}
	catalogue, err := tools.New()
	require.NoError(t, err)
	h := New(generator.New(llm, 0), catalogue, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ch, err := h.Stream(ctx, buffer.New(buffer.Message{Role: buffer.User, Content: "hi"}))
	require.NoError(t, err)

	got := Collect(ch)
	require.Len(t, got, 2)
	assert.Equal(t, models.ErrorResponse, got[0].Type)
	require.NotNil(t, got[0].Error)
	assert.Equal(t, "cancelled", got[0].Error.Kind)
	assert.Equal(t, models.DoneResponse, got[1].Type)
}
