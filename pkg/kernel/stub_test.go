package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/y-pakorn/friendwithbets/pkg/generator"
	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
	"github.com/y-pakorn/friendwithbets/pkg/models"
)

// scriptedGenerator replays actions in order and records every request it saw.
type scriptedGenerator struct {
	mu       sync.Mutex
	script   []string
	requests []generator.Request
}

func script(actions ...any) *scriptedGenerator {
	g := &scriptedGenerator{}
	for _, a := range actions {
		switch v := a.(type) {
		case string:
			g.script = append(g.script, v)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				panic(err)
			}
			g.script = append(g.script, string(b))
		}
	}
	return g
}

func (g *scriptedGenerator) Generate(ctx context.Context, req generator.Request, out any) (generator.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return generator.Result{}, fmt.Errorf("%w: %w", models.ErrCancelled, err)
	}
	req.Transcript = req.Transcript.Clone()
	g.requests = append(g.requests, req)
	if len(g.requests) > len(g.script) {
		return generator.Result{}, fmt.Errorf("%w: script exhausted", models.ErrGenerationFailed)
	}
	raw := g.script[len(g.requests)-1]
	return generator.Result{Raw: raw, Attempts: 1}, json.Unmarshal([]byte(raw), out)
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// blockingGenerator waits for cancellation.
type blockingGenerator struct {
	started chan struct{}
}

func (g *blockingGenerator) Generate(ctx context.Context, _ generator.Request, _ any) (generator.Result, error) {
	close(g.started)
	<-ctx.Done()
	return generator.Result{}, fmt.Errorf("%w: %w", models.ErrCancelled, ctx.Err())
}

type toolFunc func(ctx context.Context, params map[string]any) (any, error)

type stubTools map[string]toolFunc

func (s stubTools) Dispatch(ctx context.Context, name string, params map[string]any) (any, error) {
	f, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownTool, name)
	}
	return f(ctx, params)
}

func planning(label string) models.Action[models.Agreement] {
	return models.Action[models.Agreement]{
		Type: models.HighLevelPlanning,
		Planning: &models.Planning{
			Label:                   label,
			Name:                    "plan",
			CurrentStateOfExecution: "start",
			ObservationReflection:   "reflect " + label,
			Plan:                    "look things up",
			PlanReasoning:           "because",
		},
	}
}

func execute(label string, tasks ...models.Task) models.Action[models.Agreement] {
	return models.Action[models.Agreement]{
		Type:      models.Execute,
		Execution: &models.Execution{Label: label, Name: "exec", Thought: "thinking " + label, Tasks: tasks},
	}
}

func task(tool string, params map[string]any) models.Task {
	return models.Task{TaskTool: tool, TaskToolParameters: params, TaskThought: "need " + tool}
}

func talk(text string) models.Action[models.Agreement] {
	return models.Action[models.Agreement]{Type: models.Talk, Talk: &text}
}

func final(title string) models.Action[models.Agreement] {
	return models.Action[models.Agreement]{
		Type: models.FinalAnswer,
		FinalAnswer: &models.Agreement{
			Title:        title,
			ResolveQuery: "q",
			Outcomes:     []models.Outcome{{Title: "Yes"}, {Title: "No"}},
		},
	}
}

func userSays(text string) buffer.Transcript {
	return buffer.New(buffer.Message{Role: buffer.User, Content: text})
}

func creatorKernel(gen Generator, tools Dispatcher) *Kernel[models.Agreement] {
	return New[models.Agreement](Config{Agent: "creator", System: "system", AllowTalk: true}, gen, tools)
}

func drain[F any](s *Stream[F]) []Event[F] {
	var out []Event[F]
	for ev := range s.Events() {
		out = append(out, ev)
	}
	return out
}

func within(d time.Duration, f func()) bool {
	done := make(chan struct{})
	go func() {
		f()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
