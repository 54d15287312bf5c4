package kernel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/y-pakorn/friendwithbets/pkg/models"
)

// execute runs all tasks concurrently and returns their observations in task order.
// Tasks are detached from ctx: once dispatched they run to completion, but if ctx
// ends first their observations are dropped.
func (k *Kernel[F]) execute(ctx context.Context, l zerolog.Logger, tasks []models.Task) ([]string, error) {
	observations := make([]string, len(tasks))
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	for i, task := range tasks {
		logTask(l, task).Msg("dispatching task")
		g.Go(func() error {
			out, err := k.tools.Dispatch(detached, task.TaskTool, task.TaskToolParameters)
			observations[i] = Observation(task, out, err)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}
		return observations, nil
	case <-ctx.Done():
		return nil, cancelled(ctx.Err())
	}
}

type toolFailure struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Observation renders one tool result as a transcript entry. Failures are
// recorded in TOOL_RESPONSE so the model can correct itself on the next step.
func Observation(task models.Task, out any, err error) string {
	params := task.TaskToolParameters
	if params == nil {
		params = map[string]any{}
	}
	p, perr := json.Marshal(params)
	if perr != nil {
		p = []byte("{}")
	}

	var response any = out
	if err != nil {
		response = toolFailure{Error: err.Error(), Kind: models.Kind(err)}
	}
	body, merr := json.MarshalIndent(response, "", "  ")
	if merr != nil {
		body, _ = json.MarshalIndent(toolFailure{
			Error: fmt.Sprintf("tool response is not serialisable: %v", merr),
			Kind:  models.Kind(models.ErrToolExecutionFailed),
		}, "", "  ")
	}

	return fmt.Sprintf("TOOL_NAME: %s\nTASK_TOOL_PARAMETERS: %s\nTOOL_RESPONSE: %s", task.TaskTool, p, body)
}
