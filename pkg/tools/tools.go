// Package tools is the catalogue of side-effectful operations the agents may ask for.
package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/y-pakorn/friendwithbets/pkg/logger"
	"github.com/y-pakorn/friendwithbets/pkg/metrics"
	"github.com/y-pakorn/friendwithbets/pkg/models"
	"github.com/y-pakorn/friendwithbets/pkg/schema"
	"github.com/y-pakorn/friendwithbets/pkg/template"
)

type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Optional    bool   `json:"optional,omitempty"`
	Default     any    `json:"default,omitempty"`
	Minimum     *int   `json:"minimum,omitempty"`
	Maximum     *int   `json:"maximum,omitempty"`
}

type ExecuteFunc func(ctx context.Context, params map[string]any) (any, error)

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Execute     ExecuteFunc `json:"-"`
}

// Schema is the JSON schema the tool's parameters are validated against.
func (t Tool) Schema() schema.Document {
	props := schema.Document{}
	required := []string{}
	for _, p := range t.Parameters {
		d := schema.Document{"type": p.Type}
		if p.Description != "" {
			d["description"] = p.Description
		}
		if p.Minimum != nil {
			d["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			d["maximum"] = *p.Maximum
		}
		props[p.Name] = d
		if !p.Optional {
			required = append(required, p.Name)
		}
	}
	d := schema.Document{"type": "object", "properties": props}
	if len(required) > 0 {
		d["required"] = required
	}
	return d
}

type Catalogue struct {
	tools   []Tool
	index   map[string]int
	schemas []*schema.Schema
}

func New(tools ...Tool) (*Catalogue, error) {
	c := &Catalogue{index: map[string]int{}}
	for _, t := range tools {
		if _, dup := c.index[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		if t.Execute == nil {
			return nil, fmt.Errorf("tool %q has no executor", t.Name)
		}
		s, err := schema.Compile(t.Schema())
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", t.Name, err)
		}
		c.index[t.Name] = len(c.tools)
		c.tools = append(c.tools, t)
		c.schemas = append(c.schemas, s)
	}
	return c, nil
}

// Tools lists the catalogue in registration order.
func (c *Catalogue) Tools() []Tool {
	return append([]Tool(nil), c.tools...)
}

const describeTemplate = `{{range $i, $t := .}}
Tool {{$i}}: {{$t.Name}}
Description: {{$t.Description}}
{{- if $t.Parameters}}
Parameters:
{{- range $j, $p := $t.Parameters}}{{if $j}},{{end}}
"{{$p.Name}}"{{if $p.Optional}}?{{end}}: {{$p.Description}}
{{- end}}
{{- end}}
{{end}}`

// Describe renders the catalogue for the system prompt.
func (c *Catalogue) Describe() string {
	out, err := template.Parse(describeTemplate, c.tools)
	if err != nil {
		// the template is constant; a failure here is a programming error
		panic(err)
	}
	return out
}

// Dispatch validates params against the tool's schema and runs it. Failures are
// wrapped in ErrUnknownTool, ErrBadToolParameters or ErrToolExecutionFailed.
func (c *Catalogue) Dispatch(ctx context.Context, name string, params map[string]any) (result any, err error) {
	i, ok := c.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownTool, name)
	}
	t := c.tools[i]

	args := make(map[string]any, len(params)+len(t.Parameters))
	for k, v := range params {
		args[k] = v
	}
	for _, p := range t.Parameters {
		if _, set := args[p.Name]; !set && p.Default != nil {
			args[p.Name] = p.Default
		}
	}
	if err := c.schemas[i].ValidateValue(args); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrBadToolParameters, name, err)
	}

	l := log.With().Str(logger.ToolField, name).Logger()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s panicked: %v", models.ErrToolExecutionFailed, name, r)
		}
		status := "success"
		if err != nil {
			status = "error"
			l.Warn().Err(err).Msg("tool failed")
		}
		metrics.ToolCalls.WithLabelValues(name, status).Inc()
		metrics.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		l.Debug().Dur(logger.DurationField, time.Since(start)).Msg("tool finished")
	}()

	result, err = t.Execute(ctx, args)
	if err != nil && !errors.Is(err, models.ErrBadToolParameters) {
		err = fmt.Errorf("%w: %s: %w", models.ErrToolExecutionFailed, name, err)
	}
	return result, err
}

func stringParam(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return s
}

func intParam(params map[string]any, name string, fallback int) (int, error) {
	switch v := params[name].(type) {
	case nil:
		return fallback, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", models.ErrBadToolParameters, name, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", models.ErrBadToolParameters, name, v)
	}
}
