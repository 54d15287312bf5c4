package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AgentSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friendwithbets_agent_steps_total",
			Help: "Kernel steps by agent and action type",
		},
		[]string{"agent", "action"},
	)

	AgentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friendwithbets_agent_runs_total",
			Help: "Finished agent runs by outcome",
		},
		[]string{"agent", "outcome"}, // outcome: text|final|<error kind>
	)

	GenerationRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friendwithbets_generation_retries_total",
			Help: "Structured output attempts that had to be retried",
		},
		[]string{"agent"},
	)

	ToolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friendwithbets_tool_calls_total",
			Help: "Tool dispatches by tool and status",
		},
		[]string{"tool", "status"}, // status: success|error
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "friendwithbets_tool_duration_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"tool"},
	)
)

func init() {
	prometheus.MustRegister(AgentSteps, AgentRuns, GenerationRetries, ToolCalls, ToolDuration)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
