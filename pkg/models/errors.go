package models

import (
	"errors"
	"time"
)

var (
	// ErrBadInput is returned before any loop is started: malformed transcript or market.
	ErrBadInput = errors.New("bad input")

	// ErrGenerationFailed means the model never produced a schema-valid action within the retry budget.
	ErrGenerationFailed = errors.New("generation failed")

	ErrBadToolParameters   = errors.New("bad tool parameters")
	ErrUnknownTool         = errors.New("unknown tool")
	ErrToolExecutionFailed = errors.New("tool execution failed")

	// ErrProtocolViolation covers actions that are well-formed JSON but not allowed in context,
	// e.g. TALK from the resolver or a tag without its payload.
	ErrProtocolViolation = errors.New("protocol violation")

	ErrCancelled    = errors.New("cancelled")
	ErrInfiniteLoop = errors.New("step limit reached")
)

// Kind names the error kind of err, "internal" when it is none of the known kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrBadInput):
		return "bad_input"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrProtocolViolation):
		return "protocol_violation"
	case errors.Is(err, ErrInfiniteLoop):
		return "infinite_loop"
	case errors.Is(err, ErrUnknownTool):
		return "unknown_tool"
	case errors.Is(err, ErrBadToolParameters):
		return "bad_tool_parameters"
	case errors.Is(err, ErrToolExecutionFailed):
		return "tool_execution_failed"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    string     `json:"kind"`
	Message string     `json:"message"`
	Time    *time.Time `json:"time,omitempty"`
}

func NewError(err error) *Error {
	if err == nil {
		return nil
	}
	t := time.Now().UTC()
	return &Error{Kind: Kind(err), Message: err.Error(), Time: &t}
}
