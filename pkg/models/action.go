package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ActionType string

const (
	HighLevelPlanning ActionType = "HIGH_LEVEL_PLANNING"
	Execute           ActionType = "EXECUTE"
	Talk              ActionType = "TALK"
	FinalAnswer       ActionType = "FINAL_ANSWER"
)

type Planning struct {
	Label                   string  `json:"label"`
	Name                    string  `json:"name"`
	CurrentStateOfExecution string  `json:"currentStateOfExecution"`
	ObservationReflection   string  `json:"observationReflection"`
	Memory                  *string `json:"memory"`
	Plan                    string  `json:"plan"`
	PlanReasoning           string  `json:"planReasoning"`
}

type Task struct {
	TaskTool           string         `json:"taskTool"`
	TaskToolParameters map[string]any `json:"taskToolParameters"`
	TaskThought        string         `json:"taskThought"`
}

type Execution struct {
	Label   string `json:"label"`
	Name    string `json:"name"`
	Thought string `json:"thought"`
	Tasks   []Task `json:"tasks"`
}

// Action is one structured reply of the model. Type selects the payload; the
// other payloads are dropped when decoding and never encoded.
type Action[F any] struct {
	Type        ActionType `json:"type"`
	Planning    *Planning  `json:"HIGH_LEVEL_PLANNING,omitempty"`
	Execution   *Execution `json:"EXECUTE,omitempty"`
	Talk        *string    `json:"TALK,omitempty"`
	FinalAnswer *F         `json:"FINAL_ANSWER,omitempty"`
}

type actionFields[F any] Action[F]

func (a Action[F]) MarshalJSON() ([]byte, error) {
	return json.Marshal(actionFields[F](a.selected()))
}

func (a *Action[F]) UnmarshalJSON(b []byte) error {
	var f actionFields[F]
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = Action[F](f).selected()
	return nil
}

func (a Action[F]) selected() Action[F] {
	out := Action[F]{Type: a.Type}
	switch a.Type {
	case HighLevelPlanning:
		out.Planning = a.Planning
	case Execute:
		out.Execution = a.Execution
	case Talk:
		out.Talk = a.Talk
	case FinalAnswer:
		out.FinalAnswer = a.FinalAnswer
	}
	return out
}

// Validate checks that the payload named by Type is present.
func (a Action[F]) Validate() error {
	var ok bool
	switch a.Type {
	case HighLevelPlanning:
		ok = a.Planning != nil
	case Execute:
		ok = a.Execution != nil
	case Talk:
		ok = a.Talk != nil && strings.TrimSpace(*a.Talk) != ""
	case FinalAnswer:
		ok = a.FinalAnswer != nil
	default:
		return fmt.Errorf("%w: unknown action type %q", ErrProtocolViolation, a.Type)
	}
	if !ok {
		return fmt.Errorf("%w: action %s has no %s payload", ErrProtocolViolation, a.Type, a.Type)
	}
	return nil
}

// Transcript renders the action the way it is stored in the conversation.
func (a Action[F]) Transcript() (string, error) {
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal action: %w", err)
	}
	return string(b), nil
}
