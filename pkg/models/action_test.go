package models

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_DecodeKeepsOnlyTaggedPayload(t *testing.T) {
	raw := `{"type":"TALK","TALK":"hello","EXECUTE":{"label":"stray"},"FINAL_ANSWER":{"title":"x"}}`

	var a Action[Agreement]
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	require.NoError(t, a.Validate())
	assert.Equal(t, "hello", *a.Talk)
	assert.Nil(t, a.Execution)
	assert.Nil(t, a.FinalAnswer)

	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"TALK","TALK":"hello"}`, string(out))
}

func TestAction_Validate(t *testing.T) {
	empty := "  "
	tests := []struct {
		name   string
		action Action[Agreement]
	}{
		{"unknown type", Action[Agreement]{Type: "DANCE"}},
		{"planning without payload", Action[Agreement]{Type: HighLevelPlanning}},
		{"execute without payload", Action[Agreement]{Type: Execute}},
		{"blank talk", Action[Agreement]{Type: Talk, Talk: &empty}},
		{"final without payload", Action[Agreement]{Type: FinalAnswer}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.action.Validate(), ErrProtocolViolation)
		})
	}
}

func randomString(r *rand.Rand) string {
	const letters = "abcdefghijklmnopqrstuvwxyz \"\\\n{}"
	b := make([]byte, r.Intn(12))
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	return string(b)
}

func randomParams(r *rand.Rand) map[string]any {
	n := r.Intn(4)
	if n == 0 {
		return nil
	}
	p := make(map[string]any, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("p%d", i)
		if r.Intn(2) == 0 {
			p[key] = float64(r.Intn(1000))
		} else {
			p[key] = randomString(r)
		}
	}
	return p
}

func randomAction(r *rand.Rand) Action[Agreement] {
	switch r.Intn(4) {
	case 0:
		var memory *string
		if r.Intn(2) == 0 {
			m := randomString(r)
			memory = &m
		}
		return Action[Agreement]{Type: HighLevelPlanning, Planning: &Planning{
			Label: randomString(r), Name: randomString(r), CurrentStateOfExecution: randomString(r),
			ObservationReflection: randomString(r), Memory: memory, Plan: randomString(r), PlanReasoning: randomString(r),
		}}
	case 1:
		tasks := make([]Task, r.Intn(3)+1)
		for i := range tasks {
			tasks[i] = Task{TaskTool: randomString(r), TaskToolParameters: randomParams(r), TaskThought: randomString(r)}
		}
		return Action[Agreement]{Type: Execute, Execution: &Execution{
			Label: randomString(r), Name: randomString(r), Thought: randomString(r), Tasks: tasks,
		}}
	case 2:
		s := "say " + randomString(r)
		return Action[Agreement]{Type: Talk, Talk: &s}
	default:
		return Action[Agreement]{Type: FinalAnswer, FinalAnswer: &Agreement{
			Title:          randomString(r),
			ResolveQuery:   randomString(r),
			ResolveSources: []string{randomString(r)},
			Outcomes:       []Outcome{{Title: "Yes"}, {Title: "No", Description: randomString(r)}},
		}}
	}
}

func TestAction_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		want := randomAction(r)

		text, err := want.Transcript()
		require.NoError(t, err)

		var got Action[Agreement]
		require.NoError(t, json.Unmarshal([]byte(text), &got), text)
		assert.Equal(t, want, got, text)
	}
}

func TestMarket_Resolvable(t *testing.T) {
	idx := 1
	m := Market{
		ID:              "m1",
		PublicKey:       []byte{1, 2},
		Title:           "Rain",
		ResolveQuery:    "Did it rain?",
		ResolveSources:  []string{"https://weather"},
		Outcomes:        []Outcome{{Title: "Yes"}, {Title: "No"}},
		ResolvedOutcome: &idx,
		BetsTotal:       "100",
	}

	b, err := json.Marshal(m.Resolvable())
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	for _, k := range []string{"id", "publicKey", "resolvedOutcome", "betsTotal", "startAt", "resolveAt"} {
		assert.NotContains(t, fields, k)
	}
	assert.Equal(t, "Rain", fields["title"])

	r := m.Resolvable()
	r.ResolveSources[0] = "changed"
	assert.Equal(t, "https://weather", m.ResolveSources[0])
}

func TestMarket_ValidateAndCheckSelection(t *testing.T) {
	m := Market{Title: "Rain", ResolveQuery: "q", Outcomes: []Outcome{{Title: "Yes"}}}
	assert.ErrorIs(t, m.Validate(), ErrBadInput)
	assert.ErrorIs(t, Market{Outcomes: m.Outcomes}.Validate(), ErrBadInput)

	m.Outcomes = append(m.Outcomes, Outcome{Title: "No"})
	require.NoError(t, m.Validate())

	assert.NoError(t, m.CheckSelection(OutcomeSelection{OutcomeIndex: 1}))
	assert.ErrorIs(t, m.CheckSelection(OutcomeSelection{OutcomeIndex: 2}), ErrProtocolViolation)
	assert.ErrorIs(t, m.CheckSelection(OutcomeSelection{OutcomeIndex: -1}), ErrProtocolViolation)
}
