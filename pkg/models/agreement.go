package models

import (
	"fmt"
	"strings"
	"time"
)

type Outcome struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Agreement is the market description produced by the creator. Timestamps are
// UTC ISO-8601 strings exactly as the model wrote them.
type Agreement struct {
	Title               string    `json:"title" yaml:"title"`
	Description         string    `json:"description" yaml:"description"`
	Rules               string    `json:"rules" yaml:"rules"`
	RelevantInformation string    `json:"relevantInformation" yaml:"relevantInformation"`
	StartAt             string    `json:"startAt" yaml:"startAt"`
	BetEndAt            string    `json:"betEndAt" yaml:"betEndAt"`
	ResolveAt           string    `json:"resolveAt" yaml:"resolveAt"`
	ResolveQuery        string    `json:"resolveQuery" yaml:"resolveQuery"`
	ResolveSources      []string  `json:"resolveSources" yaml:"resolveSources"`
	Outcomes            []Outcome `json:"outcomes" yaml:"outcomes"`
}

// OutcomeSelection is the resolver's answer.
type OutcomeSelection struct {
	OutcomeIndex int      `json:"outcomeIndex" yaml:"outcomeIndex"`
	Reason       string   `json:"reason" yaml:"reason"`
	Sources      []string `json:"sources" yaml:"sources"`
}

// Market is an agreement as stored on chain, with the bookkeeping the contract adds.
type Market struct {
	ID              string            `json:"id" yaml:"id"`
	PublicKey       []byte            `json:"publicKey,omitempty" yaml:"publicKey,omitempty"`
	Creator         string            `json:"creator,omitempty" yaml:"creator,omitempty"`
	Title           string            `json:"title" yaml:"title"`
	Description     string            `json:"description" yaml:"description"`
	Rules           string            `json:"rules" yaml:"rules"`
	Outcomes        []Outcome         `json:"outcomes" yaml:"outcomes"`
	RelevantInfo    string            `json:"relevantInformation" yaml:"relevantInformation"`
	ResolveQuery    string            `json:"resolveQuery" yaml:"resolveQuery"`
	ResolveSources  []string          `json:"resolveSources" yaml:"resolveSources"`
	StartAt         time.Time         `json:"startAt" yaml:"startAt"`
	BetEndAt        time.Time         `json:"betEndAt" yaml:"betEndAt"`
	ResolveAt       time.Time         `json:"resolveAt" yaml:"resolveAt"`
	ResolvedAt      *time.Time        `json:"resolvedAt,omitempty" yaml:"resolvedAt,omitempty"`
	ResolvedOutcome *int              `json:"resolvedOutcome,omitempty" yaml:"resolvedOutcome,omitempty"`
	ResolvedProof   *OutcomeSelection `json:"resolvedProof,omitempty" yaml:"resolvedProof,omitempty"`
	BetsAgg         []string          `json:"betsAgg,omitempty" yaml:"betsAgg,omitempty"`
	BetsTotal       string            `json:"betsTotal,omitempty" yaml:"betsTotal,omitempty"`
}

// ResolvableAgreement is the part of a market the resolver prompt is allowed to see.
type ResolvableAgreement struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Rules               string    `json:"rules"`
	RelevantInformation string    `json:"relevantInformation"`
	ResolveQuery        string    `json:"resolveQuery"`
	ResolveSources      []string  `json:"resolveSources"`
	Outcomes            []Outcome `json:"outcomes"`
}

func (m Market) Resolved() bool {
	return m.ResolvedAt != nil
}

// Resolvable strips identifiers, timestamps, bet totals and prior resolution state.
func (m Market) Resolvable() ResolvableAgreement {
	return ResolvableAgreement{
		Title:               m.Title,
		Description:         m.Description,
		Rules:               m.Rules,
		RelevantInformation: m.RelevantInfo,
		ResolveQuery:        m.ResolveQuery,
		ResolveSources:      append([]string(nil), m.ResolveSources...),
		Outcomes:            append([]Outcome(nil), m.Outcomes...),
	}
}

func (m Market) Validate() error {
	var missing []string
	if strings.TrimSpace(m.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(m.ResolveQuery) == "" {
		missing = append(missing, "resolveQuery")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: market missing %s", ErrBadInput, strings.Join(missing, ", "))
	}
	if len(m.Outcomes) < 2 {
		return fmt.Errorf("%w: market needs at least 2 outcomes, got %d", ErrBadInput, len(m.Outcomes))
	}
	return nil
}

// CheckSelection bounds the selected index by the market's outcomes before it goes on chain.
func (m Market) CheckSelection(sel OutcomeSelection) error {
	if sel.OutcomeIndex < 0 || sel.OutcomeIndex >= len(m.Outcomes) {
		return fmt.Errorf("%w: outcome index %d out of range [0,%d)", ErrProtocolViolation, sel.OutcomeIndex, len(m.Outcomes))
	}
	return nil
}
