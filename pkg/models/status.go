package models

import "time"

// JobStatus is the observable state of an asynchronous resolve job.
type JobStatus struct {
	ID         string            `json:"id"`
	State      State             `json:"state"`
	Outcome    *OutcomeSelection `json:"outcome,omitempty"`
	Error      *Error            `json:"error,omitempty"`
	StartedAt  *time.Time        `json:"startedAt,omitempty"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
}
