package messages

import (
	"github.com/google/uuid"

	"github.com/y-pakorn/friendwithbets/pkg/models"
)

// Resolve starts a job. A job actor accepts it once.
type Resolve struct {
	RequestID uuid.UUID
	Market    models.Market
}

// ResolveFinished is sent by the job to itself when the resolver returns.
type ResolveFinished struct {
	Outcome *models.OutcomeSelection
	Err     error
}

// Cancel aborts a running job; its state becomes failed with a cancelled error.
type Cancel struct{}

type GetStatus struct{}
