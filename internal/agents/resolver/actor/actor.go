package actor

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/y-pakorn/friendwithbets/pkg/logger"
	"github.com/y-pakorn/friendwithbets/pkg/messages"
	"github.com/y-pakorn/friendwithbets/pkg/models"
)

type Resolver interface {
	Resolve(ctx context.Context, market models.Market) (models.OutcomeSelection, error)
}

// DefaultRetention is how long a finished job keeps answering status queries.
const DefaultRetention = 10 * time.Minute

// Options tune a job actor. OnStopped is called with the job id once the actor is gone.
type Options struct {
	Retention time.Duration
	OnStopped func(id uuid.UUID)
}

// Job runs one resolve request off the actor's goroutine and answers status queries
// while it is in flight. A finished job stops itself after the retention period.
type Job struct {
	root     *actor.RootContext
	resolver Resolver
	opts     Options

	id       uuid.UUID
	state    models.State
	outcome  *models.OutcomeSelection
	err      *models.Error
	started  *time.Time
	finished *time.Time
	cancel   context.CancelFunc
	expire   *time.Timer
}

// New returns a producer for job actors. root is used by the job to report back to itself.
func New(root *actor.RootContext, resolver Resolver, opts Options) actor.Producer {
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	return func() actor.Actor {
		return &Job{
			root:     root,
			resolver: resolver,
			opts:     opts,
			id:       uuid.Nil,
			state:    models.Init,
		}
	}
}

func (job *Job) Receive(ac actor.Context) {
	l := log.With().Fields(map[string]interface{}{logger.ActorIDField: ac.Self().GetId(), logger.AgentNameField: "resolver"}).Logger()
	switch msg := ac.Message().(type) {
	case *actor.Started:
		l.Debug().Msg("starting actor")
	case *actor.Stopping:
		l.Debug().Msg("stopping actor")
		if job.cancel != nil {
			job.cancel()
		}
		if job.expire != nil {
			job.expire.Stop()
		}
	case *actor.Stopped:
		l.Debug().Msg("stopped actor")
		if job.opts.OnStopped != nil {
			job.opts.OnStopped(job.id)
		}
	case *actor.Restarting:
		l.Debug().Msg("restarting actor")
	case messages.Resolve:
		if job.state != models.Init {
			l.Warn().Str(logger.RequestIDField, msg.RequestID.String()).Msg("job already started, ignoring resolve")
			return
		}
		job.id = msg.RequestID
		job.state = models.Thinking
		now := time.Now().UTC()
		job.started = &now

		ctx, cancel := context.WithCancel(context.Background())
		job.cancel = cancel
		self := ac.Self()
		l.Info().Str(logger.RequestIDField, job.id.String()).Str("market", msg.Market.ID).Msg("resolving...")
		go func() {
			defer cancel()
			sel, err := job.resolver.Resolve(ctx, msg.Market)
			if err != nil {
				job.root.Send(self, messages.ResolveFinished{Err: err})
				return
			}
			job.root.Send(self, messages.ResolveFinished{Outcome: &sel})
		}()
	case messages.ResolveFinished:
		now := time.Now().UTC()
		job.finished = &now
		self := ac.Self()
		job.expire = time.AfterFunc(job.opts.Retention, func() { job.root.Stop(self) })
		if msg.Err != nil {
			job.state = models.Failed
			job.err = models.NewError(msg.Err)
			l.Error().Err(msg.Err).Str(logger.RequestIDField, job.id.String()).Msg("resolve failed")
			return
		}
		job.state = models.Finished
		job.outcome = msg.Outcome
		l.Info().Str(logger.RequestIDField, job.id.String()).Int("outcome", msg.Outcome.OutcomeIndex).Msg("resolve finished")
	case messages.Cancel:
		if job.cancel != nil && !job.state.Terminal() {
			l.Info().Str(logger.RequestIDField, job.id.String()).Msg("cancelling job")
			job.cancel()
		}
	case messages.GetStatus:
		ac.Respond(job.status())
	default:
		l.Warn().Str(logger.RequestIDField, job.id.String()).Msgf("unknown message: %T", msg)
	}
}

func (job *Job) status() models.JobStatus {
	return models.JobStatus{
		ID:         job.id.String(),
		State:      job.state,
		Outcome:    job.outcome,
		Error:      job.err,
		StartedAt:  job.started,
		FinishedAt: job.finished,
	}
}
