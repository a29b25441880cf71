package conversation

import (
	"context"
	"fmt"

	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

// Publisher enqueues conversation jobs for asynchronous processing. Callers
// poll the job store for the outcome instead of blocking on the turn.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger,
	}
}

// EnqueueStart publishes a StartConversation job.
func (p *Publisher) EnqueueStart(ctx context.Context, jobID string, req StartRequest) error {
	return p.enqueue(ctx, queuePayload{
		ID:          jobID,
		Kind:        jobTypeStart,
		Start:       req,
		TrackStatus: true,
	})
}

// EnqueueMessage publishes a ProcessMessage job.
func (p *Publisher) EnqueueMessage(ctx context.Context, jobID string, req MessageRequest) error {
	return p.enqueue(ctx, queuePayload{
		ID:          jobID,
		Kind:        jobTypeMessage,
		Message:     req,
		TrackStatus: true,
	})
}

func (p *Publisher) enqueue(ctx context.Context, payload queuePayload) error {
	if ctx == nil {
		ctx = context.Background()
	}

	payload, body, err := encodePayload(payload)
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("conversation: failed to enqueue job: %w", err)
	}

	p.logger.Debug("conversation job enqueued", "job_id", payload.ID, "kind", string(payload.Kind))
	return nil
}
