package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

// Worker consumes conversation jobs from the queue, runs them through the
// engine, and records outcomes in the job store for status polling.
type Worker struct {
	processor Service
	queue     queueClient
	jobs      JobUpdater
	logger    *logging.Logger

	cfg workerConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerPoolSize overrides the number of consuming goroutines.
func WithWorkerPoolSize(n int) WorkerOption {
	return func(cfg *workerConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// NewWorker builds a stopped worker pool; call Start to begin consuming.
func NewWorker(processor Service, queue queueClient, jobs JobUpdater, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if processor == nil {
		panic("conversation: processor cannot be nil")
	}
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkers,
		receiveWaitSecs:  defaultReceiveWait,
		receiveBatchSize: defaultReceiveMax,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		processor: processor,
		queue:     queue,
		jobs:      jobs,
		logger:    logger,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the consuming goroutines.
func (w *Worker) Start() {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(i + 1)
	}
}

// Shutdown stops consumption and waits for in-flight jobs.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (w *Worker) run(workerID int) {
	defer w.wg.Done()
	w.logger.Info("conversation worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("conversation worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(w.ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive conversation jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handle(msg)
		}
	}
}

func (w *Worker) handle(msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode conversation job, dropping", "error", err)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	var (
		resp *Response
		err  error
	)
	switch payload.Kind {
	case jobTypeStart:
		resp, err = w.processor.StartConversation(w.ctx, payload.Start)
	case jobTypeMessage:
		resp, err = w.processor.ProcessMessage(w.ctx, payload.Message)
	default:
		err = fmt.Errorf("conversation: unknown job type %q", payload.Kind)
	}

	w.deleteMessage(msg.ReceiptHandle)

	if !payload.TrackStatus || w.jobs == nil {
		if err != nil {
			w.logger.Error("untracked conversation job failed", "job_id", payload.ID, "error", err)
		}
		return
	}

	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err != nil {
		w.logger.Error("conversation job failed", "job_id", payload.ID, "error", err)
		if markErr := w.jobs.MarkFailed(recordCtx, payload.ID, err.Error()); markErr != nil {
			w.logger.Error("failed to record job failure", "job_id", payload.ID, "error", markErr)
		}
		return
	}

	conversationID := ""
	if resp != nil {
		conversationID = resp.ConversationID
	}
	if markErr := w.jobs.MarkCompleted(recordCtx, payload.ID, resp, conversationID); markErr != nil {
		w.logger.Error("failed to record job completion", "job_id", payload.ID, "error", markErr)
	}
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete conversation job", "error", err)
	}
}
