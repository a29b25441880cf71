package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue stands in for SQS when USE_MEMORY_QUEUE is set: turns flow
// through a buffered channel inside the API process. Delivery is
// single-consumer and messages are gone once received, so Delete is a no-op.
type MemoryQueue struct {
	ch chan queueMessage
}

// NewMemoryQueue creates a queue with the given buffer capacity.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{ch: make(chan queueMessage, buffer)}
}

// Send enqueues a payload, blocking until there is room or ctx is done.
func (q *MemoryQueue) Send(ctx context.Context, body string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	msg := queueMessage{
		ID:            uuid.NewString(),
		Body:          body,
		ReceiptHandle: uuid.NewString(),
	}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits for the first message, then drains up to maxMessages without
// blocking further. waitSeconds > 0 bounds the wait, mirroring SQS long
// polling; zero or negative waits until a message arrives or ctx is done.
// An expired wait returns an empty batch and a nil error.
func (q *MemoryQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxMessages < 1 {
		maxMessages = 1
	}

	var expired <-chan time.Time
	if waitSeconds > 0 {
		timer := time.NewTimer(time.Duration(waitSeconds) * time.Second)
		defer timer.Stop()
		expired = timer.C
	}

	var first queueMessage
	select {
	case first = <-q.ch:
	case <-expired:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	batch := append(make([]queueMessage, 0, maxMessages), first)
	for len(batch) < maxMessages {
		select {
		case msg := <-q.ch:
			batch = append(batch, msg)
		default:
			return batch, nil
		}
	}
	return batch, nil
}

// Delete is a no-op; channel receive already consumed the message.
func (q *MemoryQueue) Delete(context.Context, string) error {
	return nil
}
