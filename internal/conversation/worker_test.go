package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

type recordingJobUpdater struct {
	mu        sync.Mutex
	completed map[string]*Response
	failed    map[string]string
}

func newRecordingJobUpdater() *recordingJobUpdater {
	return &recordingJobUpdater{
		completed: make(map[string]*Response),
		failed:    make(map[string]string),
	}
}

func (r *recordingJobUpdater) MarkCompleted(ctx context.Context, jobID string, resp *Response, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed[jobID] = resp
	return nil
}

func (r *recordingJobUpdater) MarkFailed(ctx context.Context, jobID string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[jobID] = errMsg
	return nil
}

func (r *recordingJobUpdater) completedJob(jobID string) *Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed[jobID]
}

func (r *recordingJobUpdater) failedJob(jobID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.failed[jobID]
	return msg, ok
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWorkerProcessesTrackedJob(t *testing.T) {
	queue := NewMemoryQueue(4)
	jobs := newRecordingJobUpdater()
	service := &fakeProcessor{
		messageResp: &Response{ConversationID: "conv-1", State: StateShowingRecommendations},
	}

	worker := NewWorker(service, queue, jobs, logging.New("error"), WithWorkerPoolSize(1))
	worker.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = worker.Shutdown(ctx)
	})

	publisher := NewPublisher(queue, logging.New("error"))
	if err := publisher.EnqueueMessage(context.Background(), "job-1", MessageRequest{
		ConversationID: "conv-1",
		Message:        "hi",
	}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	waitForCondition(t, 2*time.Second, func() bool {
		return jobs.completedJob("job-1") != nil
	})

	resp := jobs.completedJob("job-1")
	if resp.ConversationID != "conv-1" {
		t.Fatalf("expected conv-1, got %s", resp.ConversationID)
	}
}

func TestWorkerRecordsFailure(t *testing.T) {
	queue := NewMemoryQueue(4)
	jobs := newRecordingJobUpdater()
	service := &fakeProcessor{startErr: errTestFailure}

	worker := NewWorker(service, queue, jobs, logging.New("error"), WithWorkerPoolSize(1))
	worker.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = worker.Shutdown(ctx)
	})

	publisher := NewPublisher(queue, logging.New("error"))
	if err := publisher.EnqueueStart(context.Background(), "job-2", StartRequest{OrgID: "org-1"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	waitForCondition(t, 2*time.Second, func() bool {
		_, ok := jobs.failedJob("job-2")
		return ok
	})

	msg, _ := jobs.failedJob("job-2")
	if msg == "" {
		t.Fatal("expected a failure message")
	}
}

func TestWorkerSkipsRecordingForUntrackedJobs(t *testing.T) {
	queue := NewMemoryQueue(4)
	jobs := newRecordingJobUpdater()
	service := &fakeProcessor{
		startResp: &Response{ConversationID: "conv-3"},
	}

	worker := NewWorker(service, queue, jobs, logging.New("error"), WithWorkerPoolSize(1))
	worker.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = worker.Shutdown(ctx)
	})

	// Direct enqueue without TrackStatus.
	_, body, err := encodePayload(queuePayload{ID: "job-3", Kind: jobTypeStart, Start: StartRequest{OrgID: "org-1"}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := queue.Send(context.Background(), body); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	waitForCondition(t, 2*time.Second, func() bool {
		return service.startedWithOrg("org-1")
	})

	time.Sleep(50 * time.Millisecond)
	if jobs.completedJob("job-3") != nil {
		t.Fatal("untracked job should not be recorded")
	}
}

var errTestFailure = errForTest("processor failed")

type errForTest string

func (e errForTest) Error() string { return string(e) }
