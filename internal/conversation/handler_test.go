package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Rocketman2178/kairo-platform/internal/tenancy"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

func TestHandler_Start_Synchronous(t *testing.T) {
	service := &stubService{
		startResp: &Response{ConversationID: "conv-1", State: StateGreeting, Message: "Hi!"},
	}
	handler := NewHandler(service, nil, nil, logging.Default())

	body, _ := json.Marshal(StartRequest{Intro: "Hello"})
	req := httptest.NewRequest(http.MethodPost, "/conversations/start", bytes.NewReader(body))
	req = req.WithContext(tenancy.WithOrgID(req.Context(), "org-1"))
	w := httptest.NewRecorder()

	handler.Start(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected %d, got %d", http.StatusCreated, w.Code)
	}
	if service.lastStartReq.OrgID != "org-1" {
		t.Fatalf("expected org id from context, got %q", service.lastStartReq.OrgID)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ConversationID != "conv-1" {
		t.Fatalf("expected conv-1, got %s", resp.ConversationID)
	}
}

func TestHandler_Start_AcceptsJobWhenAsync(t *testing.T) {
	enqueuer := &stubHandlerEnqueuer{}
	jobs := &stubHandlerJobStore{}
	handler := NewHandler(nil, enqueuer, jobs, logging.Default())

	body, _ := json.Marshal(StartRequest{OrgID: "org-1", Intro: "Hi"})
	req := httptest.NewRequest(http.MethodPost, "/conversations/start", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Start(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected %d, got %d", http.StatusAccepted, w.Code)
	}

	var resp struct {
		JobID string `json:"jobId"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.JobID == "" {
		t.Fatal("expected a job id")
	}
	if enqueuer.lastStartJobID != resp.JobID {
		t.Fatalf("expected enqueuer to receive jobID %s, got %s", resp.JobID, enqueuer.lastStartJobID)
	}
	if jobs.lastPut == nil || jobs.lastPut.JobID != resp.JobID || jobs.lastPut.RequestType != jobTypeStart {
		t.Fatalf("expected job store to capture pending job, got %#v", jobs.lastPut)
	}
}

func TestHandler_Message_Synchronous(t *testing.T) {
	service := &stubService{
		messageResp: &Response{ConversationID: "conv-1", State: StateCollectingChildInfo, Message: "Tell me more"},
	}
	handler := NewHandler(service, nil, nil, logging.Default())

	body, _ := json.Marshal(MessageRequest{OrgID: "org-1", ConversationID: "conv-1", Message: "Hello"})
	req := httptest.NewRequest(http.MethodPost, "/conversations/message", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Message(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, w.Code)
	}
	if service.lastMessageReq.ConversationID != "conv-1" {
		t.Fatalf("expected conversation id, got %q", service.lastMessageReq.ConversationID)
	}
}

func TestHandler_Message_AcceptsJobWhenAsync(t *testing.T) {
	enqueuer := &stubHandlerEnqueuer{}
	jobs := &stubHandlerJobStore{}
	handler := NewHandler(nil, enqueuer, jobs, logging.Default())

	body, _ := json.Marshal(MessageRequest{OrgID: "org-1", ConversationID: "conv-1", Message: "Hello"})
	req := httptest.NewRequest(http.MethodPost, "/conversations/message", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Message(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected %d, got %d", http.StatusAccepted, w.Code)
	}
	if jobs.lastPut == nil || jobs.lastPut.MessageRequest == nil || jobs.lastPut.MessageRequest.ConversationID != "conv-1" {
		t.Fatalf("expected job store to capture message job, got %#v", jobs.lastPut)
	}
}

func TestHandler_Start_InvalidJSON(t *testing.T) {
	handler := NewHandler(&stubService{}, nil, nil, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/conversations/start", strings.NewReader("{"))
	w := httptest.NewRecorder()

	handler.Start(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandler_Message_ServiceError(t *testing.T) {
	handler := NewHandler(&stubService{messageErr: errors.New("boom")}, nil, nil, logging.Default())

	body, _ := json.Marshal(MessageRequest{ConversationID: "conv-1", Message: "Hi"})
	req := httptest.NewRequest(http.MethodPost, "/conversations/message", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Message(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestHandler_Message_EnqueueError(t *testing.T) {
	handler := NewHandler(nil, &stubHandlerEnqueuer{messageErr: errors.New("boom")}, &stubHandlerJobStore{}, logging.Default())

	body, _ := json.Marshal(MessageRequest{ConversationID: "conv-1", Message: "Hi"})
	req := httptest.NewRequest(http.MethodPost, "/conversations/message", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Message(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestHandler_JobStatus_Success(t *testing.T) {
	jobs := &stubHandlerJobStore{
		getJob: &JobRecord{JobID: "job-123", Status: JobStatusCompleted},
	}
	handler := NewHandler(&stubService{}, &stubHandlerEnqueuer{}, jobs, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/conversations/jobs/job-123", nil)
	req = routeWithParam(req, "jobID", "job-123")
	w := httptest.NewRecorder()

	handler.JobStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestHandler_JobStatus_NotFound(t *testing.T) {
	jobs := &stubHandlerJobStore{getErr: ErrJobNotFound}
	handler := NewHandler(&stubService{}, &stubHandlerEnqueuer{}, jobs, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/conversations/jobs/job-xyz", nil)
	req = routeWithParam(req, "jobID", "job-xyz")
	w := httptest.NewRecorder()

	handler.JobStatus(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestHandler_History(t *testing.T) {
	service := &stubService{
		history: []Message{{Role: ChatRoleAssistant, Content: "Hi!"}},
	}
	handler := NewHandler(service, nil, nil, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/conversations/conv-1/history", nil)
	req = routeWithParam(req, "conversationID", "conv-1")
	w := httptest.NewRecorder()

	handler.History(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "conv-1") {
		t.Fatalf("expected conversation id in body, got %s", w.Body.String())
	}
}

func routeWithParam(req *http.Request, key, value string) *http.Request {
	chiCtx := chi.NewRouteContext()
	chiCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

type stubService struct {
	startResp      *Response
	startErr       error
	messageResp    *Response
	messageErr     error
	history        []Message
	lastStartReq   StartRequest
	lastMessageReq MessageRequest
}

func (s *stubService) StartConversation(ctx context.Context, req StartRequest) (*Response, error) {
	s.lastStartReq = req
	return s.startResp, s.startErr
}

func (s *stubService) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	s.lastMessageReq = req
	return s.messageResp, s.messageErr
}

func (s *stubService) GetHistory(ctx context.Context, conversationID string) ([]Message, error) {
	return s.history, nil
}

type stubHandlerEnqueuer struct {
	startErr         error
	messageErr       error
	lastStartJobID   string
	lastMessageJobID string
}

func (s *stubHandlerEnqueuer) EnqueueStart(ctx context.Context, jobID string, req StartRequest) error {
	s.lastStartJobID = jobID
	return s.startErr
}

func (s *stubHandlerEnqueuer) EnqueueMessage(ctx context.Context, jobID string, req MessageRequest) error {
	s.lastMessageJobID = jobID
	return s.messageErr
}

type stubHandlerJobStore struct {
	lastPut *JobRecord
	putErr  error
	getJob  *JobRecord
	getErr  error
}

func (s *stubHandlerJobStore) PutPending(ctx context.Context, job *JobRecord) error {
	s.lastPut = job
	return s.putErr
}

func (s *stubHandlerJobStore) GetJob(ctx context.Context, jobID string) (*JobRecord, error) {
	return s.getJob, s.getErr
}
