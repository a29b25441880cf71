package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Rocketman2178/kairo-platform/internal/tenancy"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

// Enqueuer publishes conversation jobs for asynchronous processing.
type Enqueuer interface {
	EnqueueStart(ctx context.Context, jobID string, req StartRequest) error
	EnqueueMessage(ctx context.Context, jobID string, req MessageRequest) error
}

// Handler wires HTTP requests to the conversation service. When an enqueuer
// and job store are configured, Start and Message accept the request and
// return a job id for polling; otherwise they process the turn inline.
type Handler struct {
	service  Service
	enqueuer Enqueuer
	jobs     JobRecorder
	logger   *logging.Logger
}

// NewHandler creates a conversation handler. Pass nil enqueuer and jobs for
// synchronous processing.
func NewHandler(service Service, enqueuer Enqueuer, jobs JobRecorder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:  service,
		enqueuer: enqueuer,
		jobs:     jobs,
		logger:   logger,
	}
}

// Start handles POST /conversations/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode start request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrgID == "" {
		if orgID, ok := tenancy.OrgIDFromContext(r.Context()); ok {
			req.OrgID = orgID
		}
	}

	if h.enqueuer != nil {
		jobID := uuid.NewString()
		h.recordPending(r, &JobRecord{
			JobID:        jobID,
			Status:       JobStatusPending,
			RequestType:  jobTypeStart,
			StartRequest: &req,
		})
		if err := h.enqueuer.EnqueueStart(r.Context(), jobID, req); err != nil {
			h.logger.Error("failed to enqueue start job", "job_id", jobID, "error", err)
			http.Error(w, "Failed to start conversation", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
		return
	}

	resp, err := h.service.StartConversation(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to start conversation", "error", err)
		http.Error(w, "Failed to start conversation", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// Message handles POST /conversations/message.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode message request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrgID == "" {
		if orgID, ok := tenancy.OrgIDFromContext(r.Context()); ok {
			req.OrgID = orgID
		}
	}

	if h.enqueuer != nil {
		jobID := uuid.NewString()
		h.recordPending(r, &JobRecord{
			JobID:          jobID,
			Status:         JobStatusPending,
			RequestType:    jobTypeMessage,
			ConversationID: req.ConversationID,
			MessageRequest: &req,
		})
		if err := h.enqueuer.EnqueueMessage(r.Context(), jobID, req); err != nil {
			h.logger.Error("failed to enqueue message job", "job_id", jobID, "error", err)
			http.Error(w, "Failed to process message", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
		return
	}

	resp, err := h.service.ProcessMessage(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to process message", "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// JobStatus handles GET /conversations/jobs/{jobID}.
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		http.Error(w, "Job tracking not configured", http.StatusServiceUnavailable)
		return
	}

	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		http.Error(w, "Job ID is required", http.StatusBadRequest)
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load job", "job_id", jobID, "error", err)
		http.Error(w, "Failed to load job", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, job)
}

// History handles GET /conversations/{conversationID}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "Conversation ID is required", http.StatusBadRequest)
		return
	}

	messages, err := h.service.GetHistory(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("failed to load history", "conversation_id", conversationID, "error", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"conversationId": conversationID,
		"messages":       messages,
	})
}

// recordPending writes the job record before enqueueing. A write failure is
// logged but does not block the job: the worker still processes it.
func (h *Handler) recordPending(r *http.Request, job *JobRecord) {
	if h.jobs == nil {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	job.CreatedAt = now
	job.UpdatedAt = now
	if err := h.jobs.PutPending(r.Context(), job); err != nil {
		h.logger.Error("failed to record pending job", "job_id", job.JobID, "error", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
