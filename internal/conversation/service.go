package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Rocketman2178/kairo-platform/internal/matching"
)

// Service describes how the registration assistant behaves per turn.
type Service interface {
	StartConversation(ctx context.Context, req StartRequest) (*Response, error)
	ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error)
	GetHistory(ctx context.Context, conversationID string) ([]Message, error)
}

// Message is a single entry in a conversation transcript.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// StartRequest opens a conversation for a family.
type StartRequest struct {
	OrgID          string            `json:"orgId"`
	FamilyRef      string            `json:"familyRef,omitempty"`
	Intro          string            `json:"intro,omitempty"`
	ConversationID string            `json:"conversationId,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// MessageRequest is one user turn in an existing conversation.
type MessageRequest struct {
	OrgID          string            `json:"orgId"`
	ConversationID string            `json:"conversationId"`
	Message        string            `json:"message"`
	Metadata       map[string]string `json:"metadata,omitempty"`

	// SelectedSessionID short-circuits search and jumps straight to
	// confirming that session. Consumed once.
	SelectedSessionID string `json:"selectedSessionId,omitempty"`
	// JoinWaitlist forces the waitlist path regardless of message text.
	JoinWaitlist bool `json:"joinWaitlist,omitempty"`
}

// MatchPayload carries the structured matching outcome alongside the
// assistant's message.
type MatchPayload struct {
	Recommendations   []matching.SessionView          `json:"recommendations,omitempty"`
	RequestedSession  *matching.SessionView           `json:"requestedSession,omitempty"`
	SessionIssue      matching.SessionIssue           `json:"sessionIssue,omitempty"`
	Alternatives      []matching.AlternativeCandidate `json:"alternatives,omitempty"`
	RecommendWaitlist bool                            `json:"recommendWaitlist,omitempty"`
	RelaxedSearch     bool                            `json:"relaxedSearch,omitempty"`
	WaitlistPosition  int                             `json:"waitlistPosition,omitempty"`
	SelectedSession   *matching.SessionView           `json:"selectedSession,omitempty"`
}

// Response is the DTO returned to the API layer after each turn.
type Response struct {
	ConversationID string        `json:"conversationId"`
	State          State         `json:"state"`
	Message        string        `json:"message"`
	QuickReplies   []string      `json:"quickReplies,omitempty"`
	Match          *MatchPayload `json:"match,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// NewConversationID mints an identifier for a fresh conversation.
func NewConversationID() string {
	return "conv-" + uuid.NewString()
}
