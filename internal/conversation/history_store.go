package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const conversationTTL = 24 * time.Hour

// conversationSnapshot is the durable per-conversation state: where the flow
// is and what the family has told us.
type conversationSnapshot struct {
	OrgID string        `json:"orgId"`
	State State         `json:"state"`
	Prefs PreferenceSet `json:"prefs"`
}

// HistoryStore keeps transcripts and conversation snapshots in Redis with a
// 24 hour TTL. Abandoned registrations age out on their own.
type HistoryStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewHistoryStore(redis *redis.Client, tracer trace.Tracer) *HistoryStore {
	if redis == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("kairo.internal.conversation.history")
	}
	return &HistoryStore{
		redis:  redis,
		tracer: tracer,
	}
}

func (s *HistoryStore) SaveHistory(ctx context.Context, conversationID string, history []ChatMessage) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_history")
	defer span.End()

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, historyKey(conversationID), data, conversationTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist history: %w", err)
	}
	return nil
}

func (s *HistoryStore) LoadHistory(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_history")
	defer span.End()

	data, err := s.redis.Get(ctx, historyKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}

	var history []ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode history: %w", err)
	}
	return history, nil
}

// SaveSnapshot persists the conversation's state and accumulated preferences.
func (s *HistoryStore) SaveSnapshot(ctx context.Context, conversationID string, snap *conversationSnapshot) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_snapshot")
	defer span.End()

	data, err := json.Marshal(snap)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, snapshotKey(conversationID), data, conversationTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns nil without error for an unknown conversation.
func (s *HistoryStore) LoadSnapshot(ctx context.Context, conversationID string) (*conversationSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_snapshot")
	defer span.End()

	data, err := s.redis.Get(ctx, snapshotKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load snapshot: %w", err)
	}

	var snap conversationSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func historyKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

func snapshotKey(id string) string {
	return fmt.Sprintf("conversation_state:%s", id)
}
