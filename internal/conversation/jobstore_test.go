package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue

	putErr    error
	updateErr error
	getErr    error

	lastPut    *dynamodb.PutItemInput
	lastUpdate *dynamodb.UpdateItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	key := stringAttr(in.Item["jobId"])
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpdate = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	key := stringAttr(in.Key["jobId"])
	item, ok := f.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func stringAttr(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func TestJobStorePutPendingAndGet(t *testing.T) {
	client := newFakeDynamo()
	store := NewJobStore(client, "conversation-jobs", logging.Default())

	job := &JobRecord{
		JobID:       "job-1",
		RequestType: jobTypeStart,
		StartRequest: &StartRequest{
			OrgID: "org-1",
			Intro: "Hi",
		},
	}
	if err := store.PutPending(context.Background(), job); err != nil {
		t.Fatalf("PutPending failed: %v", err)
	}
	if job.Status != JobStatusPending {
		t.Fatalf("expected pending status, got %s", job.Status)
	}
	if job.ExpiresAt == 0 {
		t.Fatal("expected TTL to be stamped")
	}
	if cond := client.lastPut.ConditionExpression; cond == nil || *cond != "attribute_not_exists(jobId)" {
		t.Fatalf("expected duplicate-insert guard, got %v", cond)
	}

	got, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.JobID != "job-1" || got.Status != JobStatusPending {
		t.Fatalf("unexpected job record: %#v", got)
	}
	if got.StartRequest == nil || got.StartRequest.OrgID != "org-1" {
		t.Fatalf("expected start request round trip, got %#v", got.StartRequest)
	}
}

func TestJobStoreGetJobNotFound(t *testing.T) {
	store := NewJobStore(newFakeDynamo(), "conversation-jobs", logging.Default())

	_, err := store.GetJob(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestJobStoreMarkCompleted(t *testing.T) {
	client := newFakeDynamo()
	store := NewJobStore(client, "conversation-jobs", logging.Default())

	resp := &Response{ConversationID: "conv-1", State: StateConfirmed, Message: "done"}
	if err := store.MarkCompleted(context.Background(), "job-2", resp, "conv-1"); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	update := client.lastUpdate
	if update == nil {
		t.Fatal("expected an update call")
	}
	status := stringAttr(update.ExpressionAttributeValues[":status"])
	if status != string(JobStatusCompleted) {
		t.Fatalf("expected completed status, got %s", status)
	}

	var decoded Response
	if err := attributevalue.Unmarshal(update.ExpressionAttributeValues[":response"], &decoded); err != nil {
		t.Fatalf("failed to decode stored response: %v", err)
	}
	if decoded.ConversationID != "conv-1" {
		t.Fatalf("expected response round trip, got %#v", decoded)
	}
}

func TestJobStoreMarkFailed(t *testing.T) {
	client := newFakeDynamo()
	store := NewJobStore(client, "conversation-jobs", logging.Default())

	if err := store.MarkFailed(context.Background(), "job-3", "engine exploded"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	update := client.lastUpdate
	if got := stringAttr(update.ExpressionAttributeValues[":status"]); got != string(JobStatusFailed) {
		t.Fatalf("expected failed status, got %s", got)
	}
	if got := stringAttr(update.ExpressionAttributeValues[":error"]); got != "engine exploded" {
		t.Fatalf("expected error message, got %s", got)
	}
}

func TestJobStorePutPendingRequiresJob(t *testing.T) {
	store := NewJobStore(newFakeDynamo(), "conversation-jobs", logging.Default())
	if err := store.PutPending(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil job")
	}
}
