package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hostelcart/hostelcart-backend/pkg/config"
	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
	"github.com/hostelcart/hostelcart-backend/pkg/enums"
	"github.com/hostelcart/hostelcart-backend/pkg/outbox"
	"github.com/hostelcart/hostelcart-backend/pkg/outbox/payloads"
)

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{GroupTopic: "hc-group-events"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

func encodeRow(t *testing.T, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID, data any) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       payload,
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatalf("expected error for missing topic")
	}
}

func TestResolveGroupChanged(t *testing.T) {
	reg := testRegistry(t)
	groupID := uuid.New()
	row := encodeRow(t, enums.EventGroupChanged, enums.AggregateGroupOrder, groupID, payloads.GroupChangedEvent{
		GroupID:     groupID,
		Status:      enums.GroupStatusLocked,
		LockVersion: 4,
		ChangedBy:   uuid.New(),
	})

	resolved, err := reg.Resolve(row)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Descriptor.Topic != "hc-group-events" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.GroupChangedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.GroupID != groupID || payload.LockVersion != 4 {
		t.Fatalf("payload fields lost: %+v", payload)
	}
}

func TestResolveRejectsUnknownEventType(t *testing.T) {
	reg := testRegistry(t)
	row := encodeRow(t, enums.OutboxEventType("mystery"), enums.AggregateGroupOrder, uuid.New(), map[string]any{})

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveRejectsAggregateMismatch(t *testing.T) {
	reg := testRegistry(t)
	row := encodeRow(t, enums.EventGroupChanged, enums.AggregateStoreOrder, uuid.New(), payloads.GroupChangedEvent{})

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveRejectsMissingAggregateID(t *testing.T) {
	reg := testRegistry(t)
	row := encodeRow(t, enums.EventGroupChanged, enums.AggregateGroupOrder, uuid.Nil, payloads.GroupChangedEvent{})

	if _, err := reg.Resolve(row); err == nil {
		t.Fatalf("expected error for missing aggregate id")
	}
}

func TestResolveRejectsNullPayload(t *testing.T) {
	reg := testRegistry(t)
	row := encodeRow(t, enums.EventGroupChanged, enums.AggregateGroupOrder, uuid.New(), nil)

	if _, err := reg.Resolve(row); err == nil {
		t.Fatalf("expected error for null payload")
	}
}
