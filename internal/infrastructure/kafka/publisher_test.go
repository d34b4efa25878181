package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
)

func testEvent(batchID string) ops.BulkCompletedEvent {
	return ops.BulkCompletedEvent{
		BatchID:    batchID,
		Action:     "join",
		Accounts:   3,
		Success:    2,
		Errors:     1,
		DurationMS: 4200,
		Timestamp:  time.Now(),
	}
}

// TestNewAuditPublisher_Disabled tests that an empty broker list yields a
// working no-op publisher rather than an error
func TestNewAuditPublisher_Disabled(t *testing.T) {
	publisher, err := NewAuditPublisher(PublisherConfig{
		Brokers: nil,
		Topic:   "panel-events",
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Expected no error for empty brokers, got %v", err)
	}
	if publisher.Enabled() {
		t.Error("Expected disabled publisher with empty brokers")
	}

	// events are dropped silently
	if err := publisher.PublishBulkCompleted(context.Background(), testEvent("batch-1")); err != nil {
		t.Errorf("Expected disabled publish to succeed, got %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Errorf("Expected disabled close to succeed, got %v", err)
	}
}

// TestNewAuditPublisher_EmptyTopic tests validation of empty topic
func TestNewAuditPublisher_EmptyTopic(t *testing.T) {
	_, err := NewAuditPublisher(PublisherConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "",
		Logger:  zerolog.Nop(),
	})
	if err == nil {
		t.Error("Expected error for empty topic, got nil")
	}
	if err.Error() != "kafka topic is required" {
		t.Errorf("Expected 'kafka topic is required', got %v", err)
	}
}

// TestAuditPublisher_PublishBulkCompleted tests successful event queueing
func TestAuditPublisher_PublishBulkCompleted(t *testing.T) {
	mockProducer := mocks.NewAsyncProducer(t, nil)
	mockProducer.ExpectInputAndSucceed()

	p := &AuditPublisher{
		producer: mockProducer,
		topic:    "panel-events",
		logger:   zerolog.Nop(),
	}

	if err := p.PublishBulkCompleted(context.Background(), testEvent("batch-1")); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Errorf("Mock producer close failed: %v", err)
	}
}

// TestAuditPublisher_PublishAfterClose tests that a closed publisher
// rejects new events
func TestAuditPublisher_PublishAfterClose(t *testing.T) {
	mockProducer := mocks.NewAsyncProducer(t, nil)

	p := &AuditPublisher{
		producer: mockProducer,
		topic:    "panel-events",
		logger:   zerolog.Nop(),
	}
	p.wg.Add(2)
	go p.handleSuccesses()
	go p.handleErrors()

	if err := p.Close(); err != nil {
		t.Fatalf("Expected no error on close, got %v", err)
	}

	err := p.PublishBulkCompleted(context.Background(), testEvent("batch-1"))
	if err == nil {
		t.Error("Expected error for publish after close, got nil")
	}
	if err.Error() != "audit publisher is closed" {
		t.Errorf("Expected 'audit publisher is closed', got %v", err)
	}
}

// TestAuditPublisher_ErrorHandling tests that delivery failures surface
// through the close report
func TestAuditPublisher_ErrorHandling(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	mockProducer := mocks.NewAsyncProducer(t, config)
	mockProducer.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	p := &AuditPublisher{
		producer: mockProducer,
		topic:    "panel-events",
		logger:   zerolog.Nop(),
	}
	p.wg.Add(2)
	go p.handleSuccesses()
	go p.handleErrors()

	if err := p.PublishBulkCompleted(context.Background(), testEvent("batch-1")); err != nil {
		t.Errorf("Expected no error from async send, got %v", err)
	}

	// give the error handler time to process
	time.Sleep(100 * time.Millisecond)

	if err := p.Close(); err == nil {
		t.Error("Expected close error due to delivery failure, got nil")
	}
}

// TestAuditPublisher_SuccessHandling tests the success channel handler
func TestAuditPublisher_SuccessHandling(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	mockProducer := mocks.NewAsyncProducer(t, config)
	mockProducer.ExpectInputAndSucceed()

	p := &AuditPublisher{
		producer: mockProducer,
		topic:    "panel-events",
		logger:   zerolog.Nop(),
	}
	p.wg.Add(2)
	go p.handleSuccesses()
	go p.handleErrors()

	if err := p.PublishBulkCompleted(context.Background(), testEvent("batch-1")); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := p.Close(); err != nil {
		t.Errorf("Expected no error on close, got %v", err)
	}
}

// TestAuditPublisher_Close_Idempotent tests that Close can be called
// multiple times
func TestAuditPublisher_Close_Idempotent(t *testing.T) {
	mockProducer := mocks.NewAsyncProducer(t, nil)

	p := &AuditPublisher{
		producer: mockProducer,
		topic:    "panel-events",
		logger:   zerolog.Nop(),
	}
	p.wg.Add(2)
	go p.handleSuccesses()
	go p.handleErrors()

	if err := p.Close(); err != nil {
		t.Errorf("Expected no error on first close, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Expected no error on second close, got %v", err)
	}
}

// TestAuditPublisher_ContextCancelled tests that a cancelled context
// aborts the queue wait
func TestAuditPublisher_ContextCancelled(t *testing.T) {
	mockProducer := mocks.NewAsyncProducer(t, nil)
	mockProducer.ExpectInputAndSucceed()
	defer mockProducer.Close()

	p := &AuditPublisher{
		producer: mockProducer,
		topic:    "panel-events",
		logger:   zerolog.Nop(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// the mock accepts the input, so this succeeds within the deadline
	if err := p.PublishBulkCompleted(ctx, testEvent("batch-1")); err != nil {
		t.Errorf("Expected no error with open deadline, got %v", err)
	}
}

// TestBulkCompletedEvent_JSONSerialization verifies the audit record wire
// format consumed by downstream reporting
func TestBulkCompletedEvent_JSONSerialization(t *testing.T) {
	event := ops.BulkCompletedEvent{
		BatchID:    "2f1f9a0c",
		Action:     "join",
		Accounts:   5,
		Success:    4,
		Errors:     1,
		Revoked:    []string{"15551234567"},
		DurationMS: 9100,
		Timestamp:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}

	expectedJSON := `{"batch_id":"2f1f9a0c","action":"join","accounts":5,"success":4,"errors":1,"revoked":["15551234567"],"duration_ms":9100,"timestamp":"2026-03-14T09:30:00Z"}`
	if string(jsonData) != expectedJSON {
		t.Errorf("JSON format mismatch.\nGot:      %s\nExpected: %s", string(jsonData), expectedJSON)
	}
}
