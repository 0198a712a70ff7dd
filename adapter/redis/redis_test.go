package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/lodeworks/stockpipe/adapter"
)

func testEvent() *adapter.PipelineCompletedEvent {
	return &adapter.PipelineCompletedEvent{
		EventType:    "pipeline_completed",
		RunID:        "a1b2c3d4",
		PipelineName: "stock_pipeline",
		Mode:         "incremental",
		StartDate:    "2025-02-03",
		EndDate:      "2026-02-03",
		SymbolsTotal: 2,
		SymbolsOK:    2,
		RowsLoaded:   502,
		DurationMs:   1500,
		Timestamp:    "2026-02-03T12:00:00Z",
	}
}

// asyncReceive starts a goroutine that reads one message from the
// subscriber. Must be called BEFORE Publish to avoid deadlocking
// miniredis's synchronous pub/sub delivery.
func asyncReceive(sub *miniredis.Subscriber) <-chan miniredis.PubsubMessage {
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()
	return ch
}

func waitMessage(t *testing.T, ch <-chan miniredis.PubsubMessage) miniredis.PubsubMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return miniredis.PubsubMessage{} // unreachable
	}
}

func TestPublish_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr(), Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe(DefaultChannel)
	msgs := asyncReceive(sub)

	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := waitMessage(t, msgs)
	if msg.Channel != DefaultChannel {
		t.Errorf("channel = %s, want %s", msg.Channel, DefaultChannel)
	}

	var received adapter.PipelineCompletedEvent
	if err := json.Unmarshal([]byte(msg.Message), &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if received.RunID != "a1b2c3d4" {
		t.Errorf("run_id = %s", received.RunID)
	}
	if received.SymbolsOK != 2 {
		t.Errorf("symbols_ok = %d", received.SymbolsOK)
	}
}

func TestPublish_CustomChannel(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr(), Channel: "alerts:etl", Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe("alerts:etl")
	msgs := asyncReceive(sub)

	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if msg := waitMessage(t, msgs); msg.Channel != "alerts:etl" {
		t.Errorf("channel = %s, want alerts:etl", msg.Channel)
	}
}

func TestPublish_RetriesOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close() // server down: first attempts fail

	a, err := New(Config{URL: "redis://" + addr, Retries: 1, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	if err := a.Publish(t.Context(), testEvent()); err == nil {
		t.Fatal("expected error with server down")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New(Config{URL: "not-a-redis-url"}); err == nil {
		t.Error("expected error for invalid URL")
	}
	if _, err := New(Config{URL: "redis://localhost:6379", Retries: -1}); err == nil {
		t.Error("expected error for negative retries")
	}
}
