package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lodeworks/stockpipe/adapter"
	"github.com/lodeworks/stockpipe/iox"
)

func testEvent() *adapter.PipelineCompletedEvent {
	return &adapter.PipelineCompletedEvent{
		EventType:     "pipeline_completed",
		RunID:         "a1b2c3d4",
		PipelineName:  "stock_pipeline",
		Mode:          "incremental",
		StartDate:     "2025-02-03",
		EndDate:       "2026-02-03",
		SymbolsTotal:  2,
		SymbolsOK:     1,
		SymbolsFailed: 1,
		RowsLoaded:    251,
		DurationMs:    1500,
		Timestamp:     "2026-02-03T12:00:00Z",
	}
}

func TestPublish_Success(t *testing.T) {
	var received adapter.PipelineCompletedEvent
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a, err := New(Config{URL: ts.URL, Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if received.RunID != "a1b2c3d4" {
		t.Errorf("run_id = %s", received.RunID)
	}
	if received.EventType != "pipeline_completed" {
		t.Errorf("event_type = %s", received.EventType)
	}
	if received.RowsLoaded != 251 {
		t.Errorf("rows_loaded = %d", received.RowsLoaded)
	}
}

func TestPublish_CustomHeaders(t *testing.T) {
	var authHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a, err := New(Config{
		URL:     ts.URL,
		Headers: map[string]string{"Authorization": "Bearer token123"},
		Retries: 0,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if authHeader != "Bearer token123" {
		t.Errorf("Authorization = %q", authHeader)
	}
}

func TestPublish_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a, err := New(Config{URL: ts.URL, Retries: 3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish should succeed after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestPublish_4xxNonRetriable(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	a, err := New(Config{URL: ts.URL, Retries: 3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	err = a.Publish(t.Context(), testEvent())
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusBadRequest {
		t.Errorf("err = %v, want StatusError 400", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (no retries on 4xx)", got)
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
}
