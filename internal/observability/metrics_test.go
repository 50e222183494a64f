package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tasks", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/tasks", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 401, time.Millisecond)
	m.RecordError("/auth/login", "POST", "INVALID_CREDENTIALS")

	snap := m.Snapshot()
	if len(snap.Requests) != 2 {
		t.Fatalf("requests = %+v", snap.Requests)
	}
	if snap.Requests[0].Key != "/auth/login|POST|401" || snap.Requests[1].Count != 2 {
		t.Fatalf("unexpected ordering or counts %+v", snap.Requests)
	}
	if len(snap.Errors) != 1 || snap.Errors[0].Key != "/auth/login|POST|INVALID_CREDENTIALS" {
		t.Fatalf("errors = %+v", snap.Errors)
	}
	if snap.Latency[1].MeanMilli != 20 {
		t.Fatalf("mean latency = %v", snap.Latency[1].MeanMilli)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	if snap := m.Snapshot(); len(snap.Requests) != 0 {
		t.Fatalf("snapshot of nil metrics = %+v", snap)
	}
}
