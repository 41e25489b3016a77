package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"predictive-sim/internal/telemetry"
)

type hook struct {
	mu     sync.Mutex
	msgs   []SlackMessage
	status int
}

func (h *hook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var m SlackMessage
	_ = json.NewDecoder(r.Body).Decode(&m)
	h.mu.Lock()
	h.msgs = append(h.msgs, m)
	status := h.status
	h.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func (h *hook) received() []SlackMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]SlackMessage(nil), h.msgs...)
}

func failingRun(machine string) telemetry.RunSummaryRow {
	samples := []telemetry.Sample{
		{Temperature: 95, Vibration: 60, LoadPct: 50, Failure: true},
		{Temperature: 60, Vibration: 20, LoadPct: 40},
	}
	return telemetry.RunSummaryRow{
		RunID:      "run-1",
		MachineID:  machine,
		Policy:     telemetry.PolicySimple,
		Thresholds: telemetry.DefaultThresholds(),
		Summary:    telemetry.Summarize(samples),
		Timestamp:  time.Unix(1700000000, 0).UTC(),
	}
}

func TestNewSlackNotifierRequiresURL(t *testing.T) {
	if _, err := NewSlackNotifier("", ""); err == nil {
		t.Fatalf("expected error for empty webhook")
	}
}

func TestSlackNotifierAlertsAndCooldown(t *testing.T) {
	h := &hook{}
	srv := httptest.NewServer(h)
	defer srv.Close()

	now := time.Unix(0, 0)
	n, err := NewSlackNotifier(srv.URL, "#ops", WithClock(func() time.Time { return now }), WithCooldown(time.Minute))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := n.WriteSummary(failingRun("m1")); err != nil {
		t.Fatalf("first alert: %v", err)
	}
	if err := n.WriteSummary(failingRun("m1")); err != nil {
		t.Fatalf("second alert: %v", err)
	}
	if err := n.WriteSummary(failingRun("m2")); err != nil {
		t.Fatalf("other machine: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := n.WriteSummary(failingRun("m1")); err != nil {
		t.Fatalf("after cooldown: %v", err)
	}

	msgs := h.received()
	if len(msgs) != 3 {
		t.Fatalf("alerts = %d, want 3", len(msgs))
	}
	m := msgs[0]
	if m.Channel != "#ops" || len(m.Attachments) != 1 {
		t.Fatalf("message = %+v", m)
	}
	if !strings.Contains(m.Attachments[0].Text, "*1* of *2*") {
		t.Fatalf("text = %q", m.Attachments[0].Text)
	}
	if m.Attachments[0].Color != "#FF0000" {
		t.Fatalf("color = %q", m.Attachments[0].Color)
	}
}

func TestSlackNotifierSkipsHealthyRuns(t *testing.T) {
	h := &hook{}
	srv := httptest.NewServer(h)
	defer srv.Close()
	n, _ := NewSlackNotifier(srv.URL, "")
	row := failingRun("m1")
	row.Summary.Failures = 0
	if err := n.WriteSummary(row); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(h.received()) != 0 {
		t.Fatalf("healthy run should not alert")
	}
}

func TestSlackNotifierErrorAllowsRetry(t *testing.T) {
	h := &hook{status: http.StatusInternalServerError}
	srv := httptest.NewServer(h)
	defer srv.Close()
	n, _ := NewSlackNotifier(srv.URL, "")
	if err := n.WriteSummary(failingRun("m1")); err == nil {
		t.Fatalf("expected error on 500")
	}
	h.mu.Lock()
	h.status = http.StatusOK
	h.mu.Unlock()
	if err := n.WriteSummary(failingRun("m1")); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if n := len(h.received()); n != 2 {
		t.Fatalf("requests = %d, want 2", n)
	}
}
