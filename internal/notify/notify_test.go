package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/logging"
	"github.com/me/interviewd/pkg/model"
)

func TestWebhook_PostsEscalation(t *testing.T) {
	var got *model.EscalationEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w := NewWebhook(config.WebhookConfig{Alerting: srv.URL, Timeout: 5 * time.Second}, logging.Discard())
	ev := &model.EscalationEvent{InterviewID: "iv_1", Reason: "sla overdue", Severity: model.SeverityCritical}
	if err := w.EmitEscalation(context.Background(), ev); err != nil {
		t.Fatalf("EmitEscalation: %v", err)
	}
	if got == nil || got.InterviewID != "iv_1" || got.Severity != model.SeverityCritical {
		t.Errorf("delivered payload = %+v", got)
	}
}

func TestWebhook_ReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "downstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWebhook(config.WebhookConfig{Calendar: srv.URL, Timeout: 5 * time.Second}, logging.Discard())
	err := w.EmitAssignment(context.Background(), &model.AssignmentIntent{InterviewID: "iv_1"})
	if err == nil {
		t.Fatal("HTTP 502 not reported as an error")
	}
}

func TestWebhook_EmptyEndpointFallsBackToLog(t *testing.T) {
	w := NewWebhook(config.WebhookConfig{}, logging.Discard())
	if err := w.EmitSwap(context.Background(), &model.SwapEvent{}); err != nil {
		t.Fatalf("log fallback errored: %v", err)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	r.EmitEscalation(ctx, &model.EscalationEvent{Reason: "first"})
	r.EmitEscalation(ctx, &model.EscalationEvent{Reason: "second"})
	r.EmitAssignment(ctx, &model.AssignmentIntent{InterviewID: "iv_1"})

	if got := r.EscalationReasons(); len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("EscalationReasons = %v", got)
	}
	if len(r.Assignments) != 1 {
		t.Errorf("assignments = %d, want 1", len(r.Assignments))
	}
}
