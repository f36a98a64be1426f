package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobpilot.local/internal/analyzer"
	"jobpilot.local/internal/ledger"
	"jobpilot.local/internal/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProcessor struct {
	outcome *pipeline.Outcome
	err     error

	calls   int
	subject string
	sender  string
}

func (s *stubProcessor) Process(_ context.Context, subject, _, sender string) (*pipeline.Outcome, error) {
	s.calls++
	s.subject = subject
	s.sender = sender
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

func newTestServer(t *testing.T, proc *stubProcessor) (*Server, *ledger.Ledger) {
	t.Helper()
	led := ledger.New(filepath.Join(t.TempDir(), "applications.json"), zap.NewNop())
	return New(proc, led, zap.NewNop()), led
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestWebhookSuccessMirrorsOutcome(t *testing.T) {
	proc := &stubProcessor{outcome: &pipeline.Outcome{
		JobID:      "app_20250301120000_0042",
		Category:   analyzer.CategoryWebDevelopment,
		Posting:    &analyzer.Posting{Title: "Full Stack Developer", Company: "TechCorp", Skills: []string{"React"}},
		ProjectURL: "https://github.com/jane/demo",
		EmailSent:  true,
	}}
	s, _ := newTestServer(t, proc)

	w := doRequest(t, s, http.MethodPost, "/api/zapier/webhook/linkedin-email",
		`{"subject": "New job offer: Full Stack Developer at TechCorp", "body": "React and Python.", "sender": "recruiter@linkedin.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["status"] != "success" {
		t.Fatalf("expected success status, got %v", body["status"])
	}
	if body["job_type"] != "web-development" {
		t.Fatalf("expected job_type in response, got %v", body["job_type"])
	}
	if body["email_sent"] != true {
		t.Fatalf("expected email_sent true, got %v", body["email_sent"])
	}
	if body["github_project_url"] != "https://github.com/jane/demo" {
		t.Fatalf("expected project url, got %v", body["github_project_url"])
	}

	if proc.sender != "recruiter@linkedin.com" {
		t.Fatalf("sender not forwarded to pipeline: %q", proc.sender)
	}
}

func TestWebhookRejectsMissingPayload(t *testing.T) {
	s, _ := newTestServer(t, &stubProcessor{})

	w := doRequest(t, s, http.MethodPost, "/api/zapier/webhook/linkedin-email", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "error" {
		t.Fatalf("expected error status, got %v", body["status"])
	}
}

func TestWebhookRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	// These bind without a decode error but carry nothing to process.
	for _, payload := range []string{`{}`, `null`, `{"subject": "", "body": "", "sender": ""}`} {
		t.Run(payload, func(t *testing.T) {
			proc := &stubProcessor{}
			s, _ := newTestServer(t, proc)

			w := doRequest(t, s, http.MethodPost, "/api/zapier/webhook/linkedin-email", payload)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if body := decodeBody(t, w); body["status"] != "error" {
				t.Fatalf("expected error status, got %v", body["status"])
			}
			if proc.calls != 0 {
				t.Fatal("pipeline must not run for an empty payload")
			}
		})
	}
}

func TestWebhookReportsPipelineError(t *testing.T) {
	proc := &stubProcessor{err: errors.New("resume renderer broken")}
	s, _ := newTestServer(t, proc)

	w := doRequest(t, s, http.MethodPost, "/api/zapier/webhook/linkedin-email",
		`{"subject": "s", "body": "b", "sender": "x@example.com"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "error" {
		t.Fatalf("expected error status, got %v", body["status"])
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "resume renderer broken") {
		t.Fatalf("expected cause in message, got %q", msg)
	}
}

func TestAutomationFlagFlips(t *testing.T) {
	s, _ := newTestServer(t, &stubProcessor{})

	w := doRequest(t, s, http.MethodGet, "/api/automation/status", "")
	if body := decodeBody(t, w); body["status"] != "stopped" {
		t.Fatalf("expected stopped initially, got %v", body["status"])
	}

	doRequest(t, s, http.MethodPost, "/api/automation/start", "")
	w = doRequest(t, s, http.MethodGet, "/api/automation/status", "")
	if body := decodeBody(t, w); body["status"] != "active" {
		t.Fatalf("expected active after start, got %v", body["status"])
	}

	doRequest(t, s, http.MethodPost, "/api/automation/stop", "")
	w = doRequest(t, s, http.MethodGet, "/api/automation/status", "")
	if body := decodeBody(t, w); body["status"] != "stopped" {
		t.Fatalf("expected stopped after stop, got %v", body["status"])
	}
}

func TestApplicationsListingTruncatesDate(t *testing.T) {
	s, led := newTestServer(t, &stubProcessor{})

	_, err := led.Upsert("job_1", "TechCorp", "Developer", ledger.StatusSent, nil)
	if err != nil {
		t.Fatalf("seeding ledger: %v", err)
	}

	w := doRequest(t, s, http.MethodGet, "/api/automation/applications", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var views []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected one application, got %d", len(views))
	}

	date, _ := views[0]["date"].(string)
	if len(date) != len("2006-01-02") || strings.Contains(date, "T") {
		t.Fatalf("expected calendar-day date, got %q", date)
	}
	if views[0]["id"] != "job_1" {
		t.Fatalf("unexpected id: %v", views[0]["id"])
	}
}

func TestZapierConfigListsCategories(t *testing.T) {
	s, _ := newTestServer(t, &stubProcessor{})

	w := doRequest(t, s, http.MethodGet, "/api/zapier/config", "")
	body := decodeBody(t, w)

	categories, _ := body["job_categories"].([]any)
	if len(categories) == 0 {
		t.Fatalf("expected categories in config, got %v", body)
	}
	if categories[len(categories)-1] != "general" {
		t.Fatalf("expected general as last category, got %v", categories)
	}
}

func TestTestWebhookEchoesPayload(t *testing.T) {
	s, _ := newTestServer(t, &stubProcessor{})

	w := doRequest(t, s, http.MethodGet, "/api/zapier/webhook/test", "")
	if body := decodeBody(t, w); body["method"] != http.MethodGet {
		t.Fatalf("expected GET echo, got %v", body["method"])
	}

	w = doRequest(t, s, http.MethodPost, "/api/zapier/webhook/test", `{"ping": "pong"}`)
	body := decodeBody(t, w)
	data, _ := body["data_received"].(map[string]any)
	if data["ping"] != "pong" {
		t.Fatalf("expected payload echoed back, got %v", body)
	}
}
