package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/insight"
	"github.com/hpungsan/sift/internal/ops"
	"github.com/hpungsan/sift/internal/schedule"
	"github.com/hpungsan/sift/internal/transcript"
)

const chatText = "User: do we need the migration?\nAssistant: yes, run it before deploy\nUser: I'll run it tonight"

func setupTest(t *testing.T) (*ops.Services, http.Handler) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	svc := &ops.Services{
		DB:        database,
		Cfg:       config.DefaultConfig(),
		Extractor: insight.NopExtractor{},
		Notifier:  schedule.NewQueueNotifier(database),
		Now:       func() time.Time { return time.Date(2026, 4, 15, 10, 30, 0, 0, time.UTC) },
	}
	return svc, NewServer(svc, "test", "127.0.0.1", 0).Handler
}

func do(t *testing.T, handler http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return w, out
}

func errorCode(t *testing.T, out map[string]any) string {
	t.Helper()
	errObj, ok := out["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in %v", out)
	}
	return errObj["code"].(string)
}

func TestHealth(t *testing.T) {
	_, handler := setupTest(t)

	w, out := do(t, handler, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if out["version"] != "test" {
		t.Errorf("version = %v", out["version"])
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestCreateCapture_Durable(t *testing.T) {
	_, handler := setupTest(t)

	w, out := do(t, handler, "POST", "/captures", `{"container":{"kind":"me"},"content":"`+jsonEscape(chatText)+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %v", w.Code, out)
	}
	if out["source_mode"] != "durable" {
		t.Errorf("source_mode = %v", out["source_mode"])
	}
	if out["structure_job_enqueued"] != true {
		t.Errorf("structure_job_enqueued = %v, want true", out["structure_job_enqueued"])
	}
	if _, ok := out["diagnostics"]; ok {
		t.Error("diagnostics should be omitted unless requested")
	}

	id := out["capture_id"].(string)
	w, fetched := do(t, handler, "GET", "/captures/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("fetch status = %d", w.Code)
	}
	segment := fetched["segment"].(map[string]any)
	if segment["content"] != chatText {
		t.Errorf("segment content = %q", segment["content"])
	}

	_, fetched = do(t, handler, "GET", "/captures/"+id+"?include_content=false", "")
	if fetched["segment"].(map[string]any)["content"] != "" {
		t.Error("include_content=false should blank the segment content")
	}

	_, jobs := do(t, handler, "GET", "/jobs", "")
	if items := jobs["items"].([]any); len(items) != 1 {
		t.Errorf("jobs = %d, want 1", len(items))
	}
}

func TestCreateCapture_DiscardWithDiagnostics(t *testing.T) {
	svc, handler := setupTest(t)
	svc.Extractor = insight.ExtractorFunc(func(_ context.Context, segs []transcript.Segment) (*insight.Candidates, error) {
		idx := len(segs) - 1
		return &insight.Candidates{
			Decisions: []insight.Candidate{{Title: "Run migration", Content: "Run it before deploy"}},
			SuggestedHighlights: []insight.HighlightCandidate{
				{Candidate: insight.Candidate{Title: "Tonight", Content: "I'll run it tonight"}, MessageIndex: &idx},
			},
		}, nil
	})

	w, out := do(t, handler, "POST", "/captures", `{"container":{"kind":"me"},"content":"`+jsonEscape(chatText)+`","source_mode":"discard_after_reduce","include_diagnostics":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %v", w.Code, out)
	}
	outcomes := out["outcomes"].(map[string]any)
	if outcomes["decisions"] != float64(1) || outcomes["highlights"] != float64(1) {
		t.Errorf("outcomes = %v", outcomes)
	}
	diag := out["diagnostics"].(map[string]any)
	input := diag["input"].(map[string]any)
	if input["message_count"] != float64(3) {
		t.Errorf("input.message_count = %v, want 3", input["message_count"])
	}
	if errs := diag["errors"].([]any); len(errs) != 0 {
		t.Errorf("diagnostics errors = %v, want none", errs)
	}
}

func TestCreateCapture_Errors(t *testing.T) {
	_, handler := setupTest(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"empty body", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"malformed json", `{"container":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"blank content", `{"container":{"kind":"me"},"content":"   "}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad thinking choice", `{"container":{"kind":"me"},"content":"x","thinking_choice":"someday"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown project", `{"container":{"kind":"project","project_id":"p-missing"},"content":"x"}`, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := do(t, handler, "POST", "/captures", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if code := errorCode(t, out); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestCreateCapture_OpaqueMetadata(t *testing.T) {
	svc, handler := setupTest(t)

	w, out := do(t, handler, "POST", "/captures", `{"container":{"kind":"me"},"content":"notes","metadata":{"retries":2,"draft":false,"source":{"app":"web"}}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %v", w.Code, out)
	}

	var stored string
	if err := svc.DB.QueryRow("SELECT metadata_json FROM captures WHERE id = ?", out["capture_id"]).Scan(&stored); err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(stored), &meta); err != nil {
		t.Fatalf("metadata_json is not JSON: %v", err)
	}
	if meta["retries"] != float64(2) || meta["draft"] != false {
		t.Errorf("metadata = %v", meta)
	}

	_, fetched := do(t, handler, "GET", "/captures/"+out["capture_id"].(string), "")
	if _, ok := fetched["metadata"]; ok {
		t.Error("metadata must not be returned")
	}
}

func TestFetchCapture_NotFound(t *testing.T) {
	_, handler := setupTest(t)

	w, out := do(t, handler, "GET", "/captures/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if code := errorCode(t, out); code != "NOT_FOUND" {
		t.Errorf("code = %q", code)
	}
}

func TestProjects(t *testing.T) {
	_, handler := setupTest(t)

	w, created := do(t, handler, "POST", "/projects", `{"name":"Platform","description":"infra work"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	w, out := do(t, handler, "POST", "/projects", `{"name":"PLATFORM"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	if code := errorCode(t, out); code != "NAME_ALREADY_EXISTS" {
		t.Errorf("code = %q", code)
	}

	_, listed := do(t, handler, "GET", "/projects", "")
	if items := listed["items"].([]any); len(items) != 1 {
		t.Errorf("projects = %d, want 1", len(items))
	}

	projectID := created["id"].(string)
	w, _ = do(t, handler, "POST", "/captures", `{"container":{"kind":"project","project_id":"`+projectID+`"},"content":"notes"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("capture status = %d", w.Code)
	}

	_, list := do(t, handler, "GET", "/captures?project_id="+projectID, "")
	if items := list["items"].([]any); len(items) != 1 {
		t.Errorf("project captures = %d, want 1", len(items))
	}
	_, list = do(t, handler, "GET", "/captures?container_kind=me", "")
	if items := list["items"].([]any); len(items) != 0 {
		t.Errorf("me captures = %d, want 0", len(items))
	}
}

func TestListCaptures_InvalidLimitFallsBack(t *testing.T) {
	_, handler := setupTest(t)

	w, out := do(t, handler, "GET", "/captures?limit=abc", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	pagination := out["pagination"].(map[string]any)
	if pagination["limit"] != float64(ops.DefaultListLimit) {
		t.Errorf("limit = %v, want %d", pagination["limit"], ops.DefaultListLimit)
	}
	if out["sort"] != "thinking_window_desc" {
		t.Errorf("sort = %v", out["sort"])
	}
}

func TestParseTranscript(t *testing.T) {
	_, handler := setupTest(t)

	w, out := do(t, handler, "POST", "/transcripts/parse", `{"text":"`+jsonEscape(chatText)+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if out["user_count"] != float64(2) || out["assistant_count"] != float64(1) {
		t.Errorf("counts = %v/%v, want 2/1", out["user_count"], out["assistant_count"])
	}

	w, out = do(t, handler, "POST", "/transcripts/parse", `{"text":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if code := errorCode(t, out); code != "INVALID_REQUEST" {
		t.Errorf("code = %q", code)
	}
}

func TestRenderError_PlainErrorIsGeneric(t *testing.T) {
	w := httptest.NewRecorder()
	renderError(w, context.DeadlineExceeded)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "deadline") {
		t.Errorf("plain error text leaked: %s", w.Body.String())
	}
}

func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}
