package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/insight"
	"github.com/hpungsan/sift/internal/ops"
	"github.com/hpungsan/sift/internal/schedule"
	"github.com/hpungsan/sift/internal/transcript"
)

const chatText = "User: should we cut the beta?\nAssistant: yes, cut it friday\nUser: ok, I'll tell the team"

// testSetup creates a temporary database and services for testing.
func testSetup(t *testing.T) *ops.Services {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return &ops.Services{
		DB:        database,
		Cfg:       config.DefaultConfig(),
		Extractor: insight.NopExtractor{},
		Notifier:  schedule.NewQueueNotifier(database),
		Now:       func() time.Time { return time.Date(2026, 4, 15, 10, 30, 0, 0, time.UTC) },
	}
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func oneDecision() insight.Extractor {
	return insight.ExtractorFunc(func(_ context.Context, _ []transcript.Segment) (*insight.Candidates, error) {
		return &insight.Candidates{
			Decisions:   []insight.Candidate{{Title: "Cut beta", Content: "Cut the beta on friday"}},
			Commitments: []insight.Candidate{{Title: "Tell team", Content: "Tell the team"}},
		}, nil
	})
}

func TestHandleCaptureCreate(t *testing.T) {
	svc := testSetup(t)
	h := NewHandlers(svc)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "durable me capture",
			args: map[string]any{
				"container": map[string]any{"kind": "me"},
				"content":   chatText,
			},
		},
		{
			name: "metadata with non-string values",
			args: map[string]any{
				"container": map[string]any{"kind": "me"},
				"content":   chatText,
				"metadata":  map[string]any{"client": "ide", "attempt": 3, "pinned": true, "labels": []any{"a", "b"}},
			},
		},
		{
			name: "missing content",
			args: map[string]any{
				"container": map[string]any{"kind": "me"},
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "bad source mode",
			args: map[string]any{
				"container":   map[string]any{"kind": "me"},
				"content":     chatText,
				"source_mode": "forever",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "unknown project",
			args: map[string]any{
				"container": map[string]any{"kind": "project", "project_id": "nope"},
				"content":   chatText,
			},
			wantError: true,
			errorCode: "NOT_FOUND",
		},
		{
			name: "container of wrong type",
			args: map[string]any{
				"container": "me",
				"content":   chatText,
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleCaptureCreate(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandleCaptureCreate_DiscardReturnsOutcomes(t *testing.T) {
	svc := testSetup(t)
	svc.Extractor = oneDecision()
	h := NewHandlers(svc)
	ctx := context.Background()

	result, err := h.HandleCaptureCreate(ctx, makeRequest(map[string]any{
		"container":           map[string]any{"kind": "me"},
		"content":             chatText,
		"source_mode":         "discard_after_reduce",
		"include_diagnostics": true,
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)

	outcomes := output["outcomes"].(map[string]any)
	if outcomes["decisions"] != float64(1) || outcomes["tasks"] != float64(1) {
		t.Errorf("outcomes = %v, want 1 decision and 1 task", outcomes)
	}

	diag, ok := output["diagnostics"].(map[string]any)
	if !ok {
		t.Fatal("expected diagnostics in output")
	}
	discard := diag["discard"].(map[string]any)
	if discard["confirmed"] != true {
		t.Errorf("discard.confirmed = %v, want true", discard["confirmed"])
	}

	// Raw text is gone on fetch
	fetched, err := h.HandleCaptureFetch(ctx, makeRequest(map[string]any{"id": output["capture_id"]}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	segment := parseOutput(t, fetched)["segment"].(map[string]any)
	if segment["content"] != "" {
		t.Errorf("segment content = %q, want empty", segment["content"])
	}
}

func TestHandleCaptureFetch(t *testing.T) {
	svc := testSetup(t)
	h := NewHandlers(svc)
	ctx := context.Background()

	created := parseOutput(t, mustCall(t, h.HandleCaptureCreate, map[string]any{
		"container": map[string]any{"kind": "me"},
		"content":   chatText,
		"metadata":  map[string]any{"client": "test"},
	}))
	id := created["capture_id"].(string)

	t.Run("with content", func(t *testing.T) {
		output := parseOutput(t, mustCall(t, h.HandleCaptureFetch, map[string]any{"id": id}))
		if output["id"] != id {
			t.Errorf("id = %v, want %v", output["id"], id)
		}
		if _, ok := output["metadata"]; ok {
			t.Error("metadata must not be returned")
		}
		segment := output["segment"].(map[string]any)
		if segment["content"] != chatText {
			t.Errorf("segment content = %q", segment["content"])
		}
	})

	t.Run("without content", func(t *testing.T) {
		output := parseOutput(t, mustCall(t, h.HandleCaptureFetch, map[string]any{"id": id, "include_content": false}))
		segment := output["segment"].(map[string]any)
		if segment["content"] != "" {
			t.Errorf("segment content = %q, want empty", segment["content"])
		}
	})

	t.Run("not found", func(t *testing.T) {
		result := mustCall(t, h.HandleCaptureFetch, map[string]any{"id": "missing"})
		assertErrorCode(t, result, "NOT_FOUND")
	})
}

func TestDecode_ArgumentTypeMismatch(t *testing.T) {
	h := NewHandlers(testSetup(t))

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		field   string
	}{
		{"bool given as string", h.HandleCaptureFetch, map[string]any{"id": "x", "include_content": "yes"}, "include_content"},
		{"limit given as string", h.HandleCaptureList, map[string]any{"limit": "ten"}, "limit"},
		{"content given as number", h.HandleCaptureCreate, map[string]any{"container": map[string]any{"kind": "me"}, "content": 42}, "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustCall(t, tt.handler, tt.args)
			assertErrorCode(t, result, "INVALID_REQUEST")
			msg, _ := errorObject(t, result)["message"].(string)
			if !strings.Contains(msg, fmt.Sprintf("%q", tt.field)) {
				t.Errorf("message %q does not name argument %q", msg, tt.field)
			}
		})
	}
}

func TestHandleCaptureList(t *testing.T) {
	svc := testSetup(t)
	h := NewHandlers(svc)

	for i := 0; i < 3; i++ {
		mustCall(t, h.HandleCaptureCreate, map[string]any{
			"container": map[string]any{"kind": "me"},
			"content":   fmt.Sprintf("note %d", i),
		})
	}

	output := parseOutput(t, mustCall(t, h.HandleCaptureList, map[string]any{"limit": 2}))
	items := output["items"].([]any)
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
	pagination := output["pagination"].(map[string]any)
	if pagination["total"] != float64(3) || pagination["has_more"] != true {
		t.Errorf("pagination = %v", pagination)
	}

	result := mustCall(t, h.HandleCaptureList, map[string]any{"container_kind": "team"})
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleProjectCreateAndList(t *testing.T) {
	svc := testSetup(t)
	h := NewHandlers(svc)

	created := parseOutput(t, mustCall(t, h.HandleProjectCreate, map[string]any{"name": "Roadmap"}))
	if created["name"] != "Roadmap" {
		t.Errorf("name = %v, want Roadmap", created["name"])
	}

	dup := mustCall(t, h.HandleProjectCreate, map[string]any{"name": "  roadmap "})
	assertErrorCode(t, dup, "NAME_ALREADY_EXISTS")

	listed := parseOutput(t, mustCall(t, h.HandleProjectList, nil))
	if items := listed["items"].([]any); len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}

	// Capture under the new project
	capture := mustCall(t, h.HandleCaptureCreate, map[string]any{
		"container": map[string]any{"kind": "project", "project_id": created["id"]},
		"content":   chatText,
	})
	if capture.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(capture))
	}
}

func TestHandleTranscriptParse(t *testing.T) {
	svc := testSetup(t)
	h := NewHandlers(svc)

	output := parseOutput(t, mustCall(t, h.HandleTranscriptParse, map[string]any{"text": chatText}))
	if output["has_role_markers"] != true {
		t.Error("has_role_markers = false, want true")
	}
	if msgs := output["messages"].([]any); len(msgs) != 3 {
		t.Errorf("messages = %d, want 3", len(msgs))
	}
	if output["detected_format"] != "role_transcript" {
		t.Errorf("detected_format = %v", output["detected_format"])
	}

	swapped := parseOutput(t, mustCall(t, h.HandleTranscriptParse, map[string]any{"text": chatText, "swap_roles": true}))
	first := swapped["messages"].([]any)[0].(map[string]any)
	if first["role"] != "assistant" {
		t.Errorf("first role = %v, want assistant", first["role"])
	}

	assertErrorCode(t, mustCall(t, h.HandleTranscriptParse, map[string]any{}), "INVALID_REQUEST")

	var n int
	if err := svc.DB.QueryRow("SELECT COUNT(*) FROM captures").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("captures = %d, want 0", n)
	}
}

func TestServerRegistration(t *testing.T) {
	svc := testSetup(t)

	s := NewServer(svc, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"capture_create",
		"capture_fetch",
		"capture_list",
		"project_create",
		"project_list",
		"transcript_parse",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	svc := testSetup(t)
	svc.Cfg.DisabledTools = []string{"project_create", "project_create"}

	tools := NewServer(svc, "test").ListTools()
	if len(tools) != 5 {
		t.Errorf("registered tool count = %d, want 5", len(tools))
	}
	if _, ok := tools["project_create"]; ok {
		t.Error("disabled tool 'project_create' should not be registered")
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	svc := testSetup(t)
	svc.Cfg.DisabledTypes = []string{"capture"}

	tools := NewServer(svc, "test").ListTools()
	if len(tools) != 3 {
		t.Errorf("registered tool count = %d, want 3", len(tools))
	}
	for name := range tools {
		if GetTypeForTool(name) == "capture" {
			t.Errorf("tool %q of disabled type should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	svc := testSetup(t)
	svc.Cfg.DisabledTools = AllToolNames()

	if tools := NewServer(svc, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"capture_list", "project_create"}, 0},
		{"one unknown", []string{"capture_list", "fake_tool"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unknown := ValidateDisabledTools(tt.input); len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	if unknown := ValidateDisabledTypes([]string{"capture", "memory"}); len(unknown) != 1 || unknown[0] != "memory" {
		t.Errorf("ValidateDisabledTypes() = %v, want [memory]", unknown)
	}
}

func TestExpandTypesToTools(t *testing.T) {
	got := ExpandTypesToTools([]string{"project"})
	want := []string{"project_create", "project_list"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("ExpandTypesToTools() = %v, want %v", got, want)
	}
	if ExpandTypesToTools(nil) != nil {
		t.Error("ExpandTypesToTools(nil) should be nil")
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 6 {
		t.Errorf("AllToolNames() returned %d names, want 6", len(names))
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
	for _, name := range names {
		if unknown := ValidateDisabledTypes([]string{GetTypeForTool(name)}); len(unknown) != 0 {
			t.Errorf("tool %q has unknown type", name)
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	internal := errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied"))
	internal.Details = map[string]any{"path": "/tmp/secret.db"}

	errObj := errorObject(t, errorResult(internal))
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorKeepsCode(t *testing.T) {
	wrapped := fmt.Errorf("create capture: %w", errors.NewNotFound("project", "p1"))

	errObj := errorObject(t, errorResult(wrapped))
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainErrorIsGeneric(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("disk full at /var/lib")))
	if errObj["code"] != "INTERNAL" {
		t.Errorf("code=%v, want INTERNAL", errObj["code"])
	}
	if errObj["message"] != "an internal error occurred" {
		t.Errorf("message=%v", errObj["message"])
	}
}

// Helper functions

func mustCall(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return result
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatal("no error object in payload")
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if code := errorObject(t, result)["code"]; code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
