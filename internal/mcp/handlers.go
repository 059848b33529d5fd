package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc *ops.Services
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *ops.Services) *Handlers {
	return &Handlers{svc: svc}
}

// Request types for each tool

// CaptureCreateRequest represents the arguments for capture_create.
type CaptureCreateRequest struct {
	Container          capture.ContainerRef `json:"container"`
	Content            string               `json:"content"`
	SourceMode         string               `json:"source_mode,omitempty"`
	SourceType         string               `json:"source_type,omitempty"`
	ThinkingChoice     string               `json:"thinking_choice,omitempty"`
	Metadata           map[string]any       `json:"metadata,omitempty"`
	IncludeDiagnostics bool                 `json:"include_diagnostics,omitempty"`
}

// CaptureFetchRequest represents the arguments for capture_fetch.
type CaptureFetchRequest struct {
	ID             string `json:"id"`
	IncludeContent *bool  `json:"include_content,omitempty"`
}

// CaptureListRequest represents the arguments for capture_list.
type CaptureListRequest struct {
	ContainerKind string `json:"container_kind,omitempty"`
	ProjectID     string `json:"project_id,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// ProjectCreateRequest represents the arguments for project_create.
type ProjectCreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// TranscriptParseRequest represents the arguments for transcript_parse.
type TranscriptParseRequest struct {
	Text        string `json:"text"`
	SwapRoles   bool   `json:"swap_roles,omitempty"`
	SingleBlock bool   `json:"single_block,omitempty"`
}

// Handler implementations

// HandleCaptureCreate handles the capture_create tool call.
func (h *Handlers) HandleCaptureCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureCreateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.CreateCapture(ctx, h.svc, ops.CreateCaptureInput{
		Container:          input.Container,
		SourceMode:         input.SourceMode,
		SourceType:         input.SourceType,
		Content:            input.Content,
		ThinkingChoice:     input.ThinkingChoice,
		Metadata:           input.Metadata,
		IncludeDiagnostics: input.IncludeDiagnostics,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCaptureFetch handles the capture_fetch tool call.
func (h *Handlers) HandleCaptureFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureFetchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.FetchCapture(ctx, h.svc.DB, h.svc.Cfg, ops.FetchCaptureInput{
		ID:             input.ID,
		IncludeContent: input.IncludeContent,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCaptureList handles the capture_list tool call.
func (h *Handlers) HandleCaptureList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ListCaptures(ctx, h.svc.DB, h.svc.Cfg, ops.ListCapturesInput{
		ContainerKind: input.ContainerKind,
		ProjectID:     input.ProjectID,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleProjectCreate handles the project_create tool call.
func (h *Handlers) HandleProjectCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectCreateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.CreateProject(ctx, h.svc.DB, h.svc.Cfg, ops.CreateProjectInput{
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleProjectList handles the project_list tool call.
func (h *Handlers) HandleProjectList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListProjects(ctx, h.svc.DB, h.svc.Cfg)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTranscriptParse handles the transcript_parse tool call.
func (h *Handlers) HandleTranscriptParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TranscriptParseRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ParseTranscript(ops.ParseTranscriptInput{
		Text:        input.Text,
		SwapRoles:   input.SwapRoles,
		SingleBlock: input.SingleBlock,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if siftErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    siftErr.Code,
			"message": siftErr.Message,
			"status":  siftErr.Status,
		}
		// Internal details can carry SQL or file paths
		if siftErr.Code != errors.ErrInternal && siftErr.Details != nil {
			errorObj["details"] = siftErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
