package web

import (
	"net/http"
	"strconv"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/ops"
)

// Handlers contains HTTP route handlers for the JSON API.
type Handlers struct {
	svc     *ops.Services
	version string
}

type createCaptureBody struct {
	Container          capture.ContainerRef `json:"container"`
	Content            string               `json:"content"`
	SourceMode         string               `json:"source_mode,omitempty"`
	SourceType         string               `json:"source_type,omitempty"`
	ThinkingChoice     string               `json:"thinking_choice,omitempty"`
	Metadata           map[string]any       `json:"metadata,omitempty"`
	IncludeDiagnostics bool                 `json:"include_diagnostics,omitempty"`
}

type createProjectBody struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type parseTranscriptBody struct {
	Text        string `json:"text"`
	SwapRoles   bool   `json:"swap_roles,omitempty"`
	SingleBlock bool   `json:"single_block,omitempty"`
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DB.PingContext(r.Context()); err != nil {
		renderError(w, errors.NewInternal(err))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": h.version})
}

// HandleCreateCapture handles POST /captures.
func (h *Handlers) HandleCreateCapture(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[createCaptureBody](w, r)
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.CreateCapture(r.Context(), h.svc, ops.CreateCaptureInput{
		Container:          body.Container,
		SourceMode:         body.SourceMode,
		SourceType:         body.SourceType,
		Content:            body.Content,
		ThinkingChoice:     body.ThinkingChoice,
		Metadata:           body.Metadata,
		IncludeDiagnostics: body.IncludeDiagnostics,
	})
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusCreated, result)
}

// HandleListCaptures handles GET /captures.
func (h *Handlers) HandleListCaptures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.ListCaptures(r.Context(), h.svc.DB, h.svc.Cfg, ops.ListCapturesInput{
		ContainerKind: q.Get("container_kind"),
		ProjectID:     q.Get("project_id"),
		Limit:         parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:        parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleFetchCapture handles GET /captures/{id}.
func (h *Handlers) HandleFetchCapture(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		renderError(w, errors.NewInvalidRequest("capture ID is required"))
		return
	}

	input := ops.FetchCaptureInput{ID: id}
	if r.URL.Query().Has("include_content") {
		include := parseBoolParam(r, "include_content")
		input.IncludeContent = &include
	}

	result, err := ops.FetchCapture(r.Context(), h.svc.DB, h.svc.Cfg, input)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleCreateProject handles POST /projects.
func (h *Handlers) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[createProjectBody](w, r)
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.CreateProject(r.Context(), h.svc.DB, h.svc.Cfg, ops.CreateProjectInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusCreated, result)
}

// HandleListProjects handles GET /projects.
func (h *Handlers) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListProjects(r.Context(), h.svc.DB, h.svc.Cfg)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleParseTranscript handles POST /transcripts/parse. Nothing is stored.
func (h *Handlers) HandleParseTranscript(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[parseTranscriptBody](w, r)
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.ParseTranscript(ops.ParseTranscriptInput{
		Text:        body.Text,
		SwapRoles:   body.SwapRoles,
		SingleBlock: body.SingleBlock,
	})
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleListJobs handles GET /jobs, listing pending recompute jobs.
func (h *Handlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListJobs(r.Context(), h.svc.DB, parseIntParam(r, "limit", ops.DefaultJobsLimit))
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
