package mcp

import (
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/sift/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"capture", "project", "transcript"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"capture_create": {
		def:     captureCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureCreate },
	},
	"capture_fetch": {
		def:     captureFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureFetch },
	},
	"capture_list": {
		def:     captureListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureList },
	},
	"project_create": {
		def:     projectCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectCreate },
	},
	"project_list": {
		def:     projectListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectList },
	},
	"transcript_parse": {
		def:     transcriptParseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTranscriptParse },
	},
}

// AllToolNames returns all valid tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "capture_create" → "capture").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	sort.Strings(tools)
	return tools
}

// enabledTools returns the registered tool names minus those disabled by
// name or by type.
func enabledTools(disabledTools, disabledTypes []string) []string {
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(disabledTypes) {
		disabled[tool] = true
	}
	for _, name := range disabledTools {
		disabled[name] = true
	}

	names := make([]string, 0, len(toolRegistry))
	for _, name := range AllToolNames() {
		if !disabled[name] {
			names = append(names, name)
		}
	}
	return names
}

// NewServer creates a new MCP server with Sift tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(svc *ops.Services, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"sift",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(svc)

	var disabledTools, disabledTypes []string
	if svc.Cfg != nil {
		disabledTools, disabledTypes = svc.Cfg.DisabledTools, svc.Cfg.DisabledTypes
	}
	for _, name := range enabledTools(disabledTools, disabledTypes) {
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(svc *ops.Services, version string) error {
	return server.ServeStdio(NewServer(svc, version))
}
