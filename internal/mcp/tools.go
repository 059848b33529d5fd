package mcp

import "github.com/mark3labs/mcp-go/mcp"

var captureCreateToolDef = mcp.NewTool("capture_create",
	mcp.WithDescription("Store raw conversational text as a capture. With source_mode discard_after_reduce the text is reduced to decisions, tasks and highlights immediately and the raw text is erased."),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithObject("container",
		mcp.Required(),
		mcp.Description(`Where the capture belongs: {"kind":"me"} or {"kind":"project","project_id":"..."}`),
		mcp.Properties(map[string]any{
			"kind":       map[string]any{"type": "string", "enum": []string{"me", "project"}},
			"project_id": map[string]any{"type": "string"},
		}),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Raw text. Role markers like 'User:' and 'Assistant:' are recognized."),
	),
	mcp.WithString("source_mode",
		mcp.Description("durable keeps the raw text (default); discard_after_reduce erases it after reduction"),
		mcp.Enum("durable", "discard_after_reduce"),
	),
	mcp.WithString("source_type",
		mcp.Description("Where the text came from (default: text)"),
		mcp.Enum("text", "chat", "email", "slack", "extension"),
	),
	mcp.WithString("thinking_choice",
		mcp.Description("When the thinking happened (default: today)"),
		mcp.Enum("today", "yesterday", "last_week", "last_month"),
	),
	mcp.WithObject("metadata",
		mcp.Description("Opaque key/values stored with the capture; never returned"),
	),
	mcp.WithBoolean("include_diagnostics",
		mcp.Description("Include the full reduction diagnostics in the result (default: false)"),
	),
)

var captureFetchToolDef = mcp.NewTool("capture_fetch",
	mcp.WithDescription("Fetch a capture with its raw segment and the artifacts reduced from it."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Capture id"),
	),
	mcp.WithBoolean("include_content",
		mcp.Description("Include raw segment text (default: true)"),
	),
)

var captureListToolDef = mcp.NewTool("capture_list",
	mcp.WithDescription("List captures newest thinking window first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("container_kind",
		mcp.Description("Filter by container kind"),
		mcp.Enum("me", "project"),
	),
	mcp.WithString("project_id",
		mcp.Description("Filter by project id"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results (default: 20, max: 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Number of results to skip (default: 0)"),
	),
)

var projectCreateToolDef = mcp.NewTool("project_create",
	mcp.WithDescription("Create a project that captures can be filed under. Names are unique per user, case-insensitive."),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Project name"),
	),
	mcp.WithString("description",
		mcp.Description("Optional description"),
	),
)

var projectListToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List your projects ordered by name."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var transcriptParseToolDef = mcp.NewTool("transcript_parse",
	mcp.WithDescription("Split text into user/assistant messages using role markers. Stores nothing."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Transcript text"),
	),
	mcp.WithBoolean("swap_roles",
		mcp.Description("Swap user and assistant in the result (default: false)"),
	),
	mcp.WithBoolean("single_block",
		mcp.Description("Treat the whole text as one user message (default: false)"),
	),
)
