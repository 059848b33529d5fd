package capture

import (
	"fmt"
	"strings"

	"github.com/hpungsan/sift/internal/window"
)

// SourceMode controls whether raw text survives reduction.
type SourceMode string

const (
	SourceModeDurable            SourceMode = "durable"
	SourceModeDiscardAfterReduce SourceMode = "discard_after_reduce"
)

// ParseSourceMode validates s. The empty string selects durable.
func ParseSourceMode(s string) (SourceMode, error) {
	switch m := SourceMode(strings.TrimSpace(s)); m {
	case "":
		return SourceModeDurable, nil
	case SourceModeDurable, SourceModeDiscardAfterReduce:
		return m, nil
	default:
		return "", fmt.Errorf("source_mode must be one of: durable, discard_after_reduce")
	}
}

// SourceType records where the raw text came from.
type SourceType string

const (
	SourceTypeText      SourceType = "text"
	SourceTypeChat      SourceType = "chat"
	SourceTypeEmail     SourceType = "email"
	SourceTypeSlack     SourceType = "slack"
	SourceTypeExtension SourceType = "extension"
)

// ParseSourceType validates s. The empty string selects text.
func ParseSourceType(s string) (SourceType, error) {
	switch st := SourceType(strings.TrimSpace(s)); st {
	case "":
		return SourceTypeText, nil
	case SourceTypeText, SourceTypeChat, SourceTypeEmail, SourceTypeSlack, SourceTypeExtension:
		return st, nil
	default:
		return "", fmt.Errorf("source_type must be one of: text, chat, email, slack, extension")
	}
}

// Capture is one ingestion event. It is never mutated after creation except
// through its raw segment.
type Capture struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	Container  Container     `json:"-"`
	SourceMode SourceMode    `json:"source_mode"`
	SourceType SourceType    `json:"source_type"`
	Window     window.Window `json:"thinking_window"`

	// Metadata is caller-supplied and opaque; it is stored but never surfaced.
	Metadata map[string]any `json:"-"`

	CreatedAt int64 `json:"created_at"`
}

// ContainerRef returns the wire form of the capture's container.
func (c *Capture) ContainerRef() ContainerRef {
	return RefOf(c.Container)
}

// ProjectID returns the owning project id, or nil for the personal scope.
func (c *Capture) ProjectID() *string {
	if p, ok := c.Container.(Project); ok {
		id := p.ProjectID
		return &id
	}
	return nil
}

// CaptureSummary is a capture without its raw text, used by list operations.
type CaptureSummary struct {
	ID         string        `json:"id"`
	Container  ContainerRef  `json:"container"`
	SourceMode SourceMode    `json:"source_mode"`
	SourceType SourceType    `json:"source_type"`
	Window     window.Window `json:"thinking_window"`
	Discarded  bool          `json:"source_discarded"`
	CreatedAt  int64         `json:"created_at"`
}
