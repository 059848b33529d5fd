package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
)

// FetchCaptureInput contains parameters for the FetchCapture operation.
type FetchCaptureInput struct {
	ID             string // required
	IncludeContent *bool  // default: true (nil means default)
}

// FetchCaptureOutput is a capture with its raw segment and artifacts.
// Caller metadata is never included.
type FetchCaptureOutput struct {
	capture.Capture
	ContainerRef capture.ContainerRef `json:"container"`
	Segment      capture.Segment      `json:"segment"`
	Artifacts    capture.Artifacts    `json:"artifacts"`
}

// FetchCapture retrieves a capture owned by the acting identity.
func FetchCapture(ctx context.Context, database *sql.DB, cfg *config.Config, input FetchCaptureInput) (*FetchCaptureOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	c, err := db.GetCapture(ctx, database, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != actingUser(cfg) {
		return nil, errors.NewNotFound("capture", id)
	}

	seg, err := db.GetRawSegment(ctx, database, c.ID)
	if err != nil {
		return nil, err
	}
	artifacts, err := db.ListArtifacts(ctx, database, c.ID)
	if err != nil {
		return nil, err
	}

	out := &FetchCaptureOutput{
		Capture:      *c,
		ContainerRef: c.ContainerRef(),
		Segment:      *seg,
		Artifacts:    *artifacts,
	}
	out.Metadata = nil

	if input.IncludeContent != nil && !*input.IncludeContent {
		out.Segment.Content = ""
	}
	return out, nil
}
