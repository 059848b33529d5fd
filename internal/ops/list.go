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

// ListCapturesInput contains parameters for the ListCaptures operation.
type ListCapturesInput struct {
	ContainerKind string // optional: me or project
	ProjectID     string // optional, requires ContainerKind=project
	Limit         int    // default: 20, max: 100
	Offset        int    // default: 0
}

// ListCapturesOutput contains the result of the ListCaptures operation.
type ListCapturesOutput struct {
	Items      []capture.CaptureSummary `json:"items"`
	Pagination Pagination               `json:"pagination"`
	Sort       string                   `json:"sort"`
}

// ListCaptures retrieves capture summaries for the acting identity with pagination.
func ListCaptures(ctx context.Context, database *sql.DB, cfg *config.Config, input ListCapturesInput) (*ListCapturesOutput, error) {
	filter := db.CaptureFilter{UserID: actingUser(cfg)}

	kind := capture.ContainerKind(strings.ToLower(strings.TrimSpace(input.ContainerKind)))
	projectID := strings.TrimSpace(input.ProjectID)
	switch kind {
	case "":
		if projectID != "" {
			kind = capture.ContainerProject
		}
	case capture.ContainerMe:
		if projectID != "" {
			return nil, errors.NewInvalidRequest("container kind \"me\" does not take a project_id")
		}
	case capture.ContainerProject:
	default:
		return nil, errors.NewInvalidRequest("container kind must be one of: me, project")
	}
	if kind != "" {
		filter.Container = &capture.ContainerRef{Kind: string(kind), ProjectID: projectID}
	}

	limit, offset := clampPage(input.Limit, input.Offset, DefaultListLimit, MaxListLimit)

	summaries, total, err := db.ListCaptures(ctx, database, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	return &ListCapturesOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "thinking_window_desc",
	}, nil
}
