package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/reduce"
	"github.com/hpungsan/sift/internal/schedule"
	"github.com/hpungsan/sift/internal/window"
)

// CreateCaptureInput contains parameters for the CreateCapture operation.
type CreateCaptureInput struct {
	Container      capture.ContainerRef
	SourceMode     string // default: durable
	SourceType     string // default: text
	Content        string // required
	ThinkingChoice string // default: today

	// Metadata is stored with the capture and never returned.
	Metadata map[string]any

	IncludeDiagnostics bool
}

// CreateCaptureOutput contains the result of the CreateCapture operation.
type CreateCaptureOutput struct {
	CaptureID            string               `json:"capture_id"`
	Container            capture.ContainerRef `json:"container"`
	SourceMode           capture.SourceMode   `json:"source_mode"`
	ThinkingWindow       window.Window        `json:"thinking_window"`
	Outcomes             reduce.Counts        `json:"outcomes"`
	Diagnostics          *reduce.Diagnostics  `json:"diagnostics,omitempty"`
	StructureJobEnqueued bool                 `json:"structure_job_enqueued"`
}

// CreateCapture validates and stores one capture. In discard_after_reduce
// mode it reduces the capture immediately and erases the raw text.
//
// An error means nothing was written. A successful result may still carry
// soft failures in Diagnostics.Errors.
func CreateCapture(ctx context.Context, svc *Services, input CreateCaptureInput) (*CreateCaptureOutput, error) {
	userID := svc.userID()

	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}
	mode, err := capture.ParseSourceMode(input.SourceMode)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	srcType, err := capture.ParseSourceType(input.SourceType)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	choice, err := window.ParseChoice(input.ThinkingChoice)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	container, err := capture.ParseContainer(input.Container)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	if p, ok := container.(capture.Project); ok {
		if err := checkProjectOwner(ctx, svc, p.ProjectID, userID); err != nil {
			return nil, err
		}
	}

	now := svc.now()
	w, err := window.ResolveAt(choice, now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	c := &capture.Capture{
		ID:         db.NewID(),
		UserID:     userID,
		Container:  container,
		SourceMode: mode,
		SourceType: srcType,
		Window:     w,
		Metadata:   input.Metadata,
		CreatedAt:  now.Unix(),
	}
	seg := &capture.Segment{
		ID:        db.NewID(),
		CaptureID: c.ID,
		Index:     0,
		Content:   input.Content,
		Meta:      capture.SegmentMeta{SourceType: srcType, SourceMode: mode},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.CreatedAt,
	}
	if err := db.CreateCapture(ctx, svc.DB, c, seg); err != nil {
		return nil, err
	}

	out := &CreateCaptureOutput{
		CaptureID:      c.ID,
		Container:      c.ContainerRef(),
		SourceMode:     mode,
		ThinkingWindow: w,
	}

	if mode == capture.SourceModeDiscardAfterReduce {
		diag := svc.orchestrator().Run(ctx, reduce.RunInput{Capture: c, Segment: seg})
		out.Outcomes = diag.Output.Persisted
		if input.IncludeDiagnostics {
			out.Diagnostics = diag
		}
	}

	out.StructureJobEnqueued = notify(ctx, svc, schedule.Request{
		UserID: userID,
		Scope:  capture.Scope(container),
		Reason: schedule.ReasonIngestion,
	})

	return out, nil
}

// checkProjectOwner returns NOT_FOUND both for missing projects and for
// projects owned by someone else, so the two are indistinguishable.
func checkProjectOwner(ctx context.Context, svc *Services, projectID, userID string) error {
	p, err := db.GetProject(ctx, svc.DB, projectID)
	if errors.Is(err, errors.ErrNotFound) || (err == nil && p.OwnerID != userID) {
		return errors.NewNotFound("project", projectID)
	}
	return err
}

// notify is best-effort: a failure is logged and reported as false.
func notify(ctx context.Context, svc *Services, req schedule.Request) bool {
	if svc.Notifier == nil {
		return false
	}
	if err := svc.Notifier.Notify(ctx, req); err != nil {
		svc.logger().Warn("recompute notification failed",
			"user_id", req.UserID, "scope", req.Scope, "reason", req.Reason, "error", err)
		return false
	}
	return true
}
