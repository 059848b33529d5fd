package reduce

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/insight"
	"github.com/hpungsan/sift/internal/logging"
	"github.com/hpungsan/sift/internal/transcript"
)

// TaskStatusOpen is the status of newly created tasks.
const TaskStatusOpen = "open"

// Store is the persistence the orchestrator needs. Every call is one
// independent write or read; a failure affects only that item.
type Store interface {
	InsertDecision(ctx context.Context, d *capture.Decision) error
	InsertTask(ctx context.Context, t *capture.Task) error
	InsertHighlight(ctx context.Context, h *capture.Highlight) error

	// DiscardSegment empties the segment's content and replaces its metadata.
	DiscardSegment(ctx context.Context, segmentID string, meta capture.SegmentMeta) error
	GetSegment(ctx context.Context, segmentID string) (*capture.Segment, error)
}

// RunInput identifies the capture and its raw segment.
type RunInput struct {
	Capture *capture.Capture
	Segment *capture.Segment
}

// Orchestrator runs reductions. It holds no per-run state and is safe to
// reuse across calls.
type Orchestrator struct {
	Store     Store
	Extractor insight.Extractor
	Logger    *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// LogDiagnostics logs the full diagnostics payload at debug level.
	LogDiagnostics bool
}

// Run reduces in.Segment. It never returns an error: every failure after
// this point is recorded in the returned diagnostics.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) *Diagnostics {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	log := logging.OrDiscard(o.Logger)
	c, seg := in.Capture, in.Segment

	diag := newDiagnostics(uuid.Must(uuid.NewV7()).String(), c.ID, c.SourceMode, now().UTC())

	norm := transcript.Normalize(seg.Content)
	diag.Input = InputStats{
		DetectedFormat:   norm.DetectedFormat,
		HadExplicitRoles: norm.HadExplicitRoles,
		NormalizedRoles:  norm.NormalizedRoles,
		MessageCount:     len(norm.Messages),
		ByteLength:       len(seg.Content),
		TokenEstimate:    utf8.RuneCountInString(seg.Content) / 4,
	}
	for _, w := range norm.Warnings {
		diag.warn(w)
	}

	extractionFailed := false
	if len(norm.Messages) == 0 {
		diag.warn(ReasonNoActionableItems)
		diag.tagRun(ReasonNoActionableItems)
	} else {
		cands, err := o.extract(ctx, norm.Messages)
		if err != nil {
			extractionFailed = true
			diag.tagRun(ReasonExtractionFailed)
			diag.recordError(ReasonExtractionFailed, CategoryRun, nil, err.Error())
			log.Warn("extraction failed", "capture_id", c.ID, "run_id", diag.RunID, "error", err)
		} else {
			o.persist(ctx, diag, c, seg, cands, len(norm.Messages))
		}
		diag.computeDropped()
	}

	if c.SourceMode == capture.SourceModeDiscardAfterReduce {
		o.discard(ctx, diag, c, seg, now)
	}

	if len(norm.Messages) > 0 && !extractionFailed && diag.Output.Persisted.Total() == 0 {
		if diag.Output.Extracted.Total() == 0 {
			diag.warn(ReasonNoActionableItems)
			diag.tagRun(ReasonNoActionableItems)
		} else {
			diag.warn(ReasonAllItemsFilteredOrFail)
			diag.tagRun(ReasonAllItemsFilteredOrFail)
		}
	}

	diag.FinishedAt = now().UTC()

	if err := diag.Reconcile(); err != nil {
		log.Error("diagnostics do not reconcile", "capture_id", c.ID, "run_id", diag.RunID, "error", err)
	}

	log.Info("reduction complete",
		"capture_id", c.ID,
		"run_id", diag.RunID,
		"source_mode", c.SourceMode,
		"messages", diag.Input.MessageCount,
		"extracted", diag.Output.Extracted.Total(),
		"persisted", diag.Output.Persisted.Total(),
		"errors", len(diag.Errors),
	)
	if o.LogDiagnostics {
		log.Debug("reduction diagnostics", "diagnostics", diag)
	}

	return diag
}

func (o *Orchestrator) extract(ctx context.Context, msgs []transcript.Segment) (*insight.Candidates, error) {
	ex := o.Extractor
	if ex == nil {
		ex = insight.NopExtractor{}
	}
	cands, err := ex.Extract(ctx, msgs)
	if err != nil {
		return nil, err
	}
	if cands == nil {
		cands = &insight.Candidates{}
	}
	return cands, nil
}

// taskGroup binds a task kind to its candidates and drop reasons.
type taskGroup struct {
	kind          capture.TaskKind
	items         []insight.Candidate
	failedReason  string
	invalidReason string
}

// persist writes each candidate independently, sequentially and per category.
func (o *Orchestrator) persist(ctx context.Context, diag *Diagnostics, c *capture.Capture, seg *capture.Segment, cands *insight.Candidates, messageCount int) {
	diag.Output.Extracted = Counts{
		Decisions:  len(cands.Decisions),
		Tasks:      cands.TaskCount(),
		Highlights: len(cands.SuggestedHighlights),
	}
	projectID := c.ProjectID()

	for i, cand := range cands.Decisions {
		if cand.Blank() {
			diag.warn(ReasonDecisionInvalid)
			diag.countReason(ReasonDecisionInvalid)
			continue
		}
		d := &capture.Decision{
			UserID:    c.UserID,
			ProjectID: projectID,
			CaptureID: c.ID,
			Title:     cand.Title,
			Content:   cand.Content,
			Context:   cand.Context,
		}
		if err := o.Store.InsertDecision(ctx, d); err != nil {
			diag.countReason(ReasonDecisionInsertFailed)
			diag.recordError(ReasonDecisionInsertFailed, CategoryDecision, intPtr(i), err.Error())
			continue
		}
		diag.Output.Persisted.Decisions++
	}

	groups := []taskGroup{
		{capture.TaskCommitment, cands.Commitments, ReasonCommitmentInsertFailed, ReasonCommitmentInvalid},
		{capture.TaskBlocker, cands.Blockers, ReasonBlockerInsertFailed, ReasonBlockerInvalid},
		{capture.TaskOpenLoop, cands.OpenLoops, ReasonOpenLoopInsertFailed, ReasonOpenLoopInvalid},
	}
	for _, g := range groups {
		for i, cand := range g.items {
			if cand.Blank() {
				diag.warn(g.invalidReason)
				diag.countReason(g.invalidReason)
				continue
			}
			t := &capture.Task{
				UserID:    c.UserID,
				ProjectID: projectID,
				CaptureID: c.ID,
				Kind:      g.kind,
				Title:     cand.Title,
				Content:   cand.Content,
				Context:   cand.Context,
				Status:    TaskStatusOpen,
			}
			if err := o.Store.InsertTask(ctx, t); err != nil {
				diag.countReason(g.failedReason)
				diag.recordError(g.failedReason, CategoryTask, intPtr(i), fmt.Sprintf("%s: %v", g.kind, err))
				continue
			}
			diag.Output.Persisted.Tasks++
		}
	}

	for i, cand := range cands.SuggestedHighlights {
		if cand.Blank() {
			diag.warn(ReasonHighlightInvalid)
			diag.countReason(ReasonHighlightInvalid)
			continue
		}
		if cand.MessageIndex == nil || *cand.MessageIndex < 0 || *cand.MessageIndex >= messageCount {
			diag.warn(ReasonHighlightMissingMsg)
			diag.countReason(ReasonHighlightMissingMsg)
			continue
		}
		h := &capture.Highlight{
			UserID:       c.UserID,
			ProjectID:    projectID,
			CaptureID:    c.ID,
			SegmentID:    seg.ID,
			MessageIndex: *cand.MessageIndex,
			Title:        cand.Title,
			Content:      cand.Content,
			Context:      cand.Context,
		}
		if err := o.Store.InsertHighlight(ctx, h); err != nil {
			diag.countReason(ReasonHighlightInsertFailed)
			diag.recordError(ReasonHighlightInsertFailed, CategoryHighlight, intPtr(i), err.Error())
			continue
		}
		diag.Output.Persisted.Highlights++
	}
}

// discard erases the raw text and re-reads the segment to confirm it is gone.
func (o *Orchestrator) discard(ctx context.Context, diag *Diagnostics, c *capture.Capture, seg *capture.Segment, now func() time.Time) {
	at := now().Unix()
	diag.Discard = &DiscardStats{Attempted: true}

	if err := o.Store.DiscardSegment(ctx, seg.ID, capture.DiscardedMeta(c.SourceMode, at)); err != nil {
		diag.warn(ReasonDiscardFailed)
		diag.tagRun(ReasonDiscardFailed)
		diag.recordError(ReasonDiscardFailed, CategoryRun, nil, err.Error())
		return
	}
	diag.Discard.DiscardedAt = &at

	reread, err := o.Store.GetSegment(ctx, seg.ID)
	switch {
	case err != nil:
		diag.warn(ReasonDiscardConfirmFailed)
		diag.tagRun(ReasonDiscardConfirmFailed)
		diag.recordError(ReasonDiscardConfirmFailed, CategoryRun, nil, err.Error())
	case reread.Content != "" || !reread.Meta.SourceDiscarded:
		diag.warn(ReasonDiscardConfirmFailed)
		diag.tagRun(ReasonDiscardConfirmFailed)
		diag.recordError(ReasonDiscardConfirmFailed, CategoryRun, nil, "segment content still present after discard")
	default:
		diag.Discard.Confirmed = true
	}
}

func intPtr(i int) *int {
	return &i
}
