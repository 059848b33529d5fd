package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/errors"
)

// InsertDecision stores a decision.
func InsertDecision(ctx context.Context, q Querier, d *capture.Decision) error {
	stampNow(&d.ID, &d.CreatedAt)
	_, err := q.ExecContext(ctx, `
		INSERT INTO decisions (id, user_id, project_id, capture_id, title, content, context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, toNullString(d.ProjectID), d.CaptureID,
		d.Title, d.Content, toNullString(d.Context), d.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertTask stores a commitment, blocker or open loop.
func InsertTask(ctx context.Context, q Querier, t *capture.Task) error {
	stampNow(&t.ID, &t.CreatedAt)
	_, err := q.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, project_id, capture_id, kind, title, content, context, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, toNullString(t.ProjectID), t.CaptureID, string(t.Kind),
		t.Title, t.Content, toNullString(t.Context), t.Status, t.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertHighlight stores a highlight anchored to a segment message.
func InsertHighlight(ctx context.Context, q Querier, h *capture.Highlight) error {
	stampNow(&h.ID, &h.CreatedAt)
	_, err := q.ExecContext(ctx, `
		INSERT INTO highlights (id, user_id, project_id, capture_id, segment_id, message_index, title, content, context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, toNullString(h.ProjectID), h.CaptureID, h.SegmentID, h.MessageIndex,
		h.Title, h.Content, toNullString(h.Context), h.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListArtifacts returns every artifact persisted from captureID, each list in
// insertion order.
func ListArtifacts(ctx context.Context, q Querier, captureID string) (*capture.Artifacts, error) {
	out := &capture.Artifacts{
		Decisions:  []capture.Decision{},
		Tasks:      []capture.Task{},
		Highlights: []capture.Highlight{},
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, project_id, capture_id, title, content, context, created_at
		FROM decisions WHERE capture_id = ? ORDER BY created_at, rowid`, captureID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		var d capture.Decision
		var projectID, note sql.NullString
		if err := rows.Scan(&d.ID, &d.UserID, &projectID, &d.CaptureID, &d.Title, &d.Content, &note, &d.CreatedAt); err != nil {
			return err
		}
		d.ProjectID, d.Context = fromNullString(projectID), fromNullString(note)
		out.Decisions = append(out.Decisions, d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `
		SELECT id, user_id, project_id, capture_id, kind, title, content, context, status, created_at
		FROM tasks WHERE capture_id = ? ORDER BY created_at, rowid`, captureID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		var t capture.Task
		var kind string
		var projectID, note sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &projectID, &t.CaptureID, &kind, &t.Title, &t.Content, &note, &t.Status, &t.CreatedAt); err != nil {
			return err
		}
		t.Kind = capture.TaskKind(kind)
		t.ProjectID, t.Context = fromNullString(projectID), fromNullString(note)
		out.Tasks = append(out.Tasks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `
		SELECT id, user_id, project_id, capture_id, segment_id, message_index, title, content, context, created_at
		FROM highlights WHERE capture_id = ? ORDER BY created_at, rowid`, captureID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		var h capture.Highlight
		var projectID, note sql.NullString
		if err := rows.Scan(&h.ID, &h.UserID, &projectID, &h.CaptureID, &h.SegmentID, &h.MessageIndex, &h.Title, &h.Content, &note, &h.CreatedAt); err != nil {
			return err
		}
		h.ProjectID, h.Context = fromNullString(projectID), fromNullString(note)
		out.Highlights = append(out.Highlights, h)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// scanRows drains rows through fn and closes them.
func scanRows(rows *sql.Rows, fn func(*sql.Rows) error) error {
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return errors.NewInternal(err)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
