package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/window"
)

// CreateCapture writes the capture row, the project link (for project
// containers) and the raw segment in one transaction. Either all three rows
// exist afterward or none do.
func CreateCapture(ctx context.Context, database *sql.DB, c *capture.Capture, seg *capture.Segment) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := InsertCapture(ctx, tx, c); err != nil {
		return err
	}
	if p, ok := c.Container.(capture.Project); ok {
		if err := LinkProjectCapture(ctx, tx, p.ProjectID, c.ID, c.CreatedAt); err != nil {
			return err
		}
	}
	seg.CaptureID = c.ID
	if err := InsertSegment(ctx, tx, seg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertCapture stores a capture row.
func InsertCapture(ctx context.Context, q Querier, c *capture.Capture) error {
	stampNow(&c.ID, &c.CreatedAt)

	var metaJSON sql.NullString
	if len(c.Metadata) > 0 {
		data, err := json.Marshal(c.Metadata)
		if err != nil {
			return errors.NewInternal(err)
		}
		metaJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO captures (
			id, user_id, container_kind, project_id, source_mode, source_type,
			window_start, window_end, window_start_unix, metadata_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		c.ID, c.UserID, string(c.Container.Kind()), toNullString(c.ProjectID()),
		string(c.SourceMode), string(c.SourceType),
		c.Window.StartAt.Format(time.RFC3339Nano), c.Window.EndAt.Format(time.RFC3339Nano),
		c.Window.StartAt.Unix(), metaJSON, c.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LinkProjectCapture records that captureID belongs to projectID.
func LinkProjectCapture(ctx context.Context, q Querier, projectID, captureID string, at int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO project_captures (project_id, capture_id, created_at) VALUES (?, ?, ?)`,
		projectID, captureID, at,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetCapture retrieves a capture by id. Metadata is loaded but callers must
// not surface it.
func GetCapture(ctx context.Context, q Querier, id string) (*capture.Capture, error) {
	query := `
		SELECT id, user_id, container_kind, project_id, source_mode, source_type,
			window_start, window_end, metadata_json, created_at
		FROM captures
		WHERE id = ?
	`
	var (
		c             capture.Capture
		kind          string
		projectID     sql.NullString
		mode, srcType string
		start, end    string
		metaJSON      sql.NullString
	)
	err := q.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &kind, &projectID, &mode, &srcType,
		&start, &end, &metaJSON, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("capture", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	c.Container = containerFromRow(kind, projectID)
	c.SourceMode = capture.SourceMode(mode)
	c.SourceType = capture.SourceType(srcType)
	if c.Window, err = windowFromRow(start, end); err != nil {
		return nil, errors.NewInternal(err)
	}
	if metaJSON.Valid {
		if err := json.Unmarshal([]byte(metaJSON.String), &c.Metadata); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	return &c, nil
}

// CaptureFilter narrows ListCaptures. A nil Container lists every capture of
// the user.
type CaptureFilter struct {
	UserID    string
	Container *capture.ContainerRef
}

// ListCaptures returns capture summaries ordered by thinking window start
// (newest first), plus the total matching count.
func ListCaptures(ctx context.Context, q Querier, f CaptureFilter, limit, offset int) ([]capture.CaptureSummary, int, error) {
	where := "c.user_id = ?"
	args := []any{f.UserID}
	if f.Container != nil {
		where += " AND c.container_kind = ?"
		args = append(args, f.Container.Kind)
		if f.Container.ProjectID != "" {
			where += " AND c.project_id = ?"
			args = append(args, f.Container.ProjectID)
		}
	}

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM captures c WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.container_kind, c.project_id, c.source_mode, c.source_type,
			c.window_start, c.window_end, c.created_at,
			COALESCE(json_extract(s.metadata_json, '$.source_discarded'), 0)
		FROM captures c
		LEFT JOIN capture_segments s ON s.capture_id = c.id AND s.segment_index = 0
		WHERE %s
		ORDER BY c.window_start_unix DESC, c.id DESC
		LIMIT ? OFFSET ?
	`, where)
	rows, err := q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	summaries := []capture.CaptureSummary{}
	for rows.Next() {
		var (
			s             capture.CaptureSummary
			kind          string
			projectID     sql.NullString
			mode, srcType string
			start, end    string
			discarded     int
		)
		if err := rows.Scan(&s.ID, &kind, &projectID, &mode, &srcType, &start, &end, &s.CreatedAt, &discarded); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		s.Container = capture.RefOf(containerFromRow(kind, projectID))
		s.SourceMode = capture.SourceMode(mode)
		s.SourceType = capture.SourceType(srcType)
		s.Discarded = discarded != 0
		if s.Window, err = windowFromRow(start, end); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return summaries, total, nil
}

// CountCaptures returns the number of capture rows. Used to assert that failed
// ingestions wrote nothing.
func CountCaptures(ctx context.Context, q Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM captures").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func containerFromRow(kind string, projectID sql.NullString) capture.Container {
	if capture.ContainerKind(kind) == capture.ContainerProject && projectID.Valid {
		return capture.Project{ProjectID: projectID.String}
	}
	return capture.Me{}
}

func windowFromRow(start, end string) (window.Window, error) {
	s, err := time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return window.Window{}, fmt.Errorf("parsing window_start: %w", err)
	}
	e, err := time.Parse(time.RFC3339Nano, end)
	if err != nil {
		return window.Window{}, fmt.Errorf("parsing window_end: %w", err)
	}
	return window.Window{StartAt: s, EndAt: e}, nil
}
