package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/errors"
)

// InsertSegment stores a raw segment with its provenance metadata.
func InsertSegment(ctx context.Context, q Querier, seg *capture.Segment) error {
	stampNow(&seg.ID, &seg.CreatedAt)
	if seg.UpdatedAt == 0 {
		seg.UpdatedAt = seg.CreatedAt
	}

	meta, err := json.Marshal(seg.Meta)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO capture_segments (
			id, capture_id, segment_index, content, metadata_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		seg.ID, seg.CaptureID, seg.Index, seg.Content, string(meta), seg.CreatedAt, seg.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

const segmentColumns = `id, capture_id, segment_index, content, metadata_json, created_at, updated_at`

// GetSegment retrieves a segment by id.
func GetSegment(ctx context.Context, q Querier, id string) (*capture.Segment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+segmentColumns+` FROM capture_segments WHERE id = ?`, id)
	seg, err := scanSegment(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("segment", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return seg, nil
}

// GetRawSegment retrieves segment 0 of a capture.
func GetRawSegment(ctx context.Context, q Querier, captureID string) (*capture.Segment, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+segmentColumns+` FROM capture_segments WHERE capture_id = ? AND segment_index = 0`,
		captureID,
	)
	seg, err := scanSegment(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("segment", captureID)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return seg, nil
}

// DiscardSegment overwrites the segment content with the empty string and
// replaces its metadata with meta. updated_at is meta.DiscardedAt when set,
// so both timestamps come from the caller's clock.
func DiscardSegment(ctx context.Context, q Querier, id string, meta capture.SegmentMeta) error {
	updatedAt := time.Now().Unix()
	if meta.DiscardedAt != nil {
		updatedAt = *meta.DiscardedAt
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return errors.NewInternal(err)
	}

	res, err := q.ExecContext(ctx,
		`UPDATE capture_segments SET content = '', metadata_json = ?, updated_at = ? WHERE id = ?`,
		string(data), updatedAt, id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("segment", id)
	}
	return nil
}

// scanSegment scans a single row into a Segment.
func scanSegment(row *sql.Row) (*capture.Segment, error) {
	var seg capture.Segment
	var meta string
	if err := row.Scan(&seg.ID, &seg.CaptureID, &seg.Index, &seg.Content, &meta, &seg.CreatedAt, &seg.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meta), &seg.Meta); err != nil {
		return nil, err
	}
	return &seg, nil
}
