package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/sift/internal/capture"
)

// Store adapts the query helpers to the reduction orchestrator. Every method
// runs as its own statement so one failed write never affects another.
type Store struct {
	DB *sql.DB
}

// NewStore wraps database.
func NewStore(database *sql.DB) *Store {
	return &Store{DB: database}
}

func (s *Store) InsertDecision(ctx context.Context, d *capture.Decision) error {
	return InsertDecision(ctx, s.DB, d)
}

func (s *Store) InsertTask(ctx context.Context, t *capture.Task) error {
	return InsertTask(ctx, s.DB, t)
}

func (s *Store) InsertHighlight(ctx context.Context, h *capture.Highlight) error {
	return InsertHighlight(ctx, s.DB, h)
}

func (s *Store) DiscardSegment(ctx context.Context, segmentID string, meta capture.SegmentMeta) error {
	return DiscardSegment(ctx, s.DB, segmentID, meta)
}

func (s *Store) GetSegment(ctx context.Context, segmentID string) (*capture.Segment, error) {
	return GetSegment(ctx, s.DB, segmentID)
}
