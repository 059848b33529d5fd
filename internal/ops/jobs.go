package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/schedule"
)

// ListJobsOutput contains queued recompute jobs.
type ListJobsOutput struct {
	Items []db.StructureJob `json:"items"`
}

// ListJobs returns pending recompute jobs, oldest first.
func ListJobs(ctx context.Context, database *sql.DB, limit int) (*ListJobsOutput, error) {
	limit, _ = clampPage(limit, 0, DefaultJobsLimit, MaxJobsLimit)
	jobs, err := schedule.NewQueueNotifier(database).ListPending(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &ListJobsOutput{Items: jobs}, nil
}
