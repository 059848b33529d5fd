package db

import (
	"context"

	"github.com/hpungsan/sift/internal/errors"
)

// Structure job statuses.
const (
	JobStatusPending = "pending"
	JobStatusDone    = "done"
)

// StructureJob is a queued recompute request.
type StructureJob struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Scope     string `json:"scope"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// InsertStructureJob enqueues a job. Status defaults to pending.
func InsertStructureJob(ctx context.Context, q Querier, j *StructureJob) error {
	stampNow(&j.ID, &j.CreatedAt)
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO structure_jobs (id, user_id, scope, reason, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		j.ID, j.UserID, j.Scope, j.Reason, j.Status, j.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListStructureJobs returns jobs with the given status, oldest first.
func ListStructureJobs(ctx context.Context, q Querier, status string, limit int) ([]StructureJob, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, scope, reason, status, created_at
		FROM structure_jobs
		WHERE status = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?`, status, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	jobs := []StructureJob{}
	for rows.Next() {
		var j StructureJob
		if err := rows.Scan(&j.ID, &j.UserID, &j.Scope, &j.Reason, &j.Status, &j.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return jobs, nil
}
