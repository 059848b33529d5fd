// Package schedule tells the recompute system that a user's data changed.
// Notification is fire-and-forget: callers log failures and move on.
package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hpungsan/sift/internal/db"
)

// ReasonIngestion is sent after a capture is created.
const ReasonIngestion = "ingestion"

// Request asks for a recompute of one scope ("me" or "project:<id>").
type Request struct {
	UserID string `json:"user_id"`
	Scope  string `json:"scope"`
	Reason string `json:"reason"`
}

// Notifier delivers recompute requests.
type Notifier interface {
	Notify(ctx context.Context, req Request) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, req Request) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// QueueNotifier enqueues requests into the structure_jobs table for a
// background worker to pick up.
type QueueNotifier struct {
	DB *sql.DB
}

// NewQueueNotifier returns a notifier backed by database.
func NewQueueNotifier(database *sql.DB) *QueueNotifier {
	return &QueueNotifier{DB: database}
}

// Notify implements Notifier.
func (n *QueueNotifier) Notify(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Scope) == "" || strings.TrimSpace(req.Reason) == "" {
		return fmt.Errorf("schedule: user_id, scope and reason are required")
	}
	return db.InsertStructureJob(ctx, n.DB, &db.StructureJob{
		UserID: req.UserID,
		Scope:  req.Scope,
		Reason: req.Reason,
	})
}

// ListPending returns up to limit queued jobs, oldest first.
func (n *QueueNotifier) ListPending(ctx context.Context, limit int) ([]db.StructureJob, error) {
	if limit <= 0 {
		limit = 50
	}
	return db.ListStructureJobs(ctx, n.DB, db.JobStatusPending, limit)
}
