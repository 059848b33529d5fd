package ops

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/insight"
	"github.com/hpungsan/sift/internal/logging"
	"github.com/hpungsan/sift/internal/reduce"
	"github.com/hpungsan/sift/internal/schedule"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	DefaultJobsLimit = 50
	MaxJobsLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Services bundles the collaborators shared by the ingestion operations.
// Extractor and Notifier may be nil: reduction then proposes nothing and no
// recompute is enqueued.
type Services struct {
	DB        *sql.DB
	Cfg       *config.Config
	Extractor insight.Extractor
	Notifier  schedule.Notifier
	Logger    *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewServices wires the default sqlite-backed collaborators.
func NewServices(database *sql.DB, cfg *config.Config, extractor insight.Extractor, logger *slog.Logger) *Services {
	return &Services{
		DB:        database,
		Cfg:       cfg,
		Extractor: extractor,
		Notifier:  schedule.NewQueueNotifier(database),
		Logger:    logger,
	}
}

func (s *Services) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Services) logger() *slog.Logger {
	return logging.OrDiscard(s.Logger)
}

func (s *Services) userID() string {
	return actingUser(s.Cfg)
}

func (s *Services) orchestrator() *reduce.Orchestrator {
	logDiag := s.Cfg != nil && s.Cfg.LogDiagnostics
	return &reduce.Orchestrator{
		Store:          db.NewStore(s.DB),
		Extractor:      s.Extractor,
		Logger:         s.Logger,
		Now:            s.now,
		LogDiagnostics: logDiag,
	}
}

// clampPage applies limit defaults and bounds.
func clampPage(limit, offset, def, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, max(offset, 0)
}
