package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/errors"
)

// CreateProjectInput contains parameters for the CreateProject operation.
type CreateProjectInput struct {
	Name        string  // required
	Description *string // optional
}

// CreateProject creates a project owned by the acting identity. Names are
// unique per owner after normalization.
func CreateProject(ctx context.Context, database *sql.DB, cfg *config.Config, input CreateProjectInput) (*capture.ProjectRecord, error) {
	name := strings.TrimSpace(input.Name)
	nameNorm := capture.NormalizeName(name)
	if nameNorm == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}

	var desc *string
	if input.Description != nil {
		if d := strings.TrimSpace(*input.Description); d != "" {
			desc = &d
		}
	}

	p := &capture.ProjectRecord{
		OwnerID:     actingUser(cfg),
		NameRaw:     name,
		NameNorm:    nameNorm,
		Description: desc,
	}
	if err := db.InsertProject(ctx, database, p); err != nil {
		if err == db.ErrUniqueConstraint {
			return nil, errors.NewNameAlreadyExists(name)
		}
		return nil, err
	}
	return p, nil
}

// ListProjectsOutput contains the result of the ListProjects operation.
type ListProjectsOutput struct {
	Items []capture.ProjectRecord `json:"items"`
}

// ListProjects returns the acting identity's projects ordered by name.
func ListProjects(ctx context.Context, database *sql.DB, cfg *config.Config) (*ListProjectsOutput, error) {
	items, err := db.ListProjects(ctx, database, actingUser(cfg))
	if err != nil {
		return nil, err
	}
	return &ListProjectsOutput{Items: items}, nil
}

func actingUser(cfg *config.Config) string {
	if cfg == nil || cfg.UserID == "" {
		return config.DefaultConfig().UserID
	}
	return cfg.UserID
}
