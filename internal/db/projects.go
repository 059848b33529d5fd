package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/errors"
)

// InsertProject stores a new project. Returns ErrUniqueConstraint when the
// owner already has a project with the same normalized name.
func InsertProject(ctx context.Context, q Querier, p *capture.ProjectRecord) error {
	stampNow(&p.ID, &p.CreatedAt)

	query := `
		INSERT INTO projects (id, owner_id, name_raw, name_norm, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.NameRaw, p.NameNorm, toNullString(p.Description), p.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetProject retrieves a project by id regardless of owner.
func GetProject(ctx context.Context, q Querier, id string) (*capture.ProjectRecord, error) {
	query := `
		SELECT id, owner_id, name_raw, name_norm, description, created_at
		FROM projects
		WHERE id = ?
	`
	var p capture.ProjectRecord
	var desc sql.NullString
	err := q.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.OwnerID, &p.NameRaw, &p.NameNorm, &desc, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	p.Description = fromNullString(desc)
	return &p, nil
}

// ListProjects returns the owner's projects ordered by name.
func ListProjects(ctx context.Context, q Querier, ownerID string) ([]capture.ProjectRecord, error) {
	query := `
		SELECT id, owner_id, name_raw, name_norm, description, created_at
		FROM projects
		WHERE owner_id = ?
		ORDER BY name_norm ASC, id ASC
	`
	rows, err := q.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	projects := []capture.ProjectRecord{}
	for rows.Next() {
		var p capture.ProjectRecord
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.NameRaw, &p.NameNorm, &desc, &p.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		p.Description = fromNullString(desc)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return projects, nil
}
