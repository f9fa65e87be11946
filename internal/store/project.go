package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crowdfund/apiserver/types"
)

// ProjectRepository handles persistence for projects.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// List returns projects newest-first plus the total count over the
// whole table. A limit below one disables the window and returns
// every row.
func (r *ProjectRepository) List(ctx context.Context, offset, limit int) ([]types.Project, int, error) {
	if offset < 0 {
		offset = 0
	}

	const countQuery = `SELECT COUNT(1) FROM projects`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, title, content, image_path, creator, created_at, updated_at
		FROM projects
		ORDER BY id DESC
		OFFSET $1 LIMIT $2`
	limitArg := any(limit)
	if limit < 1 {
		limitArg = nil
	}
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limitArg)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	projects := make([]types.Project, 0)
	for rows.Next() {
		var project types.Project
		if err := rows.Scan(
			&project.ID,
			&project.Title,
			&project.Content,
			&project.ImagePath,
			&project.Creator,
			&project.CreatedAt,
			&project.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id int) (types.Project, error) {
	const query = `
		SELECT id, title, content, image_path, creator, created_at, updated_at
		FROM projects
		WHERE id = $1`
	var project types.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.Title,
		&project.Content,
		&project.ImagePath,
		&project.Creator,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Project{}, ErrNotFound
		}
		return types.Project{}, err
	}
	return project, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project types.Project) (types.Project, error) {
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	const query = `
		INSERT INTO projects (title, content, image_path, creator, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		project.Title,
		project.Content,
		project.ImagePath,
		project.Creator,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID); err != nil {
		return types.Project{}, err
	}

	return project, nil
}

// UpdateOwned replaces title, content, and image path of the project
// matching both id and creator. The creator column is never written.
// The ownership check is the WHERE filter itself, evaluated
// atomically by the database rather than as a read followed by a
// write; zero affected rows reports ErrNotOwned.
func (r *ProjectRepository) UpdateOwned(ctx context.Context, project types.Project, creator int) error {
	project.UpdatedAt = time.Now()

	const query = `
		UPDATE projects
		SET title = $1,
			content = $2,
			image_path = $3,
			updated_at = $4
		WHERE id = $5 AND creator = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		project.Title,
		project.Content,
		project.ImagePath,
		project.UpdatedAt,
		project.ID,
		creator,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotOwned
	}
	return nil
}

// DeleteOwned removes the project matching both id and creator, with
// the same zero-rows-affected semantics as UpdateOwned.
func (r *ProjectRepository) DeleteOwned(ctx context.Context, id, creator int) error {
	const query = `DELETE FROM projects WHERE id = $1 AND creator = $2`
	result, err := r.db.ExecContext(ctx, query, id, creator)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotOwned
	}
	return nil
}
