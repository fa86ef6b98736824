package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskgrid/internal/models"
)

const projectColumns = `id, title, description, start_date, end_date, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProjects retrieves all projects ordered by creation date.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	p, err := scanProject(s.conn(ctx).QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, models.ErrProjectNotFound
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// CreateProject persists a new project.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	_, err := s.conn(ctx).ExecContext(ctx, `INSERT INTO projects(`+projectColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, p.ID)
}

// UpdateProject overwrites every mutable column of a project.
func (s *Store) UpdateProject(ctx context.Context, p models.Project) (models.Project, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE projects SET title = ?, description = ?, start_date = ?, end_date = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Description, p.StartDate, p.EndDate, p.UpdatedAt, p.ID)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	if err := rowsAffected(res, models.ErrProjectNotFound); err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, p.ID)
}

// DeleteProject removes a project. Its tasks are left untouched.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return rowsAffected(res, models.ErrProjectNotFound)
}
