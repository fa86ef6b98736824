package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskgrid/internal/models"
)

const memberColumns = `id, name, email, role, password_hash, created_at, updated_at`

func scanMember(row scanner) (models.TeamMember, error) {
	var m models.TeamMember
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.PasswordHash, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (s *Store) getMemberWhere(ctx context.Context, where string, args ...any) (models.TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members WHERE ` + where + ` ORDER BY created_at ASC, rowid ASC LIMIT 1`
	m, err := scanMember(s.conn(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.TeamMember{}, models.ErrMemberNotFound
	}
	if err != nil {
		return models.TeamMember{}, fmt.Errorf("get team member: %w", err)
	}
	return m, nil
}

// ListMembers returns all members ordered by creation date.
func (s *Store) ListMembers(ctx context.Context) ([]models.TeamMember, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+memberColumns+` FROM team_members ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	members := []models.TeamMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetMember fetches a member by id.
func (s *Store) GetMember(ctx context.Context, id string) (models.TeamMember, error) {
	return s.getMemberWhere(ctx, `id = ?`, id)
}

// FindMemberByNameRole returns the earliest created member with the given name and role.
func (s *Store) FindMemberByNameRole(ctx context.Context, name string, role models.Role) (models.TeamMember, error) {
	return s.getMemberWhere(ctx, `name = ? AND role = ?`, name, role)
}

// CreateMember persists a new member.
func (s *Store) CreateMember(ctx context.Context, m models.TeamMember) (models.TeamMember, error) {
	_, err := s.conn(ctx).ExecContext(ctx, `INSERT INTO team_members(`+memberColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Role, m.PasswordHash, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return models.TeamMember{}, fmt.Errorf("insert team member: %w", err)
	}
	return s.GetMember(ctx, m.ID)
}

// UpdateMember overwrites every mutable column of a member.
func (s *Store) UpdateMember(ctx context.Context, m models.TeamMember) (models.TeamMember, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE team_members SET name = ?, email = ?, role = ?, password_hash = ?, updated_at = ? WHERE id = ?`,
		m.Name, m.Email, m.Role, m.PasswordHash, m.UpdatedAt, m.ID)
	if err != nil {
		return models.TeamMember{}, fmt.Errorf("update team member: %w", err)
	}
	if err := rowsAffected(res, models.ErrMemberNotFound); err != nil {
		return models.TeamMember{}, err
	}
	return s.GetMember(ctx, m.ID)
}

// DeleteMember removes a member. Tasks assigned to them are left untouched.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM team_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	return rowsAffected(res, models.ErrMemberNotFound)
}

// CountMembers returns the number of stored members.
func (s *Store) CountMembers(ctx context.Context) (int, error) {
	var n int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM team_members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count team members: %w", err)
	}
	return n, nil
}
