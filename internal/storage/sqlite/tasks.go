package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskgrid/internal/models"
)

const taskColumns = `id, title, description, due_date, status, assigned_to, project_id, created_at, updated_at`

func scanTask(row scanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.Status, &t.AssignedTo, &t.Project, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func taskWhere(filter models.TaskFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.ProjectID != "" {
		clauses = append(clauses, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.AssigneeID != "" {
		clauses = append(clauses, "assigned_to = ?")
		args = append(args, filter.AssigneeID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListTasks returns the tasks matching filter with their comments, oldest first.
func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	where, args := taskWhere(filter)

	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks`+where+` ORDER BY created_at ASC, rowid ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	index := map[string]int{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Comments = []models.Comment{}
		index[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// The single pooled connection must be free for the comments query.
	rows.Close()
	if len(tasks) == 0 {
		return tasks, nil
	}

	crows, err := s.conn(ctx).QueryContext(ctx, `SELECT task_id, text, created_at FROM task_comments
        WHERE task_id IN (SELECT id FROM tasks`+where+`) ORDER BY task_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("list task comments: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var (
			taskID string
			c      models.Comment
		)
		if err := crows.Scan(&taskID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task comment: %w", err)
		}
		if i, ok := index[taskID]; ok {
			tasks[i].Comments = append(tasks[i].Comments, c)
		}
	}
	return tasks, crows.Err()
}

// GetTask retrieves a task and its comments by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	t, err := scanTask(s.conn(ctx).QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, models.ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}

	t.Comments, err = s.comments(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// CreateTask inserts a task together with its comments.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		_, err := s.conn(ctx).ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Description, t.DueDate, t.Status, t.AssignedTo, t.Project, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return s.insertComments(ctx, t.ID, t.Comments)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, t.ID)
}

// UpdateTask overwrites a task and replaces its comment list.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		res, err := s.conn(ctx).ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, due_date = ?, status = ?, assigned_to = ?, project_id = ?, updated_at = ? WHERE id = ?`,
			t.Title, t.Description, t.DueDate, t.Status, t.AssignedTo, t.Project, t.UpdatedAt, t.ID)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if err := rowsAffected(res, models.ErrTaskNotFound); err != nil {
			return err
		}
		if _, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM task_comments WHERE task_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear task comments: %w", err)
		}
		return s.insertComments(ctx, t.ID, t.Comments)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, t.ID)
}

// DeleteTask removes a task by id. Comments go with it.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return rowsAffected(res, models.ErrTaskNotFound)
}

func (s *Store) comments(ctx context.Context, taskID string) ([]models.Comment, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT text, created_at FROM task_comments WHERE task_id = ? ORDER BY position`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) insertComments(ctx context.Context, taskID string, comments []models.Comment) error {
	for i, c := range comments {
		_, err := s.conn(ctx).ExecContext(ctx, `INSERT INTO task_comments(task_id, position, text, created_at) VALUES(?, ?, ?, ?)`,
			taskID, i, c.Text, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert task comment: %w", err)
		}
	}
	return nil
}
