package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskgrid/internal/models"
)

// TaskInput carries task fields from a request. Nil fields are left
// untouched on update. A non-blank Comment replaces the task's comments with
// a single new entry.
type TaskInput struct {
	Title       *string
	Description *string
	DueDate     *string
	AssignedTo  *string
	Project     *string
	Status      *models.TaskStatus
	Comment     *string
}

// ListTasks returns expanded tasks, optionally narrowed to a project id and
// to the members with the given name. Team Members only ever see tasks
// assigned to a member with their name, whatever filter they pass.
func (s *Service) ListTasks(ctx context.Context, caller models.Caller, projectID, assignee string) ([]models.ExpandedTask, error) {
	tasks, err := s.visibleTasks(ctx, caller, projectID, assignee)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, tasks)
}

// GetTask returns one expanded task.
func (s *Service) GetTask(ctx context.Context, caller models.Caller, id string) (models.ExpandedTask, error) {
	if err := requireIdentity(caller); err != nil {
		return models.ExpandedTask{}, err
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.ExpandedTask{}, err
	}
	if err := s.checkOwner(ctx, caller, task); err != nil {
		return models.ExpandedTask{}, err
	}
	expanded, err := s.expand(ctx, []models.Task{task})
	if err != nil {
		return models.ExpandedTask{}, err
	}
	return expanded[0], nil
}

// CreateTask stores a new task after checking that its member and project exist.
func (s *Service) CreateTask(ctx context.Context, caller models.Caller, in TaskInput) (models.Task, error) {
	if err := requireAdmin(caller, "create tasks"); err != nil {
		return models.Task{}, err
	}
	switch {
	case in.Title == nil:
		return models.Task{}, models.Invalid("title is required")
	case in.Description == nil:
		return models.Task{}, models.Invalid("description is required")
	case in.DueDate == nil:
		return models.Task{}, models.Invalid("dueDate is required")
	case in.AssignedTo == nil:
		return models.Task{}, models.Invalid("assignedTo is required")
	case in.Project == nil:
		return models.Task{}, models.Invalid("project is required")
	}

	now := s.now()
	task := models.Task{
		ID:        s.newID(),
		Status:    models.StatusToDo,
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.applyTaskInput(&task, in, now); err != nil {
		return models.Task{}, err
	}

	if _, err := s.store.GetMember(ctx, task.AssignedTo); err != nil {
		return models.Task{}, err
	}
	if _, err := s.store.GetProject(ctx, task.Project); err != nil {
		return models.Task{}, err
	}

	created, err := s.store.CreateTask(ctx, task)
	if err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.logger.Info("task created", slog.String("id", created.ID), slog.String("project", created.Project), slog.String("by", caller.Name))
	return created, nil
}

// UpdateTask changes a task. Admins may change any field; references are not
// re-checked. A Team Member may only change the status of a task assigned to
// them; other fields may be resent but must be unchanged.
func (s *Service) UpdateTask(ctx context.Context, caller models.Caller, id string, in TaskInput) (models.Task, error) {
	if err := requireIdentity(caller); err != nil {
		return models.Task{}, err
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	now := s.now()
	if caller.IsAdmin() {
		if err := s.applyTaskInput(&task, in, now); err != nil {
			return models.Task{}, err
		}
	} else {
		if err := s.checkOwner(ctx, caller, task); err != nil {
			return models.Task{}, err
		}
		if err := statusOnly(task, in); err != nil {
			return models.Task{}, err
		}
		if in.Status != nil {
			if !in.Status.IsValid() {
				return models.Task{}, invalidStatus(*in.Status)
			}
			task.Status = *in.Status
		}
	}
	task.UpdatedAt = now

	updated, err := s.store.UpdateTask(ctx, task)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.logger.Info("task updated", slog.String("id", id), slog.String("status", string(updated.Status)), slog.String("by", caller.Name))
	return updated, nil
}

// DeleteTask removes a task and its comments.
func (s *Service) DeleteTask(ctx context.Context, caller models.Caller, id string) error {
	if err := requireAdmin(caller, "delete tasks"); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task deleted", slog.String("id", id), slog.String("by", caller.Name))
	return nil
}

func (s *Service) visibleTasks(ctx context.Context, caller models.Caller, projectID, assignee string) ([]models.Task, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		assignee = caller.Name
	}

	filter := models.TaskFilter{ProjectID: projectID}
	var owners map[string]bool
	if assignee != "" {
		ids, err := s.memberIDs(ctx, assignee)
		if err != nil {
			return nil, err
		}
		switch {
		case len(ids) == 0 && caller.IsAdmin():
			return nil, models.ErrMemberNotFound
		case len(ids) == 0:
			return []models.Task{}, nil
		case len(ids) == 1:
			filter.AssigneeID = ids[0]
		default:
			owners = make(map[string]bool, len(ids))
			for _, id := range ids {
				owners[id] = true
			}
		}
	}

	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if owners == nil {
		return tasks, nil
	}
	owned := tasks[:0]
	for _, t := range tasks {
		if owners[t.AssignedTo] {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

// memberIDs returns the ids of every member called name, the same rule
// checkOwner applies.
func (s *Service) memberIDs(ctx context.Context, name string) ([]string, error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve assignee: %w", err)
	}
	var ids []string
	for _, m := range members {
		if m.Name == name {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// checkOwner lets admins through and requires a Team Member to be the assignee.
func (s *Service) checkOwner(ctx context.Context, caller models.Caller, task models.Task) error {
	if caller.IsAdmin() {
		return nil
	}
	member, err := s.store.GetMember(ctx, task.AssignedTo)
	if errors.Is(err, models.ErrNotFound) {
		return models.Forbidden("task is not assigned to %s", caller.Name)
	}
	if err != nil {
		return fmt.Errorf("resolve assignee: %w", err)
	}
	if member.Name != caller.Name {
		return models.Forbidden("task is not assigned to %s", caller.Name)
	}
	return nil
}

// expand resolves task references for display. Missing targets resolve to
// models.Unresolved.
func (s *Service) expand(ctx context.Context, tasks []models.Task) ([]models.ExpandedTask, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("expand projects: %w", err)
	}
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("expand team members: %w", err)
	}

	projectByID := make(map[string]models.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ID] = p
	}
	memberByID := make(map[string]models.TeamMember, len(members))
	for _, m := range members {
		memberByID[m.ID] = m
	}

	out := make([]models.ExpandedTask, 0, len(tasks))
	for _, t := range tasks {
		e := models.ExpandedTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			DueDate:     t.DueDate,
			Status:      t.Status,
			Comments:    t.Comments,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
			AssignedTo:  models.MemberRef{ID: t.AssignedTo, Name: models.Unresolved, Missing: true},
			Project:     models.ProjectRef{ID: t.Project, Title: models.Unresolved, Missing: true},
		}
		if e.Comments == nil {
			e.Comments = []models.Comment{}
		}
		if m, ok := memberByID[t.AssignedTo]; ok {
			e.AssignedTo = models.MemberRef{ID: m.ID, Name: m.Name, Email: m.Email}
		}
		if p, ok := projectByID[t.Project]; ok {
			e.Project = models.ProjectRef{ID: p.ID, Title: p.Title}
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Service) applyTaskInput(t *models.Task, in TaskInput, now time.Time) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return models.Invalid("title must not be empty")
		}
		t.Title = title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return models.Invalid("description must not be empty")
		}
		t.Description = description
	}
	if in.DueDate != nil {
		due, err := models.NormalizeDate(*in.DueDate)
		if err != nil {
			return fmt.Errorf("dueDate: %w", err)
		}
		if due == "" {
			return models.Invalid("dueDate must not be empty")
		}
		t.DueDate = due
	}
	if in.AssignedTo != nil {
		if !ValidID(*in.AssignedTo) {
			return models.Invalid("assignedTo %q is not a valid id", *in.AssignedTo)
		}
		t.AssignedTo = *in.AssignedTo
	}
	if in.Project != nil {
		if !ValidID(*in.Project) {
			return models.Invalid("project %q is not a valid id", *in.Project)
		}
		t.Project = *in.Project
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return invalidStatus(*in.Status)
		}
		t.Status = *in.Status
	}
	if in.Comment != nil {
		if text := strings.TrimSpace(*in.Comment); text != "" {
			t.Comments = []models.Comment{{Text: text, CreatedAt: now}}
		}
	}
	return nil
}

// statusOnly rejects a Team Member update that would change anything but status.
func statusOnly(current models.Task, in TaskInput) error {
	changed := func(field string) error {
		return models.Forbidden("team members may only change status, not %s", field)
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) != current.Title {
		return changed("title")
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) != current.Description {
		return changed("description")
	}
	if in.DueDate != nil {
		if due, err := models.NormalizeDate(*in.DueDate); err != nil || due != current.DueDate {
			return changed("dueDate")
		}
	}
	if in.AssignedTo != nil && *in.AssignedTo != current.AssignedTo {
		return changed("assignedTo")
	}
	if in.Project != nil && *in.Project != current.Project {
		return changed("project")
	}
	if in.Comment != nil && strings.TrimSpace(*in.Comment) != "" {
		return changed("comments")
	}
	return nil
}

func invalidStatus(s models.TaskStatus) error {
	return models.Invalid("status %q must be one of %q, %q, %q", s, models.StatusToDo, models.StatusInProgress, models.StatusDone)
}
