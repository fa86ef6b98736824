package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"taskgrid/internal/models"
)

// ProjectInput carries project fields from a request. Nil fields are left
// untouched on update.
type ProjectInput struct {
	Title       *string
	Description *string
	StartDate   *string
	EndDate     *string
}

// ListProjects returns every project, oldest first.
func (s *Service) ListProjects(ctx context.Context, caller models.Caller) ([]models.Project, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// CreateProject stores a new project. A title is required.
func (s *Service) CreateProject(ctx context.Context, caller models.Caller, in ProjectInput) (models.Project, error) {
	if err := requireAdmin(caller, "create projects"); err != nil {
		return models.Project{}, err
	}
	if in.Title == nil {
		return models.Project{}, models.Invalid("title is required")
	}

	now := s.now()
	project := models.Project{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	if err := applyProjectInput(&project, in); err != nil {
		return models.Project{}, err
	}

	created, err := s.store.CreateProject(ctx, project)
	if err != nil {
		return models.Project{}, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("project created", slog.String("id", created.ID), slog.String("by", caller.Name))
	return created, nil
}

// UpdateProject replaces the supplied fields of an existing project.
func (s *Service) UpdateProject(ctx context.Context, caller models.Caller, id string, in ProjectInput) (models.Project, error) {
	if err := requireAdmin(caller, "update projects"); err != nil {
		return models.Project{}, err
	}
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if err := applyProjectInput(&project, in); err != nil {
		return models.Project{}, err
	}
	project.UpdatedAt = s.now()

	updated, err := s.store.UpdateProject(ctx, project)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	s.logger.Info("project updated", slog.String("id", id), slog.String("by", caller.Name))
	return updated, nil
}

// DeleteProject removes a project. Tasks that reference it are kept and
// expand with an unresolved project afterwards.
func (s *Service) DeleteProject(ctx context.Context, caller models.Caller, id string) error {
	if err := requireAdmin(caller, "delete projects"); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.Info("project deleted", slog.String("id", id), slog.String("by", caller.Name))
	return nil
}

func applyProjectInput(p *models.Project, in ProjectInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return models.Invalid("title must not be empty")
		}
		p.Title = title
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.StartDate != nil {
		d, err := models.NormalizeDate(*in.StartDate)
		if err != nil {
			return fmt.Errorf("startDate: %w", err)
		}
		p.StartDate = d
	}
	if in.EndDate != nil {
		d, err := models.NormalizeDate(*in.EndDate)
		if err != nil {
			return fmt.Errorf("endDate: %w", err)
		}
		p.EndDate = d
	}
	return nil
}
