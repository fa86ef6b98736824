package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskgrid/internal/auth"
	"taskgrid/internal/models"
)

// MemberInput carries team member fields from a request. Nil fields are left
// untouched on update; Password is only required at creation.
type MemberInput struct {
	Name     *string
	Email    *string
	Role     *models.Role
	Password *string
}

var validate = validator.New()

// ListMembers returns all team members. Password hashes are never exposed.
func (s *Service) ListMembers(ctx context.Context, caller models.Caller) ([]models.TeamMember, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// GetMember returns a single team member.
func (s *Service) GetMember(ctx context.Context, caller models.Caller, id string) (models.TeamMember, error) {
	if err := requireIdentity(caller); err != nil {
		return models.TeamMember{}, err
	}
	return s.store.GetMember(ctx, id)
}

// CreateMember registers a team member with a hashed password.
func (s *Service) CreateMember(ctx context.Context, caller models.Caller, in MemberInput) (models.TeamMember, error) {
	if err := requireAdmin(caller, "create team members"); err != nil {
		return models.TeamMember{}, err
	}
	switch {
	case in.Name == nil:
		return models.TeamMember{}, models.Invalid("name is required")
	case in.Email == nil:
		return models.TeamMember{}, models.Invalid("email is required")
	case in.Role == nil:
		return models.TeamMember{}, models.Invalid("role is required")
	case in.Password == nil || *in.Password == "":
		return models.TeamMember{}, models.Invalid("password is required")
	}

	now := s.now()
	member := models.TeamMember{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	if err := applyMemberInput(&member, in); err != nil {
		return models.TeamMember{}, err
	}

	created, err := s.store.CreateMember(ctx, member)
	if err != nil {
		return models.TeamMember{}, fmt.Errorf("create team member: %w", err)
	}
	s.logger.Info("team member created", slog.String("id", created.ID), slog.String("role", string(created.Role)), slog.String("by", caller.Name))
	return created, nil
}

// UpdateMember changes the supplied fields of a member. An omitted password
// keeps the current one.
func (s *Service) UpdateMember(ctx context.Context, caller models.Caller, id string, in MemberInput) (models.TeamMember, error) {
	if err := requireAdmin(caller, "update team members"); err != nil {
		return models.TeamMember{}, err
	}
	member, err := s.store.GetMember(ctx, id)
	if err != nil {
		return models.TeamMember{}, err
	}
	if in.Password != nil && *in.Password == "" {
		in.Password = nil
	}
	if err := applyMemberInput(&member, in); err != nil {
		return models.TeamMember{}, err
	}
	member.UpdatedAt = s.now()

	updated, err := s.store.UpdateMember(ctx, member)
	if err != nil {
		return models.TeamMember{}, fmt.Errorf("update team member: %w", err)
	}
	s.logger.Info("team member updated", slog.String("id", id), slog.String("by", caller.Name))
	return updated, nil
}

// DeleteMember removes a member. Tasks assigned to them keep a dangling reference.
func (s *Service) DeleteMember(ctx context.Context, caller models.Caller, id string) error {
	if err := requireAdmin(caller, "delete team members"); err != nil {
		return err
	}
	if err := s.store.DeleteMember(ctx, id); err != nil {
		return err
	}
	s.logger.Info("team member deleted", slog.String("id", id), slog.String("by", caller.Name))
	return nil
}

func applyMemberInput(m *models.TeamMember, in MemberInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.Invalid("name must not be empty")
		}
		m.Name = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validate.Var(email, "required,email"); err != nil {
			return models.Invalid("%q is not a valid email", email)
		}
		m.Email = email
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return models.Invalid("role must be %q or %q", models.RoleAdmin, models.RoleTeamMember)
		}
		m.Role = *in.Role
	}
	if in.Password != nil {
		if err := auth.ValidatePassword(*in.Password); err != nil {
			return models.Invalid("%v", err)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return err
		}
		m.PasswordHash = hash
	}
	return nil
}

// HasMembers reports whether any team member exists yet.
func (s *Service) HasMembers(ctx context.Context) (bool, error) {
	n, err := s.store.CountMembers(ctx)
	if err != nil {
		return false, fmt.Errorf("count team members: %w", err)
	}
	return n > 0, nil
}
