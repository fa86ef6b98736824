package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taskgrid/internal/auth"
	"taskgrid/internal/models"
)

// Login checks a name, role and password against the stored members and
// returns the identity to carry for the rest of the session. Unknown
// name/role pairs and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, name string, role models.Role, password string) (models.Caller, error) {
	member, err := s.store.FindMemberByNameRole(ctx, name, role)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Warn("login rejected", slog.String("name", name), slog.String("role", string(role)), slog.String("reason", "unknown name or role"))
		return models.Caller{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return models.Caller{}, fmt.Errorf("login: %w", err)
	}

	if !auth.CheckPassword(member.PasswordHash, password) {
		s.logger.Warn("login rejected", slog.String("name", name), slog.String("role", string(role)), slog.String("reason", "wrong password"))
		return models.Caller{}, models.ErrInvalidCredentials
	}

	s.logger.Info("login succeeded", slog.String("name", member.Name), slog.String("role", string(member.Role)))
	return models.Caller{Name: member.Name, Role: member.Role}, nil
}
