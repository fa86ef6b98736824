// Package seed loads YAML fixtures into an empty tracker so a fresh install
// has someone able to log in.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"taskgrid/internal/models"
	"taskgrid/internal/tracker"
)

// File is the fixture document.
type File struct {
	Members  []Member  `yaml:"members"`
	Projects []Project `yaml:"projects"`
}

// Member is a team member fixture. Password is plain text and hashed on apply.
type Member struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Role     models.Role `yaml:"role"`
	Password string      `yaml:"password"`
}

// Project is a project fixture.
type Project struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	StartDate   string `yaml:"startDate"`
	EndDate     string `yaml:"endDate"`
}

// Load reads and decodes a fixture file. Unknown keys are rejected.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	var file File
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return File{}, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return file, nil
}

// Apply creates the fixtures through svc unless team members already exist.
// It reports whether anything was written.
func Apply(ctx context.Context, svc *tracker.Service, file File, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	has, err := svc.HasMembers(ctx)
	if err != nil {
		return false, err
	}
	if has {
		logger.Info("store already has team members; skipping seed")
		return false, nil
	}

	for _, m := range file.Members {
		m := m
		if _, err := svc.CreateMember(ctx, tracker.System, tracker.MemberInput{
			Name: &m.Name, Email: &m.Email, Role: &m.Role, Password: &m.Password,
		}); err != nil {
			return false, fmt.Errorf("seed member %q: %w", m.Name, err)
		}
	}
	for _, p := range file.Projects {
		p := p
		if _, err := svc.CreateProject(ctx, tracker.System, tracker.ProjectInput{
			Title: &p.Title, Description: &p.Description, StartDate: &p.StartDate, EndDate: &p.EndDate,
		}); err != nil {
			return false, fmt.Errorf("seed project %q: %w", p.Title, err)
		}
	}

	logger.Info("seed applied", slog.Int("members", len(file.Members)), slog.Int("projects", len(file.Projects)))
	return true, nil
}
