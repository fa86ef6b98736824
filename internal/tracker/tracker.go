// Package tracker is the domain access layer: it applies the role and
// ownership rules for projects, tasks and team members on top of a Store.
//
// Every operation receives the caller's identity explicitly. Admins have full
// CRUD; Team Members read projects and members, and read or change the status
// of tasks assigned to them.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taskgrid/internal/models"
)

// Store is the persistence contract shared by the sqlite and mongo backends.
// Lookups of missing records return the matching models.Err*NotFound.
type Store interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (models.Project, error)
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	UpdateProject(ctx context.Context, p models.Project) (models.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, t models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error

	ListMembers(ctx context.Context) ([]models.TeamMember, error)
	GetMember(ctx context.Context, id string) (models.TeamMember, error)
	FindMemberByNameRole(ctx context.Context, name string, role models.Role) (models.TeamMember, error)
	CreateMember(ctx context.Context, m models.TeamMember) (models.TeamMember, error)
	UpdateMember(ctx context.Context, m models.TeamMember) (models.TeamMember, error)
	DeleteMember(ctx context.Context, id string) error
	CountMembers(ctx context.Context) (int, error)
}

// Service implements the task tracker operations.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New constructs a Service backed by store.
func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// System is the identity used for bootstrap work such as seeding.
var System = models.Caller{Name: "system", Role: models.RoleAdmin}

func requireAdmin(caller models.Caller, action string) error {
	if !caller.IsAdmin() {
		return models.Forbidden("only admins can %s", action)
	}
	return nil
}

func requireIdentity(caller models.Caller) error {
	if caller.Name == "" || !caller.Role.IsValid() {
		return models.ErrNotAuthorized
	}
	return nil
}

// ValidID reports whether id has the shape of a generated record id.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
