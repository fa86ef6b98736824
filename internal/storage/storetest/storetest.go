// Package storetest holds the behaviour every tracker.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskgrid/internal/models"
	"taskgrid/internal/tracker"
)

// Run exercises a fresh, empty store returned by open.
func Run(t *testing.T, open func(t *testing.T) tracker.Store) {
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("DanglingReferences", func(t *testing.T) { testDangling(t, open(t)) })
	t.Run("CommentsReplaced", func(t *testing.T) { testComments(t, open(t)) })
	t.Run("MemberOrdering", func(t *testing.T) { testMemberOrdering(t, open(t)) })
}

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func testNotFound(t *testing.T, store tracker.Store) {
	ctx := context.Background()
	id := uuid.NewString()

	checks := []struct {
		name string
		call func() error
		want error
	}{
		{"GetProject", func() error { _, err := store.GetProject(ctx, id); return err }, models.ErrProjectNotFound},
		{"UpdateProject", func() error {
			_, err := store.UpdateProject(ctx, models.Project{ID: id, Title: "x"})
			return err
		}, models.ErrProjectNotFound},
		{"DeleteProject", func() error { return store.DeleteProject(ctx, id) }, models.ErrProjectNotFound},
		{"GetTask", func() error { _, err := store.GetTask(ctx, id); return err }, models.ErrTaskNotFound},
		{"UpdateTask", func() error {
			_, err := store.UpdateTask(ctx, models.Task{ID: id, Status: models.StatusToDo})
			return err
		}, models.ErrTaskNotFound},
		{"DeleteTask", func() error { return store.DeleteTask(ctx, id) }, models.ErrTaskNotFound},
		{"GetMember", func() error { _, err := store.GetMember(ctx, id); return err }, models.ErrMemberNotFound},
		{"FindMemberByNameRole", func() error {
			_, err := store.FindMemberByNameRole(ctx, "nobody", models.RoleAdmin)
			return err
		}, models.ErrMemberNotFound},
		{"UpdateMember", func() error {
			_, err := store.UpdateMember(ctx, models.TeamMember{ID: id, Role: models.RoleAdmin})
			return err
		}, models.ErrMemberNotFound},
		{"DeleteMember", func() error { return store.DeleteMember(ctx, id) }, models.ErrMemberNotFound},
	}
	for _, c := range checks {
		if err := c.call(); !errors.Is(err, c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}
}

func testDangling(t *testing.T, store tracker.Store) {
	ctx := context.Background()
	project := models.Project{ID: uuid.NewString(), Title: "Launch", CreatedAt: base, UpdatedAt: base}
	if _, err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	task := models.Task{
		ID: uuid.NewString(), Title: "Write docs", Description: "d", DueDate: "2024-06-01",
		Status: models.StatusToDo, AssignedTo: uuid.NewString(), Project: project.ID,
		Comments: []models.Comment{}, CreatedAt: base, UpdatedAt: base,
	}
	if _, err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := store.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	tasks, err := store.ListTasks(ctx, models.TaskFilter{ProjectID: project.ID})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("expected the task to survive its project, got %+v", tasks)
	}
}

func testComments(t *testing.T, store tracker.Store) {
	ctx := context.Background()
	task := models.Task{
		ID: uuid.NewString(), Title: "t", Description: "d", DueDate: "2024-06-01",
		Status: models.StatusToDo, AssignedTo: uuid.NewString(), Project: uuid.NewString(),
		Comments:  []models.Comment{{Text: "one", CreatedAt: base}, {Text: "two", CreatedAt: base}},
		CreatedAt: base, UpdatedAt: base,
	}
	if _, err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	task.Comments = []models.Comment{{Text: "only", CreatedAt: base.Add(time.Hour)}}
	if _, err := store.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].Text != "only" {
		t.Fatalf("expected comments replaced by a single entry, got %+v", got.Comments)
	}
}

func testMemberOrdering(t *testing.T, store tracker.Store) {
	ctx := context.Background()
	first := models.TeamMember{ID: uuid.NewString(), Name: "Sam", Email: "sam1@example.com", Role: models.RoleTeamMember, PasswordHash: "h", CreatedAt: base, UpdatedAt: base}
	later := models.TeamMember{ID: uuid.NewString(), Name: "Sam", Email: "sam2@example.com", Role: models.RoleAdmin, PasswordHash: "h", CreatedAt: base.Add(time.Minute), UpdatedAt: base}
	for _, m := range []models.TeamMember{later, first} {
		if _, err := store.CreateMember(ctx, m); err != nil {
			t.Fatalf("CreateMember: %v", err)
		}
	}
	members, err := store.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 2 || members[0].ID != first.ID {
		t.Errorf("expected members oldest first, got %+v", members)
	}
	admin, err := store.FindMemberByNameRole(ctx, "Sam", models.RoleAdmin)
	if err != nil {
		t.Fatalf("FindMemberByNameRole: %v", err)
	}
	if admin.ID != later.ID {
		t.Errorf("expected admin Sam, got %s", admin.Email)
	}
	n, err := store.CountMembers(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountMembers = %d, %v", n, err)
	}
}
