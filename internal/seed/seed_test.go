package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"taskgrid/internal/models"
	"taskgrid/internal/storage/sqlite"
	"taskgrid/internal/tracker"
)

const fixture = `
members:
  - name: Alice
    email: alice@example.com
    role: Admin
    password: change-me
  - name: Bob
    email: bob@example.com
    role: Team Member
    password: change-me-too
projects:
  - title: Launch
    description: first release
    startDate: 2024-05-01
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	file, err := Load(writeFile(t, fixture))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(file.Members) != 2 || file.Members[1].Role != models.RoleTeamMember {
		t.Fatalf("unexpected members: %+v", file.Members)
	}
	if len(file.Projects) != 1 || file.Projects[0].StartDate != "2024-05-01" {
		t.Fatalf("unexpected projects: %+v", file.Projects)
	}

	if _, err := Load(writeFile(t, "users: []\n")); err == nil {
		t.Fatal("expected unknown keys to be rejected")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestApplyOnlyOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "seed.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	svc := tracker.New(store, nil)

	file, err := Load(writeFile(t, fixture))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	applied, err := Apply(ctx, svc, file, nil)
	if err != nil || !applied {
		t.Fatalf("first Apply = %v, %v", applied, err)
	}
	if _, err := svc.Login(ctx, "Bob", models.RoleTeamMember, "change-me-too"); err != nil {
		t.Fatalf("seeded member cannot log in: %v", err)
	}

	applied, err = Apply(ctx, svc, file, nil)
	if err != nil || applied {
		t.Fatalf("second Apply = %v, %v", applied, err)
	}
	projects, err := svc.ListProjects(ctx, tracker.System)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected seed to run once, got %d projects", len(projects))
	}
}

func TestApplyRejectsInvalidFixture(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "seed.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	file := File{Members: []Member{{Name: "Eve", Email: "eve@example.com", Role: "Owner", Password: "x"}}}
	_, err = Apply(context.Background(), tracker.New(store, nil), file, nil)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
