package models

import (
	"errors"
	"testing"
)

func TestTaskStatusIsValid(t *testing.T) {
	for _, s := range TaskStatuses {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []TaskStatus{"", "todo", "Blocked", "done"} {
		if s.IsValid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestRoleIsValid(t *testing.T) {
	cases := map[Role]bool{
		RoleAdmin:      true,
		RoleTeamMember: true,
		"admin":        false,
		"TeamMember":   false,
		"":             false,
	}
	for role, want := range cases {
		if got := role.IsValid(); got != want {
			t.Errorf("Role(%q).IsValid() = %v, want %v", role, got, want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "blank", in: "  ", want: ""},
		{name: "calendar date", in: "2024-03-09", want: "2024-03-09"},
		{name: "timestamp", in: "2024-03-09T10:00:00Z", want: "2024-03-09"},
		{name: "timestamp with offset", in: "2024-03-09T23:30:00-02:00", want: "2024-03-10"},
		{name: "garbage", in: "next tuesday", wantErr: true},
		{name: "impossible day", in: "2024-02-31", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNotFoundSentinels(t *testing.T) {
	for _, err := range []error{ErrProjectNotFound, ErrTaskNotFound, ErrMemberNotFound} {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%v does not wrap ErrNotFound", err)
		}
	}
	if ErrProjectNotFound.Error() != "project not found" {
		t.Errorf("unexpected message %q", ErrProjectNotFound.Error())
	}
	if !errors.Is(ErrInvalidCredentials, ErrNotAuthorized) {
		t.Error("invalid credentials must wrap ErrNotAuthorized")
	}
}
