package models

import "time"

// Role is the access level a team member logs in with.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleTeamMember Role = "Team Member"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeamMember:
		return true
	default:
		return false
	}
}

// TaskStatus is the board column a task sits in. Any status may move to any other.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "To Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

// TaskStatuses lists the statuses in board order.
var TaskStatuses = []TaskStatus{StatusToDo, StatusInProgress, StatusDone}

// IsValid reports whether s is one of the board statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Unresolved is the display value of a reference whose target no longer exists.
const Unresolved = "N/A"

// Project groups tasks under a title and an optional date range.
type Project struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	StartDate   string    `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty" bson:"endDate,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// TeamMember is a person who can log in and be assigned tasks.
// PasswordHash never leaves the server.
type TeamMember struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Role         Role      `json:"role" bson:"role"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Comment is a note attached to a task.
type Comment struct {
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Task is the stored form of a task: references are ids only.
type Task struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	DueDate     string     `json:"dueDate" bson:"dueDate"`
	Status      TaskStatus `json:"status" bson:"status"`
	AssignedTo  string     `json:"assignedTo" bson:"assignedTo"`
	Project     string     `json:"project" bson:"project"`
	Comments    []Comment  `json:"comments" bson:"comments"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// MemberRef is an expanded assignedTo reference.
type MemberRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Missing bool   `json:"missing,omitempty"`
}

// ProjectRef is an expanded project reference.
type ProjectRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Missing bool   `json:"missing,omitempty"`
}

// ExpandedTask is the read form of a task with its references resolved for display.
type ExpandedTask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     string     `json:"dueDate"`
	Status      TaskStatus `json:"status"`
	AssignedTo  MemberRef  `json:"assignedTo"`
	Project     ProjectRef `json:"project"`
	Comments    []Comment  `json:"comments"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskFilter narrows a task listing. Empty fields match everything.
type TaskFilter struct {
	ProjectID  string
	AssigneeID string
}

// Caller is the identity an operation runs on behalf of.
type Caller struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the caller holds the Admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// ProjectCount is the number of visible tasks in one project.
type ProjectCount struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

// TaskStats summarises a set of visible tasks for the dashboards.
type TaskStats struct {
	Total     int                `json:"total"`
	Completed int                `json:"completed"`
	Pending   int                `json:"pending"`
	ByStatus  map[TaskStatus]int `json:"byStatus"`
	ByProject []ProjectCount     `json:"byProject"`
}
