package domain

import (
	"context"
	"time"
)

// Member roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// DefaultProjectIcon is used when a project is created without an icon.
const DefaultProjectIcon = "📋"

// ValidRole reports whether r may be granted through an invitation.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleMember
}

// Project is a board owned by one user and shared with members.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Icon        string    `json:"icon"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectSummary is a project as listed on the dashboard.
type ProjectSummary struct {
	Project
	TaskCount   int `json:"task_count"`
	MemberCount int `json:"member_count"`
}

// Member is a user with a role in a project.
type Member struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ProjectDetails is a full board: the project, its ordered columns each with
// ordered tasks, and its members.
type ProjectDetails struct {
	Project Project           `json:"project"`
	Columns []ColumnWithTasks `json:"columns"`
	Members []Member          `json:"members"`
}

// NewProject holds the fields accepted when creating a project.
type NewProject struct {
	Name        string
	Description *string
	Icon        string
}

// ProjectRepository defines the port for project persistence. Every call
// takes the acting user id; implementations enforce membership.
type ProjectRepository interface {
	ListProjects(ctx context.Context, userID string) ([]ProjectSummary, error)
	CreateProject(ctx context.Context, userID string, p NewProject) (string, error)
	// ProjectDetails returns ErrNotFound for non-members.
	ProjectDetails(ctx context.Context, userID, projectID string) (*ProjectDetails, error)
	// DeleteProject returns ErrForbidden unless userID owns the project.
	DeleteProject(ctx context.Context, userID, projectID string) error
	// AddMember returns ErrForbidden unless userID is an owner or admin,
	// ErrNotFound when no user has the email and ErrAlreadyMember on repeats.
	AddMember(ctx context.Context, userID, projectID, email, role string) error
}
