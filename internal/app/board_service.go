package app

import (
	"context"
	"strings"
	"time"

	"kanba/internal/domain"
)

// BoardService validates board requests and forwards them to the stores,
// which enforce membership and keep positions dense.
type BoardService struct {
	projects domain.ProjectRepository
	board    domain.BoardRepository
}

// NewBoardService creates a BoardService.
func NewBoardService(projects domain.ProjectRepository, board domain.BoardRepository) *BoardService {
	return &BoardService{projects: projects, board: board}
}

// ListProjects returns the projects userID belongs to.
func (s *BoardService) ListProjects(ctx context.Context, userID string) ([]domain.ProjectSummary, error) {
	return s.projects.ListProjects(ctx, userID)
}

// CreateProject creates a project owned by userID.
func (s *BoardService) CreateProject(ctx context.Context, userID string, p domain.NewProject) (string, error) {
	if p.Name == "" {
		return "", domain.Invalid("Project name is required")
	}
	if p.Icon == "" {
		p.Icon = domain.DefaultProjectIcon
	}
	return s.projects.CreateProject(ctx, userID, p)
}

// Project returns the full board for projectID.
func (s *BoardService) Project(ctx context.Context, userID, projectID string) (*domain.ProjectDetails, error) {
	return s.projects.ProjectDetails(ctx, userID, projectID)
}

// DeleteProject deletes projectID. Only the owner may do this.
func (s *BoardService) DeleteProject(ctx context.Context, userID, projectID string) error {
	return s.projects.DeleteProject(ctx, userID, projectID)
}

// Invite adds the user registered under email to projectID.
func (s *BoardService) Invite(ctx context.Context, userID, projectID, email, role string) error {
	if email == "" {
		return domain.Invalid("Email is required")
	}
	if role == "" {
		role = domain.RoleMember
	}
	if !domain.ValidRole(role) {
		return domain.Invalid("Role must be admin or member")
	}
	return s.projects.AddMember(ctx, userID, projectID, email, role)
}

// CreateColumn appends a column to a project.
func (s *BoardService) CreateColumn(ctx context.Context, userID string, c domain.NewColumn) (string, error) {
	if c.ProjectID == "" || c.Name == "" {
		return "", domain.Invalid("Project ID and name are required")
	}
	if c.Color == "" {
		c.Color = domain.DefaultColumnColor
	}
	return s.board.CreateColumn(ctx, userID, c)
}

// UpdateColumn renames or recolors a column.
func (s *BoardService) UpdateColumn(ctx context.Context, userID string, u domain.ColumnUpdate) error {
	if u.ID == "" {
		return domain.Invalid("Column ID is required")
	}
	if u.Name != nil && *u.Name == "" {
		return domain.Invalid("Column name cannot be empty")
	}
	return s.board.UpdateColumn(ctx, userID, u)
}

// DeleteColumn removes a column and its tasks.
func (s *BoardService) DeleteColumn(ctx context.Context, userID, columnID string) error {
	if columnID == "" {
		return domain.Invalid("Column ID is required")
	}
	return s.board.DeleteColumn(ctx, userID, columnID)
}

// CreateTask appends a task to a column.
func (s *BoardService) CreateTask(ctx context.Context, userID string, t domain.NewTask) (string, error) {
	if t.ColumnID == "" || t.Title == "" {
		return "", domain.Invalid("Column ID and title are required")
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(t.Priority) {
		return "", domain.Invalid("Priority must be low, medium, or high")
	}
	t.Tags = normalizeTags(t.Tags)
	return s.board.CreateTask(ctx, userID, t)
}

// UpdateTask changes the given fields of a task.
func (s *BoardService) UpdateTask(ctx context.Context, userID string, u domain.TaskUpdate) error {
	if u.ID == "" {
		return domain.Invalid("Task ID is required")
	}
	if u.Title != nil && *u.Title == "" {
		return domain.Invalid("Task title cannot be empty")
	}
	if u.Priority != nil && !domain.ValidPriority(*u.Priority) {
		return domain.Invalid("Priority must be low, medium, or high")
	}
	if u.Tags != nil {
		u.Tags = normalizeTags(u.Tags)
	}
	return s.board.UpdateTask(ctx, userID, u)
}

// DeleteTask removes a task.
func (s *BoardService) DeleteTask(ctx context.Context, userID, taskID string) error {
	if taskID == "" {
		return domain.Invalid("Task ID is required")
	}
	return s.board.DeleteTask(ctx, userID, taskID)
}

// MoveTask places a task at a position in a column. Negative positions are
// treated as zero; positions past the end append.
func (s *BoardService) MoveTask(ctx context.Context, userID string, m domain.TaskMove) error {
	if m.TaskID == "" || m.ColumnID == "" {
		return domain.Invalid("Task ID, column ID, and position are required")
	}
	if m.Position < 0 {
		m.Position = 0
	}
	return s.board.MoveTask(ctx, userID, m)
}

// ParseDueDate accepts an RFC 3339 timestamp or a calendar date.
func ParseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, domain.Invalid("Due date must be YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
