package domain

import (
	"context"
	"time"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// DefaultColumnColor is used when a column is created without a color.
const DefaultColumnColor = "#6366f1"

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Column is an ordered lane within a project. Positions are dense and
// zero-based.
type Column struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Position  int    `json:"position"`
	TaskCount int    `json:"task_count"`
}

// ColumnWithTasks is a column together with its ordered tasks.
type ColumnWithTasks struct {
	Column
	Tasks []Task `json:"tasks"`
}

// Task is a card within a column. Positions are dense and zero-based per
// column.
type Task struct {
	ID           string     `json:"id"`
	ColumnID     string     `json:"column_id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Priority     string     `json:"priority"`
	Position     int        `json:"position"`
	AssigneeID   *string    `json:"assignee_id,omitempty"`
	AssigneeName *string    `json:"assignee_name,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Tags         []string   `json:"tags"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewColumn holds the fields accepted when creating a column.
type NewColumn struct {
	ProjectID string
	Name      string
	Color     string
}

// ColumnUpdate changes the non-nil fields of a column.
type ColumnUpdate struct {
	ID    string
	Name  *string
	Color *string
}

// NewTask holds the fields accepted when creating a task.
type NewTask struct {
	ColumnID    string
	Title       string
	Description *string
	Priority    string
	AssigneeID  *string
	DueDate     *time.Time
	Tags        []string
}

// TaskUpdate changes the non-nil fields of a task.
type TaskUpdate struct {
	ID          string
	Title       *string
	Description *string
	Priority    *string
	AssigneeID  *string
	DueDate     *time.Time
	Tags        []string
}

// TaskMove places a task at Position within ColumnID.
type TaskMove struct {
	TaskID   string
	ColumnID string
	Position int
}

// BoardRepository defines the port for column and task persistence. Every
// call takes the acting user id; implementations return ErrForbidden for
// non-members and ErrNotFound for missing rows.
//
// Ordering: new columns and tasks are appended, deletes compact the
// positions above the removed row, and moves clamp the target position to
// the destination size and shift the rows at or after it.
type BoardRepository interface {
	CreateColumn(ctx context.Context, userID string, c NewColumn) (string, error)
	UpdateColumn(ctx context.Context, userID string, u ColumnUpdate) error
	DeleteColumn(ctx context.Context, userID, columnID string) error
	CreateTask(ctx context.Context, userID string, t NewTask) (string, error)
	UpdateTask(ctx context.Context, userID string, u TaskUpdate) error
	DeleteTask(ctx context.Context, userID, taskID string) error
	MoveTask(ctx context.Context, userID string, m TaskMove) error
}
