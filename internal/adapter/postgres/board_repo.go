package postgres

import (
	"context"

	"github.com/lib/pq"

	"kanba/internal/domain"
)

// CreateColumn appends a column to a project.
func (d *DB) CreateColumn(ctx context.Context, userID string, c domain.NewColumn) (string, error) {
	if err := requireIDs(c.ProjectID); err != nil {
		return "", err
	}
	var id string
	err := d.sql.QueryRowContext(ctx,
		`SELECT create_column($1, $2, $3, $4)`,
		c.ProjectID, c.Name, c.Color, userID).Scan(&id)
	if err != nil {
		return "", translate("COLUMN_CREATE_FAILED", err, nil)
	}
	return id, nil
}

// UpdateColumn renames or recolors a column.
func (d *DB) UpdateColumn(ctx context.Context, userID string, u domain.ColumnUpdate) error {
	if err := requireIDs(u.ID); err != nil {
		return err
	}
	_, err := d.sql.ExecContext(ctx,
		`SELECT update_column($1, $2, $3, $4)`,
		u.ID, stringOrNil(u.Name), stringOrNil(u.Color), userID)
	if err != nil {
		return translate("COLUMN_UPDATE_FAILED", err, nil)
	}
	return nil
}

// DeleteColumn removes a column with its tasks and closes the gap it leaves.
func (d *DB) DeleteColumn(ctx context.Context, userID, columnID string) error {
	if err := requireIDs(columnID); err != nil {
		return err
	}
	if _, err := d.sql.ExecContext(ctx, `SELECT delete_column($1, $2)`, columnID, userID); err != nil {
		return translate("COLUMN_DELETE_FAILED", err, nil)
	}
	return nil
}

// CreateTask appends a task to a column.
func (d *DB) CreateTask(ctx context.Context, userID string, t domain.NewTask) (string, error) {
	if err := requireIDs(t.ColumnID); err != nil {
		return "", err
	}
	var assignee any
	if t.AssigneeID != nil && *t.AssigneeID != "" {
		assignee = *t.AssigneeID
	}
	var id string
	err := d.sql.QueryRowContext(ctx,
		`SELECT create_task($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ColumnID, t.Title, stringOrNil(t.Description), t.Priority,
		assignee, t.DueDate, pq.Array(t.Tags), userID).Scan(&id)
	if err != nil {
		return "", translate("TASK_CREATE_FAILED", err, nil)
	}
	return id, nil
}

// UpdateTask changes the non-nil fields of a task. An empty description or
// assignee clears it.
func (d *DB) UpdateTask(ctx context.Context, userID string, u domain.TaskUpdate) error {
	if err := requireIDs(u.ID); err != nil {
		return err
	}
	var tags any
	if u.Tags != nil {
		tags = pq.Array(u.Tags)
	}
	_, err := d.sql.ExecContext(ctx,
		`SELECT update_task($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, stringOrNil(u.Title), stringOrNil(u.Description), stringOrNil(u.Priority),
		stringOrNil(u.AssigneeID), u.DueDate, tags, userID)
	if err != nil {
		return translate("TASK_UPDATE_FAILED", err, nil)
	}
	return nil
}

// DeleteTask removes a task and closes the gap in its column.
func (d *DB) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := requireIDs(taskID); err != nil {
		return err
	}
	if _, err := d.sql.ExecContext(ctx, `SELECT delete_task($1, $2)`, taskID, userID); err != nil {
		return translate("TASK_DELETE_FAILED", err, nil)
	}
	return nil
}

// MoveTask places a task at a position within a column of the same project.
func (d *DB) MoveTask(ctx context.Context, userID string, m domain.TaskMove) error {
	if err := requireIDs(m.TaskID, m.ColumnID); err != nil {
		return err
	}
	_, err := d.sql.ExecContext(ctx,
		`SELECT move_task($1, $2, $3, $4)`, m.TaskID, m.ColumnID, m.Position, userID)
	if err != nil {
		return translate("TASK_MOVE_FAILED", err, nil)
	}
	return nil
}
