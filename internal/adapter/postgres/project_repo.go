package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/samber/oops"

	"kanba/internal/domain"
)

// ListProjects returns the projects userID belongs to, newest first.
func (d *DB) ListProjects(ctx context.Context, userID string) ([]domain.ProjectSummary, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, name, description, icon, owner_id, created_at, task_count, member_count
		 FROM get_user_projects($1)`, userID)
	if err != nil {
		return nil, translate("PROJECT_LIST_FAILED", err, nil)
	}
	defer func() { _ = rows.Close() }()

	projects := []domain.ProjectSummary{}
	for rows.Next() {
		var p domain.ProjectSummary
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &desc, &p.Icon, &p.OwnerID, &p.CreatedAt,
			&p.TaskCount, &p.MemberCount); err != nil {
			return nil, translate("PROJECT_LIST_FAILED", err, nil)
		}
		p.Description = nullString(desc)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("PROJECT_LIST_FAILED", err, nil)
	}
	return projects, nil
}

// CreateProject creates a project and makes userID its owner.
func (d *DB) CreateProject(ctx context.Context, userID string, p domain.NewProject) (string, error) {
	var id string
	err := d.sql.QueryRowContext(ctx,
		`SELECT create_project($1, $2, $3, $4)`,
		p.Name, stringOrNil(p.Description), p.Icon, userID).Scan(&id)
	if err != nil {
		return "", translate("PROJECT_CREATE_FAILED", err, nil)
	}
	return id, nil
}

// ProjectDetails reads the project, its columns, its tasks and its members
// from a single snapshot.
func (d *DB) ProjectDetails(ctx context.Context, userID, projectID string) (*domain.ProjectDetails, error) {
	if err := requireIDs(projectID); err != nil {
		return nil, err
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, oops.Code("PROJECT_DETAILS_FAILED").Wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	details, err := readProjectDetails(ctx, tx, userID, projectID)
	if err != nil {
		// Non-members must not learn that the project exists.
		if errors.Is(err, domain.ErrForbidden) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, oops.Code("PROJECT_DETAILS_FAILED").Wrap(err)
	}
	return details, nil
}

func readProjectDetails(ctx context.Context, tx *sql.Tx, userID, projectID string) (*domain.ProjectDetails, error) {
	var details domain.ProjectDetails
	p := &details.Project
	var desc sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, description, icon, owner_id, created_at
		 FROM get_project_details($1, $2)`, projectID, userID).
		Scan(&p.ID, &p.Name, &desc, &p.Icon, &p.OwnerID, &p.CreatedAt)
	if err != nil {
		return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
	}
	p.Description = nullString(desc)

	columns, err := readColumns(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := readTasks(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.ID] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.ColumnID]; ok {
			columns[i].Tasks = append(columns[i].Tasks, t)
		}
	}
	details.Columns = columns

	members, err := readMembers(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	details.Members = members
	return &details, nil
}

func readColumns(ctx context.Context, tx *sql.Tx, projectID string) ([]domain.ColumnWithTasks, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, project_id, name, color, col_position, task_count
		 FROM get_project_columns($1)`, projectID)
	if err != nil {
		return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
	}
	defer func() { _ = rows.Close() }()

	columns := []domain.ColumnWithTasks{}
	for rows.Next() {
		c := domain.ColumnWithTasks{Tasks: []domain.Task{}}
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Color, &c.Position, &c.TaskCount); err != nil {
			return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
	}
	return columns, nil
}

func readTasks(ctx context.Context, tx *sql.Tx, projectID string) ([]domain.Task, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, column_id, title, description, priority, task_position, assignee_id,
		        assignee_name, due_date, tags, created_by, created_at
		 FROM get_project_tasks($1)`, projectID)
	if err != nil {
		return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
	}
	defer func() { _ = rows.Close() }()

	var tasks []domain.Task
	for rows.Next() {
		var (
			t                              domain.Task
			desc, assigneeID, assigneeName sql.NullString
			due                            sql.NullTime
			tags                           pq.StringArray
		)
		if err := rows.Scan(&t.ID, &t.ColumnID, &t.Title, &desc, &t.Priority, &t.Position,
			&assigneeID, &assigneeName, &due, &tags, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
		}
		t.Description = nullString(desc)
		t.AssigneeID = nullString(assigneeID)
		t.AssigneeName = nullString(assigneeName)
		if due.Valid {
			t.DueDate = &due.Time
		}
		t.Tags = []string(tags)
		if t.Tags == nil {
			t.Tags = []string{}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
	}
	return tasks, nil
}

func readMembers(ctx context.Context, tx *sql.Tx, projectID string) ([]domain.Member, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, name, email, role, COALESCE(avatar_url, '')
		 FROM get_project_members($1)`, projectID)
	if err != nil {
		return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
	}
	defer func() { _ = rows.Close() }()

	members := []domain.Member{}
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.AvatarURL); err != nil {
			return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("PROJECT_DETAILS_FAILED", err, nil)
	}
	return members, nil
}

// DeleteProject deletes a project owned by userID, cascading to its board.
func (d *DB) DeleteProject(ctx context.Context, userID, projectID string) error {
	if err := requireIDs(projectID); err != nil {
		return err
	}
	if _, err := d.sql.ExecContext(ctx, `SELECT delete_project($1, $2)`, projectID, userID); err != nil {
		return translate("PROJECT_DELETE_FAILED", err, nil)
	}
	return nil
}

// AddMember adds the user registered under email to a project.
func (d *DB) AddMember(ctx context.Context, userID, projectID, email, role string) error {
	if err := requireIDs(projectID); err != nil {
		return err
	}
	_, err := d.sql.ExecContext(ctx,
		`SELECT add_project_member($1, $2, $3, $4)`, projectID, userID, email, role)
	if err != nil {
		return translate("PROJECT_INVITE_FAILED", err, domain.ErrAlreadyMember)
	}
	return nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
