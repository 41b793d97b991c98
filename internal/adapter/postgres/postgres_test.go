package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanba/internal/domain"
)

const (
	userID    = "6f1c1d8e-0d7a-4a5e-9a61-0c6a2b9f4e01"
	projectID = "0b7d5f9e-3f55-4a5b-8c1e-5c9e2a7d1f02"
	columnID  = "a3e4c2d1-7b6f-4e8d-9c0b-1a2b3c4d5e03"
	taskID    = "c9d8e7f6-5a4b-4c3d-8e2f-1a0b9c8d7e04"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(db), mock
}

func pgErr(code string) error {
	return &pq.Error{Code: pq.ErrorCode(code), Message: "raised by test"}
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

var userRowColumns = []string{"id", "email", "password_hash", "name", "avatar_url", "created_at"}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		unique error
		want   error
	}{
		{"no rows", sql.ErrNoRows, nil, domain.ErrNotFound},
		{"no data found", pgErr(pgerrcode.NoDataFound), nil, domain.ErrNotFound},
		{"insufficient privilege", pgErr(pgerrcode.InsufficientPrivilege), nil, domain.ErrForbidden},
		{"unique mapped", pgErr(pgerrcode.UniqueViolation), domain.ErrEmailTaken, domain.ErrEmailTaken},
		{"invalid parameter", pgErr(pgerrcode.InvalidParameterValue), nil, domain.ErrInvalidInput},
		{"bad uuid text", pgErr(pgerrcode.InvalidTextRepresentation), nil, domain.ErrInvalidInput},
		{"foreign key", pgErr(pgerrcode.ForeignKeyViolation), nil, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate("TEST", tt.err, tt.unique)
			assert.ErrorIs(t, err, tt.want)

			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, "TEST", oopsErr.Code())
		})
	}

	t.Run("unmapped driver error keeps original", func(t *testing.T) {
		raw := pgErr(pgerrcode.UniqueViolation)
		err := translate("TEST", raw, nil)
		var pqErr *pq.Error
		require.ErrorAs(t, err, &pqErr)
		assert.False(t, errors.Is(err, domain.ErrEmailTaken))
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, translate("TEST", nil, nil))
	})
}

func TestUserRepo(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("GetByEmail found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("FROM users WHERE email = $1")).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(userID, "ada@example.com", "hash", "Ada", "", created))

		u, err := db.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, userID, u.ID)
		assert.Equal(t, "hash", u.PasswordHash)
		assert.Equal(t, created, u.CreatedAt)
	})

	t.Run("GetByEmail missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("FROM users WHERE email = $1")).
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := db.GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("GetByID malformed id skips the query", func(t *testing.T) {
		db, _ := newMockDB(t)
		_, err := db.GetByID(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Create duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("INSERT INTO users (email, password_hash, name)")).
			WithArgs("ada@example.com", "hash", "Ada").
			WillReturnError(pgErr(pgerrcode.UniqueViolation))

		_, err := db.Create(context.Background(), "ada@example.com", "hash", "Ada")
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("UpdateName returns updated row", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("UPDATE users SET name = $2 WHERE id = $1")).
			WithArgs(userID, "Grace").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(userID, "ada@example.com", "hash", "Grace", "https://img/a.png", created))

		u, err := db.UpdateName(context.Background(), userID, "Grace")
		require.NoError(t, err)
		assert.Equal(t, "Grace", u.Name)
		assert.Equal(t, "https://img/a.png", u.AvatarURL)
	})

	t.Run("UpdateName missing user", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("UPDATE users SET name")).
			WithArgs(userID, "Grace").
			WillReturnError(sql.ErrNoRows)

		_, err := db.UpdateName(context.Background(), userID, "Grace")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSessionRepo(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Upsert", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(q("ON CONFLICT (id) DO UPDATE")).
			WithArgs("sid", userID, now.Add(time.Hour)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewSessionRepo(db).Upsert(context.Background(), "sid", userID, now.Add(time.Hour))
		assert.NoError(t, err)
	})

	t.Run("ResolveUserID filters expired rows", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("SELECT user_id FROM sessions WHERE id = $1 AND expires_at > $2")).
			WithArgs("sid", now).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID))

		got, err := NewSessionRepo(db).ResolveUserID(context.Background(), "sid", now)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("ResolveUserID unknown", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("FROM sessions")).
			WithArgs("gone", now).
			WillReturnError(sql.ErrNoRows)

		_, err := NewSessionRepo(db).ResolveUserID(context.Background(), "gone", now)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("DeleteExpired reports count", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(q("DELETE FROM sessions WHERE expires_at <= $1")).
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := NewSessionRepo(db).DeleteExpired(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
}

func TestProjectRepo(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ListProjects", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("FROM get_user_projects($1)")).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "icon", "owner_id", "created_at", "task_count", "member_count"}).
				AddRow(projectID, "Launch", nil, "🚀", userID, created, 4, 2))

		got, err := db.ListProjects(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Description)
		assert.Equal(t, 4, got[0].TaskCount)
		assert.Equal(t, 2, got[0].MemberCount)
	})

	t.Run("ListProjects empty is not nil", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("FROM get_user_projects($1)")).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "icon", "owner_id", "created_at", "task_count", "member_count"}))

		got, err := db.ListProjects(context.Background(), userID)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("CreateProject", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("SELECT create_project($1, $2, $3, $4)")).
			WithArgs("Launch", nil, "🚀", userID).
			WillReturnRows(sqlmock.NewRows([]string{"create_project"}).AddRow(projectID))

		id, err := db.CreateProject(context.Background(), userID, domain.NewProject{Name: "Launch", Icon: "🚀"})
		require.NoError(t, err)
		assert.Equal(t, projectID, id)
	})

	t.Run("ProjectDetails groups tasks by column", func(t *testing.T) {
		db, mock := newMockDB(t)
		due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		otherColumn := "d1e2f3a4-b5c6-4d7e-8f90-a1b2c3d4e505"

		mock.ExpectBegin()
		mock.ExpectQuery(q("FROM get_project_details($1, $2)")).
			WithArgs(projectID, userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "icon", "owner_id", "created_at"}).
				AddRow(projectID, "Launch", "ship it", "🚀", userID, created))
		mock.ExpectQuery(q("FROM get_project_columns($1)")).
			WithArgs(projectID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "name", "color", "col_position", "task_count"}).
				AddRow(columnID, projectID, "Todo", "#6366f1", 0, 1).
				AddRow(otherColumn, projectID, "Done", "#22c55e", 1, 0))
		mock.ExpectQuery(q("FROM get_project_tasks($1)")).
			WithArgs(projectID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "column_id", "title", "description", "priority", "task_position",
				"assignee_id", "assignee_name", "due_date", "tags", "created_by", "created_at"}).
				AddRow(taskID, columnID, "Write docs", nil, "high", 0, userID, "Ada", due, "{docs,launch}", userID, created))
		mock.ExpectQuery(q("FROM get_project_members($1)")).
			WithArgs(projectID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "avatar_url"}).
				AddRow(userID, "Ada", "ada@example.com", "owner", ""))
		mock.ExpectCommit()

		got, err := db.ProjectDetails(context.Background(), userID, projectID)
		require.NoError(t, err)
		require.NotNil(t, got.Project.Description)
		assert.Equal(t, "ship it", *got.Project.Description)
		require.Len(t, got.Columns, 2)
		require.Len(t, got.Columns[0].Tasks, 1)
		assert.NotNil(t, got.Columns[1].Tasks)
		assert.Empty(t, got.Columns[1].Tasks)

		task := got.Columns[0].Tasks[0]
		assert.Equal(t, []string{"docs", "launch"}, task.Tags)
		require.NotNil(t, task.AssigneeName)
		assert.Equal(t, "Ada", *task.AssigneeName)
		require.NotNil(t, task.DueDate)
		assert.Equal(t, due, *task.DueDate)
		assert.Nil(t, task.Description)

		require.Len(t, got.Members, 1)
		assert.Equal(t, domain.RoleOwner, got.Members[0].Role)
	})

	t.Run("ProjectDetails hides projects from non-members", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("FROM get_project_details($1, $2)")).
			WithArgs(projectID, userID).
			WillReturnError(pgErr(pgerrcode.InsufficientPrivilege))
		mock.ExpectRollback()

		_, err := db.ProjectDetails(context.Background(), userID, projectID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("DeleteProject by non-owner", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(q("SELECT delete_project($1, $2)")).
			WithArgs(projectID, userID).
			WillReturnError(pgErr(pgerrcode.InsufficientPrivilege))

		err := db.DeleteProject(context.Background(), userID, projectID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("AddMember errors", func(t *testing.T) {
		tests := []struct {
			code string
			want error
		}{
			{pgerrcode.UniqueViolation, domain.ErrAlreadyMember},
			{pgerrcode.NoDataFound, domain.ErrNotFound},
			{pgerrcode.InsufficientPrivilege, domain.ErrForbidden},
		}
		for _, tt := range tests {
			db, mock := newMockDB(t)
			mock.ExpectExec(q("SELECT add_project_member($1, $2, $3, $4)")).
				WithArgs(projectID, userID, "grace@example.com", "member").
				WillReturnError(pgErr(tt.code))

			err := db.AddMember(context.Background(), userID, projectID, "grace@example.com", "member")
			assert.ErrorIs(t, err, tt.want, tt.code)
		}
	})
}

func TestBoardRepo(t *testing.T) {
	t.Run("CreateColumn", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("SELECT create_column($1, $2, $3, $4)")).
			WithArgs(projectID, "Todo", "#6366f1", userID).
			WillReturnRows(sqlmock.NewRows([]string{"create_column"}).AddRow(columnID))

		id, err := db.CreateColumn(context.Background(), userID,
			domain.NewColumn{ProjectID: projectID, Name: "Todo", Color: "#6366f1"})
		require.NoError(t, err)
		assert.Equal(t, columnID, id)
	})

	t.Run("UpdateColumn passes nil for unchanged fields", func(t *testing.T) {
		db, mock := newMockDB(t)
		name := "Doing"
		mock.ExpectExec(q("SELECT update_column($1, $2, $3, $4)")).
			WithArgs(columnID, name, nil, userID).
			WillReturnResult(driver.ResultNoRows)

		err := db.UpdateColumn(context.Background(), userID, domain.ColumnUpdate{ID: columnID, Name: &name})
		assert.NoError(t, err)
	})

	t.Run("DeleteColumn malformed id", func(t *testing.T) {
		db, _ := newMockDB(t)
		err := db.DeleteColumn(context.Background(), userID, "42")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("CreateTask without assignee", func(t *testing.T) {
		db, mock := newMockDB(t)
		empty := ""
		mock.ExpectQuery(q("SELECT create_task($1, $2, $3, $4, $5, $6, $7, $8)")).
			WithArgs(columnID, "Write docs", nil, "medium", nil, nil, sqlmock.AnyArg(), userID).
			WillReturnRows(sqlmock.NewRows([]string{"create_task"}).AddRow(taskID))

		id, err := db.CreateTask(context.Background(), userID, domain.NewTask{
			ColumnID:   columnID,
			Title:      "Write docs",
			Priority:   "medium",
			AssigneeID: &empty,
			Tags:       []string{"docs"},
		})
		require.NoError(t, err)
		assert.Equal(t, taskID, id)
	})

	t.Run("UpdateTask unknown assignee", func(t *testing.T) {
		db, mock := newMockDB(t)
		assignee := "7e6d5c4b-3a29-4180-9f7e-6d5c4b3a2906"
		mock.ExpectExec(q("SELECT update_task(")).
			WithArgs(taskID, nil, nil, nil, assignee, nil, nil, userID).
			WillReturnError(pgErr(pgerrcode.ForeignKeyViolation))

		err := db.UpdateTask(context.Background(), userID, domain.TaskUpdate{ID: taskID, AssigneeID: &assignee})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("DeleteTask missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(q("SELECT delete_task($1, $2)")).
			WithArgs(taskID, userID).
			WillReturnError(pgErr(pgerrcode.NoDataFound))

		err := db.DeleteTask(context.Background(), userID, taskID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("MoveTask across projects", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(q("SELECT move_task($1, $2, $3, $4)")).
			WithArgs(taskID, columnID, 2, userID).
			WillReturnError(pgErr(pgerrcode.InvalidParameterValue))

		err := db.MoveTask(context.Background(), userID, domain.TaskMove{TaskID: taskID, ColumnID: columnID, Position: 2})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
