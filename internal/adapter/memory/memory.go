// Package memory implements in-memory repositories for development and
// testing. It follows the same membership and ordering rules as the
// PostgreSQL stored procedures.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kanba/internal/domain"
)

type member struct {
	userID string
	role   string
}

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	byEmail  map[string]string
	sessions map[string]domain.Session

	projects     map[string]*domain.Project
	projectOrder []string
	members      map[string][]member
	columns      map[string]*domain.Column
	tasks        map[string]*domain.Task
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users:    make(map[string]*domain.User),
		byEmail:  make(map[string]string),
		sessions: make(map[string]domain.Session),
		projects: make(map[string]*domain.Project),
		members:  make(map[string][]member),
		columns:  make(map[string]*domain.Column),
		tasks:    make(map[string]*domain.Task),
	}
}

// Ensure interfaces are met.
var (
	_ domain.UserRepository    = (*DB)(nil)
	_ domain.ProjectRepository = (*DB)(nil)
	_ domain.BoardRepository   = (*DB)(nil)
	_ domain.SessionRepository = (*SessionRepo)(nil)
)

// --- UserRepository ---

// GetByEmail returns the user registered under email.
func (db *DB) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, ok := db.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := *db.users[id]
	return &u, nil
}

// GetByID returns the user with id.
func (db *DB) GetByID(_ context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// Create registers a new user.
func (db *DB) Create(_ context.Context, email, passwordHash, name string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, taken := db.byEmail[email]; taken {
		return nil, domain.ErrEmailTaken
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}
	db.users[u.ID] = u
	db.byEmail[email] = u.ID
	cp := *u
	return &cp, nil
}

// UpdateName sets the display name of user id.
func (db *DB) UpdateName(_ context.Context, id, name string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Name = name
	cp := *u
	return &cp, nil
}

// --- SessionRepository ---

// SessionRepo implements domain.SessionRepository on top of DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo returns a session repository sharing db's lock.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Upsert stores or overwrites the session.
func (r *SessionRepo) Upsert(_ context.Context, id, userID string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[id] = domain.Session{ID: id, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

// ResolveUserID returns the owner of an unexpired session.
func (r *SessionRepo) ResolveUserID(_ context.Context, id string, now time.Time) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[id]
	if !ok || !s.Valid(now) {
		return "", domain.ErrNotFound
	}
	return s.UserID, nil
}

// Delete removes the session if present.
func (r *SessionRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.sessions, id)
	return nil
}

// DeleteExpired removes every session that is no longer valid at now.
func (r *SessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, s := range r.db.sessions {
		if !s.Valid(now) {
			delete(r.db.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- ProjectRepository ---

// ListProjects returns userID's projects, newest first.
func (db *DB) ListProjects(_ context.Context, userID string) ([]domain.ProjectSummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.ProjectSummary, 0)
	for i := len(db.projectOrder) - 1; i >= 0; i-- {
		id := db.projectOrder[i]
		if _, ok := db.roleOf(id, userID); !ok {
			continue
		}
		tasks := 0
		for _, c := range db.projectColumns(id) {
			tasks += len(db.columnTasks(c.ID))
		}
		out = append(out, domain.ProjectSummary{
			Project:     *db.projects[id],
			TaskCount:   tasks,
			MemberCount: len(db.members[id]),
		})
	}
	return out, nil
}

// CreateProject creates a project with userID as its owner.
func (db *DB) CreateProject(_ context.Context, userID string, p domain.NewProject) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[userID]; !ok {
		return "", domain.ErrNotFound
	}
	proj := &domain.Project{
		ID:          uuid.NewString(),
		Name:        p.Name,
		Description: p.Description,
		Icon:        p.Icon,
		OwnerID:     userID,
		CreatedAt:   time.Now().UTC(),
	}
	db.projects[proj.ID] = proj
	db.projectOrder = append(db.projectOrder, proj.ID)
	db.members[proj.ID] = []member{{userID: userID, role: domain.RoleOwner}}
	return proj.ID, nil
}

// ProjectDetails returns the full board. Non-members get ErrNotFound.
func (db *DB) ProjectDetails(_ context.Context, userID, projectID string) (*domain.ProjectDetails, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.projects[projectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if _, ok := db.roleOf(projectID, userID); !ok {
		return nil, domain.ErrNotFound
	}

	details := &domain.ProjectDetails{
		Project: *p,
		Columns: make([]domain.ColumnWithTasks, 0),
		Members: make([]domain.Member, 0, len(db.members[projectID])),
	}
	for _, c := range db.projectColumns(projectID) {
		tasks := db.columnTasks(c.ID)
		cw := domain.ColumnWithTasks{Column: *c, Tasks: make([]domain.Task, 0, len(tasks))}
		cw.TaskCount = len(tasks)
		for _, t := range tasks {
			cw.Tasks = append(cw.Tasks, db.taskView(t))
		}
		details.Columns = append(details.Columns, cw)
	}
	for _, m := range db.members[projectID] {
		u := db.users[m.userID]
		details.Members = append(details.Members, domain.Member{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      m.role,
			AvatarURL: u.AvatarURL,
		})
	}
	return details, nil
}

// DeleteProject removes a project with its columns and tasks.
func (db *DB) DeleteProject(_ context.Context, userID, projectID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.projects[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	if p.OwnerID != userID {
		return domain.ErrForbidden
	}
	for _, c := range db.projectColumns(projectID) {
		db.dropColumn(c.ID)
	}
	delete(db.projects, projectID)
	delete(db.members, projectID)
	db.projectOrder = slices.DeleteFunc(db.projectOrder, func(id string) bool { return id == projectID })
	return nil
}

// AddMember grants role on projectID to the user registered under email.
func (db *DB) AddMember(_ context.Context, userID, projectID, email, role string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	inviter, ok := db.roleOf(projectID, userID)
	if !ok || (inviter != domain.RoleOwner && inviter != domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	inviteeID, ok := db.byEmail[email]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := db.roleOf(projectID, inviteeID); ok {
		return domain.ErrAlreadyMember
	}
	db.members[projectID] = append(db.members[projectID], member{userID: inviteeID, role: role})
	return nil
}

// --- BoardRepository ---

// CreateColumn appends a column to the project.
func (db *DB) CreateColumn(_ context.Context, userID string, c domain.NewColumn) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireMember(c.ProjectID, userID); err != nil {
		return "", err
	}
	col := &domain.Column{
		ID:        uuid.NewString(),
		ProjectID: c.ProjectID,
		Name:      c.Name,
		Color:     c.Color,
		Position:  len(db.projectColumns(c.ProjectID)),
	}
	db.columns[col.ID] = col
	return col.ID, nil
}

// UpdateColumn changes the non-nil fields of a column.
func (db *DB) UpdateColumn(_ context.Context, userID string, u domain.ColumnUpdate) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	col, ok := db.columns[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := db.requireMember(col.ProjectID, userID); err != nil {
		return err
	}
	if u.Name != nil {
		col.Name = *u.Name
	}
	if u.Color != nil {
		col.Color = *u.Color
	}
	return nil
}

// DeleteColumn removes a column with its tasks and compacts the remaining
// column positions.
func (db *DB) DeleteColumn(_ context.Context, userID, columnID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	col, ok := db.columns[columnID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := db.requireMember(col.ProjectID, userID); err != nil {
		return err
	}
	db.dropColumn(columnID)
	for i, c := range db.projectColumns(col.ProjectID) {
		c.Position = i
	}
	return nil
}

// CreateTask appends a task to the column.
func (db *DB) CreateTask(_ context.Context, userID string, t domain.NewTask) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	col, ok := db.columns[t.ColumnID]
	if !ok {
		return "", domain.ErrNotFound
	}
	if err := db.requireMember(col.ProjectID, userID); err != nil {
		return "", err
	}
	if t.AssigneeID != nil && *t.AssigneeID != "" {
		if _, ok := db.users[*t.AssigneeID]; !ok {
			return "", domain.ErrInvalidInput
		}
	}
	task := &domain.Task{
		ID:          uuid.NewString(),
		ColumnID:    t.ColumnID,
		Title:       t.Title,
		Description: emptyToNil(t.Description),
		Priority:    t.Priority,
		Position:    len(db.columnTasks(t.ColumnID)),
		AssigneeID:  emptyToNil(t.AssigneeID),
		DueDate:     t.DueDate,
		Tags:        slices.Clone(t.Tags),
		CreatedBy:   userID,
		CreatedAt:   time.Now().UTC(),
	}
	db.tasks[task.ID] = task
	return task.ID, nil
}

// UpdateTask changes the non-nil fields of a task. An empty description or
// assignee clears it.
func (db *DB) UpdateTask(_ context.Context, userID string, u domain.TaskUpdate) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	task, ok := db.tasks[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := db.requireMember(db.columns[task.ColumnID].ProjectID, userID); err != nil {
		return err
	}
	if u.AssigneeID != nil && *u.AssigneeID != "" {
		if _, ok := db.users[*u.AssigneeID]; !ok {
			return domain.ErrInvalidInput
		}
	}
	if u.Title != nil {
		task.Title = *u.Title
	}
	if u.Description != nil {
		task.Description = emptyToNil(u.Description)
	}
	if u.Priority != nil {
		task.Priority = *u.Priority
	}
	if u.AssigneeID != nil {
		task.AssigneeID = emptyToNil(u.AssigneeID)
	}
	if u.DueDate != nil {
		task.DueDate = u.DueDate
	}
	if u.Tags != nil {
		task.Tags = slices.Clone(u.Tags)
	}
	return nil
}

// DeleteTask removes a task and compacts its column.
func (db *DB) DeleteTask(_ context.Context, userID, taskID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	task, ok := db.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := db.requireMember(db.columns[task.ColumnID].ProjectID, userID); err != nil {
		return err
	}
	delete(db.tasks, taskID)
	renumber(db.columnTasks(task.ColumnID))
	return nil
}

// MoveTask places a task at m.Position in m.ColumnID. The position is
// clamped to the destination size; both columns stay dense.
func (db *DB) MoveTask(_ context.Context, userID string, m domain.TaskMove) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	task, ok := db.tasks[m.TaskID]
	if !ok {
		return domain.ErrNotFound
	}
	dst, ok := db.columns[m.ColumnID]
	if !ok {
		return domain.ErrNotFound
	}
	src := db.columns[task.ColumnID]
	if src.ProjectID != dst.ProjectID {
		return domain.ErrInvalidInput
	}
	if err := db.requireMember(src.ProjectID, userID); err != nil {
		return err
	}

	rest := slices.DeleteFunc(db.columnTasks(src.ID), func(t *domain.Task) bool { return t.ID == task.ID })
	renumber(rest)

	target := db.columnTasks(dst.ID)
	target = slices.DeleteFunc(target, func(t *domain.Task) bool { return t.ID == task.ID })
	pos := min(max(m.Position, 0), len(target))
	target = slices.Insert(target, pos, task)
	task.ColumnID = dst.ID
	renumber(target)
	return nil
}

// --- helpers (callers hold db.mu) ---

func (db *DB) roleOf(projectID, userID string) (string, bool) {
	for _, m := range db.members[projectID] {
		if m.userID == userID {
			return m.role, true
		}
	}
	return "", false
}

func (db *DB) requireMember(projectID, userID string) error {
	if _, ok := db.projects[projectID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := db.roleOf(projectID, userID); !ok {
		return domain.ErrForbidden
	}
	return nil
}

func (db *DB) projectColumns(projectID string) []*domain.Column {
	var out []*domain.Column
	for _, c := range db.columns {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (db *DB) columnTasks(columnID string) []*domain.Task {
	var out []*domain.Task
	for _, t := range db.tasks {
		if t.ColumnID == columnID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (db *DB) dropColumn(columnID string) {
	for id, t := range db.tasks {
		if t.ColumnID == columnID {
			delete(db.tasks, id)
		}
	}
	delete(db.columns, columnID)
}

func (db *DB) taskView(t *domain.Task) domain.Task {
	v := *t
	v.Tags = slices.Clone(t.Tags)
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if t.AssigneeID != nil {
		if u, ok := db.users[*t.AssigneeID]; ok {
			name := u.Name
			v.AssigneeName = &name
		}
	}
	return v
}

func renumber(tasks []*domain.Task) {
	for i, t := range tasks {
		t.Position = i
	}
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
