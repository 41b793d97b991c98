package adapthttp

import (
	"net/http"

	"kanba/internal/app"
	"kanba/internal/domain"
)

func columnMessages(internal string) errorMessages {
	m := boardMessages
	m.notFound = "Column not found"
	m.internal = internal
	return m
}

func taskMessages(internal string) errorMessages {
	m := boardMessages
	m.notFound = "Task not found"
	m.internal = internal
	return m
}

func (s *Server) handleCreateColumn(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[struct {
		ProjectID string `json:"project_id"`
		Name      string `json:"name"`
		Color     string `json:"color"`
	}](w, r)

	id, err := s.board.CreateColumn(r.Context(), userID(r), domain.NewColumn{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Color:     req.Color,
	})
	if err != nil {
		m := boardMessages
		m.internal = "Failed to create column"
		s.writeServiceError(w, r, err, m)
		return
	}
	writeCreated(w, id)
}

func (s *Server) handleUpdateColumn(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[struct {
		ID    string  `json:"id"`
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}](w, r)

	err := s.board.UpdateColumn(r.Context(), userID(r), domain.ColumnUpdate{
		ID:    req.ID,
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		s.writeServiceError(w, r, err, columnMessages("Failed to update column"))
		return
	}
	writeSuccess(w)
}

func (s *Server) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	err := s.board.DeleteColumn(r.Context(), userID(r), r.URL.Query().Get("id"))
	if err != nil {
		s.writeServiceError(w, r, err, columnMessages("Failed to delete column"))
		return
	}
	writeSuccess(w)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[struct {
		ColumnID    string   `json:"column_id"`
		Title       string   `json:"title"`
		Description *string  `json:"description"`
		Priority    string   `json:"priority"`
		AssigneeID  *string  `json:"assignee_id"`
		DueDate     string   `json:"due_date"`
		Tags        []string `json:"tags"`
	}](w, r)

	due, err := app.ParseDueDate(req.DueDate)
	if err != nil {
		s.writeServiceError(w, r, err, taskMessages("Failed to create task"))
		return
	}

	id, err := s.board.CreateTask(r.Context(), userID(r), domain.NewTask{
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     due,
		Tags:        req.Tags,
	})
	if err != nil {
		s.writeServiceError(w, r, err, columnMessages("Failed to create task"))
		return
	}
	writeCreated(w, id)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[struct {
		ID          string   `json:"id"`
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Priority    *string  `json:"priority"`
		AssigneeID  *string  `json:"assignee_id"`
		DueDate     *string  `json:"due_date"`
		Tags        []string `json:"tags"`
	}](w, r)

	u := domain.TaskUpdate{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		Tags:        req.Tags,
	}
	if req.DueDate != nil {
		due, err := app.ParseDueDate(*req.DueDate)
		if err != nil {
			s.writeServiceError(w, r, err, taskMessages("Failed to update task"))
			return
		}
		u.DueDate = due
	}

	if err := s.board.UpdateTask(r.Context(), userID(r), u); err != nil {
		s.writeServiceError(w, r, err, taskMessages("Failed to update task"))
		return
	}
	writeSuccess(w)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	err := s.board.DeleteTask(r.Context(), userID(r), r.URL.Query().Get("id"))
	if err != nil {
		s.writeServiceError(w, r, err, taskMessages("Failed to delete task"))
		return
	}
	writeSuccess(w)
}

func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[struct {
		TaskID   string `json:"task_id"`
		ColumnID string `json:"column_id"`
		Position *int   `json:"position"`
	}](w, r)

	if req.Position == nil {
		writeError(w, http.StatusBadRequest, "Task ID, column ID, and position are required")
		return
	}

	err := s.board.MoveTask(r.Context(), userID(r), domain.TaskMove{
		TaskID:   req.TaskID,
		ColumnID: req.ColumnID,
		Position: *req.Position,
	})
	if err != nil {
		s.writeServiceError(w, r, err, taskMessages("Failed to move task"))
		return
	}
	writeSuccess(w)
}
