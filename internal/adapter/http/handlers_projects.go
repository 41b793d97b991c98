package adapthttp

import (
	"errors"
	"net/http"

	"kanba/internal/domain"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.board.ListProjects(r.Context(), userID(r))
	if err != nil {
		s.writeServiceError(w, r, err, errorMessages{internal: "Failed to get projects"})
		return
	}
	if projects == nil {
		projects = []domain.ProjectSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Icon        string  `json:"icon"`
	}](w, r)

	id, err := s.board.CreateProject(r.Context(), userID(r), domain.NewProject{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
	})
	if err != nil {
		s.writeServiceError(w, r, err, errorMessages{internal: "Failed to create project"})
		return
	}
	writeCreated(w, id)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	details, err := s.board.Project(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, errorMessages{
			notFound: "Project not found",
			internal: "Failed to get project",
		})
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	err := s.board.DeleteProject(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, errorMessages{
			notFound:  "Project not found",
			forbidden: "Only the project owner can delete this project",
			internal:  "Failed to delete project",
		})
		return
	}
	writeSuccess(w)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}](w, r)

	err := s.board.Invite(r.Context(), userID(r), r.PathValue("id"), req.Email, req.Role)
	if errors.Is(err, domain.ErrAlreadyMember) {
		writeError(w, http.StatusBadRequest, "User is already a member of this project")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err, errorMessages{
			notFound:  "User not found. They need to register first.",
			forbidden: "Not authorized to invite members",
			internal:  "Failed to invite member",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Member added successfully",
	})
}
