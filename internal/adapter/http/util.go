package adapthttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"kanba/internal/domain"
	"kanba/internal/logging"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeCreated(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "success": true})
}

// decodeJSON reads a request body of at most 1 MiB. A body that is missing,
// too large or not valid JSON yields the zero value, which the services
// reject as missing fields.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) T {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var zero T
		return zero
	}
	return v
}

// errorMessages are the client messages for the store sentinels of one
// route.
type errorMessages struct {
	notFound  string
	forbidden string
	internal  string
}

var boardMessages = errorMessages{
	notFound:  "Project not found",
	forbidden: "Not a member of this project",
	internal:  "Internal server error",
}

// writeServiceError maps a service error onto a status code. Unexpected
// errors are logged and answered with msgs.internal.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msgs errorMessages) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, msgs.notFound)
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, msgs.forbidden)
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input")
	default:
		logging.LogError(r.Context(), s.logger, msgs.internal, err)
		writeError(w, http.StatusInternalServerError, msgs.internal)
	}
}

// userID returns the id attached by requireSession. Routes using it are
// always behind the gate.
func userID(r *http.Request) string {
	id, _ := UserIDFromContext(r.Context())
	return id
}
