package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/taskboard/taskboard/internal/token"
	"github.com/taskboard/taskboard/pkg/domain"
)

// Tasks is the task store behind the HTTP API.
type Tasks interface {
	FetchAssignedTasks(ctx context.Context) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error)
}

// Authenticator issues session tokens for the /auth routes.
type Authenticator interface {
	LoginWithCredentials(ctx context.Context, email, password string) (domain.AuthResult, error)
	LoginWithToken(ctx context.Context, email, externalToken string) (domain.AuthResult, error)
}

type server struct {
	tasks  Tasks
	auth   Authenticator
	logger *slog.Logger
	now    func() time.Time
}

// NewRouter exposes tasks and auth over HTTP. Routes under /api require a
// decodable, unexpired bearer token.
func NewRouter(tasks Tasks, auth Authenticator, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{tasks: tasks, auth: auth, logger: logger, now: time.Now}

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK")) //nolint:errcheck
	}).Methods("GET")
	r.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/token", s.handleTokenLogin).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireBearer)
	api.HandleFunc("/issues", s.handleListIssues).Methods("GET")
	api.HandleFunc("/issues/{id}", s.handleUpdateIssue).Methods("PUT")
	return r
}

func (s *server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			s.deny(w, r, "missing bearer token")
			return
		}
		if _, err := token.Validate(raw, s.now()); err != nil {
			msg := "invalid token"
			if errors.Is(err, token.ErrExpired) {
				msg = "token expired"
			}
			s.deny(w, r, msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) deny(w http.ResponseWriter, r *http.Request, reason string) {
	s.logger.Warn("auth_denied", "method", r.Method, "path", r.URL.Path, "reason", reason)
	writeError(w, http.StatusUnauthorized, reason)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.auth.LoginWithCredentials(r.Context(), req.Email, req.Password)
	s.writeAuth(w, res, err)
}

func (s *server) handleTokenLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.ExternalTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.auth.LoginWithToken(r.Context(), req.Email, req.Token)
	s.writeAuth(w, res, err)
}

func (s *server) writeAuth(w http.ResponseWriter, res domain.AuthResult, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidExternalToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		s.logger.Error("login_error", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.FetchAssignedTasks(r.Context())
	if err != nil {
		s.logger.Error("list_issues_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch issues")
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, domain.TaskList{Issues: tasks})
}

func (s *server) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var upd domain.TaskUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	task, err := s.tasks.UpdateTask(r.Context(), id, upd)
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, ErrInvalidUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Error("update_issue_failed", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update issue")
	default:
		s.logger.Info("issue_updated", "task_id", id, "fields", upd.FieldNames())
		writeJSON(w, http.StatusOK, task)
	}
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into v. On failure it writes the error
// response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	} else {
		writeError(w, http.StatusBadRequest, "invalid request body")
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
