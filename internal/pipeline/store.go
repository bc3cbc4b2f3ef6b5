package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/taskboard/taskboard/pkg/domain"
)

var (
	ErrFetchFailed  = errors.New("pipeline: fetch failed")
	ErrUpdateFailed = errors.New("pipeline: update failed")
	// ErrNoChanges is returned by ApplyUpdate for an empty update.
	ErrNoChanges = errors.New("pipeline: no changes")
	// ErrDetached is returned for results that arrive after Close.
	ErrDetached = errors.New("pipeline: store closed")
)

// Source is the remote task tracker.
type Source interface {
	FetchAssignedTasks(ctx context.Context) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error)
}

// Store holds the raw task set for one dashboard. It is safe for concurrent
// use; calls in flight when Close is called have their results discarded.
type Store struct {
	src    Source
	logger *slog.Logger

	mu     sync.Mutex
	tasks  []domain.Task
	loaded bool
	closed bool
}

// NewStore creates an empty store over src.
func NewStore(src Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{src: src, logger: logger}
}

// Load fetches the task set once. On failure the previous set is kept.
func (s *Store) Load(ctx context.Context) ([]domain.Task, error) {
	if s.isClosed() {
		return nil, ErrDetached
	}
	tasks, err := s.src.FetchAssignedTasks(ctx)
	if err != nil {
		s.logger.Warn("fetch_failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrDetached
	}
	s.tasks = slices.Clone(tasks)
	s.loaded = true
	s.logger.Debug("tasks_loaded", "count", len(tasks))
	return slices.Clone(s.tasks), nil
}

// ApplyUpdate sends upd for task id and replaces that task with the returned
// object. On failure the task set is left as it was.
func (s *Store) ApplyUpdate(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error) {
	if upd.Empty() {
		return domain.Task{}, ErrNoChanges
	}
	if s.isClosed() {
		return domain.Task{}, ErrDetached
	}
	updated, err := s.src.UpdateTask(ctx, id, upd)
	if err != nil {
		s.logger.Warn("update_failed", "task_id", id, "fields", upd.FieldNames(), "error", err)
		return domain.Task{}, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Task{}, ErrDetached
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = updated
		}
	}
	s.logger.Info("task_updated", "task_id", id, "fields", upd.FieldNames())
	return updated, nil
}

// Tasks returns a copy of the raw task set.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Task returns the task with the given id.
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// Loaded reports whether a fetch has succeeded.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Project derives the view over the current task set.
func (s *Store) Project(p ViewParams) []Group {
	return Project(s.Tasks(), p)
}

// Close detaches the store. Later Load and ApplyUpdate results are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
