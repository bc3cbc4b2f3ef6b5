// Package tracker is an in-memory stand-in for the external issue tracker,
// usable in-process or served over HTTP.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/taskboard/taskboard/pkg/domain"
)

// DefaultLatency is the artificial delay applied to every call.
const DefaultLatency = 800 * time.Millisecond

var (
	ErrNotFound      = errors.New("tracker: task not found")
	ErrInvalidUpdate = errors.New("tracker: invalid update")
)

// Mock serves the canned issue set and applies updates to its own copy.
type Mock struct {
	latency time.Duration

	mu    sync.Mutex
	tasks []domain.Task
}

// NewMock returns a tracker seeded with CannedTasks.
func NewMock(latency time.Duration) *Mock {
	return &Mock{latency: latency, tasks: CannedTasks()}
}

// FetchAssignedTasks returns every task in the tracker.
func (m *Mock) FetchAssignedTasks(ctx context.Context) ([]domain.Task, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tasks), nil
}

// UpdateTask merges upd over the stored task and returns the result.
func (m *Mock) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error) {
	if err := validate(upd); err != nil {
		return domain.Task{}, err
	}
	if err := m.wait(ctx); err != nil {
		return domain.Task{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.tasks, func(t domain.Task) bool { return t.ID == id })
	if i < 0 {
		return domain.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t := m.tasks[i]
	if upd.Summary != nil && *upd.Summary != "" {
		t.Fields.Summary = *upd.Summary
	}
	if upd.Status != nil {
		t.Fields.Status = domain.Status{Name: *upd.Status}
	}
	if upd.Priority != nil {
		t.Fields.Priority = *upd.Priority
	}
	if upd.Assignee != nil {
		t.Fields.Assignee = *upd.Assignee
	}
	if upd.Date != nil {
		t.Fields.Date = *upd.Date
	}
	m.tasks[i] = t
	return t, nil
}

func validate(upd domain.TaskUpdate) error {
	if upd.Status != nil && !domain.ValidStatus(*upd.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidUpdate, *upd.Status)
	}
	if upd.Priority != nil {
		if _, ok := domain.PriorityByName(upd.Priority.Name); !ok {
			return fmt.Errorf("%w: unknown priority %q", ErrInvalidUpdate, upd.Priority.Name)
		}
	}
	if upd.Date != nil && upd.Date.Start != "" && upd.Date.End != "" && upd.Date.End < upd.Date.Start {
		return fmt.Errorf("%w: end date before start date", ErrInvalidUpdate)
	}
	return nil
}

func (m *Mock) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
