package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskboard/taskboard/pkg/domain"
)

func ptr[T any](v T) *T { return &v }

func TestCannedTasks(t *testing.T) {
	tasks := CannedTasks()
	if len(tasks) != 10 {
		t.Fatalf("len = %d, want 10", len(tasks))
	}
	seen := map[string]bool{}
	for _, task := range tasks {
		if seen[task.ID] {
			t.Errorf("duplicate id %s", task.ID)
		}
		seen[task.ID] = true
		if !domain.ValidStatus(task.Fields.Status.Name) {
			t.Errorf("%s: bad status %q", task.Key, task.Fields.Status.Name)
		}
		if domain.PriorityRank(task.Fields.Priority.Name) == 0 {
			t.Errorf("%s: unranked priority %q", task.Key, task.Fields.Priority.Name)
		}
	}
	if tasks[1].Key != "MOB-42" || tasks[1].Fields.Priority.ID != "0" {
		t.Errorf("tasks[1] = %+v", tasks[1])
	}
}

func TestMockUpdateMerges(t *testing.T) {
	m := NewMock(0)
	ctx := context.Background()

	got, err := m.UpdateTask(ctx, "10003", domain.TaskUpdate{
		Status:   ptr(domain.StatusDone),
		Priority: ptr(domain.Priority{Name: "Low", ID: "3"}),
	})
	if err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	if got.Key != "API-15" || got.Fields.Project.Name != "Backend Services" {
		t.Errorf("identity fields changed: %+v", got)
	}
	if got.Fields.Summary != "Optimize database queries" {
		t.Errorf("Summary = %q, want unchanged", got.Fields.Summary)
	}
	if got.Fields.Status.Name != domain.StatusDone || got.Fields.Priority.Name != "Low" {
		t.Errorf("fields not applied: %+v", got.Fields)
	}

	tasks, err := m.FetchAssignedTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tasks[2] != got {
		t.Error("update not visible to later fetches")
	}
}

func TestMockUpdateEmptySummaryKeepsExisting(t *testing.T) {
	m := NewMock(0)
	got, err := m.UpdateTask(context.Background(), "10001", domain.TaskUpdate{Summary: ptr("")})
	if err != nil {
		t.Fatal(err)
	}
	if got.Fields.Summary != "Implement login screen" {
		t.Errorf("Summary = %q", got.Fields.Summary)
	}
}

func TestMockUpdateErrors(t *testing.T) {
	tests := []struct {
		name string
		id   string
		upd  domain.TaskUpdate
		want error
	}{
		{"unknown id", "99999", domain.TaskUpdate{Summary: ptr("x")}, ErrNotFound},
		{"bad status", "10001", domain.TaskUpdate{Status: ptr("Blocked")}, ErrInvalidUpdate},
		{"bad priority", "10001", domain.TaskUpdate{Priority: ptr(domain.Priority{Name: "Urgent"})}, ErrInvalidUpdate},
		{"reversed dates", "10001", domain.TaskUpdate{Date: ptr(domain.DateRange{Start: "2023-06-10", End: "2023-06-01"})}, ErrInvalidUpdate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMock(0).UpdateTask(context.Background(), tt.id, tt.upd)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMockLatencyHonoursContext(t *testing.T) {
	m := NewMock(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := m.FetchAssignedTasks(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestFetchReturnsCopy(t *testing.T) {
	m := NewMock(0)
	tasks, _ := m.FetchAssignedTasks(context.Background())
	tasks[0].Fields.Summary = "mutated"

	again, _ := m.FetchAssignedTasks(context.Background())
	if again[0].Fields.Summary == "mutated" {
		t.Error("caller mutation leaked into the mock")
	}
}
