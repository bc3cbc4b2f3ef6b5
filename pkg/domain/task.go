package domain

import "strings"

// Workflow states a task can be in.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusInReview   = "In Review"
	StatusDone       = "Done"

	// StatusAll is the filter value that matches every status.
	StatusAll = "All"
)

// Statuses lists the workflow states in display order.
var Statuses = []string{StatusToDo, StatusInProgress, StatusInReview, StatusDone}

// Priorities lists the tracker priorities from most to least urgent.
var Priorities = []Priority{
	{Name: "Critical", ID: "0"},
	{Name: "High", ID: "1"},
	{Name: "Medium", ID: "2"},
	{Name: "Low", ID: "3"},
}

// Task is a work item assigned to the current user in the external tracker.
type Task struct {
	ID     string     `json:"id"`
	Key    string     `json:"key"`
	Fields TaskFields `json:"fields"`
}

// TaskFields holds the editable and display fields of a task.
type TaskFields struct {
	Summary  string    `json:"summary"`
	Project  Project   `json:"project"`
	Status   Status    `json:"status"`
	Priority Priority  `json:"priority"`
	Sprint   Sprint    `json:"sprint"`
	Assignee Assignee  `json:"assignee"`
	Date     DateRange `json:"date"`
}

// Project is the tracker project a task belongs to. Name is the grouping key.
type Project struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// Status wraps the workflow state name.
type Status struct {
	Name string `json:"name"`
}

// Priority is a named priority with the tracker's id for it.
type Priority struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Sprint is carried for display only.
type Sprint struct {
	Name string `json:"name"`
}

// Assignee is the person a task is assigned to.
type Assignee struct {
	Name string `json:"name"`
}

// DateRange holds ISO (YYYY-MM-DD) start and end dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TaskList is the response shape of the assigned-tasks endpoint.
type TaskList struct {
	Issues []Task `json:"issues"`
}

// TaskUpdate carries the changed fields of a task. Nil fields are not sent.
type TaskUpdate struct {
	Summary  *string    `json:"summary,omitempty"`
	Status   *string    `json:"status,omitempty"`
	Priority *Priority  `json:"priority,omitempty"`
	Assignee *Assignee  `json:"assignee,omitempty"`
	Date     *DateRange `json:"date,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u TaskUpdate) Empty() bool {
	return u.Summary == nil && u.Status == nil && u.Priority == nil && u.Assignee == nil && u.Date == nil
}

// FieldNames returns the json names of the fields set on u, in a fixed order.
func (u TaskUpdate) FieldNames() []string {
	var names []string
	if u.Summary != nil {
		names = append(names, "summary")
	}
	if u.Status != nil {
		names = append(names, "status")
	}
	if u.Priority != nil {
		names = append(names, "priority")
	}
	if u.Assignee != nil {
		names = append(names, "assignee")
	}
	if u.Date != nil {
		names = append(names, "date")
	}
	return names
}

// PriorityRank maps a priority name to its sort rank. Unknown names rank 0.
func PriorityRank(name string) int {
	switch strings.ToLower(name) {
	case "critical":
		return 4
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}

// PriorityByName looks up one of the known priorities.
func PriorityByName(name string) (Priority, bool) {
	for _, p := range Priorities {
		if p.Name == name {
			return p, true
		}
	}
	return Priority{}, false
}

var validStatusSet = func() map[string]bool {
	m := make(map[string]bool, len(Statuses))
	for _, s := range Statuses {
		m[s] = true
	}
	return m
}()

// ValidStatus returns true if s is one of the known workflow states.
func ValidStatus(s string) bool {
	return validStatusSet[s]
}
