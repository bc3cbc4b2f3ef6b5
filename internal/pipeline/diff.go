package pipeline

import "github.com/taskboard/taskboard/pkg/domain"

// Diff returns the fields of edited that differ from current. The date range
// is sent whole when either bound changed.
func Diff(current, edited domain.Task) domain.TaskUpdate {
	var u domain.TaskUpdate
	cur, ed := current.Fields, edited.Fields
	if ed.Summary != cur.Summary {
		s := ed.Summary
		u.Summary = &s
	}
	if ed.Status.Name != cur.Status.Name {
		s := ed.Status.Name
		u.Status = &s
	}
	if ed.Priority.Name != cur.Priority.Name {
		p := ed.Priority
		u.Priority = &p
	}
	if ed.Assignee.Name != cur.Assignee.Name {
		a := ed.Assignee
		u.Assignee = &a
	}
	if ed.Date != cur.Date {
		d := ed.Date
		u.Date = &d
	}
	return u
}
