package tui

import (
	"slices"

	"github.com/taskboard/taskboard/pkg/domain"
)

// editField is the task field currently being edited inline.
type editField int

const (
	editSummary editField = iota
	editStatus
	editPriority
	editDates
)

func (f editField) label() string {
	switch f {
	case editSummary:
		return "summary"
	case editStatus:
		return "status"
	case editPriority:
		return "priority"
	case editDates:
		return "dates"
	}
	return ""
}

// editState is the click-to-edit state for one task. It holds the committed
// task and a draft; committing sends only the differences.
type editState struct {
	field     editField
	original  domain.Task
	draft     domain.Task
	text      string // summary being typed
	start     string
	end       string
	dateFocus int // 0 start, 1 end
	err       string
}

func newEditState(field editField, t domain.Task) *editState {
	return &editState{
		field:    field,
		original: t,
		draft:    t,
		text:     t.Fields.Summary,
		start:    t.Fields.Date.Start,
		end:      t.Fields.Date.End,
	}
}

// key applies a keystroke. It returns true when the edit should be committed.
func (e *editState) key(k string) bool {
	if k == "enter" {
		return e.finish()
	}
	switch e.field {
	case editSummary:
		e.text = editRune(e.text, k)
	case editStatus:
		switch k {
		case "left", "h", "shift+tab":
			e.draft.Fields.Status.Name = cycle(domain.Statuses, e.draft.Fields.Status.Name, -1)
		case "right", "l", "tab", "S":
			e.draft.Fields.Status.Name = cycle(domain.Statuses, e.draft.Fields.Status.Name, 1)
		}
	case editPriority:
		switch k {
		case "left", "h", "shift+tab":
			e.draft.Fields.Priority = cyclePriority(e.draft.Fields.Priority, -1)
		case "right", "l", "tab", "p":
			e.draft.Fields.Priority = cyclePriority(e.draft.Fields.Priority, 1)
		}
	case editDates:
		switch k {
		case "tab", "shift+tab", "up", "down":
			e.dateFocus = 1 - e.dateFocus
		default:
			if e.dateFocus == 0 {
				e.start = editRune(e.start, k)
			} else {
				e.end = editRune(e.end, k)
			}
		}
	}
	e.err = ""
	return false
}

// finish moves typed text into the draft. It returns false and sets err when
// the input is not acceptable.
func (e *editState) finish() bool {
	switch e.field {
	case editSummary:
		if e.text == "" {
			e.err = "summary cannot be empty"
			return false
		}
		e.draft.Fields.Summary = e.text
	case editDates:
		if !validDate(e.start) || !validDate(e.end) {
			e.err = "dates must be YYYY-MM-DD"
			return false
		}
		if e.start != "" && e.end != "" && e.end < e.start {
			e.err = "end date is before start date"
			return false
		}
		e.draft.Fields.Date = domain.DateRange{Start: e.start, End: e.end}
	}
	return true
}

func cycle(values []string, cur string, step int) string {
	i := slices.Index(values, cur)
	if i < 0 {
		return values[0]
	}
	n := len(values)
	return values[((i+step)%n+n)%n]
}

func cyclePriority(cur domain.Priority, step int) domain.Priority {
	names := make([]string, len(domain.Priorities))
	for i, p := range domain.Priorities {
		names[i] = p.Name
	}
	p, _ := domain.PriorityByName(cycle(names, cur.Name, step))
	return p
}
