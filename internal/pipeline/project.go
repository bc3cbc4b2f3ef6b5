// Package pipeline holds the working set of assigned tasks and derives the
// grouped, filtered view the dashboard renders from it.
package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/taskboard/taskboard/pkg/domain"
)

// SortMode selects the ordering applied before grouping.
type SortMode string

const (
	SortDefault  SortMode = "default"
	SortProjects SortMode = "projects"
	SortTask     SortMode = "task"
)

// SortModes lists the modes in the order the dashboard cycles through them.
var SortModes = []SortMode{SortDefault, SortProjects, SortTask}

// ParseSortMode accepts a mode name; empty means default.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SortDefault, nil
	case SortDefault, SortProjects, SortTask:
		return m, nil
	}
	return "", fmt.Errorf("pipeline: unknown sort mode %q", s)
}

// Next returns the mode after m in SortModes, wrapping around.
func (m SortMode) Next() SortMode {
	i := slices.Index(SortModes, m)
	return SortModes[(i+1)%len(SortModes)]
}

// ViewParams are the dashboard's filter and sort settings.
type ViewParams struct {
	SearchTerm     string
	StatusFilter   string // domain.StatusAll or empty matches every status
	FromDate       string
	ToDate         string
	AssigneeSearch string
	SortMode       SortMode
}

// DefaultParams returns params that keep every task in input order.
func DefaultParams() ViewParams {
	return ViewParams{StatusFilter: domain.StatusAll, SortMode: SortDefault}
}

// Group is one project's tasks in display order.
type Group struct {
	Project string        `json:"project"`
	Tasks   []domain.Task `json:"tasks"`
}

// Project sorts, groups and filters tasks. It does not modify tasks and
// returns equal results for equal inputs.
func Project(tasks []domain.Task, p ViewParams) []Group {
	sorted := slices.Clone(tasks)
	sortTasks(sorted, p.SortMode)

	var groups []Group
	index := map[string]int{}
	for _, t := range sorted {
		name := t.Fields.Project.Name
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Project: name})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}

	search := strings.ToLower(p.SearchTerm)
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if search != "" && !strings.Contains(strings.ToLower(g.Project), search) {
			continue
		}
		var kept []domain.Task
		for _, t := range g.Tasks {
			if keep(t, p) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, Group{Project: g.Project, Tasks: kept})
	}
	return out
}

func sortTasks(tasks []domain.Task, mode SortMode) {
	switch mode {
	case SortProjects:
		c := collate.New(language.English)
		slices.SortStableFunc(tasks, func(a, b domain.Task) int {
			return c.CompareString(a.Fields.Project.Name, b.Fields.Project.Name)
		})
	case SortTask:
		slices.SortStableFunc(tasks, func(a, b domain.Task) int {
			return domain.PriorityRank(b.Fields.Priority.Name) - domain.PriorityRank(a.Fields.Priority.Name)
		})
	}
}

// keep applies the per-task filters. Dates are ISO strings so lexical order
// is date order.
func keep(t domain.Task, p ViewParams) bool {
	f := t.Fields
	if p.StatusFilter != "" && p.StatusFilter != domain.StatusAll && f.Status.Name != p.StatusFilter {
		return false
	}
	if p.FromDate != "" && f.Date.Start != "" && f.Date.Start < p.FromDate {
		return false
	}
	if p.ToDate != "" && f.Date.End != "" && f.Date.End > p.ToDate {
		return false
	}
	if p.AssigneeSearch != "" && !strings.Contains(strings.ToLower(f.Assignee.Name), strings.ToLower(p.AssigneeSearch)) {
		return false
	}
	return true
}

// Count returns the number of tasks across groups.
func Count(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Tasks)
	}
	return n
}
