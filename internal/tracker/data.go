package tracker

import "github.com/taskboard/taskboard/pkg/domain"

type seed struct {
	id, key, summary, project string
	projectPriority           int
	status, priority, sprint  string
	assignee, start, end      string
}

var seeds = []seed{
	{"10001", "PROJ-101", "Implement login screen", "Website Redesign", 1, domain.StatusInProgress, "High", "Sprint 5", "John Doe", "2023-06-01", "2023-06-15"},
	{"10002", "MOB-42", "Fix mobile navigation bug", "Mobile App", 2, domain.StatusToDo, "Critical", "Sprint 5", "Sarah Smith", "2023-06-05", "2023-06-10"},
	{"10003", "API-15", "Optimize database queries", "Backend Services", 3, domain.StatusInReview, "Medium", "Sprint 4", "Michael Chen", "2023-05-20", "2023-05-30"},
	{"10004", "DOC-27", "Update API documentation", "Developer Portal", 4, domain.StatusDone, "Low", "Sprint 3", "Emily Johnson", "2023-05-10", "2023-05-15"},
	{"10005", "UI-89", "Redesign dashboard layout", "Admin Console", 2, domain.StatusInProgress, "High", "Sprint 5", "David Wilson", "2023-06-01", "2023-06-20"},
	{"10006", "SEC-33", "Implement 2FA for admin users", "Security", 1, domain.StatusToDo, "Critical", "Sprint 6", "Alex Rodriguez", "2023-06-20", "2023-06-30"},
	{"10007", "PERF-12", "Improve page load times", "Performance", 3, domain.StatusInProgress, "High", "Sprint 5", "Jessica Lee", "2023-06-05", "2023-06-25"},
	{"10008", "INT-56", "Setup CI/CD pipeline", "DevOps", 2, domain.StatusDone, "Medium", "Sprint 4", "Robert Taylor", "2023-05-15", "2023-05-30"},
	{"10009", "TEST-78", "Write unit tests for auth module", "Testing", 4, domain.StatusInReview, "Low", "Sprint 5", "Jennifer Brown", "2023-06-10", "2023-06-15"},
	{"10010", "FEAT-91", "Add dark mode toggle", "Frontend", 3, domain.StatusToDo, "Medium", "Sprint 6", "Daniel Kim", "2023-06-25", "2023-07-05"},
}

// CannedTasks returns a fresh copy of the demo issue set.
func CannedTasks() []domain.Task {
	tasks := make([]domain.Task, 0, len(seeds))
	for _, s := range seeds {
		prio, _ := domain.PriorityByName(s.priority)
		tasks = append(tasks, domain.Task{
			ID:  s.id,
			Key: s.key,
			Fields: domain.TaskFields{
				Summary:  s.summary,
				Project:  domain.Project{Name: s.project, Priority: s.projectPriority},
				Status:   domain.Status{Name: s.status},
				Priority: prio,
				Sprint:   domain.Sprint{Name: s.sprint},
				Assignee: domain.Assignee{Name: s.assignee},
				Date:     domain.DateRange{Start: s.start, End: s.end},
			},
		})
	}
	return tasks
}
