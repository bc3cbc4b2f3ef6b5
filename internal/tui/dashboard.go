package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskboard/taskboard/internal/browser"
	"github.com/taskboard/taskboard/internal/pipeline"
	"github.com/taskboard/taskboard/pkg/domain"
)

// -- messages --

// Loads and updates carry the store they were issued against so results
// arriving after logout or reload are dropped.
type tasksLoadedMsg struct {
	store *pipeline.Store
	err   error
}

type taskUpdatedMsg struct {
	store *pipeline.Store
	id    string
	task  domain.Task
	err   error
}

type copyResultMsg struct{ err error }
type openResultMsg struct{ err error }

// logoutMsg asks the app to end the session.
type logoutMsg struct{}

// -- model --

type filterField int

const (
	filterSearch filterField = iota
	filterAssignee
	filterFrom
	filterTo
)

func (f filterField) label() string {
	switch f {
	case filterSearch:
		return "project"
	case filterAssignee:
		return "assignee"
	case filterFrom:
		return "from"
	case filterTo:
		return "to"
	}
	return ""
}

type dashboardModel struct {
	store      *pipeline.Store
	user       domain.UserRef
	trackerURL string
	logger     *slog.Logger

	params pipeline.ViewParams
	groups []pipeline.Group
	tasks  []domain.Task // groups flattened in display order
	cursor int

	loading bool
	loadErr string

	// filter entry
	filtering   bool
	filter      filterField
	filterText  string
	filterPrev  pipeline.ViewParams
	filterError string

	edit    *editState
	pending map[string]bool

	statusMsg string
	statusErr bool

	width  int
	height int
}

func newDashboardModel(store *pipeline.Store, user domain.UserRef, trackerURL string, logger *slog.Logger) dashboardModel {
	if logger == nil {
		logger = slog.Default()
	}
	return dashboardModel{
		store:      store,
		user:       user,
		trackerURL: trackerURL,
		logger:     logger,
		params:     pipeline.DefaultParams(),
		pending:    map[string]bool{},
		loading:    true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m dashboardModel) loadCmd() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		_, err := s.Load(context.Background())
		return tasksLoadedMsg{store: s, err: err}
	}
}

func (m dashboardModel) applyCmd(id string, upd domain.TaskUpdate) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		task, err := s.ApplyUpdate(context.Background(), id, upd)
		return taskUpdatedMsg{store: s, id: id, task: task, err: err}
	}
}

// capturing reports whether keys go to a text field or editor.
func (m dashboardModel) capturing() bool {
	return m.filtering || m.edit != nil
}

// close detaches the store so in-flight results are discarded.
func (m dashboardModel) close() {
	if m.store != nil {
		m.store.Close()
	}
}

// refresh recomputes the projection and keeps the cursor on the same task
// when it is still visible.
func (m *dashboardModel) refresh() {
	var selected string
	if t, ok := m.selected(); ok {
		selected = t.ID
	}
	m.groups = m.store.Project(m.params)
	m.tasks = nil
	for _, g := range m.groups {
		m.tasks = append(m.tasks, g.Tasks...)
	}
	if i := slices.IndexFunc(m.tasks, func(t domain.Task) bool { return t.ID == selected }); i >= 0 {
		m.cursor = i
	}
	if m.cursor >= len(m.tasks) {
		m.cursor = max(len(m.tasks)-1, 0)
	}
}

func (m dashboardModel) selected() (domain.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return domain.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *dashboardModel) setStatus(text string, isErr bool) {
	m.statusMsg = text
	m.statusErr = isErr
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tasksLoadedMsg:
		if msg.store != m.store {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			return m, nil
		}
		m.loadErr = ""
		m.refresh()
		return m, nil

	case taskUpdatedMsg:
		if msg.store != m.store {
			return m, nil
		}
		delete(m.pending, msg.id)
		switch {
		case errors.Is(msg.err, pipeline.ErrDetached):
			return m, nil
		case msg.err != nil:
			reason := strings.TrimPrefix(msg.err.Error(), pipeline.ErrUpdateFailed.Error()+": ")
			m.setStatus("update failed: "+reason, true)
		default:
			m.setStatus(fmt.Sprintf("%s updated", msg.task.Key), false)
		}
		m.refresh()
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("copy failed: %v", msg.err), true)
		} else {
			m.setStatus("copied!", false)
		}
		return m, nil

	case openResultMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("open failed: %v", msg.err), true)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.edit != nil:
			return m.updateEdit(msg)
		case m.filtering:
			return m.updateFilter(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(len(m.tasks)-1, 0)

	// Filters
	case "/":
		m.startFilter(filterSearch)
	case "a":
		m.startFilter(filterAssignee)
	case "f":
		m.startFilter(filterFrom)
	case "t":
		m.startFilter(filterTo)
	case "s":
		m.params.StatusFilter = cycle(append([]string{domain.StatusAll}, domain.Statuses...), m.statusFilter(), 1)
		m.refresh()
	case "o":
		m.params.SortMode = m.params.SortMode.Next()
		m.refresh()
	case "x":
		m.params = pipeline.DefaultParams()
		m.refresh()

	// Edits
	case "e":
		m.startEdit(editSummary)
	case "S":
		m.startEdit(editStatus)
	case "p":
		m.startEdit(editPriority)
	case "d":
		m.startEdit(editDates)

	// Actions
	case "c":
		if t, ok := m.selected(); ok {
			key := t.Key
			return m, func() tea.Msg {
				return copyResultMsg{err: clipboard.WriteAll(key)}
			}
		}
	case "b":
		if t, ok := m.selected(); ok {
			base, key := m.trackerURL, t.Key
			return m, func() tea.Msg {
				return openResultMsg{err: browser.OpenTask(base, key)}
			}
		}
	case "r":
		m.loading = true
		m.loadErr = ""
		return m, m.loadCmd()
	case "L":
		return m, func() tea.Msg { return logoutMsg{} }
	}
	return m, nil
}

func (m dashboardModel) statusFilter() string {
	if m.params.StatusFilter == "" {
		return domain.StatusAll
	}
	return m.params.StatusFilter
}

func (m *dashboardModel) startFilter(f filterField) {
	m.filtering = true
	m.filter = f
	m.filterPrev = m.params
	m.filterError = ""
	switch f {
	case filterSearch:
		m.filterText = m.params.SearchTerm
	case filterAssignee:
		m.filterText = m.params.AssigneeSearch
	case filterFrom:
		m.filterText = m.params.FromDate
	case filterTo:
		m.filterText = m.params.ToDate
	}
}

// updateFilter edits the active filter. Text filters apply as you type;
// date filters apply on enter once they parse.
func (m dashboardModel) updateFilter(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.params = m.filterPrev
		m.filtering = false
		m.filterError = ""
		m.refresh()
		return m, nil
	case "enter":
		switch m.filter {
		case filterFrom, filterTo:
			if !validDate(m.filterText) {
				m.filterError = "use YYYY-MM-DD"
				return m, nil
			}
			if m.filter == filterFrom {
				m.params.FromDate = m.filterText
			} else {
				m.params.ToDate = m.filterText
			}
		}
		m.filtering = false
		m.filterError = ""
		m.refresh()
		return m, nil
	}

	m.filterText = editRune(m.filterText, msg.String())
	m.filterError = ""
	switch m.filter {
	case filterSearch:
		m.params.SearchTerm = m.filterText
		m.refresh()
	case filterAssignee:
		m.params.AssigneeSearch = m.filterText
		m.refresh()
	}
	return m, nil
}

func (m *dashboardModel) startEdit(f editField) {
	t, ok := m.selected()
	if !ok {
		return
	}
	if m.pending[t.ID] {
		m.setStatus(fmt.Sprintf("%s is still saving", t.Key), true)
		return
	}
	m.edit = newEditState(f, t)
}

func (m dashboardModel) updateEdit(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	if msg.String() == "esc" {
		m.edit = nil
		return m, nil
	}
	if !m.edit.key(msg.String()) {
		return m, nil
	}

	e := m.edit
	m.edit = nil
	upd := pipeline.Diff(e.original, e.draft)
	if upd.Empty() {
		m.setStatus("no changes", false)
		return m, nil
	}
	m.pending[e.original.ID] = true
	m.setStatus(fmt.Sprintf("saving %s...", e.original.Key), false)
	m.logger.Debug("edit_commit", "task_id", e.original.ID, "fields", upd.FieldNames())
	return m, m.applyCmd(e.original.ID, upd)
}

func (m dashboardModel) View() string {
	var b strings.Builder

	b.WriteString(m.filterBar() + "\n")

	if m.loading && !m.store.Loaded() {
		b.WriteString("\n " + dimStyle.Render("loading tasks...") + "\n")
		return b.String()
	}
	if m.loadErr != "" {
		b.WriteString("\n " + errorStyle.Render("could not load tasks: "+m.loadErr) + "\n")
		b.WriteString(" " + dimStyle.Render("press r to retry") + "\n")
		return b.String()
	}
	if len(m.groups) == 0 {
		b.WriteString("\n " + dimStyle.Render("no tasks match the current filters") + "\n")
		return b.String()
	}

	var lines []string
	cursorLine := 0
	i := 0
	for _, g := range m.groups {
		lines = append(lines, "", " "+groupHeaderStyle.Render(g.Project)+" "+metaStyle.Render(fmt.Sprintf("(%d)", len(g.Tasks))))
		for _, t := range g.Tasks {
			if i == m.cursor {
				cursorLine = len(lines)
			}
			lines = append(lines, m.renderTask(t, i == m.cursor))
			if i == m.cursor && m.edit != nil {
				lines = append(lines, m.renderEditor())
			}
			i++
		}
	}
	for _, l := range visibleLines(lines, cursorLine, m.listHeight()) {
		b.WriteString(l + "\n")
	}

	if m.statusMsg != "" {
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString("\n " + style.Render(m.statusMsg) + "\n")
	}
	return b.String()
}

// listHeight is the number of rows available to the grouped list, or 0 when
// the height is unknown.
func (m dashboardModel) listHeight() int {
	if m.height <= 0 {
		return 0
	}
	// filter bar, status line and its spacer
	return max(m.height-3, 3)
}

// visibleLines returns the window of lines that keeps the cursor line (and the
// editor below it) on screen.
func visibleLines(lines []string, cursorLine, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := 0
	if cursorLine+2 > height {
		start = min(cursorLine+2-height, len(lines)-height)
	}
	return lines[start : start+height]
}

func (m dashboardModel) filterBar() string {
	if m.filtering {
		line := " " + renderInput(m.filter.label(), m.filterText, placeholderFor(m.filter), true)
		if m.filterError != "" {
			line += "  " + errorStyle.Render(m.filterError)
		}
		return line
	}

	parts := []string{
		dimStyle.Render("status ") + normalStyle.Render(m.statusFilter()),
		dimStyle.Render("sort ") + normalStyle.Render(string(m.params.SortMode)),
	}
	if m.params.SearchTerm != "" {
		parts = append(parts, dimStyle.Render("project ")+normalStyle.Render(m.params.SearchTerm))
	}
	if m.params.AssigneeSearch != "" {
		parts = append(parts, dimStyle.Render("assignee ")+normalStyle.Render(m.params.AssigneeSearch))
	}
	if m.params.FromDate != "" {
		parts = append(parts, dimStyle.Render("from ")+normalStyle.Render(m.params.FromDate))
	}
	if m.params.ToDate != "" {
		parts = append(parts, dimStyle.Render("to ")+normalStyle.Render(m.params.ToDate))
	}
	count := metaStyle.Render(fmt.Sprintf("%d tasks", len(m.tasks)))
	return " " + strings.Join(parts, dimStyle.Render(" · ")) + "  " + count
}

func placeholderFor(f filterField) string {
	switch f {
	case filterFrom, filterTo:
		return "YYYY-MM-DD"
	case filterAssignee:
		return "name"
	}
	return "project name"
}

func (m dashboardModel) renderTask(t domain.Task, active bool) string {
	cursor := " "
	if active {
		cursor = accentStyle.Render("▸")
	}

	summaryWidth := 40
	if m.width > 0 {
		summaryWidth = max(m.width-80, 16)
	}

	key := keyStyle.Render(padRight(t.Key, 8))
	summary := normalStyle.Render(padRight(truncStr(t.Fields.Summary, summaryWidth), summaryWidth))
	if active {
		summary = selectedStyle.Render(padRight(truncStr(t.Fields.Summary, summaryWidth), summaryWidth))
	}
	status := StatusStyle(t.Fields.Status.Name).Render(padRight(t.Fields.Status.Name, 11))
	prio := PriorityStyle(t.Fields.Priority.Name).Render(padRight(t.Fields.Priority.Name, 8))
	assignee := dimStyle.Render(padRight(truncStr(t.Fields.Assignee.Name, 16), 16))
	dates := metaStyle.Render(dateSpan(t.Fields.Date.Start, t.Fields.Date.End))

	row := fmt.Sprintf(" %s %s %s %s %s %s %s", cursor, key, summary, status, prio, assignee, dates)
	if m.pending[t.ID] {
		row += " " + dimStyle.Render("saving...")
	}
	if active {
		row = selectedRowBg.Render(row)
	}
	return row
}

func (m dashboardModel) renderEditor() string {
	e := m.edit
	var line string
	switch e.field {
	case editSummary:
		line = renderInput(e.field.label(), e.text, "summary", true)
	case editStatus:
		line = dimStyle.Render(e.field.label()+": ") + "← " + StatusStyle(e.draft.Fields.Status.Name).Render(e.draft.Fields.Status.Name) + " →"
	case editPriority:
		line = dimStyle.Render(e.field.label()+": ") + "← " + PriorityStyle(e.draft.Fields.Priority.Name).Render(e.draft.Fields.Priority.Name) + " →"
	case editDates:
		line = renderInput("start", e.start, "YYYY-MM-DD", e.dateFocus == 0) + "  " + renderInput("end", e.end, "YYYY-MM-DD", e.dateFocus == 1)
	}
	out := "     " + line
	if e.err != "" {
		out += "  " + errorStyle.Render(e.err)
	}
	return out
}

func (m dashboardModel) helpKeys() string {
	switch {
	case m.edit != nil && (m.edit.field == editStatus || m.edit.field == editPriority):
		return helpBar("←/→", "change", "enter", "save", "esc", "cancel")
	case m.edit != nil && m.edit.field == editDates:
		return helpBar("tab", "start/end", "enter", "save", "esc", "cancel")
	case m.edit != nil:
		return helpBar("enter", "save", "esc", "cancel")
	case m.filtering:
		return helpBar("enter", "apply", "esc", "cancel")
	}
	return helpBar("j/k", "nav", "/", "project", "a", "assignee", "f/t", "dates", "s", "status", "o", "sort", "x", "clear",
		"e/S/p/d", "edit", "c", "copy", "b", "open", "r", "reload", "L", "logout", "q", "quit")
}
