package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskboard/taskboard/internal/pipeline"
	"github.com/taskboard/taskboard/pkg/client"
	"github.com/taskboard/taskboard/pkg/domain"
)

var errNotLoggedIn = errors.New("not logged in: run `taskboard login` first")

func newTasksCmd(a *app) *cobra.Command {
	var (
		p      = pipeline.DefaultParams()
		sort   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Print assigned tasks grouped by project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := pipeline.ParseSortMode(sort)
			if err != nil {
				return err
			}
			p.SortMode = mode
			if p.StatusFilter != domain.StatusAll && !domain.ValidStatus(p.StatusFilter) {
				return fmt.Errorf("unknown status %q (want %s or one of %s)", p.StatusFilter, domain.StatusAll, strings.Join(domain.Statuses, ", "))
			}

			for name, v := range map[string]string{"from": p.FromDate, "to": p.ToDate} {
				if v == "" {
					continue
				}
				if _, err := time.Parse(time.DateOnly, v); err != nil {
					return fmt.Errorf("invalid --%s date %q (want YYYY-MM-DD)", name, v)
				}
			}
			if p.FromDate != "" && p.ToDate != "" && p.ToDate < p.FromDate {
				return fmt.Errorf("--to %s is before --from %s", p.ToDate, p.FromDate)
			}

			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			sess, ok := e.session.Restore()
			if !ok {
				return errNotLoggedIn
			}

			s := pipeline.NewStore(e.newSource(sess.Token()), e.logger)
			defer s.Close()
			if _, err := s.Load(cmd.Context()); err != nil {
				if client.IsUnauthorized(err) {
					e.session.Logout()
					return fmt.Errorf("session rejected by the server: %w", errNotLoggedIn)
				}
				return err
			}

			groups := s.Project(p)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(groups)
			}
			printGroups(cmd.OutOrStdout(), groups)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.SearchTerm, "search", "", "only projects whose name contains this")
	f.StringVar(&p.StatusFilter, "status", domain.StatusAll, "only tasks in this status")
	f.StringVar(&p.FromDate, "from", "", "only tasks starting on or after YYYY-MM-DD")
	f.StringVar(&p.ToDate, "to", "", "only tasks ending on or before YYYY-MM-DD")
	f.StringVar(&p.AssigneeSearch, "assignee", "", "only tasks whose assignee contains this")
	f.StringVar(&sort, "sort", string(pipeline.SortDefault), "sort mode: default, projects or task")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printGroups(w io.Writer, groups []pipeline.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No tasks match.")
		return
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", g.Project, len(g.Tasks))
		for _, t := range g.Tasks {
			f := t.Fields
			fmt.Fprintf(w, "  %-9s %-36s %-12s %-9s %-16s %s\n",
				t.Key, f.Summary, f.Status.Name, f.Priority.Name, f.Assignee.Name, dates(f.Date))
		}
	}
	fmt.Fprintf(w, "\n%d tasks\n", pipeline.Count(groups))
}

func dates(d domain.DateRange) string {
	if d.Start == "" && d.End == "" {
		return ""
	}
	return d.Start + " → " + d.End
}
