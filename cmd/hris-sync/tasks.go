package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/schedule"
)

type taskView struct {
	TaskID      string     `json:"task_id"`
	Name        string     `json:"name"`
	Mode        string     `json:"mode"`
	Schedule    string     `json:"schedule"`
	Status      string     `json:"status"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastMessage string     `json:"last_message,omitempty"`
	Due         bool       `json:"due"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	Registered  bool       `json:"registered"`
}

func newTaskView(t *core.ScheduleTask, registered bool, now time.Time, loc *time.Location) taskView {
	v := taskView{
		TaskID:     t.TaskID,
		Name:       t.TaskName,
		Mode:       string(t.Mode),
		Schedule:   describeSchedule(t),
		Status:     string(t.Status),
		LastRun:    t.LastRun,
		Due:        schedule.IsDue(t, now, loc),
		Registered: registered,
	}
	if t.LastMessage != nil {
		v.LastMessage = *t.LastMessage
	}
	if checker, err := schedule.ForTask(t, loc); err == nil {
		if next, ok := checker.Next(t, now); ok {
			v.NextRun = &next
		}
	}
	return v
}

func describeSchedule(t *core.ScheduleTask) string {
	switch {
	case t.CronExpr != "":
		return "cron " + t.CronExpr
	case t.Repeats():
		return string(t.RepeatInterval)
	case t.ScheduleDate != nil && t.ScheduleTime != nil:
		return "once " + *t.ScheduleDate + " " + *t.ScheduleTime
	case t.ScheduleTime != nil:
		return "daily " + *t.ScheduleTime
	}
	return "-"
}

func newTasksCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List schedule tasks and their last outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			tasks, err := app.Store.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			loc, err := app.Config.Location()
			if err != nil {
				return err
			}
			now := time.Now().In(loc)
			views := make([]taskView, 0, len(tasks))
			for _, t := range tasks {
				views = append(views, newTaskView(t, app.Registry.Has(t.TaskID), now, loc))
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return writeJSON(out, views)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK\tMODE\tSCHEDULE\tSTATUS\tLAST RUN\tNEXT RUN\tMESSAGE")
			for _, v := range views {
				lastRun, nextRun := "never", "-"
				if v.LastRun != nil {
					lastRun = v.LastRun.Format(time.RFC3339)
				}
				switch {
				case v.Due:
					nextRun = "due"
				case v.NextRun != nil:
					nextRun = v.NextRun.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", v.TaskID, v.Mode, v.Schedule, v.Status, lastRun, nextRun, v.LastMessage)
			}
			return tw.Flush()
		},
	}
}
