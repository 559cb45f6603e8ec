package replica

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/schedule"
	"github.com/jdziat/hris-replica/pkg/security"
)

// DefaultTasks returns the built-in task set. The attendance sync repeats
// every 15 minutes and the index build runs nightly; everything else is manual.
func DefaultTasks() []*core.ScheduleTask {
	return []*core.ScheduleTask{
		{
			TaskID:      core.TaskOrgHierarchySync,
			TaskName:    "Organization hierarchy sync",
			Description: "Replicate divisions, sections and sub-sections from the HRIS",
			Mode:        core.ModeManual,
		},
		{
			TaskID:      core.TaskEmployeeSync,
			TaskName:    "Employee sync",
			Description: "Replicate employees from the HRIS and deactivate leavers",
			Mode:        core.ModeManual,
		},
		{
			TaskID:      core.TaskEmployeeIndexBuild,
			TaskName:    "Employee index build",
			Description: "Add new active employees to the employee index",
			Mode:        core.ModeAuto,
			CronExpr:    "0 2 * * *",
		},
		{
			TaskID:         core.TaskAttendanceSync,
			TaskName:       "Attendance sync",
			Description:    "Reconcile punches into attendance records",
			Mode:           core.ModeAuto,
			RepeatEnabled:  true,
			RepeatInterval: core.RepeatEvery15Minutes,
		},
		{
			TaskID:      core.TaskDailyStatsRollup,
			TaskName:    "Daily stats rollup",
			Description: "Recompute daily attendance statistics",
			Mode:        core.ModeManual,
		},
		{
			TaskID:      core.TaskReportCacheInvalidate,
			TaskName:    "Report cache invalidation",
			Description: "Drop cached reports overlapping the task range",
			Mode:        core.ModeManual,
		},
	}
}

// seedTask is one entry of a YAML seed file.
type seedTask struct {
	TaskID         string `yaml:"task_id"`
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	Mode           string `yaml:"mode"`
	Cron           string `yaml:"cron"`
	Repeat         string `yaml:"repeat"`
	ScheduleDate   string `yaml:"schedule_date"`
	ScheduleTime   string `yaml:"schedule_time"`
	DateRangeStart string `yaml:"date_range_start"`
	DateRangeEnd   string `yaml:"date_range_end"`
}

type seedFile struct {
	Tasks []seedTask `yaml:"tasks"`
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func (s seedTask) toTask() (*core.ScheduleTask, error) {
	if err := security.ValidateTaskID(s.TaskID); err != nil {
		return nil, fmt.Errorf("seed task %q: %w", s.TaskID, err)
	}
	task := &core.ScheduleTask{
		TaskID:         s.TaskID,
		TaskName:       s.Name,
		Description:    s.Description,
		Mode:           core.TaskMode(strings.ToLower(s.Mode)),
		CronExpr:       strings.TrimSpace(s.Cron),
		ScheduleDate:   optional(s.ScheduleDate),
		ScheduleTime:   optional(s.ScheduleTime),
		DateRangeStart: optional(s.DateRangeStart),
		DateRangeEnd:   optional(s.DateRangeEnd),
	}
	if s.Repeat != "" && s.Repeat != string(core.RepeatNone) {
		task.RepeatEnabled = true
		task.RepeatInterval = core.RepeatInterval(s.Repeat)
	}
	switch task.Mode {
	case "":
		task.Mode = task.DefaultMode()
	case core.ModeManual, core.ModeAuto:
	default:
		return nil, fmt.Errorf("seed task %q: %w: mode %q", s.TaskID, core.ErrInvalidSchedule, s.Mode)
	}
	if task.CronExpr != "" {
		if err := schedule.ValidateCron(task.CronExpr); err != nil {
			return nil, fmt.Errorf("seed task %q: %w", s.TaskID, err)
		}
	}
	if task.Mode == core.ModeAuto {
		if _, err := schedule.ForTask(task, nil); err != nil {
			return nil, fmt.Errorf("seed task %q: %w", s.TaskID, err)
		}
	}
	if (task.DateRangeStart == nil) != (task.DateRangeEnd == nil) {
		return nil, fmt.Errorf("seed task %q: %w: both range ends are required", s.TaskID, core.ErrInvalidDateRange)
	}
	if task.DateRangeStart != nil {
		if _, err := core.ParseDateRange(*task.DateRangeStart, *task.DateRangeEnd); err != nil {
			return nil, fmt.Errorf("seed task %q: %w", s.TaskID, err)
		}
	}
	return task, nil
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(data []byte) ([]*core.ScheduleTask, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	tasks := make([]*core.ScheduleTask, 0, len(f.Tasks))
	for _, st := range f.Tasks {
		task, err := st.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// LoadSeedFile reads and decodes a YAML seed file.
func LoadSeedFile(path string) ([]*core.ScheduleTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// MergeSeed returns the defaults with any task of the same ID replaced by the
// override, plus the overrides that name new tasks.
func MergeSeed(defaults, overrides []*core.ScheduleTask) []*core.ScheduleTask {
	byID := make(map[string]*core.ScheduleTask, len(overrides))
	for _, t := range overrides {
		byID[t.TaskID] = t
	}
	out := make([]*core.ScheduleTask, 0, len(defaults)+len(overrides))
	for _, t := range defaults {
		if o, ok := byID[t.TaskID]; ok {
			out = append(out, o)
			delete(byID, t.TaskID)
			continue
		}
		out = append(out, t)
	}
	for _, t := range overrides {
		if _, ok := byID[t.TaskID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// SeedTasks inserts tasks that do not exist yet and reports how many were added.
// Existing rows are never overwritten.
func (a *App) SeedTasks(ctx context.Context, tasks []*core.ScheduleTask) (int, error) {
	added := 0
	for _, t := range tasks {
		inserted, err := a.Store.SeedTask(ctx, t)
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", t.TaskID, err)
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

// SeedDefaults seeds DefaultTasks, merged with SCHEDULE_SEED_FILE when set.
func (a *App) SeedDefaults(ctx context.Context) (int, error) {
	tasks := DefaultTasks()
	if path := a.Config.ScheduleSeedFile; path != "" {
		overrides, err := LoadSeedFile(path)
		if err != nil {
			return 0, err
		}
		tasks = MergeSeed(tasks, overrides)
	}
	added, err := a.SeedTasks(ctx, tasks)
	if err == nil && added > 0 {
		a.Log.WithField("added", added).Info("seeded schedule tasks")
	}
	return added, err
}
