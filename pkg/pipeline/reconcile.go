package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/security"
	"github.com/jdziat/hris-replica/pkg/statusstore"
)

// DefaultLookbackDays is the reconciliation window used when a task has no range.
const DefaultLookbackDays = 1

// Reconciler merges grouped punches, the employee directory and the optional
// status store into one AttendanceSyncRecord per employee and day.
type Reconciler struct {
	Punches    core.PunchSource
	Attendance core.AttendanceStore
	Directory  core.DirectoryStore
	// Status is best-effort; nil disables it.
	Status       statusstore.Loader
	LookbackDays int
	Env          Env
}

// Range returns the range a request reconciles.
func (r *Reconciler) Range(req core.RunRequest) core.DateRange {
	if req.Range != nil {
		return *req.Range
	}
	days := r.LookbackDays
	if days <= 0 {
		days = DefaultLookbackDays
	}
	days = security.ClampLookbackDays(days)
	return r.Env.lastDays(days)
}

type snapshot struct {
	name, designation          string
	divisionCode, divisionName string
	sectionCode, sectionName   string
}

// Run implements core.Pipeline.
func (r *Reconciler) Run(ctx context.Context, req core.RunRequest) (*core.RunResult, error) {
	start := r.Env.now()
	rng := r.Range(req)
	log := r.Env.logger("reconcile", req).WithField("range", rng.String())

	groups, err := r.Punches.GroupPunches(ctx, rng)
	if err != nil {
		return nil, core.Fatal("punch source", err)
	}
	directory, err := r.loadDirectory(ctx)
	if err != nil {
		return nil, core.Fatal("employee directory", err)
	}
	status := r.loadStatus(ctx, rng)
	if !status.Available() {
		log.WithError(status.Err()).Warn("status source unavailable, using defaults")
	}
	existing, err := r.Attendance.ExistingAttendanceKeys(ctx, rng)
	if err != nil {
		return nil, core.Fatal("attendance store", err)
	}

	res := newResult()
	res.Details["range"] = rng.String()
	res.Details["status_source_available"] = status.Available()

	syncedAt := r.Env.now()
	unknown := 0
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			res.Duration = r.Env.now().Sub(start)
			return res, core.Fatal("reconcile", err)
		}
		res.Processed++

		snap, known := directory[g.EmployeeID]
		if !known {
			unknown++
		}
		var doc *statusstore.Document
		if d, ok := status.Lookup(core.AttendanceKey{EmployeeID: g.EmployeeID, Date: g.PunchDate}); ok {
			doc = &d
		}
		rec, err := mergeAttendance(g, snap, doc, syncedAt)
		if err != nil {
			res.Failed++
			log.WithError(err).Warn("skipping punch group")
			continue
		}
		if err := r.Attendance.UpsertAttendance(ctx, rec); err != nil {
			res.Failed++
			log.WithError(err).WithField("employee_id", rec.EmployeeID).WithField("date", rec.AttendanceDate).
				Warn("failed to upsert attendance record")
			continue
		}
		if _, ok := existing[rec.Key()]; ok {
			res.Updated++
		} else {
			res.Inserted++
			existing[rec.Key()] = struct{}{}
		}
	}
	res.Details["unknown_employees"] = unknown

	statGroups, err := r.Attendance.RecomputeDailyStats(ctx, rng, r.Env.now())
	if err != nil {
		res.Duration = r.Env.now().Sub(start)
		return res, core.Fatal("daily stats rollup", err)
	}
	res.Details["daily_stat_groups"] = statGroups

	invalidated, err := r.Attendance.InvalidateReportCache(ctx, &rng)
	if err != nil {
		log.WithError(err).Warn("report cache invalidation failed")
	} else {
		res.Details["cache_invalidated"] = invalidated
	}

	res.Duration = r.Env.now().Sub(start)
	log.WithField("summary", res.Summary()).Info("attendance reconciliation finished")
	return res, nil
}

func (r *Reconciler) loadDirectory(ctx context.Context) (map[string]snapshot, error) {
	emps, err := r.Directory.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}
	units, err := r.Directory.LoadOrgUnits(ctx)
	if err != nil {
		return nil, err
	}
	lookup := newOrgLookup(units)
	dir := make(map[string]snapshot, len(emps))
	for _, e := range emps {
		dir[e.EmployeeID] = snapshot{
			name:         e.Name,
			designation:  e.Designation,
			divisionCode: e.DivisionCode,
			divisionName: lookup.divisionName(e.DivisionCode),
			sectionCode:  e.SectionCode,
			sectionName:  lookup.sectionName(e.SectionCode),
		}
	}
	return dir, nil
}

func (r *Reconciler) loadStatus(ctx context.Context, rng core.DateRange) statusstore.Result {
	if r.Status == nil {
		return statusstore.Available(nil)
	}
	return r.Status.Load(ctx, rng)
}

// mergeAttendance builds the canonical record. Punch data decides occurrence
// and timing; the status document, when present, decides business fields.
func mergeAttendance(g core.PunchGroup, snap snapshot, doc *statusstore.Document, syncedAt time.Time) (*core.AttendanceSyncRecord, error) {
	if g.EmployeeID == "" {
		return nil, fmt.Errorf("punch group on %s without employee id", g.PunchDate)
	}
	if _, err := time.Parse(core.DateLayout, g.PunchDate); err != nil {
		return nil, fmt.Errorf("employee %s: invalid punch date %q", g.EmployeeID, g.PunchDate)
	}
	if g.PunchCount <= 0 {
		return nil, fmt.Errorf("employee %s on %s: empty punch group", g.EmployeeID, g.PunchDate)
	}

	rec := &core.AttendanceSyncRecord{
		EmployeeID:     g.EmployeeID,
		AttendanceDate: g.PunchDate,
		EmployeeName:   snap.name,
		Designation:    snap.designation,
		DivisionCode:   snap.divisionCode,
		DivisionName:   snap.divisionName,
		SectionCode:    snap.sectionCode,
		SectionName:    snap.sectionName,
		FirstPunchTime: g.FirstPunch,
		LastPunchTime:  g.LastPunch,
		PunchCount:     g.PunchCount,
		Status:         core.AttendancePresent,
		WorkingHours:   decimal.Zero,
		OvertimeHours:  decimal.Zero,
		DataSource:     core.SourcePunch,
		SyncedAt:       syncedAt,
	}
	if doc == nil {
		return rec, nil
	}

	rec.DataSource = core.SourcePunchStatus
	if doc.Status != "" {
		rec.Status = doc.Status
	}
	if doc.WorkingHours != nil {
		rec.WorkingHours = *doc.WorkingHours
	}
	if doc.OvertimeHours != nil {
		rec.OvertimeHours = *doc.OvertimeHours
	}
	if doc.LateMinutes != nil {
		rec.LateMinutes = *doc.LateMinutes
	}
	rec.Shift = doc.Shift
	return rec, nil
}
