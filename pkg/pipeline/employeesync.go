package pipeline

import (
	"context"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/hris"
)

// EmployeeSync replicates the HRIS employee directory.
type EmployeeSync struct {
	HRIS      hris.Reader
	Directory core.DirectoryStore
	Env       Env
}

// Run implements core.Pipeline. Employees missing from a non-empty HRIS
// response are marked inactive.
func (p *EmployeeSync) Run(ctx context.Context, req core.RunRequest) (*core.RunResult, error) {
	start := p.Env.now()
	log := p.Env.logger("employee_sync", req)

	records, err := p.HRIS.ReadData(ctx, hris.EntityEmployee, nil)
	if err != nil {
		return nil, core.Fatal("hris employee", err)
	}

	res := newResult()
	syncedAt := p.Env.now()
	keep := make([]string, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			res.Duration = p.Env.now().Sub(start)
			return res, core.Fatal("employee sync", err)
		}
		res.Processed++
		id := rec.String(hris.FieldEmployeeID)
		if id == "" {
			res.Failed++
			log.Warn("skipping employee record without id")
			continue
		}
		emp := &core.Employee{
			EmployeeID:   id,
			Name:         rec.String(hris.FieldEmployeeName),
			Designation:  rec.String(hris.FieldDesignation),
			DivisionCode: rec.String(hris.FieldDivisionCode),
			SectionCode:  rec.String(hris.FieldSectionCode),
			Active:       rec.Bool(hris.FieldActive, true),
			SyncedAt:     syncedAt,
		}
		// A failed write must not deactivate an employee the HRIS reports active.
		if emp.Active {
			keep = append(keep, id)
		}
		inserted, err := p.Directory.UpsertEmployee(ctx, emp)
		if err != nil {
			res.Failed++
			log.WithError(err).WithField("employee_id", id).Warn("failed to upsert employee")
			continue
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}

	if len(records) == 0 {
		log.Warn("hris returned no employees, directory left unchanged")
	} else {
		deactivated, err := p.Directory.DeactivateEmployeesExcept(ctx, keep)
		if err != nil {
			res.Duration = p.Env.now().Sub(start)
			return res, core.Fatal("deactivate employees", err)
		}
		res.Details["deactivated"] = deactivated
	}

	res.Duration = p.Env.now().Sub(start)
	log.WithField("summary", res.Summary()).Info("employee sync finished")
	return res, nil
}
