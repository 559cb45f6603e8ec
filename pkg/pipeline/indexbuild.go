package pipeline

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/jdziat/hris-replica/pkg/core"
)

// IndexBuilder fills the flat employee index from the replicated directory.
// Existing index rows are never modified.
type IndexBuilder struct {
	Directory core.DirectoryStore
	Index     core.IndexStore
	Env       Env
}

type orgLookup struct {
	divisions   map[string]core.Division
	sections    map[string]core.Section
	subSections map[uint]core.SubSection
	transfers   map[string]core.SubSectionTransfer
}

func newOrgLookup(units *core.OrgUnits) *orgLookup {
	l := &orgLookup{
		divisions:   make(map[string]core.Division, len(units.Divisions)),
		sections:    make(map[string]core.Section, len(units.Sections)),
		subSections: make(map[uint]core.SubSection, len(units.SubSections)),
		transfers:   make(map[string]core.SubSectionTransfer, len(units.Transfers)),
	}
	for _, d := range units.Divisions {
		l.divisions[d.Code] = d
	}
	for _, s := range units.Sections {
		l.sections[s.Code] = s
	}
	for _, s := range units.SubSections {
		l.subSections[s.ID] = s
	}
	// Transfers arrive newest first; the first one per employee wins.
	for _, t := range units.Transfers {
		if _, seen := l.transfers[t.EmployeeID]; !seen {
			l.transfers[t.EmployeeID] = t
		}
	}
	return l
}

func (l *orgLookup) divisionName(code string) string {
	return l.divisions[code].Name
}

func (l *orgLookup) sectionName(code string) string {
	return l.sections[code].Name
}

// Run implements core.Pipeline.
func (b *IndexBuilder) Run(ctx context.Context, req core.RunRequest) (*core.RunResult, error) {
	start := b.Env.now()
	log := b.Env.logger("index_builder", req)

	units, err := b.Directory.LoadOrgUnits(ctx)
	if err != nil {
		return nil, core.Fatal("load organization", err)
	}
	employees, err := b.Directory.ActiveEmployees(ctx)
	if err != nil {
		return nil, core.Fatal("load employees", err)
	}
	indexed, err := b.Index.IndexedEmployeeIDs(ctx)
	if err != nil {
		return nil, core.Fatal("load index", err)
	}
	lookup := newOrgLookup(units)
	sortForIndex(employees)

	res := newResult()
	alreadyPresent := 0
	indexedAt := b.Env.now()
	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			res.Duration = b.Env.now().Sub(start)
			return res, core.Fatal("index build", err)
		}
		res.Processed++

		div := strings.TrimSpace(emp.DivisionCode)
		if div == "" {
			res.Skipped++
			continue
		}
		if _, ok := lookup.divisions[div]; !ok {
			res.Skipped++
			log.WithField("employee_id", emp.EmployeeID).WithField("division_code", div).Debug("division not found, skipping")
			continue
		}
		if _, ok := indexed[emp.EmployeeID]; ok {
			alreadyPresent++
			continue
		}

		entry := &core.EmployeeIndexEntry{
			EmployeeID:   emp.EmployeeID,
			EmployeeName: emp.Name,
			Designation:  emp.Designation,
			DivisionCode: div,
			DivisionName: lookup.divisionName(div),
			SectionCode:  emp.SectionCode,
			SectionName:  lookup.sectionName(emp.SectionCode),
			IndexedAt:    indexedAt,
		}
		if tr, ok := lookup.transfers[emp.EmployeeID]; ok {
			if sub, ok := lookup.subSections[tr.SubSectionID]; ok {
				id := sub.ID
				entry.SubSectionID = &id
				entry.SubSectionName = sub.Name
			}
		}

		inserted, err := b.Index.InsertIndexEntry(ctx, entry)
		if err != nil {
			res.Failed++
			log.WithError(err).WithField("employee_id", emp.EmployeeID).Warn("failed to insert index entry")
			continue
		}
		if !inserted {
			alreadyPresent++
			continue
		}
		res.Inserted++
		indexed[emp.EmployeeID] = struct{}{}
	}

	res.Details["already_present"] = alreadyPresent
	res.Duration = b.Env.now().Sub(start)
	log.WithField("summary", res.Summary()).WithField("already_present", alreadyPresent).Info("employee index build finished")
	return res, nil
}

// sortForIndex orders employees by numeric division code, then employee ID.
// Non-numeric division codes sort after numeric ones.
func sortForIndex(emps []core.Employee) {
	sort.SliceStable(emps, func(i, j int) bool {
		ni, iNum := divisionNumber(emps[i].DivisionCode)
		nj, jNum := divisionNumber(emps[j].DivisionCode)
		switch {
		case iNum && jNum && ni != nj:
			return ni < nj
		case iNum != jNum:
			return iNum
		case !iNum && emps[i].DivisionCode != emps[j].DivisionCode:
			return emps[i].DivisionCode < emps[j].DivisionCode
		}
		return emps[i].EmployeeID < emps[j].EmployeeID
	})
}

func divisionNumber(code string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(code), 10, 64)
	return n, err == nil
}
