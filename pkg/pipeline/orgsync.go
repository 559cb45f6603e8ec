package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/hris"
)

// OrgSync replicates the HRIS organization hierarchy into divisions,
// sections and sub-sections.
type OrgSync struct {
	HRIS      hris.Reader
	Directory core.DirectoryStore
	Env       Env
}

type orgNode struct {
	level  int
	code   string
	name   string
	parent string
}

// Run implements core.Pipeline.
func (p *OrgSync) Run(ctx context.Context, req core.RunRequest) (*core.RunResult, error) {
	start := p.Env.now()
	log := p.Env.logger("org_sync", req)

	records, err := p.HRIS.ReadData(ctx, hris.EntityOrganization, nil)
	if err != nil {
		return nil, core.Fatal("hris organization", err)
	}

	res := newResult()
	nodes := make([]orgNode, 0, len(records))
	for _, rec := range records {
		res.Processed++
		node, err := parseOrgNode(rec)
		if err != nil {
			res.Failed++
			log.WithError(err).Warn("skipping organization record")
			continue
		}
		nodes = append(nodes, node)
	}
	// Parents before children keeps the tables consistent mid-run.
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].level < nodes[j].level })

	syncedAt := p.Env.now()
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			res.Duration = p.Env.now().Sub(start)
			return res, core.Fatal("org sync", err)
		}
		inserted, err := p.upsert(ctx, n, syncedAt)
		if err != nil {
			res.Failed++
			log.WithError(err).WithField("code", n.code).Warn("failed to upsert organization unit")
			continue
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}

	res.Duration = p.Env.now().Sub(start)
	log.WithField("summary", res.Summary()).Info("organization sync finished")
	return res, nil
}

func (p *OrgSync) upsert(ctx context.Context, n orgNode, syncedAt time.Time) (bool, error) {
	switch n.level {
	case hris.LevelDivision:
		return p.Directory.UpsertDivision(ctx, &core.Division{Code: n.code, Name: n.name, SyncedAt: syncedAt})
	case hris.LevelSection:
		return p.Directory.UpsertSection(ctx, &core.Section{Code: n.code, Name: n.name, DivisionCode: n.parent, SyncedAt: syncedAt})
	default:
		return p.Directory.UpsertSubSection(ctx, &core.SubSection{Code: n.code, Name: n.name, SectionCode: n.parent, SyncedAt: syncedAt})
	}
}

func parseOrgNode(rec hris.Record) (orgNode, error) {
	code := rec.String(hris.FieldOrgCode)
	if code == "" {
		return orgNode{}, fmt.Errorf("organization record without code")
	}
	level, err := rec.Int(hris.FieldOrgLevel)
	if err != nil {
		return orgNode{}, fmt.Errorf("organization %s: %w", code, err)
	}
	if level < hris.LevelDivision || level > hris.LevelSubSection {
		return orgNode{}, fmt.Errorf("organization %s: unsupported level %d", code, level)
	}
	parent := rec.String(hris.FieldOrgParentCode)
	if level > hris.LevelDivision && parent == "" {
		return orgNode{}, fmt.Errorf("organization %s: level %d without parent", code, level)
	}
	return orgNode{level: level, code: code, name: rec.String(hris.FieldOrgName), parent: parent}, nil
}
