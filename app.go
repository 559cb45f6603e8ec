package replica

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jdziat/hris-replica/pkg/config"
	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/dispatch"
	"github.com/jdziat/hris-replica/pkg/hris"
	"github.com/jdziat/hris-replica/pkg/pipeline"
	"github.com/jdziat/hris-replica/pkg/scheduler"
	"github.com/jdziat/hris-replica/pkg/statusstore"
	"github.com/jdziat/hris-replica/pkg/storage"
	"github.com/jdziat/hris-replica/pkg/synclog"
)

// errHRISNotConfigured is returned by HRIS-backed pipelines when no base URL is set.
var errHRISNotConfigured = errors.New("hris: HRIS_BASE_URL is not configured")

type unconfiguredHRIS struct{}

func (unconfiguredHRIS) ReadData(context.Context, string, hris.Filter) ([]hris.Record, error) {
	return nil, errHRISNotConfigured
}

// App is a fully wired replica: stores, sources, pipelines and scheduler.
type App struct {
	Config    *config.Config
	Log       logrus.FieldLogger
	Store     *storage.GormStorage
	Punches   *storage.GormPunchSource
	Registry  *dispatch.Registry
	Scheduler *scheduler.Scheduler
	SyncLog   *synclog.Recorder

	hris  hris.Reader
	redis redis.UniversalClient
	dbs   []*gorm.DB
}

// AppOption adjusts an App before its pipelines are registered.
type AppOption func(*appOptions)

type appOptions struct {
	clock core.Clock
	hris  hris.Reader
	redis redis.UniversalClient
}

// WithClock injects the time source used by the scheduler and pipelines.
func WithClock(c core.Clock) AppOption {
	return func(o *appOptions) { o.clock = c }
}

// WithHRIS replaces the HTTP HRIS client.
func WithHRIS(r hris.Reader) AppOption {
	return func(o *appOptions) { o.hris = r }
}

// WithRedis replaces the Redis client built from the configuration.
func WithRedis(rdb redis.UniversalClient) AppOption {
	return func(o *appOptions) { o.redis = rdb }
}

// NewApp opens the databases and wires every pipeline into a scheduler.
func NewApp(cfg *config.Config, log logrus.FieldLogger, opts ...AppOption) (*App, error) {
	o := appOptions{clock: core.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Log: log}

	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN, log,
		storage.MaxOpenConns(cfg.DBMaxOpenConns),
		storage.MaxIdleConns(cfg.DBMaxIdleConns))
	if err != nil {
		return nil, err
	}
	app.dbs = append(app.dbs, db)
	app.Store = storage.NewGormStorage(db)

	punchDB := db
	if cfg.SeparatePunchDB() {
		punchDB, err = storage.Open(cfg.PunchDBDriver, cfg.PunchDBDSN, log,
			storage.WithPoolConfig(storage.PunchSourcePoolConfig()))
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("punch source: %w", err)
		}
		app.dbs = append(app.dbs, punchDB)
	}
	app.Punches = storage.NewGormPunchSource(punchDB)

	app.hris = o.hris
	if app.hris == nil {
		app.hris = unconfiguredHRIS{}
		if cfg.HRISBaseURL != "" {
			client, err := hris.NewClient(hris.Config{
				BaseURL:         cfg.HRISBaseURL,
				Username:        cfg.HRISUsername,
				Password:        cfg.HRISPassword,
				RateLimitPerMin: cfg.HRISRateLimitPerMin,
			}, log)
			if err != nil {
				app.Close()
				return nil, err
			}
			app.hris = client
		}
	}

	app.redis = o.redis
	if app.redis == nil && cfg.RedisAddress != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	env := pipeline.Env{Clock: o.clock, Location: loc, Log: log}
	app.Registry = dispatch.NewRegistry(cfg.PipelineTimeout)
	app.registerPipelines(env)

	app.SyncLog = synclog.NewRecorder(app.Store, o.clock.Now, log)
	schedOpts := []scheduler.Option{
		scheduler.TickInterval(cfg.SchedulerTick),
		scheduler.StaleAfter(cfg.StaleRunningAfter),
		scheduler.WithClock(o.clock),
		scheduler.WithLocation(loc),
		scheduler.WithSyncLog(app.SyncLog),
		scheduler.WithLogger(log),
	}
	if app.redis != nil {
		schedOpts = append(schedOpts, scheduler.WithLocker(scheduler.NewRedisLocker(app.redis), cfg.PipelineTimeout+time.Minute))
	}
	app.Scheduler = scheduler.New(app.Store, app.Registry, schedOpts...)
	return app, nil
}

func (a *App) registerPipelines(env pipeline.Env) {
	var status statusstore.Loader
	if a.redis != nil {
		status = statusstore.New(a.redis, statusstore.WithLogger(a.Log))
	}

	a.Registry.Register(core.TaskOrgHierarchySync,
		&pipeline.OrgSync{HRIS: a.hris, Directory: a.Store, Env: env},
		dispatch.Description("Replicate divisions, sections and sub-sections from the HRIS"))
	a.Registry.Register(core.TaskEmployeeSync,
		&pipeline.EmployeeSync{HRIS: a.hris, Directory: a.Store, Env: env},
		dispatch.Description("Replicate employees from the HRIS and deactivate leavers"))
	a.Registry.Register(core.TaskEmployeeIndexBuild,
		&pipeline.IndexBuilder{Directory: a.Store, Index: a.Store, Env: env},
		dispatch.Description("Add new active employees to the employee index"))
	a.Registry.Register(core.TaskAttendanceSync,
		&pipeline.Reconciler{
			Punches:      a.Punches,
			Attendance:   a.Store,
			Directory:    a.Store,
			Status:       status,
			LookbackDays: a.Config.AttendanceLookbackDays,
			Env:          env,
		},
		dispatch.Description("Reconcile punches into attendance records"))
	a.Registry.Register(core.TaskDailyStatsRollup,
		&pipeline.Rollup{Attendance: a.Store, Env: env},
		dispatch.Description("Recompute daily attendance statistics"))
	a.Registry.Register(core.TaskReportCacheInvalidate,
		&pipeline.CacheInvalidation{Attendance: a.Store, Env: env},
		dispatch.Description("Drop cached reports overlapping the task range"))
}

// Migrate creates the replica tables, and the punch table when punches share
// the replica database.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.Store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate replica: %w", err)
	}
	if !a.Config.SeparatePunchDB() {
		if err := a.Punches.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate punches: %w", err)
		}
	}
	return nil
}

// Close releases database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	for _, db := range a.dbs {
		if sqlDB, err := db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
