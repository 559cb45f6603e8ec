package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/hris"
	"github.com/jdziat/hris-replica/pkg/statusstore"
	"github.com/jdziat/hris-replica/pkg/storage"
)

func openMemDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newStore(t *testing.T) *storage.GormStorage {
	t.Helper()
	s := storage.NewGormStorage(openMemDB(t))
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newPunches(t *testing.T) *storage.GormPunchSource {
	t.Helper()
	p := storage.NewGormPunchSource(openMemDB(t))
	require.NoError(t, p.Migrate(context.Background()))
	return p
}

func punch(t *testing.T, p *storage.GormPunchSource, emp, date, clock string) {
	t.Helper()
	require.NoError(t, p.RecordPunch(context.Background(), &core.PunchRecord{EmployeeID: emp, PunchDate: date, PunchTime: clock}))
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testEnv(now time.Time) Env {
	return Env{
		Clock:    core.ClockFunc(func() time.Time { return now }),
		Location: time.UTC,
		Log:      quietLogger(),
	}
}

func dayRange(d string) *core.DateRange {
	return &core.DateRange{Start: d, End: d}
}

type fakeStatus struct {
	result statusstore.Result
	calls  int
}

func (f *fakeStatus) Load(context.Context, core.DateRange) statusstore.Result {
	f.calls++
	return f.result
}

type failingPunches struct{}

func (failingPunches) GroupPunches(context.Context, core.DateRange) ([]core.PunchGroup, error) {
	return nil, errors.New("connection refused")
}

type staticPunches []core.PunchGroup

func (s staticPunches) GroupPunches(context.Context, core.DateRange) ([]core.PunchGroup, error) {
	return s, nil
}

type fakeHRIS struct {
	records map[string][]hris.Record
	err     error
}

func (f *fakeHRIS) ReadData(_ context.Context, entity string, _ hris.Filter) ([]hris.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[entity], nil
}
