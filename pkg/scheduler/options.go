package scheduler

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/synclog"
)

// Config holds scheduler configuration.
type Config struct {
	TickInterval time.Duration
	StaleAfter   time.Duration
	LockTTL      time.Duration
	StorageRetry RetryConfig
	Clock        core.Clock
	Location     *time.Location
	Locker       Locker
	SyncLog      *synclog.Recorder
	Logger       logrus.FieldLogger
}

// DefaultConfig returns the defaults: a 30s tick and a 1h stale threshold.
func DefaultConfig() Config {
	return Config{
		TickInterval: 30 * time.Second,
		StaleAfter:   time.Hour,
		LockTTL:      time.Hour,
		StorageRetry: DefaultRetryConfig(),
		Clock:        core.SystemClock{},
		Location:     time.Local,
	}
}

// Option configures a Scheduler.
type Option interface {
	ApplyScheduler(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) ApplyScheduler(c *Config) { f(c) }

// TickInterval sets how often tasks are evaluated.
func TickInterval(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		if d > 0 {
			c.TickInterval = d
		}
	})
}

// StaleAfter sets how long a task may stay running before Start releases it.
func StaleAfter(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		if d > 0 {
			c.StaleAfter = d
		}
	})
}

// WithClock injects the time source.
func WithClock(clock core.Clock) Option {
	return optionFunc(func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	})
}

// WithLocation sets the zone used to read schedule dates and times.
func WithLocation(loc *time.Location) Option {
	return optionFunc(func(c *Config) {
		if loc != nil {
			c.Location = loc
		}
	})
}

// WithLocker adds a cross-process lock around each dispatch. ttl should exceed
// the longest pipeline deadline.
func WithLocker(l Locker, ttl time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.Locker = l
		if ttl > 0 {
			c.LockTTL = ttl
		}
	})
}

// WithSyncLog records every run in the sync log.
func WithSyncLog(r *synclog.Recorder) Option {
	return optionFunc(func(c *Config) {
		c.SyncLog = r
	})
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return optionFunc(func(c *Config) {
		c.Logger = l
	})
}

// WithStorageRetry sets the retry policy for task store writes.
func WithStorageRetry(r RetryConfig) Option {
	return optionFunc(func(c *Config) {
		c.StorageRetry = r
	})
}
