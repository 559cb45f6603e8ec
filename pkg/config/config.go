// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration of the sync service.
type Config struct {
	DBDriver       string
	DBDSN          string
	PunchDBDriver  string
	PunchDBDSN     string
	DBMaxOpenConns int
	DBMaxIdleConns int

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	HRISBaseURL         string
	HRISUsername        string
	HRISPassword        string
	HRISRateLimitPerMin int

	SchedulerTick          time.Duration
	PipelineTimeout        time.Duration
	StaleRunningAfter      time.Duration
	AttendanceLookbackDays int
	Timezone               string
	ScheduleSeedFile       string

	LogLevel string
	LogFile  string
}

// Load reads the given env files (".env" when none are named) and the
// process environment. Missing files are ignored; variables already set in
// the environment win.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBDSN:          getEnv("DB_DSN", "hris-replica.db"),
		PunchDBDriver:  os.Getenv("PUNCH_DB_DRIVER"),
		PunchDBDSN:     os.Getenv("PUNCH_DB_DSN"),
		DBMaxOpenConns: intFromEnv("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: intFromEnv("DB_MAX_IDLE_CONNS", 10),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       intFromEnv("REDIS_DB", 0),

		HRISBaseURL:         strings.TrimRight(os.Getenv("HRIS_BASE_URL"), "/"),
		HRISUsername:        os.Getenv("HRIS_USERNAME"),
		HRISPassword:        os.Getenv("HRIS_PASSWORD"),
		HRISRateLimitPerMin: intFromEnv("HRIS_RATE_LIMIT_PER_MIN", 60),

		SchedulerTick:          durationFromEnv("SCHEDULER_TICK", 30*time.Second),
		PipelineTimeout:        durationFromEnv("PIPELINE_TIMEOUT", 30*time.Minute),
		StaleRunningAfter:      durationFromEnv("STALE_RUNNING_AFTER", time.Hour),
		AttendanceLookbackDays: intFromEnv("ATTENDANCE_LOOKBACK_DAYS", 1),
		Timezone:               getEnv("TIMEZONE", "Local"),
		ScheduleSeedFile:       os.Getenv("SCHEDULE_SEED_FILE"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}
	// Without a dedicated punch database the punches live next to the replica.
	if cfg.PunchDBDSN == "" {
		cfg.PunchDBDriver, cfg.PunchDBDSN = cfg.DBDriver, cfg.DBDSN
	}
	if cfg.PunchDBDriver == "" {
		cfg.PunchDBDriver = cfg.DBDriver
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if c.SchedulerTick <= 0 {
		return fmt.Errorf("config: SCHEDULER_TICK must be positive")
	}
	if c.PipelineTimeout <= 0 {
		return fmt.Errorf("config: PIPELINE_TIMEOUT must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SeparatePunchDB reports whether punches are read from their own database.
func (c *Config) SeparatePunchDB() bool {
	return c.PunchDBDriver != c.DBDriver || c.PunchDBDSN != c.DBDSN
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// durationFromEnv accepts Go durations ("90s") or a bare number of seconds.
func durationFromEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
