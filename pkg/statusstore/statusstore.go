// Package statusstore reads the secondary attendance status documents kept in
// Redis by the time-and-attendance service.
//
// Each day is one hash, attendance:status:<YYYY-MM-DD>, whose fields are
// employee IDs and whose values are JSON documents. The store is best-effort:
// Load never fails, it returns a Result that says whether data was available.
package statusstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jdziat/hris-replica/pkg/core"
)

// SourceName identifies this store in SourceUnavailableError.
const SourceName = "attendance-status"

const keyPrefix = "attendance:status:"

// Key returns the hash key holding the documents of date.
func Key(date string) string {
	return keyPrefix + date
}

// Document is one employee's status for one day. Every field is optional.
type Document struct {
	Status        string           `json:"status,omitempty"`
	WorkingHours  *decimal.Decimal `json:"workingHours,omitempty"`
	OvertimeHours *decimal.Decimal `json:"overtimeHours,omitempty"`
	LateMinutes   *int             `json:"lateMinutes,omitempty"`
	Shift         string           `json:"shift,omitempty"`
}

// Result is the outcome of a Load: either documents or the reason the source
// was unavailable.
type Result struct {
	docs map[core.AttendanceKey]Document
	err  error
}

// Available builds a successful Result.
func Available(docs map[core.AttendanceKey]Document) Result {
	if docs == nil {
		docs = map[core.AttendanceKey]Document{}
	}
	return Result{docs: docs}
}

// Unavailable builds a Result for a source that could not be read.
func Unavailable(err error) Result {
	var sue *core.SourceUnavailableError
	if !errors.As(err, &sue) {
		err = core.SourceUnavailable(SourceName, err)
	}
	return Result{err: err}
}

// Available reports whether the source answered.
func (r Result) Available() bool {
	return r.err == nil
}

// Err returns the SourceUnavailableError, or nil.
func (r Result) Err() error {
	return r.err
}

// Len returns the number of documents loaded.
func (r Result) Len() int {
	return len(r.docs)
}

// Lookup returns the document for key. An unavailable result never has documents.
func (r Result) Lookup(key core.AttendanceKey) (Document, bool) {
	doc, ok := r.docs[key]
	return doc, ok
}

// Loader loads status documents for a date range.
type Loader interface {
	Load(ctx context.Context, r core.DateRange) Result
}

// Store reads documents from Redis.
type Store struct {
	rdb     redis.UniversalClient
	timeout time.Duration
	log     logrus.FieldLogger
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds the whole Load call. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for malformed documents.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates a Store over rdb.
func New(rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{rdb: rdb, timeout: 10 * time.Second, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("module", "statusstore")
	return s
}

// Load reads every day of r. Any Redis error makes the whole result
// unavailable; a malformed document is skipped.
func (s *Store) Load(ctx context.Context, r core.DateRange) Result {
	if s == nil || s.rdb == nil {
		return Unavailable(errors.New("redis not configured"))
	}
	days := r.Days()
	if len(days) == 0 {
		return Available(nil)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(days))
	for i, day := range days {
		cmds[i] = pipe.HGetAll(ctx, Key(day))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Unavailable(err)
	}

	docs := make(map[core.AttendanceKey]Document)
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return Unavailable(err)
		}
		for emp, raw := range fields {
			var doc Document
			if err := json.Unmarshal([]byte(raw), &doc); err != nil {
				s.log.WithFields(logrus.Fields{"date": days[i], "employee_id": emp}).
					WithError(err).Warn("skipping malformed status document")
				continue
			}
			docs[core.AttendanceKey{EmployeeID: emp, Date: days[i]}] = doc
		}
	}
	return Available(docs)
}

// Put writes a document. Used by tests and local seeding tools.
func (s *Store) Put(ctx context.Context, key core.AttendanceKey, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, Key(key.Date), key.EmployeeID, data).Err(); err != nil {
		return fmt.Errorf("statusstore: put %s/%s: %w", key.Date, key.EmployeeID, err)
	}
	return nil
}
