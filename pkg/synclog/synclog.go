// Package synclog writes the audit trail of pipeline executions.
package synclog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/jdziat/hris-replica/pkg/core"
)

// Recorder opens and closes sync log entries.
type Recorder struct {
	store core.SyncLogStore
	now   func() time.Time
	log   logrus.FieldLogger
}

// NewRecorder creates a Recorder. now defaults to time.Now.
func NewRecorder(store core.SyncLogStore, now func() time.Time, log logrus.FieldLogger) *Recorder {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{store: store, now: now, log: log.WithField("module", "synclog")}
}

// Run is an open log entry.
type Run struct {
	rec   *Recorder
	entry *core.SyncLogEntry
}

// Start writes a started entry for the request.
func (r *Recorder) Start(ctx context.Context, req core.RunRequest) (*Run, error) {
	entry := &core.SyncLogEntry{
		SyncType:    req.TaskID,
		TaskID:      req.TaskID,
		Status:      core.SyncStarted,
		StartedAt:   r.now(),
		TriggeredBy: req.TriggeredBy,
	}
	if req.Range != nil {
		entry.Details = detailsJSON(map[string]any{"range": req.Range.String()})
	}
	if err := r.store.CreateSyncLog(ctx, entry); err != nil {
		return nil, err
	}
	return &Run{rec: r, entry: entry}, nil
}

// ID returns the entry ID.
func (run *Run) ID() string {
	return run.entry.ID
}

// Finish closes the entry as completed or failed depending on runErr.
func (run *Run) Finish(ctx context.Context, result *core.RunResult, runErr error) error {
	now := run.rec.now()
	e := run.entry
	e.CompletedAt = &now
	e.DurationMs = now.Sub(e.StartedAt).Milliseconds()
	e.Status = core.SyncCompleted
	if runErr != nil {
		e.Status = core.SyncFailed
		e.ErrorMessage = runErr.Error()
	}
	details := map[string]any{}
	if len(e.Details) > 0 {
		_ = json.Unmarshal(e.Details, &details)
	}
	if result != nil {
		e.RecordsSynced = result.Processed
		e.RecordsAdded = result.Inserted
		e.RecordsUpdated = result.Updated
		e.RecordsSkipped = result.Skipped
		e.RecordsFailed = result.Failed
		for k, v := range result.Details {
			details[k] = v
		}
	}
	if len(details) > 0 {
		e.Details = detailsJSON(details)
	}
	if err := run.rec.store.CompleteSyncLog(ctx, e); err != nil {
		run.rec.log.WithError(err).WithField("sync_log_id", e.ID).Error("failed to complete sync log")
		return err
	}
	return nil
}

func detailsJSON(v map[string]any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
