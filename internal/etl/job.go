package etl

import "time"

// Trigger types for import jobs.
const (
	TriggerManual    = "manual"
	TriggerSchedule  = "schedule"   // TriggerConfig is a cron expression
	TriggerFileWatch = "file_watch" // TriggerConfig is a file path
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusRunning = "running"
)

// ImportJob pulls rows from a source into one collection.
type ImportJob struct {
	ID                 string            `json:"id"`
	AppID              string            `json:"appId"`
	Name               string            `json:"name"`
	SourceType         string            `json:"sourceType"`
	SourceCfg          SourceConfig      `json:"sourceConfig"`
	Transforms         []TransformConfig `json:"transforms,omitempty"`
	TargetCollectionID string            `json:"targetCollectionId"`
	SyncMode           SyncMode          `json:"syncMode"`
	DedupeKey          string            `json:"dedupeKey,omitempty"`
	TriggerType        string            `json:"triggerType"`
	TriggerConfig      string            `json:"triggerConfig"`
	Enabled            bool              `json:"enabled"`
	LastRunAt          *time.Time        `json:"lastRunAt,omitempty"`
	LastStatus         string            `json:"lastStatus"`
	LastError          string            `json:"lastError"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// TransformConfig is a declarative transform definition, stored as JSON.
type TransformConfig struct {
	Type   string         `json:"type"` // filter | rename | select | compute | sort | limit | type_cast
	Config map[string]any `json:"config"`
}

// RunResult is the outcome of one import run.
type RunResult struct {
	JobID       string        `json:"jobId"`
	Status      string        `json:"status"`
	RowsRead    int           `json:"rowsRead"`
	RowsWritten int           `json:"rowsWritten"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// RunLog is the persisted history entry of a run.
type RunLog struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Status      string    `json:"status"`
	RowsRead    int       `json:"rowsRead"`
	RowsWritten int       `json:"rowsWritten"`
	Error       string    `json:"error,omitempty"`
}
