package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"console/internal/domain"
	"console/internal/etl"

	"github.com/google/uuid"
)

// ImportStore persists import jobs and their run logs.
type ImportStore struct {
	db *DB
}

// NewImportStore creates a new ImportStore.
func NewImportStore(db *DB) *ImportStore {
	return &ImportStore{db: db}
}

const importJobColumns = `id, app_id, name, source_type, source_config, transforms, target_collection_id,
	sync_mode, dedupe_key, trigger_type, trigger_config, enabled,
	last_run_at, last_status, last_error, created_at, updated_at`

// ── Import job CRUD ────────────────────────────────────────

func (s *ImportStore) CreateJob(ctx context.Context, job *etl.ImportJob) error {
	now := time.Now()
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.CreatedAt = now
	job.UpdatedAt = now

	srcCfg, transforms, err := encodeJobConfig(job)
	if err != nil {
		return err
	}
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO import_jobs (id, app_id, name, source_type, source_config, transforms,
		 target_collection_id, sync_mode, dedupe_key, trigger_type, trigger_config, enabled,
		 created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.AppID, job.Name, job.SourceType, srcCfg, transforms,
		job.TargetCollectionID, job.SyncMode, job.DedupeKey,
		job.TriggerType, job.TriggerConfig, job.Enabled,
		job.CreatedAt, job.UpdatedAt,
	)
	return err
}

func (s *ImportStore) GetJob(ctx context.Context, id string) (*etl.ImportJob, error) {
	job, err := scanJob(s.db.conn.QueryRowContext(ctx,
		`SELECT `+importJobColumns+` FROM import_jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import job %s: %w", id, domain.ErrNotFound)
	}
	return job, err
}

func (s *ImportStore) UpdateJob(ctx context.Context, job *etl.ImportJob) error {
	job.UpdatedAt = time.Now()
	srcCfg, transforms, err := encodeJobConfig(job)
	if err != nil {
		return err
	}
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE import_jobs SET name = ?, source_type = ?, source_config = ?, transforms = ?,
		 target_collection_id = ?, sync_mode = ?, dedupe_key = ?, trigger_type = ?, trigger_config = ?,
		 enabled = ?, updated_at = ? WHERE id = ?`,
		job.Name, job.SourceType, srcCfg, transforms,
		job.TargetCollectionID, job.SyncMode, job.DedupeKey,
		job.TriggerType, job.TriggerConfig, job.Enabled,
		job.UpdatedAt, job.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, "import job", job.ID)
}

// UpdateJobStatus records the outcome of the latest run.
func (s *ImportStore) UpdateJobStatus(ctx context.Context, id, status, errMsg string) error {
	now := time.Now()
	_, err := s.db.conn.ExecContext(ctx,
		`UPDATE import_jobs SET last_run_at = ?, last_status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		now, status, errMsg, now, id,
	)
	return err
}

func (s *ImportStore) DeleteJob(ctx context.Context, id string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM import_run_logs WHERE job_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM import_jobs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "import job", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListJobs returns the jobs of one app, oldest first.
func (s *ImportStore) ListJobs(ctx context.Context, appID string) ([]etl.ImportJob, error) {
	return s.queryJobs(ctx,
		`SELECT `+importJobColumns+` FROM import_jobs WHERE app_id = ? ORDER BY created_at ASC`, appID)
}

// ListTriggeredJobs returns enabled jobs with a schedule or file-watch trigger, across all apps.
func (s *ImportStore) ListTriggeredJobs(ctx context.Context) ([]etl.ImportJob, error) {
	return s.queryJobs(ctx,
		`SELECT `+importJobColumns+` FROM import_jobs
		 WHERE enabled = 1 AND trigger_type IN (?, ?) ORDER BY created_at ASC`,
		etl.TriggerSchedule, etl.TriggerFileWatch)
}

func (s *ImportStore) queryJobs(ctx context.Context, query string, args ...any) ([]etl.ImportJob, error) {
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []etl.ImportJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func scanJob(row rowScanner) (*etl.ImportJob, error) {
	job := &etl.ImportJob{}
	var srcCfg, transforms string
	var lastRun sql.NullTime
	if err := row.Scan(
		&job.ID, &job.AppID, &job.Name, &job.SourceType, &srcCfg, &transforms,
		&job.TargetCollectionID, &job.SyncMode, &job.DedupeKey,
		&job.TriggerType, &job.TriggerConfig, &job.Enabled,
		&lastRun, &job.LastStatus, &job.LastError,
		&job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastRun.Valid {
		job.LastRunAt = &lastRun.Time
	}
	if err := json.Unmarshal([]byte(srcCfg), &job.SourceCfg); err != nil {
		return nil, fmt.Errorf("decode source config of job %s: %w", job.ID, err)
	}
	if err := json.Unmarshal([]byte(transforms), &job.Transforms); err != nil {
		return nil, fmt.Errorf("decode transforms of job %s: %w", job.ID, err)
	}
	return job, nil
}

func encodeJobConfig(job *etl.ImportJob) (string, string, error) {
	srcCfg := job.SourceCfg
	if srcCfg == nil {
		srcCfg = etl.SourceConfig{}
	}
	cfgJSON, err := json.Marshal(srcCfg)
	if err != nil {
		return "", "", fmt.Errorf("encode source config: %w", err)
	}
	transforms := job.Transforms
	if transforms == nil {
		transforms = []etl.TransformConfig{}
	}
	transformsJSON, err := json.Marshal(transforms)
	if err != nil {
		return "", "", fmt.Errorf("encode transforms: %w", err)
	}
	return string(cfgJSON), string(transformsJSON), nil
}

// ── Run logs ───────────────────────────────────────────────

func (s *ImportStore) CreateRunLog(ctx context.Context, l *etl.RunLog) error {
	l.ID = uuid.New().String()
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO import_run_logs (id, job_id, started_at, finished_at, status, rows_read, rows_written, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.JobID, l.StartedAt, l.FinishedAt, l.Status, l.RowsRead, l.RowsWritten, l.Error,
	)
	return err
}

// ListRunLogs returns the most recent runs of a job, newest first.
func (s *ImportStore) ListRunLogs(ctx context.Context, jobID string, limit int) ([]etl.RunLog, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, job_id, started_at, finished_at, status, rows_read, rows_written, error
		 FROM import_run_logs WHERE job_id = ? ORDER BY started_at DESC LIMIT ?`,
		jobID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []etl.RunLog{}
	for rows.Next() {
		var l etl.RunLog
		if err := rows.Scan(&l.ID, &l.JobID, &l.StartedAt, &l.FinishedAt, &l.Status, &l.RowsRead, &l.RowsWritten, &l.Error); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
