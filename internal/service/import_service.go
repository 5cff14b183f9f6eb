package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"console/internal/domain"
	"console/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Import Service: import jobs, scheduling, and file watching
// ─────────────────────────────────────────────────────────────

const (
	runTimeout      = 5 * time.Minute
	discoverTimeout = 30 * time.Second
	watchDebounce   = 500 * time.Millisecond
	previewRows     = 10
	runLogLimit     = 50
)

// ImportStore persists import jobs and their run history.
type ImportStore interface {
	CreateJob(ctx context.Context, job *etl.ImportJob) error
	GetJob(ctx context.Context, id string) (*etl.ImportJob, error)
	UpdateJob(ctx context.Context, job *etl.ImportJob) error
	UpdateJobStatus(ctx context.Context, id, status, errMsg string) error
	DeleteJob(ctx context.Context, id string) error
	ListJobs(ctx context.Context, appID string) ([]etl.ImportJob, error)
	ListTriggeredJobs(ctx context.Context) ([]etl.ImportJob, error)
	CreateRunLog(ctx context.Context, l *etl.RunLog) error
	ListRunLogs(ctx context.Context, jobID string, limit int) ([]etl.RunLog, error)
}

// ImportService manages import jobs that pull rows into collections.
type ImportService struct {
	store       ImportStore
	collections *CollectionService
	engine      *etl.Engine
	emitter     EventEmitter
	guard       RunGuard

	// watcher / cron lifecycle
	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewImportService creates an ImportService writing through the given stores.
func NewImportService(
	store ImportStore,
	collections *CollectionService,
	collectionStore domain.CollectionStore,
	records domain.RecordStore,
	emitter EventEmitter,
) *ImportService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &ImportService{
		store:       store,
		collections: collections,
		engine: &etl.Engine{
			Dest: &etl.CollectionWriter{Collections: collectionStore, Records: records},
		},
		emitter: emitter,
	}
}

// ── Job CRUD ───────────────────────────────────────────────

// ImportJobInput creates an import job. TargetCollection is a collection
// name within the app; with CreateCollection set, a missing target is
// created with an empty schema that the first run fills in.
type ImportJobInput struct {
	Name             string                `json:"name"`
	SourceType       string                `json:"sourceType"`
	SourceConfig     map[string]any        `json:"sourceConfig"`
	Transforms       []etl.TransformConfig `json:"transforms"`
	TargetCollection string                `json:"targetCollection"`
	CreateCollection bool                  `json:"createCollection"`
	SyncMode         string                `json:"syncMode"`
	DedupeKey        string                `json:"dedupeKey"`
	TriggerType      string                `json:"triggerType"`
	TriggerConfig    string                `json:"triggerConfig"`
	Enabled          bool                  `json:"enabled"`
}

func (s *ImportService) CreateJob(ctx context.Context, app domain.AppContext, in ImportJobInput) (*etl.ImportJob, error) {
	if err := validateJobInput(&in); err != nil {
		return nil, err
	}

	target, err := s.collections.Get(ctx, app, in.TargetCollection)
	if errors.Is(err, domain.ErrNotFound) && in.CreateCollection {
		target, err = s.collections.Create(ctx, app, CollectionInput{Name: in.TargetCollection})
	}
	if err != nil {
		return nil, fmt.Errorf("target collection: %w", err)
	}

	job := &etl.ImportJob{
		AppID:              app.AppID,
		Name:               in.Name,
		SourceType:         in.SourceType,
		SourceCfg:          in.SourceConfig,
		Transforms:         in.Transforms,
		TargetCollectionID: target.ID,
		SyncMode:           etl.SyncMode(in.SyncMode),
		DedupeKey:          in.DedupeKey,
		TriggerType:        in.TriggerType,
		TriggerConfig:      in.TriggerConfig,
		Enabled:            in.Enabled,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	if job.TriggerType != etl.TriggerManual {
		s.RestartWatchers(ctx)
	}
	return job, nil
}

// GetJob returns a job of the app.
func (s *ImportService) GetJob(ctx context.Context, app domain.AppContext, id string) (*etl.ImportJob, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.AppID != app.AppID {
		return nil, fmt.Errorf("import job %s: %w", id, domain.ErrNotFound)
	}
	return job, nil
}

func (s *ImportService) ListJobs(ctx context.Context, app domain.AppContext) ([]etl.ImportJob, error) {
	return s.store.ListJobs(ctx, app.AppID)
}

func (s *ImportService) UpdateJob(ctx context.Context, app domain.AppContext, id string, in ImportJobInput) (*etl.ImportJob, error) {
	job, err := s.GetJob(ctx, app, id)
	if err != nil {
		return nil, err
	}
	if err := validateJobInput(&in); err != nil {
		return nil, err
	}
	target, err := s.collections.Get(ctx, app, in.TargetCollection)
	if err != nil {
		return nil, fmt.Errorf("target collection: %w", err)
	}

	job.Name = in.Name
	job.SourceType = in.SourceType
	job.SourceCfg = in.SourceConfig
	job.Transforms = in.Transforms
	job.TargetCollectionID = target.ID
	job.SyncMode = etl.SyncMode(in.SyncMode)
	job.DedupeKey = in.DedupeKey
	job.TriggerType = in.TriggerType
	job.TriggerConfig = in.TriggerConfig
	job.Enabled = in.Enabled

	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}
	s.RestartWatchers(ctx)
	return job, nil
}

func (s *ImportService) DeleteJob(ctx context.Context, app domain.AppContext, id string) error {
	if _, err := s.GetJob(ctx, app, id); err != nil {
		return err
	}
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return err
	}
	s.RestartWatchers(ctx)
	return nil
}

func validateJobInput(in *ImportJobInput) error {
	var problems []string
	if in.Name == "" {
		problems = append(problems, "name is required")
	}
	if _, err := etl.GetSource(in.SourceType); err != nil {
		problems = append(problems, err.Error())
	}
	if in.TargetCollection == "" {
		problems = append(problems, "targetCollection is required")
	}
	if in.SyncMode == "" {
		in.SyncMode = string(etl.SyncReplace)
	}
	if !etl.SyncMode(in.SyncMode).Valid() {
		problems = append(problems, fmt.Sprintf("unknown sync mode %q", in.SyncMode))
	}
	if in.TriggerType == "" {
		in.TriggerType = etl.TriggerManual
	}
	switch in.TriggerType {
	case etl.TriggerManual:
	case etl.TriggerSchedule:
		if _, err := cron.ParseStandard(in.TriggerConfig); err != nil {
			problems = append(problems, fmt.Sprintf("invalid cron expression %q", in.TriggerConfig))
		}
	case etl.TriggerFileWatch:
		if in.TriggerConfig == "" {
			problems = append(problems, "file_watch trigger needs a file path")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown trigger type %q", in.TriggerType))
	}
	if _, err := etl.BuildTransformers(in.Transforms, in.DedupeKey); err != nil {
		problems = append(problems, err.Error())
	}
	return validationErr(problems)
}

// ── Run ────────────────────────────────────────────────────

// RunJob executes a job synchronously, records a run log and emits
// EventImportCompleted when it finishes.
func (s *ImportService) RunJob(ctx context.Context, app domain.AppContext, id string) (*etl.RunResult, error) {
	job, err := s.GetJob(ctx, app, id)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, job)
}

func (s *ImportService) run(ctx context.Context, job *etl.ImportJob) (*etl.RunResult, error) {
	// Prevent concurrent execution of the same job.
	if !s.guard.TryLock(job.ID) {
		return nil, fmt.Errorf("import job %s: %w", job.ID, ErrAlreadyRunning)
	}
	defer s.guard.Unlock(job.ID)

	if err := s.store.UpdateJobStatus(ctx, job.ID, etl.StatusRunning, ""); err != nil {
		log.Printf("[import] mark job %s running: %v", job.ID, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	start := time.Now()
	result, runErr := s.engine.Run(runCtx, job)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	runLog := &etl.RunLog{
		JobID:       job.ID,
		StartedAt:   start,
		FinishedAt:  time.Now(),
		Status:      result.Status,
		RowsRead:    result.RowsRead,
		RowsWritten: result.RowsWritten,
		Error:       errMsg,
	}
	if err := s.store.CreateRunLog(ctx, runLog); err != nil {
		log.Printf("[import] save run log for job %s: %v", job.ID, err)
	}
	if err := s.store.UpdateJobStatus(ctx, job.ID, result.Status, errMsg); err != nil {
		log.Printf("[import] save status for job %s: %v", job.ID, err)
	}

	s.emitter.Emit(ctx, EventImportCompleted, ImportEvent{AppID: job.AppID, JobID: job.ID, Result: result})
	if result.Status == etl.StatusSuccess {
		log.Printf("[import] job %s: read %d, wrote %d in %s", job.ID, result.RowsRead, result.RowsWritten, result.Duration)
	}
	return result, runErr
}

// Running returns the ids of jobs currently running.
func (s *ImportService) Running() []string {
	return s.guard.Running()
}

// ListSources returns the available source descriptors.
func (s *ImportService) ListSources() []etl.SourceSpec {
	return etl.ListSources()
}

// ListRunLogs returns the most recent run logs of a job.
func (s *ImportService) ListRunLogs(ctx context.Context, app domain.AppContext, jobID string) ([]etl.RunLog, error) {
	if _, err := s.GetJob(ctx, app, jobID); err != nil {
		return nil, err
	}
	return s.store.ListRunLogs(ctx, jobID, runLogLimit)
}

// ── Discovery ─────────────────────────────────────────────

// DiscoverResult proposes a collection schema for a source, with sample rows.
type DiscoverResult struct {
	Schema  domain.Schema   `json:"schema"`
	Records []domain.Record `json:"records"`
}

// Discover reads a few rows from a source and proposes schema fields for
// them. Nothing is written.
func (s *ImportService) Discover(ctx context.Context, sourceType string, cfg etl.SourceConfig) (*DiscoverResult, error) {
	discCtx, cancel := context.WithTimeout(ctx, discoverTimeout)
	defer cancel()

	records, schema, err := s.engine.Preview(discCtx, sourceType, cfg, previewRows)
	if err != nil {
		return nil, err
	}
	out := &DiscoverResult{Schema: domain.Schema{}, Records: make([]domain.Record, len(records))}
	for i, r := range records {
		out.Records[i] = r.Data
	}
	if len(records) > 0 {
		schema = etl.InferSchema(records)
	}
	if schema != nil {
		out.Schema = schema.SchemaFields()
	}
	return out, nil
}

// ── Watchers (cron + file_watch) ──────────────────────────

// RestartWatchers tears down the current watcher/cron and rebuilds them
// from the enabled triggered jobs of every app.
func (s *ImportService) RestartWatchers(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatchers()

	jobs, err := s.store.ListTriggeredJobs(ctx)
	if err != nil {
		log.Printf("[import] list triggered jobs: %v", err)
		return
	}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.watchCancel = cancel

	// ── Cron jobs ──
	c := cron.New()
	scheduled := 0
	for _, j := range jobs {
		if j.TriggerType != etl.TriggerSchedule || j.TriggerConfig == "" {
			continue
		}
		job := j
		if _, err := c.AddFunc(job.TriggerConfig, func() {
			log.Printf("[import] cron: running job %s", job.ID)
			if _, err := s.run(watchCtx, &job); err != nil {
				log.Printf("[import] cron: job %s failed: %v", job.ID, err)
			}
		}); err != nil {
			log.Printf("[import] cron: invalid expression %q for job %s: %v", job.TriggerConfig, job.ID, err)
			continue
		}
		scheduled++
	}
	if scheduled > 0 {
		c.Start()
		s.cronSched = c
		log.Printf("[import] cron: scheduled %d job(s)", scheduled)
	}

	// ── File watchers ──
	pathToJob := make(map[string]etl.ImportJob)
	for _, j := range jobs {
		if j.TriggerType != etl.TriggerFileWatch || j.TriggerConfig == "" {
			continue
		}
		absPath, err := filepath.Abs(j.TriggerConfig)
		if err != nil {
			log.Printf("[import] watcher: bad path %q: %v", j.TriggerConfig, err)
			continue
		}
		pathToJob[absPath] = j
	}
	if len(pathToJob) == 0 {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[import] watcher: create: %v", err)
		return
	}
	s.watcher = watcher

	// Watch directories so editors that replace files are still seen.
	watchedDirs := make(map[string]bool)
	for absPath := range pathToJob {
		dir := filepath.Dir(absPath)
		if watchedDirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			log.Printf("[import] watcher: watch dir %q: %v", dir, err)
			continue
		}
		watchedDirs[dir] = true
	}

	go s.watchLoop(watchCtx, watcher, pathToJob)
	log.Printf("[import] watcher: watching %d file(s)", len(pathToJob))
}

func (s *ImportService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, pathToJob map[string]etl.ImportJob) {
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			job, ok := pathToJob[absPath]
			if !ok {
				continue
			}
			if t, exists := timers[job.ID]; exists {
				t.Stop()
			}
			timers[job.ID] = time.AfterFunc(watchDebounce, func() {
				log.Printf("[import] watcher: %q changed, running job %s", absPath, job.ID)
				if _, err := s.run(ctx, &job); err != nil {
					log.Printf("[import] watcher: job %s failed: %v", job.ID, err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[import] watcher: %v", err)
		}
	}
}

// WaitRunning blocks until all running jobs finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *ImportService) WaitRunning(ctx context.Context) {
	s.guard.WaitAll(ctx)
}

// Stop tears down all watchers and schedulers.
func (s *ImportService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatchers()
}

func (s *ImportService) stopWatchers() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
