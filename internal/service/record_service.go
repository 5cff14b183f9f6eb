package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"console/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Record Service: record CRUD honouring capability flags
// ─────────────────────────────────────────────────────────────

// RecordService persists records verbatim. The only rule it enforces is
// the collection's canCreate/canUpdate/canDelete flags.
type RecordService struct {
	collections *CollectionService
	store       domain.RecordStore
	emitter     EventEmitter
}

// NewRecordService creates a RecordService.
func NewRecordService(collections *CollectionService, store domain.RecordStore, emitter EventEmitter) *RecordService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &RecordService{collections: collections, store: store, emitter: emitter}
}

// List returns the collection's records flattened with their id.
func (s *RecordService) List(ctx context.Context, app domain.AppContext, collection string) ([]domain.Record, error) {
	c, err := s.collections.Get(ctx, app, collection)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.ListRecords(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, len(stored))
	for i, r := range stored {
		out[i] = r.Flatten()
	}
	return out, nil
}

func (s *RecordService) Get(ctx context.Context, app domain.AppContext, collection, id string) (domain.Record, error) {
	c, err := s.collections.Get(ctx, app, collection)
	if err != nil {
		return nil, err
	}
	r, err := s.record(ctx, c, id)
	if err != nil {
		return nil, err
	}
	return r.Flatten(), nil
}

func (s *RecordService) Create(ctx context.Context, app domain.AppContext, collection string, data domain.Record) (domain.Record, error) {
	c, err := s.collections.Get(ctx, app, collection)
	if err != nil {
		return nil, err
	}
	if !c.CanCreate {
		return nil, fmt.Errorf("create in %s: %w", c.Name, ErrForbidden)
	}
	r := &domain.StoredRecord{
		ID:           uuid.New().String(),
		CollectionID: c.ID,
		Data:         withoutID(data),
	}
	if err := s.store.CreateRecord(ctx, r); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	s.emit(ctx, app, c, r.ID, "created")
	return r.Flatten(), nil
}

// Update replaces the record's data with data.
func (s *RecordService) Update(ctx context.Context, app domain.AppContext, collection, id string, data domain.Record) (domain.Record, error) {
	c, err := s.collections.Get(ctx, app, collection)
	if err != nil {
		return nil, err
	}
	if !c.CanUpdate {
		return nil, fmt.Errorf("update in %s: %w", c.Name, ErrForbidden)
	}
	r, err := s.record(ctx, c, id)
	if err != nil {
		return nil, err
	}
	r.Data = withoutID(data)
	if err := s.store.UpdateRecord(ctx, r); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	s.emit(ctx, app, c, r.ID, "updated")
	return r.Flatten(), nil
}

func (s *RecordService) Delete(ctx context.Context, app domain.AppContext, collection, id string) error {
	c, err := s.collections.Get(ctx, app, collection)
	if err != nil {
		return err
	}
	if !c.CanDelete {
		return fmt.Errorf("delete in %s: %w", c.Name, ErrForbidden)
	}
	if _, err := s.record(ctx, c, id); err != nil {
		return err
	}
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.emit(ctx, app, c, id, "deleted")
	return nil
}

// Duplicate copies a record's data into a new record of the same collection.
func (s *RecordService) Duplicate(ctx context.Context, app domain.AppContext, collection, id string) (domain.Record, error) {
	c, err := s.collections.Get(ctx, app, collection)
	if err != nil {
		return nil, err
	}
	if !c.CanCreate {
		return nil, fmt.Errorf("duplicate in %s: %w", c.Name, ErrForbidden)
	}
	src, err := s.record(ctx, c, id)
	if err != nil {
		return nil, err
	}
	r := &domain.StoredRecord{
		ID:           uuid.New().String(),
		CollectionID: c.ID,
		Data:         withoutID(src.Data),
	}
	if err := s.store.CreateRecord(ctx, r); err != nil {
		return nil, fmt.Errorf("duplicate record: %w", err)
	}
	s.emit(ctx, app, c, r.ID, "created")
	return r.Flatten(), nil
}

// record loads a record and checks that it belongs to c.
func (s *RecordService) record(ctx context.Context, c *domain.DynamicCollection, id string) (*domain.StoredRecord, error) {
	r, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.CollectionID != c.ID {
		return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

func (s *RecordService) emit(ctx context.Context, app domain.AppContext, c *domain.DynamicCollection, id, action string) {
	s.emitter.Emit(ctx, EventRecordChanged, RecordEvent{
		AppID:      app.AppID,
		Collection: c.Name,
		RecordID:   id,
		Action:     action,
	})
}

// withoutID copies data without the "id" key, which belongs to the row.
func withoutID(data domain.Record) domain.Record {
	out := make(domain.Record, len(data))
	for k, v := range data {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}
