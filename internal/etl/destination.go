package etl

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"console/internal/domain"
)

// ── Destination ────────────────────────────────────────────

// SyncMode determines how records are written to the destination.
type SyncMode string

const (
	SyncReplace SyncMode = "replace" // delete existing records, insert fresh
	SyncAppend  SyncMode = "append"  // add records, keep existing ones
)

// Valid reports whether m is a known mode.
func (m SyncMode) Valid() bool {
	return m == SyncReplace || m == SyncAppend
}

// Destination writes records to a target.
type Destination interface {
	Write(ctx context.Context, targetID string, schema *Schema, records []Record, mode SyncMode) (int, error)
}

// CollectionWriter writes imported records into a collection. Columns the
// collection schema lacks are appended to it with their inferred types;
// existing schema fields are never removed or retyped.
type CollectionWriter struct {
	Collections domain.CollectionStore
	Records     domain.RecordStore
}

func (w *CollectionWriter) Write(ctx context.Context, collectionID string, schema *Schema, records []Record, mode SyncMode) (int, error) {
	coll, err := w.Collections.GetCollection(ctx, collectionID)
	if err != nil {
		return 0, fmt.Errorf("target collection: %w", err)
	}

	if schema != nil {
		if merged, changed := MergeSchema(coll.Schema, schema.SchemaFields()); changed {
			coll.Schema = merged
			if err := w.Collections.UpdateCollection(ctx, coll); err != nil {
				return 0, fmt.Errorf("extend schema: %w", err)
			}
		}
	}

	if mode == SyncReplace {
		if err := w.Records.DeleteRecordsByCollection(ctx, collectionID); err != nil {
			return 0, fmt.Errorf("clear target: %w", err)
		}
	}

	written := 0
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		r := &domain.StoredRecord{
			ID:           uuid.New().String(),
			CollectionID: collectionID,
			Data:         domain.Record(rec.Data),
		}
		if mode == SyncReplace {
			r.SortOrder = i + 1
		}
		if err := w.Records.CreateRecord(ctx, r); err != nil {
			return written, fmt.Errorf("create record %d: %w", i, err)
		}
		written++
	}
	return written, nil
}

// MergeSchema appends proposed fields whose keys are missing from current.
// Keys that are not valid field keys are skipped; their values are still
// stored and show up as extra fields.
func MergeSchema(current, proposed domain.Schema) (domain.Schema, bool) {
	merged := append(domain.Schema(nil), current...)
	changed := false
	for _, f := range proposed {
		if !domain.ValidKey(f.Key) {
			continue
		}
		if _, ok := merged.Field(f.Key); ok {
			continue
		}
		merged = append(merged, f)
		changed = true
	}
	return merged, changed
}
