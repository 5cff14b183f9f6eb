package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"console/internal/domain"
)

// RecordStore implements domain.RecordStore using SQLite.
// Record data is kept verbatim as a JSON object per row.
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) CreateRecord(ctx context.Context, r *domain.StoredRecord) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	// Auto-assign sort_order to end
	if r.SortOrder == 0 {
		var maxOrder sql.NullInt64
		if err := s.db.conn.QueryRowContext(ctx,
			`SELECT MAX(sort_order) FROM records WHERE collection_id = ?`, r.CollectionID,
		).Scan(&maxOrder); err != nil {
			return fmt.Errorf("next sort order: %w", err)
		}
		r.SortOrder = int(maxOrder.Int64) + 1
	}

	dataJSON, err := encodeData(r.Data)
	if err != nil {
		return err
	}
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO records (id, collection_id, data_json, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.CollectionID, dataJSON, r.SortOrder, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *RecordStore) GetRecord(ctx context.Context, id string) (*domain.StoredRecord, error) {
	r, err := scanRecord(s.db.conn.QueryRowContext(ctx,
		`SELECT id, collection_id, data_json, sort_order, created_at, updated_at
		 FROM records WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return r, err
}

func (s *RecordStore) ListRecords(ctx context.Context, collectionID string) ([]domain.StoredRecord, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, collection_id, data_json, sort_order, created_at, updated_at
		 FROM records WHERE collection_id = ? ORDER BY sort_order ASC`, collectionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.StoredRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func (s *RecordStore) UpdateRecord(ctx context.Context, r *domain.StoredRecord) error {
	r.UpdatedAt = time.Now()
	dataJSON, err := encodeData(r.Data)
	if err != nil {
		return err
	}
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE records SET data_json = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		dataJSON, r.SortOrder, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, "record", r.ID)
}

func (s *RecordStore) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "record", id)
}

func (s *RecordStore) DeleteRecordsByCollection(ctx context.Context, collectionID string) error {
	_, err := s.db.conn.ExecContext(ctx, `DELETE FROM records WHERE collection_id = ?`, collectionID)
	return err
}

// CountRecords returns row count and last update time for a collection.
func (s *RecordStore) CountRecords(ctx context.Context, collectionID string) (int, time.Time, error) {
	var count int
	var lastUpdated sql.NullString

	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(updated_at) FROM records WHERE collection_id = ?`, collectionID,
	).Scan(&count, &lastUpdated)
	if err != nil {
		return 0, time.Time{}, err
	}

	var t time.Time
	if lastUpdated.Valid {
		t = parseSQLiteTime(lastUpdated.String)
	}
	return count, t, nil
}

func scanRecord(row rowScanner) (*domain.StoredRecord, error) {
	r := &domain.StoredRecord{}
	var dataJSON string
	if err := row.Scan(&r.ID, &r.CollectionID, &dataJSON, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Data = domain.Record{}
	if err := json.Unmarshal([]byte(dataJSON), &r.Data); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	return r, nil
}

func encodeData(data domain.Record) (string, error) {
	if data == nil {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode record data: %w", err)
	}
	return string(b), nil
}

// parseSQLiteTime parses the text form MAX() returns for a DATETIME column.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var _ domain.RecordStore = (*RecordStore)(nil)
