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

// CollectionStore implements domain.CollectionStore using SQLite.
type CollectionStore struct {
	db *DB
}

// NewCollectionStore creates a new CollectionStore.
func NewCollectionStore(db *DB) *CollectionStore {
	return &CollectionStore{db: db}
}

const collectionColumns = `id, app_id, name, display_name, description, schema_json,
	api_endpoint, category, can_create, can_update, can_delete, created_at, updated_at`

func (s *CollectionStore) CreateCollection(ctx context.Context, c *domain.DynamicCollection) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	schemaJSON, err := json.Marshal(schemaOrEmpty(c.Schema))
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO collections (`+collectionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AppID, c.Name, c.DisplayName, c.Description, string(schemaJSON),
		c.APIEndpoint, c.Category, c.CanCreate, c.CanUpdate, c.CanDelete,
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (s *CollectionStore) GetCollection(ctx context.Context, id string) (*domain.DynamicCollection, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return c, err
}

func (s *CollectionStore) GetCollectionByName(ctx context.Context, appID, name string) (*domain.DynamicCollection, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE app_id = ? AND name = ?`, appID, name)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %q in app %q: %w", name, appID, domain.ErrNotFound)
	}
	return c, err
}

func (s *CollectionStore) ListCollections(ctx context.Context, appID string) ([]domain.DynamicCollection, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE app_id = ?
		 ORDER BY category ASC, name ASC`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DynamicCollection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (s *CollectionStore) UpdateCollection(ctx context.Context, c *domain.DynamicCollection) error {
	c.UpdatedAt = time.Now()
	schemaJSON, err := json.Marshal(schemaOrEmpty(c.Schema))
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE collections SET name = ?, display_name = ?, description = ?, schema_json = ?,
		 api_endpoint = ?, category = ?, can_create = ?, can_update = ?, can_delete = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.DisplayName, c.Description, string(schemaJSON),
		c.APIEndpoint, c.Category, c.CanCreate, c.CanUpdate, c.CanDelete, c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, "collection", c.ID)
}

// DeleteCollection removes a collection together with all of its records.
func (s *CollectionStore) DeleteCollection(ctx context.Context, id string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "collection", id); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (*domain.DynamicCollection, error) {
	c := &domain.DynamicCollection{}
	var schemaJSON string
	if err := row.Scan(
		&c.ID, &c.AppID, &c.Name, &c.DisplayName, &c.Description, &schemaJSON,
		&c.APIEndpoint, &c.Category, &c.CanCreate, &c.CanUpdate, &c.CanDelete,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(schemaJSON), &c.Schema); err != nil {
		return nil, fmt.Errorf("decode schema of collection %s: %w", c.ID, err)
	}
	return c, nil
}

func schemaOrEmpty(s domain.Schema) domain.Schema {
	if s == nil {
		return domain.Schema{}
	}
	return s
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

var _ domain.CollectionStore = (*CollectionStore)(nil)
