package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"console/internal/domain"
)

// SettingsStore is a key/value table keyed by (scope, key).
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a new SettingsStore.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) GetSetting(ctx context.Context, scope, key string) (*domain.Setting, error) {
	st := &domain.Setting{}
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT scope, key, value, updated_at FROM settings WHERE scope = ? AND key = ?`, scope, key,
	).Scan(&st.Scope, &st.Key, &st.Value, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %s/%s: %w", scope, key, domain.ErrNotFound)
	}
	return st, err
}

func (s *SettingsStore) ListSettings(ctx context.Context, scope string) ([]domain.Setting, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT scope, key, value, updated_at FROM settings WHERE scope = ? ORDER BY key ASC`, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Setting{}
	for rows.Next() {
		var st domain.Setting
		if err := rows.Scan(&st.Scope, &st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

func (s *SettingsStore) UpsertSetting(ctx context.Context, st *domain.Setting) error {
	st.UpdatedAt = time.Now()
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO settings (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		st.Scope, st.Key, st.Value, st.UpdatedAt,
	)
	return err
}

func (s *SettingsStore) DeleteSetting(ctx context.Context, scope, key string) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM settings WHERE scope = ? AND key = ?`, scope, key)
	if err != nil {
		return err
	}
	return requireAffected(res, "setting", scope+"/"+key)
}

var _ domain.SettingsStore = (*SettingsStore)(nil)
