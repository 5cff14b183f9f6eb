package domain

import (
	"context"
	"time"
)

// Setting is a single key/value entry. Scope is a user id, or an
// app-level namespace such as "app:<id>".
type Setting struct {
	Scope     string    `json:"scope"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SettingsStore manages key/value settings.
type SettingsStore interface {
	GetSetting(ctx context.Context, scope, key string) (*Setting, error)
	ListSettings(ctx context.Context, scope string) ([]Setting, error)
	UpsertSetting(ctx context.Context, s *Setting) error
	DeleteSetting(ctx context.Context, scope, key string) error
}
