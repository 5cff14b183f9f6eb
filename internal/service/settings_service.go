package service

import (
	"context"
	"errors"
	"fmt"

	"console/internal/domain"
	"console/internal/preference"
)

// SettingsService stores per-scope key/value settings. A scope is a user
// id for user settings or "app:<id>" for app-wide preferences.
type SettingsService struct {
	store domain.SettingsStore
}

func NewSettingsService(store domain.SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) Get(ctx context.Context, scope, key string) (*domain.Setting, error) {
	return s.store.GetSetting(ctx, scope, key)
}

func (s *SettingsService) List(ctx context.Context, scope string) ([]domain.Setting, error) {
	return s.store.ListSettings(ctx, scope)
}

func (s *SettingsService) Set(ctx context.Context, scope, key, value string) (*domain.Setting, error) {
	if key == "" {
		return nil, &ValidationError{Problems: []string{"key is required"}}
	}
	st := &domain.Setting{Scope: scope, Key: key, Value: value}
	if err := s.store.UpsertSetting(ctx, st); err != nil {
		return nil, fmt.Errorf("save setting %s: %w", key, err)
	}
	return st, nil
}

func (s *SettingsService) Delete(ctx context.Context, scope, key string) error {
	return s.store.DeleteSetting(ctx, scope, key)
}

// AppScope is the settings scope holding an app's shared preferences.
func AppScope(appID string) string {
	return "app:" + appID
}

// PreferenceStore exposes one scope as a preference.Store.
func (s *SettingsService) PreferenceStore(scope string) preference.Store {
	return &settingsPreferences{svc: s, scope: scope}
}

type settingsPreferences struct {
	svc   *SettingsService
	scope string
}

func (p *settingsPreferences) Get(ctx context.Context, key string) (string, error) {
	st, err := p.svc.Get(ctx, p.scope, key)
	if errors.Is(err, domain.ErrNotFound) {
		return "", preference.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return st.Value, nil
}

func (p *settingsPreferences) Save(ctx context.Context, key, value string) error {
	_, err := p.svc.Set(ctx, p.scope, key, value)
	return err
}
