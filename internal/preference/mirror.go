package preference

import (
	"context"
	"errors"
	"log"
)

// Mirror pairs a fast local store with an authoritative remote one.
//
// Save writes Local first so the caller sees the change immediately, then
// tries Remote; a Remote failure is logged and not returned. Get prefers
// Remote and copies what it finds into Local; on any Remote error it
// answers from Local.
type Mirror struct {
	Local  Store
	Remote Store
}

func (m *Mirror) Get(ctx context.Context, key string) (string, error) {
	if m.Remote != nil {
		v, err := m.Remote.Get(ctx, key)
		if err == nil {
			if lerr := m.Local.Save(ctx, key, v); lerr != nil {
				log.Printf("[preference] mirror %s locally: %v", key, lerr)
			}
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[preference] remote get %s: %v", key, err)
		}
	}
	return m.Local.Get(ctx, key)
}

func (m *Mirror) Save(ctx context.Context, key, value string) error {
	if err := m.Local.Save(ctx, key, value); err != nil {
		return err
	}
	if m.Remote != nil {
		if err := m.Remote.Save(ctx, key, value); err != nil {
			log.Printf("[preference] remote save %s: %v", key, err)
		}
	}
	return nil
}
