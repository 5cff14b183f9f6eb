// Package preference persists small per-user UI preferences such as the
// layout a collection view was last shown in.
package preference

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("preference not found")

// Store reads and writes string preferences by key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string) error
}

// ViewKey is the key a collection's view mode is stored under.
func ViewKey(collection, appID string) string {
	return fmt.Sprintf("collection_view_%s_%s", collection, appID)
}
