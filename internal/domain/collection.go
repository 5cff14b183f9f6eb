package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Record is an untyped key/value map matching a collection's schema.
type Record map[string]any

// AppContext identifies the application (tenant) and user a request acts for.
// It is passed explicitly to services, forms and views.
type AppContext struct {
	AppID  string `json:"appId"`
	UserID string `json:"userId"`
}

// DynamicCollection is the metadata of a user-defined, schema-typed collection.
type DynamicCollection struct {
	ID          string    `json:"id"`
	AppID       string    `json:"appId"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description,omitempty"`
	Schema      Schema    `json:"schema"`
	APIEndpoint string    `json:"apiEndpoint"`
	Category    string    `json:"category,omitempty"`
	CanCreate   bool      `json:"canCreate"`
	CanUpdate   bool      `json:"canUpdate"`
	CanDelete   bool      `json:"canDelete"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StoredRecord is a record as persisted against a collection.
type StoredRecord struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collectionId"`
	Data         Record    `json:"data"`
	SortOrder    int       `json:"sortOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Flatten returns the record data with the id merged under "id",
// which is the shape list endpoints and views work with.
func (r StoredRecord) Flatten() Record {
	out := make(Record, len(r.Data)+1)
	for k, v := range r.Data {
		out[k] = v
	}
	out["id"] = r.ID
	return out
}

// CollectionStore persists collection metadata.
type CollectionStore interface {
	CreateCollection(ctx context.Context, c *DynamicCollection) error
	GetCollection(ctx context.Context, id string) (*DynamicCollection, error)
	GetCollectionByName(ctx context.Context, appID, name string) (*DynamicCollection, error)
	ListCollections(ctx context.Context, appID string) ([]DynamicCollection, error)
	UpdateCollection(ctx context.Context, c *DynamicCollection) error
	DeleteCollection(ctx context.Context, id string) error
}

// RecordStore persists records.
type RecordStore interface {
	CreateRecord(ctx context.Context, r *StoredRecord) error
	GetRecord(ctx context.Context, id string) (*StoredRecord, error)
	ListRecords(ctx context.Context, collectionID string) ([]StoredRecord, error)
	UpdateRecord(ctx context.Context, r *StoredRecord) error
	DeleteRecord(ctx context.Context, id string) error
	DeleteRecordsByCollection(ctx context.Context, collectionID string) error
	CountRecords(ctx context.Context, collectionID string) (int, time.Time, error)
}
