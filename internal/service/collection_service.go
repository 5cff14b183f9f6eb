package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"console/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Collection Service: collection metadata and schema builder
// ─────────────────────────────────────────────────────────────

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// CollectionService manages collections per app.
type CollectionService struct {
	store   domain.CollectionStore
	records domain.RecordStore
	emitter EventEmitter
}

// NewCollectionService creates a CollectionService.
func NewCollectionService(store domain.CollectionStore, records domain.RecordStore, emitter EventEmitter) *CollectionService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &CollectionService{store: store, records: records, emitter: emitter}
}

// CollectionInput is the create/update payload. Nil capability flags
// default to true on create and stay unchanged on update.
type CollectionInput struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"displayName"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	APIEndpoint string        `json:"apiEndpoint"`
	Schema      domain.Schema `json:"schema"`
	CanCreate   *bool         `json:"canCreate,omitempty"`
	CanUpdate   *bool         `json:"canUpdate,omitempty"`
	CanDelete   *bool         `json:"canDelete,omitempty"`
}

// CollectionStats summarises a collection's contents.
type CollectionStats struct {
	RecordCount  int       `json:"recordCount"`
	LastModified time.Time `json:"lastModified"`
}

func (s *CollectionService) Create(ctx context.Context, app domain.AppContext, in CollectionInput) (*domain.DynamicCollection, error) {
	problems := validateName(in.Name)
	problems = append(problems, ValidateSchema(in.Schema)...)
	if len(problems) == 0 {
		if _, err := s.store.GetCollectionByName(ctx, app.AppID, in.Name); err == nil {
			problems = append(problems, fmt.Sprintf("collection %q already exists", in.Name))
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if err := validationErr(problems); err != nil {
		return nil, err
	}

	c := &domain.DynamicCollection{
		ID:          uuid.New().String(),
		AppID:       app.AppID,
		Name:        in.Name,
		DisplayName: in.DisplayName,
		Description: in.Description,
		Category:    in.Category,
		APIEndpoint: in.APIEndpoint,
		Schema:      in.Schema,
		CanCreate:   boolOr(in.CanCreate, true),
		CanUpdate:   boolOr(in.CanUpdate, true),
		CanDelete:   boolOr(in.CanDelete, true),
	}
	applyCollectionDefaults(c)

	if err := s.store.CreateCollection(ctx, c); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.emitter.Emit(ctx, EventCollectionChanged, CollectionEvent{AppID: app.AppID, Collection: c.Name, Action: "created"})
	return c, nil
}

// Get looks a collection up by its name within the app.
func (s *CollectionService) Get(ctx context.Context, app domain.AppContext, name string) (*domain.DynamicCollection, error) {
	return s.store.GetCollectionByName(ctx, app.AppID, name)
}

// GetByID looks a collection up by id, scoped to the app.
func (s *CollectionService) GetByID(ctx context.Context, app domain.AppContext, id string) (*domain.DynamicCollection, error) {
	c, err := s.store.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AppID != app.AppID {
		return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (s *CollectionService) List(ctx context.Context, app domain.AppContext) ([]domain.DynamicCollection, error) {
	return s.store.ListCollections(ctx, app.AppID)
}

// Update replaces a collection's metadata and schema. The name may change
// as long as it stays unique within the app.
func (s *CollectionService) Update(ctx context.Context, app domain.AppContext, name string, in CollectionInput) (*domain.DynamicCollection, error) {
	c, err := s.Get(ctx, app, name)
	if err != nil {
		return nil, err
	}

	if in.Name == "" {
		in.Name = c.Name
	}
	problems := validateName(in.Name)
	problems = append(problems, ValidateSchema(in.Schema)...)
	if in.Name != c.Name && len(problems) == 0 {
		if _, err := s.store.GetCollectionByName(ctx, app.AppID, in.Name); err == nil {
			problems = append(problems, fmt.Sprintf("collection %q already exists", in.Name))
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if err := validationErr(problems); err != nil {
		return nil, err
	}

	c.Name = in.Name
	c.DisplayName = in.DisplayName
	c.Description = in.Description
	c.Category = in.Category
	c.APIEndpoint = in.APIEndpoint
	c.Schema = in.Schema
	c.CanCreate = boolOr(in.CanCreate, c.CanCreate)
	c.CanUpdate = boolOr(in.CanUpdate, c.CanUpdate)
	c.CanDelete = boolOr(in.CanDelete, c.CanDelete)
	applyCollectionDefaults(c)

	if err := s.store.UpdateCollection(ctx, c); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}
	s.emitter.Emit(ctx, EventCollectionChanged, CollectionEvent{AppID: app.AppID, Collection: c.Name, Action: "updated"})
	return c, nil
}

// Delete removes a collection and all of its records.
func (s *CollectionService) Delete(ctx context.Context, app domain.AppContext, name string) error {
	c, err := s.Get(ctx, app, name)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCollection(ctx, c.ID); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	s.emitter.Emit(ctx, EventCollectionChanged, CollectionEvent{AppID: app.AppID, Collection: c.Name, Action: "deleted"})
	return nil
}

func (s *CollectionService) Stats(ctx context.Context, app domain.AppContext, name string) (*CollectionStats, error) {
	c, err := s.Get(ctx, app, name)
	if err != nil {
		return nil, err
	}
	count, last, err := s.records.CountRecords(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if last.IsZero() {
		last = c.UpdatedAt
	}
	return &CollectionStats{RecordCount: count, LastModified: last}, nil
}

// ── Schema builder validation ─────────────────────────────

// ValidateSchema checks a schema before it is saved and returns every
// problem found. Cross-field constraints such as min <= max are not checked.
func ValidateSchema(schema domain.Schema) []string {
	var problems []string
	seen := make(map[string]bool, len(schema))
	for i, f := range schema {
		at := fmt.Sprintf("field %d", i+1)
		if f.Key != "" {
			at = fmt.Sprintf("field %q", f.Key)
		}
		switch {
		case f.Key == "":
			problems = append(problems, at+": key is required")
		case !domain.ValidKey(f.Key):
			problems = append(problems, at+": key must start with a letter or underscore and contain only letters, digits and underscores")
		case f.Key == "id":
			problems = append(problems, at+": key \"id\" is reserved")
		case seen[f.Key]:
			problems = append(problems, at+": duplicate key")
		}
		seen[f.Key] = true

		if strings.TrimSpace(f.Label) == "" {
			problems = append(problems, at+": label is required")
		}
		if !f.Type.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown type %q", at, f.Type))
		}
		if f.Type.HasOptions() && len(f.Options) == 0 {
			problems = append(problems, at+": at least one option is required")
		}
	}
	return problems
}

func validateName(name string) []string {
	switch {
	case name == "":
		return []string{"name is required"}
	case !namePattern.MatchString(name):
		return []string{"name must be lowercase letters, digits, '-' or '_'"}
	}
	return nil
}

func applyCollectionDefaults(c *domain.DynamicCollection) {
	if c.DisplayName == "" {
		c.DisplayName = c.Name
	}
	if c.APIEndpoint == "" {
		c.APIEndpoint = fmt.Sprintf("/api/apps/%s/collections/%s/records", c.AppID, c.Name)
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
