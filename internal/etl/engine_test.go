package etl

import (
	"context"
	"errors"
	"testing"

	"console/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	typ     string
	records []Record
	readErr error
}

func (s *staticSource) Spec() SourceSpec { return SourceSpec{Type: s.typ, Label: s.typ} }

func (s *staticSource) Discover(ctx context.Context, cfg SourceConfig) (*Schema, error) {
	return InferSchema(s.records), nil
}

func (s *staticSource) Read(ctx context.Context, cfg SourceConfig) (<-chan Record, <-chan error) {
	out := make(chan Record)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		for _, r := range s.records {
			data := make(map[string]any, len(r.Data))
			for k, v := range r.Data {
				data[k] = v
			}
			select {
			case out <- Record{Data: data}:
			case <-ctx.Done():
				return
			}
		}
		if s.readErr != nil {
			errCh <- s.readErr
		}
	}()
	return out, errCh
}

type captureDest struct {
	schema  *Schema
	records []Record
	mode    SyncMode
}

func (d *captureDest) Write(ctx context.Context, targetID string, schema *Schema, records []Record, mode SyncMode) (int, error) {
	d.schema, d.records, d.mode = schema, records, mode
	return len(records), nil
}

func people() []Record {
	return []Record{
		{Data: map[string]any{"name": "ada", "age": 36.0, "email": "ada@example.com"}},
		{Data: map[string]any{"name": "grace", "age": 85.0, "email": "grace@example.com"}},
		{Data: map[string]any{"name": "linus", "age": 54.0, "email": "linus@example.com"}},
		{Data: map[string]any{"name": "ada", "age": 36.0, "email": "ada2@example.com"}},
	}
}

func TestEngineRun(t *testing.T) {
	RegisterSource(&staticSource{typ: "test_people", records: people()})
	dest := &captureDest{}
	engine := &Engine{Dest: dest}

	res, err := engine.Run(context.Background(), &ImportJob{
		ID:         "job1",
		SourceType: "test_people",
		SyncMode:   SyncAppend,
		DedupeKey:  "full_name",
		Transforms: []TransformConfig{
			{Type: "filter", Config: map[string]any{"field": "age", "op": "gt", "value": 30}},
			{Type: "rename", Config: map[string]any{"mapping": map[string]any{"name": "full_name"}}},
			{Type: "sort", Config: map[string]any{"field": "age", "direction": "desc"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 4, res.RowsRead)
	assert.Equal(t, 3, res.RowsWritten)
	assert.Equal(t, SyncAppend, dest.mode)
	require.Len(t, dest.records, 3)
	assert.Equal(t, "grace", dest.records[0].Data["full_name"])
	assert.Equal(t, "linus", dest.records[1].Data["full_name"])
	assert.Equal(t, "ada@example.com", dest.records[2].Data["email"])
	assert.Equal(t, []string{"age", "email", "full_name"}, dest.schema.FieldNames())
	assert.Equal(t, domain.FieldEmail, dest.schema.Fields[1].Type)
}

func TestEngineRunReadError(t *testing.T) {
	boom := errors.New("boom")
	RegisterSource(&staticSource{typ: "test_broken", readErr: boom})

	res, err := (&Engine{Dest: &captureDest{}}).Run(context.Background(), &ImportJob{SourceType: "test_broken"})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Error, "read")
}

func TestEngineRunUnknownSource(t *testing.T) {
	res, err := (&Engine{Dest: &captureDest{}}).Run(context.Background(), &ImportJob{SourceType: "nope"})
	assert.Error(t, err)
	assert.Equal(t, StatusError, res.Status)
}

func TestEnginePreview(t *testing.T) {
	RegisterSource(&staticSource{typ: "test_preview", records: people()})

	records, schema, err := (&Engine{}).Preview(context.Background(), "test_preview", nil, 2)

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Len(t, schema.Fields, 3)
}

func TestBuildTransformersRejectsBadConfig(t *testing.T) {
	_, err := BuildTransformers([]TransformConfig{{Type: "limit", Config: map[string]any{"count": 0.0}}}, "")
	assert.Error(t, err)

	_, err = BuildTransformers([]TransformConfig{{Type: "explode"}}, "")
	assert.Error(t, err)
}

func TestTransforms(t *testing.T) {
	ts, err := BuildTransformers([]TransformConfig{
		{Type: "compute", Config: map[string]any{"columns": map[string]any{"label": "{name} ({age})"}}},
		{Type: "type_cast", Config: map[string]any{"field": "age", "castType": "string"}},
		{Type: "select", Config: map[string]any{"fields": []any{"label", "age"}}},
		{Type: "limit", Config: map[string]any{"count": 1.0}},
	}, "")
	require.NoError(t, err)

	first, keep := ApplyTransformers(Record{Data: map[string]any{"name": "ada", "age": 36.0, "x": 1}}, ts)
	assert.True(t, keep)
	assert.Equal(t, map[string]any{"label": "ada (36)", "age": "36"}, first.Data)

	_, keep = ApplyTransformers(Record{Data: map[string]any{"name": "bob", "age": 1.0}}, ts)
	assert.False(t, keep, "limit should drop the second record")
}

func TestMergeSchema(t *testing.T) {
	current := domain.Schema{{Key: "title", Label: "Title", Type: domain.FieldText}}
	proposed := domain.Schema{
		{Key: "title", Label: "Title", Type: domain.FieldTextarea},
		{Key: "views", Label: "Views", Type: domain.FieldNumber},
		{Key: "bad key", Label: "Bad", Type: domain.FieldText},
	}

	merged, changed := MergeSchema(current, proposed)

	assert.True(t, changed)
	assert.Equal(t, []string{"title", "views"}, merged.Keys())
	assert.Equal(t, domain.FieldText, merged[0].Type)

	_, changed = MergeSchema(merged, proposed[:2])
	assert.False(t, changed)
}
