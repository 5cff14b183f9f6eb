package etl

import (
	"sort"

	"console/internal/domain"
)

// ── Record ─────────────────────────────────────────────────
// Rows flow through an import as Records: sources emit them, transforms
// reshape them, and the destination stores them as collection records.

// Field describes one column a source produces.
type Field struct {
	Name string           `json:"name"`
	Type domain.FieldType `json:"type"`
}

// Schema describes the shape of records coming from a source.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns the field names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// SchemaFields proposes collection schema fields for this source schema.
func (s *Schema) SchemaFields() domain.Schema {
	out := make(domain.Schema, 0, len(s.Fields))
	proposed := domain.InferSchema(s.FieldNames(), nil)
	for i, f := range s.Fields {
		sf := proposed[i]
		sf.Type = f.Type
		out = append(out, sf)
	}
	return out
}

// Record is a single row of data flowing through the pipeline.
type Record struct {
	Data map[string]any `json:"data"`
}

// InferSchema derives a schema from sample records. Keys are sorted so the
// result is stable; each type comes from the first non-nil value seen.
func InferSchema(records []Record) *Schema {
	rows := make([]domain.Record, len(records))
	seen := map[string]bool{}
	var keys []string
	for i, r := range records {
		rows[i] = r.Data
		for k := range r.Data {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	schema := &Schema{Fields: make([]Field, 0, len(keys))}
	for _, sf := range domain.InferSchema(keys, rows) {
		schema.Fields = append(schema.Fields, Field{Name: sf.Key, Type: sf.Type})
	}
	return schema
}
