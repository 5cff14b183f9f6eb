package etl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ── Transformer ────────────────────────────────────────────
// Transformers reshape records between source and destination. Each one
// returns the (possibly modified) record and whether to keep it.

// Transformer processes a single record.
type Transformer interface {
	Transform(Record) (Record, bool)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(Record) (Record, bool)

func (f TransformerFunc) Transform(r Record) (Record, bool) { return f(r) }

// FilterTransform keeps records whose field matches the condition.
type FilterTransform struct {
	Field string
	Op    string // eq | neq | gt | lt | contains
	Value any
}

func (t *FilterTransform) Transform(r Record) (Record, bool) {
	v, ok := r.Data[t.Field]
	if !ok {
		return r, false
	}
	switch t.Op {
	case "eq":
		return r, fmt.Sprint(v) == fmt.Sprint(t.Value)
	case "neq":
		return r, fmt.Sprint(v) != fmt.Sprint(t.Value)
	case "contains":
		return r, strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(fmt.Sprint(t.Value)))
	case "gt":
		return r, compareValues(v, t.Value) > 0
	case "lt":
		return r, compareValues(v, t.Value) < 0
	default:
		return r, true
	}
}

// RenameTransform renames fields: old name → new name.
type RenameTransform struct {
	Mapping map[string]string
}

func (t *RenameTransform) Transform(r Record) (Record, bool) {
	for from, to := range t.Mapping {
		if v, ok := r.Data[from]; ok {
			delete(r.Data, from)
			r.Data[to] = v
		}
	}
	return r, true
}

// SelectTransform keeps only the listed fields.
type SelectTransform struct {
	Fields []string
}

func (t *SelectTransform) Transform(r Record) (Record, bool) {
	kept := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		if v, ok := r.Data[f]; ok {
			kept[f] = v
		}
	}
	r.Data = kept
	return r, true
}

// DedupeTransform drops records whose key value was already seen.
type DedupeTransform struct {
	Key  string
	seen map[string]bool
}

func NewDedupeTransform(key string) *DedupeTransform {
	return &DedupeTransform{Key: key, seen: map[string]bool{}}
}

func (t *DedupeTransform) Transform(r Record) (Record, bool) {
	v := fmt.Sprint(r.Data[t.Key])
	if t.seen[v] {
		return r, false
	}
	t.seen[v] = true
	return r, true
}

// ComputeTransform sets fields from templates such as "{first} {last}".
// A result that parses as a number is stored as a number.
type ComputeTransform struct {
	Columns map[string]string // field → template
}

func (t *ComputeTransform) Transform(r Record) (Record, bool) {
	for name, tmpl := range t.Columns {
		out := tmpl
		for k, v := range r.Data {
			out = strings.ReplaceAll(out, "{"+k+"}", fmt.Sprint(v))
		}
		if f, err := strconv.ParseFloat(out, 64); err == nil {
			r.Data[name] = f
		} else {
			r.Data[name] = out
		}
	}
	return r, true
}

// SortTransform orders the whole batch by a field. It passes records
// through unchanged; ApplyBatchSort does the work after reading.
type SortTransform struct {
	Field string
	Desc  bool
}

func (t *SortTransform) Transform(r Record) (Record, bool) { return r, true }

// LimitTransform keeps the first Count records.
type LimitTransform struct {
	Count int
	seen  int
}

func (t *LimitTransform) Transform(r Record) (Record, bool) {
	t.seen++
	return r, t.seen <= t.Count
}

// TypeCastTransform converts a field to number, string or bool.
type TypeCastTransform struct {
	Field    string
	CastType string
}

func (t *TypeCastTransform) Transform(r Record) (Record, bool) {
	v, ok := r.Data[t.Field]
	if !ok || v == nil {
		return r, true
	}
	switch t.CastType {
	case "number":
		f, _ := toFloat(v)
		r.Data[t.Field] = f
	case "string":
		r.Data[t.Field] = fmt.Sprint(v)
	case "bool":
		r.Data[t.Field] = toBool(v)
	}
	return r, true
}

// ── Building ───────────────────────────────────────────────

// BuildTransformers turns declarative configs into a transformer chain.
// Dedupe on dedupeKey, when set, runs last.
func BuildTransformers(configs []TransformConfig, dedupeKey string) ([]Transformer, error) {
	var ts []Transformer
	for i, tc := range configs {
		t, err := buildTransformer(tc)
		if err != nil {
			return nil, fmt.Errorf("transform %d (%s): %w", i, tc.Type, err)
		}
		ts = append(ts, t)
	}
	if dedupeKey != "" {
		ts = append(ts, NewDedupeTransform(dedupeKey))
	}
	return ts, nil
}

func buildTransformer(tc TransformConfig) (Transformer, error) {
	cfg := SourceConfig(tc.Config)
	switch tc.Type {
	case "filter":
		if cfg.String("field") == "" || cfg.String("op") == "" {
			return nil, fmt.Errorf("field and op are required")
		}
		return &FilterTransform{Field: cfg.String("field"), Op: cfg.String("op"), Value: cfg["value"]}, nil

	case "rename":
		mapping, ok := cfg["mapping"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("mapping must be an object")
		}
		m := make(map[string]string, len(mapping))
		for k, v := range mapping {
			m[k] = fmt.Sprint(v)
		}
		return &RenameTransform{Mapping: m}, nil

	case "select":
		fields, ok := cfg["fields"].([]any)
		if !ok {
			return nil, fmt.Errorf("fields must be a list")
		}
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, fmt.Sprint(f))
		}
		return &SelectTransform{Fields: names}, nil

	case "compute":
		columns, ok := cfg["columns"].(map[string]any)
		if !ok || len(columns) == 0 {
			return nil, fmt.Errorf("columns must be a non-empty object")
		}
		cols := make(map[string]string, len(columns))
		for k, v := range columns {
			cols[k] = fmt.Sprint(v)
		}
		return &ComputeTransform{Columns: cols}, nil

	case "sort":
		if cfg.String("field") == "" {
			return nil, fmt.Errorf("field is required")
		}
		return &SortTransform{Field: cfg.String("field"), Desc: cfg.String("direction") == "desc"}, nil

	case "limit":
		count, ok := toFloat(cfg["count"])
		if !ok || count <= 0 {
			return nil, fmt.Errorf("count must be a positive number")
		}
		return &LimitTransform{Count: int(count)}, nil

	case "type_cast":
		if cfg.String("field") == "" || cfg.String("castType") == "" {
			return nil, fmt.Errorf("field and castType are required")
		}
		return &TypeCastTransform{Field: cfg.String("field"), CastType: cfg.String("castType")}, nil

	default:
		return nil, fmt.Errorf("unknown transform type")
	}
}

// ApplyTransformers runs a chain of transformers on a record.
func ApplyTransformers(r Record, ts []Transformer) (Record, bool) {
	for _, t := range ts {
		var keep bool
		if r, keep = t.Transform(r); !keep {
			return r, false
		}
	}
	return r, true
}

// ApplyBatchSort sorts records if the chain contains a SortTransform.
func ApplyBatchSort(records []Record, ts []Transformer) []Record {
	for _, t := range ts {
		st, ok := t.(*SortTransform)
		if !ok {
			continue
		}
		sorted := append([]Record(nil), records...)
		sort.SliceStable(sorted, func(i, j int) bool {
			c := compareValues(sorted[i].Data[st.Field], sorted[j].Data[st.Field])
			if st.Desc {
				return c > 0
			}
			return c < 0
		})
		return sorted
	}
	return records
}

// ── Helpers ────────────────────────────────────────────────

func compareValues(a, b any) int {
	fa, aOk := toFloat(a)
	fb, bOk := toFloat(b)
	if aOk && bOk {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true
		}
		return false
	default:
		f, _ := toFloat(v)
		return f != 0
	}
}
