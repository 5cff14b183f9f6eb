// Package view renders a collection's records as a table, list or grid,
// with search and add/edit/delete affordances.
package view

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"console/internal/domain"
)

// Accessor reads a display value out of a record: Func when set,
// otherwise a dotted Path such as "author.name" or "images.0.url".
type Accessor struct {
	Path string
	Func func(domain.Record) any
}

// Path returns an Accessor walking the dotted path p.
func Path(p string) Accessor { return Accessor{Path: p} }

// Func returns an Accessor calling fn.
func Func(fn func(domain.Record) any) Accessor { return Accessor{Func: fn} }

// Column maps a record to one displayed cell.
type Column struct {
	ID       string
	Label    string
	Accessor Accessor
	Width    string
	Render   func(value any, record domain.Record) string
	Sortable bool
}

// GetCellValue resolves an accessor against a record. A missing segment,
// a bad index or a non-container along the way yields nil.
func GetCellValue(record domain.Record, acc Accessor) any {
	if acc.Func != nil {
		return acc.Func(record)
	}
	if acc.Path == "" || record == nil {
		return nil
	}
	var cur any = map[string]any(record)
	for _, seg := range strings.Split(acc.Path, ".") {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil
			}
			cur = v
		case domain.Record:
			v, ok := c[seg]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return nil
			}
			cur = c[i]
		case []string:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return nil
			}
			cur = c[i]
		default:
			return nil
		}
	}
	return cur
}

// Search keeps the records where any column's value contains query,
// ignoring case. An empty query returns data itself.
func Search(columns []Column, data []domain.Record, query string) []domain.Record {
	if query == "" {
		return data
	}
	q := strings.ToLower(query)
	out := []domain.Record{}
	for _, rec := range data {
		for _, col := range columns {
			v := GetCellValue(rec, col.Accessor)
			if v == nil {
				continue
			}
			if strings.Contains(strings.ToLower(fmt.Sprint(v)), q) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// ColumnsFromSchema builds one column per visible schema field.
func ColumnsFromSchema(schema domain.Schema) []Column {
	cols := make([]Column, 0, len(schema))
	for _, f := range schema {
		if f.Hidden {
			continue
		}
		col := Column{ID: f.Key, Label: f.Label, Accessor: Path(f.Key)}
		if col.Label == "" {
			col.Label = f.Key
		}
		switch f.Type {
		case domain.FieldBoolean:
			col.Render = renderBool
		case domain.FieldPassword:
			col.Render = func(any, domain.Record) string { return "••••••" }
		case domain.FieldSelect, domain.FieldMultiSelect:
			col.Render = optionLabels(f.Options)
		}
		cols = append(cols, col)
	}
	return cols
}

// FormatCell renders a raw value for display.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return renderBool(val, nil)
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = FormatCell(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

func renderBool(v any, _ domain.Record) string {
	if b, _ := v.(bool); b {
		return "Yes"
	}
	return "No"
}

func optionLabels(options []domain.FieldOption) func(any, domain.Record) string {
	labels := make(map[string]string, len(options))
	for _, o := range options {
		labels[o.Value] = o.Label
	}
	return func(v any, _ domain.Record) string {
		var values []string
		switch val := v.(type) {
		case nil:
			return ""
		case []any:
			for _, item := range val {
				values = append(values, fmt.Sprint(item))
			}
		case []string:
			values = val
		default:
			values = []string{fmt.Sprint(val)}
		}
		out := make([]string, len(values))
		for i, s := range values {
			if l, ok := labels[s]; ok {
				out[i] = l
			} else {
				out[i] = s
			}
		}
		return strings.Join(out, ", ")
	}
}
