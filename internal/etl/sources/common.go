package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"console/internal/etl"
)

// stream runs produce in a goroutine and adapts it to the Source.Read
// channel contract. produce returns false from emit when ctx is done.
func stream(ctx context.Context, produce func(emit func(etl.Record) bool) error) (<-chan etl.Record, <-chan error) {
	out := make(chan etl.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		emit := func(r etl.Record) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if err := produce(emit); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

// navigatePath walks a dot-separated path ("data.items") into nested objects.
func navigatePath(obj any, path string) (any, error) {
	if path == "" {
		return obj, nil
	}
	current := obj
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("data path %q: %q is not an object", path, part)
		}
		if current, ok = m[part]; !ok {
			return nil, fmt.Errorf("data path %q: %q not found", path, part)
		}
	}
	return current, nil
}

// toRecords converts a decoded JSON value into records. An array yields one
// record per object element; a single object yields one record.
func toRecords(raw any) []etl.Record {
	switch v := raw.(type) {
	case []any:
		records := make([]etl.Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				records = append(records, etl.Record{Data: m})
			}
		}
		return records
	case map[string]any:
		return []etl.Record{{Data: v}}
	default:
		return nil
	}
}

// decodeJSONRecords parses a JSON document and extracts the records at dataPath.
func decodeJSONRecords(data []byte, dataPath string) ([]etl.Record, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	target, err := navigatePath(raw, dataPath)
	if err != nil {
		return nil, err
	}
	return toRecords(target), nil
}

func emitAll(records []etl.Record, emit func(etl.Record) bool) {
	for _, r := range records {
		if !emit(r) {
			return
		}
	}
}
