package mcpserver

import (
	"encoding/json"
	"fmt"

	"console/internal/domain"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// recordArg reads a record argument that may arrive as a JSON string or
// as an object.
func recordArg(args map[string]any, key string) (domain.Record, error) {
	switch v := args[key].(type) {
	case string:
		var rec domain.Record
		if err := parseJSON(v, &rec); err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		return rec, nil
	case map[string]any:
		return domain.Record(v), nil
	case nil:
		return nil, fmt.Errorf("%s is required", key)
	default:
		return nil, fmt.Errorf("%s must be a JSON object", key)
	}
}

// stringArg returns a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
