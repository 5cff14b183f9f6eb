package client

import (
	"encoding/json"
	"errors"
	"sort"
)

// ErrNoList is returned when a response holds no array.
var ErrNoList = errors.New("response contains no list")

// UnwrapList extracts the items of a list response. It accepts
// {"data":{"items":[...]}}, {"items":[...]}, a bare array, and otherwise
// the first array-valued key of an object in key order.
func UnwrapList(raw json.RawMessage) ([]json.RawMessage, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, ErrNoList
	}
	if data, ok := obj["data"]; ok {
		if items, err := UnwrapList(data); err == nil {
			return items, nil
		}
	}
	if items, ok := obj["items"]; ok {
		if err := json.Unmarshal(items, &arr); err == nil {
			return arr, nil
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := json.Unmarshal(obj[k], &arr); err == nil && arr != nil {
			return arr, nil
		}
	}
	return nil, ErrNoList
}
