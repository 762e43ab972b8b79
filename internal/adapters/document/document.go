// Package document holds the JSON document helpers shared by DocumentStore adapters.
package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prefix returns the key prefix of a collection.
func Prefix(collection string) string {
	return strings.TrimSuffix(collection, "/") + "/"
}

// Key returns the key of an entry in a collection.
func Key(collection, id string) string {
	return Prefix(collection) + id
}

// ID returns the entry id part of a collection key.
func ID(collection, key string) string {
	return strings.TrimPrefix(key, Prefix(collection))
}

// HasAnyPrefix reports whether key starts with one of prefixes.
// An empty prefix list matches every key.
func HasAnyPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Merge overlays fields onto the top-level members of existing.
// A nil existing document starts from defaults instead.
func Merge(existing []byte, fields, defaults map[string]any) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if existing != nil {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
	} else {
		if err := overlay(doc, defaults); err != nil {
			return nil, err
		}
	}
	if err := overlay(doc, fields); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func overlay(doc map[string]json.RawMessage, fields map[string]any) error {
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode field %s: %w", k, err)
		}
		doc[k] = raw
	}
	return nil
}
