// Package storage is the persistence port used by the view-models in place of browser local
// storage: a key/value store of JSON documents.
package storage

import (
	"encoding/json"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// Store persists JSON values by key.
type Store interface {
	// Load returns the stored value and whether one exists.
	Load(key string) ([]byte, bool, error)
	Save(key string, value []byte) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key string) error
}

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}

// LoadJSON decodes the value stored under key into v. A missing, unreadable or unparsable value
// is reported as absent; the latter two are logged.
func LoadJSON(store Store, key string, v any, logger *zap.Logger) bool {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, ok, err := store.Load(key)
	if err != nil {
		logger.Warn("reading stored value failed, using defaults", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("stored value is not valid json, using defaults", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(store Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Save(key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
