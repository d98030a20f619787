package state

import (
	"encoding/json"
	"fmt"
)

// GetJSON unmarshals the value of key into dst. It reports false when the
// key is missing.
func GetJSON(kv KVStore, key string, dst interface{}) (bool, error) {
	bz, err := kv.Get(key)
	if err != nil {
		return false, err
	}
	if bz == nil {
		return false, nil
	}
	if err := json.Unmarshal(bz, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal value of %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(kv KVStore, key string, value interface{}) error {
	bz, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value of %s: %w", key, err)
	}
	return kv.Set(key, bz)
}
