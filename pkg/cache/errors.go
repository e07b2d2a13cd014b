package cache

import (
	"errors"
	"strings"
)

// ErrEmptyKey is returned for operations on an empty key.
var ErrEmptyKey = errors.New("cache: empty key")

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
