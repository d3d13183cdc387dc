package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// DotenvLookup reads KEY=VALUE pairs from path. A missing file yields a lookup
// that never matches.
func DotenvLookup(path string) (LookupFunc, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return func(string) (string, bool) { return "", false }, nil
		}
		return nil, fmt.Errorf("read env file %q: %w", path, err)
	}
	return func(key string) (string, bool) {
		if !v.IsSet(key) {
			return "", false
		}
		return v.GetString(key), true
	}, nil
}

// Chain returns the first match across lookups, in order.
func Chain(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if value, ok := lookup(key); ok {
				return value, true
			}
		}
		return "", false
	}
}
