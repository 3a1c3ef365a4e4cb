// Package config reads runtime settings.
//
// Values come from a YAML file, optionally preceded by a .env file, and any
// key can be overridden by an environment variable named after it in upper
// snake case: app.server.http.address is read from APP_SERVER_HTTP_ADDRESS.
package config

import (
	"io"
	"time"
)

// Config defines the lookups the application performs on its settings.
// Missing keys yield zero values.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte
	// GetArray reads a YAML list or a comma separated string. Blank
	// elements are dropped.
	GetArray(key string) []string

	// GetSecond, GetMinute and GetDay read an integer in the given unit.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetDay(key string) time.Duration
}
