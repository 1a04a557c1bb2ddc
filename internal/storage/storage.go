// Package storage provides the durable string key/value backends that hold
// tempo's session. Every backend applies SetMany as a single atomic write so a
// group of keys is never observed half-written.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Backend is a string key/value store that survives process restarts.
type Backend interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// GetMany returns the values for the keys that are present.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	// SetMany writes all pairs in one atomic step.
	SetMany(ctx context.Context, values map[string]string) error
	// Delete removes the keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Close releases any underlying resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open constructs the backend named in opts.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileBackend(opts.Path)
	case "sqlite":
		return NewSQLiteBackend(ctx, opts.Path)
	case "redis":
		return NewRedisBackend(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Backend)
	}
}
