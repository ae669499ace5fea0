// Package storage provides the read-by-path primitive the data pipeline
// fetches manifests and data files through.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when the path does not exist in the store.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidPath is returned for paths that are absolute or escape the store root.
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Store reads files by slash-separated path relative to the data root.
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
	// Name identifies the backend in logs and health checks.
	Name() string
}

// Error wraps a failed read with the path that caused it.
type Error struct {
	Path  string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// CleanPath validates a store path and returns its canonical form.
func CleanPath(name string) (string, error) {
	name = strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "./")
	if name == "" || strings.HasPrefix(name, "/") {
		return "", &Error{Path: name, Cause: ErrInvalidPath}
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", &Error{Path: name, Cause: ErrInvalidPath}
		}
	}
	return path.Clean(name), nil
}
