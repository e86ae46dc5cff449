package store

import (
	"context"
	"errors"

	"tsdash/internal/core"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Ports for dataset backends.
type (
	// DatasetReader exposes the session dataset. Implementations return the
	// same immutable dataset on every call.
	DatasetReader interface {
		Dataset(ctx context.Context) (core.Dataset, error)
		Seed() int64
	}
)
