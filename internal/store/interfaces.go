package store

import (
	"context"
	"errors"

	"basegraph.app/mergebot/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// RepositoryStore defines the contract for installed repository data access
type RepositoryStore interface {
	GetByPath(ctx context.Context, path string) (*model.Repository, error)
	ListEnabled(ctx context.Context) ([]model.Repository, error)
}
