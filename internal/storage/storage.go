// Package storage defines the tag store contract.
//
// The concrete implementation lives in the jsonstore sub-package. This
// package holds the interface and sentinel errors referenced by both the
// implementation and its consumers (agent, telemetry, cmd/tt).
package storage

import (
	"context"
	"errors"

	"github.com/steveyegge/tagtrace/internal/types"
)

// ErrIDRequired is returned when an entry is created without an id.
var ErrIDRequired = errors.New("id is required")

// ErrInvalidID is returned when an id does not match the tag id grammar.
var ErrInvalidID = errors.New("invalid id format")

// ErrDuplicateID is returned when creating a tag whose id already exists.
var ErrDuplicateID = errors.New("tag already exists")

// ErrNotFound is returned when updating a tag that does not exist.
var ErrNotFound = errors.New("tag not found")

// ErrInvalidField is returned when a type, category, status or priority is
// outside its closed set.
var ErrInvalidField = errors.New("invalid field value")

// ErrInvalidFormat is returned when the backing file cannot be decoded.
var ErrInvalidFormat = errors.New("invalid database format")

// Storage is the interface satisfied by *jsonstore.Store.
// Consumers depend on this interface rather than on the concrete type so
// that decorators (telemetry) can be substituted.
type Storage interface {
	// Persistence
	Load(ctx context.Context) error
	Save(ctx context.Context) error

	// Tag CRUD. GetTag returns nil, nil for an unknown id.
	CreateTag(ctx context.Context, entry *types.TagEntry) (*types.TagEntry, error)
	GetTag(ctx context.Context, id string) (*types.TagEntry, error)
	UpdateTag(ctx context.Context, id string, update types.TagUpdate) (*types.TagEntry, error)
	DeleteTag(ctx context.Context, id string) (bool, error)

	// Queries
	Search(ctx context.Context, query types.TagQuery) (*types.SearchResult, error)
	AllTags(ctx context.Context) ([]*types.TagEntry, error)
	ValidateTag(ctx context.Context, entry *types.TagEntry) (*types.ValidationResult, error)
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	// Lifecycle
	Path() string
	Close(ctx context.Context) error
}
