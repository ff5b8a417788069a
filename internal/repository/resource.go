package repository

import (
	"context"

	"resourcehub/internal/model"
)

// ResourceRepository defines data access for resources using SQL queries
// only. No business logic here — strictly persistence operations.
type ResourceRepository interface {
	// Create inserts a new resource record.
	// The caller provides required fields (ID, timestamps) according to
	// the schema. Returns the stored resource.
	Create(ctx context.Context, res *model.Resource) (*model.Resource, error)

	// FindByID returns a resource by its ID.
	FindByID(ctx context.Context, id string) (*model.Resource, error)

	// List returns resources matching the equality filters in q, newest
	// first. A zero Limit means no LIMIT clause.
	List(ctx context.Context, q ListQuery) ([]model.Resource, error)

	// Update applies the non-nil fields of upd to the stored row and
	// refreshes updated_at. Returns the row after the update, or
	// sql.ErrNoRows when the id does not exist.
	Update(ctx context.Context, id string, upd model.ResourceUpdate) (*model.Resource, error)

	// Delete removes a resource by ID. It returns nil if the row was
	// deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// IncrementDownloadCount adds one to download_count in a single
	// UPDATE statement. The increment happens store-side so concurrent
	// calls never lose updates. Returns sql.ErrNoRows for a missing id.
	IncrementDownloadCount(ctx context.Context, id string) error

	// Stats aggregates total count, total downloads and the per-category
	// histogram over the whole collection.
	Stats(ctx context.Context) (*model.ResourceStats, error)
}

// ListQuery holds the equality filters pushed into the WHERE clause.
// Nil fields are not filtered on.
type ListQuery struct {
	Category *model.Category
	Type     *model.ResourceType
	IsPublic *bool
	Limit    int
}
