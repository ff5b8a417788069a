package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"resourcehub/internal/model"
	"resourcehub/internal/repository"
)

// ResourcePostgres is a PostgreSQL implementation of
// repository.ResourceRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type ResourcePostgres struct {
	db *sql.DB
}

// NewResourcePostgres creates a new ResourcePostgres repository.
func NewResourcePostgres(db *sql.DB) *ResourcePostgres {
	return &ResourcePostgres{db: db}
}

var _ repository.ResourceRepository = (*ResourcePostgres)(nil)

// IsNoRowsError reports whether err is the driver's missing-row error.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

const resourceColumns = `id, title, description, type, category, file_url, thumbnail_url, file_size,
	is_public, featured, tags, related_resources, download_count, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanResource reads one row into a Resource. file_url, thumbnail_url and
// file_size scan through pointer fields so a SQL NULL stays nil — absence
// is part of the model, not a zero value.
func scanResource(row rowScanner) (*model.Resource, error) {
	var (
		res         model.Resource
		tagsJSON    []byte
		relatedJSON []byte
	)
	if err := row.Scan(
		&res.ID,
		&res.Title,
		&res.Description,
		&res.Type,
		&res.Category,
		&res.FileURL,
		&res.ThumbnailURL,
		&res.FileSize,
		&res.IsPublic,
		&res.Featured,
		&tagsJSON,
		&relatedJSON,
		&res.DownloadCount,
		&res.CreatedBy,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tagsJSON, &res.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(relatedJSON, &res.RelatedResources); err != nil {
		return nil, fmt.Errorf("decode related_resources: %w", err)
	}
	return &res, nil
}

// jsonArray encodes a string slice for a JSONB column. A nil slice is
// stored as an empty array, never as SQL NULL.
func jsonArray(v []string) []byte {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return b
}

// Create inserts a new resource row and returns the stored record.
func (r *ResourcePostgres) Create(ctx context.Context, res *model.Resource) (*model.Resource, error) {
	q := `
		INSERT INTO resources (id, title, description, type, category, file_url, thumbnail_url, file_size,
			is_public, featured, tags, related_resources, download_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + resourceColumns
	row := r.db.QueryRowContext(ctx, q,
		res.ID,
		res.Title,
		res.Description,
		res.Type,
		res.Category,
		res.FileURL,
		res.ThumbnailURL,
		res.FileSize,
		res.IsPublic,
		res.Featured,
		jsonArray(res.Tags),
		jsonArray(res.RelatedResources),
		res.DownloadCount,
		res.CreatedBy,
		res.CreatedAt,
		res.UpdatedAt,
	)
	return scanResource(row)
}

// FindByID fetches a single resource by its ID.
func (r *ResourcePostgres) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	q := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	return scanResource(r.db.QueryRowContext(ctx, q, id))
}

// List returns resources matching the equality filters, newest first.
func (r *ResourcePostgres) List(ctx context.Context, lq repository.ListQuery) ([]model.Resource, error) {
	var (
		where []string
		args  []any
	)
	cond := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if lq.Category != nil {
		cond("category", *lq.Category)
	}
	if lq.Type != nil {
		cond("type", *lq.Type)
	}
	if lq.IsPublic != nil {
		cond("is_public", *lq.IsPublic)
	}

	q := `SELECT ` + resourceColumns + ` FROM resources`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if lq.Limit > 0 {
		args = append(args, lq.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies only the non-nil fields of upd and refreshes updated_at.
// The SET clause is built from a whitelist of columns; the stored row is
// never replaced wholesale, so unspecified attributes keep their values.
func (r *ResourcePostgres) Update(ctx context.Context, id string, upd model.ResourceUpdate) (*model.Resource, error) {
	var (
		set  []string
		args []any
	)
	assign := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Title != nil {
		assign("title", *upd.Title)
	}
	if upd.Description != nil {
		assign("description", *upd.Description)
	}
	if upd.Type != nil {
		assign("type", *upd.Type)
	}
	if upd.Category != nil {
		assign("category", *upd.Category)
	}
	if upd.FileURL != nil {
		assign("file_url", *upd.FileURL)
	}
	if upd.ThumbnailURL != nil {
		assign("thumbnail_url", *upd.ThumbnailURL)
	}
	if upd.FileSize != nil {
		assign("file_size", *upd.FileSize)
	}
	if upd.IsPublic != nil {
		assign("is_public", *upd.IsPublic)
	}
	if upd.Featured != nil {
		assign("featured", *upd.Featured)
	}
	if upd.Tags != nil {
		assign("tags", jsonArray(*upd.Tags))
	}
	if upd.RelatedResources != nil {
		assign("related_resources", jsonArray(*upd.RelatedResources))
	}
	assign("updated_at", time.Now().UTC())

	args = append(args, id)
	q := fmt.Sprintf("UPDATE resources SET %s WHERE id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), resourceColumns)
	return scanResource(r.db.QueryRowContext(ctx, q, args...))
}

// Delete removes a resource by ID. It does not return an error if the row
// does not exist.
func (r *ResourcePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM resources WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// IncrementDownloadCount bumps download_count by one in a single UPDATE.
// The arithmetic runs inside the database, so N concurrent calls always
// land N increments — there is no read-modify-write to lose.
func (r *ResourcePostgres) IncrementDownloadCount(ctx context.Context, id string) error {
	const q = `UPDATE resources SET download_count = download_count + 1 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Stats aggregates the collection in two queries: totals, then the
// per-category histogram. O(n) over the table; no materialized counters.
func (r *ResourcePostgres) Stats(ctx context.Context) (*model.ResourceStats, error) {
	stats := &model.ResourceStats{ByCategory: make(map[string]int64)}

	const qTotals = `SELECT COUNT(*), COALESCE(SUM(download_count), 0) FROM resources`
	if err := r.db.QueryRowContext(ctx, qTotals).Scan(&stats.Total, &stats.TotalDownloads); err != nil {
		return nil, err
	}

	const qByCategory = `SELECT category, COUNT(*) FROM resources GROUP BY category`
	rows, err := r.db.QueryContext(ctx, qByCategory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			count    int64
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
