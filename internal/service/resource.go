package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"resourcehub/internal/model"
	"resourcehub/internal/policy"
	"resourcehub/internal/repository"
	"resourcehub/internal/storage"
	"resourcehub/internal/youtube"
)

var (
	ErrIDRequired          = errors.New("id is required")
	ErrNotFound            = errors.New("resource not found")
	ErrReaderNil           = errors.New("reader is nil")
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrInvalidType         = errors.New("invalid resource type")
	ErrInvalidCategory     = errors.New("invalid category")
)

// Upload carries an incoming file alongside a create or update call.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// ResourceListResult is the service-level DTO for listed resources.
type ResourceListResult struct {
	Items []model.Resource `json:"data"`
	Total int              `json:"total"`
}

// ResourceService defines the use cases of the resource lifecycle engine.
// Each call is a self-contained orchestration; the service holds no state
// between calls.
type ResourceService interface {
	// Create validates the metadata and optional upload, stores the file
	// (or derives a thumbnail for a recognized video link), and inserts
	// the metadata record. Validation runs before any I/O, so a rejected
	// upload never produces a partial write.
	Create(ctx context.Context, in model.ResourceInput, up *Upload) (*model.Resource, error)

	// Get returns a single resource by its ID.
	Get(ctx context.Context, id string) (*model.Resource, error)

	// List returns resources matching the filters, newest first. The
	// free-text search filter is applied after retrieval.
	List(ctx context.Context, f model.ResourceFilters) (*ResourceListResult, error)

	// Update applies a partial update; fields not named in upd keep their
	// stored values. An accompanying upload replaces the file reference.
	Update(ctx context.Context, id string, upd model.ResourceUpdate, up *Upload) (*model.Resource, error)

	// Delete removes the metadata record and best-effort removes the
	// stored blob, if any.
	Delete(ctx context.Context, id string) error

	// IncrementDownload atomically bumps the download counter.
	IncrementDownload(ctx context.Context, id string) error

	// Stats aggregates totals and the per-category histogram.
	Stats(ctx context.Context) (*model.ResourceStats, error)
}

// resourceService is a concrete implementation of ResourceService.
type resourceService struct {
	store storage.Storage
	repo  repository.ResourceRepository
}

// NewResourceService constructs a new ResourceService.
func NewResourceService(store storage.Storage, repo repository.ResourceRepository) ResourceService {
	return &resourceService{store: store, repo: repo}
}

func (s *resourceService) Create(ctx context.Context, in model.ResourceInput, up *Upload) (*model.Resource, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, in.Type)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}

	now := time.Now().UTC()
	res := &model.Resource{
		ID:               uuid.NewString(),
		Title:            in.Title,
		Description:      in.Description,
		Type:             in.Type,
		Category:         in.Category,
		IsPublic:         in.IsPublic,
		Featured:         in.Featured,
		Tags:             in.Tags,
		RelatedResources: in.RelatedResources,
		DownloadCount:    0,
		CreatedBy:        in.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var uploadedKey string
	switch {
	case up != nil:
		if up.Reader == nil {
			return nil, ErrReaderNil
		}
		if err := policy.ValidateUpload(up.Filename, up.Size, in.Type); err != nil {
			return nil, err
		}
		key := policy.StoragePath(in.Type, up.Filename)
		if _, err := s.store.Put(ctx, key, up.Reader, storage.PutObjectOptions{
			Size:        up.Size,
			ContentType: up.ContentType,
			Metadata: map[string]string{
				"original-filename": up.Filename,
			},
		}); err != nil {
			return nil, fmt.Errorf("upload to storage: %w", err)
		}
		uploadedKey = key
		fileURL := s.store.PublicURL(key)
		fileSize := up.Size
		res.FileURL = &fileURL
		res.FileSize = &fileSize

	case in.Type == model.TypeVideo && strings.Contains(in.FileURL, "youtube.com"):
		// Thumbnail derivation keys off the youtube.com substring, so
		// youtu.be short links store their URL without a thumbnail.
		fileURL := in.FileURL
		res.FileURL = &fileURL
		if vid, ok := youtube.ExtractVideoID(in.FileURL); ok {
			thumb := youtube.ThumbnailURL(vid)
			res.ThumbnailURL = &thumb
		}

	case in.FileURL != "":
		fileURL := in.FileURL
		res.FileURL = &fileURL
	}

	stored, err := s.repo.Create(ctx, res)
	if err != nil {
		// The blob and the metadata write are not transactional. A failed
		// insert after a successful upload leaves the blob orphaned; log
		// it and surface the insert error.
		if uploadedKey != "" {
			logWarn("resource metadata save failed after upload, blob orphaned", map[string]any{
				"storage_key": uploadedKey,
			})
		}
		return nil, fmt.Errorf("save metadata: %w", err)
	}
	return stored, nil
}

// Get returns a resource by ID.
func (s *resourceService) Get(ctx context.Context, id string) (*model.Resource, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// List pushes the equality filters down to the repository and applies the
// free-text search afterwards, in process. The search scans title and
// description case-insensitively; it does not reduce the rows fetched, so
// it does not combine with server-side pagination.
func (s *resourceService) List(ctx context.Context, f model.ResourceFilters) (*ResourceListResult, error) {
	items, err := s.repo.List(ctx, repository.ListQuery{
		Category: f.Category,
		Type:     f.Type,
		IsPublic: f.IsPublic,
		Limit:    f.Limit,
	})
	if err != nil {
		return nil, err
	}

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		filtered := make([]model.Resource, 0, len(items))
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.Title), needle) ||
				strings.Contains(strings.ToLower(it.Description), needle) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	return &ResourceListResult{Items: items, Total: len(items)}, nil
}

func (s *resourceService) Update(ctx context.Context, id string, upd model.ResourceUpdate, up *Upload) (*model.Resource, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, ErrTitleRequired
	}
	if upd.Description != nil && strings.TrimSpace(*upd.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if upd.Type != nil && !upd.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, *upd.Type)
	}
	if upd.Category != nil && !upd.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *upd.Category)
	}

	// When the update does not name a type, uploads are validated against
	// pdf. The stored type is not consulted here; callers replacing a
	// non-pdf file should send the type alongside.
	vtype := model.TypePDF
	if upd.Type != nil {
		vtype = *upd.Type
	}

	if up != nil {
		if up.Reader == nil {
			return nil, ErrReaderNil
		}
		if err := policy.ValidateUpload(up.Filename, up.Size, vtype); err != nil {
			return nil, err
		}
		key := policy.StoragePath(vtype, up.Filename)
		if _, err := s.store.Put(ctx, key, up.Reader, storage.PutObjectOptions{
			Size:        up.Size,
			ContentType: up.ContentType,
			Metadata: map[string]string{
				"original-filename": up.Filename,
			},
		}); err != nil {
			return nil, fmt.Errorf("upload to storage: %w", err)
		}
		fileURL := s.store.PublicURL(key)
		fileSize := up.Size
		upd.FileURL = &fileURL
		upd.FileSize = &fileSize
	} else if vtype == model.TypeVideo && upd.FileURL != nil && strings.Contains(*upd.FileURL, "youtube.com") {
		if vid, ok := youtube.ExtractVideoID(*upd.FileURL); ok {
			thumb := youtube.ThumbnailURL(vid)
			upd.ThumbnailURL = &thumb
		}
	}

	res, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// Delete removes the metadata record. Blob removal is best-effort: a
// storage failure is logged and never blocks the metadata deletion.
// External links (not produced by this store) are skipped entirely.
func (s *resourceService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if res.FileURL != nil {
		if key, ok := s.store.KeyForURL(*res.FileURL); ok {
			if err := s.store.Delete(ctx, key); err != nil {
				logWarn("resource blob delete failed", map[string]any{
					"resource_id": id,
					"storage_key": key,
					"error":       err.Error(),
				})
			}
		}
	}

	return s.repo.Delete(ctx, id)
}

// IncrementDownload delegates to the repository's atomic increment. No
// fetch-then-write happens anywhere on this path.
func (s *resourceService) IncrementDownload(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.repo.IncrementDownloadCount(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Stats returns the aggregate view over the collection.
func (s *resourceService) Stats(ctx context.Context) (*model.ResourceStats, error) {
	return s.repo.Stats(ctx)
}

// logWarn emits a single JSON log line for best-effort failures that are
// absorbed rather than returned.
func logWarn(msg string, fields map[string]any) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": "warn",
		"msg":   msg,
	}
	for k, v := range fields {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
