package handler

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"resourcehub/internal/model"
	"resourcehub/internal/service"
)

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check with no dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListResources returns resources matching the query filters.
// Query params: category, type, isPublic, limit, search.
func ListResources(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := model.ResourceFilters{Search: c.Query("search")}

		if v := c.Query("category"); v != "" {
			cat := model.Category(v)
			if !cat.Valid() {
				return writeError(c, fiber.StatusBadRequest, "INVALID_CATEGORY", "unknown category")
			}
			f.Category = &cat
		}
		if v := c.Query("type"); v != "" {
			t := model.ResourceType(v)
			if !t.Valid() {
				return writeError(c, fiber.StatusBadRequest, "INVALID_TYPE", "unknown resource type")
			}
			f.Type = &t
		}
		if v := c.Query("isPublic"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_IS_PUBLIC", "isPublic must be a boolean")
			}
			f.IsPublic = &b
		}
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			}
			f.Limit = n
		}

		res, err := svc.List(c.UserContext(), f)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetResource returns a single resource by ID.
func GetResource(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateResource creates a resource from a multipart form. The metadata
// fields travel as form values; the optional upload travels under the
// "file" field.
func CreateResource(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := model.ResourceInput{
			Title:            c.FormValue("title"),
			Description:      c.FormValue("description"),
			Type:             model.ResourceType(c.FormValue("type")),
			Category:         model.Category(c.FormValue("category")),
			FileURL:          c.FormValue("fileUrl"),
			CreatedBy:        c.FormValue("createdBy"),
			Tags:             splitList(c.FormValue("tags")),
			RelatedResources: splitList(c.FormValue("relatedResources")),
			IsPublic:         true,
		}
		if v := c.FormValue("isPublic"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_IS_PUBLIC", "isPublic must be a boolean")
			}
			in.IsPublic = b
		}
		if v := c.FormValue("featured"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_FEATURED", "featured must be a boolean")
			}
			in.Featured = b
		}

		var up *service.Upload
		if fh, ferr := c.FormFile("file"); ferr == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			up = &service.Upload{Reader: f, Filename: fh.Filename, ContentType: ct, Size: fh.Size}
		}

		res, err := svc.Create(c.UserContext(), in, up)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// UpdateResource applies a partial update from a multipart form. A field
// is updated only when its key is present in the form, so omitted fields
// keep their stored values.
func UpdateResource(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		}
		get := func(key string) *string {
			if vs, ok := form.Value[key]; ok && len(vs) > 0 {
				return &vs[0]
			}
			return nil
		}

		var upd model.ResourceUpdate
		upd.Title = get("title")
		upd.Description = get("description")
		upd.FileURL = get("fileUrl")
		if v := get("type"); v != nil {
			t := model.ResourceType(*v)
			upd.Type = &t
		}
		if v := get("category"); v != nil {
			cat := model.Category(*v)
			upd.Category = &cat
		}
		if v := get("isPublic"); v != nil {
			b, err := strconv.ParseBool(*v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_IS_PUBLIC", "isPublic must be a boolean")
			}
			upd.IsPublic = &b
		}
		if v := get("featured"); v != nil {
			b, err := strconv.ParseBool(*v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_FEATURED", "featured must be a boolean")
			}
			upd.Featured = &b
		}
		if v := get("tags"); v != nil {
			tags := splitList(*v)
			upd.Tags = &tags
		}
		if v := get("relatedResources"); v != nil {
			related := splitList(*v)
			upd.RelatedResources = &related
		}

		var up *service.Upload
		if fh, ferr := c.FormFile("file"); ferr == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			up = &service.Upload{Reader: f, Filename: fh.Filename, ContentType: ct, Size: fh.Size}
		}

		res, err := svc.Update(c.UserContext(), id, upd, up)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// DeleteResource removes a resource and best-effort removes its blob.
func DeleteResource(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RecordDownload bumps the download counter for a resource.
func RecordDownload(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.IncrementDownload(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ResourceStats returns totals and the per-category histogram.
func ResourceStats(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(stats)
	}
}

// splitList parses a comma-separated form value into a slice, trimming
// whitespace and dropping empties. An empty input yields nil.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
