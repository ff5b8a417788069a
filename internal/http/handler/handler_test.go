package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"resourcehub/internal/model"
	"resourcehub/internal/policy"
	"resourcehub/internal/service"
	serviceMocks "resourcehub/internal/service/mocks"
)

const testID = "7b8f0f2c-3f2a-4a4e-9dd0-6d5a9a2b1c3d"

func newTestApp(t *testing.T, svc service.ResourceService) *fiber.App {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, db, svc)
	return app
}

func decodeError(t *testing.T, body io.Reader) errorPayload {
	t.Helper()
	var p errorPayload
	require.NoError(t, json.NewDecoder(body).Decode(&p))
	return p
}

// multipartRequest builds a multipart form request with the given fields
// and, when filename is non-empty, a file part under "file".
func multipartRequest(t *testing.T, method, target string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dbMock.ExpectPing()

		app := fiber.New()
		app.Get("/health", HealthCheck(db))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("database down", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		app := fiber.New()
		app.Get("/health", HealthCheck(db))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp.Body).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListResources(t *testing.T) {
	t.Run("filters parsed from the query string", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("List", mock.Anything, mock.MatchedBy(func(f model.ResourceFilters) bool {
			return f.Category != nil && *f.Category == model.CategoryVideos &&
				f.IsPublic != nil && *f.IsPublic &&
				f.Limit == 5 &&
				f.Search == "remote"
		})).Return(&service.ResourceListResult{
			Items: []model.Resource{{ID: testID, Title: "Guide"}},
			Total: 1,
		}, nil)

		app := newTestApp(t, mockSvc)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet,
			"/resources?category=videos&isPublic=true&limit=5&search=remote", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body service.ResourceListResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 1, body.Total)
		assert.Len(t, body.Items, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown category", func(t *testing.T) {
		app := newTestApp(t, new(serviceMocks.MockResourceService))
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resources?category=finance", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_CATEGORY", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("unknown type", func(t *testing.T) {
		app := newTestApp(t, new(serviceMocks.MockResourceService))
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resources?type=spreadsheet", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_TYPE", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		app := newTestApp(t, new(serviceMocks.MockResourceService))
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resources?limit=-1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("service failure", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("query failed"))

		app := newTestApp(t, mockSvc)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resources", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp.Body).Error.Code)
	})
}

func TestGetResource(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Get", mock.Anything, testID).Return(&model.Resource{ID: testID, Title: "Guide"}, nil)

		app := newTestApp(t, mockSvc)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resources/"+testID, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body model.Resource
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, testID, body.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed id", func(t *testing.T) {
		app := newTestApp(t, new(serviceMocks.MockResourceService))
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resources/not-a-uuid", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Get", mock.Anything, testID).Return(nil, service.ErrNotFound)

		app := newTestApp(t, mockSvc)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resources/"+testID, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body).Error.Code)
	})
}

func TestCreateResource(t *testing.T) {
	fields := map[string]string{
		"title":       "Effective 1:1s",
		"description": "A short guide",
		"type":        "pdf",
		"category":    "management",
		"tags":        "guide, management",
		"createdBy":   "admin",
	}

	t.Run("with file upload", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in model.ResourceInput) bool {
			return in.Title == "Effective 1:1s" &&
				in.Type == model.TypePDF &&
				in.IsPublic &&
				len(in.Tags) == 2 && in.Tags[1] == "management"
		}), mock.MatchedBy(func(up *service.Upload) bool {
			return up != nil && up.Filename == "guide.pdf" && up.Size == int64(len("%PDF-1.4"))
		})).Return(&model.Resource{ID: testID, Title: "Effective 1:1s"}, nil)

		app := newTestApp(t, mockSvc)
		req := multipartRequest(t, http.MethodPost, "/resources", fields, "guide.pdf", []byte("%PDF-1.4"))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body model.Resource
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, testID, body.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("link only, no file part", func(t *testing.T) {
		linkFields := map[string]string{
			"title":       "Conference talk",
			"description": "Recorded keynote",
			"type":        "video",
			"category":    "videos",
			"fileUrl":     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"isPublic":    "false",
		}

		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in model.ResourceInput) bool {
			return in.FileURL == "https://www.youtube.com/watch?v=dQw4w9WgXcQ" && !in.IsPublic
		}), (*service.Upload)(nil)).Return(&model.Resource{ID: testID}, nil)

		app := newTestApp(t, mockSvc)
		req := multipartRequest(t, http.MethodPost, "/resources", linkFields, "", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("oversized file maps to FILE_TOO_LARGE", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, policy.ErrFileTooLarge)

		app := newTestApp(t, mockSvc)
		req := multipartRequest(t, http.MethodPost, "/resources", fields, "guide.pdf", []byte("x"))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_TOO_LARGE", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("missing title maps to INVALID_INPUT", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrTitleRequired)

		app := newTestApp(t, mockSvc)
		req := multipartRequest(t, http.MethodPost, "/resources", map[string]string{"type": "pdf"}, "", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("bad isPublic value", func(t *testing.T) {
		badFields := map[string]string{"title": "x", "description": "y", "type": "pdf", "category": "other", "isPublic": "maybe"}

		app := newTestApp(t, new(serviceMocks.MockResourceService))
		req := multipartRequest(t, http.MethodPost, "/resources", badFields, "", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_IS_PUBLIC", decodeError(t, resp.Body).Error.Code)
	})
}

func TestUpdateResource(t *testing.T) {
	t.Run("only supplied fields reach the service", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Update", mock.Anything, testID, mock.MatchedBy(func(upd model.ResourceUpdate) bool {
			return upd.Title != nil && *upd.Title == "New Title" &&
				upd.Description == nil &&
				upd.IsPublic == nil &&
				upd.Tags == nil
		}), (*service.Upload)(nil)).Return(&model.Resource{ID: testID, Title: "New Title"}, nil)

		app := newTestApp(t, mockSvc)
		req := multipartRequest(t, http.MethodPatch, "/resources/"+testID,
			map[string]string{"title": "New Title"}, "", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body model.Resource
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "New Title", body.Title)
		mockSvc.AssertExpectations(t)
	})

	t.Run("explicit false is carried, not dropped", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Update", mock.Anything, testID, mock.MatchedBy(func(upd model.ResourceUpdate) bool {
			return upd.IsPublic != nil && !*upd.IsPublic && upd.Title == nil
		}), (*service.Upload)(nil)).Return(&model.Resource{ID: testID}, nil)

		app := newTestApp(t, mockSvc)
		req := multipartRequest(t, http.MethodPatch, "/resources/"+testID,
			map[string]string{"isPublic": "false"}, "", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("replacement upload travels with the form", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Update", mock.Anything, testID, mock.MatchedBy(func(upd model.ResourceUpdate) bool {
			return upd.Type != nil && *upd.Type == model.TypeDocx
		}), mock.MatchedBy(func(up *service.Upload) bool {
			return up != nil && up.Filename == "notes.docx"
		})).Return(&model.Resource{ID: testID}, nil)

		app := newTestApp(t, mockSvc)
		req := multipartRequest(t, http.MethodPatch, "/resources/"+testID,
			map[string]string{"type": "docx"}, "notes.docx", []byte("PK"))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed id", func(t *testing.T) {
		app := newTestApp(t, new(serviceMocks.MockResourceService))
		req := multipartRequest(t, http.MethodPatch, "/resources/not-a-uuid",
			map[string]string{"title": "x"}, "", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Update", mock.Anything, testID, mock.Anything, mock.Anything).
			Return(nil, service.ErrNotFound)

		app := newTestApp(t, mockSvc)
		req := multipartRequest(t, http.MethodPatch, "/resources/"+testID,
			map[string]string{"title": "x"}, "", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteResource(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Delete", mock.Anything, testID).Return(nil)

		app := newTestApp(t, mockSvc)
		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/resources/"+testID, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("Delete", mock.Anything, testID).Return(service.ErrNotFound)

		app := newTestApp(t, mockSvc)
		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/resources/"+testID, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRecordDownload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("IncrementDownload", mock.Anything, testID).Return(nil)

		app := newTestApp(t, mockSvc)
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/resources/"+testID+"/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed id", func(t *testing.T) {
		app := newTestApp(t, new(serviceMocks.MockResourceService))
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/resources/not-a-uuid/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockResourceService)
		mockSvc.On("IncrementDownload", mock.Anything, testID).Return(service.ErrNotFound)

		app := newTestApp(t, mockSvc)
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/resources/"+testID+"/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestResourceStats(t *testing.T) {
	mockSvc := new(serviceMocks.MockResourceService)
	mockSvc.On("Stats", mock.Anything).Return(&model.ResourceStats{
		Total:          5,
		TotalDownloads: 42,
		ByCategory:     map[string]int64{"management": 3, "videos": 2},
	}, nil)

	app := newTestApp(t, mockSvc)

	// The stats route must win over /resources/:id.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resources/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body model.ResourceStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 5, body.Total)
	assert.EqualValues(t, 42, body.TotalDownloads)
	assert.EqualValues(t, 3, body.ByCategory["management"])
	mockSvc.AssertExpectations(t)
}
