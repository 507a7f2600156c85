package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	"github.com/gtrusler/lexpertchatai-sub000/internal/service"
	serviceMocks "github.com/gtrusler/lexpertchatai-sub000/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		docs := []model.Document{{ID: uuid.New().String(), DisplayName: "test.pdf"}}
		mockSvc.On("ListValid", mock.Anything, "").Return(docs, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("tag filter", func(t *testing.T) {
		mockSvc.On("ListValid", mock.Anything, "tag-1").Return([]model.Document{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?tag=tag-1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("storage failure maps to bad gateway", func(t *testing.T) {
		mockSvc.On("ListValid", mock.Anything, "").
			Return(nil, &service.Error{Kind: service.KindStorageFailed, Op: "reconcile: list objects", Err: errors.New("down")}).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "STORAGE_FAILED", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/documents", UploadDocument(mockSvc))

	multipartBody := func(t *testing.T, chatID string) (*bytes.Buffer, string) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "test.txt")
		require.NoError(t, err)
		part.Write([]byte("hello world"))
		if chatID != "" {
			writer.WriteField("chat_id", chatID)
		}
		writer.Close()
		return body, writer.FormDataContentType()
	}

	t.Run("success", func(t *testing.T) {
		body, contentType := multipartBody(t, "chat-1")

		expectedDoc := &model.Document{ID: uuid.New().String(), DisplayName: "test.txt"}
		mockSvc.On("Upload", mock.Anything, mock.Anything, "test.txt", mock.Anything, mock.Anything,
			service.UploadOptions{ChatID: "chat-1", UploadedBy: "user-7"}).Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(UserIDHeader, "user-7")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expectedDoc.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("context missing maps to conflict", func(t *testing.T) {
		body, contentType := multipartBody(t, "chat-x")

		mockSvc.On("Upload", mock.Anything, mock.Anything, "test.txt", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &service.Error{Kind: service.KindContextMissing, Op: "upload", Err: errors.New("fk")}).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "CONTEXT_MISSING", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("validation failure", func(t *testing.T) {
		body, contentType := multipartBody(t, "")

		mockSvc.On("Upload", mock.Anything, mock.Anything, "test.txt", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrFilenameRequired).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", contentType)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_FAILED", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expectedDoc := &model.Document{ID: id, DisplayName: "test.txt"}
		mockSvc.On("Get", mock.Anything, id).Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents/invalid-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("timeout maps to gateway timeout", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).
			Return(nil, &service.Error{Kind: service.KindTimeout, Op: "get document", Err: errors.New("deadline")}).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Delete("/documents/:id", DeleteDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("blob delete failure keeps the row and reports bad gateway", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).
			Return(&service.Error{Kind: service.KindStorageFailed, Op: "delete: remove object", Err: errors.New("down")}).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDocumentURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id/url", DocumentURL(mockSvc))

	t.Run("default ttl", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("ViewURL", mock.Anything, id, time.Duration(0)).Return("https://store/signed", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id+"/url", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://store/signed", body["url"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("explicit ttl in seconds", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("ViewURL", mock.Anything, id, 600*time.Second).Return("https://store/signed", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id+"/url?ttl=600", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid ttl", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/documents/"+id+"/url?ttl=-5", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_TTL", res.Error.Code)
	})
}

func TestSetPrimaryTag(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Patch("/documents/:id/primary-tag", SetPrimaryTag(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("SetPrimaryTag", mock.Anything, id, "pleading").
			Return(&model.Document{ID: id, PrimaryTag: "pleading"}, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/documents/"+id+"/primary-tag",
			strings.NewReader(`{"primary_tag":"pleading"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "pleading", result.PrimaryTag)
		mockSvc.AssertExpectations(t)
	})
}

func TestTagHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockTagService)
	app := fiber.New()
	app.Post("/tags", EnsureTag(mockSvc))
	app.Get("/tags", ListTags(mockSvc))
	app.Get("/tags/:id/documents", ListTaggedDocuments(mockSvc))
	app.Get("/documents/:id/tags", EntityTags(mockSvc, model.TagEntityDocument))
	app.Put("/documents/:id/tags", SetEntityTags(mockSvc, model.TagEntityDocument))

	t.Run("ensure", func(t *testing.T) {
		mockSvc.On("Ensure", mock.Anything, "pleading", "court filings", (*string)(nil)).
			Return(&model.Tag{ID: "tag-1", Name: "pleading"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/tags",
			strings.NewReader(`{"name":"pleading","description":"court filings"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var tag model.Tag
		json.NewDecoder(resp.Body).Decode(&tag)
		assert.Equal(t, "tag-1", tag.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("ensure with a cyclic parent", func(t *testing.T) {
		mockSvc.On("Ensure", mock.Anything, "loop", "", mock.Anything).
			Return(nil, service.ErrCyclicTagParent).Once()

		req := httptest.NewRequest(http.MethodPost, "/tags",
			strings.NewReader(`{"name":"loop","parent_tag_id":"tag-loop"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_FAILED", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("list", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.Tag{{ID: "tag-1"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/tags", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("set document tags", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("SetTagsFor", mock.Anything, model.TagEntityDocument, id, []string{"t1", "t2"}).
			Return(nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/documents/"+id+"/tags",
			strings.NewReader(`{"tag_ids":["t1","t2"]}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("documents with tag", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("EntitiesWithTag", mock.Anything, model.TagEntityDocument, id).
			Return([]string{"doc-1"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/tags/"+id+"/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string][]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, []string{"doc-1"}, body["document_ids"])
		mockSvc.AssertExpectations(t)
	})
}

func TestTemplateHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockTemplateService)
	app := fiber.New()
	app.Post("/templates", CreateTemplate(mockSvc))
	app.Get("/templates/:id", GetTemplate(mockSvc))
	app.Post("/templates/:id/documents/:docId", AttachTemplateDocument(mockSvc))

	t.Run("create", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(tpl *model.Template) bool {
			return tpl.Name == "Motion to Dismiss"
		})).Return(&model.Template{ID: "tpl-1", Name: "Motion to Dismiss"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/templates",
			strings.NewReader(`{"name":"Motion to Dismiss","content":"..."}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("get not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/templates/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("attach document", func(t *testing.T) {
		id := uuid.New().String()
		docID := uuid.New().String()
		mockSvc.On("AttachDocument", mock.Anything, id, docID).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/templates/"+id+"/documents/"+docID, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	RegisterRoutes(app, nil, new(serviceMocks.MockDocumentService),
		new(serviceMocks.MockTagService), new(serviceMocks.MockTemplateService))

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
