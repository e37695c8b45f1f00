package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"Stash/internal/apperr"
	"Stash/internal/dto"
	"Stash/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVersionService struct {
	mock.Mock
}

func (m *MockVersionService) CreateVersion(ctx context.Context, userID string, req dto.CreateVersionRequest) (*models.File, error) {
	args := m.Called(userID, req)
	if file, ok := args.Get(0).(*models.File); ok {
		return file, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVersionService) UploadVersion(ctx context.Context, userID string, fileID uint, reader io.Reader, size int64, mimeType, description string) (*models.File, error) {
	data, _ := io.ReadAll(reader)
	args := m.Called(userID, fileID, string(data), size, mimeType, description)
	if file, ok := args.Get(0).(*models.File); ok {
		return file, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVersionService) RestoreVersion(ctx context.Context, userID string, fileID uint, versionNumber int) (*models.File, error) {
	args := m.Called(userID, fileID, versionNumber)
	if file, ok := args.Get(0).(*models.File); ok {
		return file, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVersionService) DeleteVersion(ctx context.Context, userID string, fileID uint, versionNumber int) error {
	args := m.Called(userID, fileID, versionNumber)
	return args.Error(0)
}

func (m *MockVersionService) ListVersions(ctx context.Context, fileID uint) ([]models.FileVersion, error) {
	args := m.Called(fileID)
	if versions, ok := args.Get(0).([]models.FileVersion); ok {
		return versions, args.Error(1)
	}
	return nil, args.Error(1)
}

func newVersionApp(service *MockVersionService) *fiber.App {
	app := fiber.New()
	handler := NewVersionHandler(service)
	api := app.Group("/api", UserIdentity())
	api.Get("/files/:id/versions", handler.ListVersions)
	api.Post("/files/:id/versions", handler.CreateVersion)
	api.Post("/files/:id/versions/upload", handler.UploadVersion)
	api.Post("/files/:id/versions/:number/restore", handler.RestoreVersion)
	api.Delete("/files/:id/versions/:number", handler.DeleteVersion)
	return app
}

func TestListVersions(t *testing.T) {
	service := new(MockVersionService)
	app := newVersionApp(service)
	service.On("ListVersions", uint(4)).Return([]models.FileVersion{
		{FileID: 4, VersionNumber: 2},
		{FileID: 4, VersionNumber: 1},
	}, nil)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/files/4/versions", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	versions := decodeResult(t, resp).Data.([]interface{})
	require.Len(t, versions, 2)
	assert.EqualValues(t, 2, versions[0].(map[string]interface{})["version_number"])
}

func TestCreateVersion_FileIDFromPath(t *testing.T) {
	service := new(MockVersionService)
	app := newVersionApp(service)
	service.On("CreateVersion", "user-1", dto.CreateVersionRequest{
		FileID:            4,
		StoragePath:       "files/v2/logo.svg",
		FileSize:          6,
		ChangeDescription: "new colours",
	}).Return(&models.File{BaseModel: models.BaseModel{ID: 4}, VersionNumber: 2}, nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/files/4/versions", map[string]interface{}{
		"file_id":            99,
		"storage_path":       "files/v2/logo.svg",
		"file_size":          6,
		"change_description": "new colours",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	service.AssertExpectations(t)
}

func TestCreateVersion_Conflict(t *testing.T) {
	service := new(MockVersionService)
	app := newVersionApp(service)
	service.On("CreateVersion", "user-1", mock.Anything).Return(nil, apperr.Conflict("file changed concurrently"))

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/files/4/versions", dto.CreateVersionRequest{StoragePath: "a"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeResult(t, resp).Code)
}

func TestUploadVersion_Multipart(t *testing.T) {
	service := new(MockVersionService)
	app := newVersionApp(service)
	service.On("UploadVersion", "user-1", uint(4), "<svg/>", int64(6), "image/svg+xml", "tweak").
		Return(&models.File{BaseModel: models.BaseModel{ID: 4}, VersionNumber: 3}, nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "logo.svg")
	require.NoError(t, err)
	_, err = part.Write([]byte("<svg/>"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("mime_type", "image/svg+xml"))
	require.NoError(t, writer.WriteField("change_description", "tweak"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/4/versions/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(userIDHeader, "user-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	service.AssertExpectations(t)
}

func TestUploadVersion_MissingFile(t *testing.T) {
	service := new(MockVersionService)
	app := newVersionApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/files/4/versions/upload", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	service.AssertNotCalled(t, "UploadVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRestoreVersion(t *testing.T) {
	service := new(MockVersionService)
	app := newVersionApp(service)
	service.On("RestoreVersion", "user-1", uint(4), 1).
		Return(&models.File{BaseModel: models.BaseModel{ID: 4}, VersionNumber: 3}, nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/files/4/versions/1/restore", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, decodeResult(t, resp).Data.(map[string]interface{})["version_number"])
}

func TestRestoreVersion_BadNumber(t *testing.T) {
	service := new(MockVersionService)
	app := newVersionApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/files/4/versions/latest/restore", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	service.AssertNotCalled(t, "RestoreVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteVersion_Current(t *testing.T) {
	service := new(MockVersionService)
	app := newVersionApp(service)
	service.On("DeleteVersion", "user-1", uint(4), 3).Return(apperr.Conflict("cannot delete the current version"))

	resp, err := app.Test(jsonRequest(http.MethodDelete, "/api/files/4/versions/3", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "cannot delete the current version", decodeResult(t, resp).Error)
}
