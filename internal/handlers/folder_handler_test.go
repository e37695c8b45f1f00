package handlers

import (
	"bytes"
	"context"
	"encoding/json"
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

type MockFolderService struct {
	mock.Mock
}

func (m *MockFolderService) CreateFolder(ctx context.Context, userID string, req dto.CreateFolderRequest) (*models.Folder, error) {
	args := m.Called(userID, req)
	if folder, ok := args.Get(0).(*models.Folder); ok {
		return folder, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFolderService) GetFolder(ctx context.Context, id uint) (*models.Folder, error) {
	args := m.Called(id)
	if folder, ok := args.Get(0).(*models.Folder); ok {
		return folder, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFolderService) UpdateFolder(ctx context.Context, userID string, id uint, req dto.UpdateFolderRequest) (*models.Folder, error) {
	args := m.Called(userID, id, req)
	if folder, ok := args.Get(0).(*models.Folder); ok {
		return folder, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFolderService) MoveFolder(ctx context.Context, userID string, id uint, targetParentID *uint) (*models.Folder, error) {
	args := m.Called(userID, id, targetParentID)
	if folder, ok := args.Get(0).(*models.Folder); ok {
		return folder, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFolderService) DeleteFolder(ctx context.Context, userID string, id uint, opts dto.DeleteFolderOptions) error {
	args := m.Called(userID, id, opts)
	return args.Error(0)
}

func (m *MockFolderService) GetFolderContents(ctx context.Context, folderID *uint) (*dto.FolderContents, error) {
	args := m.Called(folderID)
	if contents, ok := args.Get(0).(*dto.FolderContents); ok {
		return contents, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFolderService) GetBreadcrumbs(ctx context.Context, id uint) ([]models.Folder, error) {
	args := m.Called(id)
	return args.Get(0).([]models.Folder), args.Error(1)
}

func newFolderApp(service *MockFolderService) *fiber.App {
	app := fiber.New()
	handler := NewFolderHandler(service)
	api := app.Group("/api", UserIdentity())
	api.Get("/folders", handler.GetFolderContents)
	api.Post("/folders", handler.CreateFolder)
	api.Get("/folders/:id", handler.GetFolder)
	api.Patch("/folders/:id", handler.UpdateFolder)
	api.Delete("/folders/:id", handler.DeleteFolder)
	api.Post("/folders/:id/move", handler.MoveFolder)
	api.Get("/folders/:id/breadcrumbs", handler.GetBreadcrumbs)
	return app
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userIDHeader, "user-1")
	return req
}

func decodeResult(t *testing.T, resp *http.Response) dto.Result {
	t.Helper()
	var result dto.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestCreateFolder_Success(t *testing.T) {
	service := new(MockFolderService)
	app := newFolderApp(service)
	parent := uint(3)
	req := dto.CreateFolderRequest{Name: "Photos", ParentFolderID: &parent}
	service.On("CreateFolder", "user-1", req).
		Return(&models.Folder{BaseModel: models.BaseModel{ID: 7}, Name: "Photos", Path: "Media/Photos", ParentFolderID: &parent}, nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/folders", req))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	result := decodeResult(t, resp)
	assert.True(t, result.Success)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, "Media/Photos", data["path"])
	service.AssertExpectations(t)
}

func TestCreateFolder_ErrorKinds(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedKind string
	}{
		{"duplicate", apperr.Conflict("exists"), http.StatusConflict, "CONFLICT"},
		{"invalid name", apperr.Validation("bad name"), http.StatusBadRequest, "VALIDATION"},
		{"no user", apperr.Unauthorized("user required"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"database down", apperr.Internal(assert.AnError, "folder storage failure"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockFolderService)
			app := newFolderApp(service)
			service.On("CreateFolder", "user-1", mock.Anything).Return(nil, tt.err)

			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/folders", dto.CreateFolderRequest{Name: "Media"}))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCode, resp.StatusCode)

			result := decodeResult(t, resp)
			assert.False(t, result.Success)
			assert.Equal(t, tt.expectedKind, result.Code)
			assert.NotContains(t, result.Error, assert.AnError.Error())
		})
	}
}

func TestCreateFolder_InvalidBody(t *testing.T) {
	service := new(MockFolderService)
	app := newFolderApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/folders", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	service.AssertNotCalled(t, "CreateFolder", mock.Anything, mock.Anything)
}

func TestGetFolder_InvalidID(t *testing.T) {
	service := new(MockFolderService)
	app := newFolderApp(service)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/folders/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetFolder_NotFound(t *testing.T) {
	service := new(MockFolderService)
	app := newFolderApp(service)
	service.On("GetFolder", uint(9)).Return(nil, apperr.NotFound("folder not found"))

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/folders/9", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "folder not found", decodeResult(t, resp).Error)
}

func TestMoveFolder_ToRoot(t *testing.T) {
	service := new(MockFolderService)
	app := newFolderApp(service)
	service.On("MoveFolder", "user-1", uint(4), (*uint)(nil)).
		Return(&models.Folder{BaseModel: models.BaseModel{ID: 4}, Name: "Photos", Path: "Photos"}, nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/folders/4/move", map[string]interface{}{"target_parent_id": nil}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	service.AssertExpectations(t)
}

func TestDeleteFolder_PassesOptions(t *testing.T) {
	service := new(MockFolderService)
	app := newFolderApp(service)
	service.On("DeleteFolder", "user-1", uint(5), dto.DeleteFolderOptions{Recursive: true, MoveFilesToParent: true}).Return(nil)

	resp, err := app.Test(jsonRequest(http.MethodDelete, "/api/folders/5?recursive=true&move_files_to_parent=true", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	service.AssertExpectations(t)
}

func TestGetFolderContents_Root(t *testing.T) {
	service := new(MockFolderService)
	app := newFolderApp(service)
	service.On("GetFolderContents", (*uint)(nil)).Return(&dto.FolderContents{
		Subfolders: []models.Folder{{Name: "Media", Path: "Media"}},
		Files:      []models.File{},
	}, nil)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/folders", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	service.AssertExpectations(t)
}
