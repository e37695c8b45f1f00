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

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) CreateUploadSession(ctx context.Context, userID string, req dto.CreateUploadSessionRequest) (*models.UploadSession, error) {
	args := m.Called(userID, req)
	if session, ok := args.Get(0).(*models.UploadSession); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUploadService) AppendChunk(ctx context.Context, userID, token string, chunkIndex int, reader io.Reader, size int64) (*dto.ChunkProgress, error) {
	data, _ := io.ReadAll(reader)
	args := m.Called(userID, token, chunkIndex, string(data), size)
	if progress, ok := args.Get(0).(*dto.ChunkProgress); ok {
		return progress, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUploadService) CompleteUpload(ctx context.Context, userID string, req dto.CompleteUploadRequest) (*models.File, error) {
	args := m.Called(userID, req)
	if file, ok := args.Get(0).(*models.File); ok {
		return file, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUploadService) AbortUpload(ctx context.Context, userID, token string) error {
	args := m.Called(userID, token)
	return args.Error(0)
}

func (m *MockUploadService) GetUploadSession(ctx context.Context, token string) (*dto.UploadSessionView, error) {
	args := m.Called(token)
	if view, ok := args.Get(0).(*dto.UploadSessionView); ok {
		return view, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUploadService) UploadDirect(ctx context.Context, userID string, req dto.DirectUploadRequest) (*models.File, error) {
	data, _ := io.ReadAll(req.Reader)
	req.Reader = nil
	args := m.Called(userID, req, string(data))
	if file, ok := args.Get(0).(*models.File); ok {
		return file, args.Error(1)
	}
	return nil, args.Error(1)
}

func newUploadApp(service *MockUploadService) *fiber.App {
	app := fiber.New()
	handler := NewUploadHandler(service)
	api := app.Group("/api", UserIdentity())
	api.Post("/uploads", handler.CreateSession)
	api.Post("/uploads/direct", handler.UploadDirect)
	api.Get("/uploads/:token", handler.GetSession)
	api.Delete("/uploads/:token", handler.AbortUpload)
	api.Put("/uploads/:token/chunks/:index", handler.AppendChunk)
	api.Post("/uploads/:token/complete", handler.CompleteUpload)
	return app
}

func TestAppendChunk_RawBody(t *testing.T) {
	service := new(MockUploadService)
	app := newUploadApp(service)
	service.On("AppendChunk", "user-1", "tok", 2, "chunk-bytes", int64(11)).
		Return(&dto.ChunkProgress{ChunksReceived: 1, TotalChunks: 3}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/uploads/tok/chunks/2", bytes.NewReader([]byte("chunk-bytes")))
	req.Header.Set(userIDHeader, "user-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeResult(t, resp).Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["chunks_received"])
	service.AssertExpectations(t)
}

func TestAppendChunk_BadIndex(t *testing.T) {
	service := new(MockUploadService)
	app := newUploadApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/uploads/tok/chunks/first", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompleteUpload_TokenFromPath(t *testing.T) {
	service := new(MockUploadService)
	app := newUploadApp(service)
	service.On("CompleteUpload", "user-1", dto.CompleteUploadRequest{SessionToken: "tok", DisplayName: "Intro"}).
		Return(&models.File{BaseModel: models.BaseModel{ID: 3}, Name: "intro.mp4"}, nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/uploads/tok/complete", map[string]string{
		"session_token": "ignored",
		"display_name":  "Intro",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	service.AssertExpectations(t)
}

func TestCompleteUpload_Incomplete(t *testing.T) {
	service := new(MockUploadService)
	app := newUploadApp(service)
	service.On("CompleteUpload", "user-1", mock.Anything).Return(nil, apperr.State("upload incomplete: 1 of 3 chunks received"))

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/tok/complete", nil)
	req.Header.Set(userIDHeader, "user-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "STATE", decodeResult(t, resp).Code)
}

func TestUploadDirect_Multipart(t *testing.T) {
	service := new(MockUploadService)
	app := newUploadApp(service)
	folderID := uint(8)
	service.On("UploadDirect", "user-1", dto.DirectUploadRequest{
		FileName:    "logo.svg",
		DisplayName: "Logo",
		FolderID:    &folderID,
		Size:        5,
	}, "<svg>").Return(&models.File{BaseModel: models.BaseModel{ID: 1}, Name: "logo.svg"}, nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "logo.svg")
	require.NoError(t, err)
	_, err = part.Write([]byte("<svg>"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("display_name", "Logo"))
	require.NoError(t, writer.WriteField("folder_id", "8"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/direct", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(userIDHeader, "user-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	service.AssertExpectations(t)
}

func TestUploadDirect_MissingFile(t *testing.T) {
	service := new(MockUploadService)
	app := newUploadApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/uploads/direct", map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAbortUpload(t *testing.T) {
	service := new(MockUploadService)
	app := newUploadApp(service)
	service.On("AbortUpload", "user-1", "tok").Return(nil)

	resp, err := app.Test(jsonRequest(http.MethodDelete, "/api/uploads/tok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeResult(t, resp).Success)
}
