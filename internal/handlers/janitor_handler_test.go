package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"Stash/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockJanitorService struct {
	mock.Mock
}

func (m *MockJanitorService) ForceStartCleanCycle() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockJanitorService) IsCleaning() bool {
	args := m.Called()
	return args.Bool(0)
}

func newJanitorApp(service *MockJanitorService) *fiber.App {
	app := fiber.New()
	handler := NewJanitorHandler(service)
	api := app.Group("/api", UserIdentity())
	api.Post("/janitor/clean", handler.ForceClean)
	api.Get("/janitor/status", handler.Status)
	return app
}

func TestForceClean_Accepted(t *testing.T) {
	service := new(MockJanitorService)
	app := newJanitorApp(service)
	service.On("ForceStartCleanCycle").Return(nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/janitor/clean", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	service.AssertExpectations(t)
}

func TestForceClean_AlreadyRunning(t *testing.T) {
	service := new(MockJanitorService)
	app := newJanitorApp(service)
	service.On("ForceStartCleanCycle").Return(services.ErrCleaningInProgress)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/janitor/clean", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "STATE", decodeResult(t, resp).Code)
}

func TestForceClean_RequiresUser(t *testing.T) {
	service := new(MockJanitorService)
	app := newJanitorApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/janitor/clean", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	service.AssertNotCalled(t, "ForceStartCleanCycle")
}

func TestJanitorStatus(t *testing.T) {
	service := new(MockJanitorService)
	app := newJanitorApp(service)
	service.On("IsCleaning").Return(true)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/janitor/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeResult(t, resp).Data.(map[string]interface{})["cleaning"])
}
