package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"Stash/internal/config"
	"Stash/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newObjectApp(t *testing.T) (*fiber.App, *ObjectHandler, *storage.LocalGateway) {
	t.Helper()
	gateway, err := storage.NewLocalGateway(config.LocalStorageConfig{
		Path:       t.TempDir(),
		BaseURL:    "http://cdn.test",
		SigningKey: "test-key",
	})
	require.NoError(t, err)
	handler := NewObjectHandler(gateway)
	app := fiber.New(fiber.Config{UnescapePath: true})
	app.Get("/objects/*", handler.ServeObject)
	return app, handler, gateway
}

// signedTarget returns the request URI of a signed URL for objectPath.
func signedTarget(t *testing.T, gateway *storage.LocalGateway, objectPath string) string {
	t.Helper()
	signed, err := gateway.GetSignedURL(context.Background(), objectPath, time.Hour)
	require.NoError(t, err)
	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	return parsed.RequestURI()
}

func TestServeObject_ValidSignature(t *testing.T) {
	app, _, gateway := newObjectApp(t)
	body := "hello cdn"
	require.NoError(t, gateway.PutObject(context.Background(), "files/a/press kit.txt", strings.NewReader(body), int64(len(body)), "text/plain"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, signedTarget(t, gateway, "files/a/press kit.txt"), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="press kit.txt"`)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestServeObject_Expired(t *testing.T) {
	app, handler, gateway := newObjectApp(t)
	require.NoError(t, gateway.PutObject(context.Background(), "files/a/a.txt", strings.NewReader("x"), 1, "text/plain"))
	target := signedTarget(t, gateway, "files/a/a.txt")
	handler.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeObject_TamperedSignature(t *testing.T) {
	app, _, gateway := newObjectApp(t)
	require.NoError(t, gateway.PutObject(context.Background(), "files/a/a.txt", strings.NewReader("x"), 1, "text/plain"))
	require.NoError(t, gateway.PutObject(context.Background(), "files/b/b.txt", strings.NewReader("y"), 1, "text/plain"))

	target := signedTarget(t, gateway, "files/a/a.txt")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, strings.Replace(target, "files/a/a.txt", "files/b/b.txt", 1), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/objects/files/a/a.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeObject_MissingObject(t *testing.T) {
	app, _, gateway := newObjectApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, signedTarget(t, gateway, "files/gone.txt"), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeResult(t, resp).Code)
}
