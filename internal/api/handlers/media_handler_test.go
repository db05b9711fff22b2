package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMediaApp(media *MockMediaService) *fiber.App {
	h := NewMediaHandler(media)
	app := fiber.New()
	app.Post("/api/media", h.UploadMedia)
	app.Get("/media/:key", h.ServeMedia)
	return app
}

func multipartRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/media", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadMediaHandler(t *testing.T) {
	media := new(MockMediaService)
	media.On("Upload", mock.Anything, []byte("png-bytes")).
		Return(&transfer.MediaUpload{Key: "abc.png", URL: "https://api.example.com/media/abc.png"}, nil)
	media.On("Upload", mock.Anything, []byte("gif-bytes")).Return(nil, service.ErrUnsupportedMedia)
	app := newMediaApp(media)

	resp, err := app.Test(multipartRequest(t, "file", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var up transfer.MediaUpload
	decodeBody(t, resp, &up)
	assert.Equal(t, "abc.png", up.Key)

	resp, err = app.Test(multipartRequest(t, "file", []byte("gif-bytes")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, err = app.Test(multipartRequest(t, "other", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeMediaHandler(t *testing.T) {
	media := new(MockMediaService)
	media.On("Open", mock.Anything, "abc.png").Return(&service.MediaObject{
		Body:        io.NopCloser(bytes.NewReader([]byte("png-bytes"))),
		ContentType: "image/png",
		Size:        9,
	}, nil)
	media.On("Open", mock.Anything, "missing.png").Return(nil, service.ErrMediaNotFound)
	app := newMediaApp(media)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/abc.png", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/media/missing.png", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
