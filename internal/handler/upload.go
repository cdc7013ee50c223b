package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/service"
)

type UploadService interface {
	Upload(ctx context.Context, folder string, f service.UploadFile) (service.UploadResult, error)
	UploadMany(ctx context.Context, folder string, files []service.UploadFile) ([]service.UploadResult, error)
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys []string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (service.SignedURL, error)
	PresignedPut(ctx context.Context, folder, fileName, contentType string, ttl time.Duration) (service.PresignedUpload, error)
}

// uploadTimeout is longer than requestTimeout: a multipart body of several
// images is streamed to the bucket inside the request.
const uploadTimeout = 60 * time.Second

type UploadHandler struct {
	Uploads UploadService
}

func NewUploadHandler(s UploadService) *UploadHandler {
	if s == nil {
		panic("nil service passed to NewUploadHandler")
	}
	return &UploadHandler{Uploads: s}
}

type deleteKeyReq struct {
	Key string `json:"key"`
}

type deleteKeysReq struct {
	Keys []string `json:"keys"`
}

// Upload handles POST /upload?folder=, multipart field "file".
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("No file provided")
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Unexpected(err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), uploadTimeout)
	defer cancel()

	res, err := h.Uploads.Upload(ctx, c.QueryParam("folder"), service.UploadFile{Name: fh.Filename, Size: fh.Size, Content: f})
	if err != nil {
		return err
	}
	return okMessage(c, "File uploaded successfully", res)
}

// UploadMultiple handles POST /upload/multiple, multipart field "files".
func (h *UploadHandler) UploadMultiple(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperr.Validation("No files provided")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return apperr.Validation("No files provided")
	}

	files := make([]service.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return apperr.Unexpected(err)
		}
		opened = append(opened, f)
		files = append(files, service.UploadFile{Name: fh.Filename, Size: fh.Size, Content: f})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), uploadTimeout)
	defer cancel()

	res, err := h.Uploads.UploadMany(ctx, c.QueryParam("folder"), files)
	if err != nil {
		return err
	}
	return okMessage(c, fmt.Sprintf("%d file(s) uploaded successfully", len(res)), res)
}

func (h *UploadHandler) Delete(c echo.Context) error {
	var req deleteKeyReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Uploads.Delete(ctx, req.Key); err != nil {
		return err
	}
	return okMessage(c, "File deleted successfully", nil)
}

func (h *UploadHandler) DeleteMultiple(c echo.Context) error {
	var req deleteKeysReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Uploads.DeleteMany(ctx, req.Keys); err != nil {
		return err
	}
	return okMessage(c, fmt.Sprintf("%d file(s) deleted successfully", len(req.Keys)), nil)
}

// SignedURL handles GET /upload/signed-url?key=&expiresIn=<seconds>.
func (h *UploadHandler) SignedURL(c echo.Context) error {
	ttl, err := expiresIn(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	key := c.QueryParam("key")
	res, err := h.Uploads.SignedURL(ctx, key, ttl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: map[string]any{
		"key":       key,
		"signedUrl": res.URL,
		"expiresIn": res.ExpiresIn,
	}})
}

// PresignedPut handles GET /upload/presigned-put?folder=&fileName=&contentType=&expiresIn=.
func (h *UploadHandler) PresignedPut(c echo.Context) error {
	ttl, err := expiresIn(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Uploads.PresignedPut(ctx, c.QueryParam("folder"), c.QueryParam("fileName"), c.QueryParam("contentType"), ttl)
	if err != nil {
		return err
	}
	return ok(c, res)
}

func expiresIn(c echo.Context) (time.Duration, error) {
	raw := c.QueryParam("expiresIn")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperr.Validation("expiresIn must be between 1 second and 7 days")
	}
	return time.Duration(n) * time.Second, nil
}
