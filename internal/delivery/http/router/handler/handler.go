// Package handler contains the HTTP handlers of the rendering-layer boundary.
package handler

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/delivery/http/response"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/entity"
	"storefront/internal/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxUploadSize bounds a single uploaded image.
const maxUploadSize = 10 << 20

// HealthCheck reports that the process is serving.
func HealthCheck(c echo.Context) error {
	return response.OK(c, map[string]string{"status": "ok"})
}

func log(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, fallback)
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails(name + ": uuid")
	}

	return id, nil
}

// bindAndValidate decodes the request into input and runs the echo validator.
func bindAndValidate(c echo.Context, input any) error {
	if err := c.Bind(input); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("invalid request body")
	}

	return c.Validate(input)
}

// readUploads loads the multipart files of field into memory.
func readUploads(c echo.Context, field string) ([]*entity.ImageUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "parse multipart form")
	}

	files := form.File[field]
	uploads := make([]*entity.ImageUpload, 0, len(files))
	for _, header := range files {
		upload, err := readUpload(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}

	return uploads, nil
}

func readUpload(header *multipart.FileHeader) (*entity.ImageUpload, error) {
	if header.Size > maxUploadSize {
		return nil, domainerrors.ErrValidationFailed.WithDetails(header.Filename + ": too large")
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}

	contentType := header.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &entity.ImageUpload{Name: header.Filename, ContentType: contentType, Data: data}, nil
}
